package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"LiveGameSync/internal/config"
	"LiveGameSync/internal/interfaces"
	"LiveGameSync/internal/model"

	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"
)

// KafkaPublisher 变更事件发布器：按分区键hash，同一(数据源,比赛)的事件落同一分区保序
type KafkaPublisher struct {
	writer *kafka.Writer
	logger *logrus.Logger
}

// NewPublisher 创建Kafka发布器（同步写，发布失败直接返回给调用方）
func NewPublisher(cfg *config.KafkaConfig, logger *logrus.Logger) *KafkaPublisher {
	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(cfg.Brokers...),
			Topic:        cfg.Topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireAll,
			BatchTimeout: 50 * time.Millisecond,
			Transport:    &kafka.Transport{ClientID: cfg.ClientID},
		},
		logger: logger,
	}
}

var _ interfaces.Publisher = (*KafkaPublisher)(nil)

// Publish 追加一条变更事件到日志。返回nil才代表发布成功，调用方不得提前假设。
func (p *KafkaPublisher) Publish(ctx context.Context, event *model.ChangeEvent) error {
	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("序列化变更事件失败: %w", err)
	}
	key := event.PartitionKey()
	if err := p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(key),
		Value: value,
	}); err != nil {
		return fmt.Errorf("发布变更事件失败: %w, key: %s", err, key)
	}
	p.logger.WithFields(logrus.Fields{
		"kind":        event.Kind,
		"game_id":     event.GameID,
		"fingerprint": event.Fingerprint,
	}).Debug("变更事件已发布")
	return nil
}

// Close 关闭底层writer
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// NewReader 创建消费端Reader（按消费者组订阅，分区内保序投递）
func NewReader(cfg *config.KafkaConfig) *kafka.Reader {
	return kafka.NewReader(kafka.ReaderConfig{
		Brokers:  cfg.Brokers,
		GroupID:  cfg.GroupID,
		Topic:    cfg.Topic,
		MinBytes: 1,
		MaxBytes: 10e6,
		Dialer: &kafka.Dialer{
			ClientID:  cfg.ClientID,
			Timeout:   10 * time.Second,
			DualStack: true,
		},
	})
}
