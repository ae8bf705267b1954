package discovery

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"LiveGameSync/internal/fingerprint"
	"LiveGameSync/internal/gameid"
	"LiveGameSync/internal/interfaces"
	"LiveGameSync/internal/model"

	"github.com/sirupsen/logrus"
)

// Service 赛程发现：拉取某日比赛名单并作为变更事件重新发布，
// 让消费端解耦地upsert每场比赛的元数据
type Service struct {
	fetcher   interfaces.Fetcher
	publisher interfaces.Publisher
	logger    *logrus.Logger
}

// NewService 创建发现服务
func NewService(fetcher interfaces.Fetcher, publisher interfaces.Publisher, logger *logrus.Logger) *Service {
	return &Service{fetcher: fetcher, publisher: publisher, logger: logger}
}

// Discover 拉取指定日期的赛程，发布一条schedule变更事件，返回比赛列表与规范日期。
// 上游返回的规范日期与请求不一致时记警告并以规范日期为准；空名单是正常结果。
func (s *Service) Discover(ctx context.Context, date string) ([]model.ScheduleGame, string, error) {
	result, err := s.fetcher.FetchSchedule(ctx, date, "")
	if err != nil {
		return nil, "", fmt.Errorf("拉取%s赛程失败: %w", date, err)
	}
	if len(result.Body) == 0 {
		return nil, "", fmt.Errorf("拉取%s赛程失败: 响应无内容", date)
	}

	var payload model.SchedulePayload
	if err := json.Unmarshal(result.Body, &payload); err != nil {
		return nil, "", fmt.Errorf("解析%s赛程失败: %w", date, err)
	}

	canonical := payload.Date
	if canonical == "" {
		canonical = date
	}
	if canonical != date {
		s.logger.WithFields(logrus.Fields{
			"requested": date,
			"canonical": canonical,
		}).Warn("上游返回的规范日期与请求不一致，以规范日期为准")
	}

	// 补全缺失的内部ID（同一原生ID永远派生同一UUID，无需查表）
	for i := range payload.Games {
		if payload.Games[i].ID == "" && payload.Games[i].NativeID != "" {
			id, err := gameid.ToUUID(payload.Games[i].NativeID)
			if err != nil {
				s.logger.WithError(err).WithField("native_id", payload.Games[i].NativeID).Warn("派生比赛ID失败，跳过该场")
				continue
			}
			payload.Games[i].ID = id
		}
	}

	// 事件携带归一化后的payload（规范日期、补全ID），消费端不再做推断
	payload.Date = canonical
	normalized, err := json.Marshal(&payload)
	if err != nil {
		return nil, "", fmt.Errorf("序列化%s赛程失败: %w", canonical, err)
	}

	// 指纹描述的就是事件携带的这份字节，对归一化后的payload计算
	fp, err := fingerprint.Of(normalized)
	if err != nil {
		return nil, "", fmt.Errorf("计算%s赛程指纹失败: %w", canonical, err)
	}

	event := &model.ChangeEvent{
		Kind:          model.FeedSchedule,
		Source:        model.EventSource,
		SchemaVersion: model.EventSchemaVersion,
		FetchedAt:     time.Now().UTC(),
		Fingerprint:   fp,
		Payload:       normalized,
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		return nil, "", fmt.Errorf("发布%s赛程事件失败: %w", canonical, err)
	}

	s.logger.WithFields(logrus.Fields{
		"date":       canonical,
		"game_count": len(payload.Games),
	}).Infof("赛程发现完成，共%d场比赛", len(payload.Games))
	return payload.Games, canonical, nil
}
