package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"LiveGameSync/internal/cache"
	"LiveGameSync/internal/interfaces"
	"LiveGameSync/internal/model"

	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"
)

// scheduleTTL 赛程blob的固定过期时间
const scheduleTTL = 24 * time.Hour

// DualWriteConsumer 双写消费者：按分区顺序消费变更事件，
// 对每条事件独立执行缓存更新与持久化upsert。两个sink互相隔离，
// 任一失败只记日志，绝不中断后续消费（至少一次投递 + 幂等写入）。
type DualWriteConsumer struct {
	reader *kafka.Reader
	cache  interfaces.CacheStore
	repo   interfaces.SnapshotRepository
	minTTL time.Duration // 当前状态blob的过期下限
	logger *logrus.Logger
}

// NewDualWriteConsumer 创建双写消费者
func NewDualWriteConsumer(
	reader *kafka.Reader,
	cacheStore interfaces.CacheStore,
	repo interfaces.SnapshotRepository,
	minTTL time.Duration,
	logger *logrus.Logger,
) *DualWriteConsumer {
	return &DualWriteConsumer{
		reader: reader,
		cache:  cacheStore,
		repo:   repo,
		minTTL: minTTL,
		logger: logger,
	}
}

// Run 阻塞消费事件日志直到ctx取消。单条消息的任何失败都不会停止消费。
func (c *DualWriteConsumer) Run(ctx context.Context) {
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || ctx.Err() != nil {
				c.logger.Info("双写消费者已停止")
				return
			}
			c.logger.WithError(err).Warn("拉取消息失败，稍后重试")
			time.Sleep(time.Second)
			continue
		}

		c.Handle(ctx, msg.Value)

		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			c.logger.WithError(err).Warn("提交消费位点失败")
		}
	}
}

// Handle 处理一条事件。畸形payload或未知类型只记日志后跳过，绝不崩溃。
func (c *DualWriteConsumer) Handle(ctx context.Context, value []byte) {
	var event model.ChangeEvent
	if err := json.Unmarshal(value, &event); err != nil {
		c.logger.WithError(err).Warn("事件反序列化失败，跳过")
		return
	}
	if event.SchemaVersion > model.EventSchemaVersion {
		c.logger.WithField("schema_version", event.SchemaVersion).Warn("未知schema版本，跳过")
		return
	}

	// 按事件kind显式路由，不做结构推断
	switch event.Kind {
	case model.FeedSchedule:
		c.handleSchedule(ctx, &event)
	case model.FeedSummary:
		c.handleSummary(ctx, &event)
	case model.FeedPBP:
		c.handlePBP(ctx, &event)
	default:
		c.logger.WithField("kind", event.Kind).Warn("未识别的事件类型，跳过")
	}
}

// handleSchedule 赛程事件：缓存赛程blob + 比赛ID集合 + 每场元数据，
// 持久化赛程行与每场比赛行
func (c *DualWriteConsumer) handleSchedule(ctx context.Context, event *model.ChangeEvent) {
	var payload model.SchedulePayload
	if err := json.Unmarshal(event.Payload, &payload); err != nil {
		c.logger.WithError(err).Warn("赛程payload解析失败，跳过")
		return
	}
	if payload.Date == "" {
		c.logger.Warn("赛程payload缺少日期，跳过")
		return
	}

	// 缓存侧
	if err := c.cache.Set(ctx, cache.ScheduleKey(payload.Date), event.Payload, scheduleTTL); err != nil {
		c.logger.WithError(err).WithField("date", payload.Date).Warn("缓存赛程失败")
	}
	ids := make([]string, 0, len(payload.Games))
	for _, g := range payload.Games {
		if g.ID != "" {
			ids = append(ids, g.ID)
		}
	}
	if err := c.cache.AddToSet(ctx, cache.ScheduleGamesKey(payload.Date), scheduleTTL, ids...); err != nil {
		c.logger.WithError(err).WithField("date", payload.Date).Warn("缓存比赛ID集合失败")
	}

	// 持久化侧（与缓存侧互不影响）
	if err := c.repo.UpsertSchedulePeriod(ctx, &model.SchedulePeriod{
		Date:      payload.Date,
		GameCount: len(payload.Games),
		Payload:   datatypes.JSON(event.Payload),
	}); err != nil {
		c.logger.WithError(err).WithField("date", payload.Date).Warn("持久化赛程失败")
	}

	// 每场比赛独立处理，单场失败不影响其余
	for _, g := range payload.Games {
		if g.ID == "" {
			c.logger.WithField("native_id", g.NativeID).Warn("赛程中的比赛缺少ID，跳过")
			continue
		}
		c.writeGameMeta(ctx, &g)
		if err := c.repo.UpsertGame(ctx, scheduleGameToModel(&g)); err != nil {
			c.logger.WithError(err).WithField("game_id", g.ID).Warn("持久化比赛失败")
		}
	}
}

// handleSummary 摘要事件：覆盖当前状态blob（下限兜底的TTL），
// 按(比赛,指纹)去重追加历史版本，并顺带刷新比赛元数据
func (c *DualWriteConsumer) handleSummary(ctx context.Context, event *model.ChangeEvent) {
	if event.GameID == "" {
		c.logger.Warn("摘要事件缺少比赛ID，跳过")
		return
	}

	ttl := c.blobTTL(ctx, model.FeedSummary, event.GameID)
	if err := c.cache.Set(ctx, cache.GameSummaryKey(event.GameID), event.Payload, ttl); err != nil {
		c.logger.WithError(err).WithField("game_id", event.GameID).Warn("缓存摘要失败")
	}

	if err := c.repo.InsertSummaryVersion(ctx, &model.GameSummary{
		GameID:      event.GameID,
		Fingerprint: event.Fingerprint,
		Payload:     datatypes.JSON(event.Payload),
		FetchedAt:   event.FetchedAt,
	}); err != nil {
		c.logger.WithError(err).WithField("game_id", event.GameID).Warn("持久化摘要版本失败")
	}

	// 摘要里带着比赛最新状态，顺带刷新主表（解析失败不算错误）
	var g model.ScheduleGame
	if err := json.Unmarshal(event.Payload, &g); err == nil && g.ID != "" {
		if err := c.repo.UpsertGame(ctx, scheduleGameToModel(&g)); err != nil {
			c.logger.WithError(err).WithField("game_id", g.ID).Warn("刷新比赛元数据失败")
		}
	}
}

// handlePBP 逐回合事件：覆盖当前状态blob，持久化只保留最新版本
func (c *DualWriteConsumer) handlePBP(ctx context.Context, event *model.ChangeEvent) {
	if event.GameID == "" {
		c.logger.Warn("逐回合事件缺少比赛ID，跳过")
		return
	}

	ttl := c.blobTTL(ctx, model.FeedPBP, event.GameID)
	if err := c.cache.Set(ctx, cache.GamePBPKey(event.GameID), event.Payload, ttl); err != nil {
		c.logger.WithError(err).WithField("game_id", event.GameID).Warn("缓存逐回合数据失败")
	}

	if err := c.repo.UpsertPlayByPlay(ctx, &model.GamePlayByPlay{
		GameID:      event.GameID,
		Fingerprint: event.Fingerprint,
		Payload:     datatypes.JSON(event.Payload),
		FetchedAt:   event.FetchedAt,
	}); err != nil {
		c.logger.WithError(err).WithField("game_id", event.GameID).Warn("持久化逐回合数据失败")
	}
}

// blobTTL 当前状态blob的TTL：取该数据源最近一次计算的轮询延迟，
// 但永远不低于配置的下限
func (c *DualWriteConsumer) blobTTL(ctx context.Context, feed model.FeedKind, gameID string) time.Duration {
	b, ok, err := c.cache.Get(ctx, cache.DelayKey(string(feed), gameID))
	if err != nil || !ok {
		return c.minTTL
	}
	delay, err := time.ParseDuration(string(b))
	if err != nil || delay < c.minTTL {
		return c.minTTL
	}
	return delay
}

// writeGameMeta 缓存比赛元数据（桥接服务用nba_game_id做UUID反查）
func (c *DualWriteConsumer) writeGameMeta(ctx context.Context, g *model.ScheduleGame) {
	meta, err := json.Marshal(map[string]string{
		"nba_game_id": g.NativeID,
		"status":      g.Status,
		"scheduled":   g.Scheduled,
	})
	if err != nil {
		return
	}
	if err := c.cache.Set(ctx, cache.GameMetaKey(g.ID), meta, scheduleTTL); err != nil {
		c.logger.WithError(err).WithField("game_id", g.ID).Warn("缓存比赛元数据失败")
	}
}

// scheduleGameToModel 赛程/摘要中的比赛转换为数据库模型
func scheduleGameToModel(g *model.ScheduleGame) *model.Game {
	game := &model.Game{
		ID:       g.ID,
		NativeID: g.NativeID,
		Status:   g.Status,
		Home:     datatypes.JSON(g.Home),
		Away:     datatypes.JSON(g.Away),
	}
	if g.Scheduled != "" {
		if t, err := time.Parse(time.RFC3339, g.Scheduled); err == nil {
			game.ScheduledAt = &t
		}
	}
	return game
}
