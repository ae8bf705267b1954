package poller

import (
	"context"
	"fmt"
	"time"

	"LiveGameSync/internal/cache"
	"LiveGameSync/internal/fingerprint"
	"LiveGameSync/internal/interfaces"
	"LiveGameSync/internal/model"
	"LiveGameSync/internal/poll"
	"LiveGameSync/internal/upstream"

	"github.com/sirupsen/logrus"
)

// CycleOutcome 单次轮询周期的结果分支
type CycleOutcome string

const (
	OutcomeChanged     CycleOutcome = "changed"      // 拿到新payload且指纹变化，已发布事件
	OutcomeNoChange    CycleOutcome = "no_change"    // 拿到payload但指纹未变
	OutcomeNotModified CycleOutcome = "not_modified" // 304，内容未变
	OutcomeFetchFailed CycleOutcome = "fetch_failed" // 抓取失败，按标准延迟等下个周期重试
	OutcomeCanceled    CycleOutcome = "canceled"     // 周期内观察到取消，结果整体丢弃
)

// GamePoller 单场比赛单数据源的轮询状态机：
// 条件抓取 → 更新调度 → 指纹比对 → 更新缓存 → 发布事件
type GamePoller struct {
	fetcher   interfaces.Fetcher
	cache     interfaces.CacheStore
	publisher interfaces.Publisher
	calc      poll.IntervalCalculator
	logger    *logrus.Logger
}

// NewGamePoller 创建轮询器（所有依赖显式注入）
func NewGamePoller(
	fetcher interfaces.Fetcher,
	cacheStore interfaces.CacheStore,
	publisher interfaces.Publisher,
	calc poll.IntervalCalculator,
	logger *logrus.Logger,
) *GamePoller {
	return &GamePoller{
		fetcher:   fetcher,
		cache:     cacheStore,
		publisher: publisher,
		calc:      calc,
		logger:    logger,
	}
}

// PollOnce 执行一个轮询周期。无论走到哪个分支都会整组重写轮询状态，
// 供上层重新调度。返回的error只有两类：发布失败（必须可见）和非法入参。
func (p *GamePoller) PollOnce(ctx context.Context, gameID string, feed model.FeedKind) (time.Duration, CycleOutcome, error) {
	// 1. 读取上次轮询状态（缓存故障不阻塞轮询，退化为全量抓取）
	etag := p.loadString(ctx, cache.ETagKey(string(feed), gameID))
	lastFP := p.loadString(ctx, cache.FingerprintKey(string(feed), gameID))

	// 2. 条件抓取。进行中的请求不随取消中断，靠HTTP客户端自身的超时兜底
	result, err := p.fetch(context.WithoutCancel(ctx), gameID, feed, etag)

	// 抓取归来后发现取消已到达：结果整体丢弃，不写状态不发事件
	if ctx.Err() != nil {
		return 0, OutcomeCanceled, nil
	}

	if err != nil {
		delay := p.calc.Next(0)
		p.writePollState(ctx, gameID, feed, delay, etag, lastFP)
		p.logger.WithError(err).WithFields(logrus.Fields{
			"game_id": gameID,
			"feed":    feed,
			"delay":   delay,
		}).Warn("抓取失败，等待下个周期重试")
		return delay, OutcomeFetchFailed, nil
	}

	// 3. 用server通告的缓存寿命重算延迟（304也要重算）
	delay := p.calc.Next(result.MaxAge)

	if result.Status == upstream.StatusNotModified {
		// 304确认存量validator与指纹仍然有效：整组续期，防止静默期内过期
		p.writePollState(ctx, gameID, feed, delay, etag, lastFP)
		return delay, OutcomeNotModified, nil
	}

	// 响应未携带新validator时沿用旧的，保住条件请求能力
	newETag := result.ETag
	if newETag == "" {
		newETag = etag
	}

	// 4. 计算指纹并与上次比对
	fp, err := fingerprint.Of(result.Body)
	if err != nil {
		p.writePollState(ctx, gameID, feed, delay, etag, lastFP)
		p.logger.WithError(err).WithFields(logrus.Fields{
			"game_id": gameID,
			"feed":    feed,
		}).Warn("payload无法规范化，按抓取失败处理")
		return delay, OutcomeFetchFailed, nil
	}

	if fp == lastFP {
		// 指纹未变：只刷新轮询状态，不发事件
		p.writePollState(ctx, gameID, feed, delay, newETag, fp)
		return delay, OutcomeNoChange, nil
	}

	// 5. 指纹变化（或首次）：先持久化轮询状态，再恰好发布一条变更事件
	p.writePollState(ctx, gameID, feed, delay, newETag, fp)
	event := &model.ChangeEvent{
		Kind:          feed,
		GameID:        gameID,
		Source:        model.EventSource,
		SchemaVersion: model.EventSchemaVersion,
		FetchedAt:     time.Now().UTC(),
		Fingerprint:   fp,
		Payload:       result.Body,
	}
	if err := p.publisher.Publish(ctx, event); err != nil {
		// 发布失败必须可见：事件不存在，下游永远不会知道这次变更
		return delay, OutcomeChanged, fmt.Errorf("发布%s变更事件失败: %w", feed, err)
	}
	p.logger.WithFields(logrus.Fields{
		"game_id":     gameID,
		"feed":        feed,
		"fingerprint": fp,
		"delay":       delay,
	}).Info("检测到变更，事件已发布")
	return delay, OutcomeChanged, nil
}

// fetch 按数据源类型分发到对应端点
func (p *GamePoller) fetch(ctx context.Context, gameID string, feed model.FeedKind, etag string) (*upstream.FetchResult, error) {
	switch feed {
	case model.FeedSummary:
		return p.fetcher.FetchSummary(ctx, gameID, etag)
	case model.FeedPBP:
		return p.fetcher.FetchPlayByPlay(ctx, gameID, etag)
	default:
		return nil, fmt.Errorf("未支持的数据源: %s", feed)
	}
}

// loadString 读取缓存字符串，故障或未命中都返回空串
func (p *GamePoller) loadString(ctx context.Context, key string) string {
	b, ok, err := p.cache.Get(ctx, key)
	if err != nil {
		p.logger.WithError(err).WithField("key", key).Warn("读取缓存失败，按未命中处理")
		return ""
	}
	if !ok {
		return ""
	}
	return string(b)
}

// writePollState 刷新轮询状态（延迟必写，validator与指纹有值才写）。
// 每个分支都整组重写，TTL随周期滚动续期：只要循环还在跑状态就不过期，
// 循环停止后自然过期，过期只意味着下次退化为全量抓取，安全。
// TTL取延迟的两倍，错过一个周期状态仍在。
func (p *GamePoller) writePollState(ctx context.Context, gameID string, feed model.FeedKind, delay time.Duration, etag, fp string) {
	ttl := 2 * delay
	if ttl < 2*p.calc.Floor {
		ttl = 2 * p.calc.Floor
	}
	p.setQuietly(ctx, cache.DelayKey(string(feed), gameID), delay.String(), ttl)
	if etag != "" {
		p.setQuietly(ctx, cache.ETagKey(string(feed), gameID), etag, ttl)
	}
	if fp != "" {
		p.setQuietly(ctx, cache.FingerprintKey(string(feed), gameID), fp, ttl)
	}
}

// setQuietly 缓存写入失败只记日志，不影响本周期结论
func (p *GamePoller) setQuietly(ctx context.Context, key, value string, ttl time.Duration) {
	if err := p.cache.Set(ctx, key, []byte(value), ttl); err != nil {
		p.logger.WithError(err).WithField("key", key).Warn("写入缓存失败")
	}
}
