package interfaces

import (
	"context"
	"time"

	"LiveGameSync/internal/model"
	"LiveGameSync/internal/upstream"
)

// Fetcher 上游条件请求客户端契约
type Fetcher interface {
	FetchSchedule(ctx context.Context, date string, etag string) (*upstream.FetchResult, error)
	FetchSummary(ctx context.Context, gameID string, etag string) (*upstream.FetchResult, error)
	FetchPlayByPlay(ctx context.Context, gameID string, etag string) (*upstream.FetchResult, error)
}

// Publisher 变更事件发布契约：发布失败必须同步报告给调用方
type Publisher interface {
	Publish(ctx context.Context, event *model.ChangeEvent) error
}

// CacheStore 缓存Store契约（带TTL的KV + 集合pipeline）
type CacheStore interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	AddToSet(ctx context.Context, key string, ttl time.Duration, members ...string) error
}

// SnapshotRepository 持久化契约：所有写入幂等，可安全重放
type SnapshotRepository interface {
	UpsertGame(ctx context.Context, game *model.Game) error
	UpsertSchedulePeriod(ctx context.Context, period *model.SchedulePeriod) error
	InsertSummaryVersion(ctx context.Context, summary *model.GameSummary) error
	UpsertPlayByPlay(ctx context.Context, pbp *model.GamePlayByPlay) error
}
