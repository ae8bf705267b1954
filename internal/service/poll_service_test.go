package service

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"LiveGameSync/internal/cache"
	"LiveGameSync/internal/config"
	"LiveGameSync/internal/discovery"
	"LiveGameSync/internal/model"
	"LiveGameSync/internal/poll"
	"LiveGameSync/internal/poller"
	"LiveGameSync/internal/upstream"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

// fakeFetcher 赛程返回固定名单，比赛数据源永远304
type fakeFetcher struct {
	mu            sync.Mutex
	scheduleCalls int
	games         []model.ScheduleGame
}

func (f *fakeFetcher) FetchSchedule(_ context.Context, date string, _ string) (*upstream.FetchResult, error) {
	f.mu.Lock()
	f.scheduleCalls++
	f.mu.Unlock()
	body, _ := json.Marshal(model.SchedulePayload{Date: date, Games: f.games})
	return &upstream.FetchResult{Status: upstream.StatusFetched, Body: body}, nil
}

func (f *fakeFetcher) FetchSummary(context.Context, string, string) (*upstream.FetchResult, error) {
	return &upstream.FetchResult{Status: upstream.StatusNotModified}, nil
}

func (f *fakeFetcher) FetchPlayByPlay(context.Context, string, string) (*upstream.FetchResult, error) {
	return &upstream.FetchResult{Status: upstream.StatusNotModified}, nil
}

type fakeCache struct {
	mu   sync.Mutex
	data map[string]string
}

func (f *fakeCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.data[key]
	return []byte(v), ok, nil
}

func (f *fakeCache) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.data[key] = string(value)
	return nil
}

func (f *fakeCache) AddToSet(context.Context, string, time.Duration, ...string) error { return nil }

func (f *fakeCache) has(key string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.data[key]
	return ok
}

type fakePublisher struct {
	mu     sync.Mutex
	events []*model.ChangeEvent
}

func (f *fakePublisher) Publish(_ context.Context, event *model.ChangeEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, event)
	return nil
}

func TestPollServiceSpawnsPollersForDiscoveredGames(t *testing.T) {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)

	gameID := "23c1b90f-1dbe-559f-b598-498878ed17f0"
	fetcher := &fakeFetcher{games: []model.ScheduleGame{{ID: gameID, Status: "inprogress"}}}
	cacheStore := &fakeCache{data: make(map[string]string)}
	pub := &fakePublisher{}

	calc := poll.IntervalCalculator{Base: time.Millisecond, Floor: time.Millisecond}
	gamePoller := poller.NewGamePoller(fetcher, cacheStore, pub, calc, logger)
	supervisor := poller.NewSupervisor(gamePoller, logger)
	disc := discovery.NewService(fetcher, pub, logger)
	svc := NewPollService(disc, supervisor, &config.PollConfig{
		ScheduleRefresh: time.Hour, // 测试期内不触发重新发现
		TargetDate:      "2026-01-08",
	}, logger)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	done := make(chan struct{})
	go func() {
		svc.Run(ctx)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("轮询编排未在取消后退出")
	}

	// 发现只跑了一轮，发布了一条赛程事件
	require.Equal(t, 1, fetcher.scheduleCalls)
	pub.mu.Lock()
	require.Equal(t, model.FeedSchedule, pub.events[0].Kind)
	pub.mu.Unlock()

	// 被发现的比赛两个数据源都跑起了轮询循环
	for _, feed := range model.GameFeeds {
		require.True(t, cacheStore.has(cache.DelayKey(string(feed), gameID)),
			"feed %s 未启动轮询", feed)
	}
}
