package discovery

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"LiveGameSync/internal/fingerprint"
	"LiveGameSync/internal/gameid"
	"LiveGameSync/internal/model"
	"LiveGameSync/internal/upstream"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

type fakeFetcher struct {
	result *upstream.FetchResult
	err    error
	date   string // 最近一次请求的日期
}

func (f *fakeFetcher) FetchSchedule(_ context.Context, date string, _ string) (*upstream.FetchResult, error) {
	f.date = date
	return f.result, f.err
}
func (f *fakeFetcher) FetchSummary(context.Context, string, string) (*upstream.FetchResult, error) {
	panic("测试中不应调用")
}
func (f *fakeFetcher) FetchPlayByPlay(context.Context, string, string) (*upstream.FetchResult, error) {
	panic("测试中不应调用")
}

type fakePublisher struct {
	events []*model.ChangeEvent
	err    error
}

func (f *fakePublisher) Publish(_ context.Context, event *model.ChangeEvent) error {
	if f.err != nil {
		return f.err
	}
	f.events = append(f.events, event)
	return nil
}

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

func scheduleBody(t *testing.T, date string, games []model.ScheduleGame) []byte {
	t.Helper()
	b, err := json.Marshal(model.SchedulePayload{Date: date, Games: games})
	require.NoError(t, err)
	return b
}

func TestDiscoverPublishesRosterEvent(t *testing.T) {
	body := scheduleBody(t, "2026-01-08", []model.ScheduleGame{
		{ID: "id-1", NativeID: "0022300123", Status: "scheduled"},
		{ID: "id-2", NativeID: "0022300124", Status: "scheduled"},
	})
	fetcher := &fakeFetcher{result: &upstream.FetchResult{Status: upstream.StatusFetched, Body: body}}
	pub := &fakePublisher{}
	s := NewService(fetcher, pub, quietLogger())

	games, canonical, err := s.Discover(context.Background(), "2026-01-08")
	require.NoError(t, err)
	require.Equal(t, "2026-01-08", canonical)
	require.Len(t, games, 2)
	require.Len(t, pub.events, 1)

	event := pub.events[0]
	require.Equal(t, model.FeedSchedule, event.Kind)
	require.Empty(t, event.GameID) // roster级事件不属于单场比赛
	require.Equal(t, "schedule:2026-01-08", event.PartitionKey())

	// 指纹描述的就是事件自己携带的payload字节
	wantFP, err := fingerprint.Of(event.Payload)
	require.NoError(t, err)
	require.Equal(t, wantFP, event.Fingerprint)
}

func TestDiscoverEmptyRosterIsSuccess(t *testing.T) {
	body := scheduleBody(t, "2026-07-01", nil)
	fetcher := &fakeFetcher{result: &upstream.FetchResult{Status: upstream.StatusFetched, Body: body}}
	pub := &fakePublisher{}
	s := NewService(fetcher, pub, quietLogger())

	// 空名单是正常结果：空列表 + 一条赛程事件，不是错误
	games, canonical, err := s.Discover(context.Background(), "2026-07-01")
	require.NoError(t, err)
	require.Empty(t, games)
	require.Equal(t, "2026-07-01", canonical)
	require.Len(t, pub.events, 1)
}

func TestDiscoverUsesCanonicalDate(t *testing.T) {
	// 上游返回的规范日期与请求不一致：以规范日期为准，不报错
	body := scheduleBody(t, "2026-01-09", []model.ScheduleGame{{ID: "id-1", Status: "scheduled"}})
	fetcher := &fakeFetcher{result: &upstream.FetchResult{Status: upstream.StatusFetched, Body: body}}
	pub := &fakePublisher{}
	s := NewService(fetcher, pub, quietLogger())

	_, canonical, err := s.Discover(context.Background(), "2026-01-08")
	require.NoError(t, err)
	require.Equal(t, "2026-01-09", canonical)
	require.Equal(t, "schedule:2026-01-09", pub.events[0].PartitionKey())
}

func TestDiscoverDerivesMissingIDs(t *testing.T) {
	body := scheduleBody(t, "2026-01-08", []model.ScheduleGame{
		{NativeID: "0022300123", Status: "scheduled"}, // 缺内部ID
	})
	fetcher := &fakeFetcher{result: &upstream.FetchResult{Status: upstream.StatusFetched, Body: body}}
	pub := &fakePublisher{}
	s := NewService(fetcher, pub, quietLogger())

	games, _, err := s.Discover(context.Background(), "2026-01-08")
	require.NoError(t, err)
	require.Len(t, games, 1)

	want, err := gameid.ToUUID("0022300123")
	require.NoError(t, err)
	require.Equal(t, want, games[0].ID)

	// 事件payload里携带补全后的ID
	var payload model.SchedulePayload
	require.NoError(t, json.Unmarshal(pub.events[0].Payload, &payload))
	require.Equal(t, want, payload.Games[0].ID)
}

func TestDiscoverFetchFailure(t *testing.T) {
	fetcher := &fakeFetcher{err: errors.New("connection refused")}
	pub := &fakePublisher{}
	s := NewService(fetcher, pub, quietLogger())

	_, _, err := s.Discover(context.Background(), "2026-01-08")
	require.Error(t, err)
	require.Empty(t, pub.events)
}

func TestDiscoverPublishFailurePropagates(t *testing.T) {
	body := scheduleBody(t, "2026-01-08", nil)
	fetcher := &fakeFetcher{result: &upstream.FetchResult{Status: upstream.StatusFetched, Body: body}}
	pub := &fakePublisher{err: errors.New("broker unavailable")}
	s := NewService(fetcher, pub, quietLogger())

	_, _, err := s.Discover(context.Background(), "2026-01-08")
	require.Error(t, err)
}
