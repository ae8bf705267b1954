package service

import (
	"context"
	"time"

	"LiveGameSync/internal/config"
	"LiveGameSync/internal/discovery"
	"LiveGameSync/internal/poller"

	"github.com/sirupsen/logrus"
	"github.com/sourcegraph/conc"
)

// PollService 轮询编排：启动时发现当日赛程，为每场比赛拉起监督器，
// 并按固定间隔重新发现，只为新出现的比赛补拉监督器
type PollService struct {
	discovery  *discovery.Service
	supervisor *poller.Supervisor
	refresh    time.Duration
	targetDate string // 空=每次取当天
	logger     *logrus.Logger
	running    map[string]struct{} // 已有监督器的比赛（仅Run协程访问）
}

// NewPollService 创建轮询编排服务
func NewPollService(
	disc *discovery.Service,
	supervisor *poller.Supervisor,
	cfg *config.PollConfig,
	logger *logrus.Logger,
) *PollService {
	return &PollService{
		discovery:  disc,
		supervisor: supervisor,
		refresh:    cfg.ScheduleRefresh,
		targetDate: cfg.TargetDate,
		logger:     logger,
		running:    make(map[string]struct{}),
	}
}

// Run 阻塞运行直到ctx取消，返回前等待所有轮询循环退出
func (s *PollService) Run(ctx context.Context) {
	wg := conc.NewWaitGroup()
	defer wg.Wait()

	s.discoverAndSpawn(ctx, wg)

	ticker := time.NewTicker(s.refresh)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("轮询编排已收到停止信号")
			return
		case <-ticker.C:
			s.discoverAndSpawn(ctx, wg)
		}
	}
}

// discoverAndSpawn 执行一轮赛程发现，为新出现的比赛拉起监督器。
// 发现失败只记日志，等下个刷新周期重试。
func (s *PollService) discoverAndSpawn(ctx context.Context, wg *conc.WaitGroup) {
	date := s.targetDate
	if date == "" {
		date = time.Now().Format("2006-01-02")
	}

	games, canonical, err := s.discovery.Discover(ctx, date)
	if err != nil {
		s.logger.WithError(err).WithField("date", date).Warn("赛程发现失败，等待下个刷新周期")
		return
	}

	spawned := 0
	for _, g := range games {
		if g.ID == "" {
			continue
		}
		if _, ok := s.running[g.ID]; ok {
			continue
		}
		s.running[g.ID] = struct{}{}
		gameID := g.ID
		wg.Go(func() {
			s.supervisor.Run(ctx, gameID)
		})
		spawned++
	}
	if spawned > 0 {
		s.logger.WithField("date", canonical).Infof("本轮发现新比赛%d场，已启动轮询", spawned)
	}
}
