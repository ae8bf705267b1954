package poller

import (
	"context"
	"time"

	"LiveGameSync/internal/model"

	"github.com/sirupsen/logrus"
	"github.com/sourcegraph/conc"
)

// Supervisor 单场比赛的轮询循环监督器：每个数据源一个独立循环，
// 各自按上个周期返回的延迟调度，直到取消信号到达
type Supervisor struct {
	poller *GamePoller
	logger *logrus.Logger
}

// NewSupervisor 创建监督器
func NewSupervisor(poller *GamePoller, logger *logrus.Logger) *Supervisor {
	return &Supervisor{poller: poller, logger: logger}
}

// Run 阻塞运行某场比赛所有数据源的轮询循环，ctx取消后返回
func (s *Supervisor) Run(ctx context.Context, gameID string) {
	wg := conc.NewWaitGroup()
	for _, feed := range model.GameFeeds {
		wg.Go(func() {
			s.runFeed(ctx, gameID, feed)
		})
	}
	wg.Wait()
}

// runFeed 单数据源的轮询循环。每轮开始前检查取消；进行中的抓取不被打断，
// 周期内部观察到取消后丢弃结果，循环随即退出。同一数据源的周期严格串行。
func (s *Supervisor) runFeed(ctx context.Context, gameID string, feed model.FeedKind) {
	for {
		if ctx.Err() != nil {
			s.logger.WithFields(logrus.Fields{"game_id": gameID, "feed": feed}).Info("轮询循环已停止")
			return
		}

		delay, _, err := s.poller.PollOnce(ctx, gameID, feed)
		if err != nil {
			s.logger.WithError(err).WithFields(logrus.Fields{
				"game_id": gameID,
				"feed":    feed,
			}).Error("轮询周期出错")
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			s.logger.WithFields(logrus.Fields{"game_id": gameID, "feed": feed}).Info("轮询循环已停止")
			return
		case <-timer.C:
		}
	}
}
