package repository

import (
	"context"
	"fmt"
	"time"

	"LiveGameSync/internal/interfaces"
	"LiveGameSync/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type GameRepository struct {
	db *gorm.DB
}

func NewGameRepository(db *gorm.DB) interfaces.SnapshotRepository {
	return &GameRepository{db: db}
}

// UpsertGame 按内部ID幂等upsert比赛（发现路径与快照路径共用，只更新有值字段）
func (r *GameRepository) UpsertGame(ctx context.Context, game *model.Game) error {
	if game.ID == "" {
		return fmt.Errorf("比赛ID为空，拒绝入库")
	}
	game.UpdatedAt = time.Now()
	assignments := map[string]interface{}{"updated_at": game.UpdatedAt}
	if game.NativeID != "" {
		assignments["native_id"] = game.NativeID
	}
	if game.Status != "" {
		assignments["status"] = game.Status
	}
	if game.ScheduledAt != nil {
		assignments["scheduled_at"] = game.ScheduledAt
	}
	if len(game.Home) > 0 {
		assignments["home"] = game.Home
	}
	if len(game.Away) > 0 {
		assignments["away"] = game.Away
	}
	if err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.Assignments(assignments),
	}).Create(game).Error; err != nil {
		return fmt.Errorf("upsert比赛失败: %w, game_id: %s", err, game.ID)
	}
	return nil
}

// UpsertSchedulePeriod 按日期幂等upsert赛程
func (r *GameRepository) UpsertSchedulePeriod(ctx context.Context, period *model.SchedulePeriod) error {
	if period.Date == "" {
		return fmt.Errorf("赛程日期为空，拒绝入库")
	}
	period.UpdatedAt = time.Now()
	if err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "date"}},
		DoUpdates: clause.AssignmentColumns([]string{"game_count", "payload", "updated_at"}),
	}).Create(period).Error; err != nil {
		return fmt.Errorf("upsert赛程失败: %w, date: %s", err, period.Date)
	}
	return nil
}

// InsertSummaryVersion 追加摘要历史版本，(game_id, fingerprint)冲突时直接忽略（重放幂等）
func (r *GameRepository) InsertSummaryVersion(ctx context.Context, summary *model.GameSummary) error {
	if err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "game_id"}, {Name: "fingerprint"}},
		DoNothing: true,
	}).Create(summary).Error; err != nil {
		return fmt.Errorf("保存摘要版本失败: %w, game_id: %s", err, summary.GameID)
	}
	return nil
}

// UpsertPlayByPlay 逐回合数据只保留最新，按game_id原地覆盖
func (r *GameRepository) UpsertPlayByPlay(ctx context.Context, pbp *model.GamePlayByPlay) error {
	pbp.UpdatedAt = time.Now()
	if err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "game_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"fingerprint", "payload", "fetched_at", "updated_at"}),
	}).Create(pbp).Error; err != nil {
		return fmt.Errorf("upsert逐回合数据失败: %w, game_id: %s", err, pbp.GameID)
	}
	return nil
}
