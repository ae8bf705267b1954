package model

import (
	"time"

	"gorm.io/datatypes"
)

// Game 比赛主表（发现路径与快照路径都会幂等upsert，只增不删）
type Game struct {
	ID          string         `gorm:"column:id;primaryKey;type:varchar(64);comment:内部UUID（由原生ID确定性派生）"`
	NativeID    string         `gorm:"column:native_id;type:varchar(32);index;comment:上游原生比赛ID（反查用）"`
	Status      string         `gorm:"column:status;type:varchar(32);comment:比赛状态：scheduled/inprogress/closed"`
	ScheduledAt *time.Time     `gorm:"column:scheduled_at;type:timestamp;comment:开赛时间"`
	Home        datatypes.JSON `gorm:"column:home;type:jsonb;comment:主队信息"`
	Away        datatypes.JSON `gorm:"column:away;type:jsonb;comment:客队信息"`
	CreatedAt   time.Time      `gorm:"column:created_at;type:timestamp;default:now();comment:创建时间"`
	UpdatedAt   time.Time      `gorm:"column:updated_at;type:timestamp;default:now();comment:更新时间"`
}

// SchedulePeriod 赛程表（按日期upsert）
type SchedulePeriod struct {
	Date      string         `gorm:"column:date;primaryKey;type:varchar(10);comment:赛程日期 YYYY-MM-DD"`
	GameCount int            `gorm:"column:game_count;type:int;default:0;comment:当日比赛数"`
	Payload   datatypes.JSON `gorm:"column:payload;type:jsonb;comment:完整赛程原始数据"`
	UpdatedAt time.Time      `gorm:"column:updated_at;type:timestamp;default:now();comment:更新时间"`
}

// GameSummary 比赛摘要历史版本（同一内容指纹只保留一行，重放幂等）
type GameSummary struct {
	ID          uint64         `gorm:"column:id;primaryKey;autoIncrement;comment:自增主键ID"`
	GameID      string         `gorm:"column:game_id;type:varchar(64);not null;uniqueIndex:uk_game_fingerprint;comment:关联比赛ID"`
	Fingerprint string         `gorm:"column:fingerprint;type:varchar(64);not null;uniqueIndex:uk_game_fingerprint;comment:内容指纹"`
	Payload     datatypes.JSON `gorm:"column:payload;type:jsonb;not null;comment:摘要原始数据"`
	FetchedAt   time.Time      `gorm:"column:fetched_at;type:timestamp;not null;comment:抓取时间"`
	CreatedAt   time.Time      `gorm:"column:created_at;type:timestamp;default:now();comment:创建时间"`
}

// GamePlayByPlay 比赛逐回合数据（只保留最新版本，按比赛ID原地覆盖）
type GamePlayByPlay struct {
	GameID      string         `gorm:"column:game_id;primaryKey;type:varchar(64);comment:关联比赛ID"`
	Fingerprint string         `gorm:"column:fingerprint;type:varchar(64);not null;comment:内容指纹"`
	Payload     datatypes.JSON `gorm:"column:payload;type:jsonb;not null;comment:逐回合原始数据"`
	FetchedAt   time.Time      `gorm:"column:fetched_at;type:timestamp;not null;comment:抓取时间"`
	UpdatedAt   time.Time      `gorm:"column:updated_at;type:timestamp;default:now();comment:更新时间"`
}

func (Game) TableName() string           { return "games" }
func (SchedulePeriod) TableName() string { return "schedule_periods" }
func (GameSummary) TableName() string    { return "game_summaries" }
func (GamePlayByPlay) TableName() string { return "game_pbp_latest" }
