package model

import (
	"encoding/json"
	"fmt"
	"time"
)

// FeedKind 数据源类型枚举（每种独立调度）
type FeedKind string

const (
	FeedSummary  FeedKind = "summary"  // 比赛摘要（boxscore）
	FeedPBP      FeedKind = "pbp"      // 逐回合（play-by-play）
	FeedSchedule FeedKind = "schedule" // 赛程（roster级，不属于单场比赛）
)

// GameFeeds 单场比赛需要轮询的数据源列表
var GameFeeds = []FeedKind{FeedSummary, FeedPBP}

// EventSchemaVersion 变更事件当前schema版本，消费端跳过未知版本
const EventSchemaVersion = 1

// EventSource 事件来源标签
const EventSource = "nba-bridge"

// ChangeEvent 变更事件（不可变，同一(比赛,数据源)连续两条事件指纹必不相同）
type ChangeEvent struct {
	Kind          FeedKind        `json:"kind"`              // 事件类型：summary/pbp/schedule
	GameID        string          `json:"game_id,omitempty"` // 比赛ID（schedule事件为空）
	Source        string          `json:"source"`            // 来源标签
	SchemaVersion int             `json:"schema_version"`    // schema版本
	FetchedAt     time.Time       `json:"fetched_at"`        // 抓取时间
	Fingerprint   string          `json:"fingerprint"`       // 内容指纹
	Payload       json.RawMessage `json:"payload"`           // 原始payload
}

// PartitionKey 分区键：同一(数据源,比赛)必落同一分区，保证事件有序
// schedule事件按日期分区（GameID为空时由调用方传入日期）
func (e *ChangeEvent) PartitionKey() string {
	if e.Kind == FeedSchedule {
		return fmt.Sprintf("%s:%s", e.Kind, e.periodFromPayload())
	}
	return fmt.Sprintf("%s:%s", e.Kind, e.GameID)
}

// periodFromPayload schedule事件的日期取自payload本身
func (e *ChangeEvent) periodFromPayload() string {
	var p SchedulePayload
	if err := json.Unmarshal(e.Payload, &p); err != nil {
		return ""
	}
	return p.Date
}

// SchedulePayload 赛程payload（与桥接服务 /schedule/{y}/{m}/{d} 响应一致）
type SchedulePayload struct {
	Date  string         `json:"date"`  // 规范日期 YYYY-MM-DD
	Games []ScheduleGame `json:"games"` // 当日比赛列表（可为空）
}

// ScheduleGame 赛程中的单场比赛
type ScheduleGame struct {
	ID        string          `json:"id"`                    // 内部UUID
	NativeID  string          `json:"nba_game_id,omitempty"` // 上游原生ID（反查用）
	Status    string          `json:"status"`                // scheduled/inprogress/closed
	Scheduled string          `json:"scheduled,omitempty"`   // 开赛时间（RFC3339）
	Home      json.RawMessage `json:"home,omitempty"`        // 主队
	Away      json.RawMessage `json:"away,omitempty"`        // 客队
}
