package cache

import "fmt"

// 缓存key统一在此拼装，按"类型:标识"分命名空间

// ETagKey 轮询状态：上次收到的validator
func ETagKey(feed, gameID string) string {
	return fmt.Sprintf("poll:etag:%s:%s", feed, gameID)
}

// FingerprintKey 轮询状态：上次计算的内容指纹
func FingerprintKey(feed, gameID string) string {
	return fmt.Sprintf("poll:fp:%s:%s", feed, gameID)
}

// DelayKey 轮询状态：上次计算的轮询延迟
func DelayKey(feed, gameID string) string {
	return fmt.Sprintf("poll:delay:%s:%s", feed, gameID)
}

// GameMetaKey 比赛元数据（桥接服务用它把UUID反查回原生ID）
func GameMetaKey(gameID string) string {
	return fmt.Sprintf("game:meta:%s", gameID)
}

// GameSummaryKey 比赛摘要当前状态
func GameSummaryKey(gameID string) string {
	return fmt.Sprintf("game:summary:%s", gameID)
}

// GamePBPKey 比赛逐回合当前状态
func GamePBPKey(gameID string) string {
	return fmt.Sprintf("game:pbp:%s", gameID)
}

// ScheduleKey 某日赛程blob
func ScheduleKey(date string) string {
	return fmt.Sprintf("schedule:%s", date)
}

// ScheduleGamesKey 某日比赛ID集合
func ScheduleGamesKey(date string) string {
	return fmt.Sprintf("schedule:games:%s", date)
}
