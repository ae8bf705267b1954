package poll

import "time"

// IntervalCalculator 轮询间隔计算器：由server通告的缓存寿命和基础间隔推导下次轮询延迟
type IntervalCalculator struct {
	Base  time.Duration // 基础轮询间隔
	Floor time.Duration // 最小间隔下限（防止配置失误打爆上游）
}

// Next 计算下次轮询延迟。advertised<=0视为"无提示"，直接返回Base；
// 否则取 max(Base, advertised)，再以Floor兜底。
// 注意：server通告的更短寿命不会让轮询快于Base，只有更长的寿命会被采纳。
func (c IntervalCalculator) Next(advertised time.Duration) time.Duration {
	if advertised <= 0 {
		return c.Base
	}
	d := c.Base
	if advertised > d {
		d = advertised
	}
	if d < c.Floor {
		return c.Floor
	}
	return d
}
