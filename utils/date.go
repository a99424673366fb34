package utils

import (
	"time"
)

// IsMorning 判断是否在中午 12 点之前（buổi sáng）。
// true  -> check in 时段
// false -> check out 时段
func IsMorning(t time.Time) bool {
	return t.Hour() < 12
}

// IsWeekend 判断是否周末（thứ 7 / chủ nhật）。
func IsWeekend(t time.Time) bool {
	wd := t.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

// FirstOfMonth 返回 t 所在月份的第一天（同一时区，时刻归零）。
func FirstOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}
