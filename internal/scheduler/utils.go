package scheduler

import (
	"fmt"
	"time"
)

const (
	clockLayout = "15:04"
	dateLayout  = "2006-01-02"
)

// ShiftHours 计算一个班次的小时数，结束时间早于开始时间视为跨过午夜
func ShiftHours(start, end string) (float64, error) {
	s, err := time.Parse(clockLayout, start)
	if err != nil {
		return 0, fmt.Errorf("开始时间 %q 格式错误", start)
	}
	e, err := time.Parse(clockLayout, end)
	if err != nil {
		return 0, fmt.Errorf("结束时间 %q 格式错误", end)
	}
	if e.Before(s) {
		e = e.Add(24 * time.Hour)
	}
	return e.Sub(s).Hours(), nil
}

// parseDay 接受 YYYY-MM-DD 或者带时间的 RFC3339，只保留日历日期
func parseDay(s string) (time.Time, error) {
	if t, err := time.Parse(dateLayout, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("日期 %q 格式错误", s)
	}
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
}

// NormalizeDate 把日期统一成 YYYY-MM-DD
func NormalizeDate(s string) (string, error) {
	t, err := parseDay(s)
	if err != nil {
		return "", err
	}
	return t.Format(dateLayout), nil
}

// sameDay 按日历日期比较，无法解析时退回字符串比较
func sameDay(a, b string) bool {
	ta, errA := parseDay(a)
	tb, errB := parseDay(b)
	if errA != nil || errB != nil {
		return a == b
	}
	return ta.Equal(tb)
}
