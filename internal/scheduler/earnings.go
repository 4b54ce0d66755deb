package scheduler

import (
	"errors"
	"log/slog"
	"time"

	"github.com/sysu-ecnc-dev/group-shift/backend/internal/domain"
)

const monthLayout = "2006-01"

var ErrInvalidMonth = errors.New("月份格式应为 YYYY-MM")

// GroupShifts 是某个组以及调用者在这个组中的全部班次
type GroupShifts struct {
	Group  *domain.Group
	Shifts []*domain.PublishedShift
}

// ParseMonth 解析 YYYY-MM，为空时取 loc 时区下 now 所在的月份
func ParseMonth(month string, loc *time.Location, now time.Time) (time.Time, error) {
	if month == "" {
		n := now.In(loc)
		return time.Date(n.Year(), n.Month(), 1, 0, 0, 0, 0, time.UTC), nil
	}

	t, err := time.Parse(monthLayout, month)
	if err != nil {
		return time.Time{}, ErrInvalidMonth
	}
	return t, nil
}

func inMonth(date string, month time.Time) bool {
	d, err := parseDay(date)
	if err != nil {
		return false
	}
	return d.Year() == month.Year() && d.Month() == month.Month()
}

// ComputeEarnings 对每个组累加调用者在该月的工时，乘以组的时薪；
// 工时为 0 且没有设置时薪的组不出现在结果中
func ComputeEarnings(month time.Time, groups []GroupShifts) *domain.Earnings {
	out := &domain.Earnings{
		Month:         month.Format(monthLayout),
		GroupEarnings: make([]domain.GroupEarning, 0, len(groups)),
	}

	for _, g := range groups {
		hours := 0.0
		count := 0
		for _, row := range g.Shifts {
			if !inMonth(row.Date, month) {
				continue
			}
			h, err := ShiftHours(row.StartTime, row.EndTime)
			if err != nil {
				slog.Warn("跳过时间格式错误的班次", "shiftId", row.ID, "error", err)
				continue
			}
			hours += h
			count++
		}

		earning := hours * g.Group.HourlyWage
		out.TotalHours += hours
		out.TotalEarnings += earning

		if hours > 0 || g.Group.HourlyWage > 0 {
			out.GroupEarnings = append(out.GroupEarnings, domain.GroupEarning{
				GroupID:     g.Group.ID,
				GroupName:   g.Group.Name,
				Hours:       hours,
				HourlyWage:  g.Group.HourlyWage,
				Earnings:    earning,
				ShiftsCount: count,
			})
		}
	}

	return out
}

// ComputeStats 统计调用者所在的组数、管理的组数、班次总数和本月班次数
func ComputeStats(memberships []*domain.Membership, shifts []*domain.PublishedShift, month time.Time) *domain.AccountStats {
	stats := &domain.AccountStats{TotalGroups: len(memberships)}
	for _, m := range memberships {
		if m.IsAdmin() {
			stats.AdminGroups++
		}
	}

	stats.TotalShifts = len(shifts)
	for _, row := range shifts {
		if inMonth(row.Date, month) {
			stats.ThisMonthShifts++
		}
	}

	return stats
}
