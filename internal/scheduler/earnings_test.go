package scheduler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sysu-ecnc-dev/group-shift/backend/internal/domain"
)

func TestShiftHours(t *testing.T) {
	cases := []struct {
		start, end string
		want       float64
	}{
		{"09:00", "17:00", 8},
		{"09:30", "12:00", 2.5},
		{"22:00", "02:00", 4},
		{"09:00", "09:00", 0},
	}
	for _, c := range cases {
		got, err := ShiftHours(c.start, c.end)
		require.NoError(t, err)
		assert.InDelta(t, c.want, got, 1e-9, "%s-%s", c.start, c.end)
	}

	_, err := ShiftHours("9am", "17:00")
	assert.Error(t, err)
}

func TestParseMonth(t *testing.T) {
	tokyo, err := time.LoadLocation("Asia/Tokyo")
	require.NoError(t, err)

	// UTC 5/31 20:00 在东京已经是 6 月
	now := time.Date(2024, 5, 31, 20, 0, 0, 0, time.UTC)
	m, err := ParseMonth("", tokyo, now)
	require.NoError(t, err)
	assert.Equal(t, "2024-06", m.Format("2006-01"))

	m, err = ParseMonth("2024-02", tokyo, now)
	require.NoError(t, err)
	assert.Equal(t, time.February, m.Month())

	_, err = ParseMonth("2024/02", tokyo, now)
	assert.ErrorIs(t, err, ErrInvalidMonth)
}

func TestComputeEarnings(t *testing.T) {
	month := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	paid := &domain.Group{ID: "g1", Name: "カフェ", HourlyWage: 1000}
	unpaid := &domain.Group{ID: "g2", Name: "図書館"}
	idle := &domain.Group{ID: "g3", Name: "休眠"}

	got := ComputeEarnings(month, []GroupShifts{
		{Group: paid, Shifts: []*domain.PublishedShift{
			{Date: "2024-06-01", StartTime: "09:00", EndTime: "17:00"},
			{Date: "2024-06-30", StartTime: "22:00", EndTime: "02:00"},
			{Date: "2024-07-01", StartTime: "09:00", EndTime: "17:00"},
			{Date: "2024-05-31", StartTime: "09:00", EndTime: "17:00"},
		}},
		{Group: unpaid, Shifts: []*domain.PublishedShift{
			{Date: "2024-06-10", StartTime: "10:00", EndTime: "13:30"},
		}},
		{Group: idle},
	})

	assert.Equal(t, "2024-06", got.Month)
	assert.InDelta(t, 15.5, got.TotalHours, 1e-9)
	assert.InDelta(t, 12000, got.TotalEarnings, 1e-9)

	require.Len(t, got.GroupEarnings, 2)
	assert.Equal(t, "g1", got.GroupEarnings[0].GroupID)
	assert.InDelta(t, 12, got.GroupEarnings[0].Hours, 1e-9)
	assert.Equal(t, 2, got.GroupEarnings[0].ShiftsCount)
	assert.Equal(t, "g2", got.GroupEarnings[1].GroupID)
	assert.InDelta(t, 0, got.GroupEarnings[1].Earnings, 1e-9)
}

func TestComputeEarningsKeepsWageOnlyGroup(t *testing.T) {
	month := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	got := ComputeEarnings(month, []GroupShifts{{Group: &domain.Group{ID: "g1", HourlyWage: 1200}}})
	require.Len(t, got.GroupEarnings, 1)
	assert.Zero(t, got.GroupEarnings[0].Hours)
}

func TestComputeStats(t *testing.T) {
	month := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	stats := ComputeStats(
		[]*domain.Membership{{GroupID: "g1", Role: domain.RoleAdmin}, {GroupID: "g2", Role: domain.RoleMember}},
		[]*domain.PublishedShift{{Date: "2024-06-03"}, {Date: "2024-05-03"}, {Date: "2024-06-30"}},
		month,
	)

	assert.Equal(t, 2, stats.TotalGroups)
	assert.Equal(t, 1, stats.AdminGroups)
	assert.Equal(t, 3, stats.TotalShifts)
	assert.Equal(t, 2, stats.ThisMonthShifts)
}
