package scheduler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sysu-ecnc-dev/group-shift/backend/internal/domain"
)

func responseOf(userID, name string, prefs ...domain.ShiftPreference) *domain.ResponseWithUser {
	return &domain.ResponseWithUser{
		Response: domain.Response{
			PostID:           "s1",
			UserID:           userID,
			ShiftPreferences: prefs,
		},
		UserName: name,
	}
}

func prefOf(date string, slots ...domain.TimeSlot) domain.ShiftPreference {
	return domain.ShiftPreference{Date: date, TimeSlots: slots}
}

func TestBuildBoardOffersEveryWindow(t *testing.T) {
	board := BuildBoard([]*domain.ResponseWithUser{
		responseOf("u2", "鈴木",
			prefOf("2024-06-02", domain.TimeSlot{From: "09:00", To: "12:00"}),
			prefOf("2024-06-01", domain.TimeSlot{From: "13:00", To: "17:00"}, domain.TimeSlot{From: "08:00", To: "10:00"}),
		),
		responseOf("u1", "佐藤",
			prefOf("2024-06-01", domain.TimeSlot{From: "09:00", To: "17:00"}),
			prefOf("2024-06-03"),
		),
	})

	require.Len(t, board, 2)
	assert.Equal(t, "2024-06-01", board[0].Date)
	assert.Equal(t, "2024-06-02", board[1].Date)

	day1 := board[0]
	require.Len(t, day1.Candidates, 2)
	assert.Equal(t, "u1", day1.Candidates[0].UserID)
	assert.Equal(t, "u2", day1.Candidates[1].UserID)
	assert.Equal(t, []domain.TimeSlot{{From: "08:00", To: "10:00"}, {From: "13:00", To: "17:00"}}, day1.Candidates[1].Windows)
}

func TestIsWithinWindows(t *testing.T) {
	windows := []domain.TimeSlot{{From: "09:00", To: "12:00"}, {From: "14:00", To: "18:00"}}

	assert.True(t, IsWithinWindows(windows, "09:00", "12:00"))
	assert.True(t, IsWithinWindows(windows, "15:00", "17:30"))
	// 两个端点分别落在不同的时间段
	assert.False(t, IsWithinWindows(windows, "10:00", "15:00"))
	assert.False(t, IsWithinWindows(windows, "08:30", "11:00"))
	assert.False(t, IsWithinWindows(nil, "09:00", "10:00"))
}

func TestPreviewGroupsSortsAndFlags(t *testing.T) {
	board := BuildBoard([]*domain.ResponseWithUser{
		responseOf("u1", "佐藤", prefOf("2024-06-01", domain.TimeSlot{From: "09:00", To: "17:00"})),
		responseOf("u2", "鈴木", prefOf("2024-06-01", domain.TimeSlot{From: "06:00", To: "10:00"})),
	})

	preview := Preview(board, []domain.DayAssignment{
		{Date: "2024-06-02", Shifts: []domain.AssignedShift{{UserID: "u1", StartTime: "10:00", EndTime: "12:00"}}},
		{Date: "2024-06-01", Shifts: []domain.AssignedShift{
			{UserID: "u1", StartTime: "10:00", EndTime: "17:00"},
			{UserID: "u2", StartTime: "06:00", EndTime: "11:00"},
			{UserID: "u3"},
		}},
	})

	require.Len(t, preview, 2)
	assert.Equal(t, "2024-06-01", preview[0].Date)
	require.Len(t, preview[0].Entries, 2)

	assert.Equal(t, "u2", preview[0].Entries[0].UserID)
	assert.Equal(t, "鈴木", preview[0].Entries[0].UserName)
	assert.False(t, preview[0].Entries[0].Valid)
	assert.Equal(t, "u1", preview[0].Entries[1].UserID)
	assert.True(t, preview[0].Entries[1].Valid)

	// 成员没有申报 6/2
	assert.False(t, preview[1].Entries[0].Valid)
}

func TestBuildPublicationSummarizes(t *testing.T) {
	survey := &domain.Post{
		ID:      "s1",
		GroupID: "g1",
		Body: &domain.ShiftSurvey{
			Title:     "六月",
			StartDate: "2024-06-01",
			EndDate:   "2024-06-30",
		},
	}
	now := time.Date(2024, 5, 25, 12, 0, 0, 0, time.UTC)

	pub := BuildPublication(survey, []domain.DayAssignment{
		{Date: "2024-06-01", Shifts: []domain.AssignedShift{
			{UserID: "u1", UserName: "客户端的名字", StartTime: "09:00", EndTime: "17:00"},
			{UserID: "u2", StartTime: "17:00", EndTime: "22:00"},
		}},
		{Date: "2024-06-02", Shifts: []domain.AssignedShift{{UserID: "u1", StartTime: "09:00", EndTime: "12:00"}}},
	}, map[string]*domain.User{"u1": {ID: "u1", Name: "佐藤", Email: "sato@example.com"}}, "admin", now)

	require.Len(t, pub.Rows, 3)
	assert.Equal(t, "佐藤", pub.Rows[0].UserName)
	assert.Equal(t, "sato@example.com", pub.Rows[0].UserEmail)
	assert.Equal(t, "s1", pub.Rows[1].PostID)
	assert.Equal(t, "admin", pub.Rows[2].PublishedBy)

	assert.True(t, pub.Survey.IsPublished())
	s, _ := pub.Survey.Survey()
	assert.Equal(t, "admin", s.PublishedBy)
	// 原来的投稿不能被修改
	orig, _ := survey.Survey()
	assert.Empty(t, orig.Status)

	res, ok := pub.Result.ShiftResult()
	require.True(t, ok)
	assert.Equal(t, "六月 - 採用結果", res.Title)
	assert.Equal(t, 3, res.TotalShifts)
	assert.Equal(t, 2, res.UniqueMembers)
	assert.Equal(t, "s1", res.OriginalPostID)
	assert.Equal(t, "2024-06-30", res.EndDate)
}

func TestSortShifts(t *testing.T) {
	rows := []*domain.PublishedShift{
		{ID: "c", Date: "2024-06-02", StartTime: "09:00"},
		{ID: "b", Date: "2024-06-01", StartTime: "13:00"},
		{ID: "a", Date: "2024-06-01", StartTime: "09:00"},
	}
	SortShifts(rows)
	assert.Equal(t, "a", rows[0].ID)
	assert.Equal(t, "b", rows[1].ID)
	assert.Equal(t, "c", rows[2].ID)
}
