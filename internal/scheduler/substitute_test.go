package scheduler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sysu-ecnc-dev/group-shift/backend/internal/domain"
)

func TestCheckSubstituteRequest(t *testing.T) {
	own := []*domain.PublishedShift{
		{ID: "r1", UserID: "u1", Date: "2024-06-01", StartTime: "09:00", EndTime: "17:00"},
	}

	assert.NoError(t, CheckSubstituteRequest(own, "2024-06-01", "09:00", "17:00"))
	// 日期按日历日比较
	assert.NoError(t, CheckSubstituteRequest(own, "2024-06-01T00:00:00Z", "09:00", "17:00"))

	assert.ErrorIs(t, CheckSubstituteRequest(own, "2024-06-01", "10:00", "17:00"), ErrNoShiftInWindow)
	assert.ErrorIs(t, CheckSubstituteRequest(own, "2024-06-02", "09:00", "17:00"), ErrNoShiftOnDate)
	assert.ErrorIs(t, CheckSubstituteRequest(nil, "2024-06-01", "09:00", "17:00"), ErrNoShiftOnDate)
}

func substituteRequest() *domain.Post {
	return &domain.Post{
		ID:        "req",
		GroupID:   "g1",
		CreatedBy: "u1",
		Body: &domain.SubstituteRequest{
			Date:        "2024-06-01",
			StartTime:   "09:00",
			EndTime:     "17:00",
			Reason:      "用事",
			AuthorEmail: "sato@example.com",
		},
	}
}

func TestFindSubstituteMatchFirstWins(t *testing.T) {
	rows := []*domain.PublishedShift{
		{ID: "other-user", UserID: "u2", Date: "2024-06-01", StartTime: "09:00", EndTime: "17:00"},
		{ID: "first", UserID: "u1", Date: "2024-06-01", StartTime: "09:00", EndTime: "17:00"},
		{ID: "second", UserID: "u1", Date: "2024-06-01", StartTime: "09:00", EndTime: "17:00"},
	}

	row, err := FindSubstituteMatch(rows, substituteRequest())
	require.NoError(t, err)
	require.NotNil(t, row)
	assert.Equal(t, "first", row.ID)

	row, err = FindSubstituteMatch(rows[:1], substituteRequest())
	require.NoError(t, err)
	assert.Nil(t, row)

	_, err = FindSubstituteMatch(rows, &domain.Post{Body: &domain.ShiftSurvey{}})
	assert.Error(t, err)
}

func TestReassignKeepsTimeAndRecordsOrigin(t *testing.T) {
	row := &domain.PublishedShift{
		ID: "r1", PostID: "s1", UserID: "u1", UserName: "佐藤", UserEmail: "sato@example.com",
		Date: "2024-06-01", StartTime: "09:00", EndTime: "17:00",
	}
	now := time.Date(2024, 5, 30, 8, 0, 0, 0, time.UTC)

	got := Reassign(row, &domain.User{ID: "u2", Email: "suzuki@example.com"}, now)

	assert.Equal(t, row.Date, got.Date)
	assert.Equal(t, row.StartTime, got.StartTime)
	assert.Equal(t, row.EndTime, got.EndTime)
	assert.Equal(t, row.ID, got.ID)
	assert.Equal(t, "u2", got.UserID)
	assert.Equal(t, "suzuki@example.com", got.UserName)
	assert.Equal(t, "u1", got.SubstitutedFrom)
	assert.Equal(t, "佐藤", got.SubstitutedFromName)
	require.NotNil(t, got.SubstitutedAt)
	assert.True(t, got.SubstitutedAt.Equal(now))

	// 原记录保持不变
	assert.Equal(t, "u1", row.UserID)
}

func TestBuildSubstituteResult(t *testing.T) {
	post, err := BuildSubstituteResult(substituteRequest(), &domain.User{ID: "u2", Name: "鈴木"}, false, time.Now())
	require.NoError(t, err)

	res, ok := post.Body.(*domain.SubstituteResult)
	require.True(t, ok)
	assert.Equal(t, "交代完了: 2024-06-01", res.Title)
	assert.Equal(t, "sato@example.com", res.OriginalRequesterName)
	assert.Equal(t, "u1", res.OriginalRequesterID)
	assert.Equal(t, "鈴木", res.SubstituteName)
	assert.Equal(t, "req", res.OriginalPostID)
	assert.False(t, res.ShiftUpdated)
	assert.Equal(t, "u2", post.CreatedBy)
}
