package scheduler

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sysu-ecnc-dev/group-shift/backend/internal/domain"
)

var (
	ErrNoShiftOnDate    = errors.New("该日期没有你的班次")
	ErrNoShiftInWindow  = errors.New("该日期没有时间完全一致的班次")
	errNotSubstitutable = errors.New("不是交代申请")
)

// CheckSubstituteRequest 确认申请人在这一天有一条开始、结束时间完全一致的班次
func CheckSubstituteRequest(own []*domain.PublishedShift, date, start, end string) error {
	onDate := false
	for _, row := range own {
		if !sameDay(row.Date, date) {
			continue
		}
		onDate = true
		if row.StartTime == start && row.EndTime == end {
			return nil
		}
	}

	if !onDate {
		return ErrNoShiftOnDate
	}
	return ErrNoShiftInWindow
}

// FindSubstituteMatch 返回第一条属于申请人且日期、时间一致的班次；rows 需要已按扫描顺序排列
func FindSubstituteMatch(rows []*domain.PublishedShift, req *domain.Post) (*domain.PublishedShift, error) {
	r, ok := req.SubstituteRequest()
	if !ok {
		return nil, errNotSubstitutable
	}

	for _, row := range rows {
		if row.UserID == req.CreatedBy && sameDay(row.Date, r.Date) && row.StartTime == r.StartTime && row.EndTime == r.EndTime {
			return row, nil
		}
	}
	return nil, nil
}

// Reassign 把班次交给 substitute，保留日期和时间，记录原来的负责人
func Reassign(row *domain.PublishedShift, substitute *domain.User, now time.Time) *domain.PublishedShift {
	updated := *row
	updated.SubstitutedFrom = row.UserID
	updated.SubstitutedFromName = row.UserName
	at := now
	updated.SubstitutedAt = &at
	updated.UserID = substitute.ID
	updated.UserName = substitute.DisplayName()
	updated.UserEmail = substitute.Email
	return &updated
}

// BuildSubstituteResult 生成交代结果投稿
func BuildSubstituteResult(req *domain.Post, substitute *domain.User, shiftUpdated bool, now time.Time) (*domain.Post, error) {
	r, ok := req.SubstituteRequest()
	if !ok {
		return nil, errNotSubstitutable
	}

	requesterName := r.AuthorName
	if requesterName == "" {
		requesterName = r.AuthorEmail
	}

	return &domain.Post{
		ID:        uuid.NewString(),
		GroupID:   req.GroupID,
		CreatedBy: substitute.ID,
		CreatedAt: now,
		Body: &domain.SubstituteResult{
			Title:                 fmt.Sprintf("交代完了: %s", r.Date),
			OriginalPostID:        req.ID,
			OriginalRequesterID:   req.CreatedBy,
			OriginalRequesterName: requesterName,
			SubstituteID:          substitute.ID,
			SubstituteName:        substitute.DisplayName(),
			Date:                  r.Date,
			StartTime:             r.StartTime,
			EndTime:               r.EndTime,
			Reason:                r.Reason,
			ShiftUpdated:          shiftUpdated,
		},
	}, nil
}
