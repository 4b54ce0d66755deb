package scheduler

import (
	"cmp"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/sysu-ecnc-dev/group-shift/backend/internal/domain"
)

const resultTitleSuffix = " - 採用結果"

// BuildBoard 把所有回答按日期展开，每个 (日期, 时间段) 都把成员登记为这一天的候选
func BuildBoard(responses []*domain.ResponseWithUser) []BoardDay {
	byDate := make(map[string]map[string]*Candidate)

	for _, resp := range responses {
		for _, pref := range resp.ShiftPreferences {
			if len(pref.TimeSlots) == 0 {
				continue
			}
			if _, exists := byDate[pref.Date]; !exists {
				byDate[pref.Date] = make(map[string]*Candidate)
			}

			c, exists := byDate[pref.Date][resp.UserID]
			if !exists {
				c = &Candidate{
					UserID:    resp.UserID,
					UserName:  resp.UserName,
					UserEmail: resp.UserEmail,
					Windows:   make([]domain.TimeSlot, 0),
				}
				byDate[pref.Date][resp.UserID] = c
			}
			c.Windows = append(c.Windows, pref.TimeSlots...)
		}
	}

	board := make([]BoardDay, 0, len(byDate))
	for date, candidates := range byDate {
		day := BoardDay{Date: date, Candidates: make([]Candidate, 0, len(candidates))}
		for _, c := range candidates {
			slices.SortFunc(c.Windows, func(a, b domain.TimeSlot) int {
				return cmp.Or(cmp.Compare(a.From, b.From), cmp.Compare(a.To, b.To))
			})
			day.Candidates = append(day.Candidates, *c)
		}
		slices.SortFunc(day.Candidates, func(a, b Candidate) int {
			return cmp.Or(cmp.Compare(a.UserName, b.UserName), cmp.Compare(a.UserID, b.UserID))
		})
		board = append(board, day)
	}

	slices.SortFunc(board, func(a, b BoardDay) int {
		return cmp.Compare(a.Date, b.Date)
	})

	return board
}

// IsWithinWindows 判断 [start, end] 的两个端点是否都落在某一个申报时间段内，
// 时间均为补零的 HH:MM，因此可以直接按字典序比较
func IsWithinWindows(windows []domain.TimeSlot, start, end string) bool {
	for _, w := range windows {
		if start >= w.From && start <= w.To && end >= w.From && end <= w.To {
			return true
		}
	}
	return false
}

func windowsOf(board []BoardDay) map[string]map[string][]domain.TimeSlot {
	out := make(map[string]map[string][]domain.TimeSlot, len(board))
	for _, day := range board {
		out[day.Date] = make(map[string][]domain.TimeSlot, len(day.Candidates))
		for _, c := range day.Candidates {
			out[day.Date][c.UserID] = c.Windows
		}
	}
	return out
}

// Preview 按日期分组展示管理员的排班，只保留有时间的成员，同一天内按开始时间升序
func Preview(board []BoardDay, assignments []domain.DayAssignment) []PreviewDay {
	windows := windowsOf(board)

	names := make(map[string]string)
	for _, day := range board {
		for _, c := range day.Candidates {
			names[c.UserID] = c.UserName
		}
	}

	byDate := make(map[string][]PreviewEntry)
	for _, a := range assignments {
		for _, s := range a.Shifts {
			if s.StartTime == "" || s.EndTime == "" {
				continue
			}
			name := s.UserName
			if name == "" {
				name = names[s.UserID]
			}
			byDate[a.Date] = append(byDate[a.Date], PreviewEntry{
				UserID:    s.UserID,
				UserName:  name,
				StartTime: s.StartTime,
				EndTime:   s.EndTime,
				Valid:     IsWithinWindows(windows[a.Date][s.UserID], s.StartTime, s.EndTime),
			})
		}
	}

	preview := make([]PreviewDay, 0, len(byDate))
	for date, entries := range byDate {
		slices.SortStableFunc(entries, func(a, b PreviewEntry) int {
			return cmp.Compare(a.StartTime, b.StartTime)
		})
		preview = append(preview, PreviewDay{Date: date, Entries: entries})
	}
	slices.SortFunc(preview, func(a, b PreviewDay) int {
		return cmp.Compare(a.Date, b.Date)
	})

	return preview
}

// Publication 是一次采用的全部写入内容
type Publication struct {
	Rows   []*domain.PublishedShift
	Survey *domain.Post // 已标记为 published 的调查投稿
	Result *domain.Post // 新的 shift_result 投稿
}

// BuildPublication 为每个 (日期, 成员) 生成一条班次记录，并生成更新后的调查投稿和结果投稿。
// identities 用来覆盖客户端传来的姓名和邮箱
func BuildPublication(survey *domain.Post, assignments []domain.DayAssignment, identities map[string]*domain.User, publisher string, now time.Time) *Publication {
	s, _ := survey.Survey()

	rows := make([]*domain.PublishedShift, 0)
	for _, a := range assignments {
		for _, as := range a.Shifts {
			row := &domain.PublishedShift{
				ID:          uuid.NewString(),
				PostID:      survey.ID,
				GroupID:     survey.GroupID,
				Date:        a.Date,
				UserID:      as.UserID,
				UserName:    as.UserName,
				UserEmail:   as.UserEmail,
				StartTime:   as.StartTime,
				EndTime:     as.EndTime,
				PublishedBy: publisher,
				PublishedAt: now,
			}
			if u, ok := identities[as.UserID]; ok {
				row.UserName = u.DisplayName()
				row.UserEmail = u.Email
			}
			rows = append(rows, row)
		}
	}

	publishedAt := now
	updated := *s
	updated.Status = domain.SurveyStatusPublished
	updated.PublishedAt = &publishedAt
	updated.PublishedBy = publisher

	total, unique := Summarize(rows)

	return &Publication{
		Rows: rows,
		Survey: &domain.Post{
			ID:        survey.ID,
			GroupID:   survey.GroupID,
			CreatedBy: survey.CreatedBy,
			CreatedAt: survey.CreatedAt,
			Body:      &updated,
		},
		Result: &domain.Post{
			ID:        uuid.NewString(),
			GroupID:   survey.GroupID,
			CreatedBy: publisher,
			CreatedAt: now,
			Body: &domain.ShiftResult{
				Title:          s.Title + resultTitleSuffix,
				OriginalPostID: survey.ID,
				StartDate:      s.StartDate,
				EndDate:        s.EndDate,
				TotalShifts:    total,
				UniqueMembers:  unique,
				PublishedAt:    now,
			},
		},
	}
}

// Summarize 返回班次总数和不同成员的数量
func Summarize(rows []*domain.PublishedShift) (int, int) {
	users := make(map[string]struct{})
	for _, r := range rows {
		users[r.UserID] = struct{}{}
	}
	return len(rows), len(users)
}

// SortShifts 按日期、开始时间排序
func SortShifts(rows []*domain.PublishedShift) {
	slices.SortStableFunc(rows, func(a, b *domain.PublishedShift) int {
		return cmp.Or(cmp.Compare(a.Date, b.Date), cmp.Compare(a.StartTime, b.StartTime))
	})
}
