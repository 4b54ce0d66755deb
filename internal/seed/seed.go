// Package seed 为本地开发生成演示数据
package seed

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/sysu-ecnc-dev/group-shift/backend/internal/domain"
	"github.com/sysu-ecnc-dev/group-shift/backend/internal/repository"
	"github.com/sysu-ecnc-dev/group-shift/backend/internal/utils"
)

const surveyDays = 7

type Seeder struct {
	repo       *repository.Repository
	codeLength int
}

func New(repo *repository.Repository, codeLength int) *Seeder {
	return &Seeder{repo: repo, codeLength: codeLength}
}

// Users 插入 n 个随机用户，返回成功插入的数量
func (s *Seeder) Users(n int, password, emailDomain string) int {
	cnt := 0
	for range n {
		user, err := utils.GenerateRandomUser(password, emailDomain)
		if err != nil {
			slog.Error("无法生成随机用户", slog.String("error", err.Error()))
			continue
		}

		if err := s.repo.CreateUser(user); err != nil {
			slog.Error("无法插入用户", slog.String("error", err.Error()))
			continue
		}

		cnt++
	}
	return cnt
}

// Group 以 users[0] 为管理员创建一个组，其余用户作为成员加入
func (s *Seeder) Group(name string, users []*domain.User) (*domain.Group, error) {
	if len(users) == 0 {
		return nil, errors.New("没有可用的用户")
	}

	now := time.Now()
	admin := users[0]
	group := &domain.Group{
		ID:          uuid.NewString(),
		Name:        name,
		Description: "演示用的组",
		HourlyWage:  1100,
		CreatedBy:   admin.ID,
		CreatedAt:   now,
	}

	for attempt := 0; ; attempt++ {
		code, err := utils.GenerateInviteCode(s.codeLength)
		if err != nil {
			return nil, err
		}
		group.InviteCode = code

		err = s.repo.CreateGroup(group, &domain.Membership{
			UserID:   admin.ID,
			GroupID:  group.ID,
			Role:     domain.RoleAdmin,
			JoinedAt: now,
		})
		if err == nil {
			break
		}
		if !errors.Is(err, repository.ErrInviteCodeTaken) || attempt >= 5 {
			return nil, err
		}
	}

	for _, u := range users[1:] {
		if err := s.repo.AddMembership(&domain.Membership{
			UserID:   u.ID,
			GroupID:  group.ID,
			Role:     domain.RoleMember,
			JoinedAt: time.Now(),
		}); err != nil && !errors.Is(err, repository.ErrAlreadyMember) {
			return nil, err
		}
	}

	return group, nil
}

// Survey 在组里发布一份从 start 开始为期一周的调查，并为每个成员生成随机回答
func (s *Seeder) Survey(groupID string, start time.Time) (*domain.Post, int, error) {
	group, err := s.repo.GetGroupByID(groupID)
	if err != nil {
		return nil, 0, err
	}

	memberships, err := s.repo.GetGroupMemberships(group.ID)
	if err != nil {
		return nil, 0, err
	}

	survey := &domain.ShiftSurvey{
		Title:       fmt.Sprintf("%s 週のシフト", start.Format("01/02")),
		StartDate:   start.Format("2006-01-02"),
		EndDate:     start.AddDate(0, 0, surveyDays-1).Format("2006-01-02"),
		Deadline:    start.AddDate(0, 0, -3).Format("2006-01-02"),
		OpeningTime: "09:00",
		ClosingTime: "21:00",
	}
	if err := utils.ValidateSurvey(survey); err != nil {
		return nil, 0, err
	}

	post := &domain.Post{
		ID:        uuid.NewString(),
		GroupID:   group.ID,
		CreatedBy: group.CreatedBy,
		CreatedAt: time.Now(),
		Body:      survey,
	}
	if err := s.repo.CreatePost(post); err != nil {
		return nil, 0, err
	}

	cnt := 0
	for _, m := range memberships {
		prefs, err := utils.GenerateRandomPreferences(survey)
		if err != nil {
			return nil, cnt, err
		}
		if err := s.repo.UpsertResponse(&domain.Response{
			PostID:           post.ID,
			UserID:           m.UserID,
			ShiftPreferences: prefs,
			SubmittedAt:      time.Now(),
		}); err != nil {
			slog.Error("无法插入回答", slog.String("error", err.Error()))
			continue
		}
		cnt++
	}

	return post, cnt, nil
}
