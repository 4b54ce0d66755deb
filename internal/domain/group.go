package domain

import "time"

type Role string

const (
	RoleAdmin  Role = "admin"
	RoleMember Role = "member"
)

type Group struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	InviteCode  string    `json:"inviteCode"`
	HourlyWage  float64   `json:"hourlyWage"`
	CreatedBy   string    `json:"createdBy"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Membership 同一条记录同时保存在 user_groups 和 group_members 两个键下
type Membership struct {
	UserID   string    `json:"userId"`
	GroupID  string    `json:"groupId"`
	Role     Role      `json:"role"`
	JoinedAt time.Time `json:"joinedAt"`
}

func (m *Membership) IsAdmin() bool {
	return m.Role == RoleAdmin
}

// GroupSummary 是用户视角下的组信息
type GroupSummary struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	InviteCode  string  `json:"inviteCode,omitempty"`
	HourlyWage  float64 `json:"hourlyWage"`
	IsAdmin     bool    `json:"isAdmin"`
}

type Member struct {
	UserID   string    `json:"userId"`
	Email    string    `json:"email"`
	Name     string    `json:"name"`
	Role     Role      `json:"role"`
	JoinedAt time.Time `json:"joinedAt"`
}
