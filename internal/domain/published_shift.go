package domain

import "time"

// PublishedShift 只由排班采用创建，只由交代修改身份字段
type PublishedShift struct {
	ID                  string     `json:"id"`
	PostID              string     `json:"postId"`
	GroupID             string     `json:"groupId"`
	Date                string     `json:"date"`
	UserID              string     `json:"userId"`
	UserName            string     `json:"userName"`
	UserEmail           string     `json:"userEmail"`
	StartTime           string     `json:"startTime"`
	EndTime             string     `json:"endTime"`
	PublishedBy         string     `json:"publishedBy"`
	PublishedAt         time.Time  `json:"publishedAt"`
	SubstitutedFrom     string     `json:"substitutedFrom,omitempty"`
	SubstitutedFromName string     `json:"substitutedFromName,omitempty"`
	SubstitutedAt       *time.Time `json:"substitutedAt,omitempty"`
}

type AssignedShift struct {
	UserID    string `json:"userId" validate:"required"`
	UserName  string `json:"userName"`
	UserEmail string `json:"userEmail"`
	StartTime string `json:"startTime" validate:"required,hhmm"`
	EndTime   string `json:"endTime" validate:"required,hhmm,nefield=StartTime"`
}

// DayAssignment 是管理员在某一天的排班，Shifts 中每个成员一条
type DayAssignment struct {
	Date   string          `json:"date" validate:"required,datetime=2006-01-02"`
	Shifts []AssignedShift `json:"shifts" validate:"dive"`
}

// MyShift 是“我的班次”列表中的一项
type MyShift struct {
	ID        string `json:"id"`
	Date      string `json:"date"`
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
	GroupID   string `json:"groupId"`
	GroupName string `json:"groupName"`
	PostID    string `json:"postId"`
	PostTitle string `json:"postTitle"`
}
