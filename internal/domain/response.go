package domain

import "time"

type TimeSlot struct {
	From string `json:"from"`
	To   string `json:"to"`
}

type ShiftPreference struct {
	Date      string     `json:"date"`
	TimeSlots []TimeSlot `json:"timeSlots"`
}

// Response 每个 (postId, userId) 最多一条，重新提交时直接覆盖
type Response struct {
	PostID           string            `json:"postId"`
	UserID           string            `json:"userId"`
	ShiftPreferences []ShiftPreference `json:"shiftPreferences"`
	SubmittedAt      time.Time         `json:"submittedAt"`
}

type ResponseWithUser struct {
	Response
	UserName  string `json:"userName"`
	UserEmail string `json:"userEmail"`
}
