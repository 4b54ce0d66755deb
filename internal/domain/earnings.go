package domain

type GroupEarning struct {
	GroupID     string  `json:"groupId"`
	GroupName   string  `json:"groupName"`
	Hours       float64 `json:"hours"`
	HourlyWage  float64 `json:"hourlyWage"`
	Earnings    float64 `json:"earnings"`
	ShiftsCount int     `json:"shiftsCount"`
}

type Earnings struct {
	Month         string         `json:"month"`
	TotalEarnings float64        `json:"totalEarnings"`
	TotalHours    float64        `json:"totalHours"`
	GroupEarnings []GroupEarning `json:"groupEarnings"`
}

type AccountStats struct {
	TotalGroups     int `json:"totalGroups"`
	AdminGroups     int `json:"adminGroups"`
	TotalShifts     int `json:"totalShifts"`
	ThisMonthShifts int `json:"thisMonthShifts"`
}
