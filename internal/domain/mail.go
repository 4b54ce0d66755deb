package domain

const (
	MailTypeWelcome            = "welcome"
	MailTypeResetPassword      = "reset_password"
	MailTypeShiftsPublished    = "shifts_published"
	MailTypeSubstituteAccepted = "substitute_accepted"
)

type MailMessage struct {
	Type string `json:"type"`
	To   string `json:"to"`
	Data any    `json:"data"`
}

type WelcomeMailData struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

type ResetPasswordMailData struct {
	Name       string `json:"name"`
	OTP        string `json:"otp"`
	Expiration int    `json:"expiration"`
}

type MailShift struct {
	Date      string `json:"date"`
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
}

type ShiftsPublishedMailData struct {
	Name        string      `json:"name"`
	GroupName   string      `json:"groupName"`
	SurveyTitle string      `json:"surveyTitle"`
	Shifts      []MailShift `json:"shifts"`
}

type SubstituteAcceptedMailData struct {
	Name           string `json:"name"`
	SubstituteName string `json:"substituteName"`
	Date           string `json:"date"`
	StartTime      string `json:"startTime"`
	EndTime        string `json:"endTime"`
}
