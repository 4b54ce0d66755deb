package utils

import (
	"errors"
	"fmt"
	"slices"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/sysu-ecnc-dev/group-shift/backend/internal/domain"
	"github.com/teambition/rrule-go"
)

const (
	dateLayout  = "2006-01-02"
	clockLayout = "15:04"

	// MaxSurveyDays 是一份调查最多覆盖的天数
	MaxSurveyDays = 366
)

// IsHHMM 只接受补零的 24 小时制 HH:MM
func IsHHMM(s string) bool {
	if len(s) != len(clockLayout) {
		return false
	}
	_, err := time.Parse(clockLayout, s)
	return err == nil
}

// RegisterValidations 注册自定义的 validate tag
func RegisterValidations(v *validator.Validate) error {
	return v.RegisterValidation("hhmm", func(fl validator.FieldLevel) bool {
		return IsHHMM(fl.Field().String())
	})
}

var hhmmMessages = map[string]string{
	"zh": "{0}必须是HH:MM格式的时间",
	"en": "{0} must be a time in HH:MM format",
	"ja": "{0}はHH:MM形式の時刻でなければなりません",
}

// RegisterTranslations 为自定义 tag 注册 locale 对应的错误信息
func RegisterTranslations(v *validator.Validate, trans ut.Translator, locale string) error {
	msg, ok := hhmmMessages[locale]
	if !ok {
		msg = hhmmMessages["en"]
	}

	return v.RegisterTranslation("hhmm", trans,
		func(ut ut.Translator) error {
			return ut.Add("hhmm", msg, true)
		},
		func(ut ut.Translator, fe validator.FieldError) string {
			t, _ := ut.T("hhmm", fe.Field())
			return t
		},
	)
}

func ValidateSurvey(s *domain.ShiftSurvey) error {
	startDate, err := time.Parse(dateLayout, s.StartDate)
	if err != nil {
		return errors.New("开始日期格式错误")
	}
	endDate, err := time.Parse(dateLayout, s.EndDate)
	if err != nil {
		return errors.New("结束日期格式错误")
	}
	if endDate.Before(startDate) {
		return errors.New("开始日期不能晚于结束日期")
	}
	if endDate.After(startDate.AddDate(0, 0, MaxSurveyDays-1)) {
		return fmt.Errorf("调查最多覆盖 %d 天", MaxSurveyDays)
	}
	if s.Deadline != "" {
		if _, err := time.Parse(dateLayout, s.Deadline); err != nil {
			return errors.New("截止日期格式错误")
		}
	}

	if !IsHHMM(s.OpeningTime) {
		return errors.New("开始时间格式错误")
	}
	if !IsHHMM(s.ClosingTime) {
		return errors.New("结束时间格式错误")
	}
	if s.OpeningTime >= s.ClosingTime {
		return errors.New("结束时间必须晚于开始时间")
	}

	return nil
}

// SurveyDates 按天列出调查覆盖的所有日期
func SurveyDates(s *domain.ShiftSurvey) ([]string, error) {
	startDate, err := time.Parse(dateLayout, s.StartDate)
	if err != nil {
		return nil, fmt.Errorf("开始日期 %q 格式错误", s.StartDate)
	}
	endDate, err := time.Parse(dateLayout, s.EndDate)
	if err != nil {
		return nil, fmt.Errorf("结束日期 %q 格式错误", s.EndDate)
	}

	rule, err := rrule.NewRRule(rrule.ROption{
		Freq:    rrule.DAILY,
		Dtstart: startDate,
		Until:   endDate,
	})
	if err != nil {
		return nil, err
	}

	days := rule.All()
	dates := make([]string, len(days))
	for i, d := range days {
		dates[i] = d.Format(dateLayout)
	}
	return dates, nil
}

// ValidateShiftPreferences 检查回答中的每个日期都在调查范围内，
// 每个时间段都是 from < to 并且落在营业时间之内
func ValidateShiftPreferences(prefs []domain.ShiftPreference, s *domain.ShiftSurvey) error {
	dates, err := SurveyDates(s)
	if err != nil {
		return err
	}

	for i, pref := range prefs {
		if _, err := time.Parse(dateLayout, pref.Date); err != nil {
			return fmt.Errorf("第 %d 项的日期格式错误", i+1)
		}
		if !slices.Contains(dates, pref.Date) {
			return fmt.Errorf("日期 %s 不在调查范围内", pref.Date)
		}

		for j, slot := range pref.TimeSlots {
			if !IsHHMM(slot.From) || !IsHHMM(slot.To) {
				return fmt.Errorf("%s 的第 %d 个时间段格式错误", pref.Date, j+1)
			}
			if slot.From >= slot.To {
				return fmt.Errorf("%s 的第 %d 个时间段的结束时间必须晚于开始时间", pref.Date, j+1)
			}
			if slot.From < s.OpeningTime || slot.To > s.ClosingTime {
				return fmt.Errorf("%s 的第 %d 个时间段不在营业时间 %s-%s 之内", pref.Date, j+1, s.OpeningTime, s.ClosingTime)
			}
		}
	}

	return nil
}
