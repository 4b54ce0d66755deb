package mailer

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sysu-ecnc-dev/group-shift/backend/internal/domain"
	"github.com/wneessen/go-mail"
)

func render(t *testing.T, msg domain.MailMessage) (*mail.Msg, error) {
	t.Helper()

	m, err := New("noreply@example.com", "Shift Board")
	require.NoError(t, err)

	body, err := json.Marshal(msg)
	require.NoError(t, err)
	return m.Render(body)
}

func htmlBody(t *testing.T, msg *mail.Msg) string {
	t.Helper()

	parts := msg.GetParts()
	require.NotEmpty(t, parts)
	content, err := parts[0].GetContent()
	require.NoError(t, err)
	return string(content)
}

func TestRenderShiftsPublished(t *testing.T) {
	msg, err := render(t, domain.MailMessage{
		Type: domain.MailTypeShiftsPublished,
		To:   "alice@example.com",
		Data: domain.ShiftsPublishedMailData{
			Name:        "Alice",
			GroupName:   "Bakery",
			SurveyTitle: "六月",
			Shifts: []domain.MailShift{
				{Date: "2024-06-01", StartTime: "09:00", EndTime: "13:00"},
				{Date: "2024-06-03", StartTime: "17:00", EndTime: "21:00"},
			},
		},
	})
	require.NoError(t, err)

	rcpts, err := msg.GetRecipients()
	require.NoError(t, err)
	assert.Equal(t, []string{"alice@example.com"}, rcpts)
	assert.Equal(t, []string{"Shift Board - シフトが確定しました"}, msg.GetGenHeader(mail.HeaderSubject))

	body := htmlBody(t, msg)
	assert.Contains(t, body, "Alice")
	assert.Contains(t, body, "2024-06-03")
	assert.Contains(t, body, "17:00")
}

func TestRenderResetPassword(t *testing.T) {
	msg, err := render(t, domain.MailMessage{
		Type: domain.MailTypeResetPassword,
		To:   "bob@example.com",
		Data: domain.ResetPasswordMailData{Name: "Bob", OTP: "123456", Expiration: 15},
	})
	require.NoError(t, err)

	body := htmlBody(t, msg)
	assert.Contains(t, body, "123456")
	assert.Contains(t, body, "15 分間")
}

func TestRenderEscapesUserInput(t *testing.T) {
	msg, err := render(t, domain.MailMessage{
		Type: domain.MailTypeWelcome,
		To:   "carol@example.com",
		Data: domain.WelcomeMailData{Name: "<script>x</script>", Email: "carol@example.com"},
	})
	require.NoError(t, err)
	assert.NotContains(t, htmlBody(t, msg), "<script>")
}

func TestRenderRejects(t *testing.T) {
	m, err := New("noreply@example.com", "Shift Board")
	require.NoError(t, err)

	_, err = m.Render([]byte("not json"))
	assert.ErrorIs(t, err, ErrMalformed)

	_, err = m.Render([]byte(`{"type":"create_user","to":"a@example.com"}`))
	assert.ErrorIs(t, err, ErrUnknownType)

	_, err = m.Render([]byte(`{"type":"welcome","to":"not an address"}`))
	assert.ErrorIs(t, err, ErrMalformed)

	_, err = m.Render([]byte(`{"type":"welcome","to":"a@example.com","data":"oops"}`))
	assert.ErrorIs(t, err, ErrMalformed)
}
