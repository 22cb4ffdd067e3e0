package mailer

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleInvitation() Invitation {
	return Invitation{
		RecipientEmail:  "ada@example.com",
		RecipientName:   "Ada <Lovelace>",
		InterviewURL:    "https://app.example.com/interview/abc123",
		JobTitle:        "Backend engineer",
		DurationMinutes: 30,
		ExpiresAt:       time.Date(2026, 3, 8, 12, 0, 0, 0, time.UTC),
	}
}

func TestRender(t *testing.T) {
	text, html, err := Render(sampleInvitation())
	require.NoError(t, err)

	assert.Contains(t, text, "https://app.example.com/interview/abc123")
	assert.Contains(t, text, "30 minutes")
	assert.Contains(t, text, "March 8, 2026")
	assert.Contains(t, html, "Ada &lt;Lovelace&gt;", "html body is escaped")
	assert.Equal(t, "Interview invitation: Backend engineer", Subject(sampleInvitation()))
}

func TestBuildMessage(t *testing.T) {
	_, err := buildMessage("noreply@example.com", sampleInvitation())
	require.NoError(t, err)

	_, err = buildMessage("not an address", sampleInvitation())
	require.Error(t, err)
}

func TestNewSMTPSenderValidation(t *testing.T) {
	_, err := NewSMTPSender(SMTPConfig{From: "noreply@example.com"})
	require.Error(t, err)

	s, err := NewSMTPSender(SMTPConfig{Host: "smtp.example.com", From: "noreply@example.com"})
	require.NoError(t, err)
	assert.Equal(t, 587, s.cfg.Port)
}

func TestLogSender(t *testing.T) {
	require.NoError(t, LogSender{}.Send(context.Background(), sampleInvitation()))
	require.Error(t, LogSender{}.Send(context.Background(), Invitation{}))
}
