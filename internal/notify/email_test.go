package notify

import (
	"errors"
	"net/smtp"
	"strings"
	"testing"
	"time"

	"github.com/jordan-wright/email"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theirongolddev/cashcast/internal/config"
	"github.com/theirongolddev/cashcast/internal/model"
)

func smtpConfig() config.NotifyConfig {
	return config.NotifyConfig{
		SMTPHost:   "smtp.example.com",
		SMTPPort:   587,
		Username:   "alerts",
		Password:   "secret",
		From:       "cashcast@example.com",
		Recipients: []string{"me@example.com"},
	}
}

func TestSendBudgetAlert(t *testing.T) {
	logger, hook := test.NewNullLogger()
	s := NewSender(smtpConfig(), logger)

	var sent *email.Email
	var gotAddr string
	s.send = func(e *email.Email, addr string, _ smtp.Auth) error {
		sent, gotAddr = e, addr
		return nil
	}

	limit := 1000.0
	hit := time.Date(2025, 7, 20, 0, 0, 0, 0, time.UTC)
	rows := []model.BudgetOutlookRow{
		{CategoryName: "Groceries", Budgeted: true, Limit: &limit, Spent: 850, ProjectedTotal: 1050, ProjectedOverrun: 50, NextLikelyHitDate: &hit, Status: model.AtRisk},
		{CategoryName: "Dining", Spent: 400, ProjectedTotal: 420, Status: model.Exceeded},
	}
	require.NoError(t, s.SendBudgetAlert("2025-07", rows))

	require.NotNil(t, sent)
	assert.Equal(t, "smtp.example.com:587", gotAddr)
	assert.Equal(t, []string{"me@example.com"}, sent.To)
	assert.Equal(t, "[cashcast] 1 budget(s) exceeded for 2025-07", sent.Subject)

	body := string(sent.Text)
	assert.Contains(t, body, "Groceries: at_risk")
	assert.Contains(t, body, "of $1,000.00")
	assert.Contains(t, body, "projected overrun $50.00")
	assert.Contains(t, body, "2025-07-20")
	assert.True(t, strings.Contains(body, "Dining: exceeded"))

	require.NotNil(t, hook.LastEntry())
	assert.Contains(t, hook.LastEntry().Message, "Budget alert sent")
}

func TestSendBudgetAlert_Disabled(t *testing.T) {
	logger, _ := test.NewNullLogger()
	s := NewSender(config.NotifyConfig{}, logger)
	assert.False(t, s.Enabled())
	assert.ErrorIs(t, s.SendBudgetAlert("2025-07", nil), ErrDisabled)

	var nilSender *Sender
	assert.False(t, nilSender.Enabled())
}

func TestSendBudgetAlert_SendFailure(t *testing.T) {
	logger, hook := test.NewNullLogger()
	s := NewSender(smtpConfig(), logger)
	s.send = func(*email.Email, string, smtp.Auth) error { return errors.New("connection refused") }

	err := s.SendBudgetAlert("2025-07", []model.BudgetOutlookRow{{CategoryName: "Fun", Status: model.AtRisk}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
	assert.Contains(t, hook.LastEntry().Message, "Failed to send budget alert")
}
