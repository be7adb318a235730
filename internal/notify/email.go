// Package notify sends budget alert emails over SMTP.
package notify

import (
	"errors"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/jordan-wright/email"
	"github.com/sirupsen/logrus"

	"github.com/theirongolddev/cashcast/internal/cli"
	"github.com/theirongolddev/cashcast/internal/config"
	"github.com/theirongolddev/cashcast/internal/model"
)

// ErrDisabled is returned when SMTP settings are incomplete.
var ErrDisabled = errors.New("email notifications are not configured")

type sendFunc func(e *email.Email, addr string, auth smtp.Auth) error

// Sender handles sending alert emails via SMTP.
type Sender struct {
	cfg    config.NotifyConfig
	logger logrus.FieldLogger
	send   sendFunc
}

// NewSender creates a new email sender.
func NewSender(cfg config.NotifyConfig, logger logrus.FieldLogger) *Sender {
	return &Sender{
		cfg:    cfg,
		logger: logger,
		send: func(e *email.Email, addr string, auth smtp.Auth) error {
			return e.Send(addr, auth)
		},
	}
}

// Enabled reports whether the sender has enough settings to deliver mail.
func (s *Sender) Enabled() bool {
	return s != nil && s.cfg.Enabled()
}

// SendBudgetAlert emails the recipients about categories whose projected
// spend crossed into at-risk or exceeded.
func (s *Sender) SendBudgetAlert(month string, rows []model.BudgetOutlookRow) error {
	if !s.Enabled() {
		return ErrDisabled
	}
	if len(rows) == 0 {
		return nil
	}

	e := email.NewEmail()
	e.From = s.cfg.From
	e.To = append([]string(nil), s.cfg.Recipients...)
	e.Subject = alertSubject(month, rows)
	e.Text = []byte(alertBody(month, rows))

	addr := fmt.Sprintf("%s:%d", s.cfg.SMTPHost, s.cfg.SMTPPort)
	var auth smtp.Auth
	if s.cfg.Username != "" {
		auth = smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.SMTPHost)
	}
	if err := s.send(e, addr, auth); err != nil {
		s.logger.Errorf("Failed to send budget alert to %s: %v", strings.Join(e.To, ", "), err)
		return fmt.Errorf("failed to send budget alert: %w", err)
	}

	s.logger.Infof("Budget alert sent to %s: %s", strings.Join(e.To, ", "), e.Subject)
	return nil
}

func alertSubject(month string, rows []model.BudgetOutlookRow) string {
	exceeded := 0
	for _, r := range rows {
		if r.Status == model.Exceeded {
			exceeded++
		}
	}
	if exceeded > 0 {
		return fmt.Sprintf("[cashcast] %d budget(s) exceeded for %s", exceeded, month)
	}
	return fmt.Sprintf("[cashcast] %d budget(s) at risk for %s", len(rows), month)
}

func alertBody(month string, rows []model.BudgetOutlookRow) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Budget outlook for %s\n\n", month)
	for _, r := range rows {
		fmt.Fprintf(&b, "- %s: %s\n", r.CategoryName, r.Status)
		fmt.Fprintf(&b, "    spent %s, projected %s", cli.FormatMoney(r.Spent), cli.FormatMoney(r.ProjectedTotal))
		if r.Limit != nil {
			fmt.Fprintf(&b, " of %s", cli.FormatMoney(*r.Limit))
		}
		b.WriteString("\n")
		if r.ProjectedOverrun > 0 {
			fmt.Fprintf(&b, "    projected overrun %s\n", cli.FormatMoney(r.ProjectedOverrun))
		}
		if r.NextLikelyHitDate != nil {
			fmt.Fprintf(&b, "    limit likely reached on %s\n", r.NextLikelyHitDate.Format(model.DateLayout))
		}
	}
	b.WriteString("\nSent by the cashcast daemon.\n")
	return b.String()
}
