package slip

import (
	"context"
	"fmt"
	"log/slog"
	"net/smtp"
	"strings"
)

// SMTPConfig holds relay settings for outgoing slips.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// SMTPSender delivers slips through the board's mail relay.
type SMTPSender struct {
	cfg    SMTPConfig
	logger *slog.Logger
}

func NewSMTPSender(cfg SMTPConfig, logger *slog.Logger) *SMTPSender {
	return &SMTPSender{cfg: cfg, logger: logger}
}

func (s *SMTPSender) Send(ctx context.Context, slip Slip) error {
	body, err := Render(slip)
	if err != nil {
		return err
	}

	var msg strings.Builder
	fmt.Fprintf(&msg, "From: %s\r\n", s.cfg.From)
	fmt.Fprintf(&msg, "To: %s\r\n", slip.Email)
	fmt.Fprintf(&msg, "Subject: Exam Registration Slip %s\r\n", slip.ExamNumber)
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/html; charset=UTF-8\r\n")
	msg.WriteString("\r\n")
	msg.WriteString(body)

	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	var auth smtp.Auth
	if s.cfg.Username != "" {
		auth = smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
	}
	if err := smtp.SendMail(addr, auth, s.cfg.From, []string{slip.Email}, []byte(msg.String())); err != nil {
		return fmt.Errorf("send registration slip: %w", err)
	}
	s.logger.InfoContext(ctx, "registration slip sent", "exam_number", slip.ExamNumber)
	return nil
}

// LogSender writes slips to the log instead of a mail relay. Used in
// development and tests.
type LogSender struct {
	Logger *slog.Logger
}

func (s LogSender) Send(ctx context.Context, slip Slip) error {
	s.Logger.InfoContext(ctx, "registration slip (not sent)",
		"email", slip.Email, "exam_number", slip.ExamNumber)
	return nil
}
