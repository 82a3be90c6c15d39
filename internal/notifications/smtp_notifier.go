package notifications

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"
)

type SMTPConfig struct {
	Host string
	Port int
	From string
}

// SMTPNotifier sends plain HTML mail through a relay. No auth: the relay is
// expected to sit inside the campus network.
type SMTPNotifier struct {
	cfg SMTPConfig
}

func NewSMTPNotifier(cfg SMTPConfig) *SMTPNotifier {
	return &SMTPNotifier{cfg: cfg}
}

func (n *SMTPNotifier) SendVerificationCode(ctx context.Context, in SendVerificationCodeInput) error {
	body := fmt.Sprintf(
		"<p>Hi %s,</p><p>Your Campus Events verification code is <b>%s</b>.</p><p>It expires in 24 hours.</p>",
		in.Name, in.Code,
	)
	return n.send(ctx, in.Email, "Verify your Email", body)
}

func (n *SMTPNotifier) SendWelcome(ctx context.Context, in SendWelcomeInput) error {
	body := fmt.Sprintf(
		"<p>Welcome %s!</p><p>Your email is verified. You can now browse and follow campus events.</p>",
		in.Name,
	)
	return n.send(ctx, in.Email, "Welcome to Campus Events", body)
}

func (n *SMTPNotifier) send(ctx context.Context, to, subject, htmlBody string) error {
	if n.cfg.Host == "" {
		return fmt.Errorf("smtp host not configured")
	}

	addr := fmt.Sprintf("%s:%d", n.cfg.Host, n.cfg.Port)

	msg := strings.Join([]string{
		"From: " + n.cfg.From,
		"To: " + to,
		"Subject: " + subject,
		"MIME-Version: 1.0",
		"Content-Type: text/html; charset=UTF-8",
		"",
		htmlBody,
	}, "\r\n")

	// net/smtp has no context support; honor cancellation before dialing at
	// least, the protected wrapper enforces the hard timeout.
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	return smtp.SendMail(addr, nil, fromAddress(n.cfg.From), []string{to}, []byte(msg))
}

// fromAddress extracts the bare address out of `Display Name <addr>`.
func fromAddress(from string) string {
	start := strings.Index(from, "<")
	end := strings.Index(from, ">")

	if start >= 0 && end > start {
		return from[start+1 : end]
	}

	return from
}
