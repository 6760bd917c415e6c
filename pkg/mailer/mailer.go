// Package mailer delivers OTP codes. Delivery is best effort: callers must
// treat a returned error as non-fatal.
package mailer

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	"otp-auth/pkg/utils"

	"go.uber.org/zap"
)

type Mailer interface {
	Send(ctx context.Context, email, code string) error
}

// New returns an SMTP mailer, or a LogMailer when no SMTP host is configured.
func New(cfg utils.EmailConfig, log *zap.Logger) Mailer {
	if cfg.Host == "" {
		log.Warn("SMTP_HOST not set, OTP codes will only be logged")
		return NewLogMailer(log)
	}
	return NewSMTPMailer(cfg, log)
}

// ==================== SMTP ====================

type SMTPMailer struct {
	host     string
	port     int
	username string
	password string
	from     string
	timeout  time.Duration
	log      *zap.Logger
}

func NewSMTPMailer(cfg utils.EmailConfig, log *zap.Logger) *SMTPMailer {
	from := cfg.From
	if from == "" {
		from = cfg.User
	}
	return &SMTPMailer{
		host:     cfg.Host,
		port:     cfg.Port,
		username: cfg.User,
		password: cfg.Password,
		from:     from,
		timeout:  10 * time.Second,
		log:      log.With(zap.String("component", "mailer")),
	}
}

func (m *SMTPMailer) Send(ctx context.Context, email, code string) error {
	msg := buildMessage(m.from, email, code)

	client, err := m.dial(ctx)
	if err != nil {
		return fmt.Errorf("dial smtp %s: %w", m.host, err)
	}
	defer client.Close()

	if ok, _ := client.Extension("STARTTLS"); ok && m.port != 465 {
		if err := client.StartTLS(&tls.Config{ServerName: m.host}); err != nil {
			return fmt.Errorf("starttls: %w", err)
		}
	}

	if m.username != "" {
		if err := client.Auth(smtp.PlainAuth("", m.username, m.password, m.host)); err != nil {
			return fmt.Errorf("smtp auth: %w", err)
		}
	}

	if err := client.Mail(m.from); err != nil {
		return fmt.Errorf("smtp mail from: %w", err)
	}
	if err := client.Rcpt(email); err != nil {
		return fmt.Errorf("smtp rcpt %s: %w", email, err)
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("smtp data: %w", err)
	}
	if _, err := w.Write(msg); err != nil {
		return fmt.Errorf("write message: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("close message: %w", err)
	}

	m.log.Info("OTP email sent", zap.String("email", email))
	return client.Quit()
}

// dial connects with implicit TLS on 465 and plain TCP otherwise.
func (m *SMTPMailer) dial(ctx context.Context) (*smtp.Client, error) {
	addr := net.JoinHostPort(m.host, strconv.Itoa(m.port))
	dialer := &net.Dialer{Timeout: m.timeout}

	var (
		conn net.Conn
		err  error
	)
	if m.port == 465 {
		tlsDialer := &tls.Dialer{NetDialer: dialer, Config: &tls.Config{ServerName: m.host}}
		conn, err = tlsDialer.DialContext(ctx, "tcp", addr)
	} else {
		conn, err = dialer.DialContext(ctx, "tcp", addr)
	}
	if err != nil {
		return nil, err
	}

	if deadline, ok := ctx.Deadline(); ok {
		conn.SetDeadline(deadline)
	} else {
		conn.SetDeadline(time.Now().Add(m.timeout))
	}

	client, err := smtp.NewClient(conn, m.host)
	if err != nil {
		conn.Close()
		return nil, err
	}
	return client, nil
}

func buildMessage(from, to, code string) []byte {
	const boundary = "otp-auth-boundary"

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("From: \"OTP Service\" <%s>\r\n", from))
	sb.WriteString(fmt.Sprintf("To: %s\r\n", to))
	sb.WriteString("Subject: Your OTP Code\r\n")
	sb.WriteString("MIME-Version: 1.0\r\n")
	sb.WriteString(fmt.Sprintf("Content-Type: multipart/alternative; boundary=%q\r\n\r\n", boundary))

	sb.WriteString("--" + boundary + "\r\n")
	sb.WriteString("Content-Type: text/plain; charset=\"utf-8\"\r\n\r\n")
	sb.WriteString(fmt.Sprintf("Your OTP is: %s\r\n", code))

	sb.WriteString("--" + boundary + "\r\n")
	sb.WriteString("Content-Type: text/html; charset=\"utf-8\"\r\n\r\n")
	sb.WriteString(fmt.Sprintf("<h2>Your OTP is: <b>%s</b></h2>\r\n", code))

	sb.WriteString("--" + boundary + "--\r\n")
	return []byte(sb.String())
}

// ==================== LOG ====================

// LogMailer is the development fallback: it logs the code instead of sending it.
type LogMailer struct {
	log *zap.Logger
}

func NewLogMailer(log *zap.Logger) *LogMailer {
	return &LogMailer{log: log.With(zap.String("component", "mailer"))}
}

func (m *LogMailer) Send(_ context.Context, email, code string) error {
	m.log.Info("OTP email (not sent, no SMTP configured)",
		zap.String("email", email),
		zap.String("otp_code", code),
	)
	return nil
}
