package notify

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	"github.com/emersion/go-message/mail"

	"github.com/howtosavemytime-sys/chatbot-backend/pkg/logging"
)

// SMTPConfig describes a mail relay.
type SMTPConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
	FromName string
	// StartTLS upgrades plain connections. Port 465 always uses implicit TLS.
	StartTLS bool
}

// SMTPSender relays mail through an SMTP server.
type SMTPSender struct {
	cfg    SMTPConfig
	dialer net.Dialer
	now    func() time.Time
	logger *logging.Logger
}

func NewSMTPSender(cfg SMTPConfig, logger *logging.Logger) *SMTPSender {
	if cfg.Host == "" {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.Port == 0 {
		cfg.Port = 587
	}
	if cfg.From == "" {
		cfg.From = cfg.User
	}
	if cfg.FromName == "" {
		cfg.FromName = defaultFromName
	}
	return &SMTPSender{cfg: cfg, dialer: net.Dialer{Timeout: 15 * time.Second}, now: time.Now, logger: logger}
}

func (s *SMTPSender) Send(ctx context.Context, msg EmailMessage) error {
	if s == nil {
		return fmt.Errorf("notify: smtp relay not configured")
	}
	if msg.To == "" {
		return fmt.Errorf("notify: no recipient specified")
	}
	payload, err := s.compose(msg)
	if err != nil {
		return err
	}

	client, err := s.connect(ctx)
	if err != nil {
		return err
	}
	defer client.Close()

	if s.cfg.User != "" && s.cfg.Password != "" {
		if err := client.Auth(s.auth(client)); err != nil {
			return fmt.Errorf("notify: smtp authentication failed: %w", err)
		}
	}
	if err := client.Mail(s.cfg.From); err != nil {
		return fmt.Errorf("notify: smtp sender rejected: %w", err)
	}
	if err := client.Rcpt(msg.To); err != nil {
		return fmt.Errorf("notify: smtp recipient %s rejected: %w", msg.To, err)
	}
	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("notify: smtp data: %w", err)
	}
	if _, err := w.Write(payload); err != nil {
		return fmt.Errorf("notify: smtp write: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("notify: smtp close data: %w", err)
	}
	if err := client.Quit(); err != nil {
		return fmt.Errorf("notify: smtp quit: %w", err)
	}

	s.logger.Info("email sent via smtp", "to", msg.To, "subject", msg.Subject, "host", s.cfg.Host)
	return nil
}

func (s *SMTPSender) connect(ctx context.Context) (*smtp.Client, error) {
	addr := net.JoinHostPort(s.cfg.Host, strconv.Itoa(s.cfg.Port))
	tlsConfig := &tls.Config{ServerName: s.cfg.Host, MinVersion: tls.VersionTLS12}

	var conn net.Conn
	var err error
	if s.cfg.Port == 465 {
		td := tls.Dialer{NetDialer: &s.dialer, Config: tlsConfig}
		conn, err = td.DialContext(ctx, "tcp", addr)
	} else {
		conn, err = s.dialer.DialContext(ctx, "tcp", addr)
	}
	if err != nil {
		return nil, fmt.Errorf("notify: connect to smtp server: %w", err)
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	client, err := smtp.NewClient(conn, s.cfg.Host)
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("notify: smtp handshake: %w", err)
	}
	if s.cfg.Port != 465 && s.cfg.StartTLS {
		if ok, _ := client.Extension("STARTTLS"); ok {
			if err := client.StartTLS(tlsConfig); err != nil {
				_ = client.Close()
				return nil, fmt.Errorf("notify: smtp starttls: %w", err)
			}
		}
	}
	return client, nil
}

func (s *SMTPSender) auth(client *smtp.Client) smtp.Auth {
	if ok, mechs := client.Extension("AUTH"); ok && !strings.Contains(mechs, "PLAIN") && strings.Contains(mechs, "LOGIN") {
		return &loginAuth{username: s.cfg.User, password: s.cfg.Password}
	}
	return smtp.PlainAuth("", s.cfg.User, s.cfg.Password, s.cfg.Host)
}

// compose renders msg as an RFC 5322 message.
func (s *SMTPSender) compose(msg EmailMessage) ([]byte, error) {
	var h mail.Header
	h.SetDate(s.now())
	h.SetSubject(msg.Subject)
	h.SetAddressList("From", []*mail.Address{{Name: s.cfg.FromName, Address: s.cfg.From}})
	h.SetAddressList("To", []*mail.Address{{Name: msg.ToName, Address: msg.To}})
	if err := h.GenerateMessageID(); err != nil {
		return nil, fmt.Errorf("notify: message id: %w", err)
	}

	var buf bytes.Buffer
	if msg.HTML == "" {
		h.SetContentType("text/plain", map[string]string{"charset": "utf-8"})
		w, err := mail.CreateSingleInlineWriter(&buf, h)
		if err != nil {
			return nil, fmt.Errorf("notify: compose message: %w", err)
		}
		if _, err := io.WriteString(w, msg.Body); err != nil {
			return nil, fmt.Errorf("notify: compose body: %w", err)
		}
		if err := w.Close(); err != nil {
			return nil, fmt.Errorf("notify: compose message: %w", err)
		}
		return buf.Bytes(), nil
	}

	mw, err := mail.CreateWriter(&buf, h)
	if err != nil {
		return nil, fmt.Errorf("notify: compose message: %w", err)
	}
	tw, err := mw.CreateInline()
	if err != nil {
		return nil, fmt.Errorf("notify: compose message: %w", err)
	}
	for _, part := range []struct{ contentType, body string }{
		{"text/plain", msg.Body},
		{"text/html", msg.HTML},
	} {
		var ph mail.InlineHeader
		ph.SetContentType(part.contentType, map[string]string{"charset": "utf-8"})
		pw, err := tw.CreatePart(ph)
		if err != nil {
			return nil, fmt.Errorf("notify: compose part: %w", err)
		}
		if _, err := io.WriteString(pw, part.body); err != nil {
			return nil, fmt.Errorf("notify: compose part: %w", err)
		}
		if err := pw.Close(); err != nil {
			return nil, fmt.Errorf("notify: compose part: %w", err)
		}
	}
	if err := tw.Close(); err != nil {
		return nil, fmt.Errorf("notify: compose message: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("notify: compose message: %w", err)
	}
	return buf.Bytes(), nil
}

// loginAuth implements SMTP LOGIN authentication for relays without PLAIN.
type loginAuth struct {
	username, password string
}

func (a *loginAuth) Start(server *smtp.ServerInfo) (string, []byte, error) {
	return "LOGIN", []byte{}, nil
}

func (a *loginAuth) Next(fromServer []byte, more bool) ([]byte, error) {
	if !more {
		return nil, nil
	}
	switch string(fromServer) {
	case "Username:":
		return []byte(a.username), nil
	case "Password:":
		return []byte(a.password), nil
	default:
		return nil, fmt.Errorf("notify: unexpected smtp challenge %q", fromServer)
	}
}

var _ EmailSender = (*SMTPSender)(nil)
