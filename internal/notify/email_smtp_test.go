package notify

import (
	"bufio"
	"context"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSMTPServer accepts one session and records the envelope and message.
type fakeSMTPServer struct {
	ln   net.Listener
	from string
	rcpt string
	data chan string
}

func startFakeSMTP(t *testing.T) *fakeSMTPServer {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	s := &fakeSMTPServer{ln: ln, data: make(chan string, 1)}
	t.Cleanup(func() { _ = ln.Close() })
	go s.serve()
	return s
}

func (s *fakeSMTPServer) port() int {
	return s.ln.Addr().(*net.TCPAddr).Port
}

func (s *fakeSMTPServer) serve() {
	conn, err := s.ln.Accept()
	if err != nil {
		return
	}
	defer conn.Close()
	r := bufio.NewReader(conn)
	write := func(line string) { _, _ = conn.Write([]byte(line + "\r\n")) }

	write("220 localhost ESMTP test")
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			return
		}
		cmd := strings.TrimRight(line, "\r\n")
		upper := strings.ToUpper(cmd)
		switch {
		case strings.HasPrefix(upper, "EHLO"), strings.HasPrefix(upper, "HELO"):
			write("250-localhost")
			write("250 8BITMIME")
		case strings.HasPrefix(upper, "MAIL FROM:"):
			s.from = cmd
			write("250 OK")
		case strings.HasPrefix(upper, "RCPT TO:"):
			s.rcpt = cmd
			write("250 OK")
		case upper == "DATA":
			write("354 go ahead")
			var body strings.Builder
			for {
				l, err := r.ReadString('\n')
				if err != nil {
					return
				}
				if l == ".\r\n" {
					break
				}
				body.WriteString(l)
			}
			s.data <- body.String()
			write("250 queued")
		case upper == "QUIT":
			write("221 bye")
			return
		default:
			write("250 OK")
		}
	}
}

func TestSMTPSenderDeliversMessage(t *testing.T) {
	srv := startFakeSMTP(t)
	sender := NewSMTPSender(SMTPConfig{
		Host:     "127.0.0.1",
		Port:     srv.port(),
		From:     "bot@example.com",
		StartTLS: true,
	}, nil)
	sender.now = func() time.Time { return time.Date(2025, 3, 3, 9, 0, 0, 0, time.UTC) }

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := sender.Send(ctx, EmailMessage{To: "ops@example.com", Subject: bookingSubject, Body: "Name: Ann\n"})
	require.NoError(t, err)

	var data string
	select {
	case data = <-srv.data:
	case <-time.After(5 * time.Second):
		t.Fatal("no message received")
	}
	assert.Contains(t, srv.from, "<bot@example.com>")
	assert.Contains(t, srv.rcpt, "<ops@example.com>")
	assert.Contains(t, data, "Subject: New Discovery Call Booking")
	assert.Contains(t, data, `From: "MadeToAutomate Bot" <bot@example.com>`)
	assert.Contains(t, data, "text/plain")
	assert.Contains(t, data, "Name: Ann")
}

func TestSMTPSenderConnectionRefused(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := ln.Addr().(*net.TCPAddr).Port
	require.NoError(t, ln.Close())

	sender := NewSMTPSender(SMTPConfig{Host: "127.0.0.1", Port: port, From: "bot@example.com"}, nil)
	err = sender.Send(context.Background(), EmailMessage{To: "ops@example.com", Subject: "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connect")
}

func TestSMTPSenderRequiresRecipientAndHost(t *testing.T) {
	assert.Nil(t, NewSMTPSender(SMTPConfig{}, nil))

	var nilSender *SMTPSender
	assert.Error(t, nilSender.Send(context.Background(), EmailMessage{To: "a@b.c"}))

	sender := NewSMTPSender(SMTPConfig{Host: "127.0.0.1", Port: 1}, nil)
	assert.Error(t, sender.Send(context.Background(), EmailMessage{}))
}

func TestSMTPComposeMultipart(t *testing.T) {
	sender := NewSMTPSender(SMTPConfig{Host: "mail.example.com", User: "bot@example.com"}, nil)
	raw, err := sender.compose(EmailMessage{To: "ops@example.com", Subject: "Hi", Body: "plain", HTML: "<p>html</p>"})
	require.NoError(t, err)
	out := string(raw)
	assert.Contains(t, out, "multipart/alternative")
	assert.Contains(t, out, "plain")
	assert.Contains(t, out, "<p>html</p>")
	assert.Contains(t, out, "Message-Id:")
	assert.Equal(t, 587, sender.cfg.Port)
	assert.Equal(t, "bot@example.com", sender.cfg.From)
}
