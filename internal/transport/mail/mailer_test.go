package mail

import (
	"bufio"
	"context"
	"errors"
	"net"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rivaq/rivaq-backend/internal/repository/ports"
)

// fakeSMTPServer accepts one session and records the DATA payload.
type fakeSMTPServer struct {
	ln   net.Listener
	mu   sync.Mutex
	rcpt []string
	data string
	done chan struct{}
}

func startFakeSMTP(t *testing.T) *fakeSMTPServer {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	s := &fakeSMTPServer{ln: ln, done: make(chan struct{})}
	t.Cleanup(func() { _ = ln.Close() })
	go s.serve()
	return s
}

func (s *fakeSMTPServer) serve() {
	defer close(s.done)
	conn, err := s.ln.Accept()
	if err != nil {
		return
	}
	defer conn.Close()
	r := bufio.NewReader(conn)
	reply := func(line string) { _, _ = conn.Write([]byte(line + "\r\n")) }

	reply("220 localhost ESMTP")
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			return
		}
		cmd := strings.ToUpper(strings.TrimSpace(line))
		switch {
		case strings.HasPrefix(cmd, "EHLO"), strings.HasPrefix(cmd, "HELO"):
			reply("250 localhost")
		case strings.HasPrefix(cmd, "MAIL FROM"):
			reply("250 OK")
		case strings.HasPrefix(cmd, "RCPT TO"):
			s.mu.Lock()
			s.rcpt = append(s.rcpt, strings.TrimSpace(line))
			s.mu.Unlock()
			reply("250 OK")
		case cmd == "DATA":
			reply("354 go ahead")
			var b strings.Builder
			for {
				l, err := r.ReadString('\n')
				if err != nil {
					return
				}
				if l == ".\r\n" {
					break
				}
				b.WriteString(l)
			}
			s.mu.Lock()
			s.data = b.String()
			s.mu.Unlock()
			reply("250 queued")
		case cmd == "QUIT":
			reply("221 bye")
			return
		default:
			reply("250 OK")
		}
	}
}

func TestSMTPMailerSend(t *testing.T) {
	srv := startFakeSMTP(t)
	host, port, _ := net.SplitHostPort(srv.ln.Addr().String())
	mailer := NewSMTPMailer(SMTPConfig{Host: host, Port: port, From: "no-reply@rivaq.test", FromName: "Rivaq"})

	err := mailer.Send(context.Background(), ports.MailMessage{To: "a@x.com", Subject: "Hello", Body: "line one\nline two"})
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	select {
	case <-srv.done:
	case <-time.After(2 * time.Second):
		t.Fatalf("smtp session did not finish")
	}

	srv.mu.Lock()
	defer srv.mu.Unlock()
	if len(srv.rcpt) != 1 || !strings.Contains(srv.rcpt[0], "a@x.com") {
		t.Fatalf("unexpected recipients %v", srv.rcpt)
	}
	for _, want := range []string{"From: \"Rivaq\" <no-reply@rivaq.test>", "To: a@x.com", "Subject: Hello", "line one\r\nline two"} {
		if !strings.Contains(srv.data, want) {
			t.Fatalf("message missing %q:\n%s", want, srv.data)
		}
	}
}

func TestSMTPMailerNotConfigured(t *testing.T) {
	mailer := NewSMTPMailer(SMTPConfig{})
	err := mailer.Send(context.Background(), ports.MailMessage{To: "a@x.com"})
	if !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
}

type recordingMailer struct {
	sent []ports.MailMessage
}

func (r *recordingMailer) Send(ctx context.Context, msg ports.MailMessage) error {
	r.sent = append(r.sent, msg)
	return nil
}

func TestPasswordResetMailer(t *testing.T) {
	rec := &recordingMailer{}
	link := "https://desk.example.com/reset-password?token=abc"

	if err := NewPasswordResetMailer(rec).SendPasswordReset(context.Background(), "a@x.com", link, time.Hour); err != nil {
		t.Fatalf("SendPasswordReset: %v", err)
	}
	if len(rec.sent) != 1 {
		t.Fatalf("expected one message")
	}
	msg := rec.sent[0]
	if msg.To != "a@x.com" || msg.Subject != passwordResetSubject {
		t.Fatalf("unexpected message %+v", msg)
	}
	if !strings.Contains(msg.Body, link) || !strings.Contains(msg.Body, "1 hour") {
		t.Fatalf("body missing link or expiry: %s", msg.Body)
	}
}

func TestHumanDuration(t *testing.T) {
	cases := map[time.Duration]string{
		time.Hour:        "1 hour",
		2 * time.Hour:    "2 hours",
		30 * time.Minute: "30 minutes",
		time.Minute:      "1 minute",
		90 * time.Second: "1m30s",
	}
	for d, want := range cases {
		if got := humanDuration(d); got != want {
			t.Fatalf("humanDuration(%v) = %q, want %q", d, got, want)
		}
	}
}
