package logging

import (
	"errors"
	"io"
	"net"
	"strings"
	"sync"
	"time"
)

var (
	errEmptyAddr = errors.New("logstash: empty address")
	errCooldown  = errors.New("logstash: reconnect cooldown")
)

// LogstashWriter forwards newline-delimited JSON records to a Logstash TCP
// input. Records are dropped while the endpoint is unreachable so logging
// never blocks request handling.
type LogstashWriter struct {
	addr     string
	dial     time.Duration
	deadline time.Duration
	cooldown time.Duration

	mu      sync.Mutex
	conn    net.Conn
	retryAt time.Time
	closed  bool
}

type Option func(*LogstashWriter)

// WithDialTimeout defaults to 2s.
func WithDialTimeout(d time.Duration) Option {
	return func(w *LogstashWriter) { w.dial = d }
}

// WithWriteTimeout defaults to 1s.
func WithWriteTimeout(d time.Duration) Option {
	return func(w *LogstashWriter) { w.deadline = d }
}

// WithRetryInterval sets how long writes are dropped after a failure. Defaults to 5s.
func WithRetryInterval(d time.Duration) Option {
	return func(w *LogstashWriter) { w.cooldown = d }
}

func NewLogstashWriter(addr string, opts ...Option) (*LogstashWriter, error) {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return nil, errEmptyAddr
	}
	w := &LogstashWriter{
		addr:     addr,
		dial:     2 * time.Second,
		deadline: time.Second,
		cooldown: 5 * time.Second,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Write always reports the full length unless the writer is closed, so a
// failing Logstash never breaks an io.MultiWriter chain.
func (w *LogstashWriter) Write(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	record := make([]byte, len(p), len(p)+1)
	copy(record, p)
	if record[len(record)-1] != '\n' {
		record = append(record, '\n')
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return 0, io.ErrClosedPipe
	}
	if err := w.connectLocked(); err != nil {
		return len(p), nil
	}
	if w.deadline > 0 {
		_ = w.conn.SetWriteDeadline(time.Now().Add(w.deadline))
	}
	if _, err := w.conn.Write(record); err != nil {
		w.dropConnLocked()
		w.backoffLocked()
	}
	return len(p), nil
}

func (w *LogstashWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return nil
	}
	w.closed = true
	return w.dropConnLocked()
}

func (w *LogstashWriter) connectLocked() error {
	if w.conn != nil {
		return nil
	}
	if !w.retryAt.IsZero() && time.Now().Before(w.retryAt) {
		return errCooldown
	}
	conn, err := net.DialTimeout("tcp", w.addr, w.dial)
	if err != nil {
		w.backoffLocked()
		return err
	}
	w.conn = conn
	w.retryAt = time.Time{}
	return nil
}

func (w *LogstashWriter) dropConnLocked() error {
	if w.conn == nil {
		return nil
	}
	err := w.conn.Close()
	w.conn = nil
	return err
}

func (w *LogstashWriter) backoffLocked() {
	if w.cooldown <= 0 {
		w.retryAt = time.Time{}
		return
	}
	w.retryAt = time.Now().Add(w.cooldown)
}
