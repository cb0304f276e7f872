package audit

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"social-publisher/domain/repository"
	"social-publisher/infrastructure/logger"
)

const (
	auditKey     = "security_audit"
	bufferCap    = 1000
	retainedCap  = 5000
	flushTimeout = 5 * time.Second
)

// Entry is one security-relevant event.
type Entry struct {
	Event     string    `json:"event"`
	TenantID  string    `json:"tenantId,omitempty"`
	UserID    string    `json:"userId,omitempty"`
	Detail    string    `json:"detail,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// Logger buffers entries in memory and drains them to the KV store on a
// fixed interval. Log never blocks and never fails the caller; entries
// buffered but not yet flushed are lost on crash (at-least-once only
// after a flush completes). Process-local; a multi-instance deployment
// needs a shared backing store instead.
type Logger struct {
	kv      repository.KeyValue
	mu      sync.Mutex
	pending []Entry
}

func NewLogger(kv repository.KeyValue) *Logger {
	return &Logger{kv: kv}
}

// Log appends fire-and-forget; when the buffer is full the oldest pending
// entry is dropped.
func (l *Logger) Log(e Entry) {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	l.mu.Lock()
	if len(l.pending) >= bufferCap {
		l.pending = l.pending[1:]
	}
	l.pending = append(l.pending, e)
	l.mu.Unlock()
}

// Run drains the buffer every interval until ctx is cancelled, with one
// final flush on the way out.
func (l *Logger) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			flushCtx, cancel := context.WithTimeout(context.Background(), flushTimeout)
			l.Flush(flushCtx)
			cancel()
			return ctx.Err()
		case <-ticker.C:
			flushCtx, cancel := context.WithTimeout(ctx, flushTimeout)
			l.Flush(flushCtx)
			cancel()
		}
	}
}

// Flush writes pending entries to the audit list, newest-first, trimmed to
// retainedCap. Failures re-queue nothing; the entries are logged and lost.
func (l *Logger) Flush(ctx context.Context) {
	l.mu.Lock()
	pending := l.pending
	l.pending = nil
	l.mu.Unlock()
	if len(pending) == 0 {
		return
	}

	existing := []Entry{}
	raw, ok, err := l.kv.Get(ctx, auditKey)
	if err == nil && ok {
		_ = json.Unmarshal([]byte(raw), &existing)
	}
	merged := make([]Entry, 0, len(pending)+len(existing))
	for i := len(pending) - 1; i >= 0; i-- {
		merged = append(merged, pending[i])
	}
	merged = append(merged, existing...)
	if len(merged) > retainedCap {
		merged = merged[:retainedCap]
	}
	out, err := json.Marshal(merged)
	if err != nil {
		logger.GetLogger().WithField("error", err).Warn("audit flush encode failed")
		return
	}
	if err := l.kv.Set(ctx, auditKey, string(out)); err != nil {
		logger.GetLogger().WithField("error", err).WithField("dropped", len(pending)).Warn("audit flush failed")
	}
}
