// Package audit appends sync, import and payment query outcomes to a daily log file,
// logs/transactions_YYYYMMDD.log by default, one JSON object per line.
package audit

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"
)

type Recorder interface {
	Success(ctx context.Context, msg string, attrs ...any)
	Failure(ctx context.Context, msg string, attrs ...any)
}

type FileRecorder struct {
	dir      string
	fallback *slog.Logger
	now      func() time.Time

	mu sync.Mutex
}

func NewFileRecorder(dir string, fallback *slog.Logger) (*FileRecorder, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create audit dir: %w", err)
	}
	if fallback == nil {
		fallback = slog.Default()
	}
	return &FileRecorder{dir: dir, fallback: fallback, now: time.Now}, nil
}

func (r *FileRecorder) Success(ctx context.Context, msg string, attrs ...any) {
	r.write(ctx, "success", msg, attrs)
}

func (r *FileRecorder) Failure(ctx context.Context, msg string, attrs ...any) {
	r.write(ctx, "error", msg, attrs)
}

// Path returns the file that entries written at t go to.
func (r *FileRecorder) Path(t time.Time) string {
	return filepath.Join(r.dir, "transactions_"+t.Format("20060102")+".log")
}

func (r *FileRecorder) write(ctx context.Context, outcome, msg string, attrs []any) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	f, err := os.OpenFile(r.Path(now), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		// Losing an audit line must not fail the request.
		r.fallback.Error("audit write failed", "error", err, "message", msg)
		return
	}
	defer f.Close()

	logger := slog.New(slog.NewJSONHandler(f, &slog.HandlerOptions{
		ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				return slog.String(slog.TimeKey, now.Format("2006-01-02 15:04:05.000"))
			}
			return a
		},
	}))

	level := slog.LevelInfo
	if outcome == "error" {
		level = slog.LevelError
	}
	logger.Log(ctx, level, msg, append([]any{"outcome", outcome}, attrs...)...)
}

// Nop discards everything.
type Nop struct{}

func (Nop) Success(context.Context, string, ...any) {}
func (Nop) Failure(context.Context, string, ...any) {}
