// Package scheduler runs periodic jobs one run at a time.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"

	"github.com/easeaico/pet-village/internal/metrics"
)

var tracer = otel.Tracer("scheduler")

// Job is one periodic unit of work.
type Job func(ctx context.Context) error

// Every runs job each interval until ctx is done. A run that outlasts the
// interval delays the next one instead of overlapping it.
func Every(ctx context.Context, name string, interval time.Duration, job Job, m *metrics.Metrics) {
	if interval <= 0 {
		slog.Error("scheduler interval must be positive", "job", name, "interval", interval.String())
		return
	}
	slog.Info("scheduler started", "job", name, "interval", interval.String())

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			slog.Info("scheduler stopped", "job", name)
			return
		case <-ticker.C:
			if err := Run(ctx, name, job); err != nil {
				m.CycleFailed(name)
			}
		}
	}
}

// Run executes job once inside a span, turning a panic into an error.
func Run(ctx context.Context, name string, job Job) (err error) {
	ctx, span := tracer.Start(ctx, "Scheduler."+name)
	defer span.End()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("job %s panicked: %v", name, r)
			slog.ErrorContext(ctx, "job panicked", "job", name, "panic", fmt.Sprint(r), "stack", string(debug.Stack()))
		}
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
	}()

	start := time.Now()
	if err = job(ctx); err != nil {
		slog.ErrorContext(ctx, "job failed", "job", name, "error", err.Error())
		return err
	}
	slog.DebugContext(ctx, "job finished", "job", name, "elapsed", time.Since(start).String())
	return nil
}
