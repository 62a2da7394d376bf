package run

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type Runner struct {
	Logger *zap.Logger
	// Grace bounds how long tasks get to return after shutdown starts.
	Grace time.Duration
}

func New(log *zap.Logger) *Runner {
	return &Runner{Logger: log, Grace: 10 * time.Second}
}

// WithSignals runs every task until SIGINT/SIGTERM or until one task fails.
// All tasks share a context that is cancelled on either event. It returns the
// process exit code.
func (r *Runner) WithSignals(tasks ...func(ctx context.Context) error) int {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return r.run(ctx, tasks...)
}

func (r *Runner) run(parent context.Context, tasks ...func(ctx context.Context) error) int {
	g, ctx := errgroup.WithContext(parent)
	for _, task := range tasks {
		task := task
		g.Go(func() error { return task(ctx) })
	}

	done := make(chan error, 1)
	go func() { done <- g.Wait() }()

	var err error
	select {
	case err = <-done:
	case <-ctx.Done():
		if parent.Err() != nil {
			r.Logger.Info("shutdown signal received")
		}
		select {
		case err = <-done:
		case <-time.After(r.Grace):
			r.Logger.Warn("tasks did not stop within grace period", zap.Duration("grace", r.Grace))
			return 1
		}
	}

	if err == nil || errors.Is(err, http.ErrServerClosed) || errors.Is(err, context.Canceled) {
		return 0
	}
	r.Logger.Error("service exited with error", zap.Error(err))
	return 1
}

func Exit(code int) {
	os.Exit(code)
}
