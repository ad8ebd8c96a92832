// Package scheduler runs periodic background work on a cron schedule.
package scheduler

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/ndewijer/wealth-tracker/internal/model"
)

// Refresher refreshes stale quotes. It is satisfied by service.PriceService.
type Refresher interface {
	RefreshStale(ctx context.Context, quote string, accountID *int64, maxAge time.Duration) (*model.RefreshReport, error)
}

// Scheduler wraps a cron runner.
type Scheduler struct {
	cron    *cron.Cron
	logger  *zap.Logger
	timeout time.Duration
}

// New creates a scheduler. Overlapping runs of the same job are skipped.
func New(logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	cl := cronLogger{logger.Sugar()}
	return &Scheduler{
		cron:    cron.New(cron.WithLogger(cl), cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl))),
		logger:  logger,
		timeout: 10 * time.Minute,
	}
}

// ScheduleRefresh runs RefreshStale for quote across all accounts on spec.
func (s *Scheduler) ScheduleRefresh(spec, quote string, maxAge time.Duration, r Refresher) error {
	_, err := s.cron.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		defer cancel()

		report, err := r.RefreshStale(ctx, quote, nil, maxAge)
		if err != nil {
			s.logger.Error("scheduled price refresh failed", zap.String("quote", quote), zap.Error(err))
			return
		}
		for asset, reason := range report.Failed {
			s.logger.Warn("scheduled price refresh could not price asset",
				zap.String("run_id", report.RunID),
				zap.String("asset", asset),
				zap.String("reason", reason),
			)
		}
	})
	if err != nil {
		return errors.Wrapf(err, "invalid refresh schedule %q", spec)
	}
	s.logger.Info("scheduled price refresh", zap.String("spec", spec), zap.String("quote", quote))
	return nil
}

// Entries returns the number of scheduled jobs.
func (s *Scheduler) Entries() int {
	return len(s.cron.Entries())
}

// Start runs the scheduler in its own goroutine.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop stops scheduling and waits for running jobs until ctx is done.
func (s *Scheduler) Stop(ctx context.Context) error {
	done := s.cron.Stop()
	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

type cronLogger struct {
	l *zap.SugaredLogger
}

func (c cronLogger) Info(msg string, keysAndValues ...any) {
	c.l.Debugw(msg, keysAndValues...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...any) {
	c.l.Errorw(msg, append(keysAndValues, "error", err)...)
}
