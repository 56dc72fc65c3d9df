package cron

import (
	"context"
	"fmt"
	"time"

	"deployhub/services/expiration"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Sweeps is the license expiration work run on a timer.
type Sweeps interface {
	RunWarningSweeps(ctx context.Context)
	RunExpirationSweep(ctx context.Context) (expiration.SweepReport, error)
}

// Scheduler fires the license sweeps at fixed times of day.
type Scheduler struct {
	cron   *cron.Cron
	sweeps Sweeps
	logger *zap.Logger
}

// cronLogger routes robfig/cron logs through zap.
type cronLogger struct {
	s *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.s.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.s.Errorw(msg, append(keysAndValues, "error", err)...)
}

func NewScheduler(sweeps Sweeps, warningSpec, expirySpec string, loc *time.Location, logger *zap.Logger) (*Scheduler, error) {
	if loc == nil {
		loc = time.UTC
	}
	cl := cronLogger{s: logger.Sugar()}
	c := cron.New(
		cron.WithLocation(loc),
		cron.WithLogger(cl),
		cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
	)

	s := &Scheduler{cron: c, sweeps: sweeps, logger: logger}

	if _, err := c.AddFunc(warningSpec, s.runWarnings); err != nil {
		return nil, fmt.Errorf("invalid license warning schedule %q: %w", warningSpec, err)
	}
	if _, err := c.AddFunc(expirySpec, s.runExpiry); err != nil {
		return nil, fmt.Errorf("invalid license expiry schedule %q: %w", expirySpec, err)
	}
	return s, nil
}

func (s *Scheduler) runWarnings() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()
	s.sweeps.RunWarningSweeps(ctx)
}

func (s *Scheduler) runExpiry() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()
	if _, err := s.sweeps.RunExpirationSweep(ctx); err != nil {
		s.logger.Error("License expiration sweep failed", zap.Error(err))
	}
}

func (s *Scheduler) Start() {
	s.logger.Info("Starting license scheduler", zap.Int("jobs", len(s.cron.Entries())))
	s.cron.Start()
}

// Stop halts the scheduler and waits for running sweeps, bounded by ctx.
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
		s.logger.Warn("License scheduler stop timed out")
	}
}
