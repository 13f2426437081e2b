package sweeper

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/yoryor/auth-service/internal/metrics"
	"github.com/yoryor/auth-service/internal/repository"
)

// Sweeper is the external cleanup for OTP rows: issuance and verification
// never delete expired or consumed codes, this loop does.
type Sweeper struct {
	otps      repository.OtpRepository
	logger    *slog.Logger
	schedule  cron.Schedule
	retention time.Duration
}

func New(otps repository.OtpRepository, logger *slog.Logger, cronExpr string, retention time.Duration) (*Sweeper, error) {
	schedule, err := cron.ParseStandard(cronExpr)
	if err != nil {
		return nil, fmt.Errorf("parse sweep cron %q: %w", cronExpr, err)
	}
	return &Sweeper{
		otps:      otps,
		logger:    logger.With("component", "sweeper"),
		schedule:  schedule,
		retention: retention,
	}, nil
}

func (s *Sweeper) Start(ctx context.Context) {
	s.logger.Info("sweeper started", "retention", s.retention)

	for {
		next := s.schedule.Next(time.Now())
		timer := time.NewTimer(time.Until(next))

		select {
		case <-ctx.Done():
			timer.Stop()
			s.logger.Info("sweeper shut down")
			return
		case <-timer.C:
			s.RunOnce(ctx)
		}
	}
}

// RunOnce purges used codes and long-expired unused codes in one pass.
func (s *Sweeper) RunOnce(ctx context.Context) {
	start := time.Now()
	cutoff := start.Add(-s.retention)

	deleted, err := s.otps.PurgeBefore(ctx, cutoff)
	if err != nil {
		s.logger.Error("purge otp codes", "error", err)
		return
	}

	metrics.SweepCycleDuration.Observe(time.Since(start).Seconds())
	if deleted > 0 {
		metrics.SweepDeletedTotal.Add(float64(deleted))
		s.logger.Info("purged otp codes", "deleted", deleted, "cutoff", cutoff)
	}
}
