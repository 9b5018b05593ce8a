package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/coogmusic/coog-backend/internal/metrics"
)

// PlayResetter zeroes monthly play counters once per period.
type PlayResetter interface {
	ResetMonthlyPlays(ctx context.Context, period string) (bool, error)
}

// MonthlyReset zeroes songs.monthly_plays at the start of every UTC month.
// The reset for the current month is attempted once at startup as well, so
// a boundary missed while the process was down is caught up; the store
// records each period so the reset happens at most once per month.
type MonthlyReset struct {
	store PlayResetter
	log   *slog.Logger
	now   func() time.Time
}

func NewMonthlyReset(store PlayResetter, log *slog.Logger) *MonthlyReset {
	return &MonthlyReset{store: store, log: log, now: time.Now}
}

// Run blocks until ctx is cancelled.
func (m *MonthlyReset) Run(ctx context.Context) {
	m.runOnce(ctx)
	for {
		wait := time.Until(nextMonthStart(m.now()))
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
			m.runOnce(ctx)
		}
	}
}

func (m *MonthlyReset) runOnce(ctx context.Context) {
	period := m.now().UTC().Format("2006-01")
	ran, err := m.store.ResetMonthlyPlays(ctx, period)
	switch {
	case err != nil:
		metrics.JobRuns.WithLabelValues("monthly_plays_reset", "error").Inc()
		m.log.Error("monthly play reset failed", "period", period, "err", err)
	case ran:
		metrics.JobRuns.WithLabelValues("monthly_plays_reset", "reset").Inc()
		m.log.Info("monthly plays reset", "period", period)
	default:
		metrics.JobRuns.WithLabelValues("monthly_plays_reset", "skipped").Inc()
		m.log.Debug("monthly plays already reset", "period", period)
	}
}

// nextMonthStart returns the first instant of the UTC month after t.
func nextMonthStart(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month()+1, 1, 0, 0, 0, 0, time.UTC)
}
