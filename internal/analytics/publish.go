package analytics

import (
	"context"
	"fmt"
	"time"

	"github.com/couchcryptid/lepto-analytics/internal/domain"
)

// ReportPublisher writes city reports to a downstream sink.
type ReportPublisher interface {
	PublishReports(ctx context.Context, reports []domain.CityReport) error
}

const (
	initialBackoff     = 200 * time.Millisecond
	maxBackoff         = 5 * time.Second
	maxPublishAttempts = 5
)

// PublishAll builds every city report and hands them to p as one batch,
// retrying failed writes with exponential backoff.
func (s *Service) PublishAll(ctx context.Context, p ReportPublisher) error {
	reports, err := s.Reports(ctx, 0)
	if err != nil {
		return fmt.Errorf("build reports: %w", err)
	}
	if len(reports) == 0 {
		return nil
	}

	backoff := initialBackoff
	for attempt := 1; ; attempt++ {
		err = p.PublishReports(ctx, reports)
		if err == nil {
			s.metrics.ReportsPublished.Add(float64(len(reports)))
			s.logger.Info("reports published", "count", len(reports), "attempt", attempt)
			return nil
		}
		s.metrics.PublishErrors.Inc()

		if ctx.Err() != nil {
			return fmt.Errorf("publish reports: %w", ctx.Err())
		}
		if attempt == maxPublishAttempts {
			return fmt.Errorf("publish reports after %d attempts: %w", attempt, err)
		}
		s.logger.Warn("publish reports failed, retrying", "error", err, "attempt", attempt, "backoff", backoff)

		if !sleepWithContext(ctx, backoff) {
			return fmt.Errorf("publish reports: %w", ctx.Err())
		}
		backoff = nextBackoff(backoff, maxBackoff)
	}
}

func nextBackoff(current, maxBackoff time.Duration) time.Duration {
	next := current * 2
	if next > maxBackoff {
		return maxBackoff
	}
	return next
}

func sleepWithContext(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
