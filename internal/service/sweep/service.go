package sweep

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/NeriVermilion/departure-planner/internal/config"
	"github.com/NeriVermilion/departure-planner/internal/domain"
	"github.com/NeriVermilion/departure-planner/internal/observability/metrics"
	"github.com/NeriVermilion/departure-planner/internal/observability/tracing"
)

// Service delivers due departure reminders. Each record is claimed before
// any delivery work happens, so a record gets at most one delivery attempt
// across all sweeps ever: delivery failures are terminal, not retried.
type Service struct {
	store         DepartureStore
	credentials   CredentialSource
	channel       Channel
	recorder      domain.SolverRunRecorder
	searchMetrics *metrics.SearchMetrics

	gracePeriod     time.Duration
	deepLinkBaseURL string
}

func NewService(
	store DepartureStore,
	credentials CredentialSource,
	channel Channel,
	recorder domain.SolverRunRecorder,
	searchMetrics *metrics.SearchMetrics,
	cfg *config.SweepConfig,
	deepLinkBaseURL string,
) *Service {
	return &Service{
		store:           store,
		credentials:     credentials,
		channel:         channel,
		recorder:        recorder,
		searchMetrics:   searchMetrics,
		gracePeriod:     cfg.GracePeriod,
		deepLinkBaseURL: deepLinkBaseURL,
	}
}

// Run processes one tick. Per-record failures are logged and counted but
// never propagated; the returned error covers only the initial query.
func (s *Service) Run(ctx context.Context, now time.Time) (*Result, error) {
	ctx, span := tracing.StartSweepSpan(ctx, now)
	defer span.End()

	started := time.Now()

	due, err := s.store.FindDueUnsent(ctx, now, s.gracePeriod)
	if err != nil {
		slog.ErrorContext(ctx, "failed to query due departures",
			slog.String("error", err.Error()),
		)
		tracing.RecordSweepResult(span, 0, 0, 0, 0, err)
		return nil, err
	}

	slog.DebugContext(ctx, "sweep tick started",
		slog.Time("tick_at", now),
		slog.Int("due_count", len(due)),
	)

	result := &Result{
		TickAt:   now,
		DueCount: len(due),
		Items:    make([]ResultItem, 0, len(due)),
	}

	for _, departure := range due {
		item := s.processOne(ctx, departure)
		result.Items = append(result.Items, item)

		outcome := "failed"
		switch {
		case item.Delivered:
			result.DeliveredCount++
			outcome = "delivered"
		case item.Skipped:
			result.SkippedCount++
			outcome = "skipped"
		default:
			result.FailedCount++
		}
		if s.searchMetrics != nil {
			s.searchMetrics.RecordSweepOutcome(ctx, outcome)
		}
	}

	elapsed := time.Since(started)
	if s.searchMetrics != nil {
		s.searchMetrics.RecordSweepDuration(ctx, elapsed)
	}
	if s.recorder != nil {
		_ = s.recorder.RecordSweep(ctx, domain.SweepRecord{
			TickAt:         now,
			DueCount:       result.DueCount,
			DeliveredCount: result.DeliveredCount,
			FailedCount:    result.FailedCount,
			SkippedCount:   result.SkippedCount,
		})
	}
	tracing.RecordSweepResult(span, result.DueCount, result.DeliveredCount, result.FailedCount, result.SkippedCount, nil)

	if result.DueCount > 0 {
		slog.InfoContext(ctx, "sweep tick finished",
			slog.Int("due_count", result.DueCount),
			slog.Int("delivered_count", result.DeliveredCount),
			slog.Int("failed_count", result.FailedCount),
			slog.Int("skipped_count", result.SkippedCount),
			slog.Duration("elapsed", elapsed),
		)
	}

	return result, nil
}

// processOne claims the record, then makes its single delivery attempt. The
// claim happens before the credential refresh: once claimed, the record is
// done regardless of what delivery does.
func (s *Service) processOne(ctx context.Context, departure *domain.PendingDeparture) ResultItem {
	item := ResultItem{
		DepartureID: departure.ID,
		UserID:      departure.UserID,
	}

	claimed, err := s.store.MarkSent(ctx, departure.ID)
	if err != nil {
		slog.ErrorContext(ctx, "failed to claim departure",
			slog.String("departure_id", departure.ID),
			slog.String("error", err.Error()),
		)
		item.FailReason = "claim failed"
		return item
	}
	if !claimed {
		slog.DebugContext(ctx, "departure already claimed by another sweep",
			slog.String("departure_id", departure.ID),
		)
		item.Skipped = true
		return item
	}

	token, err := s.credentials.Refresh(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "credential refresh failed, departure dropped",
			slog.String("departure_id", departure.ID),
			slog.String("user_id", departure.UserID),
			slog.String("error", err.Error()),
		)
		item.FailReason = "credential refresh failed"
		return item
	}

	msg := s.buildMessage(departure)
	if err := s.channel.Send(ctx, token, msg); err != nil {
		slog.ErrorContext(ctx, "delivery failed, departure dropped",
			slog.String("departure_id", departure.ID),
			slog.String("user_id", departure.UserID),
			slog.String("error", err.Error()),
		)
		item.FailReason = "delivery failed"
		return item
	}

	slog.InfoContext(ctx, "departure reminder delivered",
		slog.String("departure_id", departure.ID),
		slog.String("user_id", departure.UserID),
		slog.Time("computed_departure", departure.ComputedDeparture),
	)
	item.Delivered = true
	return item
}

func (s *Service) buildMessage(departure *domain.PendingDeparture) domain.NotificationMessage {
	title := fmt.Sprintf("Time to leave for %s", departure.EndLabel)
	body := fmt.Sprintf("Leave %s by %s to arrive by %s.",
		departure.StartLabel,
		departure.ComputedDeparture.Format("15:04"),
		departure.DesiredArrival.Format("15:04"),
	)

	deepLink := ""
	if s.deepLinkBaseURL != "" {
		deepLink = fmt.Sprintf("%s?departure_id=%s", s.deepLinkBaseURL, departure.ID)
	}

	return domain.NotificationMessage{
		Title:       title,
		Body:        body,
		DeepLinkURL: deepLink,
	}
}
