package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/NeriVermilion/departure-planner/internal/domain"
)

type departureRepository struct {
	pool       *pgxpool.Pool
	batchLimit int
}

// NewDepartureRepository wraps the pool. batchLimit caps how many due
// records one sweep tick picks up.
func NewDepartureRepository(pool *pgxpool.Pool, batchLimit int) domain.PendingDepartureRepository {
	return &departureRepository{
		pool:       pool,
		batchLimit: batchLimit,
	}
}

func (r *departureRepository) Insert(ctx context.Context, departure *domain.PendingDeparture) error {
	if departure == nil {
		return ErrInvalidDepartureData
	}

	query := `
		INSERT INTO pending_departures
			(id, user_id, start_label, end_label, mode, desired_arrival,
			 computed_departure, route_snapshot, notification_sent, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := r.pool.Exec(ctx, query,
		departure.ID,
		departure.UserID,
		departure.StartLabel,
		departure.EndLabel,
		string(departure.Mode),
		departure.DesiredArrival,
		departure.ComputedDeparture,
		departure.RouteSnapshot,
		departure.NotificationSent,
		departure.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert pending departure: %w", err)
	}

	return nil
}

func (r *departureRepository) FindDueUnsent(ctx context.Context, now time.Time, gracePeriod time.Duration) ([]*domain.PendingDeparture, error) {
	query := `
		SELECT id, user_id, start_label, end_label, mode, desired_arrival,
		       computed_departure, route_snapshot, notification_sent, created_at
		FROM pending_departures
		WHERE notification_sent = FALSE
		  AND computed_departure <= $1
		  AND computed_departure >= $2
		ORDER BY computed_departure
		LIMIT $3
	`

	rows, err := r.pool.Query(ctx, query, now, now.Add(-gracePeriod), r.batchLimit)
	if err != nil {
		return nil, fmt.Errorf("query due departures: %w", err)
	}
	defer rows.Close()

	return scanDepartures(rows)
}

// MarkSent is the delivery claim. The conditional update succeeds for at
// most one caller per record; everyone else sees zero rows affected.
func (r *departureRepository) MarkSent(ctx context.Context, id string) (bool, error) {
	query := `
		UPDATE pending_departures
		SET notification_sent = TRUE
		WHERE id = $1 AND notification_sent = FALSE
	`

	tag, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return false, fmt.Errorf("mark departure sent: %w", err)
	}

	return tag.RowsAffected() > 0, nil
}

func (r *departureRepository) ListByUser(ctx context.Context, userID string, limit int) ([]*domain.PendingDeparture, error) {
	query := `
		SELECT id, user_id, start_label, end_label, mode, desired_arrival,
		       computed_departure, route_snapshot, notification_sent, created_at
		FROM pending_departures
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	rows, err := r.pool.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("query departures by user: %w", err)
	}
	defer rows.Close()

	return scanDepartures(rows)
}

func scanDepartures(rows pgx.Rows) ([]*domain.PendingDeparture, error) {
	departures := make([]*domain.PendingDeparture, 0)
	for rows.Next() {
		var d domain.PendingDeparture
		var mode string
		if err := rows.Scan(
			&d.ID,
			&d.UserID,
			&d.StartLabel,
			&d.EndLabel,
			&mode,
			&d.DesiredArrival,
			&d.ComputedDeparture,
			&d.RouteSnapshot,
			&d.NotificationSent,
			&d.CreatedAt,
		); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				break
			}
			return nil, fmt.Errorf("scan pending departure: %w", err)
		}
		d.Mode = domain.TravelMode(mode)
		departures = append(departures, &d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate pending departures: %w", err)
	}
	return departures, nil
}
