package searchrecorder

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"

	"github.com/NeriVermilion/departure-planner/internal/domain"
)

type influxDBRecorder struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	bucket   string
	org      string
}

func NewRecorder(ctx context.Context, cfg *Config) (domain.SolverRunRecorder, error) {
	if cfg.Disabled {
		slog.InfoContext(ctx, "search result recording disabled")
		return NewNoopRecorder(), nil
	}

	if cfg.InfluxDBToken == "" || cfg.InfluxDBOrg == "" {
		slog.WarnContext(ctx, "InfluxDB token or org not configured, search result recording disabled",
			slog.String("url", cfg.InfluxDBURL),
		)
		return NewNoopRecorder(), nil
	}

	client := influxdb2.NewClient(cfg.InfluxDBURL, cfg.InfluxDBToken)
	writeAPI := client.WriteAPIBlocking(cfg.InfluxDBOrg, cfg.InfluxDBBucket)

	slog.InfoContext(ctx, "search result recorder initialized",
		slog.String("type", "influxdb"),
		slog.String("url", cfg.InfluxDBURL),
		slog.String("bucket", cfg.InfluxDBBucket),
	)

	return &influxDBRecorder{
		client:   client,
		writeAPI: writeAPI,
		bucket:   cfg.InfluxDBBucket,
		org:      cfg.InfluxDBOrg,
	}, nil
}

func (r *influxDBRecorder) RecordSolverRun(ctx context.Context, record domain.SolverRunRecord) error {
	runID := record.RunID
	if runID == "" {
		runID = "default"
	}

	point := influxdb2.NewPoint(
		"departure_search",
		map[string]string{
			"run_id":    runID,
			"converged": strconv.FormatBool(record.Converged),
			"fell_back": strconv.FormatBool(record.FellBack),
		},
		map[string]any{
			"desired_arrival_unix":  record.DesiredArrival.Unix(),
			"chosen_departure_unix": record.ChosenDeparture.Unix(),
			"arrival_diff_seconds":  record.ArrivalDiff.Seconds(),
			"provider_calls":        record.ProviderCalls,
			"elapsed_ms":            record.Elapsed.Milliseconds(),
		},
		time.Now(),
	)

	if err := r.writeAPI.WritePoint(ctx, point); err != nil {
		slog.WarnContext(ctx, "failed to write search result to InfluxDB",
			slog.String("error", err.Error()),
			slog.String("run_id", runID),
		)
	}

	return nil
}

func (r *influxDBRecorder) RecordSweep(ctx context.Context, record domain.SweepRecord) error {
	point := influxdb2.NewPoint(
		"departure_sweep",
		map[string]string{},
		map[string]any{
			"due_count":       record.DueCount,
			"delivered_count": record.DeliveredCount,
			"failed_count":    record.FailedCount,
			"skipped_count":   record.SkippedCount,
			"tick_unix":       record.TickAt.Unix(),
		},
		time.Now(),
	)

	if err := r.writeAPI.WritePoint(ctx, point); err != nil {
		slog.WarnContext(ctx, "failed to write sweep result to InfluxDB",
			slog.String("error", err.Error()),
		)
	}

	return nil
}

func (r *influxDBRecorder) Close() error {
	if r.client != nil {
		r.client.Close()
	}
	return nil
}
