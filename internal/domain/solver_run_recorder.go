package domain

import (
	"context"
	"time"
)

type SolverRunRecord struct {
	RunID           string
	DesiredArrival  time.Time
	ChosenDeparture time.Time
	ArrivalDiff     time.Duration
	ProviderCalls   int
	Converged       bool
	FellBack        bool
	Elapsed         time.Duration
}

type SweepRecord struct {
	TickAt         time.Time
	DueCount       int
	DeliveredCount int
	FailedCount    int
	SkippedCount   int
}

type SolverRunRecorder interface {
	RecordSolverRun(ctx context.Context, record SolverRunRecord) error
	RecordSweep(ctx context.Context, record SweepRecord) error
	Close() error
}
