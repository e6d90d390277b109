package searchrecorder

import (
	"context"

	"github.com/NeriVermilion/departure-planner/internal/domain"
)

type noopRecorder struct{}

func NewNoopRecorder() domain.SolverRunRecorder {
	return &noopRecorder{}
}

func (n *noopRecorder) RecordSolverRun(_ context.Context, _ domain.SolverRunRecord) error {
	return nil
}

func (n *noopRecorder) RecordSweep(_ context.Context, _ domain.SweepRecord) error {
	return nil
}

func (n *noopRecorder) Close() error {
	return nil
}
