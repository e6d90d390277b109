package config

import (
	"os"
	"strconv"
	"time"
)

const (
	solverLookbackHoursEnv = "SOLVER_LOOKBACK_HOURS"
	solverMaxIterationsEnv = "SOLVER_MAX_ITERATIONS"
	solverToleranceMsEnv   = "SOLVER_TOLERANCE_MS"

	defaultLookbackHours = 12
	defaultMaxIterations = 10
	defaultToleranceMs   = 60_000
)

// SolverConfig names the departure search constants. The tolerance and
// lookback have drifted across client revisions before; they are
// configuration here, not literals.
type SolverConfig struct {
	LookbackHours int
	MaxIterations int
	Tolerance     time.Duration
}

func LoadSolverConfig() *SolverConfig {
	lookback := defaultLookbackHours
	if v := os.Getenv(solverLookbackHoursEnv); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			lookback = parsed
		}
	}

	maxIterations := defaultMaxIterations
	if v := os.Getenv(solverMaxIterationsEnv); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			maxIterations = parsed
		}
	}

	toleranceMs := defaultToleranceMs
	if v := os.Getenv(solverToleranceMsEnv); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			toleranceMs = parsed
		}
	}

	return &SolverConfig{
		LookbackHours: lookback,
		MaxIterations: maxIterations,
		Tolerance:     time.Duration(toleranceMs) * time.Millisecond,
	}
}
