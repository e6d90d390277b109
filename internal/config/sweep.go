package config

import (
	"os"
	"strconv"
	"time"
)

const (
	sweepIntervalSecondsEnv   = "SWEEP_INTERVAL_SECONDS"
	sweepGracePeriodMinEnv    = "SWEEP_GRACE_PERIOD_MINUTES"
	sweepBatchLimitEnv        = "SWEEP_BATCH_LIMIT"
	defaultSweepIntervalSec   = 60
	defaultSweepGracePeriodMn = 15
	defaultSweepBatchLimit    = 200
)

type SweepConfig struct {
	Interval    time.Duration
	GracePeriod time.Duration
	BatchLimit  int
}

func LoadSweepConfig() *SweepConfig {
	intervalSec := defaultSweepIntervalSec
	if v := os.Getenv(sweepIntervalSecondsEnv); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			intervalSec = parsed
		}
	}

	graceMin := defaultSweepGracePeriodMn
	if v := os.Getenv(sweepGracePeriodMinEnv); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			graceMin = parsed
		}
	}

	batchLimit := defaultSweepBatchLimit
	if v := os.Getenv(sweepBatchLimitEnv); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			batchLimit = parsed
		}
	}

	return &SweepConfig{
		Interval:    time.Duration(intervalSec) * time.Second,
		GracePeriod: time.Duration(graceMin) * time.Minute,
		BatchLimit:  batchLimit,
	}
}
