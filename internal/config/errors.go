package config

import "errors"

var (
	ErrInvalidRedisDB    = errors.New("REDIS_DB must be a valid integer")
	ErrTMapKeyMissing    = errors.New("TMAP_APP_KEY environment variable is required")
	ErrPostgresDSNBroken = errors.New("postgres configuration is incomplete")
)
