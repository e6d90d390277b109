package config

func ValidateForRun(cfg *Config) error {
	if cfg.Providers.TMapAppKey == "" {
		return ErrTMapKeyMissing
	}
	if cfg.Postgres == nil || cfg.Postgres.Host == "" || cfg.Postgres.Database == "" {
		return ErrPostgresDSNBroken
	}
	return nil
}
