package config

import "time"

// TelemetryConfig selects where scheduler stats and job metrics are pushed.
type TelemetryConfig struct {
	// Provider is one of console, redis, nats or none
	Provider string

	NATSURL     string
	Subject     string
	RedisPrefix string

	// MetricsRetention caps the per-job metrics list kept in Redis
	MetricsRetention int
	StatsTTL         time.Duration
	PushTimeout      time.Duration
}

func loadTelemetryConfig() TelemetryConfig {
	return TelemetryConfig{
		Provider:         getEnv("TELEMETRY_PROVIDER", "console"),
		NATSURL:          getEnv("NATS_URL", "nats://127.0.0.1:4222"),
		Subject:          getEnv("TELEMETRY_SUBJECT", "jobx.telemetry"),
		RedisPrefix:      getEnv("TELEMETRY_REDIS_PREFIX", "jobx"),
		MetricsRetention: getEnvInt("TELEMETRY_METRICS_RETENTION", 1000),
		StatsTTL:         getEnvDuration("TELEMETRY_STATS_TTL", 5*time.Minute),
		PushTimeout:      getEnvDuration("TELEMETRY_PUSH_TIMEOUT", 5*time.Second),
	}
}
