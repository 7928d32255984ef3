package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Mid     string
	SignKey string
	Port    string
	PGMode  string
	BaseURL string

	RedisURL     string
	KafkaBrokers string
	NATSURL      string

	ApprovalTimeout time.Duration
}

// Load reads the environment. Defaults target the PG test environment so the
// gateway runs out of the box with the public test merchant.
func Load() *Config {
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	mid := os.Getenv("MID")
	if mid == "" {
		mid = "INIpayTest"
	}

	signKey := os.Getenv("SIGN_KEY")
	if signKey == "" {
		signKey = "SU5JTElURV9UUklQTEVERVNfS0VZU1RS"
	}

	pgMode := os.Getenv("PG_MODE")
	if pgMode == "" {
		pgMode = "test"
	}

	baseURL := os.Getenv("BASE_URL")
	if baseURL == "" {
		baseURL = "http://localhost:" + port
	}

	timeout := 10 * time.Second
	if raw := os.Getenv("PG_TIMEOUT_SECONDS"); raw != "" {
		if secs, err := strconv.Atoi(raw); err == nil && secs > 0 {
			timeout = time.Duration(secs) * time.Second
		}
	}

	return &Config{
		Mid:             mid,
		SignKey:         signKey,
		Port:            port,
		PGMode:          pgMode,
		BaseURL:         baseURL,
		RedisURL:        os.Getenv("REDIS_URL"),
		KafkaBrokers:    os.Getenv("KAFKA_BROKERS"),
		NATSURL:         os.Getenv("NATS_URL"),
		ApprovalTimeout: timeout,
	}
}
