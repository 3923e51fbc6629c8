// Package config loads runtime configuration from the environment.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds everything the binaries need to wire the service.
type Config struct {
	HTTPBind string

	// KafkaBrokers empty means the in-process settlement queue is used
	// instead of Kafka.
	KafkaBrokers    []string
	SettlementTopic string
	SettlementGroup string

	SettlementMaxAttempts int
	SettlementBackoff     time.Duration

	QueueWorkers int
	QueueBuffer  int

	ExchangeBaseURL string
	BalanceBaseURL  string

	// BigQueryProject empty disables the warehouse archiver.
	BigQueryProject string
	BigQueryDataset string
	BigQueryTable   string
}

// Load reads the environment with defaults.
func Load() Config {
	return Config{
		HTTPBind:              getEnv("HTTP_BIND", ":8080"),
		KafkaBrokers:          splitAndTrim(os.Getenv("KAFKA_BROKERS"), ","),
		SettlementTopic:       getEnv("SETTLEMENT_TOPIC", "transactions.settlement"),
		SettlementGroup:       getEnv("SETTLEMENT_GROUP", "kivo-settlement"),
		SettlementMaxAttempts: getEnvInt("SETTLEMENT_MAX_ATTEMPTS", 3),
		SettlementBackoff:     time.Duration(getEnvInt("SETTLEMENT_BACKOFF_MS", 1000)) * time.Millisecond,
		QueueWorkers:          getEnvInt("QUEUE_WORKERS", 5),
		QueueBuffer:           getEnvInt("QUEUE_BUFFER", 100),
		ExchangeBaseURL:       getEnv("EXCHANGE_BASE_URL", "https://brasilapi.com.br"),
		BalanceBaseURL:        getEnv("BALANCE_BASE_URL", ""),
		BigQueryProject:       getEnv("BQ_PROJECT", ""),
		BigQueryDataset:       getEnv("BQ_DATASET", "finance"),
		BigQueryTable:         getEnv("BQ_TABLE", "settled_transactions"),
	}
}

func getEnv(key, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}

func getEnvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	if i, err := strconv.Atoi(v); err == nil {
		return i
	}
	return def
}

func splitAndTrim(s, sep string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, sep)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
