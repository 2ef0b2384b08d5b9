package config

import (
	"strconv"
	"time"
)

type EngineConfig interface {
	GetHTTPTimeout() time.Duration
	GetLedgerPageSize() int
	GetMaxRetries() int
	GetBackoffBase() time.Duration
}

type Engine struct{}

var _ EngineConfig = Engine{}

func (Engine) GetHTTPTimeout() time.Duration {
	return getDuration("HTTP_TIMEOUT", 30*time.Second)
}

func (Engine) GetLedgerPageSize() int {
	return getInt("LEDGER_PAGE_SIZE", 10)
}

// GetMaxRetries bounds the transient-failure retries per ledger page.
func (Engine) GetMaxRetries() int {
	return getInt("LEDGER_MAX_RETRIES", 2)
}

// GetBackoffBase is the delay before the first retry; each further
// retry doubles it.
func (Engine) GetBackoffBase() time.Duration {
	return getDuration("LEDGER_BACKOFF_BASE", 2*time.Second)
}

func getInt(envVar string, defaultValue int) int {
	if n, err := strconv.Atoi(GetEnv(envVar, "")); err == nil && n > 0 {
		return n
	}
	return defaultValue
}

func getDuration(envVar string, defaultValue time.Duration) time.Duration {
	if d, err := time.ParseDuration(GetEnv(envVar, "")); err == nil && d > 0 {
		return d
	}
	return defaultValue
}
