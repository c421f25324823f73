package constants

import "time"

const (
	ExternalAPITimeout = 45 * time.Second
	DatabaseTimeout    = 5 * time.Second
	RequestTimeout     = 60 * time.Second
)

const (
	DBMaxOpenConns    = 100
	DBMaxIdleConns    = 10
	DBConnMaxLifetime = 1 * time.Hour
	DBMaxIdleTime     = 10 * time.Minute
	DBBatchSize       = 100
)

const (
	ShutdownTimeout     = 5 * time.Second
	BrowserCloseTimeout = 10 * time.Second
)

const (
	TotalsHistoryLimit = 30
	StatHistoryLimit   = 365
)
