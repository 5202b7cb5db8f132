package constants

import "time"

const (
	DatabaseTimeout = 5 * time.Second
	RequestTimeout  = 30 * time.Second
)

const (
	DBMaxOpenConns    = 25
	DBMaxIdleConns    = 5
	DBConnMaxLifetime = 1 * time.Hour
	DBMaxIdleTime     = 10 * time.Minute
)

const (
	PersistenceMaxRetries uint64 = 4
	PersistenceRetryBase         = 50 * time.Millisecond
)

const (
	ShutdownTimeout = 5 * time.Second
)

const (
	// NotifyBufferSize bounds each subscriber channel; a stalled presentation
	// layer drops events rather than blocking the engine.
	NotifyBufferSize = 64
)
