package constants

import "time"

const (
	DatabaseTimeout = 5 * time.Second
	RequestTimeout  = 30 * time.Second
)

const (
	DBMaxOpenConns    = 100
	DBMaxIdleConns    = 10
	DBConnMaxLifetime = 1 * time.Hour
	DBMaxIdleTime     = 10 * time.Minute
)

const (
	ShutdownTimeout = 5 * time.Second
)

const (
	// DefaultOverviewSeasons caps how many recent seasons the overview
	// endpoint aggregates when the caller does not say.
	DefaultOverviewSeasons = 6
	MaxOverviewSeasons     = 24
)
