package config

import "time"

const (
	DefaultMongoURI          = "mongodb://localhost:27017"
	DefaultMongoDatabaseName = "carhub"
	DefaultMongoConnTimeout  = 10 * time.Second

	DefaultPort      = "8080"
	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"
	DefaultEnvFile   = ".env"

	DefaultRateLimitRequests = 60
	DefaultRateLimitWindow   = 1 * time.Minute
	DefaultRateLimitBurst    = 10

	DefaultRequestTimeout = 30 * time.Second
	DefaultIdempotencyTTL = 24 * time.Hour
	DefaultMaxRequestSize = 1 * 1024 * 1024 // 1MB

	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 15 * time.Second
	DefaultIdleTimeout     = 60 * time.Second
	DefaultShutdownTimeout = 30 * time.Second

	DefaultRedisDB = 0

	DefaultCreditSurchargeRate = "14"
	DefaultBookingLockTTL      = 10 * time.Second
	DefaultBookingLockWait     = 2 * time.Second

	DefaultKafkaEnabled = false

	DefaultServiceURL = "http://localhost:8080"

	DefaultPaginationLimit = 100
	MinPaginationLimit     = 10
)
