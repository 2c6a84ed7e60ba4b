package config

const (
	EnvMongoURI          = "MONGO_URI"
	EnvMongoDatabaseName = "MONGO_DATABASE_NAME"
	EnvMongoConnTimeout  = "MONGO_CONN_TIMEOUT"

	EnvPort      = "PORT"
	EnvLogLevel  = "LOG_LEVEL"
	EnvLogFormat = "LOG_FORMAT"
	EnvEnvFile   = "ENV_FILE"

	EnvRateLimitRequests = "RATE_LIMIT_REQUESTS"
	EnvRateLimitWindow   = "RATE_LIMIT_WINDOW"
	EnvRateLimitBurst    = "RATE_LIMIT_BURST"

	EnvRequestTimeout = "REQUEST_TIMEOUT"
	EnvIdempotencyTTL = "IDEMPOTENCY_TTL"
	EnvMaxRequestSize = "MAX_REQUEST_SIZE"

	EnvReadTimeout     = "READ_TIMEOUT"
	EnvWriteTimeout    = "WRITE_TIMEOUT"
	EnvIdleTimeout     = "IDLE_TIMEOUT"
	EnvShutdownTimeout = "SHUTDOWN_TIMEOUT"

	EnvRedisAddr     = "REDIS_ADDR"
	EnvRedisPassword = "REDIS_PASSWORD"
	EnvRedisDB       = "REDIS_DB"

	EnvCreditSurchargeRate = "CREDIT_SURCHARGE_RATE"
	EnvBookingLockTTL      = "BOOKING_LOCK_TTL"
	EnvBookingLockWait     = "BOOKING_LOCK_WAIT"

	EnvKafkaEnabled = "KAFKA_ENABLED"

	EnvVehiclesServiceURL  = "VEHICLES_SERVICE_URL"
	EnvResellersServiceURL = "RESELLERS_SERVICE_URL"
	EnvBookingsServiceURL  = "BOOKINGS_SERVICE_URL"
)
