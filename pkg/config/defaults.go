package config

import "time"

const (
	DefaultMongoURI          = "mongodb://localhost:27017"
	DefaultMongoDatabaseName = "sessly"
	DefaultMongoConnTimeout  = 10 * time.Second

	DefaultPort     = "8080"
	DefaultLogLevel = "info"

	DefaultTokenTTL = 24 * time.Hour

	DefaultRedisAddr    = "localhost:6379"
	DefaultPlanCacheTTL = 5 * time.Minute

	DefaultKafkaBrokers      = "localhost:9092"
	DefaultKafkaBookingTopic = "booking-events"
	DefaultKafkaGroupID      = "sessly-notifier"

	DefaultNotifyFromEmail = "bookings@sessly.app"

	DefaultCORSAllowedOrigins = "*"

	DefaultRateLimitRequests = 60
	DefaultRateLimitWindow   = 1 * time.Minute

	DefaultRequestTimeout = 30 * time.Second
	DefaultIdempotencyTTL = 24 * time.Hour
	DefaultMaxRequestSize = 1 * 1024 * 1024 // 1MB

	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 15 * time.Second
	DefaultIdleTimeout     = 60 * time.Second
	DefaultShutdownTimeout = 30 * time.Second

	DefaultPaginationLimit = 100
)
