package config

const EnvPrefix = "DEVICEHUB"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvAppEnv           = "DEVICEHUB_APP_ENV"
	EnvPort             = "DEVICEHUB_APP_PORT"
	EnvLogLevel         = "DEVICEHUB_LOG_LEVEL"
	EnvLogFormat        = "DEVICEHUB_LOG_FORMAT"
	EnvDBDSN            = "DEVICEHUB_DB_DSN"
	EnvDBHost           = "DEVICEHUB_DB_HOST"
	EnvDBUser           = "DEVICEHUB_DB_USER"
	EnvDBPassword       = "DEVICEHUB_DB_PASSWORD"
	EnvDBName           = "DEVICEHUB_DB_NAME"
	EnvRedisURL         = "DEVICEHUB_REDIS_URL"
	EnvJWTSecret        = "DEVICEHUB_JWT_SECRET"
	EnvJWTIssuer        = "DEVICEHUB_JWT_ISSUER"
	EnvJWTExpMins       = "DEVICEHUB_JWT_EXPIRATION_MINUTES"
	EnvCartSessionTTL   = "DEVICEHUB_CART_SESSION_TTL"
	EnvReportsCacheTTL  = "DEVICEHUB_REPORTS_CACHE_TTL"
	EnvTelegramToken    = "DEVICEHUB_TELEGRAM_BOT_TOKEN"
	EnvTelegramChatID   = "DEVICEHUB_TELEGRAM_ADMIN_CHAT_ID"
	EnvGCPProjectID     = "DEVICEHUB_GCP_PROJECT_ID"
	EnvPubSubEnabled    = "DEVICEHUB_PUBSUB_ENABLED"
	EnvPubSubOrderTopic = "DEVICEHUB_PUBSUB_ORDERS_TOPIC"
	EnvCORSOrigins      = "DEVICEHUB_CORS_ALLOWED_ORIGINS"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
