package config

const (
	EnvPrefix = "STOREFRONT"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvAppEnv          = "STOREFRONT_APP_ENV"
	EnvPort            = "STOREFRONT_APP_PORT"
	EnvLogLevel        = "STOREFRONT_LOG_LEVEL"
	EnvLocale          = "STOREFRONT_LOCALE"
	EnvFeedbackDelay   = "STOREFRONT_CART_FEEDBACK_DELAY"
	EnvUpstreamURL     = "STOREFRONT_UPSTREAM_URL"
	EnvUpstreamTimeout = "STOREFRONT_UPSTREAM_TIMEOUT"
	EnvViewIdleTTL     = "STOREFRONT_VIEW_IDLE_TTL"
	EnvRedisURL        = "STOREFRONT_REDIS_URL"
	EnvGCPProjectID    = "STOREFRONT_GCP_PROJECT_ID"
	EnvPubSubCartTopic = "STOREFRONT_PUBSUB_CART_TOPIC"
)
