package config

const (
	EnvPrefix = "ROASTERY"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvAppEnv    = "ROASTERY_APP_ENV"
	EnvPort      = "ROASTERY_APP_PORT"
	EnvLogLevel  = "ROASTERY_LOG_LEVEL"
	EnvLogFormat = "ROASTERY_LOG_FORMAT"
	EnvLocalMode = "ROASTERY_LOCAL_MODE"

	EnvLocalDBPath = "ROASTERY_LOCAL_DB_PATH"

	EnvRemoteURL       = "ROASTERY_REMOTE_URL"
	EnvRemoteAccessKey = "ROASTERY_REMOTE_ACCESS_KEY"

	EnvRedisURL = "ROASTERY_REDIS_URL"

	EnvJWTSecret  = "ROASTERY_JWT_SECRET"
	EnvJWTIssuer  = "ROASTERY_JWT_ISSUER"
	EnvJWTExpMins = "ROASTERY_JWT_EXPIRATION_MINUTES"

	EnvSyncBatchSize = "ROASTERY_SYNC_BATCH_SIZE"
	EnvSyncEmbedded  = "ROASTERY_SYNC_EMBEDDED"
)
