package config

const EnvPrefix = "CASKETTRACK"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	DBDriverSQLite   = "sqlite"
	DBDriverPostgres = "postgres"
)

const (
	NotifyDriverLog    = "log"
	NotifyDriverMQTT   = "mqtt"
	NotifyDriverRedis  = "redis"
	NotifyDriverPubSub = "pubsub"
	NotifyDriverNATS   = "nats"
	NotifyDriverKafka  = "kafka"
)

const (
	EnvAppEnv         = "CASKETTRACK_APP_ENV"
	EnvPort           = "CASKETTRACK_APP_PORT"
	EnvDBDriver       = "CASKETTRACK_DB_DRIVER"
	EnvDBPath         = "CASKETTRACK_DB_PATH"
	EnvDBDSN          = "CASKETTRACK_DB_DSN"
	EnvScanAttempts   = "CASKETTRACK_SCAN_MAX_ATTEMPTS"
	EnvScanDelay      = "CASKETTRACK_SCAN_RETRY_DELAY"
	EnvScanCommands   = "CASKETTRACK_SCAN_DEVICE_COMMANDS"
	EnvNotifyDrivers  = "CASKETTRACK_NOTIFY_DRIVERS"
	EnvNotifyTopic    = "CASKETTRACK_NOTIFY_TOPIC"
	EnvRedisURL       = "CASKETTRACK_REDIS_URL"
	EnvGCPProjectID   = "CASKETTRACK_GCP_PROJECT_ID"
	EnvScannerBackend = "CASKETTRACK_SCANNER_BACKEND_URL"
)
