package config

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App       AppConfig
	DB        DBConfig
	Scan      ScanConfig
	Inventory InventoryConfig
	Notify    NotifyConfig
	MQTT      MQTTConfig
	NATS      NATSConfig
	Kafka     KafkaConfig
	GCP       GCPConfig
	PubSub    PubSubConfig
	Redis     RedisConfig
	Scanner   ScannerConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if err := cfg.Notify.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string   `envconfig:"CASKETTRACK_APP_ENV" default:"dev"`
	Port         string   `envconfig:"CASKETTRACK_APP_PORT" default:"5000"`
	LogLevel     string   `envconfig:"CASKETTRACK_LOG_LEVEL" default:"info"`
	LogWarnStack bool     `envconfig:"CASKETTRACK_LOG_WARN_STACK" default:"false"`
	CORSOrigins  []string `envconfig:"CASKETTRACK_CORS_ORIGINS" default:"http://localhost:3000,http://localhost:5000"`
	AutoMigrate  bool     `envconfig:"CASKETTRACK_AUTO_MIGRATE" default:"true"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	Driver      string        `envconfig:"CASKETTRACK_DB_DRIVER" default:"sqlite"`
	Path        string        `envconfig:"CASKETTRACK_DB_PATH" default:"instance/inventory.db"`
	DSN         string        `envconfig:"CASKETTRACK_DB_DSN"`
	BusyTimeout time.Duration `envconfig:"CASKETTRACK_DB_BUSY_TIMEOUT" default:"10s"`
	JournalMode string        `envconfig:"CASKETTRACK_DB_JOURNAL_MODE" default:"WAL"`

	MaxOpenConns    int           `envconfig:"CASKETTRACK_DB_MAX_OPEN_CONNS" default:"5"`
	MaxIdleConns    int           `envconfig:"CASKETTRACK_DB_MAX_IDLE_CONNS" default:"5"`
	ConnMaxLifetime time.Duration `envconfig:"CASKETTRACK_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"CASKETTRACK_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

// IsSQLite reports whether the configured driver is SQLite.
func (db DBConfig) IsSQLite() bool {
	return strings.EqualFold(strings.TrimSpace(db.Driver), DBDriverSQLite)
}

// IsPostgres reports whether the configured driver is Postgres.
func (db DBConfig) IsPostgres() bool {
	return strings.EqualFold(strings.TrimSpace(db.Driver), DBDriverPostgres)
}

type ScanConfig struct {
	MaxAttempts    int           `envconfig:"CASKETTRACK_SCAN_MAX_ATTEMPTS" default:"5"`
	RetryDelay     time.Duration `envconfig:"CASKETTRACK_SCAN_RETRY_DELAY" default:"500ms"`
	RetryJitter    time.Duration `envconfig:"CASKETTRACK_SCAN_RETRY_JITTER" default:"0s"`
	DeviceCommands []string      `envconfig:"CASKETTRACK_SCAN_DEVICE_COMMANDS"`
	CatalogFile    string        `envconfig:"CASKETTRACK_SCAN_CATALOG_FILE"`
}

type InventoryConfig struct {
	LowStockThreshold  int `envconfig:"CASKETTRACK_LOW_STOCK_THRESHOLD" default:"2"`
	RecentPurchaseDays int `envconfig:"CASKETTRACK_RECENT_PURCHASE_DAYS" default:"30"`
}

type NotifyConfig struct {
	Drivers []string      `envconfig:"CASKETTRACK_NOTIFY_DRIVERS" default:"log"`
	Topic   string        `envconfig:"CASKETTRACK_NOTIFY_TOPIC" default:"inventory/updates"`
	Timeout time.Duration `envconfig:"CASKETTRACK_NOTIFY_TIMEOUT" default:"5s"`
}

// Enabled reports whether the named notification driver is configured.
func (n NotifyConfig) Enabled(driver string) bool {
	for _, d := range n.Drivers {
		if strings.EqualFold(strings.TrimSpace(d), driver) {
			return true
		}
	}
	return false
}

func (n NotifyConfig) validate() error {
	for _, d := range n.Drivers {
		switch strings.ToLower(strings.TrimSpace(d)) {
		case NotifyDriverLog, NotifyDriverMQTT, NotifyDriverRedis, NotifyDriverPubSub, NotifyDriverNATS, NotifyDriverKafka, "":
		default:
			return fmt.Errorf("unknown notify driver %q", d)
		}
	}
	if strings.TrimSpace(n.Topic) == "" {
		return fmt.Errorf("%s is required", EnvNotifyTopic)
	}
	return nil
}

type MQTTConfig struct {
	BrokerURL      string        `envconfig:"CASKETTRACK_MQTT_BROKER_URL" default:"tcp://localhost:1883"`
	ClientID       string        `envconfig:"CASKETTRACK_MQTT_CLIENT_ID" default:"caskettrack-api"`
	Username       string        `envconfig:"CASKETTRACK_MQTT_USERNAME"`
	Password       string        `envconfig:"CASKETTRACK_MQTT_PASSWORD"`
	QoS            byte          `envconfig:"CASKETTRACK_MQTT_QOS" default:"1"`
	ConnectTimeout time.Duration `envconfig:"CASKETTRACK_MQTT_CONNECT_TIMEOUT" default:"10s"`
}

type NATSConfig struct {
	URL    string `envconfig:"CASKETTRACK_NATS_URL" default:"nats://localhost:4222"`
	Stream string `envconfig:"CASKETTRACK_NATS_STREAM"`
}

type KafkaConfig struct {
	Brokers []string `envconfig:"CASKETTRACK_KAFKA_BROKERS" default:"localhost:9092"`
}

type GCPConfig struct {
	ProjectID string `envconfig:"CASKETTRACK_GCP_PROJECT_ID"`
}

type PubSubConfig struct {
	InventoryTopic string `envconfig:"CASKETTRACK_PUBSUB_INVENTORY_TOPIC"`
}

type RedisConfig struct {
	URL            string        `envconfig:"CASKETTRACK_REDIS_URL"`
	Address        string        `envconfig:"CASKETTRACK_REDIS_ADDR"`
	Password       string        `envconfig:"CASKETTRACK_REDIS_PASSWORD"`
	DB             int           `envconfig:"CASKETTRACK_REDIS_DB" default:"0"`
	PoolSize       int           `envconfig:"CASKETTRACK_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns   int           `envconfig:"CASKETTRACK_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout    time.Duration `envconfig:"CASKETTRACK_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout    time.Duration `envconfig:"CASKETTRACK_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout   time.Duration `envconfig:"CASKETTRACK_REDIS_WRITE_TIMEOUT" default:"5s"`
	IdempotencyTTL time.Duration `envconfig:"CASKETTRACK_REDIS_IDEMPOTENCY_TTL" default:"24h"`
}

// Configured reports whether a Redis endpoint was supplied.
func (r RedisConfig) Configured() bool {
	return strings.TrimSpace(r.URL) != "" || strings.TrimSpace(r.Address) != ""
}

type ScannerConfig struct {
	BackendURL string        `envconfig:"CASKETTRACK_SCANNER_BACKEND_URL" default:"http://localhost:5000/scan"`
	Timeout    time.Duration `envconfig:"CASKETTRACK_SCANNER_TIMEOUT" default:"10s"`
}

func (db *DBConfig) ensureDSN() error {
	switch {
	case db.IsPostgres():
		if db.DSN == "" {
			return fmt.Errorf("%s is required when %s=%s", EnvDBDSN, EnvDBDriver, DBDriverPostgres)
		}
		return nil
	case db.IsSQLite():
		if db.DSN != "" {
			return nil
		}
		if strings.TrimSpace(db.Path) == "" {
			return fmt.Errorf("either %s or %s is required", EnvDBDSN, EnvDBPath)
		}
		db.DSN = SQLiteDSN(db.Path, db.BusyTimeout, db.JournalMode)
		return nil
	default:
		return fmt.Errorf("unsupported %s %q", EnvDBDriver, db.Driver)
	}
}

// SQLiteDSN builds a go-sqlite3 DSN that opens write transactions with
// BEGIN IMMEDIATE and waits busyTimeout for competing writers.
func SQLiteDSN(path string, busyTimeout time.Duration, journalMode string) string {
	q := url.Values{}
	if busyTimeout > 0 {
		q.Set("_busy_timeout", strconv.FormatInt(busyTimeout.Milliseconds(), 10))
	}
	if journalMode != "" {
		q.Set("_journal_mode", journalMode)
	}
	q.Set("_txlock", "immediate")
	q.Set("_foreign_keys", "on")
	return "file:" + path + "?" + q.Encode()
}
