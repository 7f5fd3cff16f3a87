package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	LocalDB      LocalDBConfig
	Remote       RemoteConfig
	Redis        RedisConfig
	JWT          JWTConfig
	Password     PasswordConfig
	Sync         SyncConfig
	HTTP         HTTPConfig
	FeatureFlags FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Remote.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"ROASTERY_APP_ENV" required:"true"`
	Port         string `envconfig:"ROASTERY_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"ROASTERY_LOG_LEVEL" default:"info"`
	LogFormat    string `envconfig:"ROASTERY_LOG_FORMAT" default:"json"`
	LogFile      string `envconfig:"ROASTERY_LOG_FILE"`
	LogFileMaxMB int    `envconfig:"ROASTERY_LOG_FILE_MAX_MB" default:"20"`
	LogWarnStack bool   `envconfig:"ROASTERY_LOG_WARN_STACK" default:"false"`
	// LocalMode lets unauthenticated requests act as the local operator.
	LocalMode bool `envconfig:"ROASTERY_LOCAL_MODE" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type LocalDBConfig struct {
	Path        string        `envconfig:"ROASTERY_LOCAL_DB_PATH" default:"roastery.db"`
	BusyTimeout time.Duration `envconfig:"ROASTERY_LOCAL_DB_BUSY_TIMEOUT" default:"5s"`
}

// RemoteConfig describes the optional PostgreSQL mirror. An empty URL leaves
// the connection unconfigured until an operator sets one at runtime.
type RemoteConfig struct {
	URL             string        `envconfig:"ROASTERY_REMOTE_URL"`
	AccessKey       string        `envconfig:"ROASTERY_REMOTE_ACCESS_KEY"`
	NotifyChannel   string        `envconfig:"ROASTERY_REMOTE_NOTIFY_CHANNEL" default:"roastery_changes"`
	ConnectTimeout  time.Duration `envconfig:"ROASTERY_REMOTE_CONNECT_TIMEOUT" default:"10s"`
	MaxOpenConns    int           `envconfig:"ROASTERY_REMOTE_MAX_OPEN_CONNS" default:"10"`
	MaxIdleConns    int           `envconfig:"ROASTERY_REMOTE_MAX_IDLE_CONNS" default:"5"`
	ConnMaxLifetime time.Duration `envconfig:"ROASTERY_REMOTE_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"ROASTERY_REMOTE_CONN_MAX_IDLE_TIME" default:"10m"`
}

func (r RemoteConfig) Configured() bool {
	return strings.TrimSpace(r.URL) != ""
}

func (r RemoteConfig) validate() error {
	if !r.Configured() {
		return nil
	}
	u, err := url.Parse(r.URL)
	if err != nil {
		return fmt.Errorf("%s: %w", EnvRemoteURL, err)
	}
	switch u.Scheme {
	case "postgres", "postgresql":
		return nil
	default:
		return fmt.Errorf("%s must use the postgres scheme, got %q", EnvRemoteURL, u.Scheme)
	}
}

type RedisConfig struct {
	URL          string        `envconfig:"ROASTERY_REDIS_URL"`
	Address      string        `envconfig:"ROASTERY_REDIS_ADDR"`
	Password     string        `envconfig:"ROASTERY_REDIS_PASSWORD"`
	DB           int           `envconfig:"ROASTERY_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"ROASTERY_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"ROASTERY_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"ROASTERY_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"ROASTERY_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"ROASTERY_REDIS_WRITE_TIMEOUT" default:"5s"`
}

func (r RedisConfig) Enabled() bool {
	return strings.TrimSpace(r.URL) != "" || strings.TrimSpace(r.Address) != ""
}

type JWTConfig struct {
	Secret            string `envconfig:"ROASTERY_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"ROASTERY_JWT_ISSUER" default:"roastery"`
	ExpirationMinutes int    `envconfig:"ROASTERY_JWT_EXPIRATION_MINUTES" default:"720"`
}

func (j JWTConfig) TTL() time.Duration {
	if j.ExpirationMinutes <= 0 {
		return 0
	}
	return time.Duration(j.ExpirationMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"ROASTERY_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"ROASTERY_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"ROASTERY_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"ROASTERY_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"ROASTERY_ARGON_KEY_LEN" default:"32"`
}

type SyncConfig struct {
	BatchSize           int           `envconfig:"ROASTERY_SYNC_BATCH_SIZE" default:"50"`
	PollIntervalMS      int           `envconfig:"ROASTERY_SYNC_POLL_MS" default:"500"`
	MaxAttempts         int           `envconfig:"ROASTERY_SYNC_MAX_ATTEMPTS" default:"10"`
	PullInterval        time.Duration `envconfig:"ROASTERY_SYNC_PULL_INTERVAL" default:"5m"`
	OutboxRetentionDays int           `envconfig:"ROASTERY_SYNC_OUTBOX_RETENTION_DAYS" default:"30"`
	// Embedded runs the publisher, change subscriber and scheduler inside the API process.
	Embedded bool `envconfig:"ROASTERY_SYNC_EMBEDDED" default:"true"`
}

func (s SyncConfig) PollInterval() time.Duration {
	if s.PollIntervalMS <= 0 {
		return 0
	}
	return time.Duration(s.PollIntervalMS) * time.Millisecond
}

type HTTPConfig struct {
	AllowedOrigins []string `envconfig:"ROASTERY_HTTP_ALLOWED_ORIGINS" default:"*"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"ROASTERY_AUTO_MIGRATE" default:"false"`
}
