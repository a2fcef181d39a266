package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = "procureline"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

type Config struct {
	App           AppConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	FeatureFlags  FeatureFlagsConfig
	SMTP          SMTPConfig
	Import        ImportConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"PROCURELINE_APP_ENV" required:"true"`
	Port         string `envconfig:"PROCURELINE_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"PROCURELINE_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"PROCURELINE_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"PROCURELINE_DB_DSN"`
	Driver string `envconfig:"PROCURELINE_DB_DRIVER" default:"postgres"`

	Host     string `envconfig:"PROCURELINE_DB_HOST"`
	Port     int    `envconfig:"PROCURELINE_DB_PORT" default:"5432"`
	User     string `envconfig:"PROCURELINE_DB_USER"`
	Password string `envconfig:"PROCURELINE_DB_PASSWORD"`
	Name     string `envconfig:"PROCURELINE_DB_NAME"`
	SSLMode  string `envconfig:"PROCURELINE_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"PROCURELINE_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"PROCURELINE_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"PROCURELINE_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"PROCURELINE_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

func (d *DBConfig) ensureDSN() error {
	if d.DSN != "" {
		return nil
	}
	if strings.EqualFold(d.Driver, "sqlite") {
		d.DSN = "file::memory:?cache=shared"
		return nil
	}
	if d.Host == "" || d.User == "" || d.Name == "" {
		return fmt.Errorf("either PROCURELINE_DB_DSN or host/user/name settings are required")
	}
	d.DSN = fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode,
	)
	return nil
}

type RedisConfig struct {
	URL          string        `envconfig:"PROCURELINE_REDIS_URL"`
	Address      string        `envconfig:"PROCURELINE_REDIS_ADDR"`
	Password     string        `envconfig:"PROCURELINE_REDIS_PASSWORD"`
	DB           int           `envconfig:"PROCURELINE_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"PROCURELINE_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"PROCURELINE_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"PROCURELINE_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"PROCURELINE_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"PROCURELINE_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// Enabled reports whether a Redis endpoint was configured at all. Rate
// limiting degrades to a pass-through when it is absent.
func (r RedisConfig) Enabled() bool {
	return r.URL != "" || r.Address != ""
}

type JWTConfig struct {
	Secret            string `envconfig:"PROCURELINE_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"PROCURELINE_JWT_ISSUER" default:"procureline"`
	ExpirationMinutes int    `envconfig:"PROCURELINE_JWT_EXPIRATION_MINUTES" default:"60"`
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"PROCURELINE_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"PROCURELINE_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"PROCURELINE_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"PROCURELINE_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"PROCURELINE_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow        time.Duration `envconfig:"PROCURELINE_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit    int           `envconfig:"PROCURELINE_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit       int           `envconfig:"PROCURELINE_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	RegisterWindow     time.Duration `envconfig:"PROCURELINE_AUTH_RATE_LIMIT_REGISTER_WINDOW" default:"5m"`
	RegisterEmailLimit int           `envconfig:"PROCURELINE_AUTH_RATE_LIMIT_REGISTER_EMAIL_LIMIT" default:"3"`
	RegisterIPLimit    int           `envconfig:"PROCURELINE_AUTH_RATE_LIMIT_REGISTER_IP_LIMIT" default:"20"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"PROCURELINE_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"PROCURELINE_AUTO_MIGRATE" default:"false"`

	// PermissiveStatus restores the legacy behavior of accepting any
	// status enum member as the next order status, skipping the
	// transition table.
	PermissiveStatus bool `envconfig:"PROCURELINE_FEATURE_PERMISSIVE_STATUS" default:"false"`
}

type SMTPConfig struct {
	Host        string `envconfig:"PROCURELINE_SMTP_HOST"`
	Port        int    `envconfig:"PROCURELINE_SMTP_PORT" default:"587"`
	Username    string `envconfig:"PROCURELINE_SMTP_USERNAME"`
	Password    string `envconfig:"PROCURELINE_SMTP_PASSWORD"`
	FromAddress string `envconfig:"PROCURELINE_SMTP_FROM" default:"noreply@procureline.io"`
	OrdersInbox string `envconfig:"PROCURELINE_ORDERS_INBOX" default:"orders@procureline.io"`
}

// Enabled reports whether outbound email is configured. Without a host the
// notifier falls back to log-only delivery.
func (s SMTPConfig) Enabled() bool {
	return s.Host != ""
}

type ImportConfig struct {
	FetchTimeout    time.Duration `envconfig:"PROCURELINE_IMPORT_FETCH_TIMEOUT" default:"10s"`
	MaxPayloadBytes int64         `envconfig:"PROCURELINE_IMPORT_MAX_PAYLOAD_BYTES" default:"10485760"`
}
