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
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	CORS         CORSConfig
	RateLimit    RateLimitConfig
	Cart         CartConfig
	Reports      ReportsConfig
	FeatureFlags FeatureFlagsConfig
	Telegram     TelegramConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if cfg.PubSub.Enabled && strings.TrimSpace(cfg.GCP.ProjectID) == "" {
		return nil, fmt.Errorf("%s is required when %s is enabled", EnvGCPProjectID, EnvPubSubEnabled)
	}
	return &cfg, nil
}

// LoadSection fills a single config section, for tools that need only part
// of the service configuration.
func LoadSection(section any) error {
	if err := envconfig.Process(EnvPrefix, section); err != nil {
		return fmt.Errorf("parsing config: %w", err)
	}
	return nil
}

type AppConfig struct {
	Env          string `envconfig:"DEVICEHUB_APP_ENV" required:"true"`
	Port         string `envconfig:"DEVICEHUB_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"DEVICEHUB_LOG_LEVEL" default:"info"`
	LogFormat    string `envconfig:"DEVICEHUB_LOG_FORMAT" default:"json"`
	LogWarnStack bool   `envconfig:"DEVICEHUB_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN string `envconfig:"DEVICEHUB_DB_DSN"`

	LegacyHost     string `envconfig:"DEVICEHUB_DB_HOST"`
	LegacyPort     int    `envconfig:"DEVICEHUB_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"DEVICEHUB_DB_USER"`
	LegacyPassword string `envconfig:"DEVICEHUB_DB_PASSWORD"`
	LegacyName     string `envconfig:"DEVICEHUB_DB_NAME"`
	LegacySSLMode  string `envconfig:"DEVICEHUB_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"DEVICEHUB_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"DEVICEHUB_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"DEVICEHUB_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"DEVICEHUB_DB_CONN_MAX_IDLE_TIME" default:"10m"`
	SlowQuery       time.Duration `envconfig:"DEVICEHUB_DB_SLOW_QUERY" default:"250ms"`
}

type RedisConfig struct {
	URL          string        `envconfig:"DEVICEHUB_REDIS_URL"`
	Address      string        `envconfig:"DEVICEHUB_REDIS_ADDR"`
	Password     string        `envconfig:"DEVICEHUB_REDIS_PASSWORD"`
	DB           int           `envconfig:"DEVICEHUB_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"DEVICEHUB_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"DEVICEHUB_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"DEVICEHUB_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"DEVICEHUB_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"DEVICEHUB_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// JWTConfig configures the operator console tokens.
type JWTConfig struct {
	Secret            string `envconfig:"DEVICEHUB_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"DEVICEHUB_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"DEVICEHUB_JWT_EXPIRATION_MINUTES" default:"720"`
}

type CORSConfig struct {
	AllowedOrigins []string `envconfig:"DEVICEHUB_CORS_ALLOWED_ORIGINS"`
}

// RateLimitConfig bounds promo code attempts per client IP and per cart session.
type RateLimitConfig struct {
	PromoWindow       time.Duration `envconfig:"DEVICEHUB_RATE_LIMIT_PROMO_WINDOW" default:"1m"`
	PromoIPLimit      int           `envconfig:"DEVICEHUB_RATE_LIMIT_PROMO_IP_LIMIT" default:"30"`
	PromoSessionLimit int           `envconfig:"DEVICEHUB_RATE_LIMIT_PROMO_SESSION_LIMIT" default:"10"`
}

// CartConfig controls session-held carts and the checkout in-flight lock.
type CartConfig struct {
	SessionTTL      time.Duration `envconfig:"DEVICEHUB_CART_SESSION_TTL" default:"168h"`
	CheckoutLockTTL time.Duration `envconfig:"DEVICEHUB_CART_CHECKOUT_LOCK_TTL" default:"2m"`
}

type ReportsConfig struct {
	CacheTTL time.Duration `envconfig:"DEVICEHUB_REPORTS_CACHE_TTL" default:"30s"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"DEVICEHUB_AUTO_MIGRATE" default:"false"`
}

type TelegramConfig struct {
	BotToken    string        `envconfig:"DEVICEHUB_TELEGRAM_BOT_TOKEN"`
	AdminChatID string        `envconfig:"DEVICEHUB_TELEGRAM_ADMIN_CHAT_ID"`
	BaseURL     string        `envconfig:"DEVICEHUB_TELEGRAM_BASE_URL" default:"https://api.telegram.org"`
	Currency    string        `envconfig:"DEVICEHUB_TELEGRAM_CURRENCY" default:"ILS"`
	Timeout     time.Duration `envconfig:"DEVICEHUB_TELEGRAM_TIMEOUT" default:"10s"`
}

// Enabled reports whether enough settings exist to send Telegram messages.
func (t TelegramConfig) Enabled() bool {
	return strings.TrimSpace(t.BotToken) != "" && strings.TrimSpace(t.AdminChatID) != ""
}

type GCPConfig struct {
	ProjectID string `envconfig:"DEVICEHUB_GCP_PROJECT_ID"`
}

type PubSubConfig struct {
	Enabled     bool   `envconfig:"DEVICEHUB_PUBSUB_ENABLED" default:"false"`
	OrdersTopic string `envconfig:"DEVICEHUB_PUBSUB_ORDERS_TOPIC" default:"devicehub-order-events"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
