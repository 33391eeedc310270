package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = "MESAFLOW"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvAppEnv        = "MESAFLOW_APP_ENV"
	EnvPort          = "MESAFLOW_APP_PORT"
	EnvDBDSN         = "MESAFLOW_DB_DSN"
	EnvDBHost        = "MESAFLOW_DB_HOST"
	EnvDBUser        = "MESAFLOW_DB_USER"
	EnvDBName        = "MESAFLOW_DB_NAME"
	EnvRedisURL      = "MESAFLOW_REDIS_URL"
	EnvWAVerifyToken = "MESAFLOW_WA_VERIFY_TOKEN"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	WhatsApp     WhatsAppConfig
	Bot          BotConfig
	FeatureFlags FeatureFlagsConfig
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
	Env          string `envconfig:"MESAFLOW_APP_ENV" required:"true"`
	Port         string `envconfig:"MESAFLOW_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"MESAFLOW_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"MESAFLOW_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"MESAFLOW_DB_DSN"`
	Driver string `envconfig:"MESAFLOW_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"MESAFLOW_DB_HOST"`
	LegacyPort     int    `envconfig:"MESAFLOW_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"MESAFLOW_DB_USER"`
	LegacyPassword string `envconfig:"MESAFLOW_DB_PASSWORD"`
	LegacyName     string `envconfig:"MESAFLOW_DB_NAME"`
	LegacySSLMode  string `envconfig:"MESAFLOW_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"MESAFLOW_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"MESAFLOW_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"MESAFLOW_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"MESAFLOW_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"MESAFLOW_REDIS_URL" required:"true"`
	Address      string        `envconfig:"MESAFLOW_REDIS_ADDR"`
	Password     string        `envconfig:"MESAFLOW_REDIS_PASSWORD"`
	DB           int           `envconfig:"MESAFLOW_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"MESAFLOW_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"MESAFLOW_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"MESAFLOW_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"MESAFLOW_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"MESAFLOW_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// WhatsAppConfig addresses the Meta Graph API for the webhook handshake and
// outbound sends. Per-tenant access tokens are resolved through the
// restaurant's credential handle; APIToken is the platform-level fallback.
type WhatsAppConfig struct {
	VerifyToken    string        `envconfig:"MESAFLOW_WA_VERIFY_TOKEN" required:"true"`
	AppSecret      string        `envconfig:"MESAFLOW_WA_APP_SECRET"`
	GraphBaseURL   string        `envconfig:"MESAFLOW_WA_GRAPH_BASE_URL" default:"https://graph.facebook.com/v19.0"`
	APIToken       string        `envconfig:"MESAFLOW_WA_API_TOKEN"`
	SendTimeout    time.Duration `envconfig:"MESAFLOW_WA_SEND_TIMEOUT" default:"10s"`
	EventDedupTTL  time.Duration `envconfig:"MESAFLOW_WA_EVENT_DEDUP_TTL" default:"168h"`
	ProcessTimeout time.Duration `envconfig:"MESAFLOW_WA_PROCESS_TIMEOUT" default:"25s"`
}

type BotConfig struct {
	HistoryLimit int `envconfig:"MESAFLOW_BOT_HISTORY_LIMIT" default:"5"`
	MaxQuantity  int `envconfig:"MESAFLOW_BOT_MAX_QUANTITY" default:"10"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"MESAFLOW_AUTO_MIGRATE" default:"false"`
	// NLU gates free-text intent parsing in front of the command grammar.
	// Off by default; no provider is wired in this service.
	NLU bool `envconfig:"MESAFLOW_FEATURE_NLU" default:"false"`
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
