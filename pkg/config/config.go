package config

import (
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = "roofline"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvDBDSN  = "ROOFLINE_DB_DSN"
	EnvDBHost = "ROOFLINE_DB_HOST"
	EnvDBUser = "ROOFLINE_DB_USER"
	EnvDBName = "ROOFLINE_DB_NAME"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	FeatureFlags FeatureFlagsConfig
	Providers    ProvidersConfig
	Stripe       StripeConfig
	Entitlements EntitlementsConfig
	Tracker      TrackerConfig
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
	Env          string `envconfig:"ROOFLINE_APP_ENV" required:"true"`
	Port         string `envconfig:"ROOFLINE_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"ROOFLINE_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"ROOFLINE_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"ROOFLINE_DB_DSN"`
	Driver string `envconfig:"ROOFLINE_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"ROOFLINE_DB_HOST"`
	LegacyPort     int    `envconfig:"ROOFLINE_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"ROOFLINE_DB_USER"`
	LegacyPassword string `envconfig:"ROOFLINE_DB_PASSWORD"`
	LegacyName     string `envconfig:"ROOFLINE_DB_NAME"`
	LegacySSLMode  string `envconfig:"ROOFLINE_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"ROOFLINE_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"ROOFLINE_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"ROOFLINE_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"ROOFLINE_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"ROOFLINE_REDIS_URL" required:"true"`
	PoolSize     int           `envconfig:"ROOFLINE_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"ROOFLINE_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"ROOFLINE_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"ROOFLINE_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"ROOFLINE_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"ROOFLINE_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"ROOFLINE_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"ROOFLINE_JWT_EXPIRATION_MINUTES" default:"60"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"ROOFLINE_AUTO_MIGRATE" default:"false"`
}

// ProvidersConfig holds per-provider credentials and endpoints. A missing
// key is an operator error surfaced at dispatch time, never an entitlement
// denial.
type ProvidersConfig struct {
	OpenAIAPIKey  string `envconfig:"ROOFLINE_OPENAI_API_KEY"`
	OpenAIOrgID   string `envconfig:"ROOFLINE_OPENAI_ORG_ID"`
	AzureAPIKey   string `envconfig:"ROOFLINE_AZURE_OPENAI_API_KEY"`
	AzureEndpoint string `envconfig:"ROOFLINE_AZURE_OPENAI_ENDPOINT"`

	GoogleAPIKey     string `envconfig:"ROOFLINE_GOOGLE_AI_API_KEY"`
	GroqAPIKey       string `envconfig:"ROOFLINE_GROQ_API_KEY"`
	MistralAPIKey    string `envconfig:"ROOFLINE_MISTRAL_API_KEY"`
	OpenRouterAPIKey string `envconfig:"ROOFLINE_OPENROUTER_API_KEY"`
	PerplexityAPIKey string `envconfig:"ROOFLINE_PERPLEXITY_API_KEY"`
	XAIAPIKey        string `envconfig:"ROOFLINE_XAI_API_KEY"`
}

type StripeConfig struct {
	APIKey string `envconfig:"ROOFLINE_STRIPE_API_KEY"`
	Secret string `envconfig:"ROOFLINE_STRIPE_WEBHOOK_SECRET"`
	Env    string `envconfig:"ROOFLINE_STRIPE_ENV" default:"test"`

	PremiumMonthlyPriceID    string `envconfig:"ROOFLINE_STRIPE_PREMIUM_MONTHLY_PRICE_ID"`
	PremiumAnnualPriceID     string `envconfig:"ROOFLINE_STRIPE_PREMIUM_ANNUAL_PRICE_ID"`
	BusinessMonthlyPriceID   string `envconfig:"ROOFLINE_STRIPE_BUSINESS_MONTHLY_PRICE_ID"`
	BusinessAnnualPriceID    string `envconfig:"ROOFLINE_STRIPE_BUSINESS_ANNUAL_PRICE_ID"`
	AIEmployeeMonthlyPriceID string `envconfig:"ROOFLINE_STRIPE_AI_EMPLOYEE_MONTHLY_PRICE_ID"`
}

// Environment returns the normalized Stripe environment (test/live).
func (s StripeConfig) Environment() string {
	env := strings.TrimSpace(strings.ToLower(s.Env))
	if env == "" {
		return "test"
	}
	return env
}

type EntitlementsConfig struct {
	TierCacheTTL time.Duration `envconfig:"ROOFLINE_TIER_CACHE_TTL" default:"5m"`
}

type TrackerConfig struct {
	QueueSize       int           `envconfig:"ROOFLINE_USAGE_TRACKER_QUEUE_SIZE" default:"256"`
	ShutdownTimeout time.Duration `envconfig:"ROOFLINE_USAGE_TRACKER_SHUTDOWN_TIMEOUT" default:"10s"`
	WriteTimeout    time.Duration `envconfig:"ROOFLINE_USAGE_TRACKER_WRITE_TIMEOUT" default:"5s"`
}

// ensureDSN assembles a postgres URL from the discrete host/user/name vars
// when no full DSN is set. Deployments that still export the discrete form
// keep working without any env changes.
func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	var missing []string
	for env, val := range map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	} {
		if val == "" {
			missing = append(missing, env)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	u := url.URL{
		Scheme: "postgres",
		User:   url.User(db.LegacyUser),
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}
	if db.LegacyPassword != "" {
		u.User = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}
	if db.LegacySSLMode != "" {
		u.RawQuery = url.Values{"sslmode": {db.LegacySSLMode}}.Encode()
	}

	db.DSN = u.String()
	return nil
}
