package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"
)

type Config struct {
	App           AppConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	Commission    CommissionConfig
	AuthRateLimit AuthRateLimitConfig
	Cron          CronConfig
	PubSub        PubSubConfig
	GCP           GCPConfig
	Outbox        OutboxConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if err := cfg.Commission.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"NEXUS_APP_ENV" required:"true"`
	Port         string `envconfig:"NEXUS_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"NEXUS_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"NEXUS_LOG_WARN_STACK" default:"false"`
	AutoMigrate  bool   `envconfig:"NEXUS_AUTO_MIGRATE" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"NEXUS_DB_DSN"`
	Driver string `envconfig:"NEXUS_DB_DRIVER" default:"postgres"`

	Host     string `envconfig:"NEXUS_DB_HOST"`
	Port     int    `envconfig:"NEXUS_DB_PORT" default:"5432"`
	User     string `envconfig:"NEXUS_DB_USER"`
	Password string `envconfig:"NEXUS_DB_PASSWORD"`
	Name     string `envconfig:"NEXUS_DB_NAME"`
	SSLMode  string `envconfig:"NEXUS_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"NEXUS_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"NEXUS_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"NEXUS_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"NEXUS_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"NEXUS_REDIS_URL" required:"true"`
	Address      string        `envconfig:"NEXUS_REDIS_ADDR"`
	Password     string        `envconfig:"NEXUS_REDIS_PASSWORD"`
	DB           int           `envconfig:"NEXUS_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"NEXUS_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"NEXUS_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"NEXUS_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"NEXUS_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"NEXUS_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"NEXUS_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"NEXUS_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"NEXUS_JWT_EXPIRATION_MINUTES" default:"60"`
	SessionTTLMinutes int    `envconfig:"NEXUS_SESSION_TTL_MINUTES" default:"43200"`
}

// SessionTTL returns the redis session TTL configured in minutes.
func (j JWTConfig) SessionTTL() time.Duration {
	if j.SessionTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.SessionTTLMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"NEXUS_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"NEXUS_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"NEXUS_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"NEXUS_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"NEXUS_ARGON_KEY_LEN" default:"32"`
}

// CommissionConfig carries the platform-level commission defaults. The rate
// is a fraction in [0,1]; the fee is a flat amount deducted per commission.
type CommissionConfig struct {
	DefaultRate         string `envconfig:"NEXUS_COMMISSION_DEFAULT_RATE" default:"0.10"`
	PlatformFee         string `envconfig:"NEXUS_COMMISSION_PLATFORM_FEE" default:"0"`
	MinPayoutAmount     string `envconfig:"NEXUS_PAYOUT_MIN_AMOUNT" default:"50"`
	PayoutProcessingFee string `envconfig:"NEXUS_PAYOUT_PROCESSING_FEE" default:"0"`
}

// DefaultRateDecimal parses the configured platform default rate.
func (c CommissionConfig) DefaultRateDecimal() decimal.Decimal {
	d, err := decimal.NewFromString(c.DefaultRate)
	if err != nil {
		return decimal.NewFromFloat(0.10)
	}
	return d
}

// PlatformFeeDecimal parses the configured flat platform fee.
func (c CommissionConfig) PlatformFeeDecimal() decimal.Decimal {
	d, err := decimal.NewFromString(c.PlatformFee)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// MinPayoutDecimal parses the platform minimum payout threshold.
func (c CommissionConfig) MinPayoutDecimal() decimal.Decimal {
	d, err := decimal.NewFromString(c.MinPayoutAmount)
	if err != nil {
		return decimal.NewFromInt(50)
	}
	return d
}

// ProcessingFeeDecimal parses the flat payout processing fee.
func (c CommissionConfig) ProcessingFeeDecimal() decimal.Decimal {
	d, err := decimal.NewFromString(c.PayoutProcessingFee)
	if err != nil {
		return decimal.Zero
	}
	return d
}

func (c CommissionConfig) validate() error {
	rate, err := decimal.NewFromString(c.DefaultRate)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", EnvCommissionDefaultRate, err)
	}
	if rate.IsNegative() || rate.GreaterThan(decimal.NewFromInt(1)) {
		return fmt.Errorf("%s must be within [0,1]", EnvCommissionDefaultRate)
	}
	if fee, err := decimal.NewFromString(c.PlatformFee); err != nil || fee.IsNegative() {
		return fmt.Errorf("%s must be a non-negative amount", EnvCommissionPlatformFee)
	}
	return nil
}

type AuthRateLimitConfig struct {
	LoginWindow        time.Duration `envconfig:"NEXUS_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit    int           `envconfig:"NEXUS_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit       int           `envconfig:"NEXUS_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	RegisterWindow     time.Duration `envconfig:"NEXUS_AUTH_RATE_LIMIT_REGISTER_WINDOW" default:"5m"`
	RegisterEmailLimit int           `envconfig:"NEXUS_AUTH_RATE_LIMIT_REGISTER_EMAIL_LIMIT" default:"3"`
	RegisterIPLimit    int           `envconfig:"NEXUS_AUTH_RATE_LIMIT_REGISTER_IP_LIMIT" default:"20"`
}

type CronConfig struct {
	Interval time.Duration `envconfig:"NEXUS_CRON_INTERVAL" default:"24h"`
	LockTTL  time.Duration `envconfig:"NEXUS_CRON_LOCK_TTL" default:"25h"`
}

type GCPConfig struct {
	ProjectID       string `envconfig:"NEXUS_GCP_PROJECT_ID"`
	CredentialsJSON string `envconfig:"NEXUS_GCP_CREDENTIALS_JSON"`
}

type PubSubConfig struct {
	OrdersTopic      string `envconfig:"NEXUS_PUBSUB_ORDERS_TOPIC" default:"nexus-orders"`
	SettlementsTopic string `envconfig:"NEXUS_PUBSUB_SETTLEMENTS_TOPIC" default:"nexus-settlements"`
	AnalyticsTopic   string `envconfig:"NEXUS_PUBSUB_ANALYTICS_TOPIC" default:"nexus-analytics"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"NEXUS_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"NEXUS_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"NEXUS_OUTBOX_MAX_ATTEMPTS" default:"10"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	values := map[string]string{
		EnvDBHost: db.Host,
		EnvDBUser: db.User,
		EnvDBName: db.Name,
	}
	for _, env := range requiredDBEnvVars {
		if values[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.User)
	if db.Password != "" {
		userInfo = url.UserPassword(db.User, db.Password)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.Host, db.Port),
		Path:   db.Name,
	}

	if db.SSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.SSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
