package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = "TRACTORBID"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvDBDSN  = "TRACTORBID_DB_DSN"
	EnvDBHost = "TRACTORBID_DB_HOST"
	EnvDBUser = "TRACTORBID_DB_USER"
	EnvDBName = "TRACTORBID_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App          AppConfig
	Service      ServiceConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	Password     PasswordConfig
	FeatureFlags FeatureFlagsConfig
	Fees         FeesConfig
	Approval     ApprovalConfig
	Razorpay     RazorpayConfig
	Cron         CronConfig
	RateLimit    RateLimitConfig
	Notify       NotifyConfig
	Eventing     EventingConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
	Outbox       OutboxConfig
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
	Env          string `envconfig:"TRACTORBID_APP_ENV" required:"true"`
	Port         string `envconfig:"TRACTORBID_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"TRACTORBID_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"TRACTORBID_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"TRACTORBID_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"TRACTORBID_DB_DSN"`
	Driver string `envconfig:"TRACTORBID_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"TRACTORBID_DB_HOST"`
	LegacyPort     int    `envconfig:"TRACTORBID_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"TRACTORBID_DB_USER"`
	LegacyPassword string `envconfig:"TRACTORBID_DB_PASSWORD"`
	LegacyName     string `envconfig:"TRACTORBID_DB_NAME"`
	LegacySSLMode  string `envconfig:"TRACTORBID_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"TRACTORBID_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"TRACTORBID_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"TRACTORBID_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"TRACTORBID_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"TRACTORBID_REDIS_URL" required:"true"`
	Address      string        `envconfig:"TRACTORBID_REDIS_ADDR"`
	Password     string        `envconfig:"TRACTORBID_REDIS_PASSWORD"`
	DB           int           `envconfig:"TRACTORBID_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"TRACTORBID_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"TRACTORBID_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"TRACTORBID_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"TRACTORBID_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"TRACTORBID_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret                 string `envconfig:"TRACTORBID_JWT_SECRET" required:"true"`
	Issuer                 string `envconfig:"TRACTORBID_JWT_ISSUER" required:"true"`
	ExpirationMinutes      int    `envconfig:"TRACTORBID_JWT_EXPIRATION_MINUTES" required:"true"`
	RefreshTokenTTLMinutes int    `envconfig:"TRACTORBID_REFRESH_TOKEN_TTL_MINUTES" default:"43200"`
}

// RefreshTokenTTL returns the refresh token TTL configured in minutes.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	if j.RefreshTokenTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.RefreshTokenTTLMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"TRACTORBID_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"TRACTORBID_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"TRACTORBID_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"TRACTORBID_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"TRACTORBID_ARGON_KEY_LEN" default:"32"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"TRACTORBID_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"TRACTORBID_AUTO_MIGRATE" default:"false"`
	TestMode    bool `envconfig:"TRACTORBID_TEST_MODE" default:"false"`
}

// FeesConfig controls transaction fee computation in basis points.
type FeesConfig struct {
	StandardBps int64 `envconfig:"TRACTORBID_FEES_STANDARD_BPS" default:"250"`
	OfferBps    int64 `envconfig:"TRACTORBID_FEES_OFFER_BPS" default:"100"`
	OfferActive bool  `envconfig:"TRACTORBID_FEES_OFFER_ACTIVE" default:"false"`
}

// ActiveBps returns the fee rate in effect, honoring the promotional rate.
func (f FeesConfig) ActiveBps() int64 {
	if f.OfferActive {
		return f.OfferBps
	}
	return f.StandardBps
}

type ApprovalConfig struct {
	DeadlineDays int           `envconfig:"TRACTORBID_APPROVAL_DEADLINE_DAYS" default:"7"`
	UrgentWindow time.Duration `envconfig:"TRACTORBID_APPROVAL_URGENT_WINDOW" default:"24h"`
}

func (a ApprovalConfig) Deadline(from time.Time) time.Time {
	days := a.DeadlineDays
	if days <= 0 {
		days = 7
	}
	return from.AddDate(0, 0, days)
}

type RazorpayConfig struct {
	KeyID         string `envconfig:"TRACTORBID_RAZORPAY_KEY_ID"`
	KeySecret     string `envconfig:"TRACTORBID_RAZORPAY_KEY_SECRET"`
	WebhookSecret string `envconfig:"TRACTORBID_RAZORPAY_WEBHOOK_SECRET"`
}

type CronConfig struct {
	Secret string `envconfig:"TRACTORBID_CRON_SECRET"`
}

type RateLimitConfig struct {
	AuthLimit  int64         `envconfig:"TRACTORBID_RATE_LIMIT_AUTH" default:"10"`
	AuthWindow time.Duration `envconfig:"TRACTORBID_RATE_LIMIT_AUTH_WINDOW" default:"1m"`
	BidLimit   int64         `envconfig:"TRACTORBID_RATE_LIMIT_BID" default:"30"`
	BidWindow  time.Duration `envconfig:"TRACTORBID_RATE_LIMIT_BID_WINDOW" default:"1m"`
}

type EventingConfig struct {
	OutboxIdempotencyTTL time.Duration `envconfig:"TRACTORBID_EVENTING_IDEMPOTENCY_TTL" default:"720h"`
}

// NotifyConfig points at the delivery bridges. Empty URLs disable the
// corresponding channel.
type NotifyConfig struct {
	EmailWebhookURL string `envconfig:"TRACTORBID_NOTIFY_EMAIL_WEBHOOK"`
	SMSWebhookURL   string `envconfig:"TRACTORBID_NOTIFY_SMS_WEBHOOK"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"TRACTORBID_GCP_PROJECT_ID"`
	CredentialsJSON        string `envconfig:"TRACTORBID_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"TRACTORBID_GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	AuctionTopic             string `envconfig:"TRACTORBID_PUBSUB_AUCTION_TOPIC" default:"tb-auction-events"`
	AuctionSubscription      string `envconfig:"TRACTORBID_PUBSUB_AUCTION_SUBSCRIPTION"`
	NotificationTopic        string `envconfig:"TRACTORBID_PUBSUB_NOTIFICATION_TOPIC" default:"tb-notification-events"`
	NotificationSubscription string `envconfig:"TRACTORBID_PUBSUB_NOTIFICATION_SUBSCRIPTION"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"TRACTORBID_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"TRACTORBID_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"TRACTORBID_OUTBOX_MAX_ATTEMPTS" default:"10"`
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
