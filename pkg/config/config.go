package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = ""

	AppEnvDev  = "development"
	AppEnvProd = "production"

	EnvDBDSN  = "GIFTSHOP_DB_DSN"
	EnvDBHost = "GIFTSHOP_DB_HOST"
	EnvDBUser = "GIFTSHOP_DB_USER"
	EnvDBName = "GIFTSHOP_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	Cookie       CookieConfig
	Password     PasswordConfig
	FeatureFlags FeatureFlagsConfig
	GCS          GCSConfig
	PubSub       PubSubConfig
	GCP          GCPConfig
	Outbox       OutboxConfig
	Reconciler   ReconcilerConfig
	CORS         CORSConfig
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
	Env          string `envconfig:"GIFTSHOP_APP_ENV" required:"true"`
	Port         string `envconfig:"GIFTSHOP_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"GIFTSHOP_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"GIFTSHOP_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"GIFTSHOP_DB_DSN"`
	Driver string `envconfig:"GIFTSHOP_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"GIFTSHOP_DB_HOST"`
	LegacyPort     int    `envconfig:"GIFTSHOP_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"GIFTSHOP_DB_USER"`
	LegacyPassword string `envconfig:"GIFTSHOP_DB_PASSWORD"`
	LegacyName     string `envconfig:"GIFTSHOP_DB_NAME"`
	LegacySSLMode  string `envconfig:"GIFTSHOP_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"GIFTSHOP_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"GIFTSHOP_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"GIFTSHOP_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"GIFTSHOP_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"GIFTSHOP_REDIS_URL" required:"true"`
	Address      string        `envconfig:"GIFTSHOP_REDIS_ADDR"`
	Password     string        `envconfig:"GIFTSHOP_REDIS_PASSWORD"`
	DB           int           `envconfig:"GIFTSHOP_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"GIFTSHOP_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"GIFTSHOP_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"GIFTSHOP_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"GIFTSHOP_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"GIFTSHOP_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"GIFTSHOP_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"GIFTSHOP_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"GIFTSHOP_JWT_EXPIRATION_MINUTES" required:"true"`
	SessionTTLMinutes int    `envconfig:"GIFTSHOP_SESSION_TTL_MINUTES" default:"43200"`
}

// SessionTTL returns the server-side session TTL configured in minutes.
func (j JWTConfig) SessionTTL() time.Duration {
	if j.SessionTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.SessionTTLMinutes) * time.Minute
}

// CookieConfig selects the attributes used when re-issuing the session
// credential cookie. CrossSite covers the split where the API and the web
// app live on different origins.
type CookieConfig struct {
	Name      string `envconfig:"GIFTSHOP_COOKIE_NAME" default:"giftshop_session"`
	Domain    string `envconfig:"GIFTSHOP_COOKIE_DOMAIN"`
	CrossSite bool   `envconfig:"GIFTSHOP_COOKIE_CROSS_SITE" default:"false"`
	MaxAgeSec int    `envconfig:"GIFTSHOP_COOKIE_MAX_AGE_SEC" default:"86400"`
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"GIFTSHOP_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"GIFTSHOP_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"GIFTSHOP_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"GIFTSHOP_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"GIFTSHOP_ARGON_KEY_LEN" default:"32"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"GIFTSHOP_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"GIFTSHOP_AUTO_MIGRATE" default:"false"`
}

type GCSConfig struct {
	BucketName     string        `envconfig:"GIFTSHOP_GCS_BUCKET_NAME" required:"true"`
	ProofPrefix    string        `envconfig:"GIFTSHOP_GCS_PROOF_PREFIX" default:"payment-proofs"`
	UploadTimeout  time.Duration `envconfig:"GIFTSHOP_GCS_UPLOAD_TIMEOUT" default:"30s"`
	DownloadURLTTL time.Duration `envconfig:"GIFTSHOP_GCS_DOWNLOAD_URL_TTL" default:"15m"`
	MaxProofSizeMB int           `envconfig:"GIFTSHOP_GCS_MAX_PROOF_SIZE_MB" default:"10"`
}

type GCPConfig struct {
	ProjectID       string `envconfig:"GIFTSHOP_GCP_PROJECT_ID"`
	CredentialsJSON string `envconfig:"GIFTSHOP_GCP_CREDENTIALS_JSON"`
}

type PubSubConfig struct {
	OrdersTopic string `envconfig:"GIFTSHOP_PUBSUB_ORDERS_TOPIC" default:"giftshop-order-events"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"GIFTSHOP_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"GIFTSHOP_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"GIFTSHOP_OUTBOX_MAX_ATTEMPTS" default:"10"`
}

type ReconcilerConfig struct {
	PollInterval time.Duration `envconfig:"GIFTSHOP_RECONCILER_POLL_INTERVAL" default:"15s"`
	BatchSize    int           `envconfig:"GIFTSHOP_RECONCILER_BATCH_SIZE" default:"20"`
	MaxAttempts  int           `envconfig:"GIFTSHOP_RECONCILER_MAX_ATTEMPTS" default:"8"`
	BaseBackoff  time.Duration `envconfig:"GIFTSHOP_RECONCILER_BASE_BACKOFF" default:"2s"`
}

type CORSConfig struct {
	AllowedOrigins []string `envconfig:"GIFTSHOP_CORS_ALLOWED_ORIGINS" default:"http://localhost:5173"`
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
