package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = "SPAREBITE"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvDBDSN  = "SPAREBITE_DB_DSN"
	EnvDBHost = "SPAREBITE_DB_HOST"
	EnvDBUser = "SPAREBITE_DB_USER"
	EnvDBName = "SPAREBITE_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App           AppConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	FeatureFlags  FeatureFlagsConfig
	GCP           GCPConfig
	PubSub        PubSubConfig
	Push          PushConfig
	Cron          CronConfig
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
	Env          string `envconfig:"SPAREBITE_APP_ENV" required:"true"`
	Port         string `envconfig:"SPAREBITE_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"SPAREBITE_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"SPAREBITE_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"SPAREBITE_DB_DSN"`
	Driver string `envconfig:"SPAREBITE_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"SPAREBITE_DB_HOST"`
	LegacyPort     int    `envconfig:"SPAREBITE_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"SPAREBITE_DB_USER"`
	LegacyPassword string `envconfig:"SPAREBITE_DB_PASSWORD"`
	LegacyName     string `envconfig:"SPAREBITE_DB_NAME"`
	LegacySSLMode  string `envconfig:"SPAREBITE_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"SPAREBITE_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"SPAREBITE_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"SPAREBITE_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"SPAREBITE_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"SPAREBITE_REDIS_URL" required:"true"`
	Address      string        `envconfig:"SPAREBITE_REDIS_ADDR"`
	Password     string        `envconfig:"SPAREBITE_REDIS_PASSWORD"`
	DB           int           `envconfig:"SPAREBITE_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"SPAREBITE_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"SPAREBITE_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"SPAREBITE_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"SPAREBITE_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"SPAREBITE_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"SPAREBITE_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"SPAREBITE_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"SPAREBITE_JWT_EXPIRATION_MINUTES" default:"60"`
	SessionTTLMinutes int    `envconfig:"SPAREBITE_SESSION_TTL_MINUTES" default:"43200"`
}

// SessionTTL returns the access session TTL configured in minutes.
func (j JWTConfig) SessionTTL() time.Duration {
	if j.SessionTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.SessionTTLMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"SPAREBITE_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"SPAREBITE_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"SPAREBITE_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"SPAREBITE_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"SPAREBITE_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow        time.Duration `envconfig:"SPAREBITE_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit    int           `envconfig:"SPAREBITE_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit       int           `envconfig:"SPAREBITE_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	RegisterWindow     time.Duration `envconfig:"SPAREBITE_AUTH_RATE_LIMIT_REGISTER_WINDOW" default:"10m"`
	RegisterEmailLimit int           `envconfig:"SPAREBITE_AUTH_RATE_LIMIT_REGISTER_EMAIL_LIMIT" default:"3"`
	RegisterIPLimit    int           `envconfig:"SPAREBITE_AUTH_RATE_LIMIT_REGISTER_IP_LIMIT" default:"10"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"SPAREBITE_AUTO_MIGRATE" default:"false"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"SPAREBITE_GCP_PROJECT_ID"`
	CredentialsJSON        string `envconfig:"SPAREBITE_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"SPAREBITE_GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	ReservationTopic        string `envconfig:"SPAREBITE_PUBSUB_RESERVATION_TOPIC" default:"sb-reservation-events"`
	ReservationSubscription string `envconfig:"SPAREBITE_PUBSUB_RESERVATION_SUBSCRIPTION"`
}

type PushConfig struct {
	CredentialsFile string `envconfig:"SPAREBITE_FCM_CREDENTIALS_FILE"`
}

type CronConfig struct {
	Interval            time.Duration `envconfig:"SPAREBITE_CRON_INTERVAL" default:"15m"`
	LockTTL             time.Duration `envconfig:"SPAREBITE_CRON_LOCK_TTL" default:"20m"`
	ExpiryWarningWindow time.Duration `envconfig:"SPAREBITE_OFFER_EXPIRY_WARNING_WINDOW" default:"1h"`
	MetricsPort         string        `envconfig:"SPAREBITE_CRON_METRICS_PORT" default:"9091"`
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
