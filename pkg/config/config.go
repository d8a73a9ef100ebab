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
	Service      ServiceConfig
	DB           DBConfig
	Redis        RedisConfig
	FeatureFlags FeatureFlagsConfig
	Model        ModelConfig
	Prediction   PredictionConfig
	PubSub       PubSubConfig
	Upload       UploadConfig
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
	Env          string `envconfig:"SHELFWISE_APP_ENV" required:"true"`
	LogLevel     string `envconfig:"SHELFWISE_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"SHELFWISE_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"SHELFWISE_SERVICE_KIND" default:"forecast"`
}

type DBConfig struct {
	DSN    string `envconfig:"SHELFWISE_DB_DSN"`
	Driver string `envconfig:"SHELFWISE_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"SHELFWISE_DB_HOST"`
	LegacyPort     int    `envconfig:"SHELFWISE_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"SHELFWISE_DB_USER"`
	LegacyPassword string `envconfig:"SHELFWISE_DB_PASSWORD"`
	LegacyName     string `envconfig:"SHELFWISE_DB_NAME"`
	LegacySSLMode  string `envconfig:"SHELFWISE_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"SHELFWISE_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"SHELFWISE_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"SHELFWISE_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"SHELFWISE_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"SHELFWISE_REDIS_URL"`
	Address      string        `envconfig:"SHELFWISE_REDIS_ADDR"`
	Password     string        `envconfig:"SHELFWISE_REDIS_PASSWORD"`
	DB           int           `envconfig:"SHELFWISE_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"SHELFWISE_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"SHELFWISE_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"SHELFWISE_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"SHELFWISE_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"SHELFWISE_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"SHELFWISE_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"SHELFWISE_AUTO_MIGRATE" default:"false"`
}

// ModelConfig locates the trained model artifact on disk. When Dir is empty
// the adapter walks a fixed search path instead.
type ModelConfig struct {
	Dir         string `envconfig:"SHELFWISE_MODEL_DIR"`
	OriginalDir string `envconfig:"SHELFWISE_MODEL_ORIGINAL_DIR"`
}

// PredictionConfig tunes orchestrator behavior.
type PredictionConfig struct {
	// DemoDate pins the reference "today" (YYYY-MM-DD). Empty means wall clock UTC.
	DemoDate       string `envconfig:"SHELFWISE_DEMO_DATE"`
	HistoryDays    int    `envconfig:"SHELFWISE_PREDICTION_HISTORY_DAYS" default:"60"`
	TopPredictions int    `envconfig:"SHELFWISE_PREDICTION_TOP_CAP" default:"1000"`
	ChartTopN      int    `envconfig:"SHELFWISE_PREDICTION_CHART_TOP_N" default:"10"`
}

// ReferenceDate resolves the pinned demo date, if any.
func (p PredictionConfig) ReferenceDate() (time.Time, bool, error) {
	trimmed := strings.TrimSpace(p.DemoDate)
	if trimmed == "" {
		return time.Time{}, false, nil
	}
	parsed, err := time.Parse("2006-01-02", trimmed)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("parsing %s: %w", EnvDemoDate, err)
	}
	return parsed.UTC(), true, nil
}

type PubSubConfig struct {
	ForecastRunTopic        string        `envconfig:"SHELFWISE_PUBSUB_FORECAST_RUN_TOPIC" default:"sw-forecast-runs"`
	ForecastRunSubscription string        `envconfig:"SHELFWISE_PUBSUB_FORECAST_RUN_SUBSCRIPTION"`
	ProjectID               string        `envconfig:"SHELFWISE_GCP_PROJECT_ID"`
	CredentialsJSON         string        `envconfig:"SHELFWISE_GCP_CREDENTIALS_JSON"`
	IdempotencyTTL          time.Duration `envconfig:"SHELFWISE_PUBSUB_IDEMPOTENCY_TTL" default:"24h"`
}

type UploadConfig struct {
	MaxUploadMB int `envconfig:"SHELFWISE_MAX_UPLOAD_MB" default:"200"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}
	if strings.EqualFold(db.Driver, DriverSQLite) {
		db.DSN = "file::memory:?cache=shared"
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
