package config

import (
	"errors"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database DatabaseConfig
	Redis    RedisConfig
	JWT      JWTConfig
	CORS     CORSConfig
	Log      LogConfig
	Snapshot SnapshotConfig
	Batch    BatchConfig
	Calendar CalendarConfig
	Alerts   AlertsConfig
	Exports  ExportsConfig
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type JWTConfig struct {
	Secret string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// SnapshotConfig tunes snapshot recomputation and caching behaviour.
type SnapshotConfig struct {
	CacheTTL        time.Duration
	RecalcInterval  time.Duration
	WeeklyWindow    int
	DailyWindowDays int
}

// BatchConfig controls bounded-concurrency batch runs.
type BatchConfig struct {
	DueBatchSize  int
	DuePause      time.Duration
	DueLimit      int
	FullBatchSize int
	FullPause     time.Duration
}

// CalendarConfig governs working-day computation.
type CalendarConfig struct {
	ConfigCacheTTL time.Duration
	WeekendDays    []string
}

// AlertsConfig tunes risk alert emission.
type AlertsConfig struct {
	Enabled     bool
	GuardWindow time.Duration
	Workers     int
}

// ExportsConfig toggles report export endpoints.
type ExportsConfig struct {
	Enabled bool
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.JWT = JWTConfig{Secret: v.GetString("JWT_SECRET")}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Snapshot = SnapshotConfig{
		CacheTTL:        parseDuration(v.GetString("SNAPSHOT_CACHE_TTL"), time.Hour),
		RecalcInterval:  parseDuration(v.GetString("SNAPSHOT_RECALC_INTERVAL"), 24*time.Hour),
		WeeklyWindow:    v.GetInt("SNAPSHOT_WEEKLY_WINDOW"),
		DailyWindowDays: v.GetInt("SNAPSHOT_DAILY_WINDOW_DAYS"),
	}

	cfg.Batch = BatchConfig{
		DueBatchSize:  v.GetInt("BATCH_DUE_SIZE"),
		DuePause:      parseDuration(v.GetString("BATCH_DUE_PAUSE"), 200*time.Millisecond),
		DueLimit:      v.GetInt("BATCH_DUE_LIMIT"),
		FullBatchSize: v.GetInt("BATCH_FULL_SIZE"),
		FullPause:     parseDuration(v.GetString("BATCH_FULL_PAUSE"), 300*time.Millisecond),
	}

	cfg.Calendar = CalendarConfig{
		ConfigCacheTTL: parseDuration(v.GetString("CALENDAR_CONFIG_CACHE_TTL"), 30*time.Minute),
		WeekendDays:    splitAndTrim(v.GetString("CALENDAR_WEEKEND_DAYS")),
	}

	cfg.Alerts = AlertsConfig{
		Enabled:     v.GetBool("ENABLE_RISK_ALERTS"),
		GuardWindow: parseDuration(v.GetString("RISK_ALERT_GUARD_WINDOW"), 24*time.Hour),
		Workers:     v.GetInt("RISK_ALERT_WORKERS"),
	}

	cfg.Exports = ExportsConfig{Enabled: v.GetBool("ENABLE_EXPORTS")}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "sis_progress")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("SNAPSHOT_CACHE_TTL", "1h")
	v.SetDefault("SNAPSHOT_RECALC_INTERVAL", "24h")
	v.SetDefault("SNAPSHOT_WEEKLY_WINDOW", 8)
	v.SetDefault("SNAPSHOT_DAILY_WINDOW_DAYS", 30)

	v.SetDefault("BATCH_DUE_SIZE", 20)
	v.SetDefault("BATCH_DUE_PAUSE", "200ms")
	v.SetDefault("BATCH_DUE_LIMIT", 0)
	v.SetDefault("BATCH_FULL_SIZE", 10)
	v.SetDefault("BATCH_FULL_PAUSE", "300ms")

	v.SetDefault("CALENDAR_CONFIG_CACHE_TTL", "30m")
	v.SetDefault("CALENDAR_WEEKEND_DAYS", "Saturday,Sunday")

	v.SetDefault("ENABLE_RISK_ALERTS", true)
	v.SetDefault("RISK_ALERT_GUARD_WINDOW", "24h")
	v.SetDefault("RISK_ALERT_WORKERS", 2)

	v.SetDefault("ENABLE_EXPORTS", true)
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
