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

	Source   SourceConfig
	Watcher  WatcherConfig
	Notify   NotifyConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Telegram TelegramConfig
	CORS     CORSConfig
	Log      LogConfig
}

// SourceConfig points at the public schedule page and tunes fetching.
type SourceConfig struct {
	PageURL      string
	UserAgent    string
	FetchTimeout time.Duration
	FetchRetries int
	LinksTTL     time.Duration
	Timezone     string
}

// WatcherConfig tunes the background change-detection loop.
type WatcherConfig struct {
	Enabled          bool
	MinInterval      time.Duration
	MaxInterval      time.Duration
	ProbeConcurrency int
}

// NotifyConfig bounds outbound notification fan-out.
type NotifyConfig struct {
	SendConcurrency int
	RenderCacheTTL  time.Duration
}

type DatabaseConfig struct {
	Enabled      bool
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
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

// TelegramConfig configures the delivery channel adapter.
type TelegramConfig struct {
	Token string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
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

	cfg.Source = SourceConfig{
		PageURL:      v.GetString("PAGE_URL"),
		UserAgent:    v.GetString("USER_AGENT"),
		FetchTimeout: parseDuration(v.GetString("FETCH_TIMEOUT"), 35*time.Second),
		FetchRetries: v.GetInt("FETCH_RETRIES"),
		LinksTTL:     parseDuration(v.GetString("LINKS_TTL"), time.Minute),
		Timezone:     v.GetString("TZ"),
	}

	cfg.Watcher = WatcherConfig{
		Enabled:          v.GetBool("ENABLE_WATCHER"),
		MinInterval:      parseDuration(v.GetString("WATCH_MIN_INTERVAL"), 5*time.Minute),
		MaxInterval:      parseDuration(v.GetString("WATCH_MAX_INTERVAL"), 10*time.Minute),
		ProbeConcurrency: v.GetInt("PROBE_CONCURRENCY"),
	}

	cfg.Notify = NotifyConfig{
		SendConcurrency: v.GetInt("SEND_CONCURRENCY"),
		RenderCacheTTL:  parseDuration(v.GetString("RENDER_CACHE_TTL"), 2*time.Minute),
	}

	cfg.Database = DatabaseConfig{
		Enabled:      v.GetBool("ENABLE_DB"),
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
		Enabled:  v.GetBool("ENABLE_REDIS"),
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.Telegram = TelegramConfig{Token: v.GetString("BOT_TOKEN")}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("PAGE_URL", "https://pokrovsky.gosuslugi.ru/glavnoe/raspisanie/")
	v.SetDefault("USER_AGENT", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36")
	v.SetDefault("FETCH_TIMEOUT", "35s")
	v.SetDefault("FETCH_RETRIES", 2)
	v.SetDefault("LINKS_TTL", "1m")
	v.SetDefault("TZ", "Europe/Moscow")

	v.SetDefault("ENABLE_WATCHER", true)
	v.SetDefault("WATCH_MIN_INTERVAL", "5m")
	v.SetDefault("WATCH_MAX_INTERVAL", "10m")
	v.SetDefault("PROBE_CONCURRENCY", 6)

	v.SetDefault("SEND_CONCURRENCY", 20)
	v.SetDefault("RENDER_CACHE_TTL", "2m")

	v.SetDefault("ENABLE_DB", false)
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "timetable")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("ENABLE_REDIS", false)
	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("BOT_TOKEN", "")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
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
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
