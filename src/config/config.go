package config

import (
	"time"

	"github.com/joho/godotenv"
	"github.com/juju/errors"
	"github.com/juju/loggo"
	"github.com/spf13/viper"
)

var logger = loggo.GetLogger("feedback.config")

// Config holds every setting the API, worker and seeder read from the environment.
type Config struct {
	AppPort           string
	MongoURI          string
	MongoDB           string
	RedisURI          string
	CacheTTL          time.Duration
	LocalCache        bool
	RequestTimeout    time.Duration
	AllowedOrigins    string
	LogLevel          string
	SentryDSN         string
	WorkerConcurrency int
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_PORT", "8088")
	v.SetDefault("MONGO_URI", "")
	v.SetDefault("MONGO_DB", "FeedbackDB")
	v.SetDefault("REDIS_URI", "")
	v.SetDefault("CACHE_TTL", "5m")
	v.SetDefault("LOCAL_CACHE", false)
	v.SetDefault("REQUEST_TIMEOUT", "10s")
	v.SetDefault("ALLOWED_ORIGINS", "*")
	v.SetDefault("LOG_LEVEL", "<root>=INFO")
	v.SetDefault("SENTRY_DSN", "")
	v.SetDefault("WORKER_CONCURRENCY", 5)
}

// Load อ่านค่าจากไฟล์ .env (ถ้ามี) แล้วให้ environment variable override
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		logger.Debugf("no .env file loaded: %v", err)
	}

	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	cfg := &Config{
		AppPort:           v.GetString("APP_PORT"),
		MongoURI:          v.GetString("MONGO_URI"),
		MongoDB:           v.GetString("MONGO_DB"),
		RedisURI:          v.GetString("REDIS_URI"),
		CacheTTL:          v.GetDuration("CACHE_TTL"),
		LocalCache:        v.GetBool("LOCAL_CACHE"),
		RequestTimeout:    v.GetDuration("REQUEST_TIMEOUT"),
		AllowedOrigins:    v.GetString("ALLOWED_ORIGINS"),
		LogLevel:          v.GetString("LOG_LEVEL"),
		SentryDSN:         v.GetString("SENTRY_DSN"),
		WorkerConcurrency: v.GetInt("WORKER_CONCURRENCY"),
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Trace(err)
	}
	return cfg, nil
}

// Validate checks values that have no sensible fallback.
func (c *Config) Validate() error {
	if c.AppPort == "" {
		return errors.NotValidf("empty APP_PORT")
	}
	if c.MongoDB == "" {
		return errors.NotValidf("empty MONGO_DB")
	}
	if c.CacheTTL < 0 {
		return errors.NotValidf("negative CACHE_TTL %s", c.CacheTTL)
	}
	if c.RequestTimeout <= 0 {
		return errors.NotValidf("REQUEST_TIMEOUT %s", c.RequestTimeout)
	}
	if c.WorkerConcurrency < 1 {
		return errors.NotValidf("WORKER_CONCURRENCY %d", c.WorkerConcurrency)
	}
	return nil
}

// RequireMongo is used by the commands that cannot run without a store.
func (c *Config) RequireMongo() error {
	if c.MongoURI == "" {
		return errors.NotValidf("empty MONGO_URI, create a .env file and set it")
	}
	return nil
}
