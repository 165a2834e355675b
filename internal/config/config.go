package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Scheduler SchedulerConfig
	WhatsApp  WhatsAppConfig
	Phone     PhoneConfig
}

type ServerConfig struct {
	Address string
}

type DatabaseConfig struct {
	PostgresURL string
}

type RedisConfig struct {
	Enabled  bool
	Address  string
	Password string
	DB       int
	TTL      time.Duration
}

type SchedulerConfig struct {
	Interval  time.Duration
	BatchSize int
	StaleAge  time.Duration
}

// WhatsAppConfig carries the Cloud API credentials. Both APIKey and
// PhoneNumberID must be present for sending to be enabled; their absence is
// a valid runtime state in which the delivery client short-circuits.
type WhatsAppConfig struct {
	APIKey        string
	PhoneNumberID string
	BaseURL       string
	VerifyToken   string
}

func (w WhatsAppConfig) Configured() bool {
	return w.APIKey != "" && w.PhoneNumberID != ""
}

type PhoneConfig struct {
	CountryCode string
	NSNLength   int
}

func LoadAll() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Address: getEnv("SERVER_ADDRESS", ":8080"),
		},
		Database: DatabaseConfig{
			PostgresURL: mustEnv("POSTGRES_URL"),
		},
		WhatsApp: WhatsAppConfig{
			APIKey:        os.Getenv("WA_API_KEY"),
			PhoneNumberID: os.Getenv("WA_PHONE_NUMBER_ID"),
			BaseURL:       getEnv("WA_BASE_URL", "https://graph.facebook.com/v19.0"),
			VerifyToken:   os.Getenv("WA_VERIFY_TOKEN"),
		},
		Scheduler: SchedulerConfig{
			Interval:  time.Duration(getEnvInt("SCHED_INTERVAL_SECONDS", 60)) * time.Second,
			BatchSize: getEnvInt("SCHED_BATCH_SIZE", 10),
			StaleAge:  time.Duration(getEnvInt("SCHED_STALE_SECONDS", 300)) * time.Second,
		},
		Phone: PhoneConfig{
			CountryCode: getEnv("PHONE_COUNTRY_CODE", "27"),
			NSNLength:   getEnvInt("PHONE_NSN_LENGTH", 9),
		},
		Redis: loadRedisConfig(),
	}

	validate(cfg)
	return cfg, nil
}

func loadRedisConfig() RedisConfig {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		return RedisConfig{Enabled: false}
	}

	return RedisConfig{
		Enabled:  true,
		Address:  addr,
		Password: os.Getenv("REDIS_PASSWORD"),
		DB:       getEnvInt("REDIS_DB", 0),
		TTL:      time.Duration(getEnvInt("REDIS_TTL_SECONDS", 86400)) * time.Second,
	}
}

func validate(cfg *Config) {
	if cfg.Scheduler.BatchSize <= 0 {
		panic("SCHED_BATCH_SIZE must be > 0")
	}
	if cfg.Scheduler.Interval <= 0 {
		panic("SCHED_INTERVAL_SECONDS must be > 0")
	}
	if cfg.Scheduler.StaleAge <= 0 {
		panic("SCHED_STALE_SECONDS must be > 0")
	}
	if cfg.Phone.CountryCode == "" {
		panic("PHONE_COUNTRY_CODE must not be empty")
	}
	if cfg.Phone.NSNLength <= 0 {
		panic("PHONE_NSN_LENGTH must be > 0")
	}
}

func mustEnv(key string) string {
	val := os.Getenv(key)
	if val == "" {
		panic(fmt.Sprintf("missing required env var: %s", key))
	}
	return val
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		panic(fmt.Sprintf("invalid int for env %s: %s", key, v))
	}
	return i
}
