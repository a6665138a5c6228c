package config

import (
	"fmt"
	"os"
	"path"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Store types.
const (
	StoreMemory = "memory"
	StoreFile   = "file"
	StoreSQLite = "sqlite"
	StoreRedis  = "redis"
)

const (
	defaultStateDir  = ".storegate"
	defaultTimeout   = 30 * time.Second
	defaultRetries   = 3
	defaultBaseDelay = time.Second
	defaultRedisKey  = "storegate:auth"
)

// Options configures a storegate client. Zero values are filled by Init, so
// flag, env and YAML sources can be merged before defaults apply.
type Options struct {
	BaseURL    string        `yaml:"baseURL,omitempty" json:"baseURL,omitempty" short:"u" long:"url" env:"STOREGATE_BASE_URL" description:"remote api base url, i.e. https://api.example.com/api/v1"`
	Timeout    time.Duration `yaml:"timeout,omitempty" json:"timeout,omitempty" long:"timeout" env:"STOREGATE_TIMEOUT" description:"per attempt http timeout"`
	MaxRetries int           `yaml:"maxRetries,omitempty" json:"maxRetries,omitempty" long:"max-retries" env:"STOREGATE_MAX_RETRIES" description:"max retries for transient failures"`
	BaseDelay  time.Duration `yaml:"baseDelay,omitempty" json:"baseDelay,omitempty" long:"base-delay" env:"STOREGATE_BASE_DELAY" description:"first backoff delay, doubled per retry"`
	RateLimit  float64       `yaml:"rateLimit,omitempty" json:"rateLimit,omitempty" long:"rate-limit" env:"STOREGATE_RATE_LIMIT" description:"max requests per second, 0 disables pacing"`
	RateBurst  int           `yaml:"rateBurst,omitempty" json:"rateBurst,omitempty" long:"rate-burst" env:"STOREGATE_RATE_BURST" description:"rate limiter burst"`
	LoginRoute string        `yaml:"loginRoute,omitempty" json:"loginRoute,omitempty" long:"login-route" env:"STOREGATE_LOGIN_ROUTE" description:"route navigated to when the session expires"`
	LogLevel   string        `yaml:"logLevel,omitempty" json:"logLevel,omitempty" short:"l" long:"log-level" env:"STOREGATE_LOG_LEVEL" description:"log level"`
	Store      Store         `yaml:"store,omitempty" json:"store,omitempty" group:"store" namespace:"store" env-namespace:"STOREGATE_STORE"`
}

// Store configures token persistence.
type Store struct {
	Type          string `yaml:"type,omitempty" json:"type,omitempty" long:"type" env:"TYPE" description:"token store type" choice:"memory" choice:"file" choice:"sqlite" choice:"redis"`
	URL           string `yaml:"url,omitempty" json:"url,omitempty" long:"url" env:"URL" description:"file URL or sqlite dsn"`
	EncryptionKey string `yaml:"encryptionKey,omitempty" json:"encryptionKey,omitempty" long:"key" env:"KEY" description:"secret sealing persisted tokens"`
	RedisAddr     string `yaml:"redisAddr,omitempty" json:"redisAddr,omitempty" long:"redis-addr" env:"REDIS_ADDR" description:"redis address"`
	RedisPassword string `yaml:"redisPassword,omitempty" json:"redisPassword,omitempty" long:"redis-password" env:"REDIS_PASSWORD" description:"redis password"`
	RedisDB       int    `yaml:"redisDB,omitempty" json:"redisDB,omitempty" long:"redis-db" env:"REDIS_DB" description:"redis database"`
	RedisKey      string `yaml:"redisKey,omitempty" json:"redisKey,omitempty" long:"redis-key" env:"REDIS_KEY" description:"redis hash key"`
}

// Init fills defaults.
func (o *Options) Init() {
	o.BaseURL = strings.TrimRight(o.BaseURL, "/")
	if o.Timeout == 0 {
		o.Timeout = defaultTimeout
	}
	if o.MaxRetries == 0 {
		o.MaxRetries = defaultRetries
	}
	if o.BaseDelay == 0 {
		o.BaseDelay = defaultBaseDelay
	}
	if o.RateLimit > 0 && o.RateBurst == 0 {
		o.RateBurst = 1
	}
	if o.LogLevel == "" {
		o.LogLevel = zerolog.InfoLevel.String()
	}
	o.Store.init()
}

func (s *Store) init() {
	if s.Type == "" {
		s.Type = StoreFile
	}
	switch s.Type {
	case StoreFile:
		if s.URL == "" {
			s.URL = "file://" + path.Join(stateDir(), "auth.json")
		}
	case StoreSQLite:
		if s.URL == "" {
			s.URL = path.Join(stateDir(), "auth.db")
		}
	case StoreRedis:
		if s.RedisAddr == "" {
			s.RedisAddr = "localhost:6379"
		}
		if s.RedisKey == "" {
			s.RedisKey = defaultRedisKey
		}
	}
}

// Validate checks options after Init.
func (o *Options) Validate() error {
	if o.BaseURL == "" {
		return fmt.Errorf("baseURL was empty")
	}
	if !strings.HasPrefix(o.BaseURL, "http://") && !strings.HasPrefix(o.BaseURL, "https://") {
		return fmt.Errorf("invalid baseURL: %v", o.BaseURL)
	}
	if o.MaxRetries < 0 {
		return fmt.Errorf("invalid maxRetries: %v", o.MaxRetries)
	}
	if o.RateLimit < 0 {
		return fmt.Errorf("invalid rateLimit: %v", o.RateLimit)
	}
	if _, err := zerolog.ParseLevel(o.LogLevel); err != nil {
		return fmt.Errorf("invalid logLevel: %w", err)
	}
	switch o.Store.Type {
	case StoreMemory, StoreFile, StoreSQLite, StoreRedis:
	default:
		return fmt.Errorf("unsupported store type: %v", o.Store.Type)
	}
	return nil
}

// Level returns the configured log level, defaulting to info.
func (o *Options) Level() zerolog.Level {
	level, err := zerolog.ParseLevel(o.LogLevel)
	if err != nil || o.LogLevel == "" {
		return zerolog.InfoLevel
	}
	return level
}

// Merge overrides o with non-zero values of other.
func (o *Options) Merge(other *Options) {
	if other == nil {
		return
	}
	mergeString(&o.BaseURL, other.BaseURL)
	mergeString(&o.LoginRoute, other.LoginRoute)
	mergeString(&o.LogLevel, other.LogLevel)
	if other.Timeout != 0 {
		o.Timeout = other.Timeout
	}
	if other.MaxRetries != 0 {
		o.MaxRetries = other.MaxRetries
	}
	if other.BaseDelay != 0 {
		o.BaseDelay = other.BaseDelay
	}
	if other.RateLimit != 0 {
		o.RateLimit = other.RateLimit
	}
	if other.RateBurst != 0 {
		o.RateBurst = other.RateBurst
	}
	mergeString(&o.Store.Type, other.Store.Type)
	mergeString(&o.Store.URL, other.Store.URL)
	mergeString(&o.Store.EncryptionKey, other.Store.EncryptionKey)
	mergeString(&o.Store.RedisAddr, other.Store.RedisAddr)
	mergeString(&o.Store.RedisPassword, other.Store.RedisPassword)
	mergeString(&o.Store.RedisKey, other.Store.RedisKey)
	if other.Store.RedisDB != 0 {
		o.Store.RedisDB = other.Store.RedisDB
	}
}

func mergeString(dest *string, value string) {
	if value != "" {
		*dest = value
	}
}

func stateDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = os.TempDir()
	}
	return path.Join(home, defaultStateDir)
}
