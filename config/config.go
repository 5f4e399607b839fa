package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const EnvPrefix = "LEND"

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Lending   LendingConfig   `mapstructure:"lending"`
	Bootstrap BootstrapConfig `mapstructure:"bootstrap"`
}

type ServerConfig struct {
	Port           int           `mapstructure:"port" validate:"gt=0,lt=65536"`
	Debug          bool          `mapstructure:"debug"`
	WebOrigin      string        `mapstructure:"web_origin" validate:"required,url"`
	SessionTTL     time.Duration `mapstructure:"session_ttl" validate:"gt=0"`
	SeenThrottle   time.Duration `mapstructure:"seen_throttle" validate:"gt=0"`
	LoginRateRPS   float64       `mapstructure:"login_rate_rps" validate:"gt=0"`
	LoginRateBurst int           `mapstructure:"login_rate_burst" validate:"gt=0"`
}

// SecureCookies is true when the front end is served over https.
func (s ServerConfig) SecureCookies() bool {
	return strings.HasPrefix(s.WebOrigin, "https://")
}

type DatabaseConfig struct {
	Mode       string        `mapstructure:"mode" validate:"oneof=postgres sqlite"` // postgres | sqlite
	DSN        string        `mapstructure:"dsn" validate:"required_if=Mode postgres"`
	SQLitePath string        `mapstructure:"sqlite_path" validate:"required_if=Mode sqlite"`
	MaxOpen    int           `mapstructure:"max_open" validate:"gte=0"`
	MaxIdle    int           `mapstructure:"max_idle" validate:"gte=0"`
	MaxLife    time.Duration `mapstructure:"max_life" validate:"gte=0"`
	LogQueries bool          `mapstructure:"log_queries"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr" validate:"required,hostname_port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db" validate:"gte=0"`
}

// LendingConfig only seeds a fresh store; afterwards settings live in the
// database and are changed through the API.
type LendingConfig struct {
	MaxBorrowLimit int  `mapstructure:"max_borrow_limit" validate:"gt=0"`
	DefaultDueDays int  `mapstructure:"default_due_days" validate:"gt=0"`
	SeedItems      bool `mapstructure:"seed_items"`
}

// BootstrapConfig creates the first operator when none exists.
type BootstrapConfig struct {
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password" validate:"omitempty,min=6"`
}

// LoadEnv reads a .env file into the process environment if one exists.
func LoadEnv() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("load .env: %v", err)
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 3001)
	v.SetDefault("server.debug", false)
	v.SetDefault("server.web_origin", "http://localhost:5173")
	v.SetDefault("server.session_ttl", "24h")
	v.SetDefault("server.seen_throttle", "5m")
	v.SetDefault("server.login_rate_rps", 0.5)
	v.SetDefault("server.login_rate_burst", 5)

	v.SetDefault("database.mode", "postgres")
	v.SetDefault("database.dsn", "")
	v.SetDefault("database.sqlite_path", "./data/ledger.db")
	v.SetDefault("database.max_open", 10)
	v.SetDefault("database.max_idle", 5)
	v.SetDefault("database.max_life", "1h")
	v.SetDefault("database.log_queries", false)

	v.SetDefault("redis.addr", "127.0.0.1:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("lending.max_borrow_limit", 5)
	v.SetDefault("lending.default_due_days", 7)
	v.SetDefault("lending.seed_items", true)

	v.SetDefault("bootstrap.username", "")
	v.SetDefault("bootstrap.password", "")
}

// Load builds the configuration from defaults, an optional YAML file and
// LEND_* environment variables, in increasing precedence.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}
