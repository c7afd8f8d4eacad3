package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"

	NotifyLog   = "log"
	NotifyReply = "reply"
)

var (
	ErrUnknownBackend = errors.New("unknown storage backend")
	ErrNoDBCreds      = errors.New("postgres backend requires db username and db name")
	ErrNoToken        = errors.New("telegram token required")
	ErrNoSecret       = errors.New("auth secret required")
	ErrUnknownMode    = errors.New("unknown notifier mode")
)

type Config struct {
	Server     Server     `yaml:"server"`
	Logger     Logger     `yaml:"logger"`
	Storage    Storage    `yaml:"storage"`
	PostgresDB PostgresDB `yaml:"db"`
	Auth       Auth       `yaml:"auth"`
	RedisCache RedisCache `yaml:"rdb"`
	Telegram   Telegram   `yaml:"telegram"`
}

type Server struct {
	Addr         string        `env-default:":8080" yaml:"addr"`
	ReadTimeout  time.Duration `env-default:"5s"    yaml:"readTimeout"`
	IdleTimeout  time.Duration `env-default:"30s"   yaml:"idleTimeout"`
	WriteTimeout time.Duration `env-default:"5s"    yaml:"writeTimeout"`
}

type Logger struct {
	Level     string   `env:"LOG_LEVEL" env-default:"info" yaml:"level"`
	Output    []string `yaml:"output"`
	ErrOutput []string `yaml:"errOutput"`
}

type Storage struct {
	Backend string `env:"AWR_STORAGE" env-default:"memory" yaml:"backend"`
}

type PostgresDB struct {
	Addr          string `yaml:"addr"`
	Username      string `env:"POSTGRES_USER"     yaml:"username"`
	Password      string `env:"POSTGRES_PASSWORD" yaml:"password"`
	DB            string `env:"POSTGRES_DB"       yaml:"db"`
	SSLmode       string `env-default:"disable"   yaml:"sslmode"`
	MaxConns      string `env-default:"10"        yaml:"maxConns"`
	Reload        bool   `yaml:"reload"`
	Version       int    `yaml:"version"`
	MigrationsDir string `env-default:"./migrations" yaml:"migrationsDir"`
}

type Auth struct {
	TTL    time.Duration `env-default:"24h" yaml:"ttl"`
	Secret string        `env:"SECRET"      yaml:"secret"`
}

// RedisCache с пустым адресом отключает кэш остатков.
type RedisCache struct {
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	ExpTime  time.Duration `env-default:"1m" yaml:"exp"`
}

type Telegram struct {
	Token       string        `env:"TELEGRAM_TOKEN"  yaml:"token"`
	Mode        string        `env:"NOTIFIER_MODE"   env-default:"log" yaml:"mode"`
	PollTimeout time.Duration `env-default:"10s"     yaml:"pollTimeout"`
}

func New(configPath string) (Config, error) {
	var cfg Config
	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		return Config{}, fmt.Errorf("read config error: %w", err)
	}

	return cfg, nil
}

// Validate проверяет настройки, нужные API-серверу.
func (c Config) Validate() error {
	if c.Auth.Secret == "" {
		return ErrNoSecret
	}

	switch c.Storage.Backend {
	case BackendMemory:
	case BackendPostgres:
		if c.PostgresDB.Username == "" || c.PostgresDB.DB == "" {
			return ErrNoDBCreds
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownBackend, c.Storage.Backend)
	}

	return nil
}

// ValidateNotifier проверяет настройки бота.
func (c Config) ValidateNotifier() error {
	if c.Telegram.Token == "" {
		return ErrNoToken
	}

	switch c.Telegram.Mode {
	case NotifyLog, NotifyReply:
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrUnknownMode, c.Telegram.Mode)
	}
}
