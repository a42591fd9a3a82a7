package config

import (
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

const (
	DriverMemory   = "memory"
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"
)

type Listen struct {
	BindIp string `yaml:"bind_ip" env:"BIND_IP" env-default:"0.0.0.0"`
	Port   string `yaml:"port" env:"PORT" env-default:"8080"`
}

type HTTPConfig struct {
	// RequestTimeout bounds every API call except the event stream.
	RequestTimeout time.Duration `yaml:"request_timeout" env-default:"5s"`
	ReadTimeout    time.Duration `yaml:"read_timeout" env-default:"5s"`
	WriteTimeout   time.Duration `yaml:"write_timeout" env-default:"10s"`
	IdleTimeout    time.Duration `yaml:"idle_timeout" env-default:"60s"`
	// Heartbeat is the interval of keep-alive comments on the event stream.
	Heartbeat   time.Duration `yaml:"heartbeat" env-default:"25s"`
	CorsOrigins []string      `yaml:"cors_origins" env:"CORS_ORIGINS" env-default:"http://localhost:3000"`
}

// StoreConfig selects where passes live. Url is only read by the postgres driver.
type StoreConfig struct {
	Driver   string `yaml:"driver" env:"PASS_STORE" env-default:"memory"`
	HostName string `yaml:"hostname" env:"DB_HOST" env-default:"localhost"`
	Port     string `yaml:"port" env:"DB_PORT" env-default:"3306"`
	UserName string `yaml:"username" env:"DB_USER" env-default:""`
	Password string `yaml:"password" env:"DB_PASSWORD" env-default:""`
	Database string `yaml:"database" env:"DB_NAME" env-default:"entrypass"`
	Prefix   string `yaml:"prefix" env-default:""`
	Url      string `yaml:"url" env:"DATABASE_URL" env-default:""`
}

type MongoConfig struct {
	Enabled  bool   `yaml:"enabled" env:"MONGO_ENABLED" env-default:"false"`
	Host     string `yaml:"host" env:"MONGO_HOST" env-default:"127.0.0.1"`
	Port     string `yaml:"port" env:"MONGO_PORT" env-default:"27017"`
	User     string `yaml:"user" env:"MONGO_USER" env-default:""`
	Password string `yaml:"password" env:"MONGO_PASSWORD" env-default:""`
	Database string `yaml:"database" env:"MONGO_DB" env-default:"entrypass"`
}

type AuthConfig struct {
	Secret     string        `yaml:"secret" env:"JWT_SECRET" env-default:""`
	Issuer     string        `yaml:"issuer" env-default:"entrypass"`
	AccessTTL  time.Duration `yaml:"access_ttl" env-default:"1h"`
	RefreshTTL time.Duration `yaml:"refresh_ttl" env-default:"168h"`
}

// UserSeed is a staff account loaded into the user store at startup.
type UserSeed struct {
	Id           int64  `yaml:"id"`
	Username     string `yaml:"username"`
	PasswordHash string `yaml:"password_hash"`
	Role         string `yaml:"role"`
}

type TelegramConfig struct {
	Enabled  bool    `yaml:"enabled" env:"TELEGRAM_ENABLED" env-default:"false"`
	ApiKey   string  `yaml:"api_key" env:"TELEGRAM_API_KEY" env-default:""`
	ChatIds  []int64 `yaml:"chat_ids" env:"TELEGRAM_CHAT_IDS"`
	MinLevel string  `yaml:"min_level" env-default:"error"`
}

type Config struct {
	Env      string         `yaml:"env" env:"ENV" env-default:"local"`
	Location string         `yaml:"location" env-default:"UTC"`
	Listen   Listen         `yaml:"listen"`
	HTTP     HTTPConfig     `yaml:"http"`
	Store    StoreConfig    `yaml:"store"`
	Mongo    MongoConfig    `yaml:"mongo"`
	Auth     AuthConfig     `yaml:"auth"`
	Users    []UserSeed     `yaml:"users"`
	Telegram TelegramConfig `yaml:"telegram"`
}

var instance *Config
var once sync.Once

func MustLoad(path string) *Config {
	once.Do(func() {
		conf, err := Load(path)
		if err != nil {
			log.Fatal(err)
		}
		instance = conf
	})
	return instance
}

// Load reads the YAML file at path; environment variables override file values.
func Load(path string) (*Config, error) {
	conf := &Config{}
	if err := cleanenv.ReadConfig(path, conf); err != nil {
		desc, _ := cleanenv.GetDescription(conf, nil)
		return nil, fmt.Errorf("config: %s; %s", err, desc)
	}
	if err := conf.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return conf, nil
}

func (c *Config) Validate() error {
	if c.Auth.Secret == "" {
		return errors.New("auth.secret (JWT_SECRET) is required")
	}
	if c.Auth.AccessTTL <= 0 || c.Auth.RefreshTTL <= 0 {
		return errors.New("token lifetimes must be positive")
	}
	switch c.Store.Driver {
	case DriverMemory, DriverMySQL:
	case DriverPostgres:
		if c.Store.Url == "" {
			return errors.New("store.url (DATABASE_URL) is required for postgres")
		}
	default:
		return fmt.Errorf("unknown store driver %q", c.Store.Driver)
	}
	if c.Telegram.Enabled && c.Telegram.ApiKey == "" {
		return errors.New("telegram.api_key is required when telegram is enabled")
	}
	for _, u := range c.Users {
		if u.Username == "" || u.PasswordHash == "" {
			return errors.New("users: username and password_hash are required")
		}
	}
	return nil
}
