package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"

	"github.com/hoosuem8800/portal-api/internal/email"
	"github.com/hoosuem8800/portal-api/internal/mlclient"
)

type Config struct {
	Server   ServerConfig    `mapstructure:"server"`
	Database DatabaseConfig  `mapstructure:"database"`
	JWT      JWTConfig       `mapstructure:"jwt"`
	Redis    RedisConfig     `mapstructure:"redis"`
	ML       mlclient.Config `mapstructure:"ml"`
	Email    email.Config    `mapstructure:"email"`
	Rate     RateConfig      `mapstructure:"rate"`
	Uploads  UploadsConfig   `mapstructure:"uploads"`
	Logging  LoggingConfig   `mapstructure:"logging"`
}

type ServerConfig struct {
	Port           int           `mapstructure:"port"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	SSLMode  string `mapstructure:"sslmode"`
}

type JWTConfig struct {
	Secret      string `mapstructure:"secret"`
	ExpiryHours int    `mapstructure:"expiry_hours"`
}

func (c JWTConfig) Expiry() time.Duration {
	return time.Duration(c.ExpiryHours) * time.Hour
}

type RedisConfig struct {
	URL string `mapstructure:"url"`
}

type RateConfig struct {
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
	Burst             int     `mapstructure:"burst"`
}

type UploadsConfig struct {
	Dir string `mapstructure:"dir"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Pretty bool   `mapstructure:"pretty"`
}

func LoadConfig() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if config.JWT.Secret == "" {
		return nil, fmt.Errorf("jwt.secret must be set")
	}

	return &config, nil
}

func setDefaults() {
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.read_timeout", "15s")
	viper.SetDefault("server.write_timeout", "15s")
	viper.SetDefault("server.request_timeout", "30s")

	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 5432)
	viper.SetDefault("database.user", "postgres")
	viper.SetDefault("database.name", "portal")
	viper.SetDefault("database.sslmode", "disable")

	viper.SetDefault("jwt.expiry_hours", 24)

	viper.SetDefault("redis.url", "redis://localhost:6379/0")

	viper.SetDefault("ml.base_url", "http://localhost:8001")
	viper.SetDefault("ml.timeout", "10s")
	viper.SetDefault("ml.predict_timeout", "30s")

	viper.SetDefault("email.port", 587)

	viper.SetDefault("rate.requests_per_second", 50)
	viper.SetDefault("rate.burst", 100)

	viper.SetDefault("uploads.dir", "uploads")

	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.pretty", false)
}
