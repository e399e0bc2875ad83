package config

import (
	"fmt"
	"log"
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	BotToken    string `env:"BOT_TOKEN,required"`
	WebhookHost string `env:"WEBHOOK_HOST"`
	Port        string `env:"PORT" envDefault:"8080"`
	MetricsAddr string `env:"METRICS_ADDR" envDefault:":9090"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	DBHost     string `env:"DB_HOST,required"`
	DBPort     string `env:"DB_PORT" envDefault:"5432"`
	DBUser     string `env:"DB_USER,required"`
	DBPassword string `env:"DB_PASSWORD,required"`
	DBName     string `env:"DB_NAME,required"`

	SudoUserIDs []int64 `env:"SUDO_USER_IDS" envSeparator:","`
	ModUserIDs  []int64 `env:"MOD_USER_IDS" envSeparator:","`

	LogChannelID    int64         `env:"LOG_CHANNEL_ID"`
	AdminCacheTTL   time.Duration `env:"ADMIN_CACHE_TTL" envDefault:"30m"`
	Workers         int           `env:"WORKERS" envDefault:"8"`
	WarnLimit       int           `env:"WARN_LIMIT" envDefault:"3"`
	NoticeTTL       time.Duration `env:"NOTICE_TTL" envDefault:"1m"`
	EnableTelemetry bool          `env:"ENABLE_TELEMETRY" envDefault:"true"`
}

func (c *Config) GetDSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName)
}

func LoadConfig() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	log.Printf("Config loaded. Port: %s, LogLevel: %s, Workers: %d", cfg.Port, cfg.LogLevel, cfg.Workers)
	return cfg, nil
}
