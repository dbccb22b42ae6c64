package config

import (
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Auth    AuthConfig    `mapstructure:"auth"`
	Scraper ScraperConfig `mapstructure:"scraper"`
	Export  ExportConfig  `mapstructure:"export"`
	Log     LogConfig     `mapstructure:"log"`
}

type ServerConfig struct {
	Port int    `mapstructure:"port"`
	Mode string `mapstructure:"mode"`
}

type AuthConfig struct {
	// APIKey enables the shared-secret X-API-KEY check on every route
	// when non-empty.
	APIKey string `mapstructure:"api_key"`
}

type ScraperConfig struct {
	TimeoutSeconds    int `mapstructure:"timeout_seconds"`
	RetryCount        int `mapstructure:"retry_count"`
	ChannelWindowDays int `mapstructure:"channel_window_days"`
}

type ExportConfig struct {
	TranscriptsDir string `mapstructure:"transcripts_dir"`
}

type LogConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	File       string `mapstructure:"file"`
	MaxSize    int    `mapstructure:"max_size"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"`
	Compress   bool   `mapstructure:"compress"`
}

func Load(configPath string) (*Config, error) {
	// Load .env file if exists
	_ = godotenv.Load()

	v := viper.New()

	// Set config file path
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
	}

	// Enable environment variable override
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Set defaults
	v.SetDefault("server.port", 5001)
	v.SetDefault("server.mode", "debug")
	v.SetDefault("scraper.timeout_seconds", 60)
	v.SetDefault("scraper.retry_count", 2)
	v.SetDefault("scraper.channel_window_days", 365)
	v.SetDefault("export.transcripts_dir", "./transcripts")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("log.max_size", 100)
	v.SetDefault("log.max_backups", 7)
	v.SetDefault("log.max_age", 30)
	v.SetDefault("log.compress", true)

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Bind environment variables explicitly for sensitive data
	v.BindEnv("auth.api_key", "API_KEY")
	v.BindEnv("server.port", "PORT")
	v.BindEnv("export.transcripts_dir", "TRANSCRIPTS_DIR")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}
