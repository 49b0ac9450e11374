package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config represents the application configuration
type Config struct {
	Port           int     `mapstructure:"port"`             // HTTP listen port
	BaseURL        string  `mapstructure:"base_url"`         // Base URL for download links
	UploadPath     string  `mapstructure:"upload_path"`      // Path to uploaded files
	SQLitePath     string  `mapstructure:"sqlite_path"`      // Path to the registry database
	CodeLength     int     `mapstructure:"code_length"`      // Length of generated short codes
	MaxSize        float64 `mapstructure:"max_size_mib"`     // Maximum upload size in MiB
	SweepInterval  int     `mapstructure:"sweep_interval_min"` // Minutes between expiration sweeps
	SweeperEnabled bool    `mapstructure:"sweeper_enabled"`  // Whether the retention sweeper runs
	StaticPath     string  `mapstructure:"static_path"`      // Optional directory of static assets
}

// Load reads configuration from config.yaml (working directory or /etc/filebox)
// with FILEBOX_* environment variables taking precedence. Missing files are
// fine; defaults cover every key.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("/etc/filebox")

	v.SetDefault("port", 8080)
	v.SetDefault("base_url", "http://localhost:8080")
	v.SetDefault("upload_path", "./uploads")
	v.SetDefault("sqlite_path", "./filebox.db")
	v.SetDefault("code_length", 6)
	v.SetDefault("max_size_mib", 512.0)
	v.SetDefault("sweep_interval_min", 60)
	v.SetDefault("sweeper_enabled", true)
	v.SetDefault("static_path", "")

	v.SetEnvPrefix("FILEBOX")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

func (c *Config) MaxSizeToBytes() int64 {
	return int64(c.MaxSize * 1024 * 1024)
}

// DownloadURL builds an absolute download link for a short code.
func (c *Config) DownloadURL(code string) string {
	return strings.TrimSuffix(c.BaseURL, "/") + "/" + code
}
