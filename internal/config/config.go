package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var (
	ErrMissingAPIPort      = errors.New("api.port is required")
	ErrMissingPostgresHost = errors.New("postgres.host is required")
	ErrMissingPostgresName = errors.New("postgres.name is required")
	ErrBadTimeRange        = errors.New("events.default_time_range must be one of future, past, all")
	ErrBadCacheTTL         = errors.New("events.cache_ttl must be a positive duration")
)

type APIConfig struct {
	Environment        string   `mapstructure:"environment"`
	Port               string   `mapstructure:"port"`
	BaseURL            string   `mapstructure:"base_url"`
	AllowedCORSDomains []string `mapstructure:"allowed_cors_domains"`
	AdminSecretHash    string   `mapstructure:"admin_secret_hash"`
}

type GinConfig struct {
	Mode string `mapstructure:"mode"`
}

type PostgresConfig struct {
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	SSLMode  string `mapstructure:"ssl_mode"`
}

// CalendarConfig describes one public Google Calendar the app syncs from.
type CalendarConfig struct {
	URL     string `mapstructure:"url"`
	Name    string `mapstructure:"name"`
	Enabled bool   `mapstructure:"enabled"`
}

type EventsConfig struct {
	AutoFetch        bool          `mapstructure:"auto_fetch"`
	DefaultTimeRange string        `mapstructure:"default_time_range"`
	CacheTTL         time.Duration `mapstructure:"cache_ttl"`
}

type StripeConfig struct {
	SecretKey  string `mapstructure:"secret_key"`
	SuccessURL string `mapstructure:"success_url"`
	CancelURL  string `mapstructure:"cancel_url"`
}

type AppConfig struct {
	API       *APIConfig       `mapstructure:"api"`
	Gin       *GinConfig       `mapstructure:"gin"`
	Postgres  *PostgresConfig  `mapstructure:"postgres"`
	Calendars []CalendarConfig `mapstructure:"calendars"`
	Events    *EventsConfig    `mapstructure:"events"`
	Stripe    *StripeConfig    `mapstructure:"stripe"`
}

// Load reads the YAML config at path, applies GATHERHUB_* environment
// overrides and fails fast when required fields are absent.
func Load(path string) (*AppConfig, error) {
	viper.SetConfigFile(path)
	viper.SetEnvPrefix("GATHERHUB")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("viper.ReadInConfig -> %w", err)
	}

	var conf AppConfig
	if err := viper.Unmarshal(&conf); err != nil {
		return nil, fmt.Errorf("viper.Unmarshal -> %w", err)
	}

	if err := conf.Validate(); err != nil {
		return nil, err
	}

	viper.OnConfigChange(func(e fsnotify.Event) {
		zap.L().Info("config file changed. restart to apply", zap.String("file", e.Name))
	})
	viper.WatchConfig()

	return &conf, nil
}

func (c *AppConfig) Validate() error {
	if c.API == nil || c.API.Port == "" {
		return ErrMissingAPIPort
	}
	if c.Postgres == nil || c.Postgres.Host == "" {
		return ErrMissingPostgresHost
	}
	if c.Postgres.Name == "" {
		return ErrMissingPostgresName
	}

	if c.Events == nil {
		c.Events = &EventsConfig{}
	}
	switch c.Events.DefaultTimeRange {
	case "future", "past", "all":
	case "":
		c.Events.DefaultTimeRange = "future"
	default:
		return ErrBadTimeRange
	}
	if c.Events.CacheTTL == 0 {
		c.Events.CacheTTL = 5 * time.Minute
	}
	if c.Events.CacheTTL < 0 {
		return ErrBadCacheTTL
	}

	if c.Gin == nil {
		c.Gin = &GinConfig{}
	}
	if c.Gin.Mode == "" {
		c.Gin.Mode = "release"
	}
	if c.Stripe == nil {
		c.Stripe = &StripeConfig{}
	}

	return nil
}
