package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App       AppConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Log       LogConfig
	HTTP      HTTPConfig
	Sync      SyncConfig
	Platforms PlatformsConfig
	Scheduler SchedulerConfig
	Webhook   WebhookConfig
}

// AppConfig holds application-specific settings
type AppConfig struct {
	Name string
	Env  string
	Port string
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int // in minutes
	ConnMaxIdleTime int // in minutes
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output string // stdout, stderr, or file path
}

// HTTPConfig holds HTTP server configuration
type HTTPConfig struct {
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	MaxHeaderBytes    int
	MaxBodySize       int64
	RateLimitEnabled  bool
	RateLimitRequests int
	RateLimitWindow   time.Duration
	TrustedProxies    []string
}

// SyncConfig holds batch synchronization tuning
type SyncConfig struct {
	PageSize         int
	Workers          int
	FailureThreshold float64
	TieBreak         string // "A" or "B"
	RetryMaxAttempts int
	RetryBaseDelay   time.Duration
	RetryMaxDelay    time.Duration
}

// PlatformConfig holds the connection settings for one platform
type PlatformConfig struct {
	BaseURL           string
	APIKey            string
	APISecret         string
	WebhookSecret     string
	Timeout           time.Duration
	RequestsPerSecond float64
	Burst             int
}

// PlatformsConfig holds both platform connections
type PlatformsConfig struct {
	SupplyHub PlatformConfig
	Posify    PlatformConfig
}

// SchedulerConfig holds the periodic sync scheduler configuration
type SchedulerConfig struct {
	Enabled           bool
	OrderCronSchedule string
	InventoryCron     string
	RecoveryOnStart   bool
	JobTimeout        time.Duration
}

// WebhookConfig holds webhook ingestion configuration
type WebhookConfig struct {
	DedupTTL time.Duration
}

// Load loads configuration from TOML file and environment variables
// Priority (highest to lowest):
// 1. Environment variables with ORDERBRIDGE_ prefix (e.g., ORDERBRIDGE_DATABASE_PASSWORD)
// 2. config.toml
// 3. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()

	// Set config file settings
	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/app")

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, we'll use defaults and env vars
	}

	// Enable environment variable override
	v.SetEnvPrefix("ORDERBRIDGE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Build config struct
	cfg := &Config{
		App: AppConfig{
			Name: v.GetString("app.name"),
			Env:  v.GetString("app.env"),
			Port: v.GetString("app.port"),
		},
		Database: DatabaseConfig{
			Host:            v.GetString("database.host"),
			Port:            v.GetInt("database.port"),
			User:            v.GetString("database.user"),
			Password:        v.GetString("database.password"),
			DBName:          v.GetString("database.dbname"),
			SSLMode:         v.GetString("database.sslmode"),
			MaxOpenConns:    v.GetInt("database.max_open_conns"),
			MaxIdleConns:    v.GetInt("database.max_idle_conns"),
			ConnMaxLifetime: v.GetInt("database.conn_max_lifetime"),
			ConnMaxIdleTime: v.GetInt("database.conn_max_idle_time"),
		},
		Redis: RedisConfig{
			Host:     v.GetString("redis.host"),
			Port:     v.GetInt("redis.port"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		HTTP: HTTPConfig{
			ReadTimeout:       v.GetDuration("http.read_timeout"),
			WriteTimeout:      v.GetDuration("http.write_timeout"),
			IdleTimeout:       v.GetDuration("http.idle_timeout"),
			MaxHeaderBytes:    v.GetInt("http.max_header_bytes"),
			MaxBodySize:       v.GetInt64("http.max_body_size"),
			RateLimitEnabled:  v.GetBool("http.rate_limit_enabled"),
			RateLimitRequests: v.GetInt("http.rate_limit_requests"),
			RateLimitWindow:   v.GetDuration("http.rate_limit_window"),
			TrustedProxies:    v.GetStringSlice("http.trusted_proxies"),
		},
		Sync: SyncConfig{
			PageSize:         v.GetInt("sync.page_size"),
			Workers:          v.GetInt("sync.workers"),
			FailureThreshold: v.GetFloat64("sync.failure_threshold"),
			TieBreak:         v.GetString("sync.tie_break"),
			RetryMaxAttempts: v.GetInt("sync.retry_max_attempts"),
			RetryBaseDelay:   v.GetDuration("sync.retry_base_delay"),
			RetryMaxDelay:    v.GetDuration("sync.retry_max_delay"),
		},
		Platforms: PlatformsConfig{
			SupplyHub: PlatformConfig{
				BaseURL:           v.GetString("platforms.supplyhub.base_url"),
				APIKey:            v.GetString("platforms.supplyhub.api_key"),
				APISecret:         v.GetString("platforms.supplyhub.api_secret"),
				WebhookSecret:     v.GetString("platforms.supplyhub.webhook_secret"),
				Timeout:           v.GetDuration("platforms.supplyhub.timeout"),
				RequestsPerSecond: v.GetFloat64("platforms.supplyhub.requests_per_second"),
				Burst:             v.GetInt("platforms.supplyhub.burst"),
			},
			Posify: PlatformConfig{
				BaseURL:           v.GetString("platforms.posify.base_url"),
				APIKey:            v.GetString("platforms.posify.api_key"),
				APISecret:         v.GetString("platforms.posify.api_secret"),
				WebhookSecret:     v.GetString("platforms.posify.webhook_secret"),
				Timeout:           v.GetDuration("platforms.posify.timeout"),
				RequestsPerSecond: v.GetFloat64("platforms.posify.requests_per_second"),
				Burst:             v.GetInt("platforms.posify.burst"),
			},
		},
		Scheduler: SchedulerConfig{
			Enabled:           v.GetBool("scheduler.enabled"),
			OrderCronSchedule: v.GetString("scheduler.order_cron_schedule"),
			InventoryCron:     v.GetString("scheduler.inventory_cron_schedule"),
			RecoveryOnStart:   v.GetBool("scheduler.recovery_on_start"),
			JobTimeout:        v.GetDuration("scheduler.job_timeout"),
		},
		Webhook: WebhookConfig{
			DedupTTL: v.GetDuration("webhook.dedup_ttl"),
		},
	}

	// Apply defaults for empty values
	applyDefaults(cfg)

	// Validate configuration
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyDefaults sets default values for any empty config fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "orderbridge"
	}
	if cfg.App.Env == "" {
		cfg.App.Env = "development"
	}
	if cfg.App.Port == "" {
		cfg.App.Port = "8080"
	}
	if cfg.Database.Host == "" {
		cfg.Database.Host = "localhost"
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}
	if cfg.Database.User == "" {
		cfg.Database.User = "postgres"
	}
	if cfg.Database.DBName == "" {
		cfg.Database.DBName = "orderbridge"
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 25
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = 5
	}
	if cfg.Database.ConnMaxLifetime == 0 {
		cfg.Database.ConnMaxLifetime = 60
	}
	if cfg.Database.ConnMaxIdleTime == 0 {
		cfg.Database.ConnMaxIdleTime = 30
	}
	if cfg.Redis.Host == "" {
		cfg.Redis.Host = "localhost"
	}
	if cfg.Redis.Port == 0 {
		cfg.Redis.Port = 6379
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}
	if cfg.Log.Output == "" {
		cfg.Log.Output = "stdout"
	}
	if cfg.HTTP.ReadTimeout == 0 {
		cfg.HTTP.ReadTimeout = 15 * time.Second
	}
	if cfg.HTTP.WriteTimeout == 0 {
		cfg.HTTP.WriteTimeout = 15 * time.Second
	}
	if cfg.HTTP.IdleTimeout == 0 {
		cfg.HTTP.IdleTimeout = 60 * time.Second
	}
	if cfg.HTTP.MaxHeaderBytes == 0 {
		cfg.HTTP.MaxHeaderBytes = 1 << 20 // 1MB
	}
	if cfg.HTTP.MaxBodySize == 0 {
		cfg.HTTP.MaxBodySize = 10 << 20 // 10MB
	}
	if cfg.HTTP.RateLimitRequests == 0 {
		cfg.HTTP.RateLimitRequests = 100
	}
	if cfg.HTTP.RateLimitWindow == 0 {
		cfg.HTTP.RateLimitWindow = time.Minute
	}
	if cfg.Sync.PageSize == 0 {
		cfg.Sync.PageSize = 50
	}
	if cfg.Sync.Workers == 0 {
		cfg.Sync.Workers = 4
	}
	if cfg.Sync.FailureThreshold == 0 {
		cfg.Sync.FailureThreshold = 0.1
	}
	if cfg.Sync.TieBreak == "" {
		cfg.Sync.TieBreak = "A"
	}
	if cfg.Sync.RetryMaxAttempts == 0 {
		cfg.Sync.RetryMaxAttempts = 4
	}
	if cfg.Sync.RetryBaseDelay == 0 {
		cfg.Sync.RetryBaseDelay = 200 * time.Millisecond
	}
	if cfg.Sync.RetryMaxDelay == 0 {
		cfg.Sync.RetryMaxDelay = 10 * time.Second
	}
	applyPlatformDefaults(&cfg.Platforms.SupplyHub)
	applyPlatformDefaults(&cfg.Platforms.Posify)
	if cfg.Scheduler.OrderCronSchedule == "" {
		cfg.Scheduler.OrderCronSchedule = "*/15 * * * *"
	}
	if cfg.Scheduler.InventoryCron == "" {
		cfg.Scheduler.InventoryCron = "0 * * * *"
	}
	if cfg.Scheduler.JobTimeout == 0 {
		cfg.Scheduler.JobTimeout = 30 * time.Minute
	}
	if cfg.Webhook.DedupTTL == 0 {
		cfg.Webhook.DedupTTL = 24 * time.Hour
	}
}

func applyPlatformDefaults(p *PlatformConfig) {
	if p.Timeout == 0 {
		p.Timeout = 30 * time.Second
	}
	if p.RequestsPerSecond == 0 {
		p.RequestsPerSecond = 5
	}
	if p.Burst == 0 {
		p.Burst = 10
	}
}

// validate performs validation on the configuration
func (c *Config) validate() error {
	// Validate connection pool settings
	if c.Database.MaxOpenConns <= 0 {
		return fmt.Errorf("database.max_open_conns must be positive")
	}
	if c.Database.MaxIdleConns < 0 {
		return fmt.Errorf("database.max_idle_conns cannot be negative")
	}
	if c.Database.MaxIdleConns > c.Database.MaxOpenConns {
		return fmt.Errorf("database.max_idle_conns (%d) cannot exceed database.max_open_conns (%d)",
			c.Database.MaxIdleConns, c.Database.MaxOpenConns)
	}

	if c.Sync.TieBreak != "A" && c.Sync.TieBreak != "B" {
		return fmt.Errorf("sync.tie_break must be \"A\" or \"B\", got %q", c.Sync.TieBreak)
	}
	if c.Sync.FailureThreshold < 0 || c.Sync.FailureThreshold > 1 {
		return fmt.Errorf("sync.failure_threshold must be between 0.0 and 1.0, got %f", c.Sync.FailureThreshold)
	}

	// Production-specific validations
	if c.App.Env == "production" {
		if c.Database.Password == "" {
			return fmt.Errorf("database.password is required in production")
		}
		if c.Database.SSLMode == "disable" {
			return fmt.Errorf("database.sslmode cannot be 'disable' in production")
		}
		if c.Platforms.SupplyHub.APIKey == "" || c.Platforms.Posify.APIKey == "" {
			return fmt.Errorf("platform API keys are required in production")
		}
		if c.Platforms.SupplyHub.WebhookSecret == "" || c.Platforms.Posify.WebhookSecret == "" {
			return fmt.Errorf("platform webhook secrets are required in production")
		}
	}

	return nil
}

// DSN returns the database connection string with properly escaped values
func (d *DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(d.User, d.Password),
		Host:   fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:   d.DBName,
	}
	q := u.Query()
	q.Set("sslmode", d.SSLMode)
	u.RawQuery = q.Encode()
	return u.String()
}
