package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"go.uber.org/config"
)

type Config struct {
	Service       ServiceConfig       `yaml:"service"`
	GRPC          GRPCConfig          `yaml:"grpc"`
	HTTP          HTTPConfig          `yaml:"http"`
	Storage       StorageConfig       `yaml:"storage"`
	Database      DatabaseConfig      `yaml:"database"`
	SQLite        SQLiteConfig        `yaml:"sqlite"`
	Redis         RedisConfig         `yaml:"redis"`
	Kafka         KafkaConfig         `yaml:"kafka"`
	SMTP          SMTPConfig          `yaml:"smtp"`
	Identity      IdentityConfig      `yaml:"identity"`
	Streak        StreakConfig        `yaml:"streak"`
	Notifications NotificationsConfig `yaml:"notifications"`
	Reminders     RemindersConfig     `yaml:"reminders"`
	Logging       LoggingConfig       `yaml:"logging"`
}

type ServiceConfig struct {
	Name        string `yaml:"name"`
	Environment string `yaml:"environment"`
	Version     string `yaml:"version"`
}

type GRPCConfig struct {
	Enabled bool `yaml:"enabled"`
	Port    int  `yaml:"port"`
}

type HTTPConfig struct {
	Enabled            bool          `yaml:"enabled"`
	Port               int           `yaml:"port"`
	ReadHeaderTimeout  time.Duration `yaml:"read_header_timeout"`
	RateLimitPerMinute int           `yaml:"rate_limit_per_minute"` // per client IP, 0 disables
}

// StorageConfig selects the habit repository backend: postgres, sqlite or memory
type StorageConfig struct {
	Driver    string        `yaml:"driver"`
	CacheSize int           `yaml:"cache_size"`
	CacheTTL  time.Duration `yaml:"cache_ttl"` // how long another instance's writes can stay unseen
}

type DatabaseConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	Database        string        `yaml:"database"`
	SSLMode         string        `yaml:"ssl_mode"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
}

type SQLiteConfig struct {
	Path string `yaml:"path"`
}

type RedisConfig struct {
	Enabled      bool          `yaml:"enabled"`
	Addr         string        `yaml:"addr"`
	Password     string        `yaml:"password"`
	DB           int           `yaml:"db"`
	SessionDB    int           `yaml:"session_db"`
	MaxRetries   int           `yaml:"max_retries"`
	PoolSize     int           `yaml:"pool_size"`
	MinIdleConns int           `yaml:"min_idle_conns"`
	DialTimeout  time.Duration `yaml:"dial_timeout"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

type KafkaConfig struct {
	Enabled           bool     `yaml:"enabled"`
	Brokers           []string `yaml:"brokers"`
	CompletionTopic   string   `yaml:"completion_topic"`
	ReminderTopic     string   `yaml:"reminder_topic"`
	NotificationTopic string   `yaml:"notification_topic"`
	GroupID           string   `yaml:"group_id"`
}

type SMTPConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Host      string `yaml:"host"`
	Port      int    `yaml:"port"`
	Username  string `yaml:"username"`
	Password  string `yaml:"password"`
	FromEmail string `yaml:"from_email"`
	FromName  string `yaml:"from_name"`
	To        string `yaml:"to"`
	UseTLS    bool   `yaml:"use_tls"`
}

type IdentityConfig struct {
	JWTSecret string `yaml:"jwt_secret"`
	Issuer    string `yaml:"issuer"`
	// Checks the token's session in Redis when Redis is enabled
	RequireSession bool `yaml:"require_session"`
	// Honors X-User-ID / x-user-id from callers; only behind a trusted gateway
	TrustUserHeader bool `yaml:"trust_user_header"`
}

type StreakConfig struct {
	MilestoneInterval int `yaml:"milestone_interval"`
	GapResetDays      int `yaml:"gap_reset_days"`
	WindowDays        int `yaml:"window_days"`
}

type NotificationsConfig struct {
	DedupBackend      string        `yaml:"dedup_backend"`
	SuppressionWindow time.Duration `yaml:"suppression_window"`
	QueueSize         int           `yaml:"queue_size"`
	Workers           int           `yaml:"workers"`
}

type RemindersConfig struct {
	Enabled       bool               `yaml:"enabled"`
	SweepInterval time.Duration      `yaml:"sweep_interval"`
	Schedules     []ReminderSchedule `yaml:"schedules"`
}

// ReminderSchedule is a statically configured reminder
type ReminderSchedule struct {
	HabitID             string `yaml:"habit_id"`
	UserID              string `yaml:"user_id"`
	Title               string `yaml:"title"`
	At                  string `yaml:"at"`
	Frequency           string `yaml:"frequency"`
	Weekday             int    `yaml:"weekday"`      // weekly, 0 is Sunday
	DayOfMonth          int    `yaml:"day_of_month"` // monthly, 1-31
	TimezoneOffsetHours int32  `yaml:"timezone_offset_hours"`
}

type LoggingConfig struct {
	Level      string `yaml:"level"`
	Format     string `yaml:"format"`
	OutputPath string `yaml:"output_path"`
}

// Load loads configuration from YAML file with environment variable overrides
func Load() (*Config, error) {
	return LoadFile(Path())
}

// Path returns the config file path from CONFIG_PATH or the default location
func Path() string {
	return getEnv("CONFIG_PATH", "./config/base.yaml")
}

// LoadFile loads configuration from the given YAML file with environment variable overrides
func LoadFile(configPath string) (*Config, error) {
	provider, err := config.NewYAML(
		config.File(configPath),
		config.Expand(os.LookupEnv),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create config provider: %w", err)
	}

	cfg := Default()
	if err := provider.Get(config.Root).Populate(cfg); err != nil {
		return nil, fmt.Errorf("failed to populate config: %w", err)
	}

	// Override with environment variables
	cfg.overrideFromEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Default returns the configuration used for keys absent from the file
func Default() *Config {
	return &Config{
		Service: ServiceConfig{Name: "streak-service", Environment: "development"},
		GRPC:    GRPCConfig{Enabled: true, Port: 50053},
		HTTP:    HTTPConfig{Enabled: true, Port: 8083, ReadHeaderTimeout: 5 * time.Second, RateLimitPerMinute: 120},
		Storage: StorageConfig{Driver: "postgres", CacheSize: 10000, CacheTTL: time.Minute},
		Database: DatabaseConfig{
			Host:    "localhost",
			Port:    5432,
			SSLMode: "disable",
		},
		SQLite: SQLiteConfig{Path: "./data/streaks.db"},
		Kafka: KafkaConfig{
			CompletionTopic:   "habit-completions",
			ReminderTopic:     "habit-reminders",
			NotificationTopic: "habit-notifications",
			GroupID:           "streak-service",
		},
		Identity: IdentityConfig{Issuer: "habit-tracker"},
		Streak: StreakConfig{
			MilestoneInterval: 7,
			GapResetDays:      2,
			WindowDays:        30,
		},
		Notifications: NotificationsConfig{
			DedupBackend:      "memory",
			SuppressionWindow: 24 * time.Hour,
			QueueSize:         256,
			Workers:           2,
		},
		Reminders: RemindersConfig{SweepInterval: time.Minute},
		Logging:   LoggingConfig{Level: "info", Format: "text"},
	}
}

// Validate checks values that cannot be defaulted
func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case "postgres", "sqlite", "memory":
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}

	switch c.Notifications.DedupBackend {
	case "memory":
	case "redis":
		if !c.Redis.Enabled {
			return fmt.Errorf("dedup_backend redis requires redis.enabled")
		}
	default:
		return fmt.Errorf("unknown dedup backend %q", c.Notifications.DedupBackend)
	}

	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers is required when kafka is enabled")
	}

	if c.Streak.MilestoneInterval <= 0 {
		return fmt.Errorf("streak.milestone_interval must be positive")
	}

	if c.Streak.GapResetDays < 2 {
		return fmt.Errorf("streak.gap_reset_days must be at least 2")
	}

	if c.Streak.WindowDays < c.Streak.GapResetDays {
		return fmt.Errorf("streak.window_days must be at least gap_reset_days")
	}

	for i, r := range c.Reminders.Schedules {
		if r.Weekday < 0 || r.Weekday > 6 {
			return fmt.Errorf("reminders.schedules[%d].weekday must be 0-6", i)
		}
		if r.DayOfMonth < 0 || r.DayOfMonth > 31 {
			return fmt.Errorf("reminders.schedules[%d].day_of_month must be 1-31", i)
		}
		if r.TimezoneOffsetHours < -12 || r.TimezoneOffsetHours > 14 {
			return fmt.Errorf("reminders.schedules[%d].timezone_offset_hours must be -12..14", i)
		}
	}

	return nil
}

// overrideFromEnv overrides config values with environment variables if present
func (c *Config) overrideFromEnv() {
	if val := os.Getenv("SERVICE_NAME"); val != "" {
		c.Service.Name = val
	}
	if val := os.Getenv("SERVICE_ENVIRONMENT"); val != "" {
		c.Service.Environment = val
	}
	if val := os.Getenv("STORAGE_DRIVER"); val != "" {
		c.Storage.Driver = val
	}
	if val := os.Getenv("DATABASE_HOST"); val != "" {
		c.Database.Host = val
	}
	if val := os.Getenv("DATABASE_PORT"); val != "" {
		fmt.Sscanf(val, "%d", &c.Database.Port)
	}
	if val := os.Getenv("DATABASE_USER"); val != "" {
		c.Database.User = val
	}
	if val := os.Getenv("DATABASE_PASSWORD"); val != "" {
		c.Database.Password = val
	}
	if val := os.Getenv("DATABASE_NAME"); val != "" {
		c.Database.Database = val
	}
	if val := os.Getenv("DATABASE_SSL_MODE"); val != "" {
		c.Database.SSLMode = val
	}
	if val := os.Getenv("SQLITE_PATH"); val != "" {
		c.SQLite.Path = val
	}
	if val := os.Getenv("REDIS_ADDR"); val != "" {
		c.Redis.Addr = val
	}
	if val := os.Getenv("REDIS_PASSWORD"); val != "" {
		c.Redis.Password = val
	}
	if val := os.Getenv("REDIS_DB"); val != "" {
		fmt.Sscanf(val, "%d", &c.Redis.DB)
	}
	if val := os.Getenv("KAFKA_BROKER"); val != "" {
		c.Kafka.Brokers = strings.Split(val, ",")
	}
	if val := os.Getenv("SMTP_HOST"); val != "" {
		c.SMTP.Host = val
	}
	if val := os.Getenv("SMTP_PORT"); val != "" {
		fmt.Sscanf(val, "%d", &c.SMTP.Port)
	}
	if val := os.Getenv("SMTP_USERNAME"); val != "" {
		c.SMTP.Username = val
	}
	if val := os.Getenv("SMTP_PASSWORD"); val != "" {
		c.SMTP.Password = val
	}
	if val := os.Getenv("SMTP_USE_TLS"); val != "" {
		if useTLS, err := strconv.ParseBool(val); err == nil {
			c.SMTP.UseTLS = useTLS
		}
	}
	if val := os.Getenv("JWT_SECRET"); val != "" {
		c.Identity.JWTSecret = val
	}
	if val := os.Getenv("TRUST_USER_HEADER"); val != "" {
		if trust, err := strconv.ParseBool(val); err == nil {
			c.Identity.TrustUserHeader = trust
		}
	}
	if val := os.Getenv("MILESTONE_INTERVAL"); val != "" {
		fmt.Sscanf(val, "%d", &c.Streak.MilestoneInterval)
	}
	if val := os.Getenv("LOG_LEVEL"); val != "" {
		c.Logging.Level = val
	}
}

// GetDSN returns PostgreSQL connection string in URL format for pgx/v5
func (c *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User,
		c.Password,
		c.Host,
		c.Port,
		c.Database,
		c.SSLMode,
	)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
