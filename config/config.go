package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server        ServerConfig        `mapstructure:"server"`
	Database      DatabaseConfig      `mapstructure:"database"`
	Redis         RedisConfig         `mapstructure:"redis"`
	JWT           JWTConfig           `mapstructure:"jwt"`
	Log           LogConfig           `mapstructure:"log"`
	Storage       StorageConfig       `mapstructure:"storage"`
	Ledger        LedgerConfig        `mapstructure:"ledger"`
	Bids          BidConfig           `mapstructure:"bids"`
	Notifications NotificationsConfig `mapstructure:"notifications"`
	Documents     DocumentsConfig     `mapstructure:"documents"`
	Cache         CacheConfig         `mapstructure:"cache"`
}

type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
	Mode string `mapstructure:"mode"` // debug, release, test
}

type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"dbname"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxConns        int32         `mapstructure:"max_conns"`
	MinConns        int32         `mapstructure:"min_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// DSN returns the PostgreSQL connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

// MigrateURL returns the connection string in the form golang-migrate's pgx/v5 driver expects.
func (d DatabaseConfig) MigrateURL() string {
	return "pgx5" + strings.TrimPrefix(d.DSN(), "postgres")
}

type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`

	PoolSize    int           `mapstructure:"pool_size"` // 0 = go-redis default
	DialTimeout time.Duration `mapstructure:"dial_timeout"`
}

// Addr returns the Redis address string.
func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

type JWTConfig struct {
	Secret string        `mapstructure:"secret"`
	Expiry time.Duration `mapstructure:"expiry"`
	Issuer string        `mapstructure:"issuer"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Pretty bool   `mapstructure:"pretty"` // human-readable output (dev only)
}

// StorageConfig selects the persistence driver.
type StorageConfig struct {
	Driver         string `mapstructure:"driver"` // postgres, memory
	AutoMigrate    bool   `mapstructure:"auto_migrate"`
	MigrationsPath string `mapstructure:"migrations_path"` // empty = embedded migrations
}

type LedgerConfig struct {
	DefaultCurrency string `mapstructure:"default_currency"`
}

type BidConfig struct {
	DefaultExpiry time.Duration `mapstructure:"default_expiry"`
	SweepInterval time.Duration `mapstructure:"sweep_interval"` // 0 disables the background sweep
}

type NotificationsConfig struct {
	WebhookURL string        `mapstructure:"webhook_url"` // empty disables delivery
	Secret     string        `mapstructure:"secret"`
	Timeout    time.Duration `mapstructure:"timeout"`
}

type DocumentsConfig struct {
	Backend string   `mapstructure:"backend"` // database, s3
	MaxSize int64    `mapstructure:"max_size"`
	S3      S3Config `mapstructure:"s3"`
}

type S3Config struct {
	Endpoint     string `mapstructure:"endpoint"`
	Region       string `mapstructure:"region"`
	Bucket       string `mapstructure:"bucket"`
	AccessKey    string `mapstructure:"access_key"`
	SecretKey    string `mapstructure:"secret_key"`
	UsePathStyle bool   `mapstructure:"use_path_style"`
	Prefix       string `mapstructure:"prefix"`
}

type CacheConfig struct {
	TTL time.Duration `mapstructure:"ttl"`
}

// Load reads configuration from file and environment variables.
// Environment variables override file values. Prefix: TFL_ (Trip Finance Ledger).
// Nested keys use underscore: TFL_DATABASE_HOST, TFL_JWT_SECRET, etc.
func Load(path string) (*Config, error) {
	v := viper.New()

	// Defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "debug")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "postgres")
	v.SetDefault("database.dbname", "trip_finance")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_conns", 20)
	v.SetDefault("database.min_conns", 5)
	v.SetDefault("database.conn_max_lifetime", "30m")
	v.SetDefault("redis.enabled", true)
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.pool_size", 10)
	v.SetDefault("redis.dial_timeout", "5s")
	v.SetDefault("jwt.secret", "")
	v.SetDefault("jwt.expiry", "24h")
	v.SetDefault("jwt.issuer", "trip-finance-ledger")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", false)
	v.SetDefault("storage.driver", "postgres")
	v.SetDefault("storage.auto_migrate", false)
	v.SetDefault("storage.migrations_path", "")
	v.SetDefault("ledger.default_currency", "INR")
	v.SetDefault("bids.default_expiry", "168h")
	v.SetDefault("bids.sweep_interval", "5m")
	v.SetDefault("notifications.webhook_url", "")
	v.SetDefault("notifications.secret", "")
	v.SetDefault("notifications.timeout", "10s")
	v.SetDefault("documents.backend", "database")
	v.SetDefault("documents.max_size", 5<<20)
	v.SetDefault("documents.s3.region", "us-east-1")
	v.SetDefault("documents.s3.use_path_style", true)
	v.SetDefault("documents.s3.prefix", "proofs/")
	v.SetDefault("cache.ttl", "10m")

	// File config
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	// Environment variables: TFL_DATABASE_HOST -> database.host
	v.SetEnvPrefix("TFL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file (not required, env vars can suffice)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate rejects combinations the service cannot start with.
func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case "postgres", "memory":
	default:
		return fmt.Errorf("invalid storage.driver %q: must be postgres or memory", c.Storage.Driver)
	}
	switch c.Documents.Backend {
	case "database":
	case "s3":
		if c.Documents.S3.Bucket == "" {
			return fmt.Errorf("documents.s3.bucket is required when documents.backend is s3")
		}
	default:
		return fmt.Errorf("invalid documents.backend %q: must be database or s3", c.Documents.Backend)
	}
	if len(c.Ledger.DefaultCurrency) != 3 {
		return fmt.Errorf("ledger.default_currency must be a 3-letter ISO code")
	}
	if c.Bids.DefaultExpiry <= 0 {
		return fmt.Errorf("bids.default_expiry must be positive")
	}
	return nil
}
