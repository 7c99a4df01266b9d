package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/jwalitptl/postoppal-api/pkg/messaging/redis"
	"github.com/jwalitptl/postoppal-api/pkg/qrcodec"
)

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	JWT       JWTConfig       `mapstructure:"jwt"`
	QR        QRConfig        `mapstructure:"qr"`
	SMTP      SMTPConfig      `mapstructure:"smtp"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	CORS      CORSConfig      `mapstructure:"cors"`
	Security  SecurityConfig  `mapstructure:"security"`
	Log       LogConfig       `mapstructure:"log"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
}

type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	Mode            string        `mapstructure:"mode"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Name            string        `mapstructure:"name"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	AutoMigrate     bool          `mapstructure:"auto_migrate"`
}

func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host,
		c.Port,
		c.User,
		c.Password,
		c.Name,
		c.SSLMode,
	)
}

type RedisConfig struct {
	URL             string        `mapstructure:"url"`
	MaxRetries      int           `mapstructure:"max_retries"`
	RetryBackoff    time.Duration `mapstructure:"retry_backoff"`
	PoolSize        int           `mapstructure:"pool_size"`
	MinIdleConns    int           `mapstructure:"min_idle_conns"`
	BreakerFailures int           `mapstructure:"breaker_failures"`
	BreakerTimeout  time.Duration `mapstructure:"breaker_timeout"`
}

func (c *RedisConfig) ToBrokerConfig() redis.Config {
	return redis.Config{
		URL:             c.URL,
		MaxRetries:      c.MaxRetries,
		RetryBackoff:    c.RetryBackoff,
		PoolSize:        c.PoolSize,
		MinIdleConns:    c.MinIdleConns,
		BreakerFailures: c.BreakerFailures,
		BreakerTimeout:  c.BreakerTimeout,
	}
}

type JWTConfig struct {
	Secret string `mapstructure:"secret"`
	Issuer string `mapstructure:"issuer"`
}

type QRConfig struct {
	Size            int           `mapstructure:"size"`
	Margin          int           `mapstructure:"margin"`
	PrintSize       int           `mapstructure:"print_size"`
	PrintMargin     int           `mapstructure:"print_margin"`
	PrintDelay      time.Duration `mapstructure:"print_delay"`
	PrintStation    string        `mapstructure:"print_station"`
	ExpiryWindow    time.Duration `mapstructure:"expiry_window"`
	FacilityCache   time.Duration `mapstructure:"facility_cache_ttl"`
	ScanRetention   time.Duration `mapstructure:"scan_retention"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`
}

// EncoderOptions returns the on-screen raster options.
func (c QRConfig) EncoderOptions() qrcodec.Options {
	opts := qrcodec.DefaultOptions()
	opts.Size = c.Size
	opts.Margin = c.Margin
	return opts
}

// PrinterConfig returns the print document settings.
func (c QRConfig) PrinterConfig() qrcodec.PrinterConfig {
	opts := qrcodec.PrintOptions()
	opts.Size = c.PrintSize
	opts.Margin = c.PrintMargin
	return qrcodec.PrinterConfig{
		Options:      opts,
		Delay:        c.PrintDelay,
		ExpiryWindow: c.ExpiryWindow,
	}
}

type SMTPConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	From     string `mapstructure:"from"`
}

type RateLimitConfig struct {
	Enabled           bool    `mapstructure:"enabled"`
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
	Burst             int     `mapstructure:"burst"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// SecurityConfig sets the response security headers. APICSP covers JSON and
// image responses, DocumentCSP the printable HTML cards.
type SecurityConfig struct {
	HSTS           bool          `mapstructure:"hsts"`
	HSTSMaxAge     time.Duration `mapstructure:"hsts_max_age"`
	FrameOptions   string        `mapstructure:"frame_options"`
	ReferrerPolicy string        `mapstructure:"referrer_policy"`
	APICSP         []string      `mapstructure:"api_csp"`
	DocumentCSP    []string      `mapstructure:"document_csp"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
	JSON  bool   `mapstructure:"json"`
}

type MetricsConfig struct {
	Namespace string `mapstructure:"namespace"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "release")
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)
	v.SetDefault("server.shutdown_timeout", 5*time.Second)

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "")
	v.SetDefault("database.name", "postoppal")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", 5*time.Minute)
	v.SetDefault("database.auto_migrate", true)

	v.SetDefault("redis.url", "redis://localhost:6379/0")
	v.SetDefault("redis.max_retries", 3)
	v.SetDefault("redis.retry_backoff", 100*time.Millisecond)
	v.SetDefault("redis.pool_size", 10)
	v.SetDefault("redis.min_idle_conns", 2)
	v.SetDefault("redis.breaker_failures", 5)
	v.SetDefault("redis.breaker_timeout", 5*time.Second)

	v.SetDefault("jwt.secret", "")
	v.SetDefault("jwt.issuer", "postoppal")

	v.SetDefault("qr.size", 300)
	v.SetDefault("qr.margin", 2)
	v.SetDefault("qr.print_size", 400)
	v.SetDefault("qr.print_margin", 4)
	v.SetDefault("qr.print_delay", qrcodec.DefaultPrintDelay)
	v.SetDefault("qr.print_station", "")
	v.SetDefault("qr.expiry_window", qrcodec.DefaultExpiryWindow)
	v.SetDefault("qr.facility_cache_ttl", 10*time.Minute)
	v.SetDefault("qr.scan_retention", 90*24*time.Hour)
	v.SetDefault("qr.cleanup_interval", time.Hour)

	v.SetDefault("smtp.host", "localhost")
	v.SetDefault("smtp.port", 587)
	v.SetDefault("smtp.username", "")
	v.SetDefault("smtp.password", "")
	v.SetDefault("smtp.from", "no-reply@postoppal.local")

	v.SetDefault("rate_limit.enabled", true)
	v.SetDefault("rate_limit.requests_per_second", 20.0)
	v.SetDefault("rate_limit.burst", 40)

	v.SetDefault("cors.allowed_origins", []string{"*"})

	v.SetDefault("security.hsts", true)
	v.SetDefault("security.hsts_max_age", 365*24*time.Hour)
	v.SetDefault("security.frame_options", "DENY")
	v.SetDefault("security.referrer_policy", "no-referrer")
	v.SetDefault("security.api_csp", []string{"default-src 'none'", "frame-ancestors 'none'"})
	v.SetDefault("security.document_csp", []string{
		"default-src 'none'",
		"img-src data:",
		"style-src 'unsafe-inline'",
		"frame-ancestors 'none'",
	})

	v.SetDefault("log.level", "info")
	v.SetDefault("log.json", false)

	v.SetDefault("metrics.namespace", "postoppal")
}

// LoadConfig reads config.yml from paths (default ".", "./config", "/app/config"),
// then applies environment overrides such as SERVER_PORT or QR_EXPIRY_WINDOW.
// A .env file in the working directory is loaded first when present. A missing
// config file is not an error.
func LoadConfig(paths ...string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yml")
	if len(paths) == 0 {
		paths = []string{".", "./config", "/app/config"}
	}
	for _, p := range paths {
		v.AddConfigPath(p)
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

func (c *Config) Validate() error {
	if c.JWT.Secret == "" {
		return errors.New("jwt.secret is required")
	}
	if c.QR.ExpiryWindow <= 0 {
		return errors.New("qr.expiry_window must be positive")
	}
	if c.QR.Size <= 0 || c.QR.PrintSize <= 0 {
		return errors.New("qr sizes must be positive")
	}
	if c.QR.ScanRetention <= 0 {
		return errors.New("qr.scan_retention must be positive")
	}
	if c.QR.CleanupInterval <= 0 {
		return errors.New("qr.cleanup_interval must be positive")
	}
	return nil
}
