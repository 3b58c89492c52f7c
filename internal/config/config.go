package config

import (
	"fmt"
	"log"
	"net/url"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Port                 string        `mapstructure:"PORT"`
	Env                  string        `mapstructure:"ENV"`
	APIBaseURL           string        `mapstructure:"API_BASE_URL"`
	APITimeout           time.Duration `mapstructure:"API_TIMEOUT"`
	SessionHashKey       string        `mapstructure:"SESSION_HASH_KEY"`
	SessionBlockKey      string        `mapstructure:"SESSION_BLOCK_KEY"`
	CookieSecure         bool          `mapstructure:"COOKIE_SECURE"`
	HealthInterval       time.Duration `mapstructure:"HEALTH_INTERVAL"`
	DashboardRefresh     time.Duration `mapstructure:"DASHBOARD_REFRESH"`
	RequestTimeout       time.Duration `mapstructure:"REQUEST_TIMEOUT"`
	LoginRateLimitRPS    float64       `mapstructure:"LOGIN_RATE_LIMIT_RPS"`
	LoginRateLimitBurst  int           `mapstructure:"LOGIN_RATE_LIMIT_BURST"`
	LogLevel             string        `mapstructure:"LOG_LEVEL"`
	LogFile              string        `mapstructure:"LOG_FILE"`
	LogMaxSizeMB         int           `mapstructure:"LOG_MAX_SIZE_MB"`
	LogMaxBackups        int           `mapstructure:"LOG_MAX_BACKUPS"`
	LogMaxAgeDays        int           `mapstructure:"LOG_MAX_AGE_DAYS"`
	ReportArchive        string        `mapstructure:"REPORT_ARCHIVE"`
	S3Bucket             string        `mapstructure:"S3_BUCKET"`
	S3Region             string        `mapstructure:"S3_REGION"`
	S3Endpoint           string        `mapstructure:"S3_ENDPOINT"`
	AWSAccessKeyID       string        `mapstructure:"AWS_ACCESS_KEY_ID"`
	AWSSecretAccessKey   string        `mapstructure:"AWS_SECRET_ACCESS_KEY"`
	ReportLabDirector    string        `mapstructure:"REPORT_LAB_DIRECTOR"`
	ReportFallbackName   string        `mapstructure:"REPORT_FALLBACK_NAME"`
	ReportFallbackAddr   string        `mapstructure:"REPORT_FALLBACK_ADDRESS"`
}

var envKeys = []string{
	"PORT", "ENV", "API_BASE_URL", "API_TIMEOUT",
	"SESSION_HASH_KEY", "SESSION_BLOCK_KEY", "COOKIE_SECURE",
	"HEALTH_INTERVAL", "DASHBOARD_REFRESH", "REQUEST_TIMEOUT",
	"LOGIN_RATE_LIMIT_RPS", "LOGIN_RATE_LIMIT_BURST",
	"LOG_LEVEL", "LOG_FILE", "LOG_MAX_SIZE_MB", "LOG_MAX_BACKUPS", "LOG_MAX_AGE_DAYS",
	"REPORT_ARCHIVE", "S3_BUCKET", "S3_REGION", "S3_ENDPOINT",
	"AWS_ACCESS_KEY_ID", "AWS_SECRET_ACCESS_KEY",
	"REPORT_LAB_DIRECTOR", "REPORT_FALLBACK_NAME", "REPORT_FALLBACK_ADDRESS",
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("PORT", "3000")
	v.SetDefault("ENV", "development")
	v.SetDefault("API_BASE_URL", "https://api-rsud-amritambunan.fanscosa.co.id")
	v.SetDefault("API_TIMEOUT", "30s")
	v.SetDefault("HEALTH_INTERVAL", "30s")
	v.SetDefault("DASHBOARD_REFRESH", "3s")
	v.SetDefault("REQUEST_TIMEOUT", "45s")
	v.SetDefault("LOGIN_RATE_LIMIT_RPS", 1)
	v.SetDefault("LOGIN_RATE_LIMIT_BURST", 5)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_MAX_SIZE_MB", 10)
	v.SetDefault("LOG_MAX_BACKUPS", 3)
	v.SetDefault("LOG_MAX_AGE_DAYS", 28)
	v.SetDefault("REPORT_ARCHIVE", "none")
	v.SetDefault("S3_REGION", "ap-southeast-1")
	v.SetDefault("REPORT_LAB_DIRECTOR", "Dr. Andi Wijaya, Sp.PK")
	v.SetDefault("REPORT_FALLBACK_NAME", "RSUD Drs. H. Amri Tambunan")
	v.SetDefault("REPORT_FALLBACK_ADDRESS", "Jl. Mh. Thamrin No.126, Lubuk Pakam, Deli Serdang")

	// Bind env vars explicitly so Unmarshal picks them up
	for _, k := range envKeys {
		v.BindEnv(k)
	}

	// Try reading .env file, but don't fail if missing
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.IsDev() && cfg.SessionHashKey == "" {
		log.Println("WARNING: SESSION_HASH_KEY is empty, flash and remember-me cookies use a per-process key.")
	}

	return cfg, nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// IsProduction returns true when the server is configured for production mode.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// SecureCookies reports whether cookies must carry the Secure attribute.
func (c *Config) SecureCookies() bool {
	return c.CookieSecure || c.IsProduction()
}

// Validate checks that the configuration is safe to run.
func (c *Config) Validate() error {
	u, err := url.Parse(c.APIBaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("API_BASE_URL must be an absolute URL, got %q", c.APIBaseURL)
	}
	if c.APITimeout <= 0 {
		return fmt.Errorf("API_TIMEOUT must be positive")
	}
	if c.IsProduction() && len(c.SessionHashKey) < 32 {
		return fmt.Errorf("SESSION_HASH_KEY must be at least 32 bytes in production")
	}
	if n := len(c.SessionBlockKey); n != 0 && n != 16 && n != 24 && n != 32 {
		return fmt.Errorf("SESSION_BLOCK_KEY must be 16, 24 or 32 bytes, got %d", n)
	}

	switch c.ReportArchive {
	case "", "none", "memory":
	case "s3":
		if c.S3Bucket == "" {
			return fmt.Errorf("S3_BUCKET is required when REPORT_ARCHIVE is \"s3\"")
		}
	default:
		return fmt.Errorf("REPORT_ARCHIVE must be \"none\", \"memory\", or \"s3\", got %q", c.ReportArchive)
	}
	return nil
}
