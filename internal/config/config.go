package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server     ServerConfig
	DB         DBConfig
	S3         S3Config
	Extractor  ExtractorConfig
	Normalizer NormalizerConfig
	Batch      BatchConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port         string        `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	Environment  string        `mapstructure:"environment"`
}

// DBConfig holds PostgreSQL connection settings.
type DBConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	SSLMode  string `mapstructure:"sslmode"`
	MaxOpen  int    `mapstructure:"max_open"`
	MaxIdle  int    `mapstructure:"max_idle"`
}

// DSN returns the PostgreSQL connection string.
func (d *DBConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode,
	)
}

// S3Config holds document image store settings.
type S3Config struct {
	Region            string `mapstructure:"region"`
	Bucket            string `mapstructure:"bucket"`
	Endpoint          string `mapstructure:"endpoint"`
	AccessKey         string `mapstructure:"access_key"`
	SecretKey         string `mapstructure:"secret_key"`
	MaxFileSizeMB     int64  `mapstructure:"max_file_size_mb"`
	PresignExpirySecs int64  `mapstructure:"presign_expiry_secs"`
}

// MaxFileSizeBytes returns the upload ceiling in bytes.
func (s *S3Config) MaxFileSizeBytes() int64 {
	return s.MaxFileSizeMB * 1024 * 1024
}

// ExtractorProviderConfig holds settings for a single extraction provider.
type ExtractorProviderConfig struct {
	Provider     string `mapstructure:"provider"`
	APIKey       string `mapstructure:"api_key"`
	DefaultModel string `mapstructure:"default_model"`
	Region       string `mapstructure:"region"`
	TimeoutSecs  int    `mapstructure:"timeout_secs"`
}

// CategoryPolicy decides whether a model-supplied category is kept or
// always re-derived from the order-ID prefix rule.
type CategoryPolicy string

const (
	// CategoryTrustModel keeps the model's category and falls back to the
	// prefix rule only when the model omitted it.
	CategoryTrustModel CategoryPolicy = "trust-model"
	// CategoryTrustPrefix re-derives the category from the order-ID prefix
	// unconditionally.
	CategoryTrustPrefix CategoryPolicy = "trust-prefix"
)

// ExtractorConfig holds extraction settings with multi-provider fallback.
type ExtractorConfig struct {
	Primary   ExtractorProviderConfig `mapstructure:"primary"`
	Secondary ExtractorProviderConfig `mapstructure:"secondary"`
	Tertiary  ExtractorProviderConfig `mapstructure:"tertiary"`

	MaxAttempts    int            `mapstructure:"max_attempts"`
	BackoffBase    time.Duration  `mapstructure:"backoff_base"`
	CategoryPolicy CategoryPolicy `mapstructure:"category_policy"`
}

// Providers returns the configured provider configs in fallback order.
func (e *ExtractorConfig) Providers() []*ExtractorProviderConfig {
	var out []*ExtractorProviderConfig
	for _, p := range []*ExtractorProviderConfig{&e.Primary, &e.Secondary, &e.Tertiary} {
		if p.Provider != "" {
			out = append(out, p)
		}
	}
	return out
}

// NormalizerConfig holds image pre-processing settings.
type NormalizerConfig struct {
	// Profile selects the deployment behavior: "ocr" always re-encodes
	// with the enhancement passes, "size-only" acts only above the byte
	// ceiling.
	Profile      string `mapstructure:"profile"`
	MaxBytes     int    `mapstructure:"max_bytes"`
	MinDim       int    `mapstructure:"min_dim"`
	MaxDim       int    `mapstructure:"max_dim"`
	QualityFloor int    `mapstructure:"quality_floor"`
	QualityStep  int    `mapstructure:"quality_step"`
}

// BatchConfig holds batch orchestrator settings.
type BatchConfig struct {
	Concurrency int `mapstructure:"concurrency"`
}

// Load reads configuration from environment variables with defaults.
func Load() (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("OSHIKAKE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Server defaults
	v.SetDefault("server.port", ":8080")
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "15s")
	v.SetDefault("server.environment", "development")

	// Database defaults
	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", 5432)
	v.SetDefault("db.user", "oshikake")
	v.SetDefault("db.password", "")
	v.SetDefault("db.name", "oshikake")
	v.SetDefault("db.sslmode", "disable")
	v.SetDefault("db.max_open", 10)
	v.SetDefault("db.max_idle", 5)

	// S3 defaults
	v.SetDefault("s3.region", "us-west-2")
	v.SetDefault("s3.bucket", "")
	v.SetDefault("s3.endpoint", "")
	v.SetDefault("s3.access_key", "")
	v.SetDefault("s3.secret_key", "")
	v.SetDefault("s3.max_file_size_mb", 5)
	v.SetDefault("s3.presign_expiry_secs", 900)

	// Extractor defaults: single Bedrock provider, no retry.
	v.SetDefault("extractor.primary.provider", "bedrock")
	v.SetDefault("extractor.primary.region", "us-west-2")
	v.SetDefault("extractor.max_attempts", 1)
	v.SetDefault("extractor.backoff_base", "2s")
	v.SetDefault("extractor.category_policy", string(CategoryTrustModel))

	// Normalizer defaults
	v.SetDefault("normalizer.profile", "ocr")
	v.SetDefault("normalizer.max_bytes", 4*1024*1024)
	v.SetDefault("normalizer.min_dim", 800)
	v.SetDefault("normalizer.max_dim", 1600)
	v.SetDefault("normalizer.quality_floor", 40)
	v.SetDefault("normalizer.quality_step", 10)

	// Batch defaults
	v.SetDefault("batch.concurrency", 4)

	cfg := &Config{}

	cfg.Server = ServerConfig{
		Port:         v.GetString("server.port"),
		ReadTimeout:  v.GetDuration("server.read_timeout"),
		WriteTimeout: v.GetDuration("server.write_timeout"),
		Environment:  v.GetString("server.environment"),
	}

	cfg.DB = DBConfig{
		Host:     v.GetString("db.host"),
		Port:     v.GetInt("db.port"),
		User:     v.GetString("db.user"),
		Password: v.GetString("db.password"),
		Name:     v.GetString("db.name"),
		SSLMode:  v.GetString("db.sslmode"),
		MaxOpen:  v.GetInt("db.max_open"),
		MaxIdle:  v.GetInt("db.max_idle"),
	}

	cfg.S3 = S3Config{
		Region:            v.GetString("s3.region"),
		Bucket:            v.GetString("s3.bucket"),
		Endpoint:          v.GetString("s3.endpoint"),
		AccessKey:         v.GetString("s3.access_key"),
		SecretKey:         v.GetString("s3.secret_key"),
		MaxFileSizeMB:     v.GetInt64("s3.max_file_size_mb"),
		PresignExpirySecs: v.GetInt64("s3.presign_expiry_secs"),
	}

	cfg.Extractor = ExtractorConfig{
		Primary:        readProvider(v, "extractor.primary"),
		Secondary:      readProvider(v, "extractor.secondary"),
		Tertiary:       readProvider(v, "extractor.tertiary"),
		MaxAttempts:    v.GetInt("extractor.max_attempts"),
		BackoffBase:    v.GetDuration("extractor.backoff_base"),
		CategoryPolicy: CategoryPolicy(v.GetString("extractor.category_policy")),
	}

	cfg.Normalizer = NormalizerConfig{
		Profile:      v.GetString("normalizer.profile"),
		MaxBytes:     v.GetInt("normalizer.max_bytes"),
		MinDim:       v.GetInt("normalizer.min_dim"),
		MaxDim:       v.GetInt("normalizer.max_dim"),
		QualityFloor: v.GetInt("normalizer.quality_floor"),
		QualityStep:  v.GetInt("normalizer.quality_step"),
	}

	cfg.Batch = BatchConfig{
		Concurrency: v.GetInt("batch.concurrency"),
	}

	if cfg.Extractor.CategoryPolicy != CategoryTrustModel &&
		cfg.Extractor.CategoryPolicy != CategoryTrustPrefix {
		return nil, fmt.Errorf("invalid extractor.category_policy: %s", cfg.Extractor.CategoryPolicy)
	}

	return cfg, nil
}

func readProvider(v *viper.Viper, prefix string) ExtractorProviderConfig {
	return ExtractorProviderConfig{
		Provider:     v.GetString(prefix + ".provider"),
		APIKey:       v.GetString(prefix + ".api_key"),
		DefaultModel: v.GetString(prefix + ".default_model"),
		Region:       v.GetString(prefix + ".region"),
		TimeoutSecs:  v.GetInt(prefix + ".timeout_secs"),
	}
}
