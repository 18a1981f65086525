package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds runtime configuration values for the API service.
type Config struct {
	AppName string
	AppEnv  string
	AppPort string

	DatabaseURL string
	RedisURL    string

	JudgeEndpoint string
	JudgeModel    string
	JudgeAPIKey   string
	JudgeTimeout  time.Duration

	GeneratorEndpoint string
	GeneratorModel    string
	GeneratorAPIKey   string

	ReportCacheTTL time.Duration
	SignedURLTTL   time.Duration

	UploadMaxSizeMB int

	S3Endpoint        string
	S3Region          string
	S3Bucket          string
	S3AccessKeyID     string
	S3SecretAccessKey string
	S3PublicBaseURL   string

	NATSURL string

	SeedEnabled bool
	SeedToken   string

	SubmitRateLimit  int
	SubmitRateWindow time.Duration
}

// HTTPAddress returns the address the HTTP server should listen on.
func (c Config) HTTPAddress() string {
	if strings.HasPrefix(c.AppPort, ":") {
		return c.AppPort
	}

	return fmt.Sprintf(":%s", c.AppPort)
}

// IsDevelopment reports whether the service runs in development mode.
// Judge debug payloads only leave the API in development.
func (c Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

// Load reads configuration values from environment variables and optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("CALIPER")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("app.name", "Caliper API")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("judge.endpoint", "https://api.perplexity.ai")
	v.SetDefault("judge.model", "sonar-reasoning")
	v.SetDefault("judge.timeout", "60s")
	v.SetDefault("generator.model", "sonar-pro")
	v.SetDefault("report.cache_ttl", "5m")
	v.SetDefault("signed_url.ttl", "5m")
	v.SetDefault("upload.max_size_mb", 10)
	v.SetDefault("s3.region", "us-east-1")
	v.SetDefault("submit.rate_limit", 10)
	v.SetDefault("submit.rate_window", "1m")

	judgeTimeout, err := parseDuration(v, "judge.timeout", "60s")
	if err != nil {
		return Config{}, err
	}
	reportTTL, err := parseDuration(v, "report.cache_ttl", "5m")
	if err != nil {
		return Config{}, err
	}
	signedTTL, err := parseDuration(v, "signed_url.ttl", "5m")
	if err != nil {
		return Config{}, err
	}
	rateWindow, err := parseDuration(v, "submit.rate_window", "1m")
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		AppName:           v.GetString("app.name"),
		AppEnv:            v.GetString("app.env"),
		AppPort:           v.GetString("app.port"),
		DatabaseURL:       v.GetString("database.url"),
		RedisURL:          v.GetString("redis.url"),
		JudgeEndpoint:     v.GetString("judge.endpoint"),
		JudgeModel:        v.GetString("judge.model"),
		JudgeAPIKey:       v.GetString("judge.api_key"),
		JudgeTimeout:      judgeTimeout,
		GeneratorEndpoint: v.GetString("generator.endpoint"),
		GeneratorModel:    v.GetString("generator.model"),
		GeneratorAPIKey:   v.GetString("generator.api_key"),
		ReportCacheTTL:    reportTTL,
		SignedURLTTL:      signedTTL,
		UploadMaxSizeMB:   v.GetInt("upload.max_size_mb"),
		S3Endpoint:        v.GetString("s3.endpoint"),
		S3Region:          v.GetString("s3.region"),
		S3Bucket:          v.GetString("s3.bucket"),
		S3AccessKeyID:     v.GetString("s3.access_key_id"),
		S3SecretAccessKey: v.GetString("s3.secret_access_key"),
		S3PublicBaseURL:   v.GetString("s3.public_base_url"),
		NATSURL:           v.GetString("nats.url"),
		SeedEnabled:       v.GetBool("seed.enabled"),
		SeedToken:         v.GetString("seed.token"),
		SubmitRateLimit:   v.GetInt("submit.rate_limit"),
		SubmitRateWindow:  rateWindow,
	}

	if cfg.SeedEnabled && cfg.SeedToken == "" {
		return Config{}, fmt.Errorf("seed token must be provided when seeding is enabled")
	}

	if cfg.UploadMaxSizeMB <= 0 {
		cfg.UploadMaxSizeMB = 10
	}

	if cfg.SubmitRateLimit <= 0 {
		cfg.SubmitRateLimit = 10
	}

	return cfg, nil
}

func parseDuration(v *viper.Viper, key, fallback string) (time.Duration, error) {
	raw := v.GetString(key)
	if raw == "" {
		raw = fallback
	}

	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}

	return parsed, nil
}
