package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	MediaHostCloudinary = "cloudinary"
	MediaHostR2         = "r2"
)

type R2 struct {
	AccountID  string
	AccessKey  string
	SecretKey  string
	BucketName string
	PublicURL  string
}

type Cloudinary struct {
	CloudName string
	APIKey    string
	APISecret string
}

type Email struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	FromName string
}

type Config struct {
	AppName             string
	Port                string
	LogLevel            string
	FrontendURL         string
	MongoURI            string
	DatabaseName        string
	RedisURI            string
	SecretKey           string
	AccessTokenTTL      time.Duration
	RefreshTokenTTL     time.Duration
	TokenEncryptionKey  string
	Email               Email
	MediaHost           string
	Cloudinary          Cloudinary
	R2                  R2
	GraphAPIURL         string
	IGPollAttempts      int
	IGPollInterval      time.Duration
	LoginRateLimit      int
	TokenExpiryWarning  time.Duration
	TokenExpirySchedule string
}

func LoadConfig() (*Config, error) {
	cfg := &Config{
		AppName:      getEnv("APP_NAME", "crosspost-api"),
		Port:         getEnv("PORT", "3000"),
		LogLevel:     strings.ToLower(getEnv("LOG_LEVEL", "info")),
		FrontendURL:  getEnv("FRONTEND_URL", "http://localhost:5173"),
		MongoURI:     getEnv("MONGO_URI", ""),
		DatabaseName: getEnv("DATABASE_NAME", "social_media"),
		RedisURI:     getEnv("REDIS_URI", ""),
		SecretKey:    getEnv("SECRET_KEY", ""),
		// TOKEN_ENCRYPTION_KEY seals platform tokens at rest; empty stores them as given.
		TokenEncryptionKey: getEnv("TOKEN_ENCRYPTION_KEY", ""),
		Email: Email{
			Host:     getEnv("EMAIL_HOST", ""),
			Username: getEnv("EMAIL_USERNAME", ""),
			Password: getEnv("EMAIL_PASSWORD", ""),
			From:     getEnv("EMAIL_FROM", ""),
			FromName: getEnv("EMAIL_FROM_NAME", ""),
		},
		MediaHost: strings.ToLower(getEnv("MEDIA_HOST", MediaHostCloudinary)),
		Cloudinary: Cloudinary{
			CloudName: getEnv("CLOUDINARY_CLOUD_NAME", getEnv("ACLOUD_NAME", "")),
			APIKey:    getEnv("CLOUDINARY_API_KEY", getEnv("API_KEYS", "")),
			APISecret: getEnv("CLOUDINARY_API_SECRET", getEnv("API_SECRET", "")),
		},
		R2: R2{
			AccountID:  getEnv("R2_ACCOUNT_ID", ""),
			AccessKey:  getEnv("R2_ACCESS_KEY", ""),
			SecretKey:  getEnv("R2_SECRET_KEY", ""),
			BucketName: getEnv("R2_BUCKET_NAME", ""),
			PublicURL:  strings.TrimSuffix(getEnv("R2_PUBLIC_URL", ""), "/"),
		},
		GraphAPIURL:         strings.TrimSuffix(getEnv("GRAPH_API_URL", "https://graph.facebook.com/v23.0"), "/"),
		TokenExpirySchedule: getEnv("TOKEN_EXPIRY_SCHEDULE", "@every 6h"),
	}

	var err error
	if cfg.Email.Port, err = getEnvInt("EMAIL_PORT", 587); err != nil {
		return nil, err
	}
	if cfg.IGPollAttempts, err = getEnvInt("IG_POLL_ATTEMPTS", 12); err != nil {
		return nil, err
	}
	if cfg.LoginRateLimit, err = getEnvInt("LOGIN_RATE_LIMIT", 5); err != nil {
		return nil, err
	}

	accessMinutes, err := getEnvInt("ACCESS_TOKEN_EXPIRES_IN", 30)
	if err != nil {
		return nil, err
	}
	cfg.AccessTokenTTL = time.Duration(accessMinutes) * time.Minute

	refreshMinutes, err := getEnvInt("REFRESH_TOKEN_EXPIRES_IN", 1440)
	if err != nil {
		return nil, err
	}
	cfg.RefreshTokenTTL = time.Duration(refreshMinutes) * time.Minute

	if cfg.IGPollInterval, err = getEnvDuration("IG_POLL_INTERVAL", 5*time.Second); err != nil {
		return nil, err
	}
	if cfg.TokenExpiryWarning, err = getEnvDuration("TOKEN_EXPIRY_WARNING", 72*time.Hour); err != nil {
		return nil, err
	}

	if cfg.SecretKey == "" {
		return nil, fmt.Errorf("SECRET_KEY must be set")
	}

	switch len(cfg.TokenEncryptionKey) {
	case 0, 16, 24, 32:
	default:
		return nil, fmt.Errorf("TOKEN_ENCRYPTION_KEY must be 16, 24 or 32 bytes")
	}

	if cfg.MediaHost != MediaHostCloudinary && cfg.MediaHost != MediaHostR2 {
		return nil, fmt.Errorf("invalid MEDIA_HOST %q", cfg.MediaHost)
	}

	return cfg, nil
}

// Address returns the listen address in the format Fiber expects.
func (c Config) Address() string {
	if strings.HasPrefix(c.Port, ":") {
		return c.Port
	}
	return fmt.Sprintf(":%s", c.Port)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
