package config

import (
	"errors"
	"fmt"
	"log"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	EnvProduction  = "production"
	EnvDevelopment = "development"

	devOTPSecret = "dev-otp-secret"
	devJWTSecret = "dev-jwt-secret"
)

type Config struct {
	Env             string
	Port            string
	DatabaseURL     string
	DatabaseDriver  string
	MigrateOnStart  bool
	AllowOrigins    []string
	TrustedProxies  []*net.IPNet
	LogLevel        string
	LogFormat       string
	LogstashTCPAddr string

	OTPExpiry        time.Duration
	OTPLength        int
	OTPMaxAttempts   int
	OTPSecret        string
	OTPFixedCode     string
	RefreshTokenDays int
	JWTSecret        string
	JWTExpiry        time.Duration

	SMSAPIURL    string
	SMSUser      string
	SMSPassword  string
	SMSSenderID  string
	SMSChannel   string
	SMSRoute     string
	SMSSignature string
	SMSTimeout   time.Duration

	RateLimit         string
	RateLimitRedisURL string
	MetricsEnabled    bool
}

func (c Config) IsProduction() bool {
	return c.Env == EnvProduction
}

// Load reads the process environment (and .env when present). Production
// refuses to start on the built-in development secrets.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found: %v", err)
	}

	cfg := Config{
		Env:             strings.ToLower(getenv("APP_ENV", EnvDevelopment)),
		Port:            getenv("PORT", "8080"),
		DatabaseURL:     os.Getenv("DATABASE_URL"),
		DatabaseDriver:  getenv("DATABASE_DRIVER", "pgx"),
		MigrateOnStart:  getenv("DATABASE_MIGRATE", "true") == "true",
		AllowOrigins:    splitAndTrim(getenv("ALLOW_ORIGINS", "*")),
		LogLevel:        getenv("LOG_LEVEL", "info"),
		LogFormat:       getenv("LOG_FORMAT", "json"),
		LogstashTCPAddr: getenv("LOGSTASH_TCP_ADDR", ""),

		OTPExpiry:        time.Duration(positiveInt("WEB_AUTH_OTP_EXPIRY_MINUTES", 5)) * time.Minute,
		OTPLength:        positiveInt("WEB_AUTH_OTP_LENGTH", 4),
		OTPMaxAttempts:   positiveInt("WEB_AUTH_OTP_MAX_ATTEMPTS", 5),
		OTPSecret:        os.Getenv("WEB_AUTH_OTP_SECRET"),
		OTPFixedCode:     getenv("WEB_AUTH_OTP_FIXED_CODE", "1234"),
		RefreshTokenDays: positiveInt("WEB_AUTH_REFRESH_DAYS", 30),
		JWTSecret:        getenv("WEB_AUTH_JWT_SECRET", os.Getenv("JWT_SECRET")),

		SMSAPIURL:    getenv("SMS_API_URL", "http://cannyinfotech.in/api/mt/SendSMS"),
		SMSUser:      getenv("SMS_API_USER", ""),
		SMSPassword:  getenv("SMS_API_PASSWORD", ""),
		SMSSenderID:  getenv("SMS_SENDER_ID", "SATZTH"),
		SMSChannel:   getenv("SMS_CHANNEL", "Trans"),
		SMSRoute:     getenv("SMS_ROUTE", "10"),
		SMSSignature: getenv("SMS_SIGNATURE", "SATZ/TNYADAVS.COM"),

		RateLimit:         getenv("RATE_LIMIT", "10-M"),
		RateLimitRedisURL: getenv("RATE_LIMIT_REDIS_URL", ""),
		MetricsEnabled:    getenv("METRICS_ENABLED", "true") == "true",
	}

	if cfg.DatabaseURL == "" {
		return Config{}, errors.New("missing env: DATABASE_URL")
	}

	var err error
	if cfg.JWTExpiry, err = duration("WEB_AUTH_JWT_EXPIRES_IN", 24*time.Hour); err != nil {
		return Config{}, err
	}
	if cfg.SMSTimeout, err = duration("SMS_TIMEOUT", 10*time.Second); err != nil {
		return Config{}, err
	}
	if cfg.TrustedProxies, err = parseCIDRs("TRUSTED_PROXY_CIDRS"); err != nil {
		return Config{}, err
	}
	if cfg.IsProduction() {
		if cfg.OTPSecret == "" {
			return Config{}, errors.New("missing env: WEB_AUTH_OTP_SECRET")
		}
		if cfg.JWTSecret == "" {
			return Config{}, errors.New("missing env: WEB_AUTH_JWT_SECRET")
		}
	}
	if cfg.OTPSecret == "" {
		cfg.OTPSecret = devOTPSecret
	}
	if cfg.JWTSecret == "" {
		cfg.JWTSecret = devJWTSecret
	}
	return cfg, nil
}

func splitAndTrim(input string) []string {
	parts := strings.Split(input, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		trimmed := strings.TrimSpace(p)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return []string{"*"}
	}
	return out
}

func getenv(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func positiveInt(k string, d int) int {
	if v, err := strconv.Atoi(getenv(k, "")); err == nil && v > 0 {
		return v
	}
	return d
}

// duration accepts time.ParseDuration syntax plus a whole-day suffix ("7d"),
// the form older deployments used for token lifetimes. Unset keeps d; an
// unparseable or non-positive value is an error.
func duration(k string, d time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(os.Getenv(k))
	if raw == "" {
		return d, nil
	}

	var v time.Duration
	if days, ok := strings.CutSuffix(raw, "d"); ok {
		n, err := strconv.Atoi(days)
		if err != nil {
			return 0, fmt.Errorf("invalid env %s=%q: %w", k, raw, err)
		}
		v = time.Duration(n) * 24 * time.Hour
	} else {
		parsed, err := time.ParseDuration(raw)
		if err != nil {
			return 0, fmt.Errorf("invalid env %s=%q: %w", k, raw, err)
		}
		v = parsed
	}
	if v <= 0 {
		return 0, fmt.Errorf("invalid env %s=%q: must be positive", k, raw)
	}
	return v, nil
}

func parseCIDRs(k string) ([]*net.IPNet, error) {
	raw := strings.TrimSpace(os.Getenv(k))
	if raw == "" {
		return nil, nil
	}
	var out []*net.IPNet
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		_, ipNet, err := net.ParseCIDR(part)
		if err != nil {
			return nil, fmt.Errorf("invalid env %s: %w", k, err)
		}
		out = append(out, ipNet)
	}
	return out, nil
}
