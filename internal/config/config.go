package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
)

// DefaultServiceFee is the flat platform fee in dollars applied to every
// fixed-price job at creation and to hourly jobs at settlement.
const DefaultServiceFee = 2.50

// Config holds all runtime configuration, loaded from the environment.
type Config struct {
	Port        string
	AppEnv      string
	LogLevel    string
	DatabaseURL string
	AppBaseURL  string

	StripeSecretKey     string
	StripeWebhookSecret string

	JWTSecret  string
	ServiceFee float64

	// Optional Telegram notifier. Payment notifications are skipped when
	// the token is absent.
	TelegramToken string
}

// Load reads configuration from environment variables. Missing optional
// values are warned about and defaulted; missing required values are errors.
func Load() (*Config, error) {
	cfg := &Config{
		Port:                os.Getenv("PORT"),
		AppEnv:              os.Getenv("ENV"),
		LogLevel:            os.Getenv("LOG_LEVEL"),
		DatabaseURL:         os.Getenv("DATABASE_URL"),
		AppBaseURL:          os.Getenv("APP_BASE_URL"),
		StripeSecretKey:     os.Getenv("STRIPE_SECRET_KEY"),
		StripeWebhookSecret: os.Getenv("STRIPE_WEBHOOK_SECRET"),
		JWTSecret:           os.Getenv("JWT_SECRET"),
		TelegramToken:       os.Getenv("TELEGRAM_APITOKEN"),
	}

	if cfg.Port == "" {
		cfg.Port = "8080"
	}
	if cfg.AppBaseURL == "" {
		cfg.AppBaseURL = "http://localhost:" + cfg.Port
		log.Printf("Warning: APP_BASE_URL is not set, using %s", cfg.AppBaseURL)
	}

	feeStr := os.Getenv("SERVICE_FEE")
	if feeStr == "" {
		cfg.ServiceFee = DefaultServiceFee
	} else {
		fee, err := strconv.ParseFloat(feeStr, 64)
		if err != nil || fee < 0 {
			log.Printf("Warning: invalid SERVICE_FEE %q, using default %.2f", feeStr, DefaultServiceFee)
			cfg.ServiceFee = DefaultServiceFee
		} else {
			cfg.ServiceFee = fee
		}
	}

	if cfg.TelegramToken == "" {
		log.Println("Warning: TELEGRAM_APITOKEN is not set, Telegram notifications are disabled")
	}

	return cfg, cfg.Validate()
}

// Validate checks the values without which the service cannot run.
func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.StripeSecretKey == "" {
		return fmt.Errorf("STRIPE_SECRET_KEY is required")
	}
	if c.StripeWebhookSecret == "" {
		return fmt.Errorf("STRIPE_WEBHOOK_SECRET is required")
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	return nil
}
