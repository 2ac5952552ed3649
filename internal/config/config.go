/**
 * @description
 * This package handles the configuration management for the pledge-gateway.
 * It uses the Viper library to read configuration from environment
 * variables (with an optional .env file), providing a centralized and
 * straightforward way to manage application settings.
 *
 * @dependencies
 * - github.com/spf13/viper: A popular library for Go application configuration.
 */

package config

import (
	"log"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all the configuration variables for the pledge-gateway.
// These values are loaded from environment variables.
type Config struct {
	ServerPort             string `mapstructure:"SERVER_PORT"`
	DatabaseURL            string `mapstructure:"DATABASE_URL"`
	RedisURL               string `mapstructure:"REDIS_URL"`
	RedisKeyPrefix         string `mapstructure:"REDIS_KEY_PREFIX"`
	RabbitMQURL            string `mapstructure:"RABBITMQ_URL"`
	PaymentEventQueue      string `mapstructure:"PAYMENT_EVENT_QUEUE"`
	FundraiserAPIBaseURL   string `mapstructure:"FUNDRAISER_API_BASE_URL"`
	FundraiserAPIKey       string `mapstructure:"FUNDRAISER_API_KEY"`
	FundraiserAPITimeoutMS int    `mapstructure:"FUNDRAISER_API_TIMEOUT_MS"`
	PaygateBaseURL         string `mapstructure:"PAYGATE_BASE_URL"`
	PaygateAPIKey          string `mapstructure:"PAYGATE_API_KEY"`
	PaygateWebhookSecret   string `mapstructure:"PAYGATE_WEBHOOK_SECRET"`
	MemberJWKSURL          string `mapstructure:"MEMBER_JWKS_URL"`
	CheckoutTimeoutMinutes int    `mapstructure:"CHECKOUT_TIMEOUT_MINUTES"`
	CheckoutRatePerMinute  int    `mapstructure:"CHECKOUT_RATE_LIMIT_PER_MINUTE"`
	WebhookRatePerMinute   int    `mapstructure:"WEBHOOK_RATE_LIMIT_PER_MINUTE"`
	DonationCacheTTLSecs   int    `mapstructure:"DONATION_CACHE_TTL_SECONDS"`
	DonationsPerPage       int    `mapstructure:"DONATIONS_PER_PAGE"`
	DonationsPerPageMax    int    `mapstructure:"DONATIONS_PER_PAGE_MAX"`
	DraftTTLHours          int    `mapstructure:"DRAFT_TTL_HOURS"`
	CheckoutSweepSchedule  string `mapstructure:"CHECKOUT_SWEEP_SCHEDULE"`
	DraftPurgeSchedule     string `mapstructure:"DRAFT_PURGE_SCHEDULE"`
	WebhookLedgerSchedule  string `mapstructure:"WEBHOOK_LEDGER_PURGE_SCHEDULE"`
}

// LoadConfig reads configuration from environment variables from the given path.
// It uses Viper to automatically bind environment variables to the Config struct.
func LoadConfig(path string) (config Config, err error) {
	// Tell viper the path to look for the optional .env file.
	viper.AddConfigPath(path)
	viper.SetConfigName(".env")
	viper.SetConfigType("env")

	// Enable automatic binding of environment variables.
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Set default values
	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("REDIS_KEY_PREFIX", "pledge_gateway")
	viper.SetDefault("PAYMENT_EVENT_QUEUE", "pledge_gateway.payment_updates")
	viper.SetDefault("FUNDRAISER_API_TIMEOUT_MS", 15000)
	viper.SetDefault("CHECKOUT_TIMEOUT_MINUTES", 30)
	viper.SetDefault("CHECKOUT_RATE_LIMIT_PER_MINUTE", 20)
	viper.SetDefault("WEBHOOK_RATE_LIMIT_PER_MINUTE", 300)
	viper.SetDefault("DONATION_CACHE_TTL_SECONDS", 60)
	viper.SetDefault("DONATIONS_PER_PAGE", 10)
	viper.SetDefault("DONATIONS_PER_PAGE_MAX", 50)
	viper.SetDefault("DRAFT_TTL_HOURS", 720) // 30 days
	viper.SetDefault("CHECKOUT_SWEEP_SCHEDULE", "*/2 * * * *")
	viper.SetDefault("DRAFT_PURGE_SCHEDULE", "30 3 * * *")
	viper.SetDefault("WEBHOOK_LEDGER_PURGE_SCHEDULE", "0 4 * * *")

	// Bind environment variables explicitly to ensure they appear in Unmarshal
	_ = viper.BindEnv("SERVER_PORT")
	_ = viper.BindEnv("PORT")
	_ = viper.BindEnv("DATABASE_URL")
	_ = viper.BindEnv("REDIS_URL")
	_ = viper.BindEnv("REDIS_KEY_PREFIX")
	_ = viper.BindEnv("RABBITMQ_URL")
	_ = viper.BindEnv("PAYMENT_EVENT_QUEUE")
	_ = viper.BindEnv("FUNDRAISER_API_BASE_URL")
	_ = viper.BindEnv("FUNDRAISER_API_KEY")
	_ = viper.BindEnv("FUNDRAISER_API_TIMEOUT_MS")
	_ = viper.BindEnv("PAYGATE_BASE_URL")
	_ = viper.BindEnv("PAYGATE_API_KEY")
	_ = viper.BindEnv("PAYGATE_WEBHOOK_SECRET")
	_ = viper.BindEnv("MEMBER_JWKS_URL")
	_ = viper.BindEnv("CHECKOUT_TIMEOUT_MINUTES")
	_ = viper.BindEnv("CHECKOUT_RATE_LIMIT_PER_MINUTE")
	_ = viper.BindEnv("WEBHOOK_RATE_LIMIT_PER_MINUTE")
	_ = viper.BindEnv("DONATION_CACHE_TTL_SECONDS")
	_ = viper.BindEnv("DONATIONS_PER_PAGE")
	_ = viper.BindEnv("DONATIONS_PER_PAGE_MAX")
	_ = viper.BindEnv("DRAFT_TTL_HOURS")
	_ = viper.BindEnv("CHECKOUT_SWEEP_SCHEDULE")
	_ = viper.BindEnv("DRAFT_PURGE_SCHEDULE")
	_ = viper.BindEnv("WEBHOOK_LEDGER_PURGE_SCHEDULE")

	// Attempt to read the config file. It's okay if it doesn't exist.
	if err = viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			log.Printf("level=warn component=config msg=\"failed to read config file; using environment values\" err=%v", err)
		}
	}

	// Unmarshal the configuration into the Config struct.
	err = viper.Unmarshal(&config)
	if err != nil {
		return
	}

	// Platform runtimes commonly inject PORT; it wins over SERVER_PORT.
	if port := strings.TrimSpace(os.Getenv("PORT")); port != "" {
		config.ServerPort = port
	}

	config.FundraiserAPIBaseURL = strings.TrimRight(strings.TrimSpace(config.FundraiserAPIBaseURL), "/")
	config.PaygateBaseURL = strings.TrimRight(strings.TrimSpace(config.PaygateBaseURL), "/")
	config.RedisURL = strings.TrimSpace(config.RedisURL)
	config.RedisKeyPrefix = strings.TrimSpace(config.RedisKeyPrefix)
	if config.RedisKeyPrefix == "" {
		config.RedisKeyPrefix = "pledge_gateway"
	}

	if config.FundraiserAPITimeoutMS <= 0 {
		config.FundraiserAPITimeoutMS = 15000
	}
	if config.CheckoutTimeoutMinutes <= 0 {
		log.Printf("level=warn component=config msg=\"non-positive checkout timeout; using default\" minutes=%d", config.CheckoutTimeoutMinutes)
		config.CheckoutTimeoutMinutes = 30
	}
	if config.DonationCacheTTLSecs < 0 {
		config.DonationCacheTTLSecs = 0
	}
	if config.DonationsPerPage <= 0 {
		config.DonationsPerPage = 10
	}
	if config.DonationsPerPageMax < config.DonationsPerPage {
		config.DonationsPerPageMax = config.DonationsPerPage
	}
	if config.DraftTTLHours <= 0 {
		config.DraftTTLHours = 720
	}

	return
}
