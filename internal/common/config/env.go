package config

import (
	"errors"
	"os"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// Config represents the application configuration
// This struct contains all configuration parameters for the application
type Config struct {
	// AWS-specific configuration
	AWSRegion         string
	DynamoDBTableName string

	// Environment info
	Environment string

	// GatewayTokenSecret signs the bearer tokens the captive-portal gateways
	// present on every request.
	GatewayTokenSecret string

	// Pricing and grace settings
	RatePerMinute      decimal.Decimal
	GracePeriodSeconds int64

	// VendorLocation decides what "today" means for the saved-time and
	// grace-period calendar dates.
	VendorLocation *time.Location

	// CASMaxRetries bounds the internal retry loop on concurrent-update
	// conflicts.
	CASMaxRetries int

	// Lambda detection flag (cached)
	isLambda bool
}

// LoadFromEnv loads the configuration from environment variables
func LoadFromEnv() (*Config, error) {
	// Create a new config object and load values from environment
	cfg := &Config{}

	// Required environment variables
	cfg.DynamoDBTableName = os.Getenv("DYNAMODB_TABLE_NAME")
	if cfg.DynamoDBTableName == "" {
		return nil, errors.New("DYNAMODB_TABLE_NAME environment variable is required")
	}

	cfg.GatewayTokenSecret = os.Getenv("GATEWAY_TOKEN_SECRET")
	if cfg.GatewayTokenSecret == "" {
		return nil, errors.New("GATEWAY_TOKEN_SECRET environment variable is required")
	}

	// Environment info
	cfg.Environment = os.Getenv("ENVIRONMENT")
	if cfg.Environment == "" {
		cfg.Environment = "dev" // Default to dev environment
	}

	// AWS Region
	cfg.AWSRegion = os.Getenv("AWS_REGION")
	if cfg.AWSRegion == "" {
		cfg.AWSRegion = "ap-southeast-1" // Default fallback
	}

	// Per-minute price of access time, in pesos
	rate := os.Getenv("RATE_PER_MINUTE")
	if rate == "" {
		rate = "0.50"
	}
	parsedRate, err := decimal.NewFromString(rate)
	if err != nil || parsedRate.Sign() <= 0 {
		return nil, errors.New("RATE_PER_MINUTE must be a positive decimal amount")
	}
	cfg.RatePerMinute = parsedRate

	// Grace bonus granted at most once per calendar day
	grace := os.Getenv("GRACE_PERIOD_SECONDS")
	if grace == "" {
		cfg.GracePeriodSeconds = 300
	} else {
		parsedGrace, err := strconv.ParseInt(grace, 10, 64)
		if err != nil || parsedGrace < 0 {
			return nil, errors.New("GRACE_PERIOD_SECONDS must be a non-negative integer")
		}
		cfg.GracePeriodSeconds = parsedGrace
	}

	// Vendor-local timezone for calendar-date bookkeeping
	tz := os.Getenv("VENDOR_TIMEZONE")
	if tz == "" {
		tz = "Asia/Manila"
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, errors.New("VENDOR_TIMEZONE must be a valid IANA timezone name")
	}
	cfg.VendorLocation = loc

	// Bounded retry on optimistic-concurrency conflicts
	retries := os.Getenv("CAS_MAX_RETRIES")
	if retries == "" {
		cfg.CASMaxRetries = 5
	} else {
		parsedRetries, err := strconv.Atoi(retries)
		if err != nil || parsedRetries < 1 {
			return nil, errors.New("CAS_MAX_RETRIES must be a positive integer")
		}
		cfg.CASMaxRetries = parsedRetries
	}

	// Check if running in Lambda
	cfg.isLambda = os.Getenv("AWS_LAMBDA_FUNCTION_NAME") != ""

	return cfg, nil
}

// IsLambda reports whether the process is running inside AWS Lambda.
func (c *Config) IsLambda() bool {
	return c.isLambda
}
