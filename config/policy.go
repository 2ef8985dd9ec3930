package config

import (
	"os"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Pricing and cart policy. All values come from env with the defaults below.
const (
	DefaultErrorMarginRate = "0.05"
	DefaultMultiplier      = "3"
	DefaultBulkThreshold   = 3
	DefaultCartTTLMinutes  = 120

	// bounds of the multiplier control on the cost calculator
	MultiplierMin  = "1"
	MultiplierMax  = "5"
	MultiplierStep = "0.1"
)

// ErrorMarginRate is the waste allowance added on top of a recipe's base cost.
//
// Set via env:
// - ERROR_MARGIN_RATE=0.05
func ErrorMarginRate() decimal.Decimal {
	return decimalFromEnv("ERROR_MARGIN_RATE", DefaultErrorMarginRate)
}

// DefaultPriceMultiplier seeds the suggested price when the caller does not send one.
//
// Set via env:
// - PRICE_MULTIPLIER=3
func DefaultPriceMultiplier() decimal.Decimal {
	m := decimalFromEnv("PRICE_MULTIPLIER", DefaultMultiplier)
	if !m.IsPositive() {
		return decimal.RequireFromString(DefaultMultiplier)
	}
	return m
}

// BulkPriceThreshold is the minimum line quantity for a manual price override.
// 0 allows overrides on any line.
//
// Set via env:
// - BULK_PRICE_THRESHOLD=3
func BulkPriceThreshold() int {
	n := IntFromEnv("BULK_PRICE_THRESHOLD", DefaultBulkThreshold)
	if n < 0 {
		return DefaultBulkThreshold
	}
	return n
}

// CartTTL is how long an untouched cart survives in the registry.
func CartTTL() time.Duration {
	n := IntFromEnv("CART_TTL_MINUTES", DefaultCartTTLMinutes)
	if n <= 0 {
		n = DefaultCartTTLMinutes
	}
	return time.Duration(n) * time.Minute
}

// CacheLifespan is the TTL of cached ingredient lists.
func CacheLifespan() time.Duration {
	n := IntFromEnv("CACHE_LIFESPAN", 60)
	return time.Duration(n) * time.Minute
}

// StoreDriver selects the data collaborator: "mysql" (default) or "memory".
func StoreDriver() string {
	v := strings.ToLower(strings.TrimSpace(os.Getenv("STORE_DRIVER")))
	if v == "" {
		return "mysql"
	}
	return v
}

// DefaultBusinessId is used when a request carries no x-business-id header.
func DefaultBusinessId() string {
	if v := strings.TrimSpace(os.Getenv("DEFAULT_BUSINESS_ID")); v != "" {
		return v
	}
	return "default"
}

// ReportLocation is the time zone used to bucket sales into days.
//
// Set via env:
// - REPORT_TIMEZONE=America/Argentina/Buenos_Aires
func ReportLocation() *time.Location {
	if name := strings.TrimSpace(os.Getenv("REPORT_TIMEZONE")); name != "" {
		if loc, err := time.LoadLocation(name); err == nil {
			return loc
		}
	}
	return time.UTC
}

func BoolFromEnv(key string) bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	return v == "1" || v == "true" || v == "yes" || v == "y"
}

func decimalFromEnv(key string, def string) decimal.Decimal {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if d, err := decimal.NewFromString(v); err == nil && !d.IsNegative() {
			return d
		}
	}
	return decimal.RequireFromString(def)
}
