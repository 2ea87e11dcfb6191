package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

type Config struct {
	Port            string
	MongoURI        string
	DBName          string
	CatalogFile     string
	JWTSecret       string
	SessionSecret   string
	SessionTTL      time.Duration
	SecureCookies   bool
	Stripe          StripeConfig
	Delivery        DeliveryConfig
	WebhookAttempts int
	WebhookDelay    time.Duration
}

// StripeConfig is handed to the payment gateway once at startup; nothing
// else reads the keys.
type StripeConfig struct {
	PublicKey     string
	SecretKey     string
	WebhookSecret string
	Currency      string
}

type DeliveryConfig struct {
	FreeThreshold decimal.Decimal
	Percentage    decimal.Decimal
}

func Load() Config {
	if err := godotenv.Load(); err != nil {
		log.Println(".env not loaded:", err)
	}

	jwtSecret := getEnvOrDefault("JWT_SECRET", "")
	return Config{
		Port:          getEnvOrDefault("PORT", "8080"),
		MongoURI:      getEnvOrDefault("MONGO_URI", ""),
		DBName:        getEnvOrDefault("DB_NAME", "storefront"),
		CatalogFile:   getEnvOrDefault("CATALOG_FILE", ""),
		JWTSecret:     jwtSecret,
		SessionSecret: getEnvOrDefault("SESSION_SECRET", jwtSecret),
		SessionTTL:    getDurationEnv("SESSION_TTL", 14, 24*time.Hour),
		SecureCookies: getBoolEnv("SECURE_COOKIES", false),
		Stripe: StripeConfig{
			PublicKey:     getEnvOrDefault("STRIPE_PUBLIC_KEY", ""),
			SecretKey:     getEnvOrDefault("STRIPE_SECRET_KEY", ""),
			WebhookSecret: getEnvOrDefault("STRIPE_WH_SECRET", ""),
			Currency:      strings.ToLower(getEnvOrDefault("STRIPE_CURRENCY", "usd")),
		},
		Delivery: DeliveryConfig{
			FreeThreshold: getDecimalEnv("FREE_DELIVERY_THRESHOLD", "50"),
			Percentage:    getDecimalEnv("STANDARD_DELIVERY_PERCENTAGE", "10"),
		},
		WebhookAttempts: getIntEnv("WEBHOOK_LOOKUP_ATTEMPTS", 5),
		WebhookDelay:    getDurationEnv("WEBHOOK_LOOKUP_DELAY", 1000, time.Millisecond),
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil && parsed > 0 {
			return parsed
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue int, unit time.Duration) time.Duration {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil && parsed > 0 {
			return time.Duration(parsed) * unit
		}
	}
	return time.Duration(defaultValue) * unit
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getDecimalEnv(key, defaultValue string) decimal.Decimal {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		if parsed, err := decimal.NewFromString(value); err == nil && !parsed.IsNegative() {
			return parsed
		}
		log.Printf("config: ignoring invalid %s=%q", key, value)
	}
	return decimal.RequireFromString(defaultValue)
}
