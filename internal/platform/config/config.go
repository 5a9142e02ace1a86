package config

import (
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config is centralized process configuration.
// Keep infra values here and pass typed config into builders.
type Config struct {
	ServiceName  string
	HTTPPort     string
	PostgresDSN  string
	JWTSecret    string
	TokenTTL     time.Duration
	KafkaBrokers []string

	EnablePolicyEventRelay  bool
	EnableClaimEventRelay   bool
	EnablePaymentEventRelay bool
	EnableSwaggerUI         bool
}

func Load() (Config, error) {
	// Local development convenience; a missing .env file is not an error.
	_ = godotenv.Load()

	service := os.Getenv("SERVICE_NAME")
	if service == "" {
		service = "acphealth"
	}

	port := os.Getenv("HTTP_PORT")
	if port == "" {
		port = "8080"
	}

	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		secret = "dev-only-secret"
	}

	tokenTTL := 30 * time.Minute
	if raw := strings.TrimSpace(os.Getenv("TOKEN_TTL")); raw != "" {
		if parsed, err := time.ParseDuration(raw); err == nil && parsed > 0 {
			tokenTTL = parsed
		}
	}

	var brokers []string
	for _, value := range strings.Split(os.Getenv("KAFKA_BROKERS"), ",") {
		value = strings.TrimSpace(value)
		if value != "" {
			brokers = append(brokers, value)
		}
	}
	if len(brokers) == 0 {
		brokers = []string{"localhost:9092"}
	}

	return Config{
		ServiceName:  service,
		HTTPPort:     port,
		PostgresDSN:  os.Getenv("POSTGRES_DSN"),
		JWTSecret:    secret,
		TokenTTL:     tokenTTL,
		KafkaBrokers: brokers,

		EnablePolicyEventRelay:  envBool("ENABLE_POLICY_EVENT_RELAY", true),
		EnableClaimEventRelay:   envBool("ENABLE_CLAIM_EVENT_RELAY", true),
		EnablePaymentEventRelay: envBool("ENABLE_PAYMENT_EVENT_RELAY", true),
		EnableSwaggerUI:         envBool("ENABLE_SWAGGER_UI", true),
	}, nil
}

func envBool(name string, fallback bool) bool {
	raw := strings.TrimSpace(strings.ToLower(os.Getenv(name)))
	if raw == "" {
		return fallback
	}
	switch raw {
	case "1", "true", "t", "yes", "y", "on":
		return true
	case "0", "false", "f", "no", "n", "off":
		return false
	default:
		return fallback
	}
}
