package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/Abuqatada01/order-intake/internal/intake"
)

type Config struct {
	IntakeAddr       string
	GatewayBaseURL   string
	GatewayKeyID     string
	GatewayKeySecret string
	GatewayTimeout   time.Duration
	PostgresDSN      string
	SummaryMaxLen    int
	FullItemsMax     int
	CODAsyncWrite    bool
	RequireShipping  bool
	LogLevel         string
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getbool(k string, def bool) bool {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func getint(k string, def int) int {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

// Load reads the environment (and .env if present). Missing gateway
// credentials or the store DSN fail closed: the service refuses to start
// rather than accept requests it cannot complete.
func Load() (Config, error) {
	_ = godotenv.Load() // load .env if it exists

	cfg := Config{
		IntakeAddr:       getenv("INTAKE_ADDR", ":8080"),
		GatewayBaseURL:   os.Getenv("GATEWAY_BASE_URL"),
		GatewayKeyID:     os.Getenv("GATEWAY_KEY_ID"),
		GatewayKeySecret: os.Getenv("GATEWAY_KEY_SECRET"),
		GatewayTimeout:   10 * time.Second,
		PostgresDSN:      os.Getenv("POSTGRES_DSN"),
		SummaryMaxLen:    getint("SUMMARY_MAX_LEN", intake.DefaultSummaryMaxLen),
		FullItemsMax:     getint("FULL_ITEMS_MAX_BYTES", intake.DefaultFullMaxBytes),
		CODAsyncWrite:    getbool("COD_ASYNC_WRITE", false),
		RequireShipping:  getbool("REQUIRE_SHIPPING_ADDRESS", false),
		LogLevel:         getenv("LOG_LEVEL", "info"),
	}
	if v := os.Getenv("GATEWAY_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, intake.Misconfigured("GATEWAY_TIMEOUT is not a duration")
		}
		cfg.GatewayTimeout = d
	}

	switch {
	case cfg.GatewayBaseURL == "":
		return Config{}, intake.Misconfigured("GATEWAY_BASE_URL is required")
	case cfg.GatewayKeyID == "" || cfg.GatewayKeySecret == "":
		return Config{}, intake.Misconfigured("GATEWAY_KEY_ID and GATEWAY_KEY_SECRET are required")
	case cfg.PostgresDSN == "":
		return Config{}, intake.Misconfigured("POSTGRES_DSN is required")
	}
	return cfg, nil
}
