package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Client captures SDK-level configuration: where the API lives and how the
// gateway behaves.
type Client struct {
	BaseURL         string
	RequestTimeout  time.Duration
	RetryAttempts   int
	RetryBaseDelay  time.Duration
	CredentialsPath string
}

// Stub captures configuration for the local development API server.
type Stub struct {
	Addr          string
	JWTSigningKey string
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
}

// FromEnv builds a Client config from environment variables so main stays
// lean. A .env file in the working directory is honored when present.
func FromEnv() Client {
	_ = godotenv.Load()

	baseURL := os.Getenv("CRM_API_URL")
	if baseURL == "" {
		baseURL = "http://localhost:5000"
	}

	credPath := os.Getenv("CRM_CREDENTIALS_FILE")
	if credPath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			home = "."
		}
		credPath = filepath.Join(home, ".admitcrm", "credentials.json")
	}

	return Client{
		BaseURL:         baseURL,
		RequestTimeout:  durationFromEnv("CRM_REQUEST_TIMEOUT", 30*time.Second),
		RetryAttempts:   intFromEnv("CRM_RETRY_ATTEMPTS", 3),
		RetryBaseDelay:  durationFromEnv("CRM_RETRY_BASE_DELAY", time.Second),
		CredentialsPath: credPath,
	}
}

// StubFromEnv builds the stub server config.
func StubFromEnv() Stub {
	_ = godotenv.Load()

	addr := os.Getenv("CRM_STUB_ADDR")
	if addr == "" {
		addr = ":5000"
	}
	signingKey := os.Getenv("CRM_JWT_SIGNING_KEY")
	if signingKey == "" {
		// Development default, never valid for real deployments.
		signingKey = "dev-secret-key-change-in-production"
	}

	return Stub{
		Addr:          addr,
		JWTSigningKey: signingKey,
		AccessTTL:     durationFromEnv("CRM_ACCESS_TTL", 15*time.Minute),
		RefreshTTL:    durationFromEnv("CRM_REFRESH_TTL", 7*24*time.Hour),
	}
}

func durationFromEnv(key string, fallback time.Duration) time.Duration {
	if raw := os.Getenv(key); raw != "" {
		if d, err := time.ParseDuration(raw); err == nil {
			return d
		}
	}
	return fallback
}

func intFromEnv(key string, fallback int) int {
	if raw := os.Getenv(key); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}
