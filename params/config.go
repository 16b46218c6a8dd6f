package params

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/uhyunpark/l2signer/pkg/crypto"
)

type Signer struct {
	// PrivateKey is the L2 (Stark) private key as hex. It is only ever
	// handed to crypto.NewStarkSigner.
	PrivateKey  string
	MaxAttempts int
}

type Account struct {
	ID uint64
	// OrderTTL is how far in the future new orders expire.
	OrderTTL time.Duration
}

type Storage struct {
	NonceDBPath string
}

type API struct {
	Addr        string
	CORSOrigins []string
}

type Log struct {
	File  string
	Level string
}

type Config struct {
	Signer  Signer
	Account Account
	Storage Storage
	API     API
	Log     Log
}

func Default() Config {
	return Config{
		Signer: Signer{
			MaxAttempts: crypto.DefaultMaxSignAttempts,
		},
		Account: Account{
			OrderTTL: 14 * 24 * time.Hour,
		},
		Storage: Storage{
			NonceDBPath: "data/nonces",
		},
		API: API{
			Addr:        "127.0.0.1:8089",
			CORSOrigins: []string{"http://localhost:3000"},
		},
		Log: Log{
			File:  "data/signer.log",
			Level: "info",
		},
	}
}

// LoadFromEnv loads configuration from .env file (if exists) and environment variables
// Priority: ENV > .env file > defaults
func LoadFromEnv(envPath string) Config {
	cfg := Default()

	// godotenv.Load never overrides variables that are already set.
	if envPath != "" {
		_ = godotenv.Load(envPath)
	} else {
		_ = godotenv.Load()
	}

	cfg.Signer.PrivateKey = os.Getenv("L2_PRIVATE_KEY")
	if v := os.Getenv("SIGNER_MAX_ATTEMPTS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Signer.MaxAttempts = n
		}
	}

	if v := os.Getenv("L2_ACCOUNT_ID"); v != "" {
		if id, err := strconv.ParseUint(v, 10, 64); err == nil {
			cfg.Account.ID = id
		}
	}
	if v := os.Getenv("ORDER_EXPIRY_HOURS"); v != "" {
		if h, err := strconv.Atoi(v); err == nil && h > 0 {
			cfg.Account.OrderTTL = time.Duration(h) * time.Hour
		}
	}

	cfg.Storage.NonceDBPath = getEnv("NONCE_DB_PATH", cfg.Storage.NonceDBPath)
	cfg.API.Addr = getEnv("API_ADDR", cfg.API.Addr)
	if origins := os.Getenv("API_CORS_ORIGINS"); origins != "" {
		cfg.API.CORSOrigins = splitList(origins)
	}
	cfg.Log.File = getEnv("LOG_FILE", cfg.Log.File)
	cfg.Log.Level = getEnv("LOG_LEVEL", cfg.Log.Level)

	return cfg
}

// getEnv returns environment variable value or default
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
