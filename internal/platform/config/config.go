package config

import (
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	DatabaseURL  string
	RedisURL     string
	Port         string
	IsProduction bool

	// Trust token material. JWTSecret signs new tokens; JWTPreviousSecrets
	// are still accepted during verification so keys can be rotated without
	// invalidating outstanding tokens.
	JWTSecret          string
	JWTPreviousSecrets []string
	JWTExpiryDuration  time.Duration
	JWTIssuer          string

	// Ledger boundary. When LedgerServiceURL is set the movement services
	// reach the ledger over HTTP; otherwise it is called in-process.
	LedgerServiceURL    string
	LedgerCallTimeout   time.Duration
	LedgerRetryAttempts int
	RecordWriteAttempts int

	FrontendBaseURL string
}

// LoadConfig loads configuration from environment variables and .env file if present.
func LoadConfig() (*Config, error) {
	// Attempt to load .env file, ignore error if it doesn't exist
	_ = godotenv.Load()

	viper.SetDefault("PGSQL_URL", "")
	viper.SetDefault("REDIS_URL", "")
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("IS_PRODUCTION", false)
	viper.SetDefault("JWT_SECRET", "a-very-secret-key-should-be-longer-and-random")
	viper.SetDefault("JWT_PREVIOUS_SECRETS", "")
	viper.SetDefault("JWT_EXPIRY_DURATION", "24h")
	viper.SetDefault("JWT_ISSUER", "bank-app")
	viper.SetDefault("LEDGER_SERVICE_URL", "")
	viper.SetDefault("LEDGER_CALL_TIMEOUT", "3s")
	viper.SetDefault("LEDGER_RETRY_ATTEMPTS", 3)
	viper.SetDefault("RECORD_WRITE_ATTEMPTS", 3)
	viper.SetDefault("FRONTEND_BASE_URL", "http://localhost:3000")

	viper.AutomaticEnv()

	cfg := &Config{}

	cfg.DatabaseURL = viper.GetString("PGSQL_URL")
	if cfg.DatabaseURL == "" {
		log.Println("Warning: PGSQL_URL not set. Running on in-memory stores; state will not survive a restart.")
	}
	cfg.RedisURL = viper.GetString("REDIS_URL")
	cfg.Port = viper.GetString("PORT")
	cfg.IsProduction = viper.GetBool("IS_PRODUCTION")

	cfg.JWTSecret = viper.GetString("JWT_SECRET")
	if cfg.JWTSecret == "a-very-secret-key-should-be-longer-and-random" {
		log.Println("Warning: JWT_SECRET not set. Using default insecure key.")
	}
	// Comma-separated list of retired signing keys still valid for verification.
	if prev := viper.GetString("JWT_PREVIOUS_SECRETS"); prev != "" {
		for _, s := range strings.Split(prev, ",") {
			if s = strings.TrimSpace(s); s != "" {
				cfg.JWTPreviousSecrets = append(cfg.JWTPreviousSecrets, s)
			}
		}
	}

	jwtExpiryStr := viper.GetString("JWT_EXPIRY_DURATION")
	jwtExpiryDuration, err := time.ParseDuration(jwtExpiryStr)
	if err != nil {
		jwtExpiryDuration = 24 * time.Hour
		log.Printf("Warning: Invalid value for JWT_EXPIRY_DURATION ('%s'). Defaulting to %s.\n", jwtExpiryStr, jwtExpiryDuration)
	}
	cfg.JWTExpiryDuration = jwtExpiryDuration
	cfg.JWTIssuer = viper.GetString("JWT_ISSUER")

	cfg.LedgerServiceURL = viper.GetString("LEDGER_SERVICE_URL")
	ledgerTimeoutStr := viper.GetString("LEDGER_CALL_TIMEOUT")
	ledgerTimeout, err := time.ParseDuration(ledgerTimeoutStr)
	if err != nil {
		ledgerTimeout = 3 * time.Second
		log.Printf("Warning: Invalid value for LEDGER_CALL_TIMEOUT ('%s'). Defaulting to %s.\n", ledgerTimeoutStr, ledgerTimeout)
	}
	cfg.LedgerCallTimeout = ledgerTimeout

	cfg.LedgerRetryAttempts = viper.GetInt("LEDGER_RETRY_ATTEMPTS")
	if cfg.LedgerRetryAttempts < 1 {
		cfg.LedgerRetryAttempts = 1
	}
	cfg.RecordWriteAttempts = viper.GetInt("RECORD_WRITE_ATTEMPTS")
	if cfg.RecordWriteAttempts < 1 {
		cfg.RecordWriteAttempts = 1
	}

	cfg.FrontendBaseURL = viper.GetString("FRONTEND_BASE_URL")

	return cfg, nil
}
