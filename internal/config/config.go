package config

import (
	"os"
	"strconv"
	"time"

	"wordstake_backend/internal/logger"

	"github.com/joho/godotenv"
)

type Config struct {
	AppPort     string
	DatabaseURL string
	JWTSecret   string
	LogLevel    string
	LogJSON     bool

	// Chain
	SolanaRPCURL    string
	EscrowSecretKey string // base58 custodial keypair

	// Redis (rate limiting + settlement locks); empty addr disables it
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Gameplay
	DictionaryPath string
	LetterCount    int
	RoundDuration  time.Duration
	MinBet         int64
	MaxBet         int64

	// Workers
	SettleInterval  time.Duration
	RetentionWindow time.Duration

	// Rate limiting
	APIRateLimit   int
	APIRateWindow  time.Duration
	GameRateLimit  int
	GameRateWindow time.Duration
}

// Load reads configuration from the environment, with a .env file for
// development. Missing critical values are fatal.
func Load() *Config {
	_ = godotenv.Load()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		logger.Fatal("DATABASE_URL is not set")
	}

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		logger.Fatal("JWT_SECRET is not set")
	}

	rpcURL := os.Getenv("SOLANA_RPC_URL")
	if rpcURL == "" {
		rpcURL = "https://api.mainnet-beta.solana.com"
	}

	escrowKey := os.Getenv("ESCROW_SECRET_KEY")
	if escrowKey == "" {
		logger.Fatal("ESCROW_SECRET_KEY is not set")
	}

	// the bundled list is a small development seed; production deployments
	// should point DICTIONARY_PATH at a full word list
	dictPath := os.Getenv("DICTIONARY_PATH")
	if dictPath == "" {
		dictPath = "words/dictionary.txt"
	}

	port := os.Getenv("APP_PORT")
	if port == "" {
		port = "8080"
	}

	return &Config{
		AppPort:     port,
		DatabaseURL: dbURL,
		JWTSecret:   jwtSecret,
		LogLevel:    envString("LOG_LEVEL", "info"),
		LogJSON:     os.Getenv("LOG_JSON") == "true",

		SolanaRPCURL:    rpcURL,
		EscrowSecretKey: escrowKey,

		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       envInt("REDIS_DB", 0),

		DictionaryPath: dictPath,
		LetterCount:    envInt("LETTER_COUNT", 12),
		RoundDuration:  envDuration("ROUND_DURATION", 90*time.Second),
		MinBet:         envInt64("MIN_BET_LAMPORTS", 10_000_000),      // 0.01 SOL
		MaxBet:         envInt64("MAX_BET_LAMPORTS", 10_000_000_000),  // 10 SOL

		SettleInterval:  envDuration("SETTLE_INTERVAL", 5*time.Second),
		RetentionWindow: envDuration("RETENTION_WINDOW", 30*24*time.Hour),

		APIRateLimit:   envInt("API_RATE_LIMIT", 60),
		APIRateWindow:  envDuration("API_RATE_WINDOW", time.Minute),
		GameRateLimit:  envInt("GAME_RATE_LIMIT", 120),
		GameRateWindow: envDuration("GAME_RATE_WINDOW", time.Minute),
	}
}

func envString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
		logger.Warn("invalid int in env, using default", "key", key, "default", fallback)
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
			return n
		}
		logger.Warn("invalid int in env, using default", "key", key, "default", fallback)
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			return d
		}
		logger.Warn("invalid duration in env, using default", "key", key, "default", fallback)
	}
	return fallback
}
