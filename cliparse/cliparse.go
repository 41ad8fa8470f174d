package cliparse

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Storage strategies
const (
	StorageMemory   = "memory"
	StorageSQLite   = "sqlite"
	StoragePostgres = "postgres"
	StorageRedis    = "redis"
)

type Config struct {
	Port              int
	DatabaseType      string
	DatabaseURL       string
	RedisURL          string
	AdminIDs          []string
	CreatorIDs        []string
	VoteMaxRetries    int
	ReconcileInterval time.Duration
	LogLevel          string
	LogFormat         string
	SeedDemo          bool
}

// ParseFlags validates flags and fills unset values from the environment
func ParseFlags(args []string) (Config, error) {
	var (
		cfg        Config
		adminIDs   string
		creatorIDs string
		retries    int
		interval   string
	)

	// A missing .env file is fine; real environment variables still apply.
	_ = godotenv.Load()

	fs := flag.NewFlagSet("securevote", flag.ContinueOnError)

	fs.IntVar(&cfg.Port, "p", 0, "Server port")
	fs.StringVar(&cfg.DatabaseType, "t", "", "Database type (memory, sqlite, postgres or redis)")
	fs.StringVar(&cfg.DatabaseURL, "d", "", "Database URL")
	fs.StringVar(&cfg.RedisURL, "r", "", "Redis URL")
	fs.StringVar(&adminIDs, "admins", "", "Comma separated admin user ids")
	fs.StringVar(&creatorIDs, "creators", "", "Comma separated creator user ids")
	fs.IntVar(&retries, "retries", -1, "Max retries for a conflicting vote")
	fs.StringVar(&interval, "reconcile-interval", "", "Tally reconciliation interval (0 disables)")
	fs.StringVar(&cfg.LogLevel, "log-level", "", "Log level (debug, info, warn, error)")
	fs.StringVar(&cfg.LogFormat, "log-format", "", "Log format (text or json)")
	fs.BoolVar(&cfg.SeedDemo, "seed", false, "Seed demo polls on startup")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	// Fall back to environment variables
	if cfg.Port == 0 {
		if portStr := os.Getenv("PORT"); portStr != "" {
			port, err := strconv.Atoi(portStr)
			if err != nil {
				return Config{}, errors.New("invalid PORT env variable")
			}
			cfg.Port = port
		} else {
			cfg.Port = 3318 // default
		}
	}

	if cfg.DatabaseType == "" {
		cfg.DatabaseType = os.Getenv("DATABASE_TYPE")
		if cfg.DatabaseType == "" {
			cfg.DatabaseType = StorageMemory
		}
	}
	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	}
	if cfg.RedisURL == "" {
		cfg.RedisURL = os.Getenv("REDIS_URL")
	}

	switch cfg.DatabaseType {
	case StorageMemory:
	case StorageSQLite, StoragePostgres:
		if cfg.DatabaseURL == "" {
			return Config{}, errors.New("database URL required (use -d or DATABASE_URL env)")
		}
	case StorageRedis:
		if cfg.RedisURL == "" {
			return Config{}, errors.New("redis URL required (use -r or REDIS_URL env)")
		}
	default:
		return Config{}, fmt.Errorf("unknown database type %q", cfg.DatabaseType)
	}

	if adminIDs == "" {
		adminIDs = os.Getenv("ADMIN_IDS")
	}
	cfg.AdminIDs = splitList(adminIDs)
	if creatorIDs == "" {
		creatorIDs = os.Getenv("CREATOR_IDS")
	}
	cfg.CreatorIDs = splitList(creatorIDs)

	if retries < 0 {
		retries = 5
		if s := os.Getenv("VOTE_MAX_RETRIES"); s != "" {
			n, err := strconv.Atoi(s)
			if err != nil || n < 0 {
				return Config{}, errors.New("invalid VOTE_MAX_RETRIES env variable")
			}
			retries = n
		}
	}
	cfg.VoteMaxRetries = retries

	if interval == "" {
		interval = os.Getenv("RECONCILE_INTERVAL")
	}
	cfg.ReconcileInterval = 5 * time.Minute
	if interval != "" {
		d, err := time.ParseDuration(interval)
		if err != nil || d < 0 {
			return Config{}, fmt.Errorf("invalid reconcile interval %q", interval)
		}
		cfg.ReconcileInterval = d
	}

	if cfg.LogLevel == "" {
		cfg.LogLevel = os.Getenv("LOG_LEVEL")
		if cfg.LogLevel == "" {
			cfg.LogLevel = "info"
		}
	}
	if cfg.LogFormat == "" {
		cfg.LogFormat = os.Getenv("LOG_FORMAT")
		if cfg.LogFormat == "" {
			cfg.LogFormat = "text"
		}
	}

	if !cfg.SeedDemo {
		if s := os.Getenv("SEED_DEMO"); s != "" {
			seed, err := strconv.ParseBool(s)
			if err != nil {
				return Config{}, errors.New("invalid SEED_DEMO env variable")
			}
			cfg.SeedDemo = seed
		}
	}

	return cfg, nil
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
