// cliparse/cliparse_test.go
package cliparse

import (
	"reflect"
	"testing"
	"time"
)

// clearEnv blanks every variable ParseFlags reads.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"PORT", "DATABASE_TYPE", "DATABASE_URL", "REDIS_URL", "ADMIN_IDS", "CREATOR_IDS",
		"VOTE_MAX_RETRIES", "RECONCILE_INTERVAL", "LOG_LEVEL", "LOG_FORMAT", "SEED_DEMO",
	} {
		t.Setenv(key, "")
	}
}

func TestParseFlags_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := ParseFlags([]string{})
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Port != 3318 {
		t.Errorf("expected port 3318, got %d", cfg.Port)
	}
	if cfg.DatabaseType != StorageMemory {
		t.Errorf("expected memory storage, got %s", cfg.DatabaseType)
	}
	if cfg.VoteMaxRetries != 5 {
		t.Errorf("expected 5 retries, got %d", cfg.VoteMaxRetries)
	}
	if cfg.ReconcileInterval != 5*time.Minute {
		t.Errorf("expected 5m interval, got %s", cfg.ReconcileInterval)
	}
	if cfg.LogLevel != "info" || cfg.LogFormat != "text" {
		t.Errorf("unexpected log settings %s/%s", cfg.LogLevel, cfg.LogFormat)
	}
	if cfg.SeedDemo {
		t.Error("expected seeding to be off")
	}
}

func TestParseFlags_EnvVars(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9000")
	t.Setenv("DATABASE_TYPE", "postgres")
	t.Setenv("DATABASE_URL", "postgres://test")
	t.Setenv("ADMIN_IDS", "alice, bob,,")
	t.Setenv("CREATOR_IDS", "carol")
	t.Setenv("VOTE_MAX_RETRIES", "2")
	t.Setenv("RECONCILE_INTERVAL", "0")
	t.Setenv("SEED_DEMO", "true")

	cfg, err := ParseFlags([]string{})
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Port != 9000 {
		t.Errorf("expected port 9000, got %d", cfg.Port)
	}
	if cfg.DatabaseType != StoragePostgres || cfg.DatabaseURL != "postgres://test" {
		t.Errorf("unexpected database settings %s %s", cfg.DatabaseType, cfg.DatabaseURL)
	}
	if !reflect.DeepEqual(cfg.AdminIDs, []string{"alice", "bob"}) {
		t.Errorf("unexpected admins %v", cfg.AdminIDs)
	}
	if !reflect.DeepEqual(cfg.CreatorIDs, []string{"carol"}) {
		t.Errorf("unexpected creators %v", cfg.CreatorIDs)
	}
	if cfg.VoteMaxRetries != 2 {
		t.Errorf("expected 2 retries, got %d", cfg.VoteMaxRetries)
	}
	if cfg.ReconcileInterval != 0 {
		t.Errorf("expected reconciliation disabled, got %s", cfg.ReconcileInterval)
	}
	if !cfg.SeedDemo {
		t.Error("expected seeding to be on")
	}
}

func TestParseFlags_CLIOverridesEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9000")
	t.Setenv("DATABASE_TYPE", "postgres")
	t.Setenv("DATABASE_URL", "postgres://test")

	cfg, err := ParseFlags([]string{"-p", "8080", "-t", "sqlite", "-d", "file:test.db", "-retries", "0"})
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Port != 8080 {
		t.Errorf("CLI should override env: expected 8080, got %d", cfg.Port)
	}
	if cfg.DatabaseType != StorageSQLite || cfg.DatabaseURL != "file:test.db" {
		t.Errorf("CLI should override env: got %s %s", cfg.DatabaseType, cfg.DatabaseURL)
	}
	if cfg.VoteMaxRetries != 0 {
		t.Errorf("expected 0 retries from CLI, got %d", cfg.VoteMaxRetries)
	}
}

func TestParseFlags_Errors(t *testing.T) {
	testCases := []struct {
		name string
		args []string
		env  map[string]string
	}{
		{"unknown storage", []string{"-t", "mongo"}, nil},
		{"sqlite without url", []string{"-t", "sqlite"}, nil},
		{"postgres without url", nil, map[string]string{"DATABASE_TYPE": "postgres"}},
		{"redis without url", []string{"-t", "redis", "-d", "postgres://ignored"}, nil},
		{"bad port", nil, map[string]string{"PORT": "http"}},
		{"bad retries", nil, map[string]string{"VOTE_MAX_RETRIES": "-3"}},
		{"bad interval", []string{"-reconcile-interval", "soon"}, nil},
		{"negative interval", nil, map[string]string{"RECONCILE_INTERVAL": "-1m"}},
		{"bad seed", nil, map[string]string{"SEED_DEMO": "perhaps"}},
		{"unknown flag", []string{"-admin-salt", "x"}, nil},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tc.env {
				t.Setenv(k, v)
			}

			if _, err := ParseFlags(tc.args); err == nil {
				t.Error("expected an error")
			}
		})
	}
}
