package testutil

import (
	"testing"

	"github.com/lepinkainen/bookmeta/internal/config"
	"github.com/spf13/viper"
)

// ResetConfig resets viper, registers the default configuration and
// schedules another reset when the test completes.
func ResetConfig(t *testing.T) {
	t.Helper()

	viper.Reset()
	config.SetDefaults()

	t.Cleanup(viper.Reset)
}

// LoadConfig resets viper, applies the given overrides and returns the
// resulting validated configuration.
func LoadConfig(t *testing.T, overrides map[string]any) *config.Config {
	t.Helper()

	ResetConfig(t)
	for key, value := range overrides {
		viper.Set(key, value)
	}

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	return cfg
}

// SetupTestCache points the sqlite cache at a database inside env and
// returns its path.
func SetupTestCache(t *testing.T, env *TestEnv) string {
	t.Helper()

	dbPath := env.Path("cache", "test-cache.db")
	env.WriteFile("cache/.keep", nil)
	viper.Set(config.KeyCacheDBFile, dbPath)
	viper.Set(config.KeyCacheTTL, "24h")

	return dbPath
}
