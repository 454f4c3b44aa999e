// Package cache is an optional sqlite-backed store for raw provider lookups.
// A nil *CacheDB is valid everywhere and simply disables caching.
package cache

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/lepinkainen/bookmeta/internal/config"
	_ "modernc.org/sqlite"
)

const (
	// DefaultCacheTTL is the default time-to-live for cached entries (30 days)
	DefaultCacheTTL = 720 * time.Hour
	// NegativeCacheTTL is the TTL for "not found" responses (7 days)
	NegativeCacheTTL = 168 * time.Hour
)

// FetchFunc represents a function that fetches data from an external source
type FetchFunc[T any] func() (T, error)

// CacheDB manages the SQLite database connection for caching
type CacheDB struct {
	db          *sql.DB
	mu          sync.RWMutex
	path        string
	ttl         time.Duration
	negativeTTL time.Duration
	now         func() time.Time
}

// Open opens (or creates) the cache database at dbPath and initializes all
// cache tables. Zero TTLs fall back to the package defaults.
func Open(dbPath string, ttl, negativeTTL time.Duration) (*CacheDB, error) {
	c, err := NewCacheDB(dbPath)
	if err != nil {
		return nil, err
	}
	if ttl > 0 {
		c.ttl = ttl
	}
	if negativeTTL > 0 {
		c.negativeTTL = negativeTTL
	}

	for _, schema := range AllCacheSchemas {
		if err := c.CreateTable(schema); err != nil {
			return nil, errors.Join(fmt.Errorf("failed to create cache table: %w", err), c.Close())
		}
	}
	return c, nil
}

// OpenFromConfig opens the cache described by cfg. It returns nil, nil when
// no database file is configured.
func OpenFromConfig(cfg config.CacheConfig) (*CacheDB, error) {
	if cfg.DBFile == "" {
		return nil, nil
	}
	return Open(cfg.DBFile, cfg.TTL, cfg.NegativeTTL)
}

// NewCacheDB creates a new CacheDB instance and opens the database connection
func NewCacheDB(dbPath string) (*CacheDB, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache database: %w", err)
	}

	// Set connection pool settings
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)

	if err := db.Ping(); err != nil {
		closeErr := db.Close()
		return nil, errors.Join(fmt.Errorf("failed to connect to cache database: %w", err), closeErr)
	}

	return &CacheDB{
		db:          db,
		path:        dbPath,
		ttl:         DefaultCacheTTL,
		negativeTTL: NegativeCacheTTL,
		now:         time.Now,
	}, nil
}

// Path returns the database file path.
func (c *CacheDB) Path() string {
	return c.path
}

// TTL returns the lifetime of positive entries.
func (c *CacheDB) TTL() time.Duration {
	return c.ttl
}

// NegativeTTL returns the lifetime of "not found" entries.
func (c *CacheDB) NegativeTTL() time.Duration {
	return c.negativeTTL
}

// CreateTable creates a table using the provided schema
func (c *CacheDB) CreateTable(schema string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, err := c.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create table: %w", err)
	}
	return nil
}

// Close closes the database connection
func (c *CacheDB) Close() error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.db != nil {
		return c.db.Close()
	}
	return nil
}

// TableFor maps a source name ("googlebooks", "openlibrary") to its table.
func TableFor(source string) (string, error) {
	table := strings.ToLower(strings.TrimSpace(source)) + "_cache"
	if err := validateTableName(table); err != nil {
		return "", fmt.Errorf("invalid cache source %q; valid sources are: %s", source, strings.Join(Sources(), ", "))
	}
	return table, nil
}

// Sources lists the cacheable source names in sorted order.
func Sources() []string {
	sources := make([]string, 0, len(ValidCacheTableNames))
	for table := range ValidCacheTableNames {
		sources = append(sources, strings.TrimSuffix(table, "_cache"))
	}
	sort.Strings(sources)
	return sources
}

// validateTableName checks if the table name is in the whitelist
// to prevent SQL injection attacks
func validateTableName(tableName string) error {
	if !ValidCacheTableNames[tableName] {
		return fmt.Errorf("invalid cache table name: %s", tableName)
	}
	return nil
}

// Get retrieves a cached value from the specified table.
// Expired rows are reported as a miss.
func (c *CacheDB) Get(tableName, key string) (string, bool, error) {
	if err := validateTableName(tableName); err != nil {
		return "", false, err
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	query := fmt.Sprintf(`SELECT data, expires_at FROM %s WHERE cache_key = ?`, tableName)

	var data string
	var expiresAt int64
	err := c.db.QueryRow(query, key).Scan(&data, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to query cache: %w", err)
	}

	if c.now().Unix() >= expiresAt {
		slog.Debug("Cache expired", "table", tableName, "key", key)
		return "", false, nil
	}

	return data, true, nil
}

// Set stores a value in the cache. A zero ttl uses the positive TTL.
func (c *CacheDB) Set(tableName, key, data string, ttl time.Duration) error {
	if err := validateTableName(tableName); err != nil {
		return err
	}
	if ttl <= 0 {
		ttl = c.ttl
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	query := fmt.Sprintf(`
		INSERT OR REPLACE INTO %s (cache_key, data, cached_at, expires_at)
		VALUES (?, ?, ?, ?)
	`, tableName)

	if _, err := c.db.Exec(query, key, data, now.Unix(), now.Add(ttl).Unix()); err != nil {
		return fmt.Errorf("failed to set cache: %w", err)
	}
	return nil
}

// ClearExpired removes expired cache entries from the specified table
// and returns how many were deleted.
func (c *CacheDB) ClearExpired(tableName string) (int64, error) {
	if err := validateTableName(tableName); err != nil {
		return 0, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	query := fmt.Sprintf(`DELETE FROM %s WHERE expires_at <= ?`, tableName)
	result, err := c.db.Exec(query, c.now().Unix())
	if err != nil {
		return 0, fmt.Errorf("failed to clear expired cache: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows > 0 {
		slog.Info("Cleared expired cache entries", "table", tableName, "count", rows)
	}
	return rows, nil
}

// InvalidateSource deletes all entries from the specified cache table
// and returns the number of rows deleted.
func (c *CacheDB) InvalidateSource(tableName string) (int64, error) {
	if err := validateTableName(tableName); err != nil {
		return 0, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	result, err := c.db.Exec(fmt.Sprintf("DELETE FROM %s", tableName))
	if err != nil {
		return 0, fmt.Errorf("failed to delete cache entries: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	slog.Debug("Cache table cleared", "table", tableName, "rows_deleted", rowsAffected)
	return rowsAffected, nil
}

// GetOrFetchWithTTL retrieves data from cache or fetches it using the provided
// function. ttlSelector picks the lifetime of a freshly fetched value, which
// lets "not found" answers expire sooner than real data. Fetch errors are
// returned as-is and never cached. A nil cache always fetches.
func GetOrFetchWithTTL[T any](c *CacheDB, tableName, cacheKey string, fetchFunc FetchFunc[T], ttlSelector func(T) time.Duration) (T, bool, error) {
	if c == nil {
		data, err := fetchFunc()
		return data, false, err
	}

	cached, fromCache, err := c.Get(tableName, cacheKey)
	if err != nil {
		slog.Warn("Cache lookup failed, fetching directly", "table", tableName, "key", cacheKey, "error", err)
	} else if fromCache {
		var result T
		if err := json.Unmarshal([]byte(cached), &result); err == nil {
			slog.Debug("Cache hit", "table", tableName, "key", cacheKey)
			return result, true, nil
		}
		slog.Warn("Failed to unmarshal cached data, will refetch", "table", tableName, "key", cacheKey, "error", err)
	}

	slog.Debug("Cache miss, fetching data", "table", tableName, "key", cacheKey)
	data, err := fetchFunc()
	if err != nil {
		return data, false, err
	}

	ttl := c.ttl
	if ttlSelector != nil {
		ttl = ttlSelector(data)
	}

	jsonData, err := json.Marshal(data)
	if err != nil {
		slog.Warn("Failed to marshal data for caching", "table", tableName, "key", cacheKey, "error", err)
		return data, false, nil
	}
	// Caching failure shouldn't stop the lookup
	if err := c.Set(tableName, cacheKey, string(jsonData), ttl); err != nil {
		slog.Warn("Failed to cache data", "table", tableName, "key", cacheKey, "error", err)
	} else {
		slog.Debug("Data cached successfully", "table", tableName, "key", cacheKey, "ttl", ttl)
	}

	return data, false, nil
}

// SelectNegativeCacheTTL returns a TTL selector that gives "not found"
// results the cache's negative TTL and everything else the positive TTL.
func SelectNegativeCacheTTL[T any](c *CacheDB, isNotFound func(T) bool) func(T) time.Duration {
	return func(result T) time.Duration {
		if c == nil {
			return 0
		}
		if isNotFound(result) {
			return c.negativeTTL
		}
		return c.ttl
	}
}
