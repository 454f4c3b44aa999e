package cache

// SQL schemas for cache tables.
// All cache tables use "cache_key" as the primary key column and store unix
// timestamps so expiry checks do not depend on sqlite datetime parsing.

// GoogleBooksCacheSchema defines the schema for Google Books volume lookups
const GoogleBooksCacheSchema = `
CREATE TABLE IF NOT EXISTS googlebooks_cache (
	cache_key TEXT PRIMARY KEY NOT NULL,
	data TEXT NOT NULL,
	cached_at INTEGER NOT NULL,
	expires_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_googlebooks_expires_at ON googlebooks_cache(expires_at);
`

// OpenLibraryCacheSchema defines the schema for Open Library edition lookups
const OpenLibraryCacheSchema = `
CREATE TABLE IF NOT EXISTS openlibrary_cache (
	cache_key TEXT PRIMARY KEY NOT NULL,
	data TEXT NOT NULL,
	cached_at INTEGER NOT NULL,
	expires_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_openlibrary_expires_at ON openlibrary_cache(expires_at);
`

// AllCacheSchemas contains all cache table schemas for easy initialization
var AllCacheSchemas = []string{
	GoogleBooksCacheSchema,
	OpenLibraryCacheSchema,
}

// Source names accepted by TableFor and the invalidate command.
const (
	SourceGoogleBooks = "googlebooks"
	SourceOpenLibrary = "openlibrary"
)

// ValidCacheTableNames is the whitelist of allowed cache table names
// Used to prevent SQL injection when interpolating table names
var ValidCacheTableNames = map[string]bool{
	"googlebooks_cache": true,
	"openlibrary_cache": true,
}
