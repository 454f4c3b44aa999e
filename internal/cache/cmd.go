package cache

import (
	"fmt"
	"log/slog"

	"github.com/lepinkainen/bookmeta/internal/config"
)

// InvalidateCacheCmd represents the cache invalidate subcommand
type InvalidateCacheCmd struct {
	Source string `arg:"" help:"Cache source to invalidate: googlebooks, openlibrary" required:""`
}

// Run clears every cached lookup for the chosen source.
func (i *InvalidateCacheCmd) Run(cfg *config.Config) error {
	tableName, err := TableFor(i.Source)
	if err != nil {
		return err
	}
	if cfg.Cache.DBFile == "" {
		return fmt.Errorf("no cache database configured; set cache.dbfile or pass --cache-db-file")
	}

	slog.Info("Invalidating cache", "source", i.Source, "database", cfg.Cache.DBFile)

	cacheInstance, err := OpenFromConfig(cfg.Cache)
	if err != nil {
		return fmt.Errorf("failed to open cache database: %w", err)
	}
	defer func() { _ = cacheInstance.Close() }()

	rowsDeleted, err := cacheInstance.InvalidateSource(tableName)
	if err != nil {
		return fmt.Errorf("failed to invalidate cache: %w", err)
	}

	slog.Info("Cache invalidated", "source", i.Source, "rows_deleted", rowsDeleted)
	return nil
}
