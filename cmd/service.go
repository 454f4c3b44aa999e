package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/lepinkainen/bookmeta/internal/cache"
	"github.com/lepinkainen/bookmeta/internal/config"
	"github.com/lepinkainen/bookmeta/internal/resolver"
)

// openService wires the providers, the optional sqlite cache and the
// resolver. The returned cleanup closes the cache.
func openService(cfg *config.Config) (*resolver.Service, func(), error) {
	db, err := cache.OpenFromConfig(cfg.Cache)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open cache database: %w", err)
	}

	svc := resolver.NewFromConfig(cfg, newProviders(cfg, db))
	return svc, func() { _ = db.Close() }, nil
}

// commandContext is cancelled on interrupt.
func commandContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}
