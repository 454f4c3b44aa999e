package cmd

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"time"

	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"
	"github.com/lepinkainen/humanlog"
	"github.com/spf13/viper"

	"github.com/lepinkainen/bookmeta/internal/cache"
	"github.com/lepinkainen/bookmeta/internal/config"
	"github.com/lepinkainen/bookmeta/internal/enrichers"
	"github.com/lepinkainen/bookmeta/internal/enrichment/book"
	apperrors "github.com/lepinkainen/bookmeta/internal/errors"
	"github.com/lepinkainen/bookmeta/internal/tui"
)

var (
	stdout io.Writer = os.Stdout
	logOut io.Writer = os.Stderr

	newProviders = func(cfg *config.Config, db *cache.CacheDB) []book.Provider {
		return enrichers.FromConfig(cfg.Providers, db)
	}
	selectCandidate = tui.Select
)

// CLI represents the complete command structure for the bookmeta application
type CLI struct {
	// Global flags
	Config      string        `help:"Path to config file (defaults to ./config.yaml when present)" type:"path"`
	LogLevel    string        `help:"Log level: debug, info, warn, error"`
	CacheDBFile string        `help:"Path to provider cache SQLite database file (empty disables caching)"`
	Timeout     time.Duration `help:"Per-provider request timeout (e.g., 8s)"`
	Deadline    time.Duration `help:"Overall deadline for one lookup across all providers (e.g., 20s)"`

	ISBN   ISBNCmd   `cmd:"" name:"isbn" help:"Resolve an ISBN into one merged record"`
	Search SearchCmd `cmd:"" help:"Search both catalogs by title"`
	Cache  CacheCmd  `cmd:"" help:"Manage the provider response cache"`
}

// CacheCmd groups cache maintenance subcommands
type CacheCmd struct {
	Invalidate cache.InvalidateCacheCmd `cmd:"" help:"Delete every cached response for one source"`
}

// Execute runs the Kong-based CLI
func Execute() {
	loadDotEnv()
	initLogging(slog.LevelInfo)

	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("bookmeta"),
		kong.Description("Resolve book metadata from Google Books and Open Library."),
		kong.UsageOnError(),
	)

	if err := run(ctx, &cli); err != nil {
		if apperrors.IsStopProcessingError(err) {
			slog.Info("Stopped", "reason", err.Error())
			return
		}
		slog.Error("Command failed", "error", err)
		os.Exit(1)
	}
}

// run loads configuration for the parsed command line and executes the selected command.
func run(ctx *kong.Context, cli *CLI) error {
	if err := initConfig(cli.Config); err != nil {
		return err
	}
	updateGlobalConfig(cli)

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	level, err := config.ParseLevel(cfg.Log.Level)
	if err != nil {
		return err
	}
	initLogging(level)

	return ctx.Run(cfg)
}

func loadDotEnv() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Warn("Failed to load .env file", "error", err)
	}
}

// initConfig registers defaults and reads the config file. A missing
// ./config.yaml is fine; a missing file named with --config is not.
func initConfig(path string) error {
	config.SetDefaults()

	if path != "" {
		viper.SetConfigFile(path)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
	}

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path == "" && errors.As(err, &notFound) {
			slog.Debug("No config file found, using defaults")
			return nil
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}

	slog.Debug("Loaded config file", "path", viper.ConfigFileUsed())
	return nil
}

// updateGlobalConfig applies explicitly set CLI flags over config values
func updateGlobalConfig(cli *CLI) {
	if cli.LogLevel != "" {
		viper.Set(config.KeyLogLevel, cli.LogLevel)
	}
	if cli.CacheDBFile != "" {
		viper.Set(config.KeyCacheDBFile, cli.CacheDBFile)
	}
	if cli.Timeout > 0 {
		viper.Set(config.KeyProviderTimeout, cli.Timeout)
	}
	if cli.Deadline > 0 {
		viper.Set(config.KeyResolverDeadline, cli.Deadline)
	}
}

// initLogging installs the human readable handler. Logs go to stderr so
// stdout carries only command output.
func initLogging(level slog.Level) {
	handler := humanlog.NewHandler(logOut, &humanlog.Options{
		Level: level,
	})
	slog.SetDefault(slog.New(handler))
}
