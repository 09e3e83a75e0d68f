package main

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	gcs "cloud.google.com/go/storage"
	"github.com/spf13/cobra"

	"github.com/sydlexius/festival-scraper/internal/config"
	"github.com/sydlexius/festival-scraper/internal/connection/github"
	"github.com/sydlexius/festival-scraper/internal/database"
	"github.com/sydlexius/festival-scraper/internal/logging"
	"github.com/sydlexius/festival-scraper/internal/params"
	"github.com/sydlexius/festival-scraper/internal/provider"
	"github.com/sydlexius/festival-scraper/internal/provider/spotify"
	"github.com/sydlexius/festival-scraper/internal/storage"
)

// app holds the configuration and resources shared by the commands.
type app struct {
	cfg     *config.Config
	logger  *slog.Logger
	closers []io.Closer
}

func newApp(cmd *cobra.Command) (*app, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	logger, closer := logging.New(cfg.Logging, os.Stderr)
	slog.SetDefault(logger)
	logger.Debug("config loaded", slog.String("path", path), slog.String("logging", cfg.Logging.String()))

	return &app{cfg: cfg, logger: logger, closers: []io.Closer{closer}}, nil
}

// Close releases resources in reverse order of acquisition.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			a.logger.Warn("closing resource", slog.String("error", err.Error()))
		}
	}
}

func (a *app) openDatabase(ctx context.Context) (*sql.DB, error) {
	db, err := database.Open(ctx, a.cfg.Database.Path)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, db)
	if err := database.Migrate(ctx, db); err != nil {
		return nil, err
	}
	a.logger.Debug("database ready", slog.String("path", a.cfg.Database.Path))
	return db, nil
}

func (a *app) sqlStore(ctx context.Context) (*params.SQLStore, error) {
	db, err := a.openDatabase(ctx)
	if err != nil {
		return nil, err
	}
	key, err := a.resolveEncryptionKey()
	if err != nil {
		return nil, fmt.Errorf("resolving encryption key: %w", err)
	}
	sealer, _, err := params.NewSealer(key)
	if err != nil {
		return nil, fmt.Errorf("creating sealer: %w", err)
	}
	return params.NewSQLStore(db, sealer), nil
}

func (a *app) paramStore(ctx context.Context) (params.Store, error) {
	switch a.cfg.Params.Backend {
	case config.ParamsSQLite:
		return a.sqlStore(ctx)
	case config.ParamsSecretManager:
		s, err := params.NewSecretManagerStore(ctx, a.cfg.Params.Project)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, s)
		return s, nil
	default:
		return params.NewEnvStore(), nil
	}
}

// resolveEncryptionKey returns the configured key, then the key file next
// to the database, and otherwise generates and persists a fresh key.
func (a *app) resolveEncryptionKey() (string, error) {
	if a.cfg.Encryption.Key != "" {
		return a.cfg.Encryption.Key, nil
	}

	dataDir := filepath.Dir(a.cfg.Database.Path)
	keyFile := filepath.Join(dataDir, "encryption.key")

	data, err := os.ReadFile(keyFile) //nolint:gosec // G304: path derived from trusted config
	if err == nil {
		if key := strings.TrimSpace(string(data)); key != "" {
			a.logger.Debug("loaded encryption key from file", slog.String("path", keyFile))
			return key, nil
		}
	}

	_, key, err := params.NewSealer("")
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dataDir, 0o750); err != nil {
		return "", fmt.Errorf("creating data directory: %w", err)
	}
	if err := os.WriteFile(keyFile, []byte(key+"\n"), 0o600); err != nil {
		return "", fmt.Errorf("saving encryption key: %w", err)
	}
	a.logger.Warn("generated new encryption key -- back up this file", slog.String("path", keyFile))
	return key, nil
}

func (a *app) overrides() (*provider.Overrides, error) {
	o, err := provider.LoadOverrides(a.cfg.Catalog.OverridesPath)
	if err != nil {
		return nil, fmt.Errorf("loading overrides: %w", err)
	}
	return o, nil
}

func (a *app) catalog(ctx context.Context, store params.Store) (*spotify.Client, error) {
	c := a.cfg.Catalog
	secrets, err := store.GetParameters(ctx, []string{c.ClientIDParam, c.ClientSecretParam})
	if err != nil {
		return nil, fmt.Errorf("reading catalog credentials: %w", err)
	}
	overrides, err := a.overrides()
	if err != nil {
		return nil, err
	}
	return spotify.New(ctx, spotify.Config{
		ClientID:     secrets[c.ClientIDParam],
		ClientSecret: secrets[c.ClientSecretParam],
		TokenURL:     c.TokenURL,
		BaseURL:      c.BaseURL,
		Market:       c.Market,
	}, overrides, a.logger)
}

func (a *app) tracker(ctx context.Context, store params.Store) (*github.Client, error) {
	t := a.cfg.Tracker
	secrets, err := store.GetParameters(ctx, []string{t.TokenParam})
	if err != nil {
		return nil, fmt.Errorf("reading tracker token: %w", err)
	}
	return github.New(ctx, github.Config{
		BaseURL:   t.BaseURL,
		Owner:     t.Owner,
		Repo:      t.Repo,
		Token:     secrets[t.TokenParam],
		Assignees: t.Assignees,
	}, a.logger)
}

func (a *app) publisher(ctx context.Context) (storage.Publisher, error) {
	s := a.cfg.Storage
	if s.Backend != config.StorageGCS {
		return storage.NewFilePublisher(s.Path), nil
	}
	client, err := gcs.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("creating storage client: %w", err)
	}
	a.closers = append(a.closers, client)
	return storage.NewGCSPublisher(client, s.Bucket, s.Prefix)
}

func (a *app) runner(identifier provider.Identifier) *provider.Runner {
	return provider.NewRunner(identifier, a.cfg.Fanout.Concurrency, a.cfg.Fanout.RequestsPerSecond, a.logger)
}
