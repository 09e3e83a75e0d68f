// Package config loads festival-scraper configuration from YAML and the
// environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/sydlexius/festival-scraper/internal/festival"
	"github.com/sydlexius/festival-scraper/internal/logging"
	"github.com/sydlexius/festival-scraper/internal/params"
	"github.com/sydlexius/festival-scraper/internal/provider"
)

// Config holds all application configuration.
type Config struct {
	Catalog    CatalogConfig         `yaml:"catalog"`
	Tracker    TrackerConfig         `yaml:"tracker"`
	Fanout     FanoutConfig          `yaml:"fanout"`
	Storage    StorageConfig         `yaml:"storage"`
	Params     ParamsConfig          `yaml:"params"`
	Database   DatabaseConfig        `yaml:"database"`
	Encryption EncryptionConfig      `yaml:"encryption"`
	Logging    logging.Config        `yaml:"logging"`
	Festivals  []festival.Definition `yaml:"festivals"`
}

// CatalogConfig holds music catalog settings.
type CatalogConfig struct {
	TokenURL          string   `yaml:"token_url"`
	BaseURL           string   `yaml:"base_url"`
	Market            string   `yaml:"market"`
	ClientIDParam     string   `yaml:"client_id_param"`
	ClientSecretParam string   `yaml:"client_secret_param"`
	GenreHints        []string `yaml:"genre_hints"`
	OverridesPath     string   `yaml:"overrides_path"`
}

// TrackerConfig holds issue tracker settings.
type TrackerConfig struct {
	BaseURL    string   `yaml:"base_url"`
	Owner      string   `yaml:"owner"`
	Repo       string   `yaml:"repo"`
	TokenParam string   `yaml:"token_param"`
	Assignees  []string `yaml:"assignees"`
}

// FanoutConfig bounds concurrent catalog lookups.
type FanoutConfig struct {
	Concurrency       int     `yaml:"concurrency"`
	RequestsPerSecond float64 `yaml:"requests_per_second"`
}

// Storage backends.
const (
	StorageFilesystem = "filesystem"
	StorageGCS        = "gcs"
)

// StorageConfig selects where artifacts are published.
type StorageConfig struct {
	Backend string `yaml:"backend"`
	Path    string `yaml:"path"`
	Bucket  string `yaml:"bucket"`
	Prefix  string `yaml:"prefix"`
}

// Parameter backends.
const (
	ParamsEnv           = "env"
	ParamsSQLite        = "sqlite"
	ParamsSecretManager = "secretmanager"
)

// ParamsConfig selects where credentials are read from.
type ParamsConfig struct {
	Backend string `yaml:"backend"`
	Project string `yaml:"project"`
}

// DatabaseConfig holds SQLite settings.
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// EncryptionConfig holds the key sealing stored parameters.
type EncryptionConfig struct {
	Key string `yaml:"key"`
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		Catalog: CatalogConfig{
			Market:            "DE",
			ClientIDParam:     params.SpotifyClientID,
			ClientSecretParam: params.SpotifyClientSecret,
			GenreHints:        provider.DefaultGenreHints(),
		},
		Tracker: TrackerConfig{
			Owner:      "kruspe",
			Repo:       "festival-scraper",
			TokenParam: params.GitHubToken,
			Assignees:  []string{"kruspe"},
		},
		Fanout: FanoutConfig{
			Concurrency:       provider.DefaultConcurrency,
			RequestsPerSecond: provider.DefaultRequestsPerSecond,
		},
		Storage: StorageConfig{
			Backend: StorageFilesystem,
			Path:    "artifacts",
		},
		Params: ParamsConfig{
			Backend: ParamsEnv,
		},
		Database: DatabaseConfig{
			Path: "data/festival-scraper.db",
		},
		Logging:   logging.DefaultConfig(),
		Festivals: DefaultFestivals(),
	}
}

// DefaultFestivals returns the festivals scraped when none are configured.
func DefaultFestivals() []festival.Definition {
	return []festival.Definition{
		{Name: "wacken", Source: festival.SourceWacken},
		{Name: "dong", Source: festival.SourceDong},
		{Name: "rude", Source: festival.SourceStatic, Artists: []string{
			"Rotting Christ", "Soulfly", "Naglfar", "Anaal Nathrakh", "Stillbirth",
			"Robse", "Necrotted", "Space Chaser", "Embedded", "Wilt", "Black Adder",
			"Epidemic Scorn", "Yardfield Colony", "Menerra", "Maggots",
			"Out For Change", "Jack & CÃ¶ke", "Metal Worx",
		}},
	}
}

// Load reads config from a YAML file (if it exists) and overrides with
// environment variables. Environment variables take precedence.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if err := cfg.loadFromFile(path); err != nil {
			return nil, fmt.Errorf("loading config file: %w", err)
		}
	}

	cfg.loadFromEnv()

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

func (c *Config) loadFromFile(path string) error {
	data, err := os.ReadFile(path) //nolint:gosec // G304: path comes from the --config flag
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	return yaml.Unmarshal(data, c)
}

func (c *Config) loadFromEnv() {
	if v := os.Getenv("FS_SPOTIFY_TOKEN_URL"); v != "" {
		c.Catalog.TokenURL = v
	}
	if v := os.Getenv("FS_SPOTIFY_BASE_URL"); v != "" {
		c.Catalog.BaseURL = v
	}
	if v := os.Getenv("FS_SPOTIFY_MARKET"); v != "" {
		c.Catalog.Market = v
	}
	if v := os.Getenv("FS_SPOTIFY_CLIENT_ID_PARAM"); v != "" {
		c.Catalog.ClientIDParam = v
	}
	if v := os.Getenv("FS_SPOTIFY_CLIENT_SECRET_PARAM"); v != "" {
		c.Catalog.ClientSecretParam = v
	}
	if v := os.Getenv("FS_OVERRIDES_PATH"); v != "" {
		c.Catalog.OverridesPath = v
	}
	if v := os.Getenv("FS_GITHUB_BASE_URL"); v != "" {
		c.Tracker.BaseURL = v
	}
	if v := os.Getenv("FS_GITHUB_OWNER"); v != "" {
		c.Tracker.Owner = v
	}
	if v := os.Getenv("FS_GITHUB_REPO"); v != "" {
		c.Tracker.Repo = v
	}
	if v := os.Getenv("FS_GITHUB_TOKEN_PARAM"); v != "" {
		c.Tracker.TokenParam = v
	}
	if v := os.Getenv("FS_GITHUB_ASSIGNEES"); v != "" {
		c.Tracker.Assignees = splitList(v)
	}
	if v := os.Getenv("FS_CONCURRENCY"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Fanout.Concurrency = n
		}
	}
	if v := os.Getenv("FS_REQUESTS_PER_SECOND"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.Fanout.RequestsPerSecond = f
		}
	}
	if v := os.Getenv("FS_STORAGE_BACKEND"); v != "" {
		c.Storage.Backend = v
	}
	if v := os.Getenv("FS_STORAGE_PATH"); v != "" {
		c.Storage.Path = v
	}
	if v := os.Getenv("FS_FESTIVAL_ARTISTS_BUCKET"); v != "" {
		c.Storage.Bucket = v
	}
	if v := os.Getenv("FS_STORAGE_PREFIX"); v != "" {
		c.Storage.Prefix = v
	}
	if v := os.Getenv("FS_PARAMS_BACKEND"); v != "" {
		c.Params.Backend = v
	}
	if v := os.Getenv("FS_GCP_PROJECT"); v != "" {
		c.Params.Project = v
	}
	if v := os.Getenv("FS_DB_PATH"); v != "" {
		c.Database.Path = v
	}
	if v := os.Getenv("FS_ENCRYPTION_KEY"); v != "" {
		c.Encryption.Key = v
	}
	if v := os.Getenv("FS_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("FS_LOG_FORMAT"); v != "" {
		c.Logging.Format = v
	}
	if v := os.Getenv("FS_LOG_FILE"); v != "" {
		c.Logging.FilePath = v
	}
}

func splitList(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func (c *Config) validate() error {
	if c.Fanout.Concurrency < 1 {
		return fmt.Errorf("fanout concurrency must be at least 1, got %d", c.Fanout.Concurrency)
	}
	if c.Fanout.RequestsPerSecond <= 0 {
		return fmt.Errorf("fanout requests_per_second must be positive, got %v", c.Fanout.RequestsPerSecond)
	}
	if c.Tracker.Owner == "" || c.Tracker.Repo == "" {
		return fmt.Errorf("tracker owner and repo are required")
	}
	if len(c.Catalog.GenreHints) == 0 {
		return fmt.Errorf("catalog genre_hints must not be empty")
	}
	for _, g := range c.Catalog.GenreHints {
		if strings.TrimSpace(g) == "" {
			return fmt.Errorf("catalog genre_hints contains an empty entry")
		}
	}

	switch c.Storage.Backend {
	case StorageFilesystem:
		if c.Storage.Path == "" {
			return fmt.Errorf("storage path is required for the filesystem backend")
		}
	case StorageGCS:
		if c.Storage.Bucket == "" {
			return fmt.Errorf("storage bucket is required for the gcs backend")
		}
	default:
		return fmt.Errorf("unknown storage backend %q", c.Storage.Backend)
	}

	switch c.Params.Backend {
	case ParamsEnv:
	case ParamsSQLite:
		if c.Database.Path == "" {
			return fmt.Errorf("database path is required for the sqlite params backend")
		}
	case ParamsSecretManager:
		if c.Params.Project == "" {
			return fmt.Errorf("params project is required for the secretmanager backend")
		}
	default:
		return fmt.Errorf("unknown params backend %q", c.Params.Backend)
	}

	if !logging.ValidLevel(c.Logging.Level) {
		return fmt.Errorf("invalid log level %q", c.Logging.Level)
	}
	if !logging.ValidFormat(c.Logging.Format) {
		return fmt.Errorf("invalid log format %q", c.Logging.Format)
	}

	seen := make(map[string]bool, len(c.Festivals))
	for i, f := range c.Festivals {
		if f.Name == "" {
			return fmt.Errorf("festival %d has no name", i)
		}
		if seen[f.Name] {
			return fmt.Errorf("duplicate festival %q", f.Name)
		}
		seen[f.Name] = true
		if !festival.ValidSource(f.Source) {
			return fmt.Errorf("festival %q has unknown source %q", f.Name, f.Source)
		}
	}
	return nil
}

// Festival returns the festival named name.
func (c *Config) Festival(name string) (festival.Definition, bool) {
	for _, f := range c.Festivals {
		if f.Name == name {
			return f, true
		}
	}
	return festival.Definition{}, false
}
