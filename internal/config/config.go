package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"

	"github.com/mfujita47/pmidcite/internal/cache"
	"github.com/mfujita47/pmidcite/internal/citation"
	"github.com/mfujita47/pmidcite/internal/pubmed"
	"github.com/mfujita47/pmidcite/internal/refsection"
)

// ErrInvalidConfig wraps every rejected configuration value.
var ErrInvalidConfig = errors.New("invalid configuration")

// Environment variables read by Resolve.
const (
	EnvAPIKey = "NCBI_API_KEY"
	EnvEmail  = "NCBI_EMAIL"
)

// Config is the effective configuration of a run.
type Config struct {
	APIKey           string        `json:"ncbi_api_key"`
	Email            string        `json:"email"`
	PMIDRegex        string        `json:"pmid_regex"`
	Separators       string        `json:"separators"`
	CitationFormat   string        `json:"citation_format"`
	RefItemFormat    string        `json:"ref_item_format"`
	AuthorThreshold  int           `json:"author_threshold"`
	APIDelay         time.Duration `json:"api_delay"`
	ReferencesHeader string        `json:"references_header"`
	Cache            CacheConfig   `json:"cache"`
}

// CacheConfig selects the lookup cache.
type CacheConfig struct {
	Backend   string        `json:"backend"`
	Path      string        `json:"path"`
	RedisAddr string        `json:"redis_addr"`
	TTL       time.Duration `json:"ttl"`
}

// DefaultCachePath returns the pmidcite directory under the user cache
// directory. The trailing separator lets each file backend pick its own
// file name inside it.
func DefaultCachePath() string {
	return filepath.Join(xdg.CacheHome, GlobalConfigDir) + string(filepath.Separator)
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		PMIDRegex:        citation.DefaultPatternExpr,
		Separators:       citation.DefaultSeparators,
		CitationFormat:   citation.DefaultCitationFormat,
		RefItemFormat:    refsection.DefaultItemFormat,
		AuthorThreshold:  0,
		APIDelay:         pubmed.DefaultDelay,
		ReferencesHeader: refsection.DefaultTitle,
		Cache: CacheConfig{
			Backend:   cache.BackendJSON,
			Path:      DefaultCachePath(),
			RedisAddr: cache.DefaultRedisAddr,
		},
	}
}

// Resolve layers f and the environment over the defaults. The API delay
// drops to pubmed.APIKeyDelay when a key is present and no delay was
// configured.
func Resolve(f *File) (Config, error) {
	cfg := Default()
	if f == nil {
		f = &File{}
	}

	cfg.APIKey = GetConfigValue(EnvAPIKey, f.NCBIAPIKey)
	cfg.Email = GetConfigValue(EnvEmail, f.Email)

	if f.PMIDRegex != "" {
		cfg.PMIDRegex = f.PMIDRegex
	}
	if f.Separators != nil {
		cfg.Separators = *f.Separators
	}
	if f.CitationFormat != "" {
		cfg.CitationFormat = f.CitationFormat
	}
	if f.RefItemFormat != "" {
		cfg.RefItemFormat = f.RefItemFormat
	}
	if f.AuthorThreshold != nil {
		cfg.AuthorThreshold = *f.AuthorThreshold
	}
	if f.APIDelay != nil {
		cfg.APIDelay = Seconds(*f.APIDelay)
	} else if cfg.APIKey != "" {
		cfg.APIDelay = pubmed.APIKeyDelay
	}
	if f.ReferencesHeader != "" {
		cfg.ReferencesHeader = f.ReferencesHeader
	}

	if f.Cache.Backend != "" {
		cfg.Cache.Backend = f.Cache.Backend
	}
	if f.Cache.Path != "" {
		cfg.Cache.Path = ExpandPath(f.Cache.Path)
	}
	if f.Cache.RedisAddr != "" {
		cfg.Cache.RedisAddr = f.Cache.RedisAddr
	}
	if f.Cache.TTL != "" {
		ttl, err := time.ParseDuration(f.Cache.TTL)
		if err != nil {
			return cfg, fmt.Errorf("%w: cache.ttl %q: %v", ErrInvalidConfig, f.Cache.TTL, err)
		}
		cfg.Cache.TTL = ttl
	}

	return cfg, nil
}

// Load reads the global config file and resolves it.
func Load() (Config, error) {
	f, err := LoadGlobalConfig()
	if err != nil {
		return Default(), err
	}
	return Resolve(f)
}

// GetConfigValue returns the environment variable if set, otherwise the
// config file value.
func GetConfigValue(envVar, configValue string) string {
	if v := os.Getenv(envVar); v != "" {
		return v
	}
	return configValue
}

// Seconds converts a number of seconds to a Duration.
func Seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

// Validate checks every value that would otherwise fail mid-run.
func (c Config) Validate() error {
	if _, err := citation.CompilePattern(c.PMIDRegex); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if err := citation.CheckFormat(c.CitationFormat); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if err := refsection.CheckItemFormat(c.RefItemFormat); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if c.AuthorThreshold < 0 {
		return fmt.Errorf("%w: author_threshold must be >= 0, got %d", ErrInvalidConfig, c.AuthorThreshold)
	}
	if c.APIDelay < 0 {
		return fmt.Errorf("%w: api_delay must be >= 0, got %v", ErrInvalidConfig, c.APIDelay)
	}
	if strings.TrimSpace(c.ReferencesHeader) == "" {
		return fmt.Errorf("%w: references_header must not be empty", ErrInvalidConfig)
	}
	if !cache.ValidBackend(c.Cache.Backend) {
		return fmt.Errorf("%w: cache.backend %q (valid: %s)", ErrInvalidConfig, c.Cache.Backend, strings.Join(cache.Backends(), ", "))
	}
	if c.Cache.TTL < 0 {
		return fmt.Errorf("%w: cache.ttl must be >= 0, got %v", ErrInvalidConfig, c.Cache.TTL)
	}
	return nil
}

// Redacted returns a copy safe to print: the API key is masked.
func (c Config) Redacted() Config {
	c.APIKey = MaskSecret(c.APIKey)
	return c
}

// MaskSecret keeps the last four characters of s.
func MaskSecret(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 4 {
		return "****"
	}
	return "****" + s[len(s)-4:]
}
