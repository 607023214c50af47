// Package config handles pmidcite configuration: built-in defaults, the
// global YAML file and the environment. Command-line flags are applied on
// top by the CLI.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"gopkg.in/yaml.v3"
)

// File represents configuration stored in ~/.config/pmidcite/config.yml.
// Unset fields fall back to defaults.
type File struct {
	NCBIAPIKey       string    `yaml:"ncbi_api_key,omitempty"`
	Email            string    `yaml:"email,omitempty"`
	PMIDRegex        string    `yaml:"pmid_regex,omitempty"`
	Separators       *string   `yaml:"separators,omitempty"`
	CitationFormat   string    `yaml:"citation_format,omitempty"`
	RefItemFormat    string    `yaml:"ref_item_format,omitempty"`
	AuthorThreshold  *int      `yaml:"author_threshold,omitempty"`
	APIDelay         *float64  `yaml:"api_delay,omitempty"` // seconds
	ReferencesHeader string    `yaml:"references_header,omitempty"`
	Cache            FileCache `yaml:"cache,omitempty"`
}

// FileCache is the cache section of the config file.
type FileCache struct {
	Backend   string `yaml:"backend,omitempty"`
	Path      string `yaml:"path,omitempty"`
	RedisAddr string `yaml:"redis_addr,omitempty"`
	TTL       string `yaml:"ttl,omitempty"` // Go duration, e.g. "720h"
}

const (
	// GlobalConfigDir is the directory name under XDG_CONFIG_HOME.
	GlobalConfigDir = "pmidcite"
	// GlobalConfigFile is the config file name.
	GlobalConfigFile = "config.yml"
)

// ErrUnknownKey is returned by Get and Set for keys not in Keys.
var ErrUnknownKey = errors.New("unknown config key")

// Keys lists the settable configuration keys.
var Keys = []string{
	"ncbi_api_key",
	"email",
	"pmid_regex",
	"separators",
	"citation_format",
	"ref_item_format",
	"author_threshold",
	"api_delay",
	"references_header",
	"cache.backend",
	"cache.path",
	"cache.redis_addr",
	"cache.ttl",
}

// globalConfigCache caches the loaded global config.
var globalConfigCache *File

// GlobalConfigPath returns the path to the global config file.
// Respects XDG_CONFIG_HOME, defaults to ~/.config/pmidcite/config.yml.
func GlobalConfigPath() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, GlobalConfigDir, GlobalConfigFile)
}

// LoadGlobalConfig loads the global configuration file.
// Returns an empty config (not an error) if the file doesn't exist.
func LoadGlobalConfig() (*File, error) {
	if globalConfigCache != nil {
		return globalConfigCache, nil
	}

	path := GlobalConfigPath()
	if path == "" {
		return &File{}, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &File{}, nil
		}
		return nil, fmt.Errorf("reading global config: %w", err)
	}

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("%w: parsing %s: %v", ErrInvalidConfig, path, err)
	}
	f.Cache.Path = ExpandPath(f.Cache.Path)

	globalConfigCache = &f
	return &f, nil
}

// ResetGlobalConfigCache clears the cached global config.
// Useful for testing.
func ResetGlobalConfigCache() {
	globalConfigCache = nil
}

// SaveGlobalConfig writes f to the global config file, creating its
// directory. The file may hold an API key, so it is private to the user.
func SaveGlobalConfig(f *File) error {
	path := GlobalConfigPath()
	if path == "" {
		return errors.New("cannot determine config directory")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(f)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	globalConfigCache = f
	return nil
}

// Get returns the value of key as written in the file ("" when unset).
func (f *File) Get(key string) (string, error) {
	switch key {
	case "ncbi_api_key":
		return f.NCBIAPIKey, nil
	case "email":
		return f.Email, nil
	case "pmid_regex":
		return f.PMIDRegex, nil
	case "separators":
		if f.Separators == nil {
			return "", nil
		}
		return *f.Separators, nil
	case "citation_format":
		return f.CitationFormat, nil
	case "ref_item_format":
		return f.RefItemFormat, nil
	case "author_threshold":
		if f.AuthorThreshold == nil {
			return "", nil
		}
		return strconv.Itoa(*f.AuthorThreshold), nil
	case "api_delay":
		if f.APIDelay == nil {
			return "", nil
		}
		return strconv.FormatFloat(*f.APIDelay, 'f', -1, 64), nil
	case "references_header":
		return f.ReferencesHeader, nil
	case "cache.backend":
		return f.Cache.Backend, nil
	case "cache.path":
		return f.Cache.Path, nil
	case "cache.redis_addr":
		return f.Cache.RedisAddr, nil
	case "cache.ttl":
		return f.Cache.TTL, nil
	}
	return "", fmt.Errorf("%w: %s (valid: %v)", ErrUnknownKey, key, sortedKeys())
}

// Set parses value into key. Numeric keys reject non-numbers; other
// validation happens in Config.Validate.
func (f *File) Set(key, value string) error {
	switch key {
	case "ncbi_api_key":
		f.NCBIAPIKey = value
	case "email":
		f.Email = value
	case "pmid_regex":
		f.PMIDRegex = value
	case "separators":
		f.Separators = &value
	case "citation_format":
		f.CitationFormat = value
	case "ref_item_format":
		f.RefItemFormat = value
	case "author_threshold":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("%w: author_threshold must be an integer: %q", ErrInvalidConfig, value)
		}
		f.AuthorThreshold = &n
	case "api_delay":
		d, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("%w: api_delay must be a number of seconds: %q", ErrInvalidConfig, value)
		}
		f.APIDelay = &d
	case "references_header":
		f.ReferencesHeader = value
	case "cache.backend":
		f.Cache.Backend = value
	case "cache.path":
		f.Cache.Path = value
	case "cache.redis_addr":
		f.Cache.RedisAddr = value
	case "cache.ttl":
		f.Cache.TTL = value
	default:
		return fmt.Errorf("%w: %s (valid: %v)", ErrUnknownKey, key, sortedKeys())
	}
	return nil
}

func sortedKeys() []string {
	keys := append([]string(nil), Keys...)
	sort.Strings(keys)
	return keys
}

// ExpandPath expands ~ to the user's home directory.
// Returns the original path unchanged if it doesn't start with ~.
func ExpandPath(path string) string {
	if len(path) == 0 || path[0] != '~' {
		return path
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return path // Return original if we can't get home directory
	}

	return filepath.Join(home, path[1:])
}
