// Package cache persists PubMed lookup results between runs.
package cache

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mfujita47/pmidcite/internal/reference"
)

// Backend names accepted by Open.
const (
	BackendJSON   = "json"
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
	BackendNone   = "none"
)

const (
	// DefaultFileName is used when a JSON cache path names a directory.
	DefaultFileName = ".pubmed_cache.json"

	// DefaultSQLiteName is used when a SQLite cache path names a directory.
	DefaultSQLiteName = "pubmed_cache.db"

	// DefaultRedisAddr is the Redis address used when none is configured.
	DefaultRedisAddr = "localhost:6379"
)

// ErrUnknownBackend is returned by Open for an unsupported backend name.
var ErrUnknownBackend = errors.New("unknown cache backend")

// Entry is a cached lookup outcome for one PMID. An entry without a Record
// is a recorded failure; callers retry those.
type Entry struct {
	Record    *reference.Reference `json:"record,omitempty"`
	Error     string               `json:"error,omitempty"`
	FetchedAt time.Time            `json:"fetched_at"`
}

// Failed reports whether the entry records a failed lookup.
func (e Entry) Failed() bool {
	return e.Record == nil
}

// Store is a persistent PMID-keyed cache.
type Store interface {
	Get(ctx context.Context, pmid string) (Entry, bool, error)
	Put(ctx context.Context, entries map[string]Entry) error
	Len(ctx context.Context) (int, error)
	Clear(ctx context.Context) error
	// Location describes where entries are kept (file path, Redis address).
	Location() string
	Close() error
}

// Options selects and configures a Store.
type Options struct {
	Backend   string
	Path      string // file or directory for json and sqlite
	RedisAddr string
	TTL       time.Duration // redis only; zero keeps entries forever
	Logger    *zap.Logger
}

// Backends lists the valid backend names.
func Backends() []string {
	return []string{BackendJSON, BackendSQLite, BackendRedis, BackendNone}
}

// ValidBackend reports whether name is a known backend.
func ValidBackend(name string) bool {
	for _, b := range Backends() {
		if b == name {
			return true
		}
	}
	return false
}

// Open opens the configured backend. An empty backend means JSON.
func Open(ctx context.Context, opts Options) (Store, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	switch opts.Backend {
	case "", BackendJSON:
		return OpenJSON(opts.Path, logger)
	case BackendSQLite:
		return OpenSQLite(opts.Path)
	case BackendRedis:
		addr := opts.RedisAddr
		if addr == "" {
			addr = DefaultRedisAddr
		}
		return OpenRedis(ctx, addr, opts.TTL)
	case BackendNone:
		return Nop{}, nil
	default:
		return nil, fmt.Errorf("%w: %q (want one of %s)", ErrUnknownBackend, opts.Backend, strings.Join(Backends(), ", "))
	}
}

// ResolvePath returns the cache file for path: path itself, or
// defaultName inside it when path is an existing directory or ends with a
// path separator.
func ResolvePath(path, defaultName string) string {
	if path == "" {
		return defaultName
	}
	if strings.HasSuffix(path, string(filepath.Separator)) || strings.HasSuffix(path, "/") {
		return filepath.Join(path, defaultName)
	}
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		return filepath.Join(path, defaultName)
	}
	return path
}

// Nop is a disabled cache: it stores nothing and never hits.
type Nop struct{}

func (Nop) Get(context.Context, string) (Entry, bool, error) { return Entry{}, false, nil }
func (Nop) Put(context.Context, map[string]Entry) error      { return nil }
func (Nop) Len(context.Context) (int, error)                 { return 0, nil }
func (Nop) Clear(context.Context) error                      { return nil }
func (Nop) Location() string                                 { return "disabled" }
func (Nop) Close() error                                     { return nil }
