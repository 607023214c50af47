package main

import (
	"context"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mfujita47/pmidcite/internal/cache"
	"github.com/mfujita47/pmidcite/internal/citation"
	"github.com/mfujita47/pmidcite/internal/config"
	"github.com/mfujita47/pmidcite/internal/document"
	"github.com/mfujita47/pmidcite/internal/logging"
	"github.com/mfujita47/pmidcite/internal/pubmed"
	"github.com/mfujita47/pmidcite/internal/refsection"
	"github.com/mfujita47/pmidcite/internal/resolver"
)

// Settings flags shared by every command. A flag only overrides the
// configuration when it is given explicitly.
var (
	pmidRegex        string
	separators       string
	authorThreshold  int
	citationFormat   string
	refItemFormat    string
	apiDelay         float64
	referencesHeader string
	cacheFile        string
	cacheBackend     string
	useCache         bool
	noCache          bool
)

func init() {
	f := rootCmd.PersistentFlags()
	f.StringVar(&pmidRegex, "pmid-regex", "", "Marker pattern; its first capture group is the PMID")
	f.StringVar(&separators, "separators", "", "Characters allowed between markers of one group, besides whitespace")
	f.IntVar(&authorThreshold, "author-threshold", 0, "List at most this many authors before \"et al\" (0 lists all)")
	f.StringVar(&citationFormat, "citation-format", "", "In-text citation template containing {number}")
	f.StringVar(&refItemFormat, "ref-item-format", "", "Reference list item template")
	f.Float64Var(&apiDelay, "api-delay", 0, "Seconds between PubMed requests")
	f.StringVar(&referencesHeader, "references-header", "", "Title of the appended references section")
	f.StringVar(&cacheFile, "cache-file", "", "Cache file or directory")
	f.StringVar(&cacheBackend, "cache-backend", "", "Cache backend: json, sqlite, redis or none")
	f.BoolVar(&useCache, "use-cache", true, "Use the lookup cache")
	f.BoolVar(&noCache, "no-cache", false, "Disable the lookup cache")
}

// loadConfig resolves defaults, the global config file, the environment
// and the flags set on cmd, then validates the result.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return cfg, err
	}

	fs := cmd.Flags()
	if fs.Changed("pmid-regex") {
		cfg.PMIDRegex = pmidRegex
	}
	if fs.Changed("separators") {
		cfg.Separators = separators
	}
	if fs.Changed("author-threshold") {
		cfg.AuthorThreshold = authorThreshold
	}
	if fs.Changed("citation-format") {
		cfg.CitationFormat = citationFormat
	}
	if fs.Changed("ref-item-format") {
		cfg.RefItemFormat = refItemFormat
	}
	if fs.Changed("api-delay") {
		cfg.APIDelay = config.Seconds(apiDelay)
	}
	if fs.Changed("references-header") {
		cfg.ReferencesHeader = referencesHeader
	}
	if fs.Changed("cache-file") {
		cfg.Cache.Path = config.ExpandPath(cacheFile)
	}
	if fs.Changed("cache-backend") {
		cfg.Cache.Backend = cacheBackend
	}
	if noCache || !useCache {
		cfg.Cache.Backend = cache.BackendNone
	}

	return cfg, cfg.Validate()
}

func newLogger() *zap.Logger {
	return logging.New(logging.Options{JSON: logJSON, Verbose: verbose, Quiet: quiet})
}

// app holds the components built from one resolved configuration.
type app struct {
	cfg      config.Config
	logger   *zap.Logger
	store    cache.Store
	client   *pubmed.Client
	resolver *resolver.Resolver
}

// newApp wires the cache, PubMed client and resolver. A cache that cannot
// be opened is logged and replaced by a disabled one.
func newApp(ctx context.Context, cmd *cobra.Command) (*app, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	logger := newLogger()

	store, err := openStore(ctx, cfg, logger)
	if err != nil {
		logger.Warn("Cache unavailable, continuing without it",
			zap.String("backend", cfg.Cache.Backend),
			zap.Error(err))
		store = cache.Nop{}
	}
	logger.Debug("Using cache",
		zap.String("backend", cfg.Cache.Backend),
		zap.String("location", store.Location()))

	client := pubmed.NewClient(
		pubmed.WithAPIKey(cfg.APIKey),
		pubmed.WithEmail(cfg.Email),
		pubmed.WithDelay(cfg.APIDelay),
		pubmed.WithLogger(logger),
	)

	return &app{
		cfg:      cfg,
		logger:   logger,
		store:    store,
		client:   client,
		resolver: resolver.New(client, store, resolver.WithLogger(logger)),
	}, nil
}

func openStore(ctx context.Context, cfg config.Config, logger *zap.Logger) (cache.Store, error) {
	return cache.Open(ctx, cache.Options{
		Backend:   cfg.Cache.Backend,
		Path:      cfg.Cache.Path,
		RedisAddr: cfg.Cache.RedisAddr,
		TTL:       cfg.Cache.TTL,
		Logger:    logger,
	})
}

func (a *app) Close() {
	if err := a.store.Close(); err != nil {
		a.logger.Warn("Closing cache", zap.Error(err))
	}
}

// newScanner builds the marker scanner for cfg.
func newScanner(cfg config.Config) (*citation.Scanner, error) {
	p, err := citation.CompilePattern(cfg.PMIDRegex)
	if err != nil {
		return nil, err
	}
	return citation.NewScanner(p, cfg.Separators), nil
}

func newFormatter(cfg config.Config) (*refsection.Formatter, error) {
	return refsection.NewFormatter(cfg.RefItemFormat, refsection.WithAuthorThreshold(cfg.AuthorThreshold))
}

// processor builds a document processor backed by the app's resolver.
func (a *app) processor() (*document.Processor, error) {
	scanner, err := newScanner(a.cfg)
	if err != nil {
		return nil, err
	}
	formatter, err := newFormatter(a.cfg)
	if err != nil {
		return nil, err
	}
	return document.NewProcessor(a.resolver,
		document.WithScanner(scanner),
		document.WithRender(citation.TemplateRenderer(a.cfg.CitationFormat)),
		document.WithFormatter(formatter),
		document.WithReferencesTitle(a.cfg.ReferencesHeader),
		document.WithLogger(a.logger),
	)
}
