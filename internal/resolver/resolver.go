// Package resolver turns cited PMIDs into references, reading the cache
// before the network and writing fresh outcomes back.
package resolver

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/mfujita47/pmidcite/internal/cache"
	"github.com/mfujita47/pmidcite/internal/citation"
	"github.com/mfujita47/pmidcite/internal/pubmed"
	"github.com/mfujita47/pmidcite/internal/reference"
)

// Fetcher looks up PMIDs remotely. *pubmed.Client implements it.
type Fetcher interface {
	FetchSummaries(ctx context.Context, pmids []string) (map[string]pubmed.Summary, error)
}

// Result is the outcome for one identifier.
type Result struct {
	Record *reference.Reference
	Err    error
	Cached bool
}

// Results holds the outcome of every requested identifier.
type Results struct {
	byID map[citation.Identifier]Result

	// Unresolved lists failed identifiers in request order.
	Unresolved []citation.Identifier
}

// Get returns the result for id.
func (r Results) Get(id citation.Identifier) (Result, bool) {
	res, ok := r.byID[id]
	return res, ok
}

// Len returns the number of distinct identifiers resolved or failed.
func (r Results) Len() int {
	return len(r.byID)
}

// NewResults builds Results from a map, for callers that resolve elsewhere.
func NewResults(byID map[citation.Identifier]Result) Results {
	res := Results{byID: make(map[citation.Identifier]Result, len(byID))}
	for id, r := range byID {
		res.byID[id] = r
	}
	return res
}

// Resolver combines a cache and a fetcher.
type Resolver struct {
	fetcher Fetcher
	store   cache.Store
	logger  *zap.Logger
	now     func() time.Time
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(r *Resolver) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithClock sets the time source used to stamp cache entries.
func WithClock(now func() time.Time) Option {
	return func(r *Resolver) {
		r.now = now
	}
}

// New creates a Resolver. A nil store disables caching.
func New(fetcher Fetcher, store cache.Store, opts ...Option) *Resolver {
	if store == nil {
		store = cache.Nop{}
	}
	r := &Resolver{
		fetcher: fetcher,
		store:   store,
		logger:  zap.NewNop(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve looks up every distinct identifier. Cached successes are used
// as is; cached failures and misses go to the fetcher in one call. Cache
// errors are logged and never fail the lookup.
func (r *Resolver) Resolve(ctx context.Context, ids []citation.Identifier) Results {
	res := Results{byID: make(map[citation.Identifier]Result, len(ids))}
	order := unique(ids)

	var toFetch []string
	for _, id := range order {
		e, ok, err := r.store.Get(ctx, string(id))
		if err != nil {
			r.logger.Warn("Cache read failed", zap.String("pmid", string(id)), zap.Error(err))
		}
		if ok && !e.Failed() {
			res.byID[id] = Result{Record: e.Record, Cached: true}
			continue
		}
		if ok {
			r.logger.Debug("Retrying cached failure", zap.String("pmid", string(id)), zap.String("reason", e.Error))
		}
		toFetch = append(toFetch, string(id))
	}

	r.logger.Info("Resolving PMIDs",
		zap.Int("total", len(order)),
		zap.Int("cached", len(order)-len(toFetch)),
		zap.Int("fetch", len(toFetch)))

	if len(toFetch) > 0 {
		r.fetch(ctx, toFetch, res.byID)
	}

	for _, id := range order {
		if res.byID[id].Err != nil {
			res.Unresolved = append(res.Unresolved, id)
		}
	}
	if len(res.Unresolved) > 0 {
		r.logger.Warn("Some PMIDs could not be resolved", zap.Int("count", len(res.Unresolved)))
	}
	return res
}

func (r *Resolver) fetch(ctx context.Context, pmids []string, out map[citation.Identifier]Result) {
	summaries, fetchErr := r.fetcher.FetchSummaries(ctx, pmids)
	if fetchErr != nil {
		r.logger.Warn("PubMed lookup reported errors", zap.Error(fetchErr))
	}

	now := r.now()
	fresh := make(map[string]cache.Entry, len(pmids))
	for _, pmid := range pmids {
		id := citation.Identifier(pmid)
		s, ok := summaries[pmid]
		if ok && s.Ref != nil {
			out[id] = Result{Record: s.Ref}
			fresh[pmid] = cache.Entry{Record: s.Ref, FetchedAt: now}
			continue
		}

		err := s.Err
		if err == nil {
			err = &pubmed.LookupError{PMID: pmid, Reason: "no result returned", Err: fetchErr}
		}
		out[id] = Result{Err: err}
		// Interrupted lookups say nothing about the PMID.
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			continue
		}
		fresh[pmid] = cache.Entry{Error: Reason(err), FetchedAt: now}
	}

	if err := r.store.Put(ctx, fresh); err != nil {
		r.logger.Warn("Cache write failed", zap.Error(err))
	}
}

// Reason returns the short failure text shown in reference lists.
func Reason(err error) string {
	var lerr *pubmed.LookupError
	if errors.As(err, &lerr) {
		return lerr.Reason
	}
	if err == nil {
		return ""
	}
	return err.Error()
}

func unique(ids []citation.Identifier) []citation.Identifier {
	seen := make(map[citation.Identifier]bool, len(ids))
	out := make([]citation.Identifier, 0, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
