package pubmed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/mfujita47/pmidcite/internal/reference"
)

const (
	// BaseURL is the NCBI E-utilities base URL.
	BaseURL = "https://eutils.ncbi.nlm.nih.gov/entrez/eutils/"

	// DefaultTimeout is the default HTTP request timeout.
	DefaultTimeout = 30 * time.Second

	// DefaultDelay keeps anonymous clients under 3 requests per second.
	DefaultDelay = 400 * time.Millisecond

	// APIKeyDelay is the default delay with an API key (10 requests per second).
	APIKeyDelay = 100 * time.Millisecond

	// MaxBatchSize is the maximum number of PMIDs sent in one esummary request.
	MaxBatchSize = 200

	// DefaultMaxRetries is the number of retries for temporary failures.
	DefaultMaxRetries = 2

	// DefaultBackoff is the wait before the first retry; it doubles per retry.
	DefaultBackoff = time.Second

	// DefaultTool identifies this client to NCBI.
	DefaultTool = "pmidcite"
)

// Client is a rate-limited HTTP client for the esummary endpoint.
type Client struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	baseURL    string
	apiKey     string
	email      string
	tool       string
	delay      time.Duration
	maxRetries int
	backoff    time.Duration
	logger     *zap.Logger
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithAPIKey sets the NCBI API key.
func WithAPIKey(key string) ClientOption {
	return func(c *Client) {
		c.apiKey = key
	}
}

// WithEmail sets the contact address NCBI asks clients to send.
func WithEmail(email string) ClientOption {
	return func(c *Client) {
		c.email = email
	}
}

// WithTool sets the tool name sent to NCBI.
func WithTool(tool string) ClientOption {
	return func(c *Client) {
		c.tool = tool
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithBaseURL sets a custom base URL (for testing).
func WithBaseURL(url string) ClientOption {
	return func(c *Client) {
		c.baseURL = url
	}
}

// WithDelay sets the minimum interval between requests. Zero disables pacing.
func WithDelay(d time.Duration) ClientOption {
	return func(c *Client) {
		c.delay = d
	}
}

// WithRetry sets the retry count and the initial backoff for temporary failures.
func WithRetry(maxRetries int, backoff time.Duration) ClientOption {
	return func(c *Client) {
		c.maxRetries = maxRetries
		c.backoff = backoff
	}
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) ClientOption {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewClient creates a new E-utilities client.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: DefaultTimeout},
		baseURL:    BaseURL,
		tool:       DefaultTool,
		delay:      -1,
		maxRetries: DefaultMaxRetries,
		backoff:    DefaultBackoff,
		logger:     zap.NewNop(),
	}

	// Check for API key in environment
	if key := os.Getenv("NCBI_API_KEY"); key != "" {
		c.apiKey = key
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.delay < 0 {
		c.delay = DefaultDelay
		if c.apiKey != "" {
			c.delay = APIKeyDelay
		}
	}
	c.limiter = newLimiter(c.delay)

	return c
}

func newLimiter(delay time.Duration) *rate.Limiter {
	if delay <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Every(delay), 1)
}

// Delay returns the interval enforced between requests.
func (c *Client) Delay() time.Duration {
	return c.delay
}

// FetchSummaries looks up every PMID and returns one Summary per distinct
// PMID. Failures are reported per PMID inside the map; the returned error
// joins the request-level failures (network, HTTP, decoding) for logging.
func (c *Client) FetchSummaries(ctx context.Context, pmids []string) (map[string]Summary, error) {
	out := make(map[string]Summary, len(pmids))
	var errs []error

	for _, batch := range batches(uniqueIDs(pmids), MaxBatchSize) {
		c.logger.Info("Requesting PubMed summaries", zap.Int("count", len(batch)), zap.Strings("pmids", batch))

		docs, err := c.esummaryWithRetry(ctx, batch)
		if err != nil {
			c.logger.Error("PubMed request failed", zap.Error(err), zap.Int("count", len(batch)))
			for _, id := range batch {
				out[id] = Summary{Err: &LookupError{PMID: id, Reason: "API request failed: " + err.Error(), Err: err}}
			}
			errs = append(errs, err)
			continue
		}

		for _, id := range batch {
			s := summarize(id, docs)
			if s.Err != nil {
				c.logger.Warn("PMID not resolved", zap.String("pmid", id), zap.Error(s.Err))
			}
			out[id] = s
		}
	}

	return out, errors.Join(errs...)
}

// GetReference fetches a single PMID.
func (c *Client) GetReference(ctx context.Context, pmid string) (*reference.Reference, error) {
	res, err := c.FetchSummaries(ctx, []string{pmid})
	if s := res[pmid]; s.Err != nil {
		return nil, s.Err
	} else if s.Ref != nil {
		return s.Ref, nil
	}
	if err != nil {
		return nil, err
	}
	return nil, &LookupError{PMID: pmid, Reason: "empty PMID", Err: ErrNotFound}
}

// summarize picks the outcome for one PMID out of an esummary result.
// A nil document means the PMID was listed in "uids" without details.
func summarize(id string, docs map[string]*DocSummary) Summary {
	doc, listed := docs[id]
	switch {
	case !listed:
		return Summary{Err: &LookupError{PMID: id, Reason: "Not found in API response", Err: ErrNotFound}}
	case doc == nil:
		return Summary{Err: &LookupError{PMID: id, Reason: "Details not found in results", Err: ErrNotFound}}
	case doc.Error != "":
		return Summary{Err: &LookupError{PMID: id, Reason: doc.Error, Err: ErrNotFound}}
	}

	ref := MapSummary(*doc)
	if ref.PMID == "" {
		ref.PMID = id
	}
	return Summary{Ref: &ref}
}

// esummaryWithRetry calls esummary, retrying temporary failures with
// exponential backoff.
func (c *Client) esummaryWithRetry(ctx context.Context, ids []string) (map[string]*DocSummary, error) {
	wait := c.backoff
	for attempt := 0; ; attempt++ {
		docs, err := c.esummary(ctx, ids)
		if err == nil || attempt >= c.maxRetries || !IsTemporary(err) {
			return docs, err
		}

		c.logger.Warn("PubMed request failed, retrying",
			zap.Error(err),
			zap.Int("attempt", attempt+1),
			zap.Duration("backoff", wait))

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(wait):
		}
		wait *= 2
	}
}

// esummary performs one esummary request. The returned map holds an entry
// for every uid listed by the API.
func (c *Client) esummary(ctx context.Context, ids []string) (map[string]*DocSummary, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	params := url.Values{}
	params.Set("db", "pubmed")
	params.Set("id", strings.Join(ids, ","))
	params.Set("retmode", "json")
	if c.apiKey != "" {
		params.Set("api_key", c.apiKey)
	}
	if c.email != "" {
		params.Set("email", c.email)
	}
	if c.tool != "" {
		params.Set("tool", c.tool)
	}
	endpoint := strings.TrimRight(c.baseURL, "/") + "/esummary.fcgi?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: %v", ErrNetworkError, err)
	}
	defer resp.Body.Close()

	if err := checkHTTPErrors(resp); err != nil {
		return nil, err
	}

	return parseESummary(resp.Body)
}

// checkHTTPErrors returns an error if the HTTP response indicates a problem.
func checkHTTPErrors(resp *http.Response) error {
	if resp.StatusCode == http.StatusTooManyRequests {
		return fmt.Errorf("%w: status %d", ErrRateLimited, resp.StatusCode)
	}
	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		msg := strings.TrimSpace(string(body))
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return &APIError{StatusCode: resp.StatusCode, Message: msg}
	}
	return nil
}

// parseESummary decodes an esummary JSON body.
func parseESummary(body io.Reader) (map[string]*DocSummary, error) {
	var raw struct {
		Result map[string]json.RawMessage `json:"result"`
		Error  string                     `json:"error"`
	}
	if err := json.NewDecoder(body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("%w: decoding esummary: %v", ErrInvalidResponse, err)
	}

	if raw.Error != "" {
		if strings.Contains(strings.ToLower(raw.Error), "rate limit") {
			return nil, fmt.Errorf("%w: %s", ErrRateLimited, raw.Error)
		}
		return nil, &APIError{StatusCode: http.StatusOK, Message: raw.Error}
	}

	docs := make(map[string]*DocSummary)
	uidsRaw, ok := raw.Result["uids"]
	if !ok {
		// No usable result: every requested PMID counts as not found.
		return docs, nil
	}

	var uids []string
	if err := json.Unmarshal(uidsRaw, &uids); err != nil {
		return nil, fmt.Errorf("%w: decoding uids: %v", ErrInvalidResponse, err)
	}

	for _, uid := range uids {
		docRaw, ok := raw.Result[uid]
		if !ok {
			docs[uid] = nil
			continue
		}
		var doc DocSummary
		if err := json.Unmarshal(docRaw, &doc); err != nil {
			doc = DocSummary{UID: uid, Error: "malformed summary: " + err.Error()}
		}
		docs[uid] = &doc
	}

	return docs, nil
}

// uniqueIDs drops empty and repeated PMIDs, keeping first-seen order.
func uniqueIDs(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

// batches splits ids into chunks of at most size.
func batches(ids []string, size int) [][]string {
	var out [][]string
	for len(ids) > size {
		out = append(out, ids[:size])
		ids = ids[size:]
	}
	if len(ids) > 0 {
		out = append(out, ids)
	}
	return out
}
