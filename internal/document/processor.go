// Package document applies the citation pipeline to whole Markdown
// documents: numbering, lookup and the appended reference list.
package document

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mfujita47/pmidcite/internal/citation"
	"github.com/mfujita47/pmidcite/internal/refsection"
	"github.com/mfujita47/pmidcite/internal/resolver"
)

// StdioPath names standard input (as input) or standard output (as output).
const StdioPath = "-"

// Errors wrapped by ProcessFile.
var (
	ErrReadInput   = errors.New("cannot read input")
	ErrWriteOutput = errors.New("cannot write output")
)

// Resolver looks up identifiers. *resolver.Resolver implements it.
type Resolver interface {
	Resolve(ctx context.Context, ids []citation.Identifier) resolver.Results
}

// Output describes one processed document.
type Output struct {
	RunID       string                `json:"run_id"`
	Text        string                `json:"-"`
	Changed     bool                  `json:"changed"` // false when no markers were found
	Groups      int                   `json:"groups"`
	Citations   int                   `json:"citations"` // distinct identifiers
	Unresolved  []citation.Identifier `json:"unresolved,omitempty"`
	HeaderLevel int                   `json:"header_level,omitempty"`
	Assignment  *citation.Assignment  `json:"-"`
	Plans       []citation.Plan       `json:"-"`
}

// Processor rewrites documents.
type Processor struct {
	scanner   *citation.Scanner
	render    citation.RenderFunc
	resolver  Resolver
	formatter *refsection.Formatter
	title     string
	logger    *zap.Logger
	stdin     io.Reader
	stdout    io.Writer
}

// Option configures a Processor.
type Option func(*Processor)

// WithScanner sets the marker scanner.
func WithScanner(s *citation.Scanner) Option {
	return func(p *Processor) {
		p.scanner = s
	}
}

// WithRender sets the in-text citation renderer.
func WithRender(render citation.RenderFunc) Option {
	return func(p *Processor) {
		p.render = render
	}
}

// WithFormatter sets the reference list formatter.
func WithFormatter(f *refsection.Formatter) Option {
	return func(p *Processor) {
		p.formatter = f
	}
}

// WithReferencesTitle sets the reference list heading text.
func WithReferencesTitle(title string) Option {
	return func(p *Processor) {
		p.title = title
	}
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(p *Processor) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithStdio sets the streams used for the "-" path.
func WithStdio(in io.Reader, out io.Writer) Option {
	return func(p *Processor) {
		p.stdin = in
		p.stdout = out
	}
}

// NewProcessor creates a Processor. A nil resolver leaves every
// identifier unresolved.
func NewProcessor(res Resolver, opts ...Option) (*Processor, error) {
	p := &Processor{
		resolver: res,
		title:    refsection.DefaultTitle,
		logger:   zap.NewNop(),
		stdin:    os.Stdin,
		stdout:   os.Stdout,
	}
	for _, opt := range opts {
		opt(p)
	}

	if p.scanner == nil {
		p.scanner = citation.NewScanner(nil, citation.DefaultSeparators)
	}
	if p.render == nil {
		p.render = citation.TemplateRenderer(citation.DefaultCitationFormat)
	}
	if p.formatter == nil {
		f, err := refsection.NewFormatter("")
		if err != nil {
			return nil, err
		}
		p.formatter = f
	}
	return p, nil
}

// ProcessText numbers the citations of text, resolves them and replaces
// any existing reference list with a fresh one. Text without markers is
// returned unchanged.
func (p *Processor) ProcessText(ctx context.Context, text string) (*Output, error) {
	runID := uuid.NewString()
	logger := p.logger.With(zap.String("run_id", runID))

	res, err := citation.Process(text, citation.Options{Scanner: p.scanner, Render: p.render})
	if err != nil {
		return nil, err
	}

	out := &Output{
		RunID:      runID,
		Text:       text,
		Groups:     len(res.Groups),
		Citations:  res.Assignment.Len(),
		Assignment: res.Assignment,
		Plans:      res.Plans,
	}
	if res.Assignment.Len() == 0 {
		logger.Warn("No citation markers found")
		return out, nil
	}
	logger.Info("Numbered citations",
		zap.Int("groups", out.Groups),
		zap.Int("identifiers", out.Citations))

	var results resolver.Results
	if p.resolver != nil {
		results = p.resolver.Resolve(ctx, res.Assignment.Identifiers())
	}
	for _, id := range res.Assignment.Identifiers() {
		if r, ok := results.Get(id); !ok || r.Err != nil {
			out.Unresolved = append(out.Unresolved, id)
		}
	}

	out.HeaderLevel = refsection.DetectHeaderLevel(text)
	section := p.formatter.Section(out.HeaderLevel, p.title, res.Assignment, results)
	if strings.Contains(text, "\r\n") {
		section = strings.ReplaceAll(section, "\n", "\r\n")
	}
	body := refsection.StripReferences(res.Text, p.title)

	out.Text = strings.TrimRightFunc(body, unicode.IsSpace) + section
	out.Changed = true
	return out, nil
}

// ProcessFile processes in and writes the result to out. "-" reads stdin
// or writes stdout. When in has no markers its content is copied
// unchanged; nothing is written when in and out are the same file.
func (p *Processor) ProcessFile(ctx context.Context, in, out string) (*Output, error) {
	logger := p.logger.With(zap.String("input", in), zap.String("output", out))

	data, err := p.read(in)
	if err != nil {
		return nil, err
	}

	result, err := p.ProcessText(ctx, string(data))
	if err != nil {
		return nil, fmt.Errorf("processing %s: %w", in, err)
	}

	if !result.Changed && in != StdioPath && samePath(in, out) {
		logger.Info("No markers and output is the input, nothing to write")
		return result, nil
	}
	if err := p.write(out, result.Text); err != nil {
		return nil, err
	}

	logger.Info("Wrote document",
		zap.Bool("changed", result.Changed),
		zap.Int("unresolved", len(result.Unresolved)))
	return result, nil
}

func (p *Processor) read(in string) ([]byte, error) {
	if in == StdioPath {
		data, err := io.ReadAll(p.stdin)
		if err != nil {
			return nil, fmt.Errorf("%w: stdin: %v", ErrReadInput, err)
		}
		return data, nil
	}
	data, err := os.ReadFile(in)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrReadInput, err)
	}
	return data, nil
}

func (p *Processor) write(out, text string) error {
	if out == StdioPath {
		if _, err := io.WriteString(p.stdout, text); err != nil {
			return fmt.Errorf("%w: stdout: %v", ErrWriteOutput, err)
		}
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(out), 0755); err != nil {
		return fmt.Errorf("%w: %w", ErrWriteOutput, err)
	}
	if err := os.WriteFile(out, []byte(text), 0644); err != nil {
		return fmt.Errorf("%w: %w", ErrWriteOutput, err)
	}
	return nil
}

// OutputPath returns where the result for in goes. Without out it is
// "<stem>_cited<ext>" next to in; an out that is a directory (existing, or
// ending in a separator) receives that name. Stdin input defaults to stdout.
func OutputPath(in, out string) string {
	if out == "" && in == StdioPath {
		return StdioPath
	}
	if out == StdioPath {
		return out
	}

	ext := filepath.Ext(in)
	name := strings.TrimSuffix(filepath.Base(in), ext) + "_cited" + ext
	if in == StdioPath {
		name = "stdin_cited.md"
	}

	switch {
	case out == "":
		return filepath.Join(filepath.Dir(in), name)
	case strings.HasSuffix(out, "/") || strings.HasSuffix(out, string(filepath.Separator)):
		return filepath.Join(out, name)
	}
	if info, err := os.Stat(out); err == nil && info.IsDir() {
		return filepath.Join(out, name)
	}
	return out
}

func samePath(a, b string) bool {
	if a == b {
		return true
	}
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	return errA == nil && errB == nil && absA == absB
}
