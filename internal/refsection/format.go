// Package refsection renders the numbered reference list appended to a
// processed document.
package refsection

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/mfujita47/pmidcite/internal/citation"
	"github.com/mfujita47/pmidcite/internal/reference"
)

// DefaultItemFormat renders one Vancouver-style reference line.
const DefaultItemFormat = "{number}. {authors}. {title} {journal} {year};{volume}:{pages}. doi: {doi}. [{pmid}](https://pubmed.ncbi.nlm.nih.gov/{pmid}/)"

// Placeholders lists the names usable in an item format.
var Placeholders = []string{
	"number", "authors", "title", "journal", "year",
	"volume", "issue", "pages", "doi", "pmid",
}

var placeholderRe = regexp.MustCompile(`\{([^{}]*)\}`)

// CheckItemFormat rejects item formats that use unknown placeholders.
func CheckItemFormat(format string) error {
	known := make(map[string]bool, len(Placeholders))
	for _, p := range Placeholders {
		known[p] = true
	}
	for _, m := range placeholderRe.FindAllStringSubmatch(format, -1) {
		if !known[m[1]] {
			return &citation.ConfigError{
				Field:  "ref_item_format",
				Value:  format,
				Reason: "unknown placeholder {" + m[1] + "} (known: " + strings.Join(Placeholders, ", ") + ")",
				Kind:   citation.ErrInvalidFormat,
			}
		}
	}
	return nil
}

// Formatter renders reference list items.
type Formatter struct {
	itemFormat      string
	authorThreshold int
}

// Option configures a Formatter.
type Option func(*Formatter)

// WithAuthorThreshold limits the listed authors; more than n authors
// become the first n followed by ", et al". Zero lists everyone.
func WithAuthorThreshold(n int) Option {
	return func(f *Formatter) {
		f.authorThreshold = n
	}
}

// NewFormatter validates itemFormat (empty means DefaultItemFormat).
func NewFormatter(itemFormat string, opts ...Option) (*Formatter, error) {
	if itemFormat == "" {
		itemFormat = DefaultItemFormat
	}
	if err := CheckItemFormat(itemFormat); err != nil {
		return nil, err
	}
	f := &Formatter{itemFormat: itemFormat}
	for _, opt := range opts {
		opt(f)
	}
	if f.authorThreshold < 0 {
		f.authorThreshold = 0
	}
	return f, nil
}

// Item renders one resolved reference.
func (f *Formatter) Item(number int, ref *reference.Reference) string {
	r := strings.NewReplacer(
		"{number}", strconv.Itoa(number),
		"{authors}", ref.AuthorList(f.authorThreshold),
		"{title}", orNA(ref.Title),
		"{journal}", orNA(ref.Journal),
		"{year}", ref.Published.YearString(),
		"{volume}", ref.Volume,
		"{issue}", ref.Issue,
		"{pages}", ref.Pages,
		"{doi}", ref.DOI,
		"{pmid}", ref.PMID,
	)
	return strings.TrimSpace(r.Replace(f.itemFormat))
}

// ErrorItem renders the entry of an identifier whose lookup failed.
func ErrorItem(number int, pmid, reason string) string {
	return strconv.Itoa(number) + ". [PMID " + pmid + "] - failed to retrieve article information (" + reason + ")."
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}
