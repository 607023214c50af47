// Package pubmed provides a client for the NCBI E-utilities esummary endpoint.
package pubmed

import "github.com/mfujita47/pmidcite/internal/reference"

// DocSummary is one entry of an esummary (db=pubmed, retmode=json) result.
type DocSummary struct {
	UID         string      `json:"uid"`
	PubDate     string      `json:"pubdate"` // e.g. "2020 Jan 15"
	Source      string      `json:"source"`  // journal abbreviation
	Authors     []DocAuthor `json:"authors"`
	Title       string      `json:"title"`
	Volume      string      `json:"volume"`
	Issue       string      `json:"issue"`
	Pages       string      `json:"pages"`
	ArticleIDs  []ArticleID `json:"articleids"`
	ELocationID string      `json:"elocationid"` // e.g. "doi: 10.1038/s41591-020-0001-1"
	Error       string      `json:"error,omitempty"`
}

// DocAuthor is an author as listed in a document summary.
type DocAuthor struct {
	Name     string `json:"name"`     // "Smith JA"
	AuthType string `json:"authtype"` // "Author" or "CollectiveName"
}

// ArticleID is an external identifier of a document summary.
type ArticleID struct {
	IDType string `json:"idtype"` // pubmed, doi, pmc, pii, ...
	Value  string `json:"value"`
}

// Summary is the outcome of looking up one PMID: either a reference or an error.
type Summary struct {
	Ref *reference.Reference
	Err error
}
