// Package reference defines the bibliographic record resolved for a cited work.
package reference

import (
	"strconv"
	"strings"
)

// Reference represents a journal article as returned by PubMed.
type Reference struct {
	// Identity
	PMID string `json:"pmid"`
	DOI  string `json:"doi"`

	// Metadata
	Title   string   `json:"title"`
	Authors []Author `json:"authors"`
	Journal string   `json:"journal"` // PubMed "source", e.g. "Nat Med"

	// Publication
	Published PublicationDate `json:"published"`
	Volume    string          `json:"volume,omitempty"`
	Issue     string          `json:"issue,omitempty"`
	Pages     string          `json:"pages,omitempty"`
}

// PublicationDate represents a publication date with optional month and day.
type PublicationDate struct {
	Year  int `json:"year"`
	Month int `json:"month,omitempty"` // 1-12, 0 if unknown
	Day   int `json:"day,omitempty"`   // 1-31, 0 if unknown
}

// YearString returns the year, or "" when unknown.
func (d PublicationDate) YearString() string {
	if d.Year == 0 {
		return ""
	}
	return strconv.Itoa(d.Year)
}

// AuthorList joins author names with ", ". When threshold is positive and
// there are more authors than threshold, only the first threshold names are
// kept and ", et al" is appended.
func (r Reference) AuthorList(threshold int) string {
	names := make([]string, 0, len(r.Authors))
	for _, a := range r.Authors {
		names = append(names, a.String())
	}
	if threshold > 0 && len(names) > threshold {
		return strings.Join(names[:threshold], ", ") + ", et al"
	}
	return strings.Join(names, ", ")
}

// URL returns the PubMed page of the reference.
func (r Reference) URL() string {
	return "https://pubmed.ncbi.nlm.nih.gov/" + r.PMID + "/"
}
