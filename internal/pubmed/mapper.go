package pubmed

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/mfujita47/pmidcite/internal/reference"
)

// Common name suffixes to keep with the initials.
var nameSuffixes = map[string]bool{
	"jr":  true,
	"jr.": true,
	"sr":  true,
	"sr.": true,
	"2nd": true,
	"3rd": true,
	"ii":  true,
	"iii": true,
	"iv":  true,
}

var monthAbbrev = map[string]int{
	"jan": 1, "feb": 2, "mar": 3, "apr": 4, "may": 5, "jun": 6,
	"jul": 7, "aug": 8, "sep": 9, "oct": 10, "nov": 11, "dec": 12,
}

// MapSummary converts a document summary to a Reference.
func MapSummary(doc DocSummary) reference.Reference {
	return reference.Reference{
		PMID:      doc.UID,
		DOI:       extractDOI(doc),
		Title:     strings.TrimSpace(doc.Title),
		Authors:   mapAuthors(doc.Authors),
		Journal:   doc.Source,
		Published: parsePubDate(doc.PubDate),
		Volume:    doc.Volume,
		Issue:     doc.Issue,
		Pages:     doc.Pages,
	}
}

// mapAuthors converts summary authors to Reference authors.
func mapAuthors(docAuthors []DocAuthor) []reference.Author {
	authors := make([]reference.Author, 0, len(docAuthors))
	for _, a := range docAuthors {
		if a.AuthType == "CollectiveName" {
			authors = append(authors, reference.Author{Last: strings.TrimSpace(a.Name)})
			continue
		}
		first, last := splitAuthorName(a.Name)
		if last == "" {
			continue
		}
		authors = append(authors, reference.Author{First: first, Last: last})
	}
	return authors
}

// splitAuthorName splits a PubMed author name ("van der Berg AB") into
// initials and family name. Suffixes stay with the initials ("Smith JA Jr").
// A name without trailing initials is returned whole as the family name.
func splitAuthorName(name string) (first, last string) {
	parts := strings.Fields(name)
	if len(parts) == 0 {
		return "", ""
	}
	if len(parts) == 1 {
		return "", parts[0]
	}

	n := len(parts)
	if nameSuffixes[strings.ToLower(parts[n-1])] && n > 2 && isInitials(parts[n-2]) {
		return parts[n-2] + " " + parts[n-1], strings.Join(parts[:n-2], " ")
	}
	if isInitials(parts[n-1]) {
		return parts[n-1], strings.Join(parts[:n-1], " ")
	}
	return "", strings.Join(parts, " ")
}

// isInitials reports whether s looks like PubMed initials ("J", "JA", "JAK").
func isInitials(s string) bool {
	runes := []rune(s)
	if len(runes) == 0 || len(runes) > 4 {
		return false
	}
	for _, r := range runes {
		if !unicode.IsUpper(r) {
			return false
		}
	}
	return true
}

// parsePubDate parses PubMed dates such as "2020 Jan 15", "2019 Mar-Apr",
// "2021 Spring" or "2018".
func parsePubDate(s string) reference.PublicationDate {
	var pub reference.PublicationDate

	parts := strings.Fields(s)
	if len(parts) == 0 {
		return pub
	}
	if y, err := strconv.Atoi(parts[0]); err == nil {
		pub.Year = y
	}
	if len(parts) >= 2 {
		month := strings.ToLower(parts[1])
		if len(month) >= 3 {
			pub.Month = monthAbbrev[month[:3]]
		}
	}
	if len(parts) >= 3 && pub.Month > 0 {
		if d, err := strconv.Atoi(parts[2]); err == nil && d >= 1 && d <= 31 {
			pub.Day = d
		}
	}
	return pub
}

// extractDOI prefers the "doi" article id and falls back to the
// "doi: 10.xxx/yyy" part of the elocationid ("pii: S01. doi: 10.1016/x").
func extractDOI(doc DocSummary) string {
	for _, aid := range doc.ArticleIDs {
		if aid.IDType == "doi" && aid.Value != "" {
			return aid.Value
		}
	}

	idx := strings.Index(doc.ELocationID, "doi:")
	if idx < 0 {
		return ""
	}
	fields := strings.Fields(doc.ELocationID[idx+len("doi:"):])
	if len(fields) == 0 {
		return ""
	}
	return strings.TrimSuffix(fields[0], ".")
}
