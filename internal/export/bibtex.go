// Package export renders resolved references in bibliography formats.
package export

import (
	"fmt"
	"strings"

	"github.com/mfujita47/pmidcite/internal/reference"
)

// ToBibTeX converts a reference to a BibTeX @article entry keyed "pmid<PMID>".
func ToBibTeX(ref reference.Reference) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("@article{%s,\n", CiteKey(ref)))

	if len(ref.Authors) > 0 {
		b.WriteString(fmt.Sprintf("  author = {%s},\n", formatAuthors(ref.Authors)))
	}

	b.WriteString(fmt.Sprintf("  title = {%s},\n", escapeLatex(strings.TrimSuffix(ref.Title, "."))))

	if ref.Journal != "" {
		b.WriteString(fmt.Sprintf("  journal = {%s},\n", escapeLatex(ref.Journal)))
	}
	if ref.Published.Year > 0 {
		b.WriteString(fmt.Sprintf("  year = {%d},\n", ref.Published.Year))
	}
	if ref.Published.Month > 0 {
		b.WriteString(fmt.Sprintf("  month = {%d},\n", ref.Published.Month))
	}
	if ref.Volume != "" {
		b.WriteString(fmt.Sprintf("  volume = {%s},\n", escapeLatex(ref.Volume)))
	}
	if ref.Issue != "" {
		b.WriteString(fmt.Sprintf("  number = {%s},\n", escapeLatex(ref.Issue)))
	}
	if ref.Pages != "" {
		b.WriteString(fmt.Sprintf("  pages = {%s},\n", formatPages(ref.Pages)))
	}
	if ref.DOI != "" {
		b.WriteString(fmt.Sprintf("  doi = {%s},\n", ref.DOI))
	}
	if ref.PMID != "" {
		b.WriteString(fmt.Sprintf("  pmid = {%s},\n", ref.PMID))
		b.WriteString(fmt.Sprintf("  url = {%s},\n", ref.URL()))
	}

	b.WriteString("}\n")

	return b.String()
}

// ToBibTeXList converts multiple references to BibTeX format.
func ToBibTeXList(refs []reference.Reference) string {
	var entries []string
	for _, ref := range refs {
		entries = append(entries, ToBibTeX(ref))
	}
	return strings.Join(entries, "\n")
}

// CiteKey returns the BibTeX key of a reference.
func CiteKey(ref reference.Reference) string {
	return "pmid" + ref.PMID
}

// formatAuthors formats authors in BibTeX style: "Last, First and Last, First".
// Collective names are braced so BibTeX does not split them.
func formatAuthors(authors []reference.Author) string {
	var formatted []string
	for _, a := range authors {
		switch {
		case a.First != "":
			formatted = append(formatted, fmt.Sprintf("%s, %s", escapeLatex(a.Last), a.First))
		case strings.Contains(a.Last, " "):
			formatted = append(formatted, "{"+escapeLatex(a.Last)+"}")
		default:
			formatted = append(formatted, escapeLatex(a.Last))
		}
	}
	return strings.Join(formatted, " and ")
}

// formatPages turns a PubMed page range ("1145-58") into a BibTeX range.
func formatPages(pages string) string {
	return strings.Replace(pages, "-", "--", 1)
}

// escapeLatex escapes special LaTeX characters.
func escapeLatex(s string) string {
	// Backslash first so later replacements are not re-escaped
	replacer := strings.NewReplacer(
		`\`, `\textbackslash{}`,
		"&", `\&`,
		"%", `\%`,
		"$", `\$`,
		"#", `\#`,
		"_", `\_`,
		"{", `\{`,
		"}", `\}`,
		"~", `\textasciitilde{}`,
		"^", `\textasciicircum{}`,
	)
	return replacer.Replace(s)
}
