package refsection

import (
	"bytes"
	"regexp"
	"strings"
	"unicode"

	"github.com/nao1215/markdown"

	"github.com/mfujita47/pmidcite/internal/citation"
	"github.com/mfujita47/pmidcite/internal/resolver"
)

const (
	// DefaultTitle is the heading text of the reference list.
	DefaultTitle = "References"

	// DefaultHeaderLevel is used when no main section heading is found.
	DefaultHeaderLevel = 2
)

var mainSectionRe = regexp.MustCompile(`(?im)^(#+)\s+(Introduction|Methods|Results|Discussion|Conclusion|Background|Case Report|Abstract|はじめに|方法|結果|考察|結論|背景|症例報告|要旨)`)

// DetectHeaderLevel returns the level of the first main section heading
// (Introduction, Methods, ... or their Japanese equivalents), or
// DefaultHeaderLevel when there is none.
func DetectHeaderLevel(text string) int {
	m := mainSectionRe.FindStringSubmatch(text)
	if m == nil {
		return DefaultHeaderLevel
	}
	return len(m[1])
}

var headingRe = regexp.MustCompile(`^(#+)[ \t]+(.*?)[ \t]*$`)

// StripReferences removes every existing reference section: a heading
// named title (any level, case-insensitive) that opens the text or follows
// a blank line, up to the next heading of the same or a higher level. A
// section running to the end of text takes the trailing whitespace before
// it along. Both LF and CRLF line endings are recognised.
func StripReferences(text, title string) string {
	if title == "" {
		title = DefaultTitle
	}

	lines := strings.SplitAfter(text, "\n")
	var out strings.Builder
	for i := 0; i < len(lines); i++ {
		level := headingLevel(lines[i])
		if level == 0 || !isTitle(lines[i], title) || (i > 0 && !isBlank(lines[i-1])) {
			out.WriteString(lines[i])
			continue
		}

		end := i + 1
		for end < len(lines) {
			if l := headingLevel(lines[end]); l > 0 && l <= level {
				break
			}
			end++
		}
		if end == len(lines) {
			return strings.TrimRightFunc(out.String(), unicode.IsSpace)
		}
		i = end - 1
	}
	return out.String()
}

// headingLevel returns the number of leading #s of an ATX heading line, or 0.
func headingLevel(line string) int {
	m := headingRe.FindStringSubmatch(strings.TrimRight(line, "\r\n"))
	if m == nil {
		return 0
	}
	return len(m[1])
}

func isTitle(line, title string) bool {
	m := headingRe.FindStringSubmatch(strings.TrimRight(line, "\r\n"))
	return m != nil && strings.EqualFold(m[2], title)
}

func isBlank(line string) bool {
	return strings.TrimSpace(line) == ""
}

// Section renders the reference list: a blank line, the heading, a blank
// line and one item per identifier in number order. It returns "" when
// nothing was cited.
func (f *Formatter) Section(level int, title string, a *citation.Assignment, results resolver.Results) string {
	if a == nil || a.Len() == 0 {
		return ""
	}
	if title == "" {
		title = DefaultTitle
	}

	var buf bytes.Buffer
	md := markdown.NewMarkdown(&buf)
	heading(md, level, title)
	md.PlainText("")

	for _, e := range a.Entries() {
		res, ok := results.Get(e.ID)
		switch {
		case ok && res.Record != nil:
			md.PlainText(f.Item(e.Number, res.Record))
		case ok:
			md.PlainText(ErrorItem(e.Number, string(e.ID), resolver.Reason(res.Err)))
		default:
			md.PlainText(ErrorItem(e.Number, string(e.ID), "retrieval failed"))
		}
	}

	return "\n\n" + strings.TrimRight(md.String(), "\r\n")
}

func heading(md *markdown.Markdown, level int, title string) {
	switch level {
	case 1:
		md.H1(title)
	case 2:
		md.H2(title)
	case 3:
		md.H3(title)
	case 4:
		md.H4(title)
	case 5:
		md.H5(title)
	case 6:
		md.H6(title)
	default:
		if level < 1 {
			level = 1
		}
		md.PlainText(strings.Repeat("#", level) + " " + title)
	}
}
