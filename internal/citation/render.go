package citation

import (
	"sort"
	"strconv"
	"strings"
)

// NumberPlaceholder is replaced by the compressed number list in a citation format.
const NumberPlaceholder = "{number}"

// DefaultCitationFormat renders a group as "(1,3-5)".
const DefaultCitationFormat = "(" + NumberPlaceholder + ")"

// CheckFormat verifies that a citation format contains the number placeholder.
func CheckFormat(format string) error {
	if !strings.Contains(format, NumberPlaceholder) {
		return &ConfigError{
			Field:  "citation_format",
			Value:  format,
			Reason: "must contain " + NumberPlaceholder,
			Kind:   ErrInvalidFormat,
		}
	}
	return nil
}

// TemplateRenderer returns a RenderFunc that substitutes the compressed
// number list for every {number} in format.
func TemplateRenderer(format string) RenderFunc {
	return func(numbers []int) string {
		return strings.ReplaceAll(format, NumberPlaceholder, CompressNumbers(numbers))
	}
}

// CompressNumbers formats citation numbers as "1,3-5,7,8".
// Numbers are sorted and de-duplicated. Runs of three or more consecutive
// numbers collapse to "first-last"; a run of two stays comma-separated.
func CompressNumbers(numbers []int) string {
	if len(numbers) == 0 {
		return ""
	}

	sorted := make([]int, len(numbers))
	copy(sorted, numbers)
	sort.Ints(sorted)

	uniq := sorted[:1]
	for _, n := range sorted[1:] {
		if n != uniq[len(uniq)-1] {
			uniq = append(uniq, n)
		}
	}

	var parts []string
	start, end := uniq[0], uniq[0]
	flush := func() {
		switch {
		case start == end:
			parts = append(parts, strconv.Itoa(start))
		case end == start+1:
			parts = append(parts, strconv.Itoa(start), strconv.Itoa(end))
		default:
			parts = append(parts, strconv.Itoa(start)+"-"+strconv.Itoa(end))
		}
	}
	for _, n := range uniq[1:] {
		if n == end+1 {
			end = n
			continue
		}
		flush()
		start, end = n, n
	}
	flush()

	return strings.Join(parts, ",")
}
