package citation

import (
	"fmt"
	"strings"
)

// RenderFunc renders the numbers of one group into replacement text.
type RenderFunc func(numbers []int) string

// Replace rewrites text, substituting the span of each plan with
// render(plan.Numbers). Plans must be in ascending order and must not
// overlap; text outside the spans is copied unchanged. A nil render uses
// the DefaultCitationFormat template.
func Replace(text string, plans []Plan, render RenderFunc) (string, error) {
	if len(plans) == 0 {
		return text, nil
	}
	if render == nil {
		render = TemplateRenderer(DefaultCitationFormat)
	}

	var b strings.Builder
	b.Grow(len(text))

	last := 0
	for i, p := range plans {
		if p.Span.Start < last || p.Span.End < p.Span.Start || p.Span.End > len(text) {
			return "", fmt.Errorf("%w: plan %d has span [%d,%d) but previous span ended at %d (text length %d)",
				ErrSpanOverlap, i, p.Span.Start, p.Span.End, last, len(text))
		}
		b.WriteString(text[last:p.Span.Start])
		b.WriteString(render(p.Numbers))
		last = p.Span.End
	}
	b.WriteString(text[last:])

	return b.String(), nil
}
