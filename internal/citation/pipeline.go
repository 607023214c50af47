package citation

// Options configures Process.
type Options struct {
	// Scanner finds and groups markers. Nil uses the default pattern and separators.
	Scanner *Scanner
	// Render produces the text for each group. Nil uses DefaultCitationFormat.
	Render RenderFunc
}

// Result is the outcome of one Process run.
type Result struct {
	Text       string      // text with every group replaced
	Groups     []Group     // groups in document order
	Plans      []Plan      // one plan per group
	Assignment *Assignment // identifier numbering, empty when no markers were found
}

// Process scans, groups, numbers and replaces the citation markers in text.
// When text contains no markers the result carries the text unchanged and
// an empty Assignment.
func Process(text string, opts Options) (*Result, error) {
	scanner := opts.Scanner
	if scanner == nil {
		scanner = NewScanner(nil, DefaultSeparators)
	}

	groups, err := scanner.ScanGroups(text)
	if err != nil {
		return nil, err
	}

	assignment, plans := Assign(groups)

	out, err := Replace(text, plans, opts.Render)
	if err != nil {
		return nil, err
	}

	return &Result{
		Text:       out,
		Groups:     groups,
		Plans:      plans,
		Assignment: assignment,
	}, nil
}
