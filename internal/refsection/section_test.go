package refsection

import (
	"testing"

	"github.com/mfujita47/pmidcite/internal/citation"
	"github.com/mfujita47/pmidcite/internal/pubmed"
	"github.com/mfujita47/pmidcite/internal/reference"
	"github.com/mfujita47/pmidcite/internal/resolver"
)

func TestDetectHeaderLevel(t *testing.T) {
	tests := []struct {
		name string
		text string
		want int
	}{
		{"h2 introduction", "# Title\n\n## Introduction\n\ntext", 2},
		{"h3 methods", "# Title\n\n### Methods\n", 3},
		{"case insensitive", "#### DISCUSSION\n", 4},
		{"first wins", "# Abstract\n\n## Results\n", 1},
		{"japanese", "# 論文\n\n## はじめに\n本文", 2},
		{"case report", "### Case Report\n", 3},
		{"not at line start", "text ## Introduction\n", DefaultHeaderLevel},
		{"none", "# Title\n\nplain", DefaultHeaderLevel},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DetectHeaderLevel(tt.text); got != tt.want {
				t.Errorf("DetectHeaderLevel() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestStripReferences(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		title string
		want  string
	}{
		{
			name: "trailing section",
			text: "Body (1).\n\n## References\n\n1. Old entry\n2. Old entry",
			want: "Body (1).",
		},
		{
			name: "case insensitive",
			text: "Body.\n\n### references\n1. x",
			want: "Body.",
		},
		{
			name: "heading at end of text",
			text: "Body.\n\n## References",
			want: "Body.",
		},
		{
			name: "whole document",
			text: "# References\n1. x",
			want: "",
		},
		{
			name:  "custom title",
			text:  "Body.\n\n## 参考文献\n1. x",
			title: "参考文献",
			want:  "Body.",
		},
		{
			name: "needs blank line before",
			text: "Body.\n## References\n1. x",
			want: "Body.\n## References\n1. x",
		},
		{
			name: "other heading kept",
			text: "Body.\n\n## Referenced works\n1. x",
			want: "Body.\n\n## Referenced works\n1. x",
		},
		{
			name: "no section",
			text: "Body.",
			want: "Body.",
		},
		{
			name: "crlf line endings",
			text: "Body (1).\r\n\r\n## References\r\n\r\n1. Old entry\r\n",
			want: "Body (1).",
		},
		{
			name: "crlf needs blank line before",
			text: "Body.\r\n## References\r\n1. x",
			want: "Body.\r\n## References\r\n1. x",
		},
		{
			name: "stops at next heading of same level",
			text: "Body.\n\n## References\n\n1. x\n\n## Appendix\n\nA.\n",
			want: "Body.\n\n## Appendix\n\nA.\n",
		},
		{
			name: "stops at higher level heading",
			text: "Body.\n\n### References\n1. x\n\n# Supplement\nS.",
			want: "Body.\n\n# Supplement\nS.",
		},
		{
			name: "lower level headings belong to the section",
			text: "Body.\n\n## References\n\n### Journals\n1. x\n",
			want: "Body.",
		},
		{
			name: "leading section without later heading runs to end",
			text: "## References\nold\n\nText [pmid 3](u)",
			want: "",
		},
		{
			name: "two sections",
			text: "## References\nold\n\n# Body\n\nText.\n\n## references\n1. x",
			want: "# Body\n\nText.",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StripReferences(tt.text, tt.title); got != tt.want {
				t.Errorf("StripReferences() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFormatter_Section(t *testing.T) {
	res, err := citation.Process("A [pmid 2](x) [pmid 1](x). B [pmid 3](x).", citation.Options{})
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}

	results := resolver.NewResults(map[citation.Identifier]resolver.Result{
		"1": {Record: &reference.Reference{
			PMID:      "1",
			DOI:       "10.1/a",
			Title:     "Title.",
			Authors:   []reference.Author{{First: "JA", Last: "Smith"}, {First: "B", Last: "Doe"}},
			Journal:   "Nat Med",
			Published: reference.PublicationDate{Year: 2020},
			Volume:    "26",
			Pages:     "1-10",
		}},
		"2": {Err: &pubmed.LookupError{PMID: "2", Reason: "Not found in API response", Err: pubmed.ErrNotFound}},
	})

	f, _ := NewFormatter("")
	got := f.Section(2, "", res.Assignment, results)
	want := "\n\n## References\n\n" +
		"1. Smith JA, Doe B. Title. Nat Med 2020;26:1-10. doi: 10.1/a. [1](https://pubmed.ncbi.nlm.nih.gov/1/)\n" +
		"2. [PMID 2] - failed to retrieve article information (Not found in API response).\n" +
		"3. [PMID 3] - failed to retrieve article information (retrieval failed)."
	if got != want {
		t.Errorf("Section() =\n%q\nwant\n%q", got, want)
	}
}

func TestFormatter_Section_Levels(t *testing.T) {
	res, _ := citation.Process("[pmid 5](x)", citation.Options{})
	f, _ := NewFormatter("{number}")
	empty := resolver.NewResults(nil)

	tests := []struct {
		level int
		want  string
	}{
		{1, "\n\n# Refs\n\n1. [PMID 5] - failed to retrieve article information (retrieval failed)."},
		{4, "\n\n#### Refs\n\n1. [PMID 5] - failed to retrieve article information (retrieval failed)."},
		{7, "\n\n####### Refs\n\n1. [PMID 5] - failed to retrieve article information (retrieval failed)."},
	}
	for _, tt := range tests {
		if got := f.Section(tt.level, "Refs", res.Assignment, empty); got != tt.want {
			t.Errorf("Section(level %d) = %q, want %q", tt.level, got, tt.want)
		}
	}
}

func TestFormatter_Section_Empty(t *testing.T) {
	res, _ := citation.Process("no citations", citation.Options{})
	f, _ := NewFormatter("")
	if got := f.Section(2, "", res.Assignment, resolver.NewResults(nil)); got != "" {
		t.Errorf("Section() = %q, want empty", got)
	}
}
