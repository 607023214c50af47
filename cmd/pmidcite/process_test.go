package main

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mfujita47/pmidcite/internal/citation"
	"github.com/mfujita47/pmidcite/internal/document"
)

func TestBuildJobs(t *testing.T) {
	jobs := buildJobs([]string{"a.md", filepath.Join("docs", "b.md"), "-"}, "")
	want := []document.Job{
		{Input: "a.md", Output: "a_cited.md"},
		{Input: filepath.Join("docs", "b.md"), Output: filepath.Join("docs", "b_cited.md")},
		{Input: "-", Output: "-"},
	}
	for i := range want {
		if jobs[i] != want[i] {
			t.Errorf("jobs[%d] = %+v, want %+v", i, jobs[i], want[i])
		}
	}
	if !writesStdout(jobs) {
		t.Error("writesStdout() = false with a stdin job")
	}
	if writesStdout(jobs[:2]) {
		t.Error("writesStdout() = true without a stdout job")
	}
}

func TestDocumentResult(t *testing.T) {
	r := document.JobResult{
		Job: document.Job{Input: "a.md", Output: "a_cited.md"},
		Result: &document.Output{
			RunID:      "run",
			Changed:    true,
			Groups:     2,
			Citations:  3,
			Unresolved: []citation.Identifier{"9"},
		},
	}
	got := documentResult(r)
	if got.RunID != "run" || !got.Changed || got.Groups != 2 || got.Citations != 3 || len(got.Unresolved) != 1 {
		t.Errorf("documentResult() = %+v", got)
	}

	failed := documentResult(document.JobResult{
		Job: document.Job{Input: "x.md"},
		Err: fmt.Errorf("%w: no such file", document.ErrReadInput),
	})
	if !strings.Contains(failed.Error, "no such file") {
		t.Errorf("Error = %q", failed.Error)
	}
}

func TestDescribeDocument(t *testing.T) {
	tests := []struct {
		name string
		doc  DocumentResult
		want string
	}{
		{"error", DocumentResult{Input: "x.md", Error: errors.New("boom").Error()}, "x.md: error: boom"},
		{"unchanged", DocumentResult{Input: "x.md"}, "x.md: no citation markers found"},
		{"done", DocumentResult{Input: "x.md", Output: "y.md", Changed: true, Citations: 3, Groups: 2}, "x.md -> y.md: 3 citations in 2 groups"},
		{"unresolved", DocumentResult{Input: "x.md", Output: "y.md", Changed: true, Citations: 3, Groups: 2, Unresolved: []citation.Identifier{"9"}},
			"x.md -> y.md: 3 citations in 2 groups, 1 unresolved [9]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := describeDocument(tt.doc); got != tt.want {
				t.Errorf("describeDocument() = %q, want %q", got, tt.want)
			}
		})
	}
}
