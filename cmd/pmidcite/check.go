package main

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/nao1215/markdown"
	"github.com/spf13/cobra"

	"github.com/mfujita47/pmidcite/internal/citation"
	"github.com/mfujita47/pmidcite/internal/resolver"
)

var checkFormat string

var checkCmd = &cobra.Command{
	Use:   "check <file>",
	Short: "Report every cited PMID and whether it can be retrieved",
	Long: `Look up every PMID cited in a manuscript and print a Markdown report.

The manuscript is not modified. Exits with status 4 when any PMID could
not be retrieved.

Examples:
  pmidcite check paper.md
  pmidcite check paper.md --format json`,
	Args: cobra.ExactArgs(1),
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)
	checkCmd.Flags().StringVar(&checkFormat, "format", "markdown", "Report format: markdown or json")
}

// CheckRow is one cited PMID in the check report.
type CheckRow struct {
	Number int    `json:"number"`
	PMID   string `json:"pmid"`
	Groups int    `json:"groups"` // citation groups that cite it
	Status string `json:"status"`
	Title  string `json:"title,omitempty"`
	Error  string `json:"error,omitempty"`
}

// CheckReport is the output of the check command.
type CheckReport struct {
	Input      string     `json:"input"`
	Groups     int        `json:"groups"`
	Rows       []CheckRow `json:"citations"`
	Unresolved int        `json:"unresolved"`
}

// Check statuses.
const (
	StatusOK     = "ok"
	StatusCached = "cached"
	StatusFailed = "failed"
)

func runCheck(cmd *cobra.Command, args []string) error {
	if checkFormat != "markdown" && checkFormat != "json" {
		exitWithError(ExitError, "unknown format %q (want markdown or json)", checkFormat)
	}

	ctx := cmd.Context()
	a, err := newApp(ctx, cmd)
	if err != nil {
		exitWithErr(err, "loading configuration")
	}
	defer a.Close()

	text, err := readManuscript(args[0], 0)
	if err != nil {
		exitWithErr(err, "reading input")
	}

	scanner, err := newScanner(a.cfg)
	if err != nil {
		exitWithErr(err, "configuring scanner")
	}
	res, err := citation.Process(text, citation.Options{Scanner: scanner})
	if err != nil {
		exitWithErr(err, "scanning")
	}

	results := a.resolver.Resolve(ctx, res.Assignment.Identifiers())
	report := buildCheckReport(args[0], res, results)

	if checkFormat == "json" {
		outputJSON(report)
	} else if err := writeCheckMarkdown(os.Stdout, report); err != nil {
		exitWithError(ExitError, "writing report: %v", err)
	}

	if report.Unresolved > 0 {
		os.Exit(ExitLookupError)
	}
	return nil
}

func buildCheckReport(input string, res *citation.Result, results resolver.Results) CheckReport {
	groupsPerID := make(map[citation.Identifier]int)
	for _, plan := range res.Plans {
		seen := make(map[citation.Identifier]bool, len(plan.Identifiers))
		for _, id := range plan.Identifiers {
			if !seen[id] {
				seen[id] = true
				groupsPerID[id]++
			}
		}
	}

	report := CheckReport{Input: input, Groups: len(res.Groups)}
	for _, e := range res.Assignment.Entries() {
		row := CheckRow{Number: e.Number, PMID: string(e.ID), Groups: groupsPerID[e.ID]}
		r, ok := results.Get(e.ID)
		switch {
		case !ok:
			row.Status = StatusFailed
			row.Error = "retrieval failed"
		case r.Err != nil:
			row.Status = StatusFailed
			row.Error = resolver.Reason(r.Err)
		case r.Cached:
			row.Status = StatusCached
			row.Title = r.Record.Title
		default:
			row.Status = StatusOK
			row.Title = r.Record.Title
		}
		if row.Status == StatusFailed {
			report.Unresolved++
		}
		report.Rows = append(report.Rows, row)
	}
	return report
}

func writeCheckMarkdown(w io.Writer, report CheckReport) error {
	md := markdown.NewMarkdown(w)
	md.H1("Citation check: " + report.Input)
	md.PlainText("")

	if len(report.Rows) == 0 {
		md.PlainText("No citation markers found.")
		return md.Build()
	}

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Citation groups", strconv.Itoa(report.Groups)},
			{"Distinct PMIDs", strconv.Itoa(len(report.Rows))},
			{"Unresolved", strconv.Itoa(report.Unresolved)},
		},
	})
	md.PlainText("")

	rows := make([][]string, len(report.Rows))
	for i, r := range report.Rows {
		detail := r.Title
		if r.Status == StatusFailed {
			detail = r.Error
		}
		rows[i] = []string{
			strconv.Itoa(r.Number),
			fmt.Sprintf("[%s](https://pubmed.ncbi.nlm.nih.gov/%s/)", r.PMID, r.PMID),
			strconv.Itoa(r.Groups),
			r.Status,
			detail,
		}
	}
	md.Table(markdown.TableSet{
		Header: []string{"No.", "PMID", "Groups", "Status", "Title / Error"},
		Rows:   rows,
	})
	return md.Build()
}
