package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mfujita47/pmidcite/internal/citation"
	"github.com/mfujita47/pmidcite/internal/document"
)

var (
	outputPath string
	jobCount   int
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&outputPath, "output", "o", "", "Output file or directory (\"-\" for stdout)")
	rootCmd.Flags().IntVarP(&jobCount, "jobs", "j", 1, "Documents processed concurrently")
}

// DocumentResult is the JSON output for one processed document.
type DocumentResult struct {
	Input      string                `json:"input"`
	Output     string                `json:"output"`
	RunID      string                `json:"run_id,omitempty"`
	Changed    bool                  `json:"changed"`
	Groups     int                   `json:"groups"`
	Citations  int                   `json:"citations"`
	Unresolved []citation.Identifier `json:"unresolved,omitempty"`
	Error      string                `json:"error,omitempty"`
}

// ProcessResponse is the JSON output for the root command.
type ProcessResponse struct {
	Documents []DocumentResult `json:"documents"`
}

func runProcess(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return cmd.Help()
	}
	if len(args) > 1 && outputPath != "" && outputPath != document.StdioPath {
		if info, err := os.Stat(outputPath); err == nil && !info.IsDir() {
			exitWithError(ExitError, "-o %s names a file but %d inputs were given", outputPath, len(args))
		}
	}

	ctx := cmd.Context()
	a, err := newApp(ctx, cmd)
	if err != nil {
		exitWithErr(err, "loading configuration")
	}
	defer a.Close()

	proc, err := a.processor()
	if err != nil {
		exitWithErr(err, "configuring processor")
	}

	jobs := buildJobs(args, outputPath)
	results, err := proc.ProcessFiles(ctx, jobs, jobCount)

	code := reportDocuments(results, writesStdout(jobs))
	if err != nil && code == ExitSuccess {
		code = exitCodeFor(err)
	}
	if code != ExitSuccess {
		os.Exit(code)
	}
	return nil
}

// buildJobs pairs each input with its output path.
func buildJobs(inputs []string, out string) []document.Job {
	jobs := make([]document.Job, len(inputs))
	for i, in := range inputs {
		jobs[i] = document.Job{Input: in, Output: document.OutputPath(in, out)}
	}
	return jobs
}

func writesStdout(jobs []document.Job) bool {
	for _, j := range jobs {
		if j.Output == document.StdioPath {
			return true
		}
	}
	return false
}

// reportDocuments prints the outcome of every job and returns the exit
// code of the first failure. When a document went to stdout the report
// goes to stderr so it does not mix with the document.
func reportDocuments(results []document.JobResult, toStderr bool) int {
	resp := ProcessResponse{Documents: make([]DocumentResult, 0, len(results))}
	code := ExitSuccess
	for _, r := range results {
		if r.Err != nil && code == ExitSuccess {
			code = exitCodeFor(r.Err)
		}
		resp.Documents = append(resp.Documents, documentResult(r))
	}

	if humanOutput || toStderr {
		for _, d := range resp.Documents {
			fmt.Fprintln(humanWriter(toStderr), describeDocument(d))
		}
	} else {
		outputJSON(resp)
	}
	return code
}

func describeDocument(d DocumentResult) string {
	switch {
	case d.Error != "":
		return fmt.Sprintf("%s: error: %s", d.Input, d.Error)
	case !d.Changed:
		return fmt.Sprintf("%s: no citation markers found", d.Input)
	case len(d.Unresolved) > 0:
		return fmt.Sprintf("%s -> %s: %d citations in %d groups, %d unresolved %v",
			d.Input, d.Output, d.Citations, d.Groups, len(d.Unresolved), d.Unresolved)
	default:
		return fmt.Sprintf("%s -> %s: %d citations in %d groups", d.Input, d.Output, d.Citations, d.Groups)
	}
}

func humanWriter(toStderr bool) *os.File {
	if toStderr {
		return os.Stderr
	}
	return os.Stdout
}

func documentResult(r document.JobResult) DocumentResult {
	dr := DocumentResult{Input: r.Job.Input, Output: r.Job.Output}
	if r.Err != nil {
		dr.Error = r.Err.Error()
	}
	if r.Result != nil {
		dr.RunID = r.Result.RunID
		dr.Changed = r.Result.Changed
		dr.Groups = r.Result.Groups
		dr.Citations = r.Result.Citations
		dr.Unresolved = r.Result.Unresolved
	}
	return dr
}
