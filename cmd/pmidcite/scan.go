package main

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mfujita47/pmidcite/internal/citation"
	"github.com/mfujita47/pmidcite/internal/config"
	"github.com/mfujita47/pmidcite/internal/document"
	"github.com/mfujita47/pmidcite/internal/pdf"
)

var scanMaxPages int

var scanCmd = &cobra.Command{
	Use:   "scan <file>",
	Short: "Show citation groups and their numbering without looking anything up",
	Long: `Show how citation markers would be grouped and numbered.

Nothing is fetched and no file is written. PDF manuscripts are accepted:
their text is extracted first, so offsets refer to the extracted text.

Examples:
  pmidcite scan paper.md
  pmidcite scan paper.pdf --human
  pmidcite scan - < paper.pdf
  pmidcite scan draft.md --separators ";" --citation-format "[{number}]"`,
	Args: cobra.ExactArgs(1),
	RunE: runScan,
}

func init() {
	rootCmd.AddCommand(scanCmd)
	scanCmd.Flags().IntVar(&scanMaxPages, "max-pages", 0, "Only read the first N pages of a PDF (0 reads all)")
}

// ScanGroup is one group in the scan output.
type ScanGroup struct {
	Span        citation.Span         `json:"span"`
	Source      string                `json:"source"`
	Identifiers []citation.Identifier `json:"identifiers"`
	Numbers     []int                 `json:"numbers"`
	Rendered    string                `json:"rendered"`
}

// ScanResponse is the JSON output for the scan command.
type ScanResponse struct {
	Input     string           `json:"input"`
	Groups    []ScanGroup      `json:"groups"`
	Citations []citation.Entry `json:"citations"`
}

func runScan(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		exitWithErr(err, "loading configuration")
	}

	text, err := readManuscript(args[0], scanMaxPages)
	if err != nil {
		exitWithErr(err, "reading input")
	}

	resp, err := scanText(cfg, args[0], text)
	if err != nil {
		exitWithErr(err, "scanning")
	}

	if humanOutput {
		printScanHuman(resp)
		return nil
	}
	return outputJSON(resp)
}

// scanText groups and numbers the markers of text under cfg.
func scanText(cfg config.Config, input, text string) (ScanResponse, error) {
	scanner, err := newScanner(cfg)
	if err != nil {
		return ScanResponse{}, err
	}
	render := citation.TemplateRenderer(cfg.CitationFormat)
	res, err := citation.Process(text, citation.Options{Scanner: scanner, Render: render})
	if err != nil {
		return ScanResponse{}, err
	}

	resp := ScanResponse{
		Input:     input,
		Groups:    make([]ScanGroup, len(res.Plans)),
		Citations: res.Assignment.Entries(),
	}
	for i, plan := range res.Plans {
		resp.Groups[i] = ScanGroup{
			Span:        plan.Span,
			Source:      text[plan.Span.Start:plan.Span.End],
			Identifiers: plan.Identifiers,
			Numbers:     plan.Numbers,
			Rendered:    render(plan.Numbers),
		}
	}
	return resp, nil
}

// readManuscript returns the text of path, extracting it from PDFs.
func readManuscript(path string, maxPages int) (string, error) {
	if path == document.StdioPath {
		return readManuscriptFrom(os.Stdin, maxPages)
	}
	if pdf.IsPDF(path) {
		text, err := pdf.ExtractText(path, maxPages)
		if err != nil {
			return "", fmt.Errorf("%w: %w", document.ErrReadInput, err)
		}
		return text, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("%w: %w", document.ErrReadInput, err)
	}
	return string(data), nil
}

// readManuscriptFrom reads a manuscript from r, extracting the text when
// the data is a PDF.
func readManuscriptFrom(r io.Reader, maxPages int) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("%w: stdin: %v", document.ErrReadInput, err)
	}
	if !pdf.HasMagic(data) {
		return string(data), nil
	}
	text, err := pdf.ExtractTextReader(bytes.NewReader(data), int64(len(data)), maxPages)
	if err != nil {
		return "", fmt.Errorf("%w: stdin: %w", document.ErrReadInput, err)
	}
	return text, nil
}

func printScanHuman(resp ScanResponse) {
	if len(resp.Groups) == 0 {
		outputHuman("%s: no citation markers found\n", resp.Input)
		return
	}
	outputHuman("%s: %d groups, %d distinct PMIDs\n\n", resp.Input, len(resp.Groups), len(resp.Citations))
	for _, g := range resp.Groups {
		outputHuman("  %d-%d  %-12s %s\n", g.Span.Start, g.Span.End, g.Rendered, joinIDs(g.Identifiers))
	}
	outputHuman("\n")
	for _, e := range resp.Citations {
		outputHuman("  %3d. PMID %s\n", e.Number, e.ID)
	}
}

func joinIDs(ids []citation.Identifier) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = string(id)
	}
	return strings.Join(parts, ", ")
}
