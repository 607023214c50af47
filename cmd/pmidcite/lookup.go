package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mfujita47/pmidcite/internal/citation"
	"github.com/mfujita47/pmidcite/internal/export"
	"github.com/mfujita47/pmidcite/internal/reference"
	"github.com/mfujita47/pmidcite/internal/resolver"
)

var lookupBibTeX bool

var lookupCmd = &cobra.Command{
	Use:   "lookup <pmid>...",
	Short: "Retrieve PubMed records through the cache",
	Long: `Retrieve PubMed records for one or more PMIDs.

Cached records are used when present; everything else is fetched in one
batched E-utilities request and written back to the cache.

Examples:
  pmidcite lookup 31452104
  pmidcite lookup 31452104 PMID:28146418 --human
  pmidcite lookup 31452104 28146418 --bibtex > refs.bib`,
	Args: cobra.MinimumNArgs(1),
	RunE: runLookup,
}

func init() {
	rootCmd.AddCommand(lookupCmd)
	lookupCmd.Flags().BoolVar(&lookupBibTeX, "bibtex", false, "Print BibTeX entries instead of JSON")
}

// LookupResult is the JSON output for one PMID.
type LookupResult struct {
	PMID      string               `json:"pmid"`
	Cached    bool                 `json:"cached"`
	Reference *reference.Reference `json:"reference,omitempty"`
	Error     string               `json:"error,omitempty"`
}

func runLookup(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := newApp(ctx, cmd)
	if err != nil {
		exitWithErr(err, "loading configuration")
	}
	defer a.Close()

	ids := parsePMIDs(args)
	results := a.resolver.Resolve(ctx, ids)
	out := lookupResults(ids, results)

	switch {
	case lookupBibTeX:
		var refs []reference.Reference
		for _, r := range out {
			if r.Reference != nil {
				refs = append(refs, *r.Reference)
			}
		}
		fmt.Print(export.ToBibTeXList(refs))
	case humanOutput:
		formatter, err := newFormatter(a.cfg)
		if err != nil {
			exitWithErr(err, "configuring formatter")
		}
		for i, r := range out {
			if r.Reference != nil {
				outputHuman("%s\n", formatter.Item(i+1, r.Reference))
			} else {
				outputHuman("%d. PMID %s: %s\n", i+1, r.PMID, r.Error)
			}
		}
	default:
		outputJSON(out)
	}

	if len(results.Unresolved) > 0 {
		exitWithError(ExitLookupError, "%d of %d PMIDs could not be retrieved", len(results.Unresolved), len(ids))
	}
	return nil
}

// parsePMIDs accepts bare PMIDs and "PMID:" prefixed ones, dropping
// duplicates and keeping the order given.
func parsePMIDs(args []string) []citation.Identifier {
	seen := make(map[citation.Identifier]bool, len(args))
	var ids []citation.Identifier
	for _, arg := range args {
		s := strings.TrimSpace(arg)
		if len(s) >= 5 && strings.EqualFold(s[:5], "pmid:") {
			s = strings.TrimSpace(s[5:])
		}
		id := citation.Identifier(s)
		if s == "" || seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}
	return ids
}

func lookupResults(ids []citation.Identifier, results resolver.Results) []LookupResult {
	out := make([]LookupResult, len(ids))
	for i, id := range ids {
		lr := LookupResult{PMID: string(id)}
		r, ok := results.Get(id)
		switch {
		case !ok:
			lr.Error = "retrieval failed"
		case r.Err != nil:
			lr.Error = resolver.Reason(r.Err)
		default:
			lr.Reference = r.Record
			lr.Cached = r.Cached
		}
		out[i] = lr
	}
	return out
}
