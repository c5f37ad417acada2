// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/resource-curator/internal/curate"
	"github.com/pdiddy/resource-curator/internal/search"
	"github.com/pdiddy/resource-curator/pkg/types"
)

// --- search subcommand ---

var searchCmd = &cobra.Command{
	Use:   "search <topic>",
	Short: "Search the web for teaching resources without storing anything",
	Long: `Search sends the topic, plus the configured teaching qualifier, to the
search provider and prints the filtered, ranked hits. Use --save to keep
the hits in a file that the "file" provider can replay later.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().Bool("json", false, "output results as JSON")
	searchCmd.Flags().String("save", "", "write hits to this YAML file")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	e, err := setup(cmd.Context())
	if err != nil {
		return err
	}
	gw, err := e.searcher()
	if err != nil {
		return err
	}

	query := strings.Join(args, " ")
	hits, err := gw.Search(e.ctx, query)
	if err != nil {
		return err
	}

	if path, _ := cmd.Flags().GetString("save"); path != "" {
		if err := search.WriteHitFile(path, query, string(e.cfg.Search.Provider), hits); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Saved %d hits to %s\n", len(hits), path)
	}

	if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
		return search.FormatJSON(hits, os.Stdout)
	}
	search.FormatTable(hits, os.Stdout)
	return nil
}

// --- curate subcommand ---

var curateCmd = &cobra.Command{
	Use:   "curate <topic>",
	Short: "Search, clean, and store teaching resources for a topic",
	Long: `Curate runs the full pipeline for a topic: web search, noise removal,
educational-passage extraction, quality filtering, and storage.

In direct mode each qualifying source becomes its own generic-resource
record. In report mode (the default) the top sources are merged into one
lesson-plan record; when text generation is enabled the report is
polished by the model.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runCurate,
}

func init() {
	curateCmd.Flags().String("mode", string(curate.DefaultMode), "curation mode: direct or report")
	curateCmd.Flags().Int("page", 1, "page of saved records to show")
	curateCmd.Flags().Int("page-size", types.DefaultPageSize, "records per page")
	curateCmd.Flags().Bool("json", false, "output the result as JSON")
	curateCmd.Flags().String("save-hits", "", "also write the search hits to this YAML file")
	rootCmd.AddCommand(curateCmd)
}

func runCurate(cmd *cobra.Command, args []string) error {
	modeFlag, _ := cmd.Flags().GetString("mode")
	mode, err := curate.ParseMode(modeFlag)
	if err != nil {
		return err
	}
	page, _ := cmd.Flags().GetInt("page")
	pageSize, _ := cmd.Flags().GetInt("page-size")

	e, err := setup(cmd.Context())
	if err != nil {
		return err
	}
	st, err := e.openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	gw, err := e.searcher()
	if err != nil {
		return err
	}
	var s curate.Searcher = gw
	if path, _ := cmd.Flags().GetString("save-hits"); path != "" {
		s = &recordingSearcher{next: gw, path: path, provider: string(e.cfg.Search.Provider)}
	}

	res, err := e.curator(s, st, e.generator()).Curate(e.ctx, curate.Request{
		Query:    strings.Join(args, " "),
		Mode:     mode,
		Page:     page,
		PageSize: pageSize,
	})
	if err != nil {
		return err
	}

	if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}
	formatCurateResult(res, os.Stdout)
	return nil
}

// recordingSearcher saves every successful search to a hit file before
// handing the hits on.
type recordingSearcher struct {
	next     curate.Searcher
	path     string
	provider string
}

func (r *recordingSearcher) Search(ctx context.Context, query string) ([]types.SearchHit, error) {
	hits, err := r.next.Search(ctx, query)
	if err != nil {
		return nil, err
	}
	if err := search.WriteHitFile(r.path, query, r.provider, hits); err != nil {
		fmt.Fprintf(os.Stderr, "warning: could not save hits: %v\n", err)
	}
	return hits, nil
}

func formatCurateResult(res curate.Result, w io.Writer) {
	if res.Degraded {
		fmt.Fprintln(w, "Search provider unavailable; nothing was curated.")
	}
	fmt.Fprintf(w, "Mode: %s  Attempted: %d  Saved: %d", res.Mode, res.Attempted, res.Saved)
	if res.Polished {
		fmt.Fprint(w, "  (polished)")
	}
	fmt.Fprintln(w)

	for _, f := range res.Failures {
		fmt.Fprintf(w, "  failed #%d %s: %s\n", f.Position, f.URL, f.Message)
	}
	fmt.Fprintln(w)
	formatRecordTable(res.Page, w)
}
