// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/resource-curator/internal/store"
	"github.com/pdiddy/resource-curator/pkg/types"
)

var resourcesCmd = &cobra.Command{
	Use:   "resources",
	Short: "Manage stored teaching resources (list, get, delete, export)",
}

// --- list subcommand ---

var resourcesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored resources, newest first",
	Long: `List pages through stored resources. --text matches title or tags as a
substring; --match runs a full-text query over title, content, and tags.`,
	RunE: runResourcesList,
}

func runResourcesList(cmd *cobra.Command, args []string) error {
	opts, err := searchOptsFromFlags(cmd)
	if err != nil {
		return err
	}
	opts.Page, _ = cmd.Flags().GetInt("page")
	opts.PageSize, _ = cmd.Flags().GetInt("page-size")

	e, err := setup(cmd.Context())
	if err != nil {
		return err
	}
	st, err := e.openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	result, err := st.Search(e.ctx, opts)
	if err != nil {
		return err
	}
	if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
		return writeIndented(result)
	}
	formatRecordTable(result, os.Stdout)
	return nil
}

// --- get subcommand ---

var resourcesGetCmd = &cobra.Command{
	Use:   "get <id>",
	Short: "Print one stored resource as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		e, err := setup(cmd.Context())
		if err != nil {
			return err
		}
		st, err := e.openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		rec, err := st.Get(e.ctx, id)
		if err != nil {
			return err
		}
		return writeIndented(rec)
	},
}

// --- delete subcommand ---

var resourcesDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a stored resource and its favorites",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		e, err := setup(cmd.Context())
		if err != nil {
			return err
		}
		st, err := e.openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		ok, err := st.Delete(e.ctx, id)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("resource %d not found", id)
		}
		fmt.Printf("Deleted resource %d\n", id)
		return nil
	},
}

// --- export subcommand ---

var resourcesExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export stored resources to YAML or JSON",
	Long: `Export writes every stored resource (or the subset matching --text,
--match, and --type) to resources.yaml or resources.json in the export
directory.`,
	RunE: runResourcesExport,
}

func runResourcesExport(cmd *cobra.Command, args []string) error {
	opts, err := searchOptsFromFlags(cmd)
	if err != nil {
		return err
	}
	format, _ := cmd.Flags().GetString("format")

	e, err := setup(cmd.Context())
	if err != nil {
		return err
	}
	dir, _ := cmd.Flags().GetString("dir")
	if dir == "" {
		dir = e.cfg.Store.ExportDir
	}
	st, err := e.openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	path, err := st.Export(e.ctx, dir, store.ExportFormat(format), opts)
	if err != nil {
		return err
	}
	fmt.Printf("Exported to %s\n", path)
	return nil
}

func init() {
	for _, c := range []*cobra.Command{resourcesListCmd, resourcesExportCmd} {
		c.Flags().String("text", "", "substring match on title or tags")
		c.Flags().String("match", "", "full-text query over title, content, and tags")
		c.Flags().String("type", "", "restrict to one resource type")
	}
	resourcesListCmd.Flags().Int("page", 1, "page number")
	resourcesListCmd.Flags().Int("page-size", types.DefaultPageSize, "records per page")
	resourcesListCmd.Flags().Bool("json", false, "output the page as JSON")

	resourcesExportCmd.Flags().String("format", string(store.ExportYAML), "export format: yaml or json")
	resourcesExportCmd.Flags().String("dir", "", "output directory (overrides store.export_dir)")

	resourcesCmd.AddCommand(resourcesListCmd, resourcesGetCmd, resourcesDeleteCmd, resourcesExportCmd)
	rootCmd.AddCommand(resourcesCmd)
}

// --- shared helpers ---

func searchOptsFromFlags(cmd *cobra.Command) (store.SearchOptions, error) {
	text, _ := cmd.Flags().GetString("text")
	match, _ := cmd.Flags().GetString("match")
	opts := store.SearchOptions{Text: text, Match: match}
	if t, _ := cmd.Flags().GetString("type"); t != "" {
		rt, err := types.ParseResourceType(t)
		if err != nil {
			return store.SearchOptions{}, err
		}
		opts.Type = rt
	}
	return opts, nil
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id < 1 {
		return 0, fmt.Errorf("invalid resource id %q", s)
	}
	return id, nil
}

func writeIndented(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func formatRecordTable(p types.Page[types.ResourceRecord], w io.Writer) {
	if len(p.Items) == 0 {
		fmt.Fprintln(w, "No resources found.")
		return
	}

	fmt.Fprintf(w, "%-6s  %-16s  %-40s  %s\n", "ID", "Type", "Title", "Source")
	fmt.Fprintln(w, strings.Repeat("-", 100))
	for _, r := range p.Items {
		title := r.Title
		if len([]rune(title)) > 40 {
			title = types.TruncateRunes(title, 37) + "..."
		}
		source := r.SourceURL
		if len([]rune(source)) > 60 {
			source = types.TruncateRunes(source, 57) + "..."
		}
		fmt.Fprintf(w, "%-6d  %-16s  %-40s  %s\n", r.ID, r.Type, title, source)
	}
	fmt.Fprintf(w, "\nPage %d of %d (%d total)\n", p.Page, p.TotalPages, p.Total)
}
