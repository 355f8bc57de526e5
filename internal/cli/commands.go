package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"toolkithub/internal/models"
	"toolkithub/internal/services"
)

func newInitCmd(run runner) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create collections and indexes",
		Args:  cobra.NoArgs,
		RunE: run(func(ctx context.Context, cmd *cobra.Command, b *Backend, _ []string) error {
			created, err := b.Transfer.InitCollections(ctx)
			if err != nil {
				return fmt.Errorf("init failed: %w", err)
			}
			if len(created) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "All collections already exist, indexes ensured.")
				return nil
			}
			for _, name := range created {
				fmt.Fprintf(cmd.OutOrStdout(), "created %s\n", name)
			}
			return nil
		}),
	}
}

func newMigrateCmd(run runner) *cobra.Command {
	var file, format string

	cmd := &cobra.Command{
		Use:   "migrate --file tools.json",
		Short: "Bulk load a JSON or YAML seed list and derive categories",
		Args:  cobra.NoArgs,
		RunE: run(func(ctx context.Context, cmd *cobra.Command, b *Backend, _ []string) error {
			if format == "" {
				format = filepath.Ext(file)
			}
			seedFormat, err := services.ParseSeedFormat(format)
			if err != nil {
				return err
			}
			data, err := os.ReadFile(file)
			if err != nil {
				return fmt.Errorf("failed to read seed file: %w", err)
			}

			report, err := b.Transfer.Migrate(ctx, data, seedFormat)
			if report != nil {
				printReport(cmd.OutOrStdout(), report)
			}
			if err != nil {
				return fmt.Errorf("migrate failed: %w", err)
			}
			return nil
		}),
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "seed file to load")
	cmd.Flags().StringVar(&format, "format", "", "json or yaml (default: from the file extension)")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func newToolsCmd(run runner) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tools",
		Short: "Search, edit and delete tools",
	}
	cmd.AddCommand(newToolsSearchCmd(run), newToolsEditCmd(run), newToolsDeleteCmd(run))
	return cmd
}

func newToolsSearchCmd(run runner) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "search <name>",
		Short: "Find tools by name",
		Args:  cobra.ExactArgs(1),
		RunE: run(func(ctx context.Context, cmd *cobra.Command, b *Backend, args []string) error {
			tools, err := b.Tools.SearchByName(ctx, args[0])
			if err != nil {
				return fmt.Errorf("search failed: %w", err)
			}
			if jsonOutput {
				return writeJSON(cmd.OutOrStdout(), tools)
			}
			if len(tools) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No tools found.")
				return nil
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME\tCATEGORY\tPLAN\tRATING")
			for _, t := range tools {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%.1f (%d)\n", t.ID.Hex(), t.Name, t.Category, t.Plan, t.AverageRating, t.RatingCount)
			}
			return tw.Flush()
		}),
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "print JSON")
	return cmd
}

func newToolsEditCmd(run runner) *cobra.Command {
	var name, category, url, description, memo, plan string

	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Change fields of a tool; only the flags given are applied",
		Args:  cobra.ExactArgs(1),
		RunE: run(func(ctx context.Context, cmd *cobra.Command, b *Backend, args []string) error {
			id, err := primitive.ObjectIDFromHex(args[0])
			if err != nil {
				return fmt.Errorf("invalid tool id %q", args[0])
			}

			var body models.UpdateToolRequestBody
			flags := cmd.Flags()
			if flags.Changed("name") {
				body.Name = &name
			}
			if flags.Changed("category") {
				body.Category = &category
			}
			if flags.Changed("url") {
				body.URL = &url
			}
			if flags.Changed("description") {
				body.Description = &description
			}
			if flags.Changed("memo") {
				body.Memo = &memo
			}
			if flags.Changed("plan") {
				p := models.Plan(plan)
				body.Plan = &p
			}

			tool, err := b.Tools.UpdateTool(ctx, services.SystemActor(), id, body)
			if err != nil {
				return fmt.Errorf("edit failed: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "updated %s (%s)\n", tool.ID.Hex(), tool.Name)
			return nil
		}),
	}
	cmd.Flags().StringVar(&name, "name", "", "tool name")
	cmd.Flags().StringVar(&category, "category", "", "category name")
	cmd.Flags().StringVar(&url, "url", "", "tool URL")
	cmd.Flags().StringVar(&description, "description", "", "description")
	cmd.Flags().StringVar(&memo, "memo", "", "memo, empty to clear")
	cmd.Flags().StringVar(&plan, "plan", "", "none, free, paid or enterprise")
	return cmd
}

func newToolsDeleteCmd(run runner) *cobra.Command {
	var cascade bool

	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a tool",
		Args:  cobra.ExactArgs(1),
		RunE: run(func(ctx context.Context, cmd *cobra.Command, b *Backend, args []string) error {
			id, err := primitive.ObjectIDFromHex(args[0])
			if err != nil {
				return fmt.Errorf("invalid tool id %q", args[0])
			}
			if err := b.Tools.DeleteTool(ctx, services.SystemActor(), id, cascade); err != nil {
				return fmt.Errorf("delete failed: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", id.Hex())
			return nil
		}),
	}
	cmd.Flags().BoolVar(&cascade, "cascade", false, "also delete the tool's ratings, comments and bookmarks")
	return cmd
}

func newExportCmd(run runner) *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write every tool as a JSON array",
		Args:  cobra.NoArgs,
		RunE: run(func(ctx context.Context, cmd *cobra.Command, b *Backend, _ []string) error {
			tools, err := b.Transfer.Export(ctx)
			if err != nil {
				return fmt.Errorf("export failed: %w", err)
			}
			if out == "" || out == "-" {
				return writeJSON(cmd.OutOrStdout(), tools)
			}

			f, err := os.Create(out)
			if err != nil {
				return fmt.Errorf("failed to create %s: %w", out, err)
			}
			if err := writeJSON(f, tools); err != nil {
				f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "exported %d tools to %s\n", len(tools), out)
			return nil
		}),
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (default stdout)")
	return cmd
}

func newImportCmd(run runner) *cobra.Command {
	var file, mode string

	cmd := &cobra.Command{
		Use:   "import --file tools.json",
		Short: "Load an exported JSON array",
		Args:  cobra.NoArgs,
		RunE: run(func(ctx context.Context, cmd *cobra.Command, b *Backend, _ []string) error {
			data, err := os.ReadFile(file)
			if err != nil {
				return fmt.Errorf("failed to read import file: %w", err)
			}
			report, err := b.Transfer.Import(ctx, data, models.ImportMode(mode))
			if report != nil {
				printReport(cmd.OutOrStdout(), report)
			}
			if err != nil {
				return fmt.Errorf("import failed: %w", err)
			}
			return nil
		}),
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "file to import")
	cmd.Flags().StringVar(&mode, "mode", string(models.ImportAppend), "append or replace")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func printReport(w io.Writer, r *models.ImportReport) {
	fmt.Fprintf(w, "mode=%s valid=%d inserted=%d deleted=%d invalid=%d\n", r.Mode, r.Valid, r.Inserted, r.Deleted, len(r.Invalid))
	for _, e := range r.Invalid {
		fmt.Fprintf(w, "  entry %d: %s\n", e.Index, e.Reason)
	}
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
