package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ersonp/lore-chronicle/internal/application/handlers"
	"github.com/ersonp/lore-chronicle/internal/domain/services"
)

type importFlags struct {
	format     string
	dryRun     bool
	onConflict string
}

func newImportCmd() *cobra.Command {
	var flags importFlags

	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Import relationships from JSON or CSV",
		Long: `Imports relationships into the current book. Every row names a character,
a relationship type and a related character; characters are referenced by
id or name and reciprocal edges are created automatically.

CSV files need the columns character, type and related. Any other column
is stored as metadata:

  character,type,related,marriageDate
  Ann,wife,Ben,2015-06-06

JSON files hold an array of objects:

  [{"character": "Tom", "type": "father", "related": "Ann"}]`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(cmd, args[0], flags)
		},
	}

	cmd.Flags().StringVarP(&flags.format, "format", "f", "auto", "File format (json, csv, auto)")
	cmd.Flags().BoolVar(&flags.dryRun, "dry-run", false, "Validate without saving")
	cmd.Flags().StringVar(&flags.onConflict, "on-conflict", "skip", "Conflict handling (skip, update)")

	return cmd
}

func runImport(cmd *cobra.Command, filePath string, flags importFlags) error {
	strategy, err := services.ParseConflictStrategy(flags.onConflict)
	if err != nil {
		return fmt.Errorf("invalid --on-conflict: %w", err)
	}

	ctx := cmd.Context()

	return withBook(ctx, func(d *Deps, bookID string) error {
		opts := handlers.ImportOptions{
			Format:     flags.format,
			DryRun:     flags.dryRun,
			OnConflict: strategy,
		}

		fmt.Printf("Importing %s...\n", filePath)

		result, err := d.ImportHandler.HandleFile(ctx, bookID, filePath, opts)
		if err != nil {
			return fmt.Errorf("importing file: %w", err)
		}

		if len(result.Errors) > 0 {
			fmt.Printf("\nValidation errors (%d):\n", len(result.Errors))
			for _, e := range result.Errors {
				fmt.Printf("  %s\n", e.Error())
			}
		}

		fmt.Println()
		if flags.dryRun {
			fmt.Printf("Dry run: %d relationships would be imported", result.Imported)
		} else {
			fmt.Printf("Imported: %d relationships", result.Imported)
		}

		if result.Updated > 0 {
			fmt.Printf(", %d updated", result.Updated)
		}

		if result.Skipped > 0 {
			fmt.Printf(", %d skipped (already exist)", result.Skipped)
		}

		if len(result.Errors) > 0 {
			fmt.Printf(", %d errors", len(result.Errors))
		}

		fmt.Println()

		return nil
	})
}
