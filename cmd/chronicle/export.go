package main

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ersonp/lore-chronicle/internal/application/handlers"
)

type exportFlags struct {
	format string
	output string
}

type exporter struct {
	format string
	output string
}

func newExportCmd() *cobra.Command {
	var flags exportFlags

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export relationships to file",
		Long: `Exports the relationships of the current book to JSON, CSV, or markdown.
Each pair is written once; JSON and CSV output can be imported again.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(cmd, flags)
		},
	}

	cmd.Flags().StringVarP(&flags.format, "format", "f", formatJSON, "Output format (json, csv, markdown)")
	cmd.Flags().StringVarP(&flags.output, "output", "o", "", "Output file (default: stdout)")

	return cmd
}

func runExport(cmd *cobra.Command, flags exportFlags) error {
	if !slices.Contains(exportFormats, flags.format) {
		return fmt.Errorf("invalid format %q, valid formats: %v", flags.format, exportFormats)
	}

	ctx := cmd.Context()

	return withBook(ctx, func(d *Deps, bookID string) error {
		chars, err := d.StoryHandler.HandleListCharacters(ctx, bookID)
		if err != nil {
			return fmt.Errorf("listing characters: %w", err)
		}

		rows, err := d.RelationshipHandler.HandleExport(ctx, bookID, chars)
		if err != nil {
			return fmt.Errorf("exporting relationships: %w", err)
		}

		e := &exporter{format: flags.format, output: flags.output}
		return e.export(rows)
	})
}

func (e *exporter) export(rows []handlers.ExportedRelationship) (err error) {
	var w io.Writer
	var f *os.File

	if e.output != "" {
		f, err = os.OpenFile(e.output, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
		if err != nil {
			return fmt.Errorf("creating file: %w", err)
		}
		defer func() {
			if cerr := f.Close(); cerr != nil && err == nil {
				err = fmt.Errorf("closing file: %w", cerr)
			}
		}()
		w = f
	} else {
		w = os.Stdout
	}

	if err := e.formatRows(w, rows); err != nil {
		return fmt.Errorf("formatting output: %w", err)
	}

	if e.output != "" {
		fmt.Printf("Exported %d relationships to %s\n", len(rows), e.output)
	}

	return nil
}

func (e *exporter) formatRows(w io.Writer, rows []handlers.ExportedRelationship) error {
	switch e.format {
	case formatJSON:
		return formatExportJSON(w, rows)
	case formatCSV:
		return formatExportCSV(w, rows)
	case formatMarkdown:
		return formatExportMarkdown(w, rows)
	default:
		return fmt.Errorf("unknown format: %s", e.format)
	}
}

func formatExportJSON(w io.Writer, rows []handlers.ExportedRelationship) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(rows)
}

// formatExportCSV writes the import columns followed by one column per
// metadata key found in any row.
func formatExportCSV(w io.Writer, rows []handlers.ExportedRelationship) error {
	keys := metadataKeys(rows)
	writer := csv.NewWriter(w)

	header := append([]string{"character", "type", "related"}, keys...)
	if err := writer.Write(header); err != nil {
		return err
	}

	for _, r := range rows {
		record := []string{r.Character, r.Type, r.Related}
		for _, k := range keys {
			v, ok := r.Metadata[k]
			if !ok || v == nil {
				record = append(record, "")
				continue
			}
			record = append(record, fmt.Sprint(v))
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}

func formatExportMarkdown(w io.Writer, rows []handlers.ExportedRelationship) error {
	if _, err := fmt.Fprintf(w, "# Relationships\n\nTotal: %d\n\n", len(rows)); err != nil {
		return err
	}

	if _, err := fmt.Fprint(w, "| Character | Type | Related | Details |\n"); err != nil {
		return err
	}
	if _, err := fmt.Fprint(w, "|-----------|------|---------|---------|\n"); err != nil {
		return err
	}

	for _, r := range rows {
		if _, err := fmt.Fprintf(w, "| %s | %s | %s | %s |\n",
			escapeMarkdown(orID(r.CharacterName, r.Character)),
			r.Type,
			escapeMarkdown(orID(r.RelatedName, r.Related)),
			escapeMarkdown(strings.TrimSuffix(strings.TrimPrefix(metadataSuffix(r.Metadata), " ("), ")")),
		); err != nil {
			return err
		}
	}

	return nil
}

func metadataKeys(rows []handlers.ExportedRelationship) []string {
	seen := make(map[string]bool)
	var keys []string
	for _, r := range rows {
		for k := range r.Metadata {
			if !seen[k] {
				seen[k] = true
				keys = append(keys, k)
			}
		}
	}
	slices.Sort(keys)
	return keys
}

func orID(name, id string) string {
	if name == "" {
		return id
	}
	return name
}

func escapeMarkdown(s string) string {
	s = strings.ReplaceAll(s, "|", "\\|")
	s = strings.ReplaceAll(s, "\n", " ")
	return s
}
