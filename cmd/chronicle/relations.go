package main

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ersonp/lore-chronicle/internal/application/handlers"
	"github.com/ersonp/lore-chronicle/internal/domain/entities"
)

type relationsFlags struct {
	relType string
	format  string
}

func newRelationsCmd() *cobra.Command {
	var flags relationsFlags

	cmd := &cobra.Command{
		Use:   "relations <character>",
		Short: "List relationships for a character",
		Long: `Shows the relationships of a character, labelled by the related
character's gender where one applies.

Examples:
  chronicle relations Ann
  chronicle relations Ann --type parent
  chronicle relations Ann --format json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRelations(cmd, args, flags)
		},
	}

	cmd.Flags().StringVar(&flags.relType, "type", "", "Filter by relationship type")
	cmd.Flags().StringVar(&flags.format, "format", formatTree, "Output format: tree, list, json")

	return cmd
}

func runRelations(cmd *cobra.Command, args []string, flags relationsFlags) error {
	ctx := cmd.Context()

	if !slices.Contains(relationsFormats, flags.format) {
		return fmt.Errorf("invalid format: %s (valid: %s)", flags.format, strings.Join(relationsFormats, ", "))
	}

	return withBook(ctx, func(d *Deps, bookID string) error {
		characterID, err := resolveCharacter(ctx, d.StoryHandler, bookID, args[0])
		if err != nil {
			return err
		}

		result, err := d.RelationshipHandler.HandleList(ctx, characterID, handlers.ListOptions{Type: flags.relType})
		if err != nil {
			return fmt.Errorf("listing relationships: %w", err)
		}

		if len(result.Relationships) == 0 && flags.format != formatJSON {
			fmt.Printf("No relationships found for character: %s\n", args[0])
			return nil
		}

		return printRelations(args[0], result, flags.format)
	})
}

func printRelations(name string, result *handlers.ListResult, format string) error {
	switch format {
	case formatJSON:
		return printRelationsJSON(result)
	case formatList:
		return printRelationsList(name, result)
	default:
		return printRelationsTree(name, result)
	}
}

func printRelationsJSON(result *handlers.ListResult) error {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling JSON: %w", err)
	}
	fmt.Println(string(data))
	return nil
}

func printRelationsList(name string, result *handlers.ListResult) error {
	fmt.Printf("Relationships for %s:\n", name)
	fmt.Println(strings.Repeat("-", 60))

	for _, info := range result.Relationships {
		fmt.Printf("%-12s %-24s %s%s\n", info.Label, relatedName(info.Related), info.Relationship.ID, metadataSuffix(info.Relationship.Metadata))
	}
	return nil
}

func printRelationsTree(name string, result *handlers.ListResult) error {
	fmt.Printf("%s\n", name)

	for i, info := range result.Relationships {
		prefix := "+-"
		if i == len(result.Relationships)-1 {
			prefix = "\\-"
		}
		fmt.Printf("%s %s -> %s%s\n", prefix, info.Label, relatedName(info.Related), metadataSuffix(info.Relationship.Metadata))
	}
	return nil
}

func relatedName(c *entities.RelatedCharacter) string {
	if c == nil {
		return "unknown"
	}
	name := strings.TrimSpace(c.FirstName + " " + c.LastName)
	if name == "" {
		return c.ID
	}
	return name
}

func metadataSuffix(metadata map[string]any) string {
	if len(metadata) == 0 {
		return ""
	}
	keys := make([]string, 0, len(metadata))
	for k := range metadata {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", k, metadata[k]))
	}
	return " (" + strings.Join(parts, ", ") + ")"
}
