package main

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ersonp/lore-chronicle/internal/application/handlers"
)

func newRelateCmd() *cobra.Command {
	var meta []string

	cmd := &cobra.Command{
		Use:   "relate <character> <type> <related-character>",
		Short: "Create a relationship between two characters",
		Long: `Creates a relationship and its reciprocal between two characters of the
current book. Characters are referenced by id or name.

Relationship types accept everyday words and are stored canonically:
  father/mother/parent, son/daughter/child, brother/sister/sibling,
  husband/wife/spouse, fiance/fiancee/engaged,
  friend, enemy, mentor, apprentice

Examples:
  chronicle relate Tom father Ann
  chronicle relate Ann wife Ben --meta marriageDate=2015-06-06
  chronicle relate Ann fiancee Ben --meta engagementDate=2014-12-24`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRelate(cmd, args, meta)
		},
	}

	cmd.Flags().StringArrayVar(&meta, "meta", nil, "Metadata KEY=VALUE (repeatable)")

	cmd.AddCommand(
		newRelateUpdateCmd(),
		newRelateDeleteCmd(),
	)

	return cmd
}

func runRelate(cmd *cobra.Command, args []string, meta []string) error {
	ctx := cmd.Context()
	metadata, err := parseMetadata(meta)
	if err != nil {
		return err
	}

	return withBook(ctx, func(d *Deps, bookID string) error {
		from, err := resolveCharacter(ctx, d.StoryHandler, bookID, args[0])
		if err != nil {
			return err
		}
		to, err := resolveCharacter(ctx, d.StoryHandler, bookID, args[2])
		if err != nil {
			return err
		}

		rel, err := d.RelationshipHandler.HandleCreate(ctx, from, args[1], to, metadata)
		if err != nil {
			return fmt.Errorf("creating relationship: %w", err)
		}

		fmt.Printf("Created relationship: %s\n", rel.ID)
		fmt.Printf("  %s -[%s]-> %s\n", args[0], rel.Type, args[2])
		return nil
	})
}

func newRelateUpdateCmd() *cobra.Command {
	var (
		relType string
		meta    []string
	)

	cmd := &cobra.Command{
		Use:   "update <relationship-id>",
		Short: "Change the type or metadata of a relationship",
		Long: `Updates a relationship and mirrors the change onto its reciprocal.
Metadata given with --meta replaces the existing metadata.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			var typePtr *string
			if cmd.Flags().Changed("type") {
				typePtr = &relType
			}
			var metadata map[string]any
			if len(meta) > 0 {
				var err error
				if metadata, err = parseMetadata(meta); err != nil {
					return err
				}
			}
			if typePtr == nil && metadata == nil {
				return errors.New("nothing to update (use --type or --meta)")
			}

			return withRelationshipHandler(ctx, func(handler *handlers.RelationshipHandler) error {
				rel, err := handler.HandleUpdate(ctx, args[0], typePtr, metadata)
				if err != nil {
					return fmt.Errorf("updating relationship: %w", err)
				}
				fmt.Printf("Updated relationship: %s (%s)\n", rel.ID, rel.Type)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&relType, "type", "", "New relationship type")
	cmd.Flags().StringArrayVar(&meta, "meta", nil, "Metadata KEY=VALUE (repeatable)")

	return cmd
}

func newRelateDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <relationship-id>",
		Short: "Delete a relationship",
		Long:  "Deletes a relationship and its reciprocal by ID.",
		Args:  cobra.ExactArgs(1),
		RunE:  runRelateDelete,
	}
}

func runRelateDelete(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	relID := args[0]

	return withRelationshipHandler(ctx, func(handler *handlers.RelationshipHandler) error {
		result, err := handler.HandleDelete(ctx, relID)
		if err != nil {
			return fmt.Errorf("deleting relationship: %w", err)
		}
		if !result.Deleted {
			fmt.Printf("No relationship with id %s\n", relID)
			return nil
		}

		sort.Strings(result.Removed)
		fmt.Printf("Deleted relationship: %s\n", relID)
		fmt.Printf("  removed edges: %s\n", strings.Join(result.Removed, ", "))
		return nil
	})
}

// parseMetadata turns KEY=VALUE flags into relationship metadata.
func parseMetadata(pairs []string) (map[string]any, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	kv, err := parseKeyValues(pairs)
	if err != nil {
		return nil, err
	}
	metadata := make(map[string]any, len(kv))
	for k, v := range kv {
		metadata[k] = v
	}
	return metadata, nil
}
