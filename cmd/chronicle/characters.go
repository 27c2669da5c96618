package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ersonp/lore-chronicle/internal/application/handlers"
	"github.com/ersonp/lore-chronicle/internal/domain/entities"
)

func newCharactersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "characters",
		Aliases: []string{"chars"},
		Short:   "Manage the characters of a book",
		RunE:    runCharactersList,
	}

	cmd.AddCommand(
		newCharactersListCmd(),
		newCharactersAddCmd(),
		newCharactersSetCmd(),
		newCharactersAvatarCmd(),
		newCharactersRemoveCmd(),
	)

	return cmd
}

func newCharactersListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List characters in display order",
		RunE:  runCharactersList,
	}
}

func runCharactersList(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	return withBook(ctx, func(d *Deps, bookID string) error {
		chars, err := d.StoryHandler.HandleListCharacters(ctx, bookID)
		if err != nil {
			return fmt.Errorf("listing characters: %w", err)
		}
		if len(chars) == 0 {
			fmt.Println("No characters yet.")
			return nil
		}

		fmt.Printf("%-36s  %-24s %-8s %-12s %s\n", "ID", "NAME", "GENDER", "ROLE", "BORN")
		for i := range chars {
			c := &chars[i]
			gender := "-"
			if c.Gender != nil {
				gender = string(*c.Gender)
			}
			born, _ := c.Attributes[entities.AttrBirthDate].(string)
			fmt.Printf("%-36s  %-24s %-8s %-12s %s\n", c.ID, c.DisplayName(), gender, c.Role, born)
		}
		return nil
	})
}

func newCharactersAddCmd() *cobra.Command {
	var in handlers.CharacterInput

	cmd := &cobra.Command{
		Use:   "add FIRST [LAST]",
		Short: "Add a character",
		Long: `Adds a character to the current book.

Examples:
  chronicle characters add Ann Lee --gender female --role protagonist --born 1990-04-12
  chronicle characters add "Old Tom" --role marginal --died 2001-01-01`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			in.FirstName = args[0]
			if len(args) == 2 {
				in.LastName = args[1]
			}
			ctx := cmd.Context()
			return withBook(ctx, func(d *Deps, bookID string) error {
				c, err := d.StoryHandler.HandleAddCharacter(ctx, bookID, in)
				if err != nil {
					return fmt.Errorf("adding character: %w", err)
				}
				fmt.Printf("Added character: %s (%s)\n", c.DisplayName(), c.ID)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&in.Gender, "gender", "", "Gender: male, female, unicorn, none")
	cmd.Flags().StringVar(&in.Role, "role", "", "Role: protagonist, supporting, antagonist, marginal")
	cmd.Flags().StringVar(&in.Avatar, "avatar", "", "Avatar image reference")
	cmd.Flags().StringVar(&in.BirthDate, "born", "", "Birth date")
	cmd.Flags().StringVar(&in.DeathDate, "died", "", "Death date")
	cmd.Flags().StringVar(&in.Description, "description", "", "Short description")
	cmd.Flags().StringSliceVar(&in.Groups, "group", nil, "Group membership (repeatable)")

	return cmd
}

func newCharactersSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set CHARACTER KEY=VALUE...",
		Short: "Set character attributes",
		Long: `Sets attributes on a character. An empty value removes the attribute.

Examples:
  chronicle characters set Ann birthDate=1990-04-12 description="the heir"
  chronicle characters set Ann deathDate=`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			attrs, err := parseKeyValues(args[1:])
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			return withBook(ctx, func(d *Deps, bookID string) error {
				id, err := resolveCharacter(ctx, d.StoryHandler, bookID, args[0])
				if err != nil {
					return err
				}
				c, err := d.StoryHandler.HandleSetAttributes(ctx, id, attrs)
				if err != nil {
					return fmt.Errorf("setting attributes: %w", err)
				}
				fmt.Printf("Updated %s\n", c.DisplayName())
				return nil
			})
		},
	}
}

func newCharactersAvatarCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "avatar CHARACTER [REF]",
		Short: "Set or clear a character's avatar",
		Long: `Points a character at an avatar image. REF is a path under images.root
(or an S3 key), or a data URI. Omit REF to clear the avatar.

Run it again with the same REF after replacing the image file so the
timeline picks up the new picture.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ref := ""
			if len(args) == 2 {
				ref = args[1]
			}
			ctx := cmd.Context()
			return withBook(ctx, func(d *Deps, bookID string) error {
				id, err := resolveCharacter(ctx, d.StoryHandler, bookID, args[0])
				if err != nil {
					return err
				}
				c, err := d.StoryHandler.HandleSetAvatar(ctx, id, ref)
				if err != nil {
					return fmt.Errorf("setting avatar: %w", err)
				}
				if c.Avatar == "" {
					fmt.Printf("Cleared avatar of %s\n", c.DisplayName())
					return nil
				}
				fmt.Printf("Avatar of %s: %s\n", c.DisplayName(), c.Avatar)
				return nil
			})
		},
	}
}

func newCharactersRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove CHARACTER",
		Short: "Remove a character and its relationships",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			return withBook(ctx, func(d *Deps, bookID string) error {
				id, err := resolveCharacter(ctx, d.StoryHandler, bookID, args[0])
				if err != nil {
					return err
				}
				if err := d.StoryHandler.HandleRemoveCharacter(ctx, id); err != nil {
					return fmt.Errorf("removing character: %w", err)
				}
				fmt.Printf("Removed character: %s\n", id)
				return nil
			})
		},
	}
}

// resolveCharacter accepts a character id or a case-insensitive display or
// first name within the book.
func resolveCharacter(ctx context.Context, story *handlers.StoryHandler, bookID, ref string) (string, error) {
	chars, err := story.HandleListCharacters(ctx, bookID)
	if err != nil {
		return "", fmt.Errorf("listing characters: %w", err)
	}
	return matchCharacter(chars, ref)
}

func matchCharacter(chars []entities.Character, ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", errors.New("character is required")
	}

	var matches []string
	for i := range chars {
		c := &chars[i]
		if c.ID == ref {
			return c.ID, nil
		}
		if strings.EqualFold(c.DisplayName(), ref) || strings.EqualFold(c.FirstName, ref) {
			matches = append(matches, c.ID)
		}
	}

	switch len(matches) {
	case 0:
		return "", fmt.Errorf("character %q not found", ref)
	case 1:
		return matches[0], nil
	default:
		return "", fmt.Errorf("character %q is ambiguous (%d matches, use the id)", ref, len(matches))
	}
}

// parseKeyValues parses KEY=VALUE arguments. Values may be empty.
func parseKeyValues(args []string) (map[string]string, error) {
	out := make(map[string]string, len(args))
	for _, arg := range args {
		key, value, ok := strings.Cut(arg, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid attribute %q (expected KEY=VALUE)", arg)
		}
		out[key] = value
	}
	return out, nil
}
