package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ersonp/lore-chronicle/internal/application/handlers"
)

func newChaptersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chapters",
		Short: "Manage the chapters of a book",
		RunE:  runOutline,
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List chapters with their scenes",
			RunE:  runOutline,
		},
		&cobra.Command{
			Use:   "add NAME",
			Short: "Append a chapter",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				ctx := cmd.Context()
				return withBook(ctx, func(d *Deps, bookID string) error {
					ch, err := d.StoryHandler.HandleAddChapter(ctx, bookID, args[0])
					if err != nil {
						return fmt.Errorf("adding chapter: %w", err)
					}
					fmt.Printf("Added chapter %d: %s (%s)\n", ch.Position+1, ch.Name, ch.ID)
					return nil
				})
			},
		},
	)

	return cmd
}

func newScenesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scenes",
		Short: "Manage the scenes of a book",
		RunE:  runOutline,
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List scenes grouped by chapter",
			RunE:  runOutline,
		},
		newScenesAddCmd(),
	)

	return cmd
}

func newScenesAddCmd() *cobra.Command {
	var in handlers.SceneInput

	cmd := &cobra.Command{
		Use:   "add CHAPTER NAME",
		Short: "Append a scene to a chapter",
		Long: `Appends a scene to a chapter. CHAPTER is a chapter id, name or 1-based number.

Examples:
  chronicle scenes add 1 "The Wedding" --start 2015-06-06
  chronicle scenes add "Part Two" "The Long Road" --start 2016-01-01 --end 2016-03-01`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			in.Name = args[1]
			ctx := cmd.Context()
			return withBook(ctx, func(d *Deps, bookID string) error {
				chapterID, err := resolveChapter(ctx, d.StoryHandler, bookID, args[0])
				if err != nil {
					return err
				}
				scene, err := d.StoryHandler.HandleAddScene(ctx, chapterID, in)
				if err != nil {
					return fmt.Errorf("adding scene: %w", err)
				}
				fmt.Printf("Added scene: %s (%s)\n", scene.Name, scene.ID)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&in.StartDate, "start", "", "Start date")
	cmd.Flags().StringVar(&in.EndDate, "end", "", "End date")
	cmd.Flags().StringVar(&in.Content, "content", "", "Scene text")
	cmd.Flags().StringVar(&in.Status, "status", "", "Writing status")

	return cmd
}

func runOutline(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	return withBook(ctx, func(d *Deps, bookID string) error {
		outline, err := d.StoryHandler.HandleOutline(ctx, bookID)
		if err != nil {
			return err
		}
		if len(outline) == 0 {
			fmt.Println("No chapters yet.")
			return nil
		}
		printOutline(outline)
		return nil
	})
}

func printOutline(outline []handlers.ChapterOutline) {
	for i, ch := range outline {
		fmt.Printf("%d. %s\n", i+1, ch.Chapter.Name)
		for _, s := range ch.Scenes {
			dates := ""
			switch {
			case s.StartDate != nil && s.EndDate != nil:
				dates = fmt.Sprintf(" [%s .. %s]", *s.StartDate, *s.EndDate)
			case s.StartDate != nil:
				dates = fmt.Sprintf(" [%s]", *s.StartDate)
			case s.EndDate != nil:
				dates = fmt.Sprintf(" [.. %s]", *s.EndDate)
			}
			fmt.Printf("   - %s%s\n", s.Name, dates)
		}
	}
}

func resolveChapter(ctx context.Context, story *handlers.StoryHandler, bookID, ref string) (string, error) {
	outline, err := story.HandleOutline(ctx, bookID)
	if err != nil {
		return "", err
	}
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", errors.New("chapter is required")
	}

	var n int
	if _, err := fmt.Sscanf(ref, "%d", &n); err == nil && fmt.Sprint(n) == ref {
		if n < 1 || n > len(outline) {
			return "", fmt.Errorf("chapter %d out of range (1-%d)", n, len(outline))
		}
		return outline[n-1].Chapter.ID, nil
	}
	for _, ch := range outline {
		if ch.Chapter.ID == ref || strings.EqualFold(ch.Chapter.Name, ref) {
			return ch.Chapter.ID, nil
		}
	}
	return "", fmt.Errorf("chapter %q not found", ref)
}
