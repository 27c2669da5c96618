package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ersonp/lore-chronicle/internal/application/handlers"
	"github.com/ersonp/lore-chronicle/internal/domain/timeline"
)

type timelineFlags struct {
	layout string
	format string
}

func newTimelineCmd() *cobra.Command {
	var flags timelineFlags

	cmd := &cobra.Command{
		Use:   "timeline",
		Short: "Show the derived timeline of a book",
		Long: `Derives the book timeline: scenes placed by their dates, grouped by
chapter, plus births, deaths, marriages, engagements and child births for
every character grouped by role.

Examples:
  chronicle timeline
  chronicle timeline --layout connected
  chronicle timeline --format json > timeline.json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTimeline(cmd, flags)
		},
	}

	cmd.Flags().StringVar(&flags.layout, "layout", "", "Scene layout: separate, connected (default from config)")
	cmd.Flags().StringVar(&flags.format, "format", formatTree, "Output format: tree, json")

	return cmd
}

func runTimeline(cmd *cobra.Command, flags timelineFlags) error {
	ctx := cmd.Context()

	if !slices.Contains(timelineFormats, flags.format) {
		return fmt.Errorf("invalid format: %s (valid: %s)", flags.format, strings.Join(timelineFormats, ", "))
	}

	return withBook(ctx, func(d *Deps, bookID string) error {
		result, err := d.TimelineHandler.HandleGet(ctx, bookID, flags.layout)
		if err != nil {
			return err
		}

		if flags.format == formatJSON {
			data, err := json.MarshalIndent(result, "", "  ")
			if err != nil {
				return fmt.Errorf("marshaling JSON: %w", err)
			}
			fmt.Println(string(data))
			return nil
		}

		if len(result.Items) == 0 {
			fmt.Println("Nothing dated yet.")
			return nil
		}
		printTimelineTree(os.Stdout, result)
		return nil
	})
}

// printTimelineTree prints the group hierarchy with each group's items in
// chronological order.
func printTimelineTree(w io.Writer, result *handlers.TimelineResult) {
	groups := make(map[string]timeline.Group, len(result.Groups))
	nested := make(map[string]bool)
	for _, g := range result.Groups {
		groups[g.ID] = g
		for _, child := range g.NestedGroups {
			nested[child] = true
		}
	}

	items := make(map[string][]timeline.Item)
	for _, item := range result.Items {
		items[item.Group] = append(items[item.Group], item)
	}

	var walk func(id string, depth int)
	walk = func(id string, depth int) {
		g, ok := groups[id]
		if !ok {
			return
		}
		indent := strings.Repeat("  ", depth)
		fmt.Fprintf(w, "%s%s\n", indent, g.Content)
		for _, item := range items[id] {
			fmt.Fprintf(w, "%s  - %s  %s\n", indent, itemDates(item), item.Content)
		}
		for _, child := range g.NestedGroups {
			walk(child, depth+1)
		}
	}

	for _, g := range result.Groups {
		if !nested[g.ID] {
			walk(g.ID, 0)
		}
	}
}

func itemDates(item timeline.Item) string {
	start := item.Start.Format(dateLayout)
	if item.End == nil {
		return start
	}
	return start + " .. " + item.End.Format(dateLayout)
}
