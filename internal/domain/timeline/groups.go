package timeline

import (
	"time"

	"github.com/ersonp/lore-chronicle/internal/domain/entities"
)

var roleLabels = map[entities.Role]string{
	entities.RoleProtagonist: "Protagonists",
	entities.RoleSupporting:  "Supporting",
	entities.RoleAntagonist:  "Antagonists",
	entities.RoleMarginal:    "Marginal",
	entities.RoleUnsorted:    "Unsorted",
}

// buildSceneGroups places every dated scene according to layout. Groups are
// only emitted when they end up holding at least one item.
func buildSceneGroups(chapters []entities.Chapter, scenes []entities.Scene, layout LayoutMode, loc *time.Location) ([]Group, []Item) {
	sortedChapters := make([]entities.Chapter, len(chapters))
	copy(sortedChapters, chapters)
	entities.SortChapters(sortedChapters)

	sortedScenes := make([]entities.Scene, len(scenes))
	copy(sortedScenes, scenes)
	entities.SortScenes(sortedScenes)

	byChapter := make(map[string][]entities.Scene, len(sortedChapters))
	for _, s := range sortedScenes {
		byChapter[s.ChapterID] = append(byChapter[s.ChapterID], s)
	}

	if layout == LayoutConnected {
		return connectedScenes(sortedChapters, sortedScenes, byChapter, loc)
	}
	return separateScenes(sortedChapters, byChapter, loc)
}

func separateScenes(chapters []entities.Chapter, byChapter map[string][]entities.Scene, loc *time.Location) ([]Group, []Item) {
	umbrella := Group{ID: GroupBookTimeline, Content: "Book Timeline", Order: 0}
	var nested []Group
	var items []Item

	for i, ch := range chapters {
		chapterID := "chapter-" + ch.ID
		scenesID := chapterID + "-scenes"

		count := 0
		for _, s := range byChapter[ch.ID] {
			if item, ok := sceneItem(s, scenesID, s.Name, loc); ok {
				items = append(items, item)
				count++
			}
		}
		if count == 0 {
			continue
		}

		umbrella.NestedGroups = append(umbrella.NestedGroups, chapterID)
		nested = append(nested,
			Group{ID: chapterID, Content: ch.Name, NestedGroups: []string{scenesID}, Order: i},
			Group{ID: scenesID, Content: "Scenes", Order: 0},
		)
	}

	if len(umbrella.NestedGroups) == 0 {
		return nil, nil
	}
	return append([]Group{umbrella}, nested...), items
}

func connectedScenes(chapters []entities.Chapter, scenes []entities.Scene, byChapter map[string][]entities.Scene, loc *time.Location) ([]Group, []Item) {
	var items []Item
	known := make(map[string]bool, len(chapters))

	for _, ch := range chapters {
		known[ch.ID] = true
		for _, s := range byChapter[ch.ID] {
			if item, ok := sceneItem(s, GroupBookTimeline, ch.Name+": "+s.Name, loc); ok {
				items = append(items, item)
			}
		}
	}
	// Scenes whose chapter was not supplied still belong to the book.
	for _, s := range scenes {
		if known[s.ChapterID] {
			continue
		}
		if item, ok := sceneItem(s, GroupBookTimeline, s.Name, loc); ok {
			items = append(items, item)
		}
	}

	if len(items) == 0 {
		return nil, nil
	}
	return []Group{{ID: GroupBookTimeline, Content: "Book Timeline", Order: 0}}, items
}

// sceneItem emits a range when both dates are usable, a point when only one
// is, and nothing otherwise.
func sceneItem(s entities.Scene, groupID, content string, loc *time.Location) (Item, bool) {
	start, hasStart := ParseDate(s.StartDate, loc)
	end, hasEnd := ParseDate(s.EndDate, loc)

	item := Item{
		ID:      "scene-" + s.ID,
		Group:   groupID,
		Title:   KindScene,
		Content: content,
		Detail:  s.Status,
	}

	switch {
	case hasStart && hasEnd:
		if end.Before(start) {
			start, end = end, start
		}
		rangeEnd := EndOfDay(end)
		item.Type = ItemRange
		item.Start = StartOfDay(start)
		item.End = &rangeEnd
	case hasStart:
		item.Type = ItemPoint
		item.Start = StartOfDay(start)
	case hasEnd:
		item.Type = ItemPoint
		item.Start = StartOfDay(end)
	default:
		return Item{}, false
	}
	return item, true
}

// buildCharacterGroups nests one leaf per character under its role bucket.
// chars must already be in display order.
func buildCharacterGroups(chars []entities.Character, avatars map[string]string) []Group {
	if len(chars) == 0 {
		return nil
	}

	buckets := make(map[entities.Role][]entities.Character, len(entities.RoleOrder))
	for _, c := range chars {
		role := c.Role.Normalize()
		buckets[role] = append(buckets[role], c)
	}

	umbrella := Group{ID: GroupCharacters, Content: "Characters", Order: 1}
	var nested []Group

	for i, role := range entities.RoleOrder {
		members := buckets[role]
		if len(members) == 0 {
			continue
		}

		roleID := "role-" + string(role)
		umbrella.NestedGroups = append(umbrella.NestedGroups, roleID)

		roleGroup := Group{ID: roleID, Content: roleLabels[role], Order: i}
		leaves := make([]Group, 0, len(members))
		for j, c := range members {
			leafID := CharacterGroupID(c.ID)
			roleGroup.NestedGroups = append(roleGroup.NestedGroups, leafID)

			name := c.DisplayName()
			if name == "" {
				name = "Unnamed"
			}
			leaves = append(leaves, Group{ID: leafID, Content: name, Order: j, Avatar: avatars[c.ID]})
		}
		nested = append(nested, roleGroup)
		nested = append(nested, leaves...)
	}

	return append([]Group{umbrella}, nested...)
}
