package timeline

import (
	"sort"
	"strings"
	"time"

	"github.com/ersonp/lore-chronicle/internal/domain/entities"
)

// Relationship metadata keys read by the timeline.
const (
	MetaMarriageDate   = "marriageDate"
	MetaEngagementDate = "engagementDate"
)

// synthesizeEvents derives biographical events from character attributes and
// relationship metadata. chars must already be in display order.
func synthesizeEvents(chars []entities.Character, rels map[string][]entities.Relationship, loc *time.Location) []Item {
	byID := make(map[string]*entities.Character, len(chars))
	for i := range chars {
		byID[chars[i].ID] = &chars[i]
	}

	var items []Item
	for i := range chars {
		items = append(items, lifeEvents(&chars[i], loc)...)
	}
	items = append(items, partnerEvents(chars, rels, byID, entities.RelationSpouse, MetaMarriageDate, KindMarriage, "Married ", loc)...)
	items = append(items, partnerEvents(chars, rels, byID, entities.RelationEngaged, MetaEngagementDate, KindEngagement, "Engaged to ", loc)...)
	items = append(items, parentEvents(chars, rels, byID, loc)...)
	return items
}

func lifeEvents(c *entities.Character, loc *time.Location) []Item {
	var items []Item
	group := CharacterGroupID(c.ID)

	if birth, ok := ParseDate(c.Attributes[entities.AttrBirthDate], loc); ok {
		items = append(items, Item{
			ID:      "birth-" + c.ID,
			Group:   group,
			Type:    ItemPoint,
			Title:   KindBirth,
			Content: "Birth: " + c.DisplayName(),
			Detail:  c.Description(),
			Start:   StartOfDay(birth),
		})
	}
	if death, ok := ParseDate(c.Attributes[entities.AttrDeathDate], loc); ok {
		items = append(items, Item{
			ID:      "death-" + c.ID,
			Group:   group,
			Type:    ItemPoint,
			Title:   KindDeath,
			Content: "Death: " + c.DisplayName(),
			Detail:  c.Description(),
			Start:   StartOfDay(death),
		})
	}
	return items
}

// partnerEvents emits one item on each partner's group per dated pair. A pair
// is emitted once no matter how many of its edges carry the date.
func partnerEvents(
	chars []entities.Character,
	rels map[string][]entities.Relationship,
	byID map[string]*entities.Character,
	relType entities.RelationType,
	dateKey string,
	kind Kind,
	prefix string,
	loc *time.Location,
) []Item {
	var items []Item
	emitted := make(map[string]bool)

	for i := range chars {
		c := &chars[i]
		for _, rel := range sortedEdges(rels[c.ID]) {
			if rel.Type != relType {
				continue
			}
			other, ok := byID[rel.RelatedCharacterID]
			if !ok || other.ID == c.ID {
				continue
			}
			key := entities.PairKey(c.ID, other.ID)
			if emitted[key] {
				continue
			}
			date, ok := ParseDate(rel.Metadata[dateKey], loc)
			if !ok {
				continue
			}
			emitted[key] = true

			day := StartOfDay(date)
			items = append(items,
				partnerItem(kind, prefix, c, other, day),
				partnerItem(kind, prefix, other, c, day),
			)
		}
	}
	return items
}

func partnerItem(kind Kind, prefix string, owner, other *entities.Character, day time.Time) Item {
	return Item{
		ID:      string(kind) + "-" + owner.ID + "-" + other.ID,
		Group:   CharacterGroupID(owner.ID),
		Type:    ItemPoint,
		Title:   kind,
		Content: prefix + other.DisplayName(),
		Start:   day,
	}
}

type birthKey struct {
	parentID string
	day      string
}

// parentEvents emits child-birth items on the parent's group. Children of the
// same parent born on the same day share a single item.
func parentEvents(
	chars []entities.Character,
	rels map[string][]entities.Relationship,
	byID map[string]*entities.Character,
	loc *time.Location,
) []Item {
	rank := make(map[string]int, len(chars))
	births := make(map[string]time.Time, len(chars))
	for i := range chars {
		rank[chars[i].ID] = i
		if birth, ok := ParseDate(chars[i].Attributes[entities.AttrBirthDate], loc); ok {
			births[chars[i].ID] = StartOfDay(birth)
		}
	}

	buckets := make(map[birthKey][]*entities.Character)
	var order []birthKey
	seen := make(map[string]bool)

	add := func(childID, parentID string) {
		if childID == parentID {
			return
		}
		child, ok := byID[childID]
		if !ok {
			return
		}
		if _, ok := byID[parentID]; !ok {
			return
		}
		birth, ok := births[childID]
		if !ok {
			return
		}
		pair := childID + ">" + parentID
		if seen[pair] {
			return
		}
		seen[pair] = true

		key := birthKey{parentID: parentID, day: dayKey(birth)}
		if _, exists := buckets[key]; !exists {
			order = append(order, key)
		}
		buckets[key] = append(buckets[key], child)
	}

	for i := range chars {
		c := &chars[i]
		for _, rel := range sortedEdges(rels[c.ID]) {
			switch rel.Type {
			case entities.RelationParent:
				add(c.ID, rel.RelatedCharacterID)
			case entities.RelationChild:
				add(rel.RelatedCharacterID, c.ID)
			}
		}
	}

	items := make([]Item, 0, len(order))
	for _, key := range order {
		children := buckets[key]
		sort.SliceStable(children, func(i, j int) bool {
			return rank[children[i].ID] < rank[children[j].ID]
		})
		day := births[children[0].ID]
		group := CharacterGroupID(key.parentID)

		if len(children) == 1 {
			child := children[0]
			items = append(items, Item{
				ID:      "child-born-" + key.parentID + "-" + child.ID,
				Group:   group,
				Type:    ItemPoint,
				Title:   KindChildBorn,
				Content: "Child born: " + child.DisplayName(),
				Detail:  child.Description(),
				Start:   day,
			})
			continue
		}

		names := make([]string, len(children))
		for i, child := range children {
			names[i] = child.DisplayName()
		}
		items = append(items, Item{
			ID:      "children-born-" + key.parentID + "-" + key.day,
			Group:   group,
			Type:    ItemPoint,
			Title:   KindChildrenBorn,
			Content: "Children born: " + strings.Join(names, ", "),
			Start:   day,
		})
	}
	return items
}

// sortedEdges returns a copy ordered by related character then id.
func sortedEdges(edges []entities.Relationship) []entities.Relationship {
	out := make([]entities.Relationship, len(edges))
	copy(out, edges)
	sort.Slice(out, func(i, j int) bool {
		if out[i].RelatedCharacterID != out[j].RelatedCharacterID {
			return out[i].RelatedCharacterID < out[j].RelatedCharacterID
		}
		return out[i].ID < out[j].ID
	})
	return out
}
