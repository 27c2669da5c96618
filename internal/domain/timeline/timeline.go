// Package timeline derives display groups and dated events for a book from
// its chapters, scenes, characters and relationship graph.
//
// Derive is pure: it performs no I/O, reads no clock and never fails. Bad or
// missing dates only remove the affected event from the output.
package timeline

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/ersonp/lore-chronicle/internal/domain/entities"
)

// LayoutMode selects how scenes are grouped.
type LayoutMode string

const (
	// LayoutSeparate nests scenes under one group per chapter.
	LayoutSeparate LayoutMode = "separate"
	// LayoutConnected flattens every scene of the book into one group.
	LayoutConnected LayoutMode = "connected"
)

// ErrInvalidLayout is returned by ParseLayout for unknown layout names.
var ErrInvalidLayout = errors.New("invalid layout")

// ParseLayout validates a layout name. Empty input selects LayoutSeparate.
func ParseLayout(s string) (LayoutMode, error) {
	switch LayoutMode(strings.ToLower(strings.TrimSpace(s))) {
	case "", LayoutSeparate:
		return LayoutSeparate, nil
	case LayoutConnected:
		return LayoutConnected, nil
	default:
		return "", fmt.Errorf("%w: %s (valid: separate, connected)", ErrInvalidLayout, s)
	}
}

// ItemType distinguishes instants from spans.
type ItemType string

const (
	ItemPoint ItemType = "point"
	ItemRange ItemType = "range"
)

// Kind classifies an item for consumers that style or filter events.
type Kind string

const (
	KindScene        Kind = "scene"
	KindBirth        Kind = "birth"
	KindDeath        Kind = "death"
	KindMarriage     Kind = "marriage"
	KindEngagement   Kind = "engagement"
	KindChildBorn    Kind = "child_born"
	KindChildrenBorn Kind = "children_born"
)

// Item is one event on the timeline.
type Item struct {
	ID      string     `json:"id"`
	Group   string     `json:"group"`
	Type    ItemType   `json:"type"`
	Title   Kind       `json:"title"`
	Content string     `json:"content"`
	Detail  string     `json:"detail,omitempty"`
	Start   time.Time  `json:"start"`
	End     *time.Time `json:"end,omitempty"`
}

// Group is a node of the display hierarchy. Children are referenced by id.
type Group struct {
	ID           string   `json:"id"`
	Content      string   `json:"content"`
	NestedGroups []string `json:"nestedGroups,omitempty"`
	Order        int      `json:"order"`
	Avatar       string   `json:"avatar,omitempty"`
}

// Timeline is the full derived output.
type Timeline struct {
	Items  []Item  `json:"items"`
	Groups []Group `json:"groups"`
}

// Input carries everything Derive needs, fully materialized by the caller.
type Input struct {
	Chapters   []entities.Chapter
	Scenes     []entities.Scene
	Characters []entities.Character
	// Relationships holds outgoing edges keyed by owning character id.
	Relationships map[string][]entities.Relationship
	// Avatars holds base64 image data keyed by character id.
	Avatars map[string]string
	Layout  LayoutMode
	// Location used for day boundaries. Defaults to time.Local.
	Location *time.Location
}

// Well-known group ids.
const (
	GroupBookTimeline = "book-timeline"
	GroupCharacters   = "characters"
)

// CharacterGroupID returns the id of a character's leaf group.
func CharacterGroupID(characterID string) string {
	return "character-" + characterID
}

// Derive computes the timeline for one book.
func Derive(in Input) Timeline {
	loc := in.Location
	if loc == nil {
		loc = time.Local
	}

	chars := make([]entities.Character, len(in.Characters))
	copy(chars, in.Characters)
	entities.SortCharacters(chars)

	sceneGroups, items := buildSceneGroups(in.Chapters, in.Scenes, in.Layout, loc)
	groups := append(sceneGroups, buildCharacterGroups(chars, in.Avatars)...)

	items = append(items, synthesizeEvents(chars, in.Relationships, loc)...)
	sort.SliceStable(items, func(i, j int) bool {
		if !items[i].Start.Equal(items[j].Start) {
			return items[i].Start.Before(items[j].Start)
		}
		return items[i].ID < items[j].ID
	})

	if items == nil {
		items = []Item{}
	}
	if groups == nil {
		groups = []Group{}
	}
	return Timeline{Items: items, Groups: groups}
}
