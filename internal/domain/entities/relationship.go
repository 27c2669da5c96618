package entities

import (
	"strings"
	"time"
)

// RelationType is the canonical, gender-neutral kind of a relationship edge.
type RelationType string

const (
	RelationParent     RelationType = "parent"
	RelationChild      RelationType = "child"
	RelationSibling    RelationType = "sibling"
	RelationSpouse     RelationType = "spouse"
	RelationEngaged    RelationType = "engaged"
	RelationFriend     RelationType = "friend"
	RelationEnemy      RelationType = "enemy"
	RelationMentor     RelationType = "mentor"
	RelationApprentice RelationType = "apprentice"
)

// CanonicalRelationTypes lists the fixed storage vocabulary.
var CanonicalRelationTypes = []RelationType{
	RelationParent, RelationChild, RelationSibling, RelationSpouse, RelationEngaged,
	RelationFriend, RelationEnemy, RelationMentor, RelationApprentice,
}

// canonicalLabels maps colloquial and gendered labels onto canonical types.
var canonicalLabels = map[string]RelationType{
	"father":   RelationParent,
	"mother":   RelationParent,
	"parent":   RelationParent,
	"son":      RelationChild,
	"daughter": RelationChild,
	"child":    RelationChild,
	"brother":  RelationSibling,
	"sister":   RelationSibling,
	"sibling":  RelationSibling,
	"husband":  RelationSpouse,
	"wife":     RelationSpouse,
	"spouse":   RelationSpouse,
	"fiance":   RelationEngaged,
	"fiancé":   RelationEngaged,
	"fiancee":  RelationEngaged,
	"fiancée":  RelationEngaged,
	"engaged":  RelationEngaged,
}

// reciprocals maps a canonical type to the type of its reverse edge.
// Types missing from the table are their own reciprocal.
var reciprocals = map[RelationType]RelationType{
	RelationParent:     RelationChild,
	RelationChild:      RelationParent,
	RelationSibling:    RelationSibling,
	RelationSpouse:     RelationSpouse,
	RelationEngaged:    RelationEngaged,
	RelationFriend:     RelationFriend,
	RelationEnemy:      RelationEnemy,
	RelationMentor:     RelationApprentice,
	RelationApprentice: RelationMentor,
}

// Canonicalize converts a raw relationship label into its canonical type.
// Labels not in the table pass through trimmed and lowercased, so the
// function is idempotent.
func Canonicalize(raw string) RelationType {
	label := strings.ToLower(strings.TrimSpace(raw))
	if t, ok := canonicalLabels[label]; ok {
		return t
	}
	return RelationType(label)
}

// Reciprocal returns the type stored on the reverse edge of t.
func Reciprocal(t RelationType) RelationType {
	if r, ok := reciprocals[t]; ok {
		return r
	}
	return t
}

// IsCanonical reports whether t is part of the fixed storage vocabulary.
func (t RelationType) IsCanonical() bool {
	for _, c := range CanonicalRelationTypes {
		if c == t {
			return true
		}
	}
	return false
}

// Relationship is a directed edge between two characters of the same book.
// The edge type describes what the related character is to the owning
// character: {CharacterID: alice, RelatedCharacterID: bob, Type: parent}
// reads "bob is alice's parent".
type Relationship struct {
	ID                 string         `json:"id"`
	BookID             string         `json:"book_id"`
	CharacterID        string         `json:"character_id"`
	RelatedCharacterID string         `json:"related_character_id"`
	Type               RelationType   `json:"relationship_type"`
	Metadata           map[string]any `json:"metadata,omitempty"`
	CreatedAt          time.Time      `json:"created_at"`
	UpdatedAt          time.Time      `json:"updated_at"`
}

// IsReverseOf reports whether r connects the same two characters as other in
// the opposite direction.
func (r *Relationship) IsReverseOf(other *Relationship) bool {
	return r.CharacterID == other.RelatedCharacterID && r.RelatedCharacterID == other.CharacterID
}

// RelatedCharacter is the display projection of the far end of an edge.
type RelatedCharacter struct {
	ID        string  `json:"id"`
	FirstName string  `json:"first_name"`
	LastName  string  `json:"last_name"`
	Avatar    string  `json:"avatar,omitempty"`
	Gender    *Gender `json:"gender,omitempty"`
}

// RelationshipView is an outgoing edge joined with its related character.
type RelationshipView struct {
	Relationship Relationship      `json:"relationship"`
	Related      *RelatedCharacter `json:"related_character,omitempty"`
}

// PairKey returns an order-independent key for two character ids.
func PairKey(a, b string) string {
	if a > b {
		a, b = b, a
	}
	return a + "|" + b
}

// CopyMetadata returns a shallow copy so forward and reverse edges never
// share the same map.
func CopyMetadata(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
