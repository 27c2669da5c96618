package entities

import (
	"sort"
	"strings"
	"time"
)

// Gender is the optional gender of a character.
type Gender string

const (
	GenderMale    Gender = "male"
	GenderFemale  Gender = "female"
	GenderUnicorn Gender = "unicorn"
	GenderNone    Gender = "none"
)

// ParseGender returns nil for blank or unrecognised input.
func ParseGender(s string) *Gender {
	g := Gender(strings.ToLower(strings.TrimSpace(s)))
	switch g {
	case GenderMale, GenderFemale, GenderUnicorn, GenderNone:
		return &g
	default:
		return nil
	}
}

// Role is the narrative role of a character.
type Role string

const (
	RoleProtagonist Role = "protagonist"
	RoleSupporting  Role = "supporting"
	RoleAntagonist  Role = "antagonist"
	RoleMarginal    Role = "marginal"
	RoleUnsorted    Role = "unsorted"
)

// RoleOrder is the fixed display priority of role buckets.
var RoleOrder = []Role{RoleProtagonist, RoleSupporting, RoleAntagonist, RoleMarginal, RoleUnsorted}

// Normalize maps empty and unknown roles onto RoleUnsorted.
func (r Role) Normalize() Role {
	role := Role(strings.ToLower(strings.TrimSpace(string(r))))
	for _, known := range RoleOrder {
		if role == known {
			return role
		}
	}
	return RoleUnsorted
}

// Attribute keys with meaning to the timeline.
const (
	AttrBirthDate   = "birthDate"
	AttrDeathDate   = "deathDate"
	AttrDescription = "description"
)

// Character is a person (or creature) in a book.
type Character struct {
	ID         string         `json:"id"`
	BookID     string         `json:"book_id"`
	FirstName  string         `json:"first_name"`
	LastName   string         `json:"last_name"`
	Gender     *Gender        `json:"gender,omitempty"`
	Role       Role           `json:"role"`
	Avatar     string         `json:"avatar,omitempty"`
	Attributes map[string]any `json:"attributes,omitempty"`
	Groups     []string       `json:"groups,omitempty"`
	Position   int            `json:"position"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
}

// DisplayName joins the non-empty name parts.
func (c *Character) DisplayName() string {
	return strings.TrimSpace(strings.TrimSpace(c.FirstName) + " " + strings.TrimSpace(c.LastName))
}

// Description returns the free-text description attribute, if it is a string.
func (c *Character) Description() string {
	if c.Attributes == nil {
		return ""
	}
	s, _ := c.Attributes[AttrDescription].(string)
	return strings.TrimSpace(s)
}

// Summary projects the character for relationship listings.
func (c *Character) Summary() *RelatedCharacter {
	return &RelatedCharacter{
		ID:        c.ID,
		FirstName: c.FirstName,
		LastName:  c.LastName,
		Avatar:    c.Avatar,
		Gender:    c.Gender,
	}
}

// SortCharacters orders characters by position, then creation time, then id.
func SortCharacters(chars []Character) {
	sort.SliceStable(chars, func(i, j int) bool {
		a, b := chars[i], chars[j]
		if a.Position != b.Position {
			return a.Position < b.Position
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.ID < b.ID
	})
}
