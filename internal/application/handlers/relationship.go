package handlers

import (
	"context"
	"fmt"
	"sort"

	"github.com/ersonp/lore-chronicle/internal/domain/entities"
	"github.com/ersonp/lore-chronicle/internal/domain/services"
	"github.com/ersonp/lore-chronicle/internal/infrastructure/parsers"
)

// RelationshipHandler handles relationship operations.
type RelationshipHandler struct {
	service *services.RelationshipService
}

// NewRelationshipHandler creates a new RelationshipHandler.
func NewRelationshipHandler(service *services.RelationshipService) *RelationshipHandler {
	return &RelationshipHandler{service: service}
}

// ListOptions configures relationship listing behavior.
type ListOptions struct {
	Type string // Filter by canonical or colloquial type (empty = all)
}

// RelationshipInfo is an edge as presented to users.
type RelationshipInfo struct {
	Relationship entities.Relationship      `json:"relationship"`
	Related      *entities.RelatedCharacter `json:"related_character,omitempty"`
	Label        string                     `json:"label"`
}

// ListResult contains the result of listing relationships.
type ListResult struct {
	CharacterID   string             `json:"character_id"`
	Relationships []RelationshipInfo `json:"relationships"`
}

// HandleCreate creates a relationship and its reciprocal.
func (h *RelationshipHandler) HandleCreate(
	ctx context.Context,
	characterID string,
	relType string,
	relatedID string,
	metadata map[string]any,
) (*entities.Relationship, error) {
	return h.service.Add(ctx, characterID, relatedID, relType, metadata)
}

// HandleUpdate changes the type and/or metadata of a relationship.
func (h *RelationshipHandler) HandleUpdate(ctx context.Context, id string, relType *string, metadata map[string]any) (*entities.Relationship, error) {
	return h.service.Update(ctx, id, services.RelationshipUpdate{Type: relType, Metadata: metadata})
}

// HandleDelete removes a relationship and its reciprocal.
func (h *RelationshipHandler) HandleDelete(ctx context.Context, id string) (*services.RemoveResult, error) {
	return h.service.Remove(ctx, id)
}

// HandleList returns the relationships of a character with display labels.
func (h *RelationshipHandler) HandleList(ctx context.Context, characterID string, opts ListOptions) (*ListResult, error) {
	views, err := h.service.List(ctx, characterID)
	if err != nil {
		return nil, fmt.Errorf("listing relationships: %w", err)
	}

	var filter entities.RelationType
	if opts.Type != "" {
		filter = entities.Canonicalize(opts.Type)
	}

	result := &ListResult{
		CharacterID:   characterID,
		Relationships: make([]RelationshipInfo, 0, len(views)),
	}
	for i := range views {
		v := views[i]
		if filter != "" && v.Relationship.Type != filter {
			continue
		}
		var gender *entities.Gender
		if v.Related != nil {
			gender = v.Related.Gender
		}
		result.Relationships = append(result.Relationships, RelationshipInfo{
			Relationship: v.Relationship,
			Related:      v.Related,
			Label:        DisplayLabel(v.Relationship.Type, gender),
		})
	}
	return result, nil
}

// ExportedRelationship is one relationship pair in import format. Names are
// carried for human-readable output only.
type ExportedRelationship struct {
	parsers.RawRelationship
	CharacterName string `json:"-"`
	RelatedName   string `json:"-"`
}

// HandleExport returns one row per relationship pair of a book, ordered by
// owning character. The reverse edge of a pair is implied and left out, so
// the rows can be imported again unchanged.
func (h *RelationshipHandler) HandleExport(ctx context.Context, bookID string, chars []entities.Character) ([]ExportedRelationship, error) {
	byCharacter, err := h.service.ListByBook(ctx, bookID)
	if err != nil {
		return nil, err
	}

	names := make(map[string]string, len(chars))
	for i := range chars {
		names[chars[i].ID] = chars[i].DisplayName()
	}

	ownerIDs := make([]string, 0, len(byCharacter))
	for id := range byCharacter {
		ownerIDs = append(ownerIDs, id)
	}
	sort.Strings(ownerIDs)

	seen := make(map[string]bool)
	rows := make([]ExportedRelationship, 0)
	for _, owner := range ownerIDs {
		for _, rel := range byCharacter[owner] {
			key := entities.PairKey(rel.CharacterID, rel.RelatedCharacterID)
			if seen[key] {
				continue
			}
			seen[key] = true
			rows = append(rows, ExportedRelationship{
				RawRelationship: parsers.RawRelationship{
					Character: rel.CharacterID,
					Type:      string(rel.Type),
					Related:   rel.RelatedCharacterID,
					Metadata:  entities.CopyMetadata(rel.Metadata),
				},
				CharacterName: names[rel.CharacterID],
				RelatedName:   names[rel.RelatedCharacterID],
			})
		}
	}
	return rows, nil
}
