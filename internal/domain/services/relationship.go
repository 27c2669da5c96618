package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ersonp/lore-chronicle/internal/domain/entities"
	"github.com/ersonp/lore-chronicle/internal/domain/ports"
)

var timeNow = time.Now

// RelationshipUpdate holds the optional fields of an edge update.
type RelationshipUpdate struct {
	Type     *string
	Metadata map[string]any
}

// RemoveResult reports what Remove deleted.
type RemoveResult struct {
	Deleted bool     `json:"deleted"`
	Removed []string `json:"removed,omitempty"`
}

// RelationshipService manages the directed relationship graph between
// characters. Every edge A->B is kept paired with a reverse edge B->A
// carrying the reciprocal type and the same metadata.
type RelationshipService struct {
	notifier

	db     ports.RelationalDB
	logger *zap.Logger
	pairs  keyedMutex
}

// NewRelationshipService creates a new RelationshipService.
func NewRelationshipService(db ports.RelationalDB, logger *zap.Logger) *RelationshipService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RelationshipService{
		db:     db,
		logger: logger.Named("relationships"),
	}
}

// Add creates the edge characterID -> relatedCharacterID and, when the
// reverse edge is missing, the reciprocal edge. Returns the forward edge.
func (s *RelationshipService) Add(
	ctx context.Context,
	characterID string,
	relatedCharacterID string,
	rawType string,
	metadata map[string]any,
) (*entities.Relationship, error) {
	relType := entities.Canonicalize(rawType)
	if relType == "" {
		return nil, ErrInvalidRelationType
	}
	if characterID == relatedCharacterID {
		return nil, ErrSelfRelationship
	}

	unlock := s.pairs.lock(entities.PairKey(characterID, relatedCharacterID))
	defer unlock()

	var forward *entities.Relationship
	created := make([]string, 0, 2)

	err := s.db.WithTx(ctx, func(tx ports.RelationshipStore) error {
		owner, err := findCharacter(ctx, tx, characterID)
		if err != nil {
			return err
		}
		related, err := findCharacter(ctx, tx, relatedCharacterID)
		if err != nil {
			return err
		}
		if owner.BookID != related.BookID {
			return ErrCrossBookRelationship
		}

		existing, err := tx.FindRelationshipBetween(ctx, characterID, relatedCharacterID)
		if err != nil {
			return fmt.Errorf("checking existing relationship: %w", err)
		}
		if existing != nil {
			return fmt.Errorf("%w (id: %s)", ErrRelationshipExists, existing.ID)
		}

		now := timeNow()
		forward = &entities.Relationship{
			ID:                 uuid.New().String(),
			BookID:             owner.BookID,
			CharacterID:        characterID,
			RelatedCharacterID: relatedCharacterID,
			Type:               relType,
			Metadata:           entities.CopyMetadata(metadata),
			CreatedAt:          now,
			UpdatedAt:          now,
		}
		if err := tx.SaveRelationship(ctx, forward); err != nil {
			return fmt.Errorf("saving relationship: %w", err)
		}
		created = append(created, forward.ID)

		reverse, err := tx.FindRelationshipBetween(ctx, relatedCharacterID, characterID)
		if err != nil {
			return fmt.Errorf("checking reverse relationship: %w", err)
		}
		if reverse == nil {
			reverse = &entities.Relationship{
				ID:                 uuid.New().String(),
				BookID:             owner.BookID,
				CharacterID:        relatedCharacterID,
				RelatedCharacterID: characterID,
				Type:               entities.Reciprocal(relType),
				Metadata:           entities.CopyMetadata(metadata),
				CreatedAt:          now,
				UpdatedAt:          now,
			}
			if err := tx.SaveRelationship(ctx, reverse); err != nil {
				return fmt.Errorf("saving reverse relationship: %w", err)
			}
			created = append(created, reverse.ID)
		}

		return tx.LogAction(ctx, entities.ActionRelationshipAdd, forward.ID, map[string]any{
			"character_id":         characterID,
			"related_character_id": relatedCharacterID,
			"type":                 string(relType),
			"created":              created,
		})
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("relationship added",
		zap.String("id", forward.ID),
		zap.String("character_id", characterID),
		zap.String("related_character_id", relatedCharacterID),
		zap.String("type", string(relType)),
		zap.Int("edges", len(created)),
	)
	s.notify(forward.BookID)
	return forward, nil
}

// Update changes the type and/or metadata of an edge and mirrors the change
// onto the reverse edge when one exists.
func (s *RelationshipService) Update(ctx context.Context, id string, upd RelationshipUpdate) (*entities.Relationship, error) {
	var newType entities.RelationType
	if upd.Type != nil {
		newType = entities.Canonicalize(*upd.Type)
		if newType == "" {
			return nil, ErrInvalidRelationType
		}
	}

	current, err := s.db.FindRelationshipByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("finding relationship: %w", err)
	}
	if current == nil {
		return nil, fmt.Errorf("%w: %s", ErrRelationshipNotFound, id)
	}

	unlock := s.pairs.lock(entities.PairKey(current.CharacterID, current.RelatedCharacterID))
	defer unlock()

	var edge *entities.Relationship
	reverseFound := false

	err = s.db.WithTx(ctx, func(tx ports.RelationshipStore) error {
		var err error
		edge, err = tx.FindRelationshipByID(ctx, id)
		if err != nil {
			return fmt.Errorf("finding relationship: %w", err)
		}
		if edge == nil {
			return fmt.Errorf("%w: %s", ErrRelationshipNotFound, id)
		}

		now := timeNow()
		if newType != "" {
			edge.Type = newType
		}
		if upd.Metadata != nil {
			edge.Metadata = entities.CopyMetadata(upd.Metadata)
		}
		edge.UpdatedAt = now
		if err := tx.SaveRelationship(ctx, edge); err != nil {
			return fmt.Errorf("saving relationship: %w", err)
		}

		reverse, err := tx.FindRelationshipBetween(ctx, edge.RelatedCharacterID, edge.CharacterID)
		if err != nil {
			return fmt.Errorf("finding reverse relationship: %w", err)
		}
		if reverse != nil {
			reverseFound = true
			reverse.Type = entities.Reciprocal(edge.Type)
			reverse.Metadata = entities.CopyMetadata(edge.Metadata)
			reverse.UpdatedAt = now
			if err := tx.SaveRelationship(ctx, reverse); err != nil {
				return fmt.Errorf("saving reverse relationship: %w", err)
			}
		}

		return tx.LogAction(ctx, entities.ActionRelationshipUpdate, edge.ID, map[string]any{
			"type":    string(edge.Type),
			"reverse": reverseFound,
		})
	})
	if err != nil {
		return nil, err
	}

	if !reverseFound {
		s.logger.Warn("reverse relationship missing on update",
			zap.String("id", edge.ID),
			zap.String("character_id", edge.CharacterID),
			zap.String("related_character_id", edge.RelatedCharacterID),
		)
	}
	s.logger.Info("relationship updated", zap.String("id", edge.ID), zap.String("type", string(edge.Type)))
	s.notify(edge.BookID)
	return edge, nil
}

// Remove deletes an edge together with its reverse edge. An unknown id is
// reported as not deleted rather than as an error.
func (s *RelationshipService) Remove(ctx context.Context, id string) (*RemoveResult, error) {
	current, err := s.db.FindRelationshipByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("finding relationship: %w", err)
	}
	if current == nil {
		return &RemoveResult{Deleted: false}, nil
	}

	unlock := s.pairs.lock(entities.PairKey(current.CharacterID, current.RelatedCharacterID))
	defer unlock()

	result := &RemoveResult{}
	err = s.db.WithTx(ctx, func(tx ports.RelationshipStore) error {
		edge, err := tx.FindRelationshipByID(ctx, id)
		if err != nil {
			return fmt.Errorf("finding relationship: %w", err)
		}
		if edge == nil {
			return nil
		}

		if err := tx.DeleteRelationship(ctx, edge.ID); err != nil {
			return fmt.Errorf("deleting relationship: %w", err)
		}
		removed := []string{edge.ID}

		reverse, err := tx.FindRelationshipBetween(ctx, edge.RelatedCharacterID, edge.CharacterID)
		if err != nil {
			return fmt.Errorf("finding reverse relationship: %w", err)
		}
		if reverse != nil {
			if err := tx.DeleteRelationship(ctx, reverse.ID); err != nil {
				return fmt.Errorf("deleting reverse relationship: %w", err)
			}
			removed = append(removed, reverse.ID)
		}

		if err := tx.LogAction(ctx, entities.ActionRelationshipRemove, edge.ID, map[string]any{
			"character_id":         edge.CharacterID,
			"related_character_id": edge.RelatedCharacterID,
			"removed":              removed,
		}); err != nil {
			return err
		}

		result.Deleted = true
		result.Removed = removed
		return nil
	})
	if err != nil {
		return nil, err
	}

	if result.Deleted {
		s.logger.Info("relationship removed", zap.String("id", id), zap.Strings("removed", result.Removed))
		s.notify(current.BookID)
	}
	return result, nil
}

// List returns the outgoing edges of a character joined with a summary of
// each related character.
func (s *RelationshipService) List(ctx context.Context, characterID string) ([]entities.RelationshipView, error) {
	edges, err := s.db.FindRelationshipsByCharacter(ctx, characterID)
	if err != nil {
		return nil, fmt.Errorf("listing relationships: %w", err)
	}

	summaries := make(map[string]*entities.RelatedCharacter, len(edges))
	views := make([]entities.RelationshipView, 0, len(edges))
	for i := range edges {
		relatedID := edges[i].RelatedCharacterID
		summary, ok := summaries[relatedID]
		if !ok {
			c, err := s.db.FindCharacterByID(ctx, relatedID)
			if err != nil {
				return nil, fmt.Errorf("finding related character: %w", err)
			}
			if c != nil {
				summary = c.Summary()
			}
			summaries[relatedID] = summary
		}
		views = append(views, entities.RelationshipView{Relationship: edges[i], Related: summary})
	}
	return views, nil
}

// ListByBook returns every edge of a book keyed by owning character id.
func (s *RelationshipService) ListByBook(ctx context.Context, bookID string) (map[string][]entities.Relationship, error) {
	edges, err := s.db.FindRelationshipsByBook(ctx, bookID)
	if err != nil {
		return nil, fmt.Errorf("listing book relationships: %w", err)
	}
	byCharacter := make(map[string][]entities.Relationship)
	for i := range edges {
		byCharacter[edges[i].CharacterID] = append(byCharacter[edges[i].CharacterID], edges[i])
	}
	return byCharacter, nil
}

func findCharacter(ctx context.Context, tx ports.RelationshipStore, id string) (*entities.Character, error) {
	c, err := tx.FindCharacterByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("finding character: %w", err)
	}
	if c == nil {
		return nil, fmt.Errorf("%w: %s", ErrCharacterNotFound, id)
	}
	return c, nil
}
