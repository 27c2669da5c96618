// Package ports defines interfaces for external service communication.
package ports

import (
	"context"

	"github.com/ersonp/lore-chronicle/internal/domain/entities"
)

// RelationshipStore holds the relationship and audit operations that must be
// available inside a transaction.
type RelationshipStore interface {
	// FindCharacterByID finds a character by its ID. Returns nil if not found.
	FindCharacterByID(ctx context.Context, id string) (*entities.Character, error)

	// SaveRelationship inserts or updates a relationship edge.
	SaveRelationship(ctx context.Context, rel *entities.Relationship) error

	// FindRelationshipByID finds an edge by ID. Returns nil if not found.
	FindRelationshipByID(ctx context.Context, id string) (*entities.Relationship, error)

	// FindRelationshipBetween finds the edge for the ordered pair
	// (characterID -> relatedCharacterID). Returns nil if none exists.
	FindRelationshipBetween(ctx context.Context, characterID, relatedCharacterID string) (*entities.Relationship, error)

	// FindRelationshipsByCharacter lists the outgoing edges of a character.
	FindRelationshipsByCharacter(ctx context.Context, characterID string) ([]entities.Relationship, error)

	// DeleteRelationship deletes an edge by ID. Deleting a missing edge is not an error.
	DeleteRelationship(ctx context.Context, id string) error

	// LogAction logs an action to the audit log.
	LogAction(ctx context.Context, action string, subjectID string, details map[string]any) error
}

// RelationalDB defines the interface for relational database operations.
type RelationalDB interface {
	RelationshipStore

	// EnsureSchema creates the database schema if it doesn't exist.
	EnsureSchema(ctx context.Context) error

	// Close closes the database connection.
	Close() error

	// WithTx runs fn inside a single transaction. The transaction commits
	// when fn returns nil and rolls back otherwise.
	WithTx(ctx context.Context, fn func(tx RelationshipStore) error) error

	// Book operations

	SaveBook(ctx context.Context, book *entities.Book) error
	FindBookByID(ctx context.Context, id string) (*entities.Book, error)
	ListBooks(ctx context.Context) ([]entities.Book, error)

	// Character operations

	SaveCharacter(ctx context.Context, c *entities.Character) error
	ListCharacters(ctx context.Context, bookID string) ([]entities.Character, error)
	DeleteCharacter(ctx context.Context, id string) error

	// Chapter and scene operations

	SaveChapter(ctx context.Context, ch *entities.Chapter) error
	FindChapterByID(ctx context.Context, id string) (*entities.Chapter, error)
	ListChapters(ctx context.Context, bookID string) ([]entities.Chapter, error)
	SaveScene(ctx context.Context, s *entities.Scene) error
	ListScenes(ctx context.Context, bookID string) ([]entities.Scene, error)
	ListScenesByChapter(ctx context.Context, chapterID string) ([]entities.Scene, error)

	// FindRelationshipsByBook lists every edge owned by characters of a book.
	FindRelationshipsByBook(ctx context.Context, bookID string) ([]entities.Relationship, error)

	// FindAuditLogByAction finds audit log entries by action type.
	FindAuditLogByAction(ctx context.Context, action string, limit int) ([]entities.AuditEntry, error)
}
