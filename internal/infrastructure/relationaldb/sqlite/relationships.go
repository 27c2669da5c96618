package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/ersonp/lore-chronicle/internal/domain/entities"
)

const relationshipColumns = `id, book_id, character_id, related_character_id, type, metadata, created_at, updated_at`

// SaveRelationship saves or updates a relationship.
func (r *Repository) SaveRelationship(ctx context.Context, rel *entities.Relationship) error {
	return saveRelationship(ctx, r.db, rel)
}

// SaveRelationship saves a relationship inside the transaction.
func (s *txStore) SaveRelationship(ctx context.Context, rel *entities.Relationship) error {
	return saveRelationship(ctx, s.q, rel)
}

func saveRelationship(ctx context.Context, q querier, rel *entities.Relationship) error {
	metadata, err := marshalJSON(rel.Metadata, rel.Metadata == nil)
	if err != nil {
		return fmt.Errorf("marshaling metadata: %w", err)
	}

	query := `
		INSERT INTO relationships (` + relationshipColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			type = excluded.type,
			metadata = excluded.metadata,
			updated_at = excluded.updated_at
	`
	_, err = q.ExecContext(ctx, query,
		rel.ID,
		rel.BookID,
		rel.CharacterID,
		rel.RelatedCharacterID,
		string(rel.Type),
		metadata,
		rel.CreatedAt,
		rel.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("saving relationship: %w", err)
	}
	return nil
}

// FindRelationshipByID finds a relationship by ID. Returns nil if not found.
func (r *Repository) FindRelationshipByID(ctx context.Context, id string) (*entities.Relationship, error) {
	return findOneRelationship(ctx, r.db, `SELECT `+relationshipColumns+` FROM relationships WHERE id = ?`, id)
}

// FindRelationshipByID finds a relationship inside the transaction.
func (s *txStore) FindRelationshipByID(ctx context.Context, id string) (*entities.Relationship, error) {
	return findOneRelationship(ctx, s.q, `SELECT `+relationshipColumns+` FROM relationships WHERE id = ?`, id)
}

const betweenQuery = `SELECT ` + relationshipColumns + ` FROM relationships WHERE character_id = ? AND related_character_id = ?`

// FindRelationshipBetween finds the edge for the ordered pair. Returns nil if none exists.
func (r *Repository) FindRelationshipBetween(ctx context.Context, characterID, relatedCharacterID string) (*entities.Relationship, error) {
	return findOneRelationship(ctx, r.db, betweenQuery, characterID, relatedCharacterID)
}

// FindRelationshipBetween finds an ordered pair inside the transaction.
func (s *txStore) FindRelationshipBetween(ctx context.Context, characterID, relatedCharacterID string) (*entities.Relationship, error) {
	return findOneRelationship(ctx, s.q, betweenQuery, characterID, relatedCharacterID)
}

const byCharacterQuery = `
	SELECT ` + relationshipColumns + `
	FROM relationships
	WHERE character_id = ?
	ORDER BY created_at ASC, id ASC
`

// FindRelationshipsByCharacter lists the outgoing edges of a character.
func (r *Repository) FindRelationshipsByCharacter(ctx context.Context, characterID string) ([]entities.Relationship, error) {
	return queryRelationships(ctx, r.db, byCharacterQuery, characterID)
}

// FindRelationshipsByCharacter lists outgoing edges inside the transaction.
func (s *txStore) FindRelationshipsByCharacter(ctx context.Context, characterID string) ([]entities.Relationship, error) {
	return queryRelationships(ctx, s.q, byCharacterQuery, characterID)
}

// FindRelationshipsByBook lists every edge of a book.
func (r *Repository) FindRelationshipsByBook(ctx context.Context, bookID string) ([]entities.Relationship, error) {
	query := `
		SELECT ` + relationshipColumns + `
		FROM relationships
		WHERE book_id = ?
		ORDER BY character_id ASC, created_at ASC, id ASC
	`
	return queryRelationships(ctx, r.db, query, bookID)
}

// DeleteRelationship deletes a relationship by ID.
func (r *Repository) DeleteRelationship(ctx context.Context, id string) error {
	return deleteRelationship(ctx, r.db, id)
}

// DeleteRelationship deletes a relationship inside the transaction.
func (s *txStore) DeleteRelationship(ctx context.Context, id string) error {
	return deleteRelationship(ctx, s.q, id)
}

func deleteRelationship(ctx context.Context, q querier, id string) error {
	if _, err := q.ExecContext(ctx, `DELETE FROM relationships WHERE id = ?`, id); err != nil {
		return fmt.Errorf("deleting relationship: %w", err)
	}
	return nil
}

func findOneRelationship(ctx context.Context, q querier, query string, args ...any) (*entities.Relationship, error) {
	rels, err := queryRelationships(ctx, q, query, args...)
	if err != nil {
		return nil, err
	}
	if len(rels) == 0 {
		return nil, nil
	}
	return &rels[0], nil
}

// queryRelationships is a helper to execute relationship queries.
func queryRelationships(ctx context.Context, q querier, query string, args ...any) ([]entities.Relationship, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying relationships: %w", err)
	}
	defer rows.Close()

	relationships := make([]entities.Relationship, 0, 16)
	for rows.Next() {
		var rel entities.Relationship
		var relType string
		var metadata sql.NullString
		if err := rows.Scan(
			&rel.ID,
			&rel.BookID,
			&rel.CharacterID,
			&rel.RelatedCharacterID,
			&relType,
			&metadata,
			&rel.CreatedAt,
			&rel.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scanning relationship: %w", err)
		}
		rel.Type = entities.RelationType(relType)
		if err := unmarshalJSON(metadata, &rel.Metadata); err != nil {
			return nil, fmt.Errorf("unmarshaling metadata: %w", err)
		}
		relationships = append(relationships, rel)
	}
	return relationships, rows.Err()
}

// LogAction logs an action to the audit log.
func (r *Repository) LogAction(ctx context.Context, action string, subjectID string, details map[string]any) error {
	return logAction(ctx, r.db, action, subjectID, details)
}

// LogAction logs an action inside the transaction.
func (s *txStore) LogAction(ctx context.Context, action string, subjectID string, details map[string]any) error {
	return logAction(ctx, s.q, action, subjectID, details)
}

func logAction(ctx context.Context, q querier, action string, subjectID string, details map[string]any) error {
	var detailsJSON sql.NullString
	if details != nil {
		data, err := json.Marshal(details)
		if err != nil {
			return fmt.Errorf("marshaling details: %w", err)
		}
		detailsJSON = sql.NullString{String: string(data), Valid: true}
	}

	query := `INSERT INTO audit_log (action, subject_id, details, created_at) VALUES (?, ?, ?, ?)`
	_, err := q.ExecContext(ctx, query, action, nullString(subjectID), detailsJSON, timeNow())
	if err != nil {
		return fmt.Errorf("logging action: %w", err)
	}
	return nil
}

// FindAuditLogByAction finds audit log entries by action type, newest first.
func (r *Repository) FindAuditLogByAction(ctx context.Context, action string, limit int) ([]entities.AuditEntry, error) {
	query := `
		SELECT id, action, subject_id, details, created_at
		FROM audit_log
		WHERE action = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`
	if limit <= 0 {
		limit = -1
	}
	rows, err := r.db.QueryContext(ctx, query, action, limit)
	if err != nil {
		return nil, fmt.Errorf("querying audit log: %w", err)
	}
	defer rows.Close()

	var entries []entities.AuditEntry
	for rows.Next() {
		var entry entities.AuditEntry
		var subjectID, details sql.NullString

		if err := rows.Scan(
			&entry.ID,
			&entry.Action,
			&subjectID,
			&details,
			&entry.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scanning audit entry: %w", err)
		}

		entry.SubjectID = subjectID.String
		if err := unmarshalJSON(details, &entry.Details); err != nil {
			return nil, fmt.Errorf("unmarshaling details: %w", err)
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}
