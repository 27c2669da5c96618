package mocks

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/ersonp/lore-chronicle/internal/domain/entities"
	"github.com/ersonp/lore-chronicle/internal/domain/ports"
)

// RelationalDB is an in-memory implementation of ports.RelationalDB.
// WithTx snapshots the relationship and audit tables and restores them when
// the callback fails.
type RelationalDB struct {
	mu sync.Mutex

	Books         map[string]*entities.Book
	Characters    map[string]*entities.Character
	Chapters      map[string]*entities.Chapter
	Scenes        map[string]*entities.Scene
	Relationships map[string]*entities.Relationship
	Audit         []entities.AuditEntry

	// Err is returned by every method when set.
	Err error

	// SaveRelationshipErr fails SaveRelationship after SaveRelationshipOK
	// successful calls.
	SaveRelationshipErr error
	SaveRelationshipOK  int

	// RelationshipsErr fails FindRelationshipsByCharacter for the given ids.
	RelationshipsErr map[string]error

	// Call tracking
	WithTxCallCount int
	saveRelCalls    int
}

// NewRelationalDB creates a new mock RelationalDB.
func NewRelationalDB() *RelationalDB {
	return &RelationalDB{
		Books:         make(map[string]*entities.Book),
		Characters:    make(map[string]*entities.Character),
		Chapters:      make(map[string]*entities.Chapter),
		Scenes:        make(map[string]*entities.Scene),
		Relationships: make(map[string]*entities.Relationship),
	}
}

// EnsureSchema creates the database schema if it doesn't exist.
func (m *RelationalDB) EnsureSchema(_ context.Context) error {
	return m.Err
}

// Close closes the database connection.
func (m *RelationalDB) Close() error {
	return nil
}

// WithTx runs fn against an unlocked view of the store while holding the lock.
func (m *RelationalDB) WithTx(_ context.Context, fn func(tx ports.RelationshipStore) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.WithTxCallCount++
	if m.Err != nil {
		return m.Err
	}

	rels := make(map[string]*entities.Relationship, len(m.Relationships))
	for id, r := range m.Relationships {
		rels[id] = copyRelationship(r)
	}
	audit := append([]entities.AuditEntry(nil), m.Audit...)

	if err := fn(&store{m}); err != nil {
		m.Relationships = rels
		m.Audit = audit
		return err
	}
	return nil
}

// Book methods.

// SaveBook saves or updates a book.
func (m *RelationalDB) SaveBook(_ context.Context, book *entities.Book) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	b := *book
	m.Books[b.ID] = &b
	return nil
}

// FindBookByID finds a book by ID. Returns nil if not found.
func (m *RelationalDB) FindBookByID(_ context.Context, id string) (*entities.Book, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	b, ok := m.Books[id]
	if !ok {
		return nil, nil
	}
	out := *b
	return &out, nil
}

// ListBooks lists all books ordered by name.
func (m *RelationalDB) ListBooks(_ context.Context) ([]entities.Book, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	result := make([]entities.Book, 0, len(m.Books))
	for _, b := range m.Books {
		result = append(result, *b)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Name < result[j].Name
	})
	return result, nil
}

// Character methods.

// SaveCharacter saves or updates a character.
func (m *RelationalDB) SaveCharacter(_ context.Context, c *entities.Character) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.Characters[c.ID] = copyCharacter(c)
	return nil
}

// FindCharacterByID finds a character by ID. Returns nil if not found.
func (m *RelationalDB) FindCharacterByID(_ context.Context, id string) (*entities.Character, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.findCharacter(id)
}

// ListCharacters lists the characters of a book in display order.
func (m *RelationalDB) ListCharacters(_ context.Context, bookID string) ([]entities.Character, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	var result []entities.Character
	for _, c := range m.Characters {
		if c.BookID == bookID {
			result = append(result, *copyCharacter(c))
		}
	}
	entities.SortCharacters(result)
	return result, nil
}

// DeleteCharacter deletes a character and every edge touching it.
func (m *RelationalDB) DeleteCharacter(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	delete(m.Characters, id)
	for relID, r := range m.Relationships {
		if r.CharacterID == id || r.RelatedCharacterID == id {
			delete(m.Relationships, relID)
		}
	}
	return nil
}

// Chapter and scene methods.

// SaveChapter saves or updates a chapter.
func (m *RelationalDB) SaveChapter(_ context.Context, ch *entities.Chapter) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	c := *ch
	m.Chapters[c.ID] = &c
	return nil
}

// FindChapterByID finds a chapter by ID. Returns nil if not found.
func (m *RelationalDB) FindChapterByID(_ context.Context, id string) (*entities.Chapter, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	ch, ok := m.Chapters[id]
	if !ok {
		return nil, nil
	}
	out := *ch
	return &out, nil
}

// ListChapters lists the chapters of a book by position.
func (m *RelationalDB) ListChapters(_ context.Context, bookID string) ([]entities.Chapter, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	var result []entities.Chapter
	for _, ch := range m.Chapters {
		if ch.BookID == bookID {
			result = append(result, *ch)
		}
	}
	entities.SortChapters(result)
	return result, nil
}

// SaveScene saves or updates a scene.
func (m *RelationalDB) SaveScene(_ context.Context, s *entities.Scene) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	sc := *s
	m.Scenes[sc.ID] = &sc
	return nil
}

// ListScenes lists the scenes of a book by position.
func (m *RelationalDB) ListScenes(_ context.Context, bookID string) ([]entities.Scene, error) {
	return m.listScenes(func(s *entities.Scene) bool { return s.BookID == bookID })
}

// ListScenesByChapter lists the scenes of a chapter by position.
func (m *RelationalDB) ListScenesByChapter(_ context.Context, chapterID string) ([]entities.Scene, error) {
	return m.listScenes(func(s *entities.Scene) bool { return s.ChapterID == chapterID })
}

func (m *RelationalDB) listScenes(match func(*entities.Scene) bool) ([]entities.Scene, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	var result []entities.Scene
	for _, s := range m.Scenes {
		if match(s) {
			result = append(result, *s)
		}
	}
	entities.SortScenes(result)
	return result, nil
}

// Relationship methods.

// SaveRelationship saves or updates a relationship.
func (m *RelationalDB) SaveRelationship(_ context.Context, rel *entities.Relationship) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saveRelationship(rel)
}

// FindRelationshipByID finds a relationship by ID. Returns nil if not found.
func (m *RelationalDB) FindRelationshipByID(_ context.Context, id string) (*entities.Relationship, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.findRelationship(id)
}

// FindRelationshipBetween finds the edge for an ordered pair. Returns nil if none exists.
func (m *RelationalDB) FindRelationshipBetween(_ context.Context, characterID, relatedCharacterID string) (*entities.Relationship, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.findBetween(characterID, relatedCharacterID)
}

// FindRelationshipsByCharacter lists the outgoing edges of a character.
func (m *RelationalDB) FindRelationshipsByCharacter(_ context.Context, characterID string) ([]entities.Relationship, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.byCharacter(characterID)
}

// FindRelationshipsByBook lists every edge owned by characters of a book.
func (m *RelationalDB) FindRelationshipsByBook(_ context.Context, bookID string) ([]entities.Relationship, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	var result []entities.Relationship
	for _, r := range m.Relationships {
		if r.BookID == bookID {
			result = append(result, *copyRelationship(r))
		}
	}
	sortRelationships(result)
	return result, nil
}

// DeleteRelationship deletes a relationship by ID.
func (m *RelationalDB) DeleteRelationship(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.deleteRelationship(id)
}

// Audit log methods.

// LogAction logs an action to the audit log.
func (m *RelationalDB) LogAction(_ context.Context, action string, subjectID string, details map[string]any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.logAction(action, subjectID, details)
}

// FindAuditLogByAction finds audit log entries by action type, newest first.
func (m *RelationalDB) FindAuditLogByAction(_ context.Context, action string, limit int) ([]entities.AuditEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	var result []entities.AuditEntry
	for i := len(m.Audit) - 1; i >= 0; i-- {
		if m.Audit[i].Action != action {
			continue
		}
		result = append(result, m.Audit[i])
		if limit > 0 && len(result) == limit {
			break
		}
	}
	return result, nil
}

// Unlocked helpers shared with the transaction view.

func (m *RelationalDB) findCharacter(id string) (*entities.Character, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	c, ok := m.Characters[id]
	if !ok {
		return nil, nil
	}
	return copyCharacter(c), nil
}

func (m *RelationalDB) saveRelationship(rel *entities.Relationship) error {
	if m.Err != nil {
		return m.Err
	}
	m.saveRelCalls++
	if m.SaveRelationshipErr != nil && m.saveRelCalls > m.SaveRelationshipOK {
		return m.SaveRelationshipErr
	}
	m.Relationships[rel.ID] = copyRelationship(rel)
	return nil
}

func (m *RelationalDB) findRelationship(id string) (*entities.Relationship, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	r, ok := m.Relationships[id]
	if !ok {
		return nil, nil
	}
	return copyRelationship(r), nil
}

func (m *RelationalDB) findBetween(characterID, relatedCharacterID string) (*entities.Relationship, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	for _, r := range m.Relationships {
		if r.CharacterID == characterID && r.RelatedCharacterID == relatedCharacterID {
			return copyRelationship(r), nil
		}
	}
	return nil, nil
}

func (m *RelationalDB) byCharacter(characterID string) ([]entities.Relationship, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	if err := m.RelationshipsErr[characterID]; err != nil {
		return nil, err
	}
	var result []entities.Relationship
	for _, r := range m.Relationships {
		if r.CharacterID == characterID {
			result = append(result, *copyRelationship(r))
		}
	}
	sortRelationships(result)
	return result, nil
}

func (m *RelationalDB) deleteRelationship(id string) error {
	if m.Err != nil {
		return m.Err
	}
	delete(m.Relationships, id)
	return nil
}

func (m *RelationalDB) logAction(action, subjectID string, details map[string]any) error {
	if m.Err != nil {
		return m.Err
	}
	m.Audit = append(m.Audit, entities.AuditEntry{
		ID:        int64(len(m.Audit) + 1),
		Action:    action,
		SubjectID: subjectID,
		Details:   details,
		CreatedAt: time.Now(),
	})
	return nil
}

// store is the transaction view handed to WithTx callbacks. The parent lock
// is already held.
type store struct {
	m *RelationalDB
}

func (s *store) FindCharacterByID(_ context.Context, id string) (*entities.Character, error) {
	return s.m.findCharacter(id)
}

func (s *store) SaveRelationship(_ context.Context, rel *entities.Relationship) error {
	return s.m.saveRelationship(rel)
}

func (s *store) FindRelationshipByID(_ context.Context, id string) (*entities.Relationship, error) {
	return s.m.findRelationship(id)
}

func (s *store) FindRelationshipBetween(_ context.Context, characterID, relatedCharacterID string) (*entities.Relationship, error) {
	return s.m.findBetween(characterID, relatedCharacterID)
}

func (s *store) FindRelationshipsByCharacter(_ context.Context, characterID string) ([]entities.Relationship, error) {
	return s.m.byCharacter(characterID)
}

func (s *store) DeleteRelationship(_ context.Context, id string) error {
	return s.m.deleteRelationship(id)
}

func (s *store) LogAction(_ context.Context, action string, subjectID string, details map[string]any) error {
	return s.m.logAction(action, subjectID, details)
}

func copyCharacter(c *entities.Character) *entities.Character {
	out := *c
	out.Attributes = entities.CopyMetadata(c.Attributes)
	out.Groups = append([]string(nil), c.Groups...)
	return &out
}

func copyRelationship(r *entities.Relationship) *entities.Relationship {
	out := *r
	out.Metadata = entities.CopyMetadata(r.Metadata)
	return &out
}

func sortRelationships(rels []entities.Relationship) {
	sort.Slice(rels, func(i, j int) bool {
		if !rels[i].CreatedAt.Equal(rels[j].CreatedAt) {
			return rels[i].CreatedAt.Before(rels[j].CreatedAt)
		}
		return rels[i].ID < rels[j].ID
	})
}
