package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ersonp/lore-chronicle/internal/domain/entities"
	"github.com/ersonp/lore-chronicle/internal/domain/ports"
)

// NewCharacter holds the fields accepted when creating a character.
type NewCharacter struct {
	BookID     string
	FirstName  string
	LastName   string
	Gender     *entities.Gender
	Role       entities.Role
	Avatar     string
	Attributes map[string]any
	Groups     []string
}

// NewScene holds the fields accepted when creating a scene.
type NewScene struct {
	ChapterID string
	Name      string
	Content   string
	StartDate *string
	EndDate   *string
	Status    string
}

// StoryService manages the books, characters, chapters and scenes that the
// relationship graph and timeline are built from.
type StoryService struct {
	notifier

	db      ports.RelationalDB
	logger  *zap.Logger
	avatars ports.AvatarCache
}

// StoryOption configures a StoryService.
type StoryOption func(*StoryService)

// WithAvatarCache makes avatar changes evict the old and new references
// from cache.
func WithAvatarCache(cache ports.AvatarCache) StoryOption {
	return func(s *StoryService) {
		s.avatars = cache
	}
}

// NewStoryService creates a new StoryService.
func NewStoryService(db ports.RelationalDB, logger *zap.Logger, opts ...StoryOption) *StoryService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &StoryService{db: db, logger: logger.Named("story")}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateBook creates a new book.
func (s *StoryService) CreateBook(ctx context.Context, name, description string) (*entities.Book, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrInvalidName
	}
	book := &entities.Book{
		ID:          uuid.New().String(),
		Name:        name,
		Description: description,
		CreatedAt:   timeNow(),
	}
	if err := s.db.SaveBook(ctx, book); err != nil {
		return nil, fmt.Errorf("saving book: %w", err)
	}
	s.logger.Info("book created", zap.String("id", book.ID), zap.String("name", name))
	return book, nil
}

// GetBook returns a book or ErrBookNotFound.
func (s *StoryService) GetBook(ctx context.Context, id string) (*entities.Book, error) {
	book, err := s.db.FindBookByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("finding book: %w", err)
	}
	if book == nil {
		return nil, fmt.Errorf("%w: %s", ErrBookNotFound, id)
	}
	return book, nil
}

// ListBooks returns all books.
func (s *StoryService) ListBooks(ctx context.Context) ([]entities.Book, error) {
	return s.db.ListBooks(ctx)
}

// AddCharacter appends a character to a book.
func (s *StoryService) AddCharacter(ctx context.Context, in NewCharacter) (*entities.Character, error) {
	if strings.TrimSpace(in.FirstName) == "" && strings.TrimSpace(in.LastName) == "" {
		return nil, ErrInvalidName
	}
	if _, err := s.GetBook(ctx, in.BookID); err != nil {
		return nil, err
	}

	existing, err := s.db.ListCharacters(ctx, in.BookID)
	if err != nil {
		return nil, fmt.Errorf("listing characters: %w", err)
	}

	now := timeNow()
	c := &entities.Character{
		ID:         uuid.New().String(),
		BookID:     in.BookID,
		FirstName:  strings.TrimSpace(in.FirstName),
		LastName:   strings.TrimSpace(in.LastName),
		Gender:     in.Gender,
		Role:       in.Role.Normalize(),
		Avatar:     in.Avatar,
		Attributes: entities.CopyMetadata(in.Attributes),
		Groups:     in.Groups,
		Position:   len(existing),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.db.SaveCharacter(ctx, c); err != nil {
		return nil, fmt.Errorf("saving character: %w", err)
	}

	s.logger.Info("character added", zap.String("id", c.ID), zap.String("book_id", c.BookID))
	s.notify(c.BookID)
	return c, nil
}

// SetAttributes merges attrs into a character's attributes. A nil value
// removes the key.
func (s *StoryService) SetAttributes(ctx context.Context, characterID string, attrs map[string]any) (*entities.Character, error) {
	c, err := s.db.FindCharacterByID(ctx, characterID)
	if err != nil {
		return nil, fmt.Errorf("finding character: %w", err)
	}
	if c == nil {
		return nil, fmt.Errorf("%w: %s", ErrCharacterNotFound, characterID)
	}

	if c.Attributes == nil {
		c.Attributes = make(map[string]any, len(attrs))
	}
	for k, v := range attrs {
		if v == nil {
			delete(c.Attributes, k)
			continue
		}
		c.Attributes[k] = v
	}
	c.UpdatedAt = timeNow()

	if err := s.db.SaveCharacter(ctx, c); err != nil {
		return nil, fmt.Errorf("saving character: %w", err)
	}
	s.notify(c.BookID)
	return c, nil
}

// SetAvatar points a character at a new avatar reference. An empty ref
// clears the avatar. Both references are evicted from the avatar cache, so
// an image replaced in place is read again.
func (s *StoryService) SetAvatar(ctx context.Context, characterID, ref string) (*entities.Character, error) {
	c, err := s.db.FindCharacterByID(ctx, characterID)
	if err != nil {
		return nil, fmt.Errorf("finding character: %w", err)
	}
	if c == nil {
		return nil, fmt.Errorf("%w: %s", ErrCharacterNotFound, characterID)
	}

	previous := c.Avatar
	c.Avatar = strings.TrimSpace(ref)
	c.UpdatedAt = timeNow()
	if err := s.db.SaveCharacter(ctx, c); err != nil {
		return nil, fmt.Errorf("saving character: %w", err)
	}

	s.forgetAvatar(previous)
	s.forgetAvatar(c.Avatar)
	s.logger.Info("avatar changed", zap.String("id", c.ID), zap.String("avatar", c.Avatar))
	s.notify(c.BookID)
	return c, nil
}

func (s *StoryService) forgetAvatar(ref string) {
	if s.avatars != nil && ref != "" {
		s.avatars.Forget(ref)
	}
}

// ListCharacters returns the characters of a book in display order.
func (s *StoryService) ListCharacters(ctx context.Context, bookID string) ([]entities.Character, error) {
	return s.db.ListCharacters(ctx, bookID)
}

// RemoveCharacter deletes a character and every relationship touching it.
func (s *StoryService) RemoveCharacter(ctx context.Context, id string) error {
	c, err := s.db.FindCharacterByID(ctx, id)
	if err != nil {
		return fmt.Errorf("finding character: %w", err)
	}
	if c == nil {
		return fmt.Errorf("%w: %s", ErrCharacterNotFound, id)
	}
	if err := s.db.DeleteCharacter(ctx, id); err != nil {
		return fmt.Errorf("deleting character: %w", err)
	}
	s.forgetAvatar(c.Avatar)
	s.logger.Info("character removed", zap.String("id", id))
	s.notify(c.BookID)
	return nil
}

// AddChapter appends a chapter to a book.
func (s *StoryService) AddChapter(ctx context.Context, bookID, name string) (*entities.Chapter, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrInvalidName
	}
	if _, err := s.GetBook(ctx, bookID); err != nil {
		return nil, err
	}

	existing, err := s.db.ListChapters(ctx, bookID)
	if err != nil {
		return nil, fmt.Errorf("listing chapters: %w", err)
	}

	ch := &entities.Chapter{
		ID:        uuid.New().String(),
		BookID:    bookID,
		Name:      name,
		Position:  len(existing),
		CreatedAt: timeNow(),
	}
	if err := s.db.SaveChapter(ctx, ch); err != nil {
		return nil, fmt.Errorf("saving chapter: %w", err)
	}
	s.notify(bookID)
	return ch, nil
}

// ListChapters returns the chapters of a book in order.
func (s *StoryService) ListChapters(ctx context.Context, bookID string) ([]entities.Chapter, error) {
	return s.db.ListChapters(ctx, bookID)
}

// AddScene appends a scene to a chapter. Dates are stored as entered.
func (s *StoryService) AddScene(ctx context.Context, in NewScene) (*entities.Scene, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, ErrInvalidName
	}

	ch, err := s.db.FindChapterByID(ctx, in.ChapterID)
	if err != nil {
		return nil, fmt.Errorf("finding chapter: %w", err)
	}
	if ch == nil {
		return nil, fmt.Errorf("%w: %s", ErrChapterNotFound, in.ChapterID)
	}

	existing, err := s.db.ListScenesByChapter(ctx, ch.ID)
	if err != nil {
		return nil, fmt.Errorf("listing scenes: %w", err)
	}

	scene := &entities.Scene{
		ID:        uuid.New().String(),
		BookID:    ch.BookID,
		ChapterID: ch.ID,
		Name:      name,
		Content:   in.Content,
		StartDate: in.StartDate,
		EndDate:   in.EndDate,
		Position:  len(existing),
		Status:    in.Status,
		CreatedAt: timeNow(),
	}
	if err := s.db.SaveScene(ctx, scene); err != nil {
		return nil, fmt.Errorf("saving scene: %w", err)
	}
	s.notify(ch.BookID)
	return scene, nil
}

// ListScenes returns the scenes of a book.
func (s *StoryService) ListScenes(ctx context.Context, bookID string) ([]entities.Scene, error) {
	return s.db.ListScenes(ctx, bookID)
}
