package handlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/ersonp/lore-chronicle/internal/domain/entities"
	"github.com/ersonp/lore-chronicle/internal/domain/services"
)

// StoryHandler handles book, character, chapter and scene operations.
type StoryHandler struct {
	service *services.StoryService
}

// NewStoryHandler creates a new StoryHandler.
func NewStoryHandler(service *services.StoryService) *StoryHandler {
	return &StoryHandler{service: service}
}

// CharacterInput is a character as entered by a user.
type CharacterInput struct {
	FirstName   string   `json:"first_name"`
	LastName    string   `json:"last_name"`
	Gender      string   `json:"gender"`
	Role        string   `json:"role"`
	Avatar      string   `json:"avatar"`
	BirthDate   string   `json:"birth_date"`
	DeathDate   string   `json:"death_date"`
	Description string   `json:"description"`
	Groups      []string `json:"groups"`
}

// SceneInput is a scene as entered by a user.
type SceneInput struct {
	Name      string `json:"name"`
	Content   string `json:"content"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	Status    string `json:"status"`
}

// ChapterOutline is a chapter with its scenes in order.
type ChapterOutline struct {
	Chapter entities.Chapter `json:"chapter"`
	Scenes  []entities.Scene `json:"scenes"`
}

// HandleCreateBook creates a book.
func (h *StoryHandler) HandleCreateBook(ctx context.Context, name, description string) (*entities.Book, error) {
	return h.service.CreateBook(ctx, name, description)
}

// HandleListBooks lists all books.
func (h *StoryHandler) HandleListBooks(ctx context.Context) ([]entities.Book, error) {
	return h.service.ListBooks(ctx)
}

// HandleAddCharacter adds a character to bookID.
func (h *StoryHandler) HandleAddCharacter(ctx context.Context, bookID string, in CharacterInput) (*entities.Character, error) {
	var gender *entities.Gender
	if strings.TrimSpace(in.Gender) != "" {
		gender = entities.ParseGender(in.Gender)
		if gender == nil {
			return nil, fmt.Errorf("unknown gender %q (use male, female, unicorn or none)", in.Gender)
		}
	}

	attrs := map[string]any{}
	setIf(attrs, entities.AttrBirthDate, in.BirthDate)
	setIf(attrs, entities.AttrDeathDate, in.DeathDate)
	setIf(attrs, entities.AttrDescription, in.Description)

	return h.service.AddCharacter(ctx, services.NewCharacter{
		BookID:     bookID,
		FirstName:  in.FirstName,
		LastName:   in.LastName,
		Gender:     gender,
		Role:       entities.Role(in.Role),
		Avatar:     in.Avatar,
		Attributes: attrs,
		Groups:     in.Groups,
	})
}

// HandleSetAttributes sets string attributes on a character. Empty values
// remove the attribute.
func (h *StoryHandler) HandleSetAttributes(ctx context.Context, characterID string, attrs map[string]string) (*entities.Character, error) {
	update := make(map[string]any, len(attrs))
	for k, v := range attrs {
		if strings.TrimSpace(v) == "" {
			update[k] = nil
			continue
		}
		update[k] = v
	}
	return h.service.SetAttributes(ctx, characterID, update)
}

// HandleSetAvatar changes a character's avatar reference. An empty ref
// clears it.
func (h *StoryHandler) HandleSetAvatar(ctx context.Context, characterID, ref string) (*entities.Character, error) {
	return h.service.SetAvatar(ctx, characterID, ref)
}

// HandleListCharacters lists the characters of bookID in display order.
func (h *StoryHandler) HandleListCharacters(ctx context.Context, bookID string) ([]entities.Character, error) {
	return h.service.ListCharacters(ctx, bookID)
}

// HandleRemoveCharacter removes a character and its relationships.
func (h *StoryHandler) HandleRemoveCharacter(ctx context.Context, id string) error {
	return h.service.RemoveCharacter(ctx, id)
}

// HandleAddChapter appends a chapter to bookID.
func (h *StoryHandler) HandleAddChapter(ctx context.Context, bookID, name string) (*entities.Chapter, error) {
	return h.service.AddChapter(ctx, bookID, name)
}

// HandleAddScene appends a scene to chapterID.
func (h *StoryHandler) HandleAddScene(ctx context.Context, chapterID string, in SceneInput) (*entities.Scene, error) {
	return h.service.AddScene(ctx, services.NewScene{
		ChapterID: chapterID,
		Name:      in.Name,
		Content:   in.Content,
		StartDate: optional(in.StartDate),
		EndDate:   optional(in.EndDate),
		Status:    in.Status,
	})
}

// HandleOutline returns the chapters of bookID with their scenes.
func (h *StoryHandler) HandleOutline(ctx context.Context, bookID string) ([]ChapterOutline, error) {
	chapters, err := h.service.ListChapters(ctx, bookID)
	if err != nil {
		return nil, fmt.Errorf("listing chapters: %w", err)
	}
	scenes, err := h.service.ListScenes(ctx, bookID)
	if err != nil {
		return nil, fmt.Errorf("listing scenes: %w", err)
	}

	byChapter := make(map[string][]entities.Scene, len(chapters))
	for _, s := range scenes {
		byChapter[s.ChapterID] = append(byChapter[s.ChapterID], s)
	}

	entities.SortChapters(chapters)
	outline := make([]ChapterOutline, 0, len(chapters))
	for _, ch := range chapters {
		chScenes := byChapter[ch.ID]
		entities.SortScenes(chScenes)
		outline = append(outline, ChapterOutline{Chapter: ch, Scenes: chScenes})
	}
	return outline, nil
}

func setIf(m map[string]any, key, value string) {
	if v := strings.TrimSpace(value); v != "" {
		m[key] = v
	}
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
