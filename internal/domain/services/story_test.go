package services

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/ersonp/lore-chronicle/internal/domain/entities"
	"github.com/ersonp/lore-chronicle/internal/domain/mocks"
)

func TestStoryService_Books(t *testing.T) {
	ctx := context.Background()
	svc := NewStoryService(mocks.NewRelationalDB(), zaptest.NewLogger(t))

	book, err := svc.CreateBook(ctx, "  Saga ", "a family chronicle")
	require.NoError(t, err)
	assert.Equal(t, "Saga", book.Name)

	got, err := svc.GetBook(ctx, book.ID)
	require.NoError(t, err)
	assert.Equal(t, book.ID, got.ID)

	_, err = svc.GetBook(ctx, "missing")
	assert.ErrorIs(t, err, ErrBookNotFound)

	_, err = svc.CreateBook(ctx, " ", "")
	assert.ErrorIs(t, err, ErrInvalidName)

	books, err := svc.ListBooks(ctx)
	require.NoError(t, err)
	assert.Len(t, books, 1)
}

func TestStoryService_Characters(t *testing.T) {
	ctx := context.Background()
	db := mocks.NewRelationalDB()
	svc := NewStoryService(db, zaptest.NewLogger(t))
	inv := &recordingInvalidator{}
	svc.OnChange(inv)

	book, err := svc.CreateBook(ctx, "Saga", "")
	require.NoError(t, err)

	first, err := svc.AddCharacter(ctx, NewCharacter{BookID: book.ID, FirstName: "Ann", Role: "hero"})
	require.NoError(t, err)
	second, err := svc.AddCharacter(ctx, NewCharacter{
		BookID:     book.ID,
		FirstName:  "Ben",
		Role:       entities.RoleAntagonist,
		Gender:     entities.ParseGender("male"),
		Attributes: map[string]any{entities.AttrBirthDate: "1980-01-01"},
	})
	require.NoError(t, err)

	assert.Equal(t, 0, first.Position)
	assert.Equal(t, 1, second.Position)
	assert.Equal(t, entities.RoleUnsorted, first.Role)

	updated, err := svc.SetAttributes(ctx, second.ID, map[string]any{
		entities.AttrBirthDate:   nil,
		entities.AttrDescription: "the brother",
	})
	require.NoError(t, err)
	assert.NotContains(t, updated.Attributes, entities.AttrBirthDate)
	assert.Equal(t, "the brother", updated.Description())

	_, err = svc.AddCharacter(ctx, NewCharacter{BookID: "missing", FirstName: "X"})
	assert.ErrorIs(t, err, ErrBookNotFound)

	_, err = svc.AddCharacter(ctx, NewCharacter{BookID: book.ID})
	assert.ErrorIs(t, err, ErrInvalidName)

	_, err = svc.SetAttributes(ctx, "missing", nil)
	assert.ErrorIs(t, err, ErrCharacterNotFound)

	db.Relationships["r1"] = &entities.Relationship{ID: "r1", BookID: book.ID, CharacterID: first.ID, RelatedCharacterID: second.ID}
	require.NoError(t, svc.RemoveCharacter(ctx, second.ID))
	assert.Empty(t, db.Relationships)

	chars, err := svc.ListCharacters(ctx, book.ID)
	require.NoError(t, err)
	require.Len(t, chars, 1)
	assert.Equal(t, "Ann", chars[0].FirstName)

	assert.ErrorIs(t, svc.RemoveCharacter(ctx, second.ID), ErrCharacterNotFound)
	assert.Len(t, inv.calls(), 4)
}

type recordingAvatarCache struct {
	mu   sync.Mutex
	refs []string
}

func (r *recordingAvatarCache) Forget(ref string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.refs = append(r.refs, ref)
}

func TestStoryService_SetAvatar(t *testing.T) {
	ctx := context.Background()
	cache := &recordingAvatarCache{}
	svc := NewStoryService(mocks.NewRelationalDB(), zaptest.NewLogger(t), WithAvatarCache(cache))
	inv := &recordingInvalidator{}
	svc.OnChange(inv)

	book, err := svc.CreateBook(ctx, "Saga", "")
	require.NoError(t, err)
	ann, err := svc.AddCharacter(ctx, NewCharacter{BookID: book.ID, FirstName: "Ann", Avatar: "ann.png"})
	require.NoError(t, err)

	t.Run("replacing evicts old and new references", func(t *testing.T) {
		updated, err := svc.SetAvatar(ctx, ann.ID, " ann-v2.png ")
		require.NoError(t, err)
		assert.Equal(t, "ann-v2.png", updated.Avatar)
		assert.Equal(t, []string{"ann.png", "ann-v2.png"}, cache.refs)
	})

	t.Run("same reference is evicted so a replaced file is read again", func(t *testing.T) {
		cache.refs = nil
		_, err := svc.SetAvatar(ctx, ann.ID, "ann-v2.png")
		require.NoError(t, err)
		assert.Equal(t, []string{"ann-v2.png", "ann-v2.png"}, cache.refs)
	})

	t.Run("clearing evicts the previous reference only", func(t *testing.T) {
		cache.refs = nil
		updated, err := svc.SetAvatar(ctx, ann.ID, "")
		require.NoError(t, err)
		assert.Empty(t, updated.Avatar)
		assert.Equal(t, []string{"ann-v2.png"}, cache.refs)
	})

	t.Run("removing a character evicts its avatar", func(t *testing.T) {
		_, err := svc.SetAvatar(ctx, ann.ID, "ann.png")
		require.NoError(t, err)
		cache.refs = nil
		require.NoError(t, svc.RemoveCharacter(ctx, ann.ID))
		assert.Equal(t, []string{"ann.png"}, cache.refs)
	})

	_, err = svc.SetAvatar(ctx, "missing", "x.png")
	assert.ErrorIs(t, err, ErrCharacterNotFound)
	assert.Len(t, inv.calls(), 6)
}

func TestStoryService_SetAvatar_NoCache(t *testing.T) {
	ctx := context.Background()
	svc := NewStoryService(mocks.NewRelationalDB(), zaptest.NewLogger(t))
	book, err := svc.CreateBook(ctx, "Saga", "")
	require.NoError(t, err)
	ann, err := svc.AddCharacter(ctx, NewCharacter{BookID: book.ID, FirstName: "Ann"})
	require.NoError(t, err)

	updated, err := svc.SetAvatar(ctx, ann.ID, "ann.png")
	require.NoError(t, err)
	assert.Equal(t, "ann.png", updated.Avatar)
}

func TestStoryService_ChaptersAndScenes(t *testing.T) {
	ctx := context.Background()
	svc := NewStoryService(mocks.NewRelationalDB(), zaptest.NewLogger(t))

	book, err := svc.CreateBook(ctx, "Saga", "")
	require.NoError(t, err)

	one, err := svc.AddChapter(ctx, book.ID, "One")
	require.NoError(t, err)
	two, err := svc.AddChapter(ctx, book.ID, "Two")
	require.NoError(t, err)
	assert.Equal(t, 1, two.Position)

	_, err = svc.AddChapter(ctx, "missing", "Three")
	assert.ErrorIs(t, err, ErrBookNotFound)

	start := "2020-01-01"
	scene, err := svc.AddScene(ctx, NewScene{ChapterID: one.ID, Name: "Opening", StartDate: &start})
	require.NoError(t, err)
	assert.Equal(t, book.ID, scene.BookID)
	assert.Equal(t, 0, scene.Position)

	next, err := svc.AddScene(ctx, NewScene{ChapterID: one.ID, Name: "Next"})
	require.NoError(t, err)
	assert.Equal(t, 1, next.Position)

	_, err = svc.AddScene(ctx, NewScene{ChapterID: "missing", Name: "Lost"})
	assert.ErrorIs(t, err, ErrChapterNotFound)

	chapters, err := svc.ListChapters(ctx, book.ID)
	require.NoError(t, err)
	assert.Len(t, chapters, 2)

	scenes, err := svc.ListScenes(ctx, book.ID)
	require.NoError(t, err)
	assert.Len(t, scenes, 2)
}
