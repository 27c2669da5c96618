package handlers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/ersonp/lore-chronicle/internal/domain/entities"
	"github.com/ersonp/lore-chronicle/internal/domain/mocks"
	"github.com/ersonp/lore-chronicle/internal/domain/services"
)

func newTestStoryHandler(t *testing.T) (*StoryHandler, *mocks.RelationalDB) {
	t.Helper()
	db := mocks.NewRelationalDB()
	return NewStoryHandler(services.NewStoryService(db, zaptest.NewLogger(t))), db
}

func TestStoryHandler_HandleAddCharacter(t *testing.T) {
	ctx := context.Background()
	h, _ := newTestStoryHandler(t)

	book, err := h.HandleCreateBook(ctx, "Saga", "")
	require.NoError(t, err)

	t.Run("maps dates and description to attributes", func(t *testing.T) {
		c, err := h.HandleAddCharacter(ctx, book.ID, CharacterInput{
			FirstName:   "Ann",
			Gender:      "Female",
			Role:        "protagonist",
			BirthDate:   "1990-02-03",
			Description: "the heir",
		})
		require.NoError(t, err)
		require.NotNil(t, c.Gender)
		assert.Equal(t, entities.GenderFemale, *c.Gender)
		assert.Equal(t, entities.RoleProtagonist, c.Role)
		assert.Equal(t, "1990-02-03", c.Attributes[entities.AttrBirthDate])
		assert.Equal(t, "the heir", c.Attributes[entities.AttrDescription])
		assert.NotContains(t, c.Attributes, entities.AttrDeathDate)
	})

	t.Run("rejects unknown gender", func(t *testing.T) {
		_, err := h.HandleAddCharacter(ctx, book.ID, CharacterInput{FirstName: "X", Gender: "robot"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unknown gender")
	})

	t.Run("unknown role lands in unsorted", func(t *testing.T) {
		c, err := h.HandleAddCharacter(ctx, book.ID, CharacterInput{FirstName: "Y", Role: "sidekick"})
		require.NoError(t, err)
		assert.Equal(t, entities.RoleUnsorted, c.Role)
	})
}

func TestStoryHandler_HandleSetAttributes(t *testing.T) {
	ctx := context.Background()
	h, _ := newTestStoryHandler(t)

	book, err := h.HandleCreateBook(ctx, "Saga", "")
	require.NoError(t, err)
	c, err := h.HandleAddCharacter(ctx, book.ID, CharacterInput{FirstName: "Ann", BirthDate: "1990-01-01"})
	require.NoError(t, err)

	updated, err := h.HandleSetAttributes(ctx, c.ID, map[string]string{
		entities.AttrBirthDate: "",
		entities.AttrDeathDate: "2050-01-01",
	})
	require.NoError(t, err)
	assert.NotContains(t, updated.Attributes, entities.AttrBirthDate)
	assert.Equal(t, "2050-01-01", updated.Attributes[entities.AttrDeathDate])

	_, err = h.HandleSetAttributes(ctx, "missing", map[string]string{"a": "b"})
	assert.ErrorIs(t, err, services.ErrCharacterNotFound)
}

func TestStoryHandler_HandleOutline(t *testing.T) {
	ctx := context.Background()
	h, _ := newTestStoryHandler(t)

	book, err := h.HandleCreateBook(ctx, "Saga", "")
	require.NoError(t, err)
	one, err := h.HandleAddChapter(ctx, book.ID, "One")
	require.NoError(t, err)
	two, err := h.HandleAddChapter(ctx, book.ID, "Two")
	require.NoError(t, err)
	_, err = h.HandleAddChapter(ctx, book.ID, "Empty")
	require.NoError(t, err)

	_, err = h.HandleAddScene(ctx, two.ID, SceneInput{Name: "Later", StartDate: "2020-02-02"})
	require.NoError(t, err)
	first, err := h.HandleAddScene(ctx, one.ID, SceneInput{Name: "Opening", StartDate: " 2020-01-01 ", EndDate: "  "})
	require.NoError(t, err)
	require.NotNil(t, first.StartDate)
	assert.Equal(t, "2020-01-01", *first.StartDate)
	assert.Nil(t, first.EndDate)
	_, err = h.HandleAddScene(ctx, one.ID, SceneInput{Name: "Follow-up"})
	require.NoError(t, err)

	outline, err := h.HandleOutline(ctx, book.ID)
	require.NoError(t, err)
	require.Len(t, outline, 3)
	assert.Equal(t, "One", outline[0].Chapter.Name)
	require.Len(t, outline[0].Scenes, 2)
	assert.Equal(t, "Opening", outline[0].Scenes[0].Name)
	assert.Equal(t, "Follow-up", outline[0].Scenes[1].Name)
	assert.Len(t, outline[1].Scenes, 1)
	assert.Empty(t, outline[2].Scenes)

	_, err = h.HandleAddScene(ctx, "missing", SceneInput{Name: "x"})
	assert.ErrorIs(t, err, services.ErrChapterNotFound)
}
