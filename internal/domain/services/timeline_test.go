package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"

	"github.com/ersonp/lore-chronicle/internal/domain/entities"
	"github.com/ersonp/lore-chronicle/internal/domain/mocks"
	"github.com/ersonp/lore-chronicle/internal/domain/timeline"
)

func seedBook(db *mocks.RelationalDB) {
	start := "2020-01-01"
	db.Books["book-1"] = &entities.Book{ID: "book-1", Name: "Saga"}
	db.Chapters["ch1"] = &entities.Chapter{ID: "ch1", BookID: "book-1", Name: "One"}
	db.Scenes["s1"] = &entities.Scene{ID: "s1", BookID: "book-1", ChapterID: "ch1", Name: "Opening", StartDate: &start}
	db.Characters["ann"] = &entities.Character{
		ID: "ann", BookID: "book-1", FirstName: "Ann", Avatar: "ann.png", Position: 0,
		Attributes: map[string]any{entities.AttrBirthDate: "1990-05-05"},
	}
	db.Characters["ben"] = &entities.Character{
		ID: "ben", BookID: "book-1", FirstName: "Ben", Avatar: "ben.png", Position: 1,
	}
	db.Relationships["r1"] = &entities.Relationship{
		ID: "r1", BookID: "book-1", CharacterID: "ann", RelatedCharacterID: "ben", Type: entities.RelationSpouse,
		Metadata: map[string]any{timeline.MetaMarriageDate: "2015-06-06"},
	}
	db.Relationships["r2"] = &entities.Relationship{
		ID: "r2", BookID: "book-1", CharacterID: "ben", RelatedCharacterID: "ann", Type: entities.RelationSpouse,
		Metadata: map[string]any{timeline.MetaMarriageDate: "2015-06-06"},
	}
}

func findItem(tl *timeline.Timeline, id string) *timeline.Item {
	for i := range tl.Items {
		if tl.Items[i].ID == id {
			return &tl.Items[i]
		}
	}
	return nil
}

func findGroup(tl *timeline.Timeline, id string) *timeline.Group {
	for i := range tl.Groups {
		if tl.Groups[i].ID == id {
			return &tl.Groups[i]
		}
	}
	return nil
}

func TestTimelineService_Build(t *testing.T) {
	ctx := context.Background()
	db := mocks.NewRelationalDB()
	seedBook(db)
	images := &mocks.ImageLoader{Images: map[string]string{
		"ann.png": "data:image/png;base64,QU5O",
		"ben.png": "data:image/png;base64,QkVO",
	}}
	svc := NewTimelineService(db, images, zaptest.NewLogger(t), WithLocation(time.UTC))

	tl, err := svc.Build(ctx, "book-1", timeline.LayoutSeparate)
	require.NoError(t, err)

	assert.NotNil(t, findItem(tl, "scene-s1"))
	assert.NotNil(t, findItem(tl, "birth-ann"))
	assert.NotNil(t, findItem(tl, "marriage-ann-ben"))
	assert.NotNil(t, findItem(tl, "marriage-ben-ann"))
	assert.Equal(t, "data:image/png;base64,QU5O", findGroup(tl, "character-ann").Avatar)
	assert.ElementsMatch(t, []string{"ann.png", "ben.png"}, images.Calls())
}

func TestTimelineService_Build_IsolatesLoaderFailures(t *testing.T) {
	ctx := context.Background()
	db := mocks.NewRelationalDB()
	seedBook(db)
	db.RelationshipsErr = map[string]error{"ben": errors.New("locked")}
	images := &mocks.ImageLoader{
		Images: map[string]string{"ann.png": "data:image/png;base64,QU5O"},
		Errs:   map[string]error{"ben.png": errors.New("no such file")},
	}
	core, logs := observer.New(zapcore.WarnLevel)
	svc := NewTimelineService(db, images, zap.New(core), WithLocation(time.UTC), WithConcurrency(1))

	tl, err := svc.Build(ctx, "book-1", timeline.LayoutConnected)
	require.NoError(t, err)

	ben := findGroup(tl, "character-ben")
	require.NotNil(t, ben)
	assert.Empty(t, ben.Avatar)
	assert.NotEmpty(t, findGroup(tl, "character-ann").Avatar)

	// Ann's edge still yields the pair of marriage items.
	assert.NotNil(t, findItem(tl, "marriage-ann-ben"))

	assert.Equal(t, 1, logs.FilterMessage("loading avatar").Len())
	assert.Equal(t, 1, logs.FilterMessage("loading relationships").Len())
}

func TestTimelineService_Build_WithoutImageLoader(t *testing.T) {
	db := mocks.NewRelationalDB()
	seedBook(db)
	svc := NewTimelineService(db, nil, nil)

	tl, err := svc.Build(context.Background(), "book-1", timeline.LayoutSeparate)
	require.NoError(t, err)
	assert.Empty(t, findGroup(tl, "character-ann").Avatar)
}

func TestTimelineService_Build_StoreError(t *testing.T) {
	db := mocks.NewRelationalDB()
	db.Err = errors.New("closed")
	svc := NewTimelineService(db, nil, zaptest.NewLogger(t))

	_, err := svc.Build(context.Background(), "book-1", timeline.LayoutSeparate)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "listing chapters")
}

func TestTimelineService_RefreshCaches(t *testing.T) {
	ctx := context.Background()
	db := mocks.NewRelationalDB()
	seedBook(db)
	svc := NewTimelineService(db, &mocks.ImageLoader{}, zaptest.NewLogger(t))

	_, ok := svc.Latest("book-1")
	assert.False(t, ok)

	tl, err := svc.Refresh(ctx, "book-1", timeline.LayoutSeparate)
	require.NoError(t, err)

	cached, ok := svc.Latest("book-1")
	require.True(t, ok)
	assert.Same(t, tl, cached)
	assert.Equal(t, uint64(1), svc.Generation("book-1"))

	svc.Invalidate("book-1")
	_, ok = svc.Latest("book-1")
	assert.False(t, ok)
	assert.Equal(t, uint64(2), svc.Generation("book-1"))
}

func TestTimelineService_InvalidateDiscardsInFlightRefresh(t *testing.T) {
	ctx := context.Background()
	db := mocks.NewRelationalDB()
	seedBook(db)
	delete(db.Characters, "ben")
	started := make(chan string, 1)
	images := &mocks.ImageLoader{Gate: make(chan struct{}), Started: started}
	svc := NewTimelineService(db, images, zaptest.NewLogger(t))

	errCh := make(chan error, 1)
	go func() {
		_, err := svc.Refresh(ctx, "book-1", timeline.LayoutSeparate)
		errCh <- err
	}()

	<-started
	svc.Invalidate("book-1")

	assert.ErrorIs(t, <-errCh, ErrStaleTimeline)
	_, ok := svc.Latest("book-1")
	assert.False(t, ok)
}

func TestTimelineService_NewerRefreshWins(t *testing.T) {
	ctx := context.Background()
	db := mocks.NewRelationalDB()
	seedBook(db)
	delete(db.Characters, "ben")
	gate := make(chan struct{})
	started := make(chan string, 2)
	images := &mocks.ImageLoader{Gate: gate, Started: started, Images: map[string]string{"ann.png": "data:x"}}
	svc := NewTimelineService(db, images, zaptest.NewLogger(t))

	firstErr := make(chan error, 1)
	go func() {
		_, err := svc.Refresh(ctx, "book-1", timeline.LayoutSeparate)
		firstErr <- err
	}()
	<-started

	type result struct {
		tl  *timeline.Timeline
		err error
	}
	second := make(chan result, 1)
	go func() {
		tl, err := svc.Refresh(ctx, "book-1", timeline.LayoutConnected)
		second <- result{tl, err}
	}()

	assert.ErrorIs(t, <-firstErr, ErrStaleTimeline)

	<-started
	close(gate)
	res := <-second
	require.NoError(t, res.err)

	cached, ok := svc.Latest("book-1")
	require.True(t, ok)
	assert.Same(t, res.tl, cached)
	assert.Equal(t, "data:x", findGroup(cached, "character-ann").Avatar)
}

func TestTimelineService_InvalidatesOnRelationshipChange(t *testing.T) {
	ctx := context.Background()
	db := mocks.NewRelationalDB()
	seedBook(db)
	db.Characters["cy"] = &entities.Character{ID: "cy", BookID: "book-1", FirstName: "Cy"}

	timelines := NewTimelineService(db, nil, zaptest.NewLogger(t))
	relationships := NewRelationshipService(db, zaptest.NewLogger(t))
	relationships.OnChange(timelines)

	_, err := timelines.Refresh(ctx, "book-1", timeline.LayoutSeparate)
	require.NoError(t, err)

	_, err = relationships.Add(ctx, "ann", "cy", "friend", nil)
	require.NoError(t, err)

	_, ok := timelines.Latest("book-1")
	assert.False(t, ok)
}
