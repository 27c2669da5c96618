package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/ersonp/lore-chronicle/internal/application/handlers"
	"github.com/ersonp/lore-chronicle/internal/domain/entities"
	"github.com/ersonp/lore-chronicle/internal/domain/mocks"
	"github.com/ersonp/lore-chronicle/internal/domain/services"
	"github.com/ersonp/lore-chronicle/internal/domain/timeline"
)

func setupTestServer(t *testing.T) (*Server, *mocks.RelationalDB) {
	t.Helper()
	logger := zaptest.NewLogger(t)

	db := mocks.NewRelationalDB()
	male := entities.GenderMale
	female := entities.GenderFemale
	db.Books["b1"] = &entities.Book{ID: "b1", Name: "Saga"}
	db.Books["b2"] = &entities.Book{ID: "b2", Name: "Other"}
	db.Characters["ann"] = &entities.Character{ID: "ann", BookID: "b1", FirstName: "Ann", Gender: &female,
		Attributes: map[string]any{entities.AttrBirthDate: "1990-01-01"}}
	db.Characters["ben"] = &entities.Character{ID: "ben", BookID: "b1", FirstName: "Ben", Gender: &male, Position: 1}
	db.Characters["zed"] = &entities.Character{ID: "zed", BookID: "b2", FirstName: "Zed"}

	relationships := services.NewRelationshipService(db, logger)
	timelines := services.NewTimelineService(db, &mocks.ImageLoader{}, logger)
	story := services.NewStoryService(db, logger)
	imports := services.NewImportService(relationships, db, logger)
	relationships.OnChange(timelines)

	srv := New(Handlers{
		Relationships: handlers.NewRelationshipHandler(relationships),
		Timelines:     handlers.NewTimelineHandler(timelines, timeline.LayoutSeparate),
		Story:         handlers.NewStoryHandler(story),
		Imports:       handlers.NewImportHandler(imports),
	}, logger)
	return srv, db
}

func doRequest(t *testing.T, srv *Server, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	return v
}

func TestServer_Health(t *testing.T) {
	srv, _ := setupTestServer(t)
	rec := doRequest(t, srv, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())
}

func TestServer_CreateRelationship(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		status int
	}{
		{"created", `{"character_id":"ann","related_character_id":"ben","type":"wife"}`, http.StatusCreated},
		{"missing type", `{"character_id":"ann","related_character_id":"ben"}`, http.StatusBadRequest},
		{"malformed json", `{"character_id":`, http.StatusBadRequest},
		{"self", `{"character_id":"ann","related_character_id":"ann","type":"friend"}`, http.StatusBadRequest},
		{"cross book", `{"character_id":"ann","related_character_id":"zed","type":"friend"}`, http.StatusBadRequest},
		{"unknown character", `{"character_id":"ann","related_character_id":"ghost","type":"friend"}`, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := setupTestServer(t)
			rec := doRequest(t, srv, http.MethodPost, "/api/relationships", tt.body)
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
		})
	}

	t.Run("duplicate conflicts", func(t *testing.T) {
		srv, _ := setupTestServer(t)
		body := `{"character_id":"ann","related_character_id":"ben","type":"friend"}`
		require.Equal(t, http.StatusCreated, doRequest(t, srv, http.MethodPost, "/api/relationships", body).Code)
		rec := doRequest(t, srv, http.MethodPost, "/api/relationships", body)
		assert.Equal(t, http.StatusConflict, rec.Code)
	})
}

func TestServer_RelationshipLifecycle(t *testing.T) {
	srv, db := setupTestServer(t)

	rec := doRequest(t, srv, http.MethodPost, "/api/relationships",
		`{"character_id":"ann","related_character_id":"ben","type":"fiancee","metadata":{"engagementDate":"2019-01-01"}}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	created := decode[entities.Relationship](t, rec)
	assert.Equal(t, entities.RelationEngaged, created.Type)

	rec = doRequest(t, srv, http.MethodGet, "/api/characters/ben/relationships", "")
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[handlers.ListResult](t, rec)
	require.Len(t, list.Relationships, 1)
	assert.Equal(t, "fiancée", list.Relationships[0].Label)

	rec = doRequest(t, srv, http.MethodPatch, "/api/relationships/"+created.ID,
		`{"type":"spouse","metadata":{"marriageDate":"2020-06-01"}}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	for _, r := range db.Relationships {
		assert.Equal(t, entities.RelationSpouse, r.Type)
		assert.Equal(t, "2020-06-01", r.Metadata["marriageDate"])
	}

	rec = doRequest(t, srv, http.MethodGet, "/api/characters/ann/relationships?type=husband", "")
	require.Equal(t, http.StatusOK, rec.Code)
	list = decode[handlers.ListResult](t, rec)
	assert.Len(t, list.Relationships, 1)

	rec = doRequest(t, srv, http.MethodPatch, "/api/relationships/missing", `{"type":"friend"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doRequest(t, srv, http.MethodDelete, "/api/relationships/"+created.ID, "")
	require.Equal(t, http.StatusOK, rec.Code)
	removed := decode[services.RemoveResult](t, rec)
	assert.True(t, removed.Deleted)
	assert.Empty(t, db.Relationships)

	rec = doRequest(t, srv, http.MethodDelete, "/api/relationships/"+created.ID, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServer_Timeline(t *testing.T) {
	srv, _ := setupTestServer(t)

	rec := doRequest(t, srv, http.MethodPost, "/api/relationships",
		`{"character_id":"ann","related_character_id":"ben","type":"spouse","metadata":{"marriageDate":"2015-05-05"}}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doRequest(t, srv, http.MethodGet, "/api/books/b1/timeline", "")
	require.Equal(t, http.StatusOK, rec.Code)
	result := decode[handlers.TimelineResult](t, rec)
	assert.Equal(t, timeline.LayoutSeparate, result.Layout)

	var kinds []timeline.Kind
	for _, item := range result.Items {
		kinds = append(kinds, item.Title)
	}
	assert.ElementsMatch(t, []timeline.Kind{timeline.KindBirth, timeline.KindMarriage, timeline.KindMarriage}, kinds)

	rec = doRequest(t, srv, http.MethodGet, "/api/books/b1/timeline", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decode[handlers.TimelineResult](t, rec).Cached)

	rec = doRequest(t, srv, http.MethodGet, "/api/books/b1/timeline?layout=spiral", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(t, srv, http.MethodPost, "/api/books/b1/timeline/refresh", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, decode[handlers.TimelineResult](t, rec).Cached)
}

func TestServer_Books(t *testing.T) {
	srv, _ := setupTestServer(t)

	rec := doRequest(t, srv, http.MethodGet, "/api/books", "")
	require.Equal(t, http.StatusOK, rec.Code)
	books := decode[[]entities.Book](t, rec)
	assert.Len(t, books, 2)

	rec = doRequest(t, srv, http.MethodGet, "/api/books/b1/characters", "")
	require.Equal(t, http.StatusOK, rec.Code)
	chars := decode[[]entities.Character](t, rec)
	require.Len(t, chars, 2)
	assert.Equal(t, "ann", chars[0].ID)
}

func TestServer_ImportRelationships(t *testing.T) {
	post := func(srv *Server, target, contentType, body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(body))
		req.Header.Set("Content-Type", contentType)
		rec := httptest.NewRecorder()
		srv.Handler().ServeHTTP(rec, req)
		return rec
	}

	t.Run("csv by content type", func(t *testing.T) {
		srv, db := setupTestServer(t)
		rec := post(srv, "/api/books/b1/import", "text/csv; charset=utf-8", "character,type,related\nAnn,friend,Ben\n")
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		result := decode[services.ImportResult](t, rec)
		assert.Equal(t, 1, result.Imported)
		assert.Len(t, db.Relationships, 2)
	})

	t.Run("dry run via query", func(t *testing.T) {
		srv, db := setupTestServer(t)
		rec := post(srv, "/api/books/b1/import?format=json&dry_run=true", "application/octet-stream",
			`[{"character":"ann","type":"friend","related":"ben"}]`)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Equal(t, 1, decode[services.ImportResult](t, rec).Imported)
		assert.Empty(t, db.Relationships)
	})

	t.Run("row errors are reported", func(t *testing.T) {
		srv, _ := setupTestServer(t)
		rec := post(srv, "/api/books/b1/import", "text/csv", "character,type,related\nAnn,friend,Nobody\n")
		require.Equal(t, http.StatusOK, rec.Code)
		result := decode[services.ImportResult](t, rec)
		assert.Zero(t, result.Imported)
		require.Len(t, result.Errors, 1)
		assert.Equal(t, 2, result.Errors[0].Line)
	})

	t.Run("malformed json", func(t *testing.T) {
		srv, _ := setupTestServer(t)
		rec := post(srv, "/api/books/b1/import", "application/json", `[{"character":`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("unknown format", func(t *testing.T) {
		srv, _ := setupTestServer(t)
		rec := post(srv, "/api/books/b1/import", "text/plain", "hello")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("bad conflict strategy", func(t *testing.T) {
		srv, _ := setupTestServer(t)
		rec := post(srv, "/api/books/b1/import?on_conflict=merge", "text/csv", "character,type,related\n")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("unknown book", func(t *testing.T) {
		srv, _ := setupTestServer(t)
		rec := post(srv, "/api/books/nope/import", "text/csv", "character,type,related\nAnn,friend,Ben\n")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, statusFor(services.ErrRelationshipNotFound))
	assert.Equal(t, http.StatusConflict, statusFor(services.ErrStaleTimeline))
	assert.Equal(t, http.StatusBadRequest, statusFor(timeline.ErrInvalidLayout))
	assert.Equal(t, http.StatusBadRequest, statusFor(fmt.Errorf("%w: boom", services.ErrInvalidImport)))
	assert.Equal(t, http.StatusInternalServerError, statusFor(assert.AnError))
}
