package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"

	"github.com/ersonp/lore-chronicle/internal/domain/entities"
	"github.com/ersonp/lore-chronicle/internal/domain/ports"
	"github.com/ersonp/lore-chronicle/internal/infrastructure/parsers"
)

// ConflictStrategy defines how to handle an edge that already exists during import.
type ConflictStrategy string

const (
	// ConflictSkip leaves existing edges untouched.
	ConflictSkip ConflictStrategy = "skip"
	// ConflictUpdate rewrites the type and metadata of existing edges.
	ConflictUpdate ConflictStrategy = "update"
)

// ParseConflictStrategy validates a strategy name. Empty means skip.
func ParseConflictStrategy(s string) (ConflictStrategy, error) {
	switch ConflictStrategy(strings.ToLower(strings.TrimSpace(s))) {
	case "", ConflictSkip:
		return ConflictSkip, nil
	case ConflictUpdate:
		return ConflictUpdate, nil
	default:
		return "", fmt.Errorf("unknown conflict strategy %q (use skip or update)", s)
	}
}

// ImportOptions controls import behavior.
type ImportOptions struct {
	DryRun     bool             // Validate without saving
	OnConflict ConflictStrategy // How to handle existing edges
}

// ImportError represents an error for a specific row during import.
type ImportError struct {
	Line    int    `json:"line"`    // Line number (1-indexed, 0 if unknown)
	Field   string `json:"field"`   // Which field has the error
	Value   string `json:"value"`   // The invalid value
	Message string `json:"message"` // Human-readable error message
}

func (e ImportError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s", e.Line, e.Message)
	}
	return e.Message
}

// ImportResult contains the result of an import operation.
type ImportResult struct {
	Imported int           `json:"imported"`
	Updated  int           `json:"updated"`
	Skipped  int           `json:"skipped"`
	Errors   []ImportError `json:"errors,omitempty"`
}

// ImportService loads relationships from external sources through the
// RelationshipService, so imported edges get their reciprocal like any other.
type ImportService struct {
	relationships *RelationshipService
	db            ports.RelationalDB
	logger        *zap.Logger
}

// NewImportService creates a new import service.
func NewImportService(relationships *RelationshipService, db ports.RelationalDB, logger *zap.Logger) *ImportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ImportService{
		relationships: relationships,
		db:            db,
		logger:        logger.Named("import"),
	}
}

// ImportFrom parses r with p and imports the rows into a book.
func (s *ImportService) ImportFrom(ctx context.Context, bookID string, p parsers.Parser, r io.Reader, opts ImportOptions) (*ImportResult, error) {
	raws, err := p.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidImport, err)
	}
	if len(raws) == 0 {
		return &ImportResult{}, nil
	}
	return s.Import(ctx, bookID, raws, opts)
}

// resolvedRow is a raw relationship whose characters were found in the book.
type resolvedRow struct {
	raw         *parsers.RawRelationship
	line        int
	characterID string
	relatedID   string
}

// Import validates raw relationships against the characters of a book and
// adds the valid ones. Row problems are collected in the result; only
// storage failures abort the import.
func (s *ImportService) Import(ctx context.Context, bookID string, raws []parsers.RawRelationship, opts ImportOptions) (*ImportResult, error) {
	book, err := s.db.FindBookByID(ctx, bookID)
	if err != nil {
		return nil, fmt.Errorf("finding book: %w", err)
	}
	if book == nil {
		return nil, fmt.Errorf("%w: %s", ErrBookNotFound, bookID)
	}

	chars, err := s.db.ListCharacters(ctx, bookID)
	if err != nil {
		return nil, fmt.Errorf("listing characters: %w", err)
	}
	index := newCharacterIndex(chars)

	result := &ImportResult{}
	rows := make([]resolvedRow, 0, len(raws))
	for i := range raws {
		row, ierr := validateRawRelationship(&raws[i], i+1, index)
		if ierr != nil {
			result.Errors = append(result.Errors, *ierr)
			continue
		}
		rows = append(rows, row)
	}

	for _, row := range rows {
		if err := s.importRow(ctx, row, opts, result); err != nil {
			return nil, err
		}
	}

	s.logger.Info("relationships imported",
		zap.String("book_id", bookID),
		zap.Bool("dry_run", opts.DryRun),
		zap.Int("imported", result.Imported),
		zap.Int("updated", result.Updated),
		zap.Int("skipped", result.Skipped),
		zap.Int("errors", len(result.Errors)),
	)
	return result, nil
}

func (s *ImportService) importRow(ctx context.Context, row resolvedRow, opts ImportOptions, result *ImportResult) error {
	existing, err := s.db.FindRelationshipBetween(ctx, row.characterID, row.relatedID)
	if err != nil {
		return fmt.Errorf("checking existing relationship: %w", err)
	}

	if opts.DryRun {
		switch {
		case existing == nil:
			result.Imported++
		case opts.OnConflict == ConflictUpdate:
			result.Updated++
		default:
			result.Skipped++
		}
		return nil
	}

	if existing == nil {
		_, err = s.relationships.Add(ctx, row.characterID, row.relatedID, row.raw.Type, row.raw.Metadata)
		if err == nil {
			result.Imported++
			return nil
		}
		if !errors.Is(err, ErrRelationshipExists) {
			return rowError(row, err, result)
		}
		// Lost a race with a concurrent writer; treat it as a conflict.
		existing, err = s.db.FindRelationshipBetween(ctx, row.characterID, row.relatedID)
		if err != nil {
			return fmt.Errorf("checking existing relationship: %w", err)
		}
		if existing == nil {
			return fmt.Errorf("%w: %s -> %s", ErrRelationshipNotFound, row.characterID, row.relatedID)
		}
	}

	if opts.OnConflict != ConflictUpdate {
		result.Skipped++
		return nil
	}

	relType := row.raw.Type
	if _, err := s.relationships.Update(ctx, existing.ID, RelationshipUpdate{Type: &relType, Metadata: row.raw.Metadata}); err != nil {
		return rowError(row, err, result)
	}
	result.Updated++
	return nil
}

// rowError records domain rejections against the row and passes storage
// errors through.
func rowError(row resolvedRow, err error, result *ImportResult) error {
	switch {
	case errors.Is(err, ErrSelfRelationship),
		errors.Is(err, ErrCrossBookRelationship),
		errors.Is(err, ErrInvalidRelationType),
		errors.Is(err, ErrCharacterNotFound),
		errors.Is(err, ErrRelationshipNotFound):
		result.Errors = append(result.Errors, ImportError{
			Line:    row.line,
			Field:   "related",
			Value:   row.raw.Related,
			Message: err.Error(),
		})
		return nil
	default:
		return fmt.Errorf("line %d: %w", row.line, err)
	}
}

func validateRawRelationship(raw *parsers.RawRelationship, index int, chars *characterIndex) (resolvedRow, *ImportError) {
	line := raw.LineNum
	if line == 0 {
		line = index
	}

	if entities.Canonicalize(raw.Type) == "" {
		return resolvedRow{}, &ImportError{Line: line, Field: "type", Value: raw.Type, Message: "type is required"}
	}

	characterID, msg := chars.resolve(raw.Character)
	if msg != "" {
		return resolvedRow{}, &ImportError{Line: line, Field: "character", Value: raw.Character, Message: msg}
	}
	relatedID, msg := chars.resolve(raw.Related)
	if msg != "" {
		return resolvedRow{}, &ImportError{Line: line, Field: "related", Value: raw.Related, Message: msg}
	}
	if characterID == relatedID {
		return resolvedRow{}, &ImportError{Line: line, Field: "related", Value: raw.Related, Message: ErrSelfRelationship.Error()}
	}

	return resolvedRow{raw: raw, line: line, characterID: characterID, relatedID: relatedID}, nil
}

// characterIndex resolves a reference to a character id by exact id or by
// case-insensitive display name.
type characterIndex struct {
	ids   map[string]bool
	names map[string][]string
}

func newCharacterIndex(chars []entities.Character) *characterIndex {
	idx := &characterIndex{
		ids:   make(map[string]bool, len(chars)),
		names: make(map[string][]string, len(chars)),
	}
	for i := range chars {
		c := &chars[i]
		idx.ids[c.ID] = true
		if name := strings.ToLower(c.DisplayName()); name != "" {
			idx.names[name] = append(idx.names[name], c.ID)
		}
	}
	return idx
}

// resolve returns the character id, or a message explaining why ref matched
// nothing or more than one character.
func (idx *characterIndex) resolve(ref string) (string, string) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", "character is required"
	}
	if idx.ids[ref] {
		return ref, ""
	}
	switch ids := idx.names[strings.ToLower(ref)]; len(ids) {
	case 0:
		return "", fmt.Sprintf("no character named %q in this book", ref)
	case 1:
		return ids[0], ""
	default:
		return "", fmt.Sprintf("%d characters are named %q; use an id", len(ids), ref)
	}
}
