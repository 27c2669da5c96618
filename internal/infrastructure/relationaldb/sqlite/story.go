package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ersonp/lore-chronicle/internal/domain/entities"
)

// SaveBook saves or updates a book.
func (r *Repository) SaveBook(ctx context.Context, book *entities.Book) error {
	query := `
		INSERT INTO books (id, name, description, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			description = excluded.description
	`
	_, err := r.db.ExecContext(ctx, query,
		book.ID,
		book.Name,
		nullString(book.Description),
		book.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("saving book: %w", err)
	}
	return nil
}

// FindBookByID finds a book by its ID. Returns nil if not found.
func (r *Repository) FindBookByID(ctx context.Context, id string) (*entities.Book, error) {
	query := `SELECT id, name, description, created_at FROM books WHERE id = ?`
	row := r.db.QueryRowContext(ctx, query, id)

	var book entities.Book
	var description sql.NullString
	err := row.Scan(&book.ID, &book.Name, &description, &book.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scanning book: %w", err)
	}
	book.Description = description.String
	return &book, nil
}

// ListBooks lists all books ordered by name.
func (r *Repository) ListBooks(ctx context.Context) ([]entities.Book, error) {
	query := `SELECT id, name, description, created_at FROM books ORDER BY name ASC`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying books: %w", err)
	}
	defer rows.Close()

	var books []entities.Book
	for rows.Next() {
		var book entities.Book
		var description sql.NullString
		if err := rows.Scan(&book.ID, &book.Name, &description, &book.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning book: %w", err)
		}
		book.Description = description.String
		books = append(books, book)
	}
	return books, rows.Err()
}

const characterColumns = `id, book_id, first_name, last_name, gender, role, avatar, attributes, groups_json, position, created_at, updated_at`

// SaveCharacter saves or updates a character.
func (r *Repository) SaveCharacter(ctx context.Context, c *entities.Character) error {
	attributes, err := marshalJSON(c.Attributes, len(c.Attributes) == 0)
	if err != nil {
		return fmt.Errorf("marshaling attributes: %w", err)
	}
	groups, err := marshalJSON(c.Groups, len(c.Groups) == 0)
	if err != nil {
		return fmt.Errorf("marshaling groups: %w", err)
	}

	var gender sql.NullString
	if c.Gender != nil {
		gender = nullString(string(*c.Gender))
	}

	query := `
		INSERT INTO characters (` + characterColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			first_name = excluded.first_name,
			last_name = excluded.last_name,
			gender = excluded.gender,
			role = excluded.role,
			avatar = excluded.avatar,
			attributes = excluded.attributes,
			groups_json = excluded.groups_json,
			position = excluded.position,
			updated_at = excluded.updated_at
	`
	_, err = r.db.ExecContext(ctx, query,
		c.ID,
		c.BookID,
		c.FirstName,
		c.LastName,
		gender,
		string(c.Role.Normalize()),
		nullString(c.Avatar),
		attributes,
		groups,
		c.Position,
		c.CreatedAt,
		c.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("saving character: %w", err)
	}
	return nil
}

// FindCharacterByID finds a character by its ID. Returns nil if not found.
func (r *Repository) FindCharacterByID(ctx context.Context, id string) (*entities.Character, error) {
	return findCharacterByID(ctx, r.db, id)
}

// FindCharacterByID finds a character inside the transaction.
func (s *txStore) FindCharacterByID(ctx context.Context, id string) (*entities.Character, error) {
	return findCharacterByID(ctx, s.q, id)
}

func findCharacterByID(ctx context.Context, q querier, id string) (*entities.Character, error) {
	rows, err := q.QueryContext(ctx, `SELECT `+characterColumns+` FROM characters WHERE id = ?`, id)
	if err != nil {
		return nil, fmt.Errorf("querying character: %w", err)
	}
	chars, err := scanCharacters(rows)
	if err != nil {
		return nil, err
	}
	if len(chars) == 0 {
		return nil, nil
	}
	return &chars[0], nil
}

// ListCharacters lists the characters of a book in display order.
func (r *Repository) ListCharacters(ctx context.Context, bookID string) ([]entities.Character, error) {
	query := `
		SELECT ` + characterColumns + `
		FROM characters
		WHERE book_id = ?
		ORDER BY position ASC, created_at ASC, id ASC
	`
	rows, err := r.db.QueryContext(ctx, query, bookID)
	if err != nil {
		return nil, fmt.Errorf("querying characters: %w", err)
	}
	return scanCharacters(rows)
}

// DeleteCharacter deletes a character. Its relationships are removed by the
// foreign key cascade.
func (r *Repository) DeleteCharacter(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM characters WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting character: %w", err)
	}
	return nil
}

func scanCharacters(rows *sql.Rows) ([]entities.Character, error) {
	defer rows.Close()

	var chars []entities.Character
	for rows.Next() {
		var c entities.Character
		var gender, role, avatar, attributes, groups sql.NullString
		if err := rows.Scan(
			&c.ID,
			&c.BookID,
			&c.FirstName,
			&c.LastName,
			&gender,
			&role,
			&avatar,
			&attributes,
			&groups,
			&c.Position,
			&c.CreatedAt,
			&c.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scanning character: %w", err)
		}

		c.Gender = entities.ParseGender(gender.String)
		c.Role = entities.Role(role.String).Normalize()
		c.Avatar = avatar.String
		if err := unmarshalJSON(attributes, &c.Attributes); err != nil {
			return nil, fmt.Errorf("unmarshaling attributes: %w", err)
		}
		if err := unmarshalJSON(groups, &c.Groups); err != nil {
			return nil, fmt.Errorf("unmarshaling groups: %w", err)
		}
		chars = append(chars, c)
	}
	return chars, rows.Err()
}

// SaveChapter saves or updates a chapter.
func (r *Repository) SaveChapter(ctx context.Context, ch *entities.Chapter) error {
	query := `
		INSERT INTO chapters (id, book_id, name, position, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			position = excluded.position
	`
	_, err := r.db.ExecContext(ctx, query, ch.ID, ch.BookID, ch.Name, ch.Position, ch.CreatedAt)
	if err != nil {
		return fmt.Errorf("saving chapter: %w", err)
	}
	return nil
}

// FindChapterByID finds a chapter by its ID. Returns nil if not found.
func (r *Repository) FindChapterByID(ctx context.Context, id string) (*entities.Chapter, error) {
	query := `SELECT id, book_id, name, position, created_at FROM chapters WHERE id = ?`
	var ch entities.Chapter
	err := r.db.QueryRowContext(ctx, query, id).Scan(&ch.ID, &ch.BookID, &ch.Name, &ch.Position, &ch.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scanning chapter: %w", err)
	}
	return &ch, nil
}

// ListChapters lists the chapters of a book in order.
func (r *Repository) ListChapters(ctx context.Context, bookID string) ([]entities.Chapter, error) {
	query := `
		SELECT id, book_id, name, position, created_at
		FROM chapters
		WHERE book_id = ?
		ORDER BY position ASC, created_at ASC, id ASC
	`
	rows, err := r.db.QueryContext(ctx, query, bookID)
	if err != nil {
		return nil, fmt.Errorf("querying chapters: %w", err)
	}
	defer rows.Close()

	var chapters []entities.Chapter
	for rows.Next() {
		var ch entities.Chapter
		if err := rows.Scan(&ch.ID, &ch.BookID, &ch.Name, &ch.Position, &ch.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning chapter: %w", err)
		}
		chapters = append(chapters, ch)
	}
	return chapters, rows.Err()
}

const sceneColumns = `id, book_id, chapter_id, name, content, start_date, end_date, position, status, created_at`

// SaveScene saves or updates a scene.
func (r *Repository) SaveScene(ctx context.Context, s *entities.Scene) error {
	query := `
		INSERT INTO scenes (` + sceneColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			chapter_id = excluded.chapter_id,
			name = excluded.name,
			content = excluded.content,
			start_date = excluded.start_date,
			end_date = excluded.end_date,
			position = excluded.position,
			status = excluded.status
	`
	_, err := r.db.ExecContext(ctx, query,
		s.ID,
		s.BookID,
		s.ChapterID,
		s.Name,
		nullString(s.Content),
		nullStringPtr(s.StartDate),
		nullStringPtr(s.EndDate),
		s.Position,
		nullString(s.Status),
		s.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("saving scene: %w", err)
	}
	return nil
}

// ListScenes lists the scenes of a book.
func (r *Repository) ListScenes(ctx context.Context, bookID string) ([]entities.Scene, error) {
	query := `
		SELECT ` + sceneColumns + `
		FROM scenes
		WHERE book_id = ?
		ORDER BY position ASC, created_at ASC, id ASC
	`
	return r.queryScenes(ctx, query, bookID)
}

// ListScenesByChapter lists the scenes of a chapter in order.
func (r *Repository) ListScenesByChapter(ctx context.Context, chapterID string) ([]entities.Scene, error) {
	query := `
		SELECT ` + sceneColumns + `
		FROM scenes
		WHERE chapter_id = ?
		ORDER BY position ASC, created_at ASC, id ASC
	`
	return r.queryScenes(ctx, query, chapterID)
}

func (r *Repository) queryScenes(ctx context.Context, query string, args ...any) ([]entities.Scene, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying scenes: %w", err)
	}
	defer rows.Close()

	var scenes []entities.Scene
	for rows.Next() {
		var s entities.Scene
		var content, start, end, status sql.NullString
		if err := rows.Scan(
			&s.ID,
			&s.BookID,
			&s.ChapterID,
			&s.Name,
			&content,
			&start,
			&end,
			&s.Position,
			&status,
			&s.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scanning scene: %w", err)
		}
		s.Content = content.String
		s.StartDate = stringPtr(start)
		s.EndDate = stringPtr(end)
		s.Status = status.String
		scenes = append(scenes, s)
	}
	return scenes, rows.Err()
}
