package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/bookster/catalog-server/internal/domain"
	"github.com/bookster/catalog-server/internal/store"
)

// UpsertGenreBySlug creates the genre or renames the existing genre with
// the same slug. The returned genre carries the persisted id, which differs
// from the input id when the slug already existed.
func (s *Store) UpsertGenreBySlug(ctx context.Context, g *domain.Genre) (*domain.Genre, error) {
	if g.Slug == "" {
		return nil, store.ErrInvalidInput.WithMessage("genre slug is required")
	}
	if g.ID == "" {
		return nil, store.ErrInvalidInput.WithMessage("genre id is required")
	}

	now := time.Now().UTC()
	var (
		out       domain.Genre
		createdAt string
		updatedAt string
	)
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO genres (id, created_at, updated_at, name, slug)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (slug) DO UPDATE SET
			name = excluded.name,
			updated_at = excluded.updated_at
		RETURNING id, created_at, updated_at, name, slug`,
		g.ID, formatTime(now), formatTime(now), g.Name, g.Slug,
	).Scan(&out.ID, &createdAt, &updatedAt, &out.Name, &out.Slug)
	if err != nil {
		return nil, mapWriteError(err, "genre")
	}

	if out.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if out.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpsertBookGenre assigns a genre to a book. A nil confidence leaves an
// existing score in place.
func (s *Store) UpsertBookGenre(ctx context.Context, bookID, genreID string, confidence *float64) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO book_genres (book_id, genre_id, confidence)
		VALUES (?, ?, ?)
		ON CONFLICT (book_id, genre_id) DO UPDATE SET
			confidence = COALESCE(excluded.confidence, book_genres.confidence)`,
		bookID, genreID, nullFloat64(confidence),
	)
	return mapWriteError(err, "book genre")
}

// loadBookGenres returns a book's genres in assignment order.
func (s *Store) loadBookGenres(ctx context.Context, q querier, bookID string) ([]domain.BookGenre, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT g.id, g.created_at, g.updated_at, g.name, g.slug, bg.confidence
		FROM book_genres bg
		JOIN genres g ON g.id = bg.genre_id
		WHERE bg.book_id = ?
		ORDER BY bg.rowid ASC`, bookID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	genres := []domain.BookGenre{}
	for rows.Next() {
		var (
			bg         domain.BookGenre
			createdAt  string
			updatedAt  string
			confidence sql.NullFloat64
		)
		if err := rows.Scan(&bg.ID, &createdAt, &updatedAt, &bg.Name, &bg.Slug, &confidence); err != nil {
			return nil, fmt.Errorf("scan book genre: %w", err)
		}
		if bg.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, err
		}
		if bg.UpdatedAt, err = parseTime(updatedAt); err != nil {
			return nil, err
		}
		if confidence.Valid {
			v := confidence.Float64
			bg.Confidence = &v
		}
		genres = append(genres, bg)
	}
	return genres, rows.Err()
}
