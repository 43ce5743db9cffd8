package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/bookster/catalog-server/internal/domain"
	"github.com/bookster/catalog-server/internal/store"
)

// UpsertAuthor creates the author or updates its name and sort name.
// The external identity is only written on create.
func (s *Store) UpsertAuthor(ctx context.Context, author *domain.Author) error {
	if author.ID == "" {
		return store.ErrInvalidInput.WithMessage("author id is required")
	}
	if author.CreatedAt.IsZero() {
		author.InitTimestamps()
	} else {
		author.Touch()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO authors (id, created_at, updated_at, name, sort_name, external_source, external_id)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			name = excluded.name,
			sort_name = excluded.sort_name,
			updated_at = excluded.updated_at`,
		author.ID,
		formatTime(author.CreatedAt),
		formatTime(author.UpdatedAt),
		author.Name,
		nullString(author.SortName),
		nullString(string(author.ExternalSource)),
		nullString(author.ExternalID),
	)
	return mapWriteError(err, "author")
}

// UpsertBookAuthor links an author to a book, replacing role and position
// when the link already exists.
func (s *Store) UpsertBookAuthor(ctx context.Context, bookID string, credit domain.BookAuthor) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO book_authors (book_id, author_id, role, position)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (book_id, author_id) DO UPDATE SET
			role = excluded.role,
			position = excluded.position`,
		bookID, credit.ID, credit.Role, credit.Position,
	)
	return mapWriteError(err, "book author")
}

// loadBookAuthors returns a book's credits ordered by position, then by
// insertion.
func (s *Store) loadBookAuthors(ctx context.Context, q querier, bookID string) ([]domain.BookAuthor, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT a.id, a.created_at, a.updated_at, a.name, a.sort_name,
			a.external_source, a.external_id, ba.role, ba.position
		FROM book_authors ba
		JOIN authors a ON a.id = ba.author_id
		WHERE ba.book_id = ?
		ORDER BY ba.position ASC, ba.rowid ASC`, bookID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	credits := []domain.BookAuthor{}
	for rows.Next() {
		var (
			c              domain.BookAuthor
			createdAt      string
			updatedAt      string
			sortName       sql.NullString
			externalSource sql.NullString
			externalID     sql.NullString
		)
		if err := rows.Scan(
			&c.ID, &createdAt, &updatedAt, &c.Name, &sortName,
			&externalSource, &externalID, &c.Role, &c.Position,
		); err != nil {
			return nil, fmt.Errorf("scan book author: %w", err)
		}
		if c.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, err
		}
		if c.UpdatedAt, err = parseTime(updatedAt); err != nil {
			return nil, err
		}
		c.SortName = sortName.String
		c.ExternalSource = domain.ExternalSource(externalSource.String)
		c.ExternalID = externalID.String
		credits = append(credits, c)
	}
	return credits, rows.Err()
}
