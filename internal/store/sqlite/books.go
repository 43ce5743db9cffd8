package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/bookster/catalog-server/internal/domain"
	"github.com/bookster/catalog-server/internal/query"
	"github.com/bookster/catalog-server/internal/store"
)

// bookColumns is the ordered list of columns selected in book queries.
// Must match the scan order in scanBook.
const bookColumns = `b.id, b.created_at, b.updated_at, b.title, b.subtitle, b.description,
	b.language, b.published_year, b.cover_image_url, b.external_source, b.external_id`

// scanBook scans a sql.Row (or sql.Rows via its Scan method) into a domain.Book.
// Authors and genres are not loaded.
func scanBook(scanner interface{ Scan(dest ...any) error }) (*domain.Book, error) {
	var (
		b              domain.Book
		createdAt      string
		updatedAt      string
		subtitle       sql.NullString
		description    sql.NullString
		language       sql.NullString
		publishedYear  sql.NullInt64
		coverImageURL  sql.NullString
		externalSource sql.NullString
		externalID     sql.NullString
	)

	err := scanner.Scan(
		&b.ID,
		&createdAt,
		&updatedAt,
		&b.Title,
		&subtitle,
		&description,
		&language,
		&publishedYear,
		&coverImageURL,
		&externalSource,
		&externalID,
	)
	if err != nil {
		return nil, err
	}

	b.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, err
	}
	b.UpdatedAt, err = parseTime(updatedAt)
	if err != nil {
		return nil, err
	}

	b.Subtitle = subtitle.String
	b.Description = description.String
	b.Language = language.String
	b.PublishedYear = int(publishedYear.Int64)
	b.CoverImageURL = coverImageURL.String
	b.ExternalSource = domain.ExternalSource(externalSource.String)
	b.ExternalID = externalID.String

	return &b, nil
}

// GetBook retrieves a book by ID with its authors and genres.
// Returns store.ErrNotFound if the book does not exist.
func (s *Store) GetBook(ctx context.Context, id string) (*domain.Book, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+bookColumns+` FROM books b WHERE b.id = ?`, id)
	return s.hydrate(ctx, row)
}

// GetBookByExternalID retrieves a book by its (source, external id) pair.
// Returns store.ErrNotFound if no book carries that identity.
func (s *Store) GetBookByExternalID(ctx context.Context, source domain.ExternalSource, externalID string) (*domain.Book, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+bookColumns+` FROM books b WHERE b.external_source = ? AND b.external_id = ?`,
		string(source), externalID)
	return s.hydrate(ctx, row)
}

func (s *Store) hydrate(ctx context.Context, row *sql.Row) (*domain.Book, error) {
	b, err := scanBook(row)
	if isNoRows(err) {
		return nil, store.ErrNotFound.WithMessage("book not found")
	}
	if err != nil {
		return nil, err
	}
	if err := s.loadAssociations(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

func (s *Store) loadAssociations(ctx context.Context, b *domain.Book) error {
	var err error
	b.Authors, err = s.loadBookAuthors(ctx, s.db, b.ID)
	if err != nil {
		return fmt.Errorf("load authors for %s: %w", b.ID, err)
	}
	b.Genres, err = s.loadBookGenres(ctx, s.db, b.ID)
	if err != nil {
		return fmt.Errorf("load genres for %s: %w", b.ID, err)
	}
	b.Denormalize()
	return nil
}

// CreateBook inserts a book row. Associations are written separately.
// Returns store.ErrAlreadyExists if the id or external identity is taken.
func (s *Store) CreateBook(ctx context.Context, book *domain.Book) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO books (
			id, created_at, updated_at, title, subtitle, description,
			language, published_year, cover_image_url, external_source, external_id
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		book.ID,
		formatTime(book.CreatedAt),
		formatTime(book.UpdatedAt),
		book.Title,
		nullString(book.Subtitle),
		nullString(book.Description),
		nullString(book.Language),
		nullInt64(int64(book.PublishedYear)),
		nullString(book.CoverImageURL),
		nullString(string(book.ExternalSource)),
		nullString(book.ExternalID),
	)
	return mapWriteError(err, "book")
}

// UpdateBook overwrites every scalar column of an existing book.
// Empty fields are stored as NULL; callers merge before calling.
func (s *Store) UpdateBook(ctx context.Context, book *domain.Book) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE books SET
			updated_at = ?, title = ?, subtitle = ?, description = ?,
			language = ?, published_year = ?, cover_image_url = ?,
			external_source = ?, external_id = ?
		WHERE id = ?`,
		formatTime(book.UpdatedAt),
		book.Title,
		nullString(book.Subtitle),
		nullString(book.Description),
		nullString(book.Language),
		nullInt64(int64(book.PublishedYear)),
		nullString(book.CoverImageURL),
		nullString(string(book.ExternalSource)),
		nullString(book.ExternalID),
		book.ID,
	)
	if err != nil {
		return mapWriteError(err, "book")
	}

	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound.WithMessage("book not found")
	}
	return nil
}

// bookFilterClause renders f as a WHERE clause over alias b.
func bookFilterClause(f query.BookFilter) (string, []any) {
	var (
		conds []string
		args  []any
	)

	if f.TitleContains != "" {
		conds = append(conds, foldFunc+`(b.title) LIKE ? ESCAPE '\'`)
		args = append(args, "%"+escapeLike(foldText(f.TitleContains))+"%")
	}
	if f.Language != "" {
		conds = append(conds, `b.language = ?`)
		args = append(args, f.Language)
	}
	if f.YearMin > 0 {
		conds = append(conds, `b.published_year >= ?`)
		args = append(args, f.YearMin)
	}
	if f.YearMax > 0 {
		conds = append(conds, `b.published_year <= ?`)
		args = append(args, f.YearMax)
	}
	if len(f.GenreSlugs) > 0 {
		placeholders := strings.TrimSuffix(strings.Repeat("?,", len(f.GenreSlugs)), ",")
		conds = append(conds, `EXISTS (
			SELECT 1 FROM book_genres bg
			JOIN genres g ON g.id = bg.genre_id
			WHERE bg.book_id = b.id AND g.slug IN (`+placeholders+`))`)
		for _, slug := range f.GenreSlugs {
			args = append(args, slug)
		}
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

// SearchBooks returns books matching f ordered by title, with authors and
// genres loaded.
func (s *Store) SearchBooks(ctx context.Context, f query.BookFilter, page store.Page) ([]*domain.Book, error) {
	where, args := bookFilterClause(f)
	args = append(args, page.Limit, page.Offset)

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+bookColumns+` FROM books b`+where+`
		ORDER BY b.title COLLATE NOCASE ASC, b.id ASC
		LIMIT ? OFFSET ?`, args...)
	if err != nil {
		return nil, fmt.Errorf("search books: %w", err)
	}
	defer rows.Close()

	var books []*domain.Book
	for rows.Next() {
		b, err := scanBook(rows)
		if err != nil {
			return nil, fmt.Errorf("scan book: %w", err)
		}
		books = append(books, b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, b := range books {
		if err := s.loadAssociations(ctx, b); err != nil {
			return nil, err
		}
	}

	return books, nil
}

// CountBooks returns the number of books matching f.
func (s *Store) CountBooks(ctx context.Context, f query.BookFilter) (int, error) {
	where, args := bookFilterClause(f)

	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM books b`+where, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("count books: %w", err)
	}
	return count, nil
}

// ListBookIDs returns book ids in id order.
func (s *Store) ListBookIDs(ctx context.Context, page store.Page) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id FROM books ORDER BY id LIMIT ? OFFSET ?`, page.Limit, page.Offset)
	if err != nil {
		return nil, fmt.Errorf("list book ids: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
