package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/bookster/catalog-server/internal/domain"
)

// UpsertReaction records a user's reaction, replacing any previous one.
// Returns store.ErrNotFound if the book does not exist.
func (s *Store) UpsertReaction(ctx context.Context, r *domain.UserBookReaction) (*domain.UserBookReaction, error) {
	now := time.Now().UTC()

	var (
		out       domain.UserBookReaction
		reaction  string
		createdAt string
		updatedAt string
	)
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO user_book_reactions (user_id, book_id, reaction, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (user_id, book_id) DO UPDATE SET
			reaction = excluded.reaction,
			updated_at = excluded.updated_at
		RETURNING user_id, book_id, reaction, created_at, updated_at`,
		r.UserID, r.BookID, string(r.Reaction), formatTime(now), formatTime(now),
	).Scan(&out.UserID, &out.BookID, &reaction, &createdAt, &updatedAt)
	if err != nil {
		return nil, mapWriteError(err, "reaction")
	}

	out.Reaction = domain.Reaction(reaction)
	if out.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if out.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpsertStatus records a user's reading status, replacing any previous one.
// Dates omitted on update keep their stored values.
// Returns store.ErrNotFound if the book does not exist.
func (s *Store) UpsertStatus(ctx context.Context, st *domain.UserBookStatus) (*domain.UserBookStatus, error) {
	now := time.Now().UTC()

	var (
		out        domain.UserBookStatus
		status     string
		startedAt  sql.NullString
		finishedAt sql.NullString
		createdAt  string
		updatedAt  string
	)
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO user_book_statuses (user_id, book_id, status, started_at, finished_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id, book_id) DO UPDATE SET
			status = excluded.status,
			started_at = COALESCE(excluded.started_at, user_book_statuses.started_at),
			finished_at = COALESCE(excluded.finished_at, user_book_statuses.finished_at),
			updated_at = excluded.updated_at
		RETURNING user_id, book_id, status, started_at, finished_at, created_at, updated_at`,
		st.UserID, st.BookID, string(st.Status),
		nullTimeString(st.StartedAt), nullTimeString(st.FinishedAt),
		formatTime(now), formatTime(now),
	).Scan(&out.UserID, &out.BookID, &status, &startedAt, &finishedAt, &createdAt, &updatedAt)
	if err != nil {
		return nil, mapWriteError(err, "reading status")
	}

	out.Status = domain.ReadingStatus(status)
	if out.StartedAt, err = parseNullableTime(startedAt); err != nil {
		return nil, err
	}
	if out.FinishedAt, err = parseNullableTime(finishedAt); err != nil {
		return nil, err
	}
	if out.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if out.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &out, nil
}

// CountReactions returns how many users gave a book the reaction.
func (s *Store) CountReactions(ctx context.Context, bookID string, reaction domain.Reaction) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM user_book_reactions WHERE book_id = ? AND reaction = ?`,
		bookID, string(reaction),
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count reactions: %w", err)
	}
	return count, nil
}

// CountStatuses returns how many users hold the status on a book.
func (s *Store) CountStatuses(ctx context.Context, bookID string, status domain.ReadingStatus) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM user_book_statuses WHERE book_id = ? AND status = ?`,
		bookID, string(status),
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count statuses: %w", err)
	}
	return count, nil
}
