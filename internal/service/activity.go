package service

import (
	"context"
	"strings"
	"time"

	"github.com/bookster/catalog-server/internal/domain"
	domainerrors "github.com/bookster/catalog-server/internal/errors"
)

// SetStatusRequest records a user's reading status for a book.
// Nil dates keep previously stored dates.
type SetStatusRequest struct {
	UserID     string
	BookID     string
	Status     domain.ReadingStatus
	StartedAt  *time.Time
	FinishedAt *time.Time
}

// SetReaction records userID's reaction to bookID, replacing any previous
// reaction, and re-indexes the book so its counters stay current.
func (s *CatalogService) SetReaction(ctx context.Context, userID, bookID string, reaction domain.Reaction) (*domain.UserBookReaction, error) {
	userID, bookID, err := activityIdentity(userID, bookID)
	if err != nil {
		return nil, err
	}
	parsed, err := domain.ParseReaction(string(reaction))
	if err != nil {
		return nil, domainerrors.InvalidArgument(err.Error())
	}

	if err := s.requireBook(ctx, bookID); err != nil {
		return nil, err
	}

	saved, err := s.store.UpsertReaction(ctx, &domain.UserBookReaction{
		UserID:   userID,
		BookID:   bookID,
		Reaction: parsed,
	})
	if err != nil {
		return nil, storeError(err, "record reaction on %s", bookID)
	}

	if err := s.IndexBook(ctx, bookID); err != nil {
		return nil, err
	}

	s.logger.Info("reaction recorded", "user_id", userID, "book_id", bookID, "reaction", parsed)
	return saved, nil
}

// SetStatus records a reading status, replacing any previous status, and
// re-indexes the book so its counters stay current.
func (s *CatalogService) SetStatus(ctx context.Context, req SetStatusRequest) (*domain.UserBookStatus, error) {
	userID, bookID, err := activityIdentity(req.UserID, req.BookID)
	if err != nil {
		return nil, err
	}
	status, err := domain.ParseReadingStatus(string(req.Status))
	if err != nil {
		return nil, domainerrors.InvalidArgument(err.Error())
	}
	if req.StartedAt != nil && req.FinishedAt != nil && req.FinishedAt.Before(*req.StartedAt) {
		return nil, domainerrors.InvalidArgument("finishedAt must not be before startedAt")
	}

	if err := s.requireBook(ctx, bookID); err != nil {
		return nil, err
	}

	saved, err := s.store.UpsertStatus(ctx, &domain.UserBookStatus{
		UserID:     userID,
		BookID:     bookID,
		Status:     status,
		StartedAt:  req.StartedAt,
		FinishedAt: req.FinishedAt,
	})
	if err != nil {
		return nil, storeError(err, "record status on %s", bookID)
	}

	if err := s.IndexBook(ctx, bookID); err != nil {
		return nil, err
	}

	s.logger.Info("reading status recorded", "user_id", userID, "book_id", bookID, "status", status)
	return saved, nil
}

func activityIdentity(userID, bookID string) (string, string, error) {
	userID = strings.TrimSpace(userID)
	bookID = strings.TrimSpace(bookID)
	if userID == "" {
		return "", "", domainerrors.InvalidArgument("user id is required")
	}
	if bookID == "" {
		return "", "", domainerrors.InvalidArgument("book id is required")
	}
	return userID, bookID, nil
}

// requireBook returns NotFound when the book does not exist.
func (s *CatalogService) requireBook(ctx context.Context, bookID string) error {
	if _, err := s.store.GetBook(ctx, bookID); err != nil {
		return storeError(err, "book %s", bookID)
	}
	return nil
}
