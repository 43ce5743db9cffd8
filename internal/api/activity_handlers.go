package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/bookster/catalog-server/internal/domain"
	domainerrors "github.com/bookster/catalog-server/internal/errors"
	"github.com/bookster/catalog-server/internal/service"
)

func (s *Server) registerActivityRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "setReaction",
		Method:      http.MethodPost,
		Path:        "/api/v1/books/{id}/reaction",
		Summary:     "Set reaction",
		Description: "Records the caller's LIKE or DISLIKE for a book, replacing any earlier reaction",
		Tags:        []string{"Activity"},
		Security:    bearerSecurity,
	}, s.handleSetReaction)

	huma.Register(s.api, huma.Operation{
		OperationID: "setReadingStatus",
		Method:      http.MethodPost,
		Path:        "/api/v1/books/{id}/status",
		Summary:     "Set reading status",
		Description: "Records the caller's reading status for a book",
		Tags:        []string{"Activity"},
		Security:    bearerSecurity,
	}, s.handleSetStatus)
}

// SetReactionBody is the reaction payload.
type SetReactionBody struct {
	Reaction string `json:"reaction" validate:"required,reaction" doc:"LIKE or DISLIKE"`
}

// SetReactionInput contains parameters for setting a reaction.
type SetReactionInput struct {
	ID   string `path:"id" maxLength:"128" doc:"Book ID"`
	Body SetReactionBody
}

// ReactionOutput wraps a stored reaction for Huma.
type ReactionOutput struct {
	Body *domain.UserBookReaction
}

// SetStatusBody is the reading status payload.
type SetStatusBody struct {
	Status     string     `json:"status" validate:"required,reading_status" doc:"WANT, READING, READ or DNF"`
	StartedAt  *time.Time `json:"startedAt,omitempty" doc:"When reading started"`
	FinishedAt *time.Time `json:"finishedAt,omitempty" doc:"When reading finished"`
}

// SetStatusInput contains parameters for setting a reading status.
type SetStatusInput struct {
	ID   string `path:"id" maxLength:"128" doc:"Book ID"`
	Body SetStatusBody
}

// StatusOutput wraps a stored reading status for Huma.
type StatusOutput struct {
	Body *domain.UserBookStatus
}

func (s *Server) handleSetReaction(ctx context.Context, input *SetReactionInput) (*ReactionOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, statusError(err)
	}
	if err := s.validator.Validate(&input.Body); err != nil {
		return nil, statusError(err)
	}

	reaction, err := domain.ParseReaction(input.Body.Reaction)
	if err != nil {
		return nil, domainerrors.InvalidArgument(err.Error())
	}

	record, err := s.catalog.SetReaction(ctx, userID, input.ID, reaction)
	if err != nil {
		return nil, statusError(err)
	}
	return &ReactionOutput{Body: record}, nil
}

func (s *Server) handleSetStatus(ctx context.Context, input *SetStatusInput) (*StatusOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, statusError(err)
	}
	if err := s.validator.Validate(&input.Body); err != nil {
		return nil, statusError(err)
	}

	status, err := domain.ParseReadingStatus(input.Body.Status)
	if err != nil {
		return nil, domainerrors.InvalidArgument(err.Error())
	}
	if start, finish := input.Body.StartedAt, input.Body.FinishedAt; start != nil && finish != nil && finish.Before(*start) {
		return nil, domainerrors.InvalidArgumentWithDetails("validation failed", map[string]string{
			"finishedAt": "must not be before startedAt",
		})
	}

	record, err := s.catalog.SetStatus(ctx, service.SetStatusRequest{
		UserID:     userID,
		BookID:     input.ID,
		Status:     status,
		StartedAt:  input.Body.StartedAt,
		FinishedAt: input.Body.FinishedAt,
	})
	if err != nil {
		return nil, statusError(err)
	}
	return &StatusOutput{Body: record}, nil
}
