package service

import (
	"errors"
	"fmt"

	domainerrors "github.com/bookster/catalog-server/internal/errors"
	"github.com/bookster/catalog-server/internal/store"
)

// storeError maps store sentinels to domain error kinds.
func storeError(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	msg := fmt.Sprintf(format, args...)
	switch {
	case errors.Is(err, store.ErrNotFound):
		return domainerrors.Wrap(err, domainerrors.CodeNotFound, msg)
	case errors.Is(err, store.ErrAlreadyExists):
		return domainerrors.Wrap(err, domainerrors.CodeConflict, msg)
	case errors.Is(err, store.ErrInvalidInput):
		return domainerrors.Wrap(err, domainerrors.CodeInvalidArgument, msg)
	}
	return domainerrors.Wrap(err, domainerrors.CodeInternal, msg)
}

// indexError keeps index failures reported as UpstreamUnavailable unless
// the index already classified them.
func indexError(err error, msg string) error {
	if err == nil {
		return nil
	}
	var de *domainerrors.Error
	if errors.As(err, &de) {
		return err
	}
	return domainerrors.UpstreamUnavailable(err, msg)
}
