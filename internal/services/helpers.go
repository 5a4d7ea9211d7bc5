package services

import (
	stderrors "errors"
	"strings"
	"unicode/utf8"

	"github.com/lingobox/lingobox/internal/errors"
	"github.com/lingobox/lingobox/internal/logger"
	"github.com/lingobox/lingobox/internal/repository"
)

// storageError maps a repository error to the caller-facing taxonomy, logging
// anything that is not a plain miss.
func storageError(log *logger.Logger, err error, resource string, id any, action string) error {
	if stderrors.Is(err, repository.ErrNotFound) {
		return errors.NewNotFoundError(resource, id)
	}
	if _, ok := errors.As(err); ok {
		return err
	}
	log.Error("failed to %s: %v", action, err)
	return errors.NewInternalError(err)
}

// requiredText trims s and checks it is non-empty and at most max runes.
func requiredText(field, s string, max int) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", errors.NewValidationError(field, "is required")
	}
	if utf8.RuneCountInString(s) > max {
		return "", errors.NewValidationError(field, "is too long")
	}
	return s, nil
}

func isNotFound(err error) bool {
	return stderrors.Is(err, repository.ErrNotFound)
}
