package domain

import (
	"errors"
	"fmt"
)

var (
	ErrClientNotFound   = errors.New("client not found")
	ErrIntakeNotFound   = errors.New("intake not found")
	ErrDocumentNotFound = errors.New("document not found")

	ErrInvalidInput     = errors.New("invalid input")
	ErrUnsupportedMedia = errors.New("unsupported media type")
	ErrDuplicateUpload  = errors.New("duplicate document")
	ErrNotClassified    = errors.New("document not classified")

	ErrTemporary = errors.New("temporary failure")
)

// WrapError preserves typed semantic errors with operation context.
func WrapError(kind error, operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", operation, kind, err)
}

func IsKind(err error, kind error) bool {
	return errors.Is(err, kind)
}
