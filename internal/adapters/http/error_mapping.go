package httpadapter

import (
	"net/http"

	"github.com/mfortin/tax-intake/internal/core/domain"
)

func mapErrorToHTTPStatus(err error) int {
	switch {
	case domain.IsKind(err, domain.ErrInvalidInput):
		return http.StatusBadRequest
	case domain.IsKind(err, domain.ErrNotClassified):
		return http.StatusBadRequest
	case domain.IsKind(err, domain.ErrClientNotFound),
		domain.IsKind(err, domain.ErrIntakeNotFound),
		domain.IsKind(err, domain.ErrDocumentNotFound):
		return http.StatusNotFound
	case domain.IsKind(err, domain.ErrDuplicateUpload):
		return http.StatusConflict
	case domain.IsKind(err, domain.ErrUnsupportedMedia):
		return http.StatusUnsupportedMediaType
	case domain.IsKind(err, domain.ErrTemporary):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
