package httpadapter

import (
	"net/http"

	"github.com/kirillkom/legal-ai-assistant/internal/core/domain"
)

func mapErrorToHTTPStatus(err error) int {
	switch {
	case domain.IsKind(err, domain.ErrInvalidInput):
		return http.StatusBadRequest
	case domain.IsKind(err, domain.ErrUnknownProvider), domain.IsKind(err, domain.ErrConfigNotFound):
		return http.StatusNotFound
	case domain.IsKind(err, domain.ErrProviderInit):
		return http.StatusBadGateway
	case domain.IsKind(err, domain.ErrStoreUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
