package handler

import (
	"errors"
	"net/http"

	"github.com/jwalitptl/polyclinic-api/internal/model"
)

// StatusFromError maps a domain error to its HTTP status. Unknown errors are
// treated as store-level failures and surface as 500.
func StatusFromError(err error) int {
	switch {
	case model.IsValidation(err):
		return http.StatusBadRequest
	case errors.Is(err, model.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, model.ErrDuplicateName),
		errors.Is(err, model.ErrSlotTaken),
		errors.Is(err, model.ErrServiceInactive):
		return http.StatusConflict
	case errors.Is(err, model.ErrInvalidCredentials):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}
