// Package httpx provides HTTP response utilities.
package httpx

import (
	"net/http"

	"github.com/odyssey-erp/odyssey-orders/internal/shared"
)

// StatusFor maps an error classification to an HTTP status code.
func StatusFor(err error) int {
	if err == nil {
		return http.StatusOK
	}
	switch shared.KindOf(err) {
	case shared.KindValidation:
		return http.StatusBadRequest
	case shared.KindForbidden:
		return http.StatusForbidden
	case shared.KindNotFound:
		return http.StatusNotFound
	case shared.KindBusiness:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// RespondError writes the uniform failure result for err.
func RespondError(w http.ResponseWriter, err error) {
	JSON(w, StatusFor(err), Result{Success: false, Error: shared.PublicMessage(err)})
}
