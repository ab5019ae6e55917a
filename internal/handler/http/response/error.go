package response

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/cmlabs-hris/timeclock-reconciler/internal/domain/auth"
	"github.com/cmlabs-hris/timeclock-reconciler/internal/domain/employee"
	"github.com/cmlabs-hris/timeclock-reconciler/internal/domain/master/location"
	"github.com/cmlabs-hris/timeclock-reconciler/internal/domain/timeclock"
	"github.com/cmlabs-hris/timeclock-reconciler/internal/pkg/validator"
)

// HandleError maps domain errors to HTTP responses
func HandleError(w http.ResponseWriter, err error) {
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		writeError(w, http.StatusUnprocessableEntity, codeValidation, "Validation failed", validationErrs.ToMap())
		return
	}

	switch {
	// Auth errors
	case errors.Is(err, auth.ErrInvalidToken):
		Unauthorized(w, "Invalid or expired token")
	case errors.Is(err, auth.ErrOperatorAccessRequired):
		writeError(w, http.StatusForbidden, codeForbidden, "Operator access required", nil)

	// Timeclock domain errors
	case errors.Is(err, timeclock.ErrRequestNotFound):
		writeError(w, http.StatusNotFound, codeNotFound, "Timeclock request not found", nil)
	case errors.Is(err, timeclock.ErrRequestNotProcessing):
		writeError(w, http.StatusConflict, codeConflict, "Timeclock request is not processing", nil)
	case errors.Is(err, timeclock.ErrRequestInFlight):
		writeError(w, http.StatusConflict, codeConflict, "Timeclock request is being processed by the worker", nil)
	case errors.Is(err, timeclock.ErrInvalidRequestStatus):
		BadRequest(w, "Invalid timeclock request status", nil)

	// Master data errors
	case errors.Is(err, employee.ErrEmployeeNotFound):
		writeError(w, http.StatusNotFound, codeNotFound, "Employee not found", nil)
	case errors.Is(err, location.ErrLocationNotFound):
		writeError(w, http.StatusNotFound, codeNotFound, "Location not found", nil)

	// Default
	default:
		slog.Error("Unhandled error", "error", err)
		writeError(w, http.StatusInternalServerError, codeInternal, "An unexpected error occurred", nil)
	}
}
