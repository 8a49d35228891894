package httpapi

import (
	"errors"
	"net/http"
	"time"

	"coursemarket/internal/server/service"
)

// errorResponse is the single envelope every failure is normalized into.
type errorResponse struct {
	Error      string `json:"error"`
	StatusCode int    `json:"statusCode"`
	Timestamp  string `json:"timestamp"`
}

func (r *Router) writeError(w http.ResponseWriter, status int, msg string) {
	if r.logger != nil {
		r.logger.Printf("request failed: %d %s", status, msg)
	}
	writeJSON(w, status, errorResponse{
		Error:      msg,
		StatusCode: status,
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
	})
}

// writeServiceError is the terminal stage for failures propagated out of the
// service layer. Anything unrecognized becomes a 500 with a generic message;
// the full error only reaches the log.
func (r *Router) writeServiceError(w http.ResponseWriter, err error) {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		r.writeError(w, http.StatusBadRequest, verr.Msg)
	case errors.Is(err, service.ErrInvalidCredentials):
		r.writeError(w, http.StatusUnauthorized, "invalid credentials")
	case errors.Is(err, service.ErrInvalidToken):
		r.writeError(w, http.StatusUnauthorized, "invalid token")
	case errors.Is(err, service.ErrEmailTaken):
		r.writeError(w, http.StatusConflict, "email already registered")
	case errors.Is(err, service.ErrAccountNotFound):
		r.writeError(w, http.StatusNotFound, "account not found")
	case errors.Is(err, service.ErrCourseNotFound):
		r.writeError(w, http.StatusNotFound, "course not found")
	case errors.Is(err, service.ErrNotOwner):
		r.writeError(w, http.StatusForbidden, "not authorized")
	case errors.Is(err, service.ErrAccessDenied):
		r.writeError(w, http.StatusForbidden, "access denied")
	case errors.Is(err, service.ErrAlreadyPurchased):
		r.writeError(w, http.StatusConflict, "course already purchased")
	default:
		if r.logger != nil {
			r.logger.Printf("internal error: %v", err)
		}
		r.writeError(w, http.StatusInternalServerError, "internal server error")
	}
}
