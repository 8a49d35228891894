package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

type createPurchaseRequest struct {
	CourseID string `json:"course_id"`
}

func (r *Router) handleCreatePurchase(w http.ResponseWriter, req *http.Request) {
	var body createPurchaseRequest
	if !r.decodeJSON(w, req, &body) {
		return
	}
	c := callerFrom(req.Context())
	purchase, err := r.services.Purchases.Create(req.Context(), c.UserID, body.CourseID)
	if err != nil {
		r.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, purchase)
}

func (r *Router) handleListPurchases(w http.ResponseWriter, req *http.Request) {
	c := callerFrom(req.Context())
	purchases, err := r.services.Purchases.ListForUser(req.Context(), c.UserID, chi.URLParam(req, "id"))
	if err != nil {
		r.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, purchases)
}
