package httpapi

import (
	"net/http"

	"coursemarket/internal/shared/models"
)

type signupRequest struct {
	Email    string      `json:"email"`
	Password string      `json:"password"`
	Name     string      `json:"name"`
	Role     models.Role `json:"role"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r *Router) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (r *Router) handleSignup(w http.ResponseWriter, req *http.Request) {
	var body signupRequest
	if !r.decodeJSON(w, req, &body) {
		return
	}
	user, token, err := r.services.Auth.Signup(req.Context(), body.Email, body.Password, body.Name, body.Role)
	if err != nil {
		r.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, models.TokenResponse{Message: "signup successful", Token: token, ID: user.ID})
}

func (r *Router) handleLogin(w http.ResponseWriter, req *http.Request) {
	var body loginRequest
	if !r.decodeJSON(w, req, &body) {
		return
	}
	user, token, err := r.services.Auth.Login(req.Context(), body.Email, body.Password)
	if err != nil {
		r.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, models.TokenResponse{Token: token, ID: user.ID})
}

func (r *Router) handleMe(w http.ResponseWriter, req *http.Request) {
	c := callerFrom(req.Context())
	user, err := r.services.Auth.Account(req.Context(), c.UserID)
	if err != nil {
		r.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}
