package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"coursemarket/internal/server/service"
	"coursemarket/internal/shared/models"
)

type createCourseRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	PriceCents  int64  `json:"price_cents"`
}

type updateCourseRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	PriceCents  *int64  `json:"price_cents"`
}

type createLessonRequest struct {
	CourseID string `json:"course_id"`
	Title    string `json:"title"`
	Content  string `json:"content"`
	Position int    `json:"position"`
}

func (r *Router) handleCreateCourse(w http.ResponseWriter, req *http.Request) {
	var body createCourseRequest
	if !r.decodeJSON(w, req, &body) {
		return
	}
	c := callerFrom(req.Context())
	course, err := r.services.Courses.Create(req.Context(), c.UserID, body.Title, body.Description, body.PriceCents)
	if err != nil {
		r.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, course)
}

func (r *Router) handleListCourses(w http.ResponseWriter, req *http.Request) {
	courses, err := r.services.Courses.List(req.Context())
	if err != nil {
		r.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, courses)
}

func (r *Router) handleGetCourse(w http.ResponseWriter, req *http.Request) {
	detail, err := r.services.Courses.Get(req.Context(), chi.URLParam(req, "id"))
	if err != nil {
		r.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

func (r *Router) handleUpdateCourse(w http.ResponseWriter, req *http.Request) {
	var body updateCourseRequest
	if !r.decodeJSON(w, req, &body) {
		return
	}
	c := callerFrom(req.Context())
	course, err := r.services.Courses.Update(req.Context(), c.UserID, chi.URLParam(req, "id"), service.CoursePatch{
		Title:       body.Title,
		Description: body.Description,
		PriceCents:  body.PriceCents,
	})
	if err != nil {
		r.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, course)
}

func (r *Router) handleDeleteCourse(w http.ResponseWriter, req *http.Request) {
	c := callerFrom(req.Context())
	if err := r.services.Courses.Delete(req.Context(), c.UserID, chi.URLParam(req, "id")); err != nil {
		r.writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (r *Router) handleCreateLesson(w http.ResponseWriter, req *http.Request) {
	var body createLessonRequest
	if !r.decodeJSON(w, req, &body) {
		return
	}
	c := callerFrom(req.Context())
	lesson, err := r.services.Courses.AddLesson(req.Context(), c.UserID, models.Lesson{
		CourseID: body.CourseID,
		Title:    body.Title,
		Content:  body.Content,
		Position: body.Position,
	})
	if err != nil {
		r.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, lesson)
}

func (r *Router) handleListLessons(w http.ResponseWriter, req *http.Request) {
	lessons, err := r.services.Courses.Lessons(req.Context(), chi.URLParam(req, "id"))
	if err != nil {
		r.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, lessons)
}
