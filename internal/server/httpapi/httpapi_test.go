package httpapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"coursemarket/internal/server/config"
	"coursemarket/internal/server/repository/sqlite"
	"coursemarket/internal/server/service"
)

func newTestServer(t *testing.T, name string) http.Handler {
	t.Helper()
	repo, err := sqlite.New("file:" + name + "?mode=memory&cache=shared")
	if err != nil {
		t.Fatalf("repo: %v", err)
	}
	t.Cleanup(func() { _ = repo.Close() })
	cfg := config.Config{JWTSecret: "test", TokenTTL: time.Hour, MaxRequestBytes: 1 << 20}
	svcs := service.NewServices(repo, cfg)
	return NewRouter(svcs, nil, cfg, nil)
}

func doJSON(t *testing.T, ts http.Handler, method, path string, body any, token string) *httptest.ResponseRecorder {
	t.Helper()
	var buf *bytes.Buffer
	if body != nil {
		b, _ := json.Marshal(body)
		buf = bytes.NewBuffer(b)
	} else {
		buf = &bytes.Buffer{}
	}
	req, _ := http.NewRequest(method, path, buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	ts.ServeHTTP(rr, req)
	return rr
}

func signup(t *testing.T, ts http.Handler, email, name, role string) (id, token string) {
	t.Helper()
	rr := doJSON(t, ts, "POST", "/api/v1/auth/signup",
		map[string]string{"email": email, "password": "pw123456", "name": name, "role": role}, "")
	if rr.Code != http.StatusOK {
		t.Fatalf("signup %s: %d %s", email, rr.Code, rr.Body.String())
	}
	var out struct {
		Token string `json:"token"`
		ID    string `json:"id"`
	}
	_ = json.Unmarshal(rr.Body.Bytes(), &out)
	if out.Token == "" || out.ID == "" {
		t.Fatalf("signup %s: empty token or id: %s", email, rr.Body.String())
	}
	return out.ID, out.Token
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t, "api_health")
	rr := doJSON(t, ts, "GET", "/health", nil, "")
	if rr.Code != http.StatusOK {
		t.Fatalf("health status: %d", rr.Code)
	}
}

func TestSignupLoginMe(t *testing.T) {
	ts := newTestServer(t, "api_signup_login")

	id, token := signup(t, ts, "u@example.com", "U", "STUDENT")

	// login with the same credentials
	rr := doJSON(t, ts, "POST", "/api/v1/auth/login",
		map[string]string{"email": "u@example.com", "password": "pw123456"}, "")
	if rr.Code != http.StatusOK {
		t.Fatalf("login: %d %s", rr.Code, rr.Body.String())
	}
	var login struct {
		Token string `json:"token"`
		ID    string `json:"id"`
	}
	_ = json.Unmarshal(rr.Body.Bytes(), &login)
	if login.ID != id || login.Token == "" {
		t.Fatalf("login mismatch: %s", rr.Body.String())
	}

	// /me with the signup token
	rr = doJSON(t, ts, "GET", "/api/v1/me", nil, token)
	if rr.Code != http.StatusOK {
		t.Fatalf("me: %d %s", rr.Code, rr.Body.String())
	}
	var me struct {
		ID    string `json:"id"`
		Email string `json:"email"`
		Name  string `json:"name"`
		Role  string `json:"role"`
	}
	_ = json.Unmarshal(rr.Body.Bytes(), &me)
	if me.ID != id || me.Email != "u@example.com" || me.Role != "STUDENT" {
		t.Fatalf("me mismatch: %s", rr.Body.String())
	}

	// bad password is a uniform 401
	rr = doJSON(t, ts, "POST", "/api/v1/auth/login",
		map[string]string{"email": "u@example.com", "password": "wrong-password"}, "")
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("bad login: %d", rr.Code)
	}
}

// TestCourseLifecycle follows the end-to-end scenario: an instructor signs up,
// creates a course, the public detail shows it with an empty lessons array,
// and a second instructor's delete attempt is denied.
func TestCourseLifecycle(t *testing.T) {
	ts := newTestServer(t, "api_course_lifecycle")

	id, token := signup(t, ts, "a@x.com", "A", "INSTRUCTOR")
	_, rivalToken := signup(t, ts, "b@x.com", "B", "INSTRUCTOR")

	rr := doJSON(t, ts, "POST", "/api/v1/courses", map[string]string{"title": "T"}, token)
	if rr.Code != http.StatusOK {
		t.Fatalf("create course: %d %s", rr.Code, rr.Body.String())
	}
	var course struct {
		ID           string `json:"id"`
		InstructorID string `json:"instructor_id"`
		Title        string `json:"title"`
	}
	_ = json.Unmarshal(rr.Body.Bytes(), &course)
	if course.InstructorID != id || course.Title != "T" {
		t.Fatalf("course fields: %s", rr.Body.String())
	}

	// public detail includes an empty lessons array, not null
	rr = doJSON(t, ts, "GET", "/api/v1/courses/"+course.ID, nil, "")
	if rr.Code != http.StatusOK {
		t.Fatalf("get course: %d", rr.Code)
	}
	var detail map[string]json.RawMessage
	_ = json.Unmarshal(rr.Body.Bytes(), &detail)
	if string(detail["lessons"]) != "[]" {
		t.Fatalf("lessons should be empty array, got %s", detail["lessons"])
	}

	// delete by a second instructor's token is denied
	rr = doJSON(t, ts, "DELETE", "/api/v1/courses/"+course.ID, nil, rivalToken)
	if rr.Code != http.StatusForbidden {
		t.Fatalf("rival delete: %d %s", rr.Code, rr.Body.String())
	}

	// owner delete succeeds, then the public read 404s
	rr = doJSON(t, ts, "DELETE", "/api/v1/courses/"+course.ID, nil, token)
	if rr.Code != http.StatusNoContent {
		t.Fatalf("owner delete: %d %s", rr.Code, rr.Body.String())
	}
	rr = doJSON(t, ts, "GET", "/api/v1/courses/"+course.ID, nil, "")
	if rr.Code != http.StatusNotFound {
		t.Fatalf("deleted course read: %d", rr.Code)
	}
}

func TestLessonsFlow(t *testing.T) {
	ts := newTestServer(t, "api_lessons")

	_, token := signup(t, ts, "i@x.com", "I", "INSTRUCTOR")
	rr := doJSON(t, ts, "POST", "/api/v1/courses", map[string]string{"title": "Go"}, token)
	var course struct {
		ID string `json:"id"`
	}
	_ = json.Unmarshal(rr.Body.Bytes(), &course)

	rr = doJSON(t, ts, "POST", "/api/v1/lessons",
		map[string]any{"course_id": course.ID, "title": "Intro", "content": "hello", "position": 1}, token)
	if rr.Code != http.StatusCreated {
		t.Fatalf("create lesson: %d %s", rr.Code, rr.Body.String())
	}

	// public lesson listing
	rr = doJSON(t, ts, "GET", "/api/v1/courses/"+course.ID+"/lessons", nil, "")
	if rr.Code != http.StatusOK {
		t.Fatalf("list lessons: %d", rr.Code)
	}
	var lessons []struct {
		Title string `json:"title"`
	}
	_ = json.Unmarshal(rr.Body.Bytes(), &lessons)
	if len(lessons) != 1 || lessons[0].Title != "Intro" {
		t.Fatalf("lessons: %s", rr.Body.String())
	}

	// listing lessons of a missing course is a distinct 404
	rr = doJSON(t, ts, "GET", "/api/v1/courses/no-such/lessons", nil, "")
	if rr.Code != http.StatusNotFound {
		t.Fatalf("missing course lessons: %d", rr.Code)
	}
}

func TestPurchaseFlow(t *testing.T) {
	ts := newTestServer(t, "api_purchases")

	_, insToken := signup(t, ts, "sell@x.com", "Sell", "INSTRUCTOR")
	stuID, stuToken := signup(t, ts, "buy@x.com", "Buy", "STUDENT")

	rr := doJSON(t, ts, "POST", "/api/v1/courses", map[string]string{"title": "Paid"}, insToken)
	var course struct {
		ID string `json:"id"`
	}
	_ = json.Unmarshal(rr.Body.Bytes(), &course)

	// purchase, then the same purchase again conflicts
	rr = doJSON(t, ts, "POST", "/api/v1/purchases", map[string]string{"course_id": course.ID}, stuToken)
	if rr.Code != http.StatusCreated {
		t.Fatalf("purchase: %d %s", rr.Code, rr.Body.String())
	}
	rr = doJSON(t, ts, "POST", "/api/v1/purchases", map[string]string{"course_id": course.ID}, stuToken)
	if rr.Code != http.StatusConflict {
		t.Fatalf("duplicate purchase: %d %s", rr.Code, rr.Body.String())
	}

	// missing course is 404
	rr = doJSON(t, ts, "POST", "/api/v1/purchases", map[string]string{"course_id": "no-such"}, stuToken)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("purchase of missing course: %d", rr.Code)
	}

	// exactly one purchase on record, course nested
	rr = doJSON(t, ts, "GET", "/api/v1/users/"+stuID+"/purchases", nil, stuToken)
	if rr.Code != http.StatusOK {
		t.Fatalf("list purchases: %d %s", rr.Code, rr.Body.String())
	}
	var purchases []struct {
		CourseID string `json:"course_id"`
		Course   *struct {
			Title string `json:"title"`
		} `json:"course"`
	}
	_ = json.Unmarshal(rr.Body.Bytes(), &purchases)
	if len(purchases) != 1 || purchases[0].CourseID != course.ID {
		t.Fatalf("purchases: %s", rr.Body.String())
	}
	if purchases[0].Course == nil || purchases[0].Course.Title != "Paid" {
		t.Fatalf("course not nested: %s", rr.Body.String())
	}
}

func TestRoleGating(t *testing.T) {
	ts := newTestServer(t, "api_role_gating")

	_, stuToken := signup(t, ts, "s@x.com", "S", "STUDENT")
	insID, insToken := signup(t, ts, "i2@x.com", "I", "INSTRUCTOR")

	// student on an instructor endpoint, valid payload or not
	rr := doJSON(t, ts, "POST", "/api/v1/courses", map[string]string{"title": "Nope"}, stuToken)
	if rr.Code != http.StatusForbidden {
		t.Fatalf("student create course: %d", rr.Code)
	}

	// instructor on the student-only purchase endpoint
	rr = doJSON(t, ts, "POST", "/api/v1/courses", map[string]string{"title": "Mine"}, insToken)
	var course struct {
		ID string `json:"id"`
	}
	_ = json.Unmarshal(rr.Body.Bytes(), &course)
	rr = doJSON(t, ts, "POST", "/api/v1/purchases", map[string]string{"course_id": course.ID}, insToken)
	if rr.Code != http.StatusForbidden {
		t.Fatalf("instructor purchase: %d", rr.Code)
	}

	// self-only purchase listing
	rr = doJSON(t, ts, "GET", "/api/v1/users/"+insID+"/purchases", nil, stuToken)
	if rr.Code != http.StatusForbidden {
		t.Fatalf("listing someone else's purchases: %d", rr.Code)
	}
}
