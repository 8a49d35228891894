package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"coursemarket/internal/server/config"
	"coursemarket/internal/server/repository"
	"coursemarket/internal/shared/models"
	"coursemarket/internal/shared/passhash"
)

type Repository interface {
	CreateUser(ctx context.Context, email string, passwordHash []byte, name string, role models.Role) (models.User, error)
	GetUserByEmail(ctx context.Context, email string) (models.User, []byte, error)
	GetUser(ctx context.Context, id string) (models.User, error)

	CreateCourse(ctx context.Context, c models.Course) (models.Course, error)
	ListCourses(ctx context.Context) ([]models.Course, error)
	GetCourse(ctx context.Context, id string) (models.Course, error)
	UpdateCourse(ctx context.Context, c models.Course) (models.Course, error)
	DeleteCourse(ctx context.Context, id string) error

	CreateLesson(ctx context.Context, l models.Lesson) (models.Lesson, error)
	ListLessons(ctx context.Context, courseID string) ([]models.Lesson, error)

	CreatePurchase(ctx context.Context, userID, courseID string) (models.Purchase, error)
	ListPurchases(ctx context.Context, userID string) ([]models.Purchase, error)
}

var (
	// ErrInvalidCredentials covers both unknown email and wrong password,
	// so login failures never reveal which accounts exist.
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid token")
	ErrEmailTaken         = errors.New("email already registered")
	ErrAccountNotFound    = errors.New("account not found")

	// ErrNotOwner covers both "course does not exist" and "course belongs to
	// someone else" on mutation paths, so non-owners cannot probe for ids.
	ErrNotOwner       = errors.New("not authorized")
	ErrCourseNotFound = errors.New("course not found")

	ErrAlreadyPurchased = errors.New("course already purchased")
	ErrAccessDenied     = errors.New("access denied")
)

// ValidationError marks a rejected request payload. The message is safe to
// return to the caller.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

func invalid(msg string) error { return &ValidationError{Msg: msg} }

type Services struct {
	Auth      *AuthService
	Courses   *CourseService
	Purchases *PurchaseService
}

func NewServices(repo Repository, cfg config.Config) *Services {
	return &Services{
		Auth:      &AuthService{repo: repo, jwtSecret: []byte(cfg.JWTSecret), tokenTTL: cfg.TokenTTL},
		Courses:   &CourseService{repo: repo},
		Purchases: &PurchaseService{repo: repo},
	}
}

// Claims is the typed bundle carried by every issued token.
type Claims struct {
	Role models.Role `json:"role"`
	jwt.RegisteredClaims
}

// AuthService implements signup, password verification and JWT issuance.
// Tokens carry {sub, role, exp} and stay valid until they expire or the
// secret changes; there is no revocation list.
type AuthService struct {
	repo      Repository
	jwtSecret []byte
	tokenTTL  time.Duration
}

func (a *AuthService) Signup(ctx context.Context, email, password, name string, role models.Role) (models.User, string, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	switch {
	case email == "" || !strings.Contains(email, "@"):
		return models.User{}, "", invalid("valid email required")
	case len(password) < 8:
		return models.User{}, "", invalid("password must be at least 8 characters")
	case strings.TrimSpace(name) == "":
		return models.User{}, "", invalid("name required")
	case !role.Valid():
		return models.User{}, "", invalid("role must be STUDENT or INSTRUCTOR")
	}
	phc, err := passhash.Hash(password)
	if err != nil {
		return models.User{}, "", err
	}
	user, err := a.repo.CreateUser(ctx, email, []byte(phc), strings.TrimSpace(name), role)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return models.User{}, "", ErrEmailTaken
		}
		return models.User{}, "", err
	}
	token, err := a.IssueToken(user.ID, user.Role)
	if err != nil {
		return models.User{}, "", err
	}
	return user, token, nil
}

func (a *AuthService) Login(ctx context.Context, email, password string) (models.User, string, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	user, hash, err := a.repo.GetUserByEmail(ctx, email)
	if err != nil {
		return models.User{}, "", ErrInvalidCredentials
	}
	ok, err := passhash.Verify(string(hash), password)
	if err != nil || !ok {
		return models.User{}, "", ErrInvalidCredentials
	}
	token, err := a.IssueToken(user.ID, user.Role)
	if err != nil {
		return models.User{}, "", err
	}
	return user, token, nil
}

func (a *AuthService) IssueToken(userID string, role models.Role) (string, error) {
	claims := Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(a.tokenTTL)),
		},
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(a.jwtSecret)
}

// ParseToken verifies the signature and returns the typed claims.
// Any structural or signature problem collapses into ErrInvalidToken.
func (a *AuthService) ParseToken(_ context.Context, token string) (Claims, error) {
	var claims Claims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return a.jwtSecret, nil
	})
	if err != nil || !parsed.Valid {
		return Claims{}, ErrInvalidToken
	}
	if claims.Subject == "" || !claims.Role.Valid() {
		return Claims{}, ErrInvalidToken
	}
	return claims, nil
}

func (a *AuthService) Account(ctx context.Context, id string) (models.User, error) {
	user, err := a.repo.GetUser(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return models.User{}, ErrAccountNotFound
		}
		return models.User{}, err
	}
	return user, nil
}

// CourseService owns course and lesson lifecycle. Every mutation of a course
// or its lessons re-reads the course and compares the stored instructor id to
// the caller before writing.
type CourseService struct {
	repo Repository
}

func (s *CourseService) Create(ctx context.Context, instructorID, title, description string, priceCents int64) (models.Course, error) {
	if strings.TrimSpace(title) == "" {
		return models.Course{}, invalid("title required")
	}
	if priceCents < 0 {
		return models.Course{}, invalid("price_cents must not be negative")
	}
	return s.repo.CreateCourse(ctx, models.Course{
		InstructorID: instructorID,
		Title:        strings.TrimSpace(title),
		Description:  description,
		PriceCents:   priceCents,
	})
}

func (s *CourseService) List(ctx context.Context) ([]models.Course, error) {
	return s.repo.ListCourses(ctx)
}

// Get returns the course with its lessons. Unlike the mutation paths this is
// a public read, so a missing id is a distinct not-found.
func (s *CourseService) Get(ctx context.Context, id string) (models.CourseDetail, error) {
	course, err := s.repo.GetCourse(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return models.CourseDetail{}, ErrCourseNotFound
		}
		return models.CourseDetail{}, err
	}
	lessons, err := s.repo.ListLessons(ctx, id)
	if err != nil {
		return models.CourseDetail{}, err
	}
	return models.CourseDetail{Course: course, Lessons: lessons}, nil
}

// requireOwner fetches the course and checks ownership. A missing course and
// an ownership mismatch are indistinguishable to the caller.
func (s *CourseService) requireOwner(ctx context.Context, callerID, courseID string) (models.Course, error) {
	course, err := s.repo.GetCourse(ctx, courseID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return models.Course{}, ErrNotOwner
		}
		return models.Course{}, err
	}
	if course.InstructorID != callerID {
		return models.Course{}, ErrNotOwner
	}
	return course, nil
}

// CoursePatch carries the optional fields of a partial update.
type CoursePatch struct {
	Title       *string
	Description *string
	PriceCents  *int64
}

func (s *CourseService) Update(ctx context.Context, callerID, courseID string, patch CoursePatch) (models.Course, error) {
	course, err := s.requireOwner(ctx, callerID, courseID)
	if err != nil {
		return models.Course{}, err
	}
	if patch.Title != nil {
		if strings.TrimSpace(*patch.Title) == "" {
			return models.Course{}, invalid("title must not be empty")
		}
		course.Title = strings.TrimSpace(*patch.Title)
	}
	if patch.Description != nil {
		course.Description = *patch.Description
	}
	if patch.PriceCents != nil {
		if *patch.PriceCents < 0 {
			return models.Course{}, invalid("price_cents must not be negative")
		}
		course.PriceCents = *patch.PriceCents
	}
	return s.repo.UpdateCourse(ctx, course)
}

func (s *CourseService) Delete(ctx context.Context, callerID, courseID string) error {
	if _, err := s.requireOwner(ctx, callerID, courseID); err != nil {
		return err
	}
	return s.repo.DeleteCourse(ctx, courseID)
}

func (s *CourseService) AddLesson(ctx context.Context, callerID string, lesson models.Lesson) (models.Lesson, error) {
	if lesson.CourseID == "" {
		return models.Lesson{}, invalid("course_id required")
	}
	if strings.TrimSpace(lesson.Title) == "" {
		return models.Lesson{}, invalid("title required")
	}
	if _, err := s.requireOwner(ctx, callerID, lesson.CourseID); err != nil {
		return models.Lesson{}, err
	}
	lesson.Title = strings.TrimSpace(lesson.Title)
	return s.repo.CreateLesson(ctx, lesson)
}

// Lessons lists a course's lessons for the public endpoint; the course must exist.
func (s *CourseService) Lessons(ctx context.Context, courseID string) ([]models.Lesson, error) {
	if _, err := s.repo.GetCourse(ctx, courseID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrCourseNotFound
		}
		return nil, err
	}
	return s.repo.ListLessons(ctx, courseID)
}

// PurchaseService creates and lists purchases. Duplicate protection lives in
// the storage layer's unique constraint, so two concurrent buys of the same
// course by the same student cannot both land.
type PurchaseService struct {
	repo Repository
}

func (s *PurchaseService) Create(ctx context.Context, userID, courseID string) (models.Purchase, error) {
	if courseID == "" {
		return models.Purchase{}, invalid("course_id required")
	}
	if _, err := s.repo.GetCourse(ctx, courseID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return models.Purchase{}, ErrCourseNotFound
		}
		return models.Purchase{}, err
	}
	p, err := s.repo.CreatePurchase(ctx, userID, courseID)
	if err != nil {
		if errors.Is(err, repository.ErrAlreadyPurchased) {
			return models.Purchase{}, ErrAlreadyPurchased
		}
		return models.Purchase{}, err
	}
	return p, nil
}

// ListForUser returns callerID's purchases; a caller may only list their own.
func (s *PurchaseService) ListForUser(ctx context.Context, callerID, userID string) ([]models.Purchase, error) {
	if callerID != userID {
		return nil, ErrAccessDenied
	}
	return s.repo.ListPurchases(ctx, userID)
}
