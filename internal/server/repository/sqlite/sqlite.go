package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"coursemarket/internal/server/repository"
	"coursemarket/internal/shared/models"
)

type Repository struct {
	db *sql.DB
}

func New(dsn string) (*Repository, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	if err := runMigrations(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Repository{db: db}, nil
}

func (r *Repository) Close() error { return r.db.Close() }

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// Users

func (r *Repository) CreateUser(ctx context.Context, email string, passwordHash []byte, name string, role models.Role) (models.User, error) {
	id := uuid.NewString()
	now := time.Now().UTC()
	_, err := r.db.ExecContext(ctx, `INSERT INTO users(id,email,password_hash,name,role,created_at) VALUES(?,?,?,?,?,?)`,
		id, email, passwordHash, name, string(role), now)
	if err != nil {
		if isUniqueViolation(err) {
			return models.User{}, repository.ErrDuplicateEmail
		}
		return models.User{}, err
	}
	return models.User{ID: id, Email: email, Name: name, Role: role, CreatedAt: now}, nil
}

func (r *Repository) GetUserByEmail(ctx context.Context, email string) (models.User, []byte, error) {
	row := r.db.QueryRowContext(ctx, `SELECT id,email,password_hash,name,role,created_at FROM users WHERE email = ?`, email)
	var u models.User
	var hash []byte
	var role string
	if err := row.Scan(&u.ID, &u.Email, &hash, &u.Name, &role, &u.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.User{}, nil, repository.ErrNotFound
		}
		return models.User{}, nil, err
	}
	u.Role = models.Role(role)
	return u, hash, nil
}

func (r *Repository) GetUser(ctx context.Context, id string) (models.User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT id,email,name,role,created_at FROM users WHERE id = ?`, id)
	var u models.User
	var role string
	if err := row.Scan(&u.ID, &u.Email, &u.Name, &role, &u.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.User{}, repository.ErrNotFound
		}
		return models.User{}, err
	}
	u.Role = models.Role(role)
	return u, nil
}

// Courses

func (r *Repository) CreateCourse(ctx context.Context, c models.Course) (models.Course, error) {
	c.ID = uuid.NewString()
	now := time.Now().UTC()
	c.CreatedAt = now
	c.UpdatedAt = now
	_, err := r.db.ExecContext(ctx, `INSERT INTO courses(id,instructor_id,title,description,price_cents,created_at,updated_at) VALUES(?,?,?,?,?,?,?)`,
		c.ID, c.InstructorID, c.Title, c.Description, c.PriceCents, c.CreatedAt, c.UpdatedAt)
	if err != nil {
		return models.Course{}, err
	}
	return c, nil
}

func (r *Repository) ListCourses(ctx context.Context) ([]models.Course, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id,instructor_id,title,description,price_cents,created_at,updated_at FROM courses ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []models.Course{}
	for rows.Next() {
		var c models.Course
		if err := rows.Scan(&c.ID, &c.InstructorID, &c.Title, &c.Description, &c.PriceCents, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *Repository) GetCourse(ctx context.Context, id string) (models.Course, error) {
	row := r.db.QueryRowContext(ctx, `SELECT id,instructor_id,title,description,price_cents,created_at,updated_at FROM courses WHERE id = ?`, id)
	var c models.Course
	if err := row.Scan(&c.ID, &c.InstructorID, &c.Title, &c.Description, &c.PriceCents, &c.CreatedAt, &c.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Course{}, repository.ErrNotFound
		}
		return models.Course{}, err
	}
	return c, nil
}

func (r *Repository) UpdateCourse(ctx context.Context, c models.Course) (models.Course, error) {
	c.UpdatedAt = time.Now().UTC()
	res, err := r.db.ExecContext(ctx, `UPDATE courses SET title=?, description=?, price_cents=?, updated_at=? WHERE id=?`,
		c.Title, c.Description, c.PriceCents, c.UpdatedAt, c.ID)
	if err != nil {
		return models.Course{}, err
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return models.Course{}, repository.ErrNotFound
	}
	return c, nil
}

func (r *Repository) DeleteCourse(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM lessons WHERE course_id = ?`, id); err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, `DELETE FROM courses WHERE id = ?`, id)
	if err != nil {
		return err
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// Lessons

func (r *Repository) CreateLesson(ctx context.Context, l models.Lesson) (models.Lesson, error) {
	l.ID = uuid.NewString()
	l.CreatedAt = time.Now().UTC()
	_, err := r.db.ExecContext(ctx, `INSERT INTO lessons(id,course_id,title,content,position,created_at) VALUES(?,?,?,?,?,?)`,
		l.ID, l.CourseID, l.Title, l.Content, l.Position, l.CreatedAt)
	if err != nil {
		return models.Lesson{}, err
	}
	return l, nil
}

func (r *Repository) ListLessons(ctx context.Context, courseID string) ([]models.Lesson, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id,course_id,title,content,position,created_at FROM lessons WHERE course_id = ? ORDER BY position, created_at`, courseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []models.Lesson{}
	for rows.Next() {
		var l models.Lesson
		if err := rows.Scan(&l.ID, &l.CourseID, &l.Title, &l.Content, &l.Position, &l.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

// Purchases

// CreatePurchase inserts unconditionally; the UNIQUE(user_id, course_id)
// constraint turns a duplicate into ErrAlreadyPurchased without a racy
// check-then-insert sequence.
func (r *Repository) CreatePurchase(ctx context.Context, userID, courseID string) (models.Purchase, error) {
	p := models.Purchase{ID: uuid.NewString(), UserID: userID, CourseID: courseID, CreatedAt: time.Now().UTC()}
	_, err := r.db.ExecContext(ctx, `INSERT INTO purchases(id,user_id,course_id,created_at) VALUES(?,?,?,?)`,
		p.ID, p.UserID, p.CourseID, p.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return models.Purchase{}, repository.ErrAlreadyPurchased
		}
		return models.Purchase{}, err
	}
	return p, nil
}

func (r *Repository) ListPurchases(ctx context.Context, userID string) ([]models.Purchase, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT p.id, p.user_id, p.course_id, p.created_at,
		       c.id, c.instructor_id, c.title, c.description, c.price_cents, c.created_at, c.updated_at
		FROM purchases p
		JOIN courses c ON c.id = p.course_id
		WHERE p.user_id = ?
		ORDER BY p.created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []models.Purchase{}
	for rows.Next() {
		var p models.Purchase
		var c models.Course
		if err := rows.Scan(&p.ID, &p.UserID, &p.CourseID, &p.CreatedAt,
			&c.ID, &c.InstructorID, &c.Title, &c.Description, &c.PriceCents, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		p.Course = &c
		out = append(out, p)
	}
	return out, rows.Err()
}
