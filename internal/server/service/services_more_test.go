package service

import (
	"context"
	"errors"
	"testing"

	"coursemarket/internal/shared/models"
)

func twoInstructorsAndCourse(t *testing.T, svcs *Services) (owner, rival models.User, course models.Course) {
	t.Helper()
	ctx := context.Background()
	owner, _, err := svcs.Auth.Signup(ctx, "owner@x.com", "pw123456", "Owner", models.RoleInstructor)
	if err != nil {
		t.Fatal(err)
	}
	rival, _, err = svcs.Auth.Signup(ctx, "rival@x.com", "pw123456", "Rival", models.RoleInstructor)
	if err != nil {
		t.Fatal(err)
	}
	course, err = svcs.Courses.Create(ctx, owner.ID, "T", "desc", 1000)
	if err != nil {
		t.Fatal(err)
	}
	return owner, rival, course
}

func TestCourseOwnershipGate(t *testing.T) {
	svcs := newTestServices(t, "svc_ownership")
	ctx := context.Background()
	_, rival, course := twoInstructorsAndCourse(t, svcs)

	title := "hijacked"
	// non-owner and nonexistent id must be the same outcome
	_, errRival := svcs.Courses.Update(ctx, rival.ID, course.ID, CoursePatch{Title: &title})
	_, errGhost := svcs.Courses.Update(ctx, rival.ID, "no-such-course", CoursePatch{Title: &title})
	if !errors.Is(errRival, ErrNotOwner) || !errors.Is(errGhost, ErrNotOwner) {
		t.Fatalf("ownership outcomes differ: %v / %v", errRival, errGhost)
	}

	if err := svcs.Courses.Delete(ctx, rival.ID, course.ID); !errors.Is(err, ErrNotOwner) {
		t.Fatalf("rival delete: %v", err)
	}
	if _, err := svcs.Courses.AddLesson(ctx, rival.ID, models.Lesson{CourseID: course.ID, Title: "L"}); !errors.Is(err, ErrNotOwner) {
		t.Fatalf("rival lesson: %v", err)
	}

	// course untouched
	detail, err := svcs.Courses.Get(ctx, course.ID)
	if err != nil || detail.Title != "T" {
		t.Fatalf("course mutated by non-owner: %v %+v", err, detail)
	}
}

func TestCourseUpdateAndDeleteByOwner(t *testing.T) {
	svcs := newTestServices(t, "svc_owner_mutations")
	ctx := context.Background()
	owner, _, course := twoInstructorsAndCourse(t, svcs)

	desc := "new description"
	updated, err := svcs.Courses.Update(ctx, owner.ID, course.ID, CoursePatch{Description: &desc})
	if err != nil {
		t.Fatal(err)
	}
	if updated.Description != desc || updated.Title != "T" {
		t.Fatalf("patch touched wrong fields: %+v", updated)
	}

	lesson, err := svcs.Courses.AddLesson(ctx, owner.ID, models.Lesson{CourseID: course.ID, Title: "Intro", Content: "hello"})
	if err != nil || lesson.ID == "" {
		t.Fatalf("add lesson: %v", err)
	}
	detail, err := svcs.Courses.Get(ctx, course.ID)
	if err != nil || len(detail.Lessons) != 1 {
		t.Fatalf("get with lessons: %v %d", err, len(detail.Lessons))
	}

	if err := svcs.Courses.Delete(ctx, owner.ID, course.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := svcs.Courses.Get(ctx, course.ID); !errors.Is(err, ErrCourseNotFound) {
		t.Fatalf("expected distinct not-found on public read, got %v", err)
	}
	if _, err := svcs.Courses.Lessons(ctx, course.ID); !errors.Is(err, ErrCourseNotFound) {
		t.Fatalf("lessons of deleted course: %v", err)
	}
}

func TestPurchaseIdempotency(t *testing.T) {
	svcs := newTestServices(t, "svc_purchase")
	ctx := context.Background()
	_, _, course := twoInstructorsAndCourse(t, svcs)
	student, _, err := svcs.Auth.Signup(ctx, "stud@x.com", "pw123456", "S", models.RoleStudent)
	if err != nil {
		t.Fatal(err)
	}

	p, err := svcs.Purchases.Create(ctx, student.ID, course.ID)
	if err != nil || p.ID == "" {
		t.Fatalf("purchase: %v", err)
	}
	if _, err := svcs.Purchases.Create(ctx, student.ID, course.ID); !errors.Is(err, ErrAlreadyPurchased) {
		t.Fatalf("expected conflict on second purchase, got %v", err)
	}
	if _, err := svcs.Purchases.Create(ctx, student.ID, "no-such-course"); !errors.Is(err, ErrCourseNotFound) {
		t.Fatalf("expected course not found, got %v", err)
	}

	list, err := svcs.Purchases.ListForUser(ctx, student.ID, student.ID)
	if err != nil || len(list) != 1 {
		t.Fatalf("list: %v %d", err, len(list))
	}
	if list[0].Course == nil || list[0].Course.ID != course.ID {
		t.Fatalf("purchase missing nested course: %+v", list[0])
	}
}

func TestPurchaseListSelfOnly(t *testing.T) {
	svcs := newTestServices(t, "svc_purchase_self")
	ctx := context.Background()
	a, _, err := svcs.Auth.Signup(ctx, "a1@x.com", "pw123456", "A", models.RoleStudent)
	if err != nil {
		t.Fatal(err)
	}
	b, _, err := svcs.Auth.Signup(ctx, "b1@x.com", "pw123456", "B", models.RoleStudent)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := svcs.Purchases.ListForUser(ctx, a.ID, b.ID); !errors.Is(err, ErrAccessDenied) {
		t.Fatalf("expected access denied, got %v", err)
	}
}
