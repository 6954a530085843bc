package service_test

import (
	"context"
	"testing"

	"classroom/internal/classroom/adapter/inmem"
	"classroom/internal/classroom/repository"
	"classroom/internal/classroom/service"
	"classroom/internal/domain"
)

func newStudents() *service.Resource {
	repo := repository.New(inmem.NewStore(), nil)
	return service.NewResource(repo, "student", "students")
}

func TestResourceCreateReturnsDocument(t *testing.T) {
	svc := newStudents()

	doc, err := svc.Create(context.Background(), map[string]any{"name": "Michael Scott", "GPA": 1.2})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if doc.ID == "" {
		t.Error("expected assigned id")
	}
	if doc.Fields["name"] != "Michael Scott" {
		t.Errorf("expected submitted fields back, got %v", doc.Fields)
	}
}

func TestResourceGetByIDRemapsNotFound(t *testing.T) {
	svc := newStudents()

	_, err := svc.GetByID(context.Background(), "missing")
	e, ok := domain.AsError(err)
	if !ok {
		t.Fatalf("expected taxonomy error, got %v", err)
	}
	if e.Kind != domain.KindService {
		t.Errorf("expected ServiceError, got %v", e.Kind)
	}
	if e.Code != "STUDENT_NOT_FOUND" {
		t.Errorf("expected STUDENT_NOT_FOUND, got %q", e.Code)
	}
	if e.StatusCode != 404 {
		t.Errorf("the private 551 signal must be remapped to 404, got %d", e.StatusCode)
	}
}

func TestResourceGetByFieldRemapsNotFound(t *testing.T) {
	repo := repository.New(inmem.NewStore(), nil)
	svc := service.NewResource(repo, "assignment", "assignments")

	_, err := svc.GetByField(context.Background(), "subject", "biology")
	e, ok := domain.AsError(err)
	if !ok || e.Code != "ASSIGNMENT_NOT_FOUND" || e.StatusCode != 404 {
		t.Fatalf("expected ASSIGNMENT_NOT_FOUND 404, got %v", err)
	}
}

func TestResourceUpdateMissingIsNotFound(t *testing.T) {
	svc := newStudents()

	_, err := svc.Update(context.Background(), "missing", map[string]any{"GPA": 3.0})
	e, ok := domain.AsError(err)
	if !ok || e.Kind != domain.KindService {
		t.Fatalf("expected ServiceError, got %v", err)
	}
	// A failed merge write is a generic service failure, not a 551 leak.
	if e.StatusCode == domain.StatusRepositoryNotFound {
		t.Error("551 must never escape the repository layer")
	}
	if e.Message != "could not update student" {
		t.Errorf("expected sanitized message, got %q", e.Message)
	}
}

func TestResourceDeleteMissingIsNotFound(t *testing.T) {
	svc := newStudents()

	err := svc.Delete(context.Background(), "missing")
	e, ok := domain.AsError(err)
	if !ok || e.Code != "STUDENT_NOT_FOUND" || e.StatusCode != 404 {
		t.Fatalf("expected STUDENT_NOT_FOUND 404, got %v", err)
	}
}

func TestResourceLifecycle(t *testing.T) {
	ctx := context.Background()
	svc := newStudents()

	created, err := svc.Create(ctx, map[string]any{"name": "Jim", "GPA": 3.4})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := svc.Update(ctx, created.ID, map[string]any{"GPA": 3.9}); err != nil {
		t.Fatalf("update: %v", err)
	}

	got, err := svc.GetByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Fields["name"] != "Jim" || got.Fields["GPA"] != 3.9 {
		t.Errorf("expected merged fields, got %v", got.Fields)
	}

	all, err := svc.GetAll(ctx)
	if err != nil || len(all) != 1 {
		t.Fatalf("get all: docs=%d err=%v", len(all), err)
	}

	if err := svc.Delete(ctx, created.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := svc.GetByID(ctx, created.ID); err == nil {
		t.Error("expected not-found after delete")
	}
}
