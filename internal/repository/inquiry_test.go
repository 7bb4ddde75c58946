package repository

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"inquirydesk/internal/config"
	"inquirydesk/internal/database"
	"inquirydesk/internal/domain"
	apperrors "inquirydesk/pkg/errors"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	conn, err := database.Open(&config.DatabaseConfig{
		URL: "sqlite:///" + filepath.Join(t.TempDir(), "repo.db"),
	})
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := conn.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return conn
}

func newInquiry(name string, createdAt time.Time) *domain.Inquiry {
	email := name + "@example.com"
	course := "Go backend"
	return &domain.Inquiry{
		CreatedAt:       createdAt,
		FullName:        name,
		PhoneNumber:     decimal.RequireFromString("5551234"),
		DateOfBirth:     datatypes.Date(time.Date(2000, time.January, 1, 0, 0, 0, 0, time.UTC)),
		Email:           &email,
		CourseSelection: &course,
	}
}

func TestCreateAndFindByID(t *testing.T) {
	ctx := context.Background()
	repo := NewGormRepository(newTestDB(t))

	in := newInquiry("alice", time.Time{})
	if err := repo.Create(ctx, in); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if in.ID == 0 {
		t.Fatalf("store did not assign an id")
	}
	if in.CreatedAt.IsZero() {
		t.Fatalf("created_at not stamped")
	}

	got, err := repo.FindByID(ctx, in.ID)
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if got.FullName != "alice" || !got.PhoneNumber.Equal(decimal.NewFromInt(5551234)) {
		t.Fatalf("unexpected record %+v", got)
	}
	if got.CourseSelection == nil || *got.CourseSelection != "Go backend" {
		t.Fatalf("course_selection = %v", got.CourseSelection)
	}
	if got.Gender != nil {
		t.Fatalf("gender should be NULL")
	}
	if d := got.BirthDate().Format("2006-01-02"); d != "2000-01-01" {
		t.Fatalf("date_of_birth = %s", d)
	}
}

func TestFindByIDMissing(t *testing.T) {
	repo := NewGormRepository(newTestDB(t))

	_, err := repo.FindByID(context.Background(), 404)
	if !apperrors.IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestFindPageOrdersNewestFirst(t *testing.T) {
	ctx := context.Background()
	repo := NewGormRepository(newTestDB(t))

	base := time.Date(2026, time.March, 1, 9, 0, 0, 0, time.UTC)
	for i := 0; i < 25; i++ {
		if err := repo.Create(ctx, newInquiry("lead", base.Add(time.Duration(i)*time.Hour))); err != nil {
			t.Fatalf("Create #%d: %v", i, err)
		}
	}

	total, err := repo.Count(ctx)
	if err != nil || total != 25 {
		t.Fatalf("Count = %d, %v", total, err)
	}

	first, err := repo.FindPage(ctx, 0, 10)
	if err != nil {
		t.Fatalf("FindPage: %v", err)
	}
	if len(first) != 10 {
		t.Fatalf("page 1 has %d rows", len(first))
	}
	if !first[0].CreatedAt.Equal(base.Add(24 * time.Hour)) {
		t.Fatalf("newest row first, got %v", first[0].CreatedAt)
	}
	for i := 1; i < len(first); i++ {
		if first[i].CreatedAt.After(first[i-1].CreatedAt) {
			t.Fatalf("rows not sorted by created_at desc at %d", i)
		}
	}
	// summary rows leave the long-form profile unloaded
	if first[0].CourseSelection != nil {
		t.Fatalf("summary row loaded course_selection")
	}
	if first[0].Email == nil {
		t.Fatalf("summary row is missing email")
	}

	last, err := repo.FindPage(ctx, 20, 10)
	if err != nil || len(last) != 5 {
		t.Fatalf("page 3 = %d rows, %v", len(last), err)
	}
	beyond, err := repo.FindPage(ctx, 30, 10)
	if err != nil || len(beyond) != 0 {
		t.Fatalf("page 4 = %d rows, %v", len(beyond), err)
	}
}

func TestUpdateWritesOnlyGivenColumns(t *testing.T) {
	ctx := context.Background()
	repo := NewGormRepository(newTestDB(t))

	in := newInquiry("bob", time.Time{})
	if err := repo.Create(ctx, in); err != nil {
		t.Fatalf("Create: %v", err)
	}

	err := repo.Update(ctx, in.ID, map[string]any{
		domain.ColCgpa:  int64(9),
		domain.ColEmail: nil,
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}

	got, err := repo.FindByID(ctx, in.ID)
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if got.Cgpa == nil || *got.Cgpa != 9 {
		t.Fatalf("cgpa = %v", got.Cgpa)
	}
	if got.Email != nil {
		t.Fatalf("email should be cleared, got %q", *got.Email)
	}
	if got.FullName != "bob" || got.CourseSelection == nil {
		t.Fatalf("untouched columns changed: %+v", got)
	}
	if !got.CreatedAt.Equal(in.CreatedAt) {
		t.Fatalf("created_at changed from %v to %v", in.CreatedAt, got.CreatedAt)
	}
}

func TestUpdateAndDeleteMissing(t *testing.T) {
	ctx := context.Background()
	repo := NewGormRepository(newTestDB(t))

	if err := repo.Update(ctx, 77, map[string]any{domain.ColFullName: "x"}); !apperrors.IsNotFound(err) {
		t.Fatalf("Update missing: %v", err)
	}
	if err := repo.Delete(ctx, 77); !apperrors.IsNotFound(err) {
		t.Fatalf("Delete missing: %v", err)
	}
	if err := repo.Update(ctx, 77, nil); err != nil {
		t.Fatalf("empty update should be a no-op, got %v", err)
	}
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	repo := NewGormRepository(newTestDB(t))

	in := newInquiry("carol", time.Time{})
	if err := repo.Create(ctx, in); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := repo.Delete(ctx, in.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := repo.FindByID(ctx, in.ID); !apperrors.IsNotFound(err) {
		t.Fatalf("record still present: %v", err)
	}
}

func TestCreatedBetweenIsInclusive(t *testing.T) {
	ctx := context.Background()
	repo := NewGormRepository(newTestDB(t))

	start := time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, time.December, 31, 23, 59, 59, 999999999, time.UTC)
	stamps := []time.Time{
		start.Add(-time.Second), // previous year
		start,
		time.Date(2026, time.June, 15, 12, 0, 0, 0, time.UTC),
		time.Date(2026, time.December, 31, 23, 59, 59, 0, time.UTC),
		end.Add(time.Nanosecond), // next year
	}
	for i, ts := range stamps {
		if err := repo.Create(ctx, newInquiry("lead", ts)); err != nil {
			t.Fatalf("Create #%d: %v", i, err)
		}
	}

	times, err := repo.CreatedBetween(ctx, start, end)
	if err != nil {
		t.Fatalf("CreatedBetween: %v", err)
	}
	if len(times) != 3 {
		t.Fatalf("got %d timestamps, want 3: %v", len(times), times)
	}
}
