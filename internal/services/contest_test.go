package services

import (
	"context"
	"fmt"
	"reflect"
	"testing"
	"time"

	"creative-arena-backend/internal/events"
	"creative-arena-backend/internal/models"
	"creative-arena-backend/internal/store"
)

func TestParsePage(t *testing.T) {
	tests := []struct {
		page, limit         string
		wantPage, wantLimit int
	}{
		{"", "", 1, 10},
		{"2", "5", 2, 5},
		{"abc", "x", 1, 10},
		{"0", "-3", 1, 10},
		{"3", "", 3, 10},
	}
	for _, tt := range tests {
		page, limit := ParsePage(tt.page, tt.limit)
		if page != tt.wantPage || limit != tt.wantLimit {
			t.Errorf("ParsePage(%q, %q) = %d, %d; want %d, %d", tt.page, tt.limit, page, limit, tt.wantPage, tt.wantLimit)
		}
	}
}

func TestContestService_CreateForcesPending(t *testing.T) {
	pub := &recordingPublisher{}
	svc := NewContestService(store.NewMemoryStore(), pub)

	c, err := svc.Create(context.Background(), "creator@example.com", CreateContestInput{
		Name:     "Poster Jam",
		Price:    15,
		Deadline: time.Now().Add(72 * time.Hour),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Status != models.ContestStatusPending || c.CreatedBy != "creator@example.com" {
		t.Fatalf("unexpected contest: %+v", c)
	}
	if c.Participants == nil || len(c.Participants) != 0 {
		t.Fatalf("expected empty participant set, got %v", c.Participants)
	}
	if c.CreatedAt.IsZero() {
		t.Fatalf("expected createdAt to be set")
	}
	if got := pub.types(); !reflect.DeepEqual(got, []string{events.ContestCreated}) {
		t.Fatalf("unexpected events: %v", got)
	}

	_, err = svc.Create(context.Background(), "creator@example.com", CreateContestInput{})
	assertKind(t, err, ErrBadRequest)
}

func TestContestService_ListPaginates(t *testing.T) {
	s := store.NewMemoryStore()
	svc := NewContestService(s, events.Noop{})
	for i := 0; i < 12; i++ {
		c := &models.Contest{Name: fmt.Sprintf("contest-%02d", i), Status: models.ContestStatusPending, CreatedAt: time.Now()}
		if err := s.CreateContest(context.Background(), c); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	page, err := svc.List(context.Background(), 2, 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(page.Contests) != 5 || page.Total != 12 {
		t.Fatalf("expected 5 of 12, got %d of %d", len(page.Contests), page.Total)
	}
	if page.Contests[0].Name != "contest-05" {
		t.Fatalf("expected page to start at contest-05, got %s", page.Contests[0].Name)
	}

	page, err = svc.List(context.Background(), 0, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(page.Contests) != 10 {
		t.Fatalf("expected default page size 10, got %d", len(page.Contests))
	}
}

func TestContestService_UpdateAllowList(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore()
	pub := &recordingPublisher{}
	svc := NewContestService(s, pub)
	c := seedContest(t, s, "creator@example.com", models.ContestStatusPending, 10)

	name := "Renamed"
	updated, err := svc.Update(ctx, "creator@example.com", c.ID, models.ContestUpdate{Name: &name})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.Name != "Renamed" || updated.Status != models.ContestStatusPending || updated.CreatedBy != "creator@example.com" {
		t.Fatalf("unexpected contest after update: %+v", updated)
	}

	_, err = svc.Update(ctx, "intruder@example.com", c.ID, models.ContestUpdate{Name: &name})
	assertKind(t, err, ErrForbidden)

	_, err = svc.Update(ctx, "creator@example.com", c.ID, models.ContestUpdate{})
	assertKind(t, err, ErrBadRequest)

	_, err = svc.Update(ctx, "creator@example.com", "missing", models.ContestUpdate{Name: &name})
	assertKind(t, err, ErrNotFound)

	if got := pub.types(); !reflect.DeepEqual(got, []string{events.ContestUpdated}) {
		t.Fatalf("unexpected events: %v", got)
	}
}

func TestContestService_UpdateStatus(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore()
	svc := NewContestService(s, events.Noop{})
	c := seedContest(t, s, "creator@example.com", models.ContestStatusPending, 10)

	for _, status := range []string{"pending", "archived", ""} {
		_, err := svc.UpdateStatus(ctx, "admin@example.com", c.ID, status)
		assertKind(t, err, ErrBadRequest)
	}

	updated, err := svc.UpdateStatus(ctx, "admin@example.com", c.ID, models.ContestStatusApproved)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.Status != models.ContestStatusApproved {
		t.Fatalf("expected approved, got %s", updated.Status)
	}

	_, err = svc.UpdateStatus(ctx, "admin@example.com", "missing", models.ContestStatusRejected)
	assertKind(t, err, ErrNotFound)
}

func TestContestService_Delete(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore()
	svc := NewContestService(s, events.Noop{})

	owned := seedContest(t, s, "creator@example.com", models.ContestStatusPending, 10)
	other := seedContest(t, s, "creator@example.com", models.ContestStatusPending, 10)

	err := svc.Delete(ctx, "intruder@example.com", models.RoleCreator, owned.ID)
	assertKind(t, err, ErrForbidden)

	if err := svc.Delete(ctx, "creator@example.com", models.RoleCreator, owned.ID); err != nil {
		t.Fatalf("owner delete: %v", err)
	}
	if err := svc.Delete(ctx, "admin@example.com", models.RoleAdmin, other.ID); err != nil {
		t.Fatalf("admin delete: %v", err)
	}

	err = svc.Delete(ctx, "creator@example.com", models.RoleCreator, owned.ID)
	assertKind(t, err, ErrNotFound)
}

func TestContestService_PopularReturnsTopSix(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore()
	svc := NewContestService(s, events.Noop{})

	counts := []int{2, 0, 7, 1, 5, 3, 4, 6}
	for i, n := range counts {
		participants := make([]string, n)
		for j := range participants {
			participants[j] = fmt.Sprintf("p%d@example.com", j)
		}
		c := &models.Contest{Name: fmt.Sprintf("c%d", i), Status: models.ContestStatusApproved, Participants: participants, CreatedAt: time.Now()}
		if err := s.CreateContest(ctx, c); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}
	pending := &models.Contest{Name: "pending", Status: models.ContestStatusPending, Participants: make([]string, 50)}
	if err := s.CreateContest(ctx, pending); err != nil {
		t.Fatalf("seed: %v", err)
	}

	popular, err := svc.Popular(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got := make([]int, 0, len(popular))
	for _, c := range popular {
		got = append(got, len(c.Participants))
	}
	if want := []int{7, 6, 5, 4, 3, 2}; !reflect.DeepEqual(got, want) {
		t.Fatalf("popular participant counts = %v, want %v", got, want)
	}
}

func TestContestService_ByCreatorRequiresEmail(t *testing.T) {
	svc := NewContestService(store.NewMemoryStore(), events.Noop{})
	_, err := svc.ByCreator(context.Background(), "")
	assertKind(t, err, ErrBadRequest)
}
