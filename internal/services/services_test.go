package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"creative-arena-backend/internal/events"
	"creative-arena-backend/internal/models"
	"creative-arena-backend/internal/payment"
	"creative-arena-backend/internal/store"
)

type fakeProvider struct {
	createFn   func(ctx context.Context, req payment.CheckoutRequest) (*payment.CheckoutSession, error)
	retrieveFn func(ctx context.Context, sessionID string) (*payment.SessionResult, error)
}

func (f *fakeProvider) CreateCheckout(ctx context.Context, req payment.CheckoutRequest) (*payment.CheckoutSession, error) {
	if f.createFn == nil {
		return nil, errors.New("create not configured")
	}
	return f.createFn(ctx, req)
}

func (f *fakeProvider) RetrieveSession(ctx context.Context, sessionID string) (*payment.SessionResult, error) {
	if f.retrieveFn == nil {
		return nil, errors.New("retrieve not configured")
	}
	return f.retrieveFn(ctx, sessionID)
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
	err    error
}

func (r *recordingPublisher) Publish(_ context.Context, e events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return r.err
}

func (r *recordingPublisher) types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Type)
	}
	return out
}

func seedUser(t *testing.T, s store.Store, email, role string) *models.User {
	t.Helper()
	u := &models.User{Email: email, Role: role, DisplayName: "Name of " + email, PhotoURL: "https://img.example.com/" + email, CreatedAt: time.Now()}
	if err := s.CreateUser(context.Background(), u); err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return u
}

func seedContest(t *testing.T, s store.Store, creator, status string, price float64) *models.Contest {
	t.Helper()
	c := &models.Contest{
		Name:         "Contest by " + creator,
		Price:        price,
		CreatedBy:    creator,
		Status:       status,
		Participants: []string{},
		CreatedAt:    time.Now(),
	}
	if err := s.CreateContest(context.Background(), c); err != nil {
		t.Fatalf("seed contest: %v", err)
	}
	return c
}

func seedPayment(t *testing.T, s store.Store, contestID, email, txID string) {
	t.Helper()
	err := s.RecordPayment(context.Background(), &models.Payment{
		ContestID:     contestID,
		Email:         email,
		Amount:        10,
		TransactionID: txID,
		Status:        models.PaymentStatusPaid,
		PaidAt:        time.Now(),
	})
	if err != nil {
		t.Fatalf("seed payment: %v", err)
	}
}

func assertKind(t *testing.T, err, kind error) {
	t.Helper()
	if !errors.Is(err, kind) {
		t.Fatalf("expected %v, got %v", kind, err)
	}
}
