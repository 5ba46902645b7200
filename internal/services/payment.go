package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"creative-arena-backend/internal/events"
	"creative-arena-backend/internal/models"
	"creative-arena-backend/internal/payment"
	"creative-arena-backend/internal/store"
)

type PaymentService struct {
	store     store.Store
	provider  payment.Provider
	publisher events.Publisher
}

func NewPaymentService(s store.Store, provider payment.Provider, publisher events.Publisher) *PaymentService {
	return &PaymentService{store: s, provider: provider, publisher: publisher}
}

type CheckoutInput struct {
	ContestID   string
	ContestName string
	Price       float64
}

type ConfirmResult struct {
	AlreadyRecorded bool            `json:"alreadyRecorded"`
	Message         string          `json:"message"`
	Payment         *models.Payment `json:"payment"`
}

// ParticipatedContest is a contest the caller paid for, with the payment
// state attached.
type ParticipatedContest struct {
	models.Contest
	PaymentStatus string    `json:"paymentStatus"`
	PaidAt        time.Time `json:"paidAt"`
}

// CreateCheckout opens a checkout session for the payer. Nothing is stored
// until the payment is confirmed.
func (s *PaymentService) CreateCheckout(ctx context.Context, payerEmail string, in CheckoutInput) (*payment.CheckoutSession, error) {
	if in.ContestID == "" {
		return nil, newError(ErrBadRequest, "contestId is required")
	}
	if in.Price <= 0 {
		return nil, newError(ErrBadRequest, "price must be greater than zero")
	}

	contest, err := s.store.GetContest(ctx, in.ContestID)
	if err != nil {
		return nil, notFound("contest", err)
	}
	if contest.Status != models.ContestStatusApproved {
		return nil, newError(ErrBadRequest, "contest is not open for entries")
	}
	if contest.Price > 0 && payment.MinorUnits(contest.Price) != payment.MinorUnits(in.Price) {
		return nil, newError(ErrBadRequest, "price does not match the contest entry fee")
	}
	name := in.ContestName
	if name == "" {
		name = contest.Name
	}

	session, err := s.provider.CreateCheckout(ctx, payment.CheckoutRequest{
		ContestID:   contest.ID,
		ContestName: name,
		Email:       payerEmail,
		Price:       in.Price,
	})
	if err != nil {
		return nil, err
	}
	return session, nil
}

// ConfirmPayment records the payment behind a completed checkout session and
// registers the payer as a participant. Confirming the same transaction again
// writes nothing and reports it as already recorded.
func (s *PaymentService) ConfirmPayment(ctx context.Context, sessionID string) (*ConfirmResult, error) {
	if sessionID == "" {
		return nil, newError(ErrBadRequest, "session_id is required")
	}

	res, err := s.provider.RetrieveSession(ctx, sessionID)
	if err != nil {
		slog.WarnContext(ctx, "checkout session lookup failed", "session_id", sessionID, "error", err)
		return nil, newError(ErrPaymentVerification, "unable to verify payment session")
	}
	if res.ContestID == "" || res.Email == "" {
		return nil, newError(ErrPaymentVerification, "payment session is missing metadata")
	}
	if !res.Paid {
		return nil, newError(ErrPaymentVerification, "payment has not been completed")
	}

	existing, err := s.store.GetPaymentByTransactionID(ctx, res.TransactionID)
	if err == nil {
		return alreadyRecorded(existing), nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	p := &models.Payment{
		ContestID:     res.ContestID,
		Email:         res.Email,
		Amount:        res.Amount(),
		Currency:      res.Currency,
		TransactionID: res.TransactionID,
		SessionID:     res.SessionID,
		Status:        models.PaymentStatusPaid,
		PaidAt:        time.Now().UTC(),
	}
	if err := s.store.RecordPayment(ctx, p); err != nil {
		if !errors.Is(err, store.ErrDuplicate) {
			return nil, err
		}
		existing, err := s.store.GetPaymentByTransactionID(ctx, res.TransactionID)
		if err != nil {
			return nil, err
		}
		return alreadyRecorded(existing), nil
	}

	events.Emit(ctx, s.publisher, events.Event{
		Type:      events.PaymentRecorded,
		ContestID: p.ContestID,
		Actor:     p.Email,
		Data:      map[string]interface{}{"transactionId": p.TransactionID, "amount": p.Amount},
	})
	return &ConfirmResult{Message: "payment recorded", Payment: p}, nil
}

func alreadyRecorded(p *models.Payment) *ConfirmResult {
	return &ConfirmResult{AlreadyRecorded: true, Message: "payment already recorded", Payment: p}
}

// ListParticipated returns the contests email has paid for. Payments whose
// contest has since been deleted are left out.
func (s *PaymentService) ListParticipated(ctx context.Context, actorEmail, email string) ([]ParticipatedContest, error) {
	if email == "" {
		email = actorEmail
	}
	if email != actorEmail {
		return nil, newError(ErrForbidden, "forbidden access")
	}

	payments, err := s.store.ListPaidPaymentsByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(payments))
	for _, p := range payments {
		ids = append(ids, p.ContestID)
	}
	contests, err := s.store.GetContestsByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]models.Contest, len(contests))
	for _, c := range contests {
		byID[c.ID] = c
	}

	result := []ParticipatedContest{}
	seen := make(map[string]bool, len(payments))
	for _, p := range payments {
		c, ok := byID[p.ContestID]
		if !ok || seen[p.ContestID] {
			continue
		}
		seen[p.ContestID] = true
		result = append(result, ParticipatedContest{Contest: c, PaymentStatus: p.Status, PaidAt: p.PaidAt})
	}
	return result, nil
}
