// Package events carries contest activity to interested sinks: a Kafka topic
// for downstream consumers and the WebSocket hub for live clients.
package events

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

const (
	ContestCreated       = "contest.created"
	ContestUpdated       = "contest.updated"
	ContestStatusChanged = "contest.status_changed"
	ContestDeleted       = "contest.deleted"
	PaymentRecorded      = "payment.recorded"
	SubmissionCreated    = "submission.created"
	WinnerDeclared       = "submission.winner_declared"
)

type Event struct {
	Type       string      `json:"type"`
	ContestID  string      `json:"contestId"`
	Actor      string      `json:"actor,omitempty"`
	Data       interface{} `json:"data,omitempty"`
	OccurredAt time.Time   `json:"occurredAt"`
}

type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// Fanout publishes to every sink and joins their errors.
type Fanout []Publisher

func (f Fanout) Publish(ctx context.Context, event Event) error {
	var errs []error
	for _, p := range f {
		if err := p.Publish(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

type Noop struct{}

func (Noop) Publish(context.Context, Event) error { return nil }

// Emit publishes best-effort: a failing sink is logged and never fails the
// caller's request.
func Emit(ctx context.Context, p Publisher, event Event) {
	if p == nil {
		return
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}
	if err := p.Publish(ctx, event); err != nil {
		slog.WarnContext(ctx, "event publish failed",
			"type", event.Type,
			"contest_id", event.ContestID,
			"error", err,
		)
	}
}
