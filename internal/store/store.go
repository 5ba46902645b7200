// Package store persists users, contests, payments and submissions.
//
// Three backends implement Store: MongoDB (the default), PostgreSQL through
// gorm, and an in-memory store used by tests and local runs. Multi-record
// transitions (payment recording, winner declaration) are atomic in every
// backend.
package store

import (
	"context"
	"errors"

	"creative-arena-backend/internal/models"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("duplicate record")
)

type Users interface {
	// CreateUser inserts user, returning ErrDuplicate when the email is taken.
	CreateUser(ctx context.Context, user *models.User) error
	ListUsers(ctx context.Context) ([]models.User, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	UpdateUserRole(ctx context.Context, id, role string) (*models.User, error)
	UpdateProfile(ctx context.Context, email string, upd models.ProfileUpdate) (*models.User, error)
}

type Contests interface {
	CreateContest(ctx context.Context, contest *models.Contest) error
	ListContests(ctx context.Context, skip, limit int) ([]models.Contest, int64, error)
	ListContestsByStatus(ctx context.Context, status string) ([]models.Contest, error)
	ListContestsByCreator(ctx context.Context, email string) ([]models.Contest, error)
	GetContest(ctx context.Context, id string) (*models.Contest, error)
	GetContestsByIDs(ctx context.Context, ids []string) ([]models.Contest, error)
	UpdateContest(ctx context.Context, id string, upd models.ContestUpdate) (*models.Contest, error)
	UpdateContestStatus(ctx context.Context, id, status string) (*models.Contest, error)
	DeleteContest(ctx context.Context, id string) error
	// PopularContests returns approved contests by descending participant count.
	PopularContests(ctx context.Context, limit int) ([]models.Contest, error)
}

type Payments interface {
	// RecordPayment inserts payment and adds its payer to the contest
	// participants in one transaction. ErrDuplicate means the transaction id
	// was already recorded and nothing was written.
	RecordPayment(ctx context.Context, payment *models.Payment) error
	GetPaymentByTransactionID(ctx context.Context, transactionID string) (*models.Payment, error)
	FindPaidPayment(ctx context.Context, contestID, email string) (*models.Payment, error)
	ListPaidPaymentsByEmail(ctx context.Context, email string) ([]models.Payment, error)
}

type Submissions interface {
	// CreateSubmission returns ErrDuplicate when the participant already
	// submitted to the contest.
	CreateSubmission(ctx context.Context, submission *models.Submission) error
	FindSubmission(ctx context.Context, contestID, email string) (*models.Submission, error)
	ListSubmissionsByContest(ctx context.Context, contestID string) ([]models.Submission, error)
	ListSubmissionsByContests(ctx context.Context, contestIDs []string) ([]models.Submission, error)
	ListWinningSubmissions(ctx context.Context, email string) ([]models.Submission, error)
	CountSubmissions(ctx context.Context, email string) (participated, won int64, err error)
	// DeclareWinner marks submissionID as the single winner of contestID and
	// every other submission of the contest as rejected. ErrNotFound is
	// returned, with nothing changed, when the submission is not part of the
	// contest.
	DeclareWinner(ctx context.Context, contestID, submissionID string) (*models.Submission, error)
}

type Store interface {
	Users
	Contests
	Payments
	Submissions
	Close(ctx context.Context) error
}
