package store

import (
	"context"
	"sync"

	"creative-arena-backend/internal/models"

	"github.com/google/uuid"
)

// MemoryStore keeps every collection in insertion-ordered slices behind a
// single lock, so each method is one atomic step.
type MemoryStore struct {
	mu          sync.RWMutex
	users       []models.User
	contests    []models.Contest
	payments    []models.Payment
	submissions []models.Submission
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Close(context.Context) error { return nil }

func newID(id string) string {
	if id != "" {
		return id
	}
	return uuid.NewString()
}

func cloneContest(c models.Contest) models.Contest {
	if c.Participants != nil {
		c.Participants = append([]string(nil), c.Participants...)
	}
	return c
}

func (s *MemoryStore) CreateUser(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.Email == user.Email {
			return ErrDuplicate
		}
	}
	user.ID = newID(user.ID)
	s.users = append(s.users, *user)
	return nil
}

func (s *MemoryStore) ListUsers(context.Context) ([]models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.User{}, s.users...), nil
}

func (s *MemoryStore) GetUserByID(_ context.Context, id string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if u.ID == id {
			return &u, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) UpdateUserRole(_ context.Context, id, role string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.users {
		if s.users[i].ID == id {
			s.users[i].Role = role
			u := s.users[i]
			return &u, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) UpdateProfile(_ context.Context, email string, upd models.ProfileUpdate) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.users {
		if s.users[i].Email == email {
			upd.ApplyTo(&s.users[i])
			u := s.users[i]
			return &u, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) CreateContest(_ context.Context, contest *models.Contest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	contest.ID = newID(contest.ID)
	s.contests = append(s.contests, cloneContest(*contest))
	return nil
}

func (s *MemoryStore) ListContests(_ context.Context, skip, limit int) ([]models.Contest, int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	total := int64(len(s.contests))
	result := []models.Contest{}
	for i := skip; i < len(s.contests) && len(result) < limit; i++ {
		result = append(result, cloneContest(s.contests[i]))
	}
	return result, total, nil
}

func (s *MemoryStore) filterContests(keep func(models.Contest) bool) []models.Contest {
	result := []models.Contest{}
	for _, c := range s.contests {
		if keep(c) {
			result = append(result, cloneContest(c))
		}
	}
	return result
}

func (s *MemoryStore) ListContestsByStatus(_ context.Context, status string) ([]models.Contest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.filterContests(func(c models.Contest) bool { return c.Status == status }), nil
}

func (s *MemoryStore) ListContestsByCreator(_ context.Context, email string) ([]models.Contest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.filterContests(func(c models.Contest) bool { return c.CreatedBy == email }), nil
}

func (s *MemoryStore) GetContest(_ context.Context, id string) (*models.Contest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range s.contests {
		if c.ID == id {
			c = cloneContest(c)
			return &c, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) GetContestsByIDs(_ context.Context, ids []string) ([]models.Contest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	wanted := make(map[string]bool, len(ids))
	for _, id := range ids {
		wanted[id] = true
	}
	return s.filterContests(func(c models.Contest) bool { return wanted[c.ID] }), nil
}

func (s *MemoryStore) contestIndex(id string) int {
	for i := range s.contests {
		if s.contests[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *MemoryStore) UpdateContest(_ context.Context, id string, upd models.ContestUpdate) (*models.Contest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.contestIndex(id)
	if i < 0 {
		return nil, ErrNotFound
	}
	upd.ApplyTo(&s.contests[i])
	c := cloneContest(s.contests[i])
	return &c, nil
}

func (s *MemoryStore) UpdateContestStatus(_ context.Context, id, status string) (*models.Contest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.contestIndex(id)
	if i < 0 {
		return nil, ErrNotFound
	}
	s.contests[i].Status = status
	c := cloneContest(s.contests[i])
	return &c, nil
}

func (s *MemoryStore) DeleteContest(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.contestIndex(id)
	if i < 0 {
		return ErrNotFound
	}
	s.contests = append(s.contests[:i], s.contests[i+1:]...)
	return nil
}

func (s *MemoryStore) PopularContests(_ context.Context, limit int) ([]models.Contest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return models.RankByParticipants(s.filterContests(func(models.Contest) bool { return true }), limit), nil
}

func (s *MemoryStore) RecordPayment(_ context.Context, payment *models.Payment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, p := range s.payments {
		if p.TransactionID == payment.TransactionID {
			return ErrDuplicate
		}
	}
	payment.ID = newID(payment.ID)
	s.payments = append(s.payments, *payment)

	if i := s.contestIndex(payment.ContestID); i >= 0 {
		s.contests[i].AddParticipant(payment.Email)
	}
	return nil
}

func (s *MemoryStore) GetPaymentByTransactionID(_ context.Context, transactionID string) (*models.Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.payments {
		if p.TransactionID == transactionID {
			return &p, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) FindPaidPayment(_ context.Context, contestID, email string) (*models.Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.payments {
		if p.ContestID == contestID && p.Email == email && p.Status == models.PaymentStatusPaid {
			return &p, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) ListPaidPaymentsByEmail(_ context.Context, email string) ([]models.Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := []models.Payment{}
	for _, p := range s.payments {
		if p.Email == email && p.Status == models.PaymentStatusPaid {
			result = append(result, p)
		}
	}
	return result, nil
}

func (s *MemoryStore) CreateSubmission(_ context.Context, submission *models.Submission) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sub := range s.submissions {
		if sub.ContestID == submission.ContestID && sub.Participant.Email == submission.Participant.Email {
			return ErrDuplicate
		}
	}
	submission.ID = newID(submission.ID)
	s.submissions = append(s.submissions, *submission)
	return nil
}

func (s *MemoryStore) filterSubmissions(keep func(models.Submission) bool) []models.Submission {
	result := []models.Submission{}
	for _, sub := range s.submissions {
		if keep(sub) {
			result = append(result, sub)
		}
	}
	return result
}

func (s *MemoryStore) FindSubmission(_ context.Context, contestID, email string) (*models.Submission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, sub := range s.submissions {
		if sub.ContestID == contestID && sub.Participant.Email == email {
			return &sub, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) ListSubmissionsByContest(_ context.Context, contestID string) ([]models.Submission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.filterSubmissions(func(sub models.Submission) bool { return sub.ContestID == contestID }), nil
}

func (s *MemoryStore) ListSubmissionsByContests(_ context.Context, contestIDs []string) ([]models.Submission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	wanted := make(map[string]bool, len(contestIDs))
	for _, id := range contestIDs {
		wanted[id] = true
	}
	return s.filterSubmissions(func(sub models.Submission) bool { return wanted[sub.ContestID] }), nil
}

func (s *MemoryStore) ListWinningSubmissions(_ context.Context, email string) ([]models.Submission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.filterSubmissions(func(sub models.Submission) bool {
		return sub.Participant.Email == email && sub.IsWinner
	}), nil
}

func (s *MemoryStore) CountSubmissions(_ context.Context, email string) (int64, int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var participated, won int64
	for _, sub := range s.submissions {
		if sub.Participant.Email != email {
			continue
		}
		participated++
		if sub.IsWinner {
			won++
		}
	}
	return participated, won, nil
}

func (s *MemoryStore) DeclareWinner(_ context.Context, contestID, submissionID string) (*models.Submission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	target := -1
	for i, sub := range s.submissions {
		if sub.ID == submissionID && sub.ContestID == contestID {
			target = i
			break
		}
	}
	if target < 0 {
		return nil, ErrNotFound
	}

	for i := range s.submissions {
		if s.submissions[i].ContestID != contestID {
			continue
		}
		s.submissions[i].IsWinner = false
		s.submissions[i].Status = models.SubmissionStatusRejected
	}
	s.submissions[target].IsWinner = true
	s.submissions[target].Status = models.SubmissionStatusWinner

	winner := s.submissions[target]
	return &winner, nil
}

var _ Store = (*MemoryStore)(nil)
