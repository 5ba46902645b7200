package services

import (
	"context"
	"errors"
	"time"

	"creative-arena-backend/internal/events"
	"creative-arena-backend/internal/models"
	"creative-arena-backend/internal/store"
)

type SubmissionService struct {
	store     store.Store
	publisher events.Publisher
}

func NewSubmissionService(s store.Store, publisher events.Publisher) *SubmissionService {
	return &SubmissionService{store: s, publisher: publisher}
}

type SubmitInput struct {
	ContestID      string
	SubmissionText string
	SubmissionLink string
}

// WinningContest pairs a contest with the caller's winning entry.
type WinningContest struct {
	models.Contest
	Submission models.Submission `json:"submission"`
}

// Submit stores the participant's entry. A paid payment for the contest is
// required and each participant may submit once.
func (s *SubmissionService) Submit(ctx context.Context, email string, in SubmitInput) (*models.Submission, error) {
	if in.ContestID == "" {
		return nil, newError(ErrBadRequest, "contestId is required")
	}
	if in.SubmissionText == "" && in.SubmissionLink == "" {
		return nil, newError(ErrBadRequest, "submission text or link is required")
	}

	contest, err := s.store.GetContest(ctx, in.ContestID)
	if err != nil {
		return nil, notFound("contest", err)
	}

	if _, err := s.store.FindPaidPayment(ctx, contest.ID, email); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, newError(ErrPaymentRequired, "payment is required before submitting")
		}
		return nil, err
	}

	if _, err := s.store.FindSubmission(ctx, contest.ID, email); err == nil {
		return nil, newError(ErrConflict, "you have already submitted to this contest")
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	participant := models.SubmissionParticipant{Email: email}
	if user, err := s.store.GetUserByEmail(ctx, email); err == nil {
		participant.Name = user.DisplayName
		participant.Photo = user.PhotoURL
	}

	submission := &models.Submission{
		ContestID:      contest.ID,
		ContestName:    contest.Name,
		Participant:    participant,
		SubmissionText: in.SubmissionText,
		SubmissionLink: in.SubmissionLink,
		Status:         models.SubmissionStatusSubmitted,
		IsWinner:       false,
		SubmittedAt:    time.Now().UTC(),
	}
	if err := s.store.CreateSubmission(ctx, submission); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, newError(ErrConflict, "you have already submitted to this contest")
		}
		return nil, err
	}

	events.Emit(ctx, s.publisher, events.Event{
		Type:      events.SubmissionCreated,
		ContestID: contest.ID,
		Actor:     email,
		Data:      map[string]string{"submissionId": submission.ID},
	})
	return submission, nil
}

// ListByContest returns a contest's submissions to its creator or an admin.
func (s *SubmissionService) ListByContest(ctx context.Context, actorEmail, actorRole, contestID string) ([]models.Submission, error) {
	if contestID == "" {
		return nil, newError(ErrBadRequest, "contestId is required")
	}
	contest, err := s.store.GetContest(ctx, contestID)
	if err != nil {
		return nil, notFound("contest", err)
	}
	if contest.CreatedBy != actorEmail && actorRole != models.RoleAdmin {
		return nil, newError(ErrForbidden, "only the contest creator can view its submissions")
	}
	return s.store.ListSubmissionsByContest(ctx, contestID)
}

func (s *SubmissionService) ListForCreator(ctx context.Context, creatorEmail string) ([]models.Submission, error) {
	contests, err := s.store.ListContestsByCreator(ctx, creatorEmail)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(contests))
	for _, c := range contests {
		ids = append(ids, c.ID)
	}
	return s.store.ListSubmissionsByContests(ctx, ids)
}

// DeclareWinner makes submissionID the only winner of the contest. The caller
// must own the contest.
func (s *SubmissionService) DeclareWinner(ctx context.Context, creatorEmail, contestID, submissionID string) (*models.Submission, error) {
	if contestID == "" || submissionID == "" {
		return nil, newError(ErrBadRequest, "contestId and submissionId are required")
	}

	contest, err := s.store.GetContest(ctx, contestID)
	if err != nil {
		return nil, notFound("contest", err)
	}
	if contest.CreatedBy != creatorEmail {
		return nil, newError(ErrForbidden, "only the contest creator can declare a winner")
	}

	winner, err := s.store.DeclareWinner(ctx, contestID, submissionID)
	if err != nil {
		return nil, notFound("submission", err)
	}

	events.Emit(ctx, s.publisher, events.Event{
		Type:      events.WinnerDeclared,
		ContestID: contestID,
		Actor:     creatorEmail,
		Data: map[string]string{
			"submissionId": winner.ID,
			"winnerEmail":  winner.Participant.Email,
			"winnerName":   winner.Participant.Name,
		},
	})
	return winner, nil
}

// WinningContests lists the contests email has won. Wins whose contest has
// since been deleted are left out.
func (s *SubmissionService) WinningContests(ctx context.Context, email string) ([]WinningContest, error) {
	wins, err := s.store.ListWinningSubmissions(ctx, email)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(wins))
	for _, w := range wins {
		ids = append(ids, w.ContestID)
	}
	contests, err := s.store.GetContestsByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]models.Contest, len(contests))
	for _, c := range contests {
		byID[c.ID] = c
	}

	result := []WinningContest{}
	for _, w := range wins {
		c, ok := byID[w.ContestID]
		if !ok {
			continue
		}
		result = append(result, WinningContest{Contest: c, Submission: w})
	}
	return result, nil
}
