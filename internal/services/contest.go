package services

import (
	"context"
	"strconv"
	"time"

	"creative-arena-backend/internal/events"
	"creative-arena-backend/internal/models"
	"creative-arena-backend/internal/store"
)

const (
	DefaultPage         = 1
	DefaultPageSize     = 10
	PopularContestLimit = 6
)

type ContestService struct {
	store     store.Contests
	publisher events.Publisher
}

func NewContestService(s store.Contests, publisher events.Publisher) *ContestService {
	return &ContestService{store: s, publisher: publisher}
}

type CreateContestInput struct {
	Name            string
	Image           string
	Description     string
	Price           float64
	PrizeMoney      float64
	TaskInstruction string
	ContestType     string
	Deadline        time.Time
	CreatorName     string
}

type ContestPage struct {
	Contests []models.Contest `json:"contests"`
	Total    int64            `json:"total"`
}

// ParsePage reads page and limit query values. Anything that is not a
// positive integer falls back to the default.
func ParsePage(pageParam, limitParam string) (page, limit int) {
	page, limit = DefaultPage, DefaultPageSize
	if n, err := strconv.Atoi(pageParam); err == nil && n > 0 {
		page = n
	}
	if n, err := strconv.Atoi(limitParam); err == nil && n > 0 {
		limit = n
	}
	return page, limit
}

func (s *ContestService) Create(ctx context.Context, creatorEmail string, in CreateContestInput) (*models.Contest, error) {
	if in.Name == "" {
		return nil, newError(ErrBadRequest, "contest name is required")
	}
	contest := &models.Contest{
		Name:            in.Name,
		Image:           in.Image,
		Description:     in.Description,
		Price:           in.Price,
		PrizeMoney:      in.PrizeMoney,
		TaskInstruction: in.TaskInstruction,
		ContestType:     in.ContestType,
		Deadline:        in.Deadline,
		CreatedBy:       creatorEmail,
		CreatorName:     in.CreatorName,
		Status:          models.ContestStatusPending,
		Participants:    []string{},
		CreatedAt:       time.Now().UTC(),
	}
	if err := s.store.CreateContest(ctx, contest); err != nil {
		return nil, err
	}

	events.Emit(ctx, s.publisher, events.Event{
		Type:      events.ContestCreated,
		ContestID: contest.ID,
		Actor:     creatorEmail,
		Data:      contest,
	})
	return contest, nil
}

func (s *ContestService) List(ctx context.Context, page, limit int) (*ContestPage, error) {
	if page < 1 {
		page = DefaultPage
	}
	if limit < 1 {
		limit = DefaultPageSize
	}
	contests, total, err := s.store.ListContests(ctx, (page-1)*limit, limit)
	if err != nil {
		return nil, err
	}
	return &ContestPage{Contests: contests, Total: total}, nil
}

func (s *ContestService) Approved(ctx context.Context) ([]models.Contest, error) {
	return s.store.ListContestsByStatus(ctx, models.ContestStatusApproved)
}

func (s *ContestService) ByCreator(ctx context.Context, email string) ([]models.Contest, error) {
	if email == "" {
		return nil, newError(ErrBadRequest, "email is required")
	}
	return s.store.ListContestsByCreator(ctx, email)
}

func (s *ContestService) Get(ctx context.Context, id string) (*models.Contest, error) {
	contest, err := s.store.GetContest(ctx, id)
	if err != nil {
		return nil, notFound("contest", err)
	}
	return contest, nil
}

// Update applies the allow-listed fields. Only the creator who owns the
// contest may change it.
func (s *ContestService) Update(ctx context.Context, actorEmail, id string, upd models.ContestUpdate) (*models.Contest, error) {
	if upd.Empty() {
		return nil, newError(ErrBadRequest, "no updatable fields supplied")
	}
	contest, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if contest.CreatedBy != actorEmail {
		return nil, newError(ErrForbidden, "only the contest creator can update it")
	}

	updated, err := s.store.UpdateContest(ctx, id, upd)
	if err != nil {
		return nil, notFound("contest", err)
	}

	events.Emit(ctx, s.publisher, events.Event{
		Type:      events.ContestUpdated,
		ContestID: id,
		Actor:     actorEmail,
		Data:      updated,
	})
	return updated, nil
}

func (s *ContestService) UpdateStatus(ctx context.Context, actorEmail, id, status string) (*models.Contest, error) {
	if status != models.ContestStatusApproved && status != models.ContestStatusRejected {
		return nil, newError(ErrBadRequest, "invalid status")
	}
	contest, err := s.store.UpdateContestStatus(ctx, id, status)
	if err != nil {
		return nil, notFound("contest", err)
	}

	events.Emit(ctx, s.publisher, events.Event{
		Type:      events.ContestStatusChanged,
		ContestID: id,
		Actor:     actorEmail,
		Data:      map[string]string{"status": status},
	})
	return contest, nil
}

// Delete removes a contest. The owning creator and admins may delete.
func (s *ContestService) Delete(ctx context.Context, actorEmail, actorRole, id string) error {
	contest, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if contest.CreatedBy != actorEmail && actorRole != models.RoleAdmin {
		return newError(ErrForbidden, "only the contest creator or an admin can delete it")
	}
	if err := s.store.DeleteContest(ctx, id); err != nil {
		return notFound("contest", err)
	}

	events.Emit(ctx, s.publisher, events.Event{
		Type:      events.ContestDeleted,
		ContestID: id,
		Actor:     actorEmail,
	})
	return nil
}

func (s *ContestService) Popular(ctx context.Context) ([]models.Contest, error) {
	return s.store.PopularContests(ctx, PopularContestLimit)
}
