package services

import (
	"context"
	"errors"
	"time"

	"creative-arena-backend/internal/models"
	"creative-arena-backend/internal/store"
)

type UserService struct {
	store store.Users
}

func NewUserService(s store.Users) *UserService {
	return &UserService{store: s}
}

type RegisterInput struct {
	DisplayName string
	PhotoURL    string
	Bio         string
}

// Register creates the caller's user record with the default role. When the
// email is already registered nothing is written and created is false.
func (s *UserService) Register(ctx context.Context, email string, in RegisterInput) (user *models.User, created bool, err error) {
	if email == "" {
		return nil, false, newError(ErrUnauthorized, "unauthorized access")
	}

	existing, err := s.store.GetUserByEmail(ctx, email)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, false, err
	}

	user = &models.User{
		Email:       email,
		Role:        models.RoleUser,
		DisplayName: in.DisplayName,
		PhotoURL:    in.PhotoURL,
		Bio:         in.Bio,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.store.CreateUser(ctx, user); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			existing, err := s.store.GetUserByEmail(ctx, email)
			if err != nil {
				return nil, false, err
			}
			return existing, false, nil
		}
		return nil, false, err
	}
	return user, true, nil
}

func (s *UserService) List(ctx context.Context) ([]models.User, error) {
	return s.store.ListUsers(ctx)
}

func (s *UserService) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	user, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, notFound("user", err)
	}
	return user, nil
}

// UpdateRole lets an admin change another user's role.
func (s *UserService) UpdateRole(ctx context.Context, actorEmail, userID, role string) (*models.User, error) {
	if !models.ValidRole(role) {
		return nil, newError(ErrBadRequest, "invalid role")
	}

	target, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		return nil, notFound("user", err)
	}
	if target.Email == actorEmail {
		return nil, newError(ErrForbidden, "you cannot change your own role")
	}

	user, err := s.store.UpdateUserRole(ctx, userID, role)
	if err != nil {
		return nil, notFound("user", err)
	}
	return user, nil
}

func (s *UserService) UpdateProfile(ctx context.Context, email string, upd models.ProfileUpdate) (*models.User, error) {
	if upd.Empty() {
		return nil, newError(ErrBadRequest, "no profile fields to update")
	}
	user, err := s.store.UpdateProfile(ctx, email, upd)
	if err != nil {
		return nil, notFound("user", err)
	}
	return user, nil
}
