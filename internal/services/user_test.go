package services

import (
	"context"
	"testing"

	"creative-arena-backend/internal/models"
	"creative-arena-backend/internal/store"
)

func TestUserService_RegisterIsIdempotent(t *testing.T) {
	s := store.NewMemoryStore()
	svc := NewUserService(s)
	ctx := context.Background()

	first, created, err := svc.Register(ctx, "artist@example.com", RegisterInput{DisplayName: "Artist"})
	if err != nil || !created {
		t.Fatalf("expected first registration to create, got created=%v err=%v", created, err)
	}
	if first.Role != models.RoleUser {
		t.Fatalf("expected default role user, got %s", first.Role)
	}

	second, created, err := svc.Register(ctx, "artist@example.com", RegisterInput{DisplayName: "Someone Else"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if created {
		t.Fatalf("second registration must not create")
	}
	if second.ID != first.ID || second.DisplayName != "Artist" {
		t.Fatalf("expected existing user, got %+v", second)
	}

	users, _ := svc.List(ctx)
	if len(users) != 1 {
		t.Fatalf("expected one stored user, got %d", len(users))
	}
}

func TestUserService_RegisterRequiresEmail(t *testing.T) {
	svc := NewUserService(store.NewMemoryStore())
	_, _, err := svc.Register(context.Background(), "", RegisterInput{})
	assertKind(t, err, ErrUnauthorized)
}

func TestUserService_UpdateRole(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name     string
		actor    string
		target   string
		role     string
		wantKind error
		wantRole string
	}{
		{"promote to creator", "admin@example.com", "user", models.RoleCreator, nil, models.RoleCreator},
		{"invalid role", "admin@example.com", "user", "superuser", ErrBadRequest, models.RoleUser},
		{"self change", "admin@example.com", "admin", models.RoleUser, ErrForbidden, models.RoleAdmin},
		{"unknown user", "admin@example.com", "missing", models.RoleCreator, ErrNotFound, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := store.NewMemoryStore()
			svc := NewUserService(s)
			admin := seedUser(t, s, "admin@example.com", models.RoleAdmin)
			user := seedUser(t, s, "user@example.com", models.RoleUser)
			ids := map[string]string{"admin": admin.ID, "user": user.ID, "missing": "does-not-exist"}

			updated, err := svc.UpdateRole(ctx, tt.actor, ids[tt.target], tt.role)
			if tt.wantKind != nil {
				assertKind(t, err, tt.wantKind)
			} else {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if updated.Role != tt.wantRole {
					t.Fatalf("expected role %s, got %s", tt.wantRole, updated.Role)
				}
			}

			if tt.wantRole == "" {
				return
			}
			stored, err := s.GetUserByID(ctx, ids[tt.target])
			if err != nil {
				t.Fatalf("lookup: %v", err)
			}
			if stored.Role != tt.wantRole {
				t.Fatalf("stored role = %s, want %s", stored.Role, tt.wantRole)
			}
		})
	}
}

func TestUserService_UpdateProfile(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore()
	svc := NewUserService(s)
	seedUser(t, s, "artist@example.com", models.RoleUser)

	bio := "Paints murals"
	updated, err := svc.UpdateProfile(ctx, "artist@example.com", models.ProfileUpdate{Bio: &bio})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.Bio != bio || updated.DisplayName != "Name of artist@example.com" {
		t.Fatalf("unexpected profile: %+v", updated)
	}

	_, err = svc.UpdateProfile(ctx, "artist@example.com", models.ProfileUpdate{})
	assertKind(t, err, ErrBadRequest)

	_, err = svc.UpdateProfile(ctx, "ghost@example.com", models.ProfileUpdate{Bio: &bio})
	assertKind(t, err, ErrNotFound)

	_, err = svc.GetByEmail(ctx, "ghost@example.com")
	assertKind(t, err, ErrNotFound)
}
