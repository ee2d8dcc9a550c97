// Package services – UserService
//
// User profile operations: the profile document created at registration,
// lookup by id, email, or nickname (the login-by-nickname flow resolves a
// nickname to its email before authenticating), and partial updates of the
// mutable fields. Email is immutable after creation and is never part of an
// update.
package services

import (
	"context"
	"strings"
	"time"

	"github.com/pettyapp/go-petty-backend/internal/domain"
	"github.com/pettyapp/go-petty-backend/internal/repo"
	"github.com/pettyapp/go-petty-backend/internal/store"
)

// UserService provides profile operations over the injected store. Safe for
// concurrent use.
type UserService struct {
	St store.Store

	// Now supplies registration timestamps; defaults to time.Now.
	Now func() time.Time
}

// NewUserService constructs a UserService over the given store.
func NewUserService(st store.Store) *UserService {
	return &UserService{St: st, Now: time.Now}
}

// Get returns the profile for a backend uid, or ErrUserNotFound.
func (s *UserService) Get(ctx context.Context, id string) (*domain.User, error) {
	u, err := repo.GetUser(ctx, s.St, id)
	if err == store.ErrNotFound {
		return nil, ErrUserNotFound
	}
	return u, err
}

// FindByEmail returns the profile registered under email, or ErrUserNotFound.
func (s *UserService) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	u, err := repo.FindUserByEmail(ctx, s.St, email)
	if err == store.ErrNotFound {
		return nil, ErrUserNotFound
	}
	return u, err
}

// FindByNickname returns the first profile carrying nickname, or
// ErrUserNotFound. Nicknames are not unique; first match wins.
func (s *UserService) FindByNickname(ctx context.Context, nickname string) (*domain.User, error) {
	u, err := repo.FindUserByNickname(ctx, s.St, nickname)
	if err == store.ErrNotFound {
		return nil, ErrUserNotFound
	}
	return u, err
}

// Register creates the profile document for a freshly authenticated uid.
func (s *UserService) Register(ctx context.Context, id, email, nickname string) (*domain.User, error) {
	if strings.TrimSpace(id) == "" || strings.TrimSpace(email) == "" || strings.TrimSpace(nickname) == "" {
		return nil, ErrValidation
	}
	u := domain.User{
		ID:           id,
		Email:        email,
		Nickname:     nickname,
		RegisteredAt: s.Now().UTC(),
	}
	if err := repo.CreateUser(ctx, s.St, u); err != nil {
		return nil, err
	}
	return &u, nil
}

// UpdateNickname rewrites the user's display name.
func (s *UserService) UpdateNickname(ctx context.Context, id, nickname string) error {
	if strings.TrimSpace(nickname) == "" {
		return ErrValidation
	}
	return s.update(ctx, id, map[string]any{"nickname": nickname})
}

// UpdateBio rewrites the user's bio; an empty bio is allowed.
func (s *UserService) UpdateBio(ctx context.Context, id, bio string) error {
	return s.update(ctx, id, map[string]any{"bio": bio})
}

// UpdateProfileImageURL points the profile at a freshly uploaded image.
func (s *UserService) UpdateProfileImageURL(ctx context.Context, id, url string) error {
	if strings.TrimSpace(url) == "" {
		return ErrValidation
	}
	return s.update(ctx, id, map[string]any{"profileImageUrl": url})
}

func (s *UserService) update(ctx context.Context, id string, fields map[string]any) error {
	err := repo.UpdateUserFields(ctx, s.St, id, fields)
	if err == store.ErrNotFound {
		return ErrUserNotFound
	}
	return err
}
