package repo

import (
	"context"

	"github.com/pettyapp/go-petty-backend/internal/domain"
	"github.com/pettyapp/go-petty-backend/internal/store"
)

// GetUser fetches a user profile by backend uid.
func GetUser(ctx context.Context, st store.Store, id string) (*domain.User, error) {
	var u domain.User
	if err := st.Get(ctx, ColUsers, id, &u); err != nil {
		return nil, err
	}
	u.ID = id
	return &u, nil
}

// CreateUser writes the profile document created at registration, keyed by
// the identity provider's uid.
func CreateUser(ctx context.Context, st store.Store, u domain.User) error {
	return st.Set(ctx, ColUsers, u.ID, u)
}

// UpdateUserFields merges mutable profile fields into an existing user
// document. Field names use the document schema ("nickname", "bio",
// "profileImageUrl", ...). Email is immutable and must never appear here.
func UpdateUserFields(ctx context.Context, st store.Store, id string, fields map[string]any) error {
	return st.Update(ctx, ColUsers, id, fields)
}

// FindUserByEmail returns the first user whose email equals email, or
// store.ErrNotFound.
func FindUserByEmail(ctx context.Context, st store.Store, email string) (*domain.User, error) {
	return findUser(ctx, st, store.Query{Eq: map[string]any{"email": email}})
}

// FindUserByNickname returns the first user with the given nickname, or
// store.ErrNotFound. Nicknames are not unique; the first match wins, which is
// the documented behavior of the nickname login flow.
func FindUserByNickname(ctx context.Context, st store.Store, nickname string) (*domain.User, error) {
	return findUser(ctx, st, store.Query{Eq: map[string]any{"nickname": nickname}})
}

func findUser(ctx context.Context, st store.Store, q store.Query) (*domain.User, error) {
	docs, err := st.Query(ctx, ColUsers, q)
	if err != nil {
		return nil, err
	}
	for _, d := range docs {
		var u domain.User
		if err := d.DataTo(&u); err != nil {
			continue
		}
		u.ID = d.ID
		return &u, nil
	}
	return nil, store.ErrNotFound
}
