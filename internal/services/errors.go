// Package services implements the application core: the chat synchronization
// engine, the favorites consistency checker, the animal catalog, and user
// profiles. This file centralizes service-level error values so they can be
// consistently returned by service methods and mapped to HTTP results by the
// handler layer.
package services

import "errors"

var (
	// ErrSelfChat is returned when a user attempts to open or write a chat
	// with themselves. The rejection happens before any document is written.
	ErrSelfChat = errors.New("cannot create a chat with yourself")

	// ErrEmptyMessage is returned when a send is attempted with empty content.
	ErrEmptyMessage = errors.New("message content is empty")

	// ErrChatNotFound indicates that the requested chat does not exist.
	ErrChatNotFound = errors.New("chat not found")

	// ErrAnimalNotFound indicates that the requested animal does not exist in
	// the live catalog.
	ErrAnimalNotFound = errors.New("animal not found")

	// ErrUserNotFound indicates that no user matches the given id, email, or
	// nickname.
	ErrUserNotFound = errors.New("user not found")

	// ErrNotOwner is returned when a mutation targets an animal listed by a
	// different owner.
	ErrNotOwner = errors.New("animal belongs to a different owner")

	// ErrMissingAnimalID is returned when a favorite operation references an
	// animal without an id; the favorite key must equal the animal id.
	ErrMissingAnimalID = errors.New("animal id is required")

	// ErrValidation is a generic invalid-input error for required fields.
	ErrValidation = errors.New("invalid input")
)
