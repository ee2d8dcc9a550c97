// Package domain defines the persisted entities of the pet network backend:
// users, animals, favorites, chats, and messages. The structs carry both
// `firestore` tags (the document schema, camelCase to stay wire-compatible
// with the mobile clients) and matching `json` tags so that API payloads and
// stored documents share one field vocabulary.
package domain

import "time"

// User is a registered pet owner. Documents live in the "users" collection,
// keyed by the identity provider's stable uid.
//
// Email is unique and immutable after registration. Nickname is mutable and
// not guaranteed unique; chat-list decoration always re-resolves it instead
// of trusting denormalized copies.
type User struct {
	ID              string    `json:"id"                        firestore:"id"`
	Email           string    `json:"email"                     firestore:"email"`
	Nickname        string    `json:"nickname"                  firestore:"nickname"`
	RegisteredAt    time.Time `json:"registeredAt"              firestore:"registeredAt"`
	Address         string    `json:"address,omitempty"         firestore:"address,omitempty"`
	City            string    `json:"city,omitempty"            firestore:"city,omitempty"`
	PostalCode      string    `json:"postalCode,omitempty"      firestore:"postalCode,omitempty"`
	ProfileImageURL string    `json:"profileImageUrl,omitempty" firestore:"profileImageUrl,omitempty"`
	Bio             string    `json:"bio,omitempty"             firestore:"bio,omitempty"`
}

// Animal is a listed pet, owned by exactly one user through the denormalized
// owner email (no referential integrity enforced by the store). Species is a
// free-form string expected, but not required, to match the external species
// catalog.
//
// The same struct doubles as a favorite entry: favoriting copies the animal
// document into users/{uid}/favorites keyed by the animal id, so a favorite
// entry's key always equals the id of the animal it denormalizes.
type Animal struct {
	ID                string   `json:"id"                          firestore:"id"`
	Name              string   `json:"name"                        firestore:"name"`
	Species           string   `json:"species"                     firestore:"species"`
	Gender            string   `json:"gender,omitempty"            firestore:"gender,omitempty"`
	Weight            *float64 `json:"weight,omitempty"            firestore:"weight,omitempty"`
	Birthday          string   `json:"birthday,omitempty"          firestore:"birthday,omitempty"`
	ImageURL          string   `json:"imageUrl"                    firestore:"imageUrl"`
	InsuranceProvider string   `json:"insuranceProvider,omitempty" firestore:"insuranceProvider,omitempty"`
	PolicyNumber      string   `json:"policyNumber,omitempty"      firestore:"policyNumber,omitempty"`
	OwnerEmail        string   `json:"email"                       firestore:"email"`
}

// Species is one entry of the externally hosted species catalog. Field names
// mirror the upstream API payload verbatim.
type Species struct {
	Species      string `json:"species"`
	Description  string `json:"description"`
	PlaceOfFound string `json:"place_of_found"`
	Family       string `json:"family"`
	Diet         string `json:"diet"`
	Habitat      string `json:"habitat"`
}

// Chat is a direct conversation between exactly two users. The document id is
// derived deterministically from the member emails (see ChatID), so at most
// one chat document exists per unordered pair.
//
// OtherUserEmail and OtherUserNickname are per-viewer decoration computed at
// read time; they are never persisted and never trusted as the other party's
// source of truth.
type Chat struct {
	ID          string    `json:"id"          firestore:"id"`
	Members     []string  `json:"members"     firestore:"members"`
	Name        string    `json:"name"        firestore:"name"`
	LastMessage string    `json:"lastMessage" firestore:"lastMessage"`
	LastUpdated time.Time `json:"lastUpdated" firestore:"lastUpdated"`

	OtherUserEmail    string `json:"otherUserEmail,omitempty"    firestore:"-"`
	OtherUserNickname string `json:"otherUserNickname,omitempty" firestore:"-"`
}

// OtherMember returns the first member email that is not viewerEmail, or ""
// when the chat has no such member (malformed document).
func (c Chat) OtherMember(viewerEmail string) string {
	for _, m := range c.Members {
		if m != viewerEmail {
			return m
		}
	}
	return ""
}

// Message is a single utterance inside a chat's "messages" subcollection.
// Messages are immutable once created; SenderID is the backend user id (not
// an email) and Sent is the server-observed send time.
type Message struct {
	ID       string    `json:"id"        firestore:"id"`
	Content  string    `json:"content"   firestore:"content"`
	SenderID string    `json:"senderID"  firestore:"senderID"`
	Sent     time.Time `json:"timestamp" firestore:"timestamp"`
}
