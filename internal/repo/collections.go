// Package repo implements the data persistence layer for domain entities over
// the document-store port. It follows the "thin repository" approach: no
// business logic, only reads, writes, query composition, and decoding.
//
// All functions are context-aware and accept a store.Store handle, so they
// work identically against the Firestore adapter and the in-process adapter.
//
// Error semantics:
//   - Missing documents surface as store.ErrNotFound.
//   - Per-item decode failures never abort a list: the broken document is
//     dropped and counted, and the remainder is returned (partial results are
//     favored over total failure).
package repo

// Collection layout of the hosted backend:
//
//	users/{uid}
//	users/{uid}/favorites/{animalId}
//	animals/{id}
//	chats/{chatId}
//	chats/{chatId}/messages/{messageId}
const (
	ColUsers   = "users"
	ColAnimals = "animals"
	ColChats   = "chats"
)

// FavoritesCol returns the favorites subcollection path for a user.
func FavoritesCol(userID string) string {
	return ColUsers + "/" + userID + "/favorites"
}

// MessagesCol returns the messages subcollection path for a chat.
func MessagesCol(chatID string) string {
	return ColChats + "/" + chatID + "/messages"
}
