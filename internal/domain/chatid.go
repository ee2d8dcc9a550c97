package domain

import (
	"errors"
	"sort"
	"strings"
)

// ChatIDSeparator joins the two sorted member emails into a chat id. It is
// not escaped against emails that themselves contain an underscore; a
// colliding pair is theoretically possible and accepted as a limitation of
// the schema.
const ChatIDSeparator = "_"

// ErrInvalidChatMembers is returned by ChatID when either email is empty or
// both are the same address.
var ErrInvalidChatMembers = errors.New("chat members must be two distinct non-empty emails")

// ChatID derives the canonical conversation id for a pair of member emails.
// The derivation is symmetric and deterministic: the emails are sorted
// lexicographically and joined with ChatIDSeparator, so
// ChatID(a, b) == ChatID(b, a) for every valid pair.
func ChatID(emailA, emailB string) (string, error) {
	if emailA == "" || emailB == "" || emailA == emailB {
		return "", ErrInvalidChatMembers
	}
	members := []string{emailA, emailB}
	sort.Strings(members)
	return strings.Join(members, ChatIDSeparator), nil
}
