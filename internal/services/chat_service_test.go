package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pettyapp/go-petty-backend/internal/domain"
	"github.com/pettyapp/go-petty-backend/internal/repo"
	"github.com/pettyapp/go-petty-backend/internal/store"
)

const (
	alice = "alice@x.com"
	bob   = "bob@y.com"
)

func newTestChatService(st store.Store) *ChatService {
	s := NewChatService(st)
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	calls := 0
	s.Now = func() time.Time {
		calls++
		return base.Add(time.Duration(calls) * time.Second)
	}
	return s
}

func TestSend_CreatesChatOnFirstContact(t *testing.T) {
	m := store.NewMemory()
	s := newTestChatService(m)
	ctx := context.Background()

	chatID, err := s.Send(ctx, SendInput{
		SelfEmail:  bob,
		OtherEmail: alice,
		SenderID:   "uid-bob",
		ChatName:   "Alice",
		Content:    "hi",
	})
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if chatID != "alice@x.com_bob@y.com" {
		t.Fatalf("chatID = %q", chatID)
	}

	chat, err := repo.GetChat(ctx, m, chatID)
	if err != nil {
		t.Fatalf("GetChat: %v", err)
	}
	if len(chat.Members) != 2 || chat.Members[0] != bob || chat.Members[1] != alice {
		t.Fatalf("members = %v", chat.Members)
	}
	if chat.Name != "Alice" {
		t.Fatalf("name = %q", chat.Name)
	}
	if chat.LastMessage != "hi" {
		t.Fatalf("lastMessage = %q", chat.LastMessage)
	}

	msgs, _, err := repo.ListMessages(ctx, m, chatID)
	if err != nil {
		t.Fatalf("ListMessages: %v", err)
	}
	if len(msgs) != 1 || msgs[0].Content != "hi" || msgs[0].SenderID != "uid-bob" {
		t.Fatalf("messages = %+v", msgs)
	}
}

func TestSend_SecondSendReusesChat(t *testing.T) {
	m := store.NewMemory()
	s := newTestChatService(m)
	ctx := context.Background()

	first, err := s.Send(ctx, SendInput{SelfEmail: bob, OtherEmail: alice, SenderID: "uid-bob", Content: "hi"})
	if err != nil {
		t.Fatalf("first Send: %v", err)
	}
	second, err := s.Send(ctx, SendInput{SelfEmail: alice, OtherEmail: bob, SenderID: "uid-alice", Content: "hello"})
	if err != nil {
		t.Fatalf("second Send: %v", err)
	}
	if first != second {
		t.Fatalf("chat ids differ: %q vs %q", first, second)
	}

	chat, err := repo.GetChat(ctx, m, first)
	if err != nil {
		t.Fatalf("GetChat: %v", err)
	}
	if chat.LastMessage != "hello" {
		t.Fatalf("lastMessage = %q; want hello", chat.LastMessage)
	}

	msgs, _, err := repo.ListMessages(ctx, m, first)
	if err != nil {
		t.Fatalf("ListMessages: %v", err)
	}
	if len(msgs) != 2 {
		t.Fatalf("got %d messages; want 2", len(msgs))
	}
	if msgs[0].Content != "hi" || msgs[1].Content != "hello" {
		t.Fatalf("message order = [%q, %q]", msgs[0].Content, msgs[1].Content)
	}
}

func TestSend_RejectsSelfChat(t *testing.T) {
	s := newTestChatService(store.NewMemory())
	_, err := s.Send(context.Background(), SendInput{SelfEmail: alice, OtherEmail: alice, SenderID: "u", Content: "hi"})
	if !errors.Is(err, ErrSelfChat) {
		t.Fatalf("expected ErrSelfChat, got %v", err)
	}
}

func TestSend_RejectsEmptyContent(t *testing.T) {
	s := newTestChatService(store.NewMemory())
	for _, content := range []string{"", "   ", "\t\n"} {
		_, err := s.Send(context.Background(), SendInput{SelfEmail: alice, OtherEmail: bob, SenderID: "u", Content: content})
		if !errors.Is(err, ErrEmptyMessage) {
			t.Errorf("content %q: expected ErrEmptyMessage, got %v", content, err)
		}
	}
}

func TestEnsureChat_Idempotent(t *testing.T) {
	m := store.NewMemory()
	s := newTestChatService(m)
	ctx := context.Background()
	chatID := "alice@x.com_bob@y.com"

	if err := s.EnsureChat(ctx, chatID, alice, bob, "Bob", "first"); err != nil {
		t.Fatalf("first EnsureChat: %v", err)
	}
	if err := s.EnsureChat(ctx, chatID, alice, bob, "Bob", "second"); err != nil {
		t.Fatalf("second EnsureChat: %v", err)
	}

	chats, _, err := repo.ListChats(ctx, m, alice)
	if err != nil {
		t.Fatalf("ListChats: %v", err)
	}
	if len(chats) != 1 {
		t.Fatalf("got %d chats; want 1", len(chats))
	}
	if chats[0].LastMessage != "second" {
		t.Fatalf("lastMessage = %q; want second", chats[0].LastMessage)
	}
	// Name is immutable after creation.
	if chats[0].Name != "Bob" {
		t.Fatalf("name = %q; want Bob", chats[0].Name)
	}
}

func TestEnsureChat_NameFallsBackToNickname(t *testing.T) {
	m := store.NewMemory()
	s := newTestChatService(m)
	ctx := context.Background()

	if err := repo.CreateUser(ctx, m, domain.User{ID: "uid-bob", Email: bob, Nickname: "Bobby"}); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}

	if err := s.EnsureChat(ctx, "alice@x.com_bob@y.com", alice, bob, "", "hi"); err != nil {
		t.Fatalf("EnsureChat: %v", err)
	}
	chat, err := repo.GetChat(ctx, m, "alice@x.com_bob@y.com")
	if err != nil {
		t.Fatalf("GetChat: %v", err)
	}
	if chat.Name != "Bobby" {
		t.Fatalf("name = %q; want Bobby", chat.Name)
	}
}

func TestEnsureChat_NameFallsBackToUnknown(t *testing.T) {
	m := store.NewMemory()
	s := newTestChatService(m)

	if err := s.EnsureChat(context.Background(), "alice@x.com_bob@y.com", alice, bob, "", "hi"); err != nil {
		t.Fatalf("EnsureChat: %v", err)
	}
	chat, err := repo.GetChat(context.Background(), m, "alice@x.com_bob@y.com")
	if err != nil {
		t.Fatalf("GetChat: %v", err)
	}
	if chat.Name != unknownNickname {
		t.Fatalf("name = %q; want %q", chat.Name, unknownNickname)
	}
}

// failingAppendStore lets the ensure write through and fails the message
// append, reproducing the degraded state where lastMessage points at content
// that never became a message.
type failingAppendStore struct {
	*store.Memory
	addErr error
}

func (f *failingAppendStore) Add(ctx context.Context, collection string, v any) (string, error) {
	return "", f.addErr
}

func TestSend_AppendFailureLeavesStaleSummary(t *testing.T) {
	m := store.NewMemory()
	boom := errors.New("backend down")
	s := newTestChatService(&failingAppendStore{Memory: m, addErr: boom})
	ctx := context.Background()

	_, err := s.Send(ctx, SendInput{SelfEmail: bob, OtherEmail: alice, SenderID: "uid-bob", Content: "hi"})
	if !errors.Is(err, boom) {
		t.Fatalf("expected append error, got %v", err)
	}

	// The chat document was still created with the summary of the message
	// that never landed.
	chat, err := repo.GetChat(ctx, m, "alice@x.com_bob@y.com")
	if err != nil {
		t.Fatalf("GetChat: %v", err)
	}
	if chat.LastMessage != "hi" {
		t.Fatalf("lastMessage = %q; want hi", chat.LastMessage)
	}
	msgs, _, err := repo.ListMessages(ctx, m, chat.ID)
	if err != nil {
		t.Fatalf("ListMessages: %v", err)
	}
	if len(msgs) != 0 {
		t.Fatalf("got %d messages; want 0", len(msgs))
	}
}

func TestListChats_DecoratesAndSorts(t *testing.T) {
	m := store.NewMemory()
	s := newTestChatService(m)
	ctx := context.Background()

	repo.CreateUser(ctx, m, domain.User{ID: "uid-bob", Email: bob, Nickname: "Bobby"})

	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	repo.CreateChat(ctx, m, domain.Chat{
		ID: "alice@x.com_bob@y.com", Members: []string{alice, bob}, Name: "Bobby",
		LastMessage: "old", LastUpdated: base,
	})
	repo.CreateChat(ctx, m, domain.Chat{
		ID: "alice@x.com_carol@z.com", Members: []string{alice, "carol@z.com"}, Name: "Carol",
		LastMessage: "new", LastUpdated: base.Add(time.Hour),
	})

	chats, err := s.ListChats(ctx, alice)
	if err != nil {
		t.Fatalf("ListChats: %v", err)
	}
	if len(chats) != 2 {
		t.Fatalf("got %d chats; want 2", len(chats))
	}
	if chats[0].ID != "alice@x.com_carol@z.com" {
		t.Fatalf("most recent first; got %q", chats[0].ID)
	}
	if chats[1].OtherUserEmail != bob || chats[1].OtherUserNickname != "Bobby" {
		t.Fatalf("decoration = %q/%q", chats[1].OtherUserEmail, chats[1].OtherUserNickname)
	}
	// Carol has no profile; nickname degrades to the sentinel.
	if chats[0].OtherUserNickname != unknownNickname {
		t.Fatalf("nickname for unregistered user = %q", chats[0].OtherUserNickname)
	}
}

func TestMessages_MissingChat(t *testing.T) {
	s := newTestChatService(store.NewMemory())
	_, err := s.Messages(context.Background(), "nope")
	if !errors.Is(err, ErrChatNotFound) {
		t.Fatalf("expected ErrChatNotFound, got %v", err)
	}
}

func TestNickname_FreshLookupSeesUpdates(t *testing.T) {
	m := store.NewMemory()
	s := newTestChatService(m)
	ctx := context.Background()

	repo.CreateUser(ctx, m, domain.User{ID: "uid-bob", Email: bob, Nickname: "Bobby"})
	if got := s.Nickname(ctx, bob); got != "Bobby" {
		t.Fatalf("nickname = %q", got)
	}

	if err := repo.UpdateUserFields(ctx, m, "uid-bob", map[string]any{"nickname": "Robert"}); err != nil {
		t.Fatalf("UpdateUserFields: %v", err)
	}
	if got := s.Nickname(ctx, bob); got != "Robert" {
		t.Fatalf("nickname after rename = %q; want Robert", got)
	}
}
