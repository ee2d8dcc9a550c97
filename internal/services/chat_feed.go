// Package services – ChatFeed
//
// ChatFeed is the per-viewer live half of the chat synchronization engine:
// it owns the decorated chat list, the message list of the currently open
// chat, and the draft buffer. One feed maps to one connected client (a
// websocket session); at most one live message subscription exists per feed,
// and opening a new chat tears the previous subscription down first so
// messages are never delivered twice.
//
// All state writes are serialized through the feed's mutex, which is the
// single-writer "main sequence" of this engine. Decoration lookups fan out
// per chat with no ordering between them; the last lookup to complete for a
// given chat wins, which is acceptable because decoration is cosmetic only.
package services

import (
	"context"
	"sort"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/pettyapp/go-petty-backend/internal/domain"
	"github.com/pettyapp/go-petty-backend/internal/repo"
	"github.com/pettyapp/go-petty-backend/internal/store"
)

// ChatFeed streams a viewer's chats and one open message thread. Create with
// NewChatFeed, then Start; always Close when the client disconnects so the
// live subscriptions are released.
type ChatFeed struct {
	svc    *ChatService
	viewer string // viewer's email

	mu         sync.Mutex
	chats      []domain.Chat
	messages   []domain.Message
	draft      string
	openChatID string
	chatSub    store.Subscription
	msgSub     store.Subscription
	closed     bool

	updates chan struct{}
}

// NewChatFeed builds a feed for the given viewer email.
func NewChatFeed(svc *ChatService, viewerEmail string) *ChatFeed {
	return &ChatFeed{
		svc:     svc,
		viewer:  viewerEmail,
		updates: make(chan struct{}, 1),
	}
}

// Updates signals that Chats or Messages changed. Signals are coalesced;
// consumers read the current state after each wake-up. The channel is closed
// by Close.
func (f *ChatFeed) Updates() <-chan struct{} { return f.updates }

// Start opens the live chat-list subscription. The feed converges to backend
// state: every push re-decorates and re-sorts the full list. Calling Start on
// a feed that is already started or closed is a no-op.
func (f *ChatFeed) Start(ctx context.Context) error {
	sub, err := repo.SubscribeChats(ctx, f.svc.St, f.viewer)
	if err != nil {
		return err
	}
	f.mu.Lock()
	if f.closed || f.chatSub != nil {
		f.mu.Unlock()
		sub.Close()
		return nil
	}
	f.chatSub = sub
	f.mu.Unlock()

	go func() {
		for docs := range sub.Updates() {
			f.applyChats(ctx, docs)
		}
	}()
	return nil
}

// OpenChat switches the feed's message stream to chatID, replacing any
// previous stream atomically (last-subscribe-wins). The previous
// subscription is torn down before the new one is attached, so no message is
// delivered to the feed twice.
func (f *ChatFeed) OpenChat(ctx context.Context, chatID string) error {
	sub, err := repo.SubscribeMessages(ctx, f.svc.St, chatID)
	if err != nil {
		return err
	}

	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		sub.Close()
		return nil
	}
	if prev := f.msgSub; prev != nil {
		prev.Close()
	}
	f.msgSub = sub
	f.openChatID = chatID
	f.messages = nil
	f.mu.Unlock()

	go func() {
		for docs := range sub.Updates() {
			f.applyMessages(sub, docs)
		}
	}()
	f.signal()
	return nil
}

// CloseMessages tears down the active message subscription, if any. It is
// idempotent and leaves the chat-list stream running.
func (f *ChatFeed) CloseMessages() {
	f.mu.Lock()
	sub := f.msgSub
	f.msgSub = nil
	f.openChatID = ""
	f.messages = nil
	f.mu.Unlock()
	if sub != nil {
		sub.Close()
	}
}

// Close releases every live subscription held by the feed. Idempotent; must
// be called when the feed's client goes away to avoid leaking listeners.
func (f *ChatFeed) Close() {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return
	}
	f.closed = true
	chatSub, msgSub := f.chatSub, f.msgSub
	f.chatSub, f.msgSub = nil, nil
	close(f.updates)
	f.mu.Unlock()

	if chatSub != nil {
		chatSub.Close()
	}
	if msgSub != nil {
		msgSub.Close()
	}
}

// Chats returns a copy of the current decorated chat list, sorted by
// lastUpdated descending.
func (f *ChatFeed) Chats() []domain.Chat {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]domain.Chat, len(f.chats))
	copy(out, f.chats)
	return out
}

// Messages returns a copy of the open chat's messages in non-decreasing
// timestamp order, or nil when no chat is open.
func (f *ChatFeed) Messages() []domain.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]domain.Message, len(f.messages))
	copy(out, f.messages)
	return out
}

// OpenChatID returns the id of the currently open chat, or "".
func (f *ChatFeed) OpenChatID() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.openChatID
}

// SetDraft replaces the draft buffer.
func (f *ChatFeed) SetDraft(content string) {
	f.mu.Lock()
	f.draft = content
	f.mu.Unlock()
}

// Draft returns the current draft buffer.
func (f *ChatFeed) Draft() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.draft
}

// SendDraft sends the draft buffer to otherEmail. The buffer is cleared
// optimistically before the outcome is known, matching the client behavior
// this backend replaces; a failed send therefore loses the draft.
func (f *ChatFeed) SendDraft(ctx context.Context, senderID, otherEmail, chatName string) (string, error) {
	f.mu.Lock()
	content := f.draft
	f.draft = ""
	f.mu.Unlock()

	chatID, err := f.svc.Send(ctx, SendInput{
		SelfEmail:  f.viewer,
		OtherEmail: otherEmail,
		SenderID:   senderID,
		ChatName:   chatName,
		Content:    content,
	})
	if err != nil {
		log.Warn().Err(err).Str("viewer", f.viewer).Msg("draft send failed")
		return "", err
	}
	return chatID, nil
}

// applyChats ingests one chat-list snapshot: decode (dropping broken
// documents), sort, publish, then fan out nickname decoration per chat.
func (f *ChatFeed) applyChats(ctx context.Context, docs []store.Document) {
	chats, dropped := repo.DecodeChats(docs)
	if dropped > 0 {
		droppedDocuments.WithLabelValues("chat").Add(float64(dropped))
	}
	for i := range chats {
		chats[i].OtherUserEmail = chats[i].OtherMember(f.viewer)
	}
	sortChatsByActivity(chats)

	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return
	}
	f.chats = chats
	f.mu.Unlock()
	f.signal()

	// Nickname lookups run independently per chat; completion order is
	// irrelevant because each write replaces a single cosmetic string.
	for _, c := range chats {
		if c.OtherUserEmail == "" {
			continue
		}
		go func(chatID, other string) {
			nick := f.svc.Nickname(ctx, other)
			f.mu.Lock()
			if f.closed {
				f.mu.Unlock()
				return
			}
			for i := range f.chats {
				if f.chats[i].ID == chatID {
					f.chats[i].OtherUserNickname = nick
					break
				}
			}
			f.mu.Unlock()
			f.signal()
		}(c.ID, c.OtherUserEmail)
	}
}

// applyMessages ingests one message snapshot, ignoring pushes from a
// subscription that has already been replaced.
func (f *ChatFeed) applyMessages(from store.Subscription, docs []store.Document) {
	msgs, dropped := repo.DecodeMessages(docs)
	if dropped > 0 {
		droppedDocuments.WithLabelValues("message").Add(float64(dropped))
	}
	f.mu.Lock()
	if f.closed || f.msgSub != from {
		f.mu.Unlock()
		return
	}
	f.messages = msgs
	f.mu.Unlock()
	f.signal()
}

// signal wakes the consumer without blocking; redundant signals coalesce.
func (f *ChatFeed) signal() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return
	}
	select {
	case f.updates <- struct{}{}:
	default:
	}
}

// sortChatsByActivity orders chats by lastUpdated descending, ties broken by
// id for determinism.
func sortChatsByActivity(chats []domain.Chat) {
	sort.SliceStable(chats, func(i, j int) bool {
		if !chats[i].LastUpdated.Equal(chats[j].LastUpdated) {
			return chats[i].LastUpdated.After(chats[j].LastUpdated)
		}
		return chats[i].ID < chats[j].ID
	})
}
