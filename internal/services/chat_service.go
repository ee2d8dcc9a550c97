// Package services – ChatService
//
// This file implements the stateless half of the chat synchronization engine:
// deterministic chat-id handling, the ensure-chat-exists-and-update-metadata
// write path, nickname resolution, and message sends. The per-viewer live
// state (chat list, open message stream, draft buffer) lives in ChatFeed.
//
// The ensure step is a read-check-then-write, not a transaction: two senders
// racing on first contact can both write, but the second write only
// overwrites summary metadata, so exactly one chat document survives and only
// the lastMessage summary is non-deterministic. That race is documented and
// accepted; no data is lost at the document level.
package services

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/pettyapp/go-petty-backend/internal/domain"
	"github.com/pettyapp/go-petty-backend/internal/repo"
	"github.com/pettyapp/go-petty-backend/internal/store"
)

// unknownNickname is the sentinel shown when the other participant's profile
// cannot be resolved.
const unknownNickname = "Unknown"

// ChatService coordinates chat metadata and message persistence over the
// injected document store. Safe for concurrent use.
type ChatService struct {
	// St is the document-store port shared by all engines.
	St store.Store

	// Now supplies the server-observed time; defaults to time.Now. Tests
	// override it for deterministic timestamps.
	Now func() time.Time
}

// NewChatService constructs a ChatService over the given store.
func NewChatService(st store.Store) *ChatService {
	return &ChatService{St: st, Now: time.Now}
}

// SendInput carries everything needed to deliver one message.
type SendInput struct {
	// SelfEmail and OtherEmail identify the pair; the chat id is derived from
	// them, so callers cannot address an arbitrary chat document.
	SelfEmail  string
	OtherEmail string
	// SenderID is the backend user id of the sender (not an email).
	SenderID string
	// ChatName is the display name used if the chat is created by this send.
	ChatName string
	// Content is the message body; must be non-empty.
	Content string
}

// Send delivers one message: it derives the chat id, ensures the chat exists
// with fresh summary metadata, then appends the message with the
// server-observed timestamp. The two writes are sequential, not
// transactional: if the append fails after the ensure succeeded, the chat's
// lastMessage points at content that was never stored as a message. That
// degraded state is logged, not retried.
func (s *ChatService) Send(ctx context.Context, in SendInput) (string, error) {
	tr := otel.Tracer("services/ChatService")
	ctx, span := tr.Start(ctx, "Send",
		trace.WithAttributes(attribute.String("chat.sender_id", in.SenderID)),
	)
	defer span.End()

	if strings.TrimSpace(in.Content) == "" {
		return "", ErrEmptyMessage
	}
	chatID, err := domain.ChatID(in.SelfEmail, in.OtherEmail)
	if err != nil {
		if in.SelfEmail != "" && in.SelfEmail == in.OtherEmail {
			return "", ErrSelfChat
		}
		return "", err
	}

	if err := s.EnsureChat(ctx, chatID, in.SelfEmail, in.OtherEmail, in.ChatName, in.Content); err != nil {
		return "", err
	}

	msg := domain.Message{
		Content:  in.Content,
		SenderID: in.SenderID,
		Sent:     s.Now().UTC(),
	}
	if _, err := repo.AppendMessage(ctx, s.St, chatID, msg); err != nil {
		log.Error().Err(err).
			Str("chat_id", chatID).
			Msg("message append failed after metadata update; lastMessage is stale")
		return "", err
	}
	messagesSent.Inc()
	return chatID, nil
}

// EnsureChat guarantees a chat document exists for chatID and that its
// summary metadata reflects lastMessage as of now.
//
// If no chat exists yet: self-chat is rejected before any write, the other
// participant's nickname is resolved (defaulting to "Unknown" on lookup
// failure), and the chat is created with both emails as members. If the chat
// already exists, only lastMessage and lastUpdated are rewritten; every other
// field is immutable on update.
//
// Invoking EnsureChat twice with identical arguments leaves exactly one chat
// document whose summary reflects the second call.
func (s *ChatService) EnsureChat(ctx context.Context, chatID, selfEmail, otherEmail, name, lastMessage string) error {
	tr := otel.Tracer("services/ChatService")
	ctx, span := tr.Start(ctx, "EnsureChat",
		trace.WithAttributes(attribute.String("chat.id", chatID)),
	)
	defer span.End()

	_, err := repo.GetChat(ctx, s.St, chatID)
	switch {
	case err == store.ErrNotFound:
		if selfEmail == otherEmail {
			return ErrSelfChat
		}
		// Resolved for the chat's display name at creation; viewers still
		// re-resolve nicknames on every read.
		if name == "" {
			name = s.Nickname(ctx, otherEmail)
		}
		chat := domain.Chat{
			ID:          chatID,
			Members:     []string{selfEmail, otherEmail},
			Name:        name,
			LastMessage: lastMessage,
			LastUpdated: s.Now().UTC(),
		}
		if err := repo.CreateChat(ctx, s.St, chat); err != nil {
			return err
		}
		chatsCreated.Inc()
		return nil
	case err != nil:
		return err
	default:
		return repo.TouchChat(ctx, s.St, chatID, lastMessage, s.Now().UTC())
	}
}

// Nickname resolves the current nickname for an email with a fresh lookup.
// Lookup failures degrade to the "Unknown" sentinel; decoration is cosmetic
// and must never fail a caller.
func (s *ChatService) Nickname(ctx context.Context, email string) string {
	u, err := repo.FindUserByEmail(ctx, s.St, email)
	if err != nil {
		if err != store.ErrNotFound {
			log.Warn().Err(err).Str("email", email).Msg("nickname lookup failed")
		}
		return unknownNickname
	}
	return u.Nickname
}

// ListChats returns the viewer's chats decorated and sorted by lastUpdated
// descending, one-shot. The live equivalent is ChatFeed.
func (s *ChatService) ListChats(ctx context.Context, viewerEmail string) ([]domain.Chat, error) {
	tr := otel.Tracer("services/ChatService")
	ctx, span := tr.Start(ctx, "ListChats",
		trace.WithAttributes(attribute.String("chat.viewer", viewerEmail)),
	)
	defer span.End()

	chats, dropped, err := repo.ListChats(ctx, s.St, viewerEmail)
	if err != nil {
		return nil, err
	}
	if dropped > 0 {
		droppedDocuments.WithLabelValues("chat").Add(float64(dropped))
	}
	for i := range chats {
		s.decorate(ctx, &chats[i], viewerEmail)
	}
	sortChatsByActivity(chats)
	return chats, nil
}

// Messages returns a chat's messages in non-decreasing timestamp order,
// one-shot. The chat must exist.
func (s *ChatService) Messages(ctx context.Context, chatID string) ([]domain.Message, error) {
	if _, err := repo.GetChat(ctx, s.St, chatID); err != nil {
		if err == store.ErrNotFound {
			return nil, ErrChatNotFound
		}
		return nil, err
	}
	msgs, dropped, err := repo.ListMessages(ctx, s.St, chatID)
	if err != nil {
		return nil, err
	}
	if dropped > 0 {
		droppedDocuments.WithLabelValues("message").Add(float64(dropped))
	}
	return msgs, nil
}

// decorate fills the per-viewer transient fields of one chat.
func (s *ChatService) decorate(ctx context.Context, c *domain.Chat, viewerEmail string) {
	other := c.OtherMember(viewerEmail)
	c.OtherUserEmail = other
	if other != "" {
		c.OtherUserNickname = s.Nickname(ctx, other)
	}
}
