package repo

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/pettyapp/go-petty-backend/internal/domain"
	"github.com/pettyapp/go-petty-backend/internal/store"
)

// GetChat fetches a chat document by its derived id. Returns store.ErrNotFound
// when no chat exists yet for the pair.
func GetChat(ctx context.Context, st store.Store, chatID string) (*domain.Chat, error) {
	var c domain.Chat
	if err := st.Get(ctx, ColChats, chatID, &c); err != nil {
		return nil, err
	}
	c.ID = chatID
	return &c, nil
}

// CreateChat writes a brand-new chat document. Decoration fields are dropped;
// only the persisted schema is written.
func CreateChat(ctx context.Context, st store.Store, c domain.Chat) error {
	c.OtherUserEmail = ""
	c.OtherUserNickname = ""
	return st.Set(ctx, ColChats, c.ID, c)
}

// TouchChat updates only the summary metadata of an existing chat. All other
// fields are immutable on update.
func TouchChat(ctx context.Context, st store.Store, chatID, lastMessage string, at time.Time) error {
	return st.Update(ctx, ColChats, chatID, map[string]any{
		"lastMessage": lastMessage,
		"lastUpdated": at,
	})
}

// SubscribeChats opens a live query for every chat that memberEmail
// participates in.
func SubscribeChats(ctx context.Context, st store.Store, memberEmail string) (store.Subscription, error) {
	return st.Subscribe(ctx, ColChats, store.Query{
		Contains: map[string]any{"members": memberEmail},
	})
}

// ListChats returns the current chats of memberEmail, one-shot.
func ListChats(ctx context.Context, st store.Store, memberEmail string) ([]domain.Chat, int, error) {
	docs, err := st.Query(ctx, ColChats, store.Query{
		Contains: map[string]any{"members": memberEmail},
	})
	if err != nil {
		return nil, 0, err
	}
	chats, dropped := DecodeChats(docs)
	return chats, dropped, nil
}

// DecodeChats maps raw documents to chats, dropping entries whose shape does
// not decode. The dropped count is returned for observability.
func DecodeChats(docs []store.Document) ([]domain.Chat, int) {
	out := make([]domain.Chat, 0, len(docs))
	dropped := 0
	for _, d := range docs {
		var c domain.Chat
		if err := d.DataTo(&c); err != nil {
			dropped++
			log.Warn().Err(err).Str("chat_id", d.ID).Msg("dropping undecodable chat document")
			continue
		}
		c.ID = d.ID
		out = append(out, c)
	}
	return out, dropped
}
