package repo

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/pettyapp/go-petty-backend/internal/domain"
	"github.com/pettyapp/go-petty-backend/internal/store"
)

// AppendMessage adds a message to the chat's subcollection under a
// backend-generated id and returns that id. Messages are immutable once
// written.
func AppendMessage(ctx context.Context, st store.Store, chatID string, m domain.Message) (string, error) {
	m.ID = ""
	return st.Add(ctx, MessagesCol(chatID), m)
}

// SubscribeMessages opens a live query over a chat's messages ordered by send
// time ascending. Ordering is enforced by the store's query, not by
// client-side sequencing.
func SubscribeMessages(ctx context.Context, st store.Store, chatID string) (store.Subscription, error) {
	return st.Subscribe(ctx, MessagesCol(chatID), store.Query{
		OrderBy: "timestamp",
	})
}

// ListMessages returns a chat's messages ordered by send time ascending,
// one-shot.
func ListMessages(ctx context.Context, st store.Store, chatID string) ([]domain.Message, int, error) {
	docs, err := st.Query(ctx, MessagesCol(chatID), store.Query{
		OrderBy: "timestamp",
	})
	if err != nil {
		return nil, 0, err
	}
	msgs, dropped := DecodeMessages(docs)
	return msgs, dropped, nil
}

// DecodeMessages maps raw documents to messages, dropping undecodable entries
// and returning how many were dropped.
func DecodeMessages(docs []store.Document) ([]domain.Message, int) {
	out := make([]domain.Message, 0, len(docs))
	dropped := 0
	for _, d := range docs {
		var m domain.Message
		if err := d.DataTo(&m); err != nil {
			dropped++
			log.Warn().Err(err).Str("message_id", d.ID).Msg("dropping undecodable message document")
			continue
		}
		m.ID = d.ID
		out = append(out, m)
	}
	return out, dropped
}
