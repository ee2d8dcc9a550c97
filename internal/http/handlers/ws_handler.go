// Live chat websocket handler.
//
// GET /ws upgrades to a websocket carrying the caller's live chat feed. One
// connection maps to one ChatFeed; the feed's subscriptions are torn down
// when the socket closes, so a disconnected client never leaks listeners.
//
// Frames from the client are JSON actions:
//
//	{"action":"open",  "chatId":"a@x.com_b@y.com"}   open a message thread
//	{"action":"close"}                               close the open thread
//	{"action":"draft", "content":"typing..."}        replace the draft buffer
//	{"action":"send",  "otherEmail":"b@y.com", "chatName":"Bob"}  send draft
//
// Frames to the client:
//
//	{"type":"chats",    "chats":[...]}               full decorated chat list
//	{"type":"messages", "chatId":"...", "messages":[...]}  open thread
//	{"type":"sent",     "chatId":"..."}              draft delivered
//	{"type":"error",    "code":"...", "message":"..."}
//
// State frames always carry the full current list; the client replaces, it
// never merges.
package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/pettyapp/go-petty-backend/internal/domain"
	"github.com/pettyapp/go-petty-backend/internal/http/middleware"
	"github.com/pettyapp/go-petty-backend/internal/services"
)

const (
	// writeWait is the deadline for a single outbound frame.
	writeWait = 10 * time.Second
	// pongWait is how long the connection survives without a pong.
	pongWait = 60 * time.Second
	// pingPeriod must be shorter than pongWait.
	pingPeriod = (pongWait * 9) / 10
	// maxActionBytes bounds inbound action frames.
	maxActionBytes = 16 << 10
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	// The socket is authenticated by the bearer token, not the origin.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// feedAction is one inbound client frame.
type feedAction struct {
	Action     string `json:"action"`
	ChatID     string `json:"chatId"`
	Content    string `json:"content"`
	OtherEmail string `json:"otherEmail"`
	ChatName   string `json:"chatName"`
}

// chatsFrame carries the full decorated chat list.
type chatsFrame struct {
	Type  string        `json:"type"`
	Chats []domain.Chat `json:"chats"`
}

// messagesFrame carries the open thread in send order.
type messagesFrame struct {
	Type     string           `json:"type"`
	ChatID   string           `json:"chatId"`
	Messages []domain.Message `json:"messages"`
}

// sentFrame acknowledges a delivered draft.
type sentFrame struct {
	Type   string `json:"type"`
	ChatID string `json:"chatId"`
}

// errorFrame reports a failed action without closing the socket.
type errorFrame struct {
	Type    string `json:"type"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ChatFeedSocket upgrades the request and streams the caller's live feed
// until the client disconnects.
func (h *Handlers) ChatFeedSocket(c *gin.Context) {
	lg := middleware.LoggerFrom(c)

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error.
		lg.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	feed := h.feedFor(userEmail(c))
	defer feed.Close()

	if err := feed.Start(ctx); err != nil {
		lg.Error().Err(err).Msg("chat feed start failed")
		conn.Close()
		return
	}

	// Gorilla permits one concurrent writer; every outbound frame funnels
	// through the write loop. Action results go via this channel.
	outbound := make(chan any, 8)
	go h.feedWriteLoop(conn, feed, outbound)
	h.feedReadLoop(ctx, conn, feed, userID(c), outbound)
}

// feedReadLoop consumes client actions until the socket dies. Closing the
// connection makes the write loop exit as well.
func (h *Handlers) feedReadLoop(ctx context.Context, conn *websocket.Conn, feed *services.ChatFeed, senderID string, outbound chan<- any) {
	defer conn.Close()
	conn.SetReadLimit(maxActionBytes)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var act feedAction
		if err := json.Unmarshal(raw, &act); err != nil {
			sendFrame(outbound, errorFrame{Type: "error", Code: ErrCodeBadRequest, Message: "invalid action frame"})
			continue
		}

		switch act.Action {
		case "open":
			if err := feed.OpenChat(ctx, act.ChatID); err != nil {
				sendFrame(outbound, errorFrame{Type: "error", Code: ErrCodeInternal, Message: "could not open chat"})
			}
		case "close":
			feed.CloseMessages()
		case "draft":
			feed.SetDraft(act.Content)
		case "send":
			chatID, err := feed.SendDraft(ctx, senderID, act.OtherEmail, act.ChatName)
			if err != nil {
				sendFrame(outbound, errorFrame{Type: "error", Code: ErrCodeSendFailed, Message: "could not send message"})
				continue
			}
			sendFrame(outbound, sentFrame{Type: "sent", ChatID: chatID})
		default:
			sendFrame(outbound, errorFrame{Type: "error", Code: ErrCodeBadRequest, Message: "unknown action"})
		}
	}
}

// feedWriteLoop is the sole writer of the connection. It pushes state frames
// on feed updates, relays action results, and keeps the connection alive
// with pings.
func (h *Handlers) feedWriteLoop(conn *websocket.Conn, feed *services.ChatFeed, outbound <-chan any) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()

	for {
		select {
		case _, open := <-feed.Updates():
			if !open {
				conn.SetWriteDeadline(time.Now().Add(writeWait))
				conn.WriteMessage(websocket.CloseMessage, nil)
				return
			}
			if !writeJSON(conn, chatsFrame{Type: "chats", Chats: feed.Chats()}) {
				return
			}
			if chatID := feed.OpenChatID(); chatID != "" {
				if !writeJSON(conn, messagesFrame{Type: "messages", ChatID: chatID, Messages: feed.Messages()}) {
					return
				}
			}
		case frame := <-outbound:
			if !writeJSON(conn, frame) {
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// sendFrame queues a frame for the write loop, dropping it when the client
// cannot keep up. Dropped result frames are tolerable; the next state push
// resynchronizes the client.
func sendFrame(outbound chan<- any, frame any) {
	select {
	case outbound <- frame:
	default:
	}
}

// writeJSON writes one frame under the write deadline, reporting whether the
// connection is still usable.
func writeJSON(conn *websocket.Conn, v any) bool {
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(v) == nil
}
