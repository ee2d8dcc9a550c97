package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/pettyapp/go-petty-backend/internal/domain"
	"github.com/pettyapp/go-petty-backend/internal/services"
)

// ----- Fake chat service -----

type fakeChatService struct {
	sendIn   services.SendInput
	sendID   string
	sendErr  error
	chats    []domain.Chat
	listErr  error
	msgsID   string
	msgs     []domain.Message
	msgsErr  error
}

func (f *fakeChatService) Send(_ context.Context, in services.SendInput) (string, error) {
	f.sendIn = in
	return f.sendID, f.sendErr
}

func (f *fakeChatService) ListChats(_ context.Context, _ string) ([]domain.Chat, error) {
	return f.chats, f.listErr
}

func (f *fakeChatService) Messages(_ context.Context, chatID string) ([]domain.Message, error) {
	f.msgsID = chatID
	return f.msgs, f.msgsErr
}

// newChatTestRouter mounts the chat routes behind a stub auth layer.
func newChatTestRouter(svc ChatService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("userID", "uid-alice")
		c.Set("userEmail", "alice@x.com")
		c.Next()
	})
	h := New(svc, nil, nil, nil, nil, nil, nil)
	r.GET("/chats", h.ListChats)
	r.POST("/chats/messages", h.SendMessage)
	r.GET("/chats/:id/messages", h.ListMessages)
	return r
}

// ----- Tests -----

func TestSendMessage_OK(t *testing.T) {
	svc := &fakeChatService{sendID: "alice@x.com_bob@y.com"}
	r := newChatTestRouter(svc)

	body := `{"other_email":"bob@y.com","chat_name":"Bob","content":"hi"}`
	req := httptest.NewRequest(http.MethodPost, "/chats/messages", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var resp SendMessageResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.ChatID != "alice@x.com_bob@y.com" {
		t.Fatalf("chat_id = %q", resp.ChatID)
	}

	// Sender identity comes from auth context, never from the payload.
	if svc.sendIn.SelfEmail != "alice@x.com" || svc.sendIn.SenderID != "uid-alice" {
		t.Fatalf("send input = %+v", svc.sendIn)
	}
	if svc.sendIn.OtherEmail != "bob@y.com" || svc.sendIn.Content != "hi" {
		t.Fatalf("send input = %+v", svc.sendIn)
	}
}

func TestSendMessage_BadJSON(t *testing.T) {
	r := newChatTestRouter(&fakeChatService{})

	req := httptest.NewRequest(http.MethodPost, "/chats/messages", strings.NewReader("{"))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d; want 400", w.Code)
	}
}

func TestSendMessage_ServiceErrors(t *testing.T) {
	cases := []struct {
		err    error
		status int
		code   string
	}{
		{services.ErrSelfChat, http.StatusBadRequest, ErrCodeSelfChat},
		{services.ErrEmptyMessage, http.StatusBadRequest, ErrCodeEmptyMessage},
		{context.DeadlineExceeded, http.StatusInternalServerError, ErrCodeSendFailed},
	}
	for _, tc := range cases {
		r := newChatTestRouter(&fakeChatService{sendErr: tc.err})

		body := `{"other_email":"bob@y.com","content":"hi"}`
		req := httptest.NewRequest(http.MethodPost, "/chats/messages", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		if w.Code != tc.status {
			t.Errorf("%v: status = %d; want %d", tc.err, w.Code, tc.status)
		}
		var resp ErrorResponse
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if resp.Code != tc.code {
			t.Errorf("%v: code = %q; want %q", tc.err, resp.Code, tc.code)
		}
	}
}

func TestListChats_OK(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	svc := &fakeChatService{chats: []domain.Chat{
		{ID: "alice@x.com_bob@y.com", LastMessage: "hi", LastUpdated: now},
	}}
	r := newChatTestRouter(svc)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/chats", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var chats []domain.Chat
	if err := json.Unmarshal(w.Body.Bytes(), &chats); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(chats) != 1 || chats[0].ID != "alice@x.com_bob@y.com" {
		t.Fatalf("chats = %+v", chats)
	}
}

func TestListMessages_MembershipEnforced(t *testing.T) {
	svc := &fakeChatService{msgs: []domain.Message{{Content: "hi"}}}
	r := newChatTestRouter(svc)

	// The caller's email is part of this chat id.
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/chats/alice@x.com_bob@y.com/messages", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("member: status = %d", w.Code)
	}

	// A chat between two other users must be refused before any fetch.
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/chats/bob@y.com_carol@z.com/messages", nil))
	if w.Code != http.StatusForbidden {
		t.Fatalf("non-member: status = %d; want 403", w.Code)
	}
}

func TestListMessages_NotFound(t *testing.T) {
	svc := &fakeChatService{msgsErr: services.ErrChatNotFound}
	r := newChatTestRouter(svc)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/chats/alice@x.com_ghost@y.com/messages", nil))
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d; want 404", w.Code)
	}
}
