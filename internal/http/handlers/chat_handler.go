// Chat HTTP handlers.
//
// This file exposes REST endpoints for chat resources:
//   - GET  /chats                 (list, most recently active first)
//   - POST /chats/messages        (send; creates the pair's chat on demand)
//   - GET  /chats/{id}/messages   (history in send order)
//
// A chat is addressed by the derived identifier of its member pair, so
// sending never names a chat id explicitly; it names the other participant.
package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/pettyapp/go-petty-backend/internal/services"
)

// SendMessageRequest is the JSON payload for sending a message.
type SendMessageRequest struct {
	// OtherEmail identifies the recipient; together with the sender's email
	// it determines the chat.
	OtherEmail string `json:"other_email" binding:"required" example:"bob@example.com"`
	// ChatName optionally names a newly created chat; ignored for existing
	// chats.
	ChatName string `json:"chat_name" example:"Bob"`
	// Content is the message body.
	Content string `json:"content" binding:"required" example:"Is Rex still up for adoption?"`
}

// SendMessageResponse returns the id of the chat the message landed in.
type SendMessageResponse struct {
	ChatID string `json:"chat_id" example:"alice@example.com_bob@example.com"`
}

// ListChats godoc
// @ID          listChats
// @Summary     List the caller's chats
// @Description Returns every chat the caller belongs to, most recently active first, decorated with the other participant's email and nickname.
// @Tags        Chats
// @Produce     json
// @Success     200  {array}   domain.Chat
// @Failure     401  {object}  handlers.ErrorResponse "Unauthorized"
// @Failure     500  {object}  handlers.ErrorResponse "Internal error"
// @Router      /chats [get]
func (h *Handlers) ListChats(c *gin.Context) {
	chats, err := h.chatSvc.ListChats(c.Request.Context(), userEmail(c))
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, "could not list chats")
		return
	}
	ok(c, http.StatusOK, chats)
}

// SendMessage godoc
// @ID          sendMessage
// @Summary     Send a message
// @Description Sends a message to another user, creating the pair's chat when it does not exist yet.
// @Tags        Chats
// @Accept      json
// @Produce     json
// @Param       body  body  handlers.SendMessageRequest  true  "Message payload"
// @Success     201  {object}  handlers.SendMessageResponse
// @Failure     400  {object}  handlers.ErrorResponse "Bad request"
// @Failure     401  {object}  handlers.ErrorResponse "Unauthorized"
// @Failure     500  {object}  handlers.ErrorResponse "Internal error"
// @Router      /chats/messages [post]
func (h *Handlers) SendMessage(c *gin.Context) {
	var req SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	chatID, err := h.chatSvc.Send(c.Request.Context(), services.SendInput{
		SelfEmail:  userEmail(c),
		OtherEmail: strings.TrimSpace(req.OtherEmail),
		SenderID:   userID(c),
		ChatName:   strings.TrimSpace(req.ChatName),
		Content:    req.Content,
	})
	switch {
	case errors.Is(err, services.ErrSelfChat):
		fail(c, http.StatusBadRequest, ErrCodeSelfChat, "cannot open a chat with yourself")
		return
	case errors.Is(err, services.ErrEmptyMessage):
		fail(c, http.StatusBadRequest, ErrCodeEmptyMessage, "message content is empty")
		return
	case err != nil:
		fail(c, http.StatusInternalServerError, ErrCodeSendFailed, "could not send message")
		return
	}
	ok(c, http.StatusCreated, SendMessageResponse{ChatID: chatID})
}

// ListMessages godoc
// @ID          listMessages
// @Summary     List a chat's messages
// @Description Returns the chat's messages in send order.
// @Tags        Chats
// @Produce     json
// @Param       id  path  string  true  "Chat ID"  example(alice@example.com_bob@example.com)
// @Success     200  {array}   domain.Message
// @Failure     401  {object}  handlers.ErrorResponse "Unauthorized"
// @Failure     403  {object}  handlers.ErrorResponse "Not a member"
// @Failure     404  {object}  handlers.ErrorResponse "Chat not found"
// @Failure     500  {object}  handlers.ErrorResponse "Internal error"
// @Router      /chats/{id}/messages [get]
func (h *Handlers) ListMessages(c *gin.Context) {
	chatID := c.Param("id")

	// Membership is encoded in the chat id itself; a caller whose email is
	// not one of the two id components never belongs to the chat.
	if !strings.Contains(chatID, userEmail(c)) {
		fail(c, http.StatusForbidden, ErrCodeForbidden, "not a member of this chat")
		return
	}

	msgs, err := h.chatSvc.Messages(c.Request.Context(), chatID)
	switch {
	case errors.Is(err, services.ErrChatNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, "chat not found")
		return
	case err != nil:
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, "could not list messages")
		return
	}
	ok(c, http.StatusOK, msgs)
}
