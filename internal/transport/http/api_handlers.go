package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/wirechat-admin/internal/core"
	"github.com/vovakirdan/wirechat-admin/internal/proto"
)

// ChatHandlers exposes the chat session over REST.
type ChatHandlers struct {
	session *core.Session
	log     *zerolog.Logger
}

// NewChatHandlers creates a new chat handlers instance.
func NewChatHandlers(session *core.Session, logger *zerolog.Logger) *ChatHandlers {
	return &ChatHandlers{
		session: session,
		log:     logger,
	}
}

// SelectResponse reports whether the selection changed the active conversation.
type SelectResponse struct {
	Changed bool            `json:"changed"`
	View    proto.EventView `json:"view"`
}

// SearchResponse carries the candidates of a search.
type SearchResponse struct {
	Users []proto.User `json:"users"`
}

// SendResponse carries the composer status after a send.
type SendResponse struct {
	Status string `json:"status"`
}

// View returns the dashboard snapshot.
// GET /api/view
func (h *ChatHandlers) View(c *gin.Context) {
	c.JSON(http.StatusOK, toProtoView(h.session.View()))
}

// Select makes a role broadcast or a user thread the active conversation.
// POST /api/select
func (h *ChatHandlers) Select(c *gin.Context) {
	var req proto.SelectData
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Debug().Err(err).Msg("invalid select request")
		badRequest(c, "invalid request body")
		return
	}

	target, err := targetFromSelect(req)
	if err != nil {
		abortWithError(c, err)
		return
	}
	changed, err := h.session.Select(target)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, SelectResponse{Changed: changed, View: toProtoView(h.session.View())})
}

// Sync refetches one conversation and waits for the result.
// POST /api/sync
func (h *ChatHandlers) Sync(c *gin.Context) {
	var req proto.SyncData
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "invalid request body")
			return
		}
	}

	key, err := conversationOrActive(h.session, req.Conversation)
	if err != nil {
		abortWithError(c, err)
		return
	}
	if err := h.session.Sync(c.Request.Context(), key); err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, proto.EventHistory{
		Conversation: key.String(),
		Messages:     toProtoMessages(h.session.Messages(key)),
	})
}

// Search looks up users of a role by name.
// POST /api/search
func (h *ChatHandlers) Search(c *gin.Context) {
	var req proto.SearchData
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	role, err := core.ParseRole(req.Role)
	if err != nil {
		abortWithError(c, err)
		return
	}
	users, err := h.session.Search(c.Request.Context(), role, req.Term)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, SearchResponse{Users: toProtoUsers(users)})
}

// Draft replaces the composer buffer.
// PUT /api/draft
func (h *ChatHandlers) Draft(c *gin.Context) {
	var req proto.DraftData
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	h.session.SetDraft(req.Text)
	c.Status(http.StatusNoContent)
}

// Send delivers text, or the draft when no text is given.
// POST /api/send
func (h *ChatHandlers) Send(c *gin.Context) {
	var req proto.SendData
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "invalid request body")
			return
		}
	}

	if err := sendFromData(c.Request.Context(), h.session, req); err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, SendResponse{Status: h.session.Status().String()})
}

// DismissStatus returns the composer status to idle.
// POST /api/status/dismiss
func (h *ChatHandlers) DismissStatus(c *gin.Context) {
	h.session.DismissStatus()
	c.Status(http.StatusNoContent)
}

// BoardHandlers exposes the general broadcast board.
type BoardHandlers struct {
	board *core.Board
	log   *zerolog.Logger
}

// NewBoardHandlers creates a new board handlers instance.
func NewBoardHandlers(board *core.Board, logger *zerolog.Logger) *BoardHandlers {
	return &BoardHandlers{
		board: board,
		log:   logger,
	}
}

// BoardResponse is the state of the broadcast board.
type BoardResponse struct {
	Loading       bool                 `json:"loading"`
	Status        string               `json:"status"`
	Announcements []proto.Announcement `json:"announcements"`
}

// PublishRequest is the body of a general broadcast.
type PublishRequest struct {
	Text string `json:"text" binding:"required"`
}

// List returns the board, reloading it first when refresh=true.
// GET /api/broadcasts?refresh=true
func (h *BoardHandlers) List(c *gin.Context) {
	if refresh, _ := strconv.ParseBool(c.Query("refresh")); refresh {
		if err := h.board.Refresh(c.Request.Context()); err != nil {
			abortWithError(c, err)
			return
		}
	}
	c.JSON(http.StatusOK, h.state())
}

// Publish posts a broadcast to everyone.
// POST /api/broadcasts
func (h *BoardHandlers) Publish(c *gin.Context) {
	var req PublishRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	if err := h.board.Publish(c.Request.Context(), req.Text); err != nil {
		abortWithError(c, err)
		return
	}

	h.log.Info().Msg("general broadcast published")
	c.JSON(http.StatusCreated, h.state())
}

// DismissStatus returns the board composer status to idle.
// POST /api/broadcasts/status/dismiss
func (h *BoardHandlers) DismissStatus(c *gin.Context) {
	h.board.DismissStatus()
	c.Status(http.StatusNoContent)
}

func (h *BoardHandlers) state() BoardResponse {
	return BoardResponse{
		Loading:       h.board.Loading(),
		Status:        h.board.Status().String(),
		Announcements: toProtoAnnouncements(h.board.Announcements()),
	}
}
