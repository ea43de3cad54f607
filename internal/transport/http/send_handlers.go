package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/wirechat-admin/internal/store"
)

const maxSendsLimit = 500

// SendHandlers exposes the send audit ledger.
type SendHandlers struct {
	ledger store.SendLog
	log    *zerolog.Logger
}

// NewSendHandlers creates a new send handlers instance. ledger may be nil.
func NewSendHandlers(ledger store.SendLog, logger *zerolog.Logger) *SendHandlers {
	return &SendHandlers{
		ledger: ledger,
		log:    logger,
	}
}

// SendRecordResponse represents one send attempt in API responses.
type SendRecordResponse struct {
	ID           string    `json:"id"`
	Conversation string    `json:"conversation"`
	Text         string    `json:"text"`
	Delivery     string    `json:"delivery"`
	Error        string    `json:"error,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// List returns recent send attempts.
// GET /api/sends?limit=50&delivery=failed
func (h *SendHandlers) List(c *gin.Context) {
	if h.ledger == nil {
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "send ledger disabled"})
		return
	}

	limit := 50
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			badRequest(c, "limit must be a positive integer")
			return
		}
		limit = min(n, maxSendsLimit)
	}

	delivery := c.Query("delivery")
	switch delivery {
	case "", store.DeliveryPending, store.DeliverySent, store.DeliveryFailed:
	default:
		badRequest(c, "unknown delivery state")
		return
	}

	records, err := h.ledger.ListSends(c.Request.Context(), limit, delivery)
	if err != nil {
		h.log.Error().Err(err).Msg("failed to list sends")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	response := make([]SendRecordResponse, 0, len(records))
	for _, rec := range records {
		response = append(response, SendRecordResponse{
			ID:           rec.ID,
			Conversation: rec.Conversation,
			Text:         rec.Text,
			Delivery:     rec.Delivery,
			Error:        rec.Error,
			CreatedAt:    rec.CreatedAt,
			UpdatedAt:    rec.UpdatedAt,
		})
	}

	c.JSON(http.StatusOK, response)
}
