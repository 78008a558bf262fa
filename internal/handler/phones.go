package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"phone-tracker/internal/models"
	"phone-tracker/internal/realtime"
	"phone-tracker/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const keepAliveInterval = 30 * time.Second

// PhoneHandler handles the tracked phones REST surface and its change feed
type PhoneHandler struct {
	service PhoneService
	feed    ChangeFeed
}

// PhoneService interface for dependency injection
type PhoneService interface {
	List(context.Context) ([]models.TrackedPhone, error)
	Get(context.Context, string) (*models.TrackedPhone, error)
	Create(context.Context, models.NewTrackedPhone) (*models.TrackedPhone, error)
	Delete(context.Context, string) error
}

// ChangeFeed interface for dependency injection
type ChangeFeed interface {
	Subscribe() *realtime.Subscription
}

// NewPhoneHandler creates a new phone handler
func NewPhoneHandler(svc PhoneService, feed ChangeFeed) *PhoneHandler {
	return &PhoneHandler{service: svc, feed: feed}
}

// List handles GET /api/phones requests
//
//	@Summary	List tracked phones, most recently updated first
//	@Tags		phones
//	@Produce	json
//	@Success	200	{array}		models.TrackedPhone
//	@Failure	500	{object}	map[string]string
//	@Router		/api/phones [get]
func (h *PhoneHandler) List(c *gin.Context) {
	phones, err := h.service.List(c.Request.Context())
	if err != nil {
		log.Error().Err(err).Msg("phones: list failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	c.JSON(http.StatusOK, phones)
}

// Get handles GET /api/phones/:id requests
//
//	@Summary	Get a tracked phone
//	@Tags		phones
//	@Produce	json
//	@Param		id	path		string	true	"phone id"
//	@Success	200	{object}	models.TrackedPhone
//	@Failure	400	{object}	map[string]string
//	@Failure	404	{object}	map[string]string
//	@Router		/api/phones/{id} [get]
func (h *PhoneHandler) Get(c *gin.Context) {
	id, ok := phoneID(c)
	if !ok {
		return
	}

	phone, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, phone)
}

// Create handles POST /api/phones requests
//
//	@Summary	Start tracking a phone
//	@Tags		phones
//	@Accept		json
//	@Produce	json
//	@Param		body	body		models.NewTrackedPhone	true	"phone"
//	@Success	201		{object}	models.TrackedPhone
//	@Failure	400		{object}	map[string]string
//	@Router		/api/phones [post]
func (h *PhoneHandler) Create(c *gin.Context) {
	var in models.NewTrackedPhone
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	phone, err := h.service.Create(c.Request.Context(), in)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, phone)
}

// Delete handles DELETE /api/phones/:id requests
//
//	@Summary	Stop tracking a phone
//	@Tags		phones
//	@Param		id	path	string	true	"phone id"
//	@Success	204
//	@Failure	400	{object}	map[string]string
//	@Failure	404	{object}	map[string]string
//	@Router		/api/phones/{id} [delete]
func (h *PhoneHandler) Delete(c *gin.Context) {
	id, ok := phoneID(c)
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		h.writeError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// Changes handles GET /api/phones/changes. Every change to tracked_phones is sent as a
// "change" event until the client disconnects.
//
//	@Summary	Stream tracked phone change notifications
//	@Tags		phones
//	@Produce	text/event-stream
//	@Success	200
//	@Router		/api/phones/changes [get]
func (h *PhoneHandler) Changes(c *gin.Context) {
	sub := h.feed.Subscribe()
	defer sub.Close()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Status(http.StatusOK)
	c.Writer.Flush()

	ticker := time.NewTicker(keepAliveInterval)
	defer ticker.Stop()

	ctx := c.Request.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := c.Writer.WriteString(": keepalive\n\n"); err != nil {
				return
			}
			c.Writer.Flush()
		case event, ok := <-sub.C:
			if !ok {
				return
			}
			c.SSEvent("change", event)
			c.Writer.Flush()
		}
	}
}

func (h *PhoneHandler) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, models.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "phone not found"})
	case errors.Is(err, service.ErrInvalidPhone):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Phone number is required"})
	case errors.Is(err, service.ErrInvalidCoordinates):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid coordinates. Latitude must be between -90 and 90, longitude between -180 and 180"})
	default:
		log.Error().Err(err).Str("path", c.FullPath()).Msg("phones: request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}

func phoneID(c *gin.Context) (string, bool) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid phone id"})
		return "", false
	}
	return id, true
}
