package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"phone-tracker/internal/mapview"
	"phone-tracker/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// MapHandler renders the tracked phones as a map view
type MapHandler struct {
	phones PhoneLister
	loc    *time.Location
}

// PhoneLister interface for dependency injection
type PhoneLister interface {
	List(context.Context) ([]models.TrackedPhone, error)
}

// NewMapHandler creates a new map handler. Popup timestamps are rendered in loc.
func NewMapHandler(phones PhoneLister, loc *time.Location) *MapHandler {
	if loc == nil {
		loc = time.Local
	}
	return &MapHandler{phones: phones, loc: loc}
}

// Map handles GET /api/map requests
//
//	@Summary	Viewport and pins for the current phones
//	@Tags		map
//	@Produce	json
//	@Param		selected	query		string	false	"selected phone id"
//	@Param		width		query		int		false	"canvas width in pixels"
//	@Param		height		query		int		false	"canvas height in pixels"
//	@Success	200			{object}	mapview.View
//	@Failure	400			{object}	map[string]string
//	@Router		/api/map [get]
func (h *MapHandler) Map(c *gin.Context) {
	canvas := mapview.DefaultCanvas

	if v := c.Query("width"); v != "" {
		width, err := strconv.Atoi(v)
		if err != nil || width <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid width"})
			return
		}
		canvas.Width = width
	}
	if v := c.Query("height"); v != "" {
		height, err := strconv.Atoi(v)
		if err != nil || height <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid height"})
			return
		}
		canvas.Height = height
	}

	phones, err := h.phones.List(c.Request.Context())
	if err != nil {
		log.Error().Err(err).Msg("map: list failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	c.JSON(http.StatusOK, mapview.Render(phones, c.Query("selected"), canvas, h.loc))
}
