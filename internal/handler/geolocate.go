package handler

import (
	"context"
	"errors"
	"net/http"

	"phone-tracker/internal/models"
	"phone-tracker/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// GeolocateHandler handles geolocation proxy requests
type GeolocateHandler struct {
	service GeolocateService
}

// GeolocateService interface for dependency injection
type GeolocateService interface {
	Locate(context.Context, string) (models.GeolocationResult, error)
}

// NewGeolocateHandler creates a new geolocate handler
func NewGeolocateHandler(svc GeolocateService) *GeolocateHandler {
	return &GeolocateHandler{service: svc}
}

// Geolocate handles POST /functions/v1/geolocate_phone requests
//
//	@Summary	Approximate coordinates for a phone number
//	@Tags		geolocate
//	@Accept		json
//	@Produce	json
//	@Param		body	body		object{phoneNumber=string}	true	"phone number"
//	@Success	200		{object}	models.GeolocationResult
//	@Failure	400		{object}	map[string]string
//	@Failure	500		{object}	map[string]string
//	@Router		/functions/v1/geolocate_phone [post]
func (h *GeolocateHandler) Geolocate(c *gin.Context) {
	var body map[string]any
	if err := c.ShouldBindJSON(&body); err != nil {
		log.Debug().Err(err).Msg("geolocate: undecodable request body")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to geolocate phone number"})
		return
	}

	phoneNumber, ok := body["phoneNumber"].(string)
	if !ok || phoneNumber == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Phone number is required"})
		return
	}

	result, err := h.service.Locate(c.Request.Context(), phoneNumber)
	if err != nil {
		if errors.Is(err, service.ErrInvalidPhone) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Phone number is required"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to geolocate phone number"})
		return
	}

	c.JSON(http.StatusOK, result)
}
