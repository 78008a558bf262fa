package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"phone-tracker/internal/models"
	"phone-tracker/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// DeviceHandler handles the devices and location logs surface
type DeviceHandler struct {
	service DeviceService
}

// DeviceService interface for dependency injection
type DeviceService interface {
	ListDevices(context.Context, models.DeviceQuery) (models.Page[models.Device], error)
	GetDevice(context.Context, int64) (*models.Device, error)
	CreateDevice(context.Context, service.DeviceInput) (*models.Device, error)
	DeleteDevice(context.Context, int64) error
	ListLocations(context.Context, models.LocationQuery) (models.Page[models.LocationLog], error)
	GetLocation(context.Context, int64) (*models.LocationLog, error)
	CreateLocation(context.Context, service.LocationInput) (*models.LocationLog, error)
}

// NewDeviceHandler creates a new device handler
func NewDeviceHandler(svc DeviceService) *DeviceHandler {
	return &DeviceHandler{service: svc}
}

// ListDevices handles GET /api/devices/ requests
//
//	@Summary	List devices
//	@Tags		devices
//	@Produce	json
//	@Param		search		query		string	false	"name or owner contains"
//	@Param		ordering	query		string	false	"name, created_at, optionally prefixed with -"
//	@Param		limit		query		int		false	"page size"
//	@Param		offset		query		int		false	"page offset"
//	@Success	200			{object}	models.Page[models.Device]
//	@Router		/api/devices/ [get]
func (h *DeviceHandler) ListDevices(c *gin.Context) {
	limit, offset, ok := pageParams(c)
	if !ok {
		return
	}

	page, err := h.service.ListDevices(c.Request.Context(), models.DeviceQuery{
		Search:   c.Query("search"),
		Ordering: c.Query("ordering"),
		Limit:    limit,
		Offset:   offset,
	})
	if err != nil {
		writeDeviceError(c, err)
		return
	}

	c.JSON(http.StatusOK, page)
}

// CreateDevice handles POST /api/devices/ requests
//
//	@Summary	Register a device
//	@Tags		devices
//	@Accept		json
//	@Produce	json
//	@Param		body	body		service.DeviceInput	true	"device"
//	@Success	201		{object}	models.Device
//	@Failure	400		{object}	map[string][]string
//	@Router		/api/devices/ [post]
func (h *DeviceHandler) CreateDevice(c *gin.Context) {
	var in service.DeviceInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	device, err := h.service.CreateDevice(c.Request.Context(), in)
	if err != nil {
		writeDeviceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, device)
}

// GetDevice handles GET /api/devices/:id requests
//
//	@Summary	Get a device
//	@Tags		devices
//	@Produce	json
//	@Param		id	path		int	true	"device id"
//	@Success	200	{object}	models.Device
//	@Failure	404	{object}	map[string]string
//	@Router		/api/devices/{id} [get]
func (h *DeviceHandler) GetDevice(c *gin.Context) {
	id, ok := intID(c)
	if !ok {
		return
	}

	device, err := h.service.GetDevice(c.Request.Context(), id)
	if err != nil {
		writeDeviceError(c, err)
		return
	}

	c.JSON(http.StatusOK, device)
}

// DeleteDevice handles DELETE /api/devices/:id requests
//
//	@Summary	Delete a device and its location logs
//	@Tags		devices
//	@Param		id	path	int	true	"device id"
//	@Success	204
//	@Failure	404	{object}	map[string]string
//	@Router		/api/devices/{id} [delete]
func (h *DeviceHandler) DeleteDevice(c *gin.Context) {
	id, ok := intID(c)
	if !ok {
		return
	}

	if err := h.service.DeleteDevice(c.Request.Context(), id); err != nil {
		writeDeviceError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// ListLocations handles GET /api/locations/ requests
//
//	@Summary	List location logs
//	@Tags		locations
//	@Produce	json
//	@Param		device		query		int		false	"device id"
//	@Param		ordering	query		string	false	"captured_at, created_at, optionally prefixed with -"
//	@Param		limit		query		int		false	"page size"
//	@Param		offset		query		int		false	"page offset"
//	@Success	200			{object}	models.Page[models.LocationLog]
//	@Router		/api/locations/ [get]
func (h *DeviceHandler) ListLocations(c *gin.Context) {
	limit, offset, ok := pageParams(c)
	if !ok {
		return
	}

	q := models.LocationQuery{Ordering: c.Query("ordering"), Limit: limit, Offset: offset}
	if v := c.Query("device"); v != "" {
		deviceID, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"device": []string{"Enter a number."}})
			return
		}
		q.DeviceID = &deviceID
	}

	page, err := h.service.ListLocations(c.Request.Context(), q)
	if err != nil {
		writeDeviceError(c, err)
		return
	}

	c.JSON(http.StatusOK, page)
}

// CreateLocation handles POST /api/locations/ requests
//
//	@Summary	Record a location log
//	@Tags		locations
//	@Accept		json
//	@Produce	json
//	@Param		body	body		service.LocationInput	true	"location"
//	@Success	201		{object}	models.LocationLog
//	@Failure	400		{object}	map[string][]string
//	@Router		/api/locations/ [post]
func (h *DeviceHandler) CreateLocation(c *gin.Context) {
	var in service.LocationInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	entry, err := h.service.CreateLocation(c.Request.Context(), in)
	if err != nil {
		writeDeviceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, entry)
}

// GetLocation handles GET /api/locations/:id requests
//
//	@Summary	Get a location log
//	@Tags		locations
//	@Produce	json
//	@Param		id	path		int	true	"location id"
//	@Success	200	{object}	models.LocationLog
//	@Failure	404	{object}	map[string]string
//	@Router		/api/locations/{id} [get]
func (h *DeviceHandler) GetLocation(c *gin.Context) {
	id, ok := intID(c)
	if !ok {
		return
	}

	entry, err := h.service.GetLocation(c.Request.Context(), id)
	if err != nil {
		writeDeviceError(c, err)
		return
	}

	c.JSON(http.StatusOK, entry)
}

func writeDeviceError(c *gin.Context, err error) {
	var verr service.ValidationError
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, verr)
	case errors.Is(err, models.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	default:
		log.Error().Err(err).Str("path", c.FullPath()).Msg("devices: request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}

// intID parses the :id path parameter. A non-numeric id cannot match any row.
func intID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return 0, false
	}
	return id, true
}

func pageParams(c *gin.Context) (limit, offset int, ok bool) {
	var err error
	if v := c.Query("limit"); v != "" {
		if limit, err = strconv.Atoi(v); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return 0, 0, false
		}
	}
	if v := c.Query("offset"); v != "" {
		if offset, err = strconv.Atoi(v); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid offset"})
			return 0, 0, false
		}
	}
	return limit, offset, true
}
