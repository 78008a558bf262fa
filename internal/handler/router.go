package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// Handlers groups the handlers served by the API. Nil handlers are not routed.
type Handlers struct {
	Geolocate *GeolocateHandler
	Phones    *PhoneHandler
	Map       *MapHandler
	Devices   *DeviceHandler
	// Static serves the device log page under /tracker/.
	Static http.FileSystem
}

// NewRouter registers every route on a new gin engine.
func NewRouter(h Handlers) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), RequestLogger(), CORS())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
		})
	})
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	if h.Geolocate != nil {
		r.POST("/functions/v1/geolocate_phone", h.Geolocate.Geolocate)
		r.POST("/api/geolocate", h.Geolocate.Geolocate)
	}

	api := r.Group("/api")
	if h.Phones != nil {
		api.GET("/phones", h.Phones.List)
		api.POST("/phones", h.Phones.Create)
		api.GET("/phones/changes", h.Phones.Changes)
		api.GET("/phones/:id", h.Phones.Get)
		api.DELETE("/phones/:id", h.Phones.Delete)
	}
	if h.Map != nil {
		api.GET("/map", h.Map.Map)
	}
	if h.Devices != nil {
		api.GET("/devices/", h.Devices.ListDevices)
		api.POST("/devices/", h.Devices.CreateDevice)
		api.GET("/devices/:id", h.Devices.GetDevice)
		api.DELETE("/devices/:id", h.Devices.DeleteDevice)
		api.GET("/locations/", h.Devices.ListLocations)
		api.POST("/locations/", h.Devices.CreateLocation)
		api.GET("/locations/:id", h.Devices.GetLocation)
	}

	if h.Static != nil {
		r.StaticFS("/tracker", h.Static)
	}

	return r
}
