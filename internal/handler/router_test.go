package handler

import (
	"net/http"
	"testing"
	"testing/fstest"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestRouter_CORS(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := NewRouter(Handlers{Geolocate: NewGeolocateHandler(new(MockGeolocateService))})

	for _, method := range []string{http.MethodOptions, http.MethodGet} {
		target := "/functions/v1/geolocate_phone"
		if method == http.MethodGet {
			target = "/health"
		}

		w := serve(r, method, target, "")

		assert.Equal(t, http.StatusOK, w.Code, method)
		assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
		assert.Equal(t, "GET, POST, PUT, DELETE, OPTIONS", w.Header().Get("Access-Control-Allow-Methods"))
		assert.Equal(t, "Content-Type, Authorization, X-Client-Info, Apikey", w.Header().Get("Access-Control-Allow-Headers"))
	}
}

func TestRouter_GeolocateAlias(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := NewRouter(Handlers{Geolocate: NewGeolocateHandler(new(MockGeolocateService))})

	w := serve(r, http.MethodPost, "/api/geolocate", `{}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"Phone number is required"}`, w.Body.String())
}

func TestRouter_Static(t *testing.T) {
	gin.SetMode(gin.TestMode)
	static := fstest.MapFS{"index.html": {Data: []byte("<html>tracker</html>")}}
	r := NewRouter(Handlers{Static: http.FS(static)})

	w := serve(r, http.MethodGet, "/tracker/", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "tracker")
}
