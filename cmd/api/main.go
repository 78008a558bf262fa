package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "phone-tracker/docs"
	"phone-tracker/internal/config"
	"phone-tracker/internal/geocoder"
	"phone-tracker/internal/handler"
	"phone-tracker/internal/logging"
	"phone-tracker/internal/realtime"
	"phone-tracker/internal/repository"
	"phone-tracker/internal/service"
	"phone-tracker/internal/web"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
)

func main() {
	config, err := config.LoadConfig("./configs")
	if err != nil {
		log.Fatal().Err(err).Msg("cannot load config")
	}
	if err := logging.Setup(config.LogLevel, config.LogFormat, os.Stderr); err != nil {
		log.Fatal().Err(err).Msg("cannot set up logging")
	}
	if config.GinMode != "" {
		gin.SetMode(config.GinMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Database connection
	conn, err := pgxpool.New(ctx, config.DBSource)
	if err != nil {
		log.Fatal().Err(err).Msg("cannot connect to db")
	}
	defer conn.Close()

	if err := repository.EnsureSchema(ctx, conn); err != nil {
		log.Fatal().Err(err).Msg("cannot prepare schema")
	}

	devicesDB, err := repository.ConnectDevicesWithRetry(config.DevicesDBSource, 10, 2*time.Second)
	if err != nil {
		log.Fatal().Err(err).Msg("cannot connect to devices db")
	}

	// Change feed
	hub := realtime.NewHub()
	listener := repository.NewChangeListener(config.DBSource)
	go func() {
		if err := listener.Run(ctx, hub.Publish); err != nil {
			log.Error().Err(err).Msg("change listener stopped")
		}
	}()

	// Initialize layers
	httpClient := &http.Client{Timeout: config.GeocoderTimeout}
	geolocateService := service.NewGeolocateService(
		geocoder.NewNominatim(config.NominatimURL, config.GeocoderUserAgent, httpClient),
		geocoder.NewOpenCage(config.OpenCageURL, config.OpenCageKey, httpClient),
	)
	phoneService := service.NewPhoneService(repository.NewRepository(conn))
	deviceService := service.NewDeviceService(repository.NewDeviceRepository(devicesDB))

	r := handler.NewRouter(handler.Handlers{
		Geolocate: handler.NewGeolocateHandler(geolocateService),
		Phones:    handler.NewPhoneHandler(phoneService, hub),
		Map:       handler.NewMapHandler(phoneService, time.Local),
		Devices:   handler.NewDeviceHandler(deviceService),
		Static:    web.FS(),
	})

	srv := &http.Server{
		Addr:              config.ServerAddress,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		// Request contexts end on shutdown so open change streams return.
		BaseContext: func(net.Listener) context.Context { return ctx },
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Msg("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("shutdown failed")
	}
}
