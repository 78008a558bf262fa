package service

import (
	"context"
	"errors"
	"strings"

	"phone-tracker/internal/models"

	"github.com/rs/zerolog/log"
)

// ErrInvalidPhone is returned when a phone number is missing.
var ErrInvalidPhone = errors.New("service: phone number is required")

// Geocoder interface for dependency injection
type Geocoder interface {
	Search(ctx context.Context, query string) ([]models.GeolocationResult, error)
}

// GeolocateService turns a phone number into a best-effort coordinate
type GeolocateService struct {
	primary   Geocoder
	secondary Geocoder
}

// NewGeolocateService creates a new geolocate service
func NewGeolocateService(primary, secondary Geocoder) *GeolocateService {
	return &GeolocateService{primary: primary, secondary: secondary}
}

// Locate queries the primary geocoder with the digits of phoneNumber and falls back to the
// secondary geocoder with the original string when the primary call fails. When no geocoder
// produces a result the default coordinate is returned; lookup failures never surface as errors.
func (s *GeolocateService) Locate(ctx context.Context, phoneNumber string) (models.GeolocationResult, error) {
	if phoneNumber == "" {
		return models.GeolocationResult{}, ErrInvalidPhone
	}

	return s.lookup(ctx, phoneNumber), nil
}

func (s *GeolocateService) lookup(ctx context.Context, phoneNumber string) (result models.GeolocationResult) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("geolocate: lookup panicked, using default coordinates")
			result = models.DefaultGeolocation()
		}
	}()

	digits := DigitsOnly(phoneNumber)

	results, err := s.primary.Search(ctx, digits)
	if err != nil {
		log.Warn().Err(err).Msg("geolocate: primary geocoder failed, trying secondary")

		results, err = s.secondary.Search(ctx, phoneNumber)
		if err != nil {
			log.Warn().Err(err).Msg("geolocate: secondary geocoder failed, using default coordinates")
			return models.DefaultGeolocation()
		}
	}

	if len(results) == 0 {
		log.Debug().Str("query", digits).Msg("geolocate: no results, using default coordinates")
		return models.DefaultGeolocation()
	}

	return results[0]
}

// DigitsOnly strips every non-digit character from s.
func DigitsOnly(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

