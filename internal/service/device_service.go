package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"phone-tracker/internal/models"
)

const (
	defaultPageSize = 100
	maxPageSize     = 1000
	maxNameLength   = 100
	futureTolerance = 5 * time.Minute
)

var (
	deviceOrderings   = map[string]bool{"name": true, "-name": true, "created_at": true, "-created_at": true}
	locationOrderings = map[string]bool{"captured_at": true, "-captured_at": true, "created_at": true, "-created_at": true}
)

// ValidationError maps request fields to the problems found with them.
type ValidationError map[string][]string

func (e ValidationError) Error() string {
	fields := make([]string, 0, len(e))
	for field := range e {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, field := range fields {
		parts = append(parts, field+": "+strings.Join(e[field], " "))
	}
	return "service: validation failed: " + strings.Join(parts, "; ")
}

func (e ValidationError) add(field, message string) {
	e[field] = append(e[field], message)
}

// DeviceRepository interface for dependency injection
type DeviceRepository interface {
	ListDevices(ctx context.Context, q models.DeviceQuery) ([]models.Device, int64, error)
	GetDevice(ctx context.Context, id int64) (*models.Device, error)
	CreateDevice(ctx context.Context, device *models.Device) error
	DeleteDevice(ctx context.Context, id int64) error
	ListLocations(ctx context.Context, q models.LocationQuery) ([]models.LocationLog, int64, error)
	GetLocation(ctx context.Context, id int64) (*models.LocationLog, error)
	CreateLocation(ctx context.Context, log *models.LocationLog) error
}

// DeviceInput is the payload for creating a device.
type DeviceInput struct {
	Name  string `json:"name"`
	Owner string `json:"owner"`
}

// LocationInput is the payload for recording a location log.
type LocationInput struct {
	Device         *int64     `json:"device"`
	Latitude       *float64   `json:"latitude"`
	Longitude      *float64   `json:"longitude"`
	AccuracyMeters *float64   `json:"accuracy_meters"`
	CapturedAt     *time.Time `json:"captured_at"`
}

// DeviceService manages devices and their location logs
type DeviceService struct {
	repo DeviceRepository
	now  func() time.Time
}

// NewDeviceService creates a new device service
func NewDeviceService(repo DeviceRepository) *DeviceService {
	return &DeviceService{repo: repo, now: time.Now}
}

// ListDevices returns a page of devices. Unknown orderings fall back to newest first.
func (s *DeviceService) ListDevices(ctx context.Context, q models.DeviceQuery) (models.Page[models.Device], error) {
	if !deviceOrderings[q.Ordering] {
		q.Ordering = "-created_at"
	}
	q.Search = strings.TrimSpace(q.Search)
	q.Limit, q.Offset = clampPage(q.Limit, q.Offset)

	devices, count, err := s.repo.ListDevices(ctx, q)
	if err != nil {
		return models.Page[models.Device]{}, fmt.Errorf("service: failed to list devices: %w", err)
	}
	if devices == nil {
		devices = []models.Device{}
	}
	return models.Page[models.Device]{Count: count, Results: devices}, nil
}

// GetDevice returns a device by id
func (s *DeviceService) GetDevice(ctx context.Context, id int64) (*models.Device, error) {
	device, err := s.repo.GetDevice(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("service: failed to get device: %w", err)
	}
	return device, nil
}

// CreateDevice validates and stores a device
func (s *DeviceService) CreateDevice(ctx context.Context, in DeviceInput) (*models.Device, error) {
	verr := ValidationError{}
	name := strings.TrimSpace(in.Name)
	owner := strings.TrimSpace(in.Owner)

	if name == "" {
		verr.add("name", "This field may not be blank.")
	} else if utf8.RuneCountInString(name) > maxNameLength {
		verr.add("name", "Ensure this field has no more than 100 characters.")
	}
	if utf8.RuneCountInString(owner) > maxNameLength {
		verr.add("owner", "Ensure this field has no more than 100 characters.")
	}
	if len(verr) > 0 {
		return nil, verr
	}

	device := &models.Device{Name: name, Owner: owner}
	if err := s.repo.CreateDevice(ctx, device); err != nil {
		return nil, fmt.Errorf("service: failed to create device: %w", err)
	}
	return device, nil
}

// DeleteDevice removes a device and, by cascade, its location logs
func (s *DeviceService) DeleteDevice(ctx context.Context, id int64) error {
	if err := s.repo.DeleteDevice(ctx, id); err != nil {
		return fmt.Errorf("service: failed to delete device: %w", err)
	}
	return nil
}

// ListLocations returns a page of location logs. Unknown orderings fall back to latest capture first.
func (s *DeviceService) ListLocations(ctx context.Context, q models.LocationQuery) (models.Page[models.LocationLog], error) {
	if !locationOrderings[q.Ordering] {
		q.Ordering = "-captured_at"
	}
	q.Limit, q.Offset = clampPage(q.Limit, q.Offset)

	logs, count, err := s.repo.ListLocations(ctx, q)
	if err != nil {
		return models.Page[models.LocationLog]{}, fmt.Errorf("service: failed to list locations: %w", err)
	}
	if logs == nil {
		logs = []models.LocationLog{}
	}
	return models.Page[models.LocationLog]{Count: count, Results: logs}, nil
}

// GetLocation returns a location log by id
func (s *DeviceService) GetLocation(ctx context.Context, id int64) (*models.LocationLog, error) {
	log, err := s.repo.GetLocation(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("service: failed to get location: %w", err)
	}
	return log, nil
}

// CreateLocation validates and stores a location log for an existing device
func (s *DeviceService) CreateLocation(ctx context.Context, in LocationInput) (*models.LocationLog, error) {
	verr := ValidationError{}

	if in.Device == nil {
		verr.add("device", "This field is required.")
	}
	if in.Latitude == nil {
		verr.add("latitude", "This field is required.")
	} else if *in.Latitude < -90 || *in.Latitude > 90 {
		verr.add("latitude", "Latitude must be between -90 and 90.")
	}
	if in.Longitude == nil {
		verr.add("longitude", "This field is required.")
	} else if *in.Longitude < -180 || *in.Longitude > 180 {
		verr.add("longitude", "Longitude must be between -180 and 180.")
	}

	accuracy := 0.0
	if in.AccuracyMeters != nil {
		accuracy = *in.AccuracyMeters
		if accuracy < 0 {
			verr.add("accuracy_meters", "Accuracy cannot be negative.")
		}
	}

	if in.CapturedAt == nil {
		verr.add("captured_at", "This field is required.")
	} else if in.CapturedAt.After(s.now().Add(futureTolerance)) {
		verr.add("captured_at", "captured_at cannot be far in the future.")
	}

	if in.Device != nil {
		if _, err := s.repo.GetDevice(ctx, *in.Device); err != nil {
			if !errors.Is(err, models.ErrNotFound) {
				return nil, fmt.Errorf("service: failed to look up device: %w", err)
			}
			verr.add("device", fmt.Sprintf("Invalid pk \"%d\" - object does not exist.", *in.Device))
		}
	}

	if len(verr) > 0 {
		return nil, verr
	}

	log := &models.LocationLog{
		DeviceID:       *in.Device,
		Latitude:       *in.Latitude,
		Longitude:      *in.Longitude,
		AccuracyMeters: accuracy,
		CapturedAt:     in.CapturedAt.UTC(),
	}
	if err := s.repo.CreateLocation(ctx, log); err != nil {
		return nil, fmt.Errorf("service: failed to create location: %w", err)
	}
	return log, nil
}

func clampPage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
