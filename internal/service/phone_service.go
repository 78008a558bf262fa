package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"phone-tracker/internal/models"
)

// ErrInvalidCoordinates is returned when a latitude or longitude is out of range.
var ErrInvalidCoordinates = errors.New("service: latitude must be between -90 and 90, longitude between -180 and 180")

// PhoneRepository interface for dependency injection
type PhoneRepository interface {
	ListPhones(ctx context.Context) ([]models.TrackedPhone, error)
	GetPhone(ctx context.Context, id string) (*models.TrackedPhone, error)
	InsertPhone(ctx context.Context, phone models.NewTrackedPhone) (*models.TrackedPhone, error)
	DeletePhone(ctx context.Context, id string) error
}

// PhoneService contains the business rules for tracked phones
type PhoneService struct {
	repo PhoneRepository
}

// NewPhoneService creates a new phone service
func NewPhoneService(repo PhoneRepository) *PhoneService {
	return &PhoneService{repo: repo}
}

// List returns every tracked phone, most recently updated first
func (s *PhoneService) List(ctx context.Context) ([]models.TrackedPhone, error) {
	phones, err := s.repo.ListPhones(ctx)
	if err != nil {
		return nil, fmt.Errorf("service: failed to list phones: %w", err)
	}
	return phones, nil
}

// Get returns a single tracked phone
func (s *PhoneService) Get(ctx context.Context, id string) (*models.TrackedPhone, error) {
	phone, err := s.repo.GetPhone(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("service: failed to get phone: %w", err)
	}
	return phone, nil
}

// Create validates and stores a new tracked phone. A blank label defaults to the phone number.
func (s *PhoneService) Create(ctx context.Context, phone models.NewTrackedPhone) (*models.TrackedPhone, error) {
	if strings.TrimSpace(phone.PhoneNumber) == "" {
		return nil, ErrInvalidPhone
	}
	if !models.ValidCoordinates(phone.Latitude, phone.Longitude) {
		return nil, fmt.Errorf("%w: got %f, %f", ErrInvalidCoordinates, phone.Latitude, phone.Longitude)
	}
	if strings.TrimSpace(phone.Label) == "" {
		phone.Label = phone.PhoneNumber
	}

	created, err := s.repo.InsertPhone(ctx, phone)
	if err != nil {
		return nil, fmt.Errorf("service: failed to insert phone: %w", err)
	}
	return created, nil
}

// Delete removes a tracked phone by id
func (s *PhoneService) Delete(ctx context.Context, id string) error {
	if err := s.repo.DeletePhone(ctx, id); err != nil {
		return fmt.Errorf("service: failed to delete phone: %w", err)
	}
	return nil
}
