package repository

import (
	"context"
	"errors"
	"fmt"

	"phone-tracker/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound is returned when no tracked phone matches the given id
var ErrNotFound = models.ErrNotFound

const phoneColumns = `id::text, phone_number, label, latitude, longitude, last_updated, created_at`

// Repository implements the tracked phone store for PostgreSQL
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new PostgreSQL repository
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// ListPhones returns every tracked phone ordered by last update, newest first
func (r *Repository) ListPhones(ctx context.Context) ([]models.TrackedPhone, error) {
	sql := `SELECT ` + phoneColumns + ` FROM tracked_phones ORDER BY last_updated DESC`

	rows, err := r.db.Query(ctx, sql)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to execute list query: %w", err)
	}
	defer rows.Close()

	phones := []models.TrackedPhone{}
	for rows.Next() {
		phone, err := scanPhone(rows)
		if err != nil {
			return nil, fmt.Errorf("repository: failed to scan phone: %w", err)
		}
		phones = append(phones, *phone)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: error iterating rows: %w", err)
	}

	return phones, nil
}

// GetPhone returns the tracked phone with the given id
func (r *Repository) GetPhone(ctx context.Context, id string) (*models.TrackedPhone, error) {
	sql := `SELECT ` + phoneColumns + ` FROM tracked_phones WHERE id = $1::text::uuid`

	phone, err := scanPhone(r.db.QueryRow(ctx, sql, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("repository: phone %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("repository: failed to get phone: %w", err)
	}
	return phone, nil
}

// InsertPhone stores a new tracked phone and returns the stored row
func (r *Repository) InsertPhone(ctx context.Context, phone models.NewTrackedPhone) (*models.TrackedPhone, error) {
	sql := `
		INSERT INTO tracked_phones (phone_number, label, latitude, longitude)
		VALUES ($1, $2, $3, $4)
		RETURNING ` + phoneColumns

	created, err := scanPhone(r.db.QueryRow(ctx, sql, phone.PhoneNumber, phone.Label, phone.Latitude, phone.Longitude))
	if err != nil {
		return nil, fmt.Errorf("repository: failed to insert phone: %w", err)
	}
	return created, nil
}

// DeletePhone removes the tracked phone with the given id
func (r *Repository) DeletePhone(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM tracked_phones WHERE id = $1::text::uuid`, id)
	if err != nil {
		return fmt.Errorf("repository: failed to delete phone: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("repository: phone %s: %w", id, ErrNotFound)
	}
	return nil
}

func scanPhone(row pgx.Row) (*models.TrackedPhone, error) {
	var phone models.TrackedPhone
	err := row.Scan(
		&phone.ID,
		&phone.PhoneNumber,
		&phone.Label,
		&phone.Latitude,
		&phone.Longitude,
		&phone.LastUpdated,
		&phone.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &phone, nil
}
