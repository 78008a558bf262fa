package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"phone-tracker/internal/models"

	"github.com/rs/zerolog/log"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// ConnectDevicesWithRetry opens the device log database with retry and migrates its tables.
func ConnectDevicesWithRetry(dsn string, attempts int, delay time.Duration) (*gorm.DB, error) {
	var lastErr error
	for i := 1; i <= attempts; i++ {
		db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
		if err == nil {
			if err := db.AutoMigrate(&models.Device{}, &models.LocationLog{}); err != nil {
				return nil, fmt.Errorf("repository: failed to migrate device tables: %w", err)
			}
			return db, nil
		}

		lastErr = err
		log.Warn().Err(err).Int("attempt", i).Msg("repository: device database not ready")
		time.Sleep(delay)
	}

	return nil, fmt.Errorf("repository: device db connect failed after %d attempts: %w", attempts, lastErr)
}

// DeviceRepository stores devices and their location logs with gorm
type DeviceRepository struct {
	db *gorm.DB
}

// NewDeviceRepository creates a new device repository
func NewDeviceRepository(db *gorm.DB) *DeviceRepository {
	return &DeviceRepository{db: db}
}

// ListDevices returns a page of devices and the total number of matches
func (r *DeviceRepository) ListDevices(ctx context.Context, q models.DeviceQuery) ([]models.Device, int64, error) {
	tx := r.db.WithContext(ctx).Model(&models.Device{})
	if q.Search != "" {
		pattern := containsPattern(q.Search)
		tx = tx.Where(`LOWER(name) LIKE ? ESCAPE '\' OR LOWER(owner) LIKE ? ESCAPE '\'`, pattern, pattern)
	}
	tx = tx.Session(&gorm.Session{})

	var count int64
	if err := tx.Count(&count).Error; err != nil {
		return nil, 0, fmt.Errorf("repository: failed to count devices: %w", err)
	}

	var devices []models.Device
	err := tx.Order(orderClause(q.Ordering)).Order("id DESC").Limit(q.Limit).Offset(q.Offset).Find(&devices).Error
	if err != nil {
		return nil, 0, fmt.Errorf("repository: failed to list devices: %w", err)
	}
	return devices, count, nil
}

// GetDevice returns the device with the given id
func (r *DeviceRepository) GetDevice(ctx context.Context, id int64) (*models.Device, error) {
	var device models.Device
	if err := r.db.WithContext(ctx).First(&device, id).Error; err != nil {
		return nil, wrapGormErr("device", id, err)
	}
	return &device, nil
}

// CreateDevice inserts a device, filling in its id and creation time
func (r *DeviceRepository) CreateDevice(ctx context.Context, device *models.Device) error {
	if err := r.db.WithContext(ctx).Create(device).Error; err != nil {
		return fmt.Errorf("repository: failed to create device: %w", err)
	}
	return nil
}

// DeleteDevice removes a device; its location logs go with it
func (r *DeviceRepository) DeleteDevice(ctx context.Context, id int64) error {
	res := r.db.WithContext(ctx).Delete(&models.Device{}, id)
	if res.Error != nil {
		return fmt.Errorf("repository: failed to delete device: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("repository: device %d: %w", id, ErrNotFound)
	}
	return nil
}

// ListLocations returns a page of location logs and the total number of matches
func (r *DeviceRepository) ListLocations(ctx context.Context, q models.LocationQuery) ([]models.LocationLog, int64, error) {
	tx := r.db.WithContext(ctx).Model(&models.LocationLog{})
	if q.DeviceID != nil {
		tx = tx.Where("device_id = ?", *q.DeviceID)
	}
	tx = tx.Session(&gorm.Session{})

	var count int64
	if err := tx.Count(&count).Error; err != nil {
		return nil, 0, fmt.Errorf("repository: failed to count locations: %w", err)
	}

	var logs []models.LocationLog
	err := tx.Order(orderClause(q.Ordering)).Order("id DESC").Limit(q.Limit).Offset(q.Offset).Find(&logs).Error
	if err != nil {
		return nil, 0, fmt.Errorf("repository: failed to list locations: %w", err)
	}
	return logs, count, nil
}

// GetLocation returns the location log with the given id
func (r *DeviceRepository) GetLocation(ctx context.Context, id int64) (*models.LocationLog, error) {
	var entry models.LocationLog
	if err := r.db.WithContext(ctx).First(&entry, id).Error; err != nil {
		return nil, wrapGormErr("location", id, err)
	}
	return &entry, nil
}

// CreateLocation inserts a location log
func (r *DeviceRepository) CreateLocation(ctx context.Context, entry *models.LocationLog) error {
	if err := r.db.WithContext(ctx).Omit("Device").Create(entry).Error; err != nil {
		return fmt.Errorf("repository: failed to create location: %w", err)
	}
	return nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// containsPattern builds a case-insensitive substring LIKE pattern with the wildcards in search escaped.
func containsPattern(search string) string {
	return "%" + likeEscaper.Replace(strings.ToLower(search)) + "%"
}

// orderClause converts an ordering token such as "-created_at" into SQL.
// Tokens are validated by the service layer before they reach the repository.
func orderClause(ordering string) string {
	if strings.HasPrefix(ordering, "-") {
		return strings.TrimPrefix(ordering, "-") + " DESC"
	}
	return ordering + " ASC"
}

func wrapGormErr(kind string, id int64, err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("repository: %s %d: %w", kind, id, ErrNotFound)
	}
	return fmt.Errorf("repository: failed to get %s: %w", kind, err)
}
