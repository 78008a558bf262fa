package models

import "time"

// Device is a named handset in the device log surface.
type Device struct {
	ID        int64     `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:100;not null" json:"name"`
	Owner     string    `gorm:"size:100;not null;default:''" json:"owner"`
	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
}

func (Device) TableName() string {
	return "devices"
}

// LocationLog is a single captured position of a Device.
type LocationLog struct {
	ID             int64     `gorm:"primaryKey" json:"id"`
	DeviceID       int64     `gorm:"column:device_id;not null;index:trk_dev_cap_idx,priority:1" json:"device"`
	Device         *Device   `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Latitude       float64   `gorm:"type:numeric(9,6);not null" json:"latitude"`
	Longitude      float64   `gorm:"type:numeric(9,6);not null" json:"longitude"`
	AccuracyMeters float64   `gorm:"not null;default:0" json:"accuracy_meters"`
	CapturedAt     time.Time `gorm:"not null;index;index:trk_dev_cap_idx,priority:2" json:"captured_at"`
	CreatedAt      time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
}

func (LocationLog) TableName() string {
	return "location_logs"
}

// Page is the paginated list envelope of the device log surface.
type Page[T any] struct {
	Count   int64 `json:"count"`
	Results []T   `json:"results"`
}

// DeviceQuery filters and orders a device listing.
type DeviceQuery struct {
	Search   string
	Ordering string
	Limit    int
	Offset   int
}

// LocationQuery filters and orders a location log listing.
type LocationQuery struct {
	DeviceID *int64
	Ordering string
	Limit    int
	Offset   int
}
