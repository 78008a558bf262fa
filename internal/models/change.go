package models

import "time"

// Change event types. ChangeResync is emitted when the feed may have missed notifications.
const (
	ChangeInsert = "INSERT"
	ChangeUpdate = "UPDATE"
	ChangeDelete = "DELETE"
	ChangeResync = "RESYNC"
)

// ChangeEvent signals that rows of a watched table changed. It carries no row data.
type ChangeEvent struct {
	Table string    `json:"table"`
	Type  string    `json:"type"`
	At    time.Time `json:"at"`
}
