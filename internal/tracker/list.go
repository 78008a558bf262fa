package tracker

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"phone-tracker/internal/mapview"
	"phone-tracker/internal/models"
)

// List messages.
const (
	MsgNoPhones      = "No phones being tracked yet"
	MsgConfirmDelete = "Are you sure you want to stop tracking this phone?"
	MsgDeleteFailed  = "Failed to delete phone"
)

// Row is one rendered entry of the phone list.
type Row struct {
	ID          string
	Label       string
	PhoneNumber string
	Coordinates string
	Updated     string
	Selected    bool
}

// ListView is the rendered phone list.
type ListView struct {
	Header string
	Empty  string
	Rows   []Row
}

// Rows renders phones in the order given. Empty is set only when there are no phones.
func Rows(phones []models.TrackedPhone, selectedID string, loc *time.Location) ListView {
	if loc == nil {
		loc = time.Local
	}

	view := ListView{
		Header: fmt.Sprintf("Tracked Phones (%d)", len(phones)),
		Rows:   make([]Row, 0, len(phones)),
	}
	if len(phones) == 0 {
		view.Empty = MsgNoPhones
	}

	for _, p := range phones {
		view.Rows = append(view.Rows, Row{
			ID:          p.ID,
			Label:       p.Label,
			PhoneNumber: p.PhoneNumber,
			Coordinates: "Lat: " + strconv.FormatFloat(p.Latitude, 'f', -1, 64) + ", Lng: " + strconv.FormatFloat(p.Longitude, 'f', -1, 64),
			Updated:     "Updated: " + p.LastUpdated.In(loc).Format(mapview.TimestampLayout),
			Selected:    selectedID != "" && p.ID == selectedID,
		})
	}
	return view
}

// PhoneDeleter interface for dependency injection
type PhoneDeleter interface {
	DeletePhone(ctx context.Context, id string) error
}

// Confirmer asks the user a yes/no question.
type Confirmer interface {
	Confirm(prompt string) bool
}

// Alerter shows a blocking message to the user.
type Alerter interface {
	Alert(message string)
}

// List deletes phones after confirmation. Selection is owned by the Coordinator.
type List struct {
	api       PhoneDeleter
	confirm   Confirmer
	alert     Alerter
	onDeleted func(context.Context)
}

// NewList creates a list. onDeleted runs after every successful delete and may be nil.
func NewList(api PhoneDeleter, confirm Confirmer, alert Alerter, onDeleted func(context.Context)) *List {
	return &List{api: api, confirm: confirm, alert: alert, onDeleted: onDeleted}
}

// Delete stops tracking id once the user confirms. It reports whether the phone was deleted.
func (l *List) Delete(ctx context.Context, id string) (bool, error) {
	if !l.confirm.Confirm(MsgConfirmDelete) {
		return false, nil
	}

	if err := l.api.DeletePhone(ctx, id); err != nil {
		l.alert.Alert(MsgDeleteFailed)
		return false, fmt.Errorf("tracker: failed to delete phone: %w", err)
	}

	if l.onDeleted != nil {
		l.onDeleted(ctx)
	}
	return true, nil
}
