package tracker

import (
	"context"
	"testing"
	"time"

	"phone-tracker/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type confirmFunc func(prompt string) bool

func (f confirmFunc) Confirm(prompt string) bool { return f(prompt) }

type alerts []string

func (a *alerts) Alert(message string) { *a = append(*a, message) }

func TestRows(t *testing.T) {
	updated := time.Date(2024, 3, 5, 14, 7, 9, 0, time.UTC)
	phones := []models.TrackedPhone{
		{ID: "a", PhoneNumber: "555-1234", Label: "Home", Latitude: 40.7128, Longitude: -74.006, LastUpdated: updated},
		{ID: "b", PhoneNumber: "555-9876", Label: "Work", Latitude: 51.5, Longitude: -0.12, LastUpdated: updated},
	}

	view := Rows(phones, "b", time.UTC)

	assert.Equal(t, "Tracked Phones (2)", view.Header)
	assert.Empty(t, view.Empty)
	require.Len(t, view.Rows, 2)
	assert.Equal(t, Row{
		ID:          "a",
		Label:       "Home",
		PhoneNumber: "555-1234",
		Coordinates: "Lat: 40.7128, Lng: -74.006",
		Updated:     "Updated: 3/5/2024, 2:07:09 PM",
	}, view.Rows[0])
	assert.True(t, view.Rows[1].Selected)

	empty := Rows(nil, "", time.UTC)
	assert.Equal(t, "Tracked Phones (0)", empty.Header)
	assert.Equal(t, MsgNoPhones, empty.Empty)
	assert.Empty(t, empty.Rows)
}

func TestList_Delete(t *testing.T) {
	t.Run("declined sends no request", func(t *testing.T) {
		api := new(MockAPI)
		var shown alerts
		var prompt string
		list := NewList(api, confirmFunc(func(p string) bool { prompt = p; return false }), &shown, nil)

		deleted, err := list.Delete(context.Background(), "a")

		require.NoError(t, err)
		assert.False(t, deleted)
		assert.Equal(t, MsgConfirmDelete, prompt)
		api.AssertNotCalled(t, "DeletePhone", mock.Anything, mock.Anything)
	})

	t.Run("confirmed delete refreshes the parent", func(t *testing.T) {
		api := new(MockAPI)
		api.On("DeletePhone", mock.Anything, "a").Return(nil)
		refreshed := 0
		var shown alerts
		list := NewList(api, confirmFunc(func(string) bool { return true }), &shown, func(context.Context) { refreshed++ })

		deleted, err := list.Delete(context.Background(), "a")

		require.NoError(t, err)
		assert.True(t, deleted)
		assert.Equal(t, 1, refreshed)
		assert.Empty(t, shown)
		api.AssertExpectations(t)
	})

	t.Run("failure alerts and keeps the list", func(t *testing.T) {
		api := new(MockAPI)
		api.On("DeletePhone", mock.Anything, "a").Return(assert.AnError)
		refreshed := 0
		var shown alerts
		list := NewList(api, confirmFunc(func(string) bool { return true }), &shown, func(context.Context) { refreshed++ })

		deleted, err := list.Delete(context.Background(), "a")

		assert.ErrorIs(t, err, assert.AnError)
		assert.False(t, deleted)
		assert.Equal(t, alerts{MsgDeleteFailed}, shown)
		assert.Zero(t, refreshed)
	})
}
