package tracker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"phone-tracker/internal/mapview"
	"phone-tracker/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type fakeStream struct {
	events chan models.ChangeEvent
	err    error
	closed chan struct{}
	once   sync.Once
}

func newFakeStream() *fakeStream {
	return &fakeStream{events: make(chan models.ChangeEvent, 1), closed: make(chan struct{})}
}

func (s *fakeStream) Events() <-chan models.ChangeEvent { return s.events }
func (s *fakeStream) Err() error                        { return s.err }
func (s *fakeStream) Close()                            { s.once.Do(func() { close(s.closed) }) }

// fakeStore serves phones from memory. When gate is set each fetch hands a reply channel to
// the test and returns whatever the test sends on it.
type fakeStore struct {
	mu      sync.Mutex
	phones  []models.TrackedPhone
	err     error
	fetches int
	gate    chan chan []models.TrackedPhone
	stream  *fakeStream
}

func (s *fakeStore) ListPhones(ctx context.Context) ([]models.TrackedPhone, error) {
	s.mu.Lock()
	s.fetches++
	gate := s.gate
	s.mu.Unlock()

	if gate != nil {
		reply := make(chan []models.TrackedPhone)
		gate <- reply
		return <-reply, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	out := make([]models.TrackedPhone, len(s.phones))
	copy(out, s.phones)
	return out, nil
}

func (s *fakeStore) Subscribe(ctx context.Context) (ChangeStream, error) {
	return s.stream, nil
}

func (s *fakeStore) set(phones ...models.TrackedPhone) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.phones = phones
}

func (s *fakeStore) fetchCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fetches
}

func trackedPhone(id string, lat, lng float64) models.TrackedPhone {
	return models.TrackedPhone{ID: id, PhoneNumber: "555-" + id, Label: id, Latitude: lat, Longitude: lng}
}

func TestCoordinator_RunReloadsOnEveryChange(t *testing.T) {
	store := &fakeStore{stream: newFakeStream()}
	store.set(trackedPhone("a", 40.7128, -74.006))
	coord := NewCoordinator(store, mapview.DefaultCanvas, time.UTC)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error)
	go func() { done <- coord.Run(ctx) }()

	require.Eventually(t, func() bool { return len(coord.Snapshot().Phones) == 1 }, time.Second, 5*time.Millisecond)
	snap := coord.Snapshot()
	assert.False(t, snap.Loading)
	assert.Equal(t, mapview.ModeSingle, snap.Map.Viewport.Mode)
	assert.Equal(t, "Tracked Phones (1)", snap.List.Header)

	store.set(trackedPhone("b", 51.5, -0.12), trackedPhone("a", 40.7128, -74.006))
	store.stream.events <- models.ChangeEvent{Type: models.ChangeInsert}

	require.Eventually(t, func() bool { return len(coord.Snapshot().Phones) == 2 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, mapview.ModeFit, coord.Snapshot().Map.Viewport.Mode)
	assert.Equal(t, 2, store.fetchCount())

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)

	select {
	case <-store.stream.closed:
	case <-time.After(time.Second):
		t.Fatal("subscription was not released")
	}
}

func TestCoordinator_RunEndsWithTheFeed(t *testing.T) {
	stream := newFakeStream()
	stream.err = errors.New("connection reset")
	store := &fakeStore{stream: stream}
	coord := NewCoordinator(store, mapview.DefaultCanvas, time.UTC)

	close(stream.events)
	err := coord.Run(context.Background())

	assert.ErrorIs(t, err, ErrFeedClosed)
	assert.Contains(t, err.Error(), "connection reset")
}

func TestCoordinator_LatestStartedFetchWins(t *testing.T) {
	store := &fakeStore{stream: newFakeStream(), gate: make(chan chan []models.TrackedPhone)}
	coord := NewCoordinator(store, mapview.DefaultCanvas, time.UTC)

	firstDone := make(chan struct{})
	go func() { coord.Refresh(context.Background()); close(firstDone) }()
	first := <-store.gate

	secondDone := make(chan struct{})
	go func() { coord.Refresh(context.Background()); close(secondDone) }()
	second := <-store.gate

	// The second fetch resolves first.
	second <- []models.TrackedPhone{trackedPhone("new", 2, 2)}
	<-secondDone
	require.Len(t, coord.Snapshot().Phones, 1)
	assert.Equal(t, "new", coord.Snapshot().Phones[0].ID)

	first <- []models.TrackedPhone{trackedPhone("old", 1, 1)}
	<-firstDone

	snap := coord.Snapshot()
	require.Len(t, snap.Phones, 1)
	assert.Equal(t, "new", snap.Phones[0].ID)
	assert.False(t, snap.Loading)
}

func TestCoordinator_DropsResultsAfterTeardown(t *testing.T) {
	store := &fakeStore{stream: newFakeStream()}
	coord := NewCoordinator(store, mapview.DefaultCanvas, time.UTC)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(t, coord.Run(ctx), context.Canceled)

	store.set(trackedPhone("late", 1, 1))
	coord.Refresh(context.Background())

	assert.Empty(t, coord.Snapshot().Phones)
}

func TestCoordinator_FetchFailureKeepsList(t *testing.T) {
	store := &fakeStore{stream: newFakeStream()}
	store.set(trackedPhone("a", 1, 1))
	coord := NewCoordinator(store, mapview.DefaultCanvas, time.UTC)

	coord.Refresh(context.Background())
	require.Len(t, coord.Snapshot().Phones, 1)

	store.err = errors.New("db down")
	coord.Refresh(context.Background())

	assert.Len(t, coord.Snapshot().Phones, 1)
}

func TestCoordinator_Selection(t *testing.T) {
	store := &fakeStore{stream: newFakeStream()}
	store.set(trackedPhone("a", 40.7128, -74.006), trackedPhone("b", 48.8566, 2.3522))
	coord := NewCoordinator(store, mapview.DefaultCanvas, time.UTC)

	var changes int
	coord.OnChange(func(Snapshot) { changes++ })
	coord.Refresh(context.Background())

	coord.ToggleSelect("b")
	snap := coord.Snapshot()
	assert.Equal(t, "b", snap.SelectedID)
	assert.Equal(t, mapview.ModeSelected, snap.Map.Viewport.Mode)
	assert.Equal(t, mapview.LatLng{Lat: 48.8566, Lng: 2.3522}, snap.Map.Viewport.Center)
	assert.True(t, snap.List.Rows[1].Selected)

	// The selected phone disappears: selection is kept and the map stays where it was.
	store.set(trackedPhone("a", 40.7128, -74.006))
	coord.Refresh(context.Background())
	snap = coord.Snapshot()
	assert.Equal(t, "b", snap.SelectedID)
	assert.Equal(t, mapview.LatLng{Lat: 48.8566, Lng: 2.3522}, snap.Map.Viewport.Center)

	coord.ToggleSelect("b")
	snap = coord.Snapshot()
	assert.Empty(t, snap.SelectedID)
	assert.Equal(t, mapview.ModeSingle, snap.Map.Viewport.Mode)

	assert.Equal(t, 4, changes)
}

func TestScenario_AddGeolocatedPhone(t *testing.T) {
	store := &fakeStore{stream: newFakeStream()}
	coord := NewCoordinator(store, mapview.DefaultCanvas, time.UTC)
	coord.Refresh(context.Background())
	require.Empty(t, coord.Snapshot().Phones)

	api := new(MockAPI)
	api.On("Geolocate", mock.Anything, "+1 (212) 555-0100").Return(models.DefaultGeolocation(), nil)
	api.On("InsertPhone", mock.Anything, models.NewTrackedPhone{
		PhoneNumber: "+1 (212) 555-0100",
		Label:       "+1 (212) 555-0100",
		Latitude:    40.7128,
		Longitude:   -74.006,
	}).Return(&models.TrackedPhone{ID: "new"}, nil).Once()

	form := NewForm(api, func(ctx context.Context) {
		store.set(trackedPhone("new", 40.7128, -74.006))
		coord.Refresh(ctx)
	})
	form.Set(Fields{PhoneNumber: "+1 (212) 555-0100"})

	require.NoError(t, form.Submit(context.Background()))

	snap := coord.Snapshot()
	assert.Len(t, snap.Phones, 1)
	assert.Len(t, snap.List.Rows, 1)
	assert.Len(t, snap.Map.Pins, 1)
	assert.Equal(t, mapview.ModeSingle, snap.Map.Viewport.Mode)
	api.AssertExpectations(t)
}
