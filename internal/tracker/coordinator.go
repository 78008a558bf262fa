package tracker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"phone-tracker/internal/client"
	"phone-tracker/internal/mapview"
	"phone-tracker/internal/models"

	"github.com/rs/zerolog/log"
)

// ErrFeedClosed is returned by Run when the change feed ends on its own.
var ErrFeedClosed = errors.New("tracker: change feed closed")

// ChangeStream is an open subscription to the change feed.
type ChangeStream interface {
	Events() <-chan models.ChangeEvent
	Err() error
	Close()
}

// Store interface for dependency injection
type Store interface {
	ListPhones(ctx context.Context) ([]models.TrackedPhone, error)
	Subscribe(ctx context.Context) (ChangeStream, error)
}

// Remote adapts an API client to Store.
type Remote struct {
	*client.Client
}

// Subscribe opens the API change feed.
func (r Remote) Subscribe(ctx context.Context) (ChangeStream, error) {
	stream, err := r.Client.Subscribe(ctx)
	if err != nil {
		return nil, err
	}
	return stream, nil
}

// Snapshot is a consistent view of the coordinator state.
type Snapshot struct {
	Phones     []models.TrackedPhone
	SelectedID string
	Loading    bool
	List       ListView
	Map        mapview.View
}

// Coordinator owns the canonical phone list and the selection. It re-reads the whole list on
// every change notification.
type Coordinator struct {
	store Store
	loc   *time.Location

	mu       sync.Mutex
	phones   []models.TrackedPhone
	selected string
	loading  bool
	started  uint64
	applied  uint64
	closed   bool
	view     *mapview.Map
	onChange func(Snapshot)
}

// NewCoordinator creates a coordinator rendering a map of the given canvas. Times are shown in loc.
func NewCoordinator(store Store, canvas mapview.Canvas, loc *time.Location) *Coordinator {
	if loc == nil {
		loc = time.Local
	}
	return &Coordinator{
		store:   store,
		loc:     loc,
		phones:  []models.TrackedPhone{},
		loading: true,
		view:    mapview.NewMap(canvas),
	}
}

// OnChange registers fn to be called after every applied fetch or selection change.
func (c *Coordinator) OnChange(fn func(Snapshot)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onChange = fn
}

// Run subscribes to the change feed, loads the list and reloads it on every change until ctx
// is done or the feed ends. The subscription is released when Run returns and later fetch
// results are dropped, so a Coordinator runs once.
func (c *Coordinator) Run(ctx context.Context) error {
	stream, err := c.store.Subscribe(ctx)
	if err != nil {
		return fmt.Errorf("tracker: failed to subscribe: %w", err)
	}
	defer stream.Close()
	defer c.teardown()

	c.Refresh(ctx)

	events := stream.Events()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-events:
			if !ok {
				if err := stream.Err(); err != nil {
					return fmt.Errorf("%w: %w", ErrFeedClosed, err)
				}
				return ErrFeedClosed
			}
			log.Debug().Str("type", event.Type).Msg("tracker: change received, reloading")
			c.Refresh(ctx)
		}
	}
}

// Refresh reloads the full list. When fetches overlap the most recently started one wins.
// A failed fetch keeps the previous list.
func (c *Coordinator) Refresh(ctx context.Context) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.started++
	seq := c.started
	c.loading = true
	c.mu.Unlock()

	phones, err := c.store.ListPhones(ctx)

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	if seq == c.started {
		c.loading = false
	}
	if err != nil {
		c.mu.Unlock()
		log.Error().Err(err).Msg("tracker: failed to fetch phones")
		return
	}
	if seq < c.applied {
		c.mu.Unlock()
		return
	}
	if phones == nil {
		phones = []models.TrackedPhone{}
	}
	c.applied = seq
	c.phones = phones
	c.view.Update(c.phones, c.selected)
	snap, fn := c.snapshotLocked(), c.onChange
	c.mu.Unlock()

	if fn != nil {
		fn(snap)
	}
}

// ToggleSelect selects id, or clears the selection when id is already selected.
func (c *Coordinator) ToggleSelect(id string) {
	c.mu.Lock()
	if c.selected == id {
		c.selected = ""
	} else {
		c.selected = id
	}
	c.view.Update(c.phones, c.selected)
	snap, fn := c.snapshotLocked(), c.onChange
	c.mu.Unlock()

	if fn != nil {
		fn(snap)
	}
}

// Snapshot returns the current state.
func (c *Coordinator) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *Coordinator) snapshotLocked() Snapshot {
	phones := make([]models.TrackedPhone, len(c.phones))
	copy(phones, c.phones)

	return Snapshot{
		Phones:     phones,
		SelectedID: c.selected,
		Loading:    c.loading,
		List:       Rows(phones, c.selected, c.loc),
		Map: mapview.View{
			Viewport: c.view.Viewport(),
			Pins:     mapview.Pins(phones, c.selected, c.loc),
		},
	}
}

func (c *Coordinator) teardown() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
}
