package repository

import (
	"context"
	"fmt"
	"time"

	"phone-tracker/internal/models"

	"github.com/lib/pq"
	"github.com/rs/zerolog/log"
)

const (
	minReconnectInterval = 10 * time.Second
	maxReconnectInterval = time.Minute
	pingInterval         = 90 * time.Second
)

// ChangeListener turns NOTIFY messages on the tracked_phones channel into change events.
// The underlying pq.Listener reconnects on its own; a reconnect is reported as a RESYNC event
// because notifications sent while disconnected are lost.
type ChangeListener struct {
	connStr string
	channel string
}

// NewChangeListener creates a listener for the tracked_phones change channel
func NewChangeListener(connStr string) *ChangeListener {
	return &ChangeListener{connStr: connStr, channel: ChangeChannel}
}

// Run listens until ctx is done, calling publish for every notification.
func (l *ChangeListener) Run(ctx context.Context, publish func(models.ChangeEvent)) error {
	listener := pq.NewListener(l.connStr, minReconnectInterval, maxReconnectInterval, func(ev pq.ListenerEventType, err error) {
		switch ev {
		case pq.ListenerEventDisconnected:
			log.Warn().Err(err).Str("channel", l.channel).Msg("listener: disconnected")
		case pq.ListenerEventReconnected:
			log.Info().Str("channel", l.channel).Msg("listener: reconnected")
		case pq.ListenerEventConnectionAttemptFailed:
			log.Warn().Err(err).Str("channel", l.channel).Msg("listener: connection attempt failed")
		}
	})
	defer listener.Close()

	if err := listener.Listen(l.channel); err != nil {
		return fmt.Errorf("repository: failed to listen on %s: %w", l.channel, err)
	}
	log.Info().Str("channel", l.channel).Msg("listener: listening for changes")

	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case n := <-listener.Notify:
			publish(toChangeEvent(n))
		case <-ticker.C:
			go func() {
				if err := listener.Ping(); err != nil {
					log.Warn().Err(err).Msg("listener: ping failed")
				}
			}()
		}
	}
}

func toChangeEvent(n *pq.Notification) models.ChangeEvent {
	event := models.ChangeEvent{Table: "tracked_phones", Type: models.ChangeResync, At: time.Now().UTC()}
	if n == nil {
		return event
	}
	switch n.Extra {
	case models.ChangeInsert, models.ChangeUpdate, models.ChangeDelete:
		event.Type = n.Extra
	}
	return event
}
