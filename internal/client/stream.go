package client

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"phone-tracker/internal/models"
)

// Stream is an open subscription to the tracked phones change feed.
type Stream struct {
	events chan models.ChangeEvent
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}

	mu  sync.Mutex
	err error
}

// Subscribe opens the change feed. Events are coalesced: a pending event already means the
// list must be re-read, so a further event is dropped while one is waiting. Close must be called.
func (c *Client) Subscribe(ctx context.Context) (*Stream, error) {
	ctx, cancel := context.WithCancel(ctx)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/phones/changes", nil)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("client: failed to build request: %w", err)
	}
	req.Header.Set("Accept", "text/event-stream")

	resp, err := c.http.Do(req)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("client: subscribe failed: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		cancel()
		return nil, decodeAPIError(resp)
	}

	s := &Stream{
		events: make(chan models.ChangeEvent, 1),
		ctx:    ctx,
		cancel: cancel,
		done:   make(chan struct{}),
	}
	go s.read(resp)
	return s, nil
}

// Events delivers change events until the stream ends.
func (s *Stream) Events() <-chan models.ChangeEvent {
	return s.events
}

// Err reports why the stream ended, or nil while it is open or after Close.
func (s *Stream) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Close ends the subscription and waits for the reader to stop. It is safe to call more than once.
func (s *Stream) Close() {
	s.cancel()
	<-s.done
}

func (s *Stream) read(resp *http.Response) {
	defer close(s.done)
	defer close(s.events)
	defer resp.Body.Close()

	scanner := bufio.NewScanner(resp.Body)
	var name string
	var data []string

	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case line == "":
			if len(data) > 0 && (name == "" || name == "change") {
				s.dispatch(strings.Join(data, "\n"))
			}
			name, data = "", nil
		case strings.HasPrefix(line, ":"):
		case strings.HasPrefix(line, "event:"):
			name = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
		case strings.HasPrefix(line, "data:"):
			data = append(data, strings.TrimPrefix(strings.TrimPrefix(line, "data:"), " "))
		}
	}

	if s.ctx.Err() != nil {
		return
	}
	err := scanner.Err()
	if err == nil {
		err = errors.New("client: change feed closed by server")
	}
	s.mu.Lock()
	s.err = err
	s.mu.Unlock()
}

func (s *Stream) dispatch(data string) {
	var event models.ChangeEvent
	if err := json.Unmarshal([]byte(data), &event); err != nil {
		event = models.ChangeEvent{Type: models.ChangeResync}
	}
	select {
	case s.events <- event:
	default:
	}
}
