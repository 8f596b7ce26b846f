package testutil

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"github.com/streamweave/streamweave/assistant/internal/realtime"
)

// ErrTransportClosed is returned by FakeTransport.Read after Close.
var ErrTransportClosed = errors.New("transport closed")

// FakeTransport is a scripted realtime transport for tests. Frames pushed
// with Push arrive on Read in order; outbound writes are recorded.
type FakeTransport struct {
	inbound chan []byte

	mu     sync.Mutex
	sent   [][]byte
	closed bool
}

// NewFakeTransport creates a transport with a buffered inbound queue.
func NewFakeTransport() *FakeTransport {
	return &FakeTransport{inbound: make(chan []byte, 32)}
}

// Push queues an inbound frame.
func (t *FakeTransport) Push(frame []byte) {
	t.inbound <- frame
}

// PushEvent queues an inbound frame built from an event name and payload.
func (t *FakeTransport) PushEvent(event string, data any) {
	raw, _ := json.Marshal(data)
	frame, _ := json.Marshal(map[string]json.RawMessage{
		"event": json.RawMessage(`"` + event + `"`),
		"data":  raw,
	})
	t.inbound <- frame
}

func (t *FakeTransport) Read() ([]byte, error) {
	frame, ok := <-t.inbound
	if !ok {
		return nil, ErrTransportClosed
	}
	return frame, nil
}

func (t *FakeTransport) WriteJSON(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	t.mu.Lock()
	t.sent = append(t.sent, data)
	t.mu.Unlock()
	return nil
}

// Sent returns a snapshot of recorded outbound frames.
func (t *FakeTransport) Sent() [][]byte {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([][]byte, len(t.sent))
	copy(out, t.sent)
	return out
}

func (t *FakeTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.closed {
		t.closed = true
		close(t.inbound)
	}
	return nil
}

// StaticDialer returns a Dialer that hands out the given transports in
// sequence and fails with err once they run out.
func StaticDialer(err error, transports ...*FakeTransport) realtime.Dialer {
	var mu sync.Mutex
	i := 0
	return func(ctx context.Context, url, token string) (realtime.Transport, error) {
		mu.Lock()
		defer mu.Unlock()
		if i >= len(transports) {
			if err == nil {
				err = errors.New("no transports left")
			}
			return nil, err
		}
		tr := transports[i]
		i++
		return tr, nil
	}
}
