package p2pclient

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/gorilla/websocket"
)

// EventListener subscribes to the daemon's optional WebSocket push channel
// for transfer-state updates, when the daemon build exposes one. It is a
// best-effort supplement to pkg/transfercache's poll loop, not a
// replacement: callers that never construct one still work off polling
// alone, per spec's "HTTP+possibly-WebSocket" phrasing.
type EventListener struct {
	wsURL string
	conn  *websocket.Conn
}

// NewEventListener derives the daemon's WebSocket URL from its HTTP base
// URL (http→ws, https→wss) and the given path.
func NewEventListener(httpBaseURL, path string) *EventListener {
	u := strings.Replace(httpBaseURL, "http://", "ws://", 1)
	u = strings.Replace(u, "https://", "wss://", 1)
	return &EventListener{wsURL: strings.TrimRight(u, "/") + path}
}

// Connect dials the daemon's push endpoint. Callers should treat a dial
// failure as "fall back to polling" rather than fatal.
func (l *EventListener) Connect(ctx context.Context) error {
	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.DialContext(ctx, l.wsURL, nil)
	if err != nil {
		return fmt.Errorf("p2pclient: dial event stream %s: %w", l.wsURL, err)
	}
	l.conn = conn
	return nil
}

// Close releases the underlying connection.
func (l *EventListener) Close() error {
	if l.conn == nil {
		return nil
	}
	return l.conn.Close()
}

// Next blocks for the next transfer-state push event. Returns an error
// when the connection is closed or the context is done; callers should
// then fall back to polling rather than retrying the dial in a tight loop.
func (l *EventListener) Next(ctx context.Context) (TransferRecord, error) {
	if l.conn == nil {
		return TransferRecord{}, fmt.Errorf("p2pclient: event listener not connected")
	}
	type envelope struct {
		Type    string         `json:"type"`
		Payload TransferRecord `json:"payload"`
	}
	done := make(chan struct{})
	var rec TransferRecord
	var err error
	go func() {
		defer close(done)
		_, raw, readErr := l.conn.ReadMessage()
		if readErr != nil {
			err = readErr
			return
		}
		var env envelope
		if unmarshalErr := json.Unmarshal(raw, &env); unmarshalErr != nil {
			err = unmarshalErr
			return
		}
		rec = env.Payload
	}()
	select {
	case <-ctx.Done():
		l.conn.Close()
		return TransferRecord{}, ctx.Err()
	case <-done:
		return rec, err
	}
}
