// Package gamefeed consumes the external game stats WebSocket feed and
// turns damage and death events into controller actions.
package gamefeed

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/stim-control/scc/internal/config"
	"github.com/stim-control/scc/internal/telemetry"
)

// Controller is the slice of the control core the feed needs.
type Controller interface {
	HandleDamage(amount, multiplier float64)
	HandleDeath(penaltyStrength int, penaltyDuration time.Duration)
}

// message is the feed's wire format. Only the fields the core reacts to are
// decoded; everything else passes through untouched.
type message struct {
	Type  string  `json:"Type"`
	Value float64 `json:"Value"`
	Name  string  `json:"Name"`
}

const (
	reconnectInitial = time.Second
	reconnectMax     = 30 * time.Second
	readTimeout      = 90 * time.Second
)

// Client maintains a WebSocket connection to the game feed, reconnecting
// with backoff until closed.
type Client struct {
	url      string
	ctrl     Controller
	settings *config.Settings
	hub      *telemetry.Hub

	dialer *websocket.Dialer

	mu     sync.Mutex
	conn   *websocket.Conn
	closed bool
}

// New creates a feed client. The hub may be nil.
func New(url string, ctrl Controller, settings *config.Settings, hub *telemetry.Hub) *Client {
	return &Client{
		url:      url,
		ctrl:     ctrl,
		settings: settings,
		hub:      hub,
		dialer: &websocket.Dialer{
			HandshakeTimeout: 10 * time.Second,
		},
	}
}

// Run connects and reads the feed until ctx is cancelled or Close is
// called. Connection losses trigger reconnects with exponential backoff.
func (c *Client) Run(ctx context.Context) {
	backoff := reconnectInitial

	for {
		if c.isClosed() || ctx.Err() != nil {
			return
		}

		conn, _, err := c.dialer.DialContext(ctx, c.url, nil)
		if err != nil {
			log.Printf("gamefeed: connect to %s failed: %v", c.url, err)
			c.emitStatus("error")

			select {
			case <-ctx.Done():
				return
			case <-time.After(backoff):
			}
			backoff *= 2
			if backoff > reconnectMax {
				backoff = reconnectMax
			}
			continue
		}

		backoff = reconnectInitial
		c.setConn(conn)
		log.Printf("gamefeed: connected to %s", c.url)
		c.emitStatus("connected")

		c.readLoop(ctx, conn)

		c.setConn(nil)
		conn.Close()
		c.emitStatus("disconnected")
	}
}

// readLoop processes messages until the connection drops.
func (c *Client) readLoop(ctx context.Context, conn *websocket.Conn) {
	for {
		if ctx.Err() != nil || c.isClosed() {
			return
		}

		conn.SetReadDeadline(time.Now().Add(readTimeout))
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("gamefeed: read error: %v", err)
			}
			return
		}

		c.handleMessage(data)
	}
}

// handleMessage decodes one feed message and routes it.
func (c *Client) handleMessage(data []byte) {
	var msg message
	if err := json.Unmarshal(data, &msg); err != nil {
		log.Printf("gamefeed: message is not valid JSON, ignoring")
		return
	}

	switch msg.Type {
	case "DAMAGED":
		c.ctrl.HandleDamage(msg.Value, c.settings.DamageMultiplier())
	case "DEATH":
		log.Printf("gamefeed: death event (%s)", msg.Name)
		c.ctrl.HandleDeath(c.settings.DeathPenaltyStrength(), c.settings.DeathPenaltyDuration())
	case "STATS":
		// Round statistics; nothing to drive, but worth surfacing.
		c.emit("gameStats", map[string]interface{}{"raw": string(data)})
	}
}

// Close shuts the client down; a running Run returns promptly.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	if c.conn != nil {
		c.conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		return c.conn.Close()
	}
	return nil
}

func (c *Client) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func (c *Client) setConn(conn *websocket.Conn) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.conn = conn
}

func (c *Client) emitStatus(status string) {
	c.emit("gameFeedStatus", map[string]interface{}{"status": status})
}

func (c *Client) emit(eventType string, data map[string]interface{}) {
	if c.hub != nil {
		c.hub.Emit(eventType, data)
	}
}
