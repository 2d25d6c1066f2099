package platform

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/coder/websocket"
	"go.uber.org/zap"
)

// Frame is the wire envelope in both directions. Requests carry an ID so
// responses can be matched to waiting callers.
type Frame struct {
	Type   string     `json:"type"`
	ID     string     `json:"id,omitempty"`
	Player string     `json:"player,omitempty"`
	Text   string     `json:"text,omitempty"`
	Pos    *Position  `json:"pos,omitempty"`
	Amount int        `json:"amount,omitempty"`
	Roster []Presence `json:"roster,omitempty"`
	Error  string     `json:"error,omitempty"`
}

const (
	frameAnnounce = "Announce"
	frameWhisper  = "Whisper"
	frameTeleport = "Teleport"
	framePresent  = "Present"
	frameTip      = "Tip"
	frameRoster   = "Roster"
	frameAck      = "Ack"

	evtJoined  = "PlayerJoined"
	evtLeft    = "PlayerLeft"
	evtChat    = "Chat"
	evtWhisper = "WhisperIn"
)

var ErrClosed = errors.New("platform connection closed")

// Client is a websocket Room implementation. One goroutine reads frames and
// dispatches events to the Handler; outbound requests are serialized by a
// write mutex and wait for their matching Ack/Roster frame.
type Client struct {
	conn    *websocket.Conn
	handler Handler
	log     *zap.Logger

	writeMu sync.Mutex

	mu      sync.Mutex
	waiting map[string]chan Frame
	closed  bool
}

// Dial connects to the platform gateway and starts the read loop. Inbound
// events are delivered to h until the connection drops.
func Dial(ctx context.Context, url string, h Handler, log *zap.Logger) (*Client, error) {
	conn, _, err := websocket.Dial(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("dial platform: %w", err)
	}
	c := &Client{
		conn:    conn,
		handler: h,
		log:     log,
		waiting: make(map[string]chan Frame),
	}
	return c, nil
}

// Run reads frames until the context is cancelled or the connection fails.
func (c *Client) Run(ctx context.Context) error {
	defer c.shutdown()
	for {
		_, data, err := c.conn.Read(ctx)
		if err != nil {
			switch websocket.CloseStatus(err) {
			case websocket.StatusNormalClosure, websocket.StatusGoingAway:
				return nil
			}
			return err
		}
		var f Frame
		if err := json.Unmarshal(data, &f); err != nil {
			c.log.Warn("bad frame from platform", zap.Error(err))
			continue
		}
		c.dispatch(f)
	}
}

func (c *Client) dispatch(f Frame) {
	switch f.Type {
	case evtJoined:
		c.handler.OnPlayerJoined(f.Player)
	case evtLeft:
		c.handler.OnPlayerLeft(f.Player)
	case evtChat:
		c.handler.OnPublicMessage(f.Player, f.Text)
	case evtWhisper:
		c.handler.OnPrivateMessage(f.Player, f.Text)
	case frameAck, frameRoster:
		c.mu.Lock()
		ch := c.waiting[f.ID]
		delete(c.waiting, f.ID)
		c.mu.Unlock()
		if ch != nil {
			ch <- f
		}
	default:
		c.log.Debug("unhandled frame", zap.String("type", f.Type))
	}
}

func (c *Client) shutdown() {
	c.mu.Lock()
	c.closed = true
	for id, ch := range c.waiting {
		close(ch)
		delete(c.waiting, id)
	}
	c.mu.Unlock()
	_ = c.conn.Close(websocket.StatusNormalClosure, "bye")
}

// request sends a frame and waits for the matching response.
func (c *Client) request(ctx context.Context, f Frame) (Frame, error) {
	f.ID = randID(8)

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return Frame{}, ErrClosed
	}
	ch := make(chan Frame, 1)
	c.waiting[f.ID] = ch
	c.mu.Unlock()

	payload, err := json.Marshal(f)
	if err != nil {
		return Frame{}, err
	}

	wctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	c.writeMu.Lock()
	err = c.conn.Write(wctx, websocket.MessageText, payload)
	c.writeMu.Unlock()
	if err != nil {
		c.mu.Lock()
		delete(c.waiting, f.ID)
		c.mu.Unlock()
		return Frame{}, err
	}

	select {
	case resp, ok := <-ch:
		if !ok {
			return Frame{}, ErrClosed
		}
		if resp.Error != "" {
			return Frame{}, errors.New(resp.Error)
		}
		return resp, nil
	case <-wctx.Done():
		c.mu.Lock()
		delete(c.waiting, f.ID)
		c.mu.Unlock()
		return Frame{}, wctx.Err()
	}
}

func (c *Client) Announce(ctx context.Context, text string) error {
	_, err := c.request(ctx, Frame{Type: frameAnnounce, Text: text})
	return err
}

func (c *Client) Whisper(ctx context.Context, player, text string) error {
	_, err := c.request(ctx, Frame{Type: frameWhisper, Player: player, Text: text})
	return err
}

func (c *Client) Teleport(ctx context.Context, player string, pos Position) error {
	_, err := c.request(ctx, Frame{Type: frameTeleport, Player: player, Pos: &pos})
	return err
}

func (c *Client) Present(ctx context.Context) ([]Presence, error) {
	resp, err := c.request(ctx, Frame{Type: framePresent})
	if err != nil {
		return nil, err
	}
	return resp.Roster, nil
}

func (c *Client) Tip(ctx context.Context, player string, amount int) error {
	_, err := c.request(ctx, Frame{Type: frameTip, Player: player, Amount: amount})
	return err
}

func randID(length int) string {
	const charset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	b := make([]byte, length)
	for i := range b {
		b[i] = charset[rand.Intn(len(charset))]
	}
	return string(b)
}
