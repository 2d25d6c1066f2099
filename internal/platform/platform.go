// Package platform is the boundary to the virtual-space service: outbound
// room effects and inbound room events. The session only sees the Room and
// Handler contracts; the websocket client in this package is one
// implementation.
package platform

import "context"

// Position is a point in the room.
type Position struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Z      float64 `json:"z"`
	Facing string  `json:"facing"`
}

// Presence pairs a player currently in the room with their position.
type Presence struct {
	Player   string
	Position Position
}

// Room is the outbound effect surface. Every call is best effort from the
// session's point of view: a failed teleport or whisper is logged by the
// caller and never rolls back a state transition.
type Room interface {
	// Announce broadcasts to the whole room.
	Announce(ctx context.Context, text string) error
	// Whisper sends a private message to one player.
	Whisper(ctx context.Context, player, text string) error
	// Teleport moves a player.
	Teleport(ctx context.Context, player string, pos Position) error
	// Present lists everyone currently in the room.
	Present(ctx context.Context) ([]Presence, error)
	// Tip transfers one tip of the given tier to a player.
	Tip(ctx context.Context, player string, amount int) error
}

// Handler receives inbound room events. The client invokes it from its read
// loop; implementations must not block.
type Handler interface {
	OnPlayerJoined(player string)
	OnPlayerLeft(player string)
	OnPublicMessage(player, text string)
	OnPrivateMessage(player, text string)
}
