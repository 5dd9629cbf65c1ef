package game

// EventType represents the type of a room-related event sent via WebSockets.
type EventType string

// Constants defining the various Event types used for WebSocket communication.
const (
	EventJoinedLobby   EventType = "joined_lobby"   // Private: seat color, figure, host flag for the joiner.
	EventLobbyUpdate   EventType = "lobby_update"   // Public: roster changed.
	EventGameStarted   EventType = "game_started"   // Public: match started, full roster and trap layout.
	EventDiceRolled    EventType = "dice_rolled"    // Public: server-produced die value.
	EventPieceMoved    EventType = "piece_moved"    // Public: a piece changed position.
	EventTurnChanged   EventType = "turn_changed"   // Public: new active seat and turn budget.
	EventStatusMessage EventType = "status_message" // Public: informational text (timeouts, bot notices).
	EventErrorMessage  EventType = "error_message"  // Private: capacity/state rejection text.
	EventYouAreHost    EventType = "you_are_host"   // Private: host authority migrated to this connection.
)

// Event is the standard structure for broadcasting room state changes.
type Event struct {
	Type    EventType              `json:"type"`
	Payload map[string]interface{} `json:"payload,omitempty"`
}

// PlayerInfo describes one seat in roster payloads.
type PlayerInfo struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Color  Color  `json:"color"`
	Figure string `json:"figure"`
	IsBot  bool   `json:"isBot"`
}

func statusEvent(text string) Event {
	return Event{Type: EventStatusMessage, Payload: map[string]interface{}{"text": text}}
}

func errorEvent(text string) Event {
	return Event{Type: EventErrorMessage, Payload: map[string]interface{}{"text": text}}
}
