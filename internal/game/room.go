package game

import (
	"time"

	"github.com/hirscherd0-sudo/Demondontworry/internal/board"
)

// Color identifies one of the four fixed seats. A joiner claims the lowest
// color in TurnOrder not already held, so a vacated color is reused before
// a later one is handed out. Turn order follows seat order.
type Color string

const (
	ColorRed    Color = "red"
	ColorBlue   Color = "blue"
	ColorGreen  Color = "green"
	ColorYellow Color = "yellow"
)

// MaxSeats is the room capacity.
const MaxSeats = 4

// TurnOrder is the fixed color assignment and turn sequence.
var TurnOrder = [MaxSeats]Color{ColorRed, ColorBlue, ColorGreen, ColorYellow}

// seatDescriptor holds the static per-color flavor identity. The color set
// is closed, so these are fixed records rather than runtime lookup tables.
type seatDescriptor struct {
	Figure  string
	BotName string
}

var seatDescriptors = map[Color]seatDescriptor{
	ColorRed:    {Figure: "imp", BotName: "Bot Rubin"},
	ColorBlue:   {Figure: "wraith", BotName: "Bot Saphir"},
	ColorGreen:  {Figure: "golem", BotName: "Bot Smaragd"},
	ColorYellow: {Figure: "banshee", BotName: "Bot Topas"},
}

// Status is the room lifecycle state.
type Status string

const (
	StatusWaiting Status = "waiting"
	StatusPlaying Status = "playing"
)

// Seat represents one occupied color, human- or bot-controlled.
type Seat struct {
	ConnID string
	Name   string
	Figure string
	Color  Color
	IsBot  bool
}

// Room is one isolated match session keyed by a client-supplied identifier.
// All fields are owned by the Engine and guarded by its mutex; scheduled
// callbacks must re-resolve the room by key before touching it.
type Room struct {
	Key        string
	Seats      []*Seat
	Status     Status
	HostID     string
	TrapFields []int
	TurnIndex  int // -1 before the first turn.

	// Pieces maps each occupied color to its piece track offsets. It is
	// authoritative for bot seats and mirrors client-reported positions
	// for human seats.
	Pieces map[Color]*[board.PiecesPerPlayer]int

	deadline *time.Timer // Pending forced-advance task, or nil.
	turnSeq  int         // Increments on every advance; stale timers check it.
	botTries int         // Leave-base rolls spent this turn.

	actionIndex int // Sequential index for the room-action stream.
}

// humanCount returns the number of human-controlled seats.
func (r *Room) humanCount() int {
	n := 0
	for _, s := range r.Seats {
		if !s.IsBot {
			n++
		}
	}
	return n
}

// seatByConn returns the seat occupied by the connection and its index,
// or (nil, -1).
func (r *Room) seatByConn(connID string) (*Seat, int) {
	for i, s := range r.Seats {
		if s.ConnID == connID {
			return s, i
		}
	}
	return nil, -1
}

// freeColor returns the first color in TurnOrder not held by any seat.
// Exactly one seat per color is an invariant of the room.
func (r *Room) freeColor() (Color, bool) {
	taken := make(map[Color]bool, len(r.Seats))
	for _, s := range r.Seats {
		taken[s.Color] = true
	}
	for _, c := range TurnOrder {
		if !taken[c] {
			return c, true
		}
	}
	return "", false
}

// activeSeat returns the seat whose turn it is, or nil before the first turn.
func (r *Room) activeSeat() *Seat {
	if r.TurnIndex < 0 || r.TurnIndex >= len(r.Seats) {
		return nil
	}
	return r.Seats[r.TurnIndex]
}

// cancelDeadline stops and clears any pending forced-advance task, so at
// most one deadline is ever outstanding for the room.
func (r *Room) cancelDeadline() {
	if r.deadline != nil {
		r.deadline.Stop()
		r.deadline = nil
	}
}

// roster builds the public player list for lobby and start payloads.
func (r *Room) roster() []PlayerInfo {
	players := make([]PlayerInfo, len(r.Seats))
	for i, s := range r.Seats {
		players[i] = PlayerInfo{ID: s.ConnID, Name: s.Name, Color: s.Color, Figure: s.Figure, IsBot: s.IsBot}
	}
	return players
}
