// Package game implements the room and turn-state engine: per-match rooms,
// deadline-driven turn advancement, host migration, and the bot agent that
// plays unfilled seats through the same action surface humans use.
package game

import (
	"context"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/hirscherd0-sudo/Demondontworry/internal/board"
	"github.com/hirscherd0-sudo/Demondontworry/internal/cache"
)

// Options configures a new Engine. Zero durations fall back to defaults.
type Options struct {
	TurnTimeout   time.Duration // Per-turn wall-clock budget for human seats.
	BotThinkDelay time.Duration // Pause before a bot's first roll of a turn.
	BotStepDelay  time.Duration // Pause between bot decision steps.
	Rand          *rand.Rand    // Randomness source for dice and trap layouts.
	Logger        *logrus.Logger
}

const (
	defaultTurnTimeout   = 15 * time.Second
	defaultBotThinkDelay = 1200 * time.Millisecond
	defaultBotStepDelay  = 900 * time.Millisecond
)

// Engine owns every Room and the reverse connection index. All state is
// guarded by one mutex; handlers are short and never block, and every
// scheduled callback re-resolves its room by key under the lock before
// acting, so a room vanishing between arming and firing degrades to a no-op.
type Engine struct {
	mu       sync.Mutex
	rooms    map[string]*Room
	connRoom map[string]string // connection ID -> room key, for O(1) disconnects.

	turnTimeout   time.Duration
	botThinkDelay time.Duration
	botStepDelay  time.Duration

	rng    *rand.Rand
	rollFn func() int // Die source; replaced in tests for scripted rolls.

	// SendFn delivers an event to a single connection. Broadcasts iterate a
	// room's human seats through it. Wired by the session gateway.
	SendFn func(connID string, ev Event)

	log *logrus.Logger
}

// NewEngine creates an Engine with the given options.
func NewEngine(opts Options) *Engine {
	if opts.TurnTimeout <= 0 {
		opts.TurnTimeout = defaultTurnTimeout
	}
	if opts.BotThinkDelay <= 0 {
		opts.BotThinkDelay = defaultBotThinkDelay
	}
	if opts.BotStepDelay <= 0 {
		opts.BotStepDelay = defaultBotStepDelay
	}
	if opts.Rand == nil {
		seed := uint64(time.Now().UnixNano())
		opts.Rand = rand.New(rand.NewPCG(seed, seed^0xdeadbeefcafe1234))
	}
	if opts.Logger == nil {
		opts.Logger = logrus.StandardLogger()
	}
	e := &Engine{
		rooms:         make(map[string]*Room),
		connRoom:      make(map[string]string),
		turnTimeout:   opts.TurnTimeout,
		botThinkDelay: opts.BotThinkDelay,
		botStepDelay:  opts.BotStepDelay,
		rng:           opts.Rand,
		log:           opts.Logger,
	}
	e.rollFn = func() int { return e.rng.IntN(6) + 1 }
	return e
}

// JoinRoom seats the connection in the room, creating the room (with its own
// trap-field layout and the joiner as host) if absent. A room whose human
// seats have all left is discarded and recreated. A connection holds at most
// one seat: joining while seated elsewhere vacates the old seat first, and
// re-joining the current room is a no-op. Full or already-playing rooms
// reject the joiner with an error event and no state change.
func (e *Engine) JoinRoom(roomKey, connID, name string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if prev, seated := e.connRoom[connID]; seated {
		if prev == roomKey {
			return
		}
		e.removeSeatLocked(prev, connID)
	}

	room, ok := e.rooms[roomKey]
	if ok && room.humanCount() == 0 {
		// Orphan reclamation: nobody human is left, so the old match state
		// is worthless. Discard and start over under the same key.
		e.log.WithField("room", roomKey).Info("reclaiming orphaned room")
		room.cancelDeadline()
		delete(e.rooms, roomKey)
		ok = false
	}
	if !ok {
		room = &Room{
			Key:        roomKey,
			Status:     StatusWaiting,
			HostID:     connID,
			TurnIndex:  -1,
			TrapFields: board.TrapFields(e.rng),
			Pieces:     make(map[Color]*[board.PiecesPerPlayer]int),
		}
		e.rooms[roomKey] = room
		e.log.WithFields(logrus.Fields{"room": roomKey, "host": connID}).Info("room created")
	}

	if room.Status == StatusPlaying {
		e.send(connID, errorEvent("Game already in progress!"))
		return
	}
	color, free := room.freeColor()
	if !free {
		e.send(connID, errorEvent("Room is full!"))
		return
	}
	desc := seatDescriptors[color]
	if name == "" {
		name = string(color)
	}
	seat := &Seat{ConnID: connID, Name: name, Figure: desc.Figure, Color: color}
	room.Seats = append(room.Seats, seat)
	room.Pieces[color] = board.NewPieceSet()
	e.connRoom[connID] = roomKey

	e.log.WithFields(logrus.Fields{"room": roomKey, "conn": connID, "color": color}).Info("player joined")
	e.logAction(room, connID, "join_room", map[string]interface{}{"color": color, "name": name})

	e.send(connID, Event{Type: EventJoinedLobby, Payload: map[string]interface{}{
		"color":  color,
		"figure": seat.Figure,
		"isHost": room.HostID == connID,
	}})
	e.broadcastLocked(room, e.lobbyUpdate(room))
}

// RequestStart flips the room to playing and begins the first turn. Only the
// host may start; anyone else is silently ignored. Unfilled seats are taken
// by bots. A second start request on a playing room is a no-op.
func (e *Engine) RequestStart(roomKey, connID string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	room, ok := e.rooms[roomKey]
	if !ok {
		return
	}
	if room.HostID != connID {
		e.log.WithFields(logrus.Fields{"room": roomKey, "conn": connID}).Debug("start request from non-host ignored")
		return
	}
	if room.Status == StatusPlaying {
		return
	}

	for len(room.Seats) < MaxSeats {
		color, free := room.freeColor()
		if !free {
			break
		}
		desc := seatDescriptors[color]
		bot := &Seat{
			ConnID: "bot-" + uuid.NewString(),
			Name:   desc.BotName,
			Figure: desc.Figure,
			Color:  color,
			IsBot:  true,
		}
		room.Seats = append(room.Seats, bot)
		room.Pieces[color] = board.NewPieceSet()
	}

	room.Status = StatusPlaying
	e.log.WithFields(logrus.Fields{"room": roomKey, "seats": len(room.Seats)}).Info("game started")
	e.logAction(room, connID, "game_start", nil)

	e.broadcastLocked(room, Event{Type: EventGameStarted, Payload: map[string]interface{}{
		"players":    room.roster(),
		"trapFields": room.TrapFields,
	}})
	e.advanceTurnLocked(room)
}

// RollDice produces a server-side die value for the acting connection,
// cancels the pending deadline, and broadcasts the result. The server, never
// the client, is the source of the value.
func (e *Engine) RollDice(roomKey, connID string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	room, seat := e.actingSeat(roomKey, connID)
	if room == nil {
		return
	}

	room.cancelDeadline()
	value := e.rollFn()
	e.logAction(room, connID, "roll_dice", map[string]interface{}{"value": value})
	e.broadcastLocked(room, Event{Type: EventDiceRolled, Payload: map[string]interface{}{
		"playerId": seat.ConnID,
		"value":    value,
	}})
}

// MovePiece relays the reported move to the room verbatim and mirrors the
// position into the room's piece state. Move geometry from human clients is
// trusted as reported.
func (e *Engine) MovePiece(roomKey, connID string, pieceID, newPosition int) {
	e.mu.Lock()
	defer e.mu.Unlock()

	room, seat := e.actingSeat(roomKey, connID)
	if room == nil {
		return
	}

	if pieces := room.Pieces[seat.Color]; pieces != nil && pieceID >= 0 && pieceID < board.PiecesPerPlayer {
		pieces[pieceID] = newPosition
	}
	e.logAction(room, connID, "move_piece", map[string]interface{}{"pieceId": pieceID, "newPosition": newPosition})
	e.broadcastLocked(room, Event{Type: EventPieceMoved, Payload: map[string]interface{}{
		"playerId":    seat.ConnID,
		"pieceId":     pieceID,
		"newPosition": newPosition,
		"color":       seat.Color,
	}})
}

// EndTurn advances the turn on behalf of the acting connection.
func (e *Engine) EndTurn(roomKey, connID string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	room, _ := e.actingSeat(roomKey, connID)
	if room == nil {
		return
	}
	e.logAction(room, connID, "end_turn", nil)
	e.advanceTurnLocked(room)
}

// HandleDisconnect removes the connection's seat. The room is torn down when
// the last human leaves; otherwise host authority migrates to the first
// remaining human and the roster update is broadcast. Bot seats are never
// removed.
func (e *Engine) HandleDisconnect(connID string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	roomKey, ok := e.connRoom[connID]
	if !ok {
		return
	}
	e.removeSeatLocked(roomKey, connID)
}

// removeSeatLocked vacates the connection's seat in the room and clears the
// reverse index entry. Assumes the engine lock is held.
func (e *Engine) removeSeatLocked(roomKey, connID string) {
	delete(e.connRoom, connID)

	room, ok := e.rooms[roomKey]
	if !ok {
		return
	}
	seat, idx := room.seatByConn(connID)
	if seat == nil {
		return
	}

	wasActive := room.Status == StatusPlaying && idx == room.TurnIndex
	room.Seats = append(room.Seats[:idx], room.Seats[idx+1:]...)
	delete(room.Pieces, seat.Color)
	e.log.WithFields(logrus.Fields{"room": roomKey, "conn": connID, "color": seat.Color}).Info("player disconnected")

	if room.humanCount() == 0 {
		// Bot-only rooms are not kept alive.
		room.cancelDeadline()
		delete(e.rooms, roomKey)
		e.log.WithField("room", roomKey).Info("room torn down, no humans left")
		return
	}

	// Keep the turn pointer aligned with the shrunk seat list.
	if idx <= room.TurnIndex {
		room.TurnIndex--
	}

	if room.HostID == connID {
		for _, s := range room.Seats {
			if !s.IsBot {
				room.HostID = s.ConnID
				e.send(s.ConnID, Event{Type: EventYouAreHost})
				e.log.WithFields(logrus.Fields{"room": roomKey, "host": s.ConnID}).Info("host migrated")
				break
			}
		}
	}

	e.logAction(room, connID, "leave_room", map[string]interface{}{"color": seat.Color})
	e.broadcastLocked(room, e.lobbyUpdate(room))

	if wasActive {
		// Don't leave the room waiting on a deadline armed for a seat that
		// no longer exists.
		e.advanceTurnLocked(room)
	}
}

// actingSeat resolves the room and the caller's seat for an in-game action,
// applying the coarse membership and turn checks. Missing rooms, outsiders
// and out-of-turn actors all degrade to a no-op (nil room).
func (e *Engine) actingSeat(roomKey, connID string) (*Room, *Seat) {
	room, ok := e.rooms[roomKey]
	if !ok || room.Status != StatusPlaying {
		return nil, nil
	}
	seat, idx := room.seatByConn(connID)
	if seat == nil {
		return nil, nil
	}
	if idx != room.TurnIndex {
		e.send(connID, errorEvent("It's not your turn."))
		return nil, nil
	}
	return room, seat
}

func (e *Engine) lobbyUpdate(room *Room) Event {
	return Event{Type: EventLobbyUpdate, Payload: map[string]interface{}{
		"players": room.roster(),
		"hostId":  room.HostID,
	}}
}

// broadcastLocked delivers an event to every human seat of the room, in seat
// order. Assumes the engine lock is held.
func (e *Engine) broadcastLocked(room *Room, ev Event) {
	for _, s := range room.Seats {
		if !s.IsBot {
			e.send(s.ConnID, ev)
		}
	}
}

// send delivers an event to a single connection via the gateway callback.
func (e *Engine) send(connID string, ev Event) {
	if e.SendFn == nil {
		e.log.WithField("conn", connID).Warn("SendFn is nil, dropping event")
		return
	}
	e.SendFn(connID, ev)
}

// logAction publishes the accepted action to the room-action stream.
// Publishing happens asynchronously and is skipped entirely when Redis is
// not configured. Assumes the engine lock is held.
func (e *Engine) logAction(room *Room, actorID, actionType string, payload map[string]interface{}) {
	room.actionIndex++
	if payload == nil {
		payload = make(map[string]interface{})
	}
	rec := cache.RoomActionRecord{
		RoomKey:     room.Key,
		ActionIndex: room.actionIndex,
		ActorID:     actorID,
		ActionType:  actionType,
		Payload:     payload,
		Timestamp:   time.Now().UnixMilli(),
	}
	if cache.Rdb == nil {
		return
	}
	go func(rec cache.RoomActionRecord) {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := cache.PublishRoomAction(ctx, rec); err != nil {
			e.log.WithError(err).WithField("room", rec.RoomKey).Error("failed publishing room action")
		}
	}(rec)
}
