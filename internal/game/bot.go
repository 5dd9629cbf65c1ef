package game

import (
	"fmt"
	"time"

	"github.com/hirscherd0-sudo/Demondontworry/internal/board"
)

// The bot agent plays an unoccupied seat through the same roll/move/end-turn
// surface a human uses. Its turn is a chain of scheduled steps rather than a
// loop: every step releases the engine lock, and the next step re-resolves
// the room by key and checks the turn sequence, so a torn-down room or an
// already-advanced turn simply ends the chain.

// scheduleBotStep arms the next bot decision step for the room's current
// turn. Assumes the engine lock is held when called.
func (e *Engine) scheduleBotStep(room *Room, delay time.Duration) {
	roomKey, seq := room.Key, room.turnSeq
	time.AfterFunc(delay, func() {
		e.botStep(roomKey, seq)
	})
}

// botStep performs one roll-and-resolve cycle for the active bot seat.
func (e *Engine) botStep(roomKey string, seq int) {
	e.mu.Lock()
	defer e.mu.Unlock()

	room, ok := e.rooms[roomKey]
	if !ok || room.turnSeq != seq || room.Status != StatusPlaying {
		return
	}
	seat := room.activeSeat()
	if seat == nil || !seat.IsBot {
		return
	}

	value := e.rollFn()
	e.logAction(room, seat.ConnID, "roll_dice", map[string]interface{}{"value": value, "bot": true})
	e.broadcastLocked(room, Event{Type: EventDiceRolled, Payload: map[string]interface{}{
		"playerId": seat.ConnID,
		"value":    value,
		"isBot":    true,
	}})

	pieces := room.Pieces[seat.Color]
	if pieces == nil {
		e.scheduleAdvance(room, e.botStepDelay)
		return
	}

	// Leave-base rule: with every piece in base, only a six opens the board.
	// The bot gets a fixed budget of rolls per turn before forfeiting.
	if board.AllInBase(pieces) && value != board.EntryRoll {
		room.botTries++
		if room.botTries < board.LeaveBaseAttempts {
			e.broadcastLocked(room, statusEvent(fmt.Sprintf(
				"%s rolled a %d — attempt %d of %d to leave base.",
				seat.Name, value, room.botTries, board.LeaveBaseAttempts)))
			e.scheduleBotStep(room, e.botStepDelay)
			return
		}
		e.broadcastLocked(room, statusEvent(fmt.Sprintf("%s can't leave base and forfeits the turn.", seat.Name)))
		e.scheduleAdvance(room, e.botStepDelay)
		return
	}

	pieceID, newPosition, moved := board.FirstLegalMove(pieces, value)
	if moved {
		pieces[pieceID] = newPosition
		e.logAction(room, seat.ConnID, "move_piece", map[string]interface{}{
			"pieceId": pieceID, "newPosition": newPosition, "bot": true,
		})
		e.broadcastLocked(room, Event{Type: EventPieceMoved, Payload: map[string]interface{}{
			"playerId":    seat.ConnID,
			"pieceId":     pieceID,
			"newPosition": newPosition,
			"color":       seat.Color,
		}})
	}

	// A six that produced a move earns another roll; everything else ends
	// the turn after a visible pause.
	if moved && value == board.EntryRoll {
		room.botTries = 0
		e.broadcastLocked(room, statusEvent(fmt.Sprintf("%s rolled a six and goes again.", seat.Name)))
		e.scheduleBotStep(room, e.botStepDelay)
		return
	}
	e.scheduleAdvance(room, e.botStepDelay)
}
