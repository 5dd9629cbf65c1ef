package game

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
)

// advanceTurnLocked moves the turn to the next seat, broadcasts the new
// active participant with the turn budget, and arms the forced-advance
// deadline (human seats) or schedules the bot driver (bot seats). Any
// pending deadline is cancelled first, so at most one is ever outstanding.
// Assumes the engine lock is held.
func (e *Engine) advanceTurnLocked(room *Room) {
	room.cancelDeadline()
	if len(room.Seats) == 0 {
		return
	}
	room.TurnIndex = (room.TurnIndex + 1) % len(room.Seats)
	room.botTries = 0
	room.turnSeq++

	seat := room.Seats[room.TurnIndex]
	e.log.WithFields(logrus.Fields{
		"room":  room.Key,
		"turn":  room.turnSeq,
		"color": seat.Color,
		"bot":   seat.IsBot,
	}).Debug("turn advanced")

	e.broadcastLocked(room, Event{Type: EventTurnChanged, Payload: map[string]interface{}{
		"activeColor": seat.Color,
		"activeName":  seat.Name,
		"isBot":       seat.IsBot,
		"timeout":     int(e.turnTimeout / time.Second),
	}})

	if seat.IsBot {
		e.scheduleBotStep(room, e.botThinkDelay)
		return
	}

	seq := room.turnSeq
	room.deadline = time.AfterFunc(e.turnTimeout, func() {
		e.onDeadline(room.Key, seq)
	})
}

// onDeadline fires when the active seat neither rolled nor ended its turn in
// time. The room is re-resolved by key and the sequence number checked, so a
// timer that outlived its turn (or its room) does nothing.
func (e *Engine) onDeadline(roomKey string, seq int) {
	e.mu.Lock()
	defer e.mu.Unlock()

	room, ok := e.rooms[roomKey]
	if !ok || room.turnSeq != seq || room.Status != StatusPlaying {
		return
	}
	seat := room.activeSeat()
	if seat == nil {
		return
	}

	e.log.WithFields(logrus.Fields{"room": roomKey, "color": seat.Color}).Info("turn timed out")
	e.logAction(room, seat.ConnID, "turn_timeout", nil)
	e.broadcastLocked(room, statusEvent(fmt.Sprintf("%s ran out of time.", seat.Name)))
	e.advanceTurnLocked(room)
}

// scheduleAdvance arms a delayed turn advance for the room's current turn.
// Used by the bot driver to end its turn after a visible pause. Assumes the
// engine lock is held when called.
func (e *Engine) scheduleAdvance(room *Room, delay time.Duration) {
	roomKey, seq := room.Key, room.turnSeq
	time.AfterFunc(delay, func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		room, ok := e.rooms[roomKey]
		if !ok || room.turnSeq != seq || room.Status != StatusPlaying {
			return
		}
		e.advanceTurnLocked(room)
	})
}
