// Package board holds the fixed geometry of the 40-cell Ludo perimeter and
// the per-room trap-field layout generator.
//
// Piece positions are per-piece track offsets, not absolute cells: -1 means
// the piece is still in its base, 0..39 is the distance travelled from the
// owning color's entry cell, and FinishedPosition marks a piece that has
// reached home. Clients translate offsets to absolute cells for rendering;
// the server only needs ordering and the finish threshold.
package board

import "math/rand/v2"

const (
	// PerimeterSize is the number of cells on the shared board ring.
	PerimeterSize = 40

	// TrapFieldCount is the number of trap cells drawn for every room.
	TrapFieldCount = 8

	// PiecesPerPlayer is the number of pieces each seat controls.
	PiecesPerPlayer = 4

	// BasePosition marks a piece that has not entered the board yet.
	BasePosition = -1

	// FinishedPosition is the terminal track offset. A move is legal only
	// if it does not overshoot this threshold.
	FinishedPosition = 40

	// EntryRoll is the die value required to move a piece out of its base.
	EntryRoll = 6

	// LeaveBaseAttempts is the per-turn roll budget while all four pieces
	// are in base. This is a game rule, not failure recovery.
	LeaveBaseAttempts = 3
)

// StartCell returns the absolute perimeter cell where the seat at the given
// turn-order index enters the board. Seats enter at quarter intervals.
func StartCell(seatIndex int) int {
	return (seatIndex * PerimeterSize / 4) % PerimeterSize
}

// SafeCells returns the set of absolute cells excluded from trap placement:
// for every seat its start cell, the cell immediately before its home entry,
// and the cell immediately after its start.
func SafeCells() map[int]struct{} {
	safe := make(map[int]struct{}, 12)
	for seat := 0; seat < 4; seat++ {
		start := StartCell(seat)
		safe[start] = struct{}{}
		safe[(start+PerimeterSize-1)%PerimeterSize] = struct{}{}
		safe[(start+1)%PerimeterSize] = struct{}{}
	}
	return safe
}

// TrapFields draws exactly TrapFieldCount distinct perimeter cells outside
// the safe set, uniformly at random. The retry loop terminates because the
// complement of the safe set always has at least 28 members.
func TrapFields(rng *rand.Rand) []int {
	safe := SafeCells()
	picked := make(map[int]struct{}, TrapFieldCount)
	fields := make([]int, 0, TrapFieldCount)
	for len(fields) < TrapFieldCount {
		cell := rng.IntN(PerimeterSize)
		if _, isSafe := safe[cell]; isSafe {
			continue
		}
		if _, dup := picked[cell]; dup {
			continue
		}
		picked[cell] = struct{}{}
		fields = append(fields, cell)
	}
	return fields
}

// NewPieceSet returns a fresh piece array with every piece in base.
func NewPieceSet() *[PiecesPerPlayer]int {
	return &[PiecesPerPlayer]int{BasePosition, BasePosition, BasePosition, BasePosition}
}

// AllInBase reports whether every piece of the set is still in base.
func AllInBase(pieces *[PiecesPerPlayer]int) bool {
	for _, pos := range pieces {
		if pos != BasePosition {
			return false
		}
	}
	return true
}

// FirstLegalMove scans the pieces in fixed index order and returns the first
// piece that may move with the given roll together with its destination.
// A base piece may only leave on EntryRoll (landing at offset 0); an on-board
// piece advances by the roll unless that overshoots FinishedPosition.
func FirstLegalMove(pieces *[PiecesPerPlayer]int, roll int) (pieceID, newPosition int, ok bool) {
	for i, pos := range pieces {
		switch {
		case pos == BasePosition:
			if roll == EntryRoll {
				return i, 0, true
			}
		case pos >= FinishedPosition:
			// Already home.
		case pos+roll <= FinishedPosition:
			return i, pos + roll, true
		}
	}
	return 0, 0, false
}
