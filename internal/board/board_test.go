package board

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSafeCellsCoverAllSeats(t *testing.T) {
	safe := SafeCells()
	// 4 seats × {start, before home entry, after start}, no overlaps on a
	// 40-cell ring with quarter-interval starts.
	assert.Len(t, safe, 12)
	for seat := 0; seat < 4; seat++ {
		start := StartCell(seat)
		assert.Contains(t, safe, start)
		assert.Contains(t, safe, (start+PerimeterSize-1)%PerimeterSize)
		assert.Contains(t, safe, (start+1)%PerimeterSize)
	}
}

func TestTrapFieldsProperties(t *testing.T) {
	rng := rand.New(rand.NewPCG(42, 1337))
	safe := SafeCells()

	// Every generated layout must have exactly 8 distinct non-safe cells.
	for i := 0; i < 500; i++ {
		fields := TrapFields(rng)
		require.Len(t, fields, TrapFieldCount)

		seen := make(map[int]struct{}, len(fields))
		for _, cell := range fields {
			assert.GreaterOrEqual(t, cell, 0)
			assert.Less(t, cell, PerimeterSize)
			_, isSafe := safe[cell]
			assert.False(t, isSafe, "trap field %d is a safe cell", cell)
			_, dup := seen[cell]
			assert.False(t, dup, "trap field %d drawn twice", cell)
			seen[cell] = struct{}{}
		}
	}
}

func TestFirstLegalMoveLeavesBaseOnlyOnSix(t *testing.T) {
	pieces := NewPieceSet()

	_, _, ok := FirstLegalMove(pieces, 3)
	assert.False(t, ok, "no move should exist with all pieces in base and a non-six")

	pieceID, newPos, ok := FirstLegalMove(pieces, EntryRoll)
	require.True(t, ok)
	assert.Equal(t, 0, pieceID, "lowest-index base piece leaves first")
	assert.Equal(t, 0, newPos, "leaving base lands on the entry cell")
}

func TestFirstLegalMovePrefersLowestIndex(t *testing.T) {
	pieces := &[PiecesPerPlayer]int{BasePosition, 10, 20, BasePosition}

	pieceID, newPos, ok := FirstLegalMove(pieces, 4)
	require.True(t, ok)
	assert.Equal(t, 1, pieceID)
	assert.Equal(t, 14, newPos)
}

func TestFirstLegalMoveSkipsOvershootAndFinished(t *testing.T) {
	pieces := &[PiecesPerPlayer]int{FinishedPosition, 38, 39, BasePosition}

	// A 4 would overshoot both on-board pieces; no base piece may leave.
	_, _, ok := FirstLegalMove(pieces, 4)
	assert.False(t, ok)

	// A 2 exactly reaches the finish threshold for the piece at 38.
	pieceID, newPos, ok := FirstLegalMove(pieces, 2)
	require.True(t, ok)
	assert.Equal(t, 1, pieceID)
	assert.Equal(t, FinishedPosition, newPos)
}

func TestAllInBase(t *testing.T) {
	pieces := NewPieceSet()
	assert.True(t, AllInBase(pieces))
	pieces[2] = 0
	assert.False(t, AllInBase(pieces))
}
