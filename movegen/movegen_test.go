package movegen

import (
	"testing"

	"github.com/matryer/is"

	"github.com/domino14/pcsolver/field"
	"github.com/domino14/pcsolver/piece"
)

func TestEmptyBoardCounts(t *testing.T) {
	is := is.New(t)
	g := NewGenerator()

	is.Equal(len(g.Search(0, piece.O, 4)), 9)
	// 7 flat, 10 upright
	is.Equal(len(g.Search(0, piece.I, 4)), 17)
	// 8 up, 8 down, 9 + 9 on the side
	is.Equal(len(g.Search(0, piece.T, 4)), 34)
	// upright I does not fit under two lines
	is.Equal(len(g.Search(0, piece.I, 2)), 7)
}

func TestSearchOrderAndLimits(t *testing.T) {
	is := is.New(t)
	g := NewGenerator()
	moves := g.Search(0, piece.O, 4)
	is.Equal(moves[0].X, 0)
	is.Equal(moves[0].Y, 0)
	is.Equal(moves[0].Piece(), piece.O)
	for i, m := range moves {
		is.Equal(m.Blocks.Rotate, field.Spawn)
		is.Equal(m.X, i)
		is.True(field.Field(0).IsOnGround(m.Blocks, m.X, m.Y))
	}

	// no room at all
	is.Equal(len(g.Search(0, piece.O, 1)), 0)
}

func TestCeilingBlocksReach(t *testing.T) {
	is := is.New(t)
	g := NewGenerator()
	f := field.MustParse(
		"__________",
		"__________",
		"XXXXXXXXXX",
		"__________",
	)
	flat := field.Get(piece.I, field.Spawn)
	is.True(f.CanPut(flat, 1, 0))
	is.True(f.IsOnGround(flat, 1, 0))
	is.True(!g.CanReach(f, flat, 1, 0, 4))
	is.True(g.CanReach(f, flat, 1, 2, 4))
	is.True(!g.CanReach(f, flat, 1, 3, 4))

	for _, m := range g.Search(f, piece.I, 4) {
		is.True(m.Y >= 2)
	}
}

func TestReachCacheFollowsField(t *testing.T) {
	is := is.New(t)
	g := NewGenerator()
	o := field.Get(piece.O, field.Spawn)
	is.True(g.CanReach(0, o, 0, 0, 4))

	covered := field.MustParse(
		"__________",
		"__________",
		"XX________",
		"__________",
	)
	is.True(!g.CanReach(covered, o, 0, 0, 4))
	is.True(g.CanReach(0, o, 0, 0, 4))
}

func TestKickIntoSlot(t *testing.T) {
	is := is.New(t)
	g := NewGenerator()
	// T-spin double slot: the T can only enter pointing down by a kick
	f := field.MustParse(
		"__________",
		"XX________",
		"X___XXXXXX",
		"XX_XXXXXXX",
	)
	tDown := field.Get(piece.T, field.Reverse)
	is.True(f.CanPut(tDown, 2, 1))
	is.True(g.CanReach(f, tDown, 2, 1, 4))
}
