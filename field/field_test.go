package field

import (
	"testing"

	"github.com/matryer/is"
	"github.com/stretchr/testify/assert"

	"github.com/domino14/pcsolver/piece"
)

func TestShapes(t *testing.T) {
	is := is.New(t)
	tr := Get(piece.T, Right)
	is.Equal(tr.MinX, 0)
	is.Equal(tr.MaxX, 1)
	is.Equal(tr.MinY, -1)
	is.Equal(tr.MaxY, 1)

	i0 := Get(piece.I, Spawn)
	is.Equal(i0.Width(), 4)
	is.Equal(Field(0).Put(i0, 1, 0), MustParse("XXXX______"))

	f := Field(0).Put(Get(piece.T, Spawn), 4, 0)
	is.Equal(f, MustParse(
		"____X_____",
		"___XXX____",
	))
	is.Equal(f.NumBlocks(), 4)
}

func TestCanPutAndGround(t *testing.T) {
	is := is.New(t)
	f := MustParse(
		"__________",
		"XXXX______",
	)
	o := Get(piece.O, Spawn)
	is.True(!f.CanPut(o, 0, 0))
	is.True(f.CanPut(o, 0, 1))
	is.True(f.IsOnGround(o, 0, 1))
	is.True(f.CanPut(o, 5, 1))
	is.True(!f.IsOnGround(o, 5, 1))
	is.True(f.IsOnGround(o, 5, 0))
	is.True(!f.CanPut(o, 9, 0))
	is.True(!f.CanPut(o, 0, 5))
}

func TestClearAndInsert(t *testing.T) {
	is := is.New(t)
	f := MustParse(
		"X_________",
		"XXXXXXXXXX",
		"_X________",
		"XXXXXXXXXX",
	)
	cleared, key := f.ClearLine()
	is.Equal(key, uint64(0b0101))
	is.Equal(ClearedLines(key), 2)
	is.Equal(cleared, MustParse(
		"X_________",
		"_X________",
	))
	is.Equal(cleared.InsertBlackLineWithKey(key), f)
	is.Equal(cleared.InsertWhiteLineWithKey(key), MustParse(
		"X_________",
		"__________",
		"_X________",
		"__________",
	))
	is.Equal(f.FilledKey(), key)
	is.Equal(RowsBelow(3), uint64(0b111))
}

func TestMerge(t *testing.T) {
	a := MustParse("XX________")
	b := MustParse("__XX______")
	assert.True(t, a.CanMerge(b))
	assert.False(t, a.CanMerge(a))
	assert.Equal(t, MustParse("XXXX______"), a.Merge(b))
	assert.Equal(t, "XX________\n", a.Render(1))
}

func TestColumnQueries(t *testing.T) {
	is := is.New(t)
	f := MustParse(
		"_X________",
		"X_________",
		"X_________",
		"_X________",
	)
	is.Equal(f.BlockCountOnX(0, 4), 2)
	is.Equal(f.BlockCountOnX(0, 1), 0)
	is.Equal(f.BlockCountOnX(1, 4), 2)
	is.True(f.IsWallBetween(1, 4))
	is.True(!f.IsWallBetween(2, 4))
}

func TestValidate(t *testing.T) {
	is := is.New(t)

	is.True(Validate(0, 4))
	is.True(Validate(0, 2))

	// a wall at columns 2-3 leaves 3*4-4=8 empties on the left, 6*4=24 on
	// the right
	walled := MustParse(
		"__XX______",
		"__XX______",
		"__XX______",
		"__XX______",
	)
	is.True(Validate(walled, 4))

	// one extra block on the left breaks parity
	odd := walled.Merge(MustParse(
		"__________",
		"__________",
		"__________",
		"X_________",
	))
	is.True(!Validate(odd, 4))

	// no wall: total empties 40-1 is not a multiple of four
	single := MustParse("X_________")
	is.True(!Validate(single, 4))

	// the same block is fine when paired off
	is.True(Validate(MustParse("XXXX______"), 4))

	defer func() {
		is.True(recover() != nil)
	}()
	Validate(0, -1)
}

func TestParseErrors(t *testing.T) {
	is := is.New(t)
	_, err := Parse("XX")
	is.True(err != nil)
	_, err = Parse("XXXXXXXXX?")
	is.True(err != nil)
	r, err := ParseRotate("R")
	is.NoErr(err)
	is.Equal(r, Right)
	is.Equal(Left.CW(), Spawn)
	is.Equal(Spawn.CCW(), Left)
}

func TestKicks(t *testing.T) {
	is := is.New(t)
	// JLSTZ 0->R: (0,0) (-1,0) (-1,1) (0,-2) (-1,-2)
	is.Equal(Kicks(piece.T, Spawn, Right), []Point{{0, 0}, {-1, 0}, {-1, 1}, {0, -2}, {-1, -2}})
	// I 0->R: (1,0) (-1,0) (2,0) (-1,-1) (2,2)
	is.Equal(Kicks(piece.I, Spawn, Right), []Point{{1, 0}, {-1, 0}, {2, 0}, {-1, -1}, {2, 2}})
	is.Equal(len(Kicks(piece.O, Spawn, Left)), 1)
}
