package runner

import (
	"context"
	"testing"

	"github.com/matryer/is"

	"github.com/domino14/pcsolver/bittable"
	"github.com/domino14/pcsolver/field"
	"github.com/domino14/pcsolver/index"
	"github.com/domino14/pcsolver/piece"
	"github.com/domino14/pcsolver/sequence"
)

func TestOrderMatters(t *testing.T) {
	is := is.New(t)
	f := field.MustParse("____XXXXXX")
	cands := []*index.Candidate{
		{ID: 0, Piece: piece.I, Rotate: field.Spawn, X: 1, Y: 0},
		{ID: 1, Piece: piece.O, Rotate: field.Spawn, X: 0, Y: 1},
	}
	table := bittable.New(sequence.Pow7(2))
	r := New(nil, 4)
	n, err := r.Find(context.Background(), f, cands, table)
	is.NoErr(err)
	is.Equal(n, 1)
	is.True(table.Get(sequence.Rank(piece.MustParseList("IO"))))
	is.True(!table.Get(sequence.Rank(piece.MustParseList("OI"))))
	is.Equal(table.Count(), 1)
}

func TestSameRankTwice(t *testing.T) {
	is := is.New(t)
	f := field.MustParse(
		"____XXXXXX",
		"____XXXXXX",
	)
	cands := []*index.Candidate{
		{ID: 0, Piece: piece.O, Rotate: field.Spawn, X: 0, Y: 0},
		{ID: 1, Piece: piece.O, Rotate: field.Spawn, X: 2, Y: 0},
	}
	table := bittable.New(49)
	n, err := New(nil, 2).Find(context.Background(), f, cands, table)
	is.NoErr(err)
	is.Equal(n, 2)
	is.Equal(table.Count(), 1)
	is.True(table.Get(6*7 + 6))
}

func TestRequiredClearedRows(t *testing.T) {
	is := is.New(t)
	f := field.MustParse(
		"__XXXX____",
		"XXXXXX____",
		"__XXXXXXXX",
	)
	flat := &index.Candidate{ID: 0, Piece: piece.I, Rotate: field.Spawn, X: 7, Y: 1}
	// the O straddles row 1, which must be cleared before it can land
	split := &index.Candidate{ID: 1, Piece: piece.O, Rotate: field.Spawn, X: 0, Y: 0, DeletedLine: 0b010}
	is.Equal(split.Mino(), field.MustParse(
		"XX________",
		"__________",
		"XX________",
	))

	table := bittable.New(49)
	n, err := New(nil, 4).Find(context.Background(), f, []*index.Candidate{flat, split}, table)
	is.NoErr(err)
	is.Equal(n, 1)
	is.True(table.Get(sequence.Rank(piece.MustParseList("IO"))))

	alone := bittable.New(7)
	n, err = New(nil, 4).Find(context.Background(), f, []*index.Candidate{split}, alone)
	is.NoErr(err)
	is.Equal(n, 0)
}

func TestCancel(t *testing.T) {
	is := is.New(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	cands := []*index.Candidate{{ID: 0, Piece: piece.O, Rotate: field.Spawn, X: 0, Y: 0}}
	_, err := New(nil, 2).Find(ctx, 0, cands, bittable.New(7))
	is.Equal(err, context.Canceled)
}
