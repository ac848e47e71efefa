// Package index reads and writes the solver's input tables: placement
// candidates, known solutions (candidate id combinations), and the naming of
// the bit table files derived from them.
package index

import (
	"errors"
	"fmt"
	"math/bits"

	"github.com/domino14/pcsolver/field"
	"github.com/domino14/pcsolver/piece"
)

var ErrMalformedRecord = errors.New("malformed record")

// Candidate is one fixed final position of a piece. X and Y are the
// rotation centre on the board with every row present. DeletedLine is the key
// of rows that must have been cleared before the piece can go there; the
// piece's cells straddle them.
type Candidate struct {
	ID          int
	Piece       piece.Type
	Rotate      field.Rotate
	X, Y        int
	DeletedLine uint64
}

func (c Candidate) Blocks() *field.Blocks {
	return field.Get(c.Piece, c.Rotate)
}

// ClearedY is the centre row once the rows in key have been removed.
func (c Candidate) ClearedY(key uint64) int {
	return c.Y - bits.OnesCount64(key&field.RowsBelow(c.Y))
}

// Mino is the cells the candidate covers on the full board.
func (c Candidate) Mino() field.Field {
	b := c.Blocks()
	return b.Mask(c.X, c.ClearedY(c.DeletedLine)).InsertWhiteLineWithKey(c.DeletedLine)
}

func (c Candidate) String() string {
	return fmt.Sprintf("%d:%v%v(%d,%d)/%04b", c.ID, c.Piece, c.Rotate, c.X, c.Y, c.DeletedLine)
}

func (c Candidate) validate() error {
	if !c.Piece.Valid() {
		return fmt.Errorf("%w: candidate %d: bad piece %d", ErrMalformedRecord, c.ID, c.Piece)
	}
	if c.Rotate >= field.NumRotates {
		return fmt.Errorf("%w: candidate %d: bad rotation %d", ErrMalformedRecord, c.ID, c.Rotate)
	}
	if c.DeletedLine>>field.MaxHeight != 0 {
		return fmt.Errorf("%w: candidate %d: bad deleted line %b", ErrMalformedRecord, c.ID, c.DeletedLine)
	}
	if c.DeletedLine&(1<<uint(max(c.Y, 0))) != 0 {
		return fmt.Errorf("%w: candidate %d: centre row is a deleted line", ErrMalformedRecord, c.ID)
	}
	height := field.MaxHeight - bits.OnesCount64(c.DeletedLine)
	if !c.Blocks().InBounds(c.X, c.ClearedY(c.DeletedLine), height) {
		return fmt.Errorf("%w: candidate %d: outside the field", ErrMalformedRecord, c.ID)
	}
	return nil
}

// liftRow maps row r of a board with the rows of key removed back onto the
// full board.
func liftRow(r int, key uint64) int {
	for y := 0; ; y++ {
		if key&(1<<uint(y)) != 0 {
			continue
		}
		if r == 0 {
			return y
		}
		r--
	}
}

// MinoIndex maps an absolute cell mask to its candidate.
type MinoIndex map[pieceMino]*Candidate

type pieceMino struct {
	piece piece.Type
	mino  field.Field
}

// NewMinoIndex indexes candidates by piece and covered cells.
func NewMinoIndex(cands []Candidate) MinoIndex {
	m := make(MinoIndex, len(cands))
	for i := range cands {
		c := &cands[i]
		m[pieceMino{c.Piece, c.Mino()}] = c
	}
	return m
}

// Lookup finds the candidate placing p on exactly the cells of mino.
func (m MinoIndex) Lookup(p piece.Type, mino field.Field) (*Candidate, bool) {
	c, ok := m[pieceMino{p, mino}]
	return c, ok
}
