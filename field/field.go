// Package field is the playfield used by the solver: a 10-wide board of at
// most six rows packed into one uint64, the seven SRS piece shapes, and the
// parity test that rules out boards no sequence of tetrominoes can clear.
//
// Cell (x, y) is bit y*Width+x, row 0 at the bottom. Sets of rows ("keys")
// are uint64 masks with bit y for row y.
package field

import (
	"fmt"
	"math/bits"
	"strings"
)

const (
	Width     = 10
	MaxHeight = 6
)

// Field is an immutable bitboard value.
type Field uint64

const (
	rowMask   Field = 1<<Width - 1
	boardMask Field = 1<<(Width*MaxHeight) - 1
	// one bit at column 0 of every row
	columnMask Field = 1 | 1<<10 | 1<<20 | 1<<30 | 1<<40 | 1<<50
)

func bit(x, y int) Field {
	return 1 << uint(y*Width+x)
}

// RowsBelow is the key of rows [0, y).
func RowsBelow(y int) uint64 {
	if y <= 0 {
		return 0
	}
	return 1<<uint(y) - 1
}

func (f Field) Filled(x, y int) bool {
	if x < 0 || x >= Width || y < 0 || y >= MaxHeight {
		return false
	}
	return f&bit(x, y) != 0
}

// Row returns row y as a 10-bit mask, column 0 in bit 0.
func (f Field) Row(y int) uint16 {
	return uint16((f >> uint(y*Width)) & rowMask)
}

// Put places b centred at (x, y).
func (f Field) Put(b *Blocks, x, y int) Field {
	return f | b.Mask(x, y)
}

// CanPut reports whether b centred at (x, y) is inside the field and
// overlaps nothing.
func (f Field) CanPut(b *Blocks, x, y int) bool {
	return b.InBounds(x, y, MaxHeight) && f&b.Mask(x, y) == 0
}

// IsOnGround reports whether b centred at (x, y) rests on the floor or on a
// filled cell.
func (f Field) IsOnGround(b *Blocks, x, y int) bool {
	if y+b.MinY <= 0 {
		return true
	}
	for _, c := range b.Cells {
		if f.Filled(x+c.X, y+c.Y-1) {
			return true
		}
	}
	return false
}

// FilledKey is the key of every completely filled row.
func (f Field) FilledKey() uint64 {
	var key uint64
	for y := 0; y < MaxHeight; y++ {
		if Field(f.Row(y)) == rowMask {
			key |= 1 << uint(y)
		}
	}
	return key
}

// ClearLine drops every filled row and returns the compacted field together
// with the key of the rows removed, in the coordinates before the clear.
func (f Field) ClearLine() (Field, uint64) {
	key := f.FilledKey()
	if key == 0 {
		return f, 0
	}
	var out Field
	dst := 0
	for y := 0; y < MaxHeight; y++ {
		if key&(1<<uint(y)) != 0 {
			continue
		}
		out |= Field(f.Row(y)) << uint(dst*Width)
		dst++
	}
	return out, key
}

// ClearedLines is ClearLine's row count.
func ClearedLines(key uint64) int {
	return bits.OnesCount64(key)
}

func (f Field) insertRows(key uint64, fill Field) Field {
	for y := 0; y < MaxHeight; y++ {
		if key&(1<<uint(y)) == 0 {
			continue
		}
		shift := uint(y * Width)
		below := f & (1<<shift - 1)
		above := (f &^ (1<<shift - 1)) << Width
		f = (below | fill<<shift | above) & boardMask
	}
	return f
}

// InsertBlackLineWithKey re-inserts full rows at the positions of key,
// undoing a ClearLine.
func (f Field) InsertBlackLineWithKey(key uint64) Field {
	return f.insertRows(key, rowMask)
}

// InsertWhiteLineWithKey inserts empty rows at the positions of key.
func (f Field) InsertWhiteLineWithKey(key uint64) Field {
	return f.insertRows(key, 0)
}

// CanMerge reports whether f and o share no cell.
func (f Field) CanMerge(o Field) bool {
	return f&o == 0
}

func (f Field) Merge(o Field) Field {
	return f | o
}

func (f Field) NumBlocks() int {
	return bits.OnesCount64(uint64(f))
}

// IsEmpty reports a perfect clear.
func (f Field) IsEmpty() bool {
	return f == 0
}

// BlockCountOnX counts filled cells of column x below maxY.
func (f Field) BlockCountOnX(x, maxY int) int {
	col := (f >> uint(x)) & columnMask
	return bits.OnesCount64(uint64(col & Field(rowsMaskBelow(maxY))))
}

// IsWallBetween reports whether every row below maxY has a block in column
// x-1 or column x, so nothing can cross between them.
func (f Field) IsWallBetween(x, maxY int) bool {
	left := (f >> uint(x-1)) & columnMask
	right := (f >> uint(x)) & columnMask
	need := columnMask & Field(rowsMaskBelow(maxY))
	return (left|right)&need == need
}

// rowsMaskBelow is a board mask of every cell in rows [0, maxY).
func rowsMaskBelow(maxY int) uint64 {
	if maxY >= MaxHeight {
		return uint64(boardMask)
	}
	if maxY <= 0 {
		return 0
	}
	return 1<<uint(maxY*Width) - 1
}

// Render draws the bottom height rows, top row first.
func (f Field) Render(height int) string {
	var sb strings.Builder
	for y := height - 1; y >= 0; y-- {
		for x := 0; x < Width; x++ {
			if f.Filled(x, y) {
				sb.WriteByte('X')
			} else {
				sb.WriteByte('_')
			}
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

func (f Field) String() string {
	return f.Render(4)
}

// Parse reads rows of 'X' (or '#') and '_' (or '.'), top row first. The
// last row given is row 0.
func Parse(rows ...string) (Field, error) {
	if len(rows) > MaxHeight {
		return 0, fmt.Errorf("%d rows, at most %d", len(rows), MaxHeight)
	}
	var f Field
	for i, row := range rows {
		y := len(rows) - 1 - i
		if len(row) != Width {
			return 0, fmt.Errorf("row %d: width %d, want %d", y, len(row), Width)
		}
		for x := 0; x < Width; x++ {
			switch row[x] {
			case 'X', '#':
				f |= bit(x, y)
			case '_', '.':
			default:
				return 0, fmt.Errorf("row %d: bad cell %q", y, row[x])
			}
		}
	}
	return f, nil
}

// MustParse is Parse for literals.
func MustParse(rows ...string) Field {
	f, err := Parse(rows...)
	if err != nil {
		panic(err)
	}
	return f
}
