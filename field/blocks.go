package field

import (
	"fmt"
	"strings"

	"github.com/domino14/pcsolver/piece"
)

// Rotate is a piece orientation.
type Rotate uint8

const (
	Spawn Rotate = iota
	Right
	Reverse
	Left
)

const NumRotates = 4

func (r Rotate) String() string {
	switch r {
	case Spawn:
		return "0"
	case Right:
		return "R"
	case Reverse:
		return "2"
	case Left:
		return "L"
	}
	return fmt.Sprintf("Rotate(%d)", uint8(r))
}

// CW is the orientation after a clockwise turn.
func (r Rotate) CW() Rotate {
	return (r + 1) % NumRotates
}

// CCW is the orientation after a counter-clockwise turn.
func (r Rotate) CCW() Rotate {
	return (r + NumRotates - 1) % NumRotates
}

// ParseRotate accepts 0/R/2/L, 0..3 or the orientation names.
func ParseRotate(s string) (Rotate, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "0", "spawn":
		return Spawn, nil
	case "r", "1", "right":
		return Right, nil
	case "2", "reverse":
		return Reverse, nil
	case "l", "3", "left":
		return Left, nil
	}
	return Spawn, fmt.Errorf("unknown rotation %q", s)
}

// Point is a cell offset from a piece's rotation centre.
type Point struct {
	X, Y int
}

func (p Point) rotate(r Rotate) Point {
	switch r {
	case Right:
		return Point{p.Y, -p.X}
	case Reverse:
		return Point{-p.X, -p.Y}
	case Left:
		return Point{-p.Y, p.X}
	}
	return p
}

func (p Point) sub(o Point) Point {
	return Point{p.X - o.X, p.Y - o.Y}
}

// Blocks is one piece in one orientation.
type Blocks struct {
	Piece  piece.Type
	Rotate Rotate
	Cells  [4]Point
	MinX   int
	MaxX   int
	MinY   int
	MaxY   int

	// cells packed with (MinX, MinY) at bit 0
	base Field
}

var spawnCells = [piece.NumTypes][4]Point{
	piece.T: {{0, 0}, {-1, 0}, {1, 0}, {0, 1}},
	piece.I: {{0, 0}, {-1, 0}, {1, 0}, {2, 0}},
	piece.L: {{0, 0}, {-1, 0}, {1, 0}, {1, 1}},
	piece.J: {{0, 0}, {-1, 0}, {1, 0}, {-1, 1}},
	piece.S: {{0, 0}, {-1, 0}, {0, 1}, {1, 1}},
	piece.Z: {{0, 0}, {1, 0}, {0, 1}, {-1, 1}},
	piece.O: {{0, 0}, {1, 0}, {0, 1}, {1, 1}},
}

var allBlocks = func() (out [piece.NumTypes][NumRotates]Blocks) {
	for _, t := range piece.AllTypes {
		for r := Rotate(0); r < NumRotates; r++ {
			b := Blocks{Piece: t, Rotate: r}
			for i, c := range spawnCells[t] {
				b.Cells[i] = c.rotate(r)
			}
			b.MinX, b.MaxX = b.Cells[0].X, b.Cells[0].X
			b.MinY, b.MaxY = b.Cells[0].Y, b.Cells[0].Y
			for _, c := range b.Cells[1:] {
				b.MinX = min(b.MinX, c.X)
				b.MaxX = max(b.MaxX, c.X)
				b.MinY = min(b.MinY, c.Y)
				b.MaxY = max(b.MaxY, c.Y)
			}
			for _, c := range b.Cells {
				b.base |= bit(c.X-b.MinX, c.Y-b.MinY)
			}
			out[t][r] = b
		}
	}
	return
}()

// Get returns the shared shape of piece t in orientation r.
func Get(t piece.Type, r Rotate) *Blocks {
	return &allBlocks[t][r]
}

// Width is the number of columns the shape spans.
func (b *Blocks) Width() int {
	return b.MaxX - b.MinX + 1
}

// InBounds reports whether the shape centred at (x, y) lies inside a field
// of the given height.
func (b *Blocks) InBounds(x, y, height int) bool {
	return x+b.MinX >= 0 && x+b.MaxX < Width && y+b.MinY >= 0 && y+b.MaxY < height
}

// Mask is the shape centred at (x, y). The shape must lie inside MaxHeight.
func (b *Blocks) Mask(x, y int) Field {
	if !b.InBounds(x, y, MaxHeight) {
		panic(fmt.Sprintf("%v%v at (%d,%d) outside field", b.Piece, b.Rotate, x, y))
	}
	return b.base << uint((x+b.MinX)+(y+b.MinY)*Width)
}

// SRS offset tables. A turn from orientation a to b tries the kicks
// offset[a][i] - offset[b][i] in order.
var (
	offsetsJLSTZ = [NumRotates][]Point{
		Spawn:   {{0, 0}, {0, 0}, {0, 0}, {0, 0}, {0, 0}},
		Right:   {{0, 0}, {1, 0}, {1, -1}, {0, 2}, {1, 2}},
		Reverse: {{0, 0}, {0, 0}, {0, 0}, {0, 0}, {0, 0}},
		Left:    {{0, 0}, {-1, 0}, {-1, -1}, {0, 2}, {-1, 2}},
	}
	offsetsI = [NumRotates][]Point{
		Spawn:   {{0, 0}, {-1, 0}, {2, 0}, {-1, 0}, {2, 0}},
		Right:   {{-1, 0}, {0, 0}, {0, 0}, {0, 1}, {0, -2}},
		Reverse: {{-1, 1}, {1, 1}, {-2, 1}, {1, 0}, {-2, 0}},
		Left:    {{0, 1}, {0, 1}, {0, 1}, {0, -1}, {0, 2}},
	}
	offsetsO = [NumRotates][]Point{
		Spawn:   {{0, 0}},
		Right:   {{0, -1}},
		Reverse: {{-1, -1}},
		Left:    {{-1, 0}},
	}
)

var kickTable = func() (out [piece.NumTypes][NumRotates][NumRotates][]Point) {
	for _, t := range piece.AllTypes {
		offsets := &offsetsJLSTZ
		switch t {
		case piece.I:
			offsets = &offsetsI
		case piece.O:
			offsets = &offsetsO
		}
		for from := Rotate(0); from < NumRotates; from++ {
			for _, to := range []Rotate{from.CW(), from.CCW()} {
				kicks := make([]Point, len(offsets[from]))
				for i := range kicks {
					kicks[i] = offsets[from][i].sub(offsets[to][i])
				}
				out[t][from][to] = kicks
			}
		}
	}
	return
}()

// Kicks lists the translations tried, in order, when turning t from one
// orientation to an adjacent one.
func Kicks(t piece.Type, from, to Rotate) []Point {
	return kickTable[t][from][to]
}
