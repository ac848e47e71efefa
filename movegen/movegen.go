// Package movegen finds where a piece can come to rest under SRS when it
// enters above the stack and may shift, soft drop and rotate with kicks.
package movegen

import (
	"github.com/domino14/pcsolver/field"
	"github.com/domino14/pcsolver/piece"
)

// Move is a final resting position, centre coordinates.
type Move struct {
	Blocks *field.Blocks
	X, Y   int
}

func (m Move) Piece() piece.Type {
	return m.Blocks.Piece
}

// Mask is the cells the piece occupies.
func (m Move) Mask() field.Field {
	return m.Blocks.Mask(m.X, m.Y)
}

const (
	xSpan = field.Width
	// centre rows the search may visit: the lowest cell never rises above
	// maxLine, and shapes reach at most three rows over their centre
	ySpan = field.MaxHeight + 4
)

type state struct {
	r    field.Rotate
	x, y int
}

type reachKey struct {
	f       field.Field
	t       piece.Type
	maxLine int
}

// Generator holds search buffers and is not safe for concurrent use. Build
// one per worker.
type Generator struct {
	visited [field.NumRotates][xSpan][ySpan]bool
	queue   []state
	seen    map[field.Field]struct{}

	reachKey  reachKey
	reachable map[field.Field]struct{}
	haveReach bool
}

func NewGenerator() *Generator {
	return &Generator{
		queue:     make([]state, 0, 256),
		seen:      make(map[field.Field]struct{}, 64),
		reachable: make(map[field.Field]struct{}, 64),
	}
}

func fits(f field.Field, b *field.Blocks, x, y, maxLine int) bool {
	if y+b.MinY < 0 || y+b.MinY > maxLine {
		return false
	}
	if x+b.MinX < 0 || x+b.MaxX >= field.Width {
		return false
	}
	if y < 0 || y >= ySpan {
		return false
	}
	for _, c := range b.Cells {
		cy := y + c.Y
		if cy < field.MaxHeight && f.Filled(x+c.X, cy) {
			return false
		}
	}
	return true
}

func (g *Generator) explore(f field.Field, t piece.Type, maxLine int) {
	g.visited = [field.NumRotates][xSpan][ySpan]bool{}
	g.queue = g.queue[:0]
	push := func(s state) {
		if !g.visited[s.r][s.x][s.y] {
			g.visited[s.r][s.x][s.y] = true
			g.queue = append(g.queue, s)
		}
	}
	for r := field.Rotate(0); r < field.NumRotates; r++ {
		b := field.Get(t, r)
		y := maxLine - b.MinY
		for x := -b.MinX; x+b.MaxX < field.Width; x++ {
			if fits(f, b, x, y, maxLine) {
				push(state{r, x, y})
			}
		}
	}
	for i := 0; i < len(g.queue); i++ {
		s := g.queue[i]
		b := field.Get(t, s.r)
		for _, dx := range [2]int{-1, 1} {
			if fits(f, b, s.x+dx, s.y, maxLine) {
				push(state{s.r, s.x + dx, s.y})
			}
		}
		if fits(f, b, s.x, s.y-1, maxLine) {
			push(state{s.r, s.x, s.y - 1})
		}
		for _, to := range [2]field.Rotate{s.r.CW(), s.r.CCW()} {
			nb := field.Get(t, to)
			for _, k := range field.Kicks(t, s.r, to) {
				nx, ny := s.x+k.X, s.y+k.Y
				if fits(f, nb, nx, ny, maxLine) {
					push(state{to, nx, ny})
					break
				}
			}
		}
	}
}

// Search returns every distinct resting position of t that lies entirely
// below maxLine. Positions covering the same cells are reported once.
// The order is by rotation, then x, then y.
func (g *Generator) Search(f field.Field, t piece.Type, maxLine int) []Move {
	g.explore(f, t, maxLine)
	clear(g.seen)
	var out []Move
	for r := field.Rotate(0); r < field.NumRotates; r++ {
		b := field.Get(t, r)
		for x := 0; x < xSpan; x++ {
			for y := 0; y < ySpan; y++ {
				if !g.visited[r][x][y] || y+b.MaxY >= maxLine {
					continue
				}
				if !f.IsOnGround(b, x, y) {
					continue
				}
				m := b.Mask(x, y)
				if _, dup := g.seen[m]; dup {
					continue
				}
				g.seen[m] = struct{}{}
				out = append(out, Move{Blocks: b, X: x, Y: y})
			}
		}
	}
	return out
}

// CanReach reports whether b centred at (x, y) can be reached from above
// in a field limited to maxLine rows. Results for the last field and piece
// are kept, so repeated queries against one board are cheap.
func (g *Generator) CanReach(f field.Field, b *field.Blocks, x, y, maxLine int) bool {
	if !b.InBounds(x, y, maxLine) {
		return false
	}
	key := reachKey{f, b.Piece, maxLine}
	if !g.haveReach || g.reachKey != key {
		clear(g.reachable)
		for _, m := range g.Search(f, b.Piece, maxLine) {
			g.reachable[m.Mask()] = struct{}{}
		}
		g.reachKey = key
		g.haveReach = true
	}
	_, ok := g.reachable[b.Mask(x, y)]
	return ok
}
