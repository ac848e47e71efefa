// Package perfectclear answers single perfect clear queries: can this board
// be emptied with these pieces and one hold slot.
package perfectclear

import (
	"github.com/domino14/pcsolver/field"
	"github.com/domino14/pcsolver/movegen"
	"github.com/domino14/pcsolver/piece"
)

type stateKey struct {
	f    field.Field
	line int
	hold piece.Type
	head int
}

// Checker runs depth first over placements with a failure memo. It owns a
// move generator and is not safe for concurrent use.
type Checker struct {
	gen    *movegen.Generator
	failed map[stateKey]struct{}
	queue  []piece.Type
	nodes  uint64
}

func NewChecker(gen *movegen.Generator) *Checker {
	if gen == nil {
		gen = movegen.NewGenerator()
	}
	return &Checker{gen: gen, failed: make(map[stateKey]struct{}, 1024)}
}

// Nodes is the number of states visited since the checker was built.
func (c *Checker) Nodes() uint64 {
	return c.nodes
}

// PiecesNeeded is the number of tetrominoes that fill every empty cell
// below maxLine, or false when that count is not whole.
func PiecesNeeded(f field.Field, maxLine int) (int, bool) {
	empty := maxLine*field.Width - f.NumBlocks()
	if empty < 0 || empty%4 != 0 {
		return 0, false
	}
	return empty / 4, true
}

// Run reports whether f can be cleared up to maxLine using hold (or
// piece.Empty) and then queue in order. When useFirstHold is false the first
// piece placed must be the front of the queue.
func (c *Checker) Run(f field.Field, hold piece.Type, queue []piece.Type, maxLine int, useFirstHold bool) bool {
	if maxLine == 0 {
		return f.IsEmpty()
	}
	need, ok := PiecesNeeded(f, maxLine)
	if !ok {
		return false
	}
	have := len(queue)
	if hold != piece.Empty {
		have++
	}
	if need > have {
		return false
	}
	if !field.Validate(f, maxLine) {
		return false
	}
	clear(c.failed)
	c.queue = queue
	return c.search(f, maxLine, hold, 0, !useFirstHold)
}

func (c *Checker) search(f field.Field, line int, hold piece.Type, head int, noHold bool) bool {
	if line == 0 {
		return true
	}
	c.nodes++
	key := stateKey{f, line, hold, head}
	if _, ok := c.failed[key]; ok {
		return false
	}

	if head < len(c.queue) {
		cur := c.queue[head]
		if c.place(f, line, cur, hold, head+1) {
			return true
		}
		if !noHold {
			if hold == piece.Empty {
				if head+1 < len(c.queue) && c.place(f, line, c.queue[head+1], cur, head+2) {
					return true
				}
			} else if hold != cur && c.place(f, line, hold, cur, head+1) {
				return true
			}
		}
	} else if hold != piece.Empty && !noHold {
		if c.place(f, line, hold, piece.Empty, head) {
			return true
		}
	}

	c.failed[key] = struct{}{}
	return false
}

func (c *Checker) place(f field.Field, line int, p, hold piece.Type, head int) bool {
	for _, m := range c.gen.Search(f, p, line) {
		next, key := f.Put(m.Blocks, m.X, m.Y).ClearLine()
		nextLine := line - field.ClearedLines(key)
		if !field.Validate(next, nextLine) {
			continue
		}
		if c.search(next, nextLine, hold, head, false) {
			return true
		}
	}
	return false
}
