// Package search holds the recursive perfect clear searches over a window of
// visible pieces: a Calculator that counts how many next-piece draws stay
// solvable, and a BudgetSearch that finds the fewest failing draws with
// branch and bound.
package search

import (
	"context"
	"fmt"

	"github.com/domino14/pcsolver/cache"
	"github.com/domino14/pcsolver/field"
	"github.com/domino14/pcsolver/movegen"
	"github.com/domino14/pcsolver/perfectclear"
	"github.com/domino14/pcsolver/piece"
	"github.com/domino14/pcsolver/sequence"
)

const (
	// LeafVisible is the window size at which searches stop branching on
	// placements and ask a leaf oracle.
	LeafVisible = 10
	// MaxVisible is the deepest window ever looked at.
	MaxVisible = 11
)

// Calculator scores a position by the number of next-piece draws that can
// still reach a perfect clear, taking the best placement at every level.
// It owns its memos and move generator; build one per worker.
type Calculator struct {
	gen     *movegen.Generator
	checker *perfectclear.Checker

	cache10       *cache.Memo
	cache11Hold   *cache.Memo
	cache11NoHold *cache.Memo

	nodes uint64
}

func NewCalculator(gen *movegen.Generator, memoPower int) *Calculator {
	if gen == nil {
		gen = movegen.NewGenerator()
	}
	return &Calculator{
		gen:           gen,
		checker:       perfectclear.NewChecker(gen),
		cache10:       cache.NewMemo("cache10", memoPower),
		cache11Hold:   cache.NewMemo("cache11-hold", memoPower),
		cache11NoHold: cache.NewMemo("cache11-no-hold", memoPower),
	}
}

// Reset drops every memoised result. Call it between top-level searches.
func (c *Calculator) Reset() {
	c.cache10.Reset()
	c.cache11Hold.Reset()
	c.cache11NoHold.Reset()
}

func (c *Calculator) Nodes() uint64 {
	return c.nodes
}

func (c *Calculator) LogStats() {
	c.cache10.LogStats()
	c.cache11Hold.LogStats()
	c.cache11NoHold.LogStats()
}

// Calculate returns, for the board f with lines left to clear, the best
// count over placements of next-piece draws that succeed. visible is the
// number of pieces seen so far, placed ones included; next is the set of
// pieces still in the bag (empty means a fresh bag).
func (c *Calculator) Calculate(ctx context.Context, f field.Field, queue sequence.Queue, hold piece.Type,
	next piece.Set, visible, line int) (int, error) {

	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if visible < 0 || visible > MaxVisible {
		panic(fmt.Sprintf("visible window %d out of range", visible))
	}
	if line < 0 {
		panic(fmt.Sprintf("negative line %d", line))
	}
	c.nodes++
	next = next.OrAll()

	switch visible {
	case LeafVisible:
		return c.check10(ctx, f, queue, hold, next, line)
	case MaxVisible:
		if c.check11(f, queue, hold, line, true) {
			return 1, nil
		}
		return 0, nil
	}
	if line == 0 {
		return next.Len(), nil
	}

	best := 0
	try := func(p, newHold piece.Type, rest sequence.Queue) error {
		for _, m := range c.gen.Search(f, p, line) {
			nf, key := f.Put(m.Blocks, m.X, m.Y).ClearLine()
			nl := line - field.ClearedLines(key)
			if !field.Validate(nf, nl) {
				continue
			}
			for i := range next.All() {
				score, err := c.Calculate(ctx, nf, rest.PushBack(i), newHold, next.Without(i), visible+1, nl)
				if err != nil {
					return err
				}
				best = max(best, score)
			}
		}
		return nil
	}

	if queue.Empty() {
		if hold == piece.Empty {
			return 0, nil
		}
		if err := try(hold, piece.Empty, queue); err != nil {
			return 0, err
		}
		return best, nil
	}

	head := queue.Head()
	rest := queue.PopFront()
	if err := try(head, hold, rest); err != nil {
		return 0, err
	}
	if hold == piece.Empty {
		if !rest.Empty() {
			if err := try(rest.Head(), head, rest.PopFront()); err != nil {
				return 0, err
			}
		}
	} else if err := try(hold, head, rest); err != nil {
		return 0, err
	}
	return best, nil
}

// check10 asks the oracle about the ten visible pieces. On failure it
// places one more piece and counts, per placement, the next pieces that
// make the eleven-piece window solvable.
func (c *Calculator) check10(ctx context.Context, f field.Field, queue sequence.Queue, hold piece.Type,
	next piece.Set, line int) (int, error) {

	key := cache.Key{Board: f, Hold: hold, Code: queue.Code(), Line: line}
	if v := c.cache10.Get(key); v >= 0 {
		return v, nil
	}
	if c.checker.Run(f, hold, queue.Slice(), line, true) {
		c.cache10.Put(key, next.Len())
		return next.Len(), nil
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	best := 0
	expand := func(p, newHold piece.Type, rest sequence.Queue, useFirstHold bool) {
		for _, m := range c.gen.Search(f, p, line) {
			nf, k := f.Put(m.Blocks, m.X, m.Y).ClearLine()
			nl := line - field.ClearedLines(k)
			if !field.Validate(nf, nl) {
				continue
			}
			score := 0
			for i := range next.All() {
				if c.check11(nf, rest.PushBack(i), newHold, nl, useFirstHold) {
					score++
				}
			}
			best = max(best, score)
		}
	}

	if !queue.Empty() {
		head := queue.Head()
		rest := queue.PopFront()
		expand(head, hold, rest, true)
		if hold == piece.Empty {
			if !rest.Empty() {
				expand(rest.Head(), head, rest.PopFront(), false)
			}
		} else {
			expand(hold, head, rest, true)
		}
	}

	c.cache10.Put(key, best)
	return best, nil
}

// check11 is a plain oracle call with two memos. A success without using
// hold on the first piece also answers the query that may hold first.
func (c *Calculator) check11(f field.Field, queue sequence.Queue, hold piece.Type, line int, useFirstHold bool) bool {
	key := cache.Key{Board: f, Hold: hold, Code: queue.Code(), Line: line}
	if useFirstHold {
		if v := c.cache11Hold.Get(key); v >= 0 {
			return v == 1
		}
		if c.cache11NoHold.Get(key) == 1 {
			return true
		}
	} else if v := c.cache11NoHold.Get(key); v >= 0 {
		return v == 1
	}

	ok := c.checker.Run(f, hold, queue.Slice(), line, useFirstHold)
	v := 0
	if ok {
		v = 1
	}
	if useFirstHold {
		c.cache11Hold.Put(key, v)
	} else {
		c.cache11NoHold.Put(key, v)
	}
	return ok
}
