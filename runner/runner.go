// Package runner fills bit tables by trying every order in which a fixed set
// of placement candidates can be played on a board.
package runner

import (
	"context"
	"fmt"
	"math/bits"

	"github.com/domino14/pcsolver/bittable"
	"github.com/domino14/pcsolver/field"
	"github.com/domino14/pcsolver/index"
	"github.com/domino14/pcsolver/movegen"
	"github.com/domino14/pcsolver/piece"
	"github.com/domino14/pcsolver/sequence"
)

// MaxCandidates bounds the candidate set; remaining sets are uint16 masks.
const MaxCandidates = 16

// Runner marks, for one board, every piece order that can lay down all of a
// candidate set. A Runner is not safe for concurrent use.
type Runner struct {
	gen     *movegen.Generator
	maxLine int

	table *bittable.Table
	cands []*index.Candidate
	path  []piece.Type
	found int
}

func New(gen *movegen.Generator, maxLine int) *Runner {
	if gen == nil {
		gen = movegen.NewGenerator()
	}
	return &Runner{gen: gen, maxLine: maxLine, path: make([]piece.Type, 0, MaxCandidates)}
}

// Find sets the rank of every legal order of cands in table and returns how
// many orders it found. table must hold 7^len(cands) bits.
func (r *Runner) Find(ctx context.Context, f field.Field, cands []*index.Candidate, table *bittable.Table) (int, error) {
	if len(cands) == 0 || len(cands) > MaxCandidates {
		panic(fmt.Sprintf("runner needs 1..%d candidates, got %d", MaxCandidates, len(cands)))
	}
	if table.Capacity() != sequence.Pow7(len(cands)) {
		panic(fmt.Sprintf("table capacity %d for %d candidates", table.Capacity(), len(cands)))
	}
	r.table = table
	r.cands = cands
	r.path = r.path[:0]
	r.found = 0
	err := r.find(ctx, f, uint16(1<<len(cands)-1))
	return r.found, err
}

func (r *Runner) find(ctx context.Context, f field.Field, remaining uint16) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	cleared, deletedKey := f.ClearLine()

	for rest := remaining; rest != 0; rest &= rest - 1 {
		i := bits.TrailingZeros16(rest)
		c := r.cands[i]
		if deletedKey&c.DeletedLine != c.DeletedLine {
			continue
		}
		b := c.Blocks()
		y := c.ClearedY(deletedKey)
		if !cleared.CanPut(b, c.X, y) || !cleared.IsOnGround(b, c.X, y) {
			continue
		}
		if !r.gen.CanReach(cleared, b, c.X, y, r.maxLine) {
			continue
		}

		r.path = append(r.path, c.Piece)
		next := remaining &^ (1 << i)
		if next == 0 {
			r.table.Set(sequence.Rank(r.path), true)
			r.found++
		} else {
			nf := cleared.Put(b, c.X, y).InsertBlackLineWithKey(deletedKey)
			if err := r.find(ctx, nf, next); err != nil {
				return err
			}
		}
		r.path = r.path[:len(r.path)-1]
	}
	return nil
}
