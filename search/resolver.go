package search

import (
	"context"
	"sync/atomic"

	"github.com/rs/zerolog/log"

	"github.com/domino14/pcsolver/cache"
	"github.com/domino14/pcsolver/draw"
	"github.com/domino14/pcsolver/field"
	"github.com/domino14/pcsolver/index"
	"github.com/domino14/pcsolver/perfectclear"
	"github.com/domino14/pcsolver/piece"
	"github.com/domino14/pcsolver/sequence"
)

// Leaf is a position deep enough to be answered without further branching.
// Used and Selected are only valid during the Resolve call.
type Leaf struct {
	Field field.Field
	Line  int
	Hold  piece.Type
	Queue sequence.Queue
	// Used lists the placed pieces in order, Selected their candidate ids.
	Used     []piece.Type
	Selected []int
	// MustNotFirstHold is set when Hold was filled on this draw.
	MustNotFirstHold bool
	Visible          int
}

// Rest is the number of pieces still to play: the queue plus the hold.
func (l *Leaf) Rest() int {
	if l.Hold == piece.Empty {
		return l.Queue.Len()
	}
	return l.Queue.Len() + 1
}

// Pieces is the hold piece, if any, followed by the queue.
func (l *Leaf) Pieces() []piece.Type {
	out := make([]piece.Type, 0, l.Rest())
	if l.Hold != piece.Empty {
		out = append(out, l.Hold)
	}
	return l.Queue.AppendTo(out)
}

// LeafResolver decides whether a leaf can still reach a perfect clear.
type LeafResolver interface {
	Resolve(ctx context.Context, leaf *Leaf) (bool, error)
}

// OracleResolver answers leaves with a live perfect clear search.
type OracleResolver struct {
	Checker *perfectclear.Checker
}

func NewOracleResolver(checker *perfectclear.Checker) *OracleResolver {
	if checker == nil {
		checker = perfectclear.NewChecker(nil)
	}
	return &OracleResolver{Checker: checker}
}

func (o *OracleResolver) Resolve(ctx context.Context, leaf *Leaf) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	f, _ := leaf.Field.ClearLine()
	return o.Checker.Run(f, leaf.Hold, leaf.Queue.Slice(), leaf.Line, !leaf.MustNotFirstHold), nil
}

// PairsFunc gives the draw structure of a window of visible pieces for a
// run that starts with hold start.
type PairsFunc func(start piece.Type, visible int) []draw.Pair

// DefaultPairs deals the starting hold piece, if any, then a bag, then the
// rest of the window from the following bag.
func DefaultPairs(start piece.Type, visible int) []draw.Pair {
	return draw.HoldPairs(start, visible-7)
}

// TableResolver looks leaves up in reduced tables. Leaves are ranked by the
// draw structure of the whole run, which depends only on the hold the run
// started with; the hold at the leaf picks the table directory. A leaf whose
// table is not built yet, or whose pieces the draw structure cannot rank,
// counts as a failure. Safe for concurrent use when Tables is.
type TableResolver struct {
	Root   string
	Tables *cache.Tables
	// Start is the hold the search began with.
	Start piece.Type
	Pairs PairsFunc

	unranked atomic.Uint64
}

func NewTableResolver(root string, tables *cache.Tables, start piece.Type, pairs PairsFunc) *TableResolver {
	if pairs == nil {
		pairs = DefaultPairs
	}
	return &TableResolver{Root: root, Tables: tables, Start: start, Pairs: pairs}
}

func (r *TableResolver) Resolve(ctx context.Context, leaf *Leaf) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	reduced, ok := draw.Reduce(r.Pairs(r.Start, leaf.Visible), piece.NewCounter(leaf.Used...))
	if !ok {
		r.unranked.Add(1)
		return false, nil
	}
	perms, err := draw.NewPermutations(reduced)
	if err != nil || perms.Depth() != leaf.Rest() {
		r.unranked.Add(1)
		log.Debug().Str("pairs", draw.Format(reduced)).Int("rest", leaf.Rest()).Msg("unranked-leaf")
		return false, nil
	}
	idx, ok := perms.Index(leaf.Pieces())
	if !ok {
		r.unranked.Add(1)
		return false, nil
	}

	dir := index.ReducedDir(r.Root, len(leaf.Selected), leaf.Hold, leaf.Rest(), leaf.MustNotFirstHold)
	table, found, err := r.Tables.Get(index.ReducedPath(dir, leaf.Selected), perms.Size())
	if err != nil {
		return false, err
	}
	if !found {
		return false, nil
	}
	return table.Get(idx), nil
}

// Unranked counts leaves the draw structure could not explain.
func (r *TableResolver) Unranked() uint64 {
	return r.unranked.Load()
}
