package search

import (
	"context"
	"fmt"

	"github.com/domino14/pcsolver/field"
	"github.com/domino14/pcsolver/index"
	"github.com/domino14/pcsolver/movegen"
	"github.com/domino14/pcsolver/piece"
	"github.com/domino14/pcsolver/sequence"
)

// State is a position at the start of a draw.
type State struct {
	// Field is the full board; cleared rows are removed only on the way
	// down and put back as filled rows.
	Field field.Field
	Line  int
	Hold  piece.Type
	Queue sequence.Queue
	// Next is the set of piece types still in the bag.
	Next piece.Set
	// Visible counts placed, held and queued pieces.
	Visible int
}

// BudgetSearch finds the fewest next-piece draws that fail, giving up on a
// branch once it reaches the best count seen so far. Leaves are answered by
// a LeafResolver. Not safe for concurrent use.
type BudgetSearch struct {
	gen      *movegen.Generator
	minos    index.MinoIndex
	resolver LeafResolver

	used     []piece.Type
	selected []int

	nodes  uint64
	leaves uint64
}

// NewBudgetSearch wires a search. With a nil mino index the candidate ids of
// placed pieces are not tracked, which only an OracleResolver can live with.
func NewBudgetSearch(gen *movegen.Generator, minos index.MinoIndex, resolver LeafResolver) *BudgetSearch {
	if gen == nil {
		gen = movegen.NewGenerator()
	}
	return &BudgetSearch{gen: gen, minos: minos, resolver: resolver}
}

func (s *BudgetSearch) Nodes() uint64 {
	return s.nodes
}

func (s *BudgetSearch) Leaves() uint64 {
	return s.leaves
}

// Check returns the minimum number of failing next pieces from st, capped
// at budget.
func (s *BudgetSearch) Check(ctx context.Context, st State, budget int) (int, error) {
	if budget < 0 {
		panic(fmt.Sprintf("negative budget %d", budget))
	}
	s.used = s.used[:0]
	s.selected = s.selected[:0]
	return s.check(ctx, st, false, budget)
}

func (s *BudgetSearch) check(ctx context.Context, st State, mustNotFirstHold bool, allowFailed int) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if st.Visible <= 0 || st.Visible > MaxVisible {
		panic(fmt.Sprintf("visible window %d out of range", st.Visible))
	}
	if st.Line < 0 {
		panic(fmt.Sprintf("negative line %d", st.Line))
	}
	s.nodes++
	if st.Line == 0 {
		return 0, nil
	}

	if st.Visible >= LeafVisible {
		s.leaves++
		ok, err := s.resolver.Resolve(ctx, &Leaf{
			Field:            st.Field,
			Line:             st.Line,
			Hold:             st.Hold,
			Queue:            st.Queue,
			Used:             s.used,
			Selected:         s.selected,
			MustNotFirstHold: mustNotFirstHold,
			Visible:          st.Visible,
		})
		if err != nil {
			return 0, err
		}
		if ok {
			return 0, nil
		}
		if st.Visible == MaxVisible {
			return 1, nil
		}
	}
	next := st.Next.OrAll()
	if st.Queue.Empty() {
		if st.Hold == piece.Empty {
			return 1, nil
		}
		return s.move(ctx, st, st.Queue, st.Hold, piece.Empty, next, allowFailed)
	}

	head := st.Queue.Head()
	rest := st.Queue.PopFront()

	improve := func(failed int) bool {
		if failed < allowFailed {
			allowFailed = failed
		}
		return allowFailed == 0
	}

	// put the head in the empty hold and look at one more piece
	if !mustNotFirstHold && st.Hold == piece.Empty {
		failed := 0
		for i := range next.All() {
			held := st
			held.Hold = head
			held.Queue = rest.PushBack(i)
			held.Next = next.Without(i)
			held.Visible++
			n, err := s.check(ctx, held, true, allowFailed)
			if err != nil {
				return 0, err
			}
			failed += n
			if failed >= allowFailed {
				break
			}
		}
		if improve(failed) {
			return 0, nil
		}
	}

	failed, err := s.move(ctx, st, rest, head, st.Hold, next, allowFailed)
	if err != nil {
		return 0, err
	}
	if improve(failed) {
		return 0, nil
	}

	if !mustNotFirstHold && st.Hold != piece.Empty {
		failed, err := s.move(ctx, st, rest, st.Hold, head, next, allowFailed)
		if err != nil {
			return 0, err
		}
		if improve(failed) {
			return 0, nil
		}
	}
	return allowFailed, nil
}

// move places current every way it can go and, per placement, counts the
// failing next pieces. It returns the best count, at most allowFailed.
func (s *BudgetSearch) move(ctx context.Context, st State, rest sequence.Queue, current, nextHold piece.Type,
	next piece.Set, allowFailed int) (int, error) {

	cleared, deletedKey := st.Field.ClearLine()
	for _, m := range s.gen.Search(cleared, current, st.Line) {
		mino := m.Mask().InsertWhiteLineWithKey(deletedKey)
		id := -1
		if s.minos != nil {
			c, ok := s.minos.Lookup(current, mino)
			if !ok {
				panic(fmt.Sprintf("no candidate for %v at %d,%d (%v)", current, m.X, m.Y, m.Blocks.Rotate))
			}
			id = c.ID
		}

		freeze := st.Field.Merge(mino)
		_, key := freeze.ClearLine()
		nextLine := st.Line - (field.ClearedLines(key) - field.ClearedLines(deletedKey))
		afterClear, _ := freeze.ClearLine()
		if !field.Validate(afterClear, nextLine) {
			continue
		}

		s.used = append(s.used, current)
		s.selected = append(s.selected, id)

		failed := 0
		for i := range next.All() {
			n, err := s.check(ctx, State{
				Field:   freeze,
				Line:    nextLine,
				Hold:    nextHold,
				Queue:   rest.PushBack(i),
				Next:    next.Without(i),
				Visible: st.Visible + 1,
			}, false, allowFailed)
			if err != nil {
				return 0, err
			}
			failed += n
			if failed >= allowFailed {
				break
			}
		}

		s.used = s.used[:len(s.used)-1]
		s.selected = s.selected[:len(s.selected)-1]

		if failed == 0 {
			return 0, nil
		}
		allowFailed = min(allowFailed, failed)
	}
	return allowFailed, nil
}
