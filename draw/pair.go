// Package draw describes how pieces are dealt: lists of (pool, count) pairs,
// the reduction of such lists by pieces that are already spoken for, the
// ranking of every sequence a list can produce, and the orders in which a
// queue can be played with a hold slot.
package draw

import (
	"fmt"
	"strings"

	"github.com/domino14/pcsolver/piece"
)

// Pair draws Pop pieces without replacement from Pool.
type Pair struct {
	Pool piece.Counter `yaml:"pool"`
	Pop  int           `yaml:"pop"`
}

func (p Pair) String() string {
	return fmt.Sprintf("(%v,%d)", p.Pool, p.Pop)
}

// Depth is the total number of pieces a pair list draws.
func Depth(pairs []Pair) int {
	n := 0
	for _, p := range pairs {
		n += p.Pop
	}
	return n
}

// Format renders a pair list like "[(TILJSZO,7),(TILJSZO,3)]".
func Format(pairs []Pair) string {
	parts := make([]string, len(pairs))
	for i, p := range pairs {
		parts[i] = p.String()
	}
	return "[" + strings.Join(parts, ",") + "]"
}

// Reduce removes the used pieces from the draw structure.
//
// Pairs are visited in order. Each used piece the current pool still holds is
// taken out of the pool, out of the used multiset, and off the pair's draw
// count. A pair survives only while it still has a pool and something to draw.
// Once nothing is left to account for, the rest of the list is appended as is.
//
// If used pieces remain after a pool has been drained of them and the pool's
// leftover spans more than one piece type, the used pieces cannot be explained
// by this draw structure and ok is false.
func Reduce(pairs []Pair, used piece.Counter) (out []Pair, ok bool) {
	out = make([]Pair, 0, len(pairs))
	for i, pair := range pairs {
		if used.Empty() {
			return append(out, pairs[i:]...), true
		}

		pool := pair.Pool
		pop := pair.Pop
		for _, t := range used.Pieces() {
			if pop == 0 {
				break
			}
			if pool.Count(t) == 0 {
				continue
			}
			one := piece.NewCounter(t)
			pool = pool.Sub(one)
			used = used.Sub(one)
			pop--
		}

		if !pool.Empty() && pop > 0 {
			out = append(out, Pair{Pool: pool, Pop: pop})
		}

		if !used.Empty() && pool.Distinct() > 1 {
			return nil, false
		}
	}
	if !used.Empty() {
		return nil, false
	}
	return out, true
}

// HoldPairs is the draw structure of a position holding hold (piece.Empty
// for none) in front of a fresh bag, `extra` pieces into the bag after it.
// Every variant deals 7+extra pieces.
func HoldPairs(hold piece.Type, extra int) []Pair {
	all := piece.FullBag()
	if hold == piece.Empty {
		return []Pair{{all, 7}, {all, extra}}
	}
	return []Pair{{piece.NewCounter(hold), 1}, {all, 7}, {all, extra - 1}}
}
