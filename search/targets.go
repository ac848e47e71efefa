package search

import (
	"fmt"

	"github.com/domino14/pcsolver/piece"
	"github.com/domino14/pcsolver/sequence"
)

// Target is one piece sequence to evaluate and the bag state after it.
type Target struct {
	Code uint64
	Next piece.Set
}

func (t Target) Pieces() []piece.Type {
	return sequence.Decode(t.Code)
}

func (t Target) String() string {
	return fmt.Sprintf("%s next=%v", piece.Name(t.Pieces()), t.Next)
}

// Targets lists every sequence of n pieces drawn from bags whose first bag
// still holds next. A bag that runs dry is refilled.
func Targets(n int, next piece.Set) []Target {
	if n < 1 || n > sequence.MaxLen {
		panic(fmt.Sprintf("target length %d out of range", n))
	}
	var out []Target
	head := make([]piece.Type, 0, n)
	var walk func(next piece.Set)
	walk = func(next piece.Set) {
		if len(head) == n {
			out = append(out, Target{Code: sequence.Upper(head), Next: next.OrAll()})
			return
		}
		for t := range next.OrAll().All() {
			head = append(head, t)
			walk(next.OrAll().Without(t))
			head = head[:len(head)-1]
		}
	}
	walk(next)
	return out
}
