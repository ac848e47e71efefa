package draw

import (
	"fmt"

	"github.com/domino14/pcsolver/piece"
)

// ForwardOrder lists the orders in which `to` pieces can be placed from a
// queue of `from` pieces read front to back with one hold slot that starts
// empty. A held piece is passed as the queue front, which gives the same
// orders. With MustNotFirstHold the front piece was held on this very draw
// and cannot be swapped back, so the first piece placed is the second one.
type ForwardOrder struct {
	To               int
	From             int
	MustNotFirstHold bool

	orders [][]int
}

func NewForwardOrder(to, from int, mustNotFirstHold bool) *ForwardOrder {
	if to < 1 || from < to || from > to+1 {
		panic(fmt.Sprintf("bad forward order %d<-%d", to, from))
	}
	f := &ForwardOrder{To: to, From: from, MustNotFirstHold: mustNotFirstHold}
	seen := map[string]bool{}
	path := make([]int, 0, to)
	f.walk(0, -1, path, seen)
	return f
}

func (f *ForwardOrder) walk(head, hold int, path []int, seen map[string]bool) {
	if len(path) == f.To {
		key := fmt.Sprint(path)
		if !seen[key] {
			seen[key] = true
			f.orders = append(f.orders, append([]int(nil), path...))
		}
		return
	}
	first := len(path) == 0

	if head < f.From && !(first && f.MustNotFirstHold) {
		f.walk(head+1, hold, append(path, head), seen)
	}
	if hold < 0 {
		if head+1 < f.From {
			f.walk(head+2, head, append(path, head+1), seen)
		}
		return
	}
	if head < f.From {
		f.walk(head+1, head, append(path, hold), seen)
	} else {
		f.walk(head, -1, append(path, hold), seen)
	}
}

// Len is the number of distinct orders.
func (f *ForwardOrder) Len() int {
	return len(f.orders)
}

// Orders returns each order as queue positions.
func (f *ForwardOrder) Orders() [][]int {
	return f.orders
}

// AnyOrder calls fn with every placed sequence reachable from pieces until
// fn returns true. pieces must hold exactly From pieces, hold piece first
// when one is held. fn must not keep the slice.
func (f *ForwardOrder) AnyOrder(pieces []piece.Type, fn func([]piece.Type) bool) bool {
	if len(pieces) != f.From {
		panic(fmt.Sprintf("forward order wants %d pieces, got %d", f.From, len(pieces)))
	}
	buf := make([]piece.Type, f.To)
	for _, order := range f.orders {
		for i, k := range order {
			buf[i] = pieces[k]
		}
		if fn(buf) {
			return true
		}
	}
	return false
}
