package sequence

import (
	"fmt"

	"github.com/domino14/pcsolver/piece"
)

// Queue is a short piece queue with value semantics. It is a fixed ring of
// MaxLen slots; every operation returns a new Queue, so recursive branches
// can push and pop freely without touching their parent's view.
type Queue struct {
	slots [MaxLen]piece.Type
	start uint8
	n     uint8
}

// NewQueue copies pieces into a queue.
func NewQueue(pieces []piece.Type) Queue {
	var q Queue
	for _, p := range pieces {
		q = q.PushBack(p)
	}
	return q
}

func (q Queue) Len() int {
	return int(q.n)
}

func (q Queue) Empty() bool {
	return q.n == 0
}

// At returns the i-th piece from the front.
func (q Queue) At(i int) piece.Type {
	if i < 0 || i >= int(q.n) {
		panic(fmt.Sprintf("queue index %d out of range [0,%d)", i, q.n))
	}
	return q.slots[(int(q.start)+i)%MaxLen]
}

// Head is the front piece.
func (q Queue) Head() piece.Type {
	return q.At(0)
}

func (q Queue) PopFront() Queue {
	if q.n == 0 {
		panic("pop from empty queue")
	}
	q.start = uint8((int(q.start) + 1) % MaxLen)
	q.n--
	return q
}

func (q Queue) PushBack(p piece.Type) Queue {
	if q.n == MaxLen {
		panic("queue full")
	}
	q.slots[(int(q.start)+int(q.n))%MaxLen] = p
	q.n++
	return q
}

func (q Queue) PushFront(p piece.Type) Queue {
	if q.n == MaxLen {
		panic("queue full")
	}
	q.start = uint8((int(q.start) + MaxLen - 1) % MaxLen)
	q.slots[q.start] = p
	q.n++
	return q
}

// AppendTo appends the queued pieces to dst.
func (q Queue) AppendTo(dst []piece.Type) []piece.Type {
	for i := 0; i < int(q.n); i++ {
		dst = append(dst, q.slots[(int(q.start)+i)%MaxLen])
	}
	return dst
}

func (q Queue) Slice() []piece.Type {
	return q.AppendTo(make([]piece.Type, 0, q.n))
}

// Code is the padded packed code of the queue contents.
func (q Queue) Code() uint64 {
	var buf [MaxLen]piece.Type
	return Upper(q.AppendTo(buf[:0]))
}

func (q Queue) String() string {
	var buf [MaxLen]piece.Type
	return piece.Name(q.AppendTo(buf[:0]))
}
