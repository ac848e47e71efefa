package draw

import (
	"fmt"

	"gonum.org/v1/gonum/stat/combin"

	"github.com/domino14/pcsolver/piece"
)

type dimension struct {
	pool []piece.Type
	pop  int
	size int
}

// Permutations numbers every sequence a pair list can deal. Each pair is a
// partial permutation of its pool; the pairs combine as a mixed-radix number
// with the first pair most significant.
type Permutations struct {
	dims  []dimension
	radix []int
	size  int
	depth int
}

// NewPermutations requires every pool to hold at most one of each type.
func NewPermutations(pairs []Pair) (*Permutations, error) {
	p := &Permutations{size: 1}
	for _, pair := range pairs {
		if pair.Pop == 0 {
			continue
		}
		if !pair.Pool.IsSet() {
			return nil, fmt.Errorf("pool %v has repeated pieces", pair.Pool)
		}
		n := pair.Pool.Len()
		if pair.Pop < 0 || pair.Pop > n {
			return nil, fmt.Errorf("cannot draw %d from %v", pair.Pop, pair.Pool)
		}
		d := dimension{
			pool: pair.Pool.Pieces(),
			pop:  pair.Pop,
			size: combin.NumPermutations(n, pair.Pop),
		}
		p.dims = append(p.dims, d)
		p.radix = append(p.radix, d.size)
		p.size *= d.size
		p.depth += d.pop
	}
	return p, nil
}

// Size is the number of distinct sequences.
func (p *Permutations) Size() int {
	return p.size
}

// Depth is the length of every sequence.
func (p *Permutations) Depth() int {
	return p.depth
}

// Pieces returns the i-th sequence.
func (p *Permutations) Pieces(i int) []piece.Type {
	if i < 0 || i >= p.size {
		panic(fmt.Sprintf("permutation index %d out of range [0,%d)", i, p.size))
	}
	out := make([]piece.Type, 0, p.depth)
	if len(p.dims) == 0 {
		return out
	}
	sub := combin.SubFor(nil, i, p.radix)
	for d, dim := range p.dims {
		perm := combin.IndexToPermutation(nil, sub[d], len(dim.pool), dim.pop)
		for _, k := range perm {
			out = append(out, dim.pool[k])
		}
	}
	return out
}

// Index is the inverse of Pieces. It reports false for sequences this draw
// structure cannot produce.
func (p *Permutations) Index(pieces []piece.Type) (int, bool) {
	if len(pieces) != p.depth {
		return 0, false
	}
	if len(p.dims) == 0 {
		return 0, true
	}
	sub := make([]int, len(p.dims))
	pos := 0
	for d, dim := range p.dims {
		perm := make([]int, dim.pop)
		var seen piece.Set
		for j := range perm {
			t := pieces[pos+j]
			k := indexOf(dim.pool, t)
			if k < 0 || seen.Contains(t) {
				return 0, false
			}
			seen |= piece.Bit(t)
			perm[j] = k
		}
		sub[d] = combin.PermutationIndex(perm, len(dim.pool), dim.pop)
		pos += dim.pop
	}
	return combin.IdxFor(sub, p.radix), true
}

func indexOf(pool []piece.Type, t piece.Type) int {
	for i, p := range pool {
		if p == t {
			return i
		}
	}
	return -1
}
