// Package sequence numbers ordered piece sequences.
//
// Two numberings exist. The 4-bit packed code (Lower/Upper/Decode) holds up to
// 16 pieces most-significant-first and supports prefix range queries: every
// sequence starting with p has a code in [Lower(p), Upper(p)]. Rank is the
// dense base-7 index of a fixed-length sequence and addresses bit tables.
package sequence

import (
	"fmt"

	"github.com/domino14/pcsolver/piece"
)

// MaxLen is the longest sequence a packed code can hold.
const MaxLen = 16

const (
	digitBits = 4
	digitMask = 1<<digitBits - 1
	// sentinel digits are >= 8, outside the piece alphabet.
	sentinel = 0b1000
)

var slide = func() [MaxLen]uint {
	var s [MaxLen]uint
	for i := range s {
		s[i] = digitBits * uint(MaxLen-1-i)
	}
	return s
}()

func pack(pieces []piece.Type) uint64 {
	if len(pieces) > MaxLen {
		panic(fmt.Sprintf("sequence too long: %d", len(pieces)))
	}
	var v uint64
	for i, p := range pieces {
		if !p.Valid() {
			panic(fmt.Sprintf("invalid piece %v at %d", p, i))
		}
		v |= uint64(p) << slide[i]
	}
	return v
}

// Lower packs pieces with zero digits after the end.
func Lower(pieces []piece.Type) uint64 {
	return pack(pieces)
}

// Upper packs pieces with every digit after the end set to 0b1111.
func Upper(pieces []piece.Type) uint64 {
	v := pack(pieces)
	if len(pieces) == MaxLen {
		return v
	}
	return v | (uint64(1)<<(slide[len(pieces)]+digitBits) - 1)
}

// Decode reads digits until the first sentinel or the 16th digit.
func Decode(code uint64) []piece.Type {
	out := make([]piece.Type, 0, MaxLen)
	for _, s := range slide {
		d := (code >> s) & digitMask
		if d >= sentinel {
			break
		}
		out = append(out, piece.Type(d))
	}
	return out
}

// Value is a packed code together with its length.
type Value struct {
	Code uint64
	Size int
}

// NewValue returns the padded encoding of pieces.
func NewValue(pieces []piece.Type) Value {
	return Value{Code: Upper(pieces), Size: len(pieces)}
}

// ValueOf recovers the length of a padded code.
func ValueOf(code uint64) Value {
	size := 0
	for _, s := range slide {
		if (code>>s)&digitMask >= sentinel {
			break
		}
		size++
	}
	return Value{Code: code, Size: size}
}

// Pieces decodes the first Size digits.
func (v Value) Pieces() []piece.Type {
	out := make([]piece.Type, v.Size)
	for i := range out {
		out[i] = piece.Type((v.Code >> slide[i]) & digitMask)
	}
	return out
}

func (v Value) String() string {
	return piece.Name(v.Pieces())
}

// Pow7 is the number of sequences of length n.
func Pow7(n int) int {
	if n < 0 {
		panic(fmt.Sprintf("negative length %d", n))
	}
	v := 1
	for ; n > 0; n-- {
		v *= piece.NumTypes
	}
	return v
}

// Rank is the base-7 positional value of pieces, first piece most
// significant.
func Rank(pieces []piece.Type) int {
	v := 0
	for i, p := range pieces {
		if !p.Valid() {
			panic(fmt.Sprintf("invalid piece %v at %d", p, i))
		}
		v = v*piece.NumTypes + int(p)
	}
	return v
}

// Unrank is the inverse of Rank for sequences of length n.
func Unrank(rank, n int) []piece.Type {
	if rank < 0 || rank >= Pow7(n) {
		panic(fmt.Sprintf("rank %d out of range for length %d", rank, n))
	}
	out := make([]piece.Type, n)
	for i := n - 1; i >= 0; i-- {
		out[i] = piece.Type(rank % piece.NumTypes)
		rank /= piece.NumTypes
	}
	return out
}
