// Package piece holds the tetromino alphabet used everywhere in the solver:
// piece types, 7-bit piece sets and piece multisets.
package piece

import (
	"fmt"
	"iter"
	"math/bits"
)

// Type is a tetromino kind. The seven real pieces double as base-7 digits,
// so their ordinals must stay 0..6.
type Type uint8

const (
	T Type = iota
	I
	L
	J
	S
	Z
	O

	// Empty is the "no piece" sentinel, used for an empty hold slot.
	Empty
)

// NumTypes is the size of the piece alphabet.
const NumTypes = 7

// AllTypes is every real piece in ordinal order.
var AllTypes = [NumTypes]Type{T, I, L, J, S, Z, O}

const names = "TILJSZO"

func (t Type) String() string {
	if t < NumTypes {
		return names[t : t+1]
	}
	if t == Empty {
		return "E"
	}
	return fmt.Sprintf("Type(%d)", uint8(t))
}

// Valid reports whether t is one of the seven real pieces.
func (t Type) Valid() bool {
	return t < NumTypes
}

// Parse converts a piece letter into a Type.
func Parse(ch byte) (Type, error) {
	switch ch {
	case 'T':
		return T, nil
	case 'I':
		return I, nil
	case 'L':
		return L, nil
	case 'J':
		return J, nil
	case 'S':
		return S, nil
	case 'Z':
		return Z, nil
	case 'O':
		return O, nil
	case 'E':
		return Empty, nil
	}
	return Empty, fmt.Errorf("unknown piece %q", ch)
}

// ParseList converts a string like "IOTLJSZ" into a slice of types.
func ParseList(s string) ([]Type, error) {
	out := make([]Type, 0, len(s))
	for i := 0; i < len(s); i++ {
		t, err := Parse(s[i])
		if err != nil {
			return nil, err
		}
		if t == Empty {
			return nil, fmt.Errorf("empty piece not allowed in %q", s)
		}
		out = append(out, t)
	}
	return out, nil
}

// MustParseList is ParseList for literals.
func MustParseList(s string) []Type {
	out, err := ParseList(s)
	if err != nil {
		panic(err)
	}
	return out
}

// Name renders a sequence of pieces as letters.
func Name(pieces []Type) string {
	b := make([]byte, len(pieces))
	for i, p := range pieces {
		b[i] = p.String()[0]
	}
	return string(b)
}

// Set is a set of piece types stored as a 7-bit mask, bit i for Type(i).
type Set uint8

// All is the set of all seven pieces, i.e. a full bag.
const All Set = 1<<NumTypes - 1

// NewSet builds a set from pieces. Empty is ignored.
func NewSet(pieces ...Type) Set {
	var s Set
	for _, p := range pieces {
		if p.Valid() {
			s |= 1 << p
		}
	}
	return s
}

// Bit returns the single-bit set for t.
func Bit(t Type) Set {
	if !t.Valid() {
		panic(fmt.Sprintf("no set bit for %v", t))
	}
	return 1 << t
}

func (s Set) Contains(t Type) bool {
	return t.Valid() && s&(1<<t) != 0
}

func (s Set) Len() int {
	return bits.OnesCount8(uint8(s))
}

// Without returns s with t removed.
func (s Set) Without(t Type) Set {
	return s &^ Bit(t)
}

// OrAll returns s, or the full bag when s is empty. A drained bag refills.
func (s Set) OrAll() Set {
	if s == 0 {
		return All
	}
	return s
}

// All yields the members of s, lowest bit first.
func (s Set) All() iter.Seq[Type] {
	return func(yield func(Type) bool) {
		rest := uint8(s)
		for rest != 0 {
			next := rest & (rest - 1)
			low := rest &^ next
			if !yield(Type(bits.TrailingZeros8(low))) {
				return
			}
			rest = next
		}
	}
}

func (s Set) String() string {
	b := make([]byte, 0, NumTypes)
	for t := range s.All() {
		b = append(b, names[t])
	}
	return string(b)
}
