package piece

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Counter is a multiset of piece types.
type Counter [NumTypes]uint8

// NewCounter counts the given pieces. Empty is ignored.
func NewCounter(pieces ...Type) Counter {
	var c Counter
	for _, p := range pieces {
		if p.Valid() {
			c[p]++
		}
	}
	return c
}

// FullBag is one of each piece.
func FullBag() Counter {
	return NewCounter(AllTypes[:]...)
}

// ParseCounter reads a counter written as piece letters, e.g. "TILJSZO" or "TT".
func ParseCounter(s string) (Counter, error) {
	pieces, err := ParseList(strings.TrimSpace(s))
	if err != nil {
		return Counter{}, err
	}
	return NewCounter(pieces...), nil
}

func (c Counter) Count(t Type) int {
	return int(c[t])
}

// Add returns the multiset union c + o.
func (c Counter) Add(o Counter) Counter {
	for i := range c {
		c[i] += o[i]
	}
	return c
}

// Sub returns c - o. Subtracting a piece that c does not hold is a caller
// bug and panics; nothing saturates at zero.
func (c Counter) Sub(o Counter) Counter {
	for i := range c {
		if c[i] < o[i] {
			panic(fmt.Sprintf("counter underflow: %v - %v", c, o))
		}
		c[i] -= o[i]
	}
	return c
}

// ContainsAll reports whether every count in o is covered by c.
func (c Counter) ContainsAll(o Counter) bool {
	for i := range c {
		if c[i] < o[i] {
			return false
		}
	}
	return true
}

func (c Counter) Empty() bool {
	return c == Counter{}
}

// Len is the total number of pieces.
func (c Counter) Len() int {
	n := 0
	for _, v := range c {
		n += int(v)
	}
	return n
}

// Distinct is the number of piece types with a non-zero count.
func (c Counter) Distinct() int {
	n := 0
	for _, v := range c {
		if v > 0 {
			n++
		}
	}
	return n
}

// IsSet reports whether no type occurs more than once.
func (c Counter) IsSet() bool {
	for _, v := range c {
		if v > 1 {
			return false
		}
	}
	return true
}

// Pieces lists every occurrence in ascending type order.
func (c Counter) Pieces() []Type {
	out := make([]Type, 0, c.Len())
	for _, t := range AllTypes {
		for n := c[t]; n > 0; n-- {
			out = append(out, t)
		}
	}
	return out
}

func (c Counter) String() string {
	return Name(c.Pieces())
}

func (c Counter) MarshalYAML() (any, error) {
	return c.String(), nil
}

func (c *Counter) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}
	parsed, err := ParseCounter(s)
	if err != nil {
		return fmt.Errorf("line %d: %w", node.Line, err)
	}
	*c = parsed
	return nil
}

func (t Type) MarshalYAML() (any, error) {
	return t.String(), nil
}

// UnmarshalYAML reads a single piece letter; E or an empty string is Empty.
func (t *Type) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}
	if s == "" {
		*t = Empty
		return nil
	}
	if len(s) != 1 {
		return fmt.Errorf("line %d: want one piece letter, got %q", node.Line, s)
	}
	parsed, err := Parse(s[0])
	if err != nil {
		return fmt.Errorf("line %d: %w", node.Line, err)
	}
	*t = parsed
	return nil
}

func (s Set) MarshalYAML() (any, error) {
	return s.String(), nil
}

func (s *Set) UnmarshalYAML(node *yaml.Node) error {
	var str string
	if err := node.Decode(&str); err != nil {
		return err
	}
	pieces, err := ParseList(strings.TrimSpace(str))
	if err != nil {
		return fmt.Errorf("line %d: %w", node.Line, err)
	}
	*s = NewSet(pieces...)
	return nil
}
