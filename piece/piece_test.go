package piece

import (
	"testing"

	"github.com/matryer/is"
	"gopkg.in/yaml.v3"
	"lukechampine.com/frand"
)

func TestSetIterationOrder(t *testing.T) {
	is := is.New(t)
	s := NewSet(O, T, S)
	var got []Type
	for p := range s.All() {
		got = append(got, p)
	}
	is.Equal(got, []Type{T, S, O})
	is.Equal(s.Len(), 3)
	is.Equal(s.String(), "TSO")

	// restartable
	n := 0
	for range s.All() {
		n++
	}
	is.Equal(n, 3)
}

func TestSetEarlyStop(t *testing.T) {
	is := is.New(t)
	var got []Type
	for p := range All.All() {
		got = append(got, p)
		if p == L {
			break
		}
	}
	is.Equal(got, []Type{T, I, L})
}

func TestOrAll(t *testing.T) {
	is := is.New(t)
	is.Equal(Set(0).OrAll(), All)
	is.Equal(NewSet(I).OrAll(), NewSet(I))
	is.Equal(All.Without(T).Len(), 6)
}

func TestParseList(t *testing.T) {
	is := is.New(t)
	p, err := ParseList("IOTLJSZ")
	is.NoErr(err)
	is.Equal(p, []Type{I, O, T, L, J, S, Z})
	is.Equal(Name(p), "IOTLJSZ")

	_, err = ParseList("IXO")
	is.True(err != nil)
}

func randomCounter() Counter {
	var c Counter
	for i := range c {
		c[i] = uint8(frand.Intn(4))
	}
	return c
}

func TestCounterLaws(t *testing.T) {
	is := is.New(t)
	for i := 0; i < 200; i++ {
		x := randomCounter()
		y := randomCounter()
		is.Equal(x.Add(y).Sub(y), x)
		is.True(x.ContainsAll(x))
		is.True(x.Add(y).ContainsAll(y))
		is.Equal(Counter{}.ContainsAll(y), y.Empty())
	}
}

func TestCounterSubPanics(t *testing.T) {
	is := is.New(t)
	defer func() {
		is.True(recover() != nil)
	}()
	NewCounter(T).Sub(NewCounter(I))
}

func TestCounterShape(t *testing.T) {
	is := is.New(t)
	c := NewCounter(T, T, O, Empty)
	is.Equal(c.Len(), 3)
	is.Equal(c.Distinct(), 2)
	is.True(!c.IsSet())
	is.Equal(c.Pieces(), []Type{T, T, O})
	is.Equal(c.String(), "TTO")
	is.True(FullBag().IsSet())
	is.Equal(FullBag().Len(), 7)
}

func TestCounterYAML(t *testing.T) {
	is := is.New(t)
	var doc struct {
		Pool Counter `yaml:"pool"`
	}
	is.NoErr(yaml.Unmarshal([]byte("pool: TILJSZO\n"), &doc))
	is.Equal(doc.Pool, FullBag())

	out, err := yaml.Marshal(doc)
	is.NoErr(err)
	is.Equal(string(out), "pool: TILJSZO\n")

	is.True(yaml.Unmarshal([]byte("pool: TQ\n"), &doc) != nil)
}

func TestTypeAndSetYAML(t *testing.T) {
	is := is.New(t)
	var doc struct {
		Hold Type `yaml:"hold"`
		Next Set  `yaml:"next"`
	}
	is.NoErr(yaml.Unmarshal([]byte("hold: S\nnext: TIO\n"), &doc))
	is.Equal(doc.Hold, S)
	is.Equal(doc.Next, NewSet(T, I, O))

	is.NoErr(yaml.Unmarshal([]byte("hold: E\nnext: ''\n"), &doc))
	is.Equal(doc.Hold, Empty)
	is.Equal(doc.Next, Set(0))

	out, err := yaml.Marshal(doc)
	is.NoErr(err)
	is.Equal(string(out), "hold: E\nnext: \"\"\n")

	is.True(yaml.Unmarshal([]byte("hold: TI\n"), &doc) != nil)
}
