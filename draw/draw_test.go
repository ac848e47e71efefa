package draw

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/matryer/is"
	"gopkg.in/yaml.v3"

	"github.com/domino14/pcsolver/piece"
)

func TestReduceConsumesFirstBag(t *testing.T) {
	is := is.New(t)
	full := piece.FullBag()
	out, ok := Reduce([]Pair{{full, 7}, {full, 3}}, full)
	is.True(ok)
	is.Equal(out, []Pair{{full, 3}})
}

func TestReducePartialBag(t *testing.T) {
	is := is.New(t)
	full := piece.FullBag()
	used := piece.NewCounter(piece.T, piece.I)
	out, ok := Reduce([]Pair{{full, 7}, {full, 3}}, used)
	is.True(ok)
	is.Equal(out, []Pair{
		{full.Sub(used), 5},
		{full, 3},
	})
	is.Equal(Depth(out), 8)
}

func TestReduceHoldPair(t *testing.T) {
	is := is.New(t)
	full := piece.FullBag()
	hold := piece.NewCounter(piece.S)
	out, ok := Reduce([]Pair{{hold, 1}, {full, 7}, {full, 2}}, piece.NewCounter(piece.S, piece.O))
	is.True(ok)
	is.Equal(out, []Pair{
		{full.Sub(piece.NewCounter(piece.O)), 6},
		{full, 2},
	})
}

func TestReduceInconsistent(t *testing.T) {
	is := is.New(t)
	full := piece.FullBag()

	// a second T cannot come out of the first bag while it still has six types
	_, ok := Reduce([]Pair{{full, 7}, {full, 3}}, piece.NewCounter(piece.T, piece.T))
	is.True(!ok)

	// more used pieces than the structure deals
	_, ok = Reduce([]Pair{{piece.NewCounter(piece.T), 1}}, piece.NewCounter(piece.T, piece.I))
	is.True(!ok)
}

func TestReduceEmptyUsed(t *testing.T) {
	is := is.New(t)
	pairs := []Pair{{piece.FullBag(), 4}}
	out, ok := Reduce(pairs, piece.Counter{})
	is.True(ok)
	is.Equal(out, pairs)
}

func TestHoldPairs(t *testing.T) {
	is := is.New(t)
	full := piece.FullBag()
	is.Equal(HoldPairs(piece.Empty, 3), []Pair{{full, 7}, {full, 3}})
	is.Equal(HoldPairs(piece.T, 4), []Pair{{piece.NewCounter(piece.T), 1}, {full, 7}, {full, 3}})
	for _, h := range []piece.Type{piece.Empty, piece.S} {
		is.Equal(Depth(HoldPairs(h, 3)), 10)
	}

	// a held T with one I placed from the bag behind it
	out, ok := Reduce(HoldPairs(piece.T, 3), piece.NewCounter(piece.I))
	is.True(ok)
	is.Equal(out, []Pair{
		{piece.NewCounter(piece.T), 1},
		{full.Sub(piece.NewCounter(piece.I)), 6},
		{full, 2},
	})
}

func TestPairYAML(t *testing.T) {
	is := is.New(t)
	var pairs []Pair
	is.NoErr(yaml.Unmarshal([]byte("- pool: TILJSZO\n  pop: 7\n- pool: S\n  pop: 1\n"), &pairs))
	is.Equal(pairs, []Pair{{piece.FullBag(), 7}, {piece.NewCounter(piece.S), 1}})
	is.Equal(Format(pairs), "[(TILJSZO,7),(S,1)]")
}

func TestPermutationsBijection(t *testing.T) {
	is := is.New(t)
	full := piece.FullBag()
	for _, pairs := range [][]Pair{
		{{full, 3}},
		{{full, 2}, {full, 2}},
		{{piece.NewCounter(piece.L), 1}, {full, 2}, {full.Sub(piece.NewCounter(piece.L)), 1}},
		{},
	} {
		p, err := NewPermutations(pairs)
		is.NoErr(err)
		is.Equal(p.Depth(), Depth(pairs))
		seen := map[string]bool{}
		for i := 0; i < p.Size(); i++ {
			seq := p.Pieces(i)
			is.Equal(len(seq), p.Depth())
			idx, ok := p.Index(seq)
			is.True(ok)
			is.Equal(idx, i)
			name := piece.Name(seq)
			is.True(!seen[name])
			seen[name] = true
		}
	}
}

func TestPermutationsSizes(t *testing.T) {
	is := is.New(t)
	full := piece.FullBag()
	p, err := NewPermutations([]Pair{{full, 7}, {full, 3}})
	is.NoErr(err)
	is.Equal(p.Size(), 5040*210)
	is.Equal(p.Depth(), 10)

	_, ok := p.Index(piece.MustParseList("TTILJSZOIO"))
	is.True(!ok)
	_, ok = p.Index(piece.MustParseList("TILJSZO"))
	is.True(!ok)

	_, err = NewPermutations([]Pair{{piece.NewCounter(piece.T, piece.T), 1}})
	is.True(err != nil)
}

func TestForwardOrderCounts(t *testing.T) {
	is := is.New(t)
	for n := 1; n <= 7; n++ {
		is.Equal(NewForwardOrder(n, n, false).Len(), 1<<(n-1))
	}
	f := NewForwardOrder(3, 3, false)
	want := [][]int{{0, 1, 2}, {0, 2, 1}, {1, 2, 0}, {1, 0, 2}}
	if diff := cmp.Diff(want, f.Orders()); diff != "" {
		t.Fatalf("orders mismatch (-want +got):\n%s", diff)
	}

	is.Equal(NewForwardOrder(1, 2, false).Len(), 2)
	is.Equal(NewForwardOrder(1, 2, true).Len(), 1)
	for _, o := range NewForwardOrder(5, 6, true).Orders() {
		is.Equal(o[0], 1)
	}
	held := NewForwardOrder(3, 3, true)
	if diff := cmp.Diff([][]int{{1, 2, 0}, {1, 0, 2}}, held.Orders()); diff != "" {
		t.Fatalf("orders mismatch (-want +got):\n%s", diff)
	}
}

func TestAnyOrder(t *testing.T) {
	is := is.New(t)
	f := NewForwardOrder(2, 3, false)
	var got []string
	f.AnyOrder(piece.MustParseList("IOT"), func(seq []piece.Type) bool {
		got = append(got, piece.Name(seq))
		return false
	})
	is.Equal(got, []string{"IO", "IT", "OT", "OI"})

	found := f.AnyOrder(piece.MustParseList("IOT"), func(seq []piece.Type) bool {
		return piece.Name(seq) == "OT"
	})
	is.True(found)
	found = f.AnyOrder(piece.MustParseList("IOT"), func(seq []piece.Type) bool {
		return piece.Name(seq) == "TI"
	})
	is.True(!found)
}
