package cache

import (
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/matryer/is"
	"github.com/stretchr/testify/assert"

	"github.com/domino14/pcsolver/bittable"
	"github.com/domino14/pcsolver/field"
	"github.com/domino14/pcsolver/piece"
)

func TestMemoGetPut(t *testing.T) {
	is := is.New(t)
	m := NewMemo("test", 12)
	k := Key{Board: field.MustParse("XX________"), Hold: piece.T, Code: 0x12ffffffffffffff, Line: 4}
	is.Equal(m.Get(k), -1)
	m.Put(k, 3)
	is.Equal(m.Get(k), 3)

	other := k
	other.Line = 3
	is.Equal(m.Get(other), -1)
	m.Put(other, 0)
	is.Equal(m.Get(other), 0)

	m.Reset()
	is.Equal(m.Get(k), -1)
	is.Equal(m.Stats().Hits, uint64(0))
}

func TestMemoNeverAnswersForOtherKey(t *testing.T) {
	is := is.New(t)
	// tiny table, so slots are shared
	m := NewMemo("small", 0)
	is.Equal(len(m.table), 1<<minMemoPower)
	keys := make([]Key, 5000)
	for i := range keys {
		keys[i] = Key{Board: field.Field(i), Hold: piece.Empty, Code: uint64(i) * 7, Line: 4}
		m.Put(keys[i], i%100)
	}
	for i, k := range keys {
		v := m.Get(k)
		is.True(v == -1 || v == i%100)
	}
	is.True(m.Stats().Collisions > 0)
}

func TestMemoRejectsNegative(t *testing.T) {
	is := is.New(t)
	defer func() {
		is.True(recover() != nil)
	}()
	NewMemo("neg", 10).Put(Key{}, -1)
}

func TestTables(t *testing.T) {
	is := is.New(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "a_output.bin")
	tb := bittable.New(49)
	tb.Set(10, true)
	is.NoErr(tb.Store(path))

	c := NewTables(0.5)
	got, ok, err := c.Get(path, 49)
	is.NoErr(err)
	is.True(ok)
	is.True(got.Get(10))

	again, ok, err := c.Get(path, 49)
	is.NoErr(err)
	is.True(ok)
	is.True(again == got)

	_, ok, err = c.Get(filepath.Join(dir, "nope_output.bin"), 49)
	is.NoErr(err)
	is.True(!ok)
	_, ok, _ = c.Get(filepath.Join(dir, "nope_output.bin"), 49)
	is.True(!ok)
	is.Equal(c.Missing(), 1)
}

func TestTablesBudget(t *testing.T) {
	is := is.New(t)
	path := filepath.Join(t.TempDir(), "b_output.bin")
	is.NoErr(bittable.New(64).Store(path))
	c := NewTables(0)
	a, ok, err := c.Get(path, 64)
	is.NoErr(err)
	is.True(ok)
	b, _, _ := c.Get(path, 64)
	is.True(a != b)
}

func TestTablesLoadConcurrently(t *testing.T) {
	c := NewTables(0.5)
	var calls atomic.Int64
	started := make(chan string, 2)
	release := make(chan struct{})
	c.load = func(path string, capacity int) (*bittable.Table, error) {
		calls.Add(1)
		started <- path
		<-release
		return bittable.New(capacity), nil
	}

	var wg sync.WaitGroup
	for _, path := range []string{"a", "a", "a", "b"} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, ok, err := c.Get(path, 49)
			assert.NoError(t, err)
			assert.True(t, ok)
			assert.Equal(t, 49, got.Capacity())
		}()
	}

	// both tables are being read at once
	for range 2 {
		select {
		case <-started:
		case <-time.After(5 * time.Second):
			close(release)
			t.Fatal("second table load never started")
		}
	}
	close(release)
	wg.Wait()
	assert.Equal(t, int64(2), calls.Load())

	_, ok, err := c.Get("a", 49)
	assert.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, int64(2), calls.Load())
}
