package cache

import (
	"encoding/binary"
	"fmt"
	"math"
	"sync/atomic"

	"github.com/cespare/xxhash"
	"github.com/pbnjay/memory"
	"github.com/rs/zerolog/log"

	"github.com/domino14/pcsolver/field"
	"github.com/domino14/pcsolver/piece"
)

// Key identifies one search position: the board, the held piece, the packed
// code of the pieces still to come and the lines left to clear.
type Key struct {
	Board field.Field
	Hold  piece.Type
	Code  uint64
	Line  int
}

func (k Key) hash() uint64 {
	var buf [18]byte
	binary.LittleEndian.PutUint64(buf[0:], uint64(k.Board))
	binary.LittleEndian.PutUint64(buf[8:], k.Code)
	buf[16] = byte(k.Hold)
	buf[17] = byte(k.Line)
	return xxhash.Sum64(buf[:])
}

// 40 bytes
type memoEntry struct {
	key   Key
	value int32
	valid bool
}

const memoEntrySize = 40

const minMemoPower = 10

// Memo is a direct-mapped result cache. A slot keeps the whole key, so a
// lookup never answers for a different position; a newer store simply
// replaces the older one. Memos are owned by one worker.
type Memo struct {
	name         string
	table        []memoEntry
	sizePowerOf2 int
	sizeMask     uint64

	created    atomic.Uint64
	lookups    atomic.Uint64
	hits       atomic.Uint64
	collisions atomic.Uint64
}

// NewMemo builds a memo with 2^power slots.
func NewMemo(name string, power int) *Memo {
	if power < minMemoPower {
		power = minMemoPower
	}
	if power > 40 {
		panic(fmt.Sprintf("memo power %d too large", power))
	}
	n := 1 << power
	return &Memo{
		name:         name,
		table:        make([]memoEntry, n),
		sizePowerOf2: power,
		sizeMask:     uint64(n - 1),
	}
}

// NewMemoFraction sizes the memo to the biggest power of two that fits in
// fractionOfMemory of system memory.
func NewMemoFraction(name string, fractionOfMemory float64) *Memo {
	totalMem := memory.TotalMemory()
	desired := fractionOfMemory * (float64(totalMem) / float64(memoEntrySize))
	power := minMemoPower
	if desired > 1 {
		power = max(minMemoPower, int(math.Log2(desired)))
	}
	m := NewMemo(name, power)
	log.Info().Str("memo", name).Int("num-elems", len(m.table)).
		Float64("desired-num-elems", desired).
		Int("estimated-total-memory-bytes", len(m.table)*memoEntrySize).
		Uint64("total-system-memory-bytes", totalMem).
		Msg("memo-size")
	return m
}

// Get returns the stored value, or -1 when the key is absent.
func (m *Memo) Get(k Key) int {
	m.lookups.Add(1)
	e := &m.table[k.hash()&m.sizeMask]
	if !e.valid {
		return -1
	}
	if e.key != k {
		m.collisions.Add(1)
		return -1
	}
	m.hits.Add(1)
	return int(e.value)
}

// Put stores a non-negative value.
func (m *Memo) Put(k Key, v int) {
	if v < 0 || v > math.MaxInt32 {
		panic(fmt.Sprintf("memo %s: bad value %d", m.name, v))
	}
	m.table[k.hash()&m.sizeMask] = memoEntry{key: k, value: int32(v), valid: true}
	m.created.Add(1)
}

// Reset empties the memo between top-level searches.
func (m *Memo) Reset() {
	clear(m.table)
	m.created.Store(0)
	m.lookups.Store(0)
	m.hits.Store(0)
	m.collisions.Store(0)
}

// Stats is a snapshot of the memo counters.
type Stats struct {
	Created    uint64
	Lookups    uint64
	Hits       uint64
	Collisions uint64
}

func (m *Memo) Stats() Stats {
	return Stats{
		Created:    m.created.Load(),
		Lookups:    m.lookups.Load(),
		Hits:       m.hits.Load(),
		Collisions: m.collisions.Load(),
	}
}

func (m *Memo) LogStats() {
	s := m.Stats()
	log.Debug().Str("memo", m.name).
		Uint64("created", s.Created).
		Uint64("lookups", s.Lookups).
		Uint64("hits", s.Hits).
		Uint64("collisions", s.Collisions).
		Msg("memo-stats")
}
