// Package bittable stores one bit per fixed-length piece sequence rank.
package bittable

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math/bits"
	"os"
	"path/filepath"

	"github.com/pbnjay/memory"
	"github.com/rs/zerolog/log"
)

const wordBits = 64

var ErrCapacityMismatch = errors.New("table size does not match capacity")

// Table is a fixed capacity bit vector. Bit i answers for the sequence whose
// base-7 rank is i.
type Table struct {
	words    []uint64
	capacity int
}

// Words is the number of storage words needed for capacity bits.
func Words(capacity int) int {
	return (capacity + wordBits - 1) / wordBits
}

func New(capacity int) *Table {
	if capacity < 0 {
		panic(fmt.Sprintf("negative capacity %d", capacity))
	}
	return &Table{words: make([]uint64, Words(capacity)), capacity: capacity}
}

func (t *Table) Capacity() int {
	return t.capacity
}

// Len is the storage word count.
func (t *Table) Len() int {
	return len(t.words)
}

func (t *Table) check(i int) {
	if i < 0 || i >= t.capacity {
		panic(fmt.Sprintf("bit %d out of range [0,%d)", i, t.capacity))
	}
}

func (t *Table) Set(i int, v bool) {
	t.check(i)
	if v {
		t.words[i/wordBits] |= 1 << (i % wordBits)
	} else {
		t.words[i/wordBits] &^= 1 << (i % wordBits)
	}
}

func (t *Table) Get(i int) bool {
	t.check(i)
	return t.words[i/wordBits]&(1<<(i%wordBits)) != 0
}

// Any reports whether some bit is set.
func (t *Table) Any() bool {
	for _, w := range t.words {
		if w != 0 {
			return true
		}
	}
	return false
}

// Count is the number of set bits.
func (t *Table) Count() int {
	n := 0
	for _, w := range t.words {
		n += bits.OnesCount64(w)
	}
	return n
}

// Or merges o into t. Both tables must have the same capacity.
func (t *Table) Or(o *Table) {
	if o.capacity != t.capacity {
		panic(fmt.Sprintf("or of capacity %d into %d", o.capacity, t.capacity))
	}
	for i, w := range o.words {
		t.words[i] |= w
	}
}

// OrAll merges every table into a fresh one of the given capacity.
func OrAll(capacity int, tables ...*Table) *Table {
	out := New(capacity)
	for _, t := range tables {
		out.Or(t)
	}
	return out
}

// WriteTo dumps the words little endian with no header.
func (t *Table) WriteTo(w io.Writer) (int64, error) {
	bw := bufio.NewWriter(w)
	var buf [8]byte
	var n int64
	for _, word := range t.words {
		binary.LittleEndian.PutUint64(buf[:], word)
		m, err := bw.Write(buf[:])
		n += int64(m)
		if err != nil {
			return n, err
		}
	}
	return n, bw.Flush()
}

// ReadFrom fills t from a raw word dump. The stream must hold exactly
// Len words.
func (t *Table) ReadFrom(r io.Reader) (int64, error) {
	br := bufio.NewReader(r)
	var buf [8]byte
	var n int64
	for i := range t.words {
		m, err := io.ReadFull(br, buf[:])
		n += int64(m)
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				return n, fmt.Errorf("%w: short read at word %d", ErrCapacityMismatch, i)
			}
			return n, err
		}
		t.words[i] = binary.LittleEndian.Uint64(buf[:])
	}
	if _, err := br.ReadByte(); err == nil {
		return n, fmt.Errorf("%w: trailing data", ErrCapacityMismatch)
	}
	return n, nil
}

// Load reads a table file written by Store.
func Load(path string, capacity int) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	st, err := f.Stat()
	if err != nil {
		return nil, err
	}
	t := New(capacity)
	if st.Size() != int64(t.Len()*8) {
		return nil, fmt.Errorf("%s: %w: %d bytes, want %d", path, ErrCapacityMismatch, st.Size(), t.Len()*8)
	}
	if _, err := t.ReadFrom(f); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}

// Store writes the table through a temp file and a rename, so a reader never
// sees a partial table under the final name.
func (t *Table) Store(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp*")
	if err != nil {
		return err
	}
	if _, err := t.WriteTo(tmp); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	log.Debug().Str("path", path).Int("capacity", t.capacity).Int("set", t.Count()).Msg("stored-table")
	return nil
}

// Exists reports whether a finished table is present at path.
func Exists(path string) bool {
	st, err := os.Stat(path)
	return err == nil && st.Mode().IsRegular()
}

// CheckMemory refuses capacities whose table would take more than fraction
// of system memory.
func CheckMemory(capacity int, fraction float64) error {
	need := uint64(Words(capacity)) * 8
	total := memory.TotalMemory()
	if total == 0 {
		return nil
	}
	if float64(need) > fraction*float64(total) {
		return fmt.Errorf("table of %d bits needs %d bytes, over %.2f of %d", capacity, need, fraction, total)
	}
	return nil
}
