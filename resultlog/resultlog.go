// Package resultlog keeps the per-sequence results of a long check run so a
// restarted run can skip what is already done.
package resultlog

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"
)

// record layout: uint64 code, int32 failed, 4 bytes padding
const recordSize = 16

// Result is the outcome for one piece sequence code: the number of failing
// next pieces for check runs, the number of succeeding ones for calculate
// runs.
type Result struct {
	Code  uint64
	Value int
}

// Log holds every result in insertion order. It is meant for a single
// writer goroutine.
type Log struct {
	path    string
	byCode  map[uint64]int
	results []Result
	flushed int
}

// Open reads the log at path, if any. A torn record at the end of the file
// is dropped.
func Open(path string) (*Log, error) {
	l := &Log{path: path, byCode: make(map[uint64]int)}
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return l, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()
	if err := l.read(f); err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	l.flushed = len(l.results)
	log.Info().Str("path", path).Int("results", len(l.results)).Msg("opened-result-log")
	return l, nil
}

func (l *Log) read(r io.Reader) error {
	br := bufio.NewReader(r)
	var buf [recordSize]byte
	for {
		_, err := io.ReadFull(br, buf[:])
		if errors.Is(err, io.EOF) {
			return nil
		}
		if errors.Is(err, io.ErrUnexpectedEOF) {
			log.Warn().Int("records", len(l.results)).Msg("dropping-torn-result")
			return nil
		}
		if err != nil {
			return err
		}
		l.add(Result{
			Code:  binary.LittleEndian.Uint64(buf[0:]),
			Value: int(int32(binary.LittleEndian.Uint32(buf[8:]))),
		})
	}
}

func (l *Log) add(r Result) {
	l.byCode[r.Code] = r.Value
	l.results = append(l.results, r)
}

// Add records a result in memory. It is written out by the next Checkpoint.
func (l *Log) Add(r Result) {
	l.add(r)
}

// Value returns the stored value for code.
func (l *Log) Value(code uint64) (int, bool) {
	n, ok := l.byCode[code]
	return n, ok
}

func (l *Log) Has(code uint64) bool {
	_, ok := l.byCode[code]
	return ok
}

func (l *Log) Len() int {
	return len(l.results)
}

// Pending is the number of results not yet checkpointed.
func (l *Log) Pending() int {
	return len(l.results) - l.flushed
}

func (l *Log) Results() []Result {
	return l.results
}

// WriteTo writes every result as a full record.
func (l *Log) WriteTo(w io.Writer) (int64, error) {
	bw := bufio.NewWriter(w)
	var buf [recordSize]byte
	var n int64
	for _, r := range l.results {
		binary.LittleEndian.PutUint64(buf[0:], r.Code)
		binary.LittleEndian.PutUint32(buf[8:], uint32(int32(r.Value)))
		m, err := bw.Write(buf[:])
		n += int64(m)
		if err != nil {
			return n, err
		}
	}
	return n, bw.Flush()
}

// Checkpoint rewrites the whole file from memory.
func (l *Log) Checkpoint() error {
	dir := filepath.Dir(l.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(l.path)+".tmp*")
	if err != nil {
		return err
	}
	if _, err := l.WriteTo(tmp); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("writing %s: %w", l.path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	if err := os.Rename(tmp.Name(), l.path); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	l.flushed = len(l.results)
	log.Info().Str("path", l.path).Int("results", len(l.results)).Msg("checkpoint")
	return nil
}
