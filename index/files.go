package index

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"

	"github.com/rs/zerolog/log"

	"github.com/domino14/pcsolver/field"
	"github.com/domino14/pcsolver/piece"
)

// record is the 32-byte little-endian layout of a candidate.
type record struct {
	ID          int32
	Piece       int32
	Rotate      int32
	X           int32
	Y           int32
	_           int32
	DeletedLine uint64
}

const recordSize = 32

// WriteCandidates writes candidates in order.
func WriteCandidates(w io.Writer, cands []Candidate) error {
	bw := bufio.NewWriter(w)
	for _, c := range cands {
		r := record{
			ID:          int32(c.ID),
			Piece:       int32(c.Piece),
			Rotate:      int32(c.Rotate),
			X:           int32(c.X),
			Y:           int32(c.Y),
			DeletedLine: c.DeletedLine,
		}
		if err := binary.Write(bw, binary.LittleEndian, &r); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// ReadCandidates reads records until EOF. Each id must equal its position.
func ReadCandidates(r io.Reader) ([]Candidate, error) {
	br := bufio.NewReader(r)
	var out []Candidate
	for {
		var rec record
		err := binary.Read(br, binary.LittleEndian, &rec)
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, fmt.Errorf("%w: truncated candidate %d", ErrMalformedRecord, len(out))
		}
		if err != nil {
			return nil, err
		}
		if int(rec.ID) != len(out) {
			return nil, fmt.Errorf("%w: candidate id %d at position %d", ErrMalformedRecord, rec.ID, len(out))
		}
		c := Candidate{
			ID:          int(rec.ID),
			Piece:       piece.Type(rec.Piece),
			Rotate:      field.Rotate(rec.Rotate),
			X:           int(rec.X),
			Y:           int(rec.Y),
			DeletedLine: rec.DeletedLine,
		}
		if rec.Piece < 0 || rec.Rotate < 0 {
			return nil, fmt.Errorf("%w: candidate %d has negative fields", ErrMalformedRecord, rec.ID)
		}
		if err := c.validate(); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
}

// Solution is a combination of candidate ids, sorted ascending.
type Solution []int

// WriteSolutions writes each solution as depth uint16 ids, sorted.
func WriteSolutions(w io.Writer, sols []Solution, depth int) error {
	bw := bufio.NewWriter(w)
	buf := make([]byte, 2*depth)
	for i, s := range sols {
		if len(s) != depth {
			return fmt.Errorf("%w: solution %d has %d ids, want %d", ErrMalformedRecord, i, len(s), depth)
		}
		sorted := slices.Sorted(slices.Values(s))
		for j, id := range sorted {
			if id < 0 || id > 0xffff {
				return fmt.Errorf("%w: solution %d: id %d", ErrMalformedRecord, i, id)
			}
			binary.LittleEndian.PutUint16(buf[2*j:], uint16(id))
		}
		if _, err := bw.Write(buf); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// ReadSolutions reads records of depth ids. Every id must name a candidate
// and each record must be sorted ascending.
func ReadSolutions(r io.Reader, depth, numCandidates int) ([]Solution, error) {
	br := bufio.NewReader(r)
	buf := make([]byte, 2*depth)
	var out []Solution
	for {
		_, err := io.ReadFull(br, buf)
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, fmt.Errorf("%w: truncated solution %d", ErrMalformedRecord, len(out))
		}
		if err != nil {
			return nil, err
		}
		s := make(Solution, depth)
		for j := range s {
			s[j] = int(binary.LittleEndian.Uint16(buf[2*j:]))
			if s[j] >= numCandidates {
				return nil, fmt.Errorf("%w: solution %d names candidate %d of %d", ErrMalformedRecord, len(out), s[j], numCandidates)
			}
		}
		if !slices.IsSorted(s) {
			return nil, fmt.Errorf("%w: solution %d is not sorted: %v", ErrMalformedRecord, len(out), s)
		}
		out = append(out, s)
	}
}

// LoadCandidates reads an index file.
func LoadCandidates(path string) ([]Candidate, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	st, err := f.Stat()
	if err != nil {
		return nil, err
	}
	if st.Size()%recordSize != 0 {
		return nil, fmt.Errorf("%s: %w: size %d is not a multiple of %d", path, ErrMalformedRecord, st.Size(), recordSize)
	}
	cands, err := ReadCandidates(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	log.Info().Str("path", path).Int("candidates", len(cands)).Msg("loaded-index")
	return cands, nil
}

// LoadSolutions reads a solutions file.
func LoadSolutions(path string, depth, numCandidates int) ([]Solution, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	sols, err := ReadSolutions(f, depth, numCandidates)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	log.Info().Str("path", path).Int("solutions", len(sols)).Msg("loaded-solutions")
	return sols, nil
}

func storeFile(path string, write func(io.Writer) error) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return f.Close()
}

func StoreCandidates(path string, cands []Candidate) error {
	return storeFile(path, func(w io.Writer) error { return WriteCandidates(w, cands) })
}

func StoreSolutions(path string, sols []Solution, depth int) error {
	return storeFile(path, func(w io.Writer) error { return WriteSolutions(w, sols, depth) })
}
