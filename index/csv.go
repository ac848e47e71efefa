package index

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/domino14/pcsolver/field"
	"github.com/domino14/pcsolver/piece"
)

// ParseCandidatesCSV reads lines of
//
//	id,piece,rotate,x,lowerY,<ignored>,rowsMask
//
// where lowerY is the lowest occupied row on the full board and rowsMask
// lists the required cleared rows as '0'/'1', top row first.
func ParseCandidatesCSV(r io.Reader) ([]Candidate, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	var out []Candidate
	for line := 1; ; line++ {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %w", ErrMalformedRecord, line, err)
		}
		c, err := parseCandidateRow(row)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if c.ID != len(out) {
			return nil, fmt.Errorf("%w: line %d: id %d, want %d", ErrMalformedRecord, line, c.ID, len(out))
		}
		out = append(out, c)
	}
}

func parseCandidateRow(row []string) (Candidate, error) {
	if len(row) < 7 {
		return Candidate{}, fmt.Errorf("%w: %d fields, want 7", ErrMalformedRecord, len(row))
	}
	var c Candidate
	var err error
	if c.ID, err = strconv.Atoi(row[0]); err != nil {
		return c, fmt.Errorf("%w: id: %w", ErrMalformedRecord, err)
	}
	if len(row[1]) != 1 {
		return c, fmt.Errorf("%w: piece %q", ErrMalformedRecord, row[1])
	}
	if c.Piece, err = piece.Parse(row[1][0]); err != nil || c.Piece == piece.Empty {
		return c, fmt.Errorf("%w: piece %q", ErrMalformedRecord, row[1])
	}
	if c.Rotate, err = field.ParseRotate(row[2]); err != nil {
		return c, fmt.Errorf("%w: %w", ErrMalformedRecord, err)
	}
	if c.X, err = strconv.Atoi(row[3]); err != nil {
		return c, fmt.Errorf("%w: x: %w", ErrMalformedRecord, err)
	}
	lowerY, err := strconv.Atoi(row[4])
	if err != nil {
		return c, fmt.Errorf("%w: lower y: %w", ErrMalformedRecord, err)
	}
	if c.DeletedLine, err = parseRowsMask(row[6]); err != nil {
		return c, err
	}
	if lowerY < 0 {
		return c, fmt.Errorf("%w: lower y %d", ErrMalformedRecord, lowerY)
	}
	// centre row on the board without the deleted rows, lifted back
	// onto the full board
	c.Y = liftRow(lowerY-c.Blocks().MinY, c.DeletedLine)
	return c, c.validate()
}

func parseRowsMask(s string) (uint64, error) {
	s = strings.TrimSpace(s)
	if s == "" || len(s) > field.MaxHeight {
		return 0, fmt.Errorf("%w: rows mask %q", ErrMalformedRecord, s)
	}
	var key uint64
	for i := 0; i < len(s); i++ {
		y := len(s) - 1 - i
		switch s[i] {
		case '1':
			key |= 1 << uint(y)
		case '0':
		default:
			return 0, fmt.Errorf("%w: rows mask %q", ErrMalformedRecord, s)
		}
	}
	return key, nil
}

// ParseSolutionsCSV reads one comma-separated id combination per line.
func ParseSolutionsCSV(r io.Reader, depth int) ([]Solution, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	var out []Solution
	for line := 1; ; line++ {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %w", ErrMalformedRecord, line, err)
		}
		if len(row) != depth {
			return nil, fmt.Errorf("%w: line %d: %d ids, want %d", ErrMalformedRecord, line, len(row), depth)
		}
		s := make(Solution, depth)
		for i, v := range row {
			if s[i], err = strconv.Atoi(strings.TrimSpace(v)); err != nil {
				return nil, fmt.Errorf("%w: line %d: %w", ErrMalformedRecord, line, err)
			}
		}
		out = append(out, s)
	}
}
