package index

import (
	"fmt"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/samber/lo"

	"github.com/domino14/pcsolver/piece"
)

const tableSuffix = "_output.bin"

// Name joins the sorted ids with underscores. The same id set always maps to
// the same name.
func Name(ids []int) string {
	sorted := slices.Sorted(slices.Values(ids))
	return strings.Join(lo.Map(sorted, func(id int, _ int) string {
		return strconv.Itoa(id)
	}), "_")
}

// BasePath is the table enumerated from the candidates ids after a prefix of
// `prefix` placements.
func BasePath(root string, prefix int, ids []int) string {
	return filepath.Join(root, fmt.Sprintf("base%d", prefix), Name(ids)+tableSuffix)
}

// MergedPath is the table for a fixed sequence of prefix pieces.
func MergedPath(root string, prefix int, pieces []piece.Type) string {
	return filepath.Join(root, fmt.Sprintf("merged%d", prefix), piece.Name(pieces)+tableSuffix)
}

// ReducedDir is the directory of one reduction variant: the hold piece (E
// for none), the number of pieces read and whether the first move may hold.
func ReducedDir(root string, prefix int, hold piece.Type, from int, mustNotFirstHold bool) string {
	name := fmt.Sprintf("reduced%d-%vh%d", prefix, hold, from)
	if mustNotFirstHold {
		name += "f"
	}
	return filepath.Join(root, name)
}

// ReducedPath is a reduced table inside its variant directory.
func ReducedPath(dir string, ids []int) string {
	return filepath.Join(dir, Name(ids)+tableSuffix)
}

// IDs lists candidate ids.
func IDs(cands []*Candidate) []int {
	return lo.Map(cands, func(c *Candidate, _ int) int { return c.ID })
}
