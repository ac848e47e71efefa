package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"slices"

	"github.com/rs/zerolog/log"
	"github.com/samber/lo"

	"github.com/domino14/pcsolver/bittable"
	"github.com/domino14/pcsolver/index"
	"github.com/domino14/pcsolver/piece"
	"github.com/domino14/pcsolver/sequence"
)

// MergeTables writes, for every sequence of prefix pieces, the OR of the
// base tables of every candidate set that plays those pieces in some
// solution.
func (p *Pipeline) MergeTables(ctx context.Context, prefix int) error {
	if err := p.LoadIndex(); err != nil {
		return err
	}
	rest := p.opts.TotalDepth - prefix
	if prefix < 1 || rest < 1 {
		return fmt.Errorf("prefix %d does not fit total depth %d", prefix, p.opts.TotalDepth)
	}

	counters := lo.Map(p.sols, func(s index.Solution, _ int) piece.Counter {
		return piece.NewCounter(lo.Map(s, func(id int, _ int) piece.Type { return p.cands[id].Piece })...)
	})

	return runPool(ctx, p.opts.Threads, lo.Range(sequence.Pow7(prefix)), func(ctx context.Context, _ int, rank int) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		pieces := sequence.Unrank(rank, prefix)
		out := index.MergedPath(p.opts.DataPath, prefix, pieces)
		if bittable.Exists(out) {
			return nil
		}

		used := piece.NewCounter(pieces...)
		sets := map[string][]int{}
		for i, s := range p.sols {
			if !counters[i].ContainsAll(used) {
				continue
			}
			p.chooseIDs(s, used.Pieces(), func(ids []int) {
				sets[index.Name(ids)] = slices.Clone(ids)
			})
		}

		merged := bittable.New(sequence.Pow7(rest))
		loaded := 0
		for _, ids := range sets {
			t, err := bittable.Load(index.BasePath(p.opts.DataPath, prefix, ids), merged.Capacity())
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			if err != nil {
				return err
			}
			merged.Or(t)
			loaded++
		}
		if err := merged.Store(out); err != nil {
			return err
		}
		log.Debug().Str("pieces", piece.Name(pieces)).Int("sets", len(sets)).Int("loaded", loaded).
			Int("set", merged.Count()).Msg("merged-table")
		return nil
	})
}

// chooseIDs calls fn with every way of picking ids from s whose pieces are
// exactly want. want is sorted by type, so equal pieces sit together and
// are picked in increasing position to avoid repeats.
func (p *Pipeline) chooseIDs(s index.Solution, want []piece.Type, fn func([]int)) {
	picked := make([]int, 0, len(want))
	used := make([]bool, len(s))
	var walk func(k, from int)
	walk = func(k, from int) {
		if k == len(want) {
			fn(picked)
			return
		}
		if k > 0 && want[k] != want[k-1] {
			from = 0
		}
		for pos := from; pos < len(s); pos++ {
			if used[pos] || p.cands[s[pos]].Piece != want[k] {
				continue
			}
			used[pos] = true
			picked = append(picked, s[pos])
			walk(k+1, pos+1)
			picked = picked[:len(picked)-1]
			used[pos] = false
		}
	}
	walk(0, 0)
}
