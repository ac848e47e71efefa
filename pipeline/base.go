package pipeline

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/rs/zerolog/log"
	"github.com/samber/lo"

	"github.com/domino14/pcsolver/bittable"
	"github.com/domino14/pcsolver/field"
	"github.com/domino14/pcsolver/index"
	"github.com/domino14/pcsolver/movegen"
	"github.com/domino14/pcsolver/runner"
	"github.com/domino14/pcsolver/sequence"
)

// BuildBaseTables writes one table per legal set of prefix candidates. The
// table marks every order of the remaining pieces that some solution
// containing the prefix can be played in. Each top-level candidate is one
// unit of work; tables already on disk are skipped.
func (p *Pipeline) BuildBaseTables(ctx context.Context, prefix int) error {
	if err := p.LoadIndex(); err != nil {
		return err
	}
	rest := p.opts.TotalDepth - prefix
	if prefix < 1 || rest < 1 || rest > runner.MaxCandidates {
		return fmt.Errorf("prefix %d does not fit total depth %d", prefix, p.opts.TotalDepth)
	}
	if err := bittable.CheckMemory(sequence.Pow7(rest), 1/float64(p.opts.Threads+1)); err != nil {
		return err
	}

	builders := make([]*baseBuilder, p.opts.Threads)
	var claimed sync.Map
	for i := range builders {
		builders[i] = &baseBuilder{
			p:       p,
			runner:  runner.New(movegen.NewGenerator(), p.opts.MaxLine),
			claimed: &claimed,
			prefix:  prefix,
			rest:    rest,
		}
	}

	err := runPool(ctx, p.opts.Threads, lo.Range(len(p.cands)), func(ctx context.Context, w int, top int) error {
		log.Debug().Int("candidate", top).Int("worker", w).Msg("base-top")
		return builders[w].extend(ctx, 0, nil, p.sols, top)
	})
	written := lo.SumBy(builders, func(b *baseBuilder) int { return b.written })
	log.Info().Int("prefix", prefix).Int("written", written).Msg("built-base-tables")
	return err
}

type baseBuilder struct {
	p       *Pipeline
	runner  *runner.Runner
	claimed *sync.Map
	prefix  int
	rest    int
	written int
}

// extend tries candidate id on top of f.
func (b *baseBuilder) extend(ctx context.Context, f field.Field, selected []int, sols []index.Solution, id int) error {
	c := &b.p.cands[id]
	if f.FilledKey()&c.DeletedLine != c.DeletedLine {
		return nil
	}
	mino := c.Mino()
	if !f.CanMerge(mino) {
		return nil
	}
	cleared, key := f.ClearLine()
	y := c.ClearedY(key)
	blocks := c.Blocks()
	if !cleared.CanPut(blocks, c.X, y) || !cleared.IsOnGround(blocks, c.X, y) {
		return nil
	}

	filtered := withoutID(sols, id)
	if len(filtered) == 0 {
		return nil
	}
	return b.walk(ctx, f.Merge(mino), append(selected, id), filtered)
}

func (b *baseBuilder) walk(ctx context.Context, f field.Field, selected []int, sols []index.Solution) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(selected) == b.prefix {
		return b.emit(ctx, f, selected, sols)
	}
	for id := range b.p.cands {
		if err := b.extend(ctx, f, selected, sols, id); err != nil {
			return err
		}
	}
	return nil
}

func (b *baseBuilder) emit(ctx context.Context, f field.Field, selected []int, sols []index.Solution) error {
	path := index.BasePath(b.p.opts.DataPath, b.prefix, selected)
	if bittable.Exists(path) {
		return nil
	}
	if _, loaded := b.claimed.LoadOrStore(path, struct{}{}); loaded {
		return nil
	}

	table := bittable.New(sequence.Pow7(b.rest))
	found := 0
	for _, s := range sols {
		n, err := b.runner.Find(ctx, f, b.p.candidates(s), table)
		if err != nil {
			return err
		}
		found += n
	}
	if err := table.Store(path); err != nil {
		return err
	}
	b.written++
	log.Debug().Str("path", path).Int("solutions", len(sols)).Int("orders", found).Msg("base-table")
	return nil
}

// withoutID keeps the solutions naming id and drops id from each.
func withoutID(sols []index.Solution, id int) []index.Solution {
	var out []index.Solution
	for _, s := range sols {
		if _, ok := slices.BinarySearch(s, id); !ok {
			continue
		}
		out = append(out, lo.Without(s, id))
	}
	return out
}
