package pipeline

import (
	"context"
	"fmt"
	"slices"

	"github.com/rs/zerolog/log"

	"github.com/domino14/pcsolver/bittable"
	"github.com/domino14/pcsolver/draw"
	"github.com/domino14/pcsolver/field"
	"github.com/domino14/pcsolver/index"
	"github.com/domino14/pcsolver/piece"
	"github.com/domino14/pcsolver/search"
	"github.com/domino14/pcsolver/sequence"
)

// ReducePlan is one reduced-table variant: the draw structure of the window
// for a held piece, how many pieces the window reads, and whether the held
// piece was taken on the current draw.
type ReducePlan struct {
	Hold             piece.Type  `yaml:"hold"`
	Pairs            []draw.Pair `yaml:"pairs"`
	From             int         `yaml:"from"`
	MustNotFirstHold bool        `yaml:"must-not-first-hold"`
}

func (r ReducePlan) String() string {
	s := fmt.Sprintf("%vh%d %s", r.Hold, r.From, draw.Format(r.Pairs))
	if r.MustNotFirstHold {
		s += " f"
	}
	return s
}

// ReducePlans lists the variants leaf lookups of a check run starting with
// hold start ask for: every leaf hold, empty included, reading exactly the
// remaining pieces or one more, with and without a fresh hold. All of them
// rank pieces by the run's draw structure, pairs(start, window); the leaf
// hold only names the directory.
func ReducePlans(prefix, totalDepth int, start piece.Type, pairs search.PairsFunc) []ReducePlan {
	if pairs == nil {
		pairs = search.DefaultPairs
	}
	to := totalDepth - prefix
	holds := append([]piece.Type{piece.Empty}, piece.AllTypes[:]...)
	var plans []ReducePlan
	for _, h := range holds {
		for extra := 0; extra <= 1; extra++ {
			for _, f := range []bool{false, true} {
				plans = append(plans, ReducePlan{
					Hold:             h,
					Pairs:            pairs(start, totalDepth+extra),
					From:             to + extra,
					MustNotFirstHold: f,
				})
			}
		}
	}
	return plans
}

type prefixSet struct {
	ids  []int
	used piece.Counter
}

// prefixSets lists each set of prefix candidates that fits together on an
// empty board, once.
func (p *Pipeline) prefixSets(prefix int) []prefixSet {
	seen := map[string]bool{}
	var out []prefixSet
	selected := make([]int, 0, prefix)
	var walk func(f field.Field)
	walk = func(f field.Field) {
		if len(selected) == prefix {
			name := index.Name(selected)
			if seen[name] {
				return
			}
			seen[name] = true
			ids := slices.Sorted(slices.Values(selected))
			used := piece.NewCounter()
			for _, id := range ids {
				used = used.Add(piece.NewCounter(p.cands[id].Piece))
			}
			out = append(out, prefixSet{ids: ids, used: used})
			return
		}
		filled := f.FilledKey()
		for id := range p.cands {
			c := &p.cands[id]
			if filled&c.DeletedLine != c.DeletedLine {
				continue
			}
			mino := c.Mino()
			if !f.CanMerge(mino) {
				continue
			}
			selected = append(selected, id)
			walk(f.Merge(mino))
			selected = selected[:len(selected)-1]
		}
	}
	walk(0)
	return out
}

// ReduceTables derives, for every plan, smaller tables indexed by the
// permutations of the plan's draw structure once the prefix pieces are
// used. A permutation is marked when some order reachable with hold is
// marked in the base table. Plans that differ only in their hold share one
// computation; groups run in parallel.
func (p *Pipeline) ReduceTables(ctx context.Context, prefix int, plans []ReducePlan) error {
	if err := p.LoadIndex(); err != nil {
		return err
	}
	to := p.opts.TotalDepth - prefix
	if prefix < 1 || to < 1 {
		return fmt.Errorf("prefix %d does not fit total depth %d", prefix, p.opts.TotalDepth)
	}
	for _, plan := range plans {
		if plan.From != to && plan.From != to+1 {
			return fmt.Errorf("plan %v reads %d pieces, want %d or %d", plan, plan.From, to, to+1)
		}
	}
	groups := groupPlans(plans)
	sets := p.prefixSets(prefix)
	log.Info().Int("prefix", prefix).Int("sets", len(sets)).Int("plans", len(plans)).
		Int("groups", len(groups)).Msg("reducing")

	return runPool(ctx, p.opts.Threads, groups, func(ctx context.Context, _ int, g []ReducePlan) error {
		return p.reduce(ctx, prefix, to, g, sets)
	})
}

// groupPlans collects plans with the same draw structure, window and
// first-hold rule, keeping their first appearance order.
func groupPlans(plans []ReducePlan) [][]ReducePlan {
	var groups [][]ReducePlan
	at := map[string]int{}
	for _, plan := range plans {
		key := fmt.Sprintf("%s/%d/%v", draw.Format(plan.Pairs), plan.From, plan.MustNotFirstHold)
		i, ok := at[key]
		if !ok {
			i = len(groups)
			at[key] = i
			groups = append(groups, nil)
		}
		groups[i] = append(groups[i], plan)
	}
	return groups
}

// reduce computes each table of a plan group once and stores it in every
// hold directory of the group that does not have it yet.
func (p *Pipeline) reduce(ctx context.Context, prefix, to int, group []ReducePlan, sets []prefixSet) error {
	plan := group[0]
	dirs := make([]string, len(group))
	for i, g := range group {
		dirs[i] = index.ReducedDir(p.opts.DataPath, prefix, g.Hold, g.From, g.MustNotFirstHold)
	}
	order := draw.NewForwardOrder(to, plan.From, plan.MustNotFirstHold)
	written, skipped := 0, 0

	for _, set := range sets {
		if err := ctx.Err(); err != nil {
			return err
		}
		var outs []string
		for _, dir := range dirs {
			if out := index.ReducedPath(dir, set.ids); !bittable.Exists(out) {
				outs = append(outs, out)
			}
		}
		if len(outs) == 0 {
			continue
		}
		base, ok, err := p.tables.Get(index.BasePath(p.opts.DataPath, prefix, set.ids), sequence.Pow7(to))
		if err != nil {
			return err
		}
		if !ok {
			skipped++
			continue
		}

		reduced, ok := draw.Reduce(plan.Pairs, set.used)
		if !ok {
			skipped++
			continue
		}
		perms, err := draw.NewPermutations(reduced)
		if err != nil {
			return fmt.Errorf("plan %v: %w", plan, err)
		}
		if perms.Depth() != plan.From {
			log.Warn().Str("plan", plan.String()).Str("pairs", draw.Format(reduced)).
				Int("depth", perms.Depth()).Msg("reduced-depth-mismatch")
			skipped++
			continue
		}

		table := bittable.New(perms.Size())
		for i := 0; i < perms.Size(); i++ {
			ok := order.AnyOrder(perms.Pieces(i), func(seq []piece.Type) bool {
				return base.Get(sequence.Rank(seq))
			})
			if ok {
				table.Set(i, true)
			}
		}
		for _, out := range outs {
			if err := table.Store(out); err != nil {
				return err
			}
			written++
		}
	}
	log.Info().Str("plan", plan.String()).Int("dirs", len(dirs)).Int("written", written).
		Int("skipped", skipped).Msg("reduced")
	return nil
}
