package pipeline

import (
	"context"
	"errors"
	"path/filepath"

	"github.com/rs/zerolog/log"
	"github.com/samber/lo"

	"github.com/domino14/pcsolver/index"
	"github.com/domino14/pcsolver/movegen"
	"github.com/domino14/pcsolver/perfectclear"
	"github.com/domino14/pcsolver/piece"
	"github.com/domino14/pcsolver/resultlog"
	"github.com/domino14/pcsolver/search"
	"github.com/domino14/pcsolver/sequence"
)

// SearchPlan picks the target sequences of a calculate or check run.
type SearchPlan struct {
	Hold piece.Type `yaml:"hold"`
	// Next is the part of the first bag the targets draw from.
	Next piece.Set `yaml:"next"`
	// Size is the length of every target sequence.
	Size int `yaml:"size"`
	// Results is the result log, relative to the data path.
	Results string `yaml:"results"`
	// Oracle answers check leaves by search instead of reduced tables.
	Oracle bool `yaml:"oracle"`
}

func (s SearchPlan) visible() int {
	if s.Hold == piece.Empty {
		return s.Size
	}
	return s.Size + 1
}

func (p *Pipeline) dataFile(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(p.opts.DataPath, name)
}

// scoreFunc evaluates one target. Each worker gets its own.
type scoreFunc func(ctx context.Context, t search.Target) (int, error)

// Calculate counts, for every target, the next pieces that keep a perfect
// clear in reach when every choice is made well.
func (p *Pipeline) Calculate(ctx context.Context, plan SearchPlan) error {
	return p.runTargets(ctx, plan, func() scoreFunc {
		calc := search.NewCalculator(movegen.NewGenerator(), p.opts.MemoSizePower)
		return func(ctx context.Context, t search.Target) (int, error) {
			calc.Reset()
			q := sequence.NewQueue(t.Pieces())
			n, err := calc.Calculate(ctx, 0, q, plan.Hold, t.Next, plan.visible(), p.opts.MaxLine)
			if err == nil {
				log.Info().Str("pieces", piece.Name(t.Pieces())).Int("score", n).
					Uint64("nodes", calc.Nodes()).Msg("calculated")
			}
			return n, err
		}
	})
}

// Check finds, for every target, the fewest next pieces that fail. Leaves
// are looked up in reduced tables unless the plan asks for the oracle.
func (p *Pipeline) Check(ctx context.Context, plan SearchPlan) error {
	var minos index.MinoIndex
	var tables *search.TableResolver
	if !plan.Oracle {
		if err := p.LoadIndex(); err != nil {
			return err
		}
		minos = index.NewMinoIndex(p.cands)
		tables = search.NewTableResolver(p.opts.DataPath, p.tables, plan.Hold, nil)
	}

	err := p.runTargets(ctx, plan, func() scoreFunc {
		gen := movegen.NewGenerator()
		var resolver search.LeafResolver = tables
		if plan.Oracle {
			resolver = search.NewOracleResolver(perfectclear.NewChecker(gen))
		}
		s := search.NewBudgetSearch(gen, minos, resolver)
		return func(ctx context.Context, t search.Target) (int, error) {
			all := t.Next.Len()
			failed, err := s.Check(ctx, search.State{
				Line:    p.opts.MaxLine,
				Hold:    plan.Hold,
				Queue:   sequence.NewQueue(t.Pieces()),
				Next:    t.Next,
				Visible: plan.visible(),
			}, all)
			if err == nil {
				log.Info().Str("pieces", piece.Name(t.Pieces())).Int("ok", all-failed).Int("all", all).
					Uint64("nodes", s.Nodes()).Msg("checked")
			}
			return failed, err
		}
	})
	if tables != nil {
		p.tables.LogStats()
		log.Info().Uint64("unranked", tables.Unranked()).Msg("leaf-stats")
	}
	return err
}

// runTargets scores every target not yet in the result log. One goroutine
// owns the log and checkpoints it every CheckpointEvery results and at the
// end, also when the run is cut short.
func (p *Pipeline) runTargets(ctx context.Context, plan SearchPlan, newWorker func() scoreFunc) error {
	rl, err := resultlog.Open(p.dataFile(plan.Results))
	if err != nil {
		return err
	}
	targets := search.Targets(plan.Size, plan.Next)
	todo := lo.Filter(targets, func(t search.Target, _ int) bool { return !rl.Has(t.Code) })
	log.Info().Int("targets", len(targets)).Int("todo", len(todo)).Msg("targets")

	workers := make([]scoreFunc, p.opts.Threads)
	for i := range workers {
		workers[i] = newWorker()
	}

	results := make(chan resultlog.Result, p.opts.Threads*2)
	done := make(chan error, 1)
	go func() {
		var werr error
		for r := range results {
			rl.Add(r)
			if p.opts.CheckpointEvery > 0 && rl.Pending() >= p.opts.CheckpointEvery {
				werr = errors.Join(werr, rl.Checkpoint())
			}
		}
		done <- errors.Join(werr, rl.Checkpoint())
	}()

	err = runPool(ctx, p.opts.Threads, todo, func(ctx context.Context, w int, t search.Target) error {
		v, err := workers[w](ctx, t)
		if err != nil {
			return err
		}
		results <- resultlog.Result{Code: t.Code, Value: v}
		return nil
	})
	close(results)
	return errors.Join(err, <-done)
}
