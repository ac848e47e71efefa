// Package pipeline runs the table-building and search phases: it builds the
// candidate index, enumerates base tables, merges and reduces them, and runs
// the two searches over every target sequence.
package pipeline

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/domino14/pcsolver/cache"
	"github.com/domino14/pcsolver/index"
)

type Options struct {
	DataPath      string
	IndexFile     string
	SolutionsFile string

	Threads         int
	MaxLine         int
	TotalDepth      int
	CheckpointEvery int
	MemoSizePower   int

	TableCacheFraction float64
}

// Pipeline owns what the phases share: the loaded candidate index and the
// process-wide table cache.
type Pipeline struct {
	opts   Options
	tables *cache.Tables

	cands []index.Candidate
	sols  []index.Solution
}

func New(opts Options) *Pipeline {
	if opts.Threads < 1 {
		opts.Threads = 1
	}
	return &Pipeline{
		opts:   opts,
		tables: cache.NewTables(opts.TableCacheFraction),
	}
}

func (p *Pipeline) Tables() *cache.Tables {
	return p.tables
}

// LoadIndex reads the candidate index and the solutions once.
func (p *Pipeline) LoadIndex() error {
	if p.cands != nil {
		return nil
	}
	cands, err := index.LoadCandidates(p.opts.IndexFile)
	if err != nil {
		return fmt.Errorf("loading index: %w", err)
	}
	sols, err := index.LoadSolutions(p.opts.SolutionsFile, p.opts.TotalDepth, len(cands))
	if err != nil {
		return fmt.Errorf("loading solutions: %w", err)
	}
	p.cands = cands
	p.sols = sols
	return nil
}

func (p *Pipeline) candidates(ids []int) []*index.Candidate {
	out := make([]*index.Candidate, len(ids))
	for i, id := range ids {
		out[i] = &p.cands[id]
	}
	return out
}

// runPool hands jobs to threads workers. work gets the worker number so it
// can use per-worker state. The first error cancels the rest.
func runPool[J any](ctx context.Context, threads int, jobs []J, work func(ctx context.Context, worker int, j J) error) error {
	g, ctx := errgroup.WithContext(ctx)
	jobChan := make(chan J, threads*2)

	for t := 0; t < threads; t++ {
		g.Go(func() error {
			for j := range jobChan {
				if err := work(ctx, t, j); err != nil {
					return err
				}
			}
			return nil
		})
	}

	queuedJobs := 0
feed:
	for _, j := range jobs {
		select {
		case jobChan <- j:
			queuedJobs++
		case <-ctx.Done():
			break feed
		}
	}
	log.Debug().Int("numJobs", queuedJobs).Msg("queued-jobs")
	close(jobChan)
	return g.Wait()
}
