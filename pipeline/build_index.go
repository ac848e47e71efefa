package pipeline

import (
	"context"
	"fmt"
	"os"
	"slices"

	"github.com/rs/zerolog/log"

	"github.com/domino14/pcsolver/index"
)

// BuildIndex converts the candidate and solution CSV files into the binary
// index and solution files the other phases read.
func (p *Pipeline) BuildIndex(ctx context.Context, candidatesCSV, solutionsCSV string) error {
	cf, err := os.Open(candidatesCSV)
	if err != nil {
		return err
	}
	defer cf.Close()
	cands, err := index.ParseCandidatesCSV(cf)
	if err != nil {
		return fmt.Errorf("%s: %w", candidatesCSV, err)
	}

	sf, err := os.Open(solutionsCSV)
	if err != nil {
		return err
	}
	defer sf.Close()
	sols, err := index.ParseSolutionsCSV(sf, p.opts.TotalDepth)
	if err != nil {
		return fmt.Errorf("%s: %w", solutionsCSV, err)
	}
	for i, s := range sols {
		slices.Sort(s)
		for _, id := range s {
			if id < 0 || id >= len(cands) {
				return fmt.Errorf("%s: solution %d: %w: id %d of %d candidates",
					solutionsCSV, i, index.ErrMalformedRecord, id, len(cands))
			}
		}
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := index.StoreCandidates(p.opts.IndexFile, cands); err != nil {
		return err
	}
	if err := index.StoreSolutions(p.opts.SolutionsFile, sols, p.opts.TotalDepth); err != nil {
		return err
	}
	p.cands = cands
	p.sols = sols
	log.Info().Int("candidates", len(cands)).Int("solutions", len(sols)).Msg("built-index")
	return nil
}
