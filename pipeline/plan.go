package pipeline

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"

	"github.com/domino14/pcsolver/piece"
)

const (
	PhaseBuildIndex = "build-index"
	PhaseBase       = "build-base-tables"
	PhaseMerge      = "merge-tables"
	PhaseReduce     = "reduce-tables"
	PhaseCalculate  = "calculate"
	PhaseCheck      = "check"
)

var Phases = []string{PhaseBuildIndex, PhaseBase, PhaseMerge, PhaseReduce, PhaseCalculate, PhaseCheck}

// Plan describes one phase run. Zero fields take the defaults of
// DefaultPlan.
type Plan struct {
	Phase string `yaml:"phase"`
	// Prefix is the number of candidates fixed before a table starts.
	Prefix int `yaml:"prefix"`

	CandidatesCSV string `yaml:"candidates-csv"`
	SolutionsCSV  string `yaml:"solutions-csv"`

	// Reduce lists reduce variants; empty means every hold variant for a
	// check run starting with Search.Hold.
	Reduce []ReducePlan `yaml:"reduce"`
	Search SearchPlan   `yaml:"search"`
}

// DefaultPlan fills in what a bare phase name needs.
func DefaultPlan(phase string) *Plan {
	plan := &Plan{
		Phase:         phase,
		Prefix:        1,
		CandidatesCSV: "indexes.csv",
		SolutionsCSV:  "indexed_solutions.csv",
		Search: SearchPlan{
			Hold:    piece.Empty,
			Next:    piece.All,
			Size:    9,
			Results: "check.bin",
		},
	}
	if phase == PhaseCalculate {
		plan.Search.Size = 10
		plan.Search.Results = "calculate.bin"
	}
	return plan
}

// LoadPlan reads a YAML plan over the phase defaults.
func LoadPlan(path string) (*Plan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var head struct {
		Phase string `yaml:"phase"`
	}
	if err := yaml.Unmarshal(data, &head); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	plan := DefaultPlan(head.Phase)
	if err := yaml.Unmarshal(data, plan); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return plan, nil
}

// Run dispatches a plan to its phase.
func (p *Pipeline) Run(ctx context.Context, plan *Plan) error {
	log.Info().Str("phase", plan.Phase).Int("prefix", plan.Prefix).Msg("running-phase")
	switch plan.Phase {
	case PhaseBuildIndex:
		return p.BuildIndex(ctx, p.dataFile(plan.CandidatesCSV), p.dataFile(plan.SolutionsCSV))
	case PhaseBase:
		return p.BuildBaseTables(ctx, plan.Prefix)
	case PhaseMerge:
		return p.MergeTables(ctx, plan.Prefix)
	case PhaseReduce:
		plans := plan.Reduce
		if len(plans) == 0 {
			plans = ReducePlans(plan.Prefix, p.opts.TotalDepth, plan.Search.Hold, nil)
		}
		return p.ReduceTables(ctx, plan.Prefix, plans)
	case PhaseCalculate:
		return p.Calculate(ctx, plan.Search)
	case PhaseCheck:
		return p.Check(ctx, plan.Search)
	}
	return fmt.Errorf("unknown phase %q, want one of %v", plan.Phase, Phases)
}
