// Package filtering narrows lists of assessments through a sequence of steps.
package filtering

import (
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/assessment-recommender/internal/catalog"
)

// Filter is a single filtering step applied to assessments.
type Filter interface {
	Name() string
	IsEnabled() bool
	Apply(items []catalog.Assessment) ([]catalog.Assessment, Step)
}

// Step describes the result of executing a filtering step.
type Step struct {
	Initial int
	Dropped int
	Left    int
}

// Criteria are the user-facing filter knobs. Zero values disable a step.
type Criteria struct {
	Query    string
	TestType string
	Remote   *bool
	Adaptive *bool
}

// Empty reports whether no criterion is set.
func (c Criteria) Empty() bool {
	return strings.TrimSpace(c.Query) == "" && strings.TrimSpace(c.TestType) == "" && c.Remote == nil && c.Adaptive == nil
}

// Steps builds the filter chain for c.
func (c Criteria) Steps() []Filter {
	return []Filter{
		NewTestType(c.TestType),
		NewRemote(c.Remote),
		NewAdaptive(c.Adaptive),
		NewQuery(c.Query),
	}
}

// Run executes the supplied filters sequentially and returns what is left.
// The input slice is never modified.
func Run(steps []Filter, items []catalog.Assessment, logger *zap.Logger) []catalog.Assessment {
	out := append([]catalog.Assessment(nil), items...)
	for _, step := range steps {
		if !step.IsEnabled() {
			continue
		}

		next, info := step.Apply(out)
		if logger != nil {
			logger.Debug("filter step",
				zap.String("name", step.Name()),
				zap.Int("initial", info.Initial),
				zap.Int("dropped", info.Dropped),
				zap.Int("left", info.Left),
			)
		}
		out = next
	}

	return out
}

// Describe returns the names of enabled steps.
func Describe(steps []Filter) []string {
	names := make([]string, 0, len(steps))
	for _, step := range steps {
		if step.IsEnabled() {
			names = append(names, step.Name())
		}
	}
	return names
}

func keep(items []catalog.Assessment, pred func(catalog.Assessment) bool) ([]catalog.Assessment, Step) {
	out := items[:0]
	for _, a := range items {
		if pred(a) {
			out = append(out, a)
		}
	}
	return out, Step{Initial: len(items), Dropped: len(items) - len(out), Left: len(out)}
}
