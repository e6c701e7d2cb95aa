package filtering

import (
	"testing"

	"go.uber.org/zap"

	"github.com/spigell/assessment-recommender/internal/catalog"
)

func items() []catalog.Assessment {
	return []catalog.Assessment{
		{Name: "Verify Numerical", Description: "Numerical reasoning", RemoteTesting: true, AdaptiveSupport: true, TestType: "Cognitive ability"},
		{Name: "OPQ", Description: "Personality at work", RemoteTesting: true, TestType: "Personality assessment"},
		{Name: "Assessment Centre", Description: "In person exercises", TestType: "Simulation"},
	}
}

func names(items []catalog.Assessment) []string {
	out := make([]string, 0, len(items))
	for _, a := range items {
		out = append(out, a.Name)
	}
	return out
}

func ptr(b bool) *bool { return &b }

func TestRun(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		criteria Criteria
		expect   []string
	}{
		{
			name:   "no criteria keeps everything",
			expect: []string{"Verify Numerical", "OPQ", "Assessment Centre"},
		},
		{
			name:     "test type is a case-insensitive substring",
			criteria: Criteria{TestType: "PERSONALITY"},
			expect:   []string{"OPQ"},
		},
		{
			name:     "remote only",
			criteria: Criteria{Remote: ptr(true)},
			expect:   []string{"Verify Numerical", "OPQ"},
		},
		{
			name:     "not adaptive",
			criteria: Criteria{Adaptive: ptr(false)},
			expect:   []string{"OPQ", "Assessment Centre"},
		},
		{
			name:     "query matches all words across name and description",
			criteria: Criteria{Query: "verify reasoning"},
			expect:   []string{"Verify Numerical"},
		},
		{
			name:     "combined",
			criteria: Criteria{Remote: ptr(true), Adaptive: ptr(false), Query: "work"},
			expect:   []string{"OPQ"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			input := items()
			got := names(Run(tt.criteria.Steps(), input, zap.NewNop()))

			if len(got) != len(tt.expect) {
				t.Fatalf("expected %v, got %v", tt.expect, got)
			}
			for i := range got {
				if got[i] != tt.expect[i] {
					t.Fatalf("expected %v, got %v", tt.expect, got)
				}
			}

			if input[0].Name != "Verify Numerical" || len(input) != 3 {
				t.Fatalf("input must not be modified: %v", names(input))
			}
		})
	}
}

func TestCriteriaEmptyAndDescribe(t *testing.T) {
	if !(Criteria{Query: "  "}).Empty() {
		t.Fatal("blank query must count as empty")
	}

	c := Criteria{TestType: "skills", Remote: ptr(false)}
	if c.Empty() {
		t.Fatal("expected non-empty criteria")
	}

	got := Describe(c.Steps())
	if len(got) != 2 || got[0] != "test_type" || got[1] != "remote_testing" {
		t.Fatalf("unexpected enabled steps: %v", got)
	}
}
