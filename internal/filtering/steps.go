package filtering

import (
	"strings"

	"github.com/spigell/assessment-recommender/internal/catalog"
)

type testTypeFilter struct {
	want string
}

// NewTestType keeps assessments whose test type contains want, ignoring case.
func NewTestType(want string) Filter {
	return &testTypeFilter{want: strings.ToLower(strings.TrimSpace(want))}
}

func (f *testTypeFilter) Name() string { return "test_type" }

func (f *testTypeFilter) IsEnabled() bool { return f.want != "" }

func (f *testTypeFilter) Apply(items []catalog.Assessment) ([]catalog.Assessment, Step) {
	return keep(items, func(a catalog.Assessment) bool {
		return strings.Contains(strings.ToLower(a.TestType), f.want)
	})
}

type flagFilter struct {
	name  string
	want  *bool
	field func(catalog.Assessment) bool
}

// NewRemote keeps assessments whose remote-testing flag equals want.
func NewRemote(want *bool) Filter {
	return &flagFilter{name: "remote_testing", want: want, field: func(a catalog.Assessment) bool { return a.RemoteTesting }}
}

// NewAdaptive keeps assessments whose adaptive-support flag equals want.
func NewAdaptive(want *bool) Filter {
	return &flagFilter{name: "adaptive_support", want: want, field: func(a catalog.Assessment) bool { return a.AdaptiveSupport }}
}

func (f *flagFilter) Name() string { return f.name }

func (f *flagFilter) IsEnabled() bool { return f.want != nil }

func (f *flagFilter) Apply(items []catalog.Assessment) ([]catalog.Assessment, Step) {
	return keep(items, func(a catalog.Assessment) bool { return f.field(a) == *f.want })
}

type queryFilter struct {
	terms []string
}

// NewQuery keeps assessments whose name or description contains every word of query.
func NewQuery(query string) Filter {
	return &queryFilter{terms: strings.Fields(strings.ToLower(query))}
}

func (f *queryFilter) Name() string { return "query" }

func (f *queryFilter) IsEnabled() bool { return len(f.terms) > 0 }

func (f *queryFilter) Apply(items []catalog.Assessment) ([]catalog.Assessment, Step) {
	return keep(items, func(a catalog.Assessment) bool {
		haystack := strings.ToLower(a.Name + " " + a.Description)
		for _, term := range f.terms {
			if !strings.Contains(haystack, term) {
				return false
			}
		}
		return true
	})
}
