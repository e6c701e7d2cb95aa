package scraper

import (
	"net/url"
	"path"
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/spigell/assessment-recommender/internal/catalog"
)

const (
	genericName     = "SHL Assessment"
	genericTestType = "General"
)

var (
	nonWordChars = regexp.MustCompile(`[^\p{L}\p{N}\s]+`)
	spaceRuns    = regexp.MustCompile(`\s+`)

	// Path segments that never name a product.
	skippedSegments = map[string]struct{}{
		"solutions":   {},
		"products":    {},
		"assessments": {},
		"view":        {},
	}
	genericNames = map[string]struct{}{
		"home":        {},
		"solutions":   {},
		"products":    {},
		"assessments": {},
	}

	categoryNames = []struct {
		keyword string
		name    string
	}{
		{"personality", "Personality Assessment"},
		{"cognitive", "Cognitive Assessment"},
		{"skills", "Skills Assessment"},
		{"video-interviews", "Video Interview Assessment"},
		{"360", "360 Feedback Assessment"},
	}
)

// DeriveName picks a display name for a product page: the page title without the
// vendor marker, then the URL slug, then a category inferred from the URL.
func DeriveName(title, pageURL string) string {
	name := stripVendor(title)
	if name == "" {
		name = nameFromSlug(pageURL)
	}
	if _, generic := genericNames[strings.ToLower(name)]; name == "" || generic {
		name = categoryName(pageURL)
	}
	return name
}

// NormalizeName repairs a missing or placeholder name from the URL. When the URL
// says nothing useful the test type qualifies the generic name.
func NormalizeName(a catalog.Assessment) catalog.Assessment {
	if !a.Unnamed() {
		a.Name = strings.TrimSpace(a.Name)
		return a
	}

	a.Name = DeriveName("", a.URL)
	if a.Name == genericName {
		testType := strings.TrimSpace(a.TestType)
		if testType == "" {
			testType = genericTestType
		}
		a.Name = genericName + " - " + testType
	}
	return a
}

func stripVendor(title string) string {
	title = strings.ReplaceAll(title, " | SHL", "")
	title = strings.ReplaceAll(title, "SHL |", "")
	title = strings.ReplaceAll(title, "SHL", "")
	return strings.Trim(strings.TrimSpace(title), "|-– ")
}

func nameFromSlug(pageURL string) string {
	p := pageURL
	if u, err := url.Parse(pageURL); err == nil {
		p = u.Path
	}

	segments := strings.Split(strings.Trim(p, "/"), "/")
	for i := len(segments) - 1; i >= 0; i-- {
		seg, err := url.PathUnescape(segments[i])
		if err != nil {
			seg = segments[i]
		}
		if seg == "" {
			continue
		}
		if _, skip := skippedSegments[strings.ToLower(seg)]; skip {
			continue
		}

		seg = strings.TrimSuffix(seg, path.Ext(seg))
		seg = strings.NewReplacer("-", " ", "_", " ").Replace(seg)
		seg = nonWordChars.ReplaceAllString(seg, " ")
		seg = strings.TrimSpace(spaceRuns.ReplaceAllString(seg, " "))
		if seg == "" {
			continue
		}
		// A Caser keeps state between calls, so each call gets its own.
		return cases.Title(language.English).String(seg)
	}

	return ""
}

func categoryName(pageURL string) string {
	lower := strings.ToLower(pageURL)
	for _, c := range categoryNames {
		if strings.Contains(lower, c.keyword) {
			return c.name
		}
	}
	return genericName
}
