// Package catalog holds the assessment catalog and its on-disk, read-through cache.
package catalog

import (
	"strings"
	"time"
)

// UnknownProductName marks a record whose name could not be scraped.
const UnknownProductName = "Unknown Product"

// Assessment is a single product scraped from the vendor catalog. URL is its identity.
type Assessment struct {
	Name            string `json:"name"`
	URL             string `json:"url"`
	Description     string `json:"description"`
	RemoteTesting   bool   `json:"remote_testing"`
	AdaptiveSupport bool   `json:"adaptive_support"`
	Duration        string `json:"duration"`
	TestType        string `json:"test_type"`
}

// Unnamed reports whether the record still needs a name.
func (a Assessment) Unnamed() bool {
	name := strings.TrimSpace(a.Name)
	return name == "" || name == UnknownProductName
}

// Catalog is a whole-catalog snapshot. It is replaced, never mutated, on refresh,
// so callers must treat the returned value as read-only.
type Catalog struct {
	Assessments []Assessment `json:"assessments"`
	RefreshedAt time.Time    `json:"timestamp"`
}

func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.Assessments)
}

// Stale reports whether the snapshot is older than the freshness window at now.
func (c *Catalog) Stale(now time.Time, window time.Duration) bool {
	if c == nil || c.RefreshedAt.IsZero() {
		return true
	}
	return now.Sub(c.RefreshedAt) >= window
}

// UnnamedCount returns how many records carry no usable name.
func (c *Catalog) UnnamedCount() int {
	if c == nil {
		return 0
	}
	count := 0
	for _, a := range c.Assessments {
		if a.Unnamed() {
			count++
		}
	}
	return count
}

// FindByURL returns the record with the given url or nil.
func (c *Catalog) FindByURL(url string) *Assessment {
	if c == nil {
		return nil
	}
	url = normalizeURL(url)
	for i := range c.Assessments {
		if normalizeURL(c.Assessments[i].URL) == url {
			return &c.Assessments[i]
		}
	}
	return nil
}

// FindByName returns the first record whose name matches case-insensitively.
func (c *Catalog) FindByName(name string) *Assessment {
	if c == nil {
		return nil
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil
	}
	for i := range c.Assessments {
		if strings.EqualFold(strings.TrimSpace(c.Assessments[i].Name), name) {
			return &c.Assessments[i]
		}
	}
	return nil
}

// Dedupe drops records with an already seen URL, keeping the first occurrence.
func Dedupe(items []Assessment) []Assessment {
	seen := make(map[string]struct{}, len(items))
	out := make([]Assessment, 0, len(items))
	for _, a := range items {
		key := normalizeURL(a.URL)
		if key == "" {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, a)
	}
	return out
}

func normalizeURL(u string) string {
	u = strings.TrimSpace(u)
	return strings.TrimSuffix(u, "/")
}
