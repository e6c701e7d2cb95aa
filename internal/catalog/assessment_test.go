package catalog

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalogStale(t *testing.T) {
	now := time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)

	var missing *Catalog
	assert.True(t, missing.Stale(now, time.Hour))
	assert.True(t, (&Catalog{}).Stale(now, time.Hour))

	c := &Catalog{RefreshedAt: now.Add(-59 * time.Minute)}
	assert.False(t, c.Stale(now, time.Hour))

	c.RefreshedAt = now.Add(-time.Hour)
	assert.True(t, c.Stale(now, time.Hour))
}

func TestCatalogLookups(t *testing.T) {
	c := &Catalog{Assessments: []Assessment{
		{Name: "Verify Interactive", URL: "https://example.com/products/verify/"},
		{Name: UnknownProductName, URL: "https://example.com/products/opq"},
		{Name: " ", URL: "https://example.com/products/mq"},
	}}

	assert.Equal(t, "Verify Interactive", c.FindByURL("https://example.com/products/verify").Name)
	assert.Equal(t, "https://example.com/products/opq", c.FindByURL("https://example.com/products/opq/").URL)
	assert.Nil(t, c.FindByURL("https://example.com/other"))

	assert.Equal(t, "https://example.com/products/verify/", c.FindByName("verify interactive").URL)
	assert.Nil(t, c.FindByName(""))

	assert.Equal(t, 2, c.UnnamedCount())
}

func TestDedupeKeepsFirstOccurrence(t *testing.T) {
	items := []Assessment{
		{Name: "first", URL: "https://example.com/a/"},
		{Name: "second", URL: "https://example.com/b"},
		{Name: "dup", URL: "https://example.com/a"},
		{Name: "no url"},
	}

	got := Dedupe(items)

	assert.Equal(t, []Assessment{
		{Name: "first", URL: "https://example.com/a/"},
		{Name: "second", URL: "https://example.com/b"},
	}, got)
}

func TestAssessmentJSONKeepsEmptyFields(t *testing.T) {
	data, err := json.Marshal(Assessment{Name: "OPQ", URL: "https://example.com/products/opq/"})
	require.NoError(t, err)

	var fields map[string]any
	require.NoError(t, json.Unmarshal(data, &fields))

	for _, key := range []string{"name", "url", "description", "remote_testing", "adaptive_support", "duration", "test_type"} {
		assert.Contains(t, fields, key)
	}
	assert.Equal(t, "", fields["description"])
}
