package importer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"procurement-backend/models"
)

func TestResolvePrefersExactNameMatch(t *testing.T) {
	searcher := &fakeSearcher{results: map[string][]models.CatalogItem{
		"laptop": {
			{ID: 1, Name: "Laptop Stand", Model: "LS-100"},
			{ID: 2, Name: "Laptop", Model: "LT-200"},
		},
	}}
	r := NewResolver(searcher)
	match := r.Resolve(context.Background(), "laptop")
	require.NotNil(t, match)
	assert.Equal(t, 2, match.ID)
}

func TestResolveMatchesModelCaseInsensitively(t *testing.T) {
	searcher := &fakeSearcher{results: map[string][]models.CatalogItem{
		"lt-200": {
			{ID: 1, Name: "Laptop Stand", Model: "LS-100"},
			{ID: 2, Name: "Laptop", Model: "LT-200"},
		},
	}}
	r := NewResolver(searcher)
	match := r.Resolve(context.Background(), "lt-200")
	require.NotNil(t, match)
	assert.Equal(t, 2, match.ID)
}

func TestResolveFallsBackToFirstCandidate(t *testing.T) {
	searcher := &fakeSearcher{results: map[string][]models.CatalogItem{
		"cable": {
			{ID: 7, Name: "HDMI Cable 2m", Model: "HD-2"},
			{ID: 8, Name: "HDMI Cable 5m", Model: "HD-5"},
		},
	}}
	r := NewResolver(searcher)
	match := r.Resolve(context.Background(), "cable")
	require.NotNil(t, match)
	assert.Equal(t, 7, match.ID)
}

func TestResolveNoCandidatesReturnsNil(t *testing.T) {
	r := NewResolver(&fakeSearcher{results: map[string][]models.CatalogItem{}})
	assert.Nil(t, r.Resolve(context.Background(), "unknown"))
}

func TestResolveTransportFailureReturnsNil(t *testing.T) {
	searcher := &fakeSearcher{failFor: map[string]bool{"flaky": true}}
	r := NewResolver(searcher)
	assert.Nil(t, r.Resolve(context.Background(), "flaky"))
}
