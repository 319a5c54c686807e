// Package importer turns bulk-uploaded spreadsheet rows into purchase
// request line items: parsing, row validation, catalog matching with
// bounded concurrency and per-batch progress reporting.
package importer

import (
	"context"
	"log"
	"strings"

	"procurement-backend/models"
)

// CatalogSearcher is the single call the resolver needs from the
// item master.
type CatalogSearcher interface {
	Search(ctx context.Context, query string) ([]models.CatalogItem, error)
}

// Resolver matches a free-text item description against the catalog.
type Resolver struct {
	searcher CatalogSearcher
}

func NewResolver(searcher CatalogSearcher) *Resolver {
	return &Resolver{searcher: searcher}
}

// Resolve issues one catalog search. If any candidate's name or model
// equals the query case-insensitively that candidate wins, otherwise
// the first candidate does. Misses and transport failures both return
// nil so the caller can fall back to the raw row.
func (r *Resolver) Resolve(ctx context.Context, query string) *models.CatalogItem {
	candidates, err := r.searcher.Search(ctx, query)
	if err != nil {
		log.Printf("catalog search failed for %q: %v", query, err)
		return nil
	}
	if len(candidates) == 0 {
		return nil
	}
	for i := range candidates {
		if strings.EqualFold(candidates[i].Name, query) || strings.EqualFold(candidates[i].Model, query) {
			return &candidates[i]
		}
	}
	return &candidates[0]
}
