package importer

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"procurement-backend/models"
)

// BatchSize caps outstanding catalog searches. Batch N+1 does not
// start until every call of batch N has settled.
const BatchSize = 10

// Row is one parsed spreadsheet row. Quantity and UnitPrice stay raw
// text until validation so a bad cell is reported, not coerced.
type Row struct {
	Model       string
	Make        string
	Category    string
	SubCategory string
	UOM         string
	Description string
	Quantity    string
	UnitPrice   string
}

// BatchValidationError carries every invalid row found during
// pre-validation; nothing is resolved when it is returned.
type BatchValidationError struct {
	Rows []models.ImportRowError
}

func (e *BatchValidationError) Error() string {
	return fmt.Sprintf("%d invalid rows in import", len(e.Rows))
}

// ProgressFunc receives (itemsCompleted, totalItems) after each batch.
type ProgressFunc func(completed, total int)

// Engine drives the resolver over a row list.
type Engine struct {
	resolver  *Resolver
	batchSize int
	progress  ProgressFunc
}

func NewEngine(searcher CatalogSearcher, progress ProgressFunc) *Engine {
	return &Engine{
		resolver:  NewResolver(searcher),
		batchSize: BatchSize,
		progress:  progress,
	}
}

// ValidateRows checks every row before any resolution and collects
// all problems: empty model name, non-positive or non-numeric
// quantity, non-numeric unit price. Unit price is optional and
// defaults to 0.
func ValidateRows(rows []Row) []models.ImportRowError {
	var errs []models.ImportRowError
	for i, row := range rows {
		if strings.TrimSpace(row.Model) == "" {
			errs = append(errs, models.ImportRowError{Row: i, Field: "model", Message: "model name is required"})
		}
		qty, err := strconv.ParseFloat(strings.TrimSpace(row.Quantity), 64)
		if err != nil {
			errs = append(errs, models.ImportRowError{Row: i, Field: "quantity", Message: "quantity must be a number"})
		} else if qty <= 0 {
			errs = append(errs, models.ImportRowError{Row: i, Field: "quantity", Message: "quantity must be a positive number"})
		}
		if strings.TrimSpace(row.UnitPrice) != "" {
			if _, err := strconv.ParseFloat(strings.TrimSpace(row.UnitPrice), 64); err != nil {
				errs = append(errs, models.ImportRowError{Row: i, Field: "unit_price", Message: "unit price must be a number"})
			}
		}
	}
	return errs
}

// Run resolves every row against the catalog in fixed-size batches
// and returns one purchase-request item per input row, in input
// order. Resolver hits take catalog category/sub-category/UOM/make
// but keep the spreadsheet's quantity, unit price and description;
// misses and failures keep the row's raw text verbatim with item id
// 0 as the unresolved marker.
func (e *Engine) Run(ctx context.Context, rows []Row) ([]models.PurchaseRequestItem, error) {
	if errs := ValidateRows(rows); len(errs) > 0 {
		return nil, &BatchValidationError{Rows: errs}
	}

	items := make([]models.PurchaseRequestItem, len(rows))
	total := len(rows)
	for start := 0; start < total; start += e.batchSize {
		end := start + e.batchSize
		if end > total {
			end = total
		}
		var wg sync.WaitGroup
		for i := start; i < end; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				items[i] = e.resolveRow(ctx, rows[i])
			}(i)
		}
		wg.Wait()
		if e.progress != nil {
			e.progress(end, total)
		}
	}
	return items, nil
}

func (e *Engine) resolveRow(ctx context.Context, row Row) models.PurchaseRequestItem {
	qty, _ := strconv.ParseFloat(strings.TrimSpace(row.Quantity), 64)
	price := 0.0
	if strings.TrimSpace(row.UnitPrice) != "" {
		price, _ = strconv.ParseFloat(strings.TrimSpace(row.UnitPrice), 64)
	}

	item := models.PurchaseRequestItem{
		Name:        strings.TrimSpace(row.Model),
		Make:        strings.TrimSpace(row.Make),
		Category:    strings.TrimSpace(row.Category),
		SubCategory: strings.TrimSpace(row.SubCategory),
		UOM:         strings.TrimSpace(row.UOM),
		Description: strings.TrimSpace(row.Description),
		Quantity:    qty,
		UnitPrice:   price,
	}

	match := e.resolver.Resolve(ctx, item.Name)
	if match == nil {
		// unresolved marker, raw row text kept verbatim
		item.ItemID = 0
		return item
	}
	item.ItemID = match.ID
	item.Make = match.Make
	item.Category = match.Category
	item.SubCategory = match.SubCategory
	item.UOM = match.UOM
	return item
}
