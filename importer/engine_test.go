package importer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"procurement-backend/models"
)

// fakeSearcher serves canned catalog results and tracks how many
// searches are in flight at once.
type fakeSearcher struct {
	mu          sync.Mutex
	inFlight    int
	maxInFlight int
	calls       int
	results     map[string][]models.CatalogItem
	failFor     map[string]bool
}

func (f *fakeSearcher) Search(ctx context.Context, query string) ([]models.CatalogItem, error) {
	f.mu.Lock()
	f.inFlight++
	if f.inFlight > f.maxInFlight {
		f.maxInFlight = f.inFlight
	}
	f.calls++
	f.mu.Unlock()

	defer func() {
		f.mu.Lock()
		f.inFlight--
		f.mu.Unlock()
	}()

	if f.failFor[query] {
		return nil, errors.New("catalog endpoint unavailable")
	}
	return f.results[query], nil
}

func validRow(model string) Row {
	return Row{Model: model, Make: "Generic", Category: "Raw", SubCategory: "Misc", UOM: "Nos", Quantity: "5", UnitPrice: "100"}
}

func TestRunEmitsOneItemPerRowInOrder(t *testing.T) {
	searcher := &fakeSearcher{results: map[string][]models.CatalogItem{}}
	rows := make([]Row, 25)
	for i := range rows {
		rows[i] = validRow(fmt.Sprintf("Item-%02d", i))
	}

	engine := NewEngine(searcher, nil)
	items, err := engine.Run(context.Background(), rows)
	require.NoError(t, err)
	require.Len(t, items, 25)
	for i, item := range items {
		assert.Equal(t, fmt.Sprintf("Item-%02d", i), item.Name)
	}
}

func TestRunReportsProgressPerBatch(t *testing.T) {
	searcher := &fakeSearcher{results: map[string][]models.CatalogItem{}}
	rows := make([]Row, 25)
	for i := range rows {
		rows[i] = validRow(fmt.Sprintf("Item-%02d", i))
	}

	var progress [][2]int
	engine := NewEngine(searcher, func(completed, total int) {
		progress = append(progress, [2]int{completed, total})
	})
	_, err := engine.Run(context.Background(), rows)
	require.NoError(t, err)
	assert.Equal(t, [][2]int{{10, 25}, {20, 25}, {25, 25}}, progress)
}

func TestRunNeverExceedsBatchSizeInFlight(t *testing.T) {
	searcher := &fakeSearcher{results: map[string][]models.CatalogItem{}}
	rows := make([]Row, 37)
	for i := range rows {
		rows[i] = validRow(fmt.Sprintf("Item-%02d", i))
	}

	engine := NewEngine(searcher, nil)
	_, err := engine.Run(context.Background(), rows)
	require.NoError(t, err)
	assert.LessOrEqual(t, searcher.maxInFlight, BatchSize)
	assert.Equal(t, 37, searcher.calls)
}

func TestResolvedRowTakesCatalogDataButKeepsSpreadsheetFigures(t *testing.T) {
	searcher := &fakeSearcher{results: map[string][]models.CatalogItem{
		"ThinkPad E14": {{
			ID: 204, Name: "ThinkPad E14", Model: "ThinkPad E14",
			Make: "Lenovo", Category: "IT Hardware", SubCategory: "Laptops", UOM: "Nos",
		}},
	}}
	row := Row{
		Model: "ThinkPad E14", Make: "typo-make", Category: "typo-cat",
		SubCategory: "typo-sub", UOM: "pcs", Description: "for finance team",
		Quantity: "10", UnitPrice: "45000",
	}
	engine := NewEngine(searcher, nil)
	items, err := engine.Run(context.Background(), []Row{row})
	require.NoError(t, err)

	item := items[0]
	assert.Equal(t, 204, item.ItemID)
	assert.Equal(t, "Lenovo", item.Make)
	assert.Equal(t, "IT Hardware", item.Category)
	assert.Equal(t, "Laptops", item.SubCategory)
	assert.Equal(t, "Nos", item.UOM)
	// spreadsheet figures win over catalog data
	assert.Equal(t, 10.0, item.Quantity)
	assert.Equal(t, 45000.0, item.UnitPrice)
	assert.Equal(t, "for finance team", item.Description)
}

func TestUnresolvedRowKeepsRawTextWithZeroItemID(t *testing.T) {
	searcher := &fakeSearcher{results: map[string][]models.CatalogItem{}}
	row := validRow("Mystery Widget")
	engine := NewEngine(searcher, nil)
	items, err := engine.Run(context.Background(), []Row{row})
	require.NoError(t, err)

	assert.Equal(t, 0, items[0].ItemID)
	assert.Equal(t, "Generic", items[0].Make)
	assert.Equal(t, "Raw", items[0].Category)
}

func TestSearchFailureFallsBackInsteadOfAborting(t *testing.T) {
	searcher := &fakeSearcher{
		results: map[string][]models.CatalogItem{},
		failFor: map[string]bool{"Item-03": true},
	}
	rows := make([]Row, 5)
	for i := range rows {
		rows[i] = validRow(fmt.Sprintf("Item-%02d", i))
	}
	engine := NewEngine(searcher, nil)
	items, err := engine.Run(context.Background(), rows)
	require.NoError(t, err)
	require.Len(t, items, 5)
	assert.Equal(t, 0, items[3].ItemID)
	assert.Equal(t, "Item-03", items[3].Name)
}

func TestValidationCollectsAllRowErrors(t *testing.T) {
	rows := []Row{
		validRow("ok"),
		{Model: "", Quantity: "5"},
		{Model: "Bad Qty", Quantity: "-2"},
		{Model: "Word Qty", Quantity: "ten"},
		{Model: "Bad Price", Quantity: "3", UnitPrice: "cheap"},
	}
	engine := NewEngine(&fakeSearcher{}, nil)
	items, err := engine.Run(context.Background(), rows)
	require.Nil(t, items)

	var batchErr *BatchValidationError
	require.ErrorAs(t, err, &batchErr)
	require.Len(t, batchErr.Rows, 4)
	assert.Equal(t, 1, batchErr.Rows[0].Row)
	assert.Equal(t, "model", batchErr.Rows[0].Field)
	assert.Equal(t, 2, batchErr.Rows[1].Row)
	assert.Equal(t, 3, batchErr.Rows[2].Row)
	assert.Equal(t, "unit_price", batchErr.Rows[3].Field)
}

func TestValidationRunsBeforeAnyResolution(t *testing.T) {
	searcher := &fakeSearcher{}
	rows := []Row{validRow("fine"), {Model: "", Quantity: "1"}}
	engine := NewEngine(searcher, nil)
	_, err := engine.Run(context.Background(), rows)
	require.Error(t, err)
	assert.Equal(t, 0, searcher.calls)
}

func TestMissingUnitPriceDefaultsToZero(t *testing.T) {
	searcher := &fakeSearcher{results: map[string][]models.CatalogItem{}}
	row := Row{Model: "No Price", Quantity: "2"}
	engine := NewEngine(searcher, nil)
	items, err := engine.Run(context.Background(), []Row{row})
	require.NoError(t, err)
	assert.Equal(t, 0.0, items[0].UnitPrice)
	assert.Equal(t, 2.0, items[0].Quantity)
}
