package workflow

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"procurement-backend/models"
)

var supplierNames = map[int]string{
	501: "ABC Suppliers",
	502: "XYZ Traders",
	503: "Metro Supplies",
}

// threeQuoteRFP: three suppliers quote "Laptop", two also quote
// "Docking Station".
func threeQuoteRFP(t *testing.T) *models.RFP {
	t.Helper()
	rfp := createdRFP(t)
	require.NoError(t, FloatRFP(rfp, []int{501, 502, 503}, nil, testNow.Add(72*time.Hour), testNow))

	submit := func(supplierID int, at time.Time, lines []models.QuotationLineRequest) {
		q, err := SubmitQuotation(rfp, models.SubmitQuotationRequest{SupplierID: supplierID, Items: lines}, at)
		require.NoError(t, err)
		q.ID = supplierID * 10
	}
	submit(501, testNow, []models.QuotationLineRequest{
		{ItemName: "Laptop", Quantity: 10, UnitPrice: 45000, TaxRate: 18},
		{ItemName: "Docking Station", Quantity: 10, UnitPrice: 7500, TaxRate: 18},
	})
	submit(502, testNow.Add(time.Hour), []models.QuotationLineRequest{
		{ItemName: "laptop", Quantity: 10, UnitPrice: 43500, TaxRate: 18},
		{ItemName: "Docking Station", Quantity: 10, UnitPrice: 7900, TaxRate: 18},
	})
	submit(503, testNow.Add(2*time.Hour), []models.QuotationLineRequest{
		{ItemName: "Laptop", Quantity: 10, UnitPrice: 45000, TaxRate: 18},
	})
	return rfp
}

func TestEvaluateRanksByPriceThenDate(t *testing.T) {
	rfp := threeQuoteRFP(t)
	comparison, err := Evaluate(rfp, supplierNames)
	require.NoError(t, err)
	require.Len(t, comparison, 2)

	laptop := comparison[0]
	assert.Equal(t, "Laptop", laptop.ItemName)
	require.Len(t, laptop.Quotes, 3)
	// L1 is the cheapest; 501 and 503 tie at 45000 and the earlier
	// submission wins L2
	assert.Equal(t, 502, laptop.Quotes[0].SupplierID)
	assert.Equal(t, 1, laptop.Quotes[0].Rank)
	assert.Equal(t, 501, laptop.Quotes[1].SupplierID)
	assert.Equal(t, 503, laptop.Quotes[2].SupplierID)

	dock := comparison[1]
	assert.Equal(t, "Docking Station", dock.ItemName)
	require.Len(t, dock.Quotes, 2)
	assert.Equal(t, 501, dock.Quotes[0].SupplierID)
	assert.Equal(t, "ABC Suppliers", dock.Quotes[0].SupplierName)
}

func TestEvaluateIsIdempotent(t *testing.T) {
	rfp := threeQuoteRFP(t)
	first, err := Evaluate(rfp, supplierNames)
	require.NoError(t, err)
	second, err := Evaluate(rfp, supplierNames)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestEvaluateMovesSubmittedToUnderEvaluation(t *testing.T) {
	rfp := threeQuoteRFP(t)
	_, err := Evaluate(rfp, supplierNames)
	require.NoError(t, err)
	for _, q := range rfp.Quotations {
		assert.Equal(t, models.QuotationUnderEvaluation, q.Status)
	}
}

func TestEvaluateWithoutQuotationsFails(t *testing.T) {
	rfp := floatedRFP(t)
	_, err := Evaluate(rfp, supplierNames)
	var serr *StateTransitionError
	require.ErrorAs(t, err, &serr)
}

func TestEvaluateSkipsWithdrawnQuotations(t *testing.T) {
	rfp := threeQuoteRFP(t)
	_, err := WithdrawQuotation(rfp, 5020, testNow)
	require.NoError(t, err)

	comparison, err := Evaluate(rfp, supplierNames)
	require.NoError(t, err)
	for _, item := range comparison {
		for _, q := range item.Quotes {
			assert.NotEqual(t, 502, q.SupplierID)
		}
	}
}

func TestEvaluateJoinsItemsAcrossSpellings(t *testing.T) {
	// 502 wrote "laptop" in lowercase; it still ranks under the same item
	rfp := threeQuoteRFP(t)
	comparison, err := Evaluate(rfp, supplierNames)
	require.NoError(t, err)
	assert.Len(t, comparison, 2)
}
