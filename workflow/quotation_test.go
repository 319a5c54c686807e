package workflow

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"procurement-backend/models"
)

func laptopLines(price float64) []models.QuotationLineRequest {
	return []models.QuotationLineRequest{
		{ItemName: "Laptop", Quantity: 10, UOM: "Nos", UnitPrice: price, TaxRate: 18},
	}
}

func submittedQuotation(t *testing.T) (*models.RFP, *models.RFPQuotation) {
	t.Helper()
	rfp := floatedRFP(t)
	q, err := SubmitQuotation(rfp, models.SubmitQuotationRequest{
		SupplierID:      501,
		QuotationNumber: "QT/2026/001",
		PaymentTerms:    "Net 30",
		Items:           laptopLines(45000),
	}, testNow)
	require.NoError(t, err)
	q.ID = 9001
	q.Items[0].QuotationID = 9001
	return rfp, q
}

func TestSubmitQuotationComputesTotalsWithTax(t *testing.T) {
	_, q := submittedQuotation(t)

	assert.Equal(t, models.QuotationSubmitted, q.Status)
	assert.Equal(t, 1, q.Version)
	assert.Equal(t, 450000.0, q.Subtotal)
	// 10 * 45000 * 1.18
	assert.Equal(t, 531000.0, q.NetAmount)
	assert.Equal(t, 81000.0, q.TaxAmount)
	assert.Equal(t, 531000.0, q.Items[0].TotalPrice)
}

func TestSubmitQuotationMarksSupplierResponded(t *testing.T) {
	rfp, _ := submittedQuotation(t)
	sup := findSupplier(rfp, 501)
	require.NotNil(t, sup)
	assert.True(t, sup.Responded)
	assert.Equal(t, models.SupplierResponded, sup.Status)
}

func TestSubmitQuotationRequiresInvitedSupplier(t *testing.T) {
	rfp := floatedRFP(t)
	_, err := SubmitQuotation(rfp, models.SubmitQuotationRequest{SupplierID: 999, Items: laptopLines(100)}, testNow)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "supplier_id", verr.Field)
}

func TestSubmitQuotationRequiresFloatedRFP(t *testing.T) {
	rfp := createdRFP(t)
	_, err := SubmitQuotation(rfp, models.SubmitQuotationRequest{SupplierID: 501, Items: laptopLines(100)}, testNow)
	var serr *StateTransitionError
	require.ErrorAs(t, err, &serr)
}

func TestSecondSubmissionBySameSupplierRejected(t *testing.T) {
	rfp, _ := submittedQuotation(t)
	_, err := SubmitQuotation(rfp, models.SubmitQuotationRequest{SupplierID: 501, Items: laptopLines(43000)}, testNow)
	var serr *StateTransitionError
	require.ErrorAs(t, err, &serr)
	assert.Len(t, rfp.Quotations, 1)
}

func TestWithdrawnSupplierMaySubmitAgain(t *testing.T) {
	rfp, q := submittedQuotation(t)
	_, err := WithdrawQuotation(rfp, q.ID, testNow)
	require.NoError(t, err)

	q2, err := SubmitQuotation(rfp, models.SubmitQuotationRequest{SupplierID: 501, Items: laptopLines(42000)}, testNow.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, models.QuotationSubmitted, q2.Status)

	// uniqueness invariant: one non-withdrawn quotation per supplier
	active := 0
	for _, qq := range rfp.Quotations {
		if qq.SupplierID == 501 && qq.Status != models.QuotationWithdrawn {
			active++
		}
	}
	assert.Equal(t, 1, active)
}

func TestQuotationNumberUniqueWithinRFP(t *testing.T) {
	rfp, _ := submittedQuotation(t)
	_, err := SubmitQuotation(rfp, models.SubmitQuotationRequest{
		SupplierID:      502,
		QuotationNumber: "QT/2026/001",
		Items:           laptopLines(44000),
	}, testNow)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "quotation_number", verr.Field)
}

func TestSubmitQuotationCollectsLineErrors(t *testing.T) {
	rfp := floatedRFP(t)
	_, err := SubmitQuotation(rfp, models.SubmitQuotationRequest{
		SupplierID: 501,
		Items: []models.QuotationLineRequest{
			{ItemName: "", Quantity: 0, UnitPrice: -5},
		},
	}, testNow)
	var verrs *ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.Len(t, verrs.Errors, 3)
}

func TestNegotiateMovesToNegotiation(t *testing.T) {
	rfp, q := submittedQuotation(t)
	got, err := NegotiateQuotation(rfp, q.ID, "Please revisit laptop pricing", testNow)
	require.NoError(t, err)
	assert.Equal(t, models.QuotationNegotiation, got.Status)
	assert.Equal(t, "Please revisit laptop pricing", got.Notes)
	assert.Equal(t, models.RFPNegotiation, rfp.Status)
}

func TestNegotiateTwiceIsError(t *testing.T) {
	rfp, q := submittedQuotation(t)
	_, err := NegotiateQuotation(rfp, q.ID, "", testNow)
	require.NoError(t, err)

	_, err = NegotiateQuotation(rfp, q.ID, "", testNow)
	var serr *StateTransitionError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, "NEGOTIATION", serr.From)
}

func TestNegotiateUnknownQuotation(t *testing.T) {
	rfp, _ := submittedQuotation(t)
	_, err := NegotiateQuotation(rfp, 424242, "", testNow)
	var nf *NotFoundError
	require.ErrorAs(t, err, &nf)
}

func TestPriceRatchetRejectsHigherPrice(t *testing.T) {
	rfp, q := submittedQuotation(t)
	_, err := NegotiateQuotation(rfp, q.ID, "", testNow)
	require.NoError(t, err)

	_, err = ResubmitQuotation(rfp, q.ID, 0, laptopLines(46000), testNow)
	var ratchet *PriceRatchetViolation
	require.ErrorAs(t, err, &ratchet)
	assert.Equal(t, "Laptop", ratchet.ItemName)
	assert.Equal(t, 45000.0, ratchet.PreviousPrice)
	assert.Equal(t, 46000.0, ratchet.OfferedPrice)

	// whole re-submission rejected unchanged
	assert.Equal(t, 45000.0, q.Items[0].UnitPrice)
	assert.Equal(t, 1, q.Version)
}

func TestPriceRatchetAcceptsLowerPriceAndRecomputes(t *testing.T) {
	rfp, q := submittedQuotation(t)
	_, err := NegotiateQuotation(rfp, q.ID, "", testNow)
	require.NoError(t, err)

	got, err := ResubmitQuotation(rfp, q.ID, 1, laptopLines(44000), testNow.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, models.QuotationNegotiation, got.Status)
	assert.Equal(t, 2, got.Version)
	assert.Equal(t, 440000.0, got.Subtotal)
	assert.Equal(t, 519200.0, got.NetAmount)
}

func TestPriceRatchetEqualPriceAllowed(t *testing.T) {
	rfp, q := submittedQuotation(t)
	_, err := NegotiateQuotation(rfp, q.ID, "", testNow)
	require.NoError(t, err)

	_, err = ResubmitQuotation(rfp, q.ID, 0, laptopLines(45000), testNow)
	assert.NoError(t, err)
}

func TestPriceRatchetComparesAgainstLatestSubmission(t *testing.T) {
	rfp, q := submittedQuotation(t)
	_, err := NegotiateQuotation(rfp, q.ID, "", testNow)
	require.NoError(t, err)
	_, err = ResubmitQuotation(rfp, q.ID, 0, laptopLines(44000), testNow)
	require.NoError(t, err)

	// 44500 is below the first submission but above the latest one
	_, err = ResubmitQuotation(rfp, q.ID, 0, laptopLines(44500), testNow)
	var ratchet *PriceRatchetViolation
	require.ErrorAs(t, err, &ratchet)
	assert.Equal(t, 44000.0, ratchet.PreviousPrice)
}

func TestRatchetViolationOnOneItemRejectsAll(t *testing.T) {
	rfp := floatedRFP(t)
	q, err := SubmitQuotation(rfp, models.SubmitQuotationRequest{
		SupplierID: 501,
		Items: []models.QuotationLineRequest{
			{ItemName: "Laptop", Quantity: 10, UnitPrice: 45000, TaxRate: 18},
			{ItemName: "Docking Station", Quantity: 10, UnitPrice: 7500, TaxRate: 18},
		},
	}, testNow)
	require.NoError(t, err)
	_, err = NegotiateQuotation(rfp, q.ID, "", testNow)
	require.NoError(t, err)

	// laptop drops but docking station climbs: everything rejected
	_, err = ResubmitQuotation(rfp, q.ID, 0, []models.QuotationLineRequest{
		{ItemName: "Laptop", Quantity: 10, UnitPrice: 43000, TaxRate: 18},
		{ItemName: "Docking Station", Quantity: 10, UnitPrice: 7600, TaxRate: 18},
	}, testNow)
	var ratchet *PriceRatchetViolation
	require.ErrorAs(t, err, &ratchet)
	assert.Equal(t, "Docking Station", ratchet.ItemName)
	assert.Equal(t, 45000.0, q.Items[0].UnitPrice)
	assert.Equal(t, 7500.0, q.Items[1].UnitPrice)
}

func TestResubmitRejectsUnknownItem(t *testing.T) {
	rfp, q := submittedQuotation(t)
	_, err := NegotiateQuotation(rfp, q.ID, "", testNow)
	require.NoError(t, err)

	_, err = ResubmitQuotation(rfp, q.ID, 0, []models.QuotationLineRequest{
		{ItemName: "Monitor", Quantity: 5, UnitPrice: 9000, TaxRate: 18},
	}, testNow)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
}

func TestResubmitRequiresNegotiationStatus(t *testing.T) {
	rfp, q := submittedQuotation(t)
	_, err := ResubmitQuotation(rfp, q.ID, 0, laptopLines(44000), testNow)
	var serr *StateTransitionError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, "SUBMITTED", serr.From)
}

func TestResubmitStaleVersionConflicts(t *testing.T) {
	rfp, q := submittedQuotation(t)
	_, err := NegotiateQuotation(rfp, q.ID, "", testNow)
	require.NoError(t, err)
	_, err = ResubmitQuotation(rfp, q.ID, 1, laptopLines(44000), testNow)
	require.NoError(t, err)

	// second actor still holds version 1
	_, err = ResubmitQuotation(rfp, q.ID, 1, laptopLines(43000), testNow)
	var conflict *VersionConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, 2, conflict.Expected)
}

func TestRatchetMatchesItemsByNormalizedName(t *testing.T) {
	rfp, q := submittedQuotation(t)
	_, err := NegotiateQuotation(rfp, q.ID, "", testNow)
	require.NoError(t, err)

	_, err = ResubmitQuotation(rfp, q.ID, 0, []models.QuotationLineRequest{
		{ItemName: "  laptop ", Quantity: 10, UnitPrice: 44000, TaxRate: 18},
	}, testNow)
	assert.NoError(t, err)
}
