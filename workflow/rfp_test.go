package workflow

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"procurement-backend/models"
)

var testNow = time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)

func draftRFP() *models.RFP {
	return &models.RFP{
		ID:        101,
		RFPNumber: "RFP/AB12345",
		Title:     "IT Hardware FY26",
		Status:    models.RFPDraft,
		Items: []models.RFPItem{
			{ID: 1, RFPID: 101, Name: "Laptop", Quantity: 10, UOM: "Nos", IndicativePrice: 50000, TargetUnitPrice: 45000},
			{ID: 2, RFPID: 101, Name: "Docking Station", Quantity: 10, UOM: "Nos", IndicativePrice: 8000, TargetUnitPrice: 7000},
		},
	}
}

func createdRFP(t *testing.T) *models.RFP {
	t.Helper()
	rfp := draftRFP()
	require.NoError(t, SubmitRFP(rfp, testNow))
	return rfp
}

func floatedRFP(t *testing.T) *models.RFP {
	t.Helper()
	rfp := createdRFP(t)
	require.NoError(t, FloatRFP(rfp, []int{501, 502}, nil, testNow.Add(72*time.Hour), testNow))
	return rfp
}

func TestSubmitRFPComputesItemTotals(t *testing.T) {
	rfp := draftRFP()
	require.NoError(t, SubmitRFP(rfp, testNow))
	assert.Equal(t, models.RFPCreated, rfp.Status)
	assert.Equal(t, 500000.0, rfp.Items[0].GrandTotal)
	assert.Equal(t, 80000.0, rfp.Items[1].GrandTotal)
}

func TestSubmitRFPRequiresItems(t *testing.T) {
	rfp := draftRFP()
	rfp.Items = nil
	err := SubmitRFP(rfp, testNow)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, models.RFPDraft, rfp.Status)
}

func TestFloatRFPWithNoRecipientsFails(t *testing.T) {
	rfp := createdRFP(t)
	err := FloatRFP(rfp, nil, nil, testNow.Add(24*time.Hour), testNow)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "suppliers", verr.Field)
	assert.Equal(t, models.RFPCreated, rfp.Status)
	assert.Empty(t, rfp.Suppliers)
}

func TestFloatRFPRequiresFutureClosingDate(t *testing.T) {
	rfp := createdRFP(t)
	err := FloatRFP(rfp, []int{501}, nil, testNow, testNow)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "closing_date", verr.Field)
}

func TestFloatRFPInvitesRegisteredAndUnregistered(t *testing.T) {
	rfp := createdRFP(t)
	unreg := []models.UnregisteredInvitee{{Email: "sales@newvendor.example.com", Name: "New Vendor"}}
	require.NoError(t, FloatRFP(rfp, []int{501}, unreg, testNow.Add(24*time.Hour), testNow))

	assert.Equal(t, models.RFPFloated, rfp.Status)
	require.Len(t, rfp.Suppliers, 2)
	assert.True(t, rfp.Suppliers[0].Registered)
	assert.Equal(t, 501, rfp.Suppliers[0].SupplierID)
	assert.False(t, rfp.Suppliers[1].Registered)
	assert.Equal(t, "sales@newvendor.example.com", rfp.Suppliers[1].Email)
	for _, s := range rfp.Suppliers {
		assert.Equal(t, models.SupplierInvited, s.Status)
	}
}

func TestFloatRFPOnlyUnregisteredIsEnough(t *testing.T) {
	rfp := createdRFP(t)
	unreg := []models.UnregisteredInvitee{{Email: "only@vendor.example.com"}}
	require.NoError(t, FloatRFP(rfp, nil, unreg, testNow.Add(24*time.Hour), testNow))
	assert.Equal(t, models.RFPFloated, rfp.Status)
}

func TestFloatRFPRejectsDuplicateSupplierIDs(t *testing.T) {
	rfp := createdRFP(t)
	err := FloatRFP(rfp, []int{501, 501}, nil, testNow.Add(24*time.Hour), testNow)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
}

func TestFloatRFPFromDraftIsStateError(t *testing.T) {
	rfp := draftRFP()
	err := FloatRFP(rfp, []int{501}, nil, testNow.Add(24*time.Hour), testNow)
	var serr *StateTransitionError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, "DRAFT", serr.From)
}

func TestExtendClosingDateMustMoveForward(t *testing.T) {
	rfp := floatedRFP(t)
	current := rfp.ClosingDate

	err := ExtendClosingDate(rfp, current, testNow)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)

	require.NoError(t, ExtendClosingDate(rfp, current.Add(48*time.Hour), testNow))
	assert.Equal(t, current.Add(48*time.Hour), rfp.ClosingDate)
}

func TestCancelRequiresReason(t *testing.T) {
	rfp := floatedRFP(t)
	err := CancelRFP(rfp, "  ", testNow)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)

	require.NoError(t, CancelRFP(rfp, "Budget withdrawn", testNow))
	assert.Equal(t, models.RFPCancelled, rfp.Status)
	assert.Equal(t, "Budget withdrawn", rfp.CancelReason)
}

func TestCancelTerminalRFPFails(t *testing.T) {
	rfp := floatedRFP(t)
	require.NoError(t, CancelRFP(rfp, "done", testNow))
	err := CancelRFP(rfp, "again", testNow)
	var serr *StateTransitionError
	require.ErrorAs(t, err, &serr)
}

func TestDeleteOnlyFromDraftOrCreated(t *testing.T) {
	assert.NoError(t, DeleteRFP(draftRFP()))
	assert.NoError(t, DeleteRFP(createdRFP(t)))

	err := DeleteRFP(floatedRFP(t))
	var serr *StateTransitionError
	require.ErrorAs(t, err, &serr)
}

func TestCloseOnlyFromApproved(t *testing.T) {
	rfp := floatedRFP(t)
	err := CloseRFP(rfp, testNow)
	var serr *StateTransitionError
	require.ErrorAs(t, err, &serr)

	rfp.Status = models.RFPApproved
	require.NoError(t, CloseRFP(rfp, testNow))
	assert.Equal(t, models.RFPClosed, rfp.Status)
}

func TestRFPStatusGraphHasNoSkips(t *testing.T) {
	// every recorded edge is one hop; a few known non-edges stay closed
	assert.True(t, CanTransitionRFP(models.RFPDraft, models.RFPCreated))
	assert.True(t, CanTransitionRFP(models.RFPCreated, models.RFPFloated))
	assert.True(t, CanTransitionRFP(models.RFPApproved, models.RFPClosed))

	assert.False(t, CanTransitionRFP(models.RFPDraft, models.RFPFloated))
	assert.False(t, CanTransitionRFP(models.RFPCreated, models.RFPApproved))
	assert.False(t, CanTransitionRFP(models.RFPClosed, models.RFPCancelled))
	assert.False(t, CanTransitionRFP(models.RFPCancelled, models.RFPCreated))
}

func TestHasQuotationsIgnoresWithdrawn(t *testing.T) {
	rfp := floatedRFP(t)
	assert.False(t, HasQuotations(rfp))

	rfp.Quotations = append(rfp.Quotations, models.RFPQuotation{ID: 1, Status: models.QuotationWithdrawn})
	assert.False(t, HasQuotations(rfp))

	rfp.Quotations = append(rfp.Quotations, models.RFPQuotation{ID: 2, Status: models.QuotationSubmitted})
	assert.True(t, HasQuotations(rfp))
}

func TestNormalizeItemName(t *testing.T) {
	assert.Equal(t, "laptop", NormalizeItemName("  Laptop "))
	assert.Equal(t, "docking station", NormalizeItemName("Docking   STATION"))
}
