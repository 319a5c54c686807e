package workflow

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"procurement-backend/models"
)

func fullSelection() models.SendForApprovalRequest {
	return models.SendForApprovalRequest{
		Selections: []models.SelectionRequest{
			{ItemName: "Laptop", SupplierID: 502},
			{ItemName: "Docking Station", SupplierID: 501},
		},
		ApprovalGroup:  "Management",
		CompetitiveBid: true,
		LowestSelected: true,
	}
}

func TestFinalizeSelectionBuildsApprovalPayload(t *testing.T) {
	rfp := threeQuoteRFP(t)
	payload, err := FinalizeSelection(rfp, fullSelection(), "Jane Buyer", testNow)
	require.NoError(t, err)

	assert.True(t, rfp.PendingApproval)
	assert.Equal(t, "Management", payload.ApprovalGroup)
	require.Len(t, payload.Selections, 2)

	// chosen prices come from the winning supplier's quote
	for _, sel := range payload.Selections {
		switch sel.ItemName {
		case "Laptop":
			assert.Equal(t, 502, sel.SupplierID)
			assert.Equal(t, 43500.0, sel.UnitPrice)
		case "Docking Station":
			assert.Equal(t, 501, sel.SupplierID)
			assert.Equal(t, 7500.0, sel.UnitPrice)
		default:
			t.Fatalf("unexpected selection item %q", sel.ItemName)
		}
	}
	// 10*43500 + 10*7500
	assert.Equal(t, 510000.0, payload.TotalValue)
	// RFP status itself is unchanged until the decision
	assert.Equal(t, models.RFPFloated, rfp.Status)
}

func TestFinalizeSelectionMissingItemListsIt(t *testing.T) {
	rfp := threeQuoteRFP(t)
	req := fullSelection()
	req.Selections = req.Selections[:1] // docking station left unselected

	_, err := FinalizeSelection(rfp, req, "Jane Buyer", testNow)
	var verrs *ValidationErrors
	require.ErrorAs(t, err, &verrs)
	require.Len(t, verrs.Errors, 1)
	assert.Contains(t, verrs.Errors[0].Message, "Docking Station")
	assert.False(t, rfp.PendingApproval)
}

func TestFinalizeSelectionRequiresApprovalGroup(t *testing.T) {
	rfp := threeQuoteRFP(t)
	req := fullSelection()
	req.ApprovalGroup = ""
	_, err := FinalizeSelection(rfp, req, "Jane Buyer", testNow)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "approval_group", verr.Field)
}

func TestFinalizeSelectionJustificationWhenNotLowest(t *testing.T) {
	rfp := threeQuoteRFP(t)
	req := fullSelection()
	// picking 501's 45000 laptop over 502's 43500 one
	req.Selections[0].SupplierID = 501
	req.LowestSelected = false

	_, err := FinalizeSelection(rfp, req, "Jane Buyer", testNow)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "justification", verr.Field)

	req.Justification = "Preferred vendor with on-site support"
	payload, err := FinalizeSelection(rfp, req, "Jane Buyer", testNow)
	require.NoError(t, err)
	assert.False(t, payload.LowestSelected)
}

func TestFinalizeSelectionSupplierMustHaveQuotedItem(t *testing.T) {
	rfp := threeQuoteRFP(t)
	req := fullSelection()
	// 503 never quoted the docking station
	req.Selections[1].SupplierID = 503
	_, err := FinalizeSelection(rfp, req, "Jane Buyer", testNow)
	var verrs *ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.Contains(t, verrs.Error(), "has not quoted")
}

func TestFinalizeSelectionUnknownItemRejected(t *testing.T) {
	rfp := threeQuoteRFP(t)
	req := fullSelection()
	req.Selections = append(req.Selections, models.SelectionRequest{ItemName: "Server Rack", SupplierID: 501})
	_, err := FinalizeSelection(rfp, req, "Jane Buyer", testNow)
	var verrs *ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.Contains(t, strings.ToLower(verrs.Error()), "no quotation carries")
}

func TestFinalizeSelectionRequiresQuotations(t *testing.T) {
	rfp := floatedRFP(t)
	_, err := FinalizeSelection(rfp, fullSelection(), "Jane Buyer", testNow)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "quotations", verr.Field)
}

func TestApproveMarksWinnersAndLosers(t *testing.T) {
	rfp := threeQuoteRFP(t)
	_, err := FinalizeSelection(rfp, fullSelection(), "Jane Buyer", testNow)
	require.NoError(t, err)

	require.NoError(t, ApplyDecision(rfp, "APPROVE", "Looks good", testNow))
	assert.Equal(t, models.RFPApproved, rfp.Status)
	assert.False(t, rfp.PendingApproval)

	statusBySupplier := map[int]models.QuotationStatus{}
	for _, q := range rfp.Quotations {
		statusBySupplier[q.SupplierID] = q.Status
	}
	assert.Equal(t, models.QuotationSelected, statusBySupplier[501])
	assert.Equal(t, models.QuotationSelected, statusBySupplier[502])
	assert.Equal(t, models.QuotationRejected, statusBySupplier[503])

	for _, s := range rfp.Suppliers {
		if s.SupplierID == 503 {
			assert.Equal(t, models.SupplierRejected, s.Status)
		} else {
			assert.Equal(t, models.SupplierSelected, s.Status)
		}
	}
}

func TestRejectKeepsQuotationsAndSelections(t *testing.T) {
	rfp := threeQuoteRFP(t)
	_, err := FinalizeSelection(rfp, fullSelection(), "Jane Buyer", testNow)
	require.NoError(t, err)

	require.NoError(t, ApplyDecision(rfp, "REJECT", "Negotiate laptops further", testNow))
	assert.Equal(t, models.RFPRejected, rfp.Status)
	assert.False(t, rfp.PendingApproval)
	assert.Len(t, rfp.Selections, 2)
	for _, q := range rfp.Quotations {
		assert.NotEqual(t, models.QuotationRejected, q.Status)
	}

	// purchasing can revisit and resubmit a new finalization
	payload, err := FinalizeSelection(rfp, fullSelection(), "Jane Buyer", testNow)
	require.NoError(t, err)
	require.NoError(t, ApplyDecision(rfp, "APPROVE", "", testNow))
	assert.Equal(t, models.RFPApproved, rfp.Status)
	assert.Len(t, payload.Selections, 2)
}

func TestRejectRequiresRemarks(t *testing.T) {
	rfp := threeQuoteRFP(t)
	_, err := FinalizeSelection(rfp, fullSelection(), "Jane Buyer", testNow)
	require.NoError(t, err)

	err = ApplyDecision(rfp, "REJECT", "", testNow)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.True(t, rfp.PendingApproval)
}

func TestDecisionWithoutPendingApprovalFails(t *testing.T) {
	rfp := threeQuoteRFP(t)
	err := ApplyDecision(rfp, "APPROVE", "", testNow)
	var serr *StateTransitionError
	require.ErrorAs(t, err, &serr)
}

func TestDecisionUnknownAction(t *testing.T) {
	rfp := threeQuoteRFP(t)
	_, err := FinalizeSelection(rfp, fullSelection(), "Jane Buyer", testNow)
	require.NoError(t, err)

	err = ApplyDecision(rfp, "MAYBE", "", testNow)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
}
