package workflow

import (
	"fmt"
	"strings"
	"time"

	"procurement-backend/models"
)

// FinalizeSelection records the per-item vendor choices and builds
// the approval payload. Every item name quoted by at least one
// supplier must have a selection and each chosen supplier must have
// actually quoted that item; the chosen price is taken from the
// supplier's quote, never from the request. When the lowest bid was
// not selected a justification is mandatory. The winner is always
// the human's choice; the lowest-bid flag is informational.
func FinalizeSelection(rfp *models.RFP, req models.SendForApprovalRequest, requestedBy string, now time.Time) (*models.ApprovalRequest, error) {
	switch rfp.Status {
	case models.RFPFloated, models.RFPNegotiation, models.RFPRejected:
	default:
		return nil, &StateTransitionError{Entity: "RFP " + rfp.RFPNumber, Operation: "send for approval", From: string(rfp.Status)}
	}
	if !HasQuotations(rfp) {
		return nil, &ValidationError{Field: "quotations", Message: "RFP has no quotations to select from"}
	}
	if strings.TrimSpace(req.ApprovalGroup) == "" {
		return nil, &ValidationError{Field: "approval_group", Message: "approval group is required"}
	}
	if !req.LowestSelected && strings.TrimSpace(req.Justification) == "" {
		return nil, &ValidationError{Field: "justification", Message: "justification is required when the lowest bid is not selected"}
	}

	// item name -> supplier id -> quoted unit price, over quotations
	// still in the running
	quoted := make(map[string]map[int]float64)
	display := make(map[string]string)
	for i := range rfp.Quotations {
		q := &rfp.Quotations[i]
		if !contributesToRanking(q.Status) {
			continue
		}
		for _, it := range q.Items {
			key := NormalizeItemName(it.ItemName)
			if quoted[key] == nil {
				quoted[key] = make(map[int]float64)
				display[key] = it.ItemName
			}
			quoted[key][q.SupplierID] = it.UnitPrice
		}
	}

	chosen := make(map[string]models.SelectionRequest, len(req.Selections))
	var errs []ValidationError
	for i, sel := range req.Selections {
		key := NormalizeItemName(sel.ItemName)
		if _, ok := quoted[key]; !ok {
			errs = append(errs, ValidationError{Field: fmt.Sprintf("selections[%d].item_name", i),
				Message: fmt.Sprintf("no quotation carries item %q", sel.ItemName)})
			continue
		}
		if _, dup := chosen[key]; dup {
			errs = append(errs, ValidationError{Field: fmt.Sprintf("selections[%d].item_name", i),
				Message: fmt.Sprintf("duplicate selection for item %q", sel.ItemName)})
			continue
		}
		if _, ok := quoted[key][sel.SupplierID]; !ok {
			errs = append(errs, ValidationError{Field: fmt.Sprintf("selections[%d].supplier_id", i),
				Message: fmt.Sprintf("supplier %d has not quoted item %q", sel.SupplierID, sel.ItemName)})
			continue
		}
		chosen[key] = sel
	}
	for key := range quoted {
		if _, ok := chosen[key]; !ok {
			errs = append(errs, ValidationError{Field: "selections",
				Message: fmt.Sprintf("item %q has quotations but no selection", display[key])})
		}
	}
	if len(errs) > 0 {
		return nil, &ValidationErrors{Errors: errs}
	}

	selections := make([]models.VendorSelection, 0, len(chosen))
	var total float64
	itemQty := make(map[string]float64, len(rfp.Items))
	for _, it := range rfp.Items {
		itemQty[NormalizeItemName(it.Name)] = it.Quantity
	}
	for key, sel := range chosen {
		price := quoted[key][sel.SupplierID]
		selections = append(selections, models.VendorSelection{
			RFPID:      rfp.ID,
			ItemName:   display[key],
			SupplierID: sel.SupplierID,
			UnitPrice:  price,
			Remarks:    sel.Remarks,
		})
		total += price * itemQty[key]
	}
	// stable payload order follows the quoted-item discovery order
	sortSelectionsByItem(selections)

	rfp.Selections = selections
	rfp.ApprovalGroup = req.ApprovalGroup
	rfp.CompetitiveBid = req.CompetitiveBid
	rfp.LowestSelected = req.LowestSelected
	rfp.SelectionJustification = req.Justification
	rfp.PendingApproval = true
	rfp.UpdatedAt = now

	return &models.ApprovalRequest{
		RFPID:          rfp.ID,
		RFPNumber:      rfp.RFPNumber,
		ApprovalGroup:  req.ApprovalGroup,
		CompetitiveBid: req.CompetitiveBid,
		LowestSelected: req.LowestSelected,
		Justification:  req.Justification,
		Selections:     selections,
		TotalValue:     round2(total),
		RequestedBy:    requestedBy,
		RequestedAt:    now,
	}, nil
}

func sortSelectionsByItem(selections []models.VendorSelection) {
	for i := 1; i < len(selections); i++ {
		for j := i; j > 0 && selections[j].ItemName < selections[j-1].ItemName; j-- {
			selections[j], selections[j-1] = selections[j-1], selections[j]
		}
	}
}

// Decision actions accepted by ApplyDecision.
const (
	ActionApprove = "APPROVE"
	ActionReject  = "REJECT"
)

// ApplyDecision records management's verdict on a pending approval.
// Approve moves the RFP to APPROVED and marks the winning suppliers
// and quotations SELECTED (the rest REJECTED). Reject moves it to
// REJECTED but keeps quotations and selections so purchasing can
// revisit and re-finalize; remarks are mandatory on reject.
func ApplyDecision(rfp *models.RFP, action string, remarks string, now time.Time) error {
	if !rfp.PendingApproval {
		return &StateTransitionError{Entity: "RFP " + rfp.RFPNumber, Operation: "decide", From: string(rfp.Status)}
	}
	switch strings.ToUpper(strings.TrimSpace(action)) {
	case ActionApprove:
		if err := TransitionRFP(rfp, models.RFPApproved, "approve"); err != nil {
			return err
		}
		selectedSuppliers := make(map[int]bool, len(rfp.Selections))
		for _, sel := range rfp.Selections {
			selectedSuppliers[sel.SupplierID] = true
		}
		for i := range rfp.Quotations {
			q := &rfp.Quotations[i]
			if q.Status == models.QuotationWithdrawn {
				continue
			}
			if selectedSuppliers[q.SupplierID] {
				q.Status = models.QuotationSelected
			} else {
				q.Status = models.QuotationRejected
			}
			q.UpdatedAt = now
		}
		for i := range rfp.Suppliers {
			s := &rfp.Suppliers[i]
			if s.Status == models.SupplierWithdrawn {
				continue
			}
			if selectedSuppliers[s.SupplierID] {
				s.Status = models.SupplierSelected
			} else if s.Responded {
				s.Status = models.SupplierRejected
			}
		}
	case ActionReject:
		if strings.TrimSpace(remarks) == "" {
			return &ValidationError{Field: "remarks", Message: "remarks are required when rejecting"}
		}
		if err := TransitionRFP(rfp, models.RFPRejected, "reject"); err != nil {
			return err
		}
	default:
		return &ValidationError{Field: "action", Message: "action must be APPROVE or REJECT"}
	}
	rfp.DecisionRemarks = remarks
	rfp.PendingApproval = false
	rfp.UpdatedAt = now
	return nil
}
