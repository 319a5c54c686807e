// Package workflow implements the RFP / quotation lifecycle: the
// status graph, quotation submission and negotiation (including the
// price ratchet), per-item L1/L2 ranking and the vendor-selection
// approval flow. All operations work on the in-memory RFP aggregate
// and either fully apply or leave it unchanged.
package workflow

import (
	"strings"

	"procurement-backend/models"
)

var rfpTransitions = map[models.RFPStatus][]models.RFPStatus{
	models.RFPDraft:       {models.RFPCreated, models.RFPCancelled},
	models.RFPCreated:     {models.RFPFloated, models.RFPCancelled},
	models.RFPFloated:     {models.RFPNegotiation, models.RFPApproved, models.RFPRejected, models.RFPCancelled},
	models.RFPNegotiation: {models.RFPApproved, models.RFPRejected, models.RFPCancelled},
	models.RFPRejected:    {models.RFPNegotiation, models.RFPApproved, models.RFPCancelled},
	models.RFPApproved:    {models.RFPClosed, models.RFPCancelled},
	models.RFPCancelled:   {},
	models.RFPClosed:      {},
}

var quotationTransitions = map[models.QuotationStatus][]models.QuotationStatus{
	models.QuotationDraft:           {models.QuotationSubmitted, models.QuotationWithdrawn},
	models.QuotationSubmitted:       {models.QuotationUnderEvaluation, models.QuotationNegotiation, models.QuotationShortlisted, models.QuotationSelected, models.QuotationRejected, models.QuotationWithdrawn},
	models.QuotationUnderEvaluation: {models.QuotationNegotiation, models.QuotationShortlisted, models.QuotationSelected, models.QuotationRejected, models.QuotationWithdrawn},
	models.QuotationNegotiation:     {models.QuotationUnderEvaluation, models.QuotationShortlisted, models.QuotationSelected, models.QuotationRejected, models.QuotationWithdrawn},
	models.QuotationShortlisted:     {models.QuotationNegotiation, models.QuotationSelected, models.QuotationRejected, models.QuotationWithdrawn},
	models.QuotationSelected:        {},
	models.QuotationRejected:        {},
	models.QuotationWithdrawn:       {},
}

// CanTransitionRFP reports whether from -> to is a single edge in the
// RFP status graph.
func CanTransitionRFP(from, to models.RFPStatus) bool {
	for _, s := range rfpTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// TransitionRFP moves the RFP to the target status or fails with a
// StateTransitionError. No operation may jump states.
func TransitionRFP(rfp *models.RFP, to models.RFPStatus, operation string) error {
	if !CanTransitionRFP(rfp.Status, to) {
		return &StateTransitionError{Entity: "RFP " + rfp.RFPNumber, Operation: operation, From: string(rfp.Status)}
	}
	rfp.Status = to
	return nil
}

// CanTransitionQuotation reports whether from -> to is a single edge
// in the quotation status graph.
func CanTransitionQuotation(from, to models.QuotationStatus) bool {
	for _, s := range quotationTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// IsTerminalRFP reports whether no further transition is possible.
func IsTerminalRFP(status models.RFPStatus) bool {
	return len(rfpTransitions[status]) == 0
}

// CanDeleteRFP: delete is permitted only before the RFP has been
// floated to any supplier.
func CanDeleteRFP(status models.RFPStatus) bool {
	return status == models.RFPDraft || status == models.RFPCreated
}

// HasQuotations is the derived "in review" predicate: an RFP with at
// least one non-withdrawn quotation is under review even though the
// stored status stays FLOATED.
func HasQuotations(rfp *models.RFP) bool {
	for i := range rfp.Quotations {
		if rfp.Quotations[i].Status != models.QuotationWithdrawn {
			return true
		}
	}
	return false
}

// NormalizeItemName is the join key used to match the same item
// across independent supplier submissions: lower-cased with
// collapsed whitespace, so "Laptop " and "laptop" rank together.
func NormalizeItemName(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), " "))
}
