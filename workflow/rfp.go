package workflow

import (
	"fmt"
	"math"
	"strings"
	"time"

	"procurement-backend/models"
)

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// SubmitRFP moves a draft to CREATED after checking it carries at
// least one item with a positive quantity.
func SubmitRFP(rfp *models.RFP, now time.Time) error {
	if rfp.Status != models.RFPDraft {
		return &StateTransitionError{Entity: "RFP " + rfp.RFPNumber, Operation: "submit", From: string(rfp.Status)}
	}
	if len(rfp.Items) == 0 {
		return &ValidationError{Field: "items", Message: "RFP must have at least one item"}
	}
	for i := range rfp.Items {
		it := &rfp.Items[i]
		if strings.TrimSpace(it.Name) == "" {
			return &ValidationError{Field: fmt.Sprintf("items[%d].name", i), Message: "item name is required"}
		}
		if it.Quantity <= 0 {
			return &ValidationError{Field: fmt.Sprintf("items[%d].quantity", i), Message: "quantity must be positive"}
		}
		it.GrandTotal = round2(it.Quantity * it.IndicativePrice)
	}
	if err := TransitionRFP(rfp, models.RFPCreated, "submit"); err != nil {
		return err
	}
	rfp.UpdatedAt = now
	return nil
}

// FloatRFP sends a CREATED RFP to its recipients. At least one
// registered supplier id or unregistered email is required and the
// closing date must be strictly in the future. Invited suppliers are
// appended to the aggregate with status INVITED.
func FloatRFP(rfp *models.RFP, supplierIDs []int, unregistered []models.UnregisteredInvitee, closingDate time.Time, now time.Time) error {
	if rfp.Status != models.RFPCreated {
		return &StateTransitionError{Entity: "RFP " + rfp.RFPNumber, Operation: "float", From: string(rfp.Status)}
	}
	if len(supplierIDs) == 0 && len(unregistered) == 0 {
		return &ValidationError{Field: "suppliers", Message: "at least one registered supplier or unregistered email is required"}
	}
	if !closingDate.After(now) {
		return &ValidationError{Field: "closing_date", Message: "closing date must be after the current time"}
	}
	seen := make(map[int]bool, len(supplierIDs))
	for _, id := range supplierIDs {
		if id <= 0 {
			return &ValidationError{Field: "supplier_ids", Message: fmt.Sprintf("invalid supplier id %d", id)}
		}
		if seen[id] {
			return &ValidationError{Field: "supplier_ids", Message: fmt.Sprintf("duplicate supplier id %d", id)}
		}
		seen[id] = true
	}
	for i, u := range unregistered {
		if strings.TrimSpace(u.Email) == "" {
			return &ValidationError{Field: fmt.Sprintf("unregistered[%d].email", i), Message: "email is required"}
		}
	}

	if err := TransitionRFP(rfp, models.RFPFloated, "float"); err != nil {
		return err
	}
	for _, id := range supplierIDs {
		rfp.Suppliers = append(rfp.Suppliers, models.RFPSupplier{
			RFPID:      rfp.ID,
			SupplierID: id,
			Status:     models.SupplierInvited,
			Registered: true,
			InvitedAt:  now,
		})
	}
	for _, u := range unregistered {
		rfp.Suppliers = append(rfp.Suppliers, models.RFPSupplier{
			RFPID:      rfp.ID,
			Name:       u.Name,
			Email:      u.Email,
			Status:     models.SupplierInvited,
			Registered: false,
			InvitedAt:  now,
		})
	}
	rfp.ClosingDate = closingDate
	rfp.UpdatedAt = now
	return nil
}

// ExtendClosingDate pushes the quoting deadline out. Allowed any time
// before the RFP reaches a terminal status; the new date must be
// strictly later than the current one.
func ExtendClosingDate(rfp *models.RFP, newDate time.Time, now time.Time) error {
	if IsTerminalRFP(rfp.Status) || rfp.Status == models.RFPApproved {
		return &StateTransitionError{Entity: "RFP " + rfp.RFPNumber, Operation: "extend closing date", From: string(rfp.Status)}
	}
	if !newDate.After(rfp.ClosingDate) {
		return &ValidationError{Field: "closing_date", Message: "new closing date must be later than the current one"}
	}
	rfp.ClosingDate = newDate
	rfp.UpdatedAt = now
	return nil
}

// CancelRFP cancels any non-terminal RFP. A reason is mandatory.
func CancelRFP(rfp *models.RFP, reason string, now time.Time) error {
	if strings.TrimSpace(reason) == "" {
		return &ValidationError{Field: "reason", Message: "cancellation reason is required"}
	}
	if err := TransitionRFP(rfp, models.RFPCancelled, "cancel"); err != nil {
		return err
	}
	rfp.CancelReason = reason
	rfp.PendingApproval = false
	rfp.UpdatedAt = now
	return nil
}

// CloseRFP manually closes an approved RFP.
func CloseRFP(rfp *models.RFP, now time.Time) error {
	if rfp.Status != models.RFPApproved {
		return &StateTransitionError{Entity: "RFP " + rfp.RFPNumber, Operation: "close", From: string(rfp.Status)}
	}
	if err := TransitionRFP(rfp, models.RFPClosed, "close"); err != nil {
		return err
	}
	rfp.UpdatedAt = now
	return nil
}

// DeleteRFP verifies the RFP is still deletable (DRAFT or CREATED).
func DeleteRFP(rfp *models.RFP) error {
	if !CanDeleteRFP(rfp.Status) {
		return &StateTransitionError{Entity: "RFP " + rfp.RFPNumber, Operation: "delete", From: string(rfp.Status)}
	}
	return nil
}
