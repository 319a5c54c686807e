package workflow

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"procurement-backend/models"
)

// findSupplier locates the invited supplier entry for a registered
// supplier id.
func findSupplier(rfp *models.RFP, supplierID int) *models.RFPSupplier {
	for i := range rfp.Suppliers {
		if rfp.Suppliers[i].SupplierID == supplierID {
			return &rfp.Suppliers[i]
		}
	}
	return nil
}

// FindQuotation returns the quotation with the given id, or nil.
func FindQuotation(rfp *models.RFP, quotationID int) *models.RFPQuotation {
	for i := range rfp.Quotations {
		if rfp.Quotations[i].ID == quotationID {
			return &rfp.Quotations[i]
		}
	}
	return nil
}

// activeQuotationFor returns the supplier's non-withdrawn quotation
// on this RFP, if any. At most one may exist.
func activeQuotationFor(rfp *models.RFP, supplierID int) *models.RFPQuotation {
	for i := range rfp.Quotations {
		q := &rfp.Quotations[i]
		if q.SupplierID == supplierID && q.Status != models.QuotationWithdrawn {
			return q
		}
	}
	return nil
}

func validateLines(lines []models.QuotationLineRequest) error {
	if len(lines) == 0 {
		return &ValidationError{Field: "items", Message: "quotation must contain at least one item"}
	}
	var errs []ValidationError
	for i, l := range lines {
		if strings.TrimSpace(l.ItemName) == "" {
			errs = append(errs, ValidationError{Field: fmt.Sprintf("items[%d].item_name", i), Message: "item name is required"})
		}
		if l.Quantity <= 0 {
			errs = append(errs, ValidationError{Field: fmt.Sprintf("items[%d].quantity", i), Message: "quantity must be positive"})
		}
		if l.UnitPrice < 0 {
			errs = append(errs, ValidationError{Field: fmt.Sprintf("items[%d].unit_price", i), Message: "unit price cannot be negative"})
		}
		if l.TaxRate < 0 {
			errs = append(errs, ValidationError{Field: fmt.Sprintf("items[%d].tax_rate", i), Message: "tax rate cannot be negative"})
		}
	}
	if len(errs) > 0 {
		return &ValidationErrors{Errors: errs}
	}
	return nil
}

func buildQuotationItems(quotationID int, lines []models.QuotationLineRequest) []models.RFPQuotationItem {
	items := make([]models.RFPQuotationItem, 0, len(lines))
	for _, l := range lines {
		total := round2(l.Quantity * l.UnitPrice * (1 + l.TaxRate/100))
		items = append(items, models.RFPQuotationItem{
			QuotationID: quotationID,
			ItemName:    strings.TrimSpace(l.ItemName),
			Quantity:    l.Quantity,
			UOM:         l.UOM,
			UnitPrice:   l.UnitPrice,
			TaxRate:     l.TaxRate,
			TotalPrice:  total,
		})
	}
	return items
}

func recomputeTotals(q *models.RFPQuotation) {
	var subtotal, net float64
	for _, it := range q.Items {
		subtotal += it.Quantity * it.UnitPrice
		net += it.TotalPrice
	}
	q.Subtotal = round2(subtotal)
	q.NetAmount = round2(net)
	q.TaxAmount = round2(q.NetAmount - q.Subtotal)
}

// SubmitQuotation records a supplier's first priced response on a
// floated RFP. The supplier must be among the invited ones and must
// not already hold an active quotation (use re-submit for that). The
// quotation number, auto-generated when empty, must be unique within
// the RFP.
func SubmitQuotation(rfp *models.RFP, req models.SubmitQuotationRequest, now time.Time) (*models.RFPQuotation, error) {
	if rfp.Status != models.RFPFloated && rfp.Status != models.RFPNegotiation {
		return nil, &StateTransitionError{Entity: "RFP " + rfp.RFPNumber, Operation: "receive quotation", From: string(rfp.Status)}
	}
	sup := findSupplier(rfp, req.SupplierID)
	if sup == nil {
		return nil, &ValidationError{Field: "supplier_id", Message: fmt.Sprintf("supplier %d is not invited on this RFP", req.SupplierID)}
	}
	if existing := activeQuotationFor(rfp, req.SupplierID); existing != nil {
		return nil, &StateTransitionError{Entity: "quotation " + existing.QuotationNumber, Operation: "submit again", From: string(existing.Status)}
	}
	if err := validateLines(req.Items); err != nil {
		return nil, err
	}

	number := strings.TrimSpace(req.QuotationNumber)
	if number == "" {
		number = "QT/" + rfp.RFPNumber + "/" + strconv.Itoa(len(rfp.Quotations)+1)
	}
	for i := range rfp.Quotations {
		if rfp.Quotations[i].QuotationNumber == number {
			return nil, &ValidationError{Field: "quotation_number", Message: fmt.Sprintf("quotation number %s already exists on this RFP", number)}
		}
	}

	q := models.RFPQuotation{
		RFPID:           rfp.ID,
		SupplierID:      req.SupplierID,
		QuotationNumber: number,
		QuotationDate:   now,
		PaymentTerms:    req.PaymentTerms,
		Status:          models.QuotationSubmitted,
		Version:         1,
		SubmittedAt:     now,
		UpdatedAt:       now,
	}
	q.Items = buildQuotationItems(q.ID, req.Items)
	recomputeTotals(&q)

	rfp.Quotations = append(rfp.Quotations, q)
	sup.Responded = true
	sup.Status = models.SupplierResponded
	rfp.UpdatedAt = now
	return &rfp.Quotations[len(rfp.Quotations)-1], nil
}

// NegotiateQuotation marks a submitted quotation for re-quoting. No
// prices change here; the supplier is expected to re-submit lower
// ones. Negotiating an already-negotiating quotation is an error so
// rounds never stack silently.
func NegotiateQuotation(rfp *models.RFP, quotationID int, notes string, now time.Time) (*models.RFPQuotation, error) {
	q := FindQuotation(rfp, quotationID)
	if q == nil {
		return nil, &NotFoundError{Entity: "quotation", Ref: strconv.Itoa(quotationID)}
	}
	if q.Status != models.QuotationSubmitted && q.Status != models.QuotationUnderEvaluation {
		return nil, &StateTransitionError{Entity: "quotation " + q.QuotationNumber, Operation: "negotiate", From: string(q.Status)}
	}
	q.Status = models.QuotationNegotiation
	if strings.TrimSpace(notes) != "" {
		q.Notes = notes
	}
	q.UpdatedAt = now
	if rfp.Status == models.RFPFloated {
		if err := TransitionRFP(rfp, models.RFPNegotiation, "negotiate"); err != nil {
			return nil, err
		}
	}
	rfp.UpdatedAt = now
	return q, nil
}

// ResubmitQuotation replaces the item list of a quotation in
// negotiation. Price ratchet: every re-submitted unit price must be
// less than or equal to the price captured at the most recent prior
// submission, matched by normalized item name. One violating item
// rejects the whole re-submission and the quotation is left
// untouched. expectedVersion guards against concurrent edits; pass 0
// to skip the check.
func ResubmitQuotation(rfp *models.RFP, quotationID int, expectedVersion int, lines []models.QuotationLineRequest, now time.Time) (*models.RFPQuotation, error) {
	q := FindQuotation(rfp, quotationID)
	if q == nil {
		return nil, &NotFoundError{Entity: "quotation", Ref: strconv.Itoa(quotationID)}
	}
	if q.Status != models.QuotationNegotiation {
		return nil, &StateTransitionError{Entity: "quotation " + q.QuotationNumber, Operation: "re-submit", From: string(q.Status)}
	}
	if expectedVersion != 0 && expectedVersion != q.Version {
		return nil, &VersionConflictError{QuotationID: q.ID, Expected: q.Version, Got: expectedVersion}
	}
	if err := validateLines(lines); err != nil {
		return nil, err
	}

	previous := make(map[string]float64, len(q.Items))
	for _, it := range q.Items {
		previous[NormalizeItemName(it.ItemName)] = it.UnitPrice
	}
	for _, l := range lines {
		prev, ok := previous[NormalizeItemName(l.ItemName)]
		if !ok {
			return nil, &ValidationError{Field: "items", Message: fmt.Sprintf("item %q was not part of the previous submission", l.ItemName)}
		}
		if l.UnitPrice > prev {
			return nil, &PriceRatchetViolation{ItemName: strings.TrimSpace(l.ItemName), PreviousPrice: prev, OfferedPrice: l.UnitPrice}
		}
	}

	q.Items = buildQuotationItems(q.ID, lines)
	recomputeTotals(q)
	q.Version++
	q.UpdatedAt = now
	rfp.UpdatedAt = now
	return q, nil
}

// WithdrawQuotation takes a supplier out of the running. The record
// stays for negotiation history; only its status changes.
func WithdrawQuotation(rfp *models.RFP, quotationID int, now time.Time) (*models.RFPQuotation, error) {
	q := FindQuotation(rfp, quotationID)
	if q == nil {
		return nil, &NotFoundError{Entity: "quotation", Ref: strconv.Itoa(quotationID)}
	}
	if !CanTransitionQuotation(q.Status, models.QuotationWithdrawn) {
		return nil, &StateTransitionError{Entity: "quotation " + q.QuotationNumber, Operation: "withdraw", From: string(q.Status)}
	}
	q.Status = models.QuotationWithdrawn
	q.UpdatedAt = now
	if sup := findSupplier(rfp, q.SupplierID); sup != nil {
		sup.Status = models.SupplierWithdrawn
	}
	rfp.UpdatedAt = now
	return q, nil
}
