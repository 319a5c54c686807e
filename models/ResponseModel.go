package models

import "time"

// FloatRFPRequest is the body for floating an RFP to suppliers.
type FloatRFPRequest struct {
	SupplierIDs  []int                 `json:"supplier_ids"`
	Unregistered []UnregisteredInvitee `json:"unregistered"`
	ClosingDate  time.Time             `json:"closing_date"`
}

// UnregisteredInvitee is a vendor invited by email only.
type UnregisteredInvitee struct {
	Email string `json:"email" example:"sales@newvendor.example.com"`
	Name  string `json:"name,omitempty" example:"New Vendor Pvt Ltd"`
}

// QuotationLineRequest is one priced line in a submit/re-submit body.
type QuotationLineRequest struct {
	ItemName  string  `json:"item_name" example:"Laptop"`
	Quantity  float64 `json:"quantity" example:"10"`
	UOM       string  `json:"uom" example:"Nos"`
	UnitPrice float64 `json:"unit_price" example:"45000"`
	TaxRate   float64 `json:"tax_rate" example:"18"`
}

// SubmitQuotationRequest is the body for a supplier's first submission.
type SubmitQuotationRequest struct {
	SupplierID      int                    `json:"supplier_id" example:"812345678"`
	QuotationNumber string                 `json:"quotation_number,omitempty" example:"QT/2026/001"`
	PaymentTerms    string                 `json:"payment_terms" example:"Net 30"`
	Items           []QuotationLineRequest `json:"items"`
}

// NegotiateRequest asks a supplier for a re-quote.
type NegotiateRequest struct {
	Notes string `json:"notes,omitempty" example:"Please revisit laptop pricing"`
}

// ResubmitQuotationRequest replaces a quotation's item list during
// negotiation. Version is the optimistic-concurrency check.
type ResubmitQuotationRequest struct {
	Version int                    `json:"version" example:"1"`
	Items   []QuotationLineRequest `json:"items"`
}

// SelectionRequest is one per-item vendor choice in a finalization.
type SelectionRequest struct {
	ItemName   string `json:"item_name" example:"Laptop"`
	SupplierID int    `json:"supplier_id" example:"812345678"`
	Remarks    string `json:"remarks,omitempty"`
}

// SendForApprovalRequest is the finalization body.
type SendForApprovalRequest struct {
	Selections     []SelectionRequest `json:"selections"`
	ApprovalGroup  string             `json:"approval_group" example:"Management"`
	CompetitiveBid bool               `json:"competitive_bid"`
	LowestSelected bool               `json:"lowest_selected"`
	Justification  string             `json:"justification,omitempty"`
}

// DecisionRequest is management's approve/reject body.
type DecisionRequest struct {
	Action  string `json:"action" example:"APPROVE"` // APPROVE or REJECT
	Remarks string `json:"remarks,omitempty"`
}

// CancelRFPRequest carries the mandatory cancellation reason.
type CancelRFPRequest struct {
	Reason string `json:"reason" example:"Budget withdrawn"`
}

// ExtendClosingDateRequest moves the quoting deadline out.
type ExtendClosingDateRequest struct {
	ClosingDate time.Time `json:"closing_date"`
}

// RankedQuote is one supplier's position for a single item.
type RankedQuote struct {
	Rank         int       `json:"rank" example:"1"`
	QuotationID  int       `json:"quotation_id" example:"1"`
	SupplierID   int       `json:"supplier_id" example:"812345678"`
	SupplierName string    `json:"supplier_name" example:"ABC Suppliers"`
	UnitPrice    float64   `json:"unit_price" example:"44000"`
	TotalPrice   float64   `json:"total_price" example:"519200"`
	SubmittedAt  time.Time `json:"submitted_at"`
}

// ItemComparison is the L1/L2 ranking of all quotes for one item.
type ItemComparison struct {
	ItemName string        `json:"item_name" example:"Laptop"`
	Quotes   []RankedQuote `json:"quotes"`
}

// EvaluationResponse wraps the RFP with its per-item ranking.
type EvaluationResponse struct {
	RFP        *RFP             `json:"rfp"`
	Comparison []ItemComparison `json:"comparison"`
}

type LoginRequest struct {
	Email    string `json:"email" example:"john@example.com"`
	Password string `json:"password" example:"secret"`
}

type LoginResponse struct {
	SessionID    string `json:"session_id"`
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	UserID       int    `json:"user_id"`
	UserName     string `json:"user_name"`
	RoleID       int    `json:"role_id"`
}

// ImportResult is returned after a spreadsheet import completes.
type ImportResult struct {
	RequestID     int                   `json:"request_id"`
	TotalRows     int                   `json:"total_rows"`
	ResolvedRows  int                   `json:"resolved_rows"`
	FallbackRows  int                   `json:"fallback_rows"`
	Items         []PurchaseRequestItem `json:"items"`
}

// ImportRowError describes one invalid spreadsheet row.
type ImportRowError struct {
	Row     int    `json:"row" example:"4"`
	Field   string `json:"field" example:"quantity"`
	Message string `json:"message" example:"quantity must be a positive number"`
}
