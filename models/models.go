package models

import (
	"database/sql"
	"errors"
	"time"
)

// RFPStatus is the lifecycle status of an RFP.
type RFPStatus string

const (
	RFPDraft       RFPStatus = "DRAFT"
	RFPCreated     RFPStatus = "CREATED"
	RFPFloated     RFPStatus = "FLOATED"
	RFPNegotiation RFPStatus = "NEGOTIATION"
	RFPApproved    RFPStatus = "APPROVED"
	RFPRejected    RFPStatus = "REJECTED"
	RFPCancelled   RFPStatus = "CANCELLED"
	RFPClosed      RFPStatus = "CLOSED"
)

// QuotationStatus is the lifecycle status of a supplier quotation.
type QuotationStatus string

const (
	QuotationDraft           QuotationStatus = "DRAFT"
	QuotationSubmitted       QuotationStatus = "SUBMITTED"
	QuotationUnderEvaluation QuotationStatus = "UNDER_EVALUATION"
	QuotationNegotiation     QuotationStatus = "NEGOTIATION"
	QuotationShortlisted     QuotationStatus = "SHORTLISTED"
	QuotationSelected        QuotationStatus = "SELECTED"
	QuotationRejected        QuotationStatus = "REJECTED"
	QuotationWithdrawn       QuotationStatus = "WITHDRAWN"
)

// RFPSupplierStatus is the per-supplier status inside an RFP.
type RFPSupplierStatus string

const (
	SupplierInvited     RFPSupplierStatus = "INVITED"
	SupplierResponded   RFPSupplierStatus = "RESPONDED"
	SupplierShortlisted RFPSupplierStatus = "SHORTLISTED"
	SupplierSelected    RFPSupplierStatus = "SELECTED"
	SupplierRejected    RFPSupplierStatus = "REJECTED"
	SupplierWithdrawn   RFPSupplierStatus = "WITHDRAWN"
)

// RFP is the full request-for-proposal aggregate: items, invited
// suppliers and received quotations are loaded together.
type RFP struct {
	ID                     int             `json:"id" example:"1"`
	RFPNumber              string          `json:"rfp_number" example:"RFP/AB12345"`
	Title                  string          `json:"title" example:"IT Hardware FY26"`
	Description            string          `json:"description"`
	Status                 RFPStatus       `json:"status" example:"FLOATED"`
	ClosingDate            time.Time       `json:"closing_date"`
	PendingApproval        bool            `json:"pending_approval"`
	ApprovalGroup          string          `json:"approval_group,omitempty" example:"Management"`
	CompetitiveBid         bool            `json:"competitive_bid"`
	LowestSelected         bool            `json:"lowest_selected"`
	SelectionJustification string          `json:"selection_justification,omitempty"`
	DecisionRemarks        string          `json:"decision_remarks,omitempty"`
	CancelReason           string          `json:"cancel_reason,omitempty"`
	ProjectID              int             `json:"project_id" example:"1"`
	Items                  []RFPItem       `json:"items"`
	Suppliers              []RFPSupplier   `json:"suppliers"`
	Quotations             []RFPQuotation  `json:"quotations"`
	Selections             []VendorSelection `json:"selections,omitempty"`
	CreatedAt              time.Time       `json:"created_at"`
	CreatedBy              string          `json:"created_by,omitempty"`
	UpdatedAt              time.Time       `json:"updated_at"`
	UpdatedBy              string          `json:"updated_by,omitempty"`
}

// RFPItem is one line of the RFP. Immutable once the RFP leaves DRAFT.
type RFPItem struct {
	ID              int     `json:"id" example:"1"`
	RFPID           int     `json:"rfp_id" example:"1"`
	ItemID          int     `json:"item_id" example:"204"` // catalog id, 0 = unresolved free text
	Name            string  `json:"name" example:"Laptop"`
	ItemCode        string  `json:"item_code,omitempty" example:"IT-LPT-014"`
	Quantity        float64 `json:"quantity" example:"10"`
	UOM             string  `json:"uom" example:"Nos"`
	IndicativePrice float64 `json:"indicative_price" example:"50000"`
	TargetUnitPrice float64 `json:"target_unit_price" example:"45000"`
	GrandTotal      float64 `json:"grand_total" example:"450000"`
}

// RFPSupplier is one invited vendor on an RFP. Registered suppliers
// carry a SupplierID; unregistered ones only an email and invite token.
type RFPSupplier struct {
	ID          int               `json:"id" example:"1"`
	RFPID       int               `json:"rfp_id" example:"1"`
	SupplierID  int               `json:"supplier_id" example:"812345678"` // 0 for unregistered
	Name        string            `json:"name" example:"ABC Suppliers"`
	Email       string            `json:"email" example:"sales@abc.example.com"`
	Status      RFPSupplierStatus `json:"status" example:"INVITED"`
	Registered  bool              `json:"registered"`
	InviteToken string            `json:"invite_token,omitempty"`
	InvitedAt   time.Time         `json:"invited_at"`
	Responded   bool              `json:"responded"`
}

// RFPQuotation is a supplier's priced response. At most one
// non-withdrawn quotation exists per (RFP, supplier); re-submissions
// mutate it in place and bump Version.
type RFPQuotation struct {
	ID              int                `json:"id" example:"1"`
	RFPID           int                `json:"rfp_id" example:"1"`
	SupplierID      int                `json:"supplier_id" example:"812345678"`
	QuotationNumber string             `json:"quotation_number" example:"QT/2026/001"`
	QuotationDate   time.Time          `json:"quotation_date"`
	PaymentTerms    string             `json:"payment_terms" example:"Net 30"`
	Status          QuotationStatus    `json:"status" example:"SUBMITTED"`
	Notes           string             `json:"notes,omitempty"`
	Version         int                `json:"version" example:"1"`
	Items           []RFPQuotationItem `json:"items"`
	Subtotal        float64            `json:"subtotal"`
	TaxAmount       float64            `json:"tax_amount"`
	NetAmount       float64            `json:"net_amount"`
	SubmittedAt     time.Time          `json:"submitted_at"`
	UpdatedAt       time.Time          `json:"updated_at"`
}

// RFPQuotationItem is one priced line inside a quotation.
type RFPQuotationItem struct {
	ID          int     `json:"id" example:"1"`
	QuotationID int     `json:"quotation_id" example:"1"`
	RFPItemID   int     `json:"rfp_item_id,omitempty" example:"1"`
	ItemName    string  `json:"item_name" example:"Laptop"`
	Quantity    float64 `json:"quantity" example:"10"`
	UOM         string  `json:"uom" example:"Nos"`
	UnitPrice   float64 `json:"unit_price" example:"45000"`
	TaxRate     float64 `json:"tax_rate" example:"18"`
	TotalPrice  float64 `json:"total_price" example:"531000"`
}

// VendorSelection maps one RFP item (joined by item name across
// supplier quotations) to the supplier chosen for it.
type VendorSelection struct {
	RFPID      int     `json:"rfp_id" example:"1"`
	ItemName   string  `json:"item_name" example:"Laptop"`
	SupplierID int     `json:"supplier_id" example:"812345678"`
	UnitPrice  float64 `json:"unit_price" example:"44000"`
	Remarks    string  `json:"remarks,omitempty"`
}

// ApprovalRequest is the payload sent to management when purchasing
// finalizes its vendor selection.
type ApprovalRequest struct {
	RFPID          int               `json:"rfp_id" example:"1"`
	RFPNumber      string            `json:"rfp_number" example:"RFP/AB12345"`
	ApprovalGroup  string            `json:"approval_group" example:"Management"`
	CompetitiveBid bool              `json:"competitive_bid"`
	LowestSelected bool              `json:"lowest_selected"`
	Justification  string            `json:"justification,omitempty"`
	Selections     []VendorSelection `json:"selections"`
	TotalValue     float64           `json:"total_value"`
	RequestedBy    string            `json:"requested_by,omitempty"`
	RequestedAt    time.Time         `json:"requested_at"`
}

// PurchaseRequest feeds RFP creation; approved requests are combined
// into an RFP.
type PurchaseRequest struct {
	ID        int                   `json:"id" example:"1"`
	PRNumber  string                `json:"pr_number" example:"PR/CD67890"`
	Title     string                `json:"title" example:"Office hardware refresh"`
	Status    string                `json:"status" example:"SUBMITTED"`
	Remarks   string                `json:"remarks,omitempty"`
	ProjectID int                   `json:"project_id" example:"1"`
	Items     []PurchaseRequestItem `json:"items"`
	CreatedAt time.Time             `json:"created_at"`
	CreatedBy string                `json:"created_by,omitempty"`
	UpdatedAt time.Time             `json:"updated_at"`
}

// PurchaseRequestItem is one requested line. ItemID 0 marks a line
// that did not resolve against the catalog and keeps its raw text.
type PurchaseRequestItem struct {
	ID          int     `json:"id" example:"1"`
	RequestID   int     `json:"request_id" example:"1"`
	ItemID      int     `json:"item_id" example:"204"`
	Name        string  `json:"name" example:"ThinkPad E14"`
	Make        string  `json:"make,omitempty" example:"Lenovo"`
	Category    string  `json:"category,omitempty" example:"IT Hardware"`
	SubCategory string  `json:"sub_category,omitempty" example:"Laptops"`
	UOM         string  `json:"uom" example:"Nos"`
	Description string  `json:"description,omitempty"`
	Quantity    float64 `json:"quantity" example:"10"`
	UnitPrice   float64 `json:"unit_price" example:"45000"`
}

// Supplier represents the structure for the suppliers table.
type Supplier struct {
	SupplierID   int       `json:"supplier_id" example:"1"`
	Name         string    `json:"name" example:"ABC Suppliers"`
	Email        string    `json:"email" example:"vendor@example.com"`
	Phone        string    `json:"phone" example:"9876543210"`
	Address      string    `json:"address" example:"123 Industrial Area"`
	Status       string    `json:"status" example:"active"`
	SupplierType string    `json:"supplier_type" example:"material"`
	GSTNumber    string    `json:"gst_number,omitempty"`
	CreatedAt    time.Time `json:"created_at" example:"2026-01-15T10:30:00Z"`
	UpdatedAt    time.Time `json:"updated_at" example:"2026-01-15T10:30:00Z"`
	CreatedBy    string    `json:"created_by" example:"admin"`
	UpdatedBy    string    `json:"updated_by" example:"admin"`
	ProjectID    int       `json:"project_id" example:"1"`
}

type User struct {
	ID        int       `json:"id" example:"1"`
	FirstName string    `json:"first_name" example:"John"`
	LastName  string    `json:"last_name" example:"Doe"`
	Email     string    `json:"email" example:"john@example.com"`
	Password  string    `json:"password,omitempty"`
	RoleID    int       `json:"role_id" example:"2"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Session struct {
	UserID                int       `json:"user_id"`
	SessionID             string    `json:"session_id"`
	HostName              string    `json:"host_name"`
	IPAddress             string    `json:"ip_address"`
	Timestamp             time.Time `json:"timestp"`
	ExpiresAt             time.Time `json:"expires_at"`
	RefreshToken          string    `json:"refresh_token,omitempty"`
	RefreshTokenExpiresAt time.Time `json:"refresh_token_expires_at,omitempty"`
}

func GetSessionBySessionID(db *sql.DB, sessionID string) (*Session, error) {
	query := `SELECT session_id, user_id, host_name, timestp FROM session WHERE session_id = $1`

	var session Session

	err := db.QueryRow(query, sessionID).Scan(&session.SessionID, &session.UserID, &session.HostName, &session.Timestamp)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.New("session not found")
		}
		return nil, err
	}
	return &session, nil
}

type Notification struct {
	ID        int       `json:"id" example:"1"`
	UserID    int       `json:"user_id" example:"1"`
	Message   string    `json:"message" example:"RFP sent for approval"`
	Status    string    `json:"status" example:"unread"`
	Action    string    `json:"action" example:"view"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type ActivityLog struct {
	ID                int       `json:"id" example:"1"`
	CreatedAt         time.Time `json:"created_at"`
	UserName          string    `json:"user_name" example:"John Doe"`
	HostName          string    `json:"host_name" example:"workstation-01"`
	EventContext      string    `json:"event_context" example:"rfp"`
	IPAddress         string    `json:"ip_address" example:"192.168.1.1"`
	Description       string    `json:"description" example:"RFP floated"`
	EventName         string    `json:"event_name" example:"float"`
	AffectedUserName  string    `json:"affected_user_name,omitempty"`
	AffectedUserEmail string    `json:"affected_user_email,omitempty"`
	ProjectID         int       `json:"project_id" example:"1"`
}

type ErrorResponse struct {
	Error   string `json:"error" example:"Invalid request"`
	Details string `json:"details,omitempty"`
}

// EmailData carries template variables for outgoing mails.
type EmailData struct {
	RecipientName string
	RFPNumber     string
	RFPTitle      string
	ClosingDate   string
	InviteLink    string
	SenderName    string
}
