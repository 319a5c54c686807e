package repository

import (
	"context"
	"database/sql"
	"fmt"
	"math/rand"
	"time"

	"procurement-backend/models"
	"procurement-backend/utils"
	"procurement-backend/workflow"

	"github.com/lib/pq"
)

func GenerateRandomNumber() int {
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	return rng.Intn(900000000) + 100000000
}

func GenerateRandomCode() string {
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	letters := "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	prefix := string(letters[rng.Intn(len(letters))]) + string(letters[rng.Intn(len(letters))])
	number := rng.Intn(90000) + 10000

	return fmt.Sprintf("%s%d", prefix, number)
}

// GenerateRFPNumber builds document numbers like "RFP/AB12345".
func GenerateRFPNumber() string {
	return "RFP/" + GenerateRandomCode()
}

// GeneratePRNumber builds document numbers like "PR/CD67890".
func GeneratePRNumber() string {
	return "PR/" + GenerateRandomCode()
}

// FetchRFP loads the full RFP aggregate: header, items, suppliers,
// quotations with their items, and any recorded selections.
func FetchRFP(db *sql.DB, rfpID int) (*models.RFP, error) {
	ctx, cancel := utils.GetSlowQueryContext(context.Background())
	defer cancel()

	var rfp models.RFP
	var cancelReason, approvalGroup, justification, decisionRemarks sql.NullString
	err := db.QueryRowContext(ctx, `
		SELECT id, rfp_number, title, description, status, closing_date,
		       pending_approval, COALESCE(approval_group, ''), competitive_bid, lowest_selected,
		       COALESCE(selection_justification, ''), COALESCE(decision_remarks, ''),
		       COALESCE(cancel_reason, ''), project_id, created_at, created_by, updated_at, updated_by
		FROM rfp WHERE id = $1`, rfpID).Scan(
		&rfp.ID, &rfp.RFPNumber, &rfp.Title, &rfp.Description, &rfp.Status, &rfp.ClosingDate,
		&rfp.PendingApproval, &approvalGroup, &rfp.CompetitiveBid, &rfp.LowestSelected,
		&justification, &decisionRemarks,
		&cancelReason, &rfp.ProjectID, &rfp.CreatedAt, &rfp.CreatedBy, &rfp.UpdatedAt, &rfp.UpdatedBy,
	)
	if err == sql.ErrNoRows {
		return nil, &workflow.NotFoundError{Entity: "RFP", Ref: fmt.Sprintf("%d", rfpID)}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch RFP %d: %w", rfpID, err)
	}
	rfp.ApprovalGroup = approvalGroup.String
	rfp.SelectionJustification = justification.String
	rfp.DecisionRemarks = decisionRemarks.String
	rfp.CancelReason = cancelReason.String

	if rfp.Items, err = fetchRFPItems(ctx, db, rfpID); err != nil {
		return nil, err
	}
	if rfp.Suppliers, err = fetchRFPSuppliers(ctx, db, rfpID); err != nil {
		return nil, err
	}
	if rfp.Quotations, err = fetchRFPQuotations(ctx, db, rfpID); err != nil {
		return nil, err
	}
	if rfp.Selections, err = fetchSelections(ctx, db, rfpID); err != nil {
		return nil, err
	}
	return &rfp, nil
}

func fetchRFPItems(ctx context.Context, db *sql.DB, rfpID int) ([]models.RFPItem, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, rfp_id, item_id, name, COALESCE(item_code, ''), quantity, uom,
		       indicative_price, target_unit_price, grand_total
		FROM rfp_item WHERE rfp_id = $1 ORDER BY id`, rfpID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch RFP items: %w", err)
	}
	defer rows.Close()

	var items []models.RFPItem
	for rows.Next() {
		var it models.RFPItem
		if err := rows.Scan(&it.ID, &it.RFPID, &it.ItemID, &it.Name, &it.ItemCode,
			&it.Quantity, &it.UOM, &it.IndicativePrice, &it.TargetUnitPrice, &it.GrandTotal); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func fetchRFPSuppliers(ctx context.Context, db *sql.DB, rfpID int) ([]models.RFPSupplier, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, rfp_id, supplier_id, COALESCE(name, ''), COALESCE(email, ''),
		       status, registered, COALESCE(invite_token, ''), invited_at, responded
		FROM rfp_supplier WHERE rfp_id = $1 ORDER BY id`, rfpID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch RFP suppliers: %w", err)
	}
	defer rows.Close()

	var suppliers []models.RFPSupplier
	for rows.Next() {
		var s models.RFPSupplier
		if err := rows.Scan(&s.ID, &s.RFPID, &s.SupplierID, &s.Name, &s.Email,
			&s.Status, &s.Registered, &s.InviteToken, &s.InvitedAt, &s.Responded); err != nil {
			return nil, err
		}
		suppliers = append(suppliers, s)
	}
	return suppliers, rows.Err()
}

func fetchRFPQuotations(ctx context.Context, db *sql.DB, rfpID int) ([]models.RFPQuotation, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, rfp_id, supplier_id, quotation_number, quotation_date,
		       COALESCE(payment_terms, ''), status, COALESCE(notes, ''), version,
		       subtotal, tax_amount, net_amount, submitted_at, updated_at
		FROM rfp_quotation WHERE rfp_id = $1 ORDER BY submitted_at, id`, rfpID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch quotations: %w", err)
	}
	defer rows.Close()

	var quotations []models.RFPQuotation
	for rows.Next() {
		var q models.RFPQuotation
		if err := rows.Scan(&q.ID, &q.RFPID, &q.SupplierID, &q.QuotationNumber, &q.QuotationDate,
			&q.PaymentTerms, &q.Status, &q.Notes, &q.Version,
			&q.Subtotal, &q.TaxAmount, &q.NetAmount, &q.SubmittedAt, &q.UpdatedAt); err != nil {
			return nil, err
		}
		quotations = append(quotations, q)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range quotations {
		items, err := fetchQuotationItems(ctx, db, quotations[i].ID)
		if err != nil {
			return nil, err
		}
		quotations[i].Items = items
	}
	return quotations, nil
}

func fetchQuotationItems(ctx context.Context, db *sql.DB, quotationID int) ([]models.RFPQuotationItem, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, quotation_id, rfp_item_id, item_name, quantity, COALESCE(uom, ''),
		       unit_price, tax_rate, total_price
		FROM rfp_quotation_item WHERE quotation_id = $1 ORDER BY id`, quotationID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch quotation items: %w", err)
	}
	defer rows.Close()

	var items []models.RFPQuotationItem
	for rows.Next() {
		var it models.RFPQuotationItem
		if err := rows.Scan(&it.ID, &it.QuotationID, &it.RFPItemID, &it.ItemName,
			&it.Quantity, &it.UOM, &it.UnitPrice, &it.TaxRate, &it.TotalPrice); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func fetchSelections(ctx context.Context, db *sql.DB, rfpID int) ([]models.VendorSelection, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT rfp_id, item_name, supplier_id, unit_price, COALESCE(remarks, '')
		FROM rfp_selection WHERE rfp_id = $1 ORDER BY item_name`, rfpID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch selections: %w", err)
	}
	defer rows.Close()

	var selections []models.VendorSelection
	for rows.Next() {
		var s models.VendorSelection
		if err := rows.Scan(&s.RFPID, &s.ItemName, &s.SupplierID, &s.UnitPrice, &s.Remarks); err != nil {
			return nil, err
		}
		selections = append(selections, s)
	}
	return selections, rows.Err()
}

// UpdateRFPWorkflowState persists the header fields the workflow
// package mutates (status, closing date, approval flags, remarks).
func UpdateRFPWorkflowState(tx *sql.Tx, rfp *models.RFP) error {
	_, err := tx.Exec(`
		UPDATE rfp SET status = $1, closing_date = $2, pending_approval = $3,
		       approval_group = $4, competitive_bid = $5, lowest_selected = $6,
		       selection_justification = $7, decision_remarks = $8, cancel_reason = $9,
		       updated_at = $10, updated_by = $11
		WHERE id = $12`,
		rfp.Status, rfp.ClosingDate, rfp.PendingApproval,
		rfp.ApprovalGroup, rfp.CompetitiveBid, rfp.LowestSelected,
		rfp.SelectionJustification, rfp.DecisionRemarks, rfp.CancelReason,
		rfp.UpdatedAt, rfp.UpdatedBy, rfp.ID)
	if err != nil {
		return fmt.Errorf("failed to update RFP %d: %w", rfp.ID, err)
	}
	return nil
}

// InsertRFPSuppliers stores newly invited suppliers (the ones without
// a row id yet).
func InsertRFPSuppliers(tx *sql.Tx, rfp *models.RFP) error {
	for i := range rfp.Suppliers {
		s := &rfp.Suppliers[i]
		if s.ID != 0 {
			continue
		}
		err := tx.QueryRow(`
			INSERT INTO rfp_supplier (rfp_id, supplier_id, name, email, status, registered, invite_token, invited_at, responded)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			RETURNING id`,
			rfp.ID, s.SupplierID, s.Name, s.Email, s.Status, s.Registered, s.InviteToken, s.InvitedAt, s.Responded,
		).Scan(&s.ID)
		if err != nil {
			return fmt.Errorf("failed to insert RFP supplier: %w", err)
		}
	}
	return nil
}

// UpdateRFPSupplierStatuses syncs supplier status/responded flags.
func UpdateRFPSupplierStatuses(tx *sql.Tx, rfp *models.RFP) error {
	for i := range rfp.Suppliers {
		s := &rfp.Suppliers[i]
		if s.ID == 0 {
			continue
		}
		if _, err := tx.Exec(`UPDATE rfp_supplier SET status = $1, responded = $2 WHERE id = $3`,
			s.Status, s.Responded, s.ID); err != nil {
			return fmt.Errorf("failed to update RFP supplier %d: %w", s.ID, err)
		}
	}
	return nil
}

// InsertQuotation stores a brand new quotation with its items and
// fills in the generated ids.
func InsertQuotation(tx *sql.Tx, q *models.RFPQuotation) error {
	err := tx.QueryRow(`
		INSERT INTO rfp_quotation (rfp_id, supplier_id, quotation_number, quotation_date,
			payment_terms, status, notes, version, subtotal, tax_amount, net_amount, submitted_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id`,
		q.RFPID, q.SupplierID, q.QuotationNumber, q.QuotationDate,
		q.PaymentTerms, q.Status, q.Notes, q.Version, q.Subtotal, q.TaxAmount, q.NetAmount, q.SubmittedAt, q.UpdatedAt,
	).Scan(&q.ID)
	if err != nil {
		return fmt.Errorf("failed to insert quotation: %w", err)
	}
	return insertQuotationItems(tx, q)
}

func insertQuotationItems(tx *sql.Tx, q *models.RFPQuotation) error {
	for i := range q.Items {
		it := &q.Items[i]
		it.QuotationID = q.ID
		err := tx.QueryRow(`
			INSERT INTO rfp_quotation_item (quotation_id, rfp_item_id, item_name, quantity, uom, unit_price, tax_rate, total_price)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			RETURNING id`,
			it.QuotationID, it.RFPItemID, it.ItemName, it.Quantity, it.UOM, it.UnitPrice, it.TaxRate, it.TotalPrice,
		).Scan(&it.ID)
		if err != nil {
			return fmt.Errorf("failed to insert quotation item: %w", err)
		}
	}
	return nil
}

// UpdateQuotation persists an in-place mutation (negotiate, re-submit,
// withdraw): header fields plus a full item replacement. The version
// check in the WHERE clause is the server-side optimistic guard.
func UpdateQuotation(tx *sql.Tx, q *models.RFPQuotation, previousVersion int) error {
	res, err := tx.Exec(`
		UPDATE rfp_quotation SET payment_terms = $1, status = $2, notes = $3, version = $4,
		       subtotal = $5, tax_amount = $6, net_amount = $7, updated_at = $8
		WHERE id = $9 AND version = $10`,
		q.PaymentTerms, q.Status, q.Notes, q.Version,
		q.Subtotal, q.TaxAmount, q.NetAmount, q.UpdatedAt, q.ID, previousVersion)
	if err != nil {
		return fmt.Errorf("failed to update quotation %d: %w", q.ID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return &workflow.VersionConflictError{QuotationID: q.ID, Expected: q.Version, Got: previousVersion}
	}

	if _, err := tx.Exec(`DELETE FROM rfp_quotation_item WHERE quotation_id = $1`, q.ID); err != nil {
		return fmt.Errorf("failed to clear quotation items: %w", err)
	}
	return insertQuotationItems(tx, q)
}

// UpdateQuotationStatuses persists status-only changes across the
// aggregate's quotations (evaluation, approval decision).
func UpdateQuotationStatuses(tx *sql.Tx, rfp *models.RFP) error {
	for i := range rfp.Quotations {
		q := &rfp.Quotations[i]
		if _, err := tx.Exec(`UPDATE rfp_quotation SET status = $1, updated_at = $2 WHERE id = $3`,
			q.Status, q.UpdatedAt, q.ID); err != nil {
			return fmt.Errorf("failed to update quotation %d status: %w", q.ID, err)
		}
	}
	return nil
}

// ReplaceSelections overwrites the recorded vendor selections.
func ReplaceSelections(tx *sql.Tx, rfp *models.RFP) error {
	if _, err := tx.Exec(`DELETE FROM rfp_selection WHERE rfp_id = $1`, rfp.ID); err != nil {
		return fmt.Errorf("failed to clear selections: %w", err)
	}
	for _, s := range rfp.Selections {
		if _, err := tx.Exec(`
			INSERT INTO rfp_selection (rfp_id, item_name, supplier_id, unit_price, remarks)
			VALUES ($1, $2, $3, $4, $5)`,
			rfp.ID, s.ItemName, s.SupplierID, s.UnitPrice, s.Remarks); err != nil {
			return fmt.Errorf("failed to insert selection: %w", err)
		}
	}
	return nil
}

// FetchSupplierNames resolves display names for the given supplier
// ids, falling back to the RFP-supplier record for unregistered ones.
func FetchSupplierNames(db *sql.DB, rfp *models.RFP) (map[int]string, error) {
	names := make(map[int]string, len(rfp.Suppliers))
	ids := make([]int64, 0, len(rfp.Suppliers))
	for _, s := range rfp.Suppliers {
		if s.Name != "" {
			names[s.SupplierID] = s.Name
		}
		if s.Registered {
			ids = append(ids, int64(s.SupplierID))
		}
	}
	if len(ids) == 0 {
		return names, nil
	}

	rows, err := db.Query(`SELECT supplier_id, name FROM inv_suppliers WHERE supplier_id = ANY($1)`, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch supplier names: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id int
		var name string
		if err := rows.Scan(&id, &name); err != nil {
			return nil, err
		}
		names[id] = name
	}
	return names, rows.Err()
}
