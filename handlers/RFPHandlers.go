package handlers

import (
	"database/sql"
	"errors"
	"fmt"
	"log"
	"math"
	"net/http"
	"strconv"
	"time"

	"procurement-backend/models"
	"procurement-backend/repository"
	"procurement-backend/services"
	"procurement-backend/workflow"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// respondWorkflowError maps the workflow error kinds onto HTTP
// statuses in the API's usual error shape.
func respondWorkflowError(c *gin.Context, err error) {
	var verr *workflow.ValidationError
	var verrs *workflow.ValidationErrors
	var serr *workflow.StateTransitionError
	var ratchet *workflow.PriceRatchetViolation
	var nf *workflow.NotFoundError
	var conflict *workflow.VersionConflictError

	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Validation failed", "details": verr.Error()})
	case errors.As(err, &verrs):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Validation failed", "details": verrs.Error(), "fields": verrs.Errors})
	case errors.As(err, &ratchet):
		c.JSON(http.StatusConflict, gin.H{"error": "Price ratchet violation", "details": ratchet.Error(), "item": ratchet.ItemName})
	case errors.As(err, &serr):
		c.JSON(http.StatusConflict, gin.H{"error": "Invalid state transition", "details": serr.Error()})
	case errors.As(err, &conflict):
		c.JSON(http.StatusConflict, gin.H{"error": "Concurrent modification", "details": conflict.Error()})
	case errors.As(err, &nf):
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found", "details": nf.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal error", "details": err.Error()})
	}
}

// runRFPMutation loads the aggregate, applies the mutation inside a
// transaction and returns the updated aggregate to the caller, so the
// UI never depends on hidden cache invalidation.
func runRFPMutation(c *gin.Context, db *sql.DB, rfpID int, mutate func(*models.RFP, *sql.Tx) error) *models.RFP {
	rfp, err := repository.FetchRFP(db, rfpID)
	if err != nil {
		respondWorkflowError(c, err)
		return nil
	}

	tx, err := db.Begin()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to start transaction", "details": err.Error()})
		return nil
	}
	defer tx.Rollback()

	if err := mutate(rfp, tx); err != nil {
		respondWorkflowError(c, err)
		return nil
	}
	if err := tx.Commit(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to commit transaction", "details": err.Error()})
		return nil
	}
	return rfp
}

// CreateRFP creates a new RFP in DRAFT with its item list.
// @Summary Create RFP
// @Tags RFPs
// @Accept json
// @Produce json
// @Param body body models.RFP true "RFP data"
// @Success 201 {object} models.RFP
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Router /api/create_rfp [post]
func CreateRFP(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID := c.GetHeader("Authorization")
		if sessionID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "session-id header is required"})
			return
		}
		session, userName, err := GetSessionDetails(db, sessionID)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid session", "details": err.Error()})
			return
		}

		var rfp models.RFP
		if err := c.ShouldBindJSON(&rfp); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON input", "details": err.Error()})
			return
		}
		if len(rfp.Items) == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "RFP must have at least one item"})
			return
		}

		rfp.ID = repository.GenerateRandomNumber()
		if rfp.RFPNumber == "" {
			rfp.RFPNumber = repository.GenerateRFPNumber()
		}
		rfp.Status = models.RFPDraft
		rfp.CreatedAt = time.Now()
		rfp.UpdatedAt = time.Now()
		rfp.CreatedBy = userName
		rfp.UpdatedBy = userName

		tx, err := db.Begin()
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to start transaction"})
			return
		}
		defer tx.Rollback()

		_, err = tx.Exec(`
			INSERT INTO rfp (id, rfp_number, title, description, status, closing_date, pending_approval,
				competitive_bid, lowest_selected, project_id, created_at, created_by, updated_at, updated_by)
			VALUES ($1, $2, $3, $4, $5, $6, false, false, false, $7, $8, $9, $10, $11)`,
			rfp.ID, rfp.RFPNumber, rfp.Title, rfp.Description, rfp.Status, rfp.ClosingDate,
			rfp.ProjectID, rfp.CreatedAt, rfp.CreatedBy, rfp.UpdatedAt, rfp.UpdatedBy)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to insert RFP", "details": err.Error()})
			return
		}

		for i := range rfp.Items {
			it := &rfp.Items[i]
			it.RFPID = rfp.ID
			it.GrandTotal = it.Quantity * it.IndicativePrice
			err = tx.QueryRow(`
				INSERT INTO rfp_item (rfp_id, item_id, name, item_code, quantity, uom, indicative_price, target_unit_price, grand_total)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
				RETURNING id`,
				it.RFPID, it.ItemID, it.Name, it.ItemCode, it.Quantity, it.UOM,
				it.IndicativePrice, it.TargetUnitPrice, it.GrandTotal).Scan(&it.ID)
			if err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to insert RFP item", "details": err.Error()})
				return
			}
		}

		if err := tx.Commit(); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to commit transaction"})
			return
		}

		c.JSON(http.StatusCreated, rfp)

		logEntry := models.ActivityLog{
			EventContext: "RFP",
			EventName:    "Create",
			Description:  fmt.Sprintf("Created RFP %s", rfp.RFPNumber),
			UserName:     userName,
			HostName:     session.HostName,
			IPAddress:    session.IPAddress,
			CreatedAt:    time.Now(),
			ProjectID:    rfp.ProjectID,
		}
		if logErr := SaveActivityLog(db, logEntry); logErr != nil {
			log.Printf("Failed to log activity: %v", logErr)
		}
	}
}

// UpdateRFP edits the header and item list of an RFP still in DRAFT.
// Items are replaced wholesale; once the RFP leaves DRAFT they are
// immutable.
// @Summary Update RFP
// @Tags RFPs
// @Accept json
// @Produce json
// @Param id path int true "RFP ID"
// @Param body body models.RFP true "RFP data"
// @Success 200 {object} models.RFP
// @Failure 409 {object} models.ErrorResponse
// @Router /api/rfp_update/{id} [put]
func UpdateRFP(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID := c.GetHeader("Authorization")
		if sessionID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "session-id header is required"})
			return
		}
		_, userName, err := GetSessionDetails(db, sessionID)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid session", "details": err.Error()})
			return
		}
		rfpID, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid RFP ID"})
			return
		}
		var in models.RFP
		if err := c.ShouldBindJSON(&in); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON input", "details": err.Error()})
			return
		}
		if len(in.Items) == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "RFP must have at least one item"})
			return
		}

		rfp := runRFPMutation(c, db, rfpID, func(rfp *models.RFP, tx *sql.Tx) error {
			if rfp.Status != models.RFPDraft {
				return &workflow.StateTransitionError{Entity: "RFP " + rfp.RFPNumber, Operation: "edit", From: string(rfp.Status)}
			}
			rfp.Title = in.Title
			rfp.Description = in.Description
			rfp.ClosingDate = in.ClosingDate
			rfp.UpdatedAt = time.Now()
			rfp.UpdatedBy = userName

			if _, err := tx.Exec(`UPDATE rfp SET title = $1, description = $2 WHERE id = $3`,
				rfp.Title, rfp.Description, rfp.ID); err != nil {
				return err
			}
			if _, err := tx.Exec(`DELETE FROM rfp_item WHERE rfp_id = $1`, rfp.ID); err != nil {
				return err
			}
			rfp.Items = in.Items
			for i := range rfp.Items {
				it := &rfp.Items[i]
				it.RFPID = rfp.ID
				it.GrandTotal = it.Quantity * it.IndicativePrice
				err := tx.QueryRow(`
					INSERT INTO rfp_item (rfp_id, item_id, name, item_code, quantity, uom, indicative_price, target_unit_price, grand_total)
					VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
					RETURNING id`,
					it.RFPID, it.ItemID, it.Name, it.ItemCode, it.Quantity, it.UOM,
					it.IndicativePrice, it.TargetUnitPrice, it.GrandTotal).Scan(&it.ID)
				if err != nil {
					return err
				}
			}
			return repository.UpdateRFPWorkflowState(tx, rfp)
		})
		if rfp != nil {
			c.JSON(http.StatusOK, rfp)
		}
	}
}

// GetRFP fetches one RFP aggregate by id.
// @Summary Get RFP
// @Tags RFPs
// @Produce json
// @Param id path int true "RFP ID"
// @Success 200 {object} models.RFP
// @Failure 404 {object} models.ErrorResponse
// @Router /api/rfp_fetch/{id} [get]
func GetRFP(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		rfpID, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid RFP ID"})
			return
		}
		rfp, err := repository.FetchRFP(db, rfpID)
		if err != nil {
			respondWorkflowError(c, err)
			return
		}
		c.JSON(http.StatusOK, rfp)
	}
}

// GetAllRFPs lists RFP headers with pagination and optional status filter.
// @Summary List RFPs
// @Tags RFPs
// @Produce json
// @Param page query int false "Page"
// @Param limit query int false "Limit"
// @Param status query string false "Status filter"
// @Success 200 {object} object
// @Router /api/rfps [get]
func GetAllRFPs(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
		if err != nil || page < 1 {
			page = 1
		}
		limit, err := strconv.Atoi(c.DefaultQuery("limit", "10"))
		if err != nil || limit < 1 {
			limit = 10
		}
		offset := (page - 1) * limit
		status := c.Query("status")

		countQuery := `SELECT COUNT(*) FROM rfp`
		listQuery := `
			SELECT id, rfp_number, title, status, closing_date, pending_approval, project_id, created_at, updated_at
			FROM rfp`
		args := []interface{}{}
		if status != "" {
			countQuery += ` WHERE status = $1`
			listQuery += ` WHERE status = $1`
			args = append(args, status)
		}
		listQuery += fmt.Sprintf(` ORDER BY created_at DESC LIMIT %d OFFSET %d`, limit, offset)

		var total int
		if err := db.QueryRow(countQuery, args...).Scan(&total); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Error counting RFPs", "details": err.Error()})
			return
		}

		rows, err := db.Query(listQuery, args...)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Error fetching RFPs", "details": err.Error()})
			return
		}
		defer rows.Close()

		var rfps []models.RFP
		for rows.Next() {
			var r models.RFP
			if err := rows.Scan(&r.ID, &r.RFPNumber, &r.Title, &r.Status, &r.ClosingDate,
				&r.PendingApproval, &r.ProjectID, &r.CreatedAt, &r.UpdatedAt); err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Error scanning RFPs", "details": err.Error()})
				return
			}
			rfps = append(rfps, r)
		}

		c.JSON(http.StatusOK, gin.H{
			"rfps":        rfps,
			"page":        page,
			"limit":       limit,
			"total":       total,
			"total_pages": int(math.Ceil(float64(total) / float64(limit))),
		})
	}
}

// SubmitRFP moves a draft RFP to CREATED.
// @Summary Submit RFP
// @Tags RFPs
// @Produce json
// @Param id path int true "RFP ID"
// @Success 200 {object} models.RFP
// @Failure 409 {object} models.ErrorResponse
// @Router /api/rfp_submit/{id} [post]
func SubmitRFP(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID := c.GetHeader("Authorization")
		if sessionID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "session-id header is required"})
			return
		}
		_, userName, err := GetSessionDetails(db, sessionID)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid session", "details": err.Error()})
			return
		}
		rfpID, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid RFP ID"})
			return
		}

		rfp := runRFPMutation(c, db, rfpID, func(rfp *models.RFP, tx *sql.Tx) error {
			if err := workflow.SubmitRFP(rfp, time.Now()); err != nil {
				return err
			}
			rfp.UpdatedBy = userName
			return repository.UpdateRFPWorkflowState(tx, rfp)
		})
		if rfp != nil {
			c.JSON(http.StatusOK, rfp)
		}
	}
}

// FloatRFP sends a CREATED RFP to registered suppliers and/or
// unregistered vendor emails, then mails the invitations.
// @Summary Float RFP
// @Tags RFPs
// @Accept json
// @Produce json
// @Param id path int true "RFP ID"
// @Param body body models.FloatRFPRequest true "Recipients and closing date"
// @Success 200 {object} models.RFP
// @Failure 400 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /api/rfp_float/{id} [post]
func FloatRFP(db *sql.DB, mailer *services.EmailService) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID := c.GetHeader("Authorization")
		if sessionID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "session-id header is required"})
			return
		}
		session, userName, err := GetSessionDetails(db, sessionID)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid session", "details": err.Error()})
			return
		}
		rfpID, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid RFP ID"})
			return
		}
		var req models.FloatRFPRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON input", "details": err.Error()})
			return
		}

		rfp := runRFPMutation(c, db, rfpID, func(rfp *models.RFP, tx *sql.Tx) error {
			if err := workflow.FloatRFP(rfp, req.SupplierIDs, req.Unregistered, req.ClosingDate, time.Now()); err != nil {
				return err
			}
			// invite tokens let unregistered vendors reach the quoting page
			for i := range rfp.Suppliers {
				if !rfp.Suppliers[i].Registered && rfp.Suppliers[i].InviteToken == "" {
					rfp.Suppliers[i].InviteToken = uuid.NewString()
				}
			}
			rfp.UpdatedBy = userName
			if err := repository.InsertRFPSuppliers(tx, rfp); err != nil {
				return err
			}
			return repository.UpdateRFPWorkflowState(tx, rfp)
		})
		if rfp == nil {
			return
		}
		c.JSON(http.StatusOK, rfp)

		go sendFloatInvitations(db, mailer, rfp, userName)

		logEntry := models.ActivityLog{
			EventContext: "RFP",
			EventName:    "Float",
			Description:  fmt.Sprintf("Floated RFP %s to %d suppliers", rfp.RFPNumber, len(rfp.Suppliers)),
			UserName:     userName,
			HostName:     session.HostName,
			IPAddress:    session.IPAddress,
			CreatedAt:    time.Now(),
			ProjectID:    rfp.ProjectID,
		}
		if logErr := SaveActivityLog(db, logEntry); logErr != nil {
			log.Printf("Failed to log activity: %v", logErr)
		}
	}
}

func sendFloatInvitations(db *sql.DB, mailer *services.EmailService, rfp *models.RFP, sender string) {
	if mailer == nil {
		return
	}
	baseURL := baseAppURL()
	for _, s := range rfp.Suppliers {
		email := s.Email
		if email == "" && s.Registered {
			if err := db.QueryRow(`SELECT email FROM inv_suppliers WHERE supplier_id = $1`, s.SupplierID).Scan(&email); err != nil {
				log.Printf("No email for supplier %d: %v", s.SupplierID, err)
				continue
			}
		}
		if email == "" {
			continue
		}
		link := fmt.Sprintf("%s/rfp/%d/quote", baseURL, rfp.ID)
		if s.InviteToken != "" {
			link += "?invite=" + s.InviteToken
		}
		data := models.EmailData{
			RecipientName: s.Name,
			RFPNumber:     rfp.RFPNumber,
			RFPTitle:      rfp.Title,
			ClosingDate:   rfp.ClosingDate.Format("02-Jan-2006 15:04"),
			InviteLink:    link,
			SenderName:    sender,
		}
		if err := mailer.SendRFPInvitation(email, data); err != nil {
			log.Printf("Failed to send invitation for RFP %s to %s: %v", rfp.RFPNumber, email, err)
		}
	}
}

// ExtendRFPClosingDate pushes the quoting deadline out.
// @Summary Extend RFP closing date
// @Tags RFPs
// @Accept json
// @Produce json
// @Param id path int true "RFP ID"
// @Param body body models.ExtendClosingDateRequest true "New closing date"
// @Success 200 {object} models.RFP
// @Failure 400 {object} models.ErrorResponse
// @Router /api/rfp_extend/{id} [put]
func ExtendRFPClosingDate(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		rfpID, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid RFP ID"})
			return
		}
		var req models.ExtendClosingDateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON input", "details": err.Error()})
			return
		}

		rfp := runRFPMutation(c, db, rfpID, func(rfp *models.RFP, tx *sql.Tx) error {
			if err := workflow.ExtendClosingDate(rfp, req.ClosingDate, time.Now()); err != nil {
				return err
			}
			return repository.UpdateRFPWorkflowState(tx, rfp)
		})
		if rfp != nil {
			c.JSON(http.StatusOK, rfp)
		}
	}
}

// CancelRFP cancels a non-terminal RFP with a mandatory reason.
// @Summary Cancel RFP
// @Tags RFPs
// @Accept json
// @Produce json
// @Param id path int true "RFP ID"
// @Param body body models.CancelRFPRequest true "Reason"
// @Success 200 {object} models.RFP
// @Failure 409 {object} models.ErrorResponse
// @Router /api/rfp_cancel/{id} [post]
func CancelRFP(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		rfpID, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid RFP ID"})
			return
		}
		var req models.CancelRFPRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON input", "details": err.Error()})
			return
		}

		rfp := runRFPMutation(c, db, rfpID, func(rfp *models.RFP, tx *sql.Tx) error {
			if err := workflow.CancelRFP(rfp, req.Reason, time.Now()); err != nil {
				return err
			}
			return repository.UpdateRFPWorkflowState(tx, rfp)
		})
		if rfp != nil {
			c.JSON(http.StatusOK, rfp)
		}
	}
}

// CloseRFP manually closes an approved RFP.
// @Summary Close RFP
// @Tags RFPs
// @Produce json
// @Param id path int true "RFP ID"
// @Success 200 {object} models.RFP
// @Failure 409 {object} models.ErrorResponse
// @Router /api/rfp_close/{id} [post]
func CloseRFP(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		rfpID, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid RFP ID"})
			return
		}
		rfp := runRFPMutation(c, db, rfpID, func(rfp *models.RFP, tx *sql.Tx) error {
			if err := workflow.CloseRFP(rfp, time.Now()); err != nil {
				return err
			}
			return repository.UpdateRFPWorkflowState(tx, rfp)
		})
		if rfp != nil {
			c.JSON(http.StatusOK, rfp)
		}
	}
}

// DeleteRFP removes an RFP still in DRAFT or CREATED.
// @Summary Delete RFP
// @Tags RFPs
// @Produce json
// @Param id path int true "RFP ID"
// @Success 200 {object} object
// @Failure 409 {object} models.ErrorResponse
// @Router /api/rfp_delete/{id} [delete]
func DeleteRFP(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		rfpID, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid RFP ID"})
			return
		}
		rfp, err := repository.FetchRFP(db, rfpID)
		if err != nil {
			respondWorkflowError(c, err)
			return
		}
		if err := workflow.DeleteRFP(rfp); err != nil {
			respondWorkflowError(c, err)
			return
		}

		tx, err := db.Begin()
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to start transaction"})
			return
		}
		defer tx.Rollback()

		if _, err := tx.Exec(`DELETE FROM rfp_item WHERE rfp_id = $1`, rfpID); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete RFP items", "details": err.Error()})
			return
		}
		if _, err := tx.Exec(`DELETE FROM rfp WHERE id = $1`, rfpID); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete RFP", "details": err.Error()})
			return
		}
		if err := tx.Commit(); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to commit transaction"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": fmt.Sprintf("RFP %s deleted", rfp.RFPNumber)})
	}
}
