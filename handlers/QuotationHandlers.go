package handlers

import (
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"procurement-backend/models"
	"procurement-backend/repository"
	"procurement-backend/workflow"

	"github.com/gin-gonic/gin"
)

// SubmitQuotation records a supplier's first quotation on a floated RFP.
// @Summary Submit quotation
// @Tags Quotations
// @Accept json
// @Produce json
// @Param id path int true "RFP ID"
// @Param body body models.SubmitQuotationRequest true "Quotation"
// @Success 201 {object} models.RFPQuotation
// @Failure 400 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /api/rfp/{id}/quotations [post]
func SubmitQuotation(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		rfpID, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid RFP ID"})
			return
		}
		var req models.SubmitQuotationRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON input", "details": err.Error()})
			return
		}

		var created *models.RFPQuotation
		rfp := runRFPMutation(c, db, rfpID, func(rfp *models.RFP, tx *sql.Tx) error {
			q, err := workflow.SubmitQuotation(rfp, req, time.Now())
			if err != nil {
				return err
			}
			if err := repository.InsertQuotation(tx, q); err != nil {
				return err
			}
			if err := repository.UpdateRFPSupplierStatuses(tx, rfp); err != nil {
				return err
			}
			if err := repository.UpdateRFPWorkflowState(tx, rfp); err != nil {
				return err
			}
			created = q
			return nil
		})
		if rfp == nil {
			return
		}
		c.JSON(http.StatusCreated, created)

		logEntry := models.ActivityLog{
			EventContext: "Quotation",
			EventName:    "Submit",
			Description:  fmt.Sprintf("Quotation %s received on RFP %s", created.QuotationNumber, rfp.RFPNumber),
			UserName:     fmt.Sprintf("supplier:%d", req.SupplierID),
			CreatedAt:    time.Now(),
			ProjectID:    rfp.ProjectID,
		}
		if logErr := SaveActivityLog(db, logEntry); logErr != nil {
			log.Printf("Failed to log activity: %v", logErr)
		}
	}
}

// NegotiateQuotation sends one quotation back to its supplier for a
// lower re-quote. The first negotiation moves the RFP to NEGOTIATION.
// @Summary Negotiate quotation
// @Tags Quotations
// @Accept json
// @Produce json
// @Param id path int true "RFP ID"
// @Param quotation_id path int true "Quotation ID"
// @Param body body models.NegotiateRequest true "Negotiation notes"
// @Success 200 {object} models.RFPQuotation
// @Failure 409 {object} models.ErrorResponse
// @Router /api/rfp/{id}/quotations/{quotation_id}/negotiate [post]
func NegotiateQuotation(db *sql.DB) gin.HandlerFunc {
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
		quotationID, err := strconv.Atoi(c.Param("quotation_id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid quotation ID"})
			return
		}
		var req models.NegotiateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON input", "details": err.Error()})
			return
		}

		var negotiated *models.RFPQuotation
		rfp := runRFPMutation(c, db, rfpID, func(rfp *models.RFP, tx *sql.Tx) error {
			prev := 0
			if q := workflow.FindQuotation(rfp, quotationID); q != nil {
				prev = q.Version
			}
			q, err := workflow.NegotiateQuotation(rfp, quotationID, req.Notes, time.Now())
			if err != nil {
				return err
			}
			if err := repository.UpdateQuotation(tx, q, prev); err != nil {
				return err
			}
			rfp.UpdatedBy = userName
			if err := repository.UpdateRFPWorkflowState(tx, rfp); err != nil {
				return err
			}
			negotiated = q
			return nil
		})
		if rfp == nil {
			return
		}
		c.JSON(http.StatusOK, negotiated)

		logEntry := models.ActivityLog{
			EventContext: "Quotation",
			EventName:    "Negotiate",
			Description:  fmt.Sprintf("Quotation %s on RFP %s sent for negotiation", negotiated.QuotationNumber, rfp.RFPNumber),
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

// ResubmitQuotation replaces a negotiating quotation's lines, subject
// to the price ratchet and the optimistic version check.
// @Summary Re-submit quotation
// @Tags Quotations
// @Accept json
// @Produce json
// @Param id path int true "RFP ID"
// @Param quotation_id path int true "Quotation ID"
// @Param body body models.ResubmitQuotationRequest true "Revised lines"
// @Success 200 {object} models.RFPQuotation
// @Failure 409 {object} models.ErrorResponse
// @Router /api/rfp/{id}/quotations/{quotation_id}/resubmit [put]
func ResubmitQuotation(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		rfpID, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid RFP ID"})
			return
		}
		quotationID, err := strconv.Atoi(c.Param("quotation_id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid quotation ID"})
			return
		}
		var req models.ResubmitQuotationRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON input", "details": err.Error()})
			return
		}

		var revised *models.RFPQuotation
		rfp := runRFPMutation(c, db, rfpID, func(rfp *models.RFP, tx *sql.Tx) error {
			prev := 0
			if q := workflow.FindQuotation(rfp, quotationID); q != nil {
				prev = q.Version
			}
			q, err := workflow.ResubmitQuotation(rfp, quotationID, req.Version, req.Items, time.Now())
			if err != nil {
				return err
			}
			if err := repository.UpdateQuotation(tx, q, prev); err != nil {
				return err
			}
			if err := repository.UpdateRFPWorkflowState(tx, rfp); err != nil {
				return err
			}
			revised = q
			return nil
		})
		if rfp == nil {
			return
		}
		c.JSON(http.StatusOK, revised)

		logEntry := models.ActivityLog{
			EventContext: "Quotation",
			EventName:    "Resubmit",
			Description:  fmt.Sprintf("Quotation %s on RFP %s revised to version %d", revised.QuotationNumber, rfp.RFPNumber, revised.Version),
			UserName:     fmt.Sprintf("supplier:%d", revised.SupplierID),
			CreatedAt:    time.Now(),
			ProjectID:    rfp.ProjectID,
		}
		if logErr := SaveActivityLog(db, logEntry); logErr != nil {
			log.Printf("Failed to log activity: %v", logErr)
		}
	}
}

// WithdrawQuotation takes a supplier's quotation out of the running.
// @Summary Withdraw quotation
// @Tags Quotations
// @Produce json
// @Param id path int true "RFP ID"
// @Param quotation_id path int true "Quotation ID"
// @Success 200 {object} models.RFPQuotation
// @Failure 409 {object} models.ErrorResponse
// @Router /api/rfp/{id}/quotations/{quotation_id}/withdraw [post]
func WithdrawQuotation(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		rfpID, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid RFP ID"})
			return
		}
		quotationID, err := strconv.Atoi(c.Param("quotation_id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid quotation ID"})
			return
		}

		var withdrawn *models.RFPQuotation
		rfp := runRFPMutation(c, db, rfpID, func(rfp *models.RFP, tx *sql.Tx) error {
			prev := 0
			if q := workflow.FindQuotation(rfp, quotationID); q != nil {
				prev = q.Version
			}
			q, err := workflow.WithdrawQuotation(rfp, quotationID, time.Now())
			if err != nil {
				return err
			}
			if err := repository.UpdateQuotation(tx, q, prev); err != nil {
				return err
			}
			if err := repository.UpdateRFPSupplierStatuses(tx, rfp); err != nil {
				return err
			}
			if err := repository.UpdateRFPWorkflowState(tx, rfp); err != nil {
				return err
			}
			withdrawn = q
			return nil
		})
		if rfp != nil {
			c.JSON(http.StatusOK, withdrawn)
		}
	}
}

// GetRFPQuotations lists all quotations on an RFP, negotiation
// history included.
// @Summary List quotations for an RFP
// @Tags Quotations
// @Produce json
// @Param id path int true "RFP ID"
// @Success 200 {array} models.RFPQuotation
// @Router /api/rfp/{id}/quotations [get]
func GetRFPQuotations(db *sql.DB) gin.HandlerFunc {
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
		c.JSON(http.StatusOK, rfp.Quotations)
	}
}
