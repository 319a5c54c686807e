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
	"procurement-backend/services"
	"procurement-backend/workflow"

	"github.com/gin-gonic/gin"
)

// SendForApproval records the per-item vendor selections and parks the
// RFP under management approval. The chosen prices always come from
// the winning quotations, never from the request body.
// @Summary Send RFP for approval
// @Tags Approvals
// @Accept json
// @Produce json
// @Param id path int true "RFP ID"
// @Param body body models.SendForApprovalRequest true "Selections"
// @Success 200 {object} models.ApprovalRequest
// @Failure 400 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /api/rfp/{id}/send_for_approval [post]
func SendForApproval(db *sql.DB, mailer *services.EmailService) gin.HandlerFunc {
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
		var req models.SendForApprovalRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON input", "details": err.Error()})
			return
		}

		var approval *models.ApprovalRequest
		rfp := runRFPMutation(c, db, rfpID, func(rfp *models.RFP, tx *sql.Tx) error {
			a, err := workflow.FinalizeSelection(rfp, req, userName, time.Now())
			if err != nil {
				return err
			}
			rfp.UpdatedBy = userName
			if err := repository.ReplaceSelections(tx, rfp); err != nil {
				return err
			}
			if err := repository.UpdateRFPWorkflowState(tx, rfp); err != nil {
				return err
			}
			approval = a
			return nil
		})
		if rfp == nil {
			return
		}
		c.JSON(http.StatusOK, approval)

		go notifyApprovers(db, mailer, rfp, userName)

		logEntry := models.ActivityLog{
			EventContext: "Approval",
			EventName:    "SendForApproval",
			Description:  fmt.Sprintf("RFP %s sent to %s for approval (value %.2f)", rfp.RFPNumber, rfp.ApprovalGroup, approval.TotalValue),
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

func notifyApprovers(db *sql.DB, mailer *services.EmailService, rfp *models.RFP, sender string) {
	message := fmt.Sprintf("RFP %s awaits your approval", rfp.RFPNumber)
	if err := NotifyGroup(db, rfp.ApprovalGroup, message, fmt.Sprintf("/rfp/%d/approval", rfp.ID)); err != nil {
		log.Printf("Failed to notify approval group %s: %v", rfp.ApprovalGroup, err)
	}
	if mailer == nil {
		return
	}

	rows, err := db.Query(`
		SELECT CONCAT(u.first_name, ' ', u.last_name), u.email
		FROM users u
		JOIN roles r ON u.role_id = r.id
		WHERE r.role_name = $1`, rfp.ApprovalGroup)
	if err != nil {
		log.Printf("Failed to fetch approvers for group %s: %v", rfp.ApprovalGroup, err)
		return
	}
	defer rows.Close()

	for rows.Next() {
		var name, email string
		if err := rows.Scan(&name, &email); err != nil {
			log.Printf("Failed to scan approver: %v", err)
			return
		}
		data := models.EmailData{
			RecipientName: name,
			RFPNumber:     rfp.RFPNumber,
			RFPTitle:      rfp.Title,
			InviteLink:    fmt.Sprintf("%s/rfp/%d/approval", baseAppURL(), rfp.ID),
			SenderName:    sender,
		}
		if err := mailer.SendApprovalNotice(email, data); err != nil {
			log.Printf("Failed to mail approver %s: %v", email, err)
		}
	}
}

// DecideRFP applies management's approve/reject verdict. Approval
// locks in the winners; rejection keeps quotations and selections so
// purchasing can revisit and re-finalize.
// @Summary Approve or reject an RFP
// @Tags Approvals
// @Accept json
// @Produce json
// @Param id path int true "RFP ID"
// @Param body body models.DecisionRequest true "Decision"
// @Success 200 {object} models.RFP
// @Failure 400 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /api/rfp/{id}/decision [post]
func DecideRFP(db *sql.DB) gin.HandlerFunc {
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
		var req models.DecisionRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON input", "details": err.Error()})
			return
		}

		rfp := runRFPMutation(c, db, rfpID, func(rfp *models.RFP, tx *sql.Tx) error {
			if err := workflow.ApplyDecision(rfp, req.Action, req.Remarks, time.Now()); err != nil {
				return err
			}
			rfp.UpdatedBy = userName
			if err := repository.UpdateQuotationStatuses(tx, rfp); err != nil {
				return err
			}
			if err := repository.UpdateRFPSupplierStatuses(tx, rfp); err != nil {
				return err
			}
			return repository.UpdateRFPWorkflowState(tx, rfp)
		})
		if rfp == nil {
			return
		}
		c.JSON(http.StatusOK, rfp)

		if rfp.CreatedBy != "" {
			message := fmt.Sprintf("RFP %s was %s", rfp.RFPNumber, rfp.Status)
			if err := NotifyUserByName(db, rfp.CreatedBy, message, fmt.Sprintf("/rfp/%d", rfp.ID)); err != nil {
				log.Printf("Failed to notify %s about RFP %s: %v", rfp.CreatedBy, rfp.RFPNumber, err)
			}
		}

		logEntry := models.ActivityLog{
			EventContext: "Approval",
			EventName:    "Decision",
			Description:  fmt.Sprintf("RFP %s decision: %s", rfp.RFPNumber, rfp.Status),
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
