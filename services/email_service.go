package services

import (
	"database/sql"
	"fmt"
	"net/smtp"
	"os"
	"strings"

	"procurement-backend/models"

	"golang.org/x/net/html"
)

// convertHTMLToText converts HTML content to plain text for email sending
func convertHTMLToText(htmlContent string) string {
	doc, err := html.Parse(strings.NewReader(htmlContent))
	if err != nil {
		// If parsing fails, return the original content
		return htmlContent
	}

	var text strings.Builder
	var extractText func(*html.Node)
	extractText = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			text.WriteString(n.Data)
		case html.ElementNode:
			switch n.Data {
			case "p", "div", "br", "h1", "h2", "h3", "h4", "h5", "h6", "table", "tr":
				text.WriteString("\n")
			case "li":
				text.WriteString("- ")
			case "td", "th":
				text.WriteString(" | ")
			}
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			extractText(child)
		}
	}

	extractText(doc)

	result := text.String()
	result = strings.ReplaceAll(result, "\n\n\n", "\n\n")
	return strings.TrimSpace(result)
}

// EmailService sends procurement mails over SMTP. Templates use
// {{variable}} placeholders filled from models.EmailData.
type EmailService struct {
	db *sql.DB
}

func NewEmailService(db *sql.DB) *EmailService {
	return &EmailService{db: db}
}

func (es *EmailService) processTemplate(templateStr string, data models.EmailData) string {
	replacer := strings.NewReplacer(
		"{{recipient_name}}", data.RecipientName,
		"{{rfp_number}}", data.RFPNumber,
		"{{rfp_title}}", data.RFPTitle,
		"{{closing_date}}", data.ClosingDate,
		"{{invite_link}}", data.InviteLink,
		"{{sender_name}}", data.SenderName,
	)
	return replacer.Replace(templateStr)
}

const rfpInvitationTemplate = `
<p>Dear {{recipient_name}},</p>
<p>You are invited to quote against <b>{{rfp_number}}</b> ({{rfp_title}}).</p>
<p>Quotations close on {{closing_date}}.</p>
<p>Submit your quotation here: {{invite_link}}</p>
<p>Regards,<br>{{sender_name}}</p>`

const approvalNoticeTemplate = `
<p>Dear {{recipient_name}},</p>
<p><b>{{rfp_number}}</b> ({{rfp_title}}) has been finalized and awaits your approval.</p>
<p>Review it here: {{invite_link}}</p>
<p>Regards,<br>{{sender_name}}</p>`

// SendRFPInvitation mails one invited supplier. Unregistered vendors
// get the same mail; their invite link carries the invite token.
func (es *EmailService) SendRFPInvitation(to string, data models.EmailData) error {
	body := es.processTemplate(rfpInvitationTemplate, data)
	subject := fmt.Sprintf("Invitation to quote: %s", data.RFPNumber)
	return es.sendEmail(to, subject, body)
}

// SendApprovalNotice mails the approval group when an RFP is sent for
// approval.
func (es *EmailService) SendApprovalNotice(to string, data models.EmailData) error {
	body := es.processTemplate(approvalNoticeTemplate, data)
	subject := fmt.Sprintf("Approval requested: %s", data.RFPNumber)
	return es.sendEmail(to, subject, body)
}

func (es *EmailService) sendEmail(to, subject, htmlBody string) error {
	host := os.Getenv("SMTP_HOST")
	port := os.Getenv("SMTP_PORT")
	user := os.Getenv("SMTP_USER")
	password := os.Getenv("SMTP_PASSWORD")
	from := os.Getenv("SMTP_FROM")
	if from == "" {
		from = user
	}
	if host == "" {
		return fmt.Errorf("SMTP_HOST is not configured")
	}

	textBody := convertHTMLToText(htmlBody)
	msg := strings.Builder{}
	msg.WriteString(fmt.Sprintf("From: %s\r\n", from))
	msg.WriteString(fmt.Sprintf("To: %s\r\n", to))
	msg.WriteString(fmt.Sprintf("Subject: %s\r\n", subject))
	msg.WriteString("MIME-Version: 1.0\r\nContent-Type: text/plain; charset=\"utf-8\"\r\n\r\n")
	msg.WriteString(textBody)

	auth := smtp.PlainAuth("", user, password, host)
	err := smtp.SendMail(
		fmt.Sprintf("%s:%s", host, port),
		auth,
		from,
		[]string{to},
		[]byte(msg.String()),
	)
	if err != nil {
		return fmt.Errorf("failed to send email to %s: %w", to, err)
	}
	return nil
}
