package services

import (
	"testing"

	"procurement-backend/models"

	"github.com/stretchr/testify/assert"
)

func TestProcessTemplateFillsPlaceholders(t *testing.T) {
	es := NewEmailService(nil)
	body := es.processTemplate(rfpInvitationTemplate, models.EmailData{
		RecipientName: "ABC Suppliers",
		RFPNumber:     "RFP/AB12345",
		RFPTitle:      "IT Hardware FY26",
		ClosingDate:   "15-Sep-2026 17:00",
		InviteLink:    "https://app.example.com/rfp/1/quote",
		SenderName:    "John Doe",
	})

	assert.Contains(t, body, "ABC Suppliers")
	assert.Contains(t, body, "RFP/AB12345")
	assert.Contains(t, body, "15-Sep-2026 17:00")
	assert.Contains(t, body, "https://app.example.com/rfp/1/quote")
	assert.NotContains(t, body, "{{")
}

func TestConvertHTMLToText(t *testing.T) {
	text := convertHTMLToText("<p>Dear <b>Vendor</b>,</p><p>Quotations close soon.</p><ul><li>Laptop</li></ul>")

	assert.Contains(t, text, "Dear Vendor,")
	assert.Contains(t, text, "Quotations close soon.")
	assert.Contains(t, text, "- Laptop")
	assert.NotContains(t, text, "<p>")
}

func TestConvertHTMLToTextKeepsPlainInput(t *testing.T) {
	assert.Equal(t, "just plain text", convertHTMLToText("just plain text"))
}
