package workflow

import (
	"sort"

	"procurement-backend/models"
)

// rankable statuses: quotations still in the running contribute to
// the comparison grid.
func contributesToRanking(s models.QuotationStatus) bool {
	switch s {
	case models.QuotationSubmitted, models.QuotationUnderEvaluation,
		models.QuotationNegotiation, models.QuotationShortlisted,
		models.QuotationSelected:
		return true
	}
	return false
}

// Evaluate computes the L1/L2 ranking for every item name appearing
// across the RFP's quotations: ascending unit price, ties broken by
// earliest submission date. Quotations still in SUBMITTED move to
// UNDER_EVALUATION. Repeated calls with unchanged quotations yield
// an identical ranking; the rank is display information only and
// never drives the selection.
func Evaluate(rfp *models.RFP, supplierNames map[int]string) ([]models.ItemComparison, error) {
	eligible := false
	for i := range rfp.Quotations {
		switch rfp.Quotations[i].Status {
		case models.QuotationSubmitted, models.QuotationNegotiation, models.QuotationUnderEvaluation:
			eligible = true
		}
	}
	if !eligible {
		return nil, &StateTransitionError{Entity: "RFP " + rfp.RFPNumber, Operation: "evaluate", From: string(rfp.Status)}
	}

	for i := range rfp.Quotations {
		if rfp.Quotations[i].Status == models.QuotationSubmitted {
			rfp.Quotations[i].Status = models.QuotationUnderEvaluation
		}
	}

	byItem := make(map[string][]models.RankedQuote)
	displayName := make(map[string]string)
	var order []string
	for i := range rfp.Quotations {
		q := &rfp.Quotations[i]
		if !contributesToRanking(q.Status) {
			continue
		}
		for _, it := range q.Items {
			key := NormalizeItemName(it.ItemName)
			if _, seen := byItem[key]; !seen {
				order = append(order, key)
				displayName[key] = it.ItemName
			}
			byItem[key] = append(byItem[key], models.RankedQuote{
				QuotationID:  q.ID,
				SupplierID:   q.SupplierID,
				SupplierName: supplierNames[q.SupplierID],
				UnitPrice:    it.UnitPrice,
				TotalPrice:   it.TotalPrice,
				SubmittedAt:  q.SubmittedAt,
			})
		}
	}

	comparison := make([]models.ItemComparison, 0, len(order))
	for _, key := range order {
		quotes := byItem[key]
		sort.SliceStable(quotes, func(a, b int) bool {
			if quotes[a].UnitPrice != quotes[b].UnitPrice {
				return quotes[a].UnitPrice < quotes[b].UnitPrice
			}
			return quotes[a].SubmittedAt.Before(quotes[b].SubmittedAt)
		})
		for r := range quotes {
			quotes[r].Rank = r + 1
		}
		comparison = append(comparison, models.ItemComparison{ItemName: displayName[key], Quotes: quotes})
	}
	return comparison, nil
}
