// Package export renders a document's payment register as an xlsx workbook.
package export

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/nexbill/payments/internal/apperr"
	"github.com/nexbill/payments/internal/models"
)

const sheet = "Payments"

// PaymentsRegister writes one row per payment plus a summary block for the
// parent document's aggregate.
func PaymentsRegister(doc models.Billable, recs []models.PaymentRecord) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, apperr.Internal("failed_to_build_export", err)
	}

	header := []any{"Receipt No.", "Payment Date", "Amount", "Currency", "Method", "Status", "Notes"}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return nil, apperr.Internal("failed_to_build_export", err)
	}
	for i, p := range recs {
		amount, _ := p.Amount.Float64()
		row := []any{
			p.ReceiptNumber,
			p.PaymentDate.Format("2006-01-02"),
			amount,
			p.Currency,
			string(p.PaymentMethod),
			string(p.PaymentStatus),
			p.Notes,
		}
		cell := fmt.Sprintf("A%d", i+2)
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return nil, apperr.Internal("failed_to_build_export", err)
		}
	}

	agg := doc.Aggregate()
	total, _ := doc.Total().Float64()
	paid, _ := agg.PaidAmount.Float64()
	remaining, _ := agg.RemainingAmount.Float64()
	base := len(recs) + 3
	summary := [][]any{
		{"Document", fmt.Sprintf("%s %s", doc.DocumentType(), doc.Number())},
		{"Total", total},
		{"Paid", paid},
		{"Remaining", remaining},
		{"Payment Status", agg.PaymentStatus},
	}
	for i, row := range summary {
		r := row
		cell := fmt.Sprintf("A%d", base+i)
		if err := f.SetSheetRow(sheet, cell, &r); err != nil {
			return nil, apperr.Internal("failed_to_build_export", err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, apperr.Internal("failed_to_build_export", err)
	}
	return buf, nil
}
