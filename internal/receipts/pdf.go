package receipts

import (
	"context"
	"fmt"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/props"

	"github.com/nexbill/payments/internal/apperr"
	"github.com/nexbill/payments/internal/models"
)

// Render produces the receipt PDF. Generation runs in its own goroutine so
// the caller's deadline bounds it; a timeout surfaces as a render failure,
// distinct from reconciliation or persistence errors.
func Render(ctx context.Context, v *ReceiptView) ([]byte, error) {
	type result struct {
		data []byte
		err  error
	}
	ch := make(chan result, 1)
	go func() {
		data, err := render(v)
		ch <- result{data, err}
	}()
	select {
	case <-ctx.Done():
		return nil, apperr.Internal("receipt_render_timeout", ctx.Err())
	case r := <-ch:
		if r.err != nil {
			return nil, apperr.Internal("receipt_render_failed", r.err)
		}
		return r.data, nil
	}
}

func render(v *ReceiptView) ([]byte, error) {
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(15).
		WithRightMargin(15).
		WithTopMargin(15).
		Build()
	m := maroto.New(cfg)

	m.AddRows(text.NewRow(12, "Payment Receipt", props.Text{Size: 16, Style: fontstyle.Bold, Align: align.Center}))
	m.AddRows(line.NewRow(4))

	m.AddRow(6,
		text.NewCol(4, "Receipt No.", props.Text{Style: fontstyle.Bold}),
		text.NewCol(8, v.ReceiptNumber),
	)
	m.AddRow(6,
		text.NewCol(4, "Date", props.Text{Style: fontstyle.Bold}),
		text.NewCol(8, v.Payment.PaymentDate.Format("02 Jan 2006")),
	)
	m.AddRow(6,
		text.NewCol(4, "Against", props.Text{Style: fontstyle.Bold}),
		text.NewCol(8, fmt.Sprintf("%s %s", v.DocumentType, v.DocumentNumber)),
	)
	m.AddRows(line.NewRow(4))

	m.AddRows(text.NewRow(8, "Received From", props.Text{Size: 11, Style: fontstyle.Bold}))
	m.AddRows(text.NewRow(5, v.PayerName))
	if v.PayerAddress != "" {
		m.AddRows(text.NewRow(5, v.PayerAddress))
	}
	contact := v.PayerPhone
	if v.PayerEmail != "" {
		if contact != "" {
			contact += " / "
		}
		contact += v.PayerEmail
	}
	if contact != "" {
		m.AddRows(text.NewRow(5, contact))
	}
	m.AddRows(line.NewRow(4))

	m.AddRow(6,
		text.NewCol(6, "Amount Received", props.Text{Style: fontstyle.Bold}),
		text.NewCol(6, fmt.Sprintf("%s %s", v.Payment.Currency, v.Payment.Amount.StringFixed(2)), props.Text{Align: align.Right}),
	)
	m.AddRow(6,
		text.NewCol(6, "Payment Method", props.Text{Style: fontstyle.Bold}),
		text.NewCol(6, methodLine(&v.Payment), props.Text{Align: align.Right}),
	)
	m.AddRow(6,
		text.NewCol(6, "Document Total", props.Text{Style: fontstyle.Bold}),
		text.NewCol(6, fmt.Sprintf("%s %s", v.Payment.Currency, v.DocumentTotal.StringFixed(2)), props.Text{Align: align.Right}),
	)
	m.AddRow(6,
		text.NewCol(6, "Paid To Date", props.Text{Style: fontstyle.Bold}),
		text.NewCol(6, fmt.Sprintf("%s %s", v.Payment.Currency, v.PaidToDate.StringFixed(2)), props.Text{Align: align.Right}),
	)
	m.AddRow(6,
		text.NewCol(6, "Balance Due", props.Text{Style: fontstyle.Bold}),
		text.NewCol(6, fmt.Sprintf("%s %s", v.Payment.Currency, v.Remaining.StringFixed(2)), props.Text{Align: align.Right}),
	)

	if v.Payment.Notes != "" {
		m.AddRows(line.NewRow(4))
		m.AddRows(text.NewRow(5, "Notes: "+v.Payment.Notes, props.Text{Size: 9}))
	}

	doc, err := m.Generate()
	if err != nil {
		return nil, err
	}
	return doc.GetBytes(), nil
}

// methodLine gives a one-line human summary of the payment instrument.
func methodLine(p *models.PaymentRecord) string {
	d := p.MethodDetails
	switch p.PaymentMethod {
	case models.MethodCheque:
		if d.Cheque != nil {
			return fmt.Sprintf("Cheque %s (%s)", d.Cheque.ChequeNumber, d.Cheque.BankName)
		}
	case models.MethodBankTransfer:
		if d.BankTransfer != nil && d.BankTransfer.TransactionID != "" {
			return "Bank Transfer " + d.BankTransfer.TransactionID
		}
		return "Bank Transfer"
	case models.MethodUPI:
		if d.UPI != nil && d.UPI.TransactionID != "" {
			return "UPI " + d.UPI.TransactionID
		}
		return "UPI"
	case models.MethodCard:
		if d.Card != nil && d.Card.LastFourDigits != "" {
			return "Card ****" + d.Card.LastFourDigits
		}
		return "Card"
	case models.MethodOther:
		if d.Other != nil {
			return d.Other.MethodName
		}
	}
	return string(p.PaymentMethod)
}
