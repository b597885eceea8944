package documents

import (
	"testing"

	"github.com/nexbill/payments/internal/apperr"
	"github.com/nexbill/payments/internal/models"
)

func TestRegistryCoversAllFamilies(t *testing.T) {
	r := NewRegistry()
	families := []models.DocumentType{
		models.DocQuotation, models.DocInvoice, models.DocPurchaseOrder,
		models.DocProforma, models.DocAMCQuotation, models.DocAMCInvoice,
		models.DocDGQuotation, models.DocDGInvoice, models.DocDGPurchaseOrder,
	}
	if len(r.All()) != len(families) {
		t.Fatalf("expected %d adapters, got %d", len(families), len(r.All()))
	}
	for _, f := range families {
		a, err := r.ForFamily(f)
		if err != nil {
			t.Fatalf("%s: %v", f, err)
		}
		if a.New().DocumentType() != f {
			t.Fatalf("%s: constructor builds %s", f, a.New().DocumentType())
		}
	}
	_, err := r.ForFamily("CreditNote")
	if !apperr.IsKind(err, apperr.KindValidation) {
		t.Fatalf("unknown family should be a validation error, got %v", err)
	}
}

func TestLiteralCasingPerFamily(t *testing.T) {
	r := NewRegistry()
	inv, _ := r.ForFamily(models.DocInvoice)
	quo, _ := r.ForFamily(models.DocQuotation)

	if got := inv.Literal(StatePaid, ""); got != "Paid" {
		t.Fatalf("invoice paid literal = %q", got)
	}
	if got := quo.Literal(StatePaid, ""); got != "paid" {
		t.Fatalf("quotation paid literal = %q", got)
	}
	if got := inv.Literal(StatePending, "Partial"); got != "Pending" {
		t.Fatalf("invoice pending literal = %q", got)
	}
}

func TestLiteralPreservesPartialEquivalents(t *testing.T) {
	r := NewRegistry()
	pro, _ := r.ForFamily(models.DocProforma)
	inv, _ := r.ForFamily(models.DocInvoice)

	// a stored family-specific literal survives recomputation while the
	// canonical state stays partial
	if got := pro.Literal(StatePartial, "gst_pending"); got != "gst_pending" {
		t.Fatalf("gst_pending not preserved, got %q", got)
	}
	if got := inv.Literal(StatePartial, "Overdue"); got != "Overdue" {
		t.Fatalf("Overdue not preserved, got %q", got)
	}
	// but a threshold crossing overwrites it
	if got := pro.Literal(StatePaid, "gst_pending"); got != "paid" {
		t.Fatalf("paid should overwrite gst_pending, got %q", got)
	}
	// and an ordinary partial stays the plain literal
	if got := pro.Literal(StatePartial, "partial"); got != "partial" {
		t.Fatalf("plain partial changed to %q", got)
	}
}

func TestCountedStatesPolicy(t *testing.T) {
	r := NewRegistry()
	inv, _ := r.ForFamily(models.DocInvoice)
	dg, _ := r.ForFamily(models.DocDGInvoice)

	if !inv.Counts(models.PaymentProcessing) {
		t.Fatal("invoice family should count processing payments")
	}
	if dg.Counts(models.PaymentProcessing) {
		t.Fatal("DG families count only completed payments")
	}
	for _, a := range r.All() {
		if a.Counts(models.PaymentPending) || a.Counts(models.PaymentFailed) || a.Counts(models.PaymentRefunded) {
			t.Fatalf("%s counts a non-settled state", a.Family)
		}
		if !a.Counts(models.PaymentCompleted) {
			t.Fatalf("%s must count completed", a.Family)
		}
	}
}
