// Package documents isolates the per-family differences between billable
// document types: total column, status literal casing and extra states,
// which payment lifecycle states count toward the aggregate, the
// bank-transfer required-field set, and the overpayment policy. The
// reconciliation engine is written once against the canonical tri-state and
// goes through an Adapter for everything family specific.
package documents

import (
	"errors"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/nexbill/payments/internal/apperr"
	"github.com/nexbill/payments/internal/models"
)

// PaymentState is the canonical tri-state every family's status literals
// translate to and from.
type PaymentState int

const (
	StatePending PaymentState = iota
	StatePartial
	StatePaid
)

type OverpayPolicy int

const (
	// OverpayBlock rejects a payment exceeding the remaining amount.
	OverpayBlock OverpayPolicy = iota
	// OverpayWarn accepts it and surfaces a warning to the operator.
	OverpayWarn
)

type PayerKind string

const (
	PayerCustomer PayerKind = "customer"
	PayerSupplier PayerKind = "supplier"
)

// StatusSet holds a family's stored literals for the canonical tri-state.
// PartialEquivalents are extra family literals (gst_pending, Overdue) that
// compare as partial; when the recomputed state is still partial, a stored
// equivalent literal is preserved rather than overwritten.
type StatusSet struct {
	Pending            string
	Partial            string
	Paid               string
	PartialEquivalents []string
}

type Adapter struct {
	Family               models.DocumentType
	RoutePrefix          string
	Payer                PayerKind
	Status               StatusSet
	CountedStates        []models.PaymentLifecycle
	BankTransferRequired []string
	Overpay              OverpayPolicy
	New                  func() models.Billable
}

// Load fetches the parent document or reports it missing.
func (a *Adapter) Load(db *gorm.DB, id uint) (models.Billable, error) {
	doc := a.New()
	if err := db.First(doc, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("document_not_found")
		}
		return nil, apperr.Internal("failed_to_load_document", err)
	}
	return doc, nil
}

// Counts reports whether a payment in the given lifecycle state contributes
// to the family's paid amount.
func (a *Adapter) Counts(s models.PaymentLifecycle) bool {
	for _, c := range a.CountedStates {
		if c == s {
			return true
		}
	}
	return false
}

// Literal translates the canonical state into the family's stored literal,
// preserving a partial-equivalent literal already on the document.
func (a *Adapter) Literal(state PaymentState, current string) string {
	switch state {
	case StatePaid:
		return a.Status.Paid
	case StatePending:
		return a.Status.Pending
	default:
		for _, eq := range a.Status.PartialEquivalents {
			if current == eq {
				return current
			}
		}
		return a.Status.Partial
	}
}

// SaveAggregate writes the derived fields back onto the parent document.
// This is the only code path allowed to set them.
func (a *Adapter) SaveAggregate(db *gorm.DB, doc models.Billable, paid, remaining decimal.Decimal, literal string) error {
	agg := doc.Aggregate()
	agg.PaidAmount = paid
	agg.RemainingAmount = remaining
	agg.PaymentStatus = literal
	err := db.Model(doc).Updates(map[string]any{
		"paid_amount":      paid,
		"remaining_amount": remaining,
		"payment_status":   literal,
	}).Error
	if err != nil {
		return apperr.Internal("failed_to_save_aggregate", err)
	}
	return nil
}

var (
	lowerStatus = StatusSet{Pending: "pending", Partial: "partial", Paid: "paid"}
	titleStatus = StatusSet{Pending: "Pending", Partial: "Partial", Paid: "Paid"}

	countedDefault = []models.PaymentLifecycle{models.PaymentCompleted, models.PaymentProcessing}
	countedStrict  = []models.PaymentLifecycle{models.PaymentCompleted}

	transferDateOnly = []string{"transferDate"}
	fullBankDetails  = []string{"transferDate", "bankName", "accountNumber", "ifscCode", "transactionId"}
)

// Registry is the closed set of document families the platform bills.
type Registry struct {
	byFamily map[models.DocumentType]*Adapter
	ordered  []*Adapter
}

func NewRegistry() *Registry {
	r := &Registry{byFamily: map[models.DocumentType]*Adapter{}}
	r.register(&Adapter{
		Family:               models.DocQuotation,
		RoutePrefix:          "quotation",
		Payer:                PayerCustomer,
		Status:               lowerStatus,
		CountedStates:        countedDefault,
		BankTransferRequired: transferDateOnly,
		Overpay:              OverpayWarn,
		New:                  func() models.Billable { return &models.Quotation{} },
	})
	r.register(&Adapter{
		Family:      models.DocInvoice,
		RoutePrefix: "invoice",
		Payer:       PayerCustomer,
		Status: StatusSet{
			Pending: "Pending", Partial: "Partial", Paid: "Paid",
			PartialEquivalents: []string{"Overdue"},
		},
		CountedStates:        countedDefault,
		BankTransferRequired: fullBankDetails,
		Overpay:              OverpayBlock,
		New:                  func() models.Billable { return &models.Invoice{} },
	})
	r.register(&Adapter{
		Family:               models.DocPurchaseOrder,
		RoutePrefix:          "purchase-order",
		Payer:                PayerSupplier,
		Status:               lowerStatus,
		CountedStates:        countedDefault,
		BankTransferRequired: transferDateOnly,
		Overpay:              OverpayBlock,
		New:                  func() models.Billable { return &models.PurchaseOrder{} },
	})
	r.register(&Adapter{
		Family:      models.DocProforma,
		RoutePrefix: "proforma",
		Payer:       PayerCustomer,
		Status: StatusSet{
			Pending: "pending", Partial: "partial", Paid: "paid",
			PartialEquivalents: []string{"gst_pending"},
		},
		CountedStates:        countedDefault,
		BankTransferRequired: transferDateOnly,
		Overpay:              OverpayWarn,
		New:                  func() models.Billable { return &models.Proforma{} },
	})
	r.register(&Adapter{
		Family:               models.DocAMCQuotation,
		RoutePrefix:          "amc-quotation",
		Payer:                PayerCustomer,
		Status:               lowerStatus,
		CountedStates:        countedDefault,
		BankTransferRequired: transferDateOnly,
		Overpay:              OverpayWarn,
		New:                  func() models.Billable { return &models.AMCQuotation{} },
	})
	r.register(&Adapter{
		Family:               models.DocAMCInvoice,
		RoutePrefix:          "amc-invoice",
		Payer:                PayerCustomer,
		Status:               lowerStatus,
		CountedStates:        countedDefault,
		BankTransferRequired: transferDateOnly,
		Overpay:              OverpayBlock,
		New:                  func() models.Billable { return &models.AMCInvoice{} },
	})
	r.register(&Adapter{
		Family:               models.DocDGQuotation,
		RoutePrefix:          "dg-quotation",
		Payer:                PayerCustomer,
		Status:               titleStatus,
		CountedStates:        countedStrict,
		BankTransferRequired: fullBankDetails,
		Overpay:              OverpayWarn,
		New:                  func() models.Billable { return &models.DGQuotation{} },
	})
	r.register(&Adapter{
		Family:               models.DocDGInvoice,
		RoutePrefix:          "dg-invoice",
		Payer:                PayerCustomer,
		Status:               titleStatus,
		CountedStates:        countedStrict,
		BankTransferRequired: fullBankDetails,
		Overpay:              OverpayBlock,
		New:                  func() models.Billable { return &models.DGInvoice{} },
	})
	r.register(&Adapter{
		Family:               models.DocDGPurchaseOrder,
		RoutePrefix:          "dg-purchase-order",
		Payer:                PayerSupplier,
		Status:               titleStatus,
		CountedStates:        countedStrict,
		BankTransferRequired: fullBankDetails,
		Overpay:              OverpayBlock,
		New:                  func() models.Billable { return &models.DGPurchaseOrder{} },
	})
	return r
}

func (r *Registry) register(a *Adapter) {
	r.byFamily[a.Family] = a
	r.ordered = append(r.ordered, a)
}

func (r *Registry) ForFamily(t models.DocumentType) (*Adapter, error) {
	a, ok := r.byFamily[t]
	if !ok {
		return nil, apperr.Validation("unknown_document_type", map[string]string{"parent_document_type": string(t)})
	}
	return a, nil
}

func (r *Registry) All() []*Adapter { return r.ordered }
