// Package receipts builds the populated receipt view for a payment and
// renders it to PDF. Assembly is a pure read; a missing payment, document,
// or payer is a not-found condition, never a server fault.
package receipts

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/nexbill/payments/internal/apperr"
	"github.com/nexbill/payments/internal/documents"
	"github.com/nexbill/payments/internal/models"
	"github.com/nexbill/payments/internal/payments"
)

// ReceiptView joins a payment with its parent document and payer, ready for
// the PDF renderer.
type ReceiptView struct {
	ReceiptNumber  string
	Payment        models.PaymentRecord
	DocumentType   models.DocumentType
	DocumentNumber string
	DocumentTotal  decimal.Decimal
	PaidToDate     decimal.Decimal
	Remaining      decimal.Decimal
	PayerName      string
	PayerEmail     string
	PayerPhone     string
	PayerAddress   string
	IssuedAt       time.Time
}

type Assembler struct {
	db       *gorm.DB
	store    *payments.Store
	registry *documents.Registry
}

func NewAssembler(db *gorm.DB, store *payments.Store, registry *documents.Registry) *Assembler {
	return &Assembler{db: db, store: store, registry: registry}
}

func (as *Assembler) Assemble(ctx context.Context, family models.DocumentType, paymentID uint) (*ReceiptView, error) {
	a, err := as.registry.ForFamily(family)
	if err != nil {
		return nil, err
	}
	p, err := as.store.ByID(ctx, family, paymentID)
	if err != nil {
		return nil, err
	}
	doc, err := a.Load(as.db.WithContext(ctx), p.ParentDocumentID)
	if err != nil {
		return nil, err
	}

	v := &ReceiptView{
		ReceiptNumber:  p.ReceiptNumber,
		Payment:        *p,
		DocumentType:   family,
		DocumentNumber: doc.Number(),
		DocumentTotal:  doc.Total(),
		PaidToDate:     doc.Aggregate().PaidAmount,
		Remaining:      doc.Aggregate().RemainingAmount,
		IssuedAt:       time.Now(),
	}

	switch a.Payer {
	case documents.PayerSupplier:
		var s models.Supplier
		if err := as.db.WithContext(ctx).First(&s, p.PayerID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, apperr.NotFound("payer_not_found")
			}
			return nil, apperr.Internal("failed_to_load_payer", err)
		}
		v.PayerName, v.PayerEmail, v.PayerPhone, v.PayerAddress = s.Name, s.Email, s.Phone, s.Address
	default:
		var c models.Customer
		if err := as.db.WithContext(ctx).First(&c, p.PayerID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, apperr.NotFound("payer_not_found")
			}
			return nil, apperr.Internal("failed_to_load_payer", err)
		}
		v.PayerName, v.PayerEmail, v.PayerPhone, v.PayerAddress = c.Name, c.Email, c.Phone, c.Address
	}
	return v, nil
}
