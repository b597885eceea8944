// Package recon recomputes a billable document's paid/remaining/status
// aggregate from its full payment set. Every payment mutation goes through
// the engine: it holds a per-document lock for the duration of the mutation
// and wraps the payment write and the aggregate write in one transaction, so
// two concurrent submissions against the same parent cannot overwrite each
// other's aggregate with stale data.
//
// Recomputation is always a full resync rather than an incremental delta:
// the result is identical regardless of call order and any prior drift
// between the stored aggregate and the true payment set is corrected on the
// next call.
package recon

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/nexbill/payments/internal/apperr"
	"github.com/nexbill/payments/internal/documents"
	"github.com/nexbill/payments/internal/models"
	"github.com/nexbill/payments/internal/payments"
)

// Aggregate is the derived financial state written back onto the parent.
type Aggregate struct {
	PaidAmount      decimal.Decimal `json:"paid_amount"`
	RemainingAmount decimal.Decimal `json:"remaining_amount"`
	PaymentStatus   string          `json:"payment_status"`
}

type Engine struct {
	db       *gorm.DB
	store    *payments.Store
	registry *documents.Registry
	locks    keyedMutex
}

func NewEngine(db *gorm.DB, store *payments.Store, registry *documents.Registry) *Engine {
	return &Engine{db: db, store: store, registry: registry}
}

// Reconcile recomputes and persists the aggregate for a parent document.
// Safe to call at any time; invoking it twice with no intervening payment
// change yields identical output.
func (e *Engine) Reconcile(ctx context.Context, family models.DocumentType, parentID uint) (Aggregate, error) {
	a, err := e.registry.ForFamily(family)
	if err != nil {
		return Aggregate{}, err
	}
	unlock := e.locks.lock(family, parentID)
	defer unlock()

	var agg Aggregate
	err = e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		doc, err := a.Load(tx, parentID)
		if err != nil {
			return err
		}
		agg, err = e.resync(ctx, tx, a, doc)
		return err
	})
	return agg, err
}

// RecordPayment validates the overpayment policy, persists the payment, and
// reconciles the parent, all under the document lock in one transaction.
// The returned bool reports an overpay warning for warn-policy families.
func (e *Engine) RecordPayment(ctx context.Context, p *models.PaymentRecord) (Aggregate, bool, error) {
	a, err := e.registry.ForFamily(p.ParentDocumentType)
	if err != nil {
		return Aggregate{}, false, err
	}
	unlock := e.locks.lock(a.Family, p.ParentDocumentID)
	defer unlock()

	var agg Aggregate
	warned := false
	err = e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		doc, err := a.Load(tx, p.ParentDocumentID)
		if err != nil {
			return err
		}
		if p.DocumentNumber == "" {
			p.DocumentNumber = doc.Number()
		}
		if p.PayerID == 0 {
			p.PayerID = doc.PayerRef()
		}
		if a.Counts(p.PaymentStatus) {
			_, remaining, err := e.snapshot(ctx, tx, a, doc)
			if err != nil {
				return err
			}
			if p.Amount.GreaterThan(remaining) {
				if a.Overpay == documents.OverpayBlock {
					return apperr.Conflict("amount_exceeds_remaining", map[string]string{
						"requested": p.Amount.String(),
						"remaining": remaining.String(),
					})
				}
				warned = true
			}
		}
		if err := e.store.WithTx(tx).Create(ctx, p); err != nil {
			return err
		}
		agg, err = e.resync(ctx, tx, a, doc)
		return err
	})
	return agg, warned, err
}

// Amendment describes an operator edit to an existing payment. Nil fields
// are left unchanged. A Details change must come with its Method.
type Amendment struct {
	Amount      *decimal.Decimal
	Method      *models.PaymentMethod
	Details     *models.MethodDetails
	Status      *models.PaymentLifecycle
	Notes       *string
	PaymentDate *time.Time
}

func (e *Engine) AmendPayment(ctx context.Context, family models.DocumentType, id uint, am Amendment) (*models.PaymentRecord, Aggregate, bool, error) {
	a, err := e.registry.ForFamily(family)
	if err != nil {
		return nil, Aggregate{}, false, err
	}
	p, err := e.store.ByID(ctx, family, id)
	if err != nil {
		return nil, Aggregate{}, false, err
	}
	unlock := e.locks.lock(family, p.ParentDocumentID)
	defer unlock()

	var agg Aggregate
	warned := false
	err = e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		st := e.store.WithTx(tx)
		p, err = st.ByID(ctx, family, id)
		if err != nil {
			return err
		}
		doc, err := a.Load(tx, p.ParentDocumentID)
		if err != nil {
			return err
		}

		if am.Status != nil && *am.Status != p.PaymentStatus {
			if !p.PaymentStatus.CanTransitionTo(*am.Status) {
				return apperr.Validation("invalid_status_transition", map[string]string{
					"from": string(p.PaymentStatus),
					"to":   string(*am.Status),
				})
			}
			p.PaymentStatus = *am.Status
		}
		if am.Amount != nil {
			p.Amount = *am.Amount
		}
		if am.Method != nil {
			p.PaymentMethod = *am.Method
			if am.Details != nil {
				p.MethodDetails = *am.Details
			}
		}
		if am.Notes != nil {
			p.Notes = *am.Notes
		}
		if am.PaymentDate != nil {
			p.PaymentDate = *am.PaymentDate
		}

		if a.Counts(p.PaymentStatus) {
			paidOthers, err := e.sumCounted(ctx, tx, a, doc, p.ID)
			if err != nil {
				return err
			}
			available := doc.Total().Sub(paidOthers)
			if available.IsNegative() {
				available = decimal.Zero
			}
			if p.Amount.GreaterThan(available) {
				if a.Overpay == documents.OverpayBlock {
					return apperr.Conflict("amount_exceeds_remaining", map[string]string{
						"requested": p.Amount.String(),
						"remaining": available.String(),
					})
				}
				warned = true
			}
		}
		if err := st.Update(ctx, p); err != nil {
			return err
		}
		agg, err = e.resync(ctx, tx, a, doc)
		return err
	})
	if err != nil {
		return nil, Aggregate{}, false, err
	}
	return p, agg, warned, nil
}

// RemovePayment deletes the payment and reconciles the parent in the same
// transaction, returning the restored aggregate.
func (e *Engine) RemovePayment(ctx context.Context, family models.DocumentType, id uint) (Aggregate, error) {
	a, err := e.registry.ForFamily(family)
	if err != nil {
		return Aggregate{}, err
	}
	p, err := e.store.ByID(ctx, family, id)
	if err != nil {
		return Aggregate{}, err
	}
	unlock := e.locks.lock(family, p.ParentDocumentID)
	defer unlock()

	var agg Aggregate
	err = e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		st := e.store.WithTx(tx)
		p, err = st.ByID(ctx, family, id)
		if err != nil {
			return err
		}
		doc, err := a.Load(tx, p.ParentDocumentID)
		if err != nil {
			return err
		}
		if err := st.Delete(ctx, p); err != nil {
			return err
		}
		agg, err = e.resync(ctx, tx, a, doc)
		return err
	})
	return agg, err
}

// TransitionStatus performs a status-only lifecycle change and reconciles:
// transitions into or out of a counted state move the aggregate.
func (e *Engine) TransitionStatus(ctx context.Context, family models.DocumentType, id uint, next models.PaymentLifecycle) (*models.PaymentRecord, Aggregate, error) {
	st := next
	p, agg, _, err := e.AmendPayment(ctx, family, id, Amendment{Status: &st})
	return p, agg, err
}

// snapshot computes paid/remaining from current state without persisting.
func (e *Engine) snapshot(ctx context.Context, tx *gorm.DB, a *documents.Adapter, doc models.Billable) (paid, remaining decimal.Decimal, err error) {
	paid, err = e.sumCounted(ctx, tx, a, doc, 0)
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	remaining = doc.Total().Sub(paid)
	if remaining.IsNegative() {
		remaining = decimal.Zero
	}
	return paid, remaining, nil
}

// sumCounted sums the counted payments for doc, skipping excludeID (used to
// compute the headroom available to an amended payment).
func (e *Engine) sumCounted(ctx context.Context, tx *gorm.DB, a *documents.Adapter, doc models.Billable, excludeID uint) (decimal.Decimal, error) {
	recs, err := e.store.WithTx(tx).ByParent(ctx, a.Family, doc.BillableID())
	if err != nil {
		return decimal.Zero, err
	}
	paid := decimal.Zero
	for _, rec := range recs {
		if rec.ID == excludeID {
			continue
		}
		if a.Counts(rec.PaymentStatus) {
			paid = paid.Add(rec.Amount)
		}
	}
	return paid, nil
}

// resync is the canonical full recomputation: sum the counted payment set,
// derive remaining and the tri-state status, and persist via the adapter.
func (e *Engine) resync(ctx context.Context, tx *gorm.DB, a *documents.Adapter, doc models.Billable) (Aggregate, error) {
	paid, remaining, err := e.snapshot(ctx, tx, a, doc)
	if err != nil {
		return Aggregate{}, err
	}
	total := doc.Total()

	state := documents.StatePartial
	switch {
	case paid.IsZero():
		state = documents.StatePending
	case paid.GreaterThanOrEqual(total):
		state = documents.StatePaid
	}
	literal := a.Literal(state, doc.Aggregate().PaymentStatus)

	if err := a.SaveAggregate(tx, doc, paid, remaining, literal); err != nil {
		return Aggregate{}, err
	}
	return Aggregate{PaidAmount: paid, RemainingAmount: remaining, PaymentStatus: literal}, nil
}
