package payments

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/nexbill/payments/internal/apperr"
	"github.com/nexbill/payments/internal/models"
)

// Store persists PaymentRecords. It never touches the parent document's
// aggregate columns; that is the reconciliation engine's job.
type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store { return &Store{db: db} }

// WithTx returns a store bound to the given transaction handle.
func (s *Store) WithTx(tx *gorm.DB) *Store { return &Store{db: tx} }

func (s *Store) Create(ctx context.Context, p *models.PaymentRecord) error {
	if !p.Amount.IsPositive() {
		return apperr.Validation("invalid_amount", map[string]string{"amount": "must_be_positive"})
	}
	if err := s.db.WithContext(ctx).Create(p).Error; err != nil {
		return apperr.Internal("failed_to_create_payment", err)
	}
	return nil
}

// ByParent returns the parent document's payments ordered by payment date
// descending. Display order only: the aggregate sum is commutative and the
// engine must not depend on it.
func (s *Store) ByParent(ctx context.Context, family models.DocumentType, parentID uint) ([]models.PaymentRecord, error) {
	var recs []models.PaymentRecord
	err := s.db.WithContext(ctx).
		Where("parent_document_type = ? AND parent_document_id = ?", family, parentID).
		Order("payment_date desc").
		Find(&recs).Error
	if err != nil {
		return nil, apperr.Internal("failed_to_list_payments", err)
	}
	return recs, nil
}

func (s *Store) ByID(ctx context.Context, family models.DocumentType, id uint) (*models.PaymentRecord, error) {
	var p models.PaymentRecord
	err := s.db.WithContext(ctx).
		Where("parent_document_type = ?", family).
		First(&p, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("payment_not_found")
		}
		return nil, apperr.Internal("failed_to_load_payment", err)
	}
	return &p, nil
}

func (s *Store) Update(ctx context.Context, p *models.PaymentRecord) error {
	if !p.Amount.IsPositive() {
		return apperr.Validation("invalid_amount", map[string]string{"amount": "must_be_positive"})
	}
	if err := s.db.WithContext(ctx).Save(p).Error; err != nil {
		return apperr.Internal("failed_to_update_payment", err)
	}
	return nil
}

// Delete removes a payment row. Callers must reconcile the parent in the
// same transaction; an orphaned aggregate is a correctness bug.
func (s *Store) Delete(ctx context.Context, p *models.PaymentRecord) error {
	if err := s.db.WithContext(ctx).Delete(p).Error; err != nil {
		return apperr.Internal("failed_to_delete_payment", err)
	}
	return nil
}
