package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/nurpe/weshare-leasing/internal/model"
)

type PaymentRepository struct {
	db *gorm.DB
}

func NewPaymentRepository(db *gorm.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

func (r *PaymentRepository) WithTx(tx *gorm.DB) *PaymentRepository {
	return &PaymentRepository{db: tx}
}

func (r *PaymentRepository) Create(ctx context.Context, payment *model.Payment) error {
	return r.db.WithContext(ctx).Create(payment).Error
}

func (r *PaymentRepository) Get(ctx context.Context, id int64) (*model.Payment, error) {
	var payment model.Payment
	if err := r.db.WithContext(ctx).First(&payment, id).Error; err != nil {
		return nil, err
	}
	return &payment, nil
}

func (r *PaymentRepository) ListByInvoice(ctx context.Context, invoiceID int64) ([]model.Payment, error) {
	var payments []model.Payment
	err := r.db.WithContext(ctx).
		Where("invoice_id = ?", invoiceID).
		Order("created_at DESC, id DESC").
		Find(&payments).Error
	if err != nil {
		return nil, err
	}
	return payments, nil
}

// MarkPaid flips a pending payment to paid and reports whether it changed.
func (r *PaymentRepository) MarkPaid(ctx context.Context, id int64, paidAt time.Time) (bool, error) {
	res := r.db.WithContext(ctx).Exec(`
		UPDATE payments
		SET status = ?, paid_at = ?, updated_at = ?
		WHERE id = ? AND status <> ?
	`, model.PaymentStatusPaid, paidAt, paidAt, id, model.PaymentStatusPaid)
	return res.RowsAffected > 0, res.Error
}
