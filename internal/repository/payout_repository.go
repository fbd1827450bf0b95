package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/nurpe/weshare-leasing/internal/model"
)

type PayoutFilter struct {
	InvestorID *int64
	ProjectID  *int64
	Status     *model.PayoutStatus
	From, To   *time.Time
}

type PayoutRepository struct {
	db *gorm.DB
}

func NewPayoutRepository(db *gorm.DB) *PayoutRepository {
	return &PayoutRepository{db: db}
}

func (r *PayoutRepository) WithTx(tx *gorm.DB) *PayoutRepository {
	return &PayoutRepository{db: tx}
}

func (r *PayoutRepository) Create(ctx context.Context, payout *model.Payout) error {
	return r.db.WithContext(ctx).Create(payout).Error
}

func (r *PayoutRepository) Get(ctx context.Context, id int64) (*model.Payout, error) {
	var payout model.Payout
	if err := r.db.WithContext(ctx).First(&payout, id).Error; err != nil {
		return nil, err
	}
	return &payout, nil
}

func (r *PayoutRepository) ExistsForTriple(ctx context.Context, invoiceID, projectID, investorID int64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Raw(`
		SELECT COUNT(*)
		FROM payouts
		WHERE invoice_id = ? AND project_id = ? AND investor_id = ?
	`, invoiceID, projectID, investorID).Scan(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *PayoutRepository) List(ctx context.Context, filter PayoutFilter) ([]model.Payout, error) {
	query := r.db.WithContext(ctx).Model(&model.Payout{})
	if filter.InvestorID != nil {
		query = query.Where("investor_id = ?", *filter.InvestorID)
	}
	if filter.ProjectID != nil {
		query = query.Where("project_id = ?", *filter.ProjectID)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.From != nil {
		query = query.Where("created_at >= ?", *filter.From)
	}
	if filter.To != nil {
		query = query.Where("created_at < ?", *filter.To)
	}

	var payouts []model.Payout
	if err := query.Order("created_at ASC, id ASC").Find(&payouts).Error; err != nil {
		return nil, err
	}
	return payouts, nil
}

func (r *PayoutRepository) Update(ctx context.Context, id int64, fields map[string]any) error {
	fields["updated_at"] = time.Now()
	return r.db.WithContext(ctx).
		Model(&model.Payout{}).
		Where("id = ?", id).
		Updates(fields).Error
}

func (r *PayoutRepository) Delete(ctx context.Context, id int64) error {
	res := r.db.WithContext(ctx).Delete(&model.Payout{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
