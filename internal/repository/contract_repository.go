package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/nurpe/weshare-leasing/internal/model"
)

type ContractRepository struct {
	db *gorm.DB
}

func NewContractRepository(db *gorm.DB) *ContractRepository {
	return &ContractRepository{db: db}
}

func (r *ContractRepository) WithTx(tx *gorm.DB) *ContractRepository {
	return &ContractRepository{db: tx}
}

func (r *ContractRepository) Create(ctx context.Context, contract *model.Contract) error {
	return r.db.WithContext(ctx).Create(contract).Error
}

func (r *ContractRepository) Get(ctx context.Context, id int64) (*model.Contract, error) {
	var contract model.Contract
	if err := r.db.WithContext(ctx).First(&contract, id).Error; err != nil {
		return nil, err
	}
	return &contract, nil
}

func (r *ContractRepository) ListByProject(ctx context.Context, projectID int64) ([]model.Contract, error) {
	var contracts []model.Contract
	err := r.db.WithContext(ctx).
		Where("project_id = ?", projectID).
		Order("created_at DESC, id DESC").
		Find(&contracts).Error
	if err != nil {
		return nil, err
	}
	return contracts, nil
}

// ListNotCancelled returns every contract between the project and the
// investor whose status is not cancelled, newest first.
func (r *ContractRepository) ListNotCancelled(ctx context.Context, projectID, investorID int64) ([]model.Contract, error) {
	var contracts []model.Contract
	err := r.db.WithContext(ctx).Raw(`
		SELECT *
		FROM contracts
		WHERE project_id = ?
			AND investor_id = ?
			AND status <> ?
		ORDER BY id DESC
	`, projectID, investorID, model.ContractStatusCancelled).Scan(&contracts).Error
	if err != nil {
		return nil, err
	}
	return contracts, nil
}

// UpdateDetails writes the editable, non-status fields.
func (r *ContractRepository) UpdateDetails(ctx context.Context, contract *model.Contract) error {
	return r.db.WithContext(ctx).
		Model(&model.Contract{}).
		Where("id = ?", contract.ID).
		Updates(map[string]any{
			"title":         contract.Title,
			"description":   contract.Description,
			"document_key":  contract.DocumentKey,
			"contract_date": contract.ContractDate,
			"offtaker_id":   contract.OfftakerID,
			"investor_id":   contract.InvestorID,
			"updated_by":    contract.UpdatedBy,
			"updated_at":    time.Now(),
		}).Error
}

// UpdateStatus writes status, reason and signed document in one statement.
func (r *ContractRepository) UpdateStatus(
	ctx context.Context,
	id int64,
	status model.ContractStatus,
	rejectReason *string,
	signedDocumentKey string,
	updatedBy int64,
) error {
	return r.db.WithContext(ctx).Exec(`
		UPDATE contracts
		SET
			status = ?,
			reject_reason = ?,
			signed_document_key = ?,
			updated_by = ?,
			updated_at = ?
		WHERE id = ?
	`, status, rejectReason, signedDocumentKey, updatedBy, time.Now(), id).Error
}
