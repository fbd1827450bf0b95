package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/nurpe/weshare-leasing/internal/model"
)

type ProjectRepository struct {
	db *gorm.DB
}

func NewProjectRepository(db *gorm.DB) *ProjectRepository {
	return &ProjectRepository{db: db}
}

func (r *ProjectRepository) WithTx(tx *gorm.DB) *ProjectRepository {
	return &ProjectRepository{db: tx}
}

func (r *ProjectRepository) Get(ctx context.Context, id int64) (*model.Project, error) {
	var project model.Project
	if err := r.db.WithContext(ctx).First(&project, id).Error; err != nil {
		return nil, err
	}
	return &project, nil
}

func (r *ProjectRepository) Create(ctx context.Context, project *model.Project) error {
	return r.db.WithContext(ctx).Create(project).Error
}

// SetInvestor stores the new investor reference and reports whether a row changed.
func (r *ProjectRepository) SetInvestor(ctx context.Context, id int64, investorID *int64) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&model.Project{}).
		Where("id = ?", id).
		Update("investor_id", investorID)
	return res.RowsAffected > 0, res.Error
}

func (r *ProjectRepository) SetOfftaker(ctx context.Context, id int64, offtakerID *int64) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&model.Project{}).
		Where("id = ?", id).
		Update("offtaker_id", offtakerID)
	return res.RowsAffected > 0, res.Error
}
