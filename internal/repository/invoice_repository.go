package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/nurpe/weshare-leasing/internal/model"
)

type InvoiceFilter struct {
	ProjectID  *int64
	OfftakerID *int64
	Status     *model.InvoiceStatus
	Limit      int
	Offset     int
}

type InvoiceRepository struct {
	db *gorm.DB
}

func NewInvoiceRepository(db *gorm.DB) *InvoiceRepository {
	return &InvoiceRepository{db: db}
}

func (r *InvoiceRepository) WithTx(tx *gorm.DB) *InvoiceRepository {
	return &InvoiceRepository{db: tx}
}

// Create inserts the header and its items. Call it on a transaction.
func (r *InvoiceRepository) Create(ctx context.Context, invoice *model.Invoice) error {
	items := invoice.Items
	invoice.Items = nil
	if err := r.db.WithContext(ctx).Create(invoice).Error; err != nil {
		invoice.Items = items
		return err
	}
	if err := r.insertItems(ctx, invoice.ID, items); err != nil {
		return err
	}
	invoice.Items = items
	return nil
}

func (r *InvoiceRepository) Get(ctx context.Context, id int64) (*model.Invoice, error) {
	var invoice model.Invoice
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		First(&invoice, id).Error
	if err != nil {
		return nil, err
	}
	return &invoice, nil
}

func (r *InvoiceRepository) List(ctx context.Context, filter InvoiceFilter) ([]model.Invoice, int64, error) {
	query := r.db.WithContext(ctx).Model(&model.Invoice{})
	if filter.ProjectID != nil {
		query = query.Where("project_id = ?", *filter.ProjectID)
	}
	if filter.OfftakerID != nil {
		query = query.Where("offtaker_id = ?", *filter.OfftakerID)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	limit := filter.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	var invoices []model.Invoice
	err := query.
		Order("created_at DESC, id DESC").
		Limit(limit).
		Offset(filter.Offset).
		Find(&invoices).Error
	if err != nil {
		return nil, 0, err
	}
	return invoices, total, nil
}

func (r *InvoiceRepository) UpdateHeader(ctx context.Context, invoice *model.Invoice) error {
	return r.db.WithContext(ctx).
		Model(&model.Invoice{}).
		Where("id = ?", invoice.ID).
		Updates(map[string]any{
			"project_id":   invoice.ProjectID,
			"offtaker_id":  invoice.OfftakerID,
			"sub_amount":   invoice.SubAmount,
			"tax_amount":   invoice.TaxAmount,
			"total_amount": invoice.TotalAmount,
			"status":       invoice.Status,
			"invoice_date": invoice.InvoiceDate,
			"due_date":     invoice.DueDate,
			"notes":        invoice.Notes,
			"updated_at":   time.Now(),
		}).Error
}

// ReplaceItems deletes every item of the invoice and inserts the new set.
func (r *InvoiceRepository) ReplaceItems(ctx context.Context, invoiceID int64, items []model.InvoiceItem) error {
	if err := r.db.WithContext(ctx).Where("invoice_id = ?", invoiceID).Delete(&model.InvoiceItem{}).Error; err != nil {
		return err
	}
	return r.insertItems(ctx, invoiceID, items)
}

func (r *InvoiceRepository) SetStatus(ctx context.Context, id int64, status model.InvoiceStatus) error {
	return r.db.WithContext(ctx).
		Model(&model.Invoice{}).
		Where("id = ?", id).
		Updates(map[string]any{"status": status, "updated_at": time.Now()}).Error
}

func (r *InvoiceRepository) SoftDelete(ctx context.Context, id int64) error {
	res := r.db.WithContext(ctx).Delete(&model.Invoice{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *InvoiceRepository) insertItems(ctx context.Context, invoiceID int64, items []model.InvoiceItem) error {
	if len(items) == 0 {
		return nil
	}
	for i := range items {
		items[i].ID = 0
		items[i].InvoiceID = invoiceID
	}
	return r.db.WithContext(ctx).Create(&items).Error
}
