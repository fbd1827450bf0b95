package model

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type InvoiceStatus int

const (
	InvoiceStatusDraft InvoiceStatus = 0
	InvoiceStatusPaid  InvoiceStatus = 1
)

type Invoice struct {
	ID            int64           `gorm:"primaryKey" json:"id"`
	ProjectID     int64           `gorm:"not null;index" json:"project_id"`
	OfftakerID    int64           `gorm:"not null;index" json:"offtaker_id"`
	SubAmount     decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0" json:"sub_amount"`
	TaxAmount     decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0" json:"tax_amount"`
	TotalAmount   decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0" json:"total_amount"`
	Status        InvoiceStatus   `gorm:"not null;default:0;index" json:"status"`
	InvoicePrefix string          `gorm:"size:32;not null;uniqueIndex:uq_invoices_number,priority:1" json:"invoice_prefix"`
	InvoiceNumber string          `gorm:"size:32;not null;uniqueIndex:uq_invoices_number,priority:2" json:"invoice_number"`
	InvoiceDate   *time.Time      `json:"invoice_date"`
	DueDate       *time.Time      `json:"due_date"`
	Notes         string          `gorm:"type:text" json:"notes"`
	CreatedBy     int64           `json:"created_by"`
	Items         []InvoiceItem   `gorm:"foreignKey:InvoiceID" json:"items"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
	DeletedAt     gorm.DeletedAt  `gorm:"index" json:"-"`
}

// Number is the display number, e.g. INV-2026-0007.
func (i Invoice) Number() string {
	return i.InvoicePrefix + i.InvoiceNumber
}

type InvoiceItem struct {
	ID        int64           `gorm:"primaryKey" json:"id"`
	InvoiceID int64           `gorm:"not null;index" json:"invoice_id"`
	Item      string          `gorm:"size:255;not null" json:"item"`
	Unit      int             `gorm:"not null" json:"unit"`
	Price     decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"price"`
	Total     decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"total"`
}
