package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type PaymentStatus int

const (
	PaymentStatusPending PaymentStatus = 0
	PaymentStatusPaid    PaymentStatus = 1
)

type Payment struct {
	ID            int64           `gorm:"primaryKey" json:"id"`
	InvoiceID     int64           `gorm:"not null;index" json:"invoice_id"`
	OfftakerID    int64           `gorm:"not null;index" json:"offtaker_id"`
	Amount        decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"amount"`
	Status        PaymentStatus   `gorm:"not null;default:0" json:"status"`
	ScreenshotKey string          `gorm:"size:512" json:"screenshot_key"`
	PaidAt        *time.Time      `json:"paid_at"`
	CreatedBy     int64           `json:"created_by"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}
