package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type PayoutStatus string

const (
	PayoutStatusPending PayoutStatus = "pending"
	PayoutStatusPaid    PayoutStatus = "paid"
)

type Payout struct {
	ID              int64           `gorm:"primaryKey" json:"id"`
	InvoiceID       int64           `gorm:"not null;uniqueIndex:uq_payouts_invoice_project_investor,priority:1" json:"invoice_id"`
	ProjectID       int64           `gorm:"not null;uniqueIndex:uq_payouts_invoice_project_investor,priority:2" json:"project_id"`
	InvestorID      int64           `gorm:"not null;uniqueIndex:uq_payouts_invoice_project_investor,priority:3;index" json:"investor_id"`
	InvoiceAmount   decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"invoice_amount"`
	InvestorPercent decimal.Decimal `gorm:"type:numeric(5,2);not null" json:"investor_percent"`
	PayoutAmount    decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"payout_amount"`
	PayoutPrefix    string          `gorm:"size:32;not null" json:"payout_prefix"`
	PayoutNumber    string          `gorm:"size:32;not null" json:"payout_number"`
	DocumentKey     string          `gorm:"size:512" json:"document_key"`
	TransactionID   string          `gorm:"size:128" json:"transaction_id"`
	Status          PayoutStatus    `gorm:"size:16;not null;default:'pending'" json:"status"`
	PayoutDate      *time.Time      `json:"payout_date"`
	CreatedBy       int64           `json:"created_by"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

func (p Payout) Number() string {
	return p.PayoutPrefix + p.PayoutNumber
}

// ComputePayoutAmount is invoiceAmount * percent / 100, rounded half away
// from zero to cents.
func ComputePayoutAmount(invoiceAmount, percent decimal.Decimal) decimal.Decimal {
	return invoiceAmount.Mul(percent).Div(decimal.NewFromInt(100)).Round(2)
}
