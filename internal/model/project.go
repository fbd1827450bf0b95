package model

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Project struct {
	ID                    int64           `gorm:"primaryKey" json:"id"`
	Name                  string          `gorm:"size:200;not null" json:"name"`
	SizeKW                decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0" json:"size_kw"`
	LeaseTermMonths       int             `gorm:"not null;default:0" json:"lease_term_months"`
	InvestorProfitPercent decimal.Decimal `gorm:"type:numeric(5,2);not null;default:0" json:"investor_profit_percent"`
	WeshareProfitPercent  decimal.Decimal `gorm:"type:numeric(5,2);not null;default:0" json:"weshare_profit_percent"`
	InvestorID            *int64          `gorm:"index" json:"investor_id"`
	OfftakerID            *int64          `gorm:"index" json:"offtaker_id"`
	CreatedAt             time.Time       `json:"created_at"`
	UpdatedAt             time.Time       `json:"updated_at"`
	DeletedAt             gorm.DeletedAt  `gorm:"index" json:"-"`
}
