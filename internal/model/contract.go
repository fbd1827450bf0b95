package model

import "time"

type ContractStatus int

const (
	ContractStatusPending   ContractStatus = 0
	ContractStatusApproved  ContractStatus = 1
	ContractStatusRejected  ContractStatus = 2
	ContractStatusCancelled ContractStatus = 3
)

func (s ContractStatus) Valid() bool {
	return s >= ContractStatusPending && s <= ContractStatusCancelled
}

// CarriesReason reports whether reject_reason is kept for this status.
func (s ContractStatus) CarriesReason() bool {
	return s == ContractStatusRejected || s == ContractStatusCancelled
}

func (s ContractStatus) String() string {
	switch s {
	case ContractStatusPending:
		return "pending"
	case ContractStatusApproved:
		return "approved"
	case ContractStatusRejected:
		return "rejected"
	case ContractStatusCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

type Contract struct {
	ID                int64          `gorm:"primaryKey" json:"id"`
	ProjectID         int64          `gorm:"not null;index:idx_contracts_project_investor,priority:1" json:"project_id"`
	OfftakerID        *int64         `gorm:"index" json:"offtaker_id"`
	InvestorID        *int64         `gorm:"index:idx_contracts_project_investor,priority:2" json:"investor_id"`
	Title             string         `gorm:"size:255;not null" json:"title"`
	Description       string         `gorm:"type:text" json:"description"`
	DocumentKey       string         `gorm:"size:512" json:"document_key"`
	SignedDocumentKey string         `gorm:"size:512" json:"signed_document_key"`
	ContractDate      *time.Time     `json:"contract_date"`
	Status            ContractStatus `gorm:"not null;default:0;index:idx_contracts_project_investor,priority:3" json:"status"`
	RejectReason      *string        `gorm:"type:text" json:"reject_reason"`
	CreatedBy         int64          `json:"created_by"`
	UpdatedBy         int64          `json:"updated_by"`
	CreatedAt         time.Time      `json:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at"`
}

// Parties returns the offtaker and investor user ids, skipping absent ones.
func (c Contract) Parties() []int64 {
	ids := make([]int64, 0, 2)
	if c.OfftakerID != nil {
		ids = append(ids, *c.OfftakerID)
	}
	if c.InvestorID != nil {
		ids = append(ids, *c.InvestorID)
	}
	return ids
}
