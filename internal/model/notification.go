package model

import "time"

type ModuleType string

const (
	ModuleContract ModuleType = "contract"
	ModuleInvoice  ModuleType = "invoice"
	ModulePayment  ModuleType = "payment"
	ModulePayout   ModuleType = "payout"
	ModuleProject  ModuleType = "project"
)

type Notification struct {
	ID         int64      `gorm:"primaryKey" json:"id"`
	UserID     int64      `gorm:"not null;index:idx_notifications_user_read,priority:1" json:"user_id"`
	Title      string     `gorm:"size:255;not null" json:"title"`
	Message    string     `gorm:"type:text;not null" json:"message"`
	ModuleType ModuleType `gorm:"size:32" json:"module_type"`
	ModuleID   *int64     `json:"module_id"`
	ActionURL  string     `gorm:"size:512" json:"action_url"`
	IsRead     bool       `gorm:"not null;default:false;index:idx_notifications_user_read,priority:2" json:"is_read"`
	CreatedBy  *int64     `json:"created_by"`
	CreatedAt  time.Time  `gorm:"index" json:"created_at"`
}
