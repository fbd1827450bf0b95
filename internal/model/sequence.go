package model

type SequenceCounter struct {
	Scope     string `gorm:"primaryKey;size:64"`
	LastValue int64  `gorm:"not null;default:0"`
}
