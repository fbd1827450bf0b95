package db

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/nurpe/weshare-leasing/internal/model"
)

// Statements AutoMigrate cannot express. They must stay valid on both
// Postgres and SQLite, which the tests run against.
var migrationStatements = []string{
	`INSERT INTO sequence_counters (scope, last_value) VALUES ('invoice', 0) ON CONFLICT (scope) DO NOTHING;`,
	`CREATE INDEX IF NOT EXISTS idx_payments_invoice_status ON payments (invoice_id, status);`,
	`CREATE INDEX IF NOT EXISTS idx_payouts_status ON payouts (status);`,
}

func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&model.User{},
		&model.Project{},
		&model.Contract{},
		&model.Invoice{},
		&model.InvoiceItem{},
		&model.Payment{},
		&model.Payout{},
		&model.Notification{},
		&model.EmailTemplate{},
		&model.SequenceCounter{},
	); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return runMigrations(db)
}

func runMigrations(db *gorm.DB) error {
	for i, stmt := range migrationStatements {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}
	return nil
}
