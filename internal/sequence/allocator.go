// Package sequence issues zero-padded sequential document numbers from
// counters kept in the relational store.
package sequence

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"gorm.io/gorm"
)

// Scheme describes one numbering series. Yearly series get a counter per
// calendar year; the others share a single counter forever.
type Scheme struct {
	Name   string
	Prefix string
	Yearly bool
}

// Scope is the counter key for the scheme at the given instant.
func (s Scheme) Scope(now time.Time) string {
	if s.Yearly {
		return fmt.Sprintf("%s:%d", s.Name, now.Year())
	}
	return s.Name
}

// DisplayPrefix is stored alongside the number, e.g. "INV-2026-".
func (s Scheme) DisplayPrefix(now time.Time) string {
	return fmt.Sprintf("%s%d-", s.Prefix, now.Year())
}

type Allocator struct {
	db       *gorm.DB
	padWidth int
}

func NewAllocator(db *gorm.DB, padWidth int) *Allocator {
	if padWidth <= 0 {
		padWidth = 4
	}
	return &Allocator{db: db, padWidth: padWidth}
}

const nextStatement = `
	INSERT INTO sequence_counters (scope, last_value)
	VALUES (?, 1)
	ON CONFLICT (scope) DO UPDATE SET last_value = sequence_counters.last_value + 1
	RETURNING last_value
`

// Next increments the counter for scope and returns the new value padded.
// Pass the transaction that inserts the numbered row so the counter and the
// row commit together.
func (a *Allocator) Next(ctx context.Context, tx *gorm.DB, scope string) (string, error) {
	if tx == nil {
		tx = a.db
	}
	var value int64
	if err := tx.WithContext(ctx).Raw(nextStatement, scope).Scan(&value).Error; err != nil {
		return "", fmt.Errorf("allocate %s: %w", scope, err)
	}
	if value <= 0 {
		return "", fmt.Errorf("allocate %s: counter returned %d", scope, value)
	}
	return a.format(value), nil
}

// Allocate returns the display prefix and padded number for the scheme.
func (a *Allocator) Allocate(ctx context.Context, tx *gorm.DB, scheme Scheme, now time.Time) (string, string, error) {
	number, err := a.Next(ctx, tx, scheme.Scope(now))
	if err != nil {
		return "", "", err
	}
	return scheme.DisplayPrefix(now), number, nil
}

// Peek returns the number the next allocation would produce without
// consuming it. Concurrent callers may see the same value.
func (a *Allocator) Peek(ctx context.Context, scope string) (string, error) {
	var last int64
	err := a.db.WithContext(ctx).Raw(`
		SELECT COALESCE(MAX(last_value), 0) FROM sequence_counters WHERE scope = ?
	`, scope).Scan(&last).Error
	if err != nil {
		return "", err
	}
	return a.format(last + 1), nil
}

func (a *Allocator) format(value int64) string {
	raw := strconv.FormatInt(value, 10)
	if len(raw) >= a.padWidth {
		return raw
	}
	return fmt.Sprintf("%0*d", a.padWidth, value)
}
