package models

import "time"

// ChildAccount holds a child's balance and spending limits within a
// household. One per (household, child). Amounts are int64 cents; a nil
// limit means unlimited. The balance never goes negative: debits are
// guarded by an atomic conditional update.
type ChildAccount struct {
	Base
	HouseholdID       string `gorm:"type:uuid;not null;uniqueIndex:idx_household_child" json:"household_id"`
	ChildID           string `gorm:"type:uuid;not null;uniqueIndex:idx_household_child" json:"child_id"`
	Balance           int64  `gorm:"type:bigint;not null;default:0" json:"balance"`
	DailyLimit        *int64 `gorm:"type:bigint" json:"daily_limit,omitempty"`
	WeeklyLimit       *int64 `gorm:"type:bigint" json:"weekly_limit,omitempty"`
	MonthlyLimit      *int64 `gorm:"type:bigint" json:"monthly_limit,omitempty"`
	PerTransactionMax *int64 `gorm:"type:bigint" json:"per_transaction_max,omitempty"`
	ApprovalThreshold int64  `gorm:"type:bigint;not null;default:0" json:"approval_threshold"`
	IsActive          bool   `gorm:"default:true" json:"is_active"`

	// Relationships
	Household Household `gorm:"foreignKey:HouseholdID" json:"household,omitempty"`
	Child     User      `gorm:"foreignKey:ChildID" json:"child,omitempty"`
}

// SpendRecord is an append-only record of a debit against a child
// account. Daily/weekly/monthly spent aggregates are computed from these.
type SpendRecord struct {
	Base
	ChildAccountID string    `gorm:"type:uuid;not null;index" json:"child_account_id"`
	Amount         int64     `gorm:"type:bigint;not null" json:"amount"`
	Description    string    `json:"description"`
	SpentAt        time.Time `gorm:"not null;index" json:"spent_at"`

	// Relationships
	ChildAccount ChildAccount `gorm:"foreignKey:ChildAccountID" json:"child_account,omitempty"`
}
