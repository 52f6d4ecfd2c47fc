package models

import "time"

// Chore is a task a guardian assigns within a household. Approved
// completions count toward chore-gated allowances.
type Chore struct {
	Base
	HouseholdID string `gorm:"type:uuid;not null;index" json:"household_id"`
	Name        string `gorm:"not null" json:"name"`
	Description string `json:"description"`
	AssigneeID  string `gorm:"type:uuid;not null" json:"assignee_id"`
	IsActive    bool   `gorm:"default:true" json:"is_active"`

	// Relationships
	Household Household `gorm:"foreignKey:HouseholdID" json:"household,omitempty"`
	Assignee  User      `gorm:"foreignKey:AssigneeID" json:"assignee,omitempty"`
}

// CompletionStatus represents the review state of a chore completion
type CompletionStatus string

const (
	CompletionStatusPending  CompletionStatus = "pending"
	CompletionStatusApproved CompletionStatus = "approved"
	CompletionStatusRejected CompletionStatus = "rejected"
)

// ChoreCompletion records a child marking a chore done, pending
// guardian review.
type ChoreCompletion struct {
	Base
	ChoreID        string           `gorm:"type:uuid;not null;index" json:"chore_id"`
	HouseholdID    string           `gorm:"type:uuid;not null;index" json:"household_id"`
	CompletedBy    string           `gorm:"type:uuid;not null;index" json:"completed_by"`
	Status         CompletionStatus `gorm:"not null;default:'pending'" json:"status"`
	CompletionDate time.Time        `gorm:"not null;index" json:"completion_date"`
	ReviewedBy     *string          `gorm:"type:uuid" json:"reviewed_by,omitempty"`
	ReviewedAt     *time.Time       `json:"reviewed_at,omitempty"`

	// Relationships
	Chore Chore `gorm:"foreignKey:ChoreID" json:"chore,omitempty"`
	Child User  `gorm:"foreignKey:CompletedBy" json:"child,omitempty"`
}
