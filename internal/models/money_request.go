package models

import "time"

// RequestStatus represents the state of a money request
type RequestStatus string

const (
	RequestStatusPending  RequestStatus = "pending"
	RequestStatusApproved RequestStatus = "approved"
	RequestStatusRejected RequestStatus = "rejected"
)

// MoneyRequest is an ad hoc, approval-gated transfer request from a
// child to a guardian. Once approved or rejected it is terminal and
// must never transition again.
type MoneyRequest struct {
	Base
	HouseholdID string        `gorm:"type:uuid;not null;index" json:"household_id"`
	RequesterID string        `gorm:"type:uuid;not null;index" json:"requester_id"`
	GuardianID  string        `gorm:"type:uuid;not null;index" json:"guardian_id"`
	Amount      int64         `gorm:"type:bigint;not null" json:"amount"`
	Reason      string        `gorm:"not null" json:"reason"`
	Category    string        `json:"category,omitempty"`
	Status      RequestStatus `gorm:"not null;default:'pending';index" json:"status"`
	ReviewNotes string        `json:"review_notes,omitempty"`
	ReviewedAt  *time.Time    `json:"reviewed_at,omitempty"`

	// Relationships
	Household Household `gorm:"foreignKey:HouseholdID" json:"household,omitempty"`
	Requester User      `gorm:"foreignKey:RequesterID" json:"requester,omitempty"`
	Guardian  User      `gorm:"foreignKey:GuardianID" json:"guardian,omitempty"`
}
