package models

import "time"

// NotificationPriority orders notifications in listings and drives the
// default email policy (urgent-only when no preference row exists).
type NotificationPriority string

const (
	PriorityLow    NotificationPriority = "low"
	PriorityNormal NotificationPriority = "normal"
	PriorityHigh   NotificationPriority = "high"
	PriorityUrgent NotificationPriority = "urgent"
)

// NotificationType classifies notifications for preference lookups.
type NotificationType string

const (
	NotificationAllowancePaid   NotificationType = "allowance_paid"
	NotificationMoneyRequest    NotificationType = "money_request"
	NotificationRequestResolved NotificationType = "request_resolved"
	NotificationChoreReviewed   NotificationType = "chore_reviewed"
	NotificationSystemAnnounce  NotificationType = "system_announcement"
)

// Notification is an in-app message for one household member.
// Expired rows are hard-deleted by a periodic sweep.
type Notification struct {
	Base
	HouseholdID string               `gorm:"type:uuid;not null;index" json:"household_id"`
	UserID      string               `gorm:"type:uuid;not null;index" json:"user_id"`
	Type        NotificationType     `gorm:"not null" json:"type"`
	Title       string               `gorm:"not null" json:"title"`
	Message     string               `gorm:"not null" json:"message"`
	Priority    NotificationPriority `gorm:"not null;default:'normal'" json:"priority"`
	ActionURL   string               `json:"action_url,omitempty"`
	ActionLabel string               `json:"action_label,omitempty"`
	Icon        string               `json:"icon,omitempty"`

	RelatedType string `json:"related_type,omitempty"`
	RelatedID   string `gorm:"type:uuid" json:"related_id,omitempty"`
	Metadata    string `json:"metadata,omitempty"`

	IsRead     bool       `gorm:"default:false;index" json:"is_read"`
	IsArchived bool       `gorm:"default:false" json:"is_archived"`
	ExpiresAt  *time.Time `gorm:"index" json:"expires_at,omitempty"`

	// Relationships
	User User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

// NotificationPreference controls email delivery per (user, type).
// No row means "email only when priority is urgent".
type NotificationPreference struct {
	Base
	UserID       string           `gorm:"type:uuid;not null;uniqueIndex:idx_user_type" json:"user_id"`
	Type         NotificationType `gorm:"not null;uniqueIndex:idx_user_type" json:"type"`
	EmailEnabled bool             `gorm:"default:false" json:"email_enabled"`
}
