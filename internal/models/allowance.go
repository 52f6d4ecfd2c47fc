package models

import "time"

// AllowanceFrequency represents how often an allowance pays out
type AllowanceFrequency string

const (
	FrequencyDaily    AllowanceFrequency = "daily"
	FrequencyWeekly   AllowanceFrequency = "weekly"
	FrequencyBiweekly AllowanceFrequency = "biweekly"
	FrequencyMonthly  AllowanceFrequency = "monthly"
)

// Allowance is a recurring scheduled credit from a guardian to a child
// account. NextPaymentDate is date-only (midnight UTC), always present
// while the allowance is active, and only ever advances forward.
type Allowance struct {
	Base
	HouseholdID string             `gorm:"type:uuid;not null;index" json:"household_id"`
	ChildID     string             `gorm:"type:uuid;not null;index" json:"child_id"`
	GuardianID  string             `gorm:"type:uuid;not null" json:"guardian_id"`
	Amount      int64              `gorm:"type:bigint;not null" json:"amount"`
	Frequency   AllowanceFrequency `gorm:"not null" json:"frequency"`

	// AnchorDay is a weekday (0=Sunday..6=Saturday) for weekly
	// allowances and a day of month for monthly ones. Nil uses the
	// frequency default (Monday / the 1st).
	AnchorDay *int `json:"anchor_day,omitempty"`

	NextPaymentDate   time.Time  `gorm:"not null;index" json:"next_payment_date"`
	LastPaymentDate   *time.Time `json:"last_payment_date,omitempty"`
	RequiresChores    bool       `gorm:"default:false" json:"requires_chores"`
	MinChoresRequired int        `gorm:"default:0" json:"min_chores_required"`
	IsActive          bool       `gorm:"default:true" json:"is_active"`

	// Relationships
	Household Household `gorm:"foreignKey:HouseholdID" json:"household,omitempty"`
	Child     User      `gorm:"foreignKey:ChildID" json:"child,omitempty"`
	Guardian  User      `gorm:"foreignKey:GuardianID" json:"guardian,omitempty"`
}

// PaymentStatus represents the outcome of one allowance cycle
type PaymentStatus string

const (
	PaymentStatusCompleted PaymentStatus = "completed"
	PaymentStatusSkipped   PaymentStatus = "skipped"
)

// AllowancePayment is an append-only record of one allowance cycle
// outcome. Exactly one row is written per due cycle per allowance.
type AllowancePayment struct {
	Base
	AllowanceID   string        `gorm:"type:uuid;not null;index" json:"allowance_id"`
	Amount        int64         `gorm:"type:bigint;not null" json:"amount"`
	Status        PaymentStatus `gorm:"not null" json:"status"`
	SkipReason    string        `json:"skip_reason,omitempty"`
	ScheduledDate time.Time     `gorm:"not null" json:"scheduled_date"`
	PaidAt        *time.Time    `json:"paid_at,omitempty"`

	// Relationships
	Allowance Allowance `gorm:"foreignKey:AllowanceID" json:"allowance,omitempty"`
}
