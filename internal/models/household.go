package models

// Household is the tenancy boundary grouping members, child accounts,
// allowances, and notifications.
type Household struct {
	Base
	Name     string `gorm:"not null" json:"name"`
	Currency string `gorm:"size:3;not null;default:'CZK'" json:"currency"`
	OwnerID  string `gorm:"type:uuid;not null" json:"owner_id"`

	// Relationships
	Owner   User              `gorm:"foreignKey:OwnerID" json:"owner,omitempty"`
	Members []HouseholdMember `gorm:"foreignKey:HouseholdID" json:"members,omitempty"`
}

// HouseholdMember links a user to a household with a role.
type HouseholdMember struct {
	Base
	HouseholdID string   `gorm:"type:uuid;not null;uniqueIndex:idx_household_user" json:"household_id"`
	UserID      string   `gorm:"type:uuid;not null;uniqueIndex:idx_household_user" json:"user_id"`
	Role        UserRole `gorm:"not null" json:"role"`
	DisplayName string   `json:"display_name"`

	// Relationships
	Household Household `gorm:"foreignKey:HouseholdID" json:"household,omitempty"`
	User      User      `gorm:"foreignKey:UserID" json:"user,omitempty"`
}
