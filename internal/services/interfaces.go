package services

import (
	"time"

	"gorm.io/gorm"

	"famledger/internal/models"
	"famledger/internal/pagination"
)

// UserServicer defines the contract for user-related business logic.
type UserServicer interface {
	CreateUser(email, password, firstName, lastName string, role models.UserRole) (*models.User, error)
	GetUserByEmail(email string) (*models.User, error)
	GetUserByID(id string) (*models.User, error)
	VerifyPassword(user *models.User, password string) bool
	AttemptLogin(email, password string) (*models.User, error)
	StoreRefreshTokenHash(userID, tokenHash string) error
	GetRefreshTokenHash(userID string) (string, error)
}

// HouseholdServicer defines the contract for household management.
type HouseholdServicer interface {
	CreateHousehold(ownerID, name, currency string) (*models.Household, error)
	GetHouseholdByID(householdID string) (*models.Household, error)
	AddMember(householdID, userID string, role models.UserRole, displayName string) (*models.HouseholdMember, error)
	GetMembers(householdID string) ([]models.HouseholdMember, error)
	GetMember(householdID, userID string) (*models.HouseholdMember, error)
	RequireMember(householdID, userID string) error
	RequireGuardian(householdID, userID string) error
}

// SpendCheck is the result of evaluating a proposed spend against a
// child account's balance and limits.
type SpendCheck struct {
	Allowed bool   `json:"allowed"`
	Reason  string `json:"reason,omitempty"`
}

// SpendTotals holds a child account's aggregated spending for the
// current day, week, and month windows.
type SpendTotals struct {
	Daily   int64 `json:"daily"`
	Weekly  int64 `json:"weekly"`
	Monthly int64 `json:"monthly"`
}

// ChildAccountServicer defines the contract for child account business logic.
type ChildAccountServicer interface {
	Enroll(householdID, guardianID, childID string) (*models.ChildAccount, error)
	GetByChild(householdID, childID string) (*models.ChildAccount, error)
	GetByID(accountID string) (*models.ChildAccount, error)
	UpdateLimits(householdID, guardianID, childID string, daily, weekly, monthly, perTransaction *int64, approvalThreshold *int64) (*models.ChildAccount, error)
	Credit(tx *gorm.DB, accountID string, amount int64) error
	Debit(tx *gorm.DB, accountID string, amount int64) error
	GetSpendTotals(accountID string) (*SpendTotals, error)
	PreviewSpend(householdID, childID string, amount int64) (*SpendCheck, error)
	Spend(householdID, childID string, amount int64, description string) (*models.SpendRecord, error)
}

// AllowanceServicer defines the contract for allowance scheduling logic.
type AllowanceServicer interface {
	CreateAllowance(householdID, guardianID, childID string, amount int64, frequency models.AllowanceFrequency, anchorDay *int, requiresChores bool, minChores int) (*models.Allowance, error)
	GetAllowanceByID(allowanceID string) (*models.Allowance, error)
	GetHouseholdAllowances(householdID string, page pagination.PageRequest) (*pagination.PageResponse[models.Allowance], error)
	GetChildAllowances(householdID, childID string) ([]models.Allowance, error)
	UpdateAllowance(allowanceID, guardianID string, amount *int64, frequency *models.AllowanceFrequency, anchorDay *int, requiresChores *bool, minChores *int) (*models.Allowance, error)
	DeactivateAllowance(allowanceID, guardianID string) error
	GetPaymentHistory(allowanceID string, page pagination.PageRequest) (*pagination.PageResponse[models.AllowancePayment], error)
	ProcessDuePayments() (int, error)
}

// MoneyRequestFilter holds optional filter parameters for listing money requests.
type MoneyRequestFilter struct {
	Status *models.RequestStatus
}

// MoneyRequestServicer defines the contract for the money request workflow.
type MoneyRequestServicer interface {
	CreateRequest(householdID, childID, guardianID string, amount int64, reason, category string) (*models.MoneyRequest, error)
	ApproveRequest(requestID, guardianID, notes string) (*models.MoneyRequest, error)
	RejectRequest(requestID, guardianID, notes string) (*models.MoneyRequest, error)
	GetChildRequests(householdID, childID string, page pagination.PageRequest, filter MoneyRequestFilter) (*pagination.PageResponse[models.MoneyRequest], error)
	GetGuardianRequests(householdID, guardianID string, page pagination.PageRequest, filter MoneyRequestFilter) (*pagination.PageResponse[models.MoneyRequest], error)
}

// NotificationOptions carries the optional fields of a notification.
type NotificationOptions struct {
	ActionURL   string
	ActionLabel string
	Icon        string
	RelatedType string
	RelatedID   string
	Metadata    map[string]interface{}
	ExpiresAt   *time.Time
}

// NotificationServicer defines the contract for notification business logic.
type NotificationServicer interface {
	Create(householdID, userID string, notifType models.NotificationType, title, message string, priority models.NotificationPriority, opts *NotificationOptions) (*models.Notification, error)
	NotifyMembers(householdID string, userIDs []string, notifType models.NotificationType, title, message string, priority models.NotificationPriority, opts *NotificationOptions) ([]string, error)
	GetUserNotifications(userID string, unreadOnly bool, limit int) ([]models.Notification, error)
	UnreadCount(userID string) (int64, error)
	MarkRead(userID, notificationID string) error
	MarkAllRead(userID, householdID string) error
	Archive(userID, notificationID string) error
	SetPreference(userID string, notifType models.NotificationType, emailEnabled bool) error
	DeleteExpired() (int64, error)
}

// ChoreServicer defines the contract for chore business logic.
type ChoreServicer interface {
	CreateChore(householdID, guardianID, assigneeID, name, description string) (*models.Chore, error)
	GetHouseholdChores(householdID string, page pagination.PageRequest) (*pagination.PageResponse[models.Chore], error)
	MarkComplete(choreID, childID string) (*models.ChoreCompletion, error)
	ReviewCompletion(completionID, guardianID string, approve bool) (*models.ChoreCompletion, error)
	CountApprovedCompletionsThisMonth(householdID, childID string) (int64, error)
}

// AuditServicer defines the contract for audit logging.
type AuditServicer interface {
	Log(userID, action, resourceType, resourceID, ipAddress string, changes map[string]interface{})
}
