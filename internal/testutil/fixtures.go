package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"famledger/internal/models"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// counter provides unique values across fixtures within a test run.
var counter atomic.Int64

func nextID() int64 {
	return counter.Add(1)
}

// CreateTestUser creates a guardian user with a hashed password and unique email.
func CreateTestUser(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()
	return CreateTestUserWithRole(t, db, models.UserRoleGuardian)
}

// CreateTestChild creates a child user.
func CreateTestChild(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()
	return CreateTestUserWithRole(t, db, models.UserRoleChild)
}

// CreateTestUserWithRole creates a user with the given role.
func CreateTestUserWithRole(t *testing.T, db *gorm.DB, role models.UserRole) *models.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	n := nextID()
	user := &models.User{
		Email:     fmt.Sprintf("user%d@test.com", n),
		Password:  string(hash),
		FirstName: fmt.Sprintf("Test%d", n),
		Role:      role,
		IsActive:  true,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// CreateTestHousehold creates a household owned by the given guardian,
// with the guardian enrolled as a member.
func CreateTestHousehold(t *testing.T, db *gorm.DB, ownerID string) *models.Household {
	t.Helper()

	household := &models.Household{
		Name:     fmt.Sprintf("Test Household %d", nextID()),
		Currency: "CZK",
		OwnerID:  ownerID,
	}
	if err := db.Create(household).Error; err != nil {
		t.Fatalf("failed to create test household: %v", err)
	}

	AddTestMember(t, db, household.ID, ownerID, models.UserRoleGuardian)
	return household
}

// AddTestMember adds a user to a household with the given role.
func AddTestMember(t *testing.T, db *gorm.DB, householdID, userID string, role models.UserRole) *models.HouseholdMember {
	t.Helper()

	member := &models.HouseholdMember{
		HouseholdID: householdID,
		UserID:      userID,
		Role:        role,
	}
	if err := db.Create(member).Error; err != nil {
		t.Fatalf("failed to add test member: %v", err)
	}
	return member
}

// CreateTestChildAccount creates a child account with zero balance.
func CreateTestChildAccount(t *testing.T, db *gorm.DB, householdID, childID string) *models.ChildAccount {
	t.Helper()
	return CreateTestChildAccountWithBalance(t, db, householdID, childID, 0)
}

// CreateTestChildAccountWithBalance creates a child account with the
// given balance (in cents).
func CreateTestChildAccountWithBalance(t *testing.T, db *gorm.DB, householdID, childID string, balance int64) *models.ChildAccount {
	t.Helper()

	account := &models.ChildAccount{
		HouseholdID: householdID,
		ChildID:     childID,
		Balance:     balance,
		IsActive:    true,
	}
	if err := db.Create(account).Error; err != nil {
		t.Fatalf("failed to create test child account: %v", err)
	}
	return account
}

// CreateTestAllowance creates an active weekly allowance due at the
// given date.
func CreateTestAllowance(t *testing.T, db *gorm.DB, householdID, childID, guardianID string, amount int64, nextPayment time.Time) *models.Allowance {
	t.Helper()

	allowance := &models.Allowance{
		HouseholdID:     householdID,
		ChildID:         childID,
		GuardianID:      guardianID,
		Amount:          amount,
		Frequency:       models.FrequencyWeekly,
		NextPaymentDate: nextPayment,
		IsActive:        true,
	}
	if err := db.Create(allowance).Error; err != nil {
		t.Fatalf("failed to create test allowance: %v", err)
	}
	return allowance
}

// CreateTestChore creates an active chore assigned to the given member.
func CreateTestChore(t *testing.T, db *gorm.DB, householdID, assigneeID string) *models.Chore {
	t.Helper()

	chore := &models.Chore{
		HouseholdID: householdID,
		Name:        fmt.Sprintf("Test Chore %d", nextID()),
		AssigneeID:  assigneeID,
		IsActive:    true,
	}
	if err := db.Create(chore).Error; err != nil {
		t.Fatalf("failed to create test chore: %v", err)
	}
	return chore
}

// CreateTestMoneyRequest creates a pending money request.
func CreateTestMoneyRequest(t *testing.T, db *gorm.DB, householdID, requesterID, guardianID string, amount int64) *models.MoneyRequest {
	t.Helper()

	request := &models.MoneyRequest{
		HouseholdID: householdID,
		RequesterID: requesterID,
		GuardianID:  guardianID,
		Amount:      amount,
		Reason:      fmt.Sprintf("Test request %d", nextID()),
		Status:      models.RequestStatusPending,
	}
	if err := db.Create(request).Error; err != nil {
		t.Fatalf("failed to create test money request: %v", err)
	}
	return request
}
