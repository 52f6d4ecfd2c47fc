package services

import (
	"testing"
	"time"

	"gorm.io/gorm"

	"famledger/internal/clock"
	"famledger/internal/models"
	"famledger/internal/testutil"
)

// newTestServices wires the full service graph over one test database
// with a fixed clock and no mailer.
func newTestServices(db *gorm.DB, clk clock.Clock) (HouseholdServicer, ChildAccountServicer, ChoreServicer, NotificationServicer, AllowanceServicer, MoneyRequestServicer) {
	householdService := NewHouseholdService(db)
	notificationService := NewNotificationService(db, nil, clk)
	childAccountService := NewChildAccountService(db, householdService, clk)
	choreService := NewChoreService(db, householdService, notificationService, clk)
	allowanceService := NewAllowanceService(db, householdService, childAccountService, choreService, notificationService, clk)
	moneyRequestService := NewMoneyRequestService(db, householdService, childAccountService, notificationService, clk)
	return householdService, childAccountService, choreService, notificationService, allowanceService, moneyRequestService
}

func intPtr(v int) *int { return &v }

func TestNextPaymentDate(t *testing.T) {
	// Thursday, 19 March 2026, mid-afternoon.
	now := time.Date(2026, 3, 19, 15, 30, 0, 0, time.UTC)

	t.Run("daily", func(t *testing.T) {
		got := NextPaymentDate(models.FrequencyDaily, nil, now)
		want := time.Date(2026, 3, 20, 0, 0, 0, 0, time.UTC)
		if !got.Equal(want) {
			t.Errorf("expected %v, got %v", want, got)
		}
	})

	t.Run("weekly_default_monday", func(t *testing.T) {
		got := NextPaymentDate(models.FrequencyWeekly, nil, now)
		want := time.Date(2026, 3, 23, 0, 0, 0, 0, time.UTC)
		if !got.Equal(want) {
			t.Errorf("expected %v, got %v", want, got)
		}
	})

	t.Run("weekly_anchor_wednesday", func(t *testing.T) {
		// From Thursday, the next Wednesday is 6 days out.
		got := NextPaymentDate(models.FrequencyWeekly, intPtr(3), now)
		want := time.Date(2026, 3, 25, 0, 0, 0, 0, time.UTC)
		if !got.Equal(want) {
			t.Errorf("expected %v, got %v", want, got)
		}
	})

	t.Run("weekly_same_weekday_skips_to_next_week", func(t *testing.T) {
		// Anchor Thursday, computed on a Thursday: strictly after now.
		got := NextPaymentDate(models.FrequencyWeekly, intPtr(4), now)
		want := time.Date(2026, 3, 26, 0, 0, 0, 0, time.UTC)
		if !got.Equal(want) {
			t.Errorf("expected %v, got %v", want, got)
		}
	})

	t.Run("biweekly", func(t *testing.T) {
		got := NextPaymentDate(models.FrequencyBiweekly, nil, now)
		want := time.Date(2026, 4, 2, 0, 0, 0, 0, time.UTC)
		if !got.Equal(want) {
			t.Errorf("expected %v, got %v", want, got)
		}
	})

	t.Run("monthly_anchor_15th", func(t *testing.T) {
		got := NextPaymentDate(models.FrequencyMonthly, intPtr(15), now)
		want := time.Date(2026, 4, 15, 0, 0, 0, 0, time.UTC)
		if !got.Equal(want) {
			t.Errorf("expected %v, got %v", want, got)
		}
	})

	t.Run("monthly_default_first", func(t *testing.T) {
		got := NextPaymentDate(models.FrequencyMonthly, nil, now)
		want := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
		if !got.Equal(want) {
			t.Errorf("expected %v, got %v", want, got)
		}
	})

	t.Run("always_strictly_after_now", func(t *testing.T) {
		frequencies := []models.AllowanceFrequency{
			models.FrequencyDaily, models.FrequencyWeekly,
			models.FrequencyBiweekly, models.FrequencyMonthly,
		}
		for _, freq := range frequencies {
			got := NextPaymentDate(freq, nil, now)
			if !got.After(now.Truncate(24 * time.Hour)) {
				t.Errorf("%s: expected date strictly after now, got %v", freq, got)
			}
			if got.Hour() != 0 || got.Minute() != 0 || got.Second() != 0 {
				t.Errorf("%s: expected date-only value, got %v", freq, got)
			}
		}
	})
}

func TestCreateAllowance(t *testing.T) {
	now := time.Date(2026, 3, 19, 12, 0, 0, 0, time.UTC)

	t.Run("valid", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		_, _, _, _, allowanceService, _ := newTestServices(db, clock.Fixed{T: now})

		guardian := testutil.CreateTestUser(t, db)
		child := testutil.CreateTestChild(t, db)
		household := testutil.CreateTestHousehold(t, db, guardian.ID)
		testutil.AddTestMember(t, db, household.ID, child.ID, models.UserRoleChild)
		testutil.CreateTestChildAccount(t, db, household.ID, child.ID)

		allowance, err := allowanceService.CreateAllowance(household.ID, guardian.ID, child.ID, 5000, models.FrequencyWeekly, nil, false, 0)
		testutil.AssertNoError(t, err)

		if allowance.Amount != 5000 {
			t.Errorf("expected amount 5000, got %d", allowance.Amount)
		}
		if !allowance.NextPaymentDate.After(now) {
			t.Errorf("expected first payment after creation time, got %v", allowance.NextPaymentDate)
		}
		if !allowance.IsActive {
			t.Error("expected allowance to be active")
		}
	})

	t.Run("requires_enrolled_child", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		_, _, _, _, allowanceService, _ := newTestServices(db, clock.Fixed{T: now})

		guardian := testutil.CreateTestUser(t, db)
		child := testutil.CreateTestChild(t, db)
		household := testutil.CreateTestHousehold(t, db, guardian.ID)
		testutil.AddTestMember(t, db, household.ID, child.ID, models.UserRoleChild)

		_, err := allowanceService.CreateAllowance(household.ID, guardian.ID, child.ID, 5000, models.FrequencyWeekly, nil, false, 0)
		testutil.AssertAppError(t, err, "CHILD_ACCOUNT_NOT_FOUND")
	})

	t.Run("non_guardian_forbidden", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		_, _, _, _, allowanceService, _ := newTestServices(db, clock.Fixed{T: now})

		guardian := testutil.CreateTestUser(t, db)
		child := testutil.CreateTestChild(t, db)
		household := testutil.CreateTestHousehold(t, db, guardian.ID)
		testutil.AddTestMember(t, db, household.ID, child.ID, models.UserRoleChild)
		testutil.CreateTestChildAccount(t, db, household.ID, child.ID)

		_, err := allowanceService.CreateAllowance(household.ID, child.ID, child.ID, 5000, models.FrequencyWeekly, nil, false, 0)
		testutil.AssertAppError(t, err, "FORBIDDEN")
	})

	t.Run("zero_amount", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		_, _, _, _, allowanceService, _ := newTestServices(db, clock.Fixed{T: now})

		guardian := testutil.CreateTestUser(t, db)
		household := testutil.CreateTestHousehold(t, db, guardian.ID)

		_, err := allowanceService.CreateAllowance(household.ID, guardian.ID, guardian.ID, 0, models.FrequencyWeekly, nil, false, 0)
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})
}

func TestUpdateAllowance(t *testing.T) {
	now := time.Date(2026, 3, 19, 12, 0, 0, 0, time.UTC)

	t.Run("frequency_change_reschedules", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		_, _, _, _, allowanceService, _ := newTestServices(db, clock.Fixed{T: now})

		guardian := testutil.CreateTestUser(t, db)
		child := testutil.CreateTestChild(t, db)
		household := testutil.CreateTestHousehold(t, db, guardian.ID)
		testutil.AddTestMember(t, db, household.ID, child.ID, models.UserRoleChild)
		allowance := testutil.CreateTestAllowance(t, db, household.ID, child.ID, guardian.ID, 1000,
			time.Date(2026, 3, 23, 0, 0, 0, 0, time.UTC))

		daily := models.FrequencyDaily
		updated, err := allowanceService.UpdateAllowance(allowance.ID, guardian.ID, nil, &daily, nil, nil, nil)
		testutil.AssertNoError(t, err)

		want := time.Date(2026, 3, 20, 0, 0, 0, 0, time.UTC)
		if !updated.NextPaymentDate.Equal(want) {
			t.Errorf("expected rescheduled date %v, got %v", want, updated.NextPaymentDate)
		}
	})

	t.Run("amount_change_keeps_schedule", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		_, _, _, _, allowanceService, _ := newTestServices(db, clock.Fixed{T: now})

		guardian := testutil.CreateTestUser(t, db)
		child := testutil.CreateTestChild(t, db)
		household := testutil.CreateTestHousehold(t, db, guardian.ID)
		testutil.AddTestMember(t, db, household.ID, child.ID, models.UserRoleChild)
		due := time.Date(2026, 3, 23, 0, 0, 0, 0, time.UTC)
		allowance := testutil.CreateTestAllowance(t, db, household.ID, child.ID, guardian.ID, 1000, due)

		amount := int64(2500)
		updated, err := allowanceService.UpdateAllowance(allowance.ID, guardian.ID, &amount, nil, nil, nil, nil)
		testutil.AssertNoError(t, err)

		if updated.Amount != 2500 {
			t.Errorf("expected amount 2500, got %d", updated.Amount)
		}
		if !updated.NextPaymentDate.Equal(due) {
			t.Errorf("expected unchanged schedule %v, got %v", due, updated.NextPaymentDate)
		}
	})
}

func TestProcessDuePayments(t *testing.T) {
	now := time.Date(2026, 3, 19, 9, 0, 0, 0, time.UTC)
	today := time.Date(2026, 3, 19, 0, 0, 0, 0, time.UTC)

	t.Run("pays_due_allowance", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		_, childAccountService, _, _, allowanceService, _ := newTestServices(db, clock.Fixed{T: now})

		guardian := testutil.CreateTestUser(t, db)
		child := testutil.CreateTestChild(t, db)
		household := testutil.CreateTestHousehold(t, db, guardian.ID)
		testutil.AddTestMember(t, db, household.ID, child.ID, models.UserRoleChild)
		account := testutil.CreateTestChildAccount(t, db, household.ID, child.ID)
		allowance := testutil.CreateTestAllowance(t, db, household.ID, child.ID, guardian.ID, 5000, today)

		paid, err := allowanceService.ProcessDuePayments()
		testutil.AssertNoError(t, err)
		if paid != 1 {
			t.Fatalf("expected 1 payment, got %d", paid)
		}

		refreshed, err := childAccountService.GetByID(account.ID)
		testutil.AssertNoError(t, err)
		if refreshed.Balance != 5000 {
			t.Errorf("expected balance 5000 after payment, got %d", refreshed.Balance)
		}

		var payment models.AllowancePayment
		if err := db.Where("allowance_id = ?", allowance.ID).First(&payment).Error; err != nil {
			t.Fatalf("expected a payment record: %v", err)
		}
		if payment.Status != models.PaymentStatusCompleted {
			t.Errorf("expected completed status, got %s", payment.Status)
		}
		if payment.PaidAt == nil {
			t.Error("expected paid_at to be set")
		}

		var updated models.Allowance
		db.Where("id = ?", allowance.ID).First(&updated)
		if !updated.NextPaymentDate.After(today) {
			t.Errorf("expected next payment date to advance past %v, got %v", today, updated.NextPaymentDate)
		}

		// Child gets an in-app notification about the payout.
		var notifCount int64
		db.Model(&models.Notification{}).
			Where("user_id = ? AND type = ?", child.ID, models.NotificationAllowancePaid).
			Count(&notifCount)
		if notifCount != 1 {
			t.Errorf("expected 1 allowance notification, got %d", notifCount)
		}
	})

	t.Run("skips_when_chore_gate_unmet", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		_, childAccountService, _, _, allowanceService, _ := newTestServices(db, clock.Fixed{T: now})

		guardian := testutil.CreateTestUser(t, db)
		child := testutil.CreateTestChild(t, db)
		household := testutil.CreateTestHousehold(t, db, guardian.ID)
		testutil.AddTestMember(t, db, household.ID, child.ID, models.UserRoleChild)
		account := testutil.CreateTestChildAccount(t, db, household.ID, child.ID)

		allowance := testutil.CreateTestAllowance(t, db, household.ID, child.ID, guardian.ID, 5000, today)
		db.Model(allowance).Updates(map[string]interface{}{
			"requires_chores":     true,
			"min_chores_required": 2,
		})

		paid, err := allowanceService.ProcessDuePayments()
		testutil.AssertNoError(t, err)
		if paid != 0 {
			t.Fatalf("expected 0 payments, got %d", paid)
		}

		refreshed, err := childAccountService.GetByID(account.ID)
		testutil.AssertNoError(t, err)
		if refreshed.Balance != 0 {
			t.Errorf("expected balance to stay 0, got %d", refreshed.Balance)
		}

		var payment models.AllowancePayment
		if err := db.Where("allowance_id = ?", allowance.ID).First(&payment).Error; err != nil {
			t.Fatalf("expected a skip record: %v", err)
		}
		if payment.Status != models.PaymentStatusSkipped {
			t.Errorf("expected skipped status, got %s", payment.Status)
		}
		if payment.SkipReason != "Insufficient chores completed" {
			t.Errorf("unexpected skip reason %q", payment.SkipReason)
		}

		// The cycle is consumed: the schedule still advances.
		var updated models.Allowance
		db.Where("id = ?", allowance.ID).First(&updated)
		if !updated.NextPaymentDate.After(today) {
			t.Errorf("expected next payment date to advance past %v, got %v", today, updated.NextPaymentDate)
		}
	})

	t.Run("pays_when_chore_gate_met", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		_, childAccountService, choreService, _, allowanceService, _ := newTestServices(db, clock.Fixed{T: now})

		guardian := testutil.CreateTestUser(t, db)
		child := testutil.CreateTestChild(t, db)
		household := testutil.CreateTestHousehold(t, db, guardian.ID)
		testutil.AddTestMember(t, db, household.ID, child.ID, models.UserRoleChild)
		account := testutil.CreateTestChildAccount(t, db, household.ID, child.ID)

		allowance := testutil.CreateTestAllowance(t, db, household.ID, child.ID, guardian.ID, 5000, today)
		db.Model(allowance).Updates(map[string]interface{}{
			"requires_chores":     true,
			"min_chores_required": 1,
		})

		chore := testutil.CreateTestChore(t, db, household.ID, child.ID)
		completion, err := choreService.MarkComplete(chore.ID, child.ID)
		testutil.AssertNoError(t, err)
		_, err = choreService.ReviewCompletion(completion.ID, guardian.ID, true)
		testutil.AssertNoError(t, err)

		paid, err := allowanceService.ProcessDuePayments()
		testutil.AssertNoError(t, err)
		if paid != 1 {
			t.Fatalf("expected 1 payment, got %d", paid)
		}

		refreshed, err := childAccountService.GetByID(account.ID)
		testutil.AssertNoError(t, err)
		if refreshed.Balance != 5000 {
			t.Errorf("expected balance 5000, got %d", refreshed.Balance)
		}
	})

	t.Run("ignores_future_and_inactive", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		_, _, _, _, allowanceService, _ := newTestServices(db, clock.Fixed{T: now})

		guardian := testutil.CreateTestUser(t, db)
		child := testutil.CreateTestChild(t, db)
		household := testutil.CreateTestHousehold(t, db, guardian.ID)
		testutil.AddTestMember(t, db, household.ID, child.ID, models.UserRoleChild)
		testutil.CreateTestChildAccount(t, db, household.ID, child.ID)

		future := today.AddDate(0, 0, 3)
		testutil.CreateTestAllowance(t, db, household.ID, child.ID, guardian.ID, 5000, future)

		inactive := testutil.CreateTestAllowance(t, db, household.ID, child.ID, guardian.ID, 5000, today)
		db.Model(inactive).Update("is_active", false)

		paid, err := allowanceService.ProcessDuePayments()
		testutil.AssertNoError(t, err)
		if paid != 0 {
			t.Errorf("expected 0 payments, got %d", paid)
		}

		var payments int64
		db.Model(&models.AllowancePayment{}).Count(&payments)
		if payments != 0 {
			t.Errorf("expected no payment records, got %d", payments)
		}
	})

	t.Run("overdue_allowance_paid_once", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		_, childAccountService, _, _, allowanceService, _ := newTestServices(db, clock.Fixed{T: now})

		guardian := testutil.CreateTestUser(t, db)
		child := testutil.CreateTestChild(t, db)
		household := testutil.CreateTestHousehold(t, db, guardian.ID)
		testutil.AddTestMember(t, db, household.ID, child.ID, models.UserRoleChild)
		account := testutil.CreateTestChildAccount(t, db, household.ID, child.ID)

		// Due ten days ago; one tick settles it exactly once.
		overdue := today.AddDate(0, 0, -10)
		testutil.CreateTestAllowance(t, db, household.ID, child.ID, guardian.ID, 5000, overdue)

		paid, err := allowanceService.ProcessDuePayments()
		testutil.AssertNoError(t, err)
		if paid != 1 {
			t.Fatalf("expected 1 payment, got %d", paid)
		}

		// A second tick at the same instant finds nothing due.
		paid, err = allowanceService.ProcessDuePayments()
		testutil.AssertNoError(t, err)
		if paid != 0 {
			t.Errorf("expected 0 payments on second tick, got %d", paid)
		}

		refreshed, err := childAccountService.GetByID(account.ID)
		testutil.AssertNoError(t, err)
		if refreshed.Balance != 5000 {
			t.Errorf("expected balance credited once, got %d", refreshed.Balance)
		}
	})
}

func TestDeactivateAllowance(t *testing.T) {
	now := time.Date(2026, 3, 19, 9, 0, 0, 0, time.UTC)

	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	_, _, _, _, allowanceService, _ := newTestServices(db, clock.Fixed{T: now})

	guardian := testutil.CreateTestUser(t, db)
	child := testutil.CreateTestChild(t, db)
	household := testutil.CreateTestHousehold(t, db, guardian.ID)
	testutil.AddTestMember(t, db, household.ID, child.ID, models.UserRoleChild)
	allowance := testutil.CreateTestAllowance(t, db, household.ID, child.ID, guardian.ID, 1000,
		time.Date(2026, 3, 23, 0, 0, 0, 0, time.UTC))

	err := allowanceService.DeactivateAllowance(allowance.ID, guardian.ID)
	testutil.AssertNoError(t, err)

	var updated models.Allowance
	db.Where("id = ?", allowance.ID).First(&updated)
	if updated.IsActive {
		t.Error("expected allowance to be inactive")
	}
}
