package services

import (
	"errors"

	"gorm.io/gorm"

	"famledger/internal/clock"
	apperrors "famledger/internal/errors"
	"famledger/internal/models"
)

// childAccountService handles child account balances, limits, and spends.
type childAccountService struct {
	db               *gorm.DB
	householdService HouseholdServicer
	clk              clock.Clock
}

// NewChildAccountService creates a new ChildAccountServicer.
func NewChildAccountService(db *gorm.DB, householdService HouseholdServicer, clk clock.Clock) ChildAccountServicer {
	return &childAccountService{db: db, householdService: householdService, clk: clk}
}

// Enroll creates a child account for a child member of the household.
// Only a guardian member may enroll a child, and a child can have at
// most one account per household.
func (s *childAccountService) Enroll(householdID, guardianID, childID string) (*models.ChildAccount, error) {
	if err := s.householdService.RequireGuardian(householdID, guardianID); err != nil {
		return nil, err
	}
	if err := s.householdService.RequireMember(householdID, childID); err != nil {
		return nil, err
	}

	var count int64
	s.db.Model(&models.ChildAccount{}).
		Where("household_id = ? AND child_id = ?", householdID, childID).
		Count(&count)
	if count > 0 {
		return nil, apperrors.ErrDuplicateChildAccount
	}

	account := &models.ChildAccount{
		HouseholdID: householdID,
		ChildID:     childID,
		Balance:     0,
		IsActive:    true,
	}
	if err := s.db.Create(account).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return account, nil
}

// GetByChild retrieves the child account for a (household, child) pair.
func (s *childAccountService) GetByChild(householdID, childID string) (*models.ChildAccount, error) {
	var account models.ChildAccount
	if err := s.db.Where("household_id = ? AND child_id = ?", householdID, childID).
		First(&account).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrChildAccountNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &account, nil
}

// GetByID retrieves a child account by its ID.
func (s *childAccountService) GetByID(accountID string) (*models.ChildAccount, error) {
	var account models.ChildAccount
	if err := s.db.Where("id = ?", accountID).First(&account).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrChildAccountNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &account, nil
}

// UpdateLimits lets a guardian adjust a child account's spending limits.
// Nil keeps the current value; a pointer to a negative value clears the
// limit (unlimited).
func (s *childAccountService) UpdateLimits(householdID, guardianID, childID string, daily, weekly, monthly, perTransaction *int64, approvalThreshold *int64) (*models.ChildAccount, error) {
	if err := s.householdService.RequireGuardian(householdID, guardianID); err != nil {
		return nil, err
	}

	account, err := s.GetByChild(householdID, childID)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	applyLimit := func(column string, v *int64) {
		if v == nil {
			return
		}
		if *v < 0 {
			updates[column] = nil
		} else {
			updates[column] = *v
		}
	}
	applyLimit("daily_limit", daily)
	applyLimit("weekly_limit", weekly)
	applyLimit("monthly_limit", monthly)
	applyLimit("per_transaction_max", perTransaction)
	if approvalThreshold != nil {
		updates["approval_threshold"] = *approvalThreshold
	}

	if len(updates) > 0 {
		if err := s.db.Model(account).Updates(updates).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}

	return s.GetByChild(householdID, childID)
}

// Credit adds to a child account's balance. Runs on the given
// transaction handle so callers can compose it with other writes.
func (s *childAccountService) Credit(tx *gorm.DB, accountID string, amount int64) error {
	if amount <= 0 {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "credit amount must be greater than zero")
	}
	result := tx.Model(&models.ChildAccount{}).
		Where("id = ?", accountID).
		Update("balance", gorm.Expr("balance + ?", amount))
	if result.Error != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrChildAccountNotFound
	}
	return nil
}

// Debit subtracts from a child account's balance using an atomic
// conditional update. The balance can never go negative: when the
// guard fails, zero rows are affected and ErrInsufficientBalance is
// returned with the balance untouched.
func (s *childAccountService) Debit(tx *gorm.DB, accountID string, amount int64) error {
	if amount <= 0 {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "debit amount must be greater than zero")
	}
	result := tx.Model(&models.ChildAccount{}).
		Where("id = ? AND balance >= ?", accountID, amount).
		Update("balance", gorm.Expr("balance - ?", amount))
	if result.Error != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, result.Error)
	}
	if result.RowsAffected == 0 {
		var count int64
		tx.Model(&models.ChildAccount{}).Where("id = ?", accountID).Count(&count)
		if count == 0 {
			return apperrors.ErrChildAccountNotFound
		}
		return apperrors.ErrInsufficientBalance
	}
	return nil
}

// GetSpendTotals sums the account's spend records over the current
// calendar day, week (Monday start), and month, per the injected clock.
func (s *childAccountService) GetSpendTotals(accountID string) (*SpendTotals, error) {
	now := s.clk.Now()

	sumSince := func(since interface{}) (int64, error) {
		var total int64
		err := s.db.Model(&models.SpendRecord{}).
			Where("child_account_id = ? AND spent_at >= ?", accountID, since).
			Select("COALESCE(SUM(amount), 0)").
			Scan(&total).Error
		if err != nil {
			return 0, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return total, nil
	}

	daily, err := sumSince(clock.StartOfDay(now))
	if err != nil {
		return nil, err
	}
	weekly, err := sumSince(clock.StartOfWeek(now))
	if err != nil {
		return nil, err
	}
	monthly, err := sumSince(clock.StartOfMonth(now))
	if err != nil {
		return nil, err
	}

	return &SpendTotals{Daily: daily, Weekly: weekly, Monthly: monthly}, nil
}

// Guard denial reasons, in check-priority order.
const (
	ReasonInsufficientBalance  = "Insufficient balance"
	ReasonDailyLimitExceeded   = "Daily spending limit exceeded"
	ReasonWeeklyLimitExceeded  = "Weekly spending limit exceeded"
	ReasonMonthlyLimitExceeded = "Monthly spending limit exceeded"
	ReasonPerTransactionMax    = "Amount exceeds the per-transaction maximum"
)

// EvaluateSpend runs the spending guard: sufficient balance, then
// daily, weekly, and monthly limits, then the per-transaction maximum.
// A nil limit passes automatically. The returned reason is the first
// failing check in that fixed order.
func EvaluateSpend(account *models.ChildAccount, totals SpendTotals, amount int64) SpendCheck {
	if account.Balance < amount {
		return SpendCheck{Allowed: false, Reason: ReasonInsufficientBalance}
	}
	if account.DailyLimit != nil && totals.Daily+amount > *account.DailyLimit {
		return SpendCheck{Allowed: false, Reason: ReasonDailyLimitExceeded}
	}
	if account.WeeklyLimit != nil && totals.Weekly+amount > *account.WeeklyLimit {
		return SpendCheck{Allowed: false, Reason: ReasonWeeklyLimitExceeded}
	}
	if account.MonthlyLimit != nil && totals.Monthly+amount > *account.MonthlyLimit {
		return SpendCheck{Allowed: false, Reason: ReasonMonthlyLimitExceeded}
	}
	if account.PerTransactionMax != nil && amount > *account.PerTransactionMax {
		return SpendCheck{Allowed: false, Reason: ReasonPerTransactionMax}
	}
	return SpendCheck{Allowed: true}
}

// PreviewSpend evaluates a proposed spend without committing anything.
// This backs the client's pre-submit check; Spend re-runs the same
// evaluation authoritatively.
func (s *childAccountService) PreviewSpend(householdID, childID string, amount int64) (*SpendCheck, error) {
	if amount <= 0 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "amount must be greater than zero")
	}

	account, err := s.GetByChild(householdID, childID)
	if err != nil {
		return nil, err
	}
	totals, err := s.GetSpendTotals(account.ID)
	if err != nil {
		return nil, err
	}

	check := EvaluateSpend(account, *totals, amount)
	return &check, nil
}

// Spend debits the child account after re-running the spending guard
// server-side, and records the spend. The guard evaluation, conditional
// debit, and spend record all commit in one transaction.
func (s *childAccountService) Spend(householdID, childID string, amount int64, description string) (*models.SpendRecord, error) {
	if amount <= 0 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "amount must be greater than zero")
	}

	account, err := s.GetByChild(householdID, childID)
	if err != nil {
		return nil, err
	}
	totals, err := s.GetSpendTotals(account.ID)
	if err != nil {
		return nil, err
	}

	if check := EvaluateSpend(account, *totals, amount); !check.Allowed {
		if check.Reason == ReasonInsufficientBalance {
			return nil, apperrors.ErrInsufficientBalance
		}
		return nil, apperrors.WithMessage(apperrors.ErrSpendLimitExceeded, check.Reason)
	}

	record := &models.SpendRecord{
		ChildAccountID: account.ID,
		Amount:         amount,
		Description:    description,
		SpentAt:        s.clk.Now(),
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.Debit(tx, account.ID, amount); err != nil {
			return err
		}
		if err := tx.Create(record).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return record, nil
}
