package services

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"famledger/internal/clock"
	apperrors "famledger/internal/errors"
	"famledger/internal/logger"
	"famledger/internal/models"
	"famledger/internal/money"
	"famledger/internal/pagination"
)

const skipReasonInsufficientChores = "Insufficient chores completed"

// allowanceService handles recurring allowance scheduling and payouts.
type allowanceService struct {
	db                  *gorm.DB
	householdService    HouseholdServicer
	childAccountService ChildAccountServicer
	choreService        ChoreServicer
	notificationService NotificationServicer
	clk                 clock.Clock
}

// NewAllowanceService creates a new AllowanceServicer.
func NewAllowanceService(
	db *gorm.DB,
	householdService HouseholdServicer,
	childAccountService ChildAccountServicer,
	choreService ChoreServicer,
	notificationService NotificationServicer,
	clk clock.Clock,
) AllowanceServicer {
	return &allowanceService{
		db:                  db,
		householdService:    householdService,
		childAccountService: childAccountService,
		choreService:        choreService,
		notificationService: notificationService,
		clk:                 clk,
	}
}

// NextPaymentDate computes the next due date for an allowance. It is a
// pure function of (frequency, anchorDay, now) and always returns a
// date-only value (midnight UTC) strictly after now.
//
// anchorDay is a weekday (0=Sunday..6=Saturday, default Monday) for
// weekly allowances and a day of month (default 1) for monthly ones.
func NextPaymentDate(frequency models.AllowanceFrequency, anchorDay *int, now time.Time) time.Time {
	today := clock.StartOfDay(now)

	switch frequency {
	case models.FrequencyDaily:
		return today.AddDate(0, 0, 1)

	case models.FrequencyWeekly:
		target := time.Monday
		if anchorDay != nil && *anchorDay >= 0 && *anchorDay <= 6 {
			target = time.Weekday(*anchorDay)
		}
		days := (int(target) - int(today.Weekday()) + 7) % 7
		if days == 0 {
			days = 7
		}
		return today.AddDate(0, 0, days)

	case models.FrequencyBiweekly:
		return today.AddDate(0, 0, 14)

	case models.FrequencyMonthly:
		day := 1
		if anchorDay != nil && *anchorDay >= 1 && *anchorDay <= 31 {
			day = *anchorDay
		}
		firstOfNext := clock.StartOfMonth(today).AddDate(0, 1, 0)
		return firstOfNext.AddDate(0, 0, day-1)

	default:
		return today.AddDate(0, 0, 7)
	}
}

// CreateAllowance sets up a recurring allowance for a child. The first
// payment date is computed from the clock.
func (s *allowanceService) CreateAllowance(householdID, guardianID, childID string, amount int64, frequency models.AllowanceFrequency, anchorDay *int, requiresChores bool, minChores int) (*models.Allowance, error) {
	if amount <= 0 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "amount must be greater than zero")
	}
	if err := s.householdService.RequireGuardian(householdID, guardianID); err != nil {
		return nil, err
	}
	// The child must already be enrolled so payouts have somewhere to land.
	if _, err := s.childAccountService.GetByChild(householdID, childID); err != nil {
		return nil, err
	}

	allowance := &models.Allowance{
		HouseholdID:       householdID,
		ChildID:           childID,
		GuardianID:        guardianID,
		Amount:            amount,
		Frequency:         frequency,
		AnchorDay:         anchorDay,
		NextPaymentDate:   NextPaymentDate(frequency, anchorDay, s.clk.Now()),
		RequiresChores:    requiresChores,
		MinChoresRequired: minChores,
		IsActive:          true,
	}
	if err := s.db.Create(allowance).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return allowance, nil
}

// GetAllowanceByID retrieves an allowance by ID.
func (s *allowanceService) GetAllowanceByID(allowanceID string) (*models.Allowance, error) {
	var allowance models.Allowance
	if err := s.db.Where("id = ?", allowanceID).First(&allowance).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrAllowanceNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &allowance, nil
}

// GetHouseholdAllowances lists a household's allowances, newest first.
func (s *allowanceService) GetHouseholdAllowances(householdID string, page pagination.PageRequest) (*pagination.PageResponse[models.Allowance], error) {
	page.Defaults()

	base := s.db.Model(&models.Allowance{}).Where("household_id = ?", householdID)

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var allowances []models.Allowance
	if err := base.Scopes(pagination.Paginate(page)).
		Order("created_at DESC").
		Find(&allowances).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(allowances, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// GetChildAllowances lists the active allowances for one child.
func (s *allowanceService) GetChildAllowances(householdID, childID string) ([]models.Allowance, error) {
	var allowances []models.Allowance
	if err := s.db.
		Where("household_id = ? AND child_id = ? AND is_active = ?", householdID, childID, true).
		Order("next_payment_date ASC").
		Find(&allowances).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return allowances, nil
}

// UpdateAllowance lets the owning guardian change amount, frequency,
// anchor, or the chore gate. Changing frequency or anchor recomputes
// the next payment date from the clock.
func (s *allowanceService) UpdateAllowance(allowanceID, guardianID string, amount *int64, frequency *models.AllowanceFrequency, anchorDay *int, requiresChores *bool, minChores *int) (*models.Allowance, error) {
	allowance, err := s.GetAllowanceByID(allowanceID)
	if err != nil {
		return nil, err
	}
	if err := s.householdService.RequireGuardian(allowance.HouseholdID, guardianID); err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	rescheduled := false
	if amount != nil {
		if *amount <= 0 {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "amount must be greater than zero")
		}
		updates["amount"] = *amount
	}
	if frequency != nil {
		updates["frequency"] = *frequency
		allowance.Frequency = *frequency
		rescheduled = true
	}
	if anchorDay != nil {
		updates["anchor_day"] = *anchorDay
		allowance.AnchorDay = anchorDay
		rescheduled = true
	}
	if requiresChores != nil {
		updates["requires_chores"] = *requiresChores
	}
	if minChores != nil {
		updates["min_chores_required"] = *minChores
	}
	if rescheduled {
		updates["next_payment_date"] = NextPaymentDate(allowance.Frequency, allowance.AnchorDay, s.clk.Now())
	}

	if len(updates) > 0 {
		if err := s.db.Model(allowance).Updates(updates).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}

	return s.GetAllowanceByID(allowanceID)
}

// DeactivateAllowance soft-disables an allowance.
func (s *allowanceService) DeactivateAllowance(allowanceID, guardianID string) error {
	allowance, err := s.GetAllowanceByID(allowanceID)
	if err != nil {
		return err
	}
	if err := s.householdService.RequireGuardian(allowance.HouseholdID, guardianID); err != nil {
		return err
	}
	if err := s.db.Model(allowance).Update("is_active", false).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// GetPaymentHistory lists an allowance's payment records, newest first.
func (s *allowanceService) GetPaymentHistory(allowanceID string, page pagination.PageRequest) (*pagination.PageResponse[models.AllowancePayment], error) {
	if _, err := s.GetAllowanceByID(allowanceID); err != nil {
		return nil, err
	}

	page.Defaults()

	base := s.db.Model(&models.AllowancePayment{}).Where("allowance_id = ?", allowanceID)

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var payments []models.AllowancePayment
	if err := base.Scopes(pagination.Paginate(page)).
		Order("created_at DESC").
		Find(&payments).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(payments, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// ProcessDuePayments runs one scheduling tick: every active allowance
// whose next payment date has arrived either pays out or records a
// skip, and its next payment date advances either way (a skipped cycle
// is consumed, not retried). Each allowance commits in its own
// transaction; a failure is logged and does not roll back earlier
// allowances. Returns the number of allowances actually paid.
func (s *allowanceService) ProcessDuePayments() (int, error) {
	today := clock.StartOfDay(s.clk.Now())

	var due []models.Allowance
	if err := s.db.
		Where("is_active = ? AND next_payment_date <= ?", true, today).
		Find(&due).Error; err != nil {
		return 0, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	paid := 0
	for i := range due {
		allowance := &due[i]
		wasPaid, err := s.processOne(allowance, today)
		if err != nil {
			logger.Get().Errorw("allowance payment failed",
				"allowance_id", allowance.ID,
				"child_id", allowance.ChildID,
				"error", err,
			)
			continue
		}
		if wasPaid {
			paid++
			s.notifyPaid(allowance)
		}
	}

	return paid, nil
}

// processOne settles a single due allowance inside one transaction.
// Returns whether the allowance was paid (as opposed to skipped).
func (s *allowanceService) processOne(allowance *models.Allowance, today time.Time) (bool, error) {
	nextDate := NextPaymentDate(allowance.Frequency, allowance.AnchorDay, today)

	if allowance.RequiresChores {
		completed, err := s.choreService.CountApprovedCompletionsThisMonth(allowance.HouseholdID, allowance.ChildID)
		if err != nil {
			return false, err
		}
		if completed < int64(allowance.MinChoresRequired) {
			err := s.db.Transaction(func(tx *gorm.DB) error {
				payment := &models.AllowancePayment{
					AllowanceID:   allowance.ID,
					Amount:        allowance.Amount,
					Status:        models.PaymentStatusSkipped,
					SkipReason:    skipReasonInsufficientChores,
					ScheduledDate: allowance.NextPaymentDate,
				}
				if err := tx.Create(payment).Error; err != nil {
					return apperrors.Wrap(apperrors.ErrInternalServer, err)
				}
				// The cycle is consumed even when skipped.
				return tx.Model(allowance).Update("next_payment_date", nextDate).Error
			})
			return false, err
		}
	}

	account, err := s.childAccountService.GetByChild(allowance.HouseholdID, allowance.ChildID)
	if err != nil {
		return false, err
	}

	paidAt := s.clk.Now()
	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.childAccountService.Credit(tx, account.ID, allowance.Amount); err != nil {
			return err
		}
		payment := &models.AllowancePayment{
			AllowanceID:   allowance.ID,
			Amount:        allowance.Amount,
			Status:        models.PaymentStatusCompleted,
			ScheduledDate: allowance.NextPaymentDate,
			PaidAt:        &paidAt,
		}
		if err := tx.Create(payment).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return tx.Model(allowance).Updates(map[string]interface{}{
			"last_payment_date": today,
			"next_payment_date": nextDate,
		}).Error
	})
	if err != nil {
		return false, err
	}
	return true, nil
}

// notifyPaid tells the child their allowance landed. Best-effort: a
// notification failure never unwinds a committed payment.
func (s *allowanceService) notifyPaid(allowance *models.Allowance) {
	currency := "CZK"
	if household, err := s.householdService.GetHouseholdByID(allowance.HouseholdID); err == nil {
		currency = household.Currency
	}

	message := fmt.Sprintf("Your %s allowance of %s has been paid.",
		allowance.Frequency, money.FormatWithCurrency(allowance.Amount, currency))

	_, err := s.notificationService.Create(
		allowance.HouseholdID,
		allowance.ChildID,
		models.NotificationAllowancePaid,
		"Allowance received",
		message,
		models.PriorityNormal,
		&NotificationOptions{
			RelatedType: "allowance",
			RelatedID:   allowance.ID,
			Icon:        "piggy-bank",
		},
	)
	if err != nil {
		logger.Get().Errorw("failed to notify allowance payment",
			"allowance_id", allowance.ID,
			"child_id", allowance.ChildID,
			"error", err,
		)
	}
}
