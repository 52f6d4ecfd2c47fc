package services

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"famledger/internal/clock"
	apperrors "famledger/internal/errors"
	"famledger/internal/logger"
	"famledger/internal/models"
	"famledger/internal/money"
	"famledger/internal/pagination"
)

// moneyRequestService handles the child-to-guardian money request workflow.
type moneyRequestService struct {
	db                  *gorm.DB
	householdService    HouseholdServicer
	childAccountService ChildAccountServicer
	notificationService NotificationServicer
	clk                 clock.Clock
}

// NewMoneyRequestService creates a new MoneyRequestServicer.
func NewMoneyRequestService(
	db *gorm.DB,
	householdService HouseholdServicer,
	childAccountService ChildAccountServicer,
	notificationService NotificationServicer,
	clk clock.Clock,
) MoneyRequestServicer {
	return &moneyRequestService{
		db:                  db,
		householdService:    householdService,
		childAccountService: childAccountService,
		notificationService: notificationService,
		clk:                 clk,
	}
}

// CreateRequest opens a pending money request from a child to a
// guardian and notifies the guardian with a link to the review page.
func (s *moneyRequestService) CreateRequest(householdID, childID, guardianID string, amount int64, reason, category string) (*models.MoneyRequest, error) {
	if amount <= 0 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "amount must be greater than zero")
	}
	if reason == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "reason is required")
	}
	if err := s.householdService.RequireMember(householdID, childID); err != nil {
		return nil, err
	}
	if err := s.householdService.RequireGuardian(householdID, guardianID); err != nil {
		return nil, err
	}
	// The child must be enrolled so an approval has an account to credit.
	if _, err := s.childAccountService.GetByChild(householdID, childID); err != nil {
		return nil, err
	}

	request := &models.MoneyRequest{
		HouseholdID: householdID,
		RequesterID: childID,
		GuardianID:  guardianID,
		Amount:      amount,
		Reason:      reason,
		Category:    category,
		Status:      models.RequestStatusPending,
	}
	if err := s.db.Create(request).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	s.notifyGuardian(request)

	return request, nil
}

// ApproveRequest resolves a pending request in the child's favor: the
// status flip and the balance credit commit atomically, and the
// conditional update guarantees a request can only ever be resolved
// once even under concurrent reviews.
func (s *moneyRequestService) ApproveRequest(requestID, guardianID, notes string) (*models.MoneyRequest, error) {
	request, err := s.getRequest(requestID)
	if err != nil {
		return nil, err
	}
	if err := s.householdService.RequireGuardian(request.HouseholdID, guardianID); err != nil {
		return nil, err
	}

	account, err := s.childAccountService.GetByChild(request.HouseholdID, request.RequesterID)
	if err != nil {
		return nil, err
	}

	now := s.clk.Now()
	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.resolve(tx, requestID, models.RequestStatusApproved, notes, now); err != nil {
			return err
		}
		return s.childAccountService.Credit(tx, account.ID, request.Amount)
	})
	if err != nil {
		return nil, err
	}

	request, err = s.getRequest(requestID)
	if err != nil {
		return nil, err
	}

	s.notifyResolved(request, fmt.Sprintf("Your request for %s was approved.", money.Format(request.Amount)))

	return request, nil
}

// RejectRequest resolves a pending request against the child. No
// balance effect; the rejection reason is passed along if provided.
func (s *moneyRequestService) RejectRequest(requestID, guardianID, notes string) (*models.MoneyRequest, error) {
	request, err := s.getRequest(requestID)
	if err != nil {
		return nil, err
	}
	if err := s.householdService.RequireGuardian(request.HouseholdID, guardianID); err != nil {
		return nil, err
	}

	now := s.clk.Now()
	err = s.db.Transaction(func(tx *gorm.DB) error {
		return s.resolve(tx, requestID, models.RequestStatusRejected, notes, now)
	})
	if err != nil {
		return nil, err
	}

	request, err = s.getRequest(requestID)
	if err != nil {
		return nil, err
	}

	message := fmt.Sprintf("Your request for %s was declined.", money.Format(request.Amount))
	if notes != "" {
		message += " Reason: " + notes
	}
	s.notifyResolved(request, message)

	return request, nil
}

// resolve flips a request out of pending with an atomic conditional
// update. Zero rows affected means the request was already resolved by
// another review; that is a loud conflict, never a silent no-op.
func (s *moneyRequestService) resolve(tx *gorm.DB, requestID string, status models.RequestStatus, notes string, reviewedAt interface{}) error {
	result := tx.Model(&models.MoneyRequest{}).
		Where("id = ? AND status = ?", requestID, models.RequestStatusPending).
		Updates(map[string]interface{}{
			"status":       status,
			"review_notes": notes,
			"reviewed_at":  reviewedAt,
		})
	if result.Error != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrRequestAlreadyResolved
	}
	return nil
}

func (s *moneyRequestService) getRequest(requestID string) (*models.MoneyRequest, error) {
	var request models.MoneyRequest
	if err := s.db.Where("id = ?", requestID).First(&request).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrRequestNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &request, nil
}

// GetChildRequests lists a child's own requests, newest first.
func (s *moneyRequestService) GetChildRequests(householdID, childID string, page pagination.PageRequest, filter MoneyRequestFilter) (*pagination.PageResponse[models.MoneyRequest], error) {
	page.Defaults()

	base := s.db.Model(&models.MoneyRequest{}).
		Where("household_id = ? AND requester_id = ?", householdID, childID)
	if filter.Status != nil {
		base = base.Where("status = ?", *filter.Status)
	}

	return s.listRequests(base, page)
}

// GetGuardianRequests lists a guardian's review queue, newest first,
// defaulting to pending requests, with requester details preloaded for
// display names.
func (s *moneyRequestService) GetGuardianRequests(householdID, guardianID string, page pagination.PageRequest, filter MoneyRequestFilter) (*pagination.PageResponse[models.MoneyRequest], error) {
	page.Defaults()

	status := models.RequestStatusPending
	if filter.Status != nil {
		status = *filter.Status
	}

	base := s.db.Model(&models.MoneyRequest{}).
		Where("household_id = ? AND guardian_id = ? AND status = ?", householdID, guardianID, status).
		Preload("Requester")

	return s.listRequests(base, page)
}

func (s *moneyRequestService) listRequests(base *gorm.DB, page pagination.PageRequest) (*pagination.PageResponse[models.MoneyRequest], error) {
	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var requests []models.MoneyRequest
	if err := base.Scopes(pagination.Paginate(page)).
		Order("created_at DESC").
		Find(&requests).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(requests, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// notifyGuardian alerts the guardian that a request awaits review.
func (s *moneyRequestService) notifyGuardian(request *models.MoneyRequest) {
	childName := request.RequesterID
	var requester models.User
	if err := s.db.Where("id = ?", request.RequesterID).First(&requester).Error; err == nil {
		childName = requester.DisplayName()
	}

	currency := "CZK"
	if household, err := s.householdService.GetHouseholdByID(request.HouseholdID); err == nil {
		currency = household.Currency
	}

	message := fmt.Sprintf("%s is requesting %s: %s",
		childName, money.FormatWithCurrency(request.Amount, currency), request.Reason)

	_, err := s.notificationService.Create(
		request.HouseholdID,
		request.GuardianID,
		models.NotificationMoneyRequest,
		"New money request",
		message,
		models.PriorityHigh,
		&NotificationOptions{
			ActionURL:   fmt.Sprintf("/approvals/%s", request.ID),
			ActionLabel: "Review request",
			RelatedType: "money_request",
			RelatedID:   request.ID,
			Icon:        "hand-coins",
		},
	)
	if err != nil {
		logger.Get().Errorw("failed to notify guardian of money request",
			"request_id", request.ID,
			"guardian_id", request.GuardianID,
			"error", err,
		)
	}
}

// notifyResolved tells the requester how their request was decided.
func (s *moneyRequestService) notifyResolved(request *models.MoneyRequest, message string) {
	_, err := s.notificationService.Create(
		request.HouseholdID,
		request.RequesterID,
		models.NotificationRequestResolved,
		"Money request "+string(request.Status),
		message,
		models.PriorityNormal,
		&NotificationOptions{
			RelatedType: "money_request",
			RelatedID:   request.ID,
		},
	)
	if err != nil {
		logger.Get().Errorw("failed to notify requester of resolution",
			"request_id", request.ID,
			"requester_id", request.RequesterID,
			"error", err,
		)
	}
}
