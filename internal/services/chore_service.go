package services

import (
	"errors"

	"gorm.io/gorm"

	"famledger/internal/clock"
	apperrors "famledger/internal/errors"
	"famledger/internal/logger"
	"famledger/internal/models"
	"famledger/internal/pagination"
)

// choreService handles chores and completion reviews. Approved
// completions feed the allowance chore gate.
type choreService struct {
	db                  *gorm.DB
	householdService    HouseholdServicer
	notificationService NotificationServicer
	clk                 clock.Clock
}

// NewChoreService creates a new ChoreServicer.
func NewChoreService(db *gorm.DB, householdService HouseholdServicer, notificationService NotificationServicer, clk clock.Clock) ChoreServicer {
	return &choreService{
		db:                  db,
		householdService:    householdService,
		notificationService: notificationService,
		clk:                 clk,
	}
}

// CreateChore assigns a chore to a household member.
func (s *choreService) CreateChore(householdID, guardianID, assigneeID, name, description string) (*models.Chore, error) {
	if name == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "chore name is required")
	}
	if err := s.householdService.RequireGuardian(householdID, guardianID); err != nil {
		return nil, err
	}
	if err := s.householdService.RequireMember(householdID, assigneeID); err != nil {
		return nil, err
	}

	chore := &models.Chore{
		HouseholdID: householdID,
		Name:        name,
		Description: description,
		AssigneeID:  assigneeID,
		IsActive:    true,
	}
	if err := s.db.Create(chore).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return chore, nil
}

// GetHouseholdChores lists a household's active chores.
func (s *choreService) GetHouseholdChores(householdID string, page pagination.PageRequest) (*pagination.PageResponse[models.Chore], error) {
	page.Defaults()

	base := s.db.Model(&models.Chore{}).Where("household_id = ? AND is_active = ?", householdID, true)

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var chores []models.Chore
	if err := base.Scopes(pagination.Paginate(page)).
		Order("created_at DESC").
		Find(&chores).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(chores, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// MarkComplete records that a child finished a chore, pending guardian review.
func (s *choreService) MarkComplete(choreID, childID string) (*models.ChoreCompletion, error) {
	var chore models.Chore
	if err := s.db.Where("id = ? AND is_active = ?", choreID, true).First(&chore).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrChoreNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if err := s.householdService.RequireMember(chore.HouseholdID, childID); err != nil {
		return nil, err
	}

	completion := &models.ChoreCompletion{
		ChoreID:        choreID,
		HouseholdID:    chore.HouseholdID,
		CompletedBy:    childID,
		Status:         models.CompletionStatusPending,
		CompletionDate: s.clk.Now(),
	}
	if err := s.db.Create(completion).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return completion, nil
}

// ReviewCompletion approves or rejects a pending completion. The
// conditional update keeps a completion from being reviewed twice.
func (s *choreService) ReviewCompletion(completionID, guardianID string, approve bool) (*models.ChoreCompletion, error) {
	var completion models.ChoreCompletion
	if err := s.db.Where("id = ?", completionID).First(&completion).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrCompletionNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if err := s.householdService.RequireGuardian(completion.HouseholdID, guardianID); err != nil {
		return nil, err
	}

	status := models.CompletionStatusRejected
	if approve {
		status = models.CompletionStatusApproved
	}

	now := s.clk.Now()
	result := s.db.Model(&models.ChoreCompletion{}).
		Where("id = ? AND status = ?", completionID, models.CompletionStatusPending).
		Updates(map[string]interface{}{
			"status":      status,
			"reviewed_by": guardianID,
			"reviewed_at": now,
		})
	if result.Error != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, apperrors.ErrCompletionAlreadyReviewed
	}

	if err := s.db.Where("id = ?", completionID).First(&completion).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	s.notifyReviewed(&completion)

	return &completion, nil
}

// CountApprovedCompletionsThisMonth counts a child's approved chore
// completions in the household since the start of the current calendar
// month. The allowance chore gate is evaluated against this count.
func (s *choreService) CountApprovedCompletionsThisMonth(householdID, childID string) (int64, error) {
	monthStart := clock.StartOfMonth(s.clk.Now())

	var count int64
	if err := s.db.Model(&models.ChoreCompletion{}).
		Where("household_id = ? AND completed_by = ? AND status = ? AND completion_date >= ?",
			householdID, childID, models.CompletionStatusApproved, monthStart).
		Count(&count).Error; err != nil {
		return 0, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return count, nil
}

func (s *choreService) notifyReviewed(completion *models.ChoreCompletion) {
	var chore models.Chore
	choreName := "Your chore"
	if err := s.db.Where("id = ?", completion.ChoreID).First(&chore).Error; err == nil {
		choreName = chore.Name
	}

	title := "Chore approved"
	message := choreName + " was approved."
	if completion.Status == models.CompletionStatusRejected {
		title = "Chore rejected"
		message = choreName + " was not approved. Give it another try."
	}

	_, err := s.notificationService.Create(
		completion.HouseholdID,
		completion.CompletedBy,
		models.NotificationChoreReviewed,
		title,
		message,
		models.PriorityLow,
		&NotificationOptions{
			RelatedType: "chore_completion",
			RelatedID:   completion.ID,
		},
	)
	if err != nil {
		logger.Get().Errorw("failed to notify chore review",
			"completion_id", completion.ID,
			"child_id", completion.CompletedBy,
			"error", err,
		)
	}
}
