package services

import (
	"errors"

	"gorm.io/gorm"

	apperrors "famledger/internal/errors"
	"famledger/internal/models"
)

// householdService handles household and membership business logic.
type householdService struct {
	db *gorm.DB
}

// NewHouseholdService creates a new HouseholdServicer.
func NewHouseholdService(db *gorm.DB) HouseholdServicer {
	return &householdService{db: db}
}

// CreateHousehold creates a household and enrolls the creator as a
// guardian member.
func (s *householdService) CreateHousehold(ownerID, name, currency string) (*models.Household, error) {
	if name == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "household name is required")
	}
	if currency == "" {
		currency = "CZK"
	}

	var owner models.User
	if err := s.db.Where("id = ?", ownerID).First(&owner).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	household := &models.Household{
		Name:     name,
		Currency: currency,
		OwnerID:  ownerID,
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(household).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}

		member := &models.HouseholdMember{
			HouseholdID: household.ID,
			UserID:      ownerID,
			Role:        models.UserRoleGuardian,
			DisplayName: owner.DisplayName(),
		}
		if err := tx.Create(member).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return household, nil
}

// GetHouseholdByID retrieves a household by ID.
func (s *householdService) GetHouseholdByID(householdID string) (*models.Household, error) {
	var household models.Household
	if err := s.db.Where("id = ?", householdID).First(&household).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrHouseholdNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &household, nil
}

// AddMember adds a user to a household with the given role.
func (s *householdService) AddMember(householdID, userID string, role models.UserRole, displayName string) (*models.HouseholdMember, error) {
	if _, err := s.GetHouseholdByID(householdID); err != nil {
		return nil, err
	}

	var user models.User
	if err := s.db.Where("id = ?", userID).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var count int64
	s.db.Model(&models.HouseholdMember{}).
		Where("household_id = ? AND user_id = ?", householdID, userID).
		Count(&count)
	if count > 0 {
		return nil, apperrors.ErrDuplicateMember
	}

	if displayName == "" {
		displayName = user.DisplayName()
	}

	member := &models.HouseholdMember{
		HouseholdID: householdID,
		UserID:      userID,
		Role:        role,
		DisplayName: displayName,
	}
	if err := s.db.Create(member).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return member, nil
}

// GetMembers lists the members of a household.
func (s *householdService) GetMembers(householdID string) ([]models.HouseholdMember, error) {
	var members []models.HouseholdMember
	if err := s.db.Where("household_id = ?", householdID).
		Order("created_at ASC").
		Find(&members).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return members, nil
}

// GetMember retrieves one household membership.
func (s *householdService) GetMember(householdID, userID string) (*models.HouseholdMember, error) {
	var member models.HouseholdMember
	if err := s.db.Where("household_id = ? AND user_id = ?", householdID, userID).
		First(&member).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrMemberNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &member, nil
}

// RequireMember returns ErrForbidden unless the user belongs to the household.
func (s *householdService) RequireMember(householdID, userID string) error {
	_, err := s.GetMember(householdID, userID)
	if err != nil {
		var appErr *apperrors.AppError
		if errors.As(err, &appErr) && appErr.Code == apperrors.ErrMemberNotFound.Code {
			return apperrors.ErrForbidden
		}
		return err
	}
	return nil
}

// RequireGuardian returns ErrForbidden unless the user is a guardian
// member of the household.
func (s *householdService) RequireGuardian(householdID, userID string) error {
	member, err := s.GetMember(householdID, userID)
	if err != nil {
		var appErr *apperrors.AppError
		if errors.As(err, &appErr) && appErr.Code == apperrors.ErrMemberNotFound.Code {
			return apperrors.ErrForbidden
		}
		return err
	}
	if member.Role != models.UserRoleGuardian {
		return apperrors.ErrForbidden
	}
	return nil
}
