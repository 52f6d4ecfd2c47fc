package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "famledger/internal/errors"
	"famledger/internal/models"
	"famledger/internal/services"
)

// HouseholdHandler handles household management requests
type HouseholdHandler struct {
	householdService services.HouseholdServicer
	auditService     services.AuditServicer
}

// NewHouseholdHandler creates a new HouseholdHandler
func NewHouseholdHandler(householdService services.HouseholdServicer, auditService services.AuditServicer) *HouseholdHandler {
	return &HouseholdHandler{householdService: householdService, auditService: auditService}
}

// CreateHouseholdRequest represents the household creation payload
type CreateHouseholdRequest struct {
	Name     string `json:"name" binding:"required,min=1,max=100"`
	Currency string `json:"currency" binding:"omitempty,iso4217"`
}

// AddMemberRequest represents the member addition payload
type AddMemberRequest struct {
	UserID      string `json:"user_id" binding:"required,uuid"`
	Role        string `json:"role" binding:"required,user_role"`
	DisplayName string `json:"display_name" binding:"max=100"`
}

// CreateHousehold creates a new household owned by the caller
// @Summary     Create household
// @Description Create a household with the caller as owning guardian
// @Tags        households
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CreateHouseholdRequest true "Household data"
// @Success     201 {object} models.Household "Household created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /households [post]
func (h *HouseholdHandler) CreateHousehold(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreateHouseholdRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	household, err := h.householdService.CreateHousehold(userID, req.Name, req.Currency)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "CREATE", "household", household.ID, c.ClientIP(), map[string]interface{}{
		"name":     household.Name,
		"currency": household.Currency,
	})

	c.JSON(http.StatusCreated, gin.H{"household": household})
}

// GetHousehold returns a household the caller belongs to
// @Summary     Get household
// @Description Get a household by ID; caller must be a member
// @Tags        households
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Household ID"
// @Success     200 {object} models.Household "Household"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Not a member"
// @Failure     404 {object} ErrorResponse "Household not found"
// @Router      /households/{id} [get]
func (h *HouseholdHandler) GetHousehold(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	householdID, err := parsePathUUID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.householdService.RequireMember(householdID, userID); err != nil {
		respondWithError(c, err)
		return
	}

	household, err := h.householdService.GetHouseholdByID(householdID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"household": household})
}

// AddMember adds a user to a household
// @Summary     Add household member
// @Description Add a user to a household; caller must be a guardian
// @Tags        households
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Household ID"
// @Param       request body AddMemberRequest true "Member data"
// @Success     201 {object} models.HouseholdMember "Member added"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     403 {object} ErrorResponse "Not a guardian"
// @Failure     409 {object} ErrorResponse "Already a member"
// @Router      /households/{id}/members [post]
func (h *HouseholdHandler) AddMember(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	householdID, err := parsePathUUID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req AddMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	if err := h.householdService.RequireGuardian(householdID, userID); err != nil {
		respondWithError(c, err)
		return
	}

	member, err := h.householdService.AddMember(householdID, req.UserID, models.UserRole(req.Role), req.DisplayName)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "ADD_MEMBER", "household", householdID, c.ClientIP(), map[string]interface{}{
		"member_user_id": req.UserID,
		"role":           req.Role,
	})

	c.JSON(http.StatusCreated, gin.H{"member": member})
}

// GetMembers lists a household's members
// @Summary     List household members
// @Description List all members of a household; caller must be a member
// @Tags        households
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Household ID"
// @Success     200 {array} models.HouseholdMember "Members"
// @Failure     403 {object} ErrorResponse "Not a member"
// @Router      /households/{id}/members [get]
func (h *HouseholdHandler) GetMembers(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	householdID, err := parsePathUUID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.householdService.RequireMember(householdID, userID); err != nil {
		respondWithError(c, err)
		return
	}

	members, err := h.householdService.GetMembers(householdID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"members": members})
}
