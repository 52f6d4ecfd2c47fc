package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "famledger/internal/errors"
	"famledger/internal/models"
	"famledger/internal/pagination"
	"famledger/internal/services"
)

// AllowanceHandler handles allowance schedule requests
type AllowanceHandler struct {
	allowanceService services.AllowanceServicer
	householdService services.HouseholdServicer
	auditService     services.AuditServicer
}

// NewAllowanceHandler creates a new AllowanceHandler
func NewAllowanceHandler(allowanceService services.AllowanceServicer, householdService services.HouseholdServicer, auditService services.AuditServicer) *AllowanceHandler {
	return &AllowanceHandler{
		allowanceService: allowanceService,
		householdService: householdService,
		auditService:     auditService,
	}
}

// CreateAllowanceRequest represents the allowance creation payload
type CreateAllowanceRequest struct {
	ChildID        string `json:"child_id" binding:"required,uuid"`
	Amount         int64  `json:"amount" binding:"required,gt=0"`
	Frequency      string `json:"frequency" binding:"required,allowance_frequency"`
	AnchorDay      *int   `json:"anchor_day" binding:"omitempty,min=0,max=28"`
	RequiresChores bool   `json:"requires_chores"`
	MinChores      int    `json:"min_chores" binding:"omitempty,min=1"`
}

// UpdateAllowanceRequest represents the allowance update payload.
// Omitted fields are left unchanged.
type UpdateAllowanceRequest struct {
	Amount         *int64  `json:"amount" binding:"omitempty,gt=0"`
	Frequency      *string `json:"frequency" binding:"omitempty,allowance_frequency"`
	AnchorDay      *int    `json:"anchor_day" binding:"omitempty,min=0,max=28"`
	RequiresChores *bool   `json:"requires_chores"`
	MinChores      *int    `json:"min_chores" binding:"omitempty,min=1"`
}

// CreateAllowance creates a recurring allowance for a child
// @Summary     Create allowance
// @Description Create a recurring allowance schedule; caller must be a guardian
// @Tags        allowances
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Household ID"
// @Param       request body CreateAllowanceRequest true "Allowance data"
// @Success     201 {object} models.Allowance "Allowance created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     403 {object} ErrorResponse "Not a guardian"
// @Failure     404 {object} ErrorResponse "Child account not found"
// @Router      /households/{id}/allowances [post]
func (h *AllowanceHandler) CreateAllowance(c *gin.Context) {
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

	var req CreateAllowanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	allowance, err := h.allowanceService.CreateAllowance(householdID, userID, req.ChildID,
		req.Amount, models.AllowanceFrequency(req.Frequency), req.AnchorDay, req.RequiresChores, req.MinChores)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "CREATE", "allowance", allowance.ID, c.ClientIP(), map[string]interface{}{
		"child_id":  req.ChildID,
		"amount":    req.Amount,
		"frequency": req.Frequency,
	})

	c.JSON(http.StatusCreated, gin.H{"allowance": allowance})
}

// GetHouseholdAllowances lists a household's allowances
// @Summary     List allowances
// @Description List a household's allowance schedules; caller must be a member
// @Tags        allowances
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Household ID"
// @Param       page query int false "Page number"
// @Param       page_size query int false "Items per page"
// @Success     200 {object} pagination.PageResponse[models.Allowance] "Allowances"
// @Failure     403 {object} ErrorResponse "Not a member"
// @Router      /households/{id}/allowances [get]
func (h *AllowanceHandler) GetHouseholdAllowances(c *gin.Context) {
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

	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	result, err := h.allowanceService.GetHouseholdAllowances(householdID, page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// UpdateAllowance updates an allowance schedule
// @Summary     Update allowance
// @Description Update amount, frequency, anchor day, or chore gate of an
// @Description allowance. Changing frequency or anchor recomputes the next
// @Description payment date.
// @Tags        allowances
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       allowanceId path string true "Allowance ID"
// @Param       request body UpdateAllowanceRequest true "Changes"
// @Success     200 {object} models.Allowance "Updated allowance"
// @Failure     403 {object} ErrorResponse "Not a guardian"
// @Failure     404 {object} ErrorResponse "Allowance not found"
// @Router      /allowances/{allowanceId} [put]
func (h *AllowanceHandler) UpdateAllowance(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	allowanceID, err := parsePathUUID(c, "allowanceId")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdateAllowanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	var frequency *models.AllowanceFrequency
	if req.Frequency != nil {
		f := models.AllowanceFrequency(*req.Frequency)
		frequency = &f
	}

	allowance, err := h.allowanceService.UpdateAllowance(allowanceID, userID,
		req.Amount, frequency, req.AnchorDay, req.RequiresChores, req.MinChores)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "UPDATE", "allowance", allowanceID, c.ClientIP(), nil)

	c.JSON(http.StatusOK, gin.H{"allowance": allowance})
}

// DeactivateAllowance stops an allowance schedule
// @Summary     Deactivate allowance
// @Description Deactivate an allowance so no further payments are made
// @Tags        allowances
// @Produce     json
// @Security    BearerAuth
// @Param       allowanceId path string true "Allowance ID"
// @Success     200 {object} map[string]string "Deactivated"
// @Failure     403 {object} ErrorResponse "Not a guardian"
// @Failure     404 {object} ErrorResponse "Allowance not found"
// @Router      /allowances/{allowanceId} [delete]
func (h *AllowanceHandler) DeactivateAllowance(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	allowanceID, err := parsePathUUID(c, "allowanceId")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.allowanceService.DeactivateAllowance(allowanceID, userID); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "DEACTIVATE", "allowance", allowanceID, c.ClientIP(), nil)

	c.JSON(http.StatusOK, gin.H{"message": "Allowance deactivated"})
}

// GetPaymentHistory lists an allowance's payment history
// @Summary     Get payment history
// @Description List completed and skipped payments for an allowance
// @Tags        allowances
// @Produce     json
// @Security    BearerAuth
// @Param       allowanceId path string true "Allowance ID"
// @Param       page query int false "Page number"
// @Param       page_size query int false "Items per page"
// @Success     200 {object} pagination.PageResponse[models.AllowancePayment] "Payments"
// @Failure     404 {object} ErrorResponse "Allowance not found"
// @Router      /allowances/{allowanceId}/payments [get]
func (h *AllowanceHandler) GetPaymentHistory(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	allowanceID, err := parsePathUUID(c, "allowanceId")
	if err != nil {
		respondWithError(c, err)
		return
	}

	allowance, err := h.allowanceService.GetAllowanceByID(allowanceID)
	if err != nil {
		respondWithError(c, err)
		return
	}
	if err := h.householdService.RequireMember(allowance.HouseholdID, userID); err != nil {
		respondWithError(c, err)
		return
	}

	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	result, err := h.allowanceService.GetPaymentHistory(allowanceID, page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// ProcessDuePayments runs the allowance payment tick
// @Summary     Process due allowances
// @Description Pay or skip every active allowance whose next payment date has
// @Description arrived. Protected by the maintenance API key.
// @Tags        maintenance
// @Produce     json
// @Security    ApiKeyAuth
// @Success     200 {object} map[string]int "Payments made"
// @Failure     401 {object} ErrorResponse "Invalid API key"
// @Router      /maintenance/allowances/process [post]
func (h *AllowanceHandler) ProcessDuePayments(c *gin.Context) {
	paid, err := h.allowanceService.ProcessDuePayments()
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"payments_made": paid})
}
