package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "famledger/internal/errors"
	"famledger/internal/services"
)

// ChildAccountHandler handles child account requests
type ChildAccountHandler struct {
	childAccountService services.ChildAccountServicer
	householdService    services.HouseholdServicer
	auditService        services.AuditServicer
}

// NewChildAccountHandler creates a new ChildAccountHandler
func NewChildAccountHandler(childAccountService services.ChildAccountServicer, householdService services.HouseholdServicer, auditService services.AuditServicer) *ChildAccountHandler {
	return &ChildAccountHandler{
		childAccountService: childAccountService,
		householdService:    householdService,
		auditService:        auditService,
	}
}

// EnrollChildRequest represents the child enrollment payload
type EnrollChildRequest struct {
	ChildID string `json:"child_id" binding:"required,uuid"`
}

// UpdateLimitsRequest represents the spending limit update payload.
// A negative value clears the corresponding limit.
type UpdateLimitsRequest struct {
	DailyLimit        *int64 `json:"daily_limit"`
	WeeklyLimit       *int64 `json:"weekly_limit"`
	MonthlyLimit      *int64 `json:"monthly_limit"`
	PerTransaction    *int64 `json:"per_transaction_limit"`
	ApprovalThreshold *int64 `json:"approval_threshold"`
}

// SpendRequest represents a direct spend payload
type SpendRequest struct {
	Amount      int64  `json:"amount" binding:"required,gt=0"`
	Description string `json:"description" binding:"max=255"`
}

// SpendPreviewRequest represents a spend preview payload
type SpendPreviewRequest struct {
	Amount int64 `json:"amount" binding:"required,gt=0"`
}

// EnrollChild creates a child account in a household
// @Summary     Enroll child account
// @Description Enroll a child household member into a spending account
// @Tags        child-accounts
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Household ID"
// @Param       request body EnrollChildRequest true "Child to enroll"
// @Success     201 {object} models.ChildAccount "Account created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     403 {object} ErrorResponse "Not a guardian"
// @Failure     409 {object} ErrorResponse "Already enrolled"
// @Router      /households/{id}/accounts [post]
func (h *ChildAccountHandler) EnrollChild(c *gin.Context) {
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

	var req EnrollChildRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	account, err := h.childAccountService.Enroll(householdID, userID, req.ChildID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "ENROLL", "child_account", account.ID, c.ClientIP(), map[string]interface{}{
		"child_id": req.ChildID,
	})

	c.JSON(http.StatusCreated, gin.H{"account": account})
}

// GetAccount returns a child's account within a household
// @Summary     Get child account
// @Description Get the child account for a household member. Children may
// @Description only view their own account; guardians may view any.
// @Tags        child-accounts
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Household ID"
// @Param       childId path string true "Child user ID"
// @Success     200 {object} models.ChildAccount "Account"
// @Failure     403 {object} ErrorResponse "Forbidden"
// @Failure     404 {object} ErrorResponse "Account not found"
// @Router      /households/{id}/accounts/{childId} [get]
func (h *ChildAccountHandler) GetAccount(c *gin.Context) {
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
	childID, err := parsePathUUID(c, "childId")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if userID != childID {
		if err := h.householdService.RequireGuardian(householdID, userID); err != nil {
			respondWithError(c, err)
			return
		}
	}

	account, err := h.childAccountService.GetByChild(householdID, childID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"account": account})
}

// UpdateLimits updates a child account's spending limits
// @Summary     Update spending limits
// @Description Update a child account's limits; caller must be a guardian.
// @Description Negative values clear the corresponding limit.
// @Tags        child-accounts
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Household ID"
// @Param       childId path string true "Child user ID"
// @Param       request body UpdateLimitsRequest true "Limit changes"
// @Success     200 {object} models.ChildAccount "Updated account"
// @Failure     403 {object} ErrorResponse "Not a guardian"
// @Failure     404 {object} ErrorResponse "Account not found"
// @Router      /households/{id}/accounts/{childId}/limits [put]
func (h *ChildAccountHandler) UpdateLimits(c *gin.Context) {
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
	childID, err := parsePathUUID(c, "childId")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdateLimitsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	account, err := h.childAccountService.UpdateLimits(householdID, userID, childID,
		req.DailyLimit, req.WeeklyLimit, req.MonthlyLimit, req.PerTransaction, req.ApprovalThreshold)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "UPDATE_LIMITS", "child_account", account.ID, c.ClientIP(), map[string]interface{}{
		"child_id": childID,
	})

	c.JSON(http.StatusOK, gin.H{"account": account})
}

// PreviewSpend evaluates a proposed spend without committing it
// @Summary     Preview spend
// @Description Check whether a spend would be allowed under the account's
// @Description balance and limits, without changing any state
// @Tags        child-accounts
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Household ID"
// @Param       childId path string true "Child user ID"
// @Param       request body SpendPreviewRequest true "Proposed amount"
// @Success     200 {object} services.SpendCheck "Check result"
// @Failure     403 {object} ErrorResponse "Forbidden"
// @Failure     404 {object} ErrorResponse "Account not found"
// @Router      /households/{id}/accounts/{childId}/spend/preview [post]
func (h *ChildAccountHandler) PreviewSpend(c *gin.Context) {
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
	childID, err := parsePathUUID(c, "childId")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if userID != childID {
		if err := h.householdService.RequireGuardian(householdID, userID); err != nil {
			respondWithError(c, err)
			return
		}
	}

	var req SpendPreviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	check, err := h.childAccountService.PreviewSpend(householdID, childID, req.Amount)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"check": check})
}

// Spend debits a child account
// @Summary     Record spend
// @Description Debit the caller's child account after re-checking limits
// @Tags        child-accounts
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Household ID"
// @Param       request body SpendRequest true "Spend data"
// @Success     201 {object} models.SpendRecord "Spend recorded"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     402 {object} ErrorResponse "Insufficient balance"
// @Failure     403 {object} ErrorResponse "Spend limit exceeded"
// @Router      /households/{id}/spend [post]
func (h *ChildAccountHandler) Spend(c *gin.Context) {
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

	var req SpendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	record, err := h.childAccountService.Spend(householdID, userID, req.Amount, req.Description)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "SPEND", "child_account", record.ChildAccountID, c.ClientIP(), map[string]interface{}{
		"amount": req.Amount,
	})

	c.JSON(http.StatusCreated, gin.H{"spend": record})
}

// GetSpendTotals returns the account's spend totals per window
// @Summary     Get spend totals
// @Description Get a child account's aggregated spending for the current
// @Description day, week, and month
// @Tags        child-accounts
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Household ID"
// @Param       childId path string true "Child user ID"
// @Success     200 {object} services.SpendTotals "Totals"
// @Failure     403 {object} ErrorResponse "Forbidden"
// @Failure     404 {object} ErrorResponse "Account not found"
// @Router      /households/{id}/accounts/{childId}/totals [get]
func (h *ChildAccountHandler) GetSpendTotals(c *gin.Context) {
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
	childID, err := parsePathUUID(c, "childId")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if userID != childID {
		if err := h.householdService.RequireGuardian(householdID, userID); err != nil {
			respondWithError(c, err)
			return
		}
	}

	account, err := h.childAccountService.GetByChild(householdID, childID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	totals, err := h.childAccountService.GetSpendTotals(account.ID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"totals": totals})
}
