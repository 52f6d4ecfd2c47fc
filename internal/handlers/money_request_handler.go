package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "famledger/internal/errors"
	"famledger/internal/models"
	"famledger/internal/pagination"
	"famledger/internal/services"
)

// MoneyRequestHandler handles the money request workflow
type MoneyRequestHandler struct {
	moneyRequestService services.MoneyRequestServicer
	auditService        services.AuditServicer
}

// NewMoneyRequestHandler creates a new MoneyRequestHandler
func NewMoneyRequestHandler(moneyRequestService services.MoneyRequestServicer, auditService services.AuditServicer) *MoneyRequestHandler {
	return &MoneyRequestHandler{moneyRequestService: moneyRequestService, auditService: auditService}
}

// CreateMoneyRequestRequest represents the money request creation payload
type CreateMoneyRequestRequest struct {
	GuardianID string `json:"guardian_id" binding:"required,uuid"`
	Amount     int64  `json:"amount" binding:"required,gt=0"`
	Reason     string `json:"reason" binding:"required,min=1,max=500"`
	Category   string `json:"category" binding:"max=50"`
}

// ResolveRequestRequest represents the approve/reject payload
type ResolveRequestRequest struct {
	Notes string `json:"notes" binding:"max=500"`
}

// listFilter parses the optional status query parameter.
func listFilter(c *gin.Context) (services.MoneyRequestFilter, error) {
	var filter services.MoneyRequestFilter
	if raw := c.Query("status"); raw != "" {
		status := models.RequestStatus(raw)
		switch status {
		case models.RequestStatusPending, models.RequestStatusApproved, models.RequestStatusRejected:
			filter.Status = &status
		default:
			return filter, apperrors.WithMessage(apperrors.ErrInvalidInput, "Invalid status filter")
		}
	}
	return filter, nil
}

// CreateRequest creates a money request addressed to a guardian
// @Summary     Create money request
// @Description Ask a guardian in the household for money
// @Tags        money-requests
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Household ID"
// @Param       request body CreateMoneyRequestRequest true "Request data"
// @Success     201 {object} models.MoneyRequest "Request created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     403 {object} ErrorResponse "Not a member"
// @Failure     404 {object} ErrorResponse "Guardian or account not found"
// @Router      /households/{id}/requests [post]
func (h *MoneyRequestHandler) CreateRequest(c *gin.Context) {
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

	var req CreateMoneyRequestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	request, err := h.moneyRequestService.CreateRequest(householdID, userID, req.GuardianID,
		req.Amount, req.Reason, req.Category)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "CREATE", "money_request", request.ID, c.ClientIP(), map[string]interface{}{
		"amount":      req.Amount,
		"guardian_id": req.GuardianID,
	})

	c.JSON(http.StatusCreated, gin.H{"request": request})
}

// ApproveRequest approves a pending money request
// @Summary     Approve money request
// @Description Approve a pending request and credit the child's account
// @Tags        money-requests
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       requestId path string true "Request ID"
// @Param       request body ResolveRequestRequest false "Optional notes"
// @Success     200 {object} models.MoneyRequest "Approved request"
// @Failure     403 {object} ErrorResponse "Not a guardian"
// @Failure     404 {object} ErrorResponse "Request not found"
// @Failure     409 {object} ErrorResponse "Already resolved"
// @Router      /requests/{requestId}/approve [post]
func (h *MoneyRequestHandler) ApproveRequest(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	requestID, err := parsePathUUID(c, "requestId")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req ResolveRequestRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
			return
		}
	}

	request, err := h.moneyRequestService.ApproveRequest(requestID, userID, req.Notes)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "APPROVE", "money_request", requestID, c.ClientIP(), map[string]interface{}{
		"amount": request.Amount,
	})

	c.JSON(http.StatusOK, gin.H{"request": request})
}

// RejectRequest rejects a pending money request
// @Summary     Reject money request
// @Description Reject a pending request without moving any money
// @Tags        money-requests
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       requestId path string true "Request ID"
// @Param       request body ResolveRequestRequest false "Optional notes"
// @Success     200 {object} models.MoneyRequest "Rejected request"
// @Failure     403 {object} ErrorResponse "Not a guardian"
// @Failure     404 {object} ErrorResponse "Request not found"
// @Failure     409 {object} ErrorResponse "Already resolved"
// @Router      /requests/{requestId}/reject [post]
func (h *MoneyRequestHandler) RejectRequest(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	requestID, err := parsePathUUID(c, "requestId")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req ResolveRequestRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
			return
		}
	}

	request, err := h.moneyRequestService.RejectRequest(requestID, userID, req.Notes)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "REJECT", "money_request", requestID, c.ClientIP(), nil)

	c.JSON(http.StatusOK, gin.H{"request": request})
}

// GetMyRequests lists the caller's own money requests
// @Summary     List own requests
// @Description List the caller's money requests in a household, newest first
// @Tags        money-requests
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Household ID"
// @Param       status query string false "Filter by status (pending, approved, rejected)"
// @Param       page query int false "Page number"
// @Param       page_size query int false "Items per page"
// @Success     200 {object} pagination.PageResponse[models.MoneyRequest] "Requests"
// @Failure     403 {object} ErrorResponse "Not a member"
// @Router      /households/{id}/requests/mine [get]
func (h *MoneyRequestHandler) GetMyRequests(c *gin.Context) {
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

	filter, err := listFilter(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	result, err := h.moneyRequestService.GetChildRequests(householdID, userID, page, filter)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetApprovalQueue lists requests addressed to the calling guardian
// @Summary     List approval queue
// @Description List money requests addressed to the calling guardian.
// @Description Defaults to pending requests when no status filter is given.
// @Tags        money-requests
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Household ID"
// @Param       status query string false "Filter by status (pending, approved, rejected)"
// @Param       page query int false "Page number"
// @Param       page_size query int false "Items per page"
// @Success     200 {object} pagination.PageResponse[models.MoneyRequest] "Requests"
// @Failure     403 {object} ErrorResponse "Not a guardian"
// @Router      /households/{id}/requests/queue [get]
func (h *MoneyRequestHandler) GetApprovalQueue(c *gin.Context) {
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

	filter, err := listFilter(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	result, err := h.moneyRequestService.GetGuardianRequests(householdID, userID, page, filter)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}
