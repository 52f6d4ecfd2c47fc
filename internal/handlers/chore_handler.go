package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "famledger/internal/errors"
	"famledger/internal/pagination"
	"famledger/internal/services"
)

// ChoreHandler handles chore requests
type ChoreHandler struct {
	choreService     services.ChoreServicer
	householdService services.HouseholdServicer
	auditService     services.AuditServicer
}

// NewChoreHandler creates a new ChoreHandler
func NewChoreHandler(choreService services.ChoreServicer, householdService services.HouseholdServicer, auditService services.AuditServicer) *ChoreHandler {
	return &ChoreHandler{
		choreService:     choreService,
		householdService: householdService,
		auditService:     auditService,
	}
}

// CreateChoreRequest represents the chore creation payload
type CreateChoreRequest struct {
	AssigneeID  string `json:"assignee_id" binding:"required,uuid"`
	Name        string `json:"name" binding:"required,min=1,max=100"`
	Description string `json:"description" binding:"max=500"`
}

// ReviewCompletionRequest represents the completion review payload
type ReviewCompletionRequest struct {
	Approve bool `json:"approve"`
}

// CreateChore assigns a chore to a household member
// @Summary     Create chore
// @Description Assign a chore to a household member; caller must be a guardian
// @Tags        chores
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Household ID"
// @Param       request body CreateChoreRequest true "Chore data"
// @Success     201 {object} models.Chore "Chore created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     403 {object} ErrorResponse "Not a guardian"
// @Router      /households/{id}/chores [post]
func (h *ChoreHandler) CreateChore(c *gin.Context) {
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

	var req CreateChoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	chore, err := h.choreService.CreateChore(householdID, userID, req.AssigneeID, req.Name, req.Description)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "CREATE", "chore", chore.ID, c.ClientIP(), map[string]interface{}{
		"assignee_id": req.AssigneeID,
		"name":        req.Name,
	})

	c.JSON(http.StatusCreated, gin.H{"chore": chore})
}

// GetChores lists a household's active chores
// @Summary     List chores
// @Description List a household's active chores; caller must be a member
// @Tags        chores
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Household ID"
// @Param       page query int false "Page number"
// @Param       page_size query int false "Items per page"
// @Success     200 {object} pagination.PageResponse[models.Chore] "Chores"
// @Failure     403 {object} ErrorResponse "Not a member"
// @Router      /households/{id}/chores [get]
func (h *ChoreHandler) GetChores(c *gin.Context) {
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

	result, err := h.choreService.GetHouseholdChores(householdID, page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// MarkComplete records a chore completion pending review
// @Summary     Mark chore complete
// @Description Record that the caller finished a chore, pending guardian review
// @Tags        chores
// @Produce     json
// @Security    BearerAuth
// @Param       choreId path string true "Chore ID"
// @Success     201 {object} models.ChoreCompletion "Completion recorded"
// @Failure     403 {object} ErrorResponse "Not a member"
// @Failure     404 {object} ErrorResponse "Chore not found"
// @Router      /chores/{choreId}/complete [post]
func (h *ChoreHandler) MarkComplete(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	choreID, err := parsePathUUID(c, "choreId")
	if err != nil {
		respondWithError(c, err)
		return
	}

	completion, err := h.choreService.MarkComplete(choreID, userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"completion": completion})
}

// ReviewCompletion approves or rejects a pending completion
// @Summary     Review chore completion
// @Description Approve or reject a pending chore completion; caller must be
// @Description a guardian
// @Tags        chores
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       completionId path string true "Completion ID"
// @Param       request body ReviewCompletionRequest true "Review decision"
// @Success     200 {object} models.ChoreCompletion "Reviewed completion"
// @Failure     403 {object} ErrorResponse "Not a guardian"
// @Failure     404 {object} ErrorResponse "Completion not found"
// @Failure     409 {object} ErrorResponse "Already reviewed"
// @Router      /completions/{completionId}/review [post]
func (h *ChoreHandler) ReviewCompletion(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	completionID, err := parsePathUUID(c, "completionId")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req ReviewCompletionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	completion, err := h.choreService.ReviewCompletion(completionID, userID, req.Approve)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "REVIEW", "chore_completion", completionID, c.ClientIP(), map[string]interface{}{
		"approved": req.Approve,
	})

	c.JSON(http.StatusOK, gin.H{"completion": completion})
}
