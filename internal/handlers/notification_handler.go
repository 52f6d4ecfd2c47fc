package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	apperrors "famledger/internal/errors"
	"famledger/internal/models"
	"famledger/internal/services"
)

// NotificationHandler handles notification requests
type NotificationHandler struct {
	notificationService services.NotificationServicer
}

// NewNotificationHandler creates a new NotificationHandler
func NewNotificationHandler(notificationService services.NotificationServicer) *NotificationHandler {
	return &NotificationHandler{notificationService: notificationService}
}

// SetPreferenceRequest represents the email preference payload
type SetPreferenceRequest struct {
	Type         string `json:"type" binding:"required,notification_type"`
	EmailEnabled bool   `json:"email_enabled"`
}

// GetNotifications lists the caller's notifications
// @Summary     List notifications
// @Description List the caller's notifications, highest priority first
// @Tags        notifications
// @Produce     json
// @Security    BearerAuth
// @Param       unread_only query bool false "Only unread notifications"
// @Param       limit query int false "Maximum results (default 50, max 200)"
// @Success     200 {array} models.Notification "Notifications"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /notifications [get]
func (h *NotificationHandler) GetNotifications(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	unreadOnly := c.Query("unread_only") == "true"
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "0"))

	notifications, err := h.notificationService.GetUserNotifications(userID, unreadOnly, limit)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"notifications": notifications})
}

// GetUnreadCount returns the caller's unread notification count
// @Summary     Get unread count
// @Description Get the number of unread, non-archived notifications
// @Tags        notifications
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} map[string]int64 "Unread count"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /notifications/unread-count [get]
func (h *NotificationHandler) GetUnreadCount(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	count, err := h.notificationService.UnreadCount(userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"unread_count": count})
}

// MarkRead marks a notification as read
// @Summary     Mark notification read
// @Description Mark one of the caller's notifications as read
// @Tags        notifications
// @Produce     json
// @Security    BearerAuth
// @Param       notificationId path string true "Notification ID"
// @Success     200 {object} map[string]string "Marked read"
// @Failure     404 {object} ErrorResponse "Notification not found"
// @Router      /notifications/{notificationId}/read [post]
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	notificationID, err := parsePathUUID(c, "notificationId")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.notificationService.MarkRead(userID, notificationID); err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Notification marked as read"})
}

// MarkAllRead marks all of the caller's notifications as read
// @Summary     Mark all notifications read
// @Description Mark all of the caller's notifications as read, optionally
// @Description scoped to one household
// @Tags        notifications
// @Produce     json
// @Security    BearerAuth
// @Param       household_id query string false "Scope to household"
// @Success     200 {object} map[string]string "Marked read"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /notifications/read-all [post]
func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.notificationService.MarkAllRead(userID, c.Query("household_id")); err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "All notifications marked as read"})
}

// Archive archives a notification
// @Summary     Archive notification
// @Description Hide a notification from listings without deleting it
// @Tags        notifications
// @Produce     json
// @Security    BearerAuth
// @Param       notificationId path string true "Notification ID"
// @Success     200 {object} map[string]string "Archived"
// @Failure     404 {object} ErrorResponse "Notification not found"
// @Router      /notifications/{notificationId}/archive [post]
func (h *NotificationHandler) Archive(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	notificationID, err := parsePathUUID(c, "notificationId")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.notificationService.Archive(userID, notificationID); err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Notification archived"})
}

// SetPreference sets the caller's email preference for a notification type
// @Summary     Set notification preference
// @Description Enable or disable email delivery for a notification type
// @Tags        notifications
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body SetPreferenceRequest true "Preference"
// @Success     200 {object} map[string]string "Preference saved"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Router      /notifications/preferences [put]
func (h *NotificationHandler) SetPreference(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req SetPreferenceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	if err := h.notificationService.SetPreference(userID, models.NotificationType(req.Type), req.EmailEnabled); err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Preference saved"})
}

// SweepExpired deletes expired notifications
// @Summary     Sweep expired notifications
// @Description Hard-delete notifications past their expiry. Protected by the
// @Description maintenance API key.
// @Tags        maintenance
// @Produce     json
// @Security    ApiKeyAuth
// @Success     200 {object} map[string]int64 "Notifications deleted"
// @Failure     401 {object} ErrorResponse "Invalid API key"
// @Router      /maintenance/notifications/sweep [post]
func (h *NotificationHandler) SweepExpired(c *gin.Context) {
	deleted, err := h.notificationService.DeleteExpired()
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"deleted": deleted})
}
