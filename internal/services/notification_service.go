package services

import (
	"encoding/json"
	"errors"

	"github.com/dgraph-io/ristretto"
	"gorm.io/gorm"

	"famledger/internal/clock"
	"famledger/internal/email"
	apperrors "famledger/internal/errors"
	"famledger/internal/logger"
	"famledger/internal/models"
)

const defaultNotificationLimit = 50

// notificationService handles in-app notifications and best-effort
// email delivery.
type notificationService struct {
	db     *gorm.DB
	mailer email.Sender
	clk    clock.Clock

	// unreadCache caches per-user unread counts; entries are dropped on
	// any write touching that user's notifications.
	unreadCache *ristretto.Cache
}

// NewNotificationService creates a new NotificationServicer. The mailer
// may be nil; notifications are then in-app only.
func NewNotificationService(db *gorm.DB, mailer email.Sender, clk clock.Clock) NotificationServicer {
	cache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: 10000,
		MaxCost:     10000,
		BufferItems: 64,
	})
	if err != nil {
		logger.Get().Warnf("unread-count cache disabled: %v", err)
		cache = nil
	}
	return &notificationService{db: db, mailer: mailer, clk: clk, unreadCache: cache}
}

// Create records a notification for one user and, if the user's
// preferences allow it, sends an email. Email failures are logged and
// never propagate: the notification row is the operation of record.
func (s *notificationService) Create(householdID, userID string, notifType models.NotificationType, title, message string, priority models.NotificationPriority, opts *NotificationOptions) (*models.Notification, error) {
	if title == "" || message == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "title and message are required")
	}
	if priority == "" {
		priority = models.PriorityNormal
	}

	notification := &models.Notification{
		HouseholdID: householdID,
		UserID:      userID,
		Type:        notifType,
		Title:       title,
		Message:     message,
		Priority:    priority,
	}

	if opts != nil {
		notification.ActionURL = opts.ActionURL
		notification.ActionLabel = opts.ActionLabel
		notification.Icon = opts.Icon
		notification.RelatedType = opts.RelatedType
		notification.RelatedID = opts.RelatedID
		notification.ExpiresAt = opts.ExpiresAt
		if opts.Metadata != nil {
			data, err := json.Marshal(opts.Metadata)
			if err != nil {
				logger.Get().Errorw("failed to marshal notification metadata", "error", err)
			} else {
				notification.Metadata = string(data)
			}
		}
	}

	if err := s.db.Create(notification).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	s.dropUnreadCount(userID)
	s.maybeEmail(notification)

	return notification, nil
}

// NotifyMembers fans Create out over a set of users and returns the
// created notification IDs. There is no transactional guarantee across
// the set: a failure partway through leaves earlier notifications in
// place, and the error is returned alongside the IDs created so far.
func (s *notificationService) NotifyMembers(householdID string, userIDs []string, notifType models.NotificationType, title, message string, priority models.NotificationPriority, opts *NotificationOptions) ([]string, error) {
	created := make([]string, 0, len(userIDs))
	for _, userID := range userIDs {
		notification, err := s.Create(householdID, userID, notifType, title, message, priority, opts)
		if err != nil {
			return created, err
		}
		created = append(created, notification.ID)
	}
	return created, nil
}

// GetUserNotifications lists a user's non-archived notifications,
// highest priority first, then most recent.
func (s *notificationService) GetUserNotifications(userID string, unreadOnly bool, limit int) ([]models.Notification, error) {
	if limit <= 0 || limit > 200 {
		limit = defaultNotificationLimit
	}

	q := s.db.Where("user_id = ? AND is_archived = ?", userID, false)
	if unreadOnly {
		q = q.Where("is_read = ?", false)
	}

	var notifications []models.Notification
	if err := q.
		Order("CASE priority WHEN 'urgent' THEN 4 WHEN 'high' THEN 3 WHEN 'normal' THEN 2 ELSE 1 END DESC").
		Order("created_at DESC").
		Limit(limit).
		Find(&notifications).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return notifications, nil
}

// UnreadCount returns the user's unread, non-archived notification count.
func (s *notificationService) UnreadCount(userID string) (int64, error) {
	if s.unreadCache != nil {
		if v, ok := s.unreadCache.Get(userID); ok {
			if count, ok := v.(int64); ok {
				return count, nil
			}
		}
	}

	var count int64
	if err := s.db.Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ? AND is_archived = ?", userID, false, false).
		Count(&count).Error; err != nil {
		return 0, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	if s.unreadCache != nil {
		s.unreadCache.Set(userID, count, 1)
		s.unreadCache.Wait()
	}
	return count, nil
}

// MarkRead marks one of the user's notifications as read.
func (s *notificationService) MarkRead(userID, notificationID string) error {
	result := s.db.Model(&models.Notification{}).
		Where("id = ? AND user_id = ?", notificationID, userID).
		Update("is_read", true)
	if result.Error != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrNotificationNotFound
	}
	s.dropUnreadCount(userID)
	return nil
}

// MarkAllRead marks all of the user's notifications as read, optionally
// scoped to one household.
func (s *notificationService) MarkAllRead(userID, householdID string) error {
	q := s.db.Model(&models.Notification{}).Where("user_id = ? AND is_read = ?", userID, false)
	if householdID != "" {
		q = q.Where("household_id = ?", householdID)
	}
	if err := q.Update("is_read", true).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	s.dropUnreadCount(userID)
	return nil
}

// Archive hides a notification from listings without deleting it.
func (s *notificationService) Archive(userID, notificationID string) error {
	result := s.db.Model(&models.Notification{}).
		Where("id = ? AND user_id = ?", notificationID, userID).
		Updates(map[string]interface{}{"is_archived": true, "is_read": true})
	if result.Error != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrNotificationNotFound
	}
	s.dropUnreadCount(userID)
	return nil
}

// SetPreference upserts a user's email preference for one notification type.
func (s *notificationService) SetPreference(userID string, notifType models.NotificationType, emailEnabled bool) error {
	var pref models.NotificationPreference
	err := s.db.Where("user_id = ? AND type = ?", userID, notifType).First(&pref).Error
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		pref = models.NotificationPreference{
			UserID:       userID,
			Type:         notifType,
			EmailEnabled: emailEnabled,
		}
		if err := s.db.Create(&pref).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	}

	if err := s.db.Model(&pref).Update("email_enabled", emailEnabled).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// DeleteExpired hard-deletes notifications past their expiry and
// returns the number removed.
func (s *notificationService) DeleteExpired() (int64, error) {
	now := s.clk.Now()

	// Collect affected users first so their cached counts can be dropped.
	var userIDs []string
	if err := s.db.Model(&models.Notification{}).
		Where("expires_at IS NOT NULL AND expires_at < ?", now).
		Distinct("user_id").
		Pluck("user_id", &userIDs).Error; err != nil {
		return 0, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := s.db.Unscoped().
		Where("expires_at IS NOT NULL AND expires_at < ?", now).
		Delete(&models.Notification{})
	if result.Error != nil {
		return 0, apperrors.Wrap(apperrors.ErrInternalServer, result.Error)
	}

	for _, userID := range userIDs {
		s.dropUnreadCount(userID)
	}
	return result.RowsAffected, nil
}

// dropUnreadCount invalidates a user's cached count. Writes are
// buffered in ristretto, so flush before returning to keep reads
// after a write consistent.
func (s *notificationService) dropUnreadCount(userID string) {
	if s.unreadCache != nil {
		s.unreadCache.Del(userID)
		s.unreadCache.Wait()
	}
}

// maybeEmail sends the notification by email when a mailer is
// configured and the recipient's preference for this type allows it.
// Without a preference row, only urgent notifications go out by email.
func (s *notificationService) maybeEmail(notification *models.Notification) {
	if s.mailer == nil || !s.mailer.Configured() {
		return
	}

	var pref models.NotificationPreference
	err := s.db.Where("user_id = ? AND type = ?", notification.UserID, notification.Type).First(&pref).Error
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Get().Errorw("failed to load notification preference",
				"user_id", notification.UserID, "error", err)
			return
		}
		if notification.Priority != models.PriorityUrgent {
			return
		}
	} else if !pref.EmailEnabled {
		return
	}

	var user models.User
	if err := s.db.Where("id = ?", notification.UserID).First(&user).Error; err != nil {
		logger.Get().Errorw("failed to load notification recipient",
			"user_id", notification.UserID, "error", err)
		return
	}

	body := notification.Message
	if notification.ActionURL != "" {
		body += "\n\n" + notification.ActionURL
	}

	if err := s.mailer.Send(user.Email, notification.Title, body); err != nil {
		logger.Get().Errorw("failed to send notification email",
			"notification_id", notification.ID,
			"user_id", notification.UserID,
			"error", err,
		)
	}
}
