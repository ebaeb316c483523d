package notification

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/tbakken/usergroups/internal/group"
)

// Common errors
var (
	ErrNotificationNotFound = errors.New("notification not found")
	ErrNotRecipient         = errors.New("not the recipient of this notification")
)

// Service handles notification business logic. It also receives group
// lifecycle events; delivery failures are logged, never propagated to the
// operation that raised the event.
type Service struct {
	repo *Repository
	log  *zap.Logger
}

var _ group.Notifier = (*Service)(nil)

// NewService creates a new notification service
func NewService(repo *Repository, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{repo: repo, log: log}
}

// ListByRecipient retrieves a user's notifications
func (s *Service) ListByRecipient(ctx context.Context, recipientID int64, page, perPage int, unreadOnly bool) ([]*Notification, int, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}

	offset := (page - 1) * perPage
	return s.repo.ListByRecipient(ctx, recipientID, perPage, offset, unreadOnly)
}

// MarkAsRead marks a notification as read on behalf of its recipient
func (s *Service) MarkAsRead(ctx context.Context, id, userID int64) error {
	n, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if n == nil {
		return ErrNotificationNotFound
	}
	if n.RecipientID != userID {
		return ErrNotRecipient
	}

	return s.repo.MarkAsRead(ctx, id)
}

// MarkAllAsRead marks all of a user's notifications as read
func (s *Service) MarkAllAsRead(ctx context.Context, userID int64) error {
	return s.repo.MarkAllAsRead(ctx, userID)
}

// UnreadCount returns the number of unread notifications for a user
func (s *Service) UnreadCount(ctx context.Context, userID int64) (int, error) {
	return s.repo.UnreadCount(ctx, userID)
}

//
// Group event delivery
//

func (s *Service) deliver(ctx context.Context, recipientID int64, message string, groupID int64) {
	if _, err := s.repo.Create(ctx, recipientID, message, &groupID); err != nil {
		s.log.Warn("failed to deliver notification",
			zap.Int64("recipient_id", recipientID),
			zap.Int64("group_id", groupID),
			zap.Error(err))
	}
}

// GroupCreated notifies a new admin that their group has been created
func (s *Service) GroupCreated(ctx context.Context, recipientID int64, g *group.Group) {
	s.deliver(ctx, recipientID, "Group created: "+g.Name, g.ID)
}

// MemberInvited notifies a user of a pending invitation
func (s *Service) MemberInvited(ctx context.Context, recipientID int64, g *group.Group) {
	s.deliver(ctx, recipientID, "You have been invited to join group: "+g.Name, g.ID)
}

// RequestDecided notifies a user that their join request was approved or
// rejected
func (s *Service) RequestDecided(ctx context.Context, recipientID int64, g *group.Group, approved bool) {
	if approved {
		s.deliver(ctx, recipientID, "Your request to join group "+g.Name+" was approved", g.ID)
		return
	}
	s.deliver(ctx, recipientID, "Your request to join group "+g.Name+" was rejected", g.ID)
}
