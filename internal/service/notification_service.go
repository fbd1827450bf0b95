package service

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/nurpe/weshare-leasing/internal/model"
	"github.com/nurpe/weshare-leasing/internal/repository"
)

type NotificationService struct {
	notifications *repository.NotificationRepository
	log           zerolog.Logger
	now           func() time.Time
}

func NewNotificationService(notifications *repository.NotificationRepository, log zerolog.Logger) *NotificationService {
	return &NotificationService{notifications: notifications, log: log, now: time.Now}
}

func (s *NotificationService) List(ctx context.Context, principal model.Principal, unreadOnly bool, limit, offset int) ([]model.Notification, error) {
	return s.notifications.ListForUser(ctx, principal.UserID, unreadOnly, limit, offset)
}

func (s *NotificationService) UnreadCount(ctx context.Context, principal model.Principal) (int64, error) {
	return s.notifications.CountUnread(ctx, principal.UserID)
}

func (s *NotificationService) MarkRead(ctx context.Context, principal model.Principal, id int64) error {
	return notFound(s.notifications.MarkRead(ctx, principal.UserID, id), "notification")
}

func (s *NotificationService) MarkAllRead(ctx context.Context, principal model.Principal) (int64, error) {
	return s.notifications.MarkAllRead(ctx, principal.UserID)
}

func (s *NotificationService) Delete(ctx context.Context, principal model.Principal, id int64) error {
	return notFound(s.notifications.Delete(ctx, principal.UserID, id), "notification")
}

// Prune deletes notifications older than retentionDays.
func (s *NotificationService) Prune(ctx context.Context, retentionDays int) (int64, error) {
	if retentionDays <= 0 {
		return 0, invalid("retention must be positive")
	}
	cutoff := s.now().AddDate(0, 0, -retentionDays)
	return s.notifications.DeleteOlderThan(ctx, cutoff)
}

// RunSweeper prunes on every tick until ctx is done.
func (s *NotificationService) RunSweeper(ctx context.Context, interval time.Duration, retentionDays int) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.sweep(ctx, retentionDays)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweep(ctx, retentionDays)
		}
	}
}

func (s *NotificationService) sweep(ctx context.Context, retentionDays int) {
	removed, err := s.Prune(ctx, retentionDays)
	if err != nil {
		if ctx.Err() == nil {
			s.log.Error().Err(err).Msg("notification retention sweep failed")
		}
		return
	}
	if removed > 0 {
		s.log.Info().Int64("removed", removed).Int("retention_days", retentionDays).Msg("pruned old notifications")
	}
}
