package accounts

import (
	"context"
	"fmt"
	"strings"
	"time"

	"digitrack/pkg/models"

	"gorm.io/gorm"
)

// Event is one row of the MTO account activity log.
type Event struct {
	ID        uint               `json:"id"`
	Time      time.Time          `json:"action_time"`
	AccountID uint               `json:"object_id"`
	Summary   string             `json:"object_repr"`
	Action    models.EventAction `json:"action"`
	Message   string             `json:"change_message"`
	ActorID   *uint              `json:"user_id"`
}

func actorOf(id uint) *uint {
	if id == 0 {
		return nil
	}
	return &id
}

func recordEvent(tx *gorm.DB, actorID uint, account *models.Account, action models.EventAction, message string) error {
	ev := models.AccountEvent{
		AccountID: account.ID,
		ActorID:   actorOf(actorID),
		Action:    action,
		Summary:   account.Username,
		Message:   message,
	}
	if err := tx.Omit("Account").Create(&ev).Error; err != nil {
		return fmt.Errorf("record account event: %w", err)
	}
	return nil
}

// changeMessage lists the changed fields, or "No fields changed."
func changeMessage(fields []string) string {
	if len(fields) == 0 {
		return "No fields changed."
	}
	return "Changed " + strings.Join(fields, ", ") + "."
}

// ListEvents returns account events, newest first. limit <= 0 means all.
func (s *Service) ListEvents(ctx context.Context, limit int) ([]Event, error) {
	q := s.db.WithContext(ctx).Order("created_at DESC").Order("id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var rows []models.AccountEvent
	if err := q.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list account events: %w", err)
	}
	events := make([]Event, len(rows))
	for i, r := range rows {
		events[i] = Event{
			ID:        r.ID,
			Time:      r.CreatedAt,
			AccountID: r.AccountID,
			Summary:   r.Summary,
			Action:    r.Action,
			Message:   r.Message,
			ActorID:   r.ActorID,
		}
	}
	return events, nil
}
