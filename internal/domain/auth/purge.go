package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"hotelbooking/internal/domain/reservation"
)

const PurgeAnonymousKind = "purge_anonymous_user"

type purgePayload struct {
	UserID int64 `json:"user_id"`
}

// PurgeAnonymousUser is the job handler for PurgeAnonymousKind. It deletes the
// user together with their reservations and support threads, but only while the
// account is still anonymous. A user that is already gone counts as done.
func (s *Service) PurgeAnonymousUser(ctx context.Context, payload []byte) error {
	var p purgePayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return fmt.Errorf("decode purge payload: %w", err)
	}
	if p.UserID <= 0 {
		return fmt.Errorf("purge payload: invalid user_id %d", p.UserID)
	}

	var purged bool
	err := s.users.DB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var u User
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Take(&u, p.UserID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		if !u.IsAnonymous {
			return nil
		}

		if err := tx.Where("user_id = ?", u.ID).Delete(&reservation.Reservation{}).Error; err != nil {
			return fmt.Errorf("delete reservations: %w", err)
		}
		if err := tx.Exec(`DELETE FROM support_message
			WHERE sender_id = ?
			   OR conversation_id IN (SELECT id FROM support_conversation WHERE user_id = ?)`, u.ID, u.ID).Error; err != nil {
			return fmt.Errorf("delete support messages: %w", err)
		}
		if err := tx.Exec("DELETE FROM support_conversation WHERE user_id = ?", u.ID).Error; err != nil {
			return fmt.Errorf("delete support conversations: %w", err)
		}
		if err := tx.Delete(&User{}, u.ID).Error; err != nil {
			return fmt.Errorf("delete user: %w", err)
		}
		purged = true
		return nil
	})
	if err != nil {
		return err
	}

	if purged {
		s.log.Info("anonymous user purged", zap.Int64("user_id", p.UserID))
	} else {
		s.log.Debug("anonymous purge skipped", zap.Int64("user_id", p.UserID))
	}
	return nil
}
