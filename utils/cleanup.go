package utils

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/cppla/socialbbs/models"
)

// StartJanitor launches a background goroutine that periodically clears expired
// password reset tokens and prunes in-memory fallback stores. It stops with ctx.
func StartJanitor(ctx context.Context, db *gorm.DB, interval time.Duration) {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				SweepOnce(db, now)
			}
		}
	}()
}

// SweepOnce runs a single cleanup pass.
func SweepOnce(db *gorm.DB, now time.Time) {
	pruneCooldowns(now)
	pruneBlacklist(now)
	pruneSignupCounts(now)
	if db == nil {
		return
	}
	res := db.Model(&models.User{}).
		Where("password_change_expires_at IS NOT NULL AND password_change_expires_at <= ?", now).
		Updates(map[string]interface{}{
			"password_change_token":      "",
			"password_change_expires_at": nil,
		})
	if res.Error != nil {
		Sugar.Warnf("janitor: clearing expired reset tokens failed: %v", res.Error)
		return
	}
	if res.RowsAffected > 0 {
		Sugar.Infof("janitor: cleared %d expired reset tokens", res.RowsAffected)
	}
}
