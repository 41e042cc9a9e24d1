package directory

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// UserDirectory persists the derived presence state onto the profile row.
type UserDirectory struct {
	db *gorm.DB
}

func NewUserDirectory(db *gorm.DB) *UserDirectory {
	return &UserDirectory{db: db}
}

// SetOnlineStatus writes the online flag and bumps last_seen_at on both
// transitions. An unknown profile id is not an error; the row may simply
// not have been provisioned yet.
func (d *UserDirectory) SetOnlineStatus(ctx context.Context, profileID string, online bool) error {
	res := d.db.WithContext(ctx).
		Model(&User{}).
		Where("profile_id = ?", profileID).
		Updates(map[string]any{
			"is_online":    online,
			"last_seen_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return fmt.Errorf("failed to update online status: %w", res.Error)
	}
	return nil
}
