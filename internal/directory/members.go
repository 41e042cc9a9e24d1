package directory

import (
	"context"
	"fmt"

	"gorm.io/gorm"
)

// MembershipDirectory answers which groups a user is an active member of.
type MembershipDirectory struct {
	db *gorm.DB
}

func NewMembershipDirectory(db *gorm.DB) *MembershipDirectory {
	return &MembershipDirectory{db: db}
}

// ActiveGroups returns one page of group ids for the user's active
// memberships. more is true when a further page may exist.
func (d *MembershipDirectory) ActiveGroups(ctx context.Context, profileID string, page, pageSize int) ([]string, bool, error) {
	if page < 1 {
		page = 1
	}

	var groupIDs []string
	err := d.db.WithContext(ctx).
		Model(&GroupMember{}).
		Where("profile_id = ? AND status = ?", profileID, MemberStatusActive).
		Order("joined_at").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Pluck("group_id", &groupIDs).Error
	if err != nil {
		return nil, false, fmt.Errorf("failed to query active memberships: %w", err)
	}

	return groupIDs, len(groupIDs) == pageSize, nil
}
