// Package directory implements the persistence-side collaborators the
// realtime layer consumes: the user directory (online flag, last seen) and
// the membership directory (active group memberships). The tables belong
// to the CRUD service; this layer only reads memberships and writes the
// presence columns.
package directory

import "time"

// User maps the users table. Only the presence columns are written here.
type User struct {
	ID          string     `gorm:"column:id;primaryKey"`
	ProfileID   string     `gorm:"column:profile_id;uniqueIndex"`
	Username    string     `gorm:"column:username"`
	DisplayName *string    `gorm:"column:display_name"`
	AvatarURL   *string    `gorm:"column:avatar_url"`
	IsOnline    bool       `gorm:"column:is_online"`
	LastSeenAt  *time.Time `gorm:"column:last_seen_at"`
	IsActive    bool       `gorm:"column:is_active"`
	CreatedAt   time.Time  `gorm:"column:created_at"`
	UpdatedAt   time.Time  `gorm:"column:updated_at"`
}

func (User) TableName() string { return "users" }

// GroupMember maps the group_members table.
type GroupMember struct {
	ID                string     `gorm:"column:id;primaryKey"`
	GroupID           string     `gorm:"column:group_id;index"`
	ProfileID         string     `gorm:"column:profile_id;index"`
	Role              string     `gorm:"column:role"`
	Status            string     `gorm:"column:status"`
	Nickname          *string    `gorm:"column:nickname"`
	LastReadMessageID *string    `gorm:"column:last_read_message_id"`
	UnreadCount       int        `gorm:"column:unread_count"`
	MutedUntil        *time.Time `gorm:"column:muted_until"`
	JoinedAt          time.Time  `gorm:"column:joined_at"`
	UpdatedAt         time.Time  `gorm:"column:updated_at"`
}

func (GroupMember) TableName() string { return "group_members" }

// MemberStatusActive is the only membership status that auto-joins.
const MemberStatusActive = "active"
