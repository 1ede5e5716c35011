package models

import (
	"time"
)

type Board struct {
	ID        uint64    `gorm:"primarykey" json:"id"`
	Title     string    `gorm:"type:varchar(25);uniqueIndex;not null" json:"title"`
	OwnerID   uint64    `gorm:"not null" json:"owner_id"`
	CreatedAt time.Time `json:"created_at"`

	// Relations
	Owner   User          `gorm:"foreignKey:OwnerID" json:"owner,omitempty"`
	Members []BoardMember `gorm:"foreignKey:BoardID" json:"members,omitempty"`
	Tasks   []Task        `gorm:"foreignKey:BoardID" json:"tasks,omitempty"`
}

// HasMember reports whether the user is in the board's member set.
// Members must be preloaded.
func (b *Board) HasMember(userID uint64) bool {
	for _, m := range b.Members {
		if m.UserID == userID {
			return true
		}
	}
	return false
}

// MemberIDs returns the ids of the board's preloaded members.
func (b *Board) MemberIDs() []uint64 {
	ids := make([]uint64, 0, len(b.Members))
	for _, m := range b.Members {
		ids = append(ids, m.UserID)
	}
	return ids
}
