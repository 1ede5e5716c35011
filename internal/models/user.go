package models

import (
	"time"
)

type User struct {
	ID           uint64    `gorm:"primarykey" json:"id"`
	Email        string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	Fullname     string    `gorm:"type:varchar(150);not null" json:"fullname"`
	PasswordHash string    `gorm:"type:varchar(255);not null" json:"-"`
	IsActive     bool      `gorm:"not null;default:true" json:"is_active"`
	IsStaff      bool      `gorm:"not null;default:false" json:"-"`
	IsSuperuser  bool      `gorm:"not null;default:false" json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`

	// Relations
	OwnedBoards    []Board       `gorm:"foreignKey:OwnerID" json:"-"`
	Memberships    []BoardMember `gorm:"foreignKey:UserID" json:"-"`
	AssignedTasks  []Task        `gorm:"foreignKey:AssigneeID" json:"-"`
	ReviewingTasks []Task        `gorm:"foreignKey:ReviewerID" json:"-"`
	CreatedTasks   []Task        `gorm:"foreignKey:CreatedByID" json:"-"`
	Comments       []Comment     `gorm:"foreignKey:AuthorID" json:"-"`
}
