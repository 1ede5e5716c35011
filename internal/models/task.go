package models

import (
	"time"
)

type TaskStatus string

const (
	TaskStatusTodo       TaskStatus = "to-do"
	TaskStatusInProgress TaskStatus = "in-progress"
	TaskStatusReview     TaskStatus = "review"
	TaskStatusDone       TaskStatus = "done"
)

// Valid reports whether the status is one of the allowed values.
func (s TaskStatus) Valid() bool {
	switch s {
	case TaskStatusTodo, TaskStatusInProgress, TaskStatusReview, TaskStatusDone:
		return true
	}
	return false
}

type TaskPriority string

const (
	TaskPriorityLow    TaskPriority = "low"
	TaskPriorityMedium TaskPriority = "medium"
	TaskPriorityHigh   TaskPriority = "high"
)

// Valid reports whether the priority is one of the allowed values.
func (p TaskPriority) Valid() bool {
	switch p {
	case TaskPriorityLow, TaskPriorityMedium, TaskPriorityHigh:
		return true
	}
	return false
}

type Task struct {
	ID          uint64       `gorm:"primarykey" json:"id"`
	Title       string       `gorm:"type:varchar(35);not null" json:"title"`
	Description string       `gorm:"type:varchar(250)" json:"description"`
	BoardID     uint64       `gorm:"not null" json:"board_id"`
	AssigneeID  *uint64      `json:"assignee_id"`
	ReviewerID  *uint64      `json:"reviewer_id"`
	CreatedByID *uint64      `json:"created_by_id"`
	Status      TaskStatus   `gorm:"type:varchar(20);not null;default:'to-do'" json:"status"`
	Priority    TaskPriority `gorm:"type:varchar(20);not null;default:'medium'" json:"priority"`
	DueDate     *time.Time   `json:"due_date"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`

	// Relations
	Board     Board     `gorm:"foreignKey:BoardID" json:"board,omitempty"`
	Assignee  *User     `gorm:"foreignKey:AssigneeID" json:"assignee,omitempty"`
	Reviewer  *User     `gorm:"foreignKey:ReviewerID" json:"reviewer,omitempty"`
	CreatedBy *User     `gorm:"foreignKey:CreatedByID" json:"created_by,omitempty"`
	Comments  []Comment `gorm:"foreignKey:TaskID" json:"comments,omitempty"`
}
