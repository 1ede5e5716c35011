package dto

import (
	"time"

	"github.com/PaFunzFr/KanMind-backend/internal/models"
)

// TaskDTO represents a task in API responses. Assignee and reviewer are
// expanded when preloaded; the *_id fields stay usable either way.
type TaskDTO struct {
	ID            uint64              `json:"id"`
	Title         string              `json:"title"`
	Description   string              `json:"description"`
	BoardID       uint64              `json:"board_id"`
	Status        models.TaskStatus   `json:"status"`
	Priority      models.TaskPriority `json:"priority"`
	AssigneeID    *uint64             `json:"assignee_id"`
	ReviewerID    *uint64             `json:"reviewer_id"`
	CreatedByID   *uint64             `json:"created_by_id"`
	DueDate       *time.Time          `json:"due_date"`
	CommentsCount int                 `json:"comments_count"`
	CreatedAt     time.Time           `json:"created_at"`
	UpdatedAt     time.Time           `json:"updated_at"`
	Assignee      *UserDTO            `json:"assignee,omitempty"`
	Reviewer      *UserDTO            `json:"reviewer,omitempty"`
}

// TaskListResponse represents a paginated list of tasks
type TaskListResponse struct {
	Tasks      []TaskDTO `json:"tasks"`
	Page       int       `json:"page"`
	PageSize   int       `json:"page_size"`
	TotalCount int64     `json:"total_count"`
}

// ToTaskDTO converts a Task model to TaskDTO
func ToTaskDTO(task models.Task) TaskDTO {
	dto := TaskDTO{
		ID:            task.ID,
		Title:         task.Title,
		Description:   task.Description,
		BoardID:       task.BoardID,
		Status:        task.Status,
		Priority:      task.Priority,
		AssigneeID:    task.AssigneeID,
		ReviewerID:    task.ReviewerID,
		CreatedByID:   task.CreatedByID,
		DueDate:       task.DueDate,
		CommentsCount: len(task.Comments),
		CreatedAt:     task.CreatedAt,
		UpdatedAt:     task.UpdatedAt,
	}

	if task.Assignee != nil {
		assignee := ToUserDTO(*task.Assignee)
		dto.Assignee = &assignee
	}
	if task.Reviewer != nil {
		reviewer := ToUserDTO(*task.Reviewer)
		dto.Reviewer = &reviewer
	}

	return dto
}

// ToTaskListResponse converts a slice of tasks to TaskListResponse
func ToTaskListResponse(tasks []models.Task, page, pageSize int, totalCount int64) TaskListResponse {
	items := make([]TaskDTO, len(tasks))
	for i, task := range tasks {
		items[i] = ToTaskDTO(task)
	}

	return TaskListResponse{
		Tasks:      items,
		Page:       page,
		PageSize:   pageSize,
		TotalCount: totalCount,
	}
}
