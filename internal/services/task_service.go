package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/PaFunzFr/KanMind-backend/internal/authz"
	"github.com/PaFunzFr/KanMind-backend/internal/constants"
	"github.com/PaFunzFr/KanMind-backend/internal/models"
	"github.com/PaFunzFr/KanMind-backend/internal/repository"
)

var (
	ErrTaskNotFound        = errors.New("task not found")
	ErrTaskAccessDenied    = errors.New("access to this task is denied")
	ErrNotBoardMember      = errors.New("user is not a member of the board")
	ErrTitleRequired       = errors.New("title is required")
	ErrTitleTooLong        = errors.New("title is too long")
	ErrDescriptionTooLong  = errors.New("description is too long")
	ErrInvalidStatus       = errors.New("invalid task status")
	ErrInvalidPriority     = errors.New("invalid task priority")
	ErrInvalidAssignment   = errors.New("assignee and reviewer must be members of the task's board")
	ErrAINotConfigured     = errors.New("AI service is not configured")
	ErrAINoTasksSuggested  = errors.New("AI did not suggest any tasks")
	ErrAINoValidTasks      = errors.New("no valid tasks could be built from AI output")
)

// TaskService handles task business logic
type TaskService struct {
	taskRepo  repository.TaskRepository
	boardRepo repository.BoardRepository
	aiService *AIService
}

// NewTaskService creates a new TaskService
func NewTaskService(taskRepo repository.TaskRepository, boardRepo repository.BoardRepository, aiService *AIService) *TaskService {
	return &TaskService{
		taskRepo:  taskRepo,
		boardRepo: boardRepo,
		aiService: aiService,
	}
}

// ListTasksInput represents filters for listing tasks
type ListTasksInput struct {
	BoardID  *uint64
	Status   *models.TaskStatus
	Priority *models.TaskPriority
	Page     int
	PageSize int
}

// ListTasks returns the tasks visible to the actor: tasks on boards where the
// actor is a member, or every task for admins.
func (s *TaskService) ListTasks(actor authz.Identity, input ListTasksInput) ([]models.Task, int64, error) {
	filter := repository.TaskFilter{
		Status:   input.Status,
		Priority: input.Priority,
		Page:     input.Page,
		PageSize: input.PageSize,
	}

	if input.BoardID != nil {
		if !actor.IsAdmin {
			if err := s.ensureBoardMember(*input.BoardID, actor); err != nil {
				return nil, 0, err
			}
		}
		filter.BoardIDs = []uint64{*input.BoardID}
	} else if actor.IsAdmin {
		filter.All = true
	} else {
		boards, err := s.boardRepo.ListVisible(actor.UserID, false)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to resolve visible boards: %w", err)
		}
		boardIDs := make([]uint64, 0, len(boards))
		for _, b := range boards {
			// Visibility for tasks follows membership, not ownership.
			if b.HasMember(actor.UserID) {
				boardIDs = append(boardIDs, b.ID)
			}
		}
		if len(boardIDs) == 0 {
			return []models.Task{}, 0, nil
		}
		filter.BoardIDs = boardIDs
	}

	tasks, total, err := s.taskRepo.List(filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list tasks: %w", err)
	}

	return tasks, total, nil
}

// ListAssigned returns tasks where the actor is the assignee. No membership
// re-check is needed: the mutation guard keeps assignees inside the board.
func (s *TaskService) ListAssigned(actor authz.Identity, page, pageSize int) ([]models.Task, int64, error) {
	return s.taskRepo.List(repository.TaskFilter{
		All:        true,
		AssigneeID: &actor.UserID,
		Page:       page,
		PageSize:   pageSize,
	})
}

// ListReviewing returns tasks where the actor is the reviewer.
func (s *TaskService) ListReviewing(actor authz.Identity, page, pageSize int) ([]models.Task, int64, error) {
	return s.taskRepo.List(repository.TaskFilter{
		All:        true,
		ReviewerID: &actor.UserID,
		Page:       page,
		PageSize:   pageSize,
	})
}

// GetTask returns a task with related data if the actor may read it.
func (s *TaskService) GetTask(actor authz.Identity, taskID uint64) (*models.Task, error) {
	task, err := s.findTask(taskID)
	if err != nil {
		return nil, err
	}

	if !authz.CanAccessTask(actor, task, authz.ActionRead) {
		return nil, ErrTaskAccessDenied
	}

	return task, nil
}

// CanCreateOnBoard reports whether the actor may create tasks on the board.
// Creation requires actual membership; ownership or admin rights alone do
// not qualify.
func (s *TaskService) CanCreateOnBoard(actor authz.Identity, boardID uint64) (bool, error) {
	return s.boardRepo.IsMember(boardID, actor.UserID)
}

// CreateTaskInput represents input for creating a task
type CreateTaskInput struct {
	Title       string
	Description string
	BoardID     uint64
	AssigneeID  *uint64
	ReviewerID  *uint64
	Status      models.TaskStatus
	Priority    models.TaskPriority
	DueDate     *time.Time
}

// CreateTask creates a new task after the membership gate and the
// assignment guard have both passed.
func (s *TaskService) CreateTask(actor authz.Identity, input CreateTaskInput) (*models.Task, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, ErrTitleRequired
	}
	if len(title) > constants.MaxTaskTitleLength {
		return nil, ErrTitleTooLong
	}
	if len(input.Description) > constants.MaxDescriptionLength {
		return nil, ErrDescriptionTooLong
	}

	allowed, err := s.CanCreateOnBoard(actor, input.BoardID)
	if err != nil {
		return nil, fmt.Errorf("failed to verify board membership: %w", err)
	}
	if !allowed {
		return nil, ErrNotBoardMember
	}

	if input.Status == "" {
		input.Status = models.TaskStatusTodo
	}
	if !input.Status.Valid() {
		return nil, ErrInvalidStatus
	}
	if input.Priority == "" {
		input.Priority = models.TaskPriorityMedium
	}
	if !input.Priority.Valid() {
		return nil, ErrInvalidPriority
	}

	if err := s.validateAssignment(input.AssigneeID, input.ReviewerID, input.BoardID); err != nil {
		return nil, err
	}

	creatorID := actor.UserID
	task := &models.Task{
		Title:       title,
		Description: input.Description,
		BoardID:     input.BoardID,
		AssigneeID:  input.AssigneeID,
		ReviewerID:  input.ReviewerID,
		CreatedByID: &creatorID,
		Status:      input.Status,
		Priority:    input.Priority,
		DueDate:     input.DueDate,
	}

	if err := s.taskRepo.Create(task); err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	return s.findTask(task.ID)
}

// UpdateTaskInput represents a partial task update. The Clear flags
// distinguish "set to none" from "not supplied".
type UpdateTaskInput struct {
	Title         *string
	Description   *string
	Status        *models.TaskStatus
	Priority      *models.TaskPriority
	DueDate       *time.Time
	ClearDueDate  bool
	AssigneeID    *uint64
	ClearAssignee bool
	ReviewerID    *uint64
	ClearReviewer bool
}

// UpdateTask applies a partial update. The assignment guard runs on the
// effective state: untouched assignee/reviewer are still revalidated against
// the task's board.
func (s *TaskService) UpdateTask(actor authz.Identity, taskID uint64, input UpdateTaskInput) (*models.Task, error) {
	task, err := s.findTask(taskID)
	if err != nil {
		return nil, err
	}

	if !authz.CanAccessTask(actor, task, authz.ActionWrite) {
		return nil, ErrTaskAccessDenied
	}

	if input.Title != nil {
		title := strings.TrimSpace(*input.Title)
		if title == "" {
			return nil, ErrTitleRequired
		}
		if len(title) > constants.MaxTaskTitleLength {
			return nil, ErrTitleTooLong
		}
		task.Title = title
	}
	if input.Description != nil {
		if len(*input.Description) > constants.MaxDescriptionLength {
			return nil, ErrDescriptionTooLong
		}
		task.Description = *input.Description
	}
	if input.Status != nil {
		if !input.Status.Valid() {
			return nil, ErrInvalidStatus
		}
		task.Status = *input.Status
	}
	if input.Priority != nil {
		if !input.Priority.Valid() {
			return nil, ErrInvalidPriority
		}
		task.Priority = *input.Priority
	}
	if input.ClearDueDate {
		task.DueDate = nil
	} else if input.DueDate != nil {
		task.DueDate = input.DueDate
	}

	if input.ClearAssignee {
		task.AssigneeID = nil
	} else if input.AssigneeID != nil {
		task.AssigneeID = input.AssigneeID
	}
	if input.ClearReviewer {
		task.ReviewerID = nil
	} else if input.ReviewerID != nil {
		task.ReviewerID = input.ReviewerID
	}

	if err := s.validateAssignment(task.AssigneeID, task.ReviewerID, task.BoardID); err != nil {
		return nil, err
	}

	// Save the bare record; preloaded relations stay out of the write.
	updated := *task
	updated.Board = models.Board{}
	updated.Assignee = nil
	updated.Reviewer = nil
	updated.CreatedBy = nil
	updated.Comments = nil

	if err := s.taskRepo.Update(&updated); err != nil {
		return nil, fmt.Errorf("failed to update task: %w", err)
	}

	return s.findTask(task.ID)
}

// DeleteTask deletes a task. Creator, board owner, or admin only; the
// creator keeps this right even after leaving the board.
func (s *TaskService) DeleteTask(actor authz.Identity, taskID uint64) error {
	task, err := s.findTask(taskID)
	if err != nil {
		return err
	}

	if !authz.CanAccessTask(actor, task, authz.ActionDelete) {
		return ErrTaskAccessDenied
	}

	if err := s.taskRepo.Delete(taskID); err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}

	return nil
}

// SuggestTasksInput represents input for AI task suggestion
type SuggestTasksInput struct {
	Text    string
	BoardID uint64
}

// SuggestTasks uses AI to suggest tasks for a board from free text. The
// actor must be a member of the board; suggestions are not persisted.
func (s *TaskService) SuggestTasks(ctx context.Context, actor authz.Identity, input SuggestTasksInput) ([]SuggestedTask, error) {
	if s.aiService == nil {
		return nil, ErrAINotConfigured
	}

	if err := s.ensureBoardMember(input.BoardID, actor); err != nil {
		return nil, err
	}

	suggested, err := s.aiService.SuggestTasksFromText(ctx, input.Text)
	if err != nil {
		return nil, fmt.Errorf("failed to suggest tasks: %w", err)
	}

	if len(suggested) == 0 {
		return nil, ErrAINoTasksSuggested
	}
	if len(suggested) > constants.MaxAISuggestedTasks {
		suggested = suggested[:constants.MaxAISuggestedTasks]
	}

	valid := make([]SuggestedTask, 0, len(suggested))
	cutoff := time.Now().Add(-24 * time.Hour)
	for _, task := range suggested {
		if strings.TrimSpace(task.Title) == "" {
			continue
		}
		if task.DueDate != nil && task.DueDate.Before(cutoff) {
			task.DueDate = nil
		}
		valid = append(valid, task)
	}

	if len(valid) == 0 {
		return nil, ErrAINoValidTasks
	}

	return valid, nil
}

// validateAssignment checks the effective assignee and reviewer against the
// effective board's member set. Shared by create and update.
func (s *TaskService) validateAssignment(assigneeID, reviewerID *uint64, boardID uint64) error {
	ids := make([]uint64, 0, 2)
	if assigneeID != nil {
		ids = append(ids, *assigneeID)
	}
	if reviewerID != nil && (assigneeID == nil || *reviewerID != *assigneeID) {
		ids = append(ids, *reviewerID)
	}
	if len(ids) == 0 {
		return nil
	}

	count, err := s.boardRepo.CountMembers(boardID, ids)
	if err != nil {
		return fmt.Errorf("failed to verify board membership: %w", err)
	}
	if int(count) != len(ids) {
		return ErrInvalidAssignment
	}

	return nil
}

func (s *TaskService) ensureBoardMember(boardID uint64, actor authz.Identity) error {
	isMember, err := s.boardRepo.IsMember(boardID, actor.UserID)
	if err != nil {
		return fmt.Errorf("failed to verify board membership: %w", err)
	}
	if !isMember {
		return ErrNotBoardMember
	}
	return nil
}

func (s *TaskService) findTask(taskID uint64) (*models.Task, error) {
	task, err := s.taskRepo.FindByID(taskID,
		"Board", "Board.Members", "Assignee", "Reviewer", "CreatedBy", "Comments")
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to find task: %w", err)
	}
	return task, nil
}
