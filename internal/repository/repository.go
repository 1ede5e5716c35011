package repository

import (
	"github.com/PaFunzFr/KanMind-backend/internal/models"
)

// UserRepository defines the interface for user data access
type UserRepository interface {
	// Create creates a new user
	Create(user *models.User) error

	// FindByID finds a user by ID
	FindByID(id uint64) (*models.User, error)

	// FindByEmail finds a user by email
	FindByEmail(email string) (*models.User, error)

	// List retrieves users with pagination
	List(page, pageSize int) ([]models.User, int64, error)

	// Update updates a user
	Update(user *models.User) error

	// Delete removes a user and repairs every reference to them:
	// boards they own are deleted (with their tasks and comments),
	// assignee/reviewer/creator slots on other tasks are cleared, and
	// their comments and memberships are removed. One transaction.
	Delete(id uint64) error

	// CountByIDs counts how many of the given user IDs exist
	CountByIDs(ids []uint64) (int64, error)
}

// BoardRepository defines the interface for board data access
type BoardRepository interface {
	// CreateWithMembers creates a board and its initial member set atomically
	CreateWithMembers(board *models.Board, memberIDs []uint64) error

	// FindByID finds a board by ID with optional preloading
	FindByID(id uint64, preload ...string) (*models.Board, error)

	// FindByTitle finds a board by its (globally unique) title
	FindByTitle(title string) (*models.Board, error)

	// ListVisible returns boards the user owns or is a member of;
	// admins see every board
	ListVisible(userID uint64, isAdmin bool) ([]models.Board, error)

	// UpdateWithMembers persists title changes, replaces the member set,
	// and clears assignee/reviewer on tasks of removed members, all in
	// one transaction. A nil memberIDs leaves the member set untouched.
	UpdateWithMembers(board *models.Board, memberIDs []uint64) error

	// Delete removes a board, its memberships, its tasks, and their
	// comments in one transaction
	Delete(id uint64) error

	// IsMember reports whether the user is a member of the board
	IsMember(boardID, userID uint64) (bool, error)

	// CountMembers counts how many of the given user IDs are members
	CountMembers(boardID uint64, userIDs []uint64) (int64, error)
}

// TaskFilter holds filtering options for listing tasks
type TaskFilter struct {
	// All bypasses board scoping (admin listings)
	All        bool
	BoardIDs   []uint64
	Status     *models.TaskStatus
	Priority   *models.TaskPriority
	AssigneeID *uint64
	ReviewerID *uint64
	Page       int
	PageSize   int
}

// TaskRepository defines the interface for task data access
type TaskRepository interface {
	// Create creates a new task
	Create(task *models.Task) error

	// FindByID finds a task by ID with optional preloading
	FindByID(id uint64, preload ...string) (*models.Task, error)

	// List retrieves tasks with filtering and pagination
	List(filter TaskFilter) ([]models.Task, int64, error)

	// Update updates a task
	Update(task *models.Task) error

	// Delete removes a task and its comments in one transaction
	Delete(id uint64) error
}

// CommentRepository defines the interface for comment data access
type CommentRepository interface {
	// Create creates a new comment
	Create(comment *models.Comment) error

	// FindByID finds a comment by ID
	FindByID(id uint64) (*models.Comment, error)

	// ListByTask lists a task's comments, newest first
	ListByTask(taskID uint64) ([]models.Comment, error)

	// Delete removes a comment
	Delete(id uint64) error
}
