package services

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/PaFunzFr/KanMind-backend/internal/authz"
	"github.com/PaFunzFr/KanMind-backend/internal/constants"
	"github.com/PaFunzFr/KanMind-backend/internal/models"
	"github.com/PaFunzFr/KanMind-backend/internal/repository"
)

var (
	ErrCommentNotFound     = errors.New("comment not found")
	ErrCommentAccessDenied = errors.New("only the comment's author can delete it")
	ErrEmptyComment        = errors.New("comment content cannot be empty")
	ErrCommentTooLong      = errors.New("comment content is too long")
)

// CommentService provides business logic for task comments.
type CommentService struct {
	commentRepo repository.CommentRepository
	taskRepo    repository.TaskRepository
	boardRepo   repository.BoardRepository
}

// NewCommentService creates a new CommentService.
func NewCommentService(commentRepo repository.CommentRepository, taskRepo repository.TaskRepository, boardRepo repository.BoardRepository) *CommentService {
	return &CommentService{
		commentRepo: commentRepo,
		taskRepo:    taskRepo,
		boardRepo:   boardRepo,
	}
}

// ListComments returns the task's comments, newest first. Non-members get an
// empty list, not an error; whether a task has discussion is hidden from
// outsiders.
func (s *CommentService) ListComments(actor authz.Identity, taskID uint64) ([]models.Comment, error) {
	task, err := s.findTask(taskID)
	if err != nil {
		return nil, err
	}

	if !actor.IsAdmin {
		isMember, err := s.boardRepo.IsMember(task.BoardID, actor.UserID)
		if err != nil {
			return nil, fmt.Errorf("failed to verify board membership: %w", err)
		}
		if !isMember {
			return []models.Comment{}, nil
		}
	}

	comments, err := s.commentRepo.ListByTask(taskID)
	if err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}

	return comments, nil
}

// CanComment reports whether the actor may comment on the task: board
// members and admins. The task must exist either way; admin rights never
// allow commenting on a task id that resolves to nothing.
func (s *CommentService) CanComment(actor authz.Identity, taskID uint64) (bool, error) {
	task, err := s.findTask(taskID)
	if err != nil {
		return false, err
	}

	if actor.IsAdmin {
		return true, nil
	}

	return s.boardRepo.IsMember(task.BoardID, actor.UserID)
}

// CreateComment adds a comment to the task, authored by the actor.
func (s *CommentService) CreateComment(actor authz.Identity, taskID uint64, content string) (*models.Comment, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, ErrEmptyComment
	}
	if len(content) > constants.MaxCommentLength {
		return nil, ErrCommentTooLong
	}

	allowed, err := s.CanComment(actor, taskID)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, ErrNotBoardMember
	}

	comment := &models.Comment{
		TaskID:   taskID,
		AuthorID: actor.UserID,
		Content:  content,
	}

	if err := s.commentRepo.Create(comment); err != nil {
		return nil, fmt.Errorf("failed to create comment: %w", err)
	}

	return s.commentRepo.FindByID(comment.ID)
}

// DeleteComment removes a comment of the task. Author or admin only.
func (s *CommentService) DeleteComment(actor authz.Identity, taskID, commentID uint64) error {
	comment, err := s.commentRepo.FindByID(commentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrCommentNotFound
		}
		return fmt.Errorf("failed to find comment: %w", err)
	}

	if comment.TaskID != taskID {
		return ErrCommentNotFound
	}

	if !authz.CanDeleteComment(actor, comment) {
		return ErrCommentAccessDenied
	}

	if err := s.commentRepo.Delete(commentID); err != nil {
		return fmt.Errorf("failed to delete comment: %w", err)
	}

	return nil
}

func (s *CommentService) findTask(taskID uint64) (*models.Task, error) {
	task, err := s.taskRepo.FindByID(taskID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to find task: %w", err)
	}
	return task, nil
}
