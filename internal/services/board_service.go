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
	ErrBoardNotFound      = errors.New("board not found")
	ErrInvalidBoardTitle  = errors.New("board title cannot be empty")
	ErrBoardTitleTooLong  = errors.New("board title is too long")
	ErrDuplicateTitle     = errors.New("a board with this title already exists")
	ErrBoardAccessDenied  = errors.New("access to this board is denied")
	ErrUnknownBoardMember = errors.New("one or more member IDs do not exist")
)

// BoardService provides business logic for board operations.
type BoardService struct {
	boardRepo repository.BoardRepository
	userRepo  repository.UserRepository
}

// NewBoardService creates a new BoardService.
func NewBoardService(boardRepo repository.BoardRepository, userRepo repository.UserRepository) *BoardService {
	return &BoardService{
		boardRepo: boardRepo,
		userRepo:  userRepo,
	}
}

// CreateBoardInput represents parameters to create a new board.
type CreateBoardInput struct {
	Title     string
	MemberIDs []uint64
}

// CreateBoard creates a board owned by the actor. The actor is always part
// of the initial member set, whether or not they listed themselves.
func (s *BoardService) CreateBoard(actor authz.Identity, input CreateBoardInput) (*models.Board, error) {
	title, err := s.validateTitle(input.Title)
	if err != nil {
		return nil, err
	}

	if _, err := s.boardRepo.FindByTitle(title); err == nil {
		return nil, ErrDuplicateTitle
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check board title: %w", err)
	}

	memberIDs := uniqueUint64(append(input.MemberIDs, actor.UserID))

	count, err := s.userRepo.CountByIDs(memberIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to verify members: %w", err)
	}
	if int(count) != len(memberIDs) {
		return nil, ErrUnknownBoardMember
	}

	board := &models.Board{
		Title:   title,
		OwnerID: actor.UserID,
	}

	if err := s.boardRepo.CreateWithMembers(board, memberIDs); err != nil {
		return nil, fmt.Errorf("failed to create board: %w", err)
	}

	return s.boardRepo.FindByID(board.ID, "Members", "Members.User", "Tasks")
}

// ListBoards returns the boards visible to the actor: owned boards plus
// member boards, every board for admins.
func (s *BoardService) ListBoards(actor authz.Identity) ([]models.Board, error) {
	boards, err := s.boardRepo.ListVisible(actor.UserID, actor.IsAdmin)
	if err != nil {
		return nil, fmt.Errorf("failed to list boards: %w", err)
	}
	return boards, nil
}

// GetBoard returns a board with members and tasks if the actor may read it.
func (s *BoardService) GetBoard(actor authz.Identity, boardID uint64) (*models.Board, error) {
	board, err := s.findBoard(boardID)
	if err != nil {
		return nil, err
	}

	if !authz.CanAccessBoard(actor, board, authz.ActionRead) {
		return nil, ErrBoardAccessDenied
	}

	return board, nil
}

// UpdateBoardInput represents a (possibly partial) board update.
type UpdateBoardInput struct {
	Title     *string
	MemberIDs []uint64 // nil leaves the member set untouched
}

// UpdateBoard updates the title and/or replaces the member set. Replacing
// members reconciles task assignments: removed members are cleared from the
// assignee and reviewer slots of this board's tasks, atomically with the
// membership write.
func (s *BoardService) UpdateBoard(actor authz.Identity, boardID uint64, input UpdateBoardInput) (*models.Board, error) {
	board, err := s.findBoard(boardID)
	if err != nil {
		return nil, err
	}

	if !authz.CanAccessBoard(actor, board, authz.ActionWrite) {
		return nil, ErrBoardAccessDenied
	}

	if input.Title != nil {
		title, err := s.validateTitle(*input.Title)
		if err != nil {
			return nil, err
		}
		if other, err := s.boardRepo.FindByTitle(title); err == nil && other.ID != board.ID {
			return nil, ErrDuplicateTitle
		} else if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("failed to check board title: %w", err)
		}
		board.Title = title
	}

	memberIDs := input.MemberIDs
	if memberIDs != nil {
		memberIDs = uniqueUint64(memberIDs)
		count, err := s.userRepo.CountByIDs(memberIDs)
		if err != nil {
			return nil, fmt.Errorf("failed to verify members: %w", err)
		}
		if int(count) != len(memberIDs) {
			return nil, ErrUnknownBoardMember
		}
	}

	if err := s.boardRepo.UpdateWithMembers(board, memberIDs); err != nil {
		return nil, fmt.Errorf("failed to update board: %w", err)
	}

	return s.boardRepo.FindByID(board.ID, "Owner", "Members", "Members.User", "Tasks")
}

// DeleteBoard removes a board with all of its tasks. Owner or admin only.
func (s *BoardService) DeleteBoard(actor authz.Identity, boardID uint64) error {
	board, err := s.findBoard(boardID)
	if err != nil {
		return err
	}

	if !authz.CanAccessBoard(actor, board, authz.ActionDelete) {
		return ErrBoardAccessDenied
	}

	if err := s.boardRepo.Delete(boardID); err != nil {
		return fmt.Errorf("failed to delete board: %w", err)
	}

	return nil
}

func (s *BoardService) findBoard(boardID uint64) (*models.Board, error) {
	board, err := s.boardRepo.FindByID(boardID, "Members", "Members.User", "Tasks")
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBoardNotFound
		}
		return nil, fmt.Errorf("failed to find board: %w", err)
	}
	return board, nil
}

func (s *BoardService) validateTitle(title string) (string, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return "", ErrInvalidBoardTitle
	}
	if len(title) > constants.MaxBoardTitleLength {
		return "", ErrBoardTitleTooLong
	}
	return title, nil
}

// uniqueUint64 removes duplicate values from a slice of uint64
func uniqueUint64(values []uint64) []uint64 {
	seen := make(map[uint64]struct{}, len(values))
	result := make([]uint64, 0, len(values))

	for _, v := range values {
		if _, exists := seen[v]; exists {
			continue
		}
		seen[v] = struct{}{}
		result = append(result, v)
	}

	return result
}
