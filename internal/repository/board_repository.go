package repository

import (
	"time"

	"gorm.io/gorm"

	"github.com/PaFunzFr/KanMind-backend/internal/authz"
	"github.com/PaFunzFr/KanMind-backend/internal/models"
)

// GormBoardRepository is a GORM implementation of BoardRepository
type GormBoardRepository struct {
	db *gorm.DB
}

// NewBoardRepository creates a new BoardRepository
func NewBoardRepository(db *gorm.DB) BoardRepository {
	return &GormBoardRepository{db: db}
}

// CreateWithMembers creates a board and its initial member set atomically
func (r *GormBoardRepository) CreateWithMembers(board *models.Board, memberIDs []uint64) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(board).Error; err != nil {
			return err
		}

		if len(memberIDs) == 0 {
			return nil
		}

		now := time.Now()
		members := make([]models.BoardMember, len(memberIDs))
		for i, userID := range memberIDs {
			members[i] = models.BoardMember{
				BoardID:  board.ID,
				UserID:   userID,
				JoinedAt: now,
			}
		}

		return tx.Create(&members).Error
	})
}

// FindByID finds a board by ID with optional preloading
func (r *GormBoardRepository) FindByID(id uint64, preload ...string) (*models.Board, error) {
	var board models.Board
	query := r.db

	for _, p := range preload {
		query = query.Preload(p)
	}

	if err := query.First(&board, id).Error; err != nil {
		return nil, err
	}

	return &board, nil
}

// FindByTitle finds a board by its title
func (r *GormBoardRepository) FindByTitle(title string) (*models.Board, error) {
	var board models.Board
	if err := r.db.Where("title = ?", title).First(&board).Error; err != nil {
		return nil, err
	}
	return &board, nil
}

// ListVisible returns boards the user owns or is a member of (admins see all),
// deduplicated and with members and tasks preloaded for the summary counts.
func (r *GormBoardRepository) ListVisible(userID uint64, isAdmin bool) ([]models.Board, error) {
	var boards []models.Board

	query := r.db.Model(&models.Board{}).
		Preload("Members").
		Preload("Tasks").
		Order("boards.created_at ASC")

	if !isAdmin {
		membershipSubQuery := r.db.Model(&models.BoardMember{}).
			Select("1").
			Where("board_members.board_id = boards.id").
			Where("board_members.user_id = ?", userID)
		query = query.Where("boards.owner_id = ? OR EXISTS (?)", userID, membershipSubQuery)
	}

	if err := query.Find(&boards).Error; err != nil {
		return nil, err
	}

	return boards, nil
}

// UpdateWithMembers saves the board and reconciles task assignments inside a
// single transaction: after replacing the member set, any task of this board
// whose assignee or reviewer was removed has that field cleared. Either the
// whole update applies or none of it does.
func (r *GormBoardRepository) UpdateWithMembers(board *models.Board, memberIDs []uint64) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var oldIDs []uint64
		if err := tx.Model(&models.BoardMember{}).
			Where("board_id = ?", board.ID).
			Pluck("user_id", &oldIDs).Error; err != nil {
			return err
		}

		if err := tx.Model(&models.Board{}).
			Where("id = ?", board.ID).
			Update("title", board.Title).Error; err != nil {
			return err
		}

		if memberIDs == nil {
			return nil
		}

		if err := tx.Where("board_id = ?", board.ID).
			Delete(&models.BoardMember{}).Error; err != nil {
			return err
		}

		if len(memberIDs) > 0 {
			now := time.Now()
			members := make([]models.BoardMember, len(memberIDs))
			for i, userID := range memberIDs {
				members[i] = models.BoardMember{
					BoardID:  board.ID,
					UserID:   userID,
					JoinedAt: now,
				}
			}
			if err := tx.Create(&members).Error; err != nil {
				return err
			}
		}

		removed := authz.RemovedMembers(oldIDs, memberIDs)
		if len(removed) == 0 {
			return nil
		}

		// Assignee and reviewer are cleared independently: a user removed
		// while holding both roles loses both.
		if err := tx.Model(&models.Task{}).
			Where("board_id = ? AND assignee_id IN ?", board.ID, removed).
			Update("assignee_id", nil).Error; err != nil {
			return err
		}

		return tx.Model(&models.Task{}).
			Where("board_id = ? AND reviewer_id IN ?", board.ID, removed).
			Update("reviewer_id", nil).Error
	})
}

// Delete removes a board and all related data in a transaction
func (r *GormBoardRepository) Delete(id uint64) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		commentSubQuery := tx.Model(&models.Task{}).
			Select("id").
			Where("board_id = ?", id)
		if err := tx.Where("task_id IN (?)", commentSubQuery).
			Delete(&models.Comment{}).Error; err != nil {
			return err
		}

		if err := tx.Where("board_id = ?", id).Delete(&models.Task{}).Error; err != nil {
			return err
		}

		if err := tx.Where("board_id = ?", id).Delete(&models.BoardMember{}).Error; err != nil {
			return err
		}

		return tx.Delete(&models.Board{}, id).Error
	})
}

// IsMember reports whether the user is a member of the board
func (r *GormBoardRepository) IsMember(boardID, userID uint64) (bool, error) {
	var count int64
	err := r.db.Model(&models.BoardMember{}).
		Where("board_id = ? AND user_id = ?", boardID, userID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// CountMembers counts how many of the given user IDs are members of the board
func (r *GormBoardRepository) CountMembers(boardID uint64, userIDs []uint64) (int64, error) {
	if len(userIDs) == 0 {
		return 0, nil
	}

	var count int64
	err := r.db.Model(&models.BoardMember{}).
		Where("board_id = ? AND user_id IN ?", boardID, userIDs).
		Count(&count).Error

	return count, err
}
