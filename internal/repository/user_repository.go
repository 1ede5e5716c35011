package repository

import (
	"gorm.io/gorm"

	"github.com/PaFunzFr/KanMind-backend/internal/database"
	"github.com/PaFunzFr/KanMind-backend/internal/models"
	"github.com/PaFunzFr/KanMind-backend/internal/utils"
)

// GormUserRepository is a GORM implementation of UserRepository
type GormUserRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new UserRepository
func NewUserRepository(db *gorm.DB) UserRepository {
	return &GormUserRepository{db: db}
}

// Create creates a new user
func (r *GormUserRepository) Create(user *models.User) error {
	return r.db.Create(user).Error
}

// FindByID finds a user by ID
func (r *GormUserRepository) FindByID(id uint64) (*models.User, error) {
	var user models.User
	if err := r.db.First(&user, id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByEmail finds a user by email
func (r *GormUserRepository) FindByEmail(email string) (*models.User, error) {
	var user models.User
	if err := r.db.Where("email = ?", email).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// List retrieves users with pagination
func (r *GormUserRepository) List(page, pageSize int) ([]models.User, int64, error) {
	var users []models.User

	var total int64
	if err := r.db.Model(&models.User{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query := r.db.Order("id ASC")
	if page > 0 && pageSize > 0 {
		query = query.Scopes(database.Paginate(utils.PaginationParams{
			Offset: (page - 1) * pageSize,
			Limit:  pageSize,
		}))
	}

	if err := query.Find(&users).Error; err != nil {
		return nil, 0, err
	}

	return users, total, nil
}

// Update updates a user
func (r *GormUserRepository) Update(user *models.User) error {
	return r.db.Save(user).Error
}

// Delete removes a user and repairs every reference to them in one
// transaction. Boards the user owns disappear with their tasks and comments;
// on surviving tasks the user's assignee/reviewer/creator slots are cleared.
func (r *GormUserRepository) Delete(id uint64) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var ownedBoardIDs []uint64
		if err := tx.Model(&models.Board{}).
			Where("owner_id = ?", id).
			Pluck("id", &ownedBoardIDs).Error; err != nil {
			return err
		}

		if len(ownedBoardIDs) > 0 {
			taskSubQuery := tx.Model(&models.Task{}).
				Select("id").
				Where("board_id IN ?", ownedBoardIDs)
			if err := tx.Where("task_id IN (?)", taskSubQuery).
				Delete(&models.Comment{}).Error; err != nil {
				return err
			}
			if err := tx.Where("board_id IN ?", ownedBoardIDs).
				Delete(&models.Task{}).Error; err != nil {
				return err
			}
			if err := tx.Where("board_id IN ?", ownedBoardIDs).
				Delete(&models.BoardMember{}).Error; err != nil {
				return err
			}
			if err := tx.Delete(&models.Board{}, ownedBoardIDs).Error; err != nil {
				return err
			}
		}

		// Surviving tasks keep running, just without this user attached.
		if err := tx.Model(&models.Task{}).
			Where("assignee_id = ?", id).
			Update("assignee_id", nil).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.Task{}).
			Where("reviewer_id = ?", id).
			Update("reviewer_id", nil).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.Task{}).
			Where("created_by_id = ?", id).
			Update("created_by_id", nil).Error; err != nil {
			return err
		}

		if err := tx.Where("author_id = ?", id).Delete(&models.Comment{}).Error; err != nil {
			return err
		}

		if err := tx.Where("user_id = ?", id).Delete(&models.BoardMember{}).Error; err != nil {
			return err
		}

		return tx.Delete(&models.User{}, id).Error
	})
}

// CountByIDs counts how many of the given user IDs exist
func (r *GormUserRepository) CountByIDs(ids []uint64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	var count int64
	err := r.db.Model(&models.User{}).
		Where("id IN ?", ids).
		Count(&count).Error

	return count, err
}
