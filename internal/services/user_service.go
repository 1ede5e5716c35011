package services

import (
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"gorm.io/gorm"

	"github.com/PaFunzFr/KanMind-backend/internal/authz"
	"github.com/PaFunzFr/KanMind-backend/internal/models"
	"github.com/PaFunzFr/KanMind-backend/internal/repository"
)

var ErrAdminRequired = errors.New("administrator privileges required")

// UserService provides user listing and admin-only user management.
type UserService struct {
	userRepo repository.UserRepository
}

// NewUserService creates a new UserService.
func NewUserService(userRepo repository.UserRepository) *UserService {
	return &UserService{
		userRepo: userRepo,
	}
}

// ListUsers returns a page of users.
func (s *UserService) ListUsers(page, pageSize int) ([]models.User, int64, error) {
	users, total, err := s.userRepo.List(page, pageSize)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list users: %w", err)
	}
	return users, total, nil
}

// GetUser returns a single user. Admin only.
func (s *UserService) GetUser(actor authz.Identity, id uint64) (*models.User, error) {
	if !actor.IsAdmin {
		return nil, ErrAdminRequired
	}

	user, err := s.userRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	return user, nil
}

// UpdateUserInput holds the updatable user fields.
type UpdateUserInput struct {
	Fullname *string
	Email    *string
	IsActive *bool
}

// UpdateUser updates a user's profile fields. Admin only.
func (s *UserService) UpdateUser(actor authz.Identity, id uint64, input UpdateUserInput) (*models.User, error) {
	if !actor.IsAdmin {
		return nil, ErrAdminRequired
	}

	user, err := s.userRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	if input.Fullname != nil {
		fullname := strings.TrimSpace(*input.Fullname)
		if fullname == "" {
			return nil, ErrFullnameRequired
		}
		user.Fullname = fullname
	}
	if input.Email != nil {
		email := strings.TrimSpace(strings.ToLower(*input.Email))
		if _, err := mail.ParseAddress(email); err != nil {
			return nil, ErrInvalidEmail
		}
		if other, err := s.userRepo.FindByEmail(email); err == nil && other.ID != user.ID {
			return nil, ErrEmailTaken
		} else if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("failed to check email: %w", err)
		}
		user.Email = email
	}
	if input.IsActive != nil {
		user.IsActive = *input.IsActive
	}

	if err := s.userRepo.Update(user); err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	return user, nil
}

// DeleteUser removes a user and every reference to them: owned boards go
// away entirely, assignee/reviewer/creator slots on other tasks are cleared,
// their comments are deleted. Admin only.
func (s *UserService) DeleteUser(actor authz.Identity, id uint64) error {
	if !actor.IsAdmin {
		return ErrAdminRequired
	}

	if _, err := s.userRepo.FindByID(id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to find user: %w", err)
	}

	if err := s.userRepo.Delete(id); err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}

	return nil
}
