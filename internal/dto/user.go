package dto

import (
	"github.com/PaFunzFr/KanMind-backend/internal/models"
)

// UserDTO represents a user in API responses
type UserDTO struct {
	ID       uint64 `json:"id"`
	Email    string `json:"email"`
	Fullname string `json:"fullname"`
}

// UserDetailDTO adds the account state for admin views
type UserDetailDTO struct {
	UserDTO
	IsActive bool `json:"is_active"`
}

// ToUserDTO converts a User model to UserDTO
func ToUserDTO(user models.User) UserDTO {
	return UserDTO{
		ID:       user.ID,
		Email:    user.Email,
		Fullname: user.Fullname,
	}
}

// ToUserDetailDTO converts a User model to UserDetailDTO
func ToUserDetailDTO(user models.User) UserDetailDTO {
	return UserDetailDTO{
		UserDTO:  ToUserDTO(user),
		IsActive: user.IsActive,
	}
}
