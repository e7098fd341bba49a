package dto

import (
	"reviewhub/internal/http-api/models"
)

// UserResponse exposes exactly the profile fields the API returns; the
// confirmation code hash never leaves the models package.
type UserResponse struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Bio       string `json:"bio"`
	Role      string `json:"role"`
}

// CreateUserRequest: admin-only user creation
type CreateUserRequest struct {
	Username  string `json:"username" binding:"required,min=3,max=150"`
	Email     string `json:"email" binding:"required,email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Bio       string `json:"bio"`
	Role      string `json:"role" binding:"omitempty,oneof=user moderator admin superadmin"`
}

// UpdateUserRequest: admin-only partial update, role included
type UpdateUserRequest struct {
	Email     *string `json:"email,omitempty" binding:"omitempty,email"`
	FirstName *string `json:"first_name,omitempty"`
	LastName  *string `json:"last_name,omitempty"`
	Bio       *string `json:"bio,omitempty"`
	Role      *string `json:"role,omitempty" binding:"omitempty,oneof=user moderator admin superadmin"`
}

// UpdateProfileRequest: self-service update; deliberately has no role field
type UpdateProfileRequest struct {
	FirstName *string `json:"first_name,omitempty"`
	LastName  *string `json:"last_name,omitempty"`
	Bio       *string `json:"bio,omitempty"`
}

func FromModelToUserResponse(u *models.User) *UserResponse {
	return &UserResponse{
		Username:  u.Username,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Bio:       u.Bio,
		Role:      u.Role,
	}
}

func (d UpdateUserRequest) ApplyTo(u *models.User) {
	if d.Email != nil {
		u.Email = *d.Email
	}
	if d.FirstName != nil {
		u.FirstName = *d.FirstName
	}
	if d.LastName != nil {
		u.LastName = *d.LastName
	}
	if d.Bio != nil {
		u.Bio = *d.Bio
	}
	if d.Role != nil {
		u.Role = *d.Role
	}
}

func (d UpdateProfileRequest) ApplyTo(u *models.User) {
	if d.FirstName != nil {
		u.FirstName = *d.FirstName
	}
	if d.LastName != nil {
		u.LastName = *d.LastName
	}
	if d.Bio != nil {
		u.Bio = *d.Bio
	}
}

// PaginatedUserResponse for the admin user listing
type PaginatedUserResponse struct {
	Data       []UserResponse `json:"data"`
	Page       int            `json:"page"`
	PageSize   int            `json:"page_size"`
	Total      int64          `json:"total"`
	TotalPages int            `json:"total_pages"`
}

func NewPaginatedUserResponse(data []UserResponse, page, pageSize int, total int64) PaginatedUserResponse {
	return PaginatedUserResponse{
		Data:       data,
		Page:       page,
		PageSize:   pageSize,
		Total:      total,
		TotalPages: totalPages(total, pageSize),
	}
}
