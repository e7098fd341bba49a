package service

import (
	"errors"

	"reviewhub/internal/http-api/dto"
	"reviewhub/internal/http-api/models"
	"reviewhub/internal/http-api/permissions"
	"reviewhub/internal/http-api/repository"

	"gorm.io/gorm"
)

type UserService interface {
	// admin-only user management, keyed by username
	Create(actor permissions.Actor, req dto.CreateUserRequest) (*dto.UserResponse, error)
	List(actor permissions.Actor, page, pageSize int) (*dto.PaginatedUserResponse, error)
	GetByUsername(actor permissions.Actor, username string) (*dto.UserResponse, error)
	UpdateByUsername(actor permissions.Actor, username string, req dto.UpdateUserRequest) (*dto.UserResponse, error)
	DeleteByUsername(actor permissions.Actor, username string) error

	// self-service profile
	Profile(actor permissions.Actor) (*dto.UserResponse, error)
	UpdateProfile(actor permissions.Actor, req dto.UpdateProfileRequest) (*dto.UserResponse, error)
}

type userService struct {
	userRepo repository.UserRepository
}

func NewUserService(userRepo repository.UserRepository) UserService {
	return &userService{userRepo: userRepo}
}

func (s *userService) Create(actor permissions.Actor, req dto.CreateUserRequest) (*dto.UserResponse, error) {
	if !permissions.CanManageUsers(actor) {
		return nil, ErrPermissionDenied
	}

	role := req.Role
	if role == "" {
		role = models.RoleUser
	}

	user := &models.User{
		Username:  req.Username,
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Bio:       req.Bio,
		Role:      role,
	}
	if err := s.userRepo.Create(user); err != nil {
		if repository.IsUniqueViolation(err) {
			// username and email are both unique; report the one that hit
			if _, lookupErr := s.userRepo.FindByUsername(req.Username); lookupErr == nil {
				return nil, ErrUsernameInUse
			}
			return nil, ErrEmailInUse
		}
		return nil, err
	}

	return dto.FromModelToUserResponse(user), nil
}

func (s *userService) List(actor permissions.Actor, page, pageSize int) (*dto.PaginatedUserResponse, error) {
	if !permissions.CanManageUsers(actor) {
		return nil, ErrPermissionDenied
	}

	users, total, err := s.userRepo.List(page, pageSize)
	if err != nil {
		return nil, err
	}

	responses := make([]dto.UserResponse, 0, len(users))
	for i := range users {
		responses = append(responses, *dto.FromModelToUserResponse(&users[i]))
	}

	resp := dto.NewPaginatedUserResponse(responses, page, pageSize, total)
	return &resp, nil
}

func (s *userService) GetByUsername(actor permissions.Actor, username string) (*dto.UserResponse, error) {
	if !permissions.CanManageUsers(actor) {
		return nil, ErrPermissionDenied
	}

	user, err := s.userRepo.FindByUsername(username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return dto.FromModelToUserResponse(user), nil
}

func (s *userService) UpdateByUsername(actor permissions.Actor, username string, req dto.UpdateUserRequest) (*dto.UserResponse, error) {
	if !permissions.CanManageUsers(actor) {
		return nil, ErrPermissionDenied
	}

	user, err := s.userRepo.FindByUsername(username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	req.ApplyTo(user)
	if err := s.userRepo.Update(user); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, ErrEmailInUse
		}
		return nil, err
	}
	return dto.FromModelToUserResponse(user), nil
}

func (s *userService) DeleteByUsername(actor permissions.Actor, username string) error {
	if !permissions.CanManageUsers(actor) {
		return ErrPermissionDenied
	}

	err := s.userRepo.DeleteByUsername(username)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

func (s *userService) Profile(actor permissions.Actor) (*dto.UserResponse, error) {
	if !actor.IsAuthenticated() {
		return nil, ErrPermissionDenied
	}

	user, err := s.userRepo.FindByID(actor.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return dto.FromModelToUserResponse(user), nil
}

// UpdateProfile applies a self-service update. The request type has no role
// field, so a user can never raise their own privileges here.
func (s *userService) UpdateProfile(actor permissions.Actor, req dto.UpdateProfileRequest) (*dto.UserResponse, error) {
	if !actor.IsAuthenticated() {
		return nil, ErrPermissionDenied
	}

	user, err := s.userRepo.FindByID(actor.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	req.ApplyTo(user)
	if err := s.userRepo.Update(user); err != nil {
		return nil, err
	}
	return dto.FromModelToUserResponse(user), nil
}
