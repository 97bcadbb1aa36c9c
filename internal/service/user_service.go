package service

import (
	"context"
	"errors"

	"go-storefront/internal/apperror"
	"go-storefront/internal/model"
	"go-storefront/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type UserService interface {
	GetAllUsers(ctx context.Context) ([]model.UserResponse, error)
	SetAdmin(ctx context.Context, userID uuid.UUID, isAdmin bool, actor string) (*model.UserResponse, error)
}

type userService struct {
	userRepo repository.UserRepository
}

func NewUserService(userRepo repository.UserRepository) UserService {
	return &userService{userRepo: userRepo}
}

func (s *userService) GetAllUsers(ctx context.Context) ([]model.UserResponse, error) {
	users, err := s.userRepo.FindAll(ctx)
	if err != nil {
		return nil, apperror.Internal(err, "Failed to fetch users")
	}

	responses := make([]model.UserResponse, len(users))
	for i, user := range users {
		responses[i] = user.ToResponse()
	}
	return responses, nil
}

// SetAdmin grants or revokes the admin flag. Admins cannot demote
// themselves, so the store always keeps at least the acting admin.
func (s *userService) SetAdmin(ctx context.Context, userID uuid.UUID, isAdmin bool, actor string) (*model.UserResponse, error) {
	if !isAdmin && actor == userID.String() {
		return nil, apperror.Validation("You cannot revoke your own admin access")
	}

	err := s.userRepo.SetAdmin(ctx, userID, isAdmin, actor)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperror.NotFound("User not found")
	}
	if err != nil {
		return nil, apperror.Internal(err, "Failed to update user")
	}

	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, apperror.Internal(err, "Failed to fetch user")
	}
	resp := user.ToResponse()
	return &resp, nil
}
