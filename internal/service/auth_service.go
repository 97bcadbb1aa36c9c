package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go-storefront/internal/apperror"
	"go-storefront/internal/model"
	"go-storefront/internal/repository"
	"go-storefront/pkg/jwt"
	"go-storefront/pkg/validator"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ErrInvalidCredentials covers both unknown email and wrong password, so the
// response never reveals which accounts exist.
var ErrInvalidCredentials = apperror.Auth("invalid email or password")

type AuthService interface {
	Register(ctx context.Context, req *RegisterRequest) (*model.User, error)
	Login(ctx context.Context, email, password string) (*LoginResponse, error)
	Session(ctx context.Context, token string) (*SessionResponse, error)
	ResetPassword(ctx context.Context, email, oldPassword, newPassword string) error
}

type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	Name     string `json:"name"`
}

type LoginResponse struct {
	Token     string             `json:"token"`
	ExpiresAt time.Time          `json:"expiresAt"`
	User      model.UserResponse `json:"user"`
}

type SessionResponse struct {
	User      model.UserResponse `json:"user"`
	ExpiresAt time.Time          `json:"expiresAt"`
}

type authService struct {
	userRepo repository.UserRepository
	tokens   *jwt.Manager
	log      *zap.Logger
}

func NewAuthService(userRepo repository.UserRepository, tokens *jwt.Manager, log *zap.Logger) AuthService {
	if log == nil {
		log = zap.NewNop()
	}
	return &authService{
		userRepo: userRepo,
		tokens:   tokens,
		log:      log.Named("auth"),
	}
}

// Register creates a customer account. New accounts are never admins.
func (s *authService) Register(ctx context.Context, req *RegisterRequest) (*model.User, error) {
	req.Email = normalizeEmail(req.Email)
	req.Name = strings.TrimSpace(req.Name)
	if errs := validator.ValidateStruct(req); len(errs) > 0 {
		return nil, apperror.Validation("%s", validator.Describe(errs))
	}

	// 1. Check if email already exists
	existing, err := s.userRepo.FindByEmail(ctx, req.Email)
	if err == nil && existing != nil {
		return nil, apperror.Validation("User with this email already exists")
	}
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperror.Internal(err, "Failed to register user")
	}

	// 2. Create user
	user := &model.User{
		Email:   req.Email,
		Name:    req.Name,
		IsAdmin: false,
	}
	if err := user.SetPassword(req.Password); err != nil {
		return nil, apperror.Internal(err, "Failed to register user")
	}
	user.CreatedBy = "register"
	user.UpdatedBy = "register"

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, apperror.Internal(err, "Failed to register user")
	}

	s.log.Info("user registered", zap.String("user_id", user.ID.String()))
	return user, nil
}

func (s *authService) Login(ctx context.Context, email, password string) (*LoginResponse, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, apperror.Validation("Email and password are required")
	}

	// 1. Find user by email
	user, err := s.userRepo.FindByEmail(ctx, email)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, apperror.Internal(err, "Failed to sign in")
	}

	// 2. Verify password
	if !user.CheckPassword(password) {
		return nil, ErrInvalidCredentials
	}

	// 3. Issue session token
	token, expiresAt, err := s.tokens.GenerateToken(user.ID, user.Email, user.Name, user.IsAdmin)
	if err != nil {
		return nil, apperror.Internal(err, "Failed to generate token")
	}

	return &LoginResponse{
		Token:     token,
		ExpiresAt: expiresAt,
		User:      user.ToResponse(),
	}, nil
}

// Session resolves a token to the current account state.
func (s *authService) Session(ctx context.Context, token string) (*SessionResponse, error) {
	claims, err := s.tokens.ValidateToken(token)
	if err != nil {
		return nil, apperror.Auth("Invalid or expired session")
	}

	user, err := s.userRepo.FindByID(ctx, claims.UserID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperror.Auth("Invalid or expired session")
	}
	if err != nil {
		return nil, apperror.Internal(err, "Failed to load session")
	}

	resp := &SessionResponse{User: user.ToResponse()}
	if claims.ExpiresAt != nil {
		resp.ExpiresAt = claims.ExpiresAt.Time
	}
	return resp, nil
}

func (s *authService) ResetPassword(ctx context.Context, email, oldPassword, newPassword string) error {
	if len(newPassword) < 6 {
		return apperror.Validation("New password must be at least 6 characters")
	}

	user, err := s.userRepo.FindByEmail(ctx, normalizeEmail(email))
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrInvalidCredentials
	}
	if err != nil {
		return apperror.Internal(err, "Failed to reset password")
	}
	if !user.CheckPassword(oldPassword) {
		return ErrInvalidCredentials
	}

	if err := user.SetPassword(newPassword); err != nil {
		return apperror.Internal(err, "Failed to reset password")
	}
	if err := s.userRepo.UpdatePassword(ctx, user.ID, user.Password); err != nil {
		return apperror.Internal(err, "Failed to reset password")
	}
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
