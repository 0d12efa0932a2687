package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/b2wmke/miletracker-backend/internal/repository"
)

// ============================================
// User Service
// ============================================

type UserService interface {
	GetByID(ctx context.Context, id string) (*repository.User, error)
	List(ctx context.Context) ([]*repository.User, error)
	CheckUserName(ctx context.Context, userName string) (bool, error)
}

type userService struct {
	userRepo repository.UserRepository
}

func NewUserService(userRepo repository.UserRepository) UserService {
	return &userService{userRepo: userRepo}
}

func (s *userService) GetByID(ctx context.Context, id string) (*repository.User, error) {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

func (s *userService) List(ctx context.Context) ([]*repository.User, error) {
	return s.userRepo.FindAll(ctx)
}

// CheckUserName reports whether a username is still available. This is a
// convenience pre-check; the unique constraint on users.user_name is what
// actually enforces it.
func (s *userService) CheckUserName(ctx context.Context, userName string) (bool, error) {
	userName = strings.TrimSpace(userName)
	if len(userName) < 3 {
		return false, ErrInvalidInput
	}
	existing, err := s.userRepo.FindByUserName(ctx, userName)
	if err != nil {
		return false, fmt.Errorf("failed to check username: %w", err)
	}
	return existing == nil, nil
}
