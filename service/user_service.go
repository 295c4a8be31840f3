package service

import (
	"context"
	"database/sql"
	"errors"
	"expense-ledger-api/logger"
	"expense-ledger-api/model"
	"expense-ledger-api/repository"
	"fmt"
)

// UserService handles user-related business logic.
type UserService struct {
	db             *sql.DB
	userRepo       repository.IUserRepository
	accountService *AccountService
	authService    *AuthService
}

// NewUserService creates a new UserService.
func NewUserService(db *sql.DB, userRepo repository.IUserRepository, accountService *AccountService, authService *AuthService) *UserService {
	return &UserService{
		db:             db,
		userRepo:       userRepo,
		accountService: accountService,
		authService:    authService,
	}
}

// Register creates the user and their ledger account in one transaction:
// a user must never exist without a balance-holding account.
func (s *UserService) Register(ctx context.Context, req model.RegisterRequest) (*model.User, *model.Account, error) {
	hashedPassword, err := s.authService.HashPassword(req.Password)
	if err != nil {
		return nil, nil, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("could not begin transaction: %w", err)
	}
	defer tx.Rollback()

	user := &model.User{
		Username: req.Username,
		Email:    req.Email,
		Password: hashedPassword,
	}
	if err := s.userRepo.CreateUser(tx, user); err != nil {
		return nil, nil, err
	}

	account, err := s.accountService.CreateAccountForUser(tx, user.ID)
	if err != nil {
		return nil, nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, nil, fmt.Errorf("could not commit transaction: %w", err)
	}

	logger.Log.WithField("user_id", user.ID).Info("User registered with ledger account")
	return user, account, nil
}

// UpdateUserRole validates the role and calls the repository to update it.
func (s *UserService) UpdateUserRole(userID int, newRole model.Role) error {
	// We ensure that only valid roles can be assigned.
	if newRole != model.RoleAdmin && newRole != model.RoleUser {
		return errors.New("invalid role specified")
	}
	// In the future, more complex logic can be added here.
	// e.g., "The last admin cannot demote themselves."

	return s.userRepo.UpdateUserRole(userID, string(newRole))
}
