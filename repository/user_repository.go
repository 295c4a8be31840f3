package repository

import (
	"database/sql"
	"expense-ledger-api/model"
)

// IUserRepository defines the contract for user database operations.
type IUserRepository interface {
	CreateUser(tx *sql.Tx, user *model.User) error
	GetUserByEmail(email string) (*model.User, error)
	GetUserByID(userID int) (*model.User, error)
	UpdateUserRole(userID int, role string) error
}

type UserRepository struct {
	DB *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{DB: db}
}

// CreateUser inserts a user inside the given transaction so registration
// can create the user and their ledger account atomically.
func (r *UserRepository) CreateUser(tx *sql.Tx, user *model.User) error {
	query := `INSERT INTO users (username, email, password) VALUES ($1, $2, $3) RETURNING id, role, created_at`
	return tx.QueryRow(query, user.Username, user.Email, user.Password).Scan(&user.ID, &user.Role, &user.CreatedAt)
}

func (r *UserRepository) GetUserByEmail(email string) (*model.User, error) {
	user := &model.User{}
	query := `SELECT id, username, email, password, role, created_at FROM users WHERE email=$1`
	err := r.DB.QueryRow(query, email).Scan(&user.ID, &user.Username, &user.Email, &user.Password, &user.Role, &user.CreatedAt)
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (r *UserRepository) GetUserByID(userID int) (*model.User, error) {
	user := &model.User{}
	query := `SELECT id, username, email, password, role, created_at FROM users WHERE id=$1`
	err := r.DB.QueryRow(query, userID).Scan(&user.ID, &user.Username, &user.Email, &user.Password, &user.Role, &user.CreatedAt)
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (r *UserRepository) UpdateUserRole(userID int, role string) error {
	query := `UPDATE users SET role = $1 WHERE id = $2`
	_, err := r.DB.Exec(query, role, userID)
	return err
}
