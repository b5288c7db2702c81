package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"songclub/model"

	"github.com/go-sql-driver/mysql"
)

// ErrDuplicateUser is returned when a username or email is already taken.
var ErrDuplicateUser = errors.New("username or email already exists")

// UserRepository defines the interface for user data operations.
type UserRepository interface {
	CreateUser(user *model.User) (int64, error)
	GetUserByID(id int64) (*model.User, error)
	GetUserByUsername(username string) (*model.User, error)
	GetUserByEmail(email string) (*model.User, error)
	// GetUsersByIDs batch-fetches users so list views need one query for all
	// referenced uploaders instead of one per row.
	GetUsersByIDs(ids []int64) (map[int64]*model.User, error)
	UpdatePassword(userID int64, passwordHash string) error
}

// mysqlUserRepository implements UserRepository for MySQL.
type mysqlUserRepository struct {
	db *sql.DB
}

// NewMySQLUserRepository creates a new mysqlUserRepository.
func NewMySQLUserRepository(db *sql.DB) UserRepository {
	return &mysqlUserRepository{db: db}
}

const mysqlDuplicateEntry = 1062

// CreateUser adds a new user to the database.
func (r *mysqlUserRepository) CreateUser(user *model.User) (int64, error) {
	query := "INSERT INTO users (username, email, password_hash) VALUES (?, ?, ?)"
	stmt, err := r.db.Prepare(query)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare create user statement: %w", err)
	}
	defer stmt.Close()

	res, err := stmt.Exec(user.Username, user.Email, user.PasswordHash)
	if err != nil {
		var mysqlErr *mysql.MySQLError
		if errors.As(err, &mysqlErr) && mysqlErr.Number == mysqlDuplicateEntry {
			return 0, ErrDuplicateUser
		}
		return 0, fmt.Errorf("failed to execute create user statement: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get last insert ID for user: %w", err)
	}
	return id, nil
}

const userColumns = "id, username, email, password_hash, created_at, updated_at"

func scanUser(row *sql.Row) (*model.User, error) {
	user := &model.User{}
	err := row.Scan(&user.ID, &user.Username, &user.Email, &user.PasswordHash, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // user not found
		}
		return nil, fmt.Errorf("failed to scan user row: %w", err)
	}
	return user, nil
}

// GetUserByID retrieves a user by their ID.
func (r *mysqlUserRepository) GetUserByID(id int64) (*model.User, error) {
	row := r.db.QueryRow("SELECT "+userColumns+" FROM users WHERE id = ?", id)
	return scanUser(row)
}

// GetUserByUsername retrieves a user by their username.
func (r *mysqlUserRepository) GetUserByUsername(username string) (*model.User, error) {
	row := r.db.QueryRow("SELECT "+userColumns+" FROM users WHERE username = ?", username)
	return scanUser(row)
}

// GetUserByEmail retrieves a user by their email address.
func (r *mysqlUserRepository) GetUserByEmail(email string) (*model.User, error) {
	row := r.db.QueryRow("SELECT "+userColumns+" FROM users WHERE email = ?", email)
	return scanUser(row)
}

// GetUsersByIDs retrieves users by a set of IDs, keyed by ID.
func (r *mysqlUserRepository) GetUsersByIDs(ids []int64) (map[int64]*model.User, error) {
	users := make(map[int64]*model.User, len(ids))
	if len(ids) == 0 {
		return users, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	rows, err := r.db.Query("SELECT "+userColumns+" FROM users WHERE id IN ("+placeholders+")", args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query users by IDs: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		user := &model.User{}
		err := rows.Scan(&user.ID, &user.Username, &user.Email, &user.PasswordHash, &user.CreatedAt, &user.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user in GetUsersByIDs: %w", err)
		}
		users[user.ID] = user
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during rows iteration in GetUsersByIDs: %w", err)
	}

	return users, nil
}

// UpdatePassword replaces a user's password hash.
func (r *mysqlUserRepository) UpdatePassword(userID int64, passwordHash string) error {
	query := "UPDATE users SET password_hash = ?, updated_at = ? WHERE id = ?"
	stmt, err := r.db.Prepare(query)
	if err != nil {
		return fmt.Errorf("failed to prepare update password statement: %w", err)
	}
	defer stmt.Close()

	if _, err := stmt.Exec(passwordHash, time.Now(), userID); err != nil {
		return fmt.Errorf("failed to execute update password for user ID %d: %w", userID, err)
	}
	return nil
}
