package db

import (
	"database/sql"
	"fmt"

	"songclub/config"
	"songclub/logger"

	_ "github.com/go-sql-driver/mysql" // MySQL driver
)

var DB *sql.DB

// ConnectDB establishes a connection to the database.
func ConnectDB(cfg *config.Config) error {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?parseTime=true",
		cfg.DBUser, cfg.DBPassword, cfg.DBHost, cfg.DBPort, cfg.DBName)

	var err error
	DB, err = sql.Open("mysql", dsn)
	if err != nil {
		return fmt.Errorf("failed to open database connection: %w", err)
	}

	if err = DB.Ping(); err != nil {
		DB.Close()
		return fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Info("Successfully connected to the database")
	return nil
}

// InitDB initializes the database schema, creating tables if they don't exist.
// Themes and reactions belong to the GORM side (see gorm.go).
func InitDB() error {
	if err := createUsersTable(); err != nil {
		return err
	}
	if err := createTracksTable(); err != nil {
		return err
	}
	if err := createCommentsTable(); err != nil {
		return err
	}

	logger.Info("Database initialization completed")
	return nil
}

func createUsersTable() error {
	query := `
	CREATE TABLE IF NOT EXISTS users (
		id INT AUTO_INCREMENT PRIMARY KEY,
		username VARCHAR(100) NOT NULL UNIQUE,
		email VARCHAR(255) NOT NULL UNIQUE,
		password_hash VARCHAR(255) NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP
	);
	`
	if _, err := DB.Exec(query); err != nil {
		return fmt.Errorf("failed to create users table: %w", err)
	}
	return nil
}

func createTracksTable() error {
	query := `
	CREATE TABLE IF NOT EXISTS tracks (
		id INT AUTO_INCREMENT PRIMARY KEY,
		user_id INT NOT NULL,
		title VARCHAR(255) NOT NULL,
		lyrics TEXT,
		theme_id INT,
		file_url VARCHAR(767) NOT NULL,
		file_size BIGINT NOT NULL DEFAULT 0,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		CONSTRAINT fk_user_tracks FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE,
		INDEX idx_tracks_user_created (user_id, created_at),
		INDEX idx_tracks_theme (theme_id)
	);
	`
	if _, err := DB.Exec(query); err != nil {
		return fmt.Errorf("failed to create tracks table: %w", err)
	}
	return nil
}

func createCommentsTable() error {
	query := `
	CREATE TABLE IF NOT EXISTS comments (
		id INT AUTO_INCREMENT PRIMARY KEY,
		track_id INT NOT NULL,
		user_id INT NOT NULL,
		content VARCHAR(500) NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		CONSTRAINT fk_track_comments FOREIGN KEY (track_id) REFERENCES tracks(id) ON DELETE CASCADE,
		CONSTRAINT fk_user_comments FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE,
		INDEX idx_comments_user_created (user_id, created_at),
		INDEX idx_comments_track (track_id)
	);
	`
	if _, err := DB.Exec(query); err != nil {
		return fmt.Errorf("failed to create comments table: %w", err)
	}
	return nil
}
