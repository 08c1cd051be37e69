package db

import (
	"database/sql"
	"fmt"

	"github.com/mattislub/Timed-Audio-Queue/config"
	"github.com/mattislub/Timed-Audio-Queue/logger"

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

	logger.Info("connected to the database")
	return nil
}

// InitDB initializes the database schema, creating tables if they don't exist.
// The shares table is owned by GORM and migrated in ConnectGormDB.
func InitDB() error {
	if err := createUsersTable(); err != nil {
		return err
	}
	if err := createRecordingsTable(); err != nil {
		return err
	}
	logger.Info("database schema initialized")
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

func createRecordingsTable() error {
	query := `
	CREATE TABLE IF NOT EXISTS recordings (
		id VARCHAR(36) PRIMARY KEY,
		user_id INT NOT NULL,
		name VARCHAR(255) NOT NULL,
		object_path VARCHAR(767) NOT NULL,
		created_at TIMESTAMP(3) DEFAULT CURRENT_TIMESTAMP(3),
		CONSTRAINT fk_user_recordings FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE,
		INDEX idx_recordings_created_at (created_at)
	);
	`
	if _, err := DB.Exec(query); err != nil {
		return fmt.Errorf("failed to create recordings table: %w", err)
	}
	return nil
}
