package repository

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/mattislub/Timed-Audio-Queue/model"
)

// RecordingRepository defines the interface for recording data operations.
type RecordingRepository interface {
	CreateRecording(rec *model.Recording) error
	GetRecordingByID(id string) (*model.Recording, error)
	// GetActiveRecordingsByUserID returns the user's recordings created
	// within the TTL window, oldest first.
	GetActiveRecordingsByUserID(userID int64, ttl time.Duration) ([]*model.Recording, error)
	// GetExpiredRecordings returns recordings past their TTL, across all
	// users, for the reaper.
	GetExpiredRecordings(ttl time.Duration, limit int) ([]*model.Recording, error)
	DeleteRecording(id string) error
}

// mysqlRecordingRepository implements RecordingRepository for MySQL.
type mysqlRecordingRepository struct {
	DB *sql.DB
}

// NewMySQLRecordingRepository creates a new instance of mysqlRecordingRepository.
func NewMySQLRecordingRepository(db *sql.DB) RecordingRepository {
	return &mysqlRecordingRepository{DB: db}
}

// CreateRecording adds a new recording to the database.
func (r *mysqlRecordingRepository) CreateRecording(rec *model.Recording) error {
	query := `INSERT INTO recordings (id, user_id, name, object_path, created_at)
	           VALUES (?, ?, ?, ?, ?)`
	stmt, err := r.DB.Prepare(query)
	if err != nil {
		return fmt.Errorf("failed to prepare statement for CreateRecording: %w", err)
	}
	defer stmt.Close()

	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}
	if _, err := stmt.Exec(rec.ID, rec.UserID, rec.Name, rec.ObjectPath, rec.CreatedAt); err != nil {
		return fmt.Errorf("failed to execute CreateRecording: %w", err)
	}
	return nil
}

// GetRecordingByID retrieves a recording by its ID.
func (r *mysqlRecordingRepository) GetRecordingByID(id string) (*model.Recording, error) {
	query := `SELECT id, user_id, name, object_path, created_at
	           FROM recordings WHERE id = ?`
	row := r.DB.QueryRow(query, id)

	rec := &model.Recording{}
	err := row.Scan(&rec.ID, &rec.UserID, &rec.Name, &rec.ObjectPath, &rec.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // Recording not found
		}
		return nil, fmt.Errorf("failed to scan recording by ID %s: %w", id, err)
	}
	return rec, nil
}

// GetActiveRecordingsByUserID retrieves non-expired recordings for a user.
func (r *mysqlRecordingRepository) GetActiveRecordingsByUserID(userID int64, ttl time.Duration) ([]*model.Recording, error) {
	query := `SELECT id, user_id, name, object_path, created_at
	           FROM recordings WHERE user_id = ? AND created_at > ? ORDER BY created_at ASC`
	cutoff := time.Now().Add(-ttl)
	rows, err := r.DB.Query(query, userID, cutoff)
	if err != nil {
		return nil, fmt.Errorf("failed to query recordings for user ID %d: %w", userID, err)
	}
	defer rows.Close()

	recordings := make([]*model.Recording, 0)
	for rows.Next() {
		rec := &model.Recording{}
		if err := rows.Scan(&rec.ID, &rec.UserID, &rec.Name, &rec.ObjectPath, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan recording in GetActiveRecordingsByUserID: %w", err)
		}
		recordings = append(recordings, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during rows iteration in GetActiveRecordingsByUserID: %w", err)
	}

	return recordings, nil
}

// GetExpiredRecordings retrieves recordings past their TTL for cleanup.
func (r *mysqlRecordingRepository) GetExpiredRecordings(ttl time.Duration, limit int) ([]*model.Recording, error) {
	query := `SELECT id, user_id, name, object_path, created_at
	           FROM recordings WHERE created_at <= ? ORDER BY created_at ASC LIMIT ?`
	cutoff := time.Now().Add(-ttl)
	rows, err := r.DB.Query(query, cutoff, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query expired recordings: %w", err)
	}
	defer rows.Close()

	recordings := make([]*model.Recording, 0)
	for rows.Next() {
		rec := &model.Recording{}
		if err := rows.Scan(&rec.ID, &rec.UserID, &rec.Name, &rec.ObjectPath, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan recording in GetExpiredRecordings: %w", err)
		}
		recordings = append(recordings, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during rows iteration in GetExpiredRecordings: %w", err)
	}

	return recordings, nil
}

// DeleteRecording removes a recording row.
func (r *mysqlRecordingRepository) DeleteRecording(id string) error {
	query := `DELETE FROM recordings WHERE id = ?`
	if _, err := r.DB.Exec(query, id); err != nil {
		return fmt.Errorf("failed to delete recording %s: %w", id, err)
	}
	return nil
}
