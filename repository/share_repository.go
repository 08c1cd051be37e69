package repository

import (
	"errors"
	"fmt"

	"github.com/mattislub/Timed-Audio-Queue/model"

	"gorm.io/gorm"
)

// ShareRepository defines the interface for share record operations.
type ShareRepository interface {
	CreateShare(share *model.Share) error
	GetSharesByRecordingID(recordingID string) ([]*model.Share, error)
	GetShareByToken(token string) (*model.Share, error)
	DeleteSharesByRecordingID(recordingID string) error
}

// gormShareRepository implements ShareRepository on GORM.
type gormShareRepository struct {
	db *gorm.DB
}

// NewGormShareRepository creates a new gormShareRepository.
func NewGormShareRepository(db *gorm.DB) ShareRepository {
	return &gormShareRepository{db: db}
}

// CreateShare adds a new share record.
func (r *gormShareRepository) CreateShare(share *model.Share) error {
	if err := r.db.Create(share).Error; err != nil {
		return fmt.Errorf("failed to create share: %w", err)
	}
	return nil
}

// GetSharesByRecordingID lists share records for a recording, newest first.
func (r *gormShareRepository) GetSharesByRecordingID(recordingID string) ([]*model.Share, error) {
	var shares []*model.Share
	err := r.db.Where("recording_id = ?", recordingID).Order("created_at DESC").Find(&shares).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list shares for recording %s: %w", recordingID, err)
	}
	return shares, nil
}

// GetShareByToken resolves a share token, returning nil when unknown.
func (r *gormShareRepository) GetShareByToken(token string) (*model.Share, error) {
	share := &model.Share{}
	err := r.db.Where("token = ?", token).First(share).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to look up share token: %w", err)
	}
	return share, nil
}

// DeleteSharesByRecordingID removes all share records for a recording,
// used when the recording itself is deleted or reaped.
func (r *gormShareRepository) DeleteSharesByRecordingID(recordingID string) error {
	if err := r.db.Where("recording_id = ?", recordingID).Delete(&model.Share{}).Error; err != nil {
		return fmt.Errorf("failed to delete shares for recording %s: %w", recordingID, err)
	}
	return nil
}
