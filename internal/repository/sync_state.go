package repository

import (
	"context"
	"fmt"

	"github.com/opentracing/opentracing-go"
	"gorm.io/gorm"

	"github.com/ricardag/mailmirror/interfaces"
	"github.com/ricardag/mailmirror/internal/models"
	"github.com/ricardag/mailmirror/internal/tracing"
	"github.com/ricardag/mailmirror/internal/utils"
)

type folderSyncStateRepository struct {
	db *gorm.DB
}

func NewFolderSyncStateRepository(db *gorm.DB) interfaces.FolderSyncStateRepository {
	return &folderSyncStateRepository{db: db}
}

// GetSyncState retrieves the UID checkpoint for one account folder
func (r *folderSyncStateRepository) GetSyncState(ctx context.Context, accountID, folderName string) (*models.FolderSyncState, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "folderSyncStateRepository.GetSyncState")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)

	var state models.FolderSyncState
	result := r.db.WithContext(ctx).
		Where("account_id = ? AND folder_name = ?", accountID, folderName).
		First(&state)

	if result.Error != nil {
		if result.Error == gorm.ErrRecordNotFound {
			return nil, nil // No sync state yet
		}
		tracing.TraceErr(span, result.Error)
		return nil, fmt.Errorf("failed to get sync state: %w", result.Error)
	}

	return &state, nil
}

// SaveSyncState saves the checkpoint for an account folder
func (r *folderSyncStateRepository) SaveSyncState(ctx context.Context, state *models.FolderSyncState) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "folderSyncStateRepository.SaveSyncState")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)

	state.LastSync = utils.Now()

	// Try to update first
	result := r.db.WithContext(ctx).
		Model(&models.FolderSyncState{}).
		Where("account_id = ? AND folder_name = ?", state.AccountID, state.FolderName).
		Updates(map[string]interface{}{
			"last_uid":   state.LastUID,
			"last_sync":  state.LastSync,
			"updated_at": utils.Now(),
		})

	// If no record was updated, create a new one
	if result.RowsAffected == 0 {
		result = r.db.WithContext(ctx).Create(state)
	}

	if result.Error != nil {
		tracing.TraceErr(span, result.Error)
		return fmt.Errorf("failed to save sync state: %w", result.Error)
	}

	return nil
}

// DeleteSyncStates deletes all checkpoints for an account
func (r *folderSyncStateRepository) DeleteSyncStates(ctx context.Context, accountID string) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "folderSyncStateRepository.DeleteSyncStates")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)

	result := r.db.WithContext(ctx).
		Where("account_id = ?", accountID).
		Delete(&models.FolderSyncState{})

	if result.Error != nil {
		tracing.TraceErr(span, result.Error)
		return fmt.Errorf("failed to delete sync states: %w", result.Error)
	}

	return nil
}

// GetSyncStates gets all folder checkpoints for an account keyed by folder name
func (r *folderSyncStateRepository) GetSyncStates(ctx context.Context, accountID string) (map[string]uint32, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "folderSyncStateRepository.GetSyncStates")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)

	var states []models.FolderSyncState
	if err := r.db.WithContext(ctx).Where("account_id = ?", accountID).Find(&states).Error; err != nil {
		tracing.TraceErr(span, err)
		return nil, fmt.Errorf("failed to get sync states: %w", err)
	}

	result := make(map[string]uint32)
	for _, state := range states {
		result[state.FolderName] = state.LastUID
	}

	return result, nil
}
