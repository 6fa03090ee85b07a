package repository

import (
	"context"
	"errors"

	"github.com/opentracing/opentracing-go"
	"gorm.io/gorm"

	"github.com/ricardag/mailmirror/interfaces"
	"github.com/ricardag/mailmirror/internal/models"
	"github.com/ricardag/mailmirror/internal/tracing"
	"github.com/ricardag/mailmirror/internal/utils"
)

type folderRepository struct {
	db *gorm.DB
}

func NewFolderRepository(db *gorm.DB) interfaces.FolderRepository {
	return &folderRepository{
		db: db,
	}
}

func (r *folderRepository) GetByRemoteID(ctx context.Context, accountID, remoteID string) (*models.Folder, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "folderRepository.GetByRemoteID")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)
	tracing.TagAccount(span, accountID)

	var folder models.Folder
	err := r.db.WithContext(ctx).
		Where("account_id = ? AND remote_id = ?", accountID, remoteID).
		First(&folder).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		tracing.TraceErr(span, err)
		return nil, err
	}
	return &folder, nil
}

func (r *folderRepository) ListByAccount(ctx context.Context, accountID string) ([]*models.Folder, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "folderRepository.ListByAccount")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)
	tracing.TagAccount(span, accountID)

	var folders []*models.Folder
	err := r.db.WithContext(ctx).
		Where("account_id = ?", accountID).
		Order("path ASC").
		Find(&folders).Error
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}
	return folders, nil
}

// ListTree loads the account's folders and links them into a tree by
// parent remote id. Folders whose parent is unknown become roots.
func (r *folderRepository) ListTree(ctx context.Context, accountID string) ([]*models.Folder, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "folderRepository.ListTree")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)
	tracing.TagAccount(span, accountID)

	folders, err := r.ListByAccount(ctx, accountID)
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}

	byRemoteID := make(map[string]*models.Folder, len(folders))
	for _, folder := range folders {
		byRemoteID[folder.RemoteID] = folder
	}

	var roots []*models.Folder
	for _, folder := range folders {
		if folder.ParentRemoteID != "" {
			if parent, ok := byRemoteID[folder.ParentRemoteID]; ok {
				parent.Children = append(parent.Children, folder)
				continue
			}
		}
		roots = append(roots, folder)
	}
	return roots, nil
}

func (r *folderRepository) UpsertTree(ctx context.Context, accountID string, folders []*models.Folder) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "folderRepository.UpsertTree")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)
	tracing.TagAccount(span, accountID)
	span.SetTag("folders", len(folders))

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := utils.Now()
		for _, folder := range folders {
			folder.AccountID = accountID
			folder.SyncedAt = &now

			result := tx.Model(&models.Folder{}).
				Where("account_id = ? AND remote_id = ?", accountID, folder.RemoteID).
				Updates(map[string]interface{}{
					"display_name":     folder.DisplayName,
					"path":             folder.Path,
					"parent_remote_id": folder.ParentRemoteID,
					"total_count":      folder.TotalCount,
					"unread_count":     folder.UnreadCount,
					"synced_at":        folder.SyncedAt,
					"updated_at":       now,
				})
			if result.Error != nil {
				return result.Error
			}
			if result.RowsAffected == 0 {
				if err := tx.Create(folder).Error; err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		tracing.TraceErr(span, err)
	}
	return err
}

func (r *folderRepository) DeleteByAccount(ctx context.Context, accountID string) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "folderRepository.DeleteByAccount")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)
	tracing.TagAccount(span, accountID)

	err := r.db.WithContext(ctx).
		Where("account_id = ?", accountID).
		Delete(&models.Folder{}).Error
	if err != nil {
		tracing.TraceErr(span, err)
	}
	return err
}
