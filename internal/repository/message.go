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

type messageRepository struct {
	db *gorm.DB
}

func NewMessageRepository(db *gorm.DB) interfaces.MessageRepository {
	return &messageRepository{
		db: db,
	}
}

func (r *messageRepository) GetByID(ctx context.Context, id string) (*models.Message, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "messageRepository.GetByID")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)

	var message models.Message
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&message).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		tracing.TraceErr(span, err)
		return nil, err
	}
	return &message, nil
}

func (r *messageRepository) GetByMessageKey(ctx context.Context, accountID, messageKey string) (*models.Message, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "messageRepository.GetByMessageKey")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)
	tracing.TagAccount(span, accountID)

	messageKey = utils.NormalizeMessageID(messageKey)
	if messageKey == "" {
		return nil, ErrInvalidInput
	}

	var message models.Message
	err := r.db.WithContext(ctx).
		Where("account_id = ? AND message_key = ?", accountID, messageKey).
		First(&message).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		tracing.TraceErr(span, err)
		return nil, err
	}
	return &message, nil
}

func (r *messageRepository) Create(ctx context.Context, message *models.Message) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "messageRepository.Create")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)

	if message == nil || message.AccountID == "" || message.MessageKey == "" {
		return ErrInvalidInput
	}

	message.MessageKey = utils.NormalizeMessageID(message.MessageKey)

	if err := r.db.WithContext(ctx).Create(message).Error; err != nil {
		tracing.TraceErr(span, err)
		return err
	}
	return nil
}

// UpdateStatusFields refreshes the status projection of a mirrored message
// and leaves the captured content untouched.
func (r *messageRepository) UpdateStatusFields(ctx context.Context, message *models.Message) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "messageRepository.UpdateStatusFields")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)

	if message == nil || message.AccountID == "" || message.MessageKey == "" {
		return ErrInvalidInput
	}

	result := r.db.WithContext(ctx).
		Model(&models.Message{}).
		Where("account_id = ? AND message_key = ?", message.AccountID, utils.NormalizeMessageID(message.MessageKey)).
		Updates(map[string]interface{}{
			"is_read":         message.IsRead,
			"is_draft":        message.IsDraft,
			"has_attachments": message.HasAttachments,
			"importance":      message.Importance,
			"flag_status":     message.FlagStatus,
			"updated_at":      utils.Now(),
		})
	if result.Error != nil {
		tracing.TraceErr(span, result.Error)
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrMessageNotFound
	}
	return nil
}

func (r *messageRepository) ListByAccount(ctx context.Context, accountID string, limit, offset int) ([]*models.Message, int64, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "messageRepository.ListByAccount")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)
	tracing.TagAccount(span, accountID)

	query := r.db.WithContext(ctx).
		Model(&models.Message{}).
		Where("account_id = ?", accountID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		tracing.TraceErr(span, err)
		return nil, 0, err
	}

	var messages []*models.Message
	err := query.
		Order("received_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&messages).Error
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, 0, err
	}
	return messages, total, nil
}

func (r *messageRepository) ListByFolder(ctx context.Context, accountID, parentFolderID string, limit, offset int) ([]*models.Message, int64, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "messageRepository.ListByFolder")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)
	tracing.TagAccount(span, accountID)
	tracing.TagFolder(span, parentFolderID)

	query := r.db.WithContext(ctx).
		Model(&models.Message{}).
		Where("account_id = ? AND parent_folder_id = ?", accountID, parentFolderID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		tracing.TraceErr(span, err)
		return nil, 0, err
	}

	var messages []*models.Message
	err := query.
		Order("received_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&messages).Error
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, 0, err
	}
	return messages, total, nil
}

func (r *messageRepository) CountByAccount(ctx context.Context, accountID string) (int64, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "messageRepository.CountByAccount")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)
	tracing.TagAccount(span, accountID)

	var total int64
	err := r.db.WithContext(ctx).
		Model(&models.Message{}).
		Where("account_id = ?", accountID).
		Count(&total).Error
	if err != nil {
		tracing.TraceErr(span, err)
		return 0, err
	}
	return total, nil
}

func (r *messageRepository) DeleteByAccount(ctx context.Context, accountID string) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "messageRepository.DeleteByAccount")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)
	tracing.TagAccount(span, accountID)

	err := r.db.WithContext(ctx).
		Where("account_id = ?", accountID).
		Delete(&models.Message{}).Error
	if err != nil {
		tracing.TraceErr(span, err)
	}
	return err
}

// WithTx runs fn against a repository bound to one transaction. An error
// from fn rolls everything back.
func (r *messageRepository) WithTx(ctx context.Context, fn func(interfaces.MessageRepository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&messageRepository{db: tx})
	})
}
