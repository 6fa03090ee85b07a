package sync

import (
	"context"
	"time"

	"github.com/opentracing/opentracing-go"

	"github.com/ricardag/mailmirror/config"
	mirror_errors "github.com/ricardag/mailmirror/errors"
	"github.com/ricardag/mailmirror/interfaces"
	"github.com/ricardag/mailmirror/internal/logger"
	"github.com/ricardag/mailmirror/internal/models"
	"github.com/ricardag/mailmirror/internal/repository"
	"github.com/ricardag/mailmirror/internal/tracing"
)

const (
	syncStatusOK      = "ok"
	syncStatusError   = "error"
	syncStatusRunning = "running"
)

type syncService struct {
	repositories *repository.Repositories
	factory      interfaces.MailClientFactory
	publisher    interfaces.EventPublisher
	syncConfig   *config.SyncConfig
	log          logger.Logger
}

func NewSyncService(
	repositories *repository.Repositories,
	factory interfaces.MailClientFactory,
	publisher interfaces.EventPublisher,
	syncConfig *config.SyncConfig,
	log logger.Logger,
) interfaces.SyncService {
	return &syncService{
		repositories: repositories,
		factory:      factory,
		publisher:    publisher,
		syncConfig:   syncConfig,
		log:          log,
	}
}

// SyncAccount mirrors one account: folder tree first, then the newest page of
// messages. The account's sync status records the outcome either way.
func (s *syncService) SyncAccount(ctx context.Context, accountID string) (*interfaces.SyncReport, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "SyncService.SyncAccount")
	defer span.Finish()
	tracing.TagComponentService(span)
	tracing.TagAccount(span, accountID)

	started := time.Now()

	account, err := s.repositories.AccountRepository.GetByID(ctx, accountID)
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}
	if account == nil {
		tracing.TraceErr(span, mirror_errors.ErrAccountNotFound)
		return nil, mirror_errors.ErrAccountNotFound
	}

	if err := s.repositories.AccountRepository.SetSyncStatus(ctx, accountID, syncStatusRunning, ""); err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}

	report, err := s.syncAccount(ctx, account)
	if err != nil {
		tracing.TraceErr(span, err)
		if statusErr := s.repositories.AccountRepository.SetSyncStatus(ctx, accountID, syncStatusError, err.Error()); statusErr != nil {
			s.log.Errorf("failed to record sync failure for account %s: %v", accountID, statusErr)
		}
		return nil, err
	}

	report.Duration = time.Since(started)
	if err := s.repositories.AccountRepository.SetSyncStatus(ctx, accountID, syncStatusOK, ""); err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}

	s.log.Infof("account %s synced: %d folders, %d created, %d updated, %d skipped in %v",
		accountID, report.FoldersSynced, report.MessagesCreated, report.MessagesUpdated, report.MessagesSkipped, report.Duration)
	return report, nil
}

func (s *syncService) syncAccount(ctx context.Context, account *models.Account) (*interfaces.SyncReport, error) {
	client, err := s.factory.ClientFor(ctx, account)
	if err != nil {
		return nil, err
	}

	report := &interfaces.SyncReport{AccountID: account.ID}

	fetcher := NewFolderFetcher(client, s.log)
	tree, err := fetcher.FetchFolderTree(ctx)
	if err != nil {
		return nil, err
	}
	for _, branchErr := range tree.BranchErrors {
		report.BranchErrors = append(report.BranchErrors, branchErr.Error())
	}

	folders := flattenTree(tree)
	if err := s.repositories.FolderRepository.UpsertTree(ctx, account.ID, folders); err != nil {
		return nil, mirror_errors.NewPersistenceError(err)
	}
	report.FoldersSynced = len(folders)

	if s.publisher != nil {
		if err := s.publisher.PublishFolderTreeSynced(ctx, account.ID, len(folders)); err != nil {
			s.log.Warnf("failed to publish folder tree event for account %s: %v", account.ID, err)
		}
	}

	opts := interfaces.MessagePageOptions{
		PageSize: s.syncConfig.MessagePageSize,
	}

	var page *interfaces.MessagePage
	var newMarks map[string]uint32
	if checkpointed, ok := client.(interfaces.CheckpointedMailClient); ok {
		checkpoints, err := s.repositories.FolderSyncStateRepository.GetSyncStates(ctx, account.ID)
		if err != nil {
			return nil, mirror_errors.NewPersistenceError(err)
		}
		page, newMarks, err = checkpointed.ListMessagesSince(ctx, opts, checkpoints)
		if err != nil {
			return nil, mirror_errors.NewFetchError(mirror_errors.FetchScopeMessagePage, "", err)
		}
	} else {
		var err error
		page, err = client.ListMessages(ctx, opts)
		if err != nil {
			return nil, mirror_errors.NewFetchError(mirror_errors.FetchScopeMessagePage, "", err)
		}
	}

	reconciler := NewReconciler(s.repositories.MessageRepository, s.log)
	result, err := reconciler.Reconcile(ctx, account, page.Messages)
	if err != nil {
		return nil, err
	}
	report.MessagesCreated = result.Created
	report.MessagesUpdated = result.Updated
	report.MessagesSkipped = result.Skipped

	// Checkpoints advance only after the batch committed
	for folderName, uid := range newMarks {
		state := &models.FolderSyncState{
			AccountID:  account.ID,
			FolderName: folderName,
			LastUID:    uid,
		}
		if err := s.repositories.FolderSyncStateRepository.SaveSyncState(ctx, state); err != nil {
			s.log.Warnf("failed to save sync checkpoint for %s/%s: %v", account.ID, folderName, err)
		}
	}

	if s.publisher != nil {
		for _, message := range result.CreatedMessages {
			if err := s.publisher.PublishEmailMirrored(ctx, message, true); err != nil {
				s.log.Warnf("failed to publish mirrored event for message %s: %v", message.ID, err)
			}
		}
	}

	return report, nil
}

// SyncAll mirrors every account sequentially. One failing account does not
// stop the others.
func (s *syncService) SyncAll(ctx context.Context) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "SyncService.SyncAll")
	defer span.Finish()
	tracing.TagComponentService(span)

	accounts, err := s.repositories.AccountRepository.List(ctx)
	if err != nil {
		tracing.TraceErr(span, err)
		return err
	}

	for _, account := range accounts {
		if err := ctx.Err(); err != nil {
			tracing.TraceErr(span, err)
			return err
		}
		if _, err := s.SyncAccount(ctx, account.ID); err != nil {
			s.log.Errorf("sync failed for account %s: %v", account.ID, err)
		}
	}
	return nil
}

// flattenTree walks the fetched tree into folder rows, computing each
// folder's materialized path from its parent chain.
func flattenTree(tree *interfaces.FolderTree) []*models.Folder {
	var folders []*models.Folder

	type entry struct {
		node       *interfaces.FolderNode
		parentPath string
	}

	var worklist []entry
	for _, root := range tree.Roots {
		worklist = append(worklist, entry{node: root})
	}

	for len(worklist) > 0 {
		current := worklist[0]
		worklist = worklist[1:]

		path := current.node.Folder.DisplayName
		if current.parentPath != "" {
			path = current.parentPath + "/" + current.node.Folder.DisplayName
		}

		folders = append(folders, &models.Folder{
			RemoteID:       current.node.Folder.ID,
			DisplayName:    current.node.Folder.DisplayName,
			Path:           path,
			ParentRemoteID: current.node.Folder.ParentFolderID,
			TotalCount:     current.node.Folder.TotalItemCount,
			UnreadCount:    current.node.Folder.UnreadItemCount,
		})

		for _, child := range current.node.Children {
			worklist = append(worklist, entry{node: child, parentPath: path})
		}
	}
	return folders
}
