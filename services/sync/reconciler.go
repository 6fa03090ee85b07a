package sync

import (
	"context"

	"github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"

	mirror_errors "github.com/ricardag/mailmirror/errors"
	"github.com/ricardag/mailmirror/interfaces"
	"github.com/ricardag/mailmirror/internal/logger"
	"github.com/ricardag/mailmirror/internal/models"
	"github.com/ricardag/mailmirror/internal/tracing"
)

// ReconcileResult counts what one batch did to the local mirror. Created
// records are carried along for event publication after the commit.
type ReconcileResult struct {
	Created int
	Updated int
	Skipped int

	CreatedMessages []*models.Message
}

// Reconciler merges batches of remote messages into the local store. One
// batch runs in one transaction; malformed messages are skipped and counted
// while the rest of the batch commits.
type Reconciler struct {
	messages interfaces.MessageRepository
	log      logger.Logger
}

func NewReconciler(messages interfaces.MessageRepository, log logger.Logger) *Reconciler {
	return &Reconciler{
		messages: messages,
		log:      log,
	}
}

// Reconcile upserts the batch keyed by (account, message key). Messages not
// mirrored yet get a full mapping; already mirrored ones only have their
// status projection refreshed. Storage failures roll the whole batch back.
func (r *Reconciler) Reconcile(ctx context.Context, account *models.Account, remoteMessages []interfaces.RemoteMessage) (*ReconcileResult, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "Reconciler.Reconcile")
	defer span.Finish()
	tracing.TagComponentService(span)
	tracing.TagAccount(span, account.ID)
	span.SetTag("batch-size", len(remoteMessages))

	result := &ReconcileResult{}

	err := r.messages.WithTx(ctx, func(txRepo interfaces.MessageRepository) error {
		for i := range remoteMessages {
			remote := &remoteMessages[i]

			mapped, err := mapRemoteMessage(account.ID, account.EmailAddress, remote)
			if err != nil {
				if errors.Is(err, ErrMalformedMessage) {
					r.log.Warnf("skipping malformed message %q for account %s: %v", remote.ID, account.ID, err)
					result.Skipped++
					continue
				}
				return err
			}

			existing, err := txRepo.GetByMessageKey(ctx, account.ID, mapped.MessageKey)
			if err != nil {
				return err
			}

			if existing == nil {
				if err := txRepo.Create(ctx, mapped); err != nil {
					return err
				}
				result.Created++
				result.CreatedMessages = append(result.CreatedMessages, mapped)
				continue
			}

			existing.IsRead = mapped.IsRead
			existing.IsDraft = mapped.IsDraft
			existing.HasAttachments = mapped.HasAttachments
			existing.Importance = mapped.Importance
			existing.FlagStatus = mapped.FlagStatus
			if err := txRepo.UpdateStatusFields(ctx, existing); err != nil {
				return err
			}
			result.Updated++
		}
		return nil
	})
	if err != nil {
		persistErr := mirror_errors.NewPersistenceError(err)
		tracing.TraceErr(span, persistErr)
		return nil, persistErr
	}

	span.SetTag("created", result.Created)
	span.SetTag("updated", result.Updated)
	span.SetTag("skipped", result.Skipped)
	return result, nil
}
