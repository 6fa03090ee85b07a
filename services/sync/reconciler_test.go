package sync

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	mirror_errors "github.com/ricardag/mailmirror/errors"
	"github.com/ricardag/mailmirror/interfaces"
	"github.com/ricardag/mailmirror/internal/enum"
	"github.com/ricardag/mailmirror/internal/models"
	"github.com/ricardag/mailmirror/internal/utils"
)

// memoryMessageRepository is an in-memory MessageRepository. Transactions are
// approximated with a snapshot restored on rollback, which is enough to
// observe commit and rollback behavior.
type memoryMessageRepository struct {
	byKey map[string]*models.Message

	failCreate error
	failUpdate error

	creates int
	updates int
}

func newMemoryMessageRepository() *memoryMessageRepository {
	return &memoryMessageRepository{
		byKey: make(map[string]*models.Message),
	}
}

func (r *memoryMessageRepository) key(accountID, messageKey string) string {
	return accountID + "|" + messageKey
}

func (r *memoryMessageRepository) GetByID(ctx context.Context, id string) (*models.Message, error) {
	for _, m := range r.byKey {
		if m.ID == id {
			return m, nil
		}
	}
	return nil, nil
}

func (r *memoryMessageRepository) GetByMessageKey(ctx context.Context, accountID, messageKey string) (*models.Message, error) {
	if m, ok := r.byKey[r.key(accountID, messageKey)]; ok {
		copied := *m
		return &copied, nil
	}
	return nil, nil
}

func (r *memoryMessageRepository) Create(ctx context.Context, message *models.Message) error {
	if r.failCreate != nil {
		return r.failCreate
	}
	if message.ID == "" {
		message.ID = utils.GenerateNanoIDWithPrefix("msg", 24)
	}
	copied := *message
	r.byKey[r.key(message.AccountID, message.MessageKey)] = &copied
	r.creates++
	return nil
}

func (r *memoryMessageRepository) UpdateStatusFields(ctx context.Context, message *models.Message) error {
	if r.failUpdate != nil {
		return r.failUpdate
	}
	existing, ok := r.byKey[r.key(message.AccountID, message.MessageKey)]
	if !ok {
		return errors.New("message not found")
	}
	existing.IsRead = message.IsRead
	existing.IsDraft = message.IsDraft
	existing.HasAttachments = message.HasAttachments
	existing.Importance = message.Importance
	existing.FlagStatus = message.FlagStatus
	r.updates++
	return nil
}

func (r *memoryMessageRepository) ListByAccount(ctx context.Context, accountID string, limit, offset int) ([]*models.Message, int64, error) {
	return nil, 0, nil
}

func (r *memoryMessageRepository) ListByFolder(ctx context.Context, accountID, parentFolderID string, limit, offset int) ([]*models.Message, int64, error) {
	return nil, 0, nil
}

func (r *memoryMessageRepository) CountByAccount(ctx context.Context, accountID string) (int64, error) {
	return int64(len(r.byKey)), nil
}

func (r *memoryMessageRepository) DeleteByAccount(ctx context.Context, accountID string) error {
	return nil
}

func (r *memoryMessageRepository) WithTx(ctx context.Context, fn func(interfaces.MessageRepository) error) error {
	snapshot := make(map[string]*models.Message, len(r.byKey))
	for k, v := range r.byKey {
		copied := *v
		snapshot[k] = &copied
	}
	snapshotCreates, snapshotUpdates := r.creates, r.updates

	if err := fn(r); err != nil {
		r.byKey = snapshot
		r.creates, r.updates = snapshotCreates, snapshotUpdates
		return err
	}
	return nil
}

func testAccount() *models.Account {
	return &models.Account{
		ID:           "acct_test",
		Provider:     enum.ProviderOutlook,
		Name:         "Work",
		EmailAddress: "user@example.com",
	}
}

func remoteMessage(id, internetMessageID string) interfaces.RemoteMessage {
	received := time.Date(2026, 3, 10, 9, 30, 0, 0, time.UTC)
	read := true
	return interfaces.RemoteMessage{
		ID:                id,
		InternetMessageID: internetMessageID,
		Subject:           "quarterly numbers",
		ReceivedAt:        &received,
		IsRead:            &read,
		From:              &interfaces.RemoteRecipient{Address: "alice@example.com", Name: "Alice"},
	}
}

func TestReconcile_CreatesNewMessages(t *testing.T) {
	repo := newMemoryMessageRepository()
	reconciler := NewReconciler(repo, testLogger())

	batch := []interfaces.RemoteMessage{
		remoteMessage("m1", "<one@example.com>"),
		remoteMessage("m2", "<two@example.com>"),
	}

	result, err := reconciler.Reconcile(context.Background(), testAccount(), batch)

	require.NoError(t, err)
	assert.Equal(t, 2, result.Created)
	assert.Zero(t, result.Updated)
	assert.Zero(t, result.Skipped)
	require.Len(t, result.CreatedMessages, 2)

	stored, err := repo.GetByMessageKey(context.Background(), "acct_test", "one@example.com")
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, "quarterly numbers", stored.Subject)
	assert.True(t, stored.IsRead)
	assert.Equal(t, enum.ImportanceNormal, stored.Importance)
	assert.Equal(t, enum.FlagStatusNotFlagged, stored.FlagStatus)
}

func TestReconcile_IsIdempotent(t *testing.T) {
	repo := newMemoryMessageRepository()
	reconciler := NewReconciler(repo, testLogger())

	batch := []interfaces.RemoteMessage{remoteMessage("m1", "<one@example.com>")}

	first, err := reconciler.Reconcile(context.Background(), testAccount(), batch)
	require.NoError(t, err)
	assert.Equal(t, 1, first.Created)

	second, err := reconciler.Reconcile(context.Background(), testAccount(), batch)
	require.NoError(t, err)
	assert.Zero(t, second.Created)
	assert.Equal(t, 1, second.Updated)
	assert.Equal(t, 1, repo.creates)
}

func TestReconcile_UpdatesOnlyStatusProjection(t *testing.T) {
	repo := newMemoryMessageRepository()
	reconciler := NewReconciler(repo, testLogger())
	account := testAccount()

	original := remoteMessage("m1", "<one@example.com>")
	_, err := reconciler.Reconcile(context.Background(), account, []interfaces.RemoteMessage{original})
	require.NoError(t, err)

	// The remote copy changes subject and flags; only flags may land locally
	changed := original
	changed.Subject = "RETRACTED"
	read := false
	flagged := "flagged"
	changed.IsRead = &read
	changed.FlagStatus = &flagged

	result, err := reconciler.Reconcile(context.Background(), account, []interfaces.RemoteMessage{changed})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Updated)

	stored, err := repo.GetByMessageKey(context.Background(), account.ID, "one@example.com")
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, "quarterly numbers", stored.Subject)
	assert.False(t, stored.IsRead)
	assert.Equal(t, enum.FlagStatusFlagged, stored.FlagStatus)
}

func TestReconcile_MessageKeyChain(t *testing.T) {
	repo := newMemoryMessageRepository()
	reconciler := NewReconciler(repo, testLogger())
	account := testAccount()

	header := remoteMessage("m1", "<header@example.com>")
	noHeader := remoteMessage("provider-id-only", "")
	noIdentity := remoteMessage("", "")

	result, err := reconciler.Reconcile(context.Background(), account, []interfaces.RemoteMessage{header, noHeader, noIdentity})
	require.NoError(t, err)
	require.Equal(t, 3, result.Created)

	// Message-ID header wins over the provider id
	assert.Equal(t, "header@example.com", result.CreatedMessages[0].MessageKey)
	// Provider id is the fallback
	assert.Equal(t, "provider-id-only", result.CreatedMessages[1].MessageKey)
	// With neither, a key is generated in the account's domain
	assert.Contains(t, result.CreatedMessages[2].MessageKey, "@example.com")
	assert.NotEmpty(t, result.CreatedMessages[2].MessageKey)
}

func TestReconcile_SkipsMalformedAndCommitsRest(t *testing.T) {
	repo := newMemoryMessageRepository()
	reconciler := NewReconciler(repo, testLogger())

	malformed := interfaces.RemoteMessage{ID: "m-broken", Subject: "no timestamps at all"}
	batch := []interfaces.RemoteMessage{
		remoteMessage("m1", "<one@example.com>"),
		malformed,
		remoteMessage("m2", "<two@example.com>"),
	}

	result, err := reconciler.Reconcile(context.Background(), testAccount(), batch)

	require.NoError(t, err)
	assert.Equal(t, 2, result.Created)
	assert.Equal(t, 1, result.Skipped)
	assert.Equal(t, 2, repo.creates)
}

func TestReconcile_StorageFailureRollsBackBatch(t *testing.T) {
	repo := newMemoryMessageRepository()
	reconciler := NewReconciler(repo, testLogger())

	_, err := reconciler.Reconcile(context.Background(), testAccount(), []interfaces.RemoteMessage{
		remoteMessage("m1", "<one@example.com>"),
	})
	require.NoError(t, err)

	repo.failCreate = errors.New("disk full")
	batch := []interfaces.RemoteMessage{remoteMessage("m2", "<two@example.com>")}

	result, err := reconciler.Reconcile(context.Background(), testAccount(), batch)

	require.Error(t, err)
	assert.Nil(t, result)

	var persistErr *mirror_errors.PersistenceError
	require.ErrorAs(t, err, &persistErr)

	// The failed batch left no partial writes behind
	count, _ := repo.CountByAccount(context.Background(), "acct_test")
	assert.Equal(t, int64(1), count)
}

func TestReconcile_SentAtSubstitutesMissingReceivedAt(t *testing.T) {
	repo := newMemoryMessageRepository()
	reconciler := NewReconciler(repo, testLogger())

	sent := time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)
	remote := interfaces.RemoteMessage{
		ID:                "m-sent-only",
		InternetMessageID: "<sent-only@example.com>",
		SentAt:            &sent,
	}

	result, err := reconciler.Reconcile(context.Background(), testAccount(), []interfaces.RemoteMessage{remote})

	require.NoError(t, err)
	require.Equal(t, 1, result.Created)
	assert.Equal(t, sent, result.CreatedMessages[0].ReceivedAt)
}
