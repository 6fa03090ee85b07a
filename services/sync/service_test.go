package sync

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ricardag/mailmirror/config"
	mirror_errors "github.com/ricardag/mailmirror/errors"
	"github.com/ricardag/mailmirror/interfaces"
	"github.com/ricardag/mailmirror/internal/models"
	"github.com/ricardag/mailmirror/internal/repository"
)

type fakeAccountRepository struct {
	accounts map[string]*models.Account
	statuses []string
}

func (r *fakeAccountRepository) Create(ctx context.Context, account *models.Account) (string, error) {
	return account.ID, nil
}

func (r *fakeAccountRepository) GetByID(ctx context.Context, id string) (*models.Account, error) {
	return r.accounts[id], nil
}

func (r *fakeAccountRepository) GetByEmailAddress(ctx context.Context, emailAddress string) (*models.Account, error) {
	return nil, nil
}

func (r *fakeAccountRepository) List(ctx context.Context) ([]*models.Account, error) {
	var out []*models.Account
	for _, a := range r.accounts {
		out = append(out, a)
	}
	return out, nil
}

func (r *fakeAccountRepository) Update(ctx context.Context, account *models.Account) error {
	return nil
}

func (r *fakeAccountRepository) SetSyncStatus(ctx context.Context, id, status, errorMessage string) error {
	r.statuses = append(r.statuses, status)
	return nil
}

func (r *fakeAccountRepository) Delete(ctx context.Context, id string) error {
	return nil
}

type fakeFolderRepository struct {
	upserted []*models.Folder
	failWith error
}

func (r *fakeFolderRepository) GetByRemoteID(ctx context.Context, accountID, remoteID string) (*models.Folder, error) {
	return nil, nil
}

func (r *fakeFolderRepository) ListByAccount(ctx context.Context, accountID string) ([]*models.Folder, error) {
	return nil, nil
}

func (r *fakeFolderRepository) ListTree(ctx context.Context, accountID string) ([]*models.Folder, error) {
	return nil, nil
}

func (r *fakeFolderRepository) UpsertTree(ctx context.Context, accountID string, folders []*models.Folder) error {
	if r.failWith != nil {
		return r.failWith
	}
	r.upserted = folders
	return nil
}

func (r *fakeFolderRepository) DeleteByAccount(ctx context.Context, accountID string) error {
	return nil
}

type fakeSyncStateRepository struct {
	states map[string]uint32
	saved  []*models.FolderSyncState
}

func (r *fakeSyncStateRepository) GetSyncState(ctx context.Context, accountID, folderName string) (*models.FolderSyncState, error) {
	uid, ok := r.states[folderName]
	if !ok {
		return nil, nil
	}
	return &models.FolderSyncState{AccountID: accountID, FolderName: folderName, LastUID: uid}, nil
}

func (r *fakeSyncStateRepository) SaveSyncState(ctx context.Context, state *models.FolderSyncState) error {
	if r.states == nil {
		r.states = make(map[string]uint32)
	}
	r.states[state.FolderName] = state.LastUID
	r.saved = append(r.saved, state)
	return nil
}

func (r *fakeSyncStateRepository) DeleteSyncStates(ctx context.Context, accountID string) error {
	r.states = nil
	return nil
}

func (r *fakeSyncStateRepository) GetSyncStates(ctx context.Context, accountID string) (map[string]uint32, error) {
	out := make(map[string]uint32, len(r.states))
	for folderName, uid := range r.states {
		out[folderName] = uid
	}
	return out, nil
}

// fakeCheckpointedClient scripts the incremental listing of a UID-based
// backend on top of the scripted folder pages.
type fakeCheckpointedClient struct {
	*fakeMailClient
	messagesSince   func(checkpoints map[string]uint32) (*interfaces.MessagePage, map[string]uint32)
	seenCheckpoints []map[string]uint32
}

func (c *fakeCheckpointedClient) ListMessagesSince(ctx context.Context, opts interfaces.MessagePageOptions, checkpoints map[string]uint32) (*interfaces.MessagePage, map[string]uint32, error) {
	c.seenCheckpoints = append(c.seenCheckpoints, checkpoints)
	page, marks := c.messagesSince(checkpoints)
	return page, marks, nil
}

type fakeClientFactory struct {
	client interfaces.MailClient
	err    error
}

func (f *fakeClientFactory) ClientFor(ctx context.Context, account *models.Account) (interfaces.MailClient, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.client, nil
}

type fakePublisher struct {
	mirrored    int
	treesSynced int
}

func (p *fakePublisher) PublishEmailMirrored(ctx context.Context, message *models.Message, created bool) error {
	p.mirrored++
	return nil
}

func (p *fakePublisher) PublishFolderTreeSynced(ctx context.Context, accountID string, folderCount int) error {
	p.treesSynced++
	return nil
}

func (p *fakePublisher) Close() error {
	return nil
}

func newSyncFixture(client interfaces.MailClient) (interfaces.SyncService, *fakeAccountRepository, *fakeFolderRepository, *memoryMessageRepository, *fakePublisher) {
	accountRepo := &fakeAccountRepository{
		accounts: map[string]*models.Account{
			"acct_test": testAccount(),
		},
	}
	folderRepo := &fakeFolderRepository{}
	messageRepo := newMemoryMessageRepository()
	publisher := &fakePublisher{}

	repos := &repository.Repositories{
		AccountRepository: accountRepo,
		FolderRepository:  folderRepo,
		MessageRepository: messageRepo,
	}
	service := NewSyncService(repos, &fakeClientFactory{client: client}, publisher, &config.SyncConfig{
		FolderPageSize:  100,
		MessagePageSize: 25,
	}, testLogger())

	return service, accountRepo, folderRepo, messageRepo, publisher
}

func TestSyncAccount_FullCycle(t *testing.T) {
	received := time.Date(2026, 5, 20, 10, 0, 0, 0, time.UTC)
	client := newFakeMailClient()
	client.folderPages[""] = []*interfaces.FolderPage{
		{Folders: []interfaces.RemoteFolder{folder("inbox", 1)}},
	}
	client.folderPages["inbox"] = []*interfaces.FolderPage{
		{Folders: []interfaces.RemoteFolder{{ID: "inbox/sub", DisplayName: "Sub", ParentFolderID: "inbox"}}},
	}
	client.messagePages = []*interfaces.MessagePage{
		{Messages: []interfaces.RemoteMessage{
			{ID: "m1", InternetMessageID: "<one@example.com>", ReceivedAt: &received},
			{ID: "m2", InternetMessageID: "<two@example.com>", ReceivedAt: &received},
		}},
	}

	service, accountRepo, folderRepo, _, publisher := newSyncFixture(client)

	report, err := service.SyncAccount(context.Background(), "acct_test")

	require.NoError(t, err)
	assert.Equal(t, "acct_test", report.AccountID)
	assert.Equal(t, 2, report.FoldersSynced)
	assert.Equal(t, 2, report.MessagesCreated)
	assert.Empty(t, report.BranchErrors)
	assert.NotZero(t, report.Duration)

	// Materialized paths are computed from the parent chain
	require.Len(t, folderRepo.upserted, 2)
	assert.Equal(t, "Folder inbox", folderRepo.upserted[0].Path)
	assert.Equal(t, "Folder inbox/Sub", folderRepo.upserted[1].Path)

	assert.Equal(t, []string{"running", "ok"}, accountRepo.statuses)
	assert.Equal(t, 1, publisher.treesSynced)
	assert.Equal(t, 2, publisher.mirrored)
}

func TestSyncAccount_UnknownAccount(t *testing.T) {
	service, _, _, _, _ := newSyncFixture(newFakeMailClient())

	report, err := service.SyncAccount(context.Background(), "acct_missing")

	assert.Nil(t, report)
	assert.ErrorIs(t, err, mirror_errors.ErrAccountNotFound)
}

func TestSyncAccount_FetchFailureRecordsErrorStatus(t *testing.T) {
	client := newFakeMailClient()
	client.failRoots = errors.New("remote listing down")

	service, accountRepo, _, _, _ := newSyncFixture(client)

	report, err := service.SyncAccount(context.Background(), "acct_test")

	assert.Nil(t, report)
	require.Error(t, err)

	var fetchErr *mirror_errors.FetchError
	assert.ErrorAs(t, err, &fetchErr)
	assert.Equal(t, []string{"running", "error"}, accountRepo.statuses)
}

func TestSyncAccount_BranchErrorsReported(t *testing.T) {
	received := time.Date(2026, 5, 20, 10, 0, 0, 0, time.UTC)
	client := newFakeMailClient()
	client.folderPages[""] = []*interfaces.FolderPage{
		{Folders: []interfaces.RemoteFolder{folder("inbox", 0), folder("broken", 2)}},
	}
	client.failFolders["broken"] = errors.New("subtree unavailable")
	client.messagePages = []*interfaces.MessagePage{
		{Messages: []interfaces.RemoteMessage{
			{ID: "m1", InternetMessageID: "<one@example.com>", ReceivedAt: &received},
		}},
	}

	service, accountRepo, folderRepo, _, _ := newSyncFixture(client)

	report, err := service.SyncAccount(context.Background(), "acct_test")

	// A failed branch degrades the report without failing the sync
	require.NoError(t, err)
	require.Len(t, report.BranchErrors, 1)
	assert.Contains(t, report.BranchErrors[0], "broken")
	assert.Equal(t, 2, report.FoldersSynced)
	assert.Len(t, folderRepo.upserted, 2)
	assert.Equal(t, []string{"running", "ok"}, accountRepo.statuses)
}

func TestSyncAccount_ResumesFromFolderCheckpoint(t *testing.T) {
	received := time.Date(2026, 5, 20, 10, 0, 0, 0, time.UTC)
	base := newFakeMailClient()
	base.folderPages[""] = []*interfaces.FolderPage{
		{Folders: []interfaces.RemoteFolder{folder("INBOX", 0)}},
	}

	client := &fakeCheckpointedClient{fakeMailClient: base}
	client.messagesSince = func(checkpoints map[string]uint32) (*interfaces.MessagePage, map[string]uint32) {
		switch checkpoints["INBOX"] {
		case 0:
			return &interfaces.MessagePage{Messages: []interfaces.RemoteMessage{
				{ID: "INBOX|11", InternetMessageID: "<one@example.com>", ReceivedAt: &received},
				{ID: "INBOX|12", InternetMessageID: "<two@example.com>", ReceivedAt: &received},
			}}, map[string]uint32{"INBOX": 12}
		case 12:
			return &interfaces.MessagePage{Messages: []interfaces.RemoteMessage{
				{ID: "INBOX|13", InternetMessageID: "<three@example.com>", ReceivedAt: &received},
			}}, map[string]uint32{"INBOX": 13}
		default:
			return &interfaces.MessagePage{}, nil
		}
	}

	accountRepo := &fakeAccountRepository{
		accounts: map[string]*models.Account{"acct_test": testAccount()},
	}
	syncStateRepo := &fakeSyncStateRepository{}
	messageRepo := newMemoryMessageRepository()
	repos := &repository.Repositories{
		AccountRepository:         accountRepo,
		FolderRepository:          &fakeFolderRepository{},
		MessageRepository:         messageRepo,
		FolderSyncStateRepository: syncStateRepo,
	}
	service := NewSyncService(repos, &fakeClientFactory{client: client}, nil, &config.SyncConfig{
		FolderPageSize:  100,
		MessagePageSize: 25,
	}, testLogger())

	report, err := service.SyncAccount(context.Background(), "acct_test")
	require.NoError(t, err)
	assert.Equal(t, 2, report.MessagesCreated)

	// The first sync records the high-water mark
	assert.Equal(t, uint32(12), syncStateRepo.states["INBOX"])

	report, err = service.SyncAccount(context.Background(), "acct_test")
	require.NoError(t, err)
	assert.Equal(t, 1, report.MessagesCreated)

	// The second sync started from the saved checkpoint and advanced it
	require.Len(t, client.seenCheckpoints, 2)
	assert.Empty(t, client.seenCheckpoints[0])
	assert.Equal(t, uint32(12), client.seenCheckpoints[1]["INBOX"])
	assert.Equal(t, uint32(13), syncStateRepo.states["INBOX"])
}

func TestSyncAccount_PersistenceFailureRollsStatusToError(t *testing.T) {
	client := newFakeMailClient()
	client.folderPages[""] = []*interfaces.FolderPage{
		{Folders: []interfaces.RemoteFolder{folder("inbox", 0)}},
	}

	service, accountRepo, folderRepo, _, _ := newSyncFixture(client)
	folderRepo.failWith = errors.New("constraint violated")

	report, err := service.SyncAccount(context.Background(), "acct_test")

	assert.Nil(t, report)
	require.Error(t, err)

	var persistErr *mirror_errors.PersistenceError
	assert.ErrorAs(t, err, &persistErr)
	assert.Equal(t, []string{"running", "error"}, accountRepo.statuses)
}
