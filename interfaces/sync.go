package interfaces

import (
	"context"
	"time"
)

// FolderNode is a fetched remote folder with its resolved children.
type FolderNode struct {
	Folder   RemoteFolder
	Children []*FolderNode
}

// FolderTree is the result of a whole-tree fetch. BranchErrors carries the
// failures of subtrees that could not be resolved; the rest of the tree is
// still returned.
type FolderTree struct {
	Roots        []*FolderNode
	BranchErrors []error
}

// SyncReport summarizes one fetch-then-reconcile cycle for an account.
type SyncReport struct {
	AccountID       string        `json:"accountId"`
	FoldersSynced   int           `json:"foldersSynced"`
	MessagesCreated int           `json:"messagesCreated"`
	MessagesUpdated int           `json:"messagesUpdated"`
	MessagesSkipped int           `json:"messagesSkipped"`
	BranchErrors    []string      `json:"branchErrors,omitempty"`
	Duration        time.Duration `json:"duration"`
}

type SyncService interface {
	// SyncAccount runs one full fetch-then-reconcile cycle for an account.
	SyncAccount(ctx context.Context, accountID string) (*SyncReport, error)
	// SyncAll syncs every configured account sequentially.
	SyncAll(ctx context.Context) error
}
