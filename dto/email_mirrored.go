package dto

import "github.com/ricardag/mailmirror/internal/enum"

// EmailMirrored is published after a remote message has been written to the
// local mirror.
type EmailMirrored struct {
	AccountID  string               `json:"accountId"`
	MessageID  string               `json:"messageId"`
	MessageKey string               `json:"messageKey"`
	Provider   enum.AccountProvider `json:"provider"`
	FolderID   string               `json:"folderId,omitempty"`
	Created    bool                 `json:"created"`
}

// FolderTreeSynced is published after the full folder tree of an account has
// been fetched and persisted.
type FolderTreeSynced struct {
	AccountID    string `json:"accountId"`
	FolderCount  int    `json:"folderCount"`
	BranchErrors int    `json:"branchErrors"`
}
