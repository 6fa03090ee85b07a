package mirror_errors

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	// account errors
	ErrAccountNotFound    = errors.New("account not found")
	ErrAccountExists      = errors.New("account already exists")
	ErrProviderUnselected = errors.New("account provider not selected")

	// sync errors
	ErrNoUsableClient = errors.New("no usable provider client")
)

// FetchScope names the part of the remote tree a fetch failure applies to.
type FetchScope string

const (
	FetchScopeRootFolders  FetchScope = "root-folders"
	FetchScopeChildFolders FetchScope = "child-folders"
	FetchScopeMessagePage  FetchScope = "message-page"
)

// FetchError is a provider failure annotated with the scope it hit. Branch
// failures during a folder tree fetch are collected as FetchErrors instead of
// discarding the already fetched part of the tree.
type FetchError struct {
	Scope    FetchScope
	FolderID string
	Cause    error
}

func (e *FetchError) Error() string {
	if e.FolderID != "" {
		return fmt.Sprintf("fetch failed (%s, folder %s): %v", e.Scope, e.FolderID, e.Cause)
	}
	return fmt.Sprintf("fetch failed (%s): %v", e.Scope, e.Cause)
}

func (e *FetchError) Unwrap() error {
	return e.Cause
}

func NewFetchError(scope FetchScope, folderID string, cause error) *FetchError {
	return &FetchError{Scope: scope, FolderID: folderID, Cause: cause}
}

// PersistenceError wraps a local-storage failure; the enclosing transaction
// has been rolled back when it is returned.
type PersistenceError struct {
	Cause error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence failed: %v", e.Cause)
}

func (e *PersistenceError) Unwrap() error {
	return e.Cause
}

func NewPersistenceError(cause error) *PersistenceError {
	return &PersistenceError{Cause: cause}
}
