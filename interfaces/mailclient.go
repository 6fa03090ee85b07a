package interfaces

import (
	"context"
	"time"

	"github.com/ricardag/mailmirror/internal/enum"
	"github.com/ricardag/mailmirror/internal/models"
)

// RemoteFolder is the fixed folder projection requested from every provider.
type RemoteFolder struct {
	ID               string
	DisplayName      string
	ParentFolderID   string
	ChildFolderCount int
	TotalItemCount   int
	UnreadItemCount  int
}

// FolderPage is one page of a folder listing. NextLink is the opaque
// continuation token; empty means no further page.
type FolderPage struct {
	Folders  []RemoteFolder
	NextLink string
}

type RemoteRecipient struct {
	Address string
	Name    string
}

type RemoteItemBody struct {
	ContentType string
	Content     string
}

type RemoteHeader struct {
	Name  string
	Value string
}

type RemoteAttachment struct {
	ID          string
	Name        string
	ContentType string
	Size        int64
	IsInline    bool
}

// RemoteMessage is the provider-neutral message projection. Optional fields
// are pointers so the reconciler can substitute defaults explicitly.
type RemoteMessage struct {
	ID                string
	InternetMessageID string
	ConversationID    string
	ChangeKey         string

	Subject     string
	BodyPreview string
	Body        *RemoteItemBody

	From   *RemoteRecipient
	Sender *RemoteRecipient

	ToRecipients  []RemoteRecipient
	CcRecipients  []RemoteRecipient
	BccRecipients []RemoteRecipient
	ReplyTo       []RemoteRecipient

	ReceivedAt *time.Time
	SentAt     *time.Time
	CreatedAt  *time.Time
	ModifiedAt *time.Time

	IsRead         *bool
	IsDraft        *bool
	HasAttachments *bool

	Importance *string
	FlagStatus *string

	DeliveryReceiptRequested *bool
	ReadReceiptRequested     *bool

	Categories     []string
	Classification *string

	ParentFolderID string
	WebLink        string

	Headers     []RemoteHeader
	Attachments []RemoteAttachment
}

// MessagePage is one page of a message listing, ordered received-at
// descending by the provider.
type MessagePage struct {
	Messages []RemoteMessage
	NextLink string
}

type MessagePageOptions struct {
	// FolderID scopes the listing; empty means the whole mailbox.
	FolderID string
	// PageSize is the fixed page size; providers may cap it lower.
	PageSize int
	// PageToken continues a previous listing.
	PageToken string
}

// MailClient is an authenticated connection to one remote mailbox.
type MailClient interface {
	Provider() enum.AccountProvider
	// ListFolders returns one page of the account's root-level folders.
	ListFolders(ctx context.Context, pageToken string) (*FolderPage, error)
	// ListChildFolders returns one page of the direct children of folderID.
	ListChildFolders(ctx context.Context, folderID, pageToken string) (*FolderPage, error)
	// ListMessages returns one page of messages, newest first.
	ListMessages(ctx context.Context, opts MessagePageOptions) (*MessagePage, error)
	// FetchAttachment retrieves one attachment's content and content type.
	FetchAttachment(ctx context.Context, messageID, attachmentID string) ([]byte, string, error)
}

// CheckpointedMailClient is implemented by UID-based backends that can
// resume a listing from a per-folder high-water mark instead of refetching
// the newest page.
type CheckpointedMailClient interface {
	MailClient
	// ListMessagesSince returns the messages above the per-folder
	// checkpoints, plus the new high-water marks keyed by folder name.
	ListMessagesSince(ctx context.Context, opts MessagePageOptions, checkpoints map[string]uint32) (*MessagePage, map[string]uint32, error)
}

// MailClientFactory resolves an authenticated client for an account, or
// ErrNoUsableClient when no cached credential exists.
type MailClientFactory interface {
	ClientFor(ctx context.Context, account *models.Account) (MailClient, error)
}
