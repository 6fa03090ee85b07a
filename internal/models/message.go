package models

import (
	"time"

	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/ricardag/mailmirror/internal/enum"
	"github.com/ricardag/mailmirror/internal/utils"
)

// Message is a mirrored remote mail item. The pair (account_id, message_key)
// is the reconciliation key: content fields are written once at creation and
// never revised; only the mutable status projection is updated on later syncs.
type Message struct {
	ID        string `gorm:"column:id;type:varchar(50);primaryKey" json:"id"`
	AccountID string `gorm:"column:account_id;type:varchar(50);uniqueIndex:uq_message_key_account;index;not null" json:"accountId"`

	// Identifiers
	MessageKey     string `gorm:"column:message_key;type:varchar(500);uniqueIndex:uq_message_key_account;not null" json:"messageKey"`
	ProviderID     string `gorm:"column:provider_id;type:varchar(200);index" json:"providerId"`
	ConversationID string `gorm:"column:conversation_id;type:varchar(200);index" json:"conversationId"`
	ChangeKey      string `gorm:"column:change_key;type:varchar(200)" json:"changeKey"`

	// Time information
	ReceivedAt       time.Time  `gorm:"column:received_at;type:timestamp;index;not null" json:"receivedAt"`
	SentAt           *time.Time `gorm:"column:sent_at;type:timestamp" json:"sentAt"`
	RemoteCreatedAt  *time.Time `gorm:"column:remote_created_at;type:timestamp" json:"remoteCreatedAt"`
	RemoteModifiedAt *time.Time `gorm:"column:remote_modified_at;type:timestamp" json:"remoteModifiedAt"`

	// Sender
	FromAddress   string `gorm:"column:from_address;type:varchar(255);index" json:"fromAddress"`
	FromName      string `gorm:"column:from_name;type:varchar(255)" json:"fromName"`
	SenderAddress string `gorm:"column:sender_address;type:varchar(255)" json:"senderAddress"`
	SenderName    string `gorm:"column:sender_name;type:varchar(255)" json:"senderName"`

	// Recipients
	ToRecipients  RecipientList `gorm:"column:to_recipients;type:jsonb" json:"toRecipients"`
	CcRecipients  RecipientList `gorm:"column:cc_recipients;type:jsonb" json:"ccRecipients"`
	BccRecipients RecipientList `gorm:"column:bcc_recipients;type:jsonb" json:"bccRecipients"`
	ReplyTo       RecipientList `gorm:"column:reply_to;type:jsonb" json:"replyTo"`

	// Content
	Subject     string        `gorm:"column:subject;type:varchar(1000)" json:"subject"`
	BodyPreview string        `gorm:"column:body_preview;type:varchar(2000)" json:"bodyPreview"`
	Body        string        `gorm:"column:body;type:text" json:"body"`
	BodyType    enum.BodyType `gorm:"column:body_type;type:varchar(20)" json:"bodyType"`

	// Status and flags (the mutable projection)
	IsRead         bool            `gorm:"column:is_read;not null;index" json:"isRead"`
	IsDraft        bool            `gorm:"column:is_draft;not null" json:"isDraft"`
	HasAttachments bool            `gorm:"column:has_attachments;not null" json:"hasAttachments"`
	Importance     enum.Importance `gorm:"column:importance;type:varchar(20)" json:"importance"`
	FlagStatus     enum.FlagStatus `gorm:"column:flag_status;type:varchar(20)" json:"flagStatus"`

	// Receipts
	DeliveryReceiptRequested bool `gorm:"column:delivery_receipt_requested;not null" json:"deliveryReceiptRequested"`
	ReadReceiptRequested     bool `gorm:"column:read_receipt_requested;not null" json:"readReceiptRequested"`

	// Categories and classification
	Categories     pq.StringArray             `gorm:"column:categories;type:text[]" json:"categories"`
	Classification enum.MessageClassification `gorm:"column:classification;type:varchar(50)" json:"classification"`

	// Folder and links
	ParentFolderID string `gorm:"column:parent_folder_id;type:varchar(256);index" json:"parentFolderId"`
	WebLink        string `gorm:"column:web_link;type:varchar(500)" json:"webLink"`

	// Raw data
	Headers     HeaderList     `gorm:"column:headers;type:jsonb" json:"headers"`
	Attachments AttachmentList `gorm:"column:attachments;type:jsonb" json:"attachments"`

	CreatedAt time.Time `gorm:"column:created_at;type:timestamp;default:current_timestamp" json:"createdAt"`
	UpdatedAt time.Time `gorm:"column:updated_at;type:timestamp;default:current_timestamp" json:"updatedAt"`
}

func (Message) TableName() string {
	return "messages"
}

func (m *Message) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = utils.GenerateNanoIDWithPrefix("msg", 24)
	}
	m.CreatedAt = utils.Now()
	return nil
}
