package outlook

import (
	"encoding/base64"
	"time"

	"github.com/ricardag/mailmirror/interfaces"
)

type graphFolder struct {
	ID               string `json:"id"`
	DisplayName      string `json:"displayName"`
	ParentFolderID   string `json:"parentFolderId"`
	ChildFolderCount int    `json:"childFolderCount"`
	TotalItemCount   int    `json:"totalItemCount"`
	UnreadItemCount  int    `json:"unreadItemCount"`
}

type graphFolderList struct {
	Value    []graphFolder `json:"value"`
	NextLink string        `json:"@odata.nextLink"`
}

func (l *graphFolderList) toFolderPage() *interfaces.FolderPage {
	page := &interfaces.FolderPage{
		NextLink: l.NextLink,
	}
	for _, folder := range l.Value {
		page.Folders = append(page.Folders, interfaces.RemoteFolder{
			ID:               folder.ID,
			DisplayName:      folder.DisplayName,
			ParentFolderID:   folder.ParentFolderID,
			ChildFolderCount: folder.ChildFolderCount,
			TotalItemCount:   folder.TotalItemCount,
			UnreadItemCount:  folder.UnreadItemCount,
		})
	}
	return page
}

type graphEmailAddress struct {
	Address string `json:"address"`
	Name    string `json:"name"`
}

type graphRecipient struct {
	EmailAddress graphEmailAddress `json:"emailAddress"`
}

type graphItemBody struct {
	ContentType string `json:"contentType"`
	Content     string `json:"content"`
}

type graphFlag struct {
	FlagStatus *string `json:"flagStatus"`
}

type graphHeader struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type graphMessage struct {
	ID                string `json:"id"`
	InternetMessageID string `json:"internetMessageId"`
	ConversationID    string `json:"conversationId"`
	ChangeKey         string `json:"changeKey"`

	Subject     string         `json:"subject"`
	BodyPreview string         `json:"bodyPreview"`
	Body        *graphItemBody `json:"body"`

	From   *graphRecipient `json:"from"`
	Sender *graphRecipient `json:"sender"`

	ToRecipients  []graphRecipient `json:"toRecipients"`
	CcRecipients  []graphRecipient `json:"ccRecipients"`
	BccRecipients []graphRecipient `json:"bccRecipients"`
	ReplyTo       []graphRecipient `json:"replyTo"`

	ReceivedDateTime     *time.Time `json:"receivedDateTime"`
	SentDateTime         *time.Time `json:"sentDateTime"`
	CreatedDateTime      *time.Time `json:"createdDateTime"`
	LastModifiedDateTime *time.Time `json:"lastModifiedDateTime"`

	IsRead         *bool `json:"isRead"`
	IsDraft        *bool `json:"isDraft"`
	HasAttachments *bool `json:"hasAttachments"`

	Importance *string    `json:"importance"`
	Flag       *graphFlag `json:"flag"`

	IsDeliveryReceiptRequested *bool `json:"isDeliveryReceiptRequested"`
	IsReadReceiptRequested     *bool `json:"isReadReceiptRequested"`

	Categories              []string `json:"categories"`
	InferenceClassification *string  `json:"inferenceClassification"`

	ParentFolderID string `json:"parentFolderId"`
	WebLink        string `json:"webLink"`

	InternetMessageHeaders []graphHeader     `json:"internetMessageHeaders"`
	Attachments            []graphAttachment `json:"attachments"`
}

type graphMessageList struct {
	Value    []graphMessage `json:"value"`
	NextLink string         `json:"@odata.nextLink"`
}

func recipientToRemote(r graphRecipient) interfaces.RemoteRecipient {
	return interfaces.RemoteRecipient{
		Address: r.EmailAddress.Address,
		Name:    r.EmailAddress.Name,
	}
}

func recipientsToRemote(list []graphRecipient) []interfaces.RemoteRecipient {
	if len(list) == 0 {
		return nil
	}
	out := make([]interfaces.RemoteRecipient, 0, len(list))
	for _, r := range list {
		out = append(out, recipientToRemote(r))
	}
	return out
}

func (m *graphMessage) toRemoteMessage() interfaces.RemoteMessage {
	remote := interfaces.RemoteMessage{
		ID:                m.ID,
		InternetMessageID: m.InternetMessageID,
		ConversationID:    m.ConversationID,
		ChangeKey:         m.ChangeKey,

		Subject:     m.Subject,
		BodyPreview: m.BodyPreview,

		ToRecipients:  recipientsToRemote(m.ToRecipients),
		CcRecipients:  recipientsToRemote(m.CcRecipients),
		BccRecipients: recipientsToRemote(m.BccRecipients),
		ReplyTo:       recipientsToRemote(m.ReplyTo),

		ReceivedAt: m.ReceivedDateTime,
		SentAt:     m.SentDateTime,
		CreatedAt:  m.CreatedDateTime,
		ModifiedAt: m.LastModifiedDateTime,

		IsRead:         m.IsRead,
		IsDraft:        m.IsDraft,
		HasAttachments: m.HasAttachments,

		Importance: m.Importance,

		DeliveryReceiptRequested: m.IsDeliveryReceiptRequested,
		ReadReceiptRequested:     m.IsReadReceiptRequested,

		Categories:     m.Categories,
		Classification: m.InferenceClassification,

		ParentFolderID: m.ParentFolderID,
		WebLink:        m.WebLink,
	}

	if m.Body != nil {
		remote.Body = &interfaces.RemoteItemBody{
			ContentType: m.Body.ContentType,
			Content:     m.Body.Content,
		}
	}
	if m.From != nil {
		from := recipientToRemote(*m.From)
		remote.From = &from
	}
	if m.Sender != nil {
		sender := recipientToRemote(*m.Sender)
		remote.Sender = &sender
	}
	if m.Flag != nil {
		remote.FlagStatus = m.Flag.FlagStatus
	}
	for _, header := range m.InternetMessageHeaders {
		remote.Headers = append(remote.Headers, interfaces.RemoteHeader{
			Name:  header.Name,
			Value: header.Value,
		})
	}
	for _, attachment := range m.Attachments {
		remote.Attachments = append(remote.Attachments, interfaces.RemoteAttachment{
			ID:          attachment.ID,
			Name:        attachment.Name,
			ContentType: attachment.ContentType,
			Size:        attachment.Size,
			IsInline:    attachment.IsInline,
		})
	}

	return remote
}

type graphAttachment struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	ContentType  string `json:"contentType"`
	Size         int64  `json:"size"`
	IsInline     bool   `json:"isInline"`
	ContentBytes string `json:"contentBytes"`
}

func (a *graphAttachment) decodeContent() ([]byte, error) {
	return base64.StdEncoding.DecodeString(a.ContentBytes)
}
