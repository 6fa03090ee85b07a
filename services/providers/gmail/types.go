package gmail

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"strconv"
	"time"

	"github.com/jhillyerd/enmime"

	"github.com/ricardag/mailmirror/interfaces"
	"github.com/ricardag/mailmirror/internal/enum"
	"github.com/ricardag/mailmirror/internal/utils"
)

type label struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Type           string `json:"type"`
	MessagesTotal  int    `json:"messagesTotal"`
	MessagesUnread int    `json:"messagesUnread"`
}

type labelListResponse struct {
	Labels []label `json:"labels"`
}

type messageRef struct {
	ID       string `json:"id"`
	ThreadID string `json:"threadId"`
}

type messageListResponse struct {
	Messages      []messageRef `json:"messages"`
	NextPageToken string       `json:"nextPageToken"`
}

type rawMessageResponse struct {
	ID           string   `json:"id"`
	ThreadID     string   `json:"threadId"`
	LabelIDs     []string `json:"labelIds"`
	Snippet      string   `json:"snippet"`
	InternalDate string   `json:"internalDate"`
	Raw          string   `json:"raw"`
}

// parseRaw decodes the base64url payload into a parsed MIME envelope.
func (r *rawMessageResponse) parseRaw() (*enmime.Envelope, error) {
	rawBytes, err := base64.URLEncoding.DecodeString(r.Raw)
	if err != nil {
		return nil, fmt.Errorf("failed to decode raw message %s: %w", r.ID, err)
	}

	envelope, err := enmime.ReadEnvelope(bytes.NewReader(rawBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to parse message %s: %w", r.ID, err)
	}
	return envelope, nil
}

// partID keys the i-th non-inline MIME part. The raw format exposes no API
// attachment ids, so parts carry ids derived from the message.
func (r *rawMessageResponse) partID(i int) string {
	return fmt.Sprintf("%s-att-%d", r.ID, i)
}

// attachmentByID returns one part's content and content type, matching the
// part ids assigned by toRemoteMessage. Content comes straight from the
// fetched MIME; the attachments endpoint only accepts its own part ids.
func (r *rawMessageResponse) attachmentByID(attachmentID string) ([]byte, string, error) {
	envelope, err := r.parseRaw()
	if err != nil {
		return nil, "", err
	}

	for i, attachment := range envelope.Attachments {
		if r.partID(i) == attachmentID {
			return attachment.Content, attachment.ContentType, nil
		}
	}
	for _, inline := range envelope.Inlines {
		if inline.ContentID != "" && inline.ContentID == attachmentID {
			return inline.Content, inline.ContentType, nil
		}
	}
	return nil, "", fmt.Errorf("attachment %s not found on message %s", attachmentID, r.ID)
}

// toRemoteMessage parses the raw RFC 822 payload into the provider-neutral
// projection. Read and draft state come from the Gmail labels.
func (r *rawMessageResponse) toRemoteMessage() (*interfaces.RemoteMessage, error) {
	envelope, err := r.parseRaw()
	if err != nil {
		return nil, err
	}

	remote := &interfaces.RemoteMessage{
		ID:                r.ID,
		InternetMessageID: envelope.GetHeader("Message-Id"),
		ConversationID:    r.ThreadID,
		Subject:           envelope.GetHeader("Subject"),
		BodyPreview:       r.Snippet,
		Categories:        userLabels(r.LabelIDs),
	}

	if envelope.HTML != "" {
		remote.Body = &interfaces.RemoteItemBody{
			ContentType: string(enum.BodyTypeHTML),
			Content:     envelope.HTML,
		}
	} else if envelope.Text != "" {
		remote.Body = &interfaces.RemoteItemBody{
			ContentType: string(enum.BodyTypeText),
			Content:     envelope.Text,
		}
	}

	if from := addressList(envelope, "From"); len(from) > 0 {
		remote.From = &from[0]
		remote.Sender = &from[0]
	}
	if sender := addressList(envelope, "Sender"); len(sender) > 0 {
		remote.Sender = &sender[0]
	}
	remote.ToRecipients = addressList(envelope, "To")
	remote.CcRecipients = addressList(envelope, "Cc")
	remote.BccRecipients = addressList(envelope, "Bcc")
	remote.ReplyTo = addressList(envelope, "Reply-To")

	if millis, err := strconv.ParseInt(r.InternalDate, 10, 64); err == nil && millis > 0 {
		receivedAt := time.UnixMilli(millis).UTC()
		remote.ReceivedAt = &receivedAt
	}
	if sentAt, err := envelope.Date(); err == nil {
		utc := sentAt.UTC()
		remote.SentAt = &utc
	}

	isRead := !utils.IsStringInSlice("UNREAD", r.LabelIDs)
	isDraft := utils.IsStringInSlice("DRAFT", r.LabelIDs)
	hasAttachments := len(envelope.Attachments) > 0
	remote.IsRead = &isRead
	remote.IsDraft = &isDraft
	remote.HasAttachments = &hasAttachments

	for _, key := range envelope.GetHeaderKeys() {
		for _, value := range envelope.GetHeaderValues(key) {
			remote.Headers = append(remote.Headers, interfaces.RemoteHeader{
				Name:  key,
				Value: value,
			})
		}
	}

	for i, attachment := range envelope.Attachments {
		remote.Attachments = append(remote.Attachments, interfaces.RemoteAttachment{
			ID:          r.partID(i),
			Name:        attachment.FileName,
			ContentType: attachment.ContentType,
			Size:        int64(len(attachment.Content)),
		})
	}
	for _, inline := range envelope.Inlines {
		remote.Attachments = append(remote.Attachments, interfaces.RemoteAttachment{
			ID:          inline.ContentID,
			Name:        inline.FileName,
			ContentType: inline.ContentType,
			Size:        int64(len(inline.Content)),
			IsInline:    true,
		})
	}

	return remote, nil
}

func addressList(envelope *enmime.Envelope, header string) []interfaces.RemoteRecipient {
	addresses, err := envelope.AddressList(header)
	if err != nil || len(addresses) == 0 {
		return nil
	}
	out := make([]interfaces.RemoteRecipient, 0, len(addresses))
	for _, address := range addresses {
		out = append(out, interfaces.RemoteRecipient{
			Address: address.Address,
			Name:    address.Name,
		})
	}
	return out
}

func userLabels(labels []string) []string {
	var out []string
	for _, l := range labels {
		switch l {
		case "UNREAD", "DRAFT", "INBOX", "SENT", "SPAM", "TRASH", "STARRED", "IMPORTANT":
			continue
		}
		out = append(out, l)
	}
	return out
}
