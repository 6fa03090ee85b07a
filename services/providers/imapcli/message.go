package imapcli

import (
	"bytes"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/emersion/go-imap"
	"github.com/jhillyerd/enmime"
	"github.com/pkg/errors"

	"github.com/ricardag/mailmirror/interfaces"
	"github.com/ricardag/mailmirror/internal/enum"
)

const previewLength = 255

// messageToRemote converts one fetched IMAP message into the provider-neutral
// projection. The message id is "<folder>|<uid>" so a single string can
// address the message again later.
func messageToRemote(message *imap.Message, folderName string, section *imap.BodySectionName) (*interfaces.RemoteMessage, error) {
	raw, err := readBodySection(message, section)
	if err != nil {
		return nil, err
	}

	envelope, err := enmime.ReadEnvelope(bytes.NewReader(raw))
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse message")
	}

	remote := &interfaces.RemoteMessage{
		ID:                joinMessageID(folderName, message.Uid),
		InternetMessageID: envelope.GetHeader("Message-Id"),
		Subject:           envelope.GetHeader("Subject"),
		ParentFolderID:    folderName,
	}

	if envelope.HTML != "" {
		remote.Body = &interfaces.RemoteItemBody{
			ContentType: string(enum.BodyTypeHTML),
			Content:     envelope.HTML,
		}
		remote.BodyPreview = htmlPreview(envelope.HTML)
	} else if envelope.Text != "" {
		remote.Body = &interfaces.RemoteItemBody{
			ContentType: string(enum.BodyTypeText),
			Content:     envelope.Text,
		}
		remote.BodyPreview = textPreview(envelope.Text)
	}

	if from := recipients(envelope, "From"); len(from) > 0 {
		remote.From = &from[0]
		remote.Sender = &from[0]
	}
	if sender := recipients(envelope, "Sender"); len(sender) > 0 {
		remote.Sender = &sender[0]
	}
	remote.ToRecipients = recipients(envelope, "To")
	remote.CcRecipients = recipients(envelope, "Cc")
	remote.BccRecipients = recipients(envelope, "Bcc")
	remote.ReplyTo = recipients(envelope, "Reply-To")

	if !message.InternalDate.IsZero() {
		receivedAt := message.InternalDate.UTC()
		remote.ReceivedAt = &receivedAt
	}
	if sentAt, err := envelope.Date(); err == nil {
		utc := sentAt.UTC()
		remote.SentAt = &utc
	}

	isRead := hasFlag(message.Flags, imap.SeenFlag)
	isDraft := hasFlag(message.Flags, imap.DraftFlag)
	hasAttachments := len(envelope.Attachments) > 0
	remote.IsRead = &isRead
	remote.IsDraft = &isDraft
	remote.HasAttachments = &hasAttachments

	if hasFlag(message.Flags, imap.FlaggedFlag) {
		flagged := string(enum.FlagStatusFlagged)
		remote.FlagStatus = &flagged
	}

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
			ID:          strconv.Itoa(i),
			Name:        attachment.FileName,
			ContentType: attachment.ContentType,
			Size:        int64(len(attachment.Content)),
		})
	}
	for i, inline := range envelope.Inlines {
		remote.Attachments = append(remote.Attachments, interfaces.RemoteAttachment{
			ID:          fmt.Sprintf("inline-%d", i),
			Name:        inline.FileName,
			ContentType: inline.ContentType,
			Size:        int64(len(inline.Content)),
			IsInline:    true,
		})
	}

	return remote, nil
}

func readBodySection(message *imap.Message, section *imap.BodySectionName) ([]byte, error) {
	literal := message.GetBody(section)
	if literal == nil {
		return nil, errors.New("message body section missing")
	}
	return io.ReadAll(literal)
}

func recipients(envelope *enmime.Envelope, header string) []interfaces.RemoteRecipient {
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

func hasFlag(flags []string, target string) bool {
	for _, flag := range flags {
		if flag == target {
			return true
		}
	}
	return false
}

// htmlPreview strips markup and collapses whitespace into a short preview.
func htmlPreview(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return textPreview(html)
	}

	doc.Find("script, style").Each(func(i int, el *goquery.Selection) {
		el.Remove()
	})

	return textPreview(doc.Find("body").Text())
}

func textPreview(text string) string {
	text = strings.Join(strings.Fields(text), " ")
	if len(text) > previewLength {
		text = text[:previewLength]
	}
	return text
}

func joinMessageID(folderName string, uid uint32) string {
	return fmt.Sprintf("%s|%d", folderName, uid)
}

func splitMessageID(messageID string) (string, uint32, error) {
	idx := strings.LastIndex(messageID, "|")
	if idx < 0 {
		return "", 0, errors.Errorf("malformed message id %q", messageID)
	}
	uid, err := strconv.ParseUint(messageID[idx+1:], 10, 32)
	if err != nil {
		return "", 0, errors.Errorf("malformed message id %q", messageID)
	}
	return messageID[:idx], uint32(uid), nil
}

// extractAttachment locates one attachment of a fetched message by the id
// assigned during listing.
func extractAttachment(message *imap.Message, section *imap.BodySectionName, attachmentID string) ([]byte, string, error) {
	raw, err := readBodySection(message, section)
	if err != nil {
		return nil, "", err
	}

	envelope, err := enmime.ReadEnvelope(bytes.NewReader(raw))
	if err != nil {
		return nil, "", errors.Wrap(err, "failed to parse message")
	}

	if strings.HasPrefix(attachmentID, "inline-") {
		index, err := strconv.Atoi(strings.TrimPrefix(attachmentID, "inline-"))
		if err != nil || index < 0 || index >= len(envelope.Inlines) {
			return nil, "", errors.Errorf("attachment %q not found", attachmentID)
		}
		inline := envelope.Inlines[index]
		return inline.Content, inline.ContentType, nil
	}

	index, err := strconv.Atoi(attachmentID)
	if err != nil || index < 0 || index >= len(envelope.Attachments) {
		return nil, "", errors.Errorf("attachment %q not found", attachmentID)
	}
	attachment := envelope.Attachments[index]
	return attachment.Content, attachment.ContentType, nil
}
