package sync

import (
	"strings"

	"github.com/pkg/errors"

	"github.com/ricardag/mailmirror/interfaces"
	"github.com/ricardag/mailmirror/internal/enum"
	"github.com/ricardag/mailmirror/internal/models"
	"github.com/ricardag/mailmirror/internal/utils"
)

// ErrMalformedMessage marks a remote message that cannot be mapped into a
// local record. The reconciler skips these and commits the rest of the batch.
var ErrMalformedMessage = errors.New("malformed remote message")

// messageKey resolves the reconciliation key for a remote message: the
// Message-ID header when present, then the provider id, then a generated id.
func messageKey(remote *interfaces.RemoteMessage, accountEmail string) string {
	if key := utils.NormalizeMessageID(remote.InternetMessageID); key != "" {
		return key
	}
	if remote.ID != "" {
		return remote.ID
	}

	domain := utils.ExtractDomainFromEmail(accountEmail)
	if domain == "" {
		domain = "mailmirror.local"
	}
	metadata := remote.Subject
	if remote.From != nil {
		metadata += remote.From.Address
	}
	return utils.NormalizeMessageID(utils.GenerateMessageID(domain, metadata))
}

// mapRemoteMessage builds the full local record for a remote message that is
// not mirrored yet. Optional remote fields are substituted with defaults,
// never left null.
func mapRemoteMessage(accountID, accountEmail string, remote *interfaces.RemoteMessage) (*models.Message, error) {
	if remote.ReceivedAt == nil && remote.SentAt == nil {
		return nil, errors.Wrapf(ErrMalformedMessage, "message %q carries no timestamp", remote.ID)
	}

	message := &models.Message{
		AccountID:  accountID,
		MessageKey: messageKey(remote, accountEmail),

		ProviderID:     remote.ID,
		ConversationID: remote.ConversationID,
		ChangeKey:      remote.ChangeKey,

		SentAt:           remote.SentAt,
		RemoteCreatedAt:  remote.CreatedAt,
		RemoteModifiedAt: remote.ModifiedAt,

		Subject:     remote.Subject,
		BodyPreview: remote.BodyPreview,

		ToRecipients:  mapRecipients(remote.ToRecipients),
		CcRecipients:  mapRecipients(remote.CcRecipients),
		BccRecipients: mapRecipients(remote.BccRecipients),
		ReplyTo:       mapRecipients(remote.ReplyTo),

		DeliveryReceiptRequested: utils.GetOrDefault(remote.DeliveryReceiptRequested, false),
		ReadReceiptRequested:     utils.GetOrDefault(remote.ReadReceiptRequested, false),

		Categories:     remote.Categories,
		Classification: decodeClassification(remote.Classification),

		ParentFolderID: remote.ParentFolderID,
		WebLink:        remote.WebLink,
	}

	if remote.ReceivedAt != nil {
		message.ReceivedAt = *remote.ReceivedAt
	} else {
		message.ReceivedAt = *remote.SentAt
	}

	if remote.From != nil {
		message.FromAddress = remote.From.Address
		message.FromName = remote.From.Name
	}
	if remote.Sender != nil {
		message.SenderAddress = remote.Sender.Address
		message.SenderName = remote.Sender.Name
	}

	if remote.Body != nil {
		message.Body = remote.Body.Content
		message.BodyType = decodeBodyType(remote.Body.ContentType)
	} else {
		message.BodyType = enum.BodyTypeText
	}

	for _, header := range remote.Headers {
		message.Headers = append(message.Headers, models.MessageHeader{
			Name:  header.Name,
			Value: header.Value,
		})
	}
	for _, attachment := range remote.Attachments {
		message.Attachments = append(message.Attachments, models.AttachmentInfo{
			ID:          attachment.ID,
			Name:        attachment.Name,
			ContentType: attachment.ContentType,
			Size:        attachment.Size,
			IsInline:    attachment.IsInline,
		})
	}

	applyStatusProjection(message, remote)
	return message, nil
}

// applyStatusProjection overwrites the mutable status fields from the remote
// message, substituting defaults for anything absent.
func applyStatusProjection(message *models.Message, remote *interfaces.RemoteMessage) {
	message.IsRead = utils.GetOrDefault(remote.IsRead, false)
	message.IsDraft = utils.GetOrDefault(remote.IsDraft, false)
	message.HasAttachments = utils.GetOrDefault(remote.HasAttachments, false)
	message.Importance = decodeImportance(remote.Importance)
	message.FlagStatus = decodeFlagStatus(remote.FlagStatus)
}

func decodeImportance(value *string) enum.Importance {
	if value == nil {
		return enum.ImportanceNormal
	}
	switch strings.ToLower(*value) {
	case "low":
		return enum.ImportanceLow
	case "high":
		return enum.ImportanceHigh
	default:
		return enum.ImportanceNormal
	}
}

func decodeFlagStatus(value *string) enum.FlagStatus {
	if value == nil {
		return enum.FlagStatusNotFlagged
	}
	switch strings.ToLower(*value) {
	case "flagged":
		return enum.FlagStatusFlagged
	case "complete":
		return enum.FlagStatusComplete
	default:
		return enum.FlagStatusNotFlagged
	}
}

func decodeBodyType(contentType string) enum.BodyType {
	if strings.Contains(strings.ToLower(contentType), "html") {
		return enum.BodyTypeHTML
	}
	return enum.BodyTypeText
}

func decodeClassification(value *string) enum.MessageClassification {
	if value == nil {
		return enum.ClassificationFocused
	}
	switch strings.ToLower(*value) {
	case "other":
		return enum.ClassificationOther
	default:
		return enum.ClassificationFocused
	}
}

func mapRecipients(list []interfaces.RemoteRecipient) models.RecipientList {
	out := models.RecipientList{}
	for _, recipient := range list {
		out = append(out, models.Recipient{
			Address: recipient.Address,
			Name:    recipient.Name,
		})
	}
	return out
}
