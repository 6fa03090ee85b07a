package sync

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ricardag/mailmirror/interfaces"
	"github.com/ricardag/mailmirror/internal/enum"
)

func TestMapRemoteMessage_DefaultsForMissingOptionals(t *testing.T) {
	received := time.Date(2026, 1, 15, 8, 0, 0, 0, time.UTC)
	remote := &interfaces.RemoteMessage{
		ID:                "m1",
		InternetMessageID: "<bare@example.com>",
		ReceivedAt:        &received,
	}

	message, err := mapRemoteMessage("acct_1", "user@example.com", remote)

	require.NoError(t, err)
	assert.False(t, message.IsRead)
	assert.False(t, message.IsDraft)
	assert.False(t, message.HasAttachments)
	assert.False(t, message.DeliveryReceiptRequested)
	assert.False(t, message.ReadReceiptRequested)
	assert.Equal(t, enum.ImportanceNormal, message.Importance)
	assert.Equal(t, enum.FlagStatusNotFlagged, message.FlagStatus)
	assert.Equal(t, enum.BodyTypeText, message.BodyType)
	assert.Equal(t, enum.ClassificationFocused, message.Classification)
}

func TestMapRemoteMessage_MalformedWithoutTimestamps(t *testing.T) {
	remote := &interfaces.RemoteMessage{ID: "m1", Subject: "floating in time"}

	message, err := mapRemoteMessage("acct_1", "user@example.com", remote)

	assert.Nil(t, message)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMalformedMessage)
}

func TestMapRemoteMessage_FullMapping(t *testing.T) {
	received := time.Date(2026, 4, 2, 16, 45, 0, 0, time.UTC)
	sent := received.Add(-2 * time.Minute)
	read := true
	importance := "high"
	flag := "complete"

	remote := &interfaces.RemoteMessage{
		ID:                "m1",
		InternetMessageID: "<full@example.com>",
		ConversationID:    "conv-9",
		Subject:           "contract draft",
		BodyPreview:       "please review",
		Body: &interfaces.RemoteItemBody{
			ContentType: "text/html; charset=utf-8",
			Content:     "<p>please review</p>",
		},
		From:       &interfaces.RemoteRecipient{Address: "alice@example.com", Name: "Alice"},
		Sender:     &interfaces.RemoteRecipient{Address: "assistant@example.com", Name: "Assistant"},
		ToRecipients: []interfaces.RemoteRecipient{
			{Address: "bob@example.com", Name: "Bob"},
			{Address: "carol@example.com"},
		},
		CcRecipients: []interfaces.RemoteRecipient{{Address: "dave@example.com"}},
		ReceivedAt:   &received,
		SentAt:       &sent,
		IsRead:       &read,
		Importance:   &importance,
		FlagStatus:   &flag,
		Headers: []interfaces.RemoteHeader{
			{Name: "X-Priority", Value: "1"},
		},
		Attachments: []interfaces.RemoteAttachment{
			{ID: "att-1", Name: "contract.pdf", ContentType: "application/pdf", Size: 4096},
		},
	}

	message, err := mapRemoteMessage("acct_1", "user@example.com", remote)

	require.NoError(t, err)
	assert.Equal(t, "acct_1", message.AccountID)
	assert.Equal(t, "full@example.com", message.MessageKey)
	assert.Equal(t, "m1", message.ProviderID)
	assert.Equal(t, received, message.ReceivedAt)
	assert.Equal(t, &sent, message.SentAt)
	assert.Equal(t, "alice@example.com", message.FromAddress)
	assert.Equal(t, "assistant@example.com", message.SenderAddress)
	require.Len(t, message.ToRecipients, 2)
	assert.Equal(t, "bob@example.com", message.ToRecipients[0].Address)
	require.Len(t, message.CcRecipients, 1)
	assert.Equal(t, enum.BodyTypeHTML, message.BodyType)
	assert.Equal(t, enum.ImportanceHigh, message.Importance)
	assert.Equal(t, enum.FlagStatusComplete, message.FlagStatus)
	require.Len(t, message.Headers, 1)
	require.Len(t, message.Attachments, 1)
	assert.Equal(t, "contract.pdf", message.Attachments[0].Name)
}

func TestMessageKey_NormalizesAngleBrackets(t *testing.T) {
	remote := &interfaces.RemoteMessage{InternetMessageID: " <Key@Example.com> "}
	assert.Equal(t, "Key@Example.com", messageKey(remote, "user@example.com"))
}

func TestMessageKey_GeneratedKeysAreUnique(t *testing.T) {
	remote := &interfaces.RemoteMessage{Subject: "same subject"}

	first := messageKey(remote, "user@example.com")
	second := messageKey(remote, "user@example.com")

	assert.NotEmpty(t, first)
	assert.NotEqual(t, first, second)
	assert.Contains(t, first, "@example.com")
}

func TestDecodeImportance(t *testing.T) {
	low, high, garbage := "LOW", "High", "urgent-ish"
	assert.Equal(t, enum.ImportanceNormal, decodeImportance(nil))
	assert.Equal(t, enum.ImportanceLow, decodeImportance(&low))
	assert.Equal(t, enum.ImportanceHigh, decodeImportance(&high))
	assert.Equal(t, enum.ImportanceNormal, decodeImportance(&garbage))
}

func TestDecodeFlagStatus(t *testing.T) {
	flagged, complete, garbage := "Flagged", "COMPLETE", "waved"
	assert.Equal(t, enum.FlagStatusNotFlagged, decodeFlagStatus(nil))
	assert.Equal(t, enum.FlagStatusFlagged, decodeFlagStatus(&flagged))
	assert.Equal(t, enum.FlagStatusComplete, decodeFlagStatus(&complete))
	assert.Equal(t, enum.FlagStatusNotFlagged, decodeFlagStatus(&garbage))
}
