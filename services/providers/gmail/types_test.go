package gmail

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLabelsToFolderPage_NestingByName(t *testing.T) {
	labels := []label{
		{ID: "l1", Name: "Clients", MessagesTotal: 12, MessagesUnread: 2},
		{ID: "l2", Name: "Clients/Acme"},
		{ID: "l3", Name: "Clients/Acme/Invoices"},
		{ID: "l4", Name: "Newsletters"},
	}

	roots := labelsToFolderPage(labels, "")
	require.Len(t, roots.Folders, 2)
	assert.Equal(t, "Clients", roots.Folders[0].DisplayName)
	assert.Equal(t, 1, roots.Folders[0].ChildFolderCount)
	assert.Equal(t, 12, roots.Folders[0].TotalItemCount)
	assert.Equal(t, 2, roots.Folders[0].UnreadItemCount)
	assert.Equal(t, "Newsletters", roots.Folders[1].DisplayName)
	assert.Zero(t, roots.Folders[1].ChildFolderCount)

	children := labelsToFolderPage(labels, "Clients")
	require.Len(t, children.Folders, 1)
	assert.Equal(t, "Acme", children.Folders[0].DisplayName)
	assert.Equal(t, "l1", children.Folders[0].ParentFolderID)
	assert.Equal(t, 1, children.Folders[0].ChildFolderCount)

	grandchildren := labelsToFolderPage(labels, "Clients/Acme")
	require.Len(t, grandchildren.Folders, 1)
	assert.Equal(t, "Invoices", grandchildren.Folders[0].DisplayName)
}

func TestUserLabels_FiltersSystemLabels(t *testing.T) {
	labels := []string{"UNREAD", "INBOX", "Receipts", "IMPORTANT", "Travel"}

	assert.Equal(t, []string{"Receipts", "Travel"}, userLabels(labels))
}

func TestRawMessageToRemote(t *testing.T) {
	rawMail := "Message-Id: <gm1@example.com>\r\n" +
		"From: Alice <alice@example.com>\r\n" +
		"To: Bob <bob@example.com>\r\n" +
		"Subject: lunch?\r\n" +
		"Date: Mon, 02 Mar 2026 12:00:00 +0000\r\n" +
		"Content-Type: text/plain; charset=utf-8\r\n" +
		"\r\n" +
		"tomorrow at noon\r\n"

	response := &rawMessageResponse{
		ID:           "gm-id-1",
		ThreadID:     "thread-1",
		LabelIDs:     []string{"INBOX", "Lunch"},
		Snippet:      "tomorrow at noon",
		InternalDate: "1772452800000",
		Raw:          base64.URLEncoding.EncodeToString([]byte(rawMail)),
	}

	remote, err := response.toRemoteMessage()

	require.NoError(t, err)
	assert.Equal(t, "gm-id-1", remote.ID)
	assert.Equal(t, "<gm1@example.com>", remote.InternetMessageID)
	assert.Equal(t, "thread-1", remote.ConversationID)
	assert.Equal(t, "lunch?", remote.Subject)
	require.NotNil(t, remote.From)
	assert.Equal(t, "alice@example.com", remote.From.Address)
	require.Len(t, remote.ToRecipients, 1)
	assert.Equal(t, "bob@example.com", remote.ToRecipients[0].Address)
	require.NotNil(t, remote.Body)
	assert.Contains(t, remote.Body.Content, "tomorrow at noon")
	require.NotNil(t, remote.ReceivedAt)
	require.NotNil(t, remote.SentAt)
	assert.Equal(t, []string{"Lunch"}, remote.Categories)

	// No UNREAD label means the message was read
	require.NotNil(t, remote.IsRead)
	assert.True(t, *remote.IsRead)
	require.NotNil(t, remote.IsDraft)
	assert.False(t, *remote.IsDraft)
}

func TestRawMessageToRemote_UnreadDraft(t *testing.T) {
	rawMail := "Message-Id: <gm2@example.com>\r\n" +
		"Subject: draft\r\n" +
		"\r\n" +
		"unfinished\r\n"

	response := &rawMessageResponse{
		ID:           "gm-id-2",
		LabelIDs:     []string{"UNREAD", "DRAFT"},
		InternalDate: "1772452800000",
		Raw:          base64.URLEncoding.EncodeToString([]byte(rawMail)),
	}

	remote, err := response.toRemoteMessage()

	require.NoError(t, err)
	require.NotNil(t, remote.IsRead)
	assert.False(t, *remote.IsRead)
	require.NotNil(t, remote.IsDraft)
	assert.True(t, *remote.IsDraft)
}
