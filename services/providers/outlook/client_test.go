package outlook

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ricardag/mailmirror/config"
	"github.com/ricardag/mailmirror/interfaces"
	"github.com/ricardag/mailmirror/internal/logger"
)

func testLogger() logger.Logger {
	appLogger := logger.NewAppLogger(&logger.Config{
		DevMode: true,
	})
	appLogger.InitLogger()
	return appLogger
}

func newTestClient(serverURL string) *OutlookClient {
	return NewOutlookClient(
		&config.OutlookConfig{GraphURL: serverURL},
		&config.SyncConfig{FolderPageSize: 2, MessagePageSize: 25, MaxPageRetries: 2},
		http.DefaultClient,
		testLogger(),
	)
}

func TestListFolders_Pagination(t *testing.T) {
	var requests []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests = append(requests, r.URL.String())
		w.Header().Set("Content-Type", "application/json")

		if r.URL.Query().Get("page") == "2" {
			json.NewEncoder(w).Encode(map[string]interface{}{
				"value": []map[string]interface{}{
					{"id": "f3", "displayName": "Archive", "childFolderCount": 0},
				},
			})
			return
		}

		json.NewEncoder(w).Encode(map[string]interface{}{
			"value": []map[string]interface{}{
				{"id": "f1", "displayName": "Inbox", "childFolderCount": 2, "totalItemCount": 40, "unreadItemCount": 3},
				{"id": "f2", "displayName": "Sent Items", "childFolderCount": 0},
			},
			"@odata.nextLink": fmt.Sprintf("http://%s/me/mailFolders?page=2", r.Host),
		})
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	first, err := client.ListFolders(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, first.Folders, 2)
	assert.Equal(t, "Inbox", first.Folders[0].DisplayName)
	assert.Equal(t, 2, first.Folders[0].ChildFolderCount)
	assert.Equal(t, 40, first.Folders[0].TotalItemCount)
	assert.NotEmpty(t, first.NextLink)

	// The continuation token is the nextLink URL, followed as-is
	second, err := client.ListFolders(context.Background(), first.NextLink)
	require.NoError(t, err)
	require.Len(t, second.Folders, 1)
	assert.Equal(t, "Archive", second.Folders[0].DisplayName)
	assert.Empty(t, second.NextLink)

	require.Len(t, requests, 2)
	assert.Contains(t, requests[0], "%24top=2")
	assert.Contains(t, requests[0], "mailFolders")
}

func TestListMessages_RequestShape(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "receivedDateTime DESC", r.URL.Query().Get("$orderby"))
		assert.Equal(t, "10", r.URL.Query().Get("$top"))
		assert.Contains(t, r.URL.Query().Get("$select"), "internetMessageId")

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"value": []map[string]interface{}{
				{
					"id":                "m1",
					"internetMessageId": "<one@example.com>",
					"subject":           "hello",
					"receivedDateTime":  "2026-05-01T10:00:00Z",
					"isRead":            true,
					"importance":        "high",
					"flag":              map[string]string{"flagStatus": "flagged"},
				},
			},
		})
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	page, err := client.ListMessages(context.Background(), interfaces.MessagePageOptions{PageSize: 10})
	require.NoError(t, err)
	require.Len(t, page.Messages, 1)

	message := page.Messages[0]
	assert.Equal(t, "m1", message.ID)
	assert.Equal(t, "<one@example.com>", message.InternetMessageID)
	require.NotNil(t, message.ReceivedAt)
	require.NotNil(t, message.IsRead)
	assert.True(t, *message.IsRead)
	require.NotNil(t, message.Importance)
	assert.Equal(t, "high", *message.Importance)
	require.NotNil(t, message.FlagStatus)
	assert.Equal(t, "flagged", *message.FlagStatus)
}

func TestGetJSON_RetriesTransientFailures(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"value": []map[string]interface{}{{"id": "f1", "displayName": "Inbox"}},
		})
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	page, err := client.ListFolders(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
	require.Len(t, page.Folders, 1)
}

func TestGetJSON_DoesNotRetryClientErrors(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	_, err := client.ListFolders(context.Background(), "")
	require.Error(t, err)
	assert.Equal(t, 1, attempts)
}
