package gmail

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ricardag/mailmirror/config"
	"github.com/ricardag/mailmirror/internal/logger"
)

func testLogger() logger.Logger {
	appLogger := logger.NewAppLogger(&logger.Config{
		DevMode: true,
	})
	appLogger.InitLogger()
	return appLogger
}

func newTestClient(serverURL string) *GmailClient {
	return NewGmailClient(
		&config.GmailConfig{APIBaseURL: serverURL},
		&config.SyncConfig{MessagePageSize: 25, MaxPageRetries: 1},
		http.DefaultClient,
		testLogger(),
	)
}

func multipartRawMail(pdfContent []byte) string {
	return strings.Join([]string{
		"Message-Id: <report@example.com>",
		"From: Alice <alice@example.com>",
		"To: Bob <bob@example.com>",
		"Subject: monthly report",
		"Date: Mon, 02 Mar 2026 12:00:00 +0000",
		"MIME-Version: 1.0",
		"Content-Type: multipart/mixed; boundary=frontier",
		"",
		"--frontier",
		"Content-Type: text/plain; charset=utf-8",
		"",
		"report attached",
		"--frontier",
		"Content-Type: application/pdf; name=report.pdf",
		"Content-Disposition: attachment; filename=report.pdf",
		"Content-Transfer-Encoding: base64",
		"",
		base64.StdEncoding.EncodeToString(pdfContent),
		"--frontier--",
		"",
	}, "\r\n")
}

func TestFetchAttachment_ServedFromRawPayload(t *testing.T) {
	pdfContent := []byte("%PDF-1.4 report body")
	attachmentEndpointCalls := 0

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		if strings.Contains(r.URL.Path, "/attachments/") {
			attachmentEndpointCalls++
			w.WriteHeader(http.StatusNotFound)
			return
		}

		assert.Equal(t, "/users/me/messages/gm1", r.URL.Path)
		assert.Equal(t, "raw", r.URL.Query().Get("format"))
		json.NewEncoder(w).Encode(map[string]interface{}{
			"id":           "gm1",
			"threadId":     "t1",
			"labelIds":     []string{"INBOX"},
			"internalDate": "1772452800000",
			"raw":          base64.URLEncoding.EncodeToString([]byte(multipartRawMail(pdfContent))),
		})
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	// Listing assigns the part id the download must resolve
	remote, err := client.fetchMessage(context.Background(), "gm1")
	require.NoError(t, err)
	require.Len(t, remote.Attachments, 1)
	assert.Equal(t, "gm1-att-0", remote.Attachments[0].ID)
	assert.Equal(t, "report.pdf", remote.Attachments[0].Name)

	content, contentType, err := client.FetchAttachment(context.Background(), "gm1", remote.Attachments[0].ID)
	require.NoError(t, err)
	assert.Equal(t, pdfContent, content)
	assert.Equal(t, "application/pdf", contentType)

	// The part ids are unknown to the attachments endpoint, it is never called
	assert.Zero(t, attachmentEndpointCalls)
}

func TestFetchAttachment_UnknownPartID(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"id":  "gm1",
			"raw": base64.URLEncoding.EncodeToString([]byte(multipartRawMail([]byte("x")))),
		})
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	_, _, err := client.FetchAttachment(context.Background(), "gm1", "gm1-att-7")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}
