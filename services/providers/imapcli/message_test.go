package imapcli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMessageIDRoundTrip(t *testing.T) {
	id := joinMessageID("INBOX/Clients", 4217)
	assert.Equal(t, "INBOX/Clients|4217", id)

	folderName, uid, err := splitMessageID(id)
	require.NoError(t, err)
	assert.Equal(t, "INBOX/Clients", folderName)
	assert.Equal(t, uint32(4217), uid)
}

func TestSplitMessageID_Malformed(t *testing.T) {
	_, _, err := splitMessageID("no-separator")
	assert.Error(t, err)

	_, _, err = splitMessageID("folder|not-a-number")
	assert.Error(t, err)
}

func TestIsDirectChild(t *testing.T) {
	assert.True(t, isDirectChild("INBOX/Clients", "INBOX", "/"))
	assert.False(t, isDirectChild("INBOX/Clients/Acme", "INBOX", "/"))
	assert.True(t, isDirectChild("INBOX/Clients/Acme", "INBOX/Clients", "/"))
	assert.False(t, isDirectChild("Archive", "INBOX", "/"))
	assert.False(t, isDirectChild("INBOX.Clients", "INBOX", ""))

	assert.True(t, isDirectChild("INBOX.Clients", "INBOX", "."))
}

func TestTextPreview(t *testing.T) {
	assert.Equal(t, "one two three", textPreview("  one\n two\t three  "))

	long := make([]byte, 600)
	for i := range long {
		long[i] = 'a'
	}
	assert.Len(t, textPreview(string(long)), previewLength)
}

func TestHtmlPreviewStripsMarkupAndScripts(t *testing.T) {
	html := `<html><head><style>body { color: red }</style></head>` +
		`<body><script>alert("x")</script><p>Hello <b>world</b></p></body></html>`

	preview := htmlPreview(html)

	assert.Contains(t, preview, "Hello world")
	assert.NotContains(t, preview, "alert")
	assert.NotContains(t, preview, "color: red")
}
