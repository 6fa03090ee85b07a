package utils

import "strings"

// NormalizeMessageID strips the RFC 5322 angle brackets from a Message-ID
// header value.
func NormalizeMessageID(messageID string) string {
	messageID = strings.TrimSpace(messageID)
	messageID = strings.TrimPrefix(messageID, "<")
	messageID = strings.TrimSuffix(messageID, ">")
	return messageID
}
