package utils

import (
	"strings"

	"github.com/customeros/mailsherpa/mailvalidate"
)

// IsValidEmailAddress checks syntax only, no MX or deliverability probing.
func IsValidEmailAddress(email string) bool {
	syntax := mailvalidate.ValidateEmailSyntax(email)
	return syntax.IsValid
}

func ExtractDomainFromEmail(email string) string {
	if email == "" {
		return ""
	}

	email = strings.TrimSpace(email)

	// Handle angle brackets ("Name <email@domain.com>")
	if strings.Contains(email, "<") && strings.Contains(email, ">") {
		startIdx := strings.LastIndex(email, "<") + 1
		endIdx := strings.LastIndex(email, ">")
		if startIdx > 0 && endIdx > startIdx {
			email = email[startIdx:endIdx]
		}
	}

	parts := strings.Split(email, "@")
	if len(parts) != 2 {
		return ""
	}

	return strings.ToLower(strings.TrimSpace(parts[1]))
}
