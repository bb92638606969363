package chat

import (
	"strings"

	"github.com/hrygo/staynest/ai/vector"
)

const contextSeparator = "--------------------"

// buildSystemPrompt appends the retrieved listings and page hints to SystemPrompt.
func buildSystemPrompt(results []vector.Result, req Request) string {
	var sb strings.Builder
	sb.WriteString(SystemPrompt)
	sb.WriteString("\n\nContext information is below.\n")
	sb.WriteString(contextSeparator)
	sb.WriteString("\n")
	for i, r := range results {
		if i > 0 {
			sb.WriteString("\n\n")
		}
		sb.WriteString("Listing ID: ")
		sb.WriteString(r.ID)
		sb.WriteString("\n")
		sb.WriteString(r.Text)
	}
	sb.WriteString("\n")
	sb.WriteString(contextSeparator)

	if pageContext := strings.TrimSpace(req.PageContext); pageContext != "" {
		sb.WriteString("\n\nThe user is currently viewing: ")
		sb.WriteString(pageContext)
	}
	if listingID := strings.TrimSpace(req.ListingID); listingID != "" {
		sb.WriteString("\nCurrent listing ID: ")
		sb.WriteString(listingID)
	}
	return sb.String()
}
