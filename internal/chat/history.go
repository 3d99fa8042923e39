package chat

import (
	"strings"

	"github.com/suPer8Hu/code-tutor/internal/scripts"
)

// FormatHistory linearizes messages (given oldest first) followed by every
// script (given in creation order) into the prompt's history blob.
func FormatHistory(messages []Message, userScripts []scripts.Script) string {
	var b strings.Builder
	for _, m := range messages {
		b.WriteString(roleLabel(m.Role))
		b.WriteString(": ")
		b.WriteString(m.Content)
		b.WriteString("\n")
	}
	for _, s := range userScripts {
		b.WriteString("Script: " + s.Name + " (" + s.Language + ")\n")
		b.WriteString("Code:\n```\n")
		b.WriteString(s.Code)
		b.WriteString("\n```\n")
	}
	return b.String()
}

// roleLabel capitalizes the first letter only: "user" -> "User", "ai" -> "Ai".
func roleLabel(role string) string {
	if role == "" {
		return role
	}
	return strings.ToUpper(role[:1]) + strings.ToLower(role[1:])
}
