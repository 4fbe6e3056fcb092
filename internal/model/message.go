package model

import "strings"

// Role identifies the author of a chat message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Title returns the capitalized form used in transcripts ("user" -> "User").
func (r Role) Title() string {
	s := string(r)
	if s == "" {
		return ""
	}
	return strings.ToUpper(s[:1]) + strings.ToLower(s[1:])
}

// Message is a single conversation entry: who said it and what was said.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}
