package domain

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatMessage is one transcript entry. Transcripts are kept for display only.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}
