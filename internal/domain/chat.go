package domain

// ChatMessage is the provider-agnostic chat message shape exchanged between
// skills and the LLM integrations.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}
