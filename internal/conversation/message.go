package conversation

// Role tags who authored a message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one entry in the history. It is a value type and is never
// modified once appended.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}
