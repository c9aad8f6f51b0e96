package domain

import "time"

// ChatRole is the author of a chat message.
type ChatRole string

const (
	RoleUser      ChatRole = "user"
	RoleAssistant ChatRole = "assistant"
)

// ChatMessage is one entry of the append-only chat log.
type ChatMessage struct {
	ID             string    `json:"id"`
	FamilyID       string    `json:"family_id"`
	UserID         string    `json:"user_id"`
	ConversationID string    `json:"conversation_id,omitempty"`
	ThreadID       string    `json:"thread_id,omitempty"`
	Role           ChatRole  `json:"role"`
	Content        string    `json:"content"`
	CreatedAt      time.Time `json:"created_at"`
}

// AuditAction names a recorded destructive operation.
type AuditAction string

const AuditDelete AuditAction = "DELETE"

// AuditLogEntry snapshots a row before it is destroyed.
type AuditLogEntry struct {
	ID         string      `json:"id"`
	UserID     string      `json:"user_id"`
	Action     AuditAction `json:"action"`
	EntityType string      `json:"entity_type"`
	EntityID   string      `json:"entity_id"`
	OldData    []byte      `json:"old_data"`
	CreatedAt  time.Time   `json:"created_at"`
}

// UsageMetric is a recorded product event, such as an LLM call.
type UsageMetric struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	FamilyID  string    `json:"family_id"`
	Event     string    `json:"event"`
	Payload   []byte    `json:"payload"`
	CreatedAt time.Time `json:"created_at"`
}
