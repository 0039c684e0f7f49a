package types

type EventType string

// Audit event types stored on the database.
//
// Command invocations have their own table, see database.CommandEvent.
const (
	RelationshipChanged EventType = "relationship_changed"
)

// Data of a RelationshipChanged audit event.
type RelationshipEvent struct {
	Tag    string `json:"tag"`
	UserID string `json:"user_id"`
	Detail string `json:"detail"`
}
