// Package queue defines message payloads exchanged over the message broker
// and the consumer that mirrors security events into a local log file.
package queue

// SecurityEvent mirrors one audit row onto the broker so downstream
// consumers can alert or aggregate without querying the primary database.
// UserID is zero for anonymous events.
type SecurityEvent struct {
	UserID       uint64         `json:"user_id,omitempty"`
	Action       string         `json:"action"`
	ResourceType string         `json:"resource_type,omitempty"`
	ResourceID   uint64         `json:"resource_id,omitempty"`
	IPAddress    string         `json:"ip_address,omitempty"`
	UserAgent    string         `json:"user_agent,omitempty"`
	Details      map[string]any `json:"details,omitempty"`
	OccurredAt   string         `json:"occurred_at"`
}
