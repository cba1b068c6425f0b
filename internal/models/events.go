package models

import "time"

// Event types
const (
	EventTypeProductsSynced = "PRODUCTS_SYNCED"
	EventTypeOrdersSynced   = "ORDERS_SYNCED"
)

// BaseEvent contains common fields for all events
type BaseEvent struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
}

// SyncCompletedEvent published after a sync run commits its last page
type SyncCompletedEvent struct {
	BaseEvent
	Resource   string   `json:"resource"`
	Processed  int      `json:"processed"`
	Pages      int      `json:"pages"`
	Skipped    int      `json:"skipped"`
	Unresolved []string `json:"unresolved,omitempty"`
	DurationMS int64    `json:"duration_ms"`
}
