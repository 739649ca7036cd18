// Package domain defines the core persistence models for the application.
// These types are used by GORM for database schema mapping and are shared
// across the repository and service layers.
package domain

import "time"

// WebhookEvent records a payment-provider event that has already been
// processed, keyed by the provider's event id. Providers deliver events
// at-least-once; recording the id lets the ingestion boundary drop replays
// before any state change is attempted.
type WebhookEvent struct {
	ID        string    `gorm:"type:TEXT NOT NULL;primaryKey"`
	EventID   string    `gorm:"type:TEXT NOT NULL;uniqueIndex:ux_webhook_events_event_id"`
	Type      string    `gorm:"type:TEXT NOT NULL"`
	CreatedAt time.Time `gorm:"type:DATETIME NOT NULL;autoCreateTime"`
}

// TableName implements the GORM tabler interface.
func (WebhookEvent) TableName() string { return "webhook_events" }
