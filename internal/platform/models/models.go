package models

import "encoding/json"

// App is a registered website/application: the unit of data isolation.
// One row per contact email, at most one active API key at a time.
type App struct {
	ID        int64  `json:"id"`
	Email     string `json:"email"`
	APIKey    string `json:"-"`
	CreatedAt string `json:"created_at"`
	Revoked   bool   `json:"revoked"`
}

// Event is one recorded analytics occurrence. Events are append-only and
// always scoped by AppID.
type Event struct {
	ID        string          `json:"id"`
	AppID     int64           `json:"app_id"`
	EventType string          `json:"event"`
	URL       *string         `json:"url,omitempty"`
	Referrer  *string         `json:"referrer,omitempty"`
	Device    *string         `json:"device,omitempty"`
	IPAddress *string         `json:"ipAddress,omitempty"`
	Timestamp string          `json:"timestamp"`
	Metadata  json.RawMessage `json:"metadata,omitempty"`
	UserID    *string         `json:"userId,omitempty"`
}

// EventSummary is the aggregate response for one event type.
type EventSummary struct {
	Event       string         `json:"event"`
	Count       int64          `json:"count"`
	UniqueUsers int64          `json:"uniqueUsers"`
	DeviceData  map[string]int `json:"deviceData"`
}

// DeviceDetails is the representative browser/OS pair exposed by user stats.
type DeviceDetails struct {
	Browser *string `json:"browser"`
	OS      *string `json:"os"`
}

// UserStats summarizes one external user's activity within a tenant.
type UserStats struct {
	UserID        string        `json:"userId"`
	TotalEvents   int64         `json:"totalEvents"`
	DeviceDetails DeviceDetails `json:"deviceDetails"`
	IPAddress     *string       `json:"ipAddress"`
}
