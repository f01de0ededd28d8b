package dto

import "time"

// EventNotification is pushed to websocket viewers when an event becomes Ready.
type EventNotification struct {
	EventID      string    `json:"eventId"`
	Origin       string    `json:"origin"`
	MetadataKind string    `json:"metadataKind"`
	Width        int       `json:"width"`
	Height       int       `json:"height"`
	Transform    string    `json:"transform"`
	ImageKey     string    `json:"imageKey"`
	ReadyAt      time.Time `json:"readyAt"`
}

// HealthResponse reports the state of the host.
type HealthResponse struct {
	Status       string `json:"status"`
	Store        string `json:"store"`
	Viewers      int    `json:"viewers"`
	CurrentEvent string `json:"currentEvent,omitempty"`
	CurrentState string `json:"currentState,omitempty"`
}
