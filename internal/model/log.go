package model

import "time"

// LogStatus marks the outcome recorded on an integration log entry.
type LogStatus string

const (
	LogStatusSuccess LogStatus = "success"
	LogStatusError   LogStatus = "error"
)

// IntegrationLog is an immutable audit record of one external-system call or
// sync attempt associated with a submission. Failures to write a log entry
// never abort the operation being logged.
type IntegrationLog struct {
	ID              string         `json:"id"`
	IntegrationType string         `json:"integration_type"`
	SubmissionID    string         `json:"submission_id,omitempty"`
	Status          LogStatus      `json:"status"`
	ResponseData    map[string]any `json:"response_data,omitempty"`
	ErrorMessage    string         `json:"error_message,omitempty"`
	CreatedAt       time.Time      `json:"created_at"`
}

// AnalyticsEvent records a single user interaction (step completed,
// calculator finished, results viewed) for funnel analysis.
type AnalyticsEvent struct {
	ID           string         `json:"id"`
	EventType    string         `json:"event_type"`
	UserID       string         `json:"user_id,omitempty"`
	SubmissionID string         `json:"submission_id,omitempty"`
	Properties   map[string]any `json:"properties,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
}
