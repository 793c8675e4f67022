package model

import "time"

// SequenceStatus tracks where a nurture email sequence entry is in its
// lifecycle.
type SequenceStatus string

const (
	SequenceNotStarted SequenceStatus = "not_started"
	SequenceSent       SequenceStatus = "sent"
	SequenceOpened     SequenceStatus = "opened"
	SequenceClicked    SequenceStatus = "clicked"
	SequenceReplied    SequenceStatus = "replied"
)

// EmailSequence is one step of an outbound nurture sequence tied to a
// submission. Engagement timestamps are filled in as the recipient
// progresses; a nil timestamp means the event has not happened.
type EmailSequence struct {
	ID           string         `json:"id"`
	SubmissionID string         `json:"submission_id,omitempty"`
	SequenceType string         `json:"sequence_type"`
	EmailStep    int            `json:"email_step"`
	Status       SequenceStatus `json:"status"`
	CampaignID   string         `json:"campaign_id,omitempty"`
	ProspectID   string         `json:"prospect_id,omitempty"`
	SentAt       *time.Time     `json:"sent_at,omitempty"`
	OpenedAt     *time.Time     `json:"opened_at,omitempty"`
	ClickedAt    *time.Time     `json:"clicked_at,omitempty"`
	RepliedAt    *time.Time     `json:"replied_at,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
}
