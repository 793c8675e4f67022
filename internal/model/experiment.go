package model

import "time"

// ExperimentStatus is the lifecycle state of an AB test.
type ExperimentStatus string

const (
	ExperimentDraft    ExperimentStatus = "draft"
	ExperimentRunning  ExperimentStatus = "running"
	ExperimentComplete ExperimentStatus = "complete"
)

// Experiment defines an AB test over calculator presentation.
type Experiment struct {
	ID        string           `json:"id"`
	Name      string           `json:"name"`
	Status    ExperimentStatus `json:"status"`
	Variants  []ExperimentVariant `json:"variants,omitempty"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
}

// ExperimentVariant is one arm of an experiment. Weights are relative; a
// variant with weight 2 receives twice the traffic of weight 1.
type ExperimentVariant struct {
	ID           string         `json:"id"`
	ExperimentID string         `json:"experiment_id"`
	Name         string         `json:"name"`
	Weight       int            `json:"weight"`
	Config       map[string]any `json:"config,omitempty"`
}

// ExperimentAssignment pins a session to a variant. Assignment is
// deterministic per (experiment, subject) so repeat visits see the same arm.
type ExperimentAssignment struct {
	ID           string    `json:"id"`
	ExperimentID string    `json:"experiment_id"`
	VariantID    string    `json:"variant_id"`
	SubjectID    string    `json:"subject_id"` // user id or temp session id
	AssignedAt   time.Time `json:"assigned_at"`
}
