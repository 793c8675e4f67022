package model

// SyncScenario selects which CRM synchronization path to run, based on
// whether the submitting user is new, returning, or unauthenticated.
type SyncScenario string

const (
	ScenarioNewUser      SyncScenario = "new_user"
	ScenarioExistingUser SyncScenario = "existing_user"
	ScenarioAnonymous    SyncScenario = "anonymous"
)

// Valid reports whether the scenario is one of the three known paths.
func (s SyncScenario) Valid() bool {
	switch s {
	case ScenarioNewUser, ScenarioExistingUser, ScenarioAnonymous:
		return true
	}
	return false
}

// SyncRequest is the body of POST /api/v1/crm-sync.
type SyncRequest struct {
	Scenario     SyncScenario `json:"scenario"`
	UserID       string       `json:"userId,omitempty"`
	SubmissionID string       `json:"submissionId,omitempty"`
	TempID       string       `json:"tempId,omitempty"`
}

// SyncResult is the structured outcome of one sync invocation. A failed step
// never raises; it is folded into Success=false plus Error. Steps that
// completed before the failure keep their ids (no rollback).
type SyncResult struct {
	Success       bool     `json:"success"`
	Message       string   `json:"message,omitempty"`
	CompanyID     string   `json:"companyId,omitempty"`
	ContactID     string   `json:"contactId,omitempty"`
	OpportunityID string   `json:"opportunityId,omitempty"`
	Errors        []string `json:"errors,omitempty"`
	Error         string   `json:"error,omitempty"`
}
