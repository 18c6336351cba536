// Package workflow defines the lifecycle state machines for jobs and
// applications, and the closed set of account roles.
//
// Job status graph (forward-only):
//
//	open ──► in_progress ──► completed
//	  └──────────────────────────┘
//
// Application status graph (forward-only):
//
//	pending ──► accepted
//	    └─────► rejected
//
// completed, accepted and rejected are terminal states.
package workflow

import "fmt"

// Role is the account role fixed at signup. There is no escalation path.
type Role string

const (
	RoleClient     Role = "client"
	RoleFreelancer Role = "freelancer"
)

// ParseRole converts a raw string to a Role, returning an error for
// unknown values.
func ParseRole(s string) (Role, error) {
	r := Role(s)
	switch r {
	case RoleClient, RoleFreelancer:
		return r, nil
	}
	return "", fmt.Errorf("unknown role %q", s)
}

// JobStatus values mirror the status column of the jobs table.
type JobStatus string

const (
	JobOpen       JobStatus = "open"
	JobInProgress JobStatus = "in_progress"
	JobCompleted  JobStatus = "completed"
)

// jobTransitions lists every allowed (from → to) pair. A job may be
// completed straight from open when the owner closes it without ever
// accepting an application.
var jobTransitions = map[JobStatus][]JobStatus{
	JobOpen:       {JobInProgress, JobCompleted},
	JobInProgress: {JobCompleted},
	// completed is terminal
}

func ParseJobStatus(s string) (JobStatus, error) {
	st := JobStatus(s)
	switch st {
	case JobOpen, JobInProgress, JobCompleted:
		return st, nil
	}
	return "", fmt.Errorf("unknown job status %q", s)
}

// JobTransitionAllowed returns true when moving from → to is permitted.
func JobTransitionAllowed(from, to JobStatus) bool {
	for _, s := range jobTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// AppStatus values mirror the status column of the applications table.
type AppStatus string

const (
	AppPending  AppStatus = "pending"
	AppAccepted AppStatus = "accepted"
	AppRejected AppStatus = "rejected"
)

var appTransitions = map[AppStatus][]AppStatus{
	AppPending: {AppAccepted, AppRejected},
	// accepted and rejected are terminal
}

func ParseAppStatus(s string) (AppStatus, error) {
	st := AppStatus(s)
	switch st {
	case AppPending, AppAccepted, AppRejected:
		return st, nil
	}
	return "", fmt.Errorf("unknown application status %q", s)
}

// AppTransitionAllowed returns true when moving from → to is permitted.
func AppTransitionAllowed(from, to AppStatus) bool {
	for _, s := range appTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}
