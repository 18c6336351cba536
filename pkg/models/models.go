package models

import "github.com/opengig/marketplace/pkg/workflow"

type User struct {
	ID           int64  `json:"id" db:"id"`
	Email        string `json:"email" db:"email"`
	FirstName    string `json:"first_name" db:"first_name"`
	LastName     string `json:"last_name" db:"last_name"`
	PasswordHash string `json:"-" db:"password_hash"`
	Created      int64  `json:"created" db:"created"`
}

type Profile struct {
	ID      int64         `json:"id" db:"id"`
	UserID  int64         `json:"user_id" db:"user_id"`
	Role    workflow.Role `json:"role" db:"role"`
	Created int64         `json:"created" db:"created"`
}

// Job.OwnerID is nullable in storage; 0 means no owner recorded.
type Job struct {
	ID          int64              `json:"id" db:"id"`
	Title       string             `json:"title" db:"title"`
	Description string             `json:"description" db:"description"`
	Budget      int64              `json:"budget" db:"budget"`
	OwnerID     int64              `json:"owner_id,omitempty" db:"owner_id"`
	Status      workflow.JobStatus `json:"status" db:"status"`
	Created     int64              `json:"created" db:"created"`
}

// JobSummary is a Job annotated with its live non-rejected application
// count, as shown on the client dashboard.
type JobSummary struct {
	Job
	ActiveApplications int64 `json:"active_applications"`
}

// Application.ApplicantName is free text from the apply form and may
// diverge from the account identity behind ApplicantID.
type Application struct {
	ID            int64              `json:"id" db:"id"`
	JobID         int64              `json:"job_id" db:"job_id"`
	ApplicantID   int64              `json:"applicant_id,omitempty" db:"applicant_id"`
	ApplicantName string             `json:"applicant_name" db:"applicant_name"`
	Proposal      string             `json:"proposal" db:"proposal"`
	Status        workflow.AppStatus `json:"status" db:"status"`
	Created       int64              `json:"created" db:"created"`
}

// ApplicationWithJob carries the job summary shown next to each entry on
// the freelancer dashboard.
type ApplicationWithJob struct {
	Application
	JobTitle  string             `json:"job_title"`
	JobStatus workflow.JobStatus `json:"job_status"`
	JobBudget int64              `json:"job_budget"`
}

type Message struct {
	ID         int64  `json:"id" db:"id"`
	JobID      int64  `json:"job_id" db:"job_id"`
	SenderID   int64  `json:"sender_id" db:"sender_id"`
	ReceiverID int64  `json:"receiver_id" db:"receiver_id"`
	Content    string `json:"content" db:"content"`
	Read       bool   `json:"read" db:"read"`
	Created    int64  `json:"created" db:"created"`
}

// ConversationSummary is a derived grouping of messages by
// (job, counterpart); it is never stored.
type ConversationSummary struct {
	JobID         int64  `json:"job_id"`
	JobTitle      string `json:"job_title"`
	OtherUserID   int64  `json:"other_user_id"`
	OtherUserName string `json:"other_user_name"`
	LastMessageAt int64  `json:"last_message_at"`
	UnreadCount   int64  `json:"unread_count"`
}
