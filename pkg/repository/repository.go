package repository

import (
	"context"

	"github.com/opengig/marketplace/pkg/models"
	"github.com/opengig/marketplace/pkg/workflow"
)

// Repository interfaces for domain entities. These are the public contracts
// consumers should depend on; concrete implementations live under internal/.

type UserRepo interface {
	CreateUser(ctx context.Context, u *models.User) (int64, error)
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
}

type ProfileRepo interface {
	CreateProfile(ctx context.Context, p *models.Profile) (int64, error)
	GetProfileByUserID(ctx context.Context, userID int64) (*models.Profile, error)
}

type JobRepo interface {
	CreateJob(ctx context.Context, j *models.Job) (int64, error)
	GetJobByID(ctx context.Context, id int64) (*models.Job, error)
	// ListOpenJobs returns open jobs only, newest first.
	ListOpenJobs(ctx context.Context) ([]models.Job, error)
	// ListJobsByOwner returns the owner's non-completed jobs, newest first,
	// each annotated with its non-rejected application count.
	ListJobsByOwner(ctx context.Context, ownerID int64) ([]models.JobSummary, error)
	UpdateJobStatus(ctx context.Context, id int64, status workflow.JobStatus) error
}

type ApplicationRepo interface {
	CreateApplication(ctx context.Context, a *models.Application) (int64, error)
	GetApplicationByID(ctx context.Context, id int64) (*models.Application, error)
	// ListActiveByJob returns a job's applications excluding rejected ones.
	ListActiveByJob(ctx context.Context, jobID int64) ([]models.Application, error)
	// ListByApplicant returns the applicant's applications excluding those
	// whose job is completed.
	ListByApplicant(ctx context.Context, applicantID int64) ([]models.ApplicationWithJob, error)
	UpdateApplicationStatus(ctx context.Context, id int64, status workflow.AppStatus) error
	// RejectNonAccepted marks every application on the job whose status is
	// not accepted as rejected. Used on job completion.
	RejectNonAccepted(ctx context.Context, jobID int64) error
	DeleteApplication(ctx context.Context, id int64) error
	// HasAcceptedApplication reports whether the user holds an accepted
	// application on the job. Drives conversation authorization.
	HasAcceptedApplication(ctx context.Context, jobID, userID int64) (bool, error)
}

type MessageRepo interface {
	CreateMessage(ctx context.Context, m *models.Message) (int64, error)
	// ListThread returns both directions of the pair's messages on the job,
	// oldest first.
	ListThread(ctx context.Context, jobID, userA, userB int64) ([]models.Message, error)
	// MarkThreadRead flips read on unread messages from senderID to
	// receiverID on the job. Read never flips back.
	MarkThreadRead(ctx context.Context, jobID, receiverID, senderID int64) error
	// ClearThread deletes the pair's messages on the job, both directions.
	ClearThread(ctx context.Context, jobID, userA, userB int64) error
	ListConversations(ctx context.Context, userID int64) ([]models.ConversationSummary, error)
	CountUnread(ctx context.Context, userID int64) (int64, error)
}
