package mock

import (
	"context"
	"fmt"
	"sort"

	"github.com/opengig/marketplace/pkg/models"
	"github.com/opengig/marketplace/pkg/workflow"
)

// In-memory repositories for handler tests.
type Mocks struct {
	Users        *UserRepo
	Profiles     *ProfileRepo
	Jobs         *JobRepo
	Applications *ApplicationRepo
	Messages     *MessageRepo
}

func NewMocks() *Mocks {
	m := &Mocks{
		Users:        &UserRepo{byID: map[int64]*models.User{}},
		Profiles:     &ProfileRepo{byUser: map[int64]*models.Profile{}},
		Jobs:         &JobRepo{byID: map[int64]*models.Job{}},
		Applications: &ApplicationRepo{byID: map[int64]*models.Application{}},
		Messages:     &MessageRepo{},
	}
	m.Applications.jobs = m.Jobs
	return m
}

type UserRepo struct {
	byID      map[int64]*models.User
	nextID    int64
	CreateErr error
}

func (m *UserRepo) CreateUser(ctx context.Context, u *models.User) (int64, error) {
	if m.CreateErr != nil {
		return 0, m.CreateErr
	}
	for _, ex := range m.byID {
		if ex.Email == u.Email {
			return 0, fmt.Errorf("UNIQUE constraint failed: users.email")
		}
	}
	m.nextID++
	cp := *u
	cp.ID = m.nextID
	m.byID[cp.ID] = &cp
	return cp.ID, nil
}

func (m *UserRepo) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	return m.byID[id], nil
}

func (m *UserRepo) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	for _, u := range m.byID {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, nil
}

type ProfileRepo struct {
	byUser    map[int64]*models.Profile
	nextID    int64
	CreateErr error
}

func (m *ProfileRepo) CreateProfile(ctx context.Context, p *models.Profile) (int64, error) {
	if m.CreateErr != nil {
		return 0, m.CreateErr
	}
	m.nextID++
	cp := *p
	cp.ID = m.nextID
	m.byUser[cp.UserID] = &cp
	return cp.ID, nil
}

func (m *ProfileRepo) GetProfileByUserID(ctx context.Context, userID int64) (*models.Profile, error) {
	return m.byUser[userID], nil
}

type JobRepo struct {
	byID      map[int64]*models.Job
	nextID    int64
	CreateErr error
	UpdateErr error
}

func (m *JobRepo) CreateJob(ctx context.Context, j *models.Job) (int64, error) {
	if m.CreateErr != nil {
		return 0, m.CreateErr
	}
	m.nextID++
	cp := *j
	cp.ID = m.nextID
	if cp.Status == "" {
		cp.Status = workflow.JobOpen
	}
	if cp.Created == 0 {
		cp.Created = m.nextID
	}
	m.byID[cp.ID] = &cp
	return cp.ID, nil
}

func (m *JobRepo) GetJobByID(ctx context.Context, id int64) (*models.Job, error) {
	return m.byID[id], nil
}

func (m *JobRepo) ListOpenJobs(ctx context.Context) ([]models.Job, error) {
	var out []models.Job
	for _, j := range m.byID {
		if j.Status == workflow.JobOpen {
			out = append(out, *j)
		}
	}
	sort.Slice(out, func(i, k int) bool { return out[i].Created > out[k].Created })
	return out, nil
}

func (m *JobRepo) ListJobsByOwner(ctx context.Context, ownerID int64) ([]models.JobSummary, error) {
	var out []models.JobSummary
	for _, j := range m.byID {
		if j.OwnerID != ownerID || j.Status == workflow.JobCompleted {
			continue
		}
		out = append(out, models.JobSummary{Job: *j})
	}
	sort.Slice(out, func(i, k int) bool { return out[i].Created > out[k].Created })
	return out, nil
}

func (m *JobRepo) UpdateJobStatus(ctx context.Context, id int64, status workflow.JobStatus) error {
	if m.UpdateErr != nil {
		return m.UpdateErr
	}
	j, ok := m.byID[id]
	if !ok {
		return fmt.Errorf("job %d not found", id)
	}
	if j.Status == status {
		return nil
	}
	if !workflow.JobTransitionAllowed(j.Status, status) {
		return fmt.Errorf("job %d: transition %s → %s not allowed", id, j.Status, status)
	}
	j.Status = status
	return nil
}

type ApplicationRepo struct {
	byID      map[int64]*models.Application
	nextID    int64
	jobs      *JobRepo
	CreateErr error
	UpdateErr error
	DeleteErr error
}

func (m *ApplicationRepo) CreateApplication(ctx context.Context, a *models.Application) (int64, error) {
	if m.CreateErr != nil {
		return 0, m.CreateErr
	}
	m.nextID++
	cp := *a
	cp.ID = m.nextID
	if cp.Status == "" {
		cp.Status = workflow.AppPending
	}
	if cp.Created == 0 {
		cp.Created = m.nextID
	}
	m.byID[cp.ID] = &cp
	return cp.ID, nil
}

func (m *ApplicationRepo) GetApplicationByID(ctx context.Context, id int64) (*models.Application, error) {
	return m.byID[id], nil
}

func (m *ApplicationRepo) ListActiveByJob(ctx context.Context, jobID int64) ([]models.Application, error) {
	var out []models.Application
	for _, a := range m.byID {
		if a.JobID == jobID && a.Status != workflow.AppRejected {
			out = append(out, *a)
		}
	}
	sort.Slice(out, func(i, k int) bool { return out[i].Created > out[k].Created })
	return out, nil
}

func (m *ApplicationRepo) ListByApplicant(ctx context.Context, applicantID int64) ([]models.ApplicationWithJob, error) {
	var out []models.ApplicationWithJob
	for _, a := range m.byID {
		if a.ApplicantID != applicantID {
			continue
		}
		job := m.jobs.byID[a.JobID]
		if job == nil || job.Status == workflow.JobCompleted {
			continue
		}
		out = append(out, models.ApplicationWithJob{
			Application: *a,
			JobTitle:    job.Title,
			JobStatus:   job.Status,
			JobBudget:   job.Budget,
		})
	}
	sort.Slice(out, func(i, k int) bool { return out[i].Created > out[k].Created })
	return out, nil
}

func (m *ApplicationRepo) UpdateApplicationStatus(ctx context.Context, id int64, status workflow.AppStatus) error {
	if m.UpdateErr != nil {
		return m.UpdateErr
	}
	a, ok := m.byID[id]
	if !ok {
		return fmt.Errorf("application %d not found", id)
	}
	if a.Status == status {
		return nil
	}
	if !workflow.AppTransitionAllowed(a.Status, status) {
		return fmt.Errorf("application %d: transition %s → %s not allowed", id, a.Status, status)
	}
	a.Status = status
	return nil
}

func (m *ApplicationRepo) RejectNonAccepted(ctx context.Context, jobID int64) error {
	for _, a := range m.byID {
		if a.JobID == jobID && a.Status != workflow.AppAccepted {
			a.Status = workflow.AppRejected
		}
	}
	return nil
}

func (m *ApplicationRepo) DeleteApplication(ctx context.Context, id int64) error {
	if m.DeleteErr != nil {
		return m.DeleteErr
	}
	delete(m.byID, id)
	return nil
}

func (m *ApplicationRepo) HasAcceptedApplication(ctx context.Context, jobID, userID int64) (bool, error) {
	for _, a := range m.byID {
		if a.JobID == jobID && a.ApplicantID == userID && a.Status == workflow.AppAccepted {
			return true, nil
		}
	}
	return false, nil
}

type MessageRepo struct {
	Stored    []*models.Message
	nextID    int64
	CreateErr error
}

func (m *MessageRepo) CreateMessage(ctx context.Context, msg *models.Message) (int64, error) {
	if m.CreateErr != nil {
		return 0, m.CreateErr
	}
	m.nextID++
	cp := *msg
	cp.ID = m.nextID
	cp.Read = false
	if cp.Created == 0 {
		cp.Created = m.nextID
	}
	m.Stored = append(m.Stored, &cp)
	return cp.ID, nil
}

func (m *MessageRepo) ListThread(ctx context.Context, jobID, userA, userB int64) ([]models.Message, error) {
	var out []models.Message
	for _, msg := range m.Stored {
		if msg.JobID != jobID {
			continue
		}
		if (msg.SenderID == userA && msg.ReceiverID == userB) || (msg.SenderID == userB && msg.ReceiverID == userA) {
			out = append(out, *msg)
		}
	}
	sort.Slice(out, func(i, k int) bool { return out[i].Created < out[k].Created })
	return out, nil
}

func (m *MessageRepo) MarkThreadRead(ctx context.Context, jobID, receiverID, senderID int64) error {
	for _, msg := range m.Stored {
		if msg.JobID == jobID && msg.ReceiverID == receiverID && msg.SenderID == senderID {
			msg.Read = true
		}
	}
	return nil
}

func (m *MessageRepo) ClearThread(ctx context.Context, jobID, userA, userB int64) error {
	var kept []*models.Message
	for _, msg := range m.Stored {
		pair := msg.JobID == jobID &&
			((msg.SenderID == userA && msg.ReceiverID == userB) || (msg.SenderID == userB && msg.ReceiverID == userA))
		if !pair {
			kept = append(kept, msg)
		}
	}
	m.Stored = kept
	return nil
}

func (m *MessageRepo) ListConversations(ctx context.Context, userID int64) ([]models.ConversationSummary, error) {
	type key struct{ other, job int64 }
	groups := map[key]*models.ConversationSummary{}
	for _, msg := range m.Stored {
		if msg.SenderID != userID && msg.ReceiverID != userID {
			continue
		}
		other := msg.SenderID
		if other == userID {
			other = msg.ReceiverID
		}
		k := key{other, msg.JobID}
		g, ok := groups[k]
		if !ok {
			g = &models.ConversationSummary{JobID: msg.JobID, OtherUserID: other}
			groups[k] = g
		}
		if msg.Created > g.LastMessageAt {
			g.LastMessageAt = msg.Created
		}
		if msg.ReceiverID == userID && !msg.Read {
			g.UnreadCount++
		}
	}
	var out []models.ConversationSummary
	for _, g := range groups {
		out = append(out, *g)
	}
	sort.Slice(out, func(i, k int) bool { return out[i].LastMessageAt > out[k].LastMessageAt })
	return out, nil
}

func (m *MessageRepo) CountUnread(ctx context.Context, userID int64) (int64, error) {
	var n int64
	for _, msg := range m.Stored {
		if msg.ReceiverID == userID && !msg.Read {
			n++
		}
	}
	return n, nil
}
