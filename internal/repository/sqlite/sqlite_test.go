package sqlite_test

import (
	"context"
	"testing"

	dbfs "github.com/opengig/marketplace/db"
	dbpkg "github.com/opengig/marketplace/internal/db"
	sqlite "github.com/opengig/marketplace/internal/repository/sqlite"
	"github.com/opengig/marketplace/pkg/models"
	"github.com/opengig/marketplace/pkg/workflow"
)

func setupRepo(t *testing.T) (*sqlite.SQLiteRepo, func()) {
	t.Helper()
	ctx := context.Background()
	d, err := dbpkg.New(ctx, "file::memory:?cache=shared")
	if err != nil {
		t.Fatalf("failed to open db: %v", err)
	}

	if err := dbpkg.Migrate(ctx, d, dbfs.Migrations); err != nil {
		d.Close()
		t.Fatalf("migrate: %v", err)
	}

	// shared-cache memory db keeps rows across opens while connections
	// linger; start every test from empty tables
	for _, table := range []string{"messages", "applications", "jobs", "profiles", "users"} {
		if _, err := d.Exec(ctx, "DELETE FROM "+table); err != nil {
			d.Close()
			t.Fatalf("truncate %s: %v", table, err)
		}
	}

	repo := sqlite.New(d)
	return repo, func() { d.Close() }
}

func mustCreateUser(t *testing.T, repo *sqlite.SQLiteRepo, email string, role workflow.Role) int64 {
	t.Helper()
	ctx := context.Background()
	id, err := repo.CreateUser(ctx, &models.User{Email: email, FirstName: "Test", LastName: "User", PasswordHash: "hash"})
	if err != nil {
		t.Fatalf("CreateUser(%s): %v", email, err)
	}
	if _, err := repo.CreateProfile(ctx, &models.Profile{UserID: id, Role: role}); err != nil {
		t.Fatalf("CreateProfile(%s): %v", email, err)
	}
	return id
}

func TestUserAndProfile(t *testing.T) {
	repo, cleanup := setupRepo(t)
	defer cleanup()
	ctx := context.Background()

	if _, err := repo.CreateUser(ctx, nil); err == nil {
		t.Fatalf("expected error when creating nil user")
	}

	got, err := repo.GetUserByEmail(ctx, "nobody@example.com")
	if err != nil {
		t.Fatalf("GetUserByEmail error: %v", err)
	}
	if got != nil {
		t.Fatalf("expected nil for unknown email, got %#v", got)
	}

	id := mustCreateUser(t, repo, "alice@example.com", workflow.RoleClient)

	byID, err := repo.GetUserByID(ctx, id)
	if err != nil {
		t.Fatalf("GetUserByID error: %v", err)
	}
	if byID == nil || byID.Email != "alice@example.com" {
		t.Fatalf("GetUserByID wrong result: %#v", byID)
	}

	// duplicate email hits the unique constraint
	if _, err := repo.CreateUser(ctx, &models.User{Email: "alice@example.com", FirstName: "A", LastName: "B", PasswordHash: "h"}); err == nil {
		t.Fatalf("expected unique constraint error for duplicate email")
	}

	prof, err := repo.GetProfileByUserID(ctx, id)
	if err != nil {
		t.Fatalf("GetProfileByUserID error: %v", err)
	}
	if prof == nil || prof.Role != workflow.RoleClient {
		t.Fatalf("wrong profile: %#v", prof)
	}

	// unknown role is rejected at the boundary
	if _, err := repo.CreateProfile(ctx, &models.Profile{UserID: id, Role: "admin"}); err == nil {
		t.Fatalf("expected error for unknown role")
	}

	missing, err := repo.GetProfileByUserID(ctx, 9999)
	if err != nil || missing != nil {
		t.Fatalf("expected nil, nil for missing profile, got %#v, %v", missing, err)
	}
}

func TestJobLifecycle(t *testing.T) {
	repo, cleanup := setupRepo(t)
	defer cleanup()
	ctx := context.Background()

	owner := mustCreateUser(t, repo, "client@example.com", workflow.RoleClient)

	jobID, err := repo.CreateJob(ctx, &models.Job{Title: "Build a site", Description: "desc", Budget: 500, OwnerID: owner})
	if err != nil {
		t.Fatalf("CreateJob error: %v", err)
	}

	job, err := repo.GetJobByID(ctx, jobID)
	if err != nil {
		t.Fatalf("GetJobByID error: %v", err)
	}
	if job == nil || job.Status != workflow.JobOpen || job.OwnerID != owner {
		t.Fatalf("unexpected job: %#v", job)
	}

	open, err := repo.ListOpenJobs(ctx)
	if err != nil {
		t.Fatalf("ListOpenJobs error: %v", err)
	}
	if len(open) != 1 || open[0].ID != jobID {
		t.Fatalf("expected one open job, got %#v", open)
	}

	if err := repo.UpdateJobStatus(ctx, jobID, workflow.JobInProgress); err != nil {
		t.Fatalf("open → in_progress failed: %v", err)
	}

	// in-progress jobs leave the available listing
	open, err = repo.ListOpenJobs(ctx)
	if err != nil {
		t.Fatalf("ListOpenJobs error: %v", err)
	}
	if len(open) != 0 {
		t.Fatalf("expected no open jobs, got %#v", open)
	}

	// same status again is a no-op
	if err := repo.UpdateJobStatus(ctx, jobID, workflow.JobInProgress); err != nil {
		t.Fatalf("idempotent in_progress failed: %v", err)
	}

	if err := repo.UpdateJobStatus(ctx, jobID, workflow.JobCompleted); err != nil {
		t.Fatalf("in_progress → completed failed: %v", err)
	}

	// never backward
	if err := repo.UpdateJobStatus(ctx, jobID, workflow.JobOpen); err == nil {
		t.Fatalf("expected completed → open to be rejected")
	}
	job, _ = repo.GetJobByID(ctx, jobID)
	if job.Status != workflow.JobCompleted {
		t.Fatalf("status reverted: %s", job.Status)
	}

	if err := repo.UpdateJobStatus(ctx, 9999, workflow.JobCompleted); err == nil {
		t.Fatalf("expected error for missing job")
	}
}

func TestOwnerDashboardCounts(t *testing.T) {
	repo, cleanup := setupRepo(t)
	defer cleanup()
	ctx := context.Background()

	owner := mustCreateUser(t, repo, "client2@example.com", workflow.RoleClient)
	f1 := mustCreateUser(t, repo, "f1@example.com", workflow.RoleFreelancer)
	f2 := mustCreateUser(t, repo, "f2@example.com", workflow.RoleFreelancer)

	jobID, _ := repo.CreateJob(ctx, &models.Job{Title: "Logo", Description: "d", Budget: 100, OwnerID: owner})
	doneID, _ := repo.CreateJob(ctx, &models.Job{Title: "Old", Description: "d", Budget: 50, OwnerID: owner})
	_ = repo.UpdateJobStatus(ctx, doneID, workflow.JobCompleted)

	a1, _ := repo.CreateApplication(ctx, &models.Application{JobID: jobID, ApplicantID: f1, ApplicantName: "F One", Proposal: "p1"})
	_, _ = repo.CreateApplication(ctx, &models.Application{JobID: jobID, ApplicantID: f2, ApplicantName: "F Two", Proposal: "p2"})

	jobs, err := repo.ListJobsByOwner(ctx, owner)
	if err != nil {
		t.Fatalf("ListJobsByOwner error: %v", err)
	}
	// completed job is hidden
	if len(jobs) != 1 || jobs[0].ID != jobID {
		t.Fatalf("expected only the active job, got %#v", jobs)
	}
	if jobs[0].ActiveApplications != 2 {
		t.Fatalf("expected 2 active applications, got %d", jobs[0].ActiveApplications)
	}

	// rejected applications drop out of the count and the listing
	if err := repo.UpdateApplicationStatus(ctx, a1, workflow.AppRejected); err != nil {
		t.Fatalf("reject failed: %v", err)
	}
	jobs, _ = repo.ListJobsByOwner(ctx, owner)
	if jobs[0].ActiveApplications != 1 {
		t.Fatalf("expected 1 active application after reject, got %d", jobs[0].ActiveApplications)
	}
	active, err := repo.ListActiveByJob(ctx, jobID)
	if err != nil {
		t.Fatalf("ListActiveByJob error: %v", err)
	}
	if len(active) != 1 || active[0].ApplicantID != f2 {
		t.Fatalf("expected only f2's application, got %#v", active)
	}
}

func TestApplicationWorkflow(t *testing.T) {
	repo, cleanup := setupRepo(t)
	defer cleanup()
	ctx := context.Background()

	owner := mustCreateUser(t, repo, "client3@example.com", workflow.RoleClient)
	f1 := mustCreateUser(t, repo, "f3@example.com", workflow.RoleFreelancer)
	f2 := mustCreateUser(t, repo, "f4@example.com", workflow.RoleFreelancer)

	jobID, _ := repo.CreateJob(ctx, &models.Job{Title: "API work", Description: "d", Budget: 900, OwnerID: owner})
	a1, _ := repo.CreateApplication(ctx, &models.Application{JobID: jobID, ApplicantID: f1, ApplicantName: "F Three", Proposal: "p"})
	a2, _ := repo.CreateApplication(ctx, &models.Application{JobID: jobID, ApplicantID: f2, ApplicantName: "F Four", Proposal: "p"})

	if err := repo.UpdateApplicationStatus(ctx, a1, workflow.AppAccepted); err != nil {
		t.Fatalf("accept failed: %v", err)
	}
	if err := repo.UpdateJobStatus(ctx, jobID, workflow.JobInProgress); err != nil {
		t.Fatalf("job in_progress failed: %v", err)
	}

	// terminal application states cannot move
	if err := repo.UpdateApplicationStatus(ctx, a1, workflow.AppRejected); err == nil {
		t.Fatalf("expected accepted → rejected to be rejected")
	}

	// complete the job: every non-accepted application becomes rejected
	if err := repo.UpdateJobStatus(ctx, jobID, workflow.JobCompleted); err != nil {
		t.Fatalf("complete failed: %v", err)
	}
	if err := repo.RejectNonAccepted(ctx, jobID); err != nil {
		t.Fatalf("RejectNonAccepted failed: %v", err)
	}

	got1, _ := repo.GetApplicationByID(ctx, a1)
	if got1.Status != workflow.AppAccepted {
		t.Fatalf("accepted application was touched: %s", got1.Status)
	}
	got2, _ := repo.GetApplicationByID(ctx, a2)
	if got2.Status != workflow.AppRejected {
		t.Fatalf("pending application should be rejected, got %s", got2.Status)
	}

	// completed jobs disappear from the freelancer dashboard
	mine, err := repo.ListByApplicant(ctx, f1)
	if err != nil {
		t.Fatalf("ListByApplicant error: %v", err)
	}
	if len(mine) != 0 {
		t.Fatalf("expected no applications on completed jobs, got %#v", mine)
	}

	// the row itself survives in storage
	if got, _ := repo.GetApplicationByID(ctx, a1); got == nil {
		t.Fatalf("accepted application row should survive job completion")
	}

	// hard delete
	if err := repo.DeleteApplication(ctx, a2); err != nil {
		t.Fatalf("DeleteApplication error: %v", err)
	}
	if got, _ := repo.GetApplicationByID(ctx, a2); got != nil {
		t.Fatalf("expected application deleted, got %#v", got)
	}
}

func TestListByApplicant_ActiveJobs(t *testing.T) {
	repo, cleanup := setupRepo(t)
	defer cleanup()
	ctx := context.Background()

	owner := mustCreateUser(t, repo, "client4@example.com", workflow.RoleClient)
	f := mustCreateUser(t, repo, "f5@example.com", workflow.RoleFreelancer)

	openJob, _ := repo.CreateJob(ctx, &models.Job{Title: "Open job", Description: "d", Budget: 10, OwnerID: owner})
	_, _ = repo.CreateApplication(ctx, &models.Application{JobID: openJob, ApplicantID: f, ApplicantName: "F", Proposal: "p"})

	mine, err := repo.ListByApplicant(ctx, f)
	if err != nil {
		t.Fatalf("ListByApplicant error: %v", err)
	}
	if len(mine) != 1 || mine[0].JobTitle != "Open job" || mine[0].JobStatus != workflow.JobOpen {
		t.Fatalf("unexpected dashboard rows: %#v", mine)
	}
}

func TestHasAcceptedApplication(t *testing.T) {
	repo, cleanup := setupRepo(t)
	defer cleanup()
	ctx := context.Background()

	owner := mustCreateUser(t, repo, "client5@example.com", workflow.RoleClient)
	f := mustCreateUser(t, repo, "f6@example.com", workflow.RoleFreelancer)
	jobID, _ := repo.CreateJob(ctx, &models.Job{Title: "T", Description: "d", Budget: 1, OwnerID: owner})
	appID, _ := repo.CreateApplication(ctx, &models.Application{JobID: jobID, ApplicantID: f, ApplicantName: "F", Proposal: "p"})

	ok, err := repo.HasAcceptedApplication(ctx, jobID, f)
	if err != nil || ok {
		t.Fatalf("pending application must not authorize, got %v, %v", ok, err)
	}

	_ = repo.UpdateApplicationStatus(ctx, appID, workflow.AppAccepted)

	ok, err = repo.HasAcceptedApplication(ctx, jobID, f)
	if err != nil || !ok {
		t.Fatalf("accepted application must authorize, got %v, %v", ok, err)
	}
}

func TestMessaging(t *testing.T) {
	repo, cleanup := setupRepo(t)
	defer cleanup()
	ctx := context.Background()

	client := mustCreateUser(t, repo, "client6@example.com", workflow.RoleClient)
	freelancer := mustCreateUser(t, repo, "f7@example.com", workflow.RoleFreelancer)
	jobID, _ := repo.CreateJob(ctx, &models.Job{Title: "Chat job", Description: "d", Budget: 1, OwnerID: client})

	if _, err := repo.CreateMessage(ctx, &models.Message{JobID: jobID, SenderID: freelancer, ReceiverID: client, Content: "hello"}); err != nil {
		t.Fatalf("CreateMessage error: %v", err)
	}
	if _, err := repo.CreateMessage(ctx, &models.Message{JobID: jobID, SenderID: client, ReceiverID: freelancer, Content: "hi back"}); err != nil {
		t.Fatalf("CreateMessage error: %v", err)
	}

	thread, err := repo.ListThread(ctx, jobID, client, freelancer)
	if err != nil {
		t.Fatalf("ListThread error: %v", err)
	}
	if len(thread) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(thread))
	}
	if thread[0].Content != "hello" || thread[1].Content != "hi back" {
		t.Fatalf("thread out of order: %#v", thread)
	}
	for _, m := range thread {
		if m.Read {
			t.Fatalf("messages must start unread: %#v", m)
		}
	}

	// client views the thread: only the freelancer's message flips
	if err := repo.MarkThreadRead(ctx, jobID, client, freelancer); err != nil {
		t.Fatalf("MarkThreadRead error: %v", err)
	}
	thread, _ = repo.ListThread(ctx, jobID, client, freelancer)
	for _, m := range thread {
		if m.ReceiverID == client && !m.Read {
			t.Fatalf("incoming message not marked read: %#v", m)
		}
		if m.SenderID == client && m.Read {
			t.Fatalf("own sent message must stay unread: %#v", m)
		}
	}

	if n, _ := repo.CountUnread(ctx, client); n != 0 {
		t.Fatalf("expected 0 unread for client, got %d", n)
	}
	if n, _ := repo.CountUnread(ctx, freelancer); n != 1 {
		t.Fatalf("expected 1 unread for freelancer, got %d", n)
	}

	if err := repo.ClearThread(ctx, jobID, client, freelancer); err != nil {
		t.Fatalf("ClearThread error: %v", err)
	}
	thread, _ = repo.ListThread(ctx, jobID, client, freelancer)
	if len(thread) != 0 {
		t.Fatalf("expected empty thread after clear, got %#v", thread)
	}
}

func TestListConversations(t *testing.T) {
	repo, cleanup := setupRepo(t)
	defer cleanup()
	ctx := context.Background()

	client := mustCreateUser(t, repo, "client7@example.com", workflow.RoleClient)
	f1 := mustCreateUser(t, repo, "f8@example.com", workflow.RoleFreelancer)
	f2 := mustCreateUser(t, repo, "f9@example.com", workflow.RoleFreelancer)
	jobA, _ := repo.CreateJob(ctx, &models.Job{Title: "Job A", Description: "d", Budget: 1, OwnerID: client})
	jobB, _ := repo.CreateJob(ctx, &models.Job{Title: "Job B", Description: "d", Budget: 1, OwnerID: client})

	// two conversations with f1 (different jobs) and one with f2
	_, _ = repo.CreateMessage(ctx, &models.Message{JobID: jobA, SenderID: f1, ReceiverID: client, Content: "a1"})
	_, _ = repo.CreateMessage(ctx, &models.Message{JobID: jobB, SenderID: f1, ReceiverID: client, Content: "b1"})
	_, _ = repo.CreateMessage(ctx, &models.Message{JobID: jobA, SenderID: f2, ReceiverID: client, Content: "a2"})
	_, _ = repo.CreateMessage(ctx, &models.Message{JobID: jobA, SenderID: f2, ReceiverID: client, Content: "a3"})

	convos, err := repo.ListConversations(ctx, client)
	if err != nil {
		t.Fatalf("ListConversations error: %v", err)
	}
	if len(convos) != 3 {
		t.Fatalf("expected 3 conversations, got %#v", convos)
	}

	// exactly one entry per (job, counterpart) pair
	seen := map[[2]int64]bool{}
	for _, c := range convos {
		key := [2]int64{c.JobID, c.OtherUserID}
		if seen[key] {
			t.Fatalf("duplicate conversation for %v", key)
		}
		seen[key] = true
	}
	if !seen[[2]int64{jobA, f1}] || !seen[[2]int64{jobB, f1}] || !seen[[2]int64{jobA, f2}] {
		t.Fatalf("missing conversation pair: %#v", convos)
	}

	// newest last-message first
	for i := 1; i < len(convos); i++ {
		if convos[i-1].LastMessageAt < convos[i].LastMessageAt {
			t.Fatalf("conversations not sorted by last message: %#v", convos)
		}
	}

	// unread counts are per pair
	for _, c := range convos {
		want := int64(1)
		if c.OtherUserID == f2 {
			want = 2
		}
		if c.UnreadCount != want {
			t.Fatalf("conversation %v: expected %d unread, got %d", c, want, c.UnreadCount)
		}
	}

	// the counterpart sees the same grouping from their side
	f1Convos, err := repo.ListConversations(ctx, f1)
	if err != nil {
		t.Fatalf("ListConversations(f1) error: %v", err)
	}
	if len(f1Convos) != 2 {
		t.Fatalf("expected 2 conversations for f1, got %#v", f1Convos)
	}
	for _, c := range f1Convos {
		if c.UnreadCount != 0 {
			t.Fatalf("f1 sent everything; expected 0 unread, got %#v", c)
		}
	}
}
