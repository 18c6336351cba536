package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"github.com/opengig/marketplace/pkg/models"
	"github.com/opengig/marketplace/pkg/repository"
	"github.com/opengig/marketplace/pkg/workflow"
)

type JobsHandler struct {
	jobRepo repository.JobRepo
	appRepo repository.ApplicationRepo
}

func NewJobsHandler(jr repository.JobRepo, ar repository.ApplicationRepo) *JobsHandler {
	return &JobsHandler{jobRepo: jr, appRepo: ar}
}

type postJobRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	// budget arrives as free text from the form; non-numeric input is
	// stored as 0, never surfaced as an error
	Budget string `json:"budget"`
}

type postJobResponse struct {
	ID int64 `json:"id"`
}

// CreateJob posts a new job. Clients only; every job starts open with the
// caller as owner.
func (h *JobsHandler) CreateJob(w http.ResponseWriter, r *http.Request) {
	p, ok := requireRole(w, r, workflow.RoleClient)
	if !ok {
		return
	}

	var req postJobRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}

	req.Title = strings.TrimSpace(req.Title)
	req.Description = strings.TrimSpace(req.Description)
	if req.Title == "" || req.Description == "" || req.Budget == "" {
		http.Error(w, "missing fields", http.StatusBadRequest)
		return
	}

	budget, err := strconv.ParseInt(strings.TrimSpace(req.Budget), 10, 64)
	if err != nil {
		budget = 0
	}

	job := &models.Job{
		Title:       req.Title,
		Description: req.Description,
		Budget:      budget,
		OwnerID:     p.UserID,
		Status:      workflow.JobOpen,
	}
	id, err := h.jobRepo.CreateJob(r.Context(), job)
	if err != nil {
		http.Error(w, "failed to create job", http.StatusInternalServerError)
		return
	}

	writeJSON(w, postJobResponse{ID: id}, http.StatusCreated)
}

// AvailableJobs lists open jobs for freelancers, newest first.
func (h *JobsHandler) AvailableJobs(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireRole(w, r, workflow.RoleFreelancer); !ok {
		return
	}

	jobs, err := h.jobRepo.ListOpenJobs(r.Context())
	if err != nil {
		http.Error(w, "failed to list jobs", http.StatusInternalServerError)
		return
	}
	if jobs == nil {
		jobs = []models.Job{}
	}

	writeJSON(w, jobs, http.StatusOK)
}

// MyJobs is the client dashboard: the caller's non-completed jobs with
// their live non-rejected application counts.
func (h *JobsHandler) MyJobs(w http.ResponseWriter, r *http.Request) {
	p, ok := requireRole(w, r, workflow.RoleClient)
	if !ok {
		return
	}

	jobs, err := h.jobRepo.ListJobsByOwner(r.Context(), p.UserID)
	if err != nil {
		http.Error(w, "failed to list jobs", http.StatusInternalServerError)
		return
	}
	if jobs == nil {
		jobs = []models.JobSummary{}
	}

	writeJSON(w, jobs, http.StatusOK)
}

type jobApplicationsResponse struct {
	Job          models.Job           `json:"job"`
	Applications []models.Application `json:"applications"`
}

// JobApplications shows a single job's non-rejected applications to its
// owner.
func (h *JobsHandler) JobApplications(w http.ResponseWriter, r *http.Request) {
	p, ok := requirePrincipal(w, r)
	if !ok {
		return
	}

	job, ok := h.ownedJob(w, r, p)
	if !ok {
		return
	}

	apps, err := h.appRepo.ListActiveByJob(r.Context(), job.ID)
	if err != nil {
		http.Error(w, "failed to list applications", http.StatusInternalServerError)
		return
	}
	if apps == nil {
		apps = []models.Application{}
	}

	writeJSON(w, jobApplicationsResponse{Job: *job, Applications: apps}, http.StatusOK)
}

// CompleteJob is the owner's terminal transition. The accepted application
// (if any) is left alone; everything else on the job becomes rejected. The
// two writes are sequential, not wrapped in a transaction.
func (h *JobsHandler) CompleteJob(w http.ResponseWriter, r *http.Request) {
	p, ok := requirePrincipal(w, r)
	if !ok {
		return
	}

	job, ok := h.ownedJob(w, r, p)
	if !ok {
		return
	}

	if err := h.jobRepo.UpdateJobStatus(r.Context(), job.ID, workflow.JobCompleted); err != nil {
		http.Error(w, "failed to complete job", http.StatusInternalServerError)
		return
	}
	if err := h.appRepo.RejectNonAccepted(r.Context(), job.ID); err != nil {
		http.Error(w, "failed to update applications", http.StatusInternalServerError)
		return
	}

	writeJSON(w, map[string]any{"id": job.ID, "status": workflow.JobCompleted}, http.StatusOK)
}

// ownedJob resolves {jobID} and enforces ownership: 404 for unknown ids,
// 403 when the caller does not own the job.
func (h *JobsHandler) ownedJob(w http.ResponseWriter, r *http.Request, p principal) (*models.Job, bool) {
	idStr := mux.Vars(r)["jobID"]
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil || id <= 0 {
		http.Error(w, "invalid job id", http.StatusBadRequest)
		return nil, false
	}

	job, err := h.jobRepo.GetJobByID(r.Context(), id)
	if err != nil {
		http.Error(w, "failed to load job", http.StatusInternalServerError)
		return nil, false
	}
	if job == nil {
		http.Error(w, "job not found", http.StatusNotFound)
		return nil, false
	}
	if job.OwnerID != p.UserID {
		http.Error(w, "Forbidden", http.StatusForbidden)
		return nil, false
	}

	return job, true
}
