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

type ApplicationsHandler struct {
	jobRepo repository.JobRepo
	appRepo repository.ApplicationRepo
}

func NewApplicationsHandler(jr repository.JobRepo, ar repository.ApplicationRepo) *ApplicationsHandler {
	return &ApplicationsHandler{jobRepo: jr, appRepo: ar}
}

type applyRequest struct {
	// free text; may legitimately diverge from the account identity
	ApplicantName string `json:"applicant_name"`
	Proposal      string `json:"proposal"`
}

type applyResponse struct {
	ID int64 `json:"id"`
}

// Apply submits a proposal against a job. Freelancers only; the new
// application always starts pending.
func (h *ApplicationsHandler) Apply(w http.ResponseWriter, r *http.Request) {
	p, ok := requireRole(w, r, workflow.RoleFreelancer)
	if !ok {
		return
	}

	jobID, err := strconv.ParseInt(mux.Vars(r)["jobID"], 10, 64)
	if err != nil || jobID <= 0 {
		http.Error(w, "invalid job id", http.StatusBadRequest)
		return
	}

	job, err := h.jobRepo.GetJobByID(r.Context(), jobID)
	if err != nil {
		http.Error(w, "failed to load job", http.StatusInternalServerError)
		return
	}
	if job == nil {
		http.Error(w, "job not found", http.StatusNotFound)
		return
	}

	var req applyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	req.ApplicantName = strings.TrimSpace(req.ApplicantName)
	req.Proposal = strings.TrimSpace(req.Proposal)
	if req.ApplicantName == "" || req.Proposal == "" {
		http.Error(w, "missing fields", http.StatusBadRequest)
		return
	}

	app := &models.Application{
		JobID:         jobID,
		ApplicantID:   p.UserID,
		ApplicantName: req.ApplicantName,
		Proposal:      req.Proposal,
		Status:        workflow.AppPending,
	}
	id, err := h.appRepo.CreateApplication(r.Context(), app)
	if err != nil {
		http.Error(w, "failed to create application", http.StatusInternalServerError)
		return
	}

	writeJSON(w, applyResponse{ID: id}, http.StatusCreated)
}

// Accept marks an application accepted and moves its job to in_progress.
// Accepting a second application on an in-progress job succeeds; accepting
// on a completed job is refused because the job cannot leave the terminal
// state.
func (h *ApplicationsHandler) Accept(w http.ResponseWriter, r *http.Request) {
	p, ok := requirePrincipal(w, r)
	if !ok {
		return
	}

	app, job, ok := h.ownedApplication(w, r, p)
	if !ok {
		return
	}

	if job.Status == workflow.JobCompleted {
		http.Error(w, "job already completed", http.StatusConflict)
		return
	}
	if app.Status == workflow.AppRejected {
		http.Error(w, "application already rejected", http.StatusConflict)
		return
	}

	if err := h.appRepo.UpdateApplicationStatus(r.Context(), app.ID, workflow.AppAccepted); err != nil {
		http.Error(w, "failed to accept application", http.StatusInternalServerError)
		return
	}
	// idempotent when the job is already in progress
	if err := h.jobRepo.UpdateJobStatus(r.Context(), job.ID, workflow.JobInProgress); err != nil {
		http.Error(w, "failed to update job", http.StatusInternalServerError)
		return
	}

	writeJSON(w, map[string]any{"id": app.ID, "status": workflow.AppAccepted}, http.StatusOK)
}

// Reject hides an application from the owner's listing; the row stays in
// storage.
func (h *ApplicationsHandler) Reject(w http.ResponseWriter, r *http.Request) {
	p, ok := requirePrincipal(w, r)
	if !ok {
		return
	}

	app, _, ok := h.ownedApplication(w, r, p)
	if !ok {
		return
	}

	if app.Status == workflow.AppAccepted {
		http.Error(w, "application already accepted", http.StatusConflict)
		return
	}

	if err := h.appRepo.UpdateApplicationStatus(r.Context(), app.ID, workflow.AppRejected); err != nil {
		http.Error(w, "failed to reject application", http.StatusInternalServerError)
		return
	}

	writeJSON(w, map[string]any{"id": app.ID, "status": workflow.AppRejected}, http.StatusOK)
}

// Delete hard-deletes an application. Only its own applicant may do this,
// and only while the status is rejected; any other combination is denied
// with the row untouched.
func (h *ApplicationsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	p, ok := requirePrincipal(w, r)
	if !ok {
		return
	}

	app, ok := h.loadApplication(w, r)
	if !ok {
		return
	}

	if app.ApplicantID != p.UserID || app.Status != workflow.AppRejected {
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}

	if err := h.appRepo.DeleteApplication(r.Context(), app.ID); err != nil {
		http.Error(w, "failed to delete application", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// MyApplications is the freelancer dashboard. Applications on completed
// jobs are filtered out even though their rows survive in storage.
func (h *ApplicationsHandler) MyApplications(w http.ResponseWriter, r *http.Request) {
	p, ok := requireRole(w, r, workflow.RoleFreelancer)
	if !ok {
		return
	}

	apps, err := h.appRepo.ListByApplicant(r.Context(), p.UserID)
	if err != nil {
		http.Error(w, "failed to list applications", http.StatusInternalServerError)
		return
	}
	if apps == nil {
		apps = []models.ApplicationWithJob{}
	}

	writeJSON(w, apps, http.StatusOK)
}

func (h *ApplicationsHandler) loadApplication(w http.ResponseWriter, r *http.Request) (*models.Application, bool) {
	id, err := strconv.ParseInt(mux.Vars(r)["appID"], 10, 64)
	if err != nil || id <= 0 {
		http.Error(w, "invalid application id", http.StatusBadRequest)
		return nil, false
	}

	app, err := h.appRepo.GetApplicationByID(r.Context(), id)
	if err != nil {
		http.Error(w, "failed to load application", http.StatusInternalServerError)
		return nil, false
	}
	if app == nil {
		http.Error(w, "application not found", http.StatusNotFound)
		return nil, false
	}

	return app, true
}

// ownedApplication resolves {appID} and enforces that the caller owns the
// application's job.
func (h *ApplicationsHandler) ownedApplication(w http.ResponseWriter, r *http.Request, p principal) (*models.Application, *models.Job, bool) {
	app, ok := h.loadApplication(w, r)
	if !ok {
		return nil, nil, false
	}

	job, err := h.jobRepo.GetJobByID(r.Context(), app.JobID)
	if err != nil {
		http.Error(w, "failed to load job", http.StatusInternalServerError)
		return nil, nil, false
	}
	if job == nil {
		http.Error(w, "job not found", http.StatusNotFound)
		return nil, nil, false
	}
	if job.OwnerID != p.UserID {
		http.Error(w, "Forbidden", http.StatusForbidden)
		return nil, nil, false
	}

	return app, job, true
}
