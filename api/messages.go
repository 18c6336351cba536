package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"github.com/opengig/marketplace/pkg/models"
	"github.com/opengig/marketplace/pkg/repository"
)

type MessagesHandler struct {
	jobRepo     repository.JobRepo
	appRepo     repository.ApplicationRepo
	messageRepo repository.MessageRepo
	userRepo    repository.UserRepo
}

func NewMessagesHandler(jr repository.JobRepo, ar repository.ApplicationRepo, mr repository.MessageRepo, ur repository.UserRepo) *MessagesHandler {
	return &MessagesHandler{jobRepo: jr, appRepo: ar, messageRepo: mr, userRepo: ur}
}

type threadResponse struct {
	Job       models.Job       `json:"job"`
	OtherUser models.User      `json:"other_user"`
	Messages  []models.Message `json:"messages"`
}

// Thread returns the conversation with {userID} on {jobID}, oldest first.
// Viewing is not read-only: the caller's unread incoming messages in the
// thread are marked read before the response is built (fetch-and-mark).
func (h *MessagesHandler) Thread(w http.ResponseWriter, r *http.Request) {
	p, job, other, ok := h.conversationParties(w, r)
	if !ok {
		return
	}

	if err := h.messageRepo.MarkThreadRead(r.Context(), job.ID, p.UserID, other.ID); err != nil {
		http.Error(w, "failed to mark messages read", http.StatusInternalServerError)
		return
	}

	msgs, err := h.messageRepo.ListThread(r.Context(), job.ID, p.UserID, other.ID)
	if err != nil {
		http.Error(w, "failed to list messages", http.StatusInternalServerError)
		return
	}
	if msgs == nil {
		msgs = []models.Message{}
	}

	writeJSON(w, threadResponse{Job: *job, OtherUser: *other, Messages: msgs}, http.StatusOK)
}

type postMessageRequest struct {
	Content string `json:"content"`
}

type postMessageResponse struct {
	ID int64 `json:"id"`
}

// PostMessage appends to the conversation; new messages always start
// unread.
func (h *MessagesHandler) PostMessage(w http.ResponseWriter, r *http.Request) {
	p, job, other, ok := h.conversationParties(w, r)
	if !ok {
		return
	}

	var req postMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Content) == "" {
		http.Error(w, "content is required", http.StatusBadRequest)
		return
	}

	msg := &models.Message{
		JobID:      job.ID,
		SenderID:   p.UserID,
		ReceiverID: other.ID,
		Content:    req.Content,
	}
	id, err := h.messageRepo.CreateMessage(r.Context(), msg)
	if err != nil {
		http.Error(w, "failed to store message", http.StatusInternalServerError)
		return
	}

	writeJSON(w, postMessageResponse{ID: id}, http.StatusCreated)
}

// ClearConversation deletes the pair's messages on the job in both
// directions. Irreversible, no soft-delete.
func (h *MessagesHandler) ClearConversation(w http.ResponseWriter, r *http.Request) {
	p, job, other, ok := h.conversationParties(w, r)
	if !ok {
		return
	}

	if err := h.messageRepo.ClearThread(r.Context(), job.ID, p.UserID, other.ID); err != nil {
		http.Error(w, "failed to clear conversation", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// MyConversations lists one entry per (job, counterpart) pair the caller
// has messages with, newest activity first.
func (h *MessagesHandler) MyConversations(w http.ResponseWriter, r *http.Request) {
	p, ok := requirePrincipal(w, r)
	if !ok {
		return
	}

	convos, err := h.messageRepo.ListConversations(r.Context(), p.UserID)
	if err != nil {
		http.Error(w, "failed to list conversations", http.StatusInternalServerError)
		return
	}
	if convos == nil {
		convos = []models.ConversationSummary{}
	}

	writeJSON(w, convos, http.StatusOK)
}

// UnreadCount serves the site-wide unread badge.
func (h *MessagesHandler) UnreadCount(w http.ResponseWriter, r *http.Request) {
	p, ok := requirePrincipal(w, r)
	if !ok {
		return
	}

	n, err := h.messageRepo.CountUnread(r.Context(), p.UserID)
	if err != nil {
		http.Error(w, "failed to count unread messages", http.StatusInternalServerError)
		return
	}

	writeJSON(w, map[string]int64{"unread_count": n}, http.StatusOK)
}

// conversationParties resolves {jobID} and {userID} and enforces the
// conversation predicate: the caller must be the job owner or hold an
// accepted application on the job.
func (h *MessagesHandler) conversationParties(w http.ResponseWriter, r *http.Request) (principal, *models.Job, *models.User, bool) {
	p, ok := requirePrincipal(w, r)
	if !ok {
		return principal{}, nil, nil, false
	}

	vars := mux.Vars(r)
	jobID, err := strconv.ParseInt(vars["jobID"], 10, 64)
	if err != nil || jobID <= 0 {
		http.Error(w, "invalid job id", http.StatusBadRequest)
		return principal{}, nil, nil, false
	}
	otherID, err := strconv.ParseInt(vars["userID"], 10, 64)
	if err != nil || otherID <= 0 {
		http.Error(w, "invalid user id", http.StatusBadRequest)
		return principal{}, nil, nil, false
	}

	job, err := h.jobRepo.GetJobByID(r.Context(), jobID)
	if err != nil {
		http.Error(w, "failed to load job", http.StatusInternalServerError)
		return principal{}, nil, nil, false
	}
	if job == nil {
		http.Error(w, "job not found", http.StatusNotFound)
		return principal{}, nil, nil, false
	}

	other, err := h.userRepo.GetUserByID(r.Context(), otherID)
	if err != nil {
		http.Error(w, "failed to load user", http.StatusInternalServerError)
		return principal{}, nil, nil, false
	}
	if other == nil {
		http.Error(w, "user not found", http.StatusNotFound)
		return principal{}, nil, nil, false
	}

	authorized := job.OwnerID == p.UserID
	if !authorized {
		accepted, err := h.appRepo.HasAcceptedApplication(r.Context(), job.ID, p.UserID)
		if err != nil {
			http.Error(w, "failed to check authorization", http.StatusInternalServerError)
			return principal{}, nil, nil, false
		}
		authorized = accepted
	}
	if !authorized {
		http.Error(w, "Not authorized for this conversation", http.StatusForbidden)
		return principal{}, nil, nil, false
	}

	return p, job, other, true
}
