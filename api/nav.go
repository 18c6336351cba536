package api

import (
	"net/http"

	"github.com/opengig/marketplace/pkg/models"
	"github.com/opengig/marketplace/pkg/repository"
	"github.com/opengig/marketplace/pkg/workflow"
)

type MeHandler struct {
	userRepo    repository.UserRepo
	profileRepo repository.ProfileRepo
	messageRepo repository.MessageRepo
}

func NewMeHandler(ur repository.UserRepo, pr repository.ProfileRepo, mr repository.MessageRepo) *MeHandler {
	return &MeHandler{userRepo: ur, profileRepo: pr, messageRepo: mr}
}

type NavLink struct {
	Name string `json:"name"`
	Path string `json:"path"`
}

// NavLinksFor returns the navigation links appropriate for the given role.
// An empty role (no profile) gets no role links, just signout.
func NavLinksFor(role workflow.Role) []NavLink {
	var links []NavLink
	switch role {
	case workflow.RoleClient:
		links = []NavLink{
			{Name: "Home", Path: "/"},
			{Name: "Post Job", Path: "/v1/jobs"},
			{Name: "My Jobs", Path: "/v1/my-jobs"},
			{Name: "Messages", Path: "/v1/my-conversations"},
		}
	case workflow.RoleFreelancer:
		links = []NavLink{
			{Name: "Home", Path: "/"},
			{Name: "Available Jobs", Path: "/v1/available-jobs"},
			{Name: "My Applications", Path: "/v1/my-applications"},
			{Name: "Messages", Path: "/v1/my-conversations"},
		}
	}

	return append(links, NavLink{Name: "Sign Out", Path: "/v1/auth/signout"})
}

type meResponse struct {
	User        models.User   `json:"user"`
	Role        workflow.Role `json:"role,omitempty"`
	UnreadCount int64         `json:"unread_count"`
	NavLinks    []NavLink     `json:"nav_links"`
}

// Me returns the caller's identity, role, unread badge count and nav links.
func (h *MeHandler) Me(w http.ResponseWriter, r *http.Request) {
	p, ok := requirePrincipal(w, r)
	if !ok {
		return
	}

	user, err := h.userRepo.GetUserByID(r.Context(), p.UserID)
	if err != nil {
		http.Error(w, "failed to load user", http.StatusInternalServerError)
		return
	}
	if user == nil {
		http.Error(w, "user not found", http.StatusNotFound)
		return
	}

	// role from storage, not the token: the profile is the source of truth
	var role workflow.Role
	if prof, err := h.profileRepo.GetProfileByUserID(r.Context(), p.UserID); err == nil && prof != nil {
		role = prof.Role
	}

	unread, err := h.messageRepo.CountUnread(r.Context(), p.UserID)
	if err != nil {
		http.Error(w, "failed to count unread messages", http.StatusInternalServerError)
		return
	}

	writeJSON(w, meResponse{User: *user, Role: role, UnreadCount: unread, NavLinks: NavLinksFor(role)}, http.StatusOK)
}
