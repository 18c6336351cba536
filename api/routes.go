package api

import (
	"github.com/gorilla/mux"

	"github.com/opengig/marketplace/internal/config"
	"github.com/opengig/marketplace/internal/db"
	"github.com/opengig/marketplace/internal/repository/sqlite"
)

func SetupRoutes(cfg *config.Config, version, buildTime string, db *db.DB) *mux.Router {
	r := mux.NewRouter()

	// Middleware chain
	r.Use(LoggingMiddleware)
	r.Use(CORSMiddleware)
	r.Use(RecoveryMiddleware)

	// Repository
	repo := sqlite.New(db)

	// Create handlers
	systemHandler := &SystemHandler{}
	authHandler := NewAuthHandler(repo, repo, cfg.JWTSecret, cfg.TokenDuration)
	jobsHandler := NewJobsHandler(repo, repo)
	applicationsHandler := NewApplicationsHandler(repo, repo)
	messagesHandler := NewMessagesHandler(repo, repo, repo, repo)
	meHandler := NewMeHandler(repo, repo, repo)

	// Open endpoints
	r.HandleFunc("/", systemHandler.HomeHandler).Methods("GET")
	r.HandleFunc("/version", systemHandler.VersionHandler(version, buildTime)).Methods("GET")
	r.HandleFunc("/health", systemHandler.HealthHandler).Methods("GET")
	r.HandleFunc("/v1/auth/signup/client", authHandler.SignupClient).Methods("POST")
	r.HandleFunc("/v1/auth/signup/freelancer", authHandler.SignupFreelancer).Methods("POST")
	r.HandleFunc("/v1/auth/signin", authHandler.Signin).Methods("POST")

	// API v1 Protected routes
	apiV1 := r.PathPrefix("/v1").Subrouter()
	apiV1.Use(JWTAuthMiddlewareWithSecret(cfg.JWTSecret))

	// Auth endpoints
	apiV1.HandleFunc("/auth/signout", authHandler.Signout).Methods("POST")
	apiV1.HandleFunc("/me", meHandler.Me).Methods("GET")

	// Job endpoints
	apiV1.HandleFunc("/jobs", jobsHandler.CreateJob).Methods("POST")
	apiV1.HandleFunc("/available-jobs", jobsHandler.AvailableJobs).Methods("GET")
	apiV1.HandleFunc("/my-jobs", jobsHandler.MyJobs).Methods("GET")
	apiV1.HandleFunc("/my-jobs/{jobID:[0-9]+}", jobsHandler.JobApplications).Methods("GET")
	apiV1.HandleFunc("/jobs/{jobID:[0-9]+}/complete", jobsHandler.CompleteJob).Methods("POST")
	// alias path used by the my-jobs dashboard
	apiV1.HandleFunc("/my-jobs/{jobID:[0-9]+}/complete", jobsHandler.CompleteJob).Methods("POST")

	// Application endpoints
	apiV1.HandleFunc("/jobs/{jobID:[0-9]+}/apply", applicationsHandler.Apply).Methods("POST")
	apiV1.HandleFunc("/my-applications", applicationsHandler.MyApplications).Methods("GET")
	apiV1.HandleFunc("/applications/{appID:[0-9]+}/accept", applicationsHandler.Accept).Methods("POST")
	apiV1.HandleFunc("/applications/{appID:[0-9]+}/reject", applicationsHandler.Reject).Methods("POST")
	apiV1.HandleFunc("/applications/{appID:[0-9]+}/delete", applicationsHandler.Delete).Methods("POST")

	// Messaging endpoints
	apiV1.HandleFunc("/messages/{jobID:[0-9]+}/{userID:[0-9]+}", messagesHandler.Thread).Methods("GET")
	apiV1.HandleFunc("/messages/{jobID:[0-9]+}/{userID:[0-9]+}", messagesHandler.PostMessage).Methods("POST")
	apiV1.HandleFunc("/messages/{jobID:[0-9]+}/{userID:[0-9]+}/clear", messagesHandler.ClearConversation).Methods("POST")
	apiV1.HandleFunc("/my-conversations", messagesHandler.MyConversations).Methods("GET")
	apiV1.HandleFunc("/messages/unread-count", messagesHandler.UnreadCount).Methods("GET")

	return r
}
