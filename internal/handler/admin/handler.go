package admin

import (
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	chatservice "github.com/driftlabs/relaychat/internal/service/chat"
	"github.com/driftlabs/relaychat/pkg/utils"
)

// Handler exposes the moderation surface and the status endpoint.
type Handler struct {
	svc      *chatservice.Service
	adminKey string
}

// New creates the admin handler. An empty adminKey refuses every
// moderation request.
func New(svc *chatservice.Service, adminKey string) *Handler {
	return &Handler{svc: svc, adminKey: adminKey}
}

// RegisterRoutes mounts status and moderation routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/status", h.handleStatus)
	r.Get("/chat/kick", h.handleKick)
	r.Get("/chat/restore", h.handleRestore)
}

type actionResponse struct {
	Message string `json:"message,omitempty"`
	Success bool   `json:"success"`
}

// authorized compares the supplied key against the configured secret. Any
// mismatch is "not authorized"; callers learn nothing about why.
func (h *Handler) authorized(key string) bool {
	return h.adminKey != "" && key == h.adminKey
}

func (h *Handler) handleStatus(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusOK, map[string]int{
		"clients": h.svc.ConnectedCount(),
	})
}

func (h *Handler) handleKick(w http.ResponseWriter, r *http.Request) {
	if !h.authorized(r.URL.Query().Get("adminKey")) {
		log.Printf("[admin] invalid admin key")
		utils.RespondJSON(w, http.StatusOK, actionResponse{Message: "Invalid admin key", Success: false})
		return
	}

	id := r.URL.Query().Get("id")
	name := r.URL.Query().Get("name")
	if id == "" && name == "" {
		log.Printf("[admin] kick without user specified")
		utils.RespondJSON(w, http.StatusOK, actionResponse{Message: "No user specified", Success: false})
		return
	}

	log.Printf("[admin] kicking user %q with id %q", name, id)
	if !h.svc.Kick(id, name) {
		utils.RespondJSON(w, http.StatusOK, actionResponse{Message: "User not found", Success: false})
		return
	}

	utils.RespondJSON(w, http.StatusOK, actionResponse{Success: true})
}

func (h *Handler) handleRestore(w http.ResponseWriter, r *http.Request) {
	if !h.authorized(r.URL.Query().Get("adminKey")) {
		log.Printf("[admin] invalid admin key")
		utils.RespondJSON(w, http.StatusOK, actionResponse{Message: "Invalid admin key", Success: false})
		return
	}

	ip := r.URL.Query().Get("ip")
	if !h.svc.Restore(ip) {
		utils.RespondJSON(w, http.StatusOK, actionResponse{Message: "IP not banned", Success: false})
		return
	}

	utils.RespondJSON(w, http.StatusOK, actionResponse{Success: true})
}
