package handlers

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"time"

	"equishare/internal/service"
)

// InviteHandler handles invite-related HTTP requests
type InviteHandler struct {
	inviteService *service.InviteService
	groupService  *service.GroupService
	emailService  *service.EmailService
}

// NewInviteHandler creates a new invite handler
func NewInviteHandler(inviteService *service.InviteService, groupService *service.GroupService, emailService *service.EmailService) *InviteHandler {
	return &InviteHandler{
		inviteService: inviteService,
		groupService:  groupService,
		emailService:  emailService,
	}
}

type createInviteRequest struct {
	MaxUses     int    `json:"maxUses"`
	NotifyEmail string `json:"notifyEmail,omitempty"`
}

// CreateInvite handles POST /api/groups/{id}/invites
func (h *InviteHandler) CreateInvite(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	if user == nil {
		respondWithError(w, http.StatusUnauthorized, ErrUnauthorized, "", nil)
		return
	}

	groupID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid group ID", "", nil)
		return
	}

	var req createInviteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, ErrInvalidRequestBody, "", nil)
		return
	}

	created, err := h.inviteService.CreateInvite(groupID, user.ID, req.MaxUses)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	// Invite creation succeeded; a failed notification email is logged, not surfaced
	if req.NotifyEmail != "" {
		group, gErr := h.groupService.GetGroup(groupID)
		groupName := ""
		if gErr == nil {
			groupName = group.Name
		}
		if mErr := h.emailService.SendInviteEmail(r.Context(), req.NotifyEmail, user.Name, groupName,
			created.InviteLink, created.Invite.ExpiresAt, created.Invite.MaxUses); mErr != nil {
			log.Printf("Failed to send invite email to %s: %v", req.NotifyEmail, mErr)
		}
	}

	respondWithJSON(w, http.StatusCreated, createdInviteResponse{
		Invite:     toInviteResponse(created.Invite, time.Now()),
		InviteLink: created.InviteLink,
	})
}

// ListGroupInvites handles GET /api/groups/{id}/invites
func (h *InviteHandler) ListGroupInvites(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	if user == nil {
		respondWithError(w, http.StatusUnauthorized, ErrUnauthorized, "", nil)
		return
	}

	groupID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid group ID", "", nil)
		return
	}

	invites, err := h.inviteService.GetGroupInvites(groupID, user.ID)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	now := time.Now()
	responses := make([]inviteResponse, 0, len(invites))
	for i := range invites {
		responses = append(responses, toInviteResponse(&invites[i], now))
	}

	respondWithJSON(w, http.StatusOK, responses)
}

// GetInvite handles GET /api/invites/{token}. Public: the invite landing
// page shows group and inviter details before the visitor signs in. Never
// mutates invite state.
func (h *InviteHandler) GetInvite(w http.ResponseWriter, r *http.Request) {
	token := r.PathValue("token")
	if token == "" {
		respondWithError(w, http.StatusBadRequest, "Missing invite token", "", nil)
		return
	}

	invite, err := h.inviteService.GetInvite(token)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, toInviteResponse(invite, time.Now()))
}

// AcceptInvite handles POST /api/invites/{token}/accept
func (h *InviteHandler) AcceptInvite(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	if user == nil {
		respondWithError(w, http.StatusUnauthorized, ErrUnauthorized, "", nil)
		return
	}

	token := r.PathValue("token")
	if token == "" {
		respondWithError(w, http.StatusBadRequest, "Missing invite token", "", nil)
		return
	}

	result, err := h.inviteService.Redeem(token, user.ID)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, toRedeemResponse(result))
}
