package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"equishare/internal/service"
)

// GroupHandler handles group-related HTTP requests
type GroupHandler struct {
	groupService *service.GroupService
}

// NewGroupHandler creates a new group handler
func NewGroupHandler(groupService *service.GroupService) *GroupHandler {
	return &GroupHandler{groupService: groupService}
}

type createGroupRequest struct {
	Name string `json:"name"`
}

// CreateGroup handles POST /api/groups
func (h *GroupHandler) CreateGroup(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	if user == nil {
		respondWithError(w, http.StatusUnauthorized, ErrUnauthorized, "", nil)
		return
	}

	var req createGroupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, ErrInvalidRequestBody, "", nil)
		return
	}

	group, err := h.groupService.CreateGroup(req.Name, user.ID)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, toGroupResponse(group))
}

// ListGroups handles GET /api/groups
func (h *GroupHandler) ListGroups(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	if user == nil {
		respondWithError(w, http.StatusUnauthorized, ErrUnauthorized, "", nil)
		return
	}

	groups, err := h.groupService.GetUserGroups(user.ID)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	responses := make([]groupResponse, 0, len(groups))
	for i := range groups {
		responses = append(responses, toGroupResponse(&groups[i]))
	}

	respondWithJSON(w, http.StatusOK, responses)
}

// GetGroup handles GET /api/groups/{id}
func (h *GroupHandler) GetGroup(w http.ResponseWriter, r *http.Request) {
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

	detail, err := h.groupService.GetGroupDetail(groupID, user.ID)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	members := make([]memberResponse, 0, len(detail.Members))
	for i, member := range detail.Members {
		members = append(members, memberResponse{
			UserID:   member.UserID,
			Name:     detail.Users[i].Name,
			Email:    detail.Users[i].Email,
			Role:     member.Role,
			JoinedAt: member.JoinedAt,
		})
	}

	respondWithJSON(w, http.StatusOK, groupDetailResponse{
		Group:   toGroupResponse(&detail.Group),
		Members: members,
	})
}

// LeaveGroup handles POST /api/groups/{id}/leave
func (h *GroupHandler) LeaveGroup(w http.ResponseWriter, r *http.Request) {
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

	if err := h.groupService.LeaveGroup(groupID, user.ID); err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusNoContent, nil)
}
