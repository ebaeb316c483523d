package group

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/tbakken/usergroups/pkg/middleware"
	"github.com/tbakken/usergroups/pkg/response"
	"github.com/tbakken/usergroups/pkg/validate"
)

// Handler handles HTTP requests for group operations
type Handler struct {
	service *Service
}

// NewHandler creates a new group handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Routes returns the router for group endpoints
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	// Read endpoints; privacy policies decide per group what anonymous
	// callers get to see
	r.Get("/", h.List)
	r.Get("/admin-counts", h.AdminCounts)
	r.Get("/{id}", h.GetByID)
	r.Get("/{id}/members", h.GetMembers)
	r.Get("/{id}/admins", h.GetAdmins)

	// Everything below acts on behalf of the caller
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireUser)

		r.Post("/", h.Create)
		r.Get("/invitations", h.Invitations)
		r.Get("/requests", h.Requests)
		r.Put("/{id}", h.Update)
		r.Delete("/{id}", h.Delete)

		// Membership workflow
		r.Delete("/{id}/members/{userId}", h.RemoveMember)
		r.Post("/{id}/members/{userId}/accept", h.Accept)
		r.Post("/{id}/members/{userId}/reject", h.Reject)
		r.Post("/{id}/subscribe", h.Subscribe)
		r.Post("/{id}/invite", h.Invite)
		r.Post("/{id}/invite-emails", h.InviteByEmails)

		// Admin management
		r.Post("/{id}/admins", h.AddAdmin)
		r.Delete("/{id}/admins/{adminType}/{adminId}", h.RemoveAdmin)
	})

	return r
}

func (h *Handler) writeError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, ErrGroupNotFound),
		errors.Is(err, ErrMembershipNotFound),
		errors.Is(err, ErrAdminNotFound),
		errors.Is(err, ErrUserNotFound):
		response.NotFound(w, err.Error())
	case errors.Is(err, ErrGroupExists),
		errors.Is(err, ErrMembershipExists),
		errors.Is(err, ErrAdminExists):
		response.Conflict(w, err.Error())
	case errors.Is(err, ErrNameRequired),
		errors.Is(err, ErrInvalidPolicy),
		errors.Is(err, ErrInvalidState),
		errors.Is(err, ErrInvalidAdminType):
		response.BadRequest(w, err.Error())
	case errors.Is(err, ErrSubscriptionClosed):
		response.Forbidden(w, err.Error())
	default:
		response.InternalError(w, fallback)
	}
}

func groupIDParam(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}

// Create handles POST /groups
// @Summary      Create a new group
// @Description  Create a new group; the caller becomes its admin unless an explicit admins list is given
// @Tags         groups
// @Accept       json
// @Produce      json
// @Param        request body CreateGroupRequest true "Group creation request"
// @Success      201 {object} response.APIResponse{data=GroupResponse}
// @Failure      400 {object} response.APIResponse
// @Failure      409 {object} response.APIResponse
// @Router       /groups [post]
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	callerID, _ := middleware.GetUserID(r.Context())

	var req CreateGroupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		response.BadRequest(w, err.Error())
		return
	}

	if len(req.Admins) == 0 {
		req.Admins = []AdminRef{{Type: AdminTypeUser, ID: callerID}}
	}

	group, err := h.service.Create(r.Context(), &req)
	if err != nil {
		h.writeError(w, err, "Failed to create group")
		return
	}

	response.JSON(w, http.StatusCreated, group.ToResponse())
}

// List handles GET /groups
// @Summary      List or search groups
// @Description  Without q, lists the caller's groups; with q, searches all groups by name
// @Tags         groups
// @Produce      json
// @Param        q query string false "Name search string"
// @Param        with_pending query bool false "Include pending memberships"
// @Param        page query int false "Page number" default(1)
// @Param        per_page query int false "Items per page" default(20)
// @Success      200 {object} response.APIResponse{data=[]GroupResponse}
// @Router       /groups [get]
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	perPage, _ := strconv.Atoi(r.URL.Query().Get("per_page"))
	page, perPage = normalizePaging(page, perPage)

	var (
		groups []*Group
		total  int
		err    error
	)
	if q := r.URL.Query().Get("q"); q != "" {
		groups, total, err = h.service.Search(r.Context(), q, page, perPage)
	} else {
		callerID, ok := middleware.GetUserID(r.Context())
		if !ok {
			response.Unauthorized(w, "Authentication required")
			return
		}
		withPending := r.URL.Query().Get("with_pending") == "true"
		groups, total, err = h.service.ListByUser(r.Context(), callerID, withPending, page, perPage)
	}
	if err != nil {
		response.InternalError(w, "Failed to list groups")
		return
	}

	groupResponses := make([]*GroupResponse, len(groups))
	for i, g := range groups {
		groupResponses[i] = g.ToResponse()
	}

	response.JSONWithMeta(w, http.StatusOK, groupResponses, &response.Meta{
		Page:       page,
		PerPage:    perPage,
		Total:      total,
		TotalPages: (total + perPage - 1) / perPage,
	})
}

// GetByID handles GET /groups/{id}
// @Summary      Get group by ID
// @Description  Get a group; members are included when the privacy policy allows the caller to see them
// @Tags         groups
// @Produce      json
// @Param        id path int true "Group ID"
// @Success      200 {object} response.APIResponse{data=GroupResponse}
// @Failure      404 {object} response.APIResponse
// @Router       /groups/{id} [get]
func (h *Handler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, err := groupIDParam(r)
	if err != nil {
		response.BadRequest(w, "Invalid group ID")
		return
	}

	group, err := h.service.GetByID(r.Context(), id)
	if err != nil {
		h.writeError(w, err, "Failed to get group")
		return
	}

	resp := group.ToResponse()

	callerID, _ := middleware.GetUserID(r.Context())
	canSee, err := h.service.CanSeeMembers(r.Context(), group, callerID)
	if err != nil {
		response.InternalError(w, "Failed to get group")
		return
	}
	if canSee {
		members, _, err := h.service.GetMembers(r.Context(), id, nil, 1, 100)
		if err != nil {
			response.InternalError(w, "Failed to get group")
			return
		}
		resp.Members = make([]*MembershipResponse, len(members))
		for i, m := range members {
			resp.Members[i] = m.ToResponse()
		}
	}

	response.JSON(w, http.StatusOK, resp)
}

// Update handles PUT /groups/{id}
// @Summary      Update a group
// @Description  Partially update group fields; only group admins may edit, and managed groups are immutable
// @Tags         groups
// @Accept       json
// @Produce      json
// @Param        id path int true "Group ID"
// @Param        request body UpdateGroupRequest true "Group update request"
// @Success      200 {object} response.APIResponse{data=GroupResponse}
// @Failure      403 {object} response.APIResponse
// @Failure      404 {object} response.APIResponse
// @Failure      409 {object} response.APIResponse
// @Router       /groups/{id} [put]
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	callerID, _ := middleware.GetUserID(r.Context())

	id, err := groupIDParam(r)
	if err != nil {
		response.BadRequest(w, "Invalid group ID")
		return
	}

	group, err := h.service.GetByID(r.Context(), id)
	if err != nil {
		h.writeError(w, err, "Failed to update group")
		return
	}

	canEdit, err := h.service.CanEdit(r.Context(), group, callerID)
	if err != nil {
		response.InternalError(w, "Failed to update group")
		return
	}
	if !canEdit {
		response.Forbidden(w, "Not allowed to edit this group")
		return
	}

	var req UpdateGroupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		response.BadRequest(w, err.Error())
		return
	}

	updated, err := h.service.Update(r.Context(), id, &req)
	if err != nil {
		h.writeError(w, err, "Failed to update group")
		return
	}

	response.JSON(w, http.StatusOK, updated.ToResponse())
}

// Delete handles DELETE /groups/{id}
// @Summary      Delete a group
// @Description  Delete a group together with its memberships and admin links
// @Tags         groups
// @Produce      json
// @Param        id path int true "Group ID"
// @Success      200 {object} response.APIResponse
// @Failure      403 {object} response.APIResponse
// @Failure      404 {object} response.APIResponse
// @Router       /groups/{id} [delete]
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	callerID, _ := middleware.GetUserID(r.Context())

	id, err := groupIDParam(r)
	if err != nil {
		response.BadRequest(w, "Invalid group ID")
		return
	}

	group, err := h.service.GetByID(r.Context(), id)
	if err != nil {
		h.writeError(w, err, "Failed to delete group")
		return
	}

	canEdit, err := h.service.CanEdit(r.Context(), group, callerID)
	if err != nil {
		response.InternalError(w, "Failed to delete group")
		return
	}
	if !canEdit {
		response.Forbidden(w, "Not allowed to delete this group")
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		h.writeError(w, err, "Failed to delete group")
		return
	}

	response.JSON(w, http.StatusOK, map[string]string{"message": "Group deleted"})
}

// GetMembers handles GET /groups/{id}/members
// @Summary      List group members
// @Description  List memberships of a group, optionally filtered by state codes
// @Tags         groups
// @Produce      json
// @Param        id path int true "Group ID"
// @Param        state query string false "Comma-separated state codes (A,U,M)"
// @Param        page query int false "Page number" default(1)
// @Param        per_page query int false "Items per page" default(20)
// @Success      200 {object} response.APIResponse{data=[]MembershipResponse}
// @Failure      403 {object} response.APIResponse
// @Failure      404 {object} response.APIResponse
// @Router       /groups/{id}/members [get]
func (h *Handler) GetMembers(w http.ResponseWriter, r *http.Request) {
	id, err := groupIDParam(r)
	if err != nil {
		response.BadRequest(w, "Invalid group ID")
		return
	}

	group, err := h.service.GetByID(r.Context(), id)
	if err != nil {
		h.writeError(w, err, "Failed to list members")
		return
	}

	callerID, _ := middleware.GetUserID(r.Context())
	canSee, err := h.service.CanSeeMembers(r.Context(), group, callerID)
	if err != nil {
		response.InternalError(w, "Failed to list members")
		return
	}
	if !canSee {
		response.Forbidden(w, "Not allowed to view members of this group")
		return
	}

	var states []MembershipState
	if raw := r.URL.Query().Get("state"); raw != "" {
		for _, code := range strings.Split(raw, ",") {
			states = append(states, MembershipState(code))
		}
	}

	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	perPage, _ := strconv.Atoi(r.URL.Query().Get("per_page"))
	page, perPage = normalizePaging(page, perPage)

	members, total, err := h.service.GetMembers(r.Context(), id, states, page, perPage)
	if err != nil {
		h.writeError(w, err, "Failed to list members")
		return
	}

	memberResponses := make([]*MembershipResponse, len(members))
	for i, m := range members {
		memberResponses[i] = m.ToResponse()
	}

	response.JSONWithMeta(w, http.StatusOK, memberResponses, &response.Meta{
		Page:       page,
		PerPage:    perPage,
		Total:      total,
		TotalPages: (total + perPage - 1) / perPage,
	})
}

// RemoveMember handles DELETE /groups/{id}/members/{userId}
// @Summary      Remove a member
// @Description  Remove a membership regardless of state; admins may remove anyone, members may leave
// @Tags         groups
// @Produce      json
// @Param        id path int true "Group ID"
// @Param        userId path int true "User ID"
// @Success      200 {object} response.APIResponse
// @Failure      403 {object} response.APIResponse
// @Failure      404 {object} response.APIResponse
// @Router       /groups/{id}/members/{userId} [delete]
func (h *Handler) RemoveMember(w http.ResponseWriter, r *http.Request) {
	callerID, _ := middleware.GetUserID(r.Context())

	id, err := groupIDParam(r)
	if err != nil {
		response.BadRequest(w, "Invalid group ID")
		return
	}
	userID, err := strconv.ParseInt(chi.URLParam(r, "userId"), 10, 64)
	if err != nil {
		response.BadRequest(w, "Invalid user ID")
		return
	}

	group, err := h.service.GetByID(r.Context(), id)
	if err != nil {
		h.writeError(w, err, "Failed to remove member")
		return
	}

	allowed := false
	if callerID == userID {
		allowed, err = h.service.CanLeave(r.Context(), group, callerID)
	} else {
		allowed, err = h.service.IsAdmin(r.Context(), id, callerID)
	}
	if err != nil {
		response.InternalError(w, "Failed to remove member")
		return
	}
	if !allowed {
		response.Forbidden(w, "Not allowed to remove this member")
		return
	}

	if err := h.service.RemoveMember(r.Context(), id, userID); err != nil {
		h.writeError(w, err, "Failed to remove member")
		return
	}

	response.JSON(w, http.StatusOK, map[string]string{"message": "Member removed"})
}

// Subscribe handles POST /groups/{id}/subscribe
// @Summary      Subscribe to a group
// @Description  Self-service join; the group's subscription policy decides the resulting state
// @Tags         groups
// @Produce      json
// @Param        id path int true "Group ID"
// @Success      201 {object} response.APIResponse{data=MembershipResponse}
// @Failure      403 {object} response.APIResponse
// @Failure      404 {object} response.APIResponse
// @Failure      409 {object} response.APIResponse
// @Router       /groups/{id}/subscribe [post]
func (h *Handler) Subscribe(w http.ResponseWriter, r *http.Request) {
	callerID, _ := middleware.GetUserID(r.Context())

	id, err := groupIDParam(r)
	if err != nil {
		response.BadRequest(w, "Invalid group ID")
		return
	}

	m, err := h.service.Subscribe(r.Context(), id, callerID)
	if err != nil {
		h.writeError(w, err, "Failed to subscribe")
		return
	}

	response.JSON(w, http.StatusCreated, m.ToResponse())
}

// Invite handles POST /groups/{id}/invite
// @Summary      Invite a user
// @Description  Admin-initiated invitation creating a pending-user membership; non-admin callers get a forbidden response and no membership is created
// @Tags         groups
// @Accept       json
// @Produce      json
// @Param        id path int true "Group ID"
// @Param        request body InviteRequest true "Invitation request"
// @Success      201 {object} response.APIResponse{data=MembershipResponse}
// @Failure      403 {object} response.APIResponse
// @Failure      404 {object} response.APIResponse
// @Failure      409 {object} response.APIResponse
// @Router       /groups/{id}/invite [post]
func (h *Handler) Invite(w http.ResponseWriter, r *http.Request) {
	callerID, _ := middleware.GetUserID(r.Context())

	id, err := groupIDParam(r)
	if err != nil {
		response.BadRequest(w, "Invalid group ID")
		return
	}

	var req InviteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		response.BadRequest(w, err.Error())
		return
	}

	m, err := h.service.Invite(r.Context(), id, req.UserID, callerID)
	if err != nil {
		h.writeError(w, err, "Failed to invite user")
		return
	}
	if m == nil {
		response.Forbidden(w, "Only group admins can invite users")
		return
	}

	response.JSON(w, http.StatusCreated, m.ToResponse())
}

// InviteByEmails handles POST /groups/{id}/invite-emails
// @Summary      Invite users by email
// @Description  Invite a batch of users by email; unknown emails yield null entries
// @Tags         groups
// @Accept       json
// @Produce      json
// @Param        id path int true "Group ID"
// @Param        request body InviteByEmailsRequest true "Email invitation request"
// @Success      201 {object} response.APIResponse{data=[]MembershipResponse}
// @Failure      403 {object} response.APIResponse
// @Failure      404 {object} response.APIResponse
// @Router       /groups/{id}/invite-emails [post]
func (h *Handler) InviteByEmails(w http.ResponseWriter, r *http.Request) {
	callerID, _ := middleware.GetUserID(r.Context())

	id, err := groupIDParam(r)
	if err != nil {
		response.BadRequest(w, "Invalid group ID")
		return
	}

	var req InviteByEmailsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		response.BadRequest(w, err.Error())
		return
	}

	isAdmin, err := h.service.IsAdmin(r.Context(), id, callerID)
	if err != nil {
		response.InternalError(w, "Failed to invite users")
		return
	}
	if !isAdmin {
		response.Forbidden(w, "Only group admins can invite users")
		return
	}

	results, err := h.service.InviteByEmails(r.Context(), id, req.Emails, callerID)
	if err != nil {
		h.writeError(w, err, "Failed to invite users")
		return
	}

	memberResponses := make([]*MembershipResponse, len(results))
	for i, m := range results {
		if m != nil {
			memberResponses[i] = m.ToResponse()
		}
	}

	response.JSON(w, http.StatusCreated, memberResponses)
}

// Accept handles POST /groups/{id}/members/{userId}/accept
// @Summary      Accept a pending membership
// @Description  Transition a pending membership to active; invited users confirm their own invitation, admins approve join requests
// @Tags         groups
// @Produce      json
// @Param        id path int true "Group ID"
// @Param        userId path int true "User ID"
// @Success      200 {object} response.APIResponse{data=MembershipResponse}
// @Failure      403 {object} response.APIResponse
// @Failure      404 {object} response.APIResponse
// @Router       /groups/{id}/members/{userId}/accept [post]
func (h *Handler) Accept(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, true)
}

// Reject handles POST /groups/{id}/members/{userId}/reject
// @Summary      Reject a pending membership
// @Description  Delete a pending membership; invited users decline their own invitation, admins deny join requests
// @Tags         groups
// @Produce      json
// @Param        id path int true "Group ID"
// @Param        userId path int true "User ID"
// @Success      200 {object} response.APIResponse
// @Failure      403 {object} response.APIResponse
// @Failure      404 {object} response.APIResponse
// @Router       /groups/{id}/members/{userId}/reject [post]
func (h *Handler) Reject(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, false)
}

func (h *Handler) decide(w http.ResponseWriter, r *http.Request, accept bool) {
	callerID, _ := middleware.GetUserID(r.Context())

	id, err := groupIDParam(r)
	if err != nil {
		response.BadRequest(w, "Invalid group ID")
		return
	}
	userID, err := strconv.ParseInt(chi.URLParam(r, "userId"), 10, 64)
	if err != nil {
		response.BadRequest(w, "Invalid user ID")
		return
	}

	// Invited users decide for themselves; admins decide join requests.
	if callerID != userID {
		isAdmin, err := h.service.IsAdmin(r.Context(), id, callerID)
		if err != nil {
			response.InternalError(w, "Failed to update membership")
			return
		}
		if !isAdmin {
			response.Forbidden(w, "Not allowed to decide this membership")
			return
		}
	}

	if accept {
		m, err := h.service.Accept(r.Context(), id, userID)
		if err != nil {
			h.writeError(w, err, "Failed to accept membership")
			return
		}
		response.JSON(w, http.StatusOK, m.ToResponse())
		return
	}

	if err := h.service.Reject(r.Context(), id, userID); err != nil {
		h.writeError(w, err, "Failed to reject membership")
		return
	}
	response.JSON(w, http.StatusOK, map[string]string{"message": "Membership rejected"})
}

// Invitations handles GET /groups/invitations
// @Summary      List my invitations
// @Description  List the caller's memberships pending their confirmation
// @Tags         groups
// @Produce      json
// @Param        page query int false "Page number" default(1)
// @Param        per_page query int false "Items per page" default(20)
// @Success      200 {object} response.APIResponse{data=[]MembershipResponse}
// @Router       /groups/invitations [get]
func (h *Handler) Invitations(w http.ResponseWriter, r *http.Request) {
	h.listMemberships(w, r, h.service.Invitations, "Failed to list invitations")
}

// Requests handles GET /groups/requests
// @Summary      List pending join requests
// @Description  List memberships pending approval across the groups the caller administers
// @Tags         groups
// @Produce      json
// @Param        page query int false "Page number" default(1)
// @Param        per_page query int false "Items per page" default(20)
// @Success      200 {object} response.APIResponse{data=[]MembershipResponse}
// @Router       /groups/requests [get]
func (h *Handler) Requests(w http.ResponseWriter, r *http.Request) {
	h.listMemberships(w, r, h.service.Requests, "Failed to list requests")
}

func (h *Handler) listMemberships(
	w http.ResponseWriter,
	r *http.Request,
	list func(ctx context.Context, userID int64, page, perPage int) ([]*Membership, int, error),
	fallback string,
) {
	callerID, _ := middleware.GetUserID(r.Context())

	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	perPage, _ := strconv.Atoi(r.URL.Query().Get("per_page"))
	page, perPage = normalizePaging(page, perPage)

	members, total, err := list(r.Context(), callerID, page, perPage)
	if err != nil {
		response.InternalError(w, fallback)
		return
	}

	memberResponses := make([]*MembershipResponse, len(members))
	for i, m := range members {
		memberResponses[i] = m.ToResponse()
	}

	response.JSONWithMeta(w, http.StatusOK, memberResponses, &response.Meta{
		Page:       page,
		PerPage:    perPage,
		Total:      total,
		TotalPages: (total + perPage - 1) / perPage,
	})
}

// GetAdmins handles GET /groups/{id}/admins
// @Summary      List group admins
// @Description  List the admin links of a group
// @Tags         groups
// @Produce      json
// @Param        id path int true "Group ID"
// @Success      200 {object} response.APIResponse{data=[]GroupAdmin}
// @Failure      404 {object} response.APIResponse
// @Router       /groups/{id}/admins [get]
func (h *Handler) GetAdmins(w http.ResponseWriter, r *http.Request) {
	id, err := groupIDParam(r)
	if err != nil {
		response.BadRequest(w, "Invalid group ID")
		return
	}

	admins, err := h.service.GetAdmins(r.Context(), id)
	if err != nil {
		h.writeError(w, err, "Failed to list admins")
		return
	}

	response.JSON(w, http.StatusOK, admins)
}

// AddAdmin handles POST /groups/{id}/admins
// @Summary      Add a group admin
// @Description  Link a user or another group as admin; a duplicate link is rejected
// @Tags         groups
// @Accept       json
// @Produce      json
// @Param        id path int true "Group ID"
// @Param        request body AddAdminRequest true "Admin link request"
// @Success      201 {object} response.APIResponse{data=GroupAdmin}
// @Failure      403 {object} response.APIResponse
// @Failure      404 {object} response.APIResponse
// @Failure      409 {object} response.APIResponse
// @Router       /groups/{id}/admins [post]
func (h *Handler) AddAdmin(w http.ResponseWriter, r *http.Request) {
	callerID, _ := middleware.GetUserID(r.Context())

	id, err := groupIDParam(r)
	if err != nil {
		response.BadRequest(w, "Invalid group ID")
		return
	}

	isAdmin, err := h.service.IsAdmin(r.Context(), id, callerID)
	if err != nil {
		response.InternalError(w, "Failed to add admin")
		return
	}
	if !isAdmin {
		response.Forbidden(w, "Only group admins can add admins")
		return
	}

	var req AddAdminRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		response.BadRequest(w, err.Error())
		return
	}

	admin, err := h.service.AddAdmin(r.Context(), id, req.AdminType, req.AdminID)
	if err != nil {
		h.writeError(w, err, "Failed to add admin")
		return
	}

	response.JSON(w, http.StatusCreated, admin)
}

// RemoveAdmin handles DELETE /groups/{id}/admins/{adminType}/{adminId}
// @Summary      Remove a group admin
// @Description  Remove an admin link; removing a non-existent link is a not-found error
// @Tags         groups
// @Produce      json
// @Param        id path int true "Group ID"
// @Param        adminType path string true "Admin type (User or Group)"
// @Param        adminId path int true "Admin ID"
// @Success      200 {object} response.APIResponse
// @Failure      403 {object} response.APIResponse
// @Failure      404 {object} response.APIResponse
// @Router       /groups/{id}/admins/{adminType}/{adminId} [delete]
func (h *Handler) RemoveAdmin(w http.ResponseWriter, r *http.Request) {
	callerID, _ := middleware.GetUserID(r.Context())

	id, err := groupIDParam(r)
	if err != nil {
		response.BadRequest(w, "Invalid group ID")
		return
	}
	adminID, err := strconv.ParseInt(chi.URLParam(r, "adminId"), 10, 64)
	if err != nil {
		response.BadRequest(w, "Invalid admin ID")
		return
	}
	adminType := AdminType(chi.URLParam(r, "adminType"))

	isAdmin, err := h.service.IsAdmin(r.Context(), id, callerID)
	if err != nil {
		response.InternalError(w, "Failed to remove admin")
		return
	}
	if !isAdmin {
		response.Forbidden(w, "Only group admins can remove admins")
		return
	}

	if err := h.service.RemoveAdmin(r.Context(), id, adminType, adminID); err != nil {
		h.writeError(w, err, "Failed to remove admin")
		return
	}

	response.JSON(w, http.StatusOK, map[string]string{"message": "Admin removed"})
}

// AdminCounts handles GET /groups/admin-counts
// @Summary      Count admins per group
// @Description  Return the number of admin links per group, optionally restricted to a list of group IDs
// @Tags         groups
// @Produce      json
// @Param        ids query string false "Comma-separated group IDs"
// @Success      200 {object} response.APIResponse{data=map[string]int}
// @Router       /groups/admin-counts [get]
func (h *Handler) AdminCounts(w http.ResponseWriter, r *http.Request) {
	var ids []int64
	if raw := r.URL.Query().Get("ids"); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			id, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64)
			if err != nil {
				response.BadRequest(w, "Invalid group ID list")
				return
			}
			ids = append(ids, id)
		}
	}

	counts, err := h.service.AdminCounts(r.Context(), ids)
	if err != nil {
		response.InternalError(w, "Failed to count admins")
		return
	}

	response.JSON(w, http.StatusOK, counts)
}
