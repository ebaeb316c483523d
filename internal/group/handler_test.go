package group

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	mw "github.com/tbakken/usergroups/pkg/middleware"
	"github.com/tbakken/usergroups/pkg/response"
)

func newTestRouter(svc *Service) chi.Router {
	r := chi.NewRouter()
	r.Use(mw.Identity)
	r.Mount("/groups", NewHandler(svc).Routes())
	return r
}

func doRequest(t *testing.T, router chi.Router, method, path string, userID int64, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	if userID != 0 {
		req.Header.Set("X-User-ID", fmt.Sprintf("%d", userID))
	}

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) *response.APIResponse {
	t.Helper()
	var env response.APIResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&env))
	return &env
}

func TestHandlerCreate(t *testing.T) {
	svc, _, _ := newTestService()
	router := newTestRouter(svc)

	rec := doRequest(t, router, http.MethodPost, "/groups", 1, map[string]any{"name": "test"})
	require.Equal(t, http.StatusCreated, rec.Code)

	env := decodeEnvelope(t, rec)
	assert.True(t, env.Success)

	// the caller becomes the group's admin
	ctx := context.Background()
	g, err := svc.GetByName(ctx, "test")
	require.NoError(t, err)
	isAdmin, err := svc.IsAdmin(ctx, g.ID, 1)
	require.NoError(t, err)
	assert.True(t, isAdmin)
}

func TestHandlerRequiresCaller(t *testing.T) {
	svc, _, _ := newTestService()
	router := newTestRouter(svc)

	g := mustCreateGroup(t, svc, &CreateGroupRequest{Name: "test", SubscriptionPolicy: SubscriptionOpen})

	// anonymous requests never reach the caller-scoped handlers
	for _, tc := range []struct {
		method string
		path   string
	}{
		{http.MethodPost, "/groups"},
		{http.MethodGet, "/groups/invitations"},
		{http.MethodGet, "/groups/requests"},
		{http.MethodPut, fmt.Sprintf("/groups/%d", g.ID)},
		{http.MethodDelete, fmt.Sprintf("/groups/%d", g.ID)},
		{http.MethodPost, fmt.Sprintf("/groups/%d/subscribe", g.ID)},
		{http.MethodPost, fmt.Sprintf("/groups/%d/invite", g.ID)},
		{http.MethodPost, fmt.Sprintf("/groups/%d/admins", g.ID)},
	} {
		rec := doRequest(t, router, tc.method, tc.path, 0, nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, "%s %s", tc.method, tc.path)
	}

	// read endpoints stay reachable anonymously
	rec := doRequest(t, router, http.MethodGet, fmt.Sprintf("/groups/%d", g.ID), 0, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHandlerCreateInvalidBody(t *testing.T) {
	svc, _, _ := newTestService()
	router := newTestRouter(svc)

	rec := doRequest(t, router, http.MethodPost, "/groups", 1, map[string]any{"name": "x", "privacy_policy": "Z"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandlerCreateDuplicate(t *testing.T) {
	svc, _, _ := newTestService()
	router := newTestRouter(svc)

	rec := doRequest(t, router, http.MethodPost, "/groups", 1, map[string]any{"name": "test"})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doRequest(t, router, http.MethodPost, "/groups", 2, map[string]any{"name": "test"})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestHandlerGetMissing(t *testing.T) {
	svc, _, _ := newTestService()
	router := newTestRouter(svc)

	rec := doRequest(t, router, http.MethodGet, "/groups/42", 1, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doRequest(t, router, http.MethodGet, "/groups/abc", 1, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandlerSubscribeClosed(t *testing.T) {
	svc, _, _ := newTestService()
	router := newTestRouter(svc)

	g := mustCreateGroup(t, svc, &CreateGroupRequest{Name: "closed"})

	rec := doRequest(t, router, http.MethodPost, fmt.Sprintf("/groups/%d/subscribe", g.ID), 7, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestHandlerInviteByNonAdmin(t *testing.T) {
	svc, _, _ := newTestService()
	router := newTestRouter(svc)

	g := mustCreateGroup(t, svc, &CreateGroupRequest{
		Name:   "test",
		Admins: []AdminRef{{Type: AdminTypeUser, ID: 1}},
	})

	rec := doRequest(t, router, http.MethodPost, fmt.Sprintf("/groups/%d/invite", g.ID), 99, map[string]any{"user_id": 7})
	require.Equal(t, http.StatusForbidden, rec.Code)

	env := decodeEnvelope(t, rec)
	require.NotNil(t, env.Error)
	assert.Equal(t, "FORBIDDEN", env.Error.Code)
}

func TestHandlerUpdateByNonAdmin(t *testing.T) {
	svc, _, _ := newTestService()
	router := newTestRouter(svc)

	g := mustCreateGroup(t, svc, &CreateGroupRequest{
		Name:   "test",
		Admins: []AdminRef{{Type: AdminTypeUser, ID: 1}},
	})

	rec := doRequest(t, router, http.MethodPut, fmt.Sprintf("/groups/%d", g.ID), 99, map[string]any{"description": "nope"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = doRequest(t, router, http.MethodPut, fmt.Sprintf("/groups/%d", g.ID), 1, map[string]any{"description": "yes"})
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHandlerJoinRequestFlow(t *testing.T) {
	svc, _, _ := newTestService()
	router := newTestRouter(svc)

	g := mustCreateGroup(t, svc, &CreateGroupRequest{
		Name:               "test",
		SubscriptionPolicy: SubscriptionApproval,
		Admins:             []AdminRef{{Type: AdminTypeUser, ID: 1}},
	})

	rec := doRequest(t, router, http.MethodPost, fmt.Sprintf("/groups/%d/subscribe", g.ID), 7, nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	// another user cannot decide the request
	rec = doRequest(t, router, http.MethodPost, fmt.Sprintf("/groups/%d/members/7/accept", g.ID), 99, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// the admin approves it
	rec = doRequest(t, router, http.MethodPost, fmt.Sprintf("/groups/%d/members/7/accept", g.ID), 1, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	isMember, err := svc.IsMember(context.Background(), g.ID, 7, false)
	require.NoError(t, err)
	assert.True(t, isMember)
}

func TestHandlerRemoveMember(t *testing.T) {
	svc, _, _ := newTestService()
	router := newTestRouter(svc)

	g := mustCreateGroup(t, svc, &CreateGroupRequest{
		Name:               "test",
		SubscriptionPolicy: SubscriptionOpen,
		Admins:             []AdminRef{{Type: AdminTypeUser, ID: 1}},
	})

	rec := doRequest(t, router, http.MethodPost, fmt.Sprintf("/groups/%d/subscribe", g.ID), 7, nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	// strangers cannot remove members
	rec = doRequest(t, router, http.MethodDelete, fmt.Sprintf("/groups/%d/members/7", g.ID), 99, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// members can leave
	rec = doRequest(t, router, http.MethodDelete, fmt.Sprintf("/groups/%d/members/7", g.ID), 7, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHandlerAdminCounts(t *testing.T) {
	svc, _, _ := newTestService()
	router := newTestRouter(svc)

	g := mustCreateGroup(t, svc, &CreateGroupRequest{
		Name:   "test",
		Admins: []AdminRef{{Type: AdminTypeUser, ID: 1}, {Type: AdminTypeUser, ID: 2}},
	})

	rec := doRequest(t, router, http.MethodGet, fmt.Sprintf("/groups/admin-counts?ids=%d", g.ID), 1, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	env := decodeEnvelope(t, rec)
	counts, ok := env.Data.(map[string]any)
	require.True(t, ok)
	assert.EqualValues(t, 2, counts[fmt.Sprintf("%d", g.ID)])
}
