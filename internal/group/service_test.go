package group

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memStore is an in-memory Store used to exercise the service without a
// database. It mirrors the repository's conventions: lookups return
// (nil, nil) on missing rows and writes surface the sentinel errors.
type memStore struct {
	nextGroupID int64
	nextAdminID int64
	groups      map[int64]*Group
	memberships map[[2]int64]*Membership
	admins      []*GroupAdmin
}

func newMemStore() *memStore {
	return &memStore{
		groups:      make(map[int64]*Group),
		memberships: make(map[[2]int64]*Membership),
	}
}

func (s *memStore) CreateGroup(_ context.Context, g *Group, admins []AdminRef) (*Group, error) {
	for _, existing := range s.groups {
		if existing.Name == g.Name {
			return nil, ErrGroupExists
		}
	}
	seen := make(map[AdminRef]bool)
	for _, a := range admins {
		if seen[a] {
			return nil, ErrAdminExists
		}
		seen[a] = true
	}

	s.nextGroupID++
	now := time.Now().UTC()
	stored := *g
	stored.ID = s.nextGroupID
	stored.CreatedAt = now
	stored.ModifiedAt = now
	s.groups[stored.ID] = &stored
	for _, a := range admins {
		s.nextAdminID++
		s.admins = append(s.admins, &GroupAdmin{ID: s.nextAdminID, GroupID: stored.ID, AdminType: a.Type, AdminID: a.ID})
	}
	out := stored
	return &out, nil
}

func (s *memStore) GetGroup(_ context.Context, id int64) (*Group, error) {
	g, ok := s.groups[id]
	if !ok {
		return nil, nil
	}
	out := *g
	return &out, nil
}

func (s *memStore) GetGroupByName(_ context.Context, name string) (*Group, error) {
	for _, g := range s.groups {
		if g.Name == name {
			out := *g
			return &out, nil
		}
	}
	return nil, nil
}

func (s *memStore) SearchGroups(_ context.Context, q string, limit, offset int) ([]*Group, int, error) {
	var matched []*Group
	for _, g := range s.groups {
		if q == "" || contains(g.Name, q) {
			out := *g
			matched = append(matched, &out)
		}
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].ID < matched[j].ID })
	return paginate(matched, limit, offset), len(matched), nil
}

func (s *memStore) ListGroupsByUser(_ context.Context, userID int64, withPending bool, limit, offset int) ([]*Group, int, error) {
	seen := make(map[int64]bool)
	var matched []*Group
	add := func(groupID int64) {
		if seen[groupID] {
			return
		}
		if g, ok := s.groups[groupID]; ok {
			seen[groupID] = true
			out := *g
			matched = append(matched, &out)
		}
	}
	for key, m := range s.memberships {
		if key[1] == userID && (withPending || m.State == StateActive) {
			add(key[0])
		}
	}
	for _, a := range s.admins {
		if a.AdminType == AdminTypeUser && a.AdminID == userID {
			add(a.GroupID)
		}
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].ID < matched[j].ID })
	return paginate(matched, limit, offset), len(matched), nil
}

func (s *memStore) UpdateGroup(_ context.Context, id int64, upd *GroupUpdate) (*Group, error) {
	g, ok := s.groups[id]
	if !ok {
		return nil, nil
	}
	if upd.Name != nil {
		for _, other := range s.groups {
			if other.ID != id && other.Name == *upd.Name {
				return nil, ErrGroupExists
			}
		}
		g.Name = *upd.Name
	}
	if upd.Description != nil {
		g.Description = *upd.Description
	}
	if upd.PrivacyPolicy != nil {
		g.PrivacyPolicy = *upd.PrivacyPolicy
	}
	if upd.SubscriptionPolicy != nil {
		g.SubscriptionPolicy = *upd.SubscriptionPolicy
	}
	if upd.IsManaged != nil {
		g.IsManaged = *upd.IsManaged
	}
	g.ModifiedAt = time.Now().UTC()
	out := *g
	return &out, nil
}

func (s *memStore) DeleteGroup(_ context.Context, id int64) error {
	if _, ok := s.groups[id]; !ok {
		return ErrGroupNotFound
	}
	for key := range s.memberships {
		if key[0] == id {
			delete(s.memberships, key)
		}
	}
	kept := s.admins[:0]
	for _, a := range s.admins {
		ownLink := a.GroupID == id
		asAdmin := a.AdminType == AdminTypeGroup && a.AdminID == id
		if !ownLink && !asAdmin {
			kept = append(kept, a)
		}
	}
	s.admins = kept
	delete(s.groups, id)
	return nil
}

func (s *memStore) CreateMembership(_ context.Context, groupID, userID int64, state MembershipState) (*Membership, error) {
	key := [2]int64{groupID, userID}
	if _, ok := s.memberships[key]; ok {
		return nil, ErrMembershipExists
	}
	if _, ok := s.groups[groupID]; !ok {
		return nil, ErrGroupNotFound
	}
	now := time.Now().UTC()
	m := &Membership{GroupID: groupID, UserID: userID, State: state, CreatedAt: now, ModifiedAt: now}
	s.memberships[key] = m
	out := *m
	return &out, nil
}

func (s *memStore) GetMembership(_ context.Context, groupID, userID int64) (*Membership, error) {
	m, ok := s.memberships[[2]int64{groupID, userID}]
	if !ok {
		return nil, nil
	}
	out := *m
	return &out, nil
}

func (s *memStore) UpdateMembershipState(_ context.Context, groupID, userID int64, state MembershipState) (*Membership, error) {
	m, ok := s.memberships[[2]int64{groupID, userID}]
	if !ok {
		return nil, nil
	}
	m.State = state
	m.ModifiedAt = time.Now().UTC()
	out := *m
	return &out, nil
}

func (s *memStore) DeleteMembership(_ context.Context, groupID, userID int64) error {
	key := [2]int64{groupID, userID}
	if _, ok := s.memberships[key]; !ok {
		return ErrMembershipNotFound
	}
	delete(s.memberships, key)
	return nil
}

func (s *memStore) ListMemberships(_ context.Context, groupID int64, states []MembershipState, limit, offset int) ([]*Membership, int, error) {
	var matched []*Membership
	for key, m := range s.memberships {
		if key[0] != groupID {
			continue
		}
		if len(states) > 0 && !stateIn(m.State, states) {
			continue
		}
		out := *m
		matched = append(matched, &out)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].UserID < matched[j].UserID })
	return paginate(matched, limit, offset), len(matched), nil
}

func (s *memStore) CountMemberships(_ context.Context, groupID int64) (int, error) {
	count := 0
	for key := range s.memberships {
		if key[0] == groupID {
			count++
		}
	}
	return count, nil
}

func (s *memStore) ListInvitations(_ context.Context, userID int64, limit, offset int) ([]*Membership, int, error) {
	var matched []*Membership
	for key, m := range s.memberships {
		if key[1] == userID && m.State == StatePendingUser {
			out := *m
			matched = append(matched, &out)
		}
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].GroupID < matched[j].GroupID })
	return paginate(matched, limit, offset), len(matched), nil
}

func (s *memStore) ListAdminRequests(_ context.Context, adminUserID int64, limit, offset int) ([]*Membership, int, error) {
	administered := make(map[int64]bool)
	for _, a := range s.admins {
		switch a.AdminType {
		case AdminTypeUser:
			if a.AdminID == adminUserID {
				administered[a.GroupID] = true
			}
		case AdminTypeGroup:
			if m, ok := s.memberships[[2]int64{a.AdminID, adminUserID}]; ok && m.State == StateActive {
				administered[a.GroupID] = true
			}
		}
	}
	var matched []*Membership
	for key, m := range s.memberships {
		if administered[key[0]] && m.State == StatePendingAdmin {
			out := *m
			matched = append(matched, &out)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		if matched[i].GroupID != matched[j].GroupID {
			return matched[i].GroupID < matched[j].GroupID
		}
		return matched[i].UserID < matched[j].UserID
	})
	return paginate(matched, limit, offset), len(matched), nil
}

func (s *memStore) CreateAdmin(_ context.Context, groupID int64, adminType AdminType, adminID int64) (*GroupAdmin, error) {
	for _, a := range s.admins {
		if a.GroupID == groupID && a.AdminType == adminType && a.AdminID == adminID {
			return nil, ErrAdminExists
		}
	}
	if _, ok := s.groups[groupID]; !ok {
		return nil, ErrGroupNotFound
	}
	s.nextAdminID++
	a := &GroupAdmin{ID: s.nextAdminID, GroupID: groupID, AdminType: adminType, AdminID: adminID}
	s.admins = append(s.admins, a)
	out := *a
	return &out, nil
}

func (s *memStore) GetAdmin(_ context.Context, groupID int64, adminType AdminType, adminID int64) (*GroupAdmin, error) {
	for _, a := range s.admins {
		if a.GroupID == groupID && a.AdminType == adminType && a.AdminID == adminID {
			out := *a
			return &out, nil
		}
	}
	return nil, nil
}

func (s *memStore) DeleteAdmin(_ context.Context, groupID int64, adminType AdminType, adminID int64) error {
	for i, a := range s.admins {
		if a.GroupID == groupID && a.AdminType == adminType && a.AdminID == adminID {
			s.admins = append(s.admins[:i], s.admins[i+1:]...)
			return nil
		}
	}
	return ErrAdminNotFound
}

func (s *memStore) ListAdmins(_ context.Context, groupID int64) ([]*GroupAdmin, error) {
	var matched []*GroupAdmin
	for _, a := range s.admins {
		if a.GroupID == groupID {
			out := *a
			matched = append(matched, &out)
		}
	}
	return matched, nil
}

func (s *memStore) CountAdmins(_ context.Context, groupIDs []int64) (map[int64]int, error) {
	counts := make(map[int64]int)
	for _, a := range s.admins {
		if len(groupIDs) > 0 && !idIn(a.GroupID, groupIDs) {
			continue
		}
		counts[a.GroupID]++
	}
	return counts, nil
}

func contains(s, sub string) bool {
	for i := 0; i+len(sub) <= len(s); i++ {
		if s[i:i+len(sub)] == sub {
			return true
		}
	}
	return false
}

func stateIn(state MembershipState, states []MembershipState) bool {
	for _, st := range states {
		if st == state {
			return true
		}
	}
	return false
}

func idIn(id int64, ids []int64) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func paginate[T any](items []*T, limit, offset int) []*T {
	if offset >= len(items) {
		return nil
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}

// fakeNotifier records delivered events
type fakeNotifier struct {
	created  []int64
	invited  []int64
	approved []int64
	rejected []int64
}

func (f *fakeNotifier) GroupCreated(_ context.Context, recipientID int64, _ *Group) {
	f.created = append(f.created, recipientID)
}

func (f *fakeNotifier) MemberInvited(_ context.Context, recipientID int64, _ *Group) {
	f.invited = append(f.invited, recipientID)
}

func (f *fakeNotifier) RequestDecided(_ context.Context, recipientID int64, _ *Group, approved bool) {
	if approved {
		f.approved = append(f.approved, recipientID)
	} else {
		f.rejected = append(f.rejected, recipientID)
	}
}

// fakeDirectory resolves emails from a fixed map
type fakeDirectory map[string]int64

func (f fakeDirectory) LookupEmail(_ context.Context, email string) (int64, error) {
	return f[email], nil
}

func newTestService() (*Service, *memStore, *fakeNotifier) {
	store := newMemStore()
	notifier := &fakeNotifier{}
	svc := NewService(store, fakeDirectory{}, notifier, nil)
	return svc, store, notifier
}

func mustCreateGroup(t *testing.T, svc *Service, req *CreateGroupRequest) *Group {
	t.Helper()
	g, err := svc.Create(context.Background(), req)
	require.NoError(t, err)
	return g
}

func TestCreateDefaults(t *testing.T) {
	svc, _, notifier := newTestService()
	ctx := context.Background()

	g := mustCreateGroup(t, svc, &CreateGroupRequest{
		Name:   "test",
		Admins: []AdminRef{{Type: AdminTypeUser, ID: 1}},
	})

	assert.Equal(t, "test", g.Name)
	assert.Equal(t, PrivacyAdmins, g.PrivacyPolicy)
	assert.Equal(t, SubscriptionClosed, g.SubscriptionPolicy)
	assert.False(t, g.IsManaged)

	isAdmin, err := svc.IsAdmin(ctx, g.ID, 1)
	require.NoError(t, err)
	assert.True(t, isAdmin)
	assert.Equal(t, []int64{1}, notifier.created)
}

func TestCreateDuplicateName(t *testing.T) {
	svc, _, _ := newTestService()

	mustCreateGroup(t, svc, &CreateGroupRequest{Name: "test"})
	_, err := svc.Create(context.Background(), &CreateGroupRequest{Name: "test"})
	assert.ErrorIs(t, err, ErrGroupExists)
}

func TestCreateDuplicateAdminLeavesNothing(t *testing.T) {
	svc, store, notifier := newTestService()

	_, err := svc.Create(context.Background(), &CreateGroupRequest{
		Name:   "test",
		Admins: []AdminRef{{Type: AdminTypeUser, ID: 1}, {Type: AdminTypeUser, ID: 1}},
	})
	assert.ErrorIs(t, err, ErrAdminExists)

	// the failed create must not strand a group row or any admin links
	assert.Empty(t, store.groups)
	assert.Empty(t, store.admins)
	assert.Empty(t, notifier.created)
}

func TestCreateValidation(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	_, err := svc.Create(ctx, &CreateGroupRequest{})
	assert.ErrorIs(t, err, ErrNameRequired)

	_, err = svc.Create(ctx, &CreateGroupRequest{Name: "x", PrivacyPolicy: "Z"})
	assert.ErrorIs(t, err, ErrInvalidPolicy)

	_, err = svc.Create(ctx, &CreateGroupRequest{Name: "x", Admins: []AdminRef{{Type: "Robot", ID: 1}}})
	assert.ErrorIs(t, err, ErrInvalidAdminType)
}

func TestUpdateIgnoresInvalidPolicies(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	g := mustCreateGroup(t, svc, &CreateGroupRequest{Name: "test"})

	bad := PrivacyPolicy("Z")
	desc := "changed"
	updated, err := svc.Update(ctx, g.ID, &UpdateGroupRequest{
		Description:   &desc,
		PrivacyPolicy: &bad,
	})
	require.NoError(t, err)
	assert.Equal(t, "changed", updated.Description)
	assert.Equal(t, PrivacyAdmins, updated.PrivacyPolicy)
}

func TestDeleteCascades(t *testing.T) {
	svc, store, _ := newTestService()
	ctx := context.Background()

	g := mustCreateGroup(t, svc, &CreateGroupRequest{
		Name:   "doomed",
		Admins: []AdminRef{{Type: AdminTypeUser, ID: 1}},
	})
	other := mustCreateGroup(t, svc, &CreateGroupRequest{Name: "other"})

	_, err := svc.AddMember(ctx, g.ID, 2, StateActive)
	require.NoError(t, err)

	// the doomed group administers another group
	_, err = svc.AddAdmin(ctx, other.ID, AdminTypeGroup, g.ID)
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, g.ID))

	_, err = svc.GetByID(ctx, g.ID)
	assert.ErrorIs(t, err, ErrGroupNotFound)
	assert.Empty(t, store.memberships)

	admins, err := svc.GetAdmins(ctx, other.ID)
	require.NoError(t, err)
	assert.Empty(t, admins)
}

func TestDeleteMissing(t *testing.T) {
	svc, _, _ := newTestService()
	err := svc.Delete(context.Background(), 42)
	assert.ErrorIs(t, err, ErrGroupNotFound)
}

func TestSubscribeOpen(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	g := mustCreateGroup(t, svc, &CreateGroupRequest{Name: "open", SubscriptionPolicy: SubscriptionOpen})

	m, err := svc.Subscribe(ctx, g.ID, 7)
	require.NoError(t, err)
	assert.Equal(t, StateActive, m.State)
	assert.True(t, m.IsActive())
}

func TestSubscribeApproval(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	g := mustCreateGroup(t, svc, &CreateGroupRequest{Name: "approval", SubscriptionPolicy: SubscriptionApproval})

	m, err := svc.Subscribe(ctx, g.ID, 7)
	require.NoError(t, err)
	assert.Equal(t, StatePendingAdmin, m.State)
	assert.False(t, m.IsActive())
}

func TestSubscribeClosed(t *testing.T) {
	svc, store, _ := newTestService()
	ctx := context.Background()

	g := mustCreateGroup(t, svc, &CreateGroupRequest{Name: "closed", SubscriptionPolicy: SubscriptionClosed})

	_, err := svc.Subscribe(ctx, g.ID, 7)
	assert.ErrorIs(t, err, ErrSubscriptionClosed)
	assert.Empty(t, store.memberships)
}

func TestInviteByAdmin(t *testing.T) {
	svc, _, notifier := newTestService()
	ctx := context.Background()

	g := mustCreateGroup(t, svc, &CreateGroupRequest{
		Name:   "test",
		Admins: []AdminRef{{Type: AdminTypeUser, ID: 1}},
	})

	m, err := svc.Invite(ctx, g.ID, 7, 1)
	require.NoError(t, err)
	require.NotNil(t, m)
	assert.Equal(t, StatePendingUser, m.State)
	assert.Equal(t, []int64{7}, notifier.invited)
}

func TestInviteByNonAdminIsNoOp(t *testing.T) {
	svc, store, notifier := newTestService()
	ctx := context.Background()

	g := mustCreateGroup(t, svc, &CreateGroupRequest{
		Name:   "test",
		Admins: []AdminRef{{Type: AdminTypeUser, ID: 1}},
	})

	m, err := svc.Invite(ctx, g.ID, 7, 99)
	require.NoError(t, err)
	assert.Nil(t, m)
	assert.Empty(t, store.memberships)
	assert.Empty(t, notifier.invited)
}

func TestInviteByEmails(t *testing.T) {
	store := newMemStore()
	notifier := &fakeNotifier{}
	directory := fakeDirectory{"alice@example.org": 7}
	svc := NewService(store, directory, notifier, nil)
	ctx := context.Background()

	g := mustCreateGroup(t, svc, &CreateGroupRequest{Name: "test"})

	results, err := svc.InviteByEmails(ctx, g.ID, []string{"alice@example.org", "nobody@example.org"}, 0)
	require.NoError(t, err)
	require.Len(t, results, 2)
	require.NotNil(t, results[0])
	assert.Equal(t, int64(7), results[0].UserID)
	assert.Nil(t, results[1])

	// inviting an already invited user yields a nil entry, not an error
	results, err = svc.InviteByEmails(ctx, g.ID, []string{"alice@example.org"}, 0)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Nil(t, results[0])
}

func TestAcceptInvitation(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	g := mustCreateGroup(t, svc, &CreateGroupRequest{Name: "test"})
	_, err := svc.Invite(ctx, g.ID, 7, 0)
	require.NoError(t, err)

	m, err := svc.Accept(ctx, g.ID, 7)
	require.NoError(t, err)
	assert.Equal(t, StateActive, m.State)

	// accepting again is harmless
	m, err = svc.Accept(ctx, g.ID, 7)
	require.NoError(t, err)
	assert.Equal(t, StateActive, m.State)
}

func TestAcceptRequestNotifies(t *testing.T) {
	svc, _, notifier := newTestService()
	ctx := context.Background()

	g := mustCreateGroup(t, svc, &CreateGroupRequest{Name: "test", SubscriptionPolicy: SubscriptionApproval})
	_, err := svc.Subscribe(ctx, g.ID, 7)
	require.NoError(t, err)

	_, err = svc.Accept(ctx, g.ID, 7)
	require.NoError(t, err)
	assert.Equal(t, []int64{7}, notifier.approved)
}

func TestRejectRequestNotifies(t *testing.T) {
	svc, _, notifier := newTestService()
	ctx := context.Background()

	g := mustCreateGroup(t, svc, &CreateGroupRequest{Name: "test", SubscriptionPolicy: SubscriptionApproval})
	_, err := svc.Subscribe(ctx, g.ID, 7)
	require.NoError(t, err)

	require.NoError(t, svc.Reject(ctx, g.ID, 7))
	assert.Equal(t, []int64{7}, notifier.rejected)

	_, err = svc.Accept(ctx, g.ID, 7)
	assert.ErrorIs(t, err, ErrMembershipNotFound)
}

func TestInvitationsAndRequests(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	g := mustCreateGroup(t, svc, &CreateGroupRequest{
		Name:               "test",
		SubscriptionPolicy: SubscriptionApproval,
		Admins:             []AdminRef{{Type: AdminTypeUser, ID: 1}},
	})

	_, err := svc.Invite(ctx, g.ID, 7, 1)
	require.NoError(t, err)
	_, err = svc.Subscribe(ctx, g.ID, 8)
	require.NoError(t, err)

	invitations, total, err := svc.Invitations(ctx, 7, 1, 20)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, invitations, 1)
	assert.Equal(t, StatePendingUser, invitations[0].State)

	requests, total, err := svc.Requests(ctx, 1, 1, 20)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, requests, 1)
	assert.Equal(t, int64(8), requests[0].UserID)
}

func TestRequestsViaAdminGroup(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	admins := mustCreateGroup(t, svc, &CreateGroupRequest{Name: "admins"})
	_, err := svc.AddMember(ctx, admins.ID, 1, StateActive)
	require.NoError(t, err)

	g := mustCreateGroup(t, svc, &CreateGroupRequest{
		Name:               "test",
		SubscriptionPolicy: SubscriptionApproval,
		Admins:             []AdminRef{{Type: AdminTypeGroup, ID: admins.ID}},
	})
	_, err = svc.Subscribe(ctx, g.ID, 8)
	require.NoError(t, err)

	// user 1 administers "test" through their membership of "admins"
	requests, total, err := svc.Requests(ctx, 1, 1, 20)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, requests, 1)
	assert.Equal(t, g.ID, requests[0].GroupID)

	// a pending member of the admin group gets nothing
	_, err = svc.AddMember(ctx, admins.ID, 2, StatePendingAdmin)
	require.NoError(t, err)
	_, total, err = svc.Requests(ctx, 2, 1, 20)
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestListByUser(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	active := mustCreateGroup(t, svc, &CreateGroupRequest{Name: "active", SubscriptionPolicy: SubscriptionOpen})
	pending := mustCreateGroup(t, svc, &CreateGroupRequest{Name: "pending", SubscriptionPolicy: SubscriptionApproval})
	administered := mustCreateGroup(t, svc, &CreateGroupRequest{
		Name:   "administered",
		Admins: []AdminRef{{Type: AdminTypeUser, ID: 7}},
	})

	_, err := svc.Subscribe(ctx, active.ID, 7)
	require.NoError(t, err)
	_, err = svc.Subscribe(ctx, pending.ID, 7)
	require.NoError(t, err)

	_, total, err := svc.ListByUser(ctx, 7, false, 1, 20)
	require.NoError(t, err)
	assert.Equal(t, 2, total)

	groups, total, err := svc.ListByUser(ctx, 7, true, 1, 20)
	require.NoError(t, err)
	assert.Equal(t, 3, total)

	names := make([]string, len(groups))
	for i, g := range groups {
		names[i] = g.Name
	}
	assert.ElementsMatch(t, []string{"active", "pending", administered.Name}, names)
}

func TestAdminManagement(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	g := mustCreateGroup(t, svc, &CreateGroupRequest{Name: "test"})

	_, err := svc.AddAdmin(ctx, g.ID, AdminTypeUser, 1)
	require.NoError(t, err)
	_, err = svc.AddAdmin(ctx, g.ID, AdminTypeUser, 1)
	assert.ErrorIs(t, err, ErrAdminExists)

	_, err = svc.AddAdmin(ctx, g.ID, "Robot", 1)
	assert.ErrorIs(t, err, ErrInvalidAdminType)

	counts, err := svc.AdminCounts(ctx, []int64{g.ID})
	require.NoError(t, err)
	assert.Equal(t, 1, counts[g.ID])

	require.NoError(t, svc.RemoveAdmin(ctx, g.ID, AdminTypeUser, 1))
	err = svc.RemoveAdmin(ctx, g.ID, AdminTypeUser, 1)
	assert.ErrorIs(t, err, ErrAdminNotFound)
}

func TestCanSeeMembers(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	public := mustCreateGroup(t, svc, &CreateGroupRequest{Name: "public", PrivacyPolicy: PrivacyPublic})
	members := mustCreateGroup(t, svc, &CreateGroupRequest{Name: "members", PrivacyPolicy: PrivacyMembers, SubscriptionPolicy: SubscriptionOpen})
	admins := mustCreateGroup(t, svc, &CreateGroupRequest{
		Name:          "admins",
		PrivacyPolicy: PrivacyAdmins,
		Admins:        []AdminRef{{Type: AdminTypeUser, ID: 1}},
	})

	ok, err := svc.CanSeeMembers(ctx, public, 99)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = svc.CanSeeMembers(ctx, members, 99)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = svc.Subscribe(ctx, members.ID, 99)
	require.NoError(t, err)
	ok, err = svc.CanSeeMembers(ctx, members, 99)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = svc.CanSeeMembers(ctx, admins, 99)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = svc.CanSeeMembers(ctx, admins, 1)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestManagedGroupRestrictions(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	g := mustCreateGroup(t, svc, &CreateGroupRequest{
		Name:               "managed",
		IsManaged:          true,
		SubscriptionPolicy: SubscriptionOpen,
		Admins:             []AdminRef{{Type: AdminTypeUser, ID: 1}},
	})
	_, err := svc.Subscribe(ctx, g.ID, 7)
	require.NoError(t, err)

	for name, check := range map[string]func(context.Context, *Group, int64) (bool, error){
		"edit":   svc.CanEdit,
		"invite": svc.CanInviteOthers,
	} {
		ok, err := check(ctx, g, 1)
		require.NoError(t, err, name)
		assert.False(t, ok, name)
	}

	ok, err := svc.CanLeave(ctx, g, 7)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCanInviteOthers(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	open := mustCreateGroup(t, svc, &CreateGroupRequest{Name: "open", SubscriptionPolicy: SubscriptionOpen})
	closed := mustCreateGroup(t, svc, &CreateGroupRequest{
		Name:               "closed",
		SubscriptionPolicy: SubscriptionClosed,
		Admins:             []AdminRef{{Type: AdminTypeUser, ID: 1}},
	})

	// anyone can invite to a non-closed group
	ok, err := svc.CanInviteOthers(ctx, open, 99)
	require.NoError(t, err)
	assert.True(t, ok)

	// only admins can invite to a closed group
	ok, err = svc.CanInviteOthers(ctx, closed, 99)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = svc.CanInviteOthers(ctx, closed, 1)
	require.NoError(t, err)
	assert.True(t, ok)
}
