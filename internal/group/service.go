package group

import (
	"context"
	"errors"

	"go.uber.org/zap"
)

// Common errors
var (
	ErrGroupNotFound      = errors.New("group not found")
	ErrGroupExists        = errors.New("group with this name already exists")
	ErrMembershipNotFound = errors.New("membership not found")
	ErrMembershipExists   = errors.New("user is already a member of this group")
	ErrAdminNotFound      = errors.New("admin not found")
	ErrAdminExists        = errors.New("admin link already exists")
	ErrUserNotFound       = errors.New("user not found")
	ErrNameRequired       = errors.New("group name is required")
	ErrInvalidPolicy      = errors.New("invalid policy value")
	ErrInvalidState       = errors.New("invalid membership state")
	ErrInvalidAdminType   = errors.New("invalid admin type")
	ErrSubscriptionClosed = errors.New("group subscription is closed")
)

// Notifier receives group lifecycle events. Implementations must not fail
// the calling operation.
type Notifier interface {
	GroupCreated(ctx context.Context, recipientID int64, g *Group)
	MemberInvited(ctx context.Context, recipientID int64, g *Group)
	RequestDecided(ctx context.Context, recipientID int64, g *Group, approved bool)
}

// UserDirectory resolves user emails to IDs. Unknown emails resolve to 0.
type UserDirectory interface {
	LookupEmail(ctx context.Context, email string) (int64, error)
}

// AdminRef identifies a user or group to be linked as a group admin
type AdminRef struct {
	Type AdminType `json:"type" validate:"required,oneof=User Group"`
	ID   int64     `json:"id" validate:"required"`
}

// Service handles group business logic
type Service struct {
	store    Store
	users    UserDirectory
	notifier Notifier
	log      *zap.Logger
}

// NewService creates a new group service
func NewService(store Store, users UserDirectory, notifier Notifier, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{store: store, users: users, notifier: notifier, log: log}
}

// Create creates a new group and links the given admins to it. Each user
// admin receives a creation notification.
func (s *Service) Create(ctx context.Context, req *CreateGroupRequest) (*Group, error) {
	if req.Name == "" {
		return nil, ErrNameRequired
	}

	privacy := req.PrivacyPolicy
	if privacy == "" {
		privacy = PrivacyAdmins
	}
	subscription := req.SubscriptionPolicy
	if subscription == "" {
		subscription = SubscriptionClosed
	}
	if !privacy.Valid() || !subscription.Valid() {
		return nil, ErrInvalidPolicy
	}
	for _, a := range req.Admins {
		if !a.Type.Valid() {
			return nil, ErrInvalidAdminType
		}
	}

	group, err := s.store.CreateGroup(ctx, &Group{
		Name:               req.Name,
		Description:        req.Description,
		PrivacyPolicy:      privacy,
		SubscriptionPolicy: subscription,
		IsManaged:          req.IsManaged,
	}, req.Admins)
	if err != nil {
		return nil, err
	}

	if s.notifier != nil {
		for _, a := range req.Admins {
			if a.Type == AdminTypeUser {
				s.notifier.GroupCreated(ctx, a.ID, group)
			}
		}
	}

	s.log.Info("group created",
		zap.Int64("group_id", group.ID),
		zap.String("name", group.Name))

	return group, nil
}

// GetByID retrieves a group by its ID
func (s *Service) GetByID(ctx context.Context, id int64) (*Group, error) {
	group, err := s.store.GetGroup(ctx, id)
	if err != nil {
		return nil, err
	}
	if group == nil {
		return nil, ErrGroupNotFound
	}
	return group, nil
}

// GetByName retrieves a group by its unique name
func (s *Service) GetByName(ctx context.Context, name string) (*Group, error) {
	group, err := s.store.GetGroupByName(ctx, name)
	if err != nil {
		return nil, err
	}
	if group == nil {
		return nil, ErrGroupNotFound
	}
	return group, nil
}

// Search retrieves groups whose name contains the search string
func (s *Service) Search(ctx context.Context, q string, page, perPage int) ([]*Group, int, error) {
	page, perPage = normalizePaging(page, perPage)
	return s.store.SearchGroups(ctx, q, perPage, (page-1)*perPage)
}

// ListByUser retrieves the groups a user belongs to or administers
func (s *Service) ListByUser(ctx context.Context, userID int64, withPending bool, page, perPage int) ([]*Group, int, error) {
	page, perPage = normalizePaging(page, perPage)
	return s.store.ListGroupsByUser(ctx, userID, withPending, perPage, (page-1)*perPage)
}

// Update applies a partial update. Invalid policy values are ignored rather
// than rejected; the unique name constraint rejects duplicates.
func (s *Service) Update(ctx context.Context, id int64, req *UpdateGroupRequest) (*Group, error) {
	existing, err := s.store.GetGroup(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, ErrGroupNotFound
	}

	upd := &GroupUpdate{
		Name:        req.Name,
		Description: req.Description,
		IsManaged:   req.IsManaged,
	}
	if req.PrivacyPolicy != nil && req.PrivacyPolicy.Valid() {
		upd.PrivacyPolicy = req.PrivacyPolicy
	}
	if req.SubscriptionPolicy != nil && req.SubscriptionPolicy.Valid() {
		upd.SubscriptionPolicy = req.SubscriptionPolicy
	}

	group, err := s.store.UpdateGroup(ctx, id, upd)
	if err != nil {
		return nil, err
	}
	if group == nil {
		return nil, ErrGroupNotFound
	}
	return group, nil
}

// Delete removes a group and all its memberships and admin links. Other
// groups administered by this group lose that admin link and may end up
// admin-less; remediation is left to the caller.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.store.DeleteGroup(ctx, id); err != nil {
		return err
	}
	s.log.Info("group deleted", zap.Int64("group_id", id))
	return nil
}

// MembersCount returns the number of memberships, pending included
func (s *Service) MembersCount(ctx context.Context, groupID int64) (int, error) {
	return s.store.CountMemberships(ctx, groupID)
}

//
// Membership workflow
//

// AddMember creates a membership in the given state
func (s *Service) AddMember(ctx context.Context, groupID, userID int64, state MembershipState) (*Membership, error) {
	if !state.Valid() {
		return nil, ErrInvalidState
	}
	if _, err := s.GetByID(ctx, groupID); err != nil {
		return nil, err
	}
	return s.store.CreateMembership(ctx, groupID, userID, state)
}

// RemoveMember deletes a membership regardless of its state
func (s *Service) RemoveMember(ctx context.Context, groupID, userID int64) error {
	return s.store.DeleteMembership(ctx, groupID, userID)
}

// Invite creates a pending-user membership on behalf of an admin. When
// actingAdminID is non-zero and not an admin of the group the call is a
// no-op and no membership is returned.
func (s *Service) Invite(ctx context.Context, groupID, userID, actingAdminID int64) (*Membership, error) {
	group, err := s.GetByID(ctx, groupID)
	if err != nil {
		return nil, err
	}

	if actingAdminID != 0 {
		isAdmin, err := s.IsAdmin(ctx, groupID, actingAdminID)
		if err != nil {
			return nil, err
		}
		if !isAdmin {
			return nil, nil
		}
	}

	m, err := s.store.CreateMembership(ctx, groupID, userID, StatePendingUser)
	if err != nil {
		return nil, err
	}

	if s.notifier != nil {
		s.notifier.MemberInvited(ctx, userID, group)
	}

	return m, nil
}

// InviteByEmails invites users by email. Emails that do not resolve to a
// user yield a nil entry in the result.
func (s *Service) InviteByEmails(ctx context.Context, groupID int64, emails []string, actingAdminID int64) ([]*Membership, error) {
	results := make([]*Membership, 0, len(emails))
	for _, email := range emails {
		userID, err := s.users.LookupEmail(ctx, email)
		if err != nil {
			return nil, err
		}
		if userID == 0 {
			results = append(results, nil)
			continue
		}

		m, err := s.Invite(ctx, groupID, userID, actingAdminID)
		if err != nil {
			if errors.Is(err, ErrMembershipExists) {
				results = append(results, nil)
				continue
			}
			return nil, err
		}
		results = append(results, m)
	}
	return results, nil
}

// Subscribe creates a membership according to the group's subscription
// policy: OPEN yields an active membership, APPROVAL a pending-admin one,
// and CLOSED creates nothing.
func (s *Service) Subscribe(ctx context.Context, groupID, userID int64) (*Membership, error) {
	group, err := s.GetByID(ctx, groupID)
	if err != nil {
		return nil, err
	}

	switch group.SubscriptionPolicy {
	case SubscriptionOpen:
		return s.store.CreateMembership(ctx, groupID, userID, StateActive)
	case SubscriptionApproval:
		return s.store.CreateMembership(ctx, groupID, userID, StatePendingAdmin)
	default:
		return nil, ErrSubscriptionClosed
	}
}

// Accept activates a pending membership. Accepting an already active
// membership returns it unchanged.
func (s *Service) Accept(ctx context.Context, groupID, userID int64) (*Membership, error) {
	m, err := s.store.GetMembership(ctx, groupID, userID)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, ErrMembershipNotFound
	}
	if m.State == StateActive {
		return m, nil
	}

	updated, err := s.store.UpdateMembershipState(ctx, groupID, userID, StateActive)
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, ErrMembershipNotFound
	}

	if s.notifier != nil && m.State == StatePendingAdmin {
		if group, err := s.store.GetGroup(ctx, groupID); err == nil && group != nil {
			s.notifier.RequestDecided(ctx, userID, group, true)
		}
	}

	return updated, nil
}

// Reject removes a pending membership
func (s *Service) Reject(ctx context.Context, groupID, userID int64) error {
	m, err := s.store.GetMembership(ctx, groupID, userID)
	if err != nil {
		return err
	}
	if m == nil {
		return ErrMembershipNotFound
	}

	if err := s.store.DeleteMembership(ctx, groupID, userID); err != nil {
		return err
	}

	if s.notifier != nil && m.State == StatePendingAdmin {
		if group, err := s.store.GetGroup(ctx, groupID); err == nil && group != nil {
			s.notifier.RequestDecided(ctx, userID, group, false)
		}
	}

	return nil
}

// GetMembers retrieves a group's memberships, optionally restricted to a
// set of states
func (s *Service) GetMembers(ctx context.Context, groupID int64, states []MembershipState, page, perPage int) ([]*Membership, int, error) {
	if _, err := s.GetByID(ctx, groupID); err != nil {
		return nil, 0, err
	}
	for _, st := range states {
		if !st.Valid() {
			return nil, 0, ErrInvalidState
		}
	}
	page, perPage = normalizePaging(page, perPage)
	return s.store.ListMemberships(ctx, groupID, states, perPage, (page-1)*perPage)
}

// Invitations retrieves a user's pending invitations
func (s *Service) Invitations(ctx context.Context, userID int64, page, perPage int) ([]*Membership, int, error) {
	page, perPage = normalizePaging(page, perPage)
	return s.store.ListInvitations(ctx, userID, perPage, (page-1)*perPage)
}

// Requests retrieves memberships pending approval in the groups the user
// administers
func (s *Service) Requests(ctx context.Context, adminUserID int64, page, perPage int) ([]*Membership, int, error) {
	page, perPage = normalizePaging(page, perPage)
	return s.store.ListAdminRequests(ctx, adminUserID, perPage, (page-1)*perPage)
}

//
// Admin management
//

// AddAdmin links a user or group as an admin of the group
func (s *Service) AddAdmin(ctx context.Context, groupID int64, adminType AdminType, adminID int64) (*GroupAdmin, error) {
	if !adminType.Valid() {
		return nil, ErrInvalidAdminType
	}
	if _, err := s.GetByID(ctx, groupID); err != nil {
		return nil, err
	}
	return s.store.CreateAdmin(ctx, groupID, adminType, adminID)
}

// RemoveAdmin removes an admin link, independent of membership state
func (s *Service) RemoveAdmin(ctx context.Context, groupID int64, adminType AdminType, adminID int64) error {
	if !adminType.Valid() {
		return ErrInvalidAdminType
	}
	return s.store.DeleteAdmin(ctx, groupID, adminType, adminID)
}

// GetAdmins retrieves all admin links of a group
func (s *Service) GetAdmins(ctx context.Context, groupID int64) ([]*GroupAdmin, error) {
	if _, err := s.GetByID(ctx, groupID); err != nil {
		return nil, err
	}
	return s.store.ListAdmins(ctx, groupID)
}

// AdminCounts returns the number of admin links per group
func (s *Service) AdminCounts(ctx context.Context, groupIDs []int64) (map[int64]int, error) {
	return s.store.CountAdmins(ctx, groupIDs)
}

// IsAdmin reports whether the user holds a direct admin link on the group
func (s *Service) IsAdmin(ctx context.Context, groupID, userID int64) (bool, error) {
	ga, err := s.store.GetAdmin(ctx, groupID, AdminTypeUser, userID)
	if err != nil {
		return false, err
	}
	return ga != nil, nil
}

// IsMember reports whether the user is a group member. Pending memberships
// count only when withPending is set.
func (s *Service) IsMember(ctx context.Context, groupID, userID int64, withPending bool) (bool, error) {
	m, err := s.store.GetMembership(ctx, groupID, userID)
	if err != nil {
		return false, err
	}
	if m == nil {
		return false, nil
	}
	return withPending || m.State == StateActive, nil
}

//
// Policy predicates
//

// CanSeeMembers determines if the user may view the group's member list
func (s *Service) CanSeeMembers(ctx context.Context, g *Group, userID int64) (bool, error) {
	switch g.PrivacyPolicy {
	case PrivacyPublic:
		return true, nil
	case PrivacyMembers:
		isMember, err := s.IsMember(ctx, g.ID, userID, false)
		if err != nil {
			return false, err
		}
		if isMember {
			return true, nil
		}
		return s.IsAdmin(ctx, g.ID, userID)
	default:
		return s.IsAdmin(ctx, g.ID, userID)
	}
}

// CanEdit determines if the user may edit group data. Managed groups are
// never editable through the API.
func (s *Service) CanEdit(ctx context.Context, g *Group, userID int64) (bool, error) {
	if g.IsManaged {
		return false, nil
	}
	return s.IsAdmin(ctx, g.ID, userID)
}

// CanInviteOthers determines if the user may invite people to the group
func (s *Service) CanInviteOthers(ctx context.Context, g *Group, userID int64) (bool, error) {
	if g.IsManaged {
		return false, nil
	}
	isAdmin, err := s.IsAdmin(ctx, g.ID, userID)
	if err != nil {
		return false, err
	}
	if isAdmin {
		return true, nil
	}
	return g.SubscriptionPolicy != SubscriptionClosed, nil
}

// CanLeave determines if the user may leave the group
func (s *Service) CanLeave(ctx context.Context, g *Group, userID int64) (bool, error) {
	if g.IsManaged {
		return false, nil
	}
	return s.IsMember(ctx, g.ID, userID, false)
}

func normalizePaging(page, perPage int) (int, int) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}
	return page, perPage
}
