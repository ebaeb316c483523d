package group

import "context"

// GroupUpdate carries the fields of a partial group update.
// Nil fields are left untouched.
type GroupUpdate struct {
	Name               *string
	Description        *string
	PrivacyPolicy      *PrivacyPolicy
	SubscriptionPolicy *SubscriptionPolicy
	IsManaged          *bool
}

// Store is the persistence boundary for groups, memberships and admin links.
// Lookups return (nil, nil) when no row exists; writes surface integrity
// violations as the package's sentinel errors.
type Store interface {
	// CreateGroup inserts the group and its admin links atomically; a failed
	// link leaves no group row behind.
	CreateGroup(ctx context.Context, g *Group, admins []AdminRef) (*Group, error)
	GetGroup(ctx context.Context, id int64) (*Group, error)
	GetGroupByName(ctx context.Context, name string) (*Group, error)
	SearchGroups(ctx context.Context, q string, limit, offset int) ([]*Group, int, error)
	ListGroupsByUser(ctx context.Context, userID int64, withPending bool, limit, offset int) ([]*Group, int, error)
	UpdateGroup(ctx context.Context, id int64, upd *GroupUpdate) (*Group, error)
	DeleteGroup(ctx context.Context, id int64) error

	CreateMembership(ctx context.Context, groupID, userID int64, state MembershipState) (*Membership, error)
	GetMembership(ctx context.Context, groupID, userID int64) (*Membership, error)
	UpdateMembershipState(ctx context.Context, groupID, userID int64, state MembershipState) (*Membership, error)
	DeleteMembership(ctx context.Context, groupID, userID int64) error
	ListMemberships(ctx context.Context, groupID int64, states []MembershipState, limit, offset int) ([]*Membership, int, error)
	CountMemberships(ctx context.Context, groupID int64) (int, error)
	ListInvitations(ctx context.Context, userID int64, limit, offset int) ([]*Membership, int, error)
	ListAdminRequests(ctx context.Context, adminUserID int64, limit, offset int) ([]*Membership, int, error)

	CreateAdmin(ctx context.Context, groupID int64, adminType AdminType, adminID int64) (*GroupAdmin, error)
	GetAdmin(ctx context.Context, groupID int64, adminType AdminType, adminID int64) (*GroupAdmin, error)
	DeleteAdmin(ctx context.Context, groupID int64, adminType AdminType, adminID int64) error
	ListAdmins(ctx context.Context, groupID int64) ([]*GroupAdmin, error)
	CountAdmins(ctx context.Context, groupIDs []int64) (map[int64]int, error)
}
