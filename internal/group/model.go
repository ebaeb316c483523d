package group

import "time"

// PrivacyPolicy controls who can view the list of group members.
// Values are the single-character codes stored in the database.
type PrivacyPolicy string

const (
	PrivacyPublic  PrivacyPolicy = "P"
	PrivacyMembers PrivacyPolicy = "M"
	PrivacyAdmins  PrivacyPolicy = "A"
)

// Valid reports whether the policy is one of the known codes
func (p PrivacyPolicy) Valid() bool {
	switch p {
	case PrivacyPublic, PrivacyMembers, PrivacyAdmins:
		return true
	}
	return false
}

// Describe returns a human-readable description of the policy,
// or an empty string for unknown codes
func (p PrivacyPolicy) Describe() string {
	switch p {
	case PrivacyPublic:
		return "Group membership is fully public."
	case PrivacyMembers:
		return "Only group members can view other members."
	case PrivacyAdmins:
		return "Only administrators can view members."
	}
	return ""
}

// SubscriptionPolicy controls how users can be subscribed to a group
type SubscriptionPolicy string

const (
	SubscriptionOpen     SubscriptionPolicy = "O"
	SubscriptionApproval SubscriptionPolicy = "A"
	SubscriptionClosed   SubscriptionPolicy = "C"
)

// Valid reports whether the policy is one of the known codes
func (p SubscriptionPolicy) Valid() bool {
	switch p {
	case SubscriptionOpen, SubscriptionApproval, SubscriptionClosed:
		return true
	}
	return false
}

// Describe returns a human-readable description of the policy,
// or an empty string for unknown codes
func (p SubscriptionPolicy) Describe() string {
	switch p {
	case SubscriptionOpen:
		return "Users can self-subscribe."
	case SubscriptionApproval:
		return "Users can self-subscribe but require administrator approval."
	case SubscriptionClosed:
		return "Subscription is by administrator invitation only."
	}
	return ""
}

// MembershipState is the approval state of a membership
type MembershipState string

const (
	// StatePendingAdmin means the membership awaits admin approval
	StatePendingAdmin MembershipState = "A"
	// StatePendingUser means the membership awaits user confirmation (invitation)
	StatePendingUser MembershipState = "U"
	// StateActive is a confirmed membership
	StateActive MembershipState = "M"
)

// Valid reports whether the state is one of the known codes
func (s MembershipState) Valid() bool {
	switch s {
	case StatePendingAdmin, StatePendingUser, StateActive:
		return true
	}
	return false
}

// Describe returns a human-readable description of the state,
// or an empty string for unknown codes
func (s MembershipState) Describe() string {
	switch s {
	case StatePendingAdmin:
		return "Pending admin approval"
	case StatePendingUser:
		return "Pending member approval"
	case StateActive:
		return "Active"
	}
	return ""
}

// AdminType discriminates the polymorphic admin reference of a GroupAdmin
type AdminType string

const (
	AdminTypeUser  AdminType = "User"
	AdminTypeGroup AdminType = "Group"
)

// Valid reports whether the admin type is one of the known values
func (t AdminType) Valid() bool {
	return t == AdminTypeUser || t == AdminTypeGroup
}

// Group represents a user group
type Group struct {
	ID                 int64              `json:"id"`
	Name               string             `json:"name"`
	Description        string             `json:"description"`
	PrivacyPolicy      PrivacyPolicy      `json:"privacy_policy"`
	SubscriptionPolicy SubscriptionPolicy `json:"subscription_policy"`
	IsManaged          bool               `json:"is_managed"`
	CreatedAt          time.Time          `json:"created_at"`
	ModifiedAt         time.Time          `json:"modified_at"`
}

// Membership represents a user's membership of a group.
// At most one row exists per (group, user) pair.
type Membership struct {
	GroupID    int64           `json:"group_id"`
	UserID     int64           `json:"user_id"`
	State      MembershipState `json:"state"`
	CreatedAt  time.Time       `json:"created_at"`
	ModifiedAt time.Time       `json:"modified_at"`

	// Populated from JOIN
	Username  string `json:"username,omitempty"`
	Email     string `json:"email,omitempty"`
	GroupName string `json:"group_name,omitempty"`
}

// IsActive reports whether the membership is in the active state
func (m *Membership) IsActive() bool {
	return m.State == StateActive
}

// GroupAdmin grants administrative rights over a group to a user
// or to another group
type GroupAdmin struct {
	ID        int64     `json:"id"`
	GroupID   int64     `json:"group_id"`
	AdminType AdminType `json:"admin_type"`
	AdminID   int64     `json:"admin_id"`
}
