package group

// CreateGroupRequest represents the request to create a new group
type CreateGroupRequest struct {
	Name               string             `json:"name" validate:"required,min=1,max=255"`
	Description        string             `json:"description"`
	PrivacyPolicy      PrivacyPolicy      `json:"privacy_policy" validate:"omitempty,oneof=P M A"`
	SubscriptionPolicy SubscriptionPolicy `json:"subscription_policy" validate:"omitempty,oneof=O A C"`
	IsManaged          bool               `json:"is_managed"`
	Admins             []AdminRef         `json:"admins" validate:"omitempty,dive"`
}

// UpdateGroupRequest represents the request to update a group
type UpdateGroupRequest struct {
	Name               *string             `json:"name,omitempty" validate:"omitempty,min=1,max=255"`
	Description        *string             `json:"description,omitempty"`
	PrivacyPolicy      *PrivacyPolicy      `json:"privacy_policy,omitempty"`
	SubscriptionPolicy *SubscriptionPolicy `json:"subscription_policy,omitempty"`
	IsManaged          *bool               `json:"is_managed,omitempty"`
}

// AddMemberRequest represents the request to add a member to a group
type AddMemberRequest struct {
	UserID int64           `json:"user_id" validate:"required"`
	State  MembershipState `json:"state" validate:"omitempty,oneof=A U M"`
}

// InviteRequest represents the request to invite a user to a group
type InviteRequest struct {
	UserID int64 `json:"user_id" validate:"required"`
}

// InviteByEmailsRequest represents the request to invite users by email
type InviteByEmailsRequest struct {
	Emails []string `json:"emails" validate:"required,min=1,dive,email"`
}

// AddAdminRequest represents the request to link an admin to a group
type AddAdminRequest struct {
	AdminType AdminType `json:"admin_type" validate:"required,oneof=User Group"`
	AdminID   int64     `json:"admin_id" validate:"required"`
}

// GroupResponse represents the response for a group
type GroupResponse struct {
	ID                 int64              `json:"id"`
	Name               string             `json:"name"`
	Description        string             `json:"description"`
	PrivacyPolicy      PrivacyPolicy      `json:"privacy_policy"`
	SubscriptionPolicy SubscriptionPolicy `json:"subscription_policy"`
	IsManaged          bool               `json:"is_managed"`
	CreatedAt          string             `json:"created_at"`
	ModifiedAt         string             `json:"modified_at"`

	Members []*MembershipResponse `json:"members,omitempty"`
	Admins  []*GroupAdmin         `json:"admins,omitempty"`
}

// MembershipResponse represents a membership in a response
type MembershipResponse struct {
	GroupID    int64           `json:"group_id"`
	GroupName  string          `json:"group_name,omitempty"`
	UserID     int64           `json:"user_id"`
	Username   string          `json:"username,omitempty"`
	Email      string          `json:"email,omitempty"`
	State      MembershipState `json:"state"`
	StateLabel string          `json:"state_label"`
	CreatedAt  string          `json:"created_at"`
	ModifiedAt string          `json:"modified_at"`
}

const timeLayout = "2006-01-02T15:04:05Z"

// ToResponse converts a Group model to a GroupResponse DTO
func (g *Group) ToResponse() *GroupResponse {
	return &GroupResponse{
		ID:                 g.ID,
		Name:               g.Name,
		Description:        g.Description,
		PrivacyPolicy:      g.PrivacyPolicy,
		SubscriptionPolicy: g.SubscriptionPolicy,
		IsManaged:          g.IsManaged,
		CreatedAt:          g.CreatedAt.Format(timeLayout),
		ModifiedAt:         g.ModifiedAt.Format(timeLayout),
	}
}

// ToResponse converts a Membership model to a MembershipResponse DTO
func (m *Membership) ToResponse() *MembershipResponse {
	return &MembershipResponse{
		GroupID:    m.GroupID,
		GroupName:  m.GroupName,
		UserID:     m.UserID,
		Username:   m.Username,
		Email:      m.Email,
		State:      m.State,
		StateLabel: m.State.Describe(),
		CreatedAt:  m.CreatedAt.Format(timeLayout),
		ModifiedAt: m.ModifiedAt.Format(timeLayout),
	}
}
