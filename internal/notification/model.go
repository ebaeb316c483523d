package notification

import "time"

// Notification is a message delivered to a user about a group event
type Notification struct {
	ID          int64     `json:"id"`
	RecipientID int64     `json:"recipient_id"`
	Message     string    `json:"message"`
	IsRead      bool      `json:"is_read"`
	GroupID     *int64    `json:"group_id,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}
