package user

import "time"

// User is the accounts record the group features reference by ID. It carries
// just enough identity for membership rows and email-based invitations.
type User struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}
