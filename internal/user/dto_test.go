package user

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/tbakken/usergroups/pkg/validate"
)

func TestCreateUserRequestValidation(t *testing.T) {
	assert.NoError(t, validate.Struct(&CreateUserRequest{Username: "alice", Email: "alice@example.org"}))

	assert.Error(t, validate.Struct(&CreateUserRequest{Email: "alice@example.org"}))
	assert.Error(t, validate.Struct(&CreateUserRequest{Username: "alice"}))
	assert.Error(t, validate.Struct(&CreateUserRequest{Username: "alice", Email: "not-an-email"}))
}

func TestUpdateUserRequestValidation(t *testing.T) {
	assert.NoError(t, validate.Struct(&UpdateUserRequest{}))

	name := "bob"
	assert.NoError(t, validate.Struct(&UpdateUserRequest{Username: &name}))

	empty := ""
	assert.Error(t, validate.Struct(&UpdateUserRequest{Username: &empty}))
}

func TestUserToResponse(t *testing.T) {
	u := &User{
		ID:        7,
		Username:  "alice",
		Email:     "alice@example.org",
		CreatedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}

	resp := u.ToResponse()
	assert.Equal(t, int64(7), resp.ID)
	assert.Equal(t, "alice", resp.Username)
	assert.Equal(t, "alice@example.org", resp.Email)
	assert.Equal(t, "2026-01-02T03:04:05Z", resp.CreatedAt)
}
