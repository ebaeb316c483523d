package validate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Name   string   `validate:"required,max=10"`
	Kind   string   `validate:"omitempty,oneof=a b"`
	Emails []string `validate:"omitempty,dive,email"`
}

func TestStructValid(t *testing.T) {
	assert.NoError(t, Struct(&sample{Name: "x"}))
	assert.NoError(t, Struct(&sample{Name: "x", Kind: "b", Emails: []string{"a@example.org"}}))
}

func TestStructRequired(t *testing.T) {
	err := Struct(&sample{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "name is required")
}

func TestStructOneof(t *testing.T) {
	err := Struct(&sample{Name: "x", Kind: "c"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "kind must be one of: a b")
}

func TestStructEmail(t *testing.T) {
	err := Struct(&sample{Name: "x", Emails: []string{"not-an-email"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must be a valid email address")
}

func TestStructJoinsMessages(t *testing.T) {
	err := Struct(&sample{Name: "waaaaaaaaaaaaay too long", Kind: "c"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "; ")
}
