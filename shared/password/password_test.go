package password_test

import (
	"testing"

	"hallbook/shared/password"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHash(t *testing.T) {
	digest, err := password.Hash("password123")
	require.NoError(t, err)
	assert.NotEqual(t, "password123", digest)

	again, err := password.Hash("password123")
	require.NoError(t, err)
	assert.NotEqual(t, digest, again, "each digest is salted")

	_, err = password.Hash("")
	assert.ErrorIs(t, err, password.ErrEmpty)
}

func TestMatches(t *testing.T) {
	digest, err := password.Hash("password123")
	require.NoError(t, err)

	tests := []struct {
		name  string
		plain string
		hash  string
		want  bool
	}{
		{name: "correct password", plain: "password123", hash: digest, want: true},
		{name: "wrong password", plain: "password124", hash: digest},
		{name: "case differs", plain: "PASSWORD123", hash: digest},
		{name: "empty password", plain: "", hash: digest},
		{name: "empty hash", plain: "password123", hash: ""},
		{name: "malformed hash", plain: "password123", hash: "not-a-bcrypt-digest"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, password.Matches(tt.plain, tt.hash))
		})
	}
}
