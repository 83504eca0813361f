package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bucketdrop/internal/config"
)

func testUsers(t *testing.T) map[string]config.User {
	t.Helper()
	hash, err := HashPassword("s3cret")
	require.NoError(t, err)
	return map[string]config.User{
		"alice": {Name: "Alice Example", PasswordHash: hash},
	}
}

func TestVerifyTriState(t *testing.T) {
	r := NewResolver(testUsers(t))

	assert.Equal(t, Unattempted, r.Verify("", ""))
	assert.Equal(t, Rejected, r.Verify("alice", "wrong"))
	assert.Equal(t, Rejected, r.Verify("mallory", "s3cret"))
	assert.Equal(t, Rejected, r.Verify("alice", ""))
	assert.Equal(t, Accepted, r.Verify("alice", "s3cret"))
}

func TestDisplayName(t *testing.T) {
	r := NewResolver(testUsers(t))

	assert.Equal(t, "Alice Example", r.DisplayName("alice"))
	// Unknown users fall back to the username
	assert.Equal(t, "mallory", r.DisplayName("mallory"))
}

func TestHashPasswordVerifiable(t *testing.T) {
	hash, err := HashPassword("hunter2")
	require.NoError(t, err)
	assert.NotEqual(t, "hunter2", hash)

	r := NewResolver(map[string]config.User{
		"bob": {PasswordHash: hash},
	})
	assert.Equal(t, Accepted, r.Verify("bob", "hunter2"))
	assert.Equal(t, Rejected, r.Verify("bob", "hunter3"))
}
