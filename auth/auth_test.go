package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHash_CheckPassword(t *testing.T) {
	hash, err := Hash("pw1")
	require.NoError(t, err)

	assert.True(t, CheckPassword(hash, "pw1"))
	assert.False(t, CheckPassword(hash, "pw2"))
	assert.False(t, CheckPassword(hash, ""))
	assert.False(t, CheckPassword("", "pw1"), "empty hash must never match")
}

func TestHash_IsSalted(t *testing.T) {
	a, err := Hash("same")
	require.NoError(t, err)
	b, err := Hash("same")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestIssueConfirmationCode_Unique(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		code, err := IssueConfirmationCode()
		require.NoError(t, err)
		require.Len(t, code, 32)
		require.False(t, seen[code], "duplicate code")
		seen[code] = true
	}
}

func TestValidUsername(t *testing.T) {
	for _, name := range []string{"alice", "a", "john-doe", "jane_doe", "x1", "0day"} {
		assert.NoError(t, ValidUsername(name), name)
	}
	for _, name := range []string{"", "Alice", "../etc", "a/b", `a\b`, ".", "..", "-alice", "_alice", "al ice", "älice", "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"} {
		assert.ErrorIs(t, ValidUsername(name), ErrUsername, name)
	}
}

func TestCleanUsername(t *testing.T) {
	assert.Equal(t, "alice", CleanUsername("  Alice "))
}
