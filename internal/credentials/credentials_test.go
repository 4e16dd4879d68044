package credentials_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tartampluch/chronos-ics/internal/config"
	"github.com/tartampluch/chronos-ics/internal/credentials"
	"github.com/zalando/go-keyring"
)

func TestLookup_Keyring(t *testing.T) {
	keyring.MockInit()

	require.NoError(t, credentials.Save("alice", "s3cret"))
	assert.Equal(t, "s3cret", credentials.Lookup("alice"))
	assert.Equal(t, "", credentials.Lookup("bob"), "unknown users resolve to an empty password")
	assert.Equal(t, "", credentials.Lookup(""))
}

func TestLookup_EnvironmentWins(t *testing.T) {
	keyring.MockInit()
	require.NoError(t, credentials.Save("alice", "from-keyring"))

	t.Setenv(config.EnvWebPassword, "from-env")
	assert.Equal(t, "from-env", credentials.Lookup("alice"))
	assert.Equal(t, "from-env", credentials.Lookup(""))
}

func TestDelete(t *testing.T) {
	keyring.MockInit()
	require.NoError(t, credentials.Save("alice", "s3cret"))

	require.NoError(t, credentials.Delete("alice"))
	assert.Equal(t, "", credentials.Lookup("alice"))

	// Idempotent.
	assert.NoError(t, credentials.Delete("alice"))
}

func TestUserRequired(t *testing.T) {
	keyring.MockInit()

	assert.ErrorIs(t, credentials.Save("", "x"), credentials.ErrUserRequired)
	assert.ErrorIs(t, credentials.Delete(""), credentials.ErrUserRequired)
}
