// Package credentials resolves the HTTP basic auth password used for remote
// appointment lists.
package credentials

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/tartampluch/chronos-ics/internal/config"
	"github.com/zalando/go-keyring"
)

// ErrUserRequired is returned when a password is stored without a username.
var ErrUserRequired = errors.New("web user is required to store a password")

// Lookup returns the password for user.
//
// CHRONOS_WEB_PASSWORD wins when set; otherwise the OS keyring is queried under
// config.KeyringService. A missing entry is not an error: remote sources may
// be public, so the empty string is returned and the failure logged at debug.
func Lookup(user string) string {
	if pass, ok := os.LookupEnv(config.EnvWebPassword); ok {
		return pass
	}
	if user == "" {
		return ""
	}

	pass, err := keyring.Get(config.KeyringService, user)
	if err != nil {
		slog.Debug(config.MsgPassFail,
			config.LogKeyComponent, config.CompConfig,
			config.LogKeyUser, user,
			config.LogKeyError, err,
		)
		return ""
	}
	return pass
}

// Save stores password for user in the OS keyring.
func Save(user, password string) error {
	if user == "" {
		return ErrUserRequired
	}
	if err := keyring.Set(config.KeyringService, user, password); err != nil {
		return fmt.Errorf("%s: %w", config.ErrKeyringLookup, err)
	}
	return nil
}

// Delete removes the stored password for user. Deleting a missing entry is not an error.
func Delete(user string) error {
	if user == "" {
		return ErrUserRequired
	}
	if err := keyring.Delete(config.KeyringService, user); err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return fmt.Errorf("%s: %w", config.ErrKeyringLookup, err)
	}
	return nil
}
