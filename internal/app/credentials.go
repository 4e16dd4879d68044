package app

import (
	"bufio"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/tartampluch/chronos-ics/internal/config"
	"github.com/tartampluch/chronos-ics/internal/credentials"
)

func (c *cli) credentialsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "credentials",
		Short: "Manage the web password stored in the system keyring",
		Args:  cobra.NoArgs,
	}

	set := &cobra.Command{
		Use:   "set",
		Short: "Store the password for --web-user, read from the first line of stdin",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			user := c.opts.WebUser
			if user == "" {
				return Wrap(config.ExitCodeUsage, credentials.ErrUserRequired)
			}

			line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
			if err != nil && line == "" {
				return Wrap(config.ExitCodeUsage, fmt.Errorf("%s: %w", config.ErrPasswordRead, err))
			}
			password := strings.TrimRight(line, "\r\n")
			if password == "" {
				return Wrap(config.ExitCodeUsage, errors.New(config.ErrPasswordEmpty))
			}

			if err := c.savePass(user, password); err != nil {
				return Wrap(config.ExitCodeError, err)
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), c.tr.T(config.TKeyPassSaved, map[string]any{"User": user}))
			return nil
		},
	}

	del := &cobra.Command{
		Use:   "delete",
		Short: "Remove the stored password for --web-user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			user := c.opts.WebUser
			if user == "" {
				return Wrap(config.ExitCodeUsage, credentials.ErrUserRequired)
			}
			if err := c.deletePass(user); err != nil {
				return Wrap(config.ExitCodeError, err)
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), c.tr.T(config.TKeyPassDeleted, map[string]any{"User": user}))
			return nil
		},
	}

	cmd.AddCommand(set, del)
	return cmd
}
