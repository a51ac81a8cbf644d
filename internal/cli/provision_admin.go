package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/spec-kit/servicedesk/internal/domain"
	"github.com/spec-kit/servicedesk/internal/service"
)

type provisionOptions struct {
	username    string
	fullName    string
	email       string
	secretStdin bool
}

func newProvisionAdminCommand(root *rootOptions) *cobra.Command {
	opts := &provisionOptions{}
	cmd := &cobra.Command{
		Use:   "provision-admin",
		Short: "Create an administrator account",
		Long: `Create an administrator. The secret is prompted for on the terminal, or read from
the first line of stdin with --secret-stdin. No account is created implicitly at startup.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			secret, err := readSecret(cmd, opts.secretStdin)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			rt, err := openRuntime(ctx, root, logToStdout)
			if err != nil {
				return err
			}
			defer rt.Close()

			user, err := rt.services.Users.CreateUser(ctx, nil, service.UserInput{
				FullName: opts.fullName,
				Email:    opts.email,
				Username: opts.username,
				Secret:   secret,
				Role:     domain.RoleAdmin,
			})
			if err != nil {
				return fmt.Errorf("provision admin: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "administrator %q created (id %d)\n", user.Username, user.ID)
			return nil
		},
	}

	cmd.Flags().StringVarP(&opts.username, "username", "u", "admin", "Login name")
	cmd.Flags().StringVar(&opts.fullName, "full-name", "Administrator", "Display name")
	cmd.Flags().StringVar(&opts.email, "email", "", "Optional email")
	cmd.Flags().BoolVar(&opts.secretStdin, "secret-stdin", false, "Read the secret from stdin instead of prompting")
	return cmd
}

func readSecret(cmd *cobra.Command, fromStdin bool) (string, error) {
	if fromStdin {
		line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return "", fmt.Errorf("reading secret: %w", err)
		}
		secret := strings.TrimRight(line, "\r\n")
		if secret == "" {
			return "", errors.New("empty secret on stdin")
		}
		return secret, nil
	}

	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", errors.New("no terminal available for the secret prompt (use --secret-stdin)")
	}
	fmt.Fprint(cmd.ErrOrStderr(), "Secret: ")
	first, err := term.ReadPassword(fd)
	fmt.Fprintln(cmd.ErrOrStderr())
	if err != nil {
		return "", fmt.Errorf("reading secret: %w", err)
	}
	fmt.Fprint(cmd.ErrOrStderr(), "Repeat secret: ")
	second, err := term.ReadPassword(fd)
	fmt.Fprintln(cmd.ErrOrStderr())
	if err != nil {
		return "", fmt.Errorf("reading secret: %w", err)
	}
	if string(first) != string(second) {
		return "", errors.New("secrets do not match")
	}
	if len(first) == 0 {
		return "", errors.New("empty secret")
	}
	return string(first), nil
}
