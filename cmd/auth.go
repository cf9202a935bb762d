package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/oauth2"

	"github.com/teemow/calagent/internal/google"
)

func newAuthCmd() *cobra.Command {
	var account, code string

	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Authorize Google Calendar access for an account",
		Long: `Print the Google consent URL for an account, then exchange the
authorization code for a token and store it in the user cache directory.

The code is read from standard input unless --code is given. Requires
GOOGLE_CLIENT_ID and GOOGLE_CLIENT_SECRET.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			conf, err := google.OAuthConfig()
			if err != nil {
				return err
			}
			return runAuth(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout(), conf, google.NewFileTokenProvider(), account, code)
		},
	}

	cmd.Flags().StringVar(&account, "account", google.DefaultAccount, "Account name the token is stored under")
	cmd.Flags().StringVar(&code, "code", "", "Authorization code (skips the interactive prompt)")

	return cmd
}

func runAuth(ctx context.Context, in io.Reader, out io.Writer, conf *oauth2.Config, store google.TokenStore, account, code string) error {
	if err := google.ValidateAccountName(account); err != nil {
		return err
	}

	if code == "" {
		fmt.Fprintf(out, "Visit this URL to authorize account %q:\n\n  %s\n\nAuthorization code: ", account, google.GetAuthURLForAccount(conf, account))
		line, err := bufio.NewReader(in).ReadString('\n')
		if err != nil && line == "" {
			return fmt.Errorf("failed to read authorization code: %w", err)
		}
		code = strings.TrimSpace(line)
	}
	if code == "" {
		return fmt.Errorf("authorization code is empty")
	}

	if err := google.SaveTokenForAccount(ctx, conf, store, account, code); err != nil {
		return err
	}
	fmt.Fprintf(out, "Token saved for account %q.\n", account)
	return nil
}
