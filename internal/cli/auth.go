package cli

import (
	"errors"
	"os"

	"github.com/spf13/cobra"

	"github.com/joshuadavidthomas/copilotstatus/internal/config"
	"github.com/joshuadavidthomas/copilotstatus/internal/credstore"
	"github.com/joshuadavidthomas/copilotstatus/internal/display"
	"github.com/joshuadavidthomas/copilotstatus/internal/oauth"
	"github.com/joshuadavidthomas/copilotstatus/internal/prompt"
)

var errNoClientID = errors.New("no OAuth client id configured: set COPILOTSTATUS_CLIENT_ID or [oauth] client_id")

// AuthStatusJSON is the machine-readable form of `auth status`.
type AuthStatusJSON struct {
	Authenticated bool   `json:"authenticated" yaml:"authenticated"`
	Username      string `json:"username,omitempty" yaml:"username,omitempty"`
	Storage       string `json:"storage" yaml:"storage"`
}

// ActionResultJSON reports the outcome of a state-changing command.
type ActionResultJSON struct {
	Success  bool   `json:"success" yaml:"success"`
	Username string `json:"username,omitempty" yaml:"username,omitempty"`
	Message  string `json:"message,omitempty" yaml:"message,omitempty"`
}

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Sign in to GitHub or show authentication status",
	RunE: func(cmd *cobra.Command, args []string) error {
		return authStatusCmd.RunE(cmd, args)
	},
}

var authLoginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in with GitHub in the browser",
	RunE: func(cmd *cobra.Command, args []string) error {
		if config.Get().OAuth.ClientID == "" {
			return errNoClientID
		}
		noBrowser, _ := cmd.Flags().GetBool("no-browser")

		ctx, cancel := oauth.LoginContext(cmd.Context())
		defer cancel()

		a, err := openApp(ctx)
		if err != nil {
			return err
		}
		defer closeApp(ctx, a)

		var open oauth.BrowserOpener = oauth.OpenBrowser
		if noBrowser {
			open = nil
		}
		login, err := a.Login(ctx, os.Stderr, open)
		if err != nil {
			return err
		}
		return reportSignIn(login)
	},
}

var authExchangeCmd = &cobra.Command{
	Use:   "exchange [code-or-callback-url]",
	Short: "Exchange an authorization code for a token",
	Long: `Exchange an authorization code for a token.

The argument may be the bare code or the full callback URL copied from the
browser. Without an argument you are prompted for it.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if config.Get().OAuth.ClientID == "" {
			return errNoClientID
		}
		verifier, _ := cmd.Flags().GetString("verifier")

		raw := ""
		if len(args) == 1 {
			raw = args[0]
		} else {
			var err error
			raw, err = prompt.Default.Input(prompt.InputConfig{
				Title:       "Authorization code",
				Placeholder: "code or callback URL",
				Validate:    prompt.ValidateCode,
			})
			if err != nil {
				return err
			}
		}
		code, err := prompt.ExtractCode(raw)
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		a, err := openApp(ctx)
		if err != nil {
			return err
		}
		defer closeApp(ctx, a)

		login, err := a.SignIn(ctx, code, verifier)
		if err != nil {
			return err
		}
		return reportSignIn(login)
	},
}

func reportSignIn(login string) error {
	if isMachine() {
		return outputData(ActionResultJSON{Success: true, Username: login, Message: "signed in"})
	}
	if !quiet {
		oauth.WriteSuccess(outWriter, login)
	}
	return nil
}

var authLogoutCmd = &cobra.Command{
	Use:     "logout",
	Aliases: []string{"signout"},
	Short:   "Sign out and remove cached quota data",
	RunE: func(cmd *cobra.Command, args []string) error {
		yes, _ := cmd.Flags().GetBool("yes")
		if !yes && !isMachine() && display.IsTerminal(os.Stdin) {
			ok, err := prompt.Default.Confirm(prompt.ConfirmConfig{
				Title:       "Sign out of GitHub?",
				Description: "The stored token and cached quota data will be removed.",
			})
			if err != nil {
				return err
			}
			if !ok {
				outln("Sign out cancelled")
				return nil
			}
		}

		ctx := cmd.Context()
		a, err := openApp(ctx)
		if err != nil {
			return err
		}
		defer closeApp(ctx, a)

		if err := a.SignOut(ctx); err != nil {
			return err
		}
		if isMachine() {
			return outputData(ActionResultJSON{Success: true, Message: "signed out"})
		}
		if !quiet {
			outln("✓ Signed out")
		}
		return nil
	},
}

var authStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show whether a GitHub token is stored",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := openApp(ctx)
		if err != nil {
			return err
		}
		defer closeApp(ctx, a)

		ok, err := a.CheckAuth(ctx)
		if err != nil {
			return err
		}
		status := AuthStatusJSON{Authenticated: ok, Storage: storageName(a.Tokens)}
		if ok {
			status.Username = username(ctx, a)
		}

		if isMachine() {
			return outputData(status)
		}
		if quiet {
			if ok {
				outln("authenticated")
			} else {
				outln("not signed in")
			}
			return nil
		}

		if !ok {
			outln(display.RenderSignedOut())
			return nil
		}
		who := status.Username
		if who == "" {
			who = "(unknown user)"
		}
		out("✓ Signed in as %s\n", who)
		out("  Token stored in %s\n", status.Storage)
		return nil
	},
}

func storageName(s credstore.TokenStore) string {
	switch s.(type) {
	case *credstore.KeychainStore:
		return "keychain"
	case *credstore.FileStore:
		return "file"
	default:
		return "memory"
	}
}

func init() {
	authLoginCmd.Flags().Bool("no-browser", false, "Print the authorization URL instead of opening a browser")
	authExchangeCmd.Flags().String("verifier", "", "PKCE code verifier sent with the authorization request")
	authLogoutCmd.Flags().BoolP("yes", "y", false, "Skip confirmation")

	authCmd.AddCommand(authLoginCmd)
	authCmd.AddCommand(authExchangeCmd)
	authCmd.AddCommand(authLogoutCmd)
	authCmd.AddCommand(authStatusCmd)
}
