package cli

import (
	"github.com/spf13/cobra"
)

// UserJSON is the machine-readable form of `user`.
type UserJSON struct {
	Login     string `json:"login" yaml:"login"`
	ID        int64  `json:"id" yaml:"id"`
	Name      string `json:"name,omitempty" yaml:"name,omitempty"`
	AvatarURL string `json:"avatar_url,omitempty" yaml:"avatar_url,omitempty"`
}

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Show the signed-in GitHub user",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := openApp(ctx)
		if err != nil {
			return err
		}
		defer closeApp(ctx, a)

		token, err := a.Quota.Token(ctx)
		if err != nil {
			return err
		}
		u, err := a.Users.FetchUser(ctx, token)
		if err != nil {
			return err
		}
		if u.Login != "" {
			_ = a.Tokens.StoreUsername(ctx, u.Login)
		}

		if isMachine() {
			return outputData(UserJSON{Login: u.Login, ID: u.ID, Name: u.Name, AvatarURL: u.AvatarURL})
		}
		if quiet || u.Name == "" {
			outln(u.Login)
			return nil
		}
		out("%s (%s)\n", u.Login, u.Name)
		return nil
	},
}
