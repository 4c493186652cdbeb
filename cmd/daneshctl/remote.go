package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/danesh-portal/danesh/pkg/client"
)

var remoteCmd = &cobra.Command{
	Use:   "remote",
	Short: "Talk to a running portal over its API",
}

var remoteOpts struct {
	url      string
	username string
	password string
	lang     string
}

var remoteWhoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Log in and print the identity the portal assigns to the session",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		password := remoteOpts.password
		if password == "" {
			password = os.Getenv("DANESH_PASSWORD")
		}
		api := client.New(remoteOpts.url).SetLanguage(remoteOpts.lang)
		return whoami(cmd.Context(), cmd.OutOrStdout(), api, remoteOpts.username, password)
	},
}

func init() {
	f := remoteCmd.PersistentFlags()
	f.StringVar(&remoteOpts.url, "url", "http://localhost:8080/api", "the base url of the portal api")
	f.StringVarP(&remoteOpts.username, "username", "u", "", "the username")
	f.StringVarP(&remoteOpts.password, "password", "p", "", "the password (default $DANESH_PASSWORD)")
	f.StringVar(&remoteOpts.lang, "lang", "fa", "the language of api messages")
	_ = remoteCmd.MarkPersistentFlagRequired("username")
	remoteCmd.AddCommand(remoteWhoamiCmd)
}

func whoami(ctx context.Context, out io.Writer, api *client.Client, username, password string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	state := client.NewAuthState(api, nil)
	if _, err := state.Login(ctx, username, password); err != nil {
		return err
	}
	s := state.Refetch(ctx, nil)
	if !s.Authenticated {
		return fmt.Errorf("the portal did not keep the session of %s", username)
	}
	_, _ = fmt.Fprintf(out, "id:       %d\nusername: %s\nname:     %s\nrole:     %s\ntier:     %s\n",
		s.User.ID, s.User.Username, s.User.Name, s.User.Role, s.User.SubscriptionTier)
	return state.Logout(ctx)
}
