package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/danesh-portal/danesh/cmd/danesh/config"
	"github.com/danesh-portal/danesh/storage"
	"github.com/danesh-portal/danesh/storage/model"
)

var usersCmd = &cobra.Command{
	Use:                "users",
	Short:              "Manage portal accounts",
	PersistentPreRunE:  openStorage,
	PersistentPostRunE: closeStorage,
}

var newUser model.NewUser

var usersCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create an account",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		u, err := createUser(backends.Users, newUser)
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "created user %s (id %d, role %s)\n", u.Username, u.ID, u.Role)
		return nil
	},
}

var usersListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all accounts",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return listUsers(cmd.OutOrStdout(), backends.Users)
	},
}

var usersSetRoleCmd = &cobra.Command{
	Use:   "set-role <username> <admin|user>",
	Short: "Change the role of an account",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		u, err := setRole(backends.Users, args[0], model.Role(args[1]))
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s is now %s\n", u.Username, u.Role)
		return nil
	},
}

var usersDisableCmd = &cobra.Command{
	Use:   "disable <username>",
	Short: "Disable an account; its sessions end on the next request when identity refresh is enabled",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		u, err := setDisabled(backends.Users, args[0], true)
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "disabled %s\n", u.Username)
		return nil
	},
}

var usersEnableCmd = &cobra.Command{
	Use:   "enable <username>",
	Short: "Enable a disabled account",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		u, err := setDisabled(backends.Users, args[0], false)
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "enabled %s\n", u.Username)
		return nil
	},
}

var bootstrapCmd = &cobra.Command{
	Use:                "bootstrap",
	Short:              "Create the configured admin account if no admin exists",
	Args:               cobra.NoArgs,
	PersistentPreRunE:  openStorage,
	PersistentPostRunE: closeStorage,
	RunE: func(cmd *cobra.Command, _ []string) error {
		u, generated, err := storage.EnsureBootstrapAdmin(
			backends.Users, backends.KV, config.Get().API.BootstrapAdmin,
		)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if u == nil {
			_, _ = fmt.Fprintln(out, "an admin account already exists")
			return nil
		}
		_, _ = fmt.Fprintf(out, "created admin %s\n", u.Username)
		if generated != "" {
			_, _ = fmt.Fprintf(out, "generated password: %s\n", generated)
		}
		return nil
	},
}

func init() {
	f := usersCreateCmd.Flags()
	f.StringVarP(&newUser.Username, "username", "u", "", "the username")
	f.StringVarP(&newUser.Password, "password", "p", "", "the password")
	f.StringVar(&newUser.Name, "name", "", "the display name")
	f.StringVar(&newUser.Email, "email", "", "the email address")
	f.StringVar((*string)(&newUser.Role), "role", string(model.RoleUser), "the role (admin or user)")
	_ = usersCreateCmd.MarkFlagRequired("username")
	_ = usersCreateCmd.MarkFlagRequired("password")

	usersCmd.AddCommand(usersCreateCmd, usersListCmd, usersSetRoleCmd, usersDisableCmd, usersEnableCmd)
}

func createUser(users model.UsersStore, u model.NewUser) (*model.User, error) {
	if u.Role == "" {
		u.Role = model.RoleUser
	}
	if !u.Role.Valid() {
		return nil, errors.Errorf("invalid role '%s'", u.Role)
	}
	return users.Create(u)
}

func listUsers(out io.Writer, users model.UsersStore) error {
	all, err := users.List()
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tUSERNAME\tNAME\tROLE\tTIER\tDISABLED")
	for _, u := range all {
		_, _ = fmt.Fprintf(
			w, "%d\t%s\t%s\t%s\t%s\t%t\n", u.ID, u.Username, u.Name, u.Role, u.SubscriptionTier, u.Disabled,
		)
	}
	return w.Flush()
}

// lastAdminCheck refuses changes that would leave the portal without an
// active admin
func lastAdminCheck(users model.UsersStore, u *model.User) error {
	if u.Role != model.RoleAdmin || u.Disabled {
		return nil
	}
	admins, err := users.CountByRole(model.RoleAdmin)
	if err != nil {
		return err
	}
	if admins <= 1 {
		return errors.Errorf("%s is the last admin", u.Username)
	}
	return nil
}

func setRole(users model.UsersStore, username string, role model.Role) (*model.User, error) {
	if !role.Valid() {
		return nil, errors.Errorf("invalid role '%s'", role)
	}
	u, err := users.GetByUsername(username)
	if err != nil {
		return nil, err
	}
	if role != model.RoleAdmin {
		if err = lastAdminCheck(users, u); err != nil {
			return nil, err
		}
	}
	return users.Update(u.ID, model.UserUpdate{Role: &role})
}

func setDisabled(users model.UsersStore, username string, disabled bool) (*model.User, error) {
	u, err := users.GetByUsername(username)
	if err != nil {
		return nil, err
	}
	if disabled {
		if err = lastAdminCheck(users, u); err != nil {
			return nil, err
		}
	}
	return users.Update(u.ID, model.UserUpdate{Disabled: &disabled})
}
