package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/quentra/backoffice-client/permissions"
)

func permsCmd() *cobra.Command {
	var refresh bool

	cmd := &cobra.Command{
		Use:   "perms",
		Short: "Show the cached permissions for the active tenant",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.close()

			sess := a.repo.Session()
			if sess == nil {
				return fmt.Errorf("not signed in; run 'backoffice login'")
			}
			if sess.User != nil && sess.User.IsOwner {
				fmt.Println("Owner account: permission scoping does not apply.")
				return nil
			}

			actions := sess.Permissions
			if refresh {
				if sess.User == nil || sess.SelectedTenantID == "" {
					return fmt.Errorf("cannot refresh: user record or tenant selection missing")
				}
				resolver := permissions.NewResolver(a.gw, a.repo)
				if actions, err = resolver.Fetch(cmd.Context(), sess.User.ID, sess.SelectedTenantID); err != nil {
					return err
				}
			}

			if len(actions) == 0 {
				fmt.Println("No permissions cached for the active tenant.")
				return nil
			}
			for _, action := range actions {
				fmt.Println(action)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&refresh, "refresh", false, "Refetch permissions from the server")

	return cmd
}
