package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func whoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the stored session",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.close()

			sess := a.repo.Session()
			if sess == nil {
				fmt.Println("Not signed in.")
				return nil
			}

			if sess.User != nil {
				fmt.Printf("User:    %s <%s>\n", sess.User.DisplayName(), sess.User.Email)
				if sess.User.IsOwner {
					fmt.Println("Role:    owner")
				}
			} else {
				fmt.Println("User:    (no stored record)")
			}
			if sess.SelectedTenantID != "" {
				fmt.Printf("Tenant:  %s\n", sess.SelectedTenantID)
			}
			fmt.Printf("Refresh: %v\n", sess.RefreshToken != "")
			return nil
		},
	}
}
