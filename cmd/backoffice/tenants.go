package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func tenantsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tenants",
		Short: "List the tenants visible to the current user",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.close()

			a.ctrl.Hydrate(cmd.Context())
			snap := a.ctrl.Session()
			if snap == nil {
				return fmt.Errorf("not signed in; run 'backoffice login'")
			}

			if len(snap.Tenants) == 0 {
				fmt.Println("No tenants.")
				return nil
			}
			for _, t := range snap.Tenants {
				marker := " "
				if t.ID == snap.SelectedTenantID {
					marker = "*"
				}
				fmt.Printf("%s %-36s  %s\n", marker, t.ID, t.Label())
			}
			return nil
		},
	}
}

func useCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "use <tenant-id>",
		Short: "Switch the active tenant",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.close()

			a.ctrl.Hydrate(cmd.Context())
			if err := a.ctrl.SetSelectedTenant(cmd.Context(), args[0]); err != nil {
				return err
			}
			// Wait for the permission refetch so the next command sees the
			// converged cache.
			a.ctrl.Close()
			fmt.Printf("Active tenant is now %s\n", args[0])
			return nil
		},
	}
}
