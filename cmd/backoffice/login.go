package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/common-nighthawk/go-figure"
	"github.com/spf13/cobra"
)

func loginCmd() *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and store the session locally",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.close()

			displayAppName(a.cfg.AppName)

			reader := bufio.NewReader(os.Stdin)
			if email == "" {
				fmt.Print("Email: ")
				line, err := reader.ReadString('\n')
				if err != nil {
					return err
				}
				email = strings.TrimSpace(line)
			}
			if password == "" {
				fmt.Print("Password: ")
				line, err := reader.ReadString('\n')
				if err != nil {
					return err
				}
				password = strings.TrimSpace(line)
			}

			if err := a.ctrl.Login(cmd.Context(), email, password); err != nil {
				return err
			}

			snap := a.ctrl.Session()
			fmt.Printf("Signed in as %s", snap.User.DisplayName())
			if snap.SelectedTenantID != "" {
				fmt.Printf(" (tenant %s)", snap.SelectedTenantID)
			}
			fmt.Println()
			return nil
		},
	}

	cmd.Flags().StringVarP(&email, "email", "e", "", "Account email")
	cmd.Flags().StringVarP(&password, "password", "p", "", "Account password (prompted when omitted)")

	return cmd
}

func displayAppName(name string) {
	fig := figure.NewFigure(name, "cybermedium", true)
	fig.Print()
	fmt.Println()
}
