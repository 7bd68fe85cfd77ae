package cli

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// LoginCmd returns the login command
func LoginCmd() *cobra.Command {
	var apiFlag, email, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Authenticate against the portal and store the session",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient(apiFlag)
			if err != nil {
				return err
			}

			reader := bufio.NewReader(cmd.InOrStdin())
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
				raw, err := term.ReadPassword(int(os.Stdin.Fd()))
				fmt.Println()
				if err != nil {
					return err
				}
				password = string(raw)
			}

			profile, err := client.Login(cmd.Context(), email, password)
			if err != nil {
				return err
			}

			color.New(color.FgGreen).Printf("Logged in as %s (%s)\n", profile.FullName, profile.Role)
			return nil
		},
	}

	cmd.Flags().StringVar(&apiFlag, "api-url", "", "Portal API base URL")
	cmd.Flags().StringVar(&email, "email", "", "Account email")
	cmd.Flags().StringVar(&password, "password", "", "Account password (prompted when omitted)")
	return cmd
}

// LogoutCmd returns the logout command
func LogoutCmd() *cobra.Command {
	var apiFlag string

	cmd := &cobra.Command{
		Use:   "logout",
		Short: "Revoke the refresh token and forget the session",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient(apiFlag)
			if err != nil {
				return err
			}
			if err := client.Logout(cmd.Context()); err != nil {
				return err
			}
			fmt.Println("Logged out.")
			return nil
		},
	}

	cmd.Flags().StringVar(&apiFlag, "api-url", "", "Portal API base URL")
	return cmd
}

// WhoamiCmd returns the whoami command
func WhoamiCmd() *cobra.Command {
	var apiFlag string
	var remote bool

	cmd := &cobra.Command{
		Use:   "whoami",
		Short: "Show the logged-in user",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient(apiFlag)
			if err != nil {
				return err
			}

			profile := client.CachedProfile()
			if remote {
				profile, err = client.Me(cmd.Context())
				if err != nil {
					return err
				}
			}
			if profile == nil {
				return fmt.Errorf("not logged in; run `operis login` first")
			}

			fmt.Printf("%s <%s>\n", profile.FullName, profile.Email)
			fmt.Printf("Role: %s\n", profile.Role)
			return nil
		},
	}

	cmd.Flags().StringVar(&apiFlag, "api-url", "", "Portal API base URL")
	cmd.Flags().BoolVar(&remote, "remote", false, "Verify against the server instead of the cached profile")
	return cmd
}
