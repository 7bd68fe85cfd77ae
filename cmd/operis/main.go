package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/hungle-gif/operisbe/internal/cli"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "operis",
		Short: "Operis - command-line client for the project portal",
		Long: `Operis talks to the portal API from the terminal: inspect projects,
drive the proposal workflow (send, approve, accept, pay), and follow
project chat. Sessions are stored in ~/.operis/session.json.`,
	}

	rootCmd.AddCommand(cli.LoginCmd())
	rootCmd.AddCommand(cli.LogoutCmd())
	rootCmd.AddCommand(cli.WhoamiCmd())
	rootCmd.AddCommand(cli.ProjectsCmd())
	rootCmd.AddCommand(cli.ProposalCmd())
	rootCmd.AddCommand(cli.ChatCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
