package cli

import (
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/hungle-gif/operisbe/pkg/apiclient"
)

// ChatCmd returns the chat command group
func ChatCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Project conversations",
	}
	cmd.AddCommand(chatTailCmd())
	cmd.AddCommand(chatSendCmd())
	return cmd
}

func chatTailCmd() *cobra.Command {
	var apiFlag string
	var interval time.Duration

	cmd := &cobra.Command{
		Use:   "tail <project-id>",
		Short: "Follow a project's messages until interrupted",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient(apiFlag)
			if err != nil {
				return err
			}
			if err := requireRole(client, "admin", "sales", "developer", "customer"); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			me := client.CachedProfile()
			sender := color.New(color.FgCyan)
			mine := color.New(color.FgGreen)

			poller := &apiclient.ChatPoller{
				Client:    client,
				ProjectID: args[0],
				Interval:  interval,
				OnMessage: func(msg apiclient.ChatMessage) {
					name := msg.SenderID[:8]
					if msg.Sender != nil {
						name = msg.Sender.FullName
					}
					style := sender
					if me != nil && msg.SenderID == me.ID {
						style = mine
					}
					fmt.Printf("%s %s: %s\n",
						msg.CreatedAt.Local().Format("15:04"),
						style.Sprint(name), msg.Message)
				},
				OnError: func(err error) {
					fmt.Fprintf(os.Stderr, "poll error: %v\n", err)
				},
			}

			err = poller.Run(ctx)
			if ctx.Err() != nil {
				return nil // interrupted by the user
			}
			return err
		},
	}

	cmd.Flags().StringVar(&apiFlag, "api-url", "", "Portal API base URL")
	cmd.Flags().DurationVar(&interval, "interval", 3*time.Second, "Poll interval")
	return cmd
}

func chatSendCmd() *cobra.Command {
	var apiFlag string

	cmd := &cobra.Command{
		Use:   "send <project-id> <message>",
		Short: "Post a message into the project conversation",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient(apiFlag)
			if err != nil {
				return err
			}
			if err := requireRole(client, "admin", "sales", "developer", "customer"); err != nil {
				return err
			}

			text := args[1]
			for _, extra := range args[2:] {
				text += " " + extra
			}
			if _, err := client.SendMessage(cmd.Context(), args[0], text); err != nil {
				return err
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&apiFlag, "api-url", "", "Portal API base URL")
	return cmd
}
