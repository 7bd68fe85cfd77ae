package cli

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/hungle-gif/operisbe/pkg/apiclient"
)

// ProjectsCmd returns the projects command group
func ProjectsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "projects",
		Short: "List and inspect projects",
	}
	cmd.AddCommand(projectsListCmd())
	cmd.AddCommand(projectsShowCmd())
	cmd.AddCommand(projectsAcceptCmd())
	cmd.AddCommand(projectsRequestRevisionCmd())
	return cmd
}

func projectsListCmd() *cobra.Command {
	var apiFlag, status string
	var page, limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List projects visible to your role",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient(apiFlag)
			if err != nil {
				return err
			}
			if err := requireRole(client, "admin", "sales", "developer", "customer"); err != nil {
				return err
			}

			result, err := client.Projects(cmd.Context(), status, page, limit)
			if err != nil {
				return err
			}

			if len(result.Items) == 0 {
				fmt.Println("No projects.")
				return nil
			}
			for _, p := range result.Items {
				statusMark := color.New(color.FgCyan).Sprintf("[%s]", p.Status)
				fmt.Printf("%s  %s %s\n", p.ID, p.Name, statusMark)
			}
			fmt.Printf("\nPage %d/%d, %d total\n", result.Page, result.TotalPages, result.Total)
			return nil
		},
	}

	cmd.Flags().StringVar(&apiFlag, "api-url", "", "Portal API base URL")
	cmd.Flags().StringVar(&status, "status", "", "Filter by status")
	cmd.Flags().IntVar(&page, "page", 1, "Page number")
	cmd.Flags().IntVar(&limit, "limit", 20, "Page size")
	return cmd
}

func projectsShowCmd() *cobra.Command {
	var apiFlag string

	cmd := &cobra.Command{
		Use:   "show <project-id>",
		Short: "Show one project with its proposals",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient(apiFlag)
			if err != nil {
				return err
			}
			if err := requireRole(client, "admin", "sales", "developer", "customer"); err != nil {
				return err
			}

			project, err := client.Project(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			fmt.Printf("%s\n", color.New(color.Bold).Sprint(project.Name))
			fmt.Printf("Status:   %s\n", project.Status)
			fmt.Printf("Priority: %s\n", project.Priority)
			if project.Description != "" {
				fmt.Printf("\n%s\n", project.Description)
			}

			proposals, err := client.Proposals(cmd.Context(), project.ID)
			if err != nil {
				return err
			}
			if len(proposals) > 0 {
				fmt.Println("\nProposals:")
				for _, p := range proposals {
					fmt.Printf("  %s  [%s]  total %s %s\n", p.ID, p.Status, p.TotalPrice.StringFixed(0), p.Currency)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&apiFlag, "api-url", "", "Portal API base URL")
	return cmd
}

func projectsAcceptCmd() *cobra.Command {
	var apiFlag, feedback string
	var rating int

	cmd := &cobra.Command{
		Use:   "accept <project-id>",
		Short: "Accept a delivered project and rate it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if rating < 1 || rating > 5 {
				return fmt.Errorf("--rating must be between 1 and 5")
			}
			client, err := newClient(apiFlag)
			if err != nil {
				return err
			}
			if err := requireRole(client, "customer"); err != nil {
				return err
			}

			acc, err := client.SubmitAcceptance(cmd.Context(), args[0], apiclient.AcceptanceSubmission{
				AcceptanceStatus: "accepted",
				Rating:           &rating,
				Feedback:         feedback,
			})
			if err != nil {
				return err
			}

			color.Green("Project accepted (%d stars).", rating)
			if acc.AdminResponse != "" {
				fmt.Printf("Team response: %s\n", acc.AdminResponse)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&apiFlag, "api-url", "", "Portal API base URL")
	cmd.Flags().IntVar(&rating, "rating", 0, "Rating from 1 to 5")
	cmd.Flags().StringVar(&feedback, "feedback", "", "Feedback for the team")
	return cmd
}

func projectsRequestRevisionCmd() *cobra.Command {
	var apiFlag, complaint, details string

	cmd := &cobra.Command{
		Use:   "request-revision <project-id>",
		Short: "Send a delivered project back for revisions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if complaint == "" && details == "" {
				return fmt.Errorf("provide --complaint or --details describing what to fix")
			}
			client, err := newClient(apiFlag)
			if err != nil {
				return err
			}
			if err := requireRole(client, "customer"); err != nil {
				return err
			}

			_, err = client.SubmitAcceptance(cmd.Context(), args[0], apiclient.AcceptanceSubmission{
				AcceptanceStatus: "rejected",
				Complaint:        complaint,
				RevisionDetails:  details,
			})
			if err != nil {
				return err
			}

			color.Yellow("Revision requested. The team will get back to you.")
			return nil
		},
	}

	cmd.Flags().StringVar(&apiFlag, "api-url", "", "Portal API base URL")
	cmd.Flags().StringVar(&complaint, "complaint", "", "What went wrong")
	cmd.Flags().StringVar(&details, "details", "", "Changes or fixes required")
	return cmd
}
