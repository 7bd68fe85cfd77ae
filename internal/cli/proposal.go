package cli

import (
	"fmt"
	"strconv"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// ProposalCmd returns the proposal command group covering the full workflow:
// sending, sectional approval, acceptance, and deposit/phase payments.
func ProposalCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "proposal",
		Short: "Work with project proposals",
	}
	cmd.AddCommand(proposalShowCmd())
	cmd.AddCommand(proposalSendCmd())
	cmd.AddCommand(proposalApproveSectionCmd())
	cmd.AddCommand(proposalAcceptCmd())
	cmd.AddCommand(proposalRejectCmd())
	cmd.AddCommand(proposalPayDepositCmd())
	cmd.AddCommand(proposalPhaseCmd())
	cmd.AddCommand(proposalQRCmd())
	return cmd
}

func checkmark(ok bool) string {
	if ok {
		return color.New(color.FgGreen).Sprint("✓")
	}
	return color.New(color.FgRed).Sprint("✗")
}

func proposalShowCmd() *cobra.Command {
	var apiFlag string

	cmd := &cobra.Command{
		Use:   "show <proposal-id>",
		Short: "Show a proposal's sections, approvals and phase progress",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient(apiFlag)
			if err != nil {
				return err
			}
			if err := requireRole(client, "admin", "sales", "developer", "customer"); err != nil {
				return err
			}

			p, err := client.Proposal(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			fmt.Printf("Proposal %s  [%s]\n", p.ID, color.New(color.FgCyan).Sprint(p.Status))
			fmt.Printf("Total: %s %s   Deposit: %s %s (paid: %s)\n",
				p.TotalPrice.StringFixed(0), p.Currency,
				p.DepositAmount.StringFixed(0), p.Currency, checkmark(p.DepositPaid))
			fmt.Printf("Duration: %d days\n", p.EstimatedDurationDays)

			fmt.Println("\nCustomer approvals:")
			fmt.Printf("  analysis %s  deposit %s  phases %s  team %s  commitments %s\n",
				checkmark(p.CustomerApprovals.Analysis),
				checkmark(p.CustomerApprovals.Deposit),
				checkmark(p.CustomerApprovals.Phases),
				checkmark(p.CustomerApprovals.Team),
				checkmark(p.CustomerApprovals.Commitments))

			if len(p.Phases) > 0 {
				fmt.Println("\nPhases:")
				for i, phase := range p.Phases {
					fmt.Printf("  %d. %-30s %s %s  done %s  paid %s\n",
						i, phase.Name, phase.Amount.StringFixed(0), p.Currency,
						checkmark(phase.Completed), checkmark(phase.PaymentApproved))
				}
			}
			if p.RejectionReason != "" {
				fmt.Printf("\nRejection reason: %s\n", p.RejectionReason)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&apiFlag, "api-url", "", "Portal API base URL")
	return cmd
}

func proposalSendCmd() *cobra.Command {
	var apiFlag string

	cmd := &cobra.Command{
		Use:   "send <proposal-id>",
		Short: "Validate a draft locally and send it to the customer",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient(apiFlag)
			if err != nil {
				return err
			}
			if err := requireRole(client, "admin", "sales"); err != nil {
				return err
			}

			p, err := client.SendProposal(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			color.New(color.FgGreen).Printf("Proposal sent; status is now %s\n", p.Status)
			return nil
		},
	}

	cmd.Flags().StringVar(&apiFlag, "api-url", "", "Portal API base URL")
	return cmd
}

func proposalApproveSectionCmd() *cobra.Command {
	var apiFlag string

	cmd := &cobra.Command{
		Use:   "approve-section <proposal-id> <section>",
		Short: "Approve one section (analysis, deposit, phases, team, commitments)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient(apiFlag)
			if err != nil {
				return err
			}
			if err := requireRole(client, "customer"); err != nil {
				return err
			}

			p, err := client.ApproveSection(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			if p.Status == "accepted" {
				color.New(color.FgGreen).Println("All sections approved; proposal accepted.")
			} else {
				fmt.Printf("Section %q approved.\n", args[1])
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&apiFlag, "api-url", "", "Portal API base URL")
	return cmd
}

func proposalAcceptCmd() *cobra.Command {
	var apiFlag, notes string

	cmd := &cobra.Command{
		Use:   "accept <proposal-id>",
		Short: "Accept the proposal outright",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient(apiFlag)
			if err != nil {
				return err
			}
			if err := requireRole(client, "customer"); err != nil {
				return err
			}

			p, err := client.AcceptProposal(cmd.Context(), args[0], notes)
			if err != nil {
				return err
			}
			color.New(color.FgGreen).Printf("Proposal accepted; status is now %s\n", p.Status)
			return nil
		},
	}

	cmd.Flags().StringVar(&apiFlag, "api-url", "", "Portal API base URL")
	cmd.Flags().StringVar(&notes, "notes", "", "Notes for the sales team")
	return cmd
}

func proposalRejectCmd() *cobra.Command {
	var apiFlag, reason string

	cmd := &cobra.Command{
		Use:   "reject <proposal-id>",
		Short: "Send the proposal back to negotiation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if reason == "" {
				return fmt.Errorf("--reason is required")
			}
			client, err := newClient(apiFlag)
			if err != nil {
				return err
			}
			if err := requireRole(client, "customer"); err != nil {
				return err
			}

			p, err := client.RejectProposal(cmd.Context(), args[0], reason)
			if err != nil {
				return err
			}
			fmt.Printf("Proposal sent back; status is now %s\n", p.Status)
			return nil
		},
	}

	cmd.Flags().StringVar(&apiFlag, "api-url", "", "Portal API base URL")
	cmd.Flags().StringVar(&reason, "reason", "", "Why the proposal needs rework")
	return cmd
}

func proposalPayDepositCmd() *cobra.Command {
	var apiFlag string

	cmd := &cobra.Command{
		Use:   "pay-deposit <proposal-id>",
		Short: "Report that the deposit was transferred",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient(apiFlag)
			if err != nil {
				return err
			}
			if err := requireRole(client, "customer"); err != nil {
				return err
			}

			if _, err := client.SubmitDepositPayment(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Println("Deposit payment submitted; waiting for confirmation.")
			return nil
		},
	}

	cmd.Flags().StringVar(&apiFlag, "api-url", "", "Portal API base URL")
	return cmd
}

// phaseArgs parses the shared <proposal-id> <phase-index> argument pair.
func phaseArgs(args []string) (string, int, error) {
	idx, err := strconv.Atoi(args[1])
	if err != nil {
		return "", 0, fmt.Errorf("phase index must be a number")
	}
	return args[0], idx, nil
}

func proposalPhaseCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "phase",
		Short: "Phase operations: complete, pay, approve-payment",
	}

	var completeAPI string
	complete := &cobra.Command{
		Use:   "complete <proposal-id> <phase-index>",
		Short: "Mark a phase as finished (staff)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient(completeAPI)
			if err != nil {
				return err
			}
			if err := requireRole(client, "admin", "sales"); err != nil {
				return err
			}
			id, idx, err := phaseArgs(args)
			if err != nil {
				return err
			}
			if _, err := client.CompletePhase(cmd.Context(), id, idx); err != nil {
				return err
			}
			fmt.Printf("Phase %d marked complete.\n", idx)
			return nil
		},
	}
	complete.Flags().StringVar(&completeAPI, "api-url", "", "Portal API base URL")

	var payAPI string
	pay := &cobra.Command{
		Use:   "pay <proposal-id> <phase-index>",
		Short: "Report a phase payment transfer (customer)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient(payAPI)
			if err != nil {
				return err
			}
			if err := requireRole(client, "customer"); err != nil {
				return err
			}
			id, idx, err := phaseArgs(args)
			if err != nil {
				return err
			}
			if _, err := client.SubmitPhasePayment(cmd.Context(), id, idx); err != nil {
				return err
			}
			fmt.Printf("Phase %d payment submitted; waiting for confirmation.\n", idx)
			return nil
		},
	}
	pay.Flags().StringVar(&payAPI, "api-url", "", "Portal API base URL")

	var approveAPI string
	approve := &cobra.Command{
		Use:   "approve-payment <proposal-id> <phase-index>",
		Short: "Confirm a phase payment arrived (staff)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient(approveAPI)
			if err != nil {
				return err
			}
			if err := requireRole(client, "admin", "sales"); err != nil {
				return err
			}
			id, idx, err := phaseArgs(args)
			if err != nil {
				return err
			}
			if _, err := client.ApprovePhasePayment(cmd.Context(), id, idx); err != nil {
				return err
			}
			fmt.Printf("Phase %d payment approved.\n", idx)
			return nil
		},
	}
	approve.Flags().StringVar(&approveAPI, "api-url", "", "Portal API base URL")

	cmd.AddCommand(complete, pay, approve)
	return cmd
}

func proposalQRCmd() *cobra.Command {
	var apiFlag string
	var phase int

	cmd := &cobra.Command{
		Use:   "qr <proposal-id>",
		Short: "Print the VietQR payment image URL",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient(apiFlag)
			if err != nil {
				return err
			}
			if err := requireRole(client, "admin", "sales", "developer", "customer"); err != nil {
				return err
			}

			var phasePtr *int
			if cmd.Flags().Changed("phase") {
				phasePtr = &phase
			}
			url, err := client.PaymentQR(cmd.Context(), args[0], phasePtr)
			if err != nil {
				return err
			}
			fmt.Println(url)
			return nil
		},
	}

	cmd.Flags().StringVar(&apiFlag, "api-url", "", "Portal API base URL")
	cmd.Flags().IntVar(&phase, "phase", 0, "Phase index; omit for the deposit QR")
	return cmd
}
