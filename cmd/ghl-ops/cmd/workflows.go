package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/mikey/ghl-ops/internal/ghl"
	"github.com/mikey/ghl-ops/internal/report"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func init() {
	rootCmd.AddCommand(workflowsCmd)
	workflowsCmd.AddCommand(workflowsListCmd, workflowsEnrollCmd, workflowsUnenrollCmd)

	workflowsListCmd.Flags().StringVarP(&workflowsFormat, "format", "f", "table", "output format: table, json or csv")
}

var workflowsFormat string

var workflowsCmd = &cobra.Command{
	Use:   "workflows",
	Short: "List workflows and manage contact enrollment.",
}

var workflowsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List every workflow.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := report.ParseFormat(workflowsFormat)
		if err != nil {
			return err
		}
		return invoke(func(client *ghl.Client) error {
			workflows, err := client.ListWorkflows(cmd.Context())
			if err != nil {
				return err
			}
			return report.WriteWorkflows(os.Stdout, format, workflows)
		})
	},
}

// contactID resolves an email to a contact ID
func contactID(ctx context.Context, client *ghl.Client, email string) (string, error) {
	contact, err := client.FindContactByEmail(ctx, email)
	if err != nil {
		return "", err
	}
	if contact == nil {
		return "", fmt.Errorf("no contact found for %s", email)
	}
	return contact.ID, nil
}

var workflowsEnrollCmd = &cobra.Command{
	Use:   "enroll <email> <workflowID>",
	Short: "Add a contact to a workflow.",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return invoke(func(client *ghl.Client, logger *zap.Logger) error {
			id, err := contactID(cmd.Context(), client, args[0])
			if err != nil {
				return err
			}
			if err := client.AddContactToWorkflow(cmd.Context(), id, args[1]); err != nil {
				return err
			}
			logger.Info("Enrolled contact", zap.String("email", args[0]), zap.String("workflow_id", args[1]))
			return nil
		})
	},
}

var workflowsUnenrollCmd = &cobra.Command{
	Use:   "unenroll <email> <workflowID>",
	Short: "Remove a contact from a workflow.",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return invoke(func(client *ghl.Client, logger *zap.Logger) error {
			id, err := contactID(cmd.Context(), client, args[0])
			if err != nil {
				return err
			}
			if err := client.RemoveContactFromWorkflow(cmd.Context(), id, args[1]); err != nil {
				return err
			}
			logger.Info("Unenrolled contact", zap.String("email", args[0]), zap.String("workflow_id", args[1]))
			return nil
		})
	},
}
