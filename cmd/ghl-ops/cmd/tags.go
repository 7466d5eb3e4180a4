package cmd

import (
	"fmt"
	"os"

	"github.com/mikey/ghl-ops/internal/ghl"
	"github.com/mikey/ghl-ops/internal/report"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func init() {
	rootCmd.AddCommand(tagsCmd)
	tagsCmd.AddCommand(tagsListCmd, tagsCreateCmd, tagsDeleteCmd)

	tagsListCmd.Flags().StringVarP(&tagsFormat, "format", "f", "table", "output format: table, json or csv")
}

var tagsFormat string

var tagsCmd = &cobra.Command{
	Use:   "tags",
	Short: "Manage the tags of the configured location.",
}

var tagsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List every tag.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := report.ParseFormat(tagsFormat)
		if err != nil {
			return err
		}
		return invoke(func(client *ghl.Client) error {
			tags, err := client.ListTags(cmd.Context())
			if err != nil {
				return err
			}
			return report.WriteTags(os.Stdout, format, tags)
		})
	},
}

var tagsCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create a tag unless it already exists.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return invoke(func(client *ghl.Client) error {
			tag, err := client.EnsureTag(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Println(tag.ID)
			return nil
		})
	},
}

var tagsDeleteCmd = &cobra.Command{
	Use:   "delete <name>",
	Short: "Delete a tag by name.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return invoke(func(client *ghl.Client, logger *zap.Logger) error {
			tag, err := client.FindTag(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if tag == nil {
				return fmt.Errorf("tag %q not found", args[0])
			}
			if err := client.DeleteTag(cmd.Context(), tag.ID); err != nil {
				return err
			}
			logger.Info("Deleted tag", zap.String("tag", tag.Name), zap.String("id", tag.ID))
			return nil
		})
	},
}
