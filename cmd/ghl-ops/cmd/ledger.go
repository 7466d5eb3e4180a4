package cmd

import (
	"github.com/mikey/ghl-ops/internal/core"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func init() {
	rootCmd.AddCommand(ledgerCmd)
	ledgerCmd.AddCommand(ledgerPurgeCmd, ledgerForgetCmd)
}

var ledgerCmd = &cobra.Command{
	Use:   "ledger",
	Short: "Maintain the local record of synced contacts.",
}

var ledgerPurgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Remove expired ledger entries.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return invoke(func(ledger core.Ledger, logger *zap.Logger) error {
			defer ledger.Stop()
			if err := ledger.Cleanup(cmd.Context()); err != nil {
				return err
			}
			logger.Info("Purged expired ledger entries")
			return nil
		})
	},
}

var ledgerForgetCmd = &cobra.Command{
	Use:   "forget <email>...",
	Short: "Forget contacts so the next import syncs them again.",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return invoke(func(ledger core.Ledger, logger *zap.Logger) error {
			defer ledger.Stop()
			for _, email := range args {
				if err := ledger.Delete(cmd.Context(), email); err != nil {
					return err
				}
				logger.Debug("Forgot contact", zap.String("email", email))
			}
			return nil
		})
	},
}
