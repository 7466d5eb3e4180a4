package cmd

import (
	"github.com/mikey/ghl-ops/internal/config"
	"github.com/mikey/ghl-ops/internal/report"
	"github.com/mikey/ghl-ops/internal/sources"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(mboxCmd)
	mboxCmd.AddCommand(mboxContactsCmd)

	addOutputFlags(mboxContactsCmd, &mboxFlags.format, &mboxFlags.out)
	mboxContactsCmd.Flags().StringSliceVar(&mboxFlags.self, "self", nil, "own address to exclude (repeatable)")
	mboxContactsCmd.Flags().IntVar(&mboxFlags.minMessages, "min-messages", 1, "only list contacts seen in at least this many messages")
}

var mboxFlags struct {
	format      string
	out         string
	self        []string
	minMessages int
}

var mboxCmd = &cobra.Command{
	Use:   "mbox",
	Short: "Work with mbox mail exports.",
}

var mboxContactsCmd = &cobra.Command{
	Use:   "contacts <file.mbox>",
	Short: "Extract a deduplicated contact list from an mbox export.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, w, closeOut, err := output(mboxFlags.format, mboxFlags.out)
		if err != nil {
			return err
		}
		defer closeOut()

		// Extra self addresses must be set before the suppression checker is built
		if err := invoke(func(cfg *config.Config) {
			if len(mboxFlags.self) > 0 {
				cfg.Set("sync.self_addresses", append(cfg.GetSync().SelfAddresses, mboxFlags.self...))
			}
		}); err != nil {
			return err
		}

		return invoke(func(cfg *config.Config, loader *sources.Loader) error {
			contacts, _, err := loader.ReadMboxFile(args[0], sources.MboxOptions{
				MaxMessageBytes: int64(cfg.GetInt("mbox.max_message_bytes")),
				MinMessages:     mboxFlags.minMessages,
			})
			if err != nil {
				return err
			}
			return report.WriteContacts(w, format, contacts)
		})
	},
}
