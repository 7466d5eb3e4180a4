package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/mikey/ghl-ops/internal/config"
	"github.com/mikey/ghl-ops/internal/core"
	"github.com/mikey/ghl-ops/internal/ghl"
	"github.com/mikey/ghl-ops/internal/report"
	"github.com/mikey/ghl-ops/internal/sources"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func init() {
	rootCmd.AddCommand(contactsCmd)
	contactsCmd.AddCommand(contactsImportCmd, contactsTagCmd, contactsDeleteCmd)

	f := contactsImportCmd.Flags()
	addOutputFlags(contactsImportCmd, &importFlags.format, &importFlags.out)
	f.StringVar(&importFlags.source, "source", "", "input kind: csv or mbox (default from the file extension)")
	f.StringSliceVar(&importFlags.tags, "tag", nil, "tag to apply to every imported contact (repeatable)")
	f.StringVar(&importFlags.workflow, "workflow", "", "workflow ID to enroll imported contacts in")
	f.BoolVar(&importFlags.dryRun, "dry-run", false, "show what would change without calling the API")
	f.BoolVar(&importFlags.force, "force", false, "re-sync contacts already recorded in the ledger")
	f.IntVar(&importFlags.workers, "workers", 0, "concurrent API workers (default from config)")

	contactsTagCmd.Flags().StringSliceVar(&tagFlags.add, "add", nil, "tag to add (repeatable)")
	contactsTagCmd.Flags().StringSliceVar(&tagFlags.remove, "remove", nil, "tag to remove (repeatable)")

	addOutputFlags(contactsDeleteCmd, &deleteFlags.format, &deleteFlags.out)
	contactsDeleteCmd.Flags().BoolVar(&deleteFlags.dryRun, "dry-run", false, "show what would be deleted without calling the API")
}

var importFlags struct {
	format   string
	out      string
	source   string
	tags     []string
	workflow string
	dryRun   bool
	force    bool
	workers  int
}

var tagFlags struct {
	add    []string
	remove []string
}

var deleteFlags struct {
	format string
	out    string
	dryRun bool
}

var contactsCmd = &cobra.Command{
	Use:   "contacts",
	Short: "Import, tag and delete CRM contacts.",
}

// sourceKind picks the input kind from --source or the file extension
func sourceKind(flag, path string) (sources.Kind, error) {
	if flag != "" {
		return sources.ParseKind(flag)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".mbox", ".mbx":
		return sources.KindMbox, nil
	default:
		return sources.KindCSV, nil
	}
}

// deliver writes the report and emails it when notifications are on
func deliver(ctx context.Context, w io.Writer, format report.Format, r *core.Report, notifier core.Notifier, logger *zap.Logger) error {
	if err := report.WriteSyncReport(w, format, r); err != nil {
		return err
	}
	if notifier != nil {
		if err := notifier.Notify(ctx, r); err != nil {
			logger.Warn("Failed to send report email", zap.Error(err))
		}
	}
	if r.Failed() {
		return fmt.Errorf("%d contacts failed", r.Counts[core.StatusFailed])
	}
	return nil
}

var contactsImportCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import contacts from a CSV or mbox export into GoHighLevel.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, err := sourceKind(importFlags.source, args[0])
		if err != nil {
			return err
		}
		format, w, closeOut, err := output(importFlags.format, importFlags.out)
		if err != nil {
			return err
		}
		defer closeOut()

		return invoke(func(
			cfg *config.Config,
			loader *sources.Loader,
			svc *core.SyncService,
			ledger core.Ledger,
			notifier core.Notifier,
			logger *zap.Logger,
		) error {
			defer ledger.Stop()

			candidates, err := loader.Load(kind, args[0], sources.MboxOptions{
				MaxMessageBytes: int64(cfg.GetInt("mbox.max_message_bytes")),
			})
			if err != nil {
				return err
			}

			r, syncErr := svc.Sync(cmd.Context(), candidates, core.Options{
				Source:     filepath.Base(args[0]),
				Tags:       importFlags.tags,
				WorkflowID: importFlags.workflow,
				DryRun:     importFlags.dryRun,
				Force:      importFlags.force,
				Workers:    importFlags.workers,
			})
			if err := deliver(cmd.Context(), w, format, r, notifier, logger); err != nil {
				return err
			}
			return syncErr
		})
	},
}

var contactsTagCmd = &cobra.Command{
	Use:   "tag <email>",
	Short: "Add or remove tags on a single contact.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(tagFlags.add) == 0 && len(tagFlags.remove) == 0 {
			return fmt.Errorf("nothing to do: pass --add or --remove")
		}

		return invoke(func(client *ghl.Client, logger *zap.Logger) error {
			ctx := cmd.Context()
			contact, err := client.FindContactByEmail(ctx, args[0])
			if err != nil {
				return err
			}
			if contact == nil {
				return fmt.Errorf("no contact found for %s", args[0])
			}

			if len(tagFlags.add) > 0 {
				for _, name := range tagFlags.add {
					if _, err := client.EnsureTag(ctx, name); err != nil {
						return err
					}
				}
				if err := client.AddTags(ctx, contact.ID, tagFlags.add); err != nil {
					return err
				}
			}
			if len(tagFlags.remove) > 0 {
				if err := client.RemoveTags(ctx, contact.ID, tagFlags.remove); err != nil {
					return err
				}
			}

			logger.Info("Updated contact tags",
				zap.String("email", args[0]),
				zap.String("contact_id", contact.ID),
				zap.Strings("added", tagFlags.add),
				zap.Strings("removed", tagFlags.remove))
			return nil
		})
	},
}

// readDeleteTargets treats the argument as a file when it exists, else as
// a single address
func readDeleteTargets(arg string) ([]string, error) {
	f, err := os.Open(arg)
	if err != nil {
		if os.IsNotExist(err) && strings.Contains(arg, "@") {
			return []string{arg}, nil
		}
		return nil, fmt.Errorf("failed to open %s: %w", arg, err)
	}
	defer f.Close()
	return sources.ReadEmailList(f)
}

var contactsDeleteCmd = &cobra.Command{
	Use:   "delete <file.csv|email>",
	Short: "Delete the CRM contacts listed in a file, or a single contact.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		emails, err := readDeleteTargets(args[0])
		if err != nil {
			return err
		}
		if len(emails) == 0 {
			return fmt.Errorf("no email addresses found in %s", args[0])
		}

		format, w, closeOut, err := output(deleteFlags.format, deleteFlags.out)
		if err != nil {
			return err
		}
		defer closeOut()

		return invoke(func(svc *core.SyncService, ledger core.Ledger, notifier core.Notifier, logger *zap.Logger) error {
			defer ledger.Stop()

			r, delErr := svc.Delete(cmd.Context(), emails, filepath.Base(args[0]), deleteFlags.dryRun)
			if err := deliver(cmd.Context(), w, format, r, notifier, logger); err != nil {
				return err
			}
			return delErr
		})
	},
}
