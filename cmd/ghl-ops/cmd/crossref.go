package cmd

import (
	"github.com/mikey/ghl-ops/internal/config"
	"github.com/mikey/ghl-ops/internal/crossref"
	"github.com/mikey/ghl-ops/internal/report"
	"github.com/mikey/ghl-ops/internal/sources"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func init() {
	rootCmd.AddCommand(crossrefCmd)

	addOutputFlags(crossrefCmd, &crossrefFlags.format, &crossrefFlags.out)
	crossrefCmd.Flags().Float64Var(&crossrefFlags.threshold, "threshold", 0, "minimum Jaro-Winkler similarity for fuzzy name matches (default from config)")
	crossrefCmd.Flags().BoolVar(&crossrefFlags.unmatched, "unmatched", false, "list right-hand rows that matched nothing instead")
}

var crossrefFlags struct {
	format    string
	out       string
	threshold float64
	unmatched bool
}

var crossrefCmd = &cobra.Command{
	Use:   "crossref <left.csv> <right.csv>",
	Short: "Match the contacts of one CSV against another by email, name and fuzzy name.",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, w, closeOut, err := output(crossrefFlags.format, crossrefFlags.out)
		if err != nil {
			return err
		}
		defer closeOut()

		left, err := sources.ReadTableFile(args[0])
		if err != nil {
			return err
		}
		right, err := sources.ReadTableFile(args[1])
		if err != nil {
			return err
		}

		return invoke(func(cfg *config.Config, logger *zap.Logger) error {
			threshold := crossrefFlags.threshold
			if threshold <= 0 {
				threshold = cfg.GetFloat64("crossref.threshold")
			}

			matches := crossref.NewMatcher(threshold).Match(left.Records, right.Records)
			unmatched := crossref.Unmatched(matches, right.Records)
			logger.Info("Cross-referenced contacts",
				zap.Int("left", len(left.Records)),
				zap.Int("right", len(right.Records)),
				zap.Int("unmatched_right", len(unmatched)),
				zap.Float64("threshold", threshold))

			if crossrefFlags.unmatched {
				return report.WriteRecords(w, format, unmatched)
			}
			return report.WriteMatches(w, format, matches)
		})
	},
}
