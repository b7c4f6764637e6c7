// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/jeranaias/howto/internal/telemetry"
	"github.com/jeranaias/howto/internal/ui/styles"
)

// errLedgerDisabled is returned by "howto usage" when usage_db is unset.
var errLedgerDisabled = errors.New("usage ledger is disabled; set usage_db in the config file")

func newUsageCmd(opts *rootOptions) *cobra.Command {
	var days int

	cmd := &cobra.Command{
		Use:   "usage",
		Short: "Show token and cost totals from the usage ledger",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, _ []string) error {
			if days < 0 {
				return &UsageError{Err: fmt.Errorf("--days must not be negative (got %d)", days)}
			}

			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			closer := setupLogging(cfg, opts, false)
			defer closer.Close()

			if cfg.UsageDB == "" {
				return &ConfigError{Err: errLedgerDisabled}
			}

			ledger, err := telemetry.OpenLedger(cfg.UsageDB)
			if err != nil {
				return err
			}
			defer ledger.Close()

			var since time.Time
			if days > 0 {
				since = time.Now().AddDate(0, 0, -days)
			}
			totals, err := ledger.Totals(cmd.Context(), since)
			if err != nil {
				return err
			}
			printTotals(cmd.OutOrStdout(), totals, days)
			return nil
		},
	}

	cmd.Flags().IntVar(&days, "days", 30, "Number of days to include (0 for all)")
	return cmd
}

// printTotals writes a usage summary.
func printTotals(w io.Writer, t telemetry.Totals, days int) {
	period := "all time"
	if days > 0 {
		period = fmt.Sprintf("last %d days", days)
	}

	fmt.Fprintf(w, "Usage (%s)\n", period)
	fmt.Fprintf(w, "  Queries:   %d\n", t.Queries)
	fmt.Fprintf(w, "  Tokens:    %d\n", t.Tokens)
	fmt.Fprintf(w, "  Fragments: %d\n", t.Fragments)
	fmt.Fprintf(w, "  Time:      %s\n", t.Duration.Round(time.Second))
	fmt.Fprintln(w, styles.Cost.Render(fmt.Sprintf("  Cost:      %.4f USD", t.Cost)))
	if t.Queries > 0 && t.Cost == 0 {
		fmt.Fprintln(w, styles.Muted.Render("  (set cost_per_token to track cost)"))
	}
}
