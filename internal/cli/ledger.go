package cli

import (
	"context"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/bytedance/sonic"
	"github.com/spf13/cobra"

	"github.com/tokligence/tokligence-datastream/internal/config"
	"github.com/tokligence/tokligence-datastream/internal/ledger"
	"github.com/tokligence/tokligence-datastream/internal/ledger/postgres"
	"github.com/tokligence/tokligence-datastream/internal/ledger/sqlite"
)

// openLedger opens the store selected by cfg.LedgerDriver.
func openLedger(ctx context.Context, cfg config.Config) (ledger.Store, error) {
	switch cfg.LedgerDriver {
	case config.LedgerPostgres:
		return postgres.New(ctx, cfg.LedgerDSN, postgres.Options{
			MaxOpenConns:    4,
			MaxIdleConns:    2,
			ConnMaxLifetime: 5 * time.Minute,
		})
	case config.LedgerSQLite, "":
		return sqlite.New(cfg.LedgerPath)
	default:
		return nil, fmt.Errorf("unsupported ledger driver %q", cfg.LedgerDriver)
	}
}

func newLedgerCommand(a *app) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "ledger",
		Short: "Inspect token usage recorded by encode",
	}
	cmd.PersistentFlags().BoolVar(&asJSON, "json", false, "Print JSON instead of text")

	var model string
	summary := &cobra.Command{
		Use:   "summary",
		Short: "Show aggregated token usage",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withLedger(cmd, func(ctx context.Context, store ledger.Store) error {
				sum, err := store.Summary(ctx, model)
				if err != nil {
					return err
				}
				if asJSON {
					return printJSON(cmd, sum)
				}
				out := cmd.OutOrStdout()
				if model != "" {
					fmt.Fprintf(out, "model:             %s\n", model)
				}
				fmt.Fprintf(out, "entries:           %d\n", sum.Entries)
				fmt.Fprintf(out, "prompt tokens:     %d\n", sum.PromptTokens)
				fmt.Fprintf(out, "completion tokens: %d\n", sum.CompletionTokens)
				fmt.Fprintf(out, "total tokens:      %d\n", sum.TotalTokens)
				fmt.Fprintf(out, "records:           %d\n", sum.Records)
				fmt.Fprintf(out, "bytes:             %d\n", sum.Bytes)
				return nil
			})
		},
	}
	summary.Flags().StringVar(&model, "model", "", "Only count entries for this model")

	var limit int
	recent := &cobra.Command{
		Use:   "recent",
		Short: "List the most recent encode runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if limit <= 0 {
				return ExitError{Code: exitUsage, Err: fmt.Errorf("--limit must be positive, got %d", limit)}
			}
			return a.withLedger(cmd, func(ctx context.Context, store ledger.Store) error {
				entries, err := store.ListRecent(ctx, limit)
				if err != nil {
					return err
				}
				if asJSON {
					return printJSON(cmd, entries)
				}
				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
				fmt.Fprintln(tw, "CREATED\tSOURCE\tMODEL\tMODE\tTOTAL\tRECORDS\tFALLBACKS")
				for _, e := range entries {
					fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%d\t%d\n",
						e.CreatedAt.Format(time.RFC3339), e.Source, orDash(e.Model), e.Mode,
						tokens(e.TotalTokens), e.Records, e.Fallbacks)
				}
				return tw.Flush()
			})
		},
	}
	recent.Flags().IntVarP(&limit, "limit", "n", 10, "Number of entries to list")

	cmd.AddCommand(summary, recent)
	return cmd
}

func (a *app) withLedger(cmd *cobra.Command, fn func(context.Context, ledger.Store) error) error {
	cleanup, err := a.setup(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	store, err := openLedger(ctx, a.cfg)
	if err != nil {
		return ExitError{Code: exitConfig, Err: fmt.Errorf("open ledger: %w", err)}
	}
	defer store.Close()
	if err := fn(ctx, store); err != nil {
		a.log("ledger").WithError(err).Error("ledger query failed")
		return ExitError{Code: exitFailure, Err: err}
	}
	return nil
}

func printJSON(cmd *cobra.Command, v any) error {
	out, err := sonic.ConfigStd.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), string(out))
	return err
}

func tokens(v *int64) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprint(*v)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
