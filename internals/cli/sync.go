// file: internals/cli/sync.go
package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"schoolsync_backend/internals/features/orchestrator"
	orchsvc "schoolsync_backend/internals/features/orchestrator/service"
)

var (
	flagMode        string
	flagFrom        string
	flagTo          string
	flagForceWeekly bool
	flagNonBlocking bool
)

func addRunFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&flagMode, "mode", "auto", "auto|init|init-if-empty|daily|weekly-deep|backfill")
	cmd.Flags().StringVar(&flagFrom, "from", "", "window start (YYYY-MM-DD), required for backfill")
	cmd.Flags().StringVar(&flagTo, "to", "", "window end (YYYY-MM-DD), required for backfill")
	cmd.Flags().BoolVar(&flagForceWeekly, "force-weekly-deep", false, "run the weekly deep pass regardless of weekday")
	cmd.Flags().BoolVar(&flagNonBlocking, "non-blocking", false, "abort instead of waiting when the stage lock is held")
}

func buildOptions() (orchsvc.Options, error) {
	if !orchestrator.ValidMode(flagMode) {
		return orchsvc.Options{}, fmt.Errorf("unknown mode %q", flagMode)
	}
	from, err := parseDate(flagFrom)
	if err != nil {
		return orchsvc.Options{}, err
	}
	to, err := parseDate(flagTo)
	if err != nil {
		return orchsvc.Options{}, err
	}
	return orchsvc.Options{
		Mode:            orchestrator.Mode(flagMode),
		From:            from,
		To:              to,
		ForceWeeklyDeep: flagForceWeekly,
		NonBlocking:     flagNonBlocking,
	}, nil
}

func runStage(stage func(*orchsvc.Orchestrator, context.Context, orchsvc.Options) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		opts, err := buildOptions()
		if err != nil {
			return err
		}
		a, err := buildApp()
		if err != nil {
			return err
		}
		defer a.close()
		if err := stage(a.Orch, cmd.Context(), opts); err != nil {
			a.Log.Errorw("run failed", "mode", flagMode, "err", err)
			return err
		}
		return nil
	}
}

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Pull source endpoints into the ingestion ledger (raw stage)",
	RunE: runStage(func(o *orchsvc.Orchestrator, ctx context.Context, opts orchsvc.Options) error {
		return o.RunRaw(ctx, opts)
	}),
}

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Project the ledger into entity tables (core stage)",
	RunE: runStage(func(o *orchsvc.Orchestrator, ctx context.Context, opts orchsvc.Options) error {
		return o.RunCore(ctx, opts)
	}),
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run both stages: ingest, then sync",
	RunE: runStage(func(o *orchsvc.Orchestrator, ctx context.Context, opts orchsvc.Options) error {
		return o.Run(ctx, opts)
	}),
}

func init() {
	addRunFlags(ingestCmd)
	addRunFlags(syncCmd)
	addRunFlags(runCmd)
	rootCmd.AddCommand(ingestCmd, syncCmd, runCmd)
}
