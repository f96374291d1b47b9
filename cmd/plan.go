package main

import (
	"context"
	"encoding/json"
	"os"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var planTimeout int

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Run one planning cycle: scan, price, and alert on the best deal",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initPlanner(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		timeout := planTimeout
		if timeout == 0 {
			timeout = cfg.Planner.TimeoutSecs
		}
		runCtx, cancel := context.WithTimeout(ctx, time.Duration(timeout)*time.Second)
		defer cancel()

		memory, err := env.Store.Memory(runCtx)
		if err != nil {
			return eris.Wrap(err, "load memory")
		}

		best, err := env.Planner.Plan(runCtx, memory)
		if err != nil {
			return eris.Wrap(err, "planner run")
		}

		if best == nil {
			zap.L().Info("plan complete, no opportunity surfaced")
			return nil
		}

		record, err := env.Store.SaveOpportunity(runCtx, *best, true)
		if err != nil {
			return eris.Wrap(err, "save opportunity")
		}

		zap.L().Info("plan complete",
			zap.String("record_id", record.ID),
			zap.String("url", best.Deal.URL),
			zap.Float64("discount", best.Discount),
		)

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(record)
	},
}

func init() {
	planCmd.Flags().IntVar(&planTimeout, "timeout", 0, "run timeout in seconds (default from config)")
	rootCmd.AddCommand(planCmd)
}
