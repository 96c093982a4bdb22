package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/meridianiam/flowguard/internal/audit"
)

func newAuditCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "audit",
		Short: "Re-run the loop checker once over every stored model set and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
				Level: parseLogLevel(cfg.Log.Level),
			}))

			report, err := audit.RunOnce(cmd.Context(), cfg, logger)
			if err != nil {
				return fmt.Errorf("running audit: %w", err)
			}

			fmt.Printf("checked %d model set(s), %d failing\n", report.Checked, len(report.Issues))
			for _, issue := range report.Issues {
				fmt.Printf("  %s: %s\n", issue.ModelSetID, issue.Message)
			}
			if len(report.Issues) > 0 {
				os.Exit(1)
			}
			return nil
		},
	}
}
