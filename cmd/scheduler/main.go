package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"loancrm/internal/adapter/middleware"
	"loancrm/internal/app"
	"loancrm/internal/config"
	"loancrm/internal/domain/user"
	"loancrm/internal/logging"
	"loancrm/internal/usecase/escalation"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "scheduler",
		Short: "Escalation runs and operator tooling for loancrm",
	}
	rootCmd.AddCommand(runCmd())
	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(tokenCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// boot loads config and builds the app; the caller closes it.
func boot(ctx context.Context) (*app.App, logging.Logger, error) {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("config: %w", err)
	}
	if cfg.DBDriver == config.DriverSQLite {
		return nil, nil, app.ErrEscalationUnsupported
	}
	logger, err := logging.New("loancrm-scheduler", cfg.LogLevel)
	if err != nil {
		return nil, nil, err
	}
	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	return a, logger, nil
}

func runCmd() *cobra.Command {
	var date string
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run every escalation scan once and print the report",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, _, err := boot(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			now := time.Now()
			if date != "" {
				if now, err = escalation.At(date, now, a.Cfg.Location()); err != nil {
					return err
				}
			}
			rep, err := a.Escalation.Run(ctx, now)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(map[string]any{"report": rep, "totals": rep.Totals()})
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "replay the run for this day (YYYY-MM-DD)")
	return cmd
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the escalation scans on ESCALATION_INTERVAL until stopped",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, logger, err := boot(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			logger.Info(ctx, "scheduler started", "interval", a.Cfg.Escalation.Interval.String())
			loop(ctx, a.Escalation, a.Cfg.Escalation.Interval, time.Now, logger)
			return nil
		},
	}
}

func tokenCmd() *cobra.Command {
	var (
		userID uint64
		role   string
		ttl    time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue an API bearer token for a user",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			if cfg.JWTSecret == "" {
				return errors.New("missing JWT_SECRET")
			}
			r := user.Role(role)
			if !r.Valid() {
				return fmt.Errorf("unknown role %q", role)
			}
			tok, err := middleware.IssueToken([]byte(cfg.JWTSecret), userID, r, ttl, time.Now())
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), tok)
			return err
		},
	}
	cmd.Flags().Uint64Var(&userID, "user", 0, "user id")
	cmd.Flags().StringVar(&role, "role", string(user.RoleAdmin), "admin, broker, bd or client")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "token lifetime")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}
