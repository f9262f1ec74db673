package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/verificapessoa/verificapessoa/config"
	"github.com/verificapessoa/verificapessoa/internal/logging"
	"github.com/verificapessoa/verificapessoa/internal/report"
)

// searchCMD runs one background check without accounts or credits and
// prints the report.
func searchCMD(cfgPath *string) *cobra.Command {
	var name, nationalID string
	var asHTML bool
	var search = &cobra.Command{
		Use:   "search",
		Short: "Run a single search and print the report",
		RunE: func(cmd *cobra.Command, args []string) error {
			if name == "" && nationalID == "" {
				return errors.New("one of --name or --national-id is required")
			}
			cfg, err := config.Read(*cfgPath)
			if err != nil {
				return err
			}
			if err := cfg.ValidatePipeline(); err != nil {
				return err
			}
			log, err := logging.NewLogger(cfg.General.Env, cfg.General.LogLevel)
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			svc, err := buildPipeline(cfg, log)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			rep, err := svc.PerformSearch(ctx, report.Subject{Name: name, NationalID: nationalID})
			if err != nil {
				return fmt.Errorf("search: %w", err)
			}
			out := cmd.OutOrStdout()
			if asHTML {
				return report.RenderHTML(out, rep)
			}
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(rep)
		},
	}
	search.Flags().StringVar(&name, "name", "", "full name of the subject")
	search.Flags().StringVar(&nationalID, "national-id", "", "CPF of the subject")
	search.Flags().BoolVar(&asHTML, "html", false, "print the printable HTML report instead of JSON")

	return search
}
