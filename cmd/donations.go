package cmd

import (
	"context"
	"encoding/json"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/vibast-solutions/ms-go-donations/app/mapper"
	"github.com/vibast-solutions/ms-go-donations/app/service"
	"github.com/vibast-solutions/ms-go-donations/config"
)

var (
	workerMode bool

	listStatus   string
	listProvider string
	listEmail    string
	listLimit    int32
	listOffset   int32

	decisionNote string
)

var donationsCmd = &cobra.Command{
	Use:   "donations",
	Short: "Inspect and review donations in the ledger",
}

var donationsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List donations, newest first",
	Args:  cobra.NoArgs,
	Run: func(_ *cobra.Command, _ []string) {
		runCommand("donations_list", nil, func(s *service.DonationService, ctx context.Context) error {
			items, err := s.ListDonations(ctx, service.ListDonationsFilter{
				Status:     listStatus,
				Provider:   listProvider,
				DonorEmail: listEmail,
				Limit:      listLimit,
				Offset:     listOffset,
			})
			if err != nil {
				return err
			}
			return printJSON(mapper.DonationsToResponse(items))
		})
	},
}

var donationsShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a donation and its event history",
	Args:  cobra.ExactArgs(1),
	Run: func(_ *cobra.Command, args []string) {
		runCommand("donations_show", nil, func(s *service.DonationService, ctx context.Context) error {
			donation, err := s.GetDonation(ctx, args[0])
			if err != nil {
				return err
			}
			events, err := s.GetDonationEvents(ctx, donation.ID)
			if err != nil {
				return err
			}
			return printJSON(map[string]any{
				"donation": mapper.DonationToResponse(donation),
				"events":   mapper.EventsToResponse(events),
			})
		})
	},
}

var donationsApproveCmd = &cobra.Command{
	Use:   "approve <id>",
	Short: "Mark a pending donation as completed after manual review",
	Args:  cobra.ExactArgs(1),
	Run: func(_ *cobra.Command, args []string) {
		runCommand("donations_approve", nil, func(s *service.DonationService, ctx context.Context) error {
			donation, err := s.ApproveDonation(ctx, args[0], decisionNote)
			if err != nil {
				return err
			}
			return printJSON(mapper.DonationToResponse(donation))
		})
	},
}

var donationsRejectCmd = &cobra.Command{
	Use:   "reject <id>",
	Short: "Mark a pending donation as failed after manual review",
	Args:  cobra.ExactArgs(1),
	Run: func(_ *cobra.Command, args []string) {
		runCommand("donations_reject", nil, func(s *service.DonationService, ctx context.Context) error {
			donation, err := s.RejectDonation(ctx, args[0], decisionNote)
			if err != nil {
				return err
			}
			return printJSON(mapper.DonationToResponse(donation))
		})
	},
}

var staleReportCmd = &cobra.Command{
	Use:   "stale-report",
	Short: "Report donations that are still pending past the configured age",
	Args:  cobra.NoArgs,
	Run: func(_ *cobra.Command, _ []string) {
		runCommand(
			"stale_report",
			func(cfg *config.Config) time.Duration { return cfg.Donations.ReportInterval },
			func(s *service.DonationService, ctx context.Context) error {
				report, err := s.StalePendingReport(ctx)
				if err != nil {
					return err
				}
				if len(report.Donations) > 0 {
					logrus.WithField("stale_count", len(report.Donations)).Warn("Stale pending donations found")
				}
				return printJSON(mapper.StaleReportToResponse(report))
			},
		)
	},
}

func init() {
	rootCmd.AddCommand(donationsCmd)
	donationsCmd.AddCommand(donationsListCmd)
	donationsCmd.AddCommand(donationsShowCmd)
	donationsCmd.AddCommand(donationsApproveCmd)
	donationsCmd.AddCommand(donationsRejectCmd)
	donationsCmd.AddCommand(staleReportCmd)

	donationsListCmd.Flags().StringVar(&listStatus, "status", "", "Filter by status (pending, completed, failed)")
	donationsListCmd.Flags().StringVar(&listProvider, "provider", "", "Filter by provider code")
	donationsListCmd.Flags().StringVar(&listEmail, "email", "", "Filter by donor email")
	donationsListCmd.Flags().Int32Var(&listLimit, "limit", 0, "Maximum rows to return (defaults to DONATIONS_LIST_LIMIT)")
	donationsListCmd.Flags().Int32Var(&listOffset, "offset", 0, "Rows to skip")

	donationsApproveCmd.Flags().StringVar(&decisionNote, "note", "", "Reviewer note stored on the donation event")
	donationsRejectCmd.Flags().StringVar(&decisionNote, "note", "", "Rejection reason stored on the donation event")

	rootCmd.PersistentFlags().BoolVar(&workerMode, "worker", false, "Run continuously using configured interval")
}

// runCommand runs fn once, or on every interval tick when --worker is set.
// A nil intervalResolver marks a one-shot command.
func runCommand(
	name string,
	intervalResolver func(cfg *config.Config) time.Duration,
	fn func(s *service.DonationService, ctx context.Context) error,
) {
	cfg, donationService, cleanup := mustCreateDonationService()
	defer cleanup()

	if workerMode && intervalResolver != nil {
		runWorker(name, intervalResolver(cfg), donationService, fn)
		return
	}

	ctx := context.Background()
	if !runJob(name, func() error { return fn(donationService, ctx) }) {
		cleanup()
		os.Exit(1)
	}
}

func runWorker(
	name string,
	interval time.Duration,
	donationService *service.DonationService,
	fn func(s *service.DonationService, ctx context.Context) error,
) {
	if interval <= 0 {
		logrus.WithField("job", name).Fatal("invalid worker interval")
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	runJob(name, func() error { return fn(donationService, ctx) })

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	for {
		select {
		case <-quit:
			logrus.WithField("job", name).Info("Worker shutdown requested")
			return
		case <-ticker.C:
			runJob(name, func() error { return fn(donationService, ctx) })
		}
	}
}

func runJob(name string, fn func() error) bool {
	start := time.Now()
	err := fn()
	latency := time.Since(start)
	if err != nil {
		logrus.WithError(err).WithField("job", name).WithField("latency", latency.String()).Error("job_failed")
		return false
	}
	logrus.WithField("job", name).WithField("latency", latency.String()).Info("job_completed")
	return true
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
