package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"github.com/market-briefing/internal/agent/briefing"
	"github.com/market-briefing/internal/app"
	"github.com/market-briefing/internal/report"
	"github.com/market-briefing/pkg/logger"
)

var (
	cfgFile   string
	reportDir string
	runNow    bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "briefing-scheduler",
		Short: "Background scheduler for market briefings",
		Long: `Generates a briefing on the configured cron schedule using the saved
settings and default model. Every briefing lands in history; with
--report-dir an HTML report is also written for each one.`,
		RunE: runScheduler,
	}

	rootCmd.Flags().StringVar(&cfgFile, "config", "", "config file path")
	rootCmd.Flags().StringVar(&reportDir, "report-dir", "", "write an HTML report for each briefing into this directory")
	rootCmd.Flags().BoolVar(&runNow, "now", false, "generate one briefing immediately on start")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runScheduler(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	application, err := app.New(ctx, cfgFile)
	if err != nil {
		return err
	}
	defer application.Close()

	log := application.Log
	log.Info().Msg("Starting market briefing scheduler")

	if reportDir != "" {
		if err := os.MkdirAll(reportDir, 0o755); err != nil {
			return fmt.Errorf("failed to create report directory: %w", err)
		}
	}

	go startHealthServer(application, log)

	job := func() {
		log.Info().Msg("Running scheduled briefing")

		result, err := application.Agent.Generate(ctx, briefing.Input{})
		if err != nil {
			log.Error().Err(err).Msg("Scheduled briefing failed")
			return
		}
		if result.Warning != nil {
			log.Warn().Err(result.Warning).Msg("Briefing generated but not saved to history")
		}

		ev := log.Info().Str("id", result.Record.ID).Str("model", result.Record.ModelID)
		if result.Usage != nil {
			ev = ev.Int64("input_tokens", result.Usage.InputTokens).Int64("output_tokens", result.Usage.OutputTokens)
		}
		ev.Msg("Scheduled briefing completed")

		if reportDir != "" {
			writeReport(result, log)
		}
	}

	c := cron.New(cron.WithLogger(cronLogger{log}))
	_, err = c.AddFunc(application.Config.Scheduler.BriefingCron, job)
	if err != nil {
		return fmt.Errorf("failed to schedule briefing job: %w", err)
	}
	log.Info().Str("cron", application.Config.Scheduler.BriefingCron).Msg("Briefing job scheduled")

	c.Start()
	log.Info().Msg("Scheduler started")

	if runNow {
		go job()
	}

	<-ctx.Done()

	log.Info().Msg("Shutting down scheduler")
	<-c.Stop().Done()

	return nil
}

func writeReport(result *briefing.Result, log *logger.Logger) {
	page, err := report.HTML(result.Record, "")
	if err != nil {
		log.Error().Err(err).Msg("Failed to render report")
		return
	}
	path := filepath.Join(reportDir, report.Filename(result.Record))
	if err := os.WriteFile(path, page, 0o644); err != nil {
		log.Error().Err(err).Str("path", path).Msg("Failed to write report")
		return
	}
	log.Info().Str("path", path).Msg("Report written")
}

// cronLogger adapts our logger for cron
type cronLogger struct {
	log *logger.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debug().Fields(keysAndValues).Msg(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Error().Err(err).Fields(keysAndValues).Msg(msg)
}

// startHealthServer serves a health check and the newest briefing as HTML
func startHealthServer(application *app.App, log *logger.Logger) {
	port := os.Getenv("PORT")
	if port == "" {
		port = "10000"
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	mux.HandleFunc("/latest", func(w http.ResponseWriter, r *http.Request) {
		records, err := application.Ledger.List(r.Context())
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if len(records) == 0 {
			http.Error(w, "no briefings yet", http.StatusNotFound)
			return
		}
		page, err := report.HTML(&records[0], "")
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write(page)
	})

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("Market Briefing Scheduler"))
	})

	log.Info().Str("port", port).Msg("Health check server starting")
	if err := http.ListenAndServe(":"+port, mux); err != nil {
		log.Error().Err(err).Msg("Health server failed")
	}
}
