package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/market-briefing/internal/app"
)

var (
	cfgFile     string
	application *app.App
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "briefing",
		Short: "Daily market briefings written by Claude or Gemini",
		Long: `Assembles a market briefing prompt from your topics, watchlist and
coverage settings, sends it to the configured model, and keeps a history of
every briefing it produced.`,
		PersistentPreRunE:  initializeApp,
		PersistentPostRunE: closeApp,
		SilenceErrors:      true,
		SilenceUsage:       true,
	}

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./configs/config.yaml)")

	rootCmd.AddCommand(initCmd())
	rootCmd.AddCommand(promptCmd())
	rootCmd.AddCommand(generateCmd())
	rootCmd.AddCommand(historyCmd())
	rootCmd.AddCommand(settingsCmd())
	rootCmd.AddCommand(adminCmd())
	rootCmd.AddCommand(keyCmd())
	rootCmd.AddCommand(backupCmd())
	rootCmd.AddCommand(resetCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", UserMessage(err))
		os.Exit(1)
	}
}

func initializeApp(cmd *cobra.Command, args []string) error {
	var err error
	application, err = app.New(cmd.Context(), cfgFile)
	return err
}

func closeApp(cmd *cobra.Command, args []string) error {
	if application == nil {
		return nil
	}
	return application.Close()
}

func ctx(cmd *cobra.Command) context.Context {
	if c := cmd.Context(); c != nil {
		return c
	}
	return context.Background()
}

// ============ INIT ============

func initCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Install factory defaults and show what is configured",
		RunE: func(cmd *cobra.Command, args []string) error {
			c := ctx(cmd)
			adminDoc, err := application.Admin.Admin(c)
			if err != nil {
				return err
			}
			settings, err := application.Admin.Settings(c)
			if err != nil {
				return err
			}

			fmt.Printf("\n=== Market Briefing ===\n")
			fmt.Printf("Database:        %s\n", application.Config.Database.DSN)
			fmt.Printf("Categories:      %d\n", len(adminDoc.Categories))
			fmt.Printf("Topics:          %d (%d enabled)\n", len(adminDoc.Topics), len(settings.EnabledTopicIDs))
			fmt.Printf("Coverage types:  %d (%d enabled)\n", len(adminDoc.CoverageTypes), len(settings.EnabledCoverageIDs))
			fmt.Printf("Default model:   %s\n", settings.DefaultModelID)
			fmt.Printf("Active style:    %s\n", settings.ActiveStyleID)

			fmt.Printf("\nAPI keys:\n")
			for _, p := range providers() {
				_, ok, err := application.Admin.Credential(c, p)
				if err != nil {
					return err
				}
				status := "missing"
				if ok {
					status = "saved"
				}
				fmt.Printf("  %-10s %s\n", p, status)
			}
			return nil
		},
	}
}

// ============ RESET ============

func resetCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Erase settings, history, catalog and keys and reinstall defaults",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return fmt.Errorf("this erases everything; re-run with --yes to confirm")
			}
			if err := application.Admin.ResetEverything(ctx(cmd)); err != nil {
				return err
			}
			application.Session.Close()
			fmt.Println("Reset to defaults.")
			return nil
		},
	}

	cmd.Flags().BoolVar(&yes, "yes", false, "Confirm the reset")
	return cmd
}
