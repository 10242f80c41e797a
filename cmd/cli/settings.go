package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// ============ SETTINGS COMMANDS ============

func settingsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "View and change briefing settings",
	}

	cmd.AddCommand(settingsShowCmd())
	cmd.AddCommand(settingsSetCmd())
	cmd.AddCommand(settingsToggleCmd("topic", "topics", func(c *cobra.Command, id string, on bool) error {
		return application.Admin.SetTopicEnabled(ctx(c), id, on)
	}))
	cmd.AddCommand(settingsToggleCmd("coverage", "coverage types", func(c *cobra.Command, id string, on bool) error {
		return application.Admin.SetCoverageEnabled(ctx(c), id, on)
	}))
	cmd.AddCommand(tickerCmd())
	return cmd
}

func settingsShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show current settings",
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

			fmt.Printf("\n=== Settings ===\n")
			fmt.Printf("Default model: %s\n", settings.DefaultModelID)
			fmt.Printf("Active style:  %s\n", settings.ActiveStyleID)
			fmt.Printf("Theme:         %s\n", settings.ThemeID)
			fmt.Printf("Watchlist:     %s\n", strings.Join(settings.Watchlist, ", "))

			fmt.Printf("\nTopics:\n")
			for _, cat := range adminDoc.Categories {
				fmt.Printf("  %s\n", cat.Name)
				for _, t := range adminDoc.Topics {
					if t.CategoryID == cat.ID {
						fmt.Printf("    %s %-20s %s\n", check(settings.TopicEnabled(t.ID)), t.ID, t.Name)
					}
				}
			}

			fmt.Printf("\nCoverage:\n")
			for _, ct := range adminDoc.CoverageTypes {
				fmt.Printf("  %s %-20s %s\n", check(settings.CoverageEnabled(ct.ID)), ct.ID, ct.Name)
			}

			if settings.CustomInstructions != "" {
				fmt.Printf("\nCustom instructions:\n  %s\n", settings.CustomInstructions)
			}
			return nil
		},
	}
}

func settingsSetCmd() *cobra.Command {
	var model, style, instructions string

	cmd := &cobra.Command{
		Use:   "set",
		Short: "Change the default model, style or custom instructions",
		RunE: func(cmd *cobra.Command, args []string) error {
			c := ctx(cmd)
			changed := false
			if cmd.Flags().Changed("model") {
				if err := application.Admin.SetDefaultModel(c, model); err != nil {
					return err
				}
				changed = true
			}
			if cmd.Flags().Changed("style") {
				if err := application.Admin.SetActiveStyle(c, style); err != nil {
					return err
				}
				changed = true
			}
			if cmd.Flags().Changed("instructions") {
				if err := application.Admin.SetCustomInstructions(c, instructions); err != nil {
					return err
				}
				changed = true
			}
			if !changed {
				return fmt.Errorf("nothing to change; pass --model, --style or --instructions")
			}
			fmt.Println("Settings saved.")
			return nil
		},
	}

	cmd.Flags().StringVar(&model, "model", "", "Default model id")
	cmd.Flags().StringVar(&style, "style", "", "Active style id")
	cmd.Flags().StringVar(&instructions, "instructions", "", "Custom instructions (empty clears)")
	return cmd
}

func settingsToggleCmd(use, plural string, set func(*cobra.Command, string, bool) error) *cobra.Command {
	var disable bool

	cmd := &cobra.Command{
		Use:   use + " [id...]",
		Short: "Enable or disable " + plural,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, id := range args {
				if err := set(cmd, id, !disable); err != nil {
					return err
				}
			}
			state := "Enabled"
			if disable {
				state = "Disabled"
			}
			fmt.Printf("%s %s.\n", state, strings.Join(args, ", "))
			return nil
		},
	}

	cmd.Flags().BoolVar(&disable, "off", false, "Disable instead of enable")
	return cmd
}

func tickerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ticker",
		Short: "Manage the watchlist",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "add [symbol...]",
		Short: "Add tickers to the watchlist",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, raw := range args {
				t, err := application.Admin.AddTicker(ctx(cmd), raw)
				if err != nil {
					return err
				}
				fmt.Printf("Added %s.\n", t)
			}
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "remove [symbol...]",
		Short: "Remove tickers from the watchlist",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, raw := range args {
				if err := application.Admin.RemoveTicker(ctx(cmd), raw); err != nil {
					return err
				}
			}
			fmt.Printf("Removed %s.\n", strings.ToUpper(strings.Join(args, ", ")))
			return nil
		},
	})

	return cmd
}

func check(on bool) string {
	if on {
		return "[x]"
	}
	return "[ ]"
}
