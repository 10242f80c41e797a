package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/market-briefing/internal/history"
	"github.com/market-briefing/internal/models"
)

// ============ HISTORY COMMANDS ============

func historyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Browse, compare and manage past briefings",
	}

	cmd.AddCommand(historyListCmd())
	cmd.AddCommand(historyShowCmd())
	cmd.AddCommand(historyCompareCmd())
	cmd.AddCommand(historyRegenerateCmd())
	cmd.AddCommand(historyDeleteCmd())
	cmd.AddCommand(historyClearCmd())
	cmd.AddCommand(historyExportCmd())
	cmd.AddCommand(historyImportCmd())
	return cmd
}

func historyListCmd() *cobra.Command {
	var search string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List briefings, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			records, err := application.Ledger.Search(ctx(cmd), search)
			if err != nil {
				return err
			}
			if len(records) == 0 {
				fmt.Println("No briefings found.")
				return nil
			}

			fmt.Printf("\n=== History (%d) ===\n\n", len(records))
			for _, r := range records {
				flag := ""
				if r.PromptModified {
					flag = " *"
				}
				fmt.Printf("%s  %s  %-14s %s%s\n", r.ID, r.Date, r.ModelLabel, preview(r.Response, 60), flag)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&search, "search", "", "Filter by text, date or model")
	return cmd
}

func historyShowCmd() *cobra.Command {
	var out outputFlags

	cmd := &cobra.Command{
		Use:   "show [id]",
		Short: "Show one briefing",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			record, err := application.Ledger.Get(ctx(cmd), args[0])
			if err != nil {
				return err
			}
			application.Session.Open(*record)
			return printRecord(cmd, record, out)
		},
	}

	out.register(cmd)
	return cmd
}

func historyCompareCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "compare [id...]",
		Short: "Compare two briefings; with more ids the last two picked win",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var sel history.Selection
			for _, id := range args {
				sel.Toggle(id)
			}
			left, right, ok := sel.Pair()
			if !ok {
				return fmt.Errorf("select two different briefings to compare")
			}

			cmp, err := application.Ledger.Compare(ctx(cmd), left, right)
			if err != nil {
				return err
			}
			printSide("A", &cmp.Left)
			printSide("B", &cmp.Right)
			return nil
		},
	}
}

func printSide(label string, r *models.BriefingRecord) {
	fmt.Printf("\n=== %s: %s | %s | %s ===\n\n", label, r.Date, r.ModelLabel, r.StyleID)
	fmt.Println(r.Response)
}

func historyRegenerateCmd() *cobra.Command {
	var out outputFlags

	cmd := &cobra.Command{
		Use:   "regenerate [id]",
		Short: "Send a past briefing's prompt again as a new briefing",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			record, err := application.Ledger.Get(ctx(cmd), args[0])
			if err != nil {
				return err
			}
			application.Session.Open(*record)

			fmt.Fprintln(os.Stderr, "Regenerating briefing...")
			result, err := application.Session.Regenerate(ctx(cmd))
			if err != nil {
				return err
			}
			return printResult(cmd, result, out)
		},
	}

	out.register(cmd)
	return cmd
}

func historyDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete [id...]",
		Short: "Delete briefings",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			removed, err := application.Ledger.Delete(ctx(cmd), args...)
			if err != nil {
				return err
			}
			fmt.Printf("Deleted %d briefing(s).\n", removed)
			return nil
		},
	}
}

func historyClearCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete all briefing history",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return fmt.Errorf("this deletes all history; re-run with --yes to confirm")
			}
			if err := application.Ledger.Clear(ctx(cmd)); err != nil {
				return err
			}
			application.Session.Close()
			fmt.Println("History cleared.")
			return nil
		},
	}

	cmd.Flags().BoolVar(&yes, "yes", false, "Confirm")
	return cmd
}

func historyExportCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export history as a JSON array",
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := application.Backup.ExportHistory(ctx(cmd))
			if err != nil {
				return err
			}
			return writeOutput(output, "market-briefing-history", data)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (default stdout)")
	return cmd
}

func historyImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import [file]",
		Short: "Merge briefings from an exported history file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			added, err := application.Backup.ImportHistory(ctx(cmd), data)
			if err != nil {
				return err
			}
			fmt.Printf("History imported (%d new entries).\n", added)
			return nil
		},
	}
}

// preview flattens text to one line of at most n runes
func preview(text string, n int) string {
	line := strings.Join(strings.Fields(text), " ")
	r := []rune(line)
	if len(r) > n {
		return string(r[:n-3]) + "..."
	}
	return line
}
