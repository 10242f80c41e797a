package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/market-briefing/internal/agent/briefing"
	"github.com/market-briefing/internal/models"
	"github.com/market-briefing/internal/prompt"
	"github.com/market-briefing/internal/report"
)

// ============ PROMPT ============

func promptCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "prompt",
		Short: "Print the prompt that would be sent right now",
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := application.Agent.Preview(ctx(cmd))
			if err != nil {
				return err
			}
			fmt.Println(text)
			return nil
		},
	}
}

// ============ GENERATE ============

type outputFlags struct {
	raw      bool
	htmlPath string
	snapshot bool
}

func (o *outputFlags) register(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&o.raw, "raw", false, "Print the markdown without terminal formatting")
	cmd.Flags().StringVar(&o.htmlPath, "html", "", "Also write a self-contained HTML report to this path")
	cmd.Flags().BoolVar(&o.snapshot, "snapshot", false, "Include the settings snapshot in the output")
}

func generateCmd() *cobra.Command {
	var modelID string
	var promptFile string
	var out outputFlags

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a briefing and save it to history",
		RunE: func(cmd *cobra.Command, args []string) error {
			in := briefing.Input{ModelID: modelID}
			if promptFile != "" {
				data, err := os.ReadFile(promptFile)
				if err != nil {
					return fmt.Errorf("failed to read prompt file: %w", err)
				}
				in.Prompt = string(data)
			}

			fmt.Fprintln(os.Stderr, "Generating briefing...")
			result, err := application.Session.Generate(ctx(cmd), in)
			if err != nil {
				return err
			}
			return printResult(cmd, result, out)
		},
	}

	cmd.Flags().StringVar(&modelID, "model", "", "Model id (default is the saved default model)")
	cmd.Flags().StringVar(&promptFile, "prompt-file", "", "Send this prompt instead of the assembled one")
	out.register(cmd)
	return cmd
}

func printResult(cmd *cobra.Command, result *briefing.Result, out outputFlags) error {
	if err := printRecord(cmd, result.Record, out); err != nil {
		return err
	}
	if result.Usage != nil {
		fmt.Fprintf(os.Stderr, "\nTokens: %d in, %d out\n", result.Usage.InputTokens, result.Usage.OutputTokens)
	}
	if result.Warning != nil {
		fmt.Fprintf(os.Stderr, "\nWarning: %s\n", UserMessage(result.Warning))
	}
	return nil
}

func printRecord(cmd *cobra.Command, record *models.BriefingRecord, out outputFlags) error {
	c := ctx(cmd)

	snapshot := ""
	if out.snapshot {
		adminDoc, err := application.Admin.Admin(c)
		if err != nil {
			return err
		}
		settings, err := application.Admin.Settings(c)
		if err != nil {
			return err
		}
		snapshot = prompt.SnapshotText(adminDoc, settings, record)
	}

	modified := ""
	if record.PromptModified {
		modified = " | modified from template"
	}
	fmt.Printf("\n=== Briefing %s ===\n", record.ID)
	fmt.Printf("Model: %s | Date: %s%s\n\n", record.ModelLabel, record.Date, modified)

	text := record.Response
	if out.snapshot {
		text = report.PlainText(record, snapshot)
	}
	if out.raw {
		fmt.Println(text)
	} else {
		settings, err := application.Admin.Settings(c)
		if err != nil {
			return err
		}
		rendered, err := report.Terminal(text, settings.ThemeID, 0)
		if err != nil {
			return err
		}
		fmt.Print(rendered)
	}

	if out.htmlPath != "" {
		page, err := report.HTML(record, snapshot)
		if err != nil {
			return err
		}
		path := out.htmlPath
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			path = filepath.Join(path, report.Filename(record))
		}
		if err := os.WriteFile(path, page, 0o644); err != nil {
			return fmt.Errorf("failed to write report: %w", err)
		}
		fmt.Fprintf(os.Stderr, "Report written to %s\n", path)
	}
	return nil
}
