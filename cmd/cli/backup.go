package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

// ============ BACKUP COMMANDS ============

func backupCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Export and import settings or a full backup",
	}

	cmd.AddCommand(backupExportCmd())
	cmd.AddCommand(backupImportCmd())
	return cmd
}

func backupExportCmd() *cobra.Command {
	var all bool
	var output string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export settings (default) or everything with --all",
		RunE: func(cmd *cobra.Command, args []string) error {
			var data []byte
			var err error
			prefix := "market-briefing-settings"
			if all {
				prefix = "market-briefing-backup"
				data, err = application.Backup.ExportAll(ctx(cmd))
			} else {
				data, err = application.Backup.ExportSettings(ctx(cmd))
			}
			if err != nil {
				return err
			}
			return writeOutput(output, prefix, data)
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "Include the catalog and history")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file or directory (default stdout)")
	return cmd
}

func backupImportCmd() *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "import [file]",
		Short: "Import a settings export, or a full backup with --all",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}

			var keys []string
			if all {
				keys, err = application.Backup.ImportAll(ctx(cmd), data)
			} else {
				keys, err = application.Backup.ImportSettings(ctx(cmd), data)
			}
			if err != nil {
				return err
			}
			application.Session.Close()

			if len(keys) == 0 {
				fmt.Println("Nothing to import.")
				return nil
			}
			fmt.Printf("Imported %s.\n", strings.Join(keys, ", "))
			return nil
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "The file is a full backup; its history replaces the current one")
	return cmd
}

// writeOutput writes data to stdout, a file, or a dated file inside a directory
func writeOutput(path, prefix string, data []byte) error {
	if path == "" {
		_, err := os.Stdout.Write(append(data, '\n'))
		return err
	}
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		path = filepath.Join(path, fmt.Sprintf("%s-%s.json", prefix, time.Now().Format("2006-01-02")))
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	fmt.Fprintf(os.Stderr, "Written to %s\n", path)
	return nil
}
