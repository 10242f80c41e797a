package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/market-briefing/internal/ai"
	"github.com/market-briefing/internal/models"
)

// ============ KEY COMMANDS ============

func providers() []models.Provider {
	return []models.Provider{models.ProviderAnthropic, models.ProviderGemini}
}

func parseProvider(raw string) (models.Provider, error) {
	p := models.Provider(strings.ToLower(strings.TrimSpace(raw)))
	for _, known := range providers() {
		if p == known {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w: %s", ai.ErrUnknownProvider, raw)
}

func keyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "key",
		Short: "Manage provider API keys",
	}

	cmd.AddCommand(keySetCmd())
	cmd.AddCommand(keyValidateCmd())
	cmd.AddCommand(keyDeleteCmd())
	return cmd
}

func keySetCmd() *cobra.Command {
	var noValidate bool

	cmd := &cobra.Command{
		Use:   "set [provider] [key]",
		Short: "Save the API key for anthropic or gemini",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := parseProvider(args[0])
			if err != nil {
				return err
			}
			secret := strings.TrimSpace(args[1])

			if !noValidate {
				fmt.Fprintln(os.Stderr, "Validating key...")
				if !application.Router.ValidateCredential(ctx(cmd), p, secret) {
					return fmt.Errorf("the %s API rejected this key; pass --no-validate to save it anyway", p)
				}
			}
			if err := application.Admin.SetCredential(ctx(cmd), p, secret); err != nil {
				return err
			}
			fmt.Printf("Saved %s key.\n", p)
			return nil
		},
	}

	cmd.Flags().BoolVar(&noValidate, "no-validate", false, "Save without checking the key against the provider")
	return cmd
}

func keyValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate [provider]",
		Short: "Check the saved key against the provider",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := parseProvider(args[0])
			if err != nil {
				return err
			}
			secret, ok, err := application.Admin.Credential(ctx(cmd), p)
			if err != nil {
				return err
			}
			if !ok {
				return &ai.CredentialError{Provider: p}
			}
			if !application.Router.ValidateCredential(ctx(cmd), p, secret) {
				return fmt.Errorf("the saved %s key was rejected", p)
			}
			fmt.Printf("%s key is valid.\n", p)
			return nil
		},
	}
}

func keyDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete [provider]",
		Short: "Forget the saved key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := parseProvider(args[0])
			if err != nil {
				return err
			}
			if err := application.Admin.DeleteCredential(ctx(cmd), p); err != nil {
				return err
			}
			fmt.Printf("Deleted %s key.\n", p)
			return nil
		},
	}
}
