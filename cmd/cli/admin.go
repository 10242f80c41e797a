package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/market-briefing/internal/models"
	"github.com/market-briefing/internal/prompt"
)

// ============ ADMIN COMMANDS ============

func adminCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Edit the catalog: topics, categories, coverage, styles, models and prompts",
	}

	cmd.AddCommand(adminTopicCmd())
	cmd.AddCommand(adminCategoryCmd())
	cmd.AddCommand(adminCoverageCmd())
	cmd.AddCommand(adminStyleCmd())
	cmd.AddCommand(adminModelCmd())
	cmd.AddCommand(adminPromptCmd())
	return cmd
}

func deleteCmd(noun string, del func(*cobra.Command, string) error) *cobra.Command {
	return &cobra.Command{
		Use:   "delete [id]",
		Short: "Delete a " + noun,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := del(cmd, args[0]); err != nil {
				return err
			}
			fmt.Printf("Deleted %s %s.\n", noun, args[0])
			return nil
		},
	}
}

func loadAdmin(cmd *cobra.Command) (*models.AdminSchema, error) {
	return application.Admin.Admin(ctx(cmd))
}

// ---- topics ----

func adminTopicCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "topic", Short: "Manage topics"}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List topics",
		RunE: func(cmd *cobra.Command, args []string) error {
			adminDoc, err := loadAdmin(cmd)
			if err != nil {
				return err
			}
			for _, t := range adminDoc.Topics {
				fmt.Printf("%-20s %-18s %s\n", t.ID, t.CategoryID, t.Name)
				if t.PromptHint != "" {
					fmt.Printf("%-20s %-18s   %s\n", "", "", t.PromptHint)
				}
			}
			return nil
		},
	})

	var edit string
	var topic models.Topic
	save := &cobra.Command{
		Use:   "save",
		Short: "Create a topic, or replace one with --edit",
		RunE: func(cmd *cobra.Command, args []string) error {
			if edit != "" {
				adminDoc, err := loadAdmin(cmd)
				if err != nil {
					return err
				}
				if existing, ok := adminDoc.FindTopic(edit); ok {
					keep(cmd, "id", &topic.ID, existing.ID)
					keep(cmd, "name", &topic.Name, existing.Name)
					keep(cmd, "category", &topic.CategoryID, existing.CategoryID)
					keep(cmd, "hint", &topic.PromptHint, existing.PromptHint)
				}
			}
			if err := application.Admin.SaveTopic(ctx(cmd), edit, topic); err != nil {
				return err
			}
			fmt.Printf("Saved topic %s.\n", topic.ID)
			return nil
		},
	}
	save.Flags().StringVar(&edit, "edit", "", "Id of the topic to replace")
	save.Flags().StringVar(&topic.ID, "id", "", "Topic key")
	save.Flags().StringVar(&topic.Name, "name", "", "Display name")
	save.Flags().StringVar(&topic.CategoryID, "category", "", "Category id")
	save.Flags().StringVar(&topic.PromptHint, "hint", "", "Prompt hint")
	cmd.AddCommand(save)

	cmd.AddCommand(deleteCmd("topic", func(c *cobra.Command, id string) error {
		return application.Admin.DeleteTopic(ctx(c), id)
	}))
	return cmd
}

// ---- categories ----

func adminCategoryCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "category", Short: "Manage categories"}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List categories",
		RunE: func(cmd *cobra.Command, args []string) error {
			adminDoc, err := loadAdmin(cmd)
			if err != nil {
				return err
			}
			for _, c := range adminDoc.Categories {
				fmt.Printf("%2d  %-20s %-24s %d topics  %s\n", c.SortOrder, c.ID, c.Name, adminDoc.TopicsInCategory(c.ID), c.Desc())
			}
			return nil
		},
	})

	var edit, description string
	var cat models.Category
	save := &cobra.Command{
		Use:   "save",
		Short: "Create a category, or replace one with --edit",
		RunE: func(cmd *cobra.Command, args []string) error {
			if edit != "" {
				adminDoc, err := loadAdmin(cmd)
				if err != nil {
					return err
				}
				if existing, ok := adminDoc.FindCategory(edit); ok {
					keep(cmd, "name", &cat.Name, existing.Name)
					if !cmd.Flags().Changed("sort") {
						cat.SortOrder = existing.SortOrder
					}
					if !cmd.Flags().Changed("description") {
						cat.Description = existing.Description
					}
				}
			}
			if cmd.Flags().Changed("description") {
				cat.Description = &description
			}
			id, err := application.Admin.SaveCategory(ctx(cmd), edit, cat)
			if err != nil {
				return err
			}
			fmt.Printf("Saved category %s.\n", id)
			return nil
		},
	}
	save.Flags().StringVar(&edit, "edit", "", "Id of the category to replace")
	save.Flags().StringVar(&cat.Name, "name", "", "Display name (the id is derived from it)")
	save.Flags().IntVar(&cat.SortOrder, "sort", 0, "Sort order")
	save.Flags().StringVar(&description, "description", "", "Description")
	cmd.AddCommand(save)

	cmd.AddCommand(deleteCmd("category", func(c *cobra.Command, id string) error {
		return application.Admin.DeleteCategory(ctx(c), id)
	}))
	return cmd
}

// ---- coverage types ----

func adminCoverageCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "coverage", Short: "Manage watchlist coverage types"}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List coverage types",
		RunE: func(cmd *cobra.Command, args []string) error {
			adminDoc, err := loadAdmin(cmd)
			if err != nil {
				return err
			}
			for _, ct := range adminDoc.CoverageTypes {
				fmt.Printf("%-20s %-26s %s\n", ct.ID, ct.Name, ct.PromptInstruction)
			}
			return nil
		},
	})

	var edit string
	var ct models.CoverageType
	save := &cobra.Command{
		Use:   "save",
		Short: "Create a coverage type, or replace one with --edit",
		RunE: func(cmd *cobra.Command, args []string) error {
			if edit != "" {
				adminDoc, err := loadAdmin(cmd)
				if err != nil {
					return err
				}
				if existing, ok := adminDoc.FindCoverageType(edit); ok {
					keep(cmd, "name", &ct.Name, existing.Name)
					keep(cmd, "prompt", &ct.PromptInstruction, existing.PromptInstruction)
				}
			}
			id, err := application.Admin.SaveCoverageType(ctx(cmd), edit, ct)
			if err != nil {
				return err
			}
			fmt.Printf("Saved coverage type %s.\n", id)
			return nil
		},
	}
	save.Flags().StringVar(&edit, "edit", "", "Id of the coverage type to replace")
	save.Flags().StringVar(&ct.Name, "name", "", "Display name (the id is derived from it)")
	save.Flags().StringVar(&ct.PromptInstruction, "prompt", "", "Prompt instruction")
	cmd.AddCommand(save)

	cmd.AddCommand(deleteCmd("coverage type", func(c *cobra.Command, id string) error {
		return application.Admin.DeleteCoverageType(ctx(c), id)
	}))
	return cmd
}

// ---- styles ----

func adminStyleCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "style", Short: "Manage briefing styles"}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List styles",
		RunE: func(cmd *cobra.Command, args []string) error {
			adminDoc, err := loadAdmin(cmd)
			if err != nil {
				return err
			}
			for _, s := range adminDoc.Styles {
				fmt.Printf("%-14s %-14s ~%d words, %d tokens  %s\n", s.ID, s.Name, s.WordTarget, s.MaxTokens, s.Description)
			}
			return nil
		},
	})

	var edit string
	var style models.Style
	save := &cobra.Command{
		Use:   "save",
		Short: "Create a style, or replace one with --edit",
		RunE: func(cmd *cobra.Command, args []string) error {
			if edit != "" {
				adminDoc, err := loadAdmin(cmd)
				if err != nil {
					return err
				}
				if existing, ok := adminDoc.FindStyle(edit); ok {
					keep(cmd, "name", &style.Name, existing.Name)
					keep(cmd, "description", &style.Description, existing.Description)
					if !cmd.Flags().Changed("words") {
						style.WordTarget = existing.WordTarget
					}
					if !cmd.Flags().Changed("max-tokens") {
						style.MaxTokens = existing.MaxTokens
					}
				}
			}
			id, err := application.Admin.SaveStyle(ctx(cmd), edit, style)
			if err != nil {
				return err
			}
			fmt.Printf("Saved style %s.\n", id)
			return nil
		},
	}
	save.Flags().StringVar(&edit, "edit", "", "Id of the style to replace")
	save.Flags().StringVar(&style.Name, "name", "", "Display name (the id is derived from it)")
	save.Flags().IntVar(&style.WordTarget, "words", 0, "Target word count (default 500)")
	save.Flags().IntVar(&style.MaxTokens, "max-tokens", 0, "Max output tokens (default 1000)")
	save.Flags().StringVar(&style.Description, "description", "", "Description")
	cmd.AddCommand(save)

	cmd.AddCommand(deleteCmd("style", func(c *cobra.Command, id string) error {
		return application.Admin.DeleteStyle(ctx(c), id)
	}))
	return cmd
}

// ---- models ----

func adminModelCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "model", Short: "Manage models"}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List models",
		RunE: func(cmd *cobra.Command, args []string) error {
			adminDoc, err := loadAdmin(cmd)
			if err != nil {
				return err
			}
			settings, err := application.Admin.Settings(ctx(cmd))
			if err != nil {
				return err
			}
			for _, m := range adminDoc.Models {
				def := " "
				if m.ID == settings.DefaultModelID {
					def = "*"
				}
				fmt.Printf("%s %-30s %-14s %-10s %s\n", def, m.ID, m.DisplayName, m.Provider, m.CostNote)
			}
			return nil
		},
	})

	var edit, provider string
	var model models.ModelSpec
	save := &cobra.Command{
		Use:   "save",
		Short: "Create a model, or replace one with --edit",
		RunE: func(cmd *cobra.Command, args []string) error {
			if edit != "" {
				adminDoc, err := loadAdmin(cmd)
				if err != nil {
					return err
				}
				if existing, ok := adminDoc.FindModel(edit); ok {
					keep(cmd, "id", &model.ID, existing.ID)
					keep(cmd, "name", &model.DisplayName, existing.DisplayName)
					keep(cmd, "cost", &model.CostNote, existing.CostNote)
					if !cmd.Flags().Changed("provider") {
						provider = string(existing.Provider)
					}
				}
			}
			model.Provider = models.Provider(strings.ToLower(provider))
			if err := application.Admin.SaveModel(ctx(cmd), edit, model); err != nil {
				return err
			}
			fmt.Printf("Saved model %s.\n", model.ID)
			return nil
		},
	}
	save.Flags().StringVar(&edit, "edit", "", "Id of the model to replace")
	save.Flags().StringVar(&model.ID, "id", "", "Model id as the provider knows it")
	save.Flags().StringVar(&model.DisplayName, "name", "", "Display name")
	save.Flags().StringVar(&provider, "provider", "", "anthropic or gemini (inferred from the id when empty)")
	save.Flags().StringVar(&model.CostNote, "cost", "", "Cost note")
	cmd.AddCommand(save)

	cmd.AddCommand(deleteCmd("model", func(c *cobra.Command, id string) error {
		return application.Admin.DeleteModel(ctx(c), id)
	}))
	return cmd
}

// ---- prompts ----

func adminPromptCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "prompt", Short: "Edit the system prompt and the user prompt template"}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show both prompts and the available tokens",
		RunE: func(cmd *cobra.Command, args []string) error {
			adminDoc, err := loadAdmin(cmd)
			if err != nil {
				return err
			}
			fmt.Printf("=== System prompt ===\n%s\n\n", adminDoc.SystemPrompt)
			fmt.Printf("=== User prompt template ===\n%s\n\n", adminDoc.UserPromptTemplate)
			fmt.Printf("Tokens: %s\n", strings.Join(prompt.Tokens(), " "))
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "set-system [file]",
		Short: "Replace the system prompt with a file's contents",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			if err := application.Admin.SetSystemPrompt(ctx(cmd), string(data)); err != nil {
				return err
			}
			fmt.Println("System prompt saved.")
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "set-template [file]",
		Short: "Replace the user prompt template with a file's contents",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			if err := application.Admin.SetUserPromptTemplate(ctx(cmd), string(data)); err != nil {
				return err
			}
			fmt.Println("User prompt template saved.")
			return nil
		},
	})

	var system, template bool
	reset := &cobra.Command{
		Use:   "reset",
		Short: "Restore the factory prompts",
		RunE: func(cmd *cobra.Command, args []string) error {
			both := !system && !template
			if system || both {
				if err := application.Admin.ResetSystemPrompt(ctx(cmd)); err != nil {
					return err
				}
			}
			if template || both {
				if err := application.Admin.ResetUserPromptTemplate(ctx(cmd)); err != nil {
					return err
				}
			}
			fmt.Println("Prompts reset to defaults.")
			return nil
		},
	}
	reset.Flags().BoolVar(&system, "system", false, "Only reset the system prompt")
	reset.Flags().BoolVar(&template, "template", false, "Only reset the user prompt template")
	cmd.AddCommand(reset)

	return cmd
}

// keep copies the existing value into dst unless the flag was given
func keep(cmd *cobra.Command, flag string, dst *string, existing string) {
	if !cmd.Flags().Changed(flag) {
		*dst = existing
	}
}
