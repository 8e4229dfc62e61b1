package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/sakowicz/actual-ai/internal/actual"
	"github.com/sakowicz/actual-ai/internal/engine"
	"github.com/sakowicz/actual-ai/internal/llm"
	"github.com/sakowicz/actual-ai/internal/prompt"
)

func classifyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "classify",
		Short: "Run one classification pass over uncategorized transactions",
		Long: `Fetch uncategorized transactions from the Actual server, ask the
configured language model to categorize each one, and write the results
back. Transactions the model cannot place are marked in their notes and
skipped on future runs.

With the corresponding features enabled, the run first asks the model to
propose new category groups and categorization rules from the
uncategorized set.`,
		RunE: runClassify,
	}

	cmd.Flags().Bool("sync", false, "run a bank sync before classifying")
	cmd.Flags().Bool("progress", false, "show a progress bar (default: only on a terminal)")

	_ = viper.BindPFlag("features.sync_accounts", cmd.Flags().Lookup("sync"))
	_ = viper.BindPFlag("classification.progress", cmd.Flags().Lookup("progress"))

	return cmd
}

// resolveShowProgress decides whether the classification loop renders a
// progress bar. An explicit --progress value always wins; the terminal
// fallback applies only when nothing enabled it.
func resolveShowProgress(configured, explicit, stderrIsTerminal bool) bool {
	if explicit {
		return configured
	}
	return configured || stderrIsTerminal
}

func runClassify(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	api, err := actual.NewClient(actual.Config{
		ServerURL:          viper.GetString("actual.server_url"),
		APIKey:             viper.GetString("actual.api_key"),
		SyncID:             viper.GetString("actual.sync_id"),
		EncryptionPassword: viper.GetString("actual.encryption_password"),
	})
	if err != nil {
		return fmt.Errorf("failed to create actual client: %w", err)
	}

	llmCfg := llm.Config{
		Provider:  viper.GetString("llm.provider"),
		APIKey:    viper.GetString("llm.api_key"),
		Model:     viper.GetString("llm.model"),
		BaseURL:   viper.GetString("llm.base_url"),
		MaxTokens: viper.GetInt("llm.max_tokens"),
		RateLimit: viper.GetInt("llm.rate_limit"),
	}
	if viper.IsSet("llm.temperature") {
		temperature := viper.GetFloat64("llm.temperature")
		llmCfg.Temperature = &temperature
	}

	client, err := llm.NewClient(ctx, llmCfg)
	if err != nil {
		return fmt.Errorf("failed to create LLM client: %w", err)
	}

	prompts, err := prompt.NewBuilder()
	if err != nil {
		return fmt.Errorf("failed to create prompt builder: %w", err)
	}

	showProgress := resolveShowProgress(
		viper.GetBool("classification.progress"),
		cmd.Flags().Changed("progress"),
		isatty.IsTerminal(os.Stderr.Fd()),
	)

	cfg := engine.Config{
		CreateCategoryGroups:       viper.GetBool("features.create_category_groups"),
		CategoryGroupConfidence:    viper.GetInt("features.category_group_confidence"),
		MaxCategoryGroups:          viper.GetInt("features.max_category_groups"),
		CreateRules:                viper.GetBool("features.create_rules"),
		RuleConfidence:             viper.GetInt("features.rule_confidence"),
		MaxRules:                   viper.GetInt("features.max_rules"),
		SyncAccountsBeforeClassify: viper.GetBool("features.sync_accounts"),
		ShowProgress:               showProgress,
	}

	eng := engine.NewWithConfig(api, client, prompts, cfg)
	if err := eng.Run(ctx); err != nil {
		return fmt.Errorf("classification run failed: %w", err)
	}

	slog.Info("classification run complete")
	return nil
}
