// Package engine implements the classification pipeline: deciding which
// transactions need processing, driving the suggestion sub-flows, and
// writing accepted results back to the budget backend exactly once per run.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/schollz/progressbar/v3"

	"github.com/sakowicz/actual-ai/internal/model"
	"github.com/sakowicz/actual-ai/internal/service"
)

// Notes sentinels. Appended to a transaction's notes to record the outcome
// of automated classification and read back on future runs.
const (
	notesNotGuessed = "actual-ai could not guess this category"
	notesGuessed    = "actual-ai guessed this category"
)

// Engine orchestrates one classification run. Phases execute strictly in
// sequence; no phase is re-entered and nothing runs concurrently.
type Engine struct {
	api     service.BudgetAPI
	model   Model
	prompts PromptBuilder
	config  Config
}

// Config holds the feature gates and thresholds for a run. Confidence
// thresholds are inclusive lower bounds on a 1-10 scale.
type Config struct {
	CreateCategoryGroups       bool
	CategoryGroupConfidence    int
	MaxCategoryGroups          int
	CreateRules                bool
	RuleConfidence             int
	MaxRules                   int
	SyncAccountsBeforeClassify bool
	ShowProgress               bool
}

// DefaultConfig returns the default configuration: suggestion sub-flows
// off, classification on.
func DefaultConfig() Config {
	return Config{
		CategoryGroupConfidence: 8,
		MaxCategoryGroups:       5,
		RuleConfidence:          8,
		MaxRules:                5,
	}
}

// New creates an engine with the default configuration.
func New(api service.BudgetAPI, llm Model, prompts PromptBuilder) *Engine {
	return NewWithConfig(api, llm, prompts, DefaultConfig())
}

// NewWithConfig creates an engine with custom configuration.
func NewWithConfig(api service.BudgetAPI, llm Model, prompts PromptBuilder, config Config) *Engine {
	return &Engine{
		api:     api,
		model:   llm,
		prompts: prompts,
		config:  config,
	}
}

// Run executes one full classification run. Sub-flow and per-item failures
// are logged and contained; only failures fetching the run's snapshot are
// returned as errors.
func (e *Engine) Run(ctx context.Context) error {
	slog.Info("starting classification run",
		"create_category_groups", e.config.CreateCategoryGroups,
		"create_rules", e.config.CreateRules,
		"sync_accounts", e.config.SyncAccountsBeforeClassify)

	if e.config.SyncAccountsBeforeClassify {
		e.syncAccounts(ctx)
	}

	groups, err := e.api.GetCategoryGroups(ctx)
	if err != nil {
		return fmt.Errorf("failed to get category groups: %w", err)
	}
	categories, err := e.api.GetCategories(ctx)
	if err != nil {
		return fmt.Errorf("failed to get categories: %w", err)
	}
	payees, err := e.api.GetPayees(ctx)
	if err != nil {
		return fmt.Errorf("failed to get payees: %w", err)
	}
	uncategorized, err := e.api.GetUncategorizedTransactions(ctx)
	if err != nil {
		return fmt.Errorf("failed to get uncategorized transactions: %w", err)
	}

	slog.Info("found uncategorized transactions", "count", len(uncategorized))

	e.suggestCategoryGroups(ctx, groups, uncategorized)
	e.suggestRules(ctx, uncategorized)

	// Re-fetch groups so classification sees anything created above.
	updatedGroups, err := e.api.GetCategoryGroups(ctx)
	if err != nil {
		return fmt.Errorf("failed to refresh category groups: %w", err)
	}

	e.classifyTransactions(ctx, updatedGroups, categories, payees, uncategorized)

	return nil
}

// syncAccounts requests a bank sync from the backend. Sync failures never
// abort the run.
func (e *Engine) syncAccounts(ctx context.Context) {
	slog.Info("syncing bank accounts")
	if err := e.api.RunBankSync(ctx); err != nil {
		slog.Error("bank sync failed, continuing without fresh data", "error", err)
		return
	}
	slog.Info("bank accounts synced")
}

// suggestCategoryGroups runs the group-suggestion sub-flow. Any failure
// aborts only this sub-flow; per-suggestion creation failures do not block
// sibling suggestions.
func (e *Engine) suggestCategoryGroups(ctx context.Context, groups []model.CategoryGroup, txns []model.Transaction) {
	if !e.config.CreateCategoryGroups {
		slog.Debug("category group creation is disabled")
		return
	}
	if len(txns) == 0 {
		slog.Debug("no uncategorized transactions to analyze for category groups")
		return
	}

	slog.Info("analyzing transactions for potential new category groups",
		"confidence_threshold", e.config.CategoryGroupConfidence,
		"max_groups", e.config.MaxCategoryGroups)

	promptText, err := e.prompts.GroupSuggestions(groups, txns, e.config.CategoryGroupConfidence, e.config.MaxCategoryGroups)
	if err != nil {
		slog.Error("failed to build group suggestion prompt", "error", err)
		return
	}

	response, err := e.model.Ask(ctx, promptText)
	if err != nil {
		slog.Error("group suggestion request failed", "error", err)
		return
	}

	elements, err := extractSuggestionArray(response)
	if err != nil {
		slog.Error("unusable group suggestion response", "error", err, "response", response)
		return
	}

	suggestions := parseGroupSuggestions(elements, float64(e.config.CategoryGroupConfidence), e.config.MaxCategoryGroups)
	slog.Info("processing group suggestions", "count", len(suggestions))

	for _, s := range suggestions {
		name := model.AIGroupPrefix + s.Name
		id, createErr := e.api.CreateCategoryGroup(ctx, name)
		if createErr != nil {
			slog.Error("failed to create category group", "name", name, "error", createErr)
			continue
		}
		slog.Info("created category group",
			"name", name,
			"id", id,
			"confidence", s.Confidence,
			"reason", s.Reason)
	}
}

// suggestRules runs the rule-suggestion sub-flow with the same containment
// as suggestCategoryGroups.
func (e *Engine) suggestRules(ctx context.Context, txns []model.Transaction) {
	if !e.config.CreateRules {
		slog.Debug("rule creation is disabled")
		return
	}
	if len(txns) == 0 {
		slog.Debug("no uncategorized transactions to analyze for rules")
		return
	}

	slog.Info("analyzing transactions for potential new rules",
		"confidence_threshold", e.config.RuleConfidence,
		"max_rules", e.config.MaxRules)

	existingRules, err := e.api.GetRules(ctx)
	if err != nil {
		slog.Error("failed to get existing rules", "error", err)
		return
	}

	promptText, err := e.prompts.RuleSuggestions(txns, existingRules, e.config.RuleConfidence, e.config.MaxRules)
	if err != nil {
		slog.Error("failed to build rule suggestion prompt", "error", err)
		return
	}

	response, err := e.model.Ask(ctx, promptText)
	if err != nil {
		slog.Error("rule suggestion request failed", "error", err)
		return
	}

	elements, err := extractSuggestionArray(response)
	if err != nil {
		slog.Error("unusable rule suggestion response", "error", err, "response", response)
		return
	}

	suggestions := parseRuleSuggestions(elements, float64(e.config.RuleConfidence), e.config.MaxRules)
	slog.Info("processing rule suggestions", "count", len(suggestions))

	for _, s := range suggestions {
		created, createErr := e.api.CreateRule(ctx, s.AsRule())
		if createErr != nil {
			slog.Error("failed to create rule", "stage", s.Stage, "error", createErr)
			continue
		}
		slog.Info("created rule",
			"id", created.ID,
			"stage", created.Stage,
			"confidence", s.Confidence,
			"reason", s.Reason)
	}
}

// classifyTransactions asks the model for a category per transaction and
// writes each outcome back independently. Every processed transaction gets
// exactly one notes update: the guessed sentinel with its category, or the
// not-guessed sentinel that excludes it from future runs.
func (e *Engine) classifyTransactions(ctx context.Context, groups []model.CategoryGroup, categories []model.Category, payees []model.Payee, uncategorized []model.Transaction) {
	toProcess := make([]model.Transaction, 0, len(uncategorized))
	for _, txn := range uncategorized {
		if strings.Contains(txn.Notes, notesNotGuessed) {
			slog.Debug("skipping transaction marked unclassifiable on a previous run", "transaction_id", txn.ID)
			continue
		}
		toProcess = append(toProcess, txn)
	}

	slog.Info("classifying transactions", "count", len(toProcess))

	index := buildCategoryIndex(categories, groups)

	var bar *progressbar.ProgressBar
	if e.config.ShowProgress && len(toProcess) > 0 {
		bar = progressbar.NewOptions(len(toProcess),
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionSetDescription("categorizing"),
			progressbar.OptionShowCount(),
		)
	}

	for i, txn := range toProcess {
		if bar != nil {
			_ = bar.Add(1)
		}
		slog.Debug("processing transaction",
			"position", fmt.Sprintf("%d/%d", i+1, len(toProcess)),
			"payee", txn.ImportedPayee,
			"notes", txn.Notes,
			"amount", txn.Amount)

		promptText, err := e.prompts.Classification(groups, txn, payees)
		if err != nil {
			slog.Error("failed to build classification prompt", "transaction_id", txn.ID, "error", err)
			continue
		}

		guess, err := e.model.Ask(ctx, promptText)
		if err != nil {
			slog.Error("classification request failed", "transaction_id", txn.ID, "error", err)
			continue
		}

		category, found := resolveCategory(index, guess)
		if !found {
			slog.Warn("model could not classify the transaction",
				"transaction_id", txn.ID,
				"payee", txn.ImportedPayee,
				"guess", guess)
			if updateErr := e.api.UpdateTransactionNotes(ctx, txn.ID, appendSentinel(txn.Notes, notesNotGuessed)); updateErr != nil {
				slog.Error("failed to mark transaction as unclassifiable", "transaction_id", txn.ID, "error", updateErr)
			}
			continue
		}

		slog.Info("classified transaction",
			"transaction_id", txn.ID,
			"payee", txn.ImportedPayee,
			"category", category.Name)

		if updateErr := e.api.UpdateTransactionNotesAndCategory(ctx, txn.ID, appendSentinel(txn.Notes, notesGuessed), category.ID); updateErr != nil {
			slog.Error("failed to update transaction", "transaction_id", txn.ID, "error", updateErr)
		}
	}
}

// buildCategoryIndex maps canonical category IDs to categories, combining
// the snapshot category list with the categories of the re-fetched groups
// so groups created mid-run are resolvable.
func buildCategoryIndex(categories []model.Category, groups []model.CategoryGroup) map[string]model.Category {
	index := make(map[string]model.Category, len(categories))
	for _, cat := range categories {
		index[strings.ToLower(cat.ID)] = cat
	}
	for _, group := range groups {
		for _, cat := range group.Categories {
			index[strings.ToLower(cat.ID)] = cat
		}
	}
	return index
}

// resolveCategory extracts a candidate identifier from raw model text and
// looks it up among the known categories.
func resolveCategory(index map[string]model.Category, guess string) (model.Category, bool) {
	id, ok := findCategoryID(guess)
	if !ok {
		return model.Category{}, false
	}
	category, found := index[id]
	return category, found
}

func appendSentinel(notes, sentinel string) string {
	return notes + " | " + sentinel
}
