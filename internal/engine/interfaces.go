package engine

import (
	"context"

	"github.com/sakowicz/actual-ai/internal/model"
)

// Model defines the contract with the language model collaborator. One
// prompt in, raw response text out; generation parameters belong to the
// implementation.
type Model interface {
	Ask(ctx context.Context, prompt string) (string, error)
}

// PromptBuilder defines the contract for rendering model prompts. All
// three operations are pure: no I/O, deterministic for identical inputs.
type PromptBuilder interface {
	Classification(groups []model.CategoryGroup, txn model.Transaction, payees []model.Payee) (string, error)
	GroupSuggestions(groups []model.CategoryGroup, txns []model.Transaction, confidenceThreshold, maxGroups int) (string, error)
	RuleSuggestions(txns []model.Transaction, rules []model.Rule, confidenceThreshold, maxRules int) (string, error)
}
