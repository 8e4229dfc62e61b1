// Package service defines the interfaces for all application services.
package service

import (
	"context"

	"github.com/sakowicz/actual-ai/internal/model"
)

// BudgetAPI defines the contract with the budgeting backend. Every call is
// independent; the backend offers no batching or transactionality across
// calls, so callers must treat each operation as its own commit point.
type BudgetAPI interface {
	// Read operations
	GetCategoryGroups(ctx context.Context) ([]model.CategoryGroup, error)
	GetCategories(ctx context.Context) ([]model.Category, error)
	GetPayees(ctx context.Context) ([]model.Payee, error)
	GetUncategorizedTransactions(ctx context.Context) ([]model.Transaction, error)
	GetRules(ctx context.Context) ([]model.Rule, error)
	GetPayeeRules(ctx context.Context, payeeID string) ([]model.PayeeRule, error)

	// Write operations
	CreateCategoryGroup(ctx context.Context, name string) (string, error)
	CreateRule(ctx context.Context, rule model.Rule) (model.Rule, error)
	CreatePayeeRule(ctx context.Context, rule model.PayeeRule) (model.PayeeRule, error)
	UpdateTransactionNotes(ctx context.Context, id, notes string) error
	UpdateTransactionNotesAndCategory(ctx context.Context, id, notes, categoryID string) error

	// RunBankSync asks the backend to pull fresh transactions from linked
	// bank accounts before classification starts.
	RunBankSync(ctx context.Context) error
}
