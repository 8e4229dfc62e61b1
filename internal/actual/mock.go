package actual

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/sakowicz/actual-ai/internal/common"
	"github.com/sakowicz/actual-ai/internal/model"
)

// MockClient is an in-memory implementation of service.BudgetAPI for
// testing. Reads serve the seeded state, writes are recorded, and any
// operation can be overridden through its Fn field to inject failures.
type MockClient struct {
	// Seed state served by read operations.
	CategoryGroups []model.CategoryGroup
	Categories     []model.Category
	Payees         []model.Payee
	Transactions   []model.Transaction
	Rules          []model.Rule
	PayeeRules     map[string][]model.PayeeRule

	// Overrides for error injection.
	RunBankSyncFn                       func(ctx context.Context) error
	CreateCategoryGroupFn               func(ctx context.Context, name string) (string, error)
	CreateRuleFn                        func(ctx context.Context, rule model.Rule) (model.Rule, error)
	UpdateTransactionNotesFn            func(ctx context.Context, id, notes string) error
	UpdateTransactionNotesAndCategoryFn func(ctx context.Context, id, notes, categoryID string) error

	// Recorded writes.
	CreatedGroups   []model.CategoryGroup
	CreatedRules    []model.Rule
	NotesUpdates    []NotesUpdate
	CategoryUpdates []CategoryUpdate
	BankSyncCalls   int

	mu sync.Mutex
}

// NotesUpdate records one UpdateTransactionNotes call.
type NotesUpdate struct {
	ID    string
	Notes string
}

// CategoryUpdate records one UpdateTransactionNotesAndCategory call.
type CategoryUpdate struct {
	ID         string
	Notes      string
	CategoryID string
}

// NewMockClient creates an empty mock backend.
func NewMockClient() *MockClient {
	return &MockClient{
		PayeeRules: make(map[string][]model.PayeeRule),
	}
}

// GetCategoryGroups implements service.BudgetAPI.
func (m *MockClient) GetCategoryGroups(_ context.Context) ([]model.CategoryGroup, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	groups := make([]model.CategoryGroup, 0, len(m.CategoryGroups)+len(m.CreatedGroups))
	groups = append(groups, m.CategoryGroups...)
	groups = append(groups, m.CreatedGroups...)
	return groups, nil
}

// GetCategories implements service.BudgetAPI.
func (m *MockClient) GetCategories(_ context.Context) ([]model.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]model.Category(nil), m.Categories...), nil
}

// GetPayees implements service.BudgetAPI.
func (m *MockClient) GetPayees(_ context.Context) ([]model.Payee, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]model.Payee(nil), m.Payees...), nil
}

// GetUncategorizedTransactions implements service.BudgetAPI. Eligibility
// filtering matches the production client.
func (m *MockClient) GetUncategorizedTransactions(_ context.Context) ([]model.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	eligible := make([]model.Transaction, 0, len(m.Transactions))
	for _, txn := range m.Transactions {
		if txn.EligibleForClassification() {
			eligible = append(eligible, txn)
		}
	}
	return eligible, nil
}

// GetRules implements service.BudgetAPI.
func (m *MockClient) GetRules(_ context.Context) ([]model.Rule, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]model.Rule(nil), m.Rules...), nil
}

// GetPayeeRules implements service.BudgetAPI.
func (m *MockClient) GetPayeeRules(_ context.Context, payeeID string) ([]model.PayeeRule, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]model.PayeeRule(nil), m.PayeeRules[payeeID]...), nil
}

// CreateCategoryGroup implements service.BudgetAPI.
func (m *MockClient) CreateCategoryGroup(ctx context.Context, name string) (string, error) {
	if m.CreateCategoryGroupFn != nil {
		return m.CreateCategoryGroupFn(ctx, name)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	group := model.CategoryGroup{
		ID:   uuid.NewString(),
		Name: name,
	}
	m.CreatedGroups = append(m.CreatedGroups, group)
	return group.ID, nil
}

// CreateRule implements service.BudgetAPI.
func (m *MockClient) CreateRule(ctx context.Context, rule model.Rule) (model.Rule, error) {
	if m.CreateRuleFn != nil {
		return m.CreateRuleFn(ctx, rule)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	rule.ID = uuid.NewString()
	if rule.Stage == "" {
		rule.Stage = model.RuleStageDefault
	}
	m.CreatedRules = append(m.CreatedRules, rule)
	return rule, nil
}

// CreatePayeeRule implements service.BudgetAPI.
func (m *MockClient) CreatePayeeRule(_ context.Context, rule model.PayeeRule) (model.PayeeRule, error) {
	if rule.PayeeID == "" {
		return model.PayeeRule{}, common.ErrMissingPayeeID
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	rule.ID = uuid.NewString()
	if rule.Stage == "" {
		rule.Stage = model.RuleStageDefault
	}
	m.PayeeRules[rule.PayeeID] = append(m.PayeeRules[rule.PayeeID], rule)
	return rule, nil
}

// UpdateTransactionNotes implements service.BudgetAPI.
func (m *MockClient) UpdateTransactionNotes(ctx context.Context, id, notes string) error {
	if m.UpdateTransactionNotesFn != nil {
		return m.UpdateTransactionNotesFn(ctx, id, notes)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.NotesUpdates = append(m.NotesUpdates, NotesUpdate{ID: id, Notes: notes})
	for i := range m.Transactions {
		if m.Transactions[i].ID == id {
			m.Transactions[i].Notes = notes
		}
	}
	return nil
}

// UpdateTransactionNotesAndCategory implements service.BudgetAPI.
func (m *MockClient) UpdateTransactionNotesAndCategory(ctx context.Context, id, notes, categoryID string) error {
	if m.UpdateTransactionNotesAndCategoryFn != nil {
		return m.UpdateTransactionNotesAndCategoryFn(ctx, id, notes, categoryID)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.CategoryUpdates = append(m.CategoryUpdates, CategoryUpdate{ID: id, Notes: notes, CategoryID: categoryID})
	for i := range m.Transactions {
		if m.Transactions[i].ID == id {
			m.Transactions[i].Notes = notes
			m.Transactions[i].Category = categoryID
		}
	}
	return nil
}

// RunBankSync implements service.BudgetAPI.
func (m *MockClient) RunBankSync(ctx context.Context) error {
	m.mu.Lock()
	m.BankSyncCalls++
	m.mu.Unlock()

	if m.RunBankSyncFn != nil {
		return m.RunBankSyncFn(ctx)
	}
	return nil
}
