package engine

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakowicz/actual-ai/internal/actual"
	"github.com/sakowicz/actual-ai/internal/model"
	"github.com/sakowicz/actual-ai/internal/prompt"
)

const (
	groceriesID     = "3f2504e0-4f89-41d3-9a0c-0305e82c3301"
	entertainmentID = "b3e7f8a2-1c2d-4e5f-8a9b-123456789abc"
)

func newTestBackend() *actual.MockClient {
	mock := actual.NewMockClient()
	mock.CategoryGroups = []model.CategoryGroup{
		{
			ID:   "c56a4180-65aa-42ec-a945-5fd21dec0538",
			Name: "Usual Expenses",
			Categories: []model.Category{
				{ID: groceriesID, Name: "Groceries"},
				{ID: entertainmentID, Name: "Entertainment"},
			},
		},
	}
	mock.Categories = []model.Category{
		{ID: groceriesID, Name: "Groceries"},
		{ID: entertainmentID, Name: "Entertainment"},
	}
	mock.Payees = []model.Payee{{ID: "p1", Name: "Carrefour"}}
	return mock
}

func carrefourTxn() model.Transaction {
	return model.Transaction{
		ID:            "t1",
		Amount:        -123,
		ImportedPayee: "Carrefour 1234",
		Notes:         "Carrefour XXXX1234567 822-307-2000",
		Payee:         "p1",
	}
}

func newTestEngine(t *testing.T, api *actual.MockClient, llm Model, cfg Config) *Engine {
	t.Helper()
	prompts, err := prompt.NewBuilder()
	require.NoError(t, err)
	return NewWithConfig(api, llm, prompts, cfg)
}

func TestRun_ClassifiesTransaction(t *testing.T) {
	mock := newTestBackend()
	mock.Transactions = []model.Transaction{carrefourTxn()}
	llm := NewMockModel(groceriesID)

	eng := newTestEngine(t, mock, llm, DefaultConfig())
	require.NoError(t, eng.Run(context.Background()))

	require.Len(t, mock.CategoryUpdates, 1)
	update := mock.CategoryUpdates[0]
	assert.Equal(t, "t1", update.ID)
	assert.Equal(t, groceriesID, update.CategoryID)
	assert.Equal(t, "Carrefour XXXX1234567 822-307-2000 | actual-ai guessed this category", update.Notes)

	// Exactly one notes update per transaction, never both kinds.
	assert.Empty(t, mock.NotesUpdates)
}

func TestRun_MarksUnclassifiableTransaction(t *testing.T) {
	mock := newTestBackend()
	mock.Transactions = []model.Transaction{carrefourTxn()}
	llm := NewMockModel("idk")

	eng := newTestEngine(t, mock, llm, DefaultConfig())
	require.NoError(t, eng.Run(context.Background()))

	require.Len(t, mock.NotesUpdates, 1)
	update := mock.NotesUpdates[0]
	assert.Equal(t, "t1", update.ID)
	assert.Equal(t, "Carrefour XXXX1234567 822-307-2000 | actual-ai could not guess this category", update.Notes)

	// Category stays untouched.
	assert.Empty(t, mock.CategoryUpdates)
	assert.Empty(t, mock.Transactions[0].Category)
}

func TestRun_SkipsPreviouslyUnclassifiableTransaction(t *testing.T) {
	txn := carrefourTxn()
	txn.Notes = "Carrefour XXXX1234567 | " + notesNotGuessed

	mock := newTestBackend()
	mock.Transactions = []model.Transaction{txn}
	llm := NewMockModel()

	eng := newTestEngine(t, mock, llm, DefaultConfig())
	require.NoError(t, eng.Run(context.Background()))

	// The model is never consulted and nothing is written.
	assert.Zero(t, llm.Calls())
	assert.Empty(t, mock.NotesUpdates)
	assert.Empty(t, mock.CategoryUpdates)
}

func TestRun_UnknownIdentifierIsUnresolved(t *testing.T) {
	mock := newTestBackend()
	mock.Transactions = []model.Transaction{carrefourTxn()}
	// Well-formed identifier, but not a category the budget knows.
	llm := NewMockModel("9d2b8c4a-1e2f-43a4-8b5c-6d7e8f9a0b1c")

	eng := newTestEngine(t, mock, llm, DefaultConfig())
	require.NoError(t, eng.Run(context.Background()))

	require.Len(t, mock.NotesUpdates, 1)
	assert.Empty(t, mock.CategoryUpdates)
}

func TestRun_CreatesSuggestedGroups(t *testing.T) {
	mock := newTestBackend()
	mock.Transactions = []model.Transaction{carrefourTxn()}
	llm := NewMockModel(
		`[{"name":"Shopping","confidence":9,"reason":"retail"},{"name":"Entertainment","confidence":8,"reason":"streaming"}]`,
		groceriesID,
	)

	cfg := DefaultConfig()
	cfg.CreateCategoryGroups = true
	cfg.CategoryGroupConfidence = 8

	eng := newTestEngine(t, mock, llm, cfg)
	require.NoError(t, eng.Run(context.Background()))

	require.Len(t, mock.CreatedGroups, 2)
	assert.Equal(t, "ai-Shopping", mock.CreatedGroups[0].Name)
	assert.Equal(t, "ai-Entertainment", mock.CreatedGroups[1].Name)
}

func TestRun_LowConfidenceGroupsNotCreated(t *testing.T) {
	mock := newTestBackend()
	mock.Transactions = []model.Transaction{carrefourTxn()}
	llm := NewMockModel(
		`[{"name":"Shopping","confidence":5},{"name":"Entertainment","confidence":5}]`,
		groceriesID,
	)

	cfg := DefaultConfig()
	cfg.CreateCategoryGroups = true
	cfg.CategoryGroupConfidence = 8

	eng := newTestEngine(t, mock, llm, cfg)
	require.NoError(t, eng.Run(context.Background()))

	assert.Empty(t, mock.CreatedGroups)
}

func TestRun_GroupSubflowSkippedWhenNothingUncategorized(t *testing.T) {
	mock := newTestBackend()
	llm := NewMockModel()

	cfg := DefaultConfig()
	cfg.CreateCategoryGroups = true
	cfg.CreateRules = true

	eng := newTestEngine(t, mock, llm, cfg)
	require.NoError(t, eng.Run(context.Background()))

	assert.Zero(t, llm.Calls())
	assert.Empty(t, mock.CreatedGroups)
	assert.Empty(t, mock.CreatedRules)
}

func TestRun_GroupCreationFailureDoesNotBlockSiblings(t *testing.T) {
	mock := newTestBackend()
	mock.Transactions = []model.Transaction{carrefourTxn()}

	var attempted []string
	mock.CreateCategoryGroupFn = func(_ context.Context, name string) (string, error) {
		attempted = append(attempted, name)
		if name == "ai-Shopping" {
			return "", fmt.Errorf("duplicate group")
		}
		return "new-id", nil
	}

	llm := NewMockModel(
		`[{"name":"Shopping","confidence":9},{"name":"Pets","confidence":9}]`,
		"idk",
	)

	cfg := DefaultConfig()
	cfg.CreateCategoryGroups = true

	eng := newTestEngine(t, mock, llm, cfg)
	require.NoError(t, eng.Run(context.Background()))

	assert.Equal(t, []string{"ai-Shopping", "ai-Pets"}, attempted)
}

func TestRun_MalformedSuggestionResponseAbortsOnlySubflow(t *testing.T) {
	mock := newTestBackend()
	mock.Transactions = []model.Transaction{carrefourTxn()}
	llm := NewMockModel(
		"I don't feel like emitting JSON today.",
		groceriesID,
	)

	cfg := DefaultConfig()
	cfg.CreateCategoryGroups = true

	eng := newTestEngine(t, mock, llm, cfg)
	require.NoError(t, eng.Run(context.Background()))

	// No groups created, but classification still ran.
	assert.Empty(t, mock.CreatedGroups)
	require.Len(t, mock.CategoryUpdates, 1)
	assert.Equal(t, groceriesID, mock.CategoryUpdates[0].CategoryID)
}

func TestRun_CreatesSuggestedRules(t *testing.T) {
	mock := newTestBackend()
	mock.Transactions = []model.Transaction{carrefourTxn()}
	llm := NewMockModel(
		`[{
			"stage": "pre",
			"conditions": [{"field":"payee","op":"contains","value":"MonthlyService"}],
			"actions": [{"field":"category","op":"set","value":"`+groceriesID+`"}],
			"confidence": 9,
			"reason": "recurring charge"
		}]`,
		"idk",
	)

	cfg := DefaultConfig()
	cfg.CreateRules = true
	cfg.RuleConfidence = 8

	eng := newTestEngine(t, mock, llm, cfg)
	require.NoError(t, eng.Run(context.Background()))

	require.Len(t, mock.CreatedRules, 1)
	rule := mock.CreatedRules[0]
	assert.Equal(t, model.RuleStagePre, rule.Stage)
	assert.Equal(t, model.ConditionsOpAnd, rule.ConditionsOp)
	require.Len(t, rule.Conditions, 1)
	assert.Equal(t, "MonthlyService", rule.Conditions[0].Value)
}

func TestRun_RuleCreationFailureDoesNotBlockSiblings(t *testing.T) {
	mock := newTestBackend()
	mock.Transactions = []model.Transaction{carrefourTxn()}

	var attempted []model.RuleStage
	mock.CreateRuleFn = func(_ context.Context, rule model.Rule) (model.Rule, error) {
		attempted = append(attempted, rule.Stage)
		if rule.Stage == model.RuleStagePre {
			return model.Rule{}, fmt.Errorf("conflicting rule")
		}
		rule.ID = "r2"
		return rule, nil
	}

	llm := NewMockModel(
		`[
			{"stage":"pre","conditions":[{"field":"payee","op":"is","value":"Netflix"}],"actions":[{"field":"category","op":"set","value":"c1"}],"confidence":9},
			{"stage":"default","conditions":[{"field":"payee","op":"is","value":"Spotify"}],"actions":[{"field":"category","op":"set","value":"c2"}],"confidence":9}
		]`,
		"idk",
	)

	cfg := DefaultConfig()
	cfg.CreateRules = true

	eng := newTestEngine(t, mock, llm, cfg)
	require.NoError(t, eng.Run(context.Background()))

	assert.Equal(t, []model.RuleStage{model.RuleStagePre, model.RuleStageDefault}, attempted)
}

func TestRun_CategoryWriteFailureDoesNotBlockNextTransaction(t *testing.T) {
	second := carrefourTxn()
	second.ID = "t2"
	second.ImportedPayee = "Netflix"
	second.Notes = "NETFLIX.COM"

	mock := newTestBackend()
	mock.Transactions = []model.Transaction{carrefourTxn(), second}

	var attempted []string
	mock.UpdateTransactionNotesAndCategoryFn = func(_ context.Context, id, _, _ string) error {
		attempted = append(attempted, id)
		if id == "t1" {
			return fmt.Errorf("server busy")
		}
		return nil
	}

	llm := NewMockModel(groceriesID, entertainmentID)

	eng := newTestEngine(t, mock, llm, DefaultConfig())
	require.NoError(t, eng.Run(context.Background()))

	assert.Equal(t, []string{"t1", "t2"}, attempted)
	assert.Equal(t, 2, llm.Calls())
}

func TestRun_NotesWriteFailureDoesNotBlockNextTransaction(t *testing.T) {
	second := carrefourTxn()
	second.ID = "t2"
	second.ImportedPayee = "Netflix"
	second.Notes = "NETFLIX.COM"

	mock := newTestBackend()
	mock.Transactions = []model.Transaction{carrefourTxn(), second}

	var attempted []string
	mock.UpdateTransactionNotesFn = func(_ context.Context, id, _ string) error {
		attempted = append(attempted, id)
		if id == "t1" {
			return fmt.Errorf("server busy")
		}
		return nil
	}

	llm := NewMockModel("idk", "idk")

	eng := newTestEngine(t, mock, llm, DefaultConfig())
	require.NoError(t, eng.Run(context.Background()))

	assert.Equal(t, []string{"t1", "t2"}, attempted)
}

func TestRun_SyncsAccountsBeforeClassifying(t *testing.T) {
	mock := newTestBackend()
	llm := NewMockModel()

	cfg := DefaultConfig()
	cfg.SyncAccountsBeforeClassify = true

	eng := newTestEngine(t, mock, llm, cfg)
	require.NoError(t, eng.Run(context.Background()))

	assert.Equal(t, 1, mock.BankSyncCalls)
}

func TestRun_SyncFailureDoesNotAbortRun(t *testing.T) {
	mock := newTestBackend()
	mock.Transactions = []model.Transaction{carrefourTxn()}
	mock.RunBankSyncFn = func(context.Context) error {
		return fmt.Errorf("bank is on fire")
	}
	llm := NewMockModel(groceriesID)

	cfg := DefaultConfig()
	cfg.SyncAccountsBeforeClassify = true

	eng := newTestEngine(t, mock, llm, cfg)
	require.NoError(t, eng.Run(context.Background()))

	assert.Equal(t, 1, mock.BankSyncCalls)
	require.Len(t, mock.CategoryUpdates, 1)
}

func TestRun_ResolvesCategoriesFromGroupsCreatedMidRun(t *testing.T) {
	// A category that only exists inside the re-fetched groups (not the
	// snapshot category list) must still resolve.
	freshID := "a1b2c3d4-5e6f-47a8-9b0c-1d2e3f4a5b6c"
	mock := newTestBackend()
	mock.CategoryGroups = append(mock.CategoryGroups, model.CategoryGroup{
		ID:         "f0e1d2c3-b4a5-4697-8809-0a1b2c3d4e5f",
		Name:       "ai-Subscriptions",
		Categories: []model.Category{{ID: freshID, Name: "Streaming"}},
	})
	mock.Transactions = []model.Transaction{carrefourTxn()}
	llm := NewMockModel(freshID)

	eng := newTestEngine(t, mock, llm, DefaultConfig())
	require.NoError(t, eng.Run(context.Background()))

	require.Len(t, mock.CategoryUpdates, 1)
	assert.Equal(t, freshID, mock.CategoryUpdates[0].CategoryID)
}

func TestRun_EachTransactionUpdatedExactlyOnce(t *testing.T) {
	second := carrefourTxn()
	second.ID = "t2"
	second.ImportedPayee = "Netflix"
	second.Notes = "NETFLIX.COM"

	mock := newTestBackend()
	mock.Transactions = []model.Transaction{carrefourTxn(), second}
	llm := NewMockModel(groceriesID, "no idea, sorry")

	eng := newTestEngine(t, mock, llm, DefaultConfig())
	require.NoError(t, eng.Run(context.Background()))

	assert.Len(t, mock.CategoryUpdates, 1)
	assert.Len(t, mock.NotesUpdates, 1)
	assert.Equal(t, "t1", mock.CategoryUpdates[0].ID)
	assert.Equal(t, "t2", mock.NotesUpdates[0].ID)
}
