// Package actual provides a client for the Actual Budget server REST API.
package actual

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sakowicz/actual-ai/internal/common"
	"github.com/sakowicz/actual-ai/internal/model"
)

// Config holds the connection settings for an Actual server.
type Config struct {
	// ServerURL is the base URL of the Actual API server.
	ServerURL string
	// APIKey authenticates requests via the x-api-key header.
	APIKey string
	// SyncID identifies the budget file to operate on.
	SyncID string
	// EncryptionPassword unlocks end-to-end encrypted budget files.
	// Optional; sent as a header only when set.
	EncryptionPassword string
}

// Validate checks that the configuration is complete.
func (c Config) Validate() error {
	if c.ServerURL == "" {
		return fmt.Errorf("%w: actual server URL is required", common.ErrMissingConfig)
	}
	if _, err := url.Parse(c.ServerURL); err != nil {
		return fmt.Errorf("%w: invalid actual server URL: %v", common.ErrInvalidConfig, err)
	}
	if c.APIKey == "" {
		return fmt.Errorf("%w: actual API key is required", common.ErrMissingConfig)
	}
	if c.SyncID == "" {
		return fmt.Errorf("%w: actual budget sync ID is required", common.ErrMissingConfig)
	}
	return nil
}

// Client talks to an Actual server over its REST API. It implements
// service.BudgetAPI.
type Client struct {
	httpClient         *http.Client
	baseURL            string
	apiKey             string
	syncID             string
	encryptionPassword string
}

// NewClient creates a new Actual API client.
func NewClient(cfg Config) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &Client{
		baseURL:            strings.TrimSuffix(cfg.ServerURL, "/"),
		apiKey:             cfg.APIKey,
		syncID:             cfg.SyncID,
		encryptionPassword: cfg.EncryptionPassword,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}, nil
}

// dataEnvelope is the standard response wrapper of the Actual API.
type dataEnvelope struct {
	Data json.RawMessage `json:"data"`
}

// do executes a request against a budget-scoped path and decodes the data
// envelope into out when out is non-nil.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reqBody io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reqBody = bytes.NewReader(jsonBody)
	}

	endpoint := fmt.Sprintf("%s/v1/budgets/%s%s", c.baseURL, url.PathEscape(c.syncID), path)
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reqBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.apiKey)
	if c.encryptionPassword != "" {
		req.Header.Set("budget-encryption-password", c.encryptionPassword)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%w: %s %s", common.ErrNotFound, method, path)
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("actual API error (status %d): %s", resp.StatusCode, string(respBody))
	}

	if out == nil {
		return nil
	}

	var envelope dataEnvelope
	if err := json.Unmarshal(respBody, &envelope); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	if err := json.Unmarshal(envelope.Data, out); err != nil {
		return fmt.Errorf("failed to decode response data: %w", err)
	}

	return nil
}

// GetCategoryGroups returns all category groups with their categories.
func (c *Client) GetCategoryGroups(ctx context.Context) ([]model.CategoryGroup, error) {
	var groups []model.CategoryGroup
	if err := c.do(ctx, http.MethodGet, "/categorygroups", nil, &groups); err != nil {
		return nil, fmt.Errorf("failed to get category groups: %w", err)
	}
	return groups, nil
}

// GetCategories returns every category across all groups.
func (c *Client) GetCategories(ctx context.Context) ([]model.Category, error) {
	var categories []model.Category
	if err := c.do(ctx, http.MethodGet, "/categories", nil, &categories); err != nil {
		return nil, fmt.Errorf("failed to get categories: %w", err)
	}
	return categories, nil
}

// GetPayees returns all known payees.
func (c *Client) GetPayees(ctx context.Context) ([]model.Payee, error) {
	var payees []model.Payee
	if err := c.do(ctx, http.MethodGet, "/payees", nil, &payees); err != nil {
		return nil, fmt.Errorf("failed to get payees: %w", err)
	}
	return payees, nil
}

// GetTransactions returns every transaction in the budget file.
func (c *Client) GetTransactions(ctx context.Context) ([]model.Transaction, error) {
	var transactions []model.Transaction
	if err := c.do(ctx, http.MethodGet, "/transactions", nil, &transactions); err != nil {
		return nil, fmt.Errorf("failed to get transactions: %w", err)
	}
	return transactions, nil
}

// GetUncategorizedTransactions returns transactions eligible for
// classification. The server has no matching filter, so eligibility is
// applied client-side.
func (c *Client) GetUncategorizedTransactions(ctx context.Context) ([]model.Transaction, error) {
	transactions, err := c.GetTransactions(ctx)
	if err != nil {
		return nil, err
	}

	eligible := make([]model.Transaction, 0, len(transactions))
	for _, txn := range transactions {
		if txn.EligibleForClassification() {
			eligible = append(eligible, txn)
		}
	}
	return eligible, nil
}

// GetRules returns all categorization rules.
func (c *Client) GetRules(ctx context.Context) ([]model.Rule, error) {
	var rules []model.Rule
	if err := c.do(ctx, http.MethodGet, "/rules", nil, &rules); err != nil {
		return nil, fmt.Errorf("failed to get rules: %w", err)
	}
	for i := range rules {
		if rules[i].Stage == "" {
			rules[i].Stage = model.RuleStageDefault
		}
	}
	return rules, nil
}

// GetPayeeRules returns the rules scoped to a single payee.
func (c *Client) GetPayeeRules(ctx context.Context, payeeID string) ([]model.PayeeRule, error) {
	var rules []model.PayeeRule
	path := fmt.Sprintf("/payees/%s/rules", url.PathEscape(payeeID))
	if err := c.do(ctx, http.MethodGet, path, nil, &rules); err != nil {
		return nil, fmt.Errorf("failed to get payee rules: %w", err)
	}
	return rules, nil
}

// createGroupRequest is the payload for category group creation.
type createGroupRequest struct {
	Name     string `json:"name"`
	IsIncome bool   `json:"is_income"`
}

// CreateCategoryGroup creates a new expense category group and returns its ID.
func (c *Client) CreateCategoryGroup(ctx context.Context, name string) (string, error) {
	var id string
	body := createGroupRequest{Name: name, IsIncome: false}
	if err := c.do(ctx, http.MethodPost, "/categorygroups", body, &id); err != nil {
		return "", fmt.Errorf("failed to create category group: %w", err)
	}
	return id, nil
}

// CreateRule creates a new categorization rule.
func (c *Client) CreateRule(ctx context.Context, rule model.Rule) (model.Rule, error) {
	if rule.Stage == "" {
		rule.Stage = model.RuleStageDefault
	}

	var created model.Rule
	if err := c.do(ctx, http.MethodPost, "/rules", rule, &created); err != nil {
		return model.Rule{}, fmt.Errorf("failed to create rule: %w", err)
	}
	return created, nil
}

// CreatePayeeRule creates a rule scoped to a payee. The payee ID is a hard
// precondition; the backend cannot scope a rule without it.
func (c *Client) CreatePayeeRule(ctx context.Context, rule model.PayeeRule) (model.PayeeRule, error) {
	if rule.PayeeID == "" {
		return model.PayeeRule{}, common.ErrMissingPayeeID
	}
	if rule.Stage == "" {
		rule.Stage = model.RuleStageDefault
	}

	var created model.PayeeRule
	path := fmt.Sprintf("/payees/%s/rules", url.PathEscape(rule.PayeeID))
	if err := c.do(ctx, http.MethodPost, path, rule, &created); err != nil {
		return model.PayeeRule{}, fmt.Errorf("failed to create payee rule: %w", err)
	}
	return created, nil
}

// updateTransactionRequest carries a partial transaction update. Category
// is a pointer so a notes-only update leaves it untouched.
type updateTransactionRequest struct {
	Notes    string  `json:"notes"`
	Category *string `json:"category,omitempty"`
}

// UpdateTransactionNotes replaces a transaction's notes.
func (c *Client) UpdateTransactionNotes(ctx context.Context, id, notes string) error {
	path := fmt.Sprintf("/transactions/%s", url.PathEscape(id))
	body := updateTransactionRequest{Notes: notes}
	if err := c.do(ctx, http.MethodPatch, path, body, nil); err != nil {
		return fmt.Errorf("failed to update transaction notes: %w", err)
	}
	return nil
}

// UpdateTransactionNotesAndCategory sets a transaction's notes and category
// in one call.
func (c *Client) UpdateTransactionNotesAndCategory(ctx context.Context, id, notes, categoryID string) error {
	path := fmt.Sprintf("/transactions/%s", url.PathEscape(id))
	body := updateTransactionRequest{Notes: notes, Category: &categoryID}
	if err := c.do(ctx, http.MethodPatch, path, body, nil); err != nil {
		return fmt.Errorf("failed to update transaction: %w", err)
	}
	return nil
}

// RunBankSync asks the server to pull fresh transactions from linked bank
// accounts. The sync runs server-side; this call returns when it finishes.
func (c *Client) RunBankSync(ctx context.Context) error {
	if err := c.do(ctx, http.MethodPost, "/banksync", nil, nil); err != nil {
		return fmt.Errorf("bank sync failed: %w", err)
	}
	return nil
}
