// Package prompt renders the model prompts used during classification.
// Rendering is a pure function of its inputs: no I/O, no state between
// calls, identical inputs always produce identical text.
package prompt

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"text/template"

	"github.com/sakowicz/actual-ai/internal/model"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

// Builder renders the three prompt kinds from embedded templates.
type Builder struct {
	templates map[string]*template.Template
}

// NewBuilder creates a Builder with all templates parsed and ready.
func NewBuilder() (*Builder, error) {
	funcMap := template.FuncMap{
		"abs":       absAmount,
		"direction": direction,
		"json":      toJSON,
	}

	names := []string{
		"classify",
		"group_suggestions",
		"rule_suggestions",
	}

	b := &Builder{templates: make(map[string]*template.Template, len(names))}
	for _, name := range names {
		filename := fmt.Sprintf("templates/%s.tmpl", name)
		tmpl, err := template.New(fmt.Sprintf("%s.tmpl", name)).Funcs(funcMap).ParseFS(templateFS, filename)
		if err != nil {
			return nil, fmt.Errorf("failed to parse template %s: %w", name, err)
		}
		b.templates[name] = tmpl
	}

	return b, nil
}

// classifyData feeds the single-transaction classification template.
type classifyData struct {
	PayeeName   string
	Groups      []model.CategoryGroup
	Transaction model.Transaction
}

// groupData feeds the category-group suggestion template.
type groupData struct {
	Groups              []model.CategoryGroup
	Transactions        []model.Transaction
	ConfidenceThreshold int
	MaxGroups           int
}

// ruleData feeds the rule suggestion template.
type ruleData struct {
	Rules               []model.Rule
	Transactions        []model.Transaction
	ConfidenceThreshold int
	MaxRules            int
}

// Classification renders the prompt asking the model for a single category
// ID. When the transaction's payee resolves to a display name differing
// from the raw imported text, both are shown.
func (b *Builder) Classification(groups []model.CategoryGroup, txn model.Transaction, payees []model.Payee) (string, error) {
	return b.render("classify", classifyData{
		Groups:      groups,
		Transaction: txn,
		PayeeName:   resolvePayeeName(payees, txn.Payee),
	})
}

// GroupSuggestions renders the prompt asking the model to propose new
// category groups for the given uncategorized transactions.
func (b *Builder) GroupSuggestions(groups []model.CategoryGroup, txns []model.Transaction, confidenceThreshold, maxGroups int) (string, error) {
	return b.render("group_suggestions", groupData{
		Groups:              groups,
		Transactions:        txns,
		ConfidenceThreshold: confidenceThreshold,
		MaxGroups:           maxGroups,
	})
}

// RuleSuggestions renders the prompt asking the model to propose new
// categorization rules.
func (b *Builder) RuleSuggestions(txns []model.Transaction, rules []model.Rule, confidenceThreshold, maxRules int) (string, error) {
	return b.render("rule_suggestions", ruleData{
		Rules:               rules,
		Transactions:        txns,
		ConfidenceThreshold: confidenceThreshold,
		MaxRules:            maxRules,
	})
}

func (b *Builder) render(name string, data any) (string, error) {
	tmpl, ok := b.templates[name]
	if !ok {
		return "", fmt.Errorf("unknown template: %s", name)
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, name+".tmpl", data); err != nil {
		return "", fmt.Errorf("failed to execute %s template: %w", name, err)
	}
	return buf.String(), nil
}

func resolvePayeeName(payees []model.Payee, payeeID string) string {
	if payeeID == "" {
		return ""
	}
	for _, p := range payees {
		if p.ID == payeeID {
			return p.Name
		}
	}
	return ""
}

func absAmount(amount int64) int64 {
	if amount < 0 {
		return -amount
	}
	return amount
}

func direction(txn model.Transaction) string {
	if txn.IsIncome() {
		return "Income"
	}
	return "Outcome"
}

func toJSON(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return "[]"
	}
	return string(data)
}
