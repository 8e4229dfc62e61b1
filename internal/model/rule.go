package model

// RuleStage determines when the backend evaluates a rule relative to its
// default rule set.
type RuleStage string

// Rule stage constants.
const (
	RuleStagePre     RuleStage = "pre"
	RuleStageDefault RuleStage = "default"
	RuleStagePost    RuleStage = "post"
)

// ConditionsOp combines a rule's conditions.
type ConditionsOp string

// Condition combination operators.
const (
	ConditionsOpAnd ConditionsOp = "and"
	ConditionsOpOr  ConditionsOp = "or"
)

// ConditionOrAction is one field/op/value triple of a rule. Value is left
// untyped: the backend owns its interpretation and this core passes it
// through unmodified.
type ConditionOrAction struct {
	Field string `json:"field"`
	Op    string `json:"op"`
	Value any    `json:"value"`
}

// Rule is an automatic categorization rule. ID is empty until the backend
// creates the rule; rules are never mutated by this tool once created.
type Rule struct {
	ID           string              `json:"id,omitempty"`
	Stage        RuleStage           `json:"stage"`
	ConditionsOp ConditionsOp        `json:"conditionsOp,omitempty"`
	Conditions   []ConditionOrAction `json:"conditions,omitempty"`
	Actions      []ConditionOrAction `json:"actions,omitempty"`
}

// PayeeRule is a rule scoped to a single payee.
type PayeeRule struct {
	Rule
	PayeeID string `json:"payee_id"`
}
