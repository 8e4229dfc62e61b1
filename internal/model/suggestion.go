package model

// GroupSuggestion is a model-proposed category group. Ephemeral: only
// suggestions that clear the confidence threshold turn into
// CreateCategoryGroup calls, and the suggestion itself is never persisted.
type GroupSuggestion struct {
	Name       string  `json:"name"`
	Confidence float64 `json:"confidence"`
	Reason     string  `json:"reason"`
}

// RuleSuggestion is a model-proposed categorization rule. Condition and
// action contents are carried through structurally; their field/op
// vocabulary is validated by the backend, not here.
type RuleSuggestion struct {
	Stage        RuleStage           `json:"stage"`
	ConditionsOp ConditionsOp        `json:"conditionsOp"`
	Conditions   []ConditionOrAction `json:"conditions"`
	Actions      []ConditionOrAction `json:"actions"`
	Confidence   float64             `json:"confidence"`
	Reason       string              `json:"reason"`
}

// AsRule converts an accepted suggestion into the rule sent to the backend,
// defaulting the condition operator to "and" when the model omitted it.
func (s RuleSuggestion) AsRule() Rule {
	op := s.ConditionsOp
	if op == "" {
		op = ConditionsOpAnd
	}
	return Rule{
		Stage:        s.Stage,
		ConditionsOp: op,
		Conditions:   s.Conditions,
		Actions:      s.Actions,
	}
}
